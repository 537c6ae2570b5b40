package model

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
)

// Location classifies a point against a region.
type Location int

const (
	Outside Location = iota
	OnBoundary
	Inside
)

func (l Location) String() string {
	switch l {
	case Inside:
		return "inside"
	case OnBoundary:
		return "boundary"
	default:
		return "outside"
	}
}

// relativeTolerance scales with the extent of the geometry so the same
// comparisons work for metre grids and for degree coordinates.
const relativeTolerance = 1e-9

// Tolerance returns the distance under which two points are treated as equal
// for geometry of the given extent.
func Tolerance(b orb.Bound) float64 {
	extent := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	if extent <= 0 || math.IsNaN(extent) {
		return relativeTolerance
	}
	return extent * relativeTolerance
}

// IsClosed reports whether the ring's last point repeats the first.
func IsClosed(r orb.Ring) bool {
	return len(r) > 1 && r[0] == r[len(r)-1]
}

// CloseRing returns a copy of the ring with the first point repeated at the end.
func CloseRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	if len(out) > 0 && !IsClosed(out) {
		out = append(out, out[0])
	}
	return out
}

// SignedArea computes the shoelace area of a closed ring. Positive for
// counter-clockwise rings.
func SignedArea(r orb.Ring) float64 {
	var sum float64
	for i := 0; i+1 < len(r); i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}

// OrientRing returns a copy of the ring wound counter-clockwise when ccw is
// true, clockwise otherwise.
func OrientRing(r orb.Ring, ccw bool) orb.Ring {
	out := r.Clone()
	want := orb.CW
	if ccw {
		want = orb.CCW
	}
	if len(out) > 2 && out.Orientation() != want {
		out.Reverse()
	}
	return out
}

// DedupeRing drops consecutive duplicate points (within tol).
func DedupeRing(r orb.Ring, tol float64) orb.Ring {
	if len(r) == 0 {
		return r
	}
	out := orb.Ring{r[0]}
	for _, p := range r[1:] {
		if !pointsClose(out[len(out)-1], p, tol) {
			out = append(out, p)
		}
	}
	return out
}

func pointsClose(a, b orb.Point, tol float64) bool {
	return math.Hypot(a[0]-b[0], a[1]-b[1]) <= tol
}

// SegmentDistance returns the distance from p to the segment a-b.
func SegmentDistance(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p[0]-(a[0]+t*dx), p[1]-(a[1]+t*dy))
}

// LocatePoint classifies p against a set of closed rings using the even-odd
// rule. Points within tol of any ring edge are on the boundary.
func LocatePoint(rings []orb.Ring, p orb.Point, tol float64) Location {
	for _, r := range rings {
		for i := 0; i+1 < len(r); i++ {
			if SegmentDistance(p, r[i], r[i+1]) <= tol {
				return OnBoundary
			}
		}
	}

	switch (geom.Point{X: p[0], Y: p[1]}).Within(GeomPolygon(rings)) {
	case geom.Inside:
		return Inside
	case geom.OnEdge:
		return OnBoundary
	default:
		return Outside
	}
}

// GeomPolygon converts rings to the open-ring polygon used by
// github.com/ctessum/geom. Treating every ring of a region as one polygon
// gives even-odd semantics across outer rings and holes.
func GeomPolygon(rings []orb.Ring) geom.Polygon {
	out := make(geom.Polygon, 0, len(rings))
	for _, ring := range rings {
		n := len(ring)
		if IsClosed(ring) {
			n--
		}
		path := make(geom.Path, 0, n)
		for _, pt := range ring[:n] {
			path = append(path, geom.Point{X: pt[0], Y: pt[1]})
		}
		out = append(out, path)
	}
	return out
}

// SegmentHits returns the parameters t in [0, 1] along p1->p2 where the
// segment q1->q2 touches it. Crossing or touching segments yield one value,
// collinear overlaps yield the two ends of the shared stretch.
func SegmentHits(p1, p2, q1, q2 orb.Point, tol float64) []float64 {
	dx, dy := p2[0]-p1[0], p2[1]-p1[1]
	ex, ey := q2[0]-q1[0], q2[1]-q1[1]
	lenD := math.Hypot(dx, dy)
	lenE := math.Hypot(ex, ey)
	if lenD == 0 || lenE == 0 {
		return nil
	}
	wx, wy := q1[0]-p1[0], q1[1]-p1[1]
	denom := dx*ey - dy*ex
	epsT := tol / lenD

	if math.Abs(denom) <= 1e-12*lenD*lenE {
		// Parallel: only collinear segments can touch.
		if math.Abs(dx*wy-dy*wx)/lenD > tol {
			return nil
		}
		l2 := lenD * lenD
		t1 := (wx*dx + wy*dy) / l2
		t2 := ((q2[0]-p1[0])*dx + (q2[1]-p1[1])*dy) / l2
		lo, hi := math.Min(t1, t2), math.Max(t1, t2)
		lo, hi = math.Max(lo, 0), math.Min(hi, 1)
		if lo > hi+epsT {
			return nil
		}
		if hi-lo <= epsT {
			return []float64{clamp01((lo + hi) / 2)}
		}
		return []float64{lo, hi}
	}

	t := (wx*ey - wy*ex) / denom
	u := (wx*dy - wy*dx) / denom
	epsU := tol / lenE
	if t < -epsT || t > 1+epsT || u < -epsU || u > 1+epsU {
		return nil
	}
	return []float64{clamp01(t)}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// SelfIntersects reports whether a closed ring touches itself anywhere other
// than at the shared vertex of consecutive edges.
func SelfIntersects(r orb.Ring, tol float64) bool {
	n := len(r) - 1 // edge count of a closed ring
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			hits := SegmentHits(r[i], r[i+1], r[j], r[j+1], tol)
			if len(hits) == 0 {
				continue
			}
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if !adjacent {
				return true
			}
			// Consecutive edges may only share their common vertex.
			if len(hits) == 2 {
				return true
			}
		}
	}
	return false
}

// AssembleRings groups loose rings into polygons. Rings nested an even number
// of times become outer rings (counter-clockwise), odd nesting makes a hole
// (clockwise) of its innermost container. Input order is kept.
func AssembleRings(rings []orb.Ring, tol float64) orb.MultiPolygon {
	depth := make([]int, len(rings))
	parent := make([]int, len(rings))
	for i := range rings {
		parent[i] = -1
		probe, ok := interiorProbe(rings[i], rings, i, tol)
		if !ok {
			continue
		}
		best := math.Inf(1)
		for j := range rings {
			if i == j {
				continue
			}
			if LocatePoint([]orb.Ring{rings[j]}, probe, tol) == Inside {
				depth[i]++
				if a := math.Abs(SignedArea(rings[j])); a < best {
					best = a
					parent[i] = j
				}
			}
		}
	}

	var mp orb.MultiPolygon
	index := make(map[int]int)
	for i, r := range rings {
		if depth[i]%2 == 0 {
			index[i] = len(mp)
			mp = append(mp, orb.Polygon{OrientRing(r, true)})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 1 && parent[i] >= 0 {
			if k, ok := index[parent[i]]; ok {
				mp[k] = append(mp[k], OrientRing(r, false))
			}
		}
	}
	return mp
}

// interiorProbe picks a point of ring i that does not lie on any other ring,
// so nesting can be decided with a plain point-in-ring test.
func interiorProbe(r orb.Ring, rings []orb.Ring, self int, tol float64) (orb.Point, bool) {
	candidates := make([]orb.Point, 0, 2*len(r))
	for k := 0; k+1 < len(r); k++ {
		candidates = append(candidates, r[k], orb.Point{(r[k][0] + r[k+1][0]) / 2, (r[k][1] + r[k+1][1]) / 2})
	}
	for _, c := range candidates {
		clear := true
		for j, other := range rings {
			if j == self {
				continue
			}
			if LocatePoint([]orb.Ring{other}, c, tol) == OnBoundary {
				clear = false
				break
			}
		}
		if clear {
			return c, true
		}
	}
	return orb.Point{}, false
}
