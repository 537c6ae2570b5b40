package engine

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// Contains reports whether the whole square, boundary included, lies within
// the region. Under BoundaryInclusive a square may share edges or corners with
// the region boundary; under BoundaryExclusive it must not touch it at all.
// Empty or zero-area regions contain nothing.
//
// Corner tests alone miss concave notches, holes and spikes, so the check is
// done on the region boundary instead: no region edge may enter the square's
// interior, and the square's centre must be inside the region. With the
// boundary kept out, the interior is either wholly inside or wholly outside.
func Contains(region model.Region, sq model.Square, policy model.ContainmentPolicy) bool {
	if !(sq.Side > 0) || math.IsInf(sq.Side, 0) || region.IsEmpty() {
		return false
	}

	rings := region.Rings()
	tol := model.Tolerance(region.Bound())
	b := sq.Bound()
	if !within(region.Bound(), b, tol) {
		return false
	}

	// Inclusive lets edges lie on the square's outline, so only the interior
	// shrunk by the tolerance is off limits. Exclusive also bars the outline.
	keepOut := orb.Bound{
		Min: orb.Point{b.Min[0] + tol, b.Min[1] + tol},
		Max: orb.Point{b.Max[0] - tol, b.Max[1] - tol},
	}
	if policy == model.BoundaryExclusive {
		keepOut = orb.Bound{
			Min: orb.Point{b.Min[0] - tol, b.Min[1] - tol},
			Max: orb.Point{b.Max[0] + tol, b.Max[1] + tol},
		}
	}

	if keepOut.Min[0] <= keepOut.Max[0] && keepOut.Min[1] <= keepOut.Max[1] {
		for _, r := range rings {
			if len(clip.LineString(keepOut, orb.LineString(r))) > 0 {
				return false
			}
		}
	}

	center := geom.Point{X: b.Min[0] + sq.Side/2, Y: b.Min[1] + sq.Side/2}
	return center.Within(model.GeomPolygon(rings)) == geom.Inside
}

func within(outer, inner orb.Bound, tol float64) bool {
	return inner.Min[0] >= outer.Min[0]-tol && inner.Min[1] >= outer.Min[1]-tol &&
		inner.Max[0] <= outer.Max[0]+tol && inner.Max[1] <= outer.Max[1]+tol
}
