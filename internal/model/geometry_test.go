package model

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitSquare(size float64) orb.Ring {
	return orb.Ring{{0, 0}, {size, 0}, {size, size}, {0, size}, {0, 0}}
}

func TestTolerance(t *testing.T) {
	assert.InDelta(t, 1e-8, Tolerance(orb.Bound{Max: orb.Point{10, 5}}), 1e-20)
	assert.Equal(t, relativeTolerance, Tolerance(orb.Bound{}))
}

func TestCloseRing(t *testing.T) {
	open := orb.Ring{{0, 0}, {1, 0}, {1, 1}}
	closed := CloseRing(open)
	assert.Len(t, closed, 4)
	assert.Len(t, open, 3, "input must not be modified")
	assert.True(t, IsClosed(closed))

	again := CloseRing(closed)
	assert.Equal(t, closed, again)
	assert.Empty(t, CloseRing(nil))
}

func TestOrientRing(t *testing.T) {
	ccw := unitSquare(2)
	assert.InDelta(t, 4.0, SignedArea(ccw), 1e-12)

	cw := OrientRing(ccw, false)
	assert.InDelta(t, -4.0, SignedArea(cw), 1e-12)
	assert.True(t, IsClosed(cw))
	assert.InDelta(t, 4.0, SignedArea(ccw), 1e-12, "input must not be modified")

	assert.Equal(t, ccw, OrientRing(cw, true))
}

func TestDedupeRing(t *testing.T) {
	r := orb.Ring{{0, 0}, {0, 0}, {1, 0}, {1, 1e-12}, {1, 1}, {0, 0}}
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, DedupeRing(r, 1e-9))
}

func TestLocatePoint(t *testing.T) {
	rings := []orb.Ring{unitSquare(10), {{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}}}
	tol := 1e-9

	tests := []struct {
		p    orb.Point
		want Location
	}{
		{orb.Point{1, 1}, Inside},
		{orb.Point{5, 5}, Outside}, // in the hole
		{orb.Point{11, 5}, Outside},
		{orb.Point{0, 5}, OnBoundary},
		{orb.Point{10, 10}, OnBoundary},
		{orb.Point{4, 5}, OnBoundary},
		{orb.Point{5, 1e-10}, OnBoundary},
		{orb.Point{3, 4}, Inside}, // level with a hole vertex
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LocatePoint(rings, tt.p, tol), "point %v", tt.p)
	}
	assert.Equal(t, "boundary", OnBoundary.String())
}

func TestLocatePoint_DisjointParts(t *testing.T) {
	far := orb.Ring{{20, 0}, {30, 0}, {30, 10}, {20, 10}, {20, 0}}
	rings := []orb.Ring{unitSquare(10), far}

	assert.Equal(t, Inside, LocatePoint(rings, orb.Point{25, 5}, 1e-9))
	assert.Equal(t, Outside, LocatePoint(rings, orb.Point{15, 5}, 1e-9), "gap between the parts")
}

func TestGeomPolygon(t *testing.T) {
	gp := GeomPolygon([]orb.Ring{unitSquare(2), {{0.5, 0.5}, {1, 0.5}, {1, 1}}})
	require.Len(t, gp, 2)
	assert.Len(t, gp[0], 4, "closing point dropped")
	assert.Len(t, gp[1], 3, "open ring kept as is")
	assert.InDelta(t, 4-0.125, gp.Area(), 1e-12)
}

func TestSegmentHits(t *testing.T) {
	tol := 1e-9

	hits := SegmentHits(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{5, -1}, orb.Point{5, 1}, tol)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.5, hits[0], 1e-12)

	assert.Empty(t, SegmentHits(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{0, 1}, orb.Point{10, 1}, tol))
	assert.Empty(t, SegmentHits(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{11, -1}, orb.Point{11, 1}, tol))

	overlap := SegmentHits(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{8, 0}, orb.Point{2, 0}, tol)
	require.Len(t, overlap, 2)
	assert.InDelta(t, 0.2, overlap[0], 1e-12)
	assert.InDelta(t, 0.8, overlap[1], 1e-12)

	touch := SegmentHits(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 0}, orb.Point{12, 0}, tol)
	require.Len(t, touch, 1)
	assert.InDelta(t, 1.0, touch[0], 1e-12)
}

func TestSelfIntersects(t *testing.T) {
	tol := 1e-9
	assert.False(t, SelfIntersects(unitSquare(1), tol))
	assert.False(t, SelfIntersects(orb.Ring{{0, 0}, {5, 0}, {10, 0}, {10, 10}, {0, 0}}, tol), "collinear vertex is fine")
	assert.True(t, SelfIntersects(orb.Ring{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}, tol), "bowtie")
	assert.True(t, SelfIntersects(orb.Ring{{0, 0}, {4, 0}, {2, 0}, {2, 2}, {0, 0}}, tol), "spike back along an edge")
	assert.True(t, SelfIntersects(orb.Ring{{0, 0}, {4, 0}, {4, 4}, {2, 0}, {0, 4}, {0, 0}}, tol), "vertex touching an edge")
}

func TestAssembleRings(t *testing.T) {
	tol := 1e-9
	outer := OrientRing(unitSquare(10), false) // deliberately clockwise
	hole := orb.Ring{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}
	island := orb.Ring{{2.5, 2.5}, {3.5, 2.5}, {3.5, 3.5}, {2.5, 3.5}, {2.5, 2.5}}
	separate := orb.Ring{{20, 0}, {22, 0}, {22, 2}, {20, 2}, {20, 0}}

	mp := AssembleRings([]orb.Ring{hole, outer, island, separate}, tol)
	require.Len(t, mp, 3)

	// Outer rings keep input order: outer, island, separate.
	assert.Len(t, mp[0], 2, "outer has the hole")
	assert.Len(t, mp[1], 1)
	assert.Len(t, mp[2], 1)
	for _, p := range mp {
		assert.Greater(t, SignedArea(p[0]), 0.0)
		for _, h := range p[1:] {
			assert.Less(t, SignedArea(h), 0.0)
		}
	}
	assert.Equal(t, orb.Point{2.5, 2.5}, mp[1][0].Bound().Min)

	total := 0.0
	for _, p := range mp {
		total += math.Abs(SignedArea(p[0]))
		for _, h := range p[1:] {
			total -= math.Abs(SignedArea(h))
		}
	}
	assert.InDelta(t, 100-4+1+4, total, 1e-9)
}

func TestAssembleRingsTouchingHole(t *testing.T) {
	// Hole sharing a vertex with the outer ring.
	outer := unitSquare(10)
	hole := orb.Ring{{0, 0}, {2, 1}, {1, 2}, {0, 0}}
	mp := AssembleRings([]orb.Ring{outer, hole}, 1e-9)
	require.Len(t, mp, 1)
	assert.Len(t, mp[0], 2)
}
