package engine

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/stretchr/testify/assert"
)

func sq(x, y, side float64) model.Square {
	return model.Square{Origin: orb.Point{x, y}, Side: side}
}

func TestContains_InteriorSquare(t *testing.T) {
	r := squareRegion(10)
	assert.True(t, Contains(r, sq(2, 2, 3), model.BoundaryInclusive))
	assert.True(t, Contains(r, sq(2, 2, 3), model.BoundaryExclusive))
}

func TestContains_BoundaryTouching(t *testing.T) {
	r := squareRegion(10)

	// Shares two edges with the parcel.
	assert.True(t, Contains(r, sq(5, 5, 5), model.BoundaryInclusive))
	assert.False(t, Contains(r, sq(5, 5, 5), model.BoundaryExclusive))

	// Identical to the parcel.
	assert.True(t, Contains(r, sq(0, 0, 10), model.BoundaryInclusive))
	assert.False(t, Contains(r, sq(0, 0, 10), model.BoundaryExclusive))
}

func TestContains_Outside(t *testing.T) {
	r := squareRegion(10)
	assert.False(t, Contains(r, sq(8, 8, 5), model.BoundaryInclusive), "overhangs the corner")
	assert.False(t, Contains(r, sq(20, 20, 1), model.BoundaryInclusive), "disjoint")
	assert.False(t, Contains(r, sq(-1, -1, 12), model.BoundaryInclusive), "covers the parcel")
}

func TestContains_LShapeNotch(t *testing.T) {
	r := lShape()

	// All four corners lie within the convex hull of the L, but the upper
	// right part of the square covers the missing quarter.
	assert.False(t, Contains(r, sq(3, 3, 4), model.BoundaryInclusive))

	assert.True(t, Contains(r, sq(0, 5, 5), model.BoundaryInclusive))
	assert.True(t, Contains(r, sq(5, 0, 5), model.BoundaryInclusive))
	assert.False(t, Contains(r, sq(5, 5, 5), model.BoundaryInclusive))
}

func TestContains_CornersInsideBodyOutside(t *testing.T) {
	r := notched()
	s := sq(1, 1, 8)

	for _, c := range s.Corners() {
		assert.Equal(t, model.Inside, model.LocatePoint(r.Rings(), c, 1e-9), "corner %v", c)
	}
	assert.False(t, Contains(r, s, model.BoundaryInclusive), "square spans the slot")

	assert.True(t, Contains(r, sq(0, 2, 4), model.BoundaryInclusive), "left of the slot")
	assert.True(t, Contains(r, sq(1, 0, 2), model.BoundaryInclusive), "below the slot")
}

func TestContains_Hole(t *testing.T) {
	r := model.NewRegion("", orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}})

	assert.False(t, Contains(r, sq(3, 3, 4), model.BoundaryInclusive), "hole fully inside the square")
	assert.False(t, Contains(r, sq(4, 4, 2), model.BoundaryInclusive), "square is the hole")
	assert.True(t, Contains(r, sq(6, 6, 2), model.BoundaryInclusive), "touches the hole corner")
	assert.False(t, Contains(r, sq(6, 6, 2), model.BoundaryExclusive))
}

func TestContains_TriangularHoleOnDiagonal(t *testing.T) {
	// The hole's edges run along two sides of the square and across its diagonal.
	r := model.NewRegion("", orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		orb.Ring{{2, 2}, {4, 2}, {2, 4}})
	assert.False(t, Contains(r, sq(2, 2, 2), model.BoundaryInclusive))
}

func TestContains_DegenerateInputs(t *testing.T) {
	assert.False(t, Contains(model.Region{}, sq(0, 0, 1), model.BoundaryInclusive))

	flat := model.NewRegion("", orb.Ring{{0, 0}, {10, 0}, {20, 0}})
	assert.False(t, Contains(flat, sq(0, 0, 1), model.BoundaryInclusive))

	assert.False(t, Contains(squareRegion(10), sq(1, 1, 0), model.BoundaryInclusive))
	assert.False(t, Contains(squareRegion(10), sq(1, 1, -2), model.BoundaryInclusive))
}

func TestContains_GeographicScale(t *testing.T) {
	// A parcel of roughly 100 m in degrees near 45°N.
	r := model.NewRegion("EPSG:4326", orb.Ring{
		{7.0000, 45.0000}, {7.0013, 45.0000}, {7.0013, 45.0009}, {7.0000, 45.0009},
	})
	assert.True(t, Contains(r, sq(7.0000, 45.0000, 0.0004), model.BoundaryInclusive))
	assert.False(t, Contains(r, sq(7.0010, 45.0000, 0.0004), model.BoundaryInclusive))
}

func TestContains_DiagonalEdge(t *testing.T) {
	// Right triangle whose hypotenuse x+y=10 passes the squares' top-right corners.
	r := model.NewRegion("", orb.Ring{{0, 0}, {10, 0}, {0, 10}})

	assert.True(t, Contains(r, sq(1, 1, 3), model.BoundaryInclusive), "well clear of the hypotenuse")
	assert.True(t, Contains(r, sq(1, 1, 3), model.BoundaryExclusive))
	assert.True(t, Contains(r, sq(0, 0, 5), model.BoundaryInclusive), "corner on the hypotenuse")
	assert.False(t, Contains(r, sq(0, 0, 5), model.BoundaryExclusive))
	assert.False(t, Contains(r, sq(0, 0, 5.1), model.BoundaryInclusive), "corner past the hypotenuse")
	assert.False(t, Contains(r, sq(4, 4, 1.5), model.BoundaryInclusive), "hypotenuse cuts the square")
	assert.False(t, Contains(r, sq(6, 6, 1), model.BoundaryInclusive), "square beyond the hypotenuse")
}
