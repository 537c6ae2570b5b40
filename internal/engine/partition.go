package engine

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// Partitioner sweeps a square grid across a region and keeps the squares
// that fit inside it.
type Partitioner struct {
	Settings model.Settings
}

func New(settings model.Settings) *Partitioner {
	return &Partitioner{Settings: settings}
}

// Partition splits the region into square lots of area minArea using the
// default boundary-inclusive containment test.
func Partition(region model.Region, minArea float64) ([]model.Lot, error) {
	return New(model.DefaultSettings()).PartitionContext(context.Background(), region, minArea)
}

// Partition runs the sweep with the partitioner's containment policy.
func (p *Partitioner) Partition(region model.Region, minArea float64) ([]model.Lot, error) {
	return p.PartitionContext(context.Background(), region, minArea)
}

// PartitionContext is Partition with cancellation. The context is checked
// once per grid column.
//
// Lots are returned in sweep order: columns left to right, and within a
// column bottom to top. A region narrower or shorter than one side yields no
// lots and no error.
func (p *Partitioner) PartitionContext(ctx context.Context, region model.Region, minArea float64) ([]model.Lot, error) {
	side, err := SideLength(minArea)
	if err != nil {
		return nil, err
	}
	if region.IsEmpty() {
		return nil, nil
	}

	var lots []model.Lot
	column := math.NaN()
	for sq := range Sweep(region.Bound(), side) {
		if sq.Origin[0] != column {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			column = sq.Origin[0]
		}
		if Contains(region, sq, p.Settings.Containment) {
			lots = append(lots, model.NewLot(len(lots)+1, sq))
		}
	}
	return lots, nil
}

// SideLength converts a lot area into the side of a square lot.
func SideLength(minArea float64) (float64, error) {
	if !(minArea > 0) || math.IsInf(minArea, 0) {
		return 0, fmt.Errorf("%w: minimum lot area must be a positive number, got %g", model.ErrInvalidParameter, minArea)
	}
	return math.Sqrt(minArea), nil
}

// Sweep yields every grid square of the given side that fits within the
// bound, anchored at its minimum corner. The outer loop walks x, the inner
// loop walks y. Positions are computed from the step index so rounding does
// not accumulate across a long sweep.
func Sweep(b orb.Bound, side float64) iter.Seq[model.Square] {
	return func(yield func(model.Square) bool) {
		if !(side > 0) || math.IsInf(side, 0) {
			return
		}
		for i := 0; ; i++ {
			x := b.Min[0] + float64(i)*side
			if x+side > b.Max[0] {
				return
			}
			for j := 0; ; j++ {
				y := b.Min[1] + float64(j)*side
				if y+side > b.Max[1] {
					break
				}
				if !yield(model.Square{Origin: orb.Point{x, y}, Side: side}) {
					return
				}
			}
		}
	}
}

// GridCapacity is the number of squares the sweep visits for a bound, an
// upper limit on the lot count.
func GridCapacity(b orb.Bound, side float64) int {
	if !(side > 0) {
		return 0
	}
	cols := math.Floor((b.Max[0] - b.Min[0]) / side)
	rows := math.Floor((b.Max[1] - b.Min[1]) / side)
	if cols <= 0 || rows <= 0 {
		return 0
	}
	return int(cols * rows)
}
