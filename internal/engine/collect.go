package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/piwi3910/LotiSmart/internal/model"
)

// Collect packages the accepted lots with the CRS of the region they came
// from. Lots are renumbered in the order given.
func Collect(lots []model.Lot, crs string) model.LotSet {
	set := model.LotSet{
		Lots: make([]model.Lot, len(lots)),
		CRS:  crs,
	}
	for i, l := range lots {
		set.Lots[i] = model.NewLot(i+1, l.Square)
	}
	if len(lots) > 0 {
		set.Side = lots[0].Square.Side
	}
	return set
}

// Summarize builds the history record for a finished run.
func Summarize(source string, minArea float64, lotCount int, now time.Time) model.RunRecord {
	return model.NewRunRecord(source, minArea, lotCount, now)
}

// RunResult is everything one pass through the pipeline produces.
type RunResult struct {
	Region   model.Region
	Lots     model.LotSet
	Record   model.RunRecord
	Capacity int // grid squares visited by the sweep
	Elapsed  time.Duration
}

// Coverage returns the share of the parcel covered by lots, as a percentage.
func (r RunResult) Coverage() float64 {
	return r.Lots.Coverage(r.Region)
}

// Run unifies the input regions, partitions the result and summarizes the
// run. Regions without a CRS inherit the fallback from the settings.
func (p *Partitioner) Run(ctx context.Context, source string, regions []model.Region, now time.Time) (RunResult, error) {
	start := time.Now()

	region, err := Unify(regions)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to unify parcel geometry: %w", err)
	}
	if region.CRS == "" {
		region.CRS = p.Settings.CRS
	}

	lots, err := p.PartitionContext(ctx, region, p.Settings.MinArea)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to partition parcel: %w", err)
	}

	set := Collect(lots, region.CRS)
	side, _ := SideLength(p.Settings.MinArea)
	set.Side = side

	return RunResult{
		Region:   region,
		Lots:     set,
		Record:   Summarize(source, p.Settings.MinArea, set.Len(), now),
		Capacity: GridCapacity(region.Bound(), side),
		Elapsed:  time.Since(start),
	}, nil
}
