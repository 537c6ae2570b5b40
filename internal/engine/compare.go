package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/piwi3910/LotiSmart/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the partition result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario        ComparisonScenario
	Lots            model.LotSet
	LotCount        int
	Capacity        int
	CoveragePercent float64
	Err             error
}

// CompareScenarios partitions the same parcel once per scenario and returns
// the results in scenario order. A failing scenario records its error and
// does not stop the others.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, regions []model.Region) ([]ComparisonResult, error) {
	region, err := Unify(regions)
	if err != nil {
		return nil, fmt.Errorf("failed to unify parcel geometry: %w", err)
	}

	results := make([]ComparisonResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		res, err := New(scenario.Settings).Run(ctx, scenario.Name, []model.Region{region}, time.Now())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			results = append(results, ComparisonResult{Scenario: scenario, Err: err})
			continue
		}

		results = append(results, ComparisonResult{
			Scenario:        scenario,
			Lots:            res.Lots,
			LotCount:        res.Lots.Len(),
			Capacity:        res.Capacity,
			CoveragePercent: res.Coverage(),
		})
	}

	return results, nil
}

// BuildAreaScenarios creates one scenario per minimum lot area, all sharing
// the rest of the base settings.
func BuildAreaScenarios(base model.Settings, areas []float64) []ComparisonScenario {
	scenarios := make([]ComparisonScenario, 0, len(areas))
	for _, a := range areas {
		s := base
		s.MinArea = a
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("%g m²", a),
			Settings: s,
		})
	}
	return scenarios
}

// BuildDefaultScenarios generates what-if alternatives around the current
// settings: half and double the lot area, and the other boundary policy.
func BuildDefaultScenarios(base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Settings: base},
	}

	// Scenario: Smaller lots, never below the permitted minimum
	if half := base.MinArea / 2; half >= model.MinAllowedArea {
		s := base
		s.MinArea = half
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Lot area %g m² (half)", half),
			Settings: s,
		})
	}

	// Scenario: Larger lots
	double := base
	double.MinArea = base.MinArea * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Lot area %g m² (double)", double.MinArea),
		Settings: double,
	})

	// Scenario: Try the other boundary policy
	alt := base
	if base.Containment == model.BoundaryInclusive {
		alt.Containment = model.BoundaryExclusive
		scenarios = append(scenarios, ComparisonScenario{Name: "Keep Clear of Boundary", Settings: alt})
	} else {
		alt.Containment = model.BoundaryInclusive
		scenarios = append(scenarios, ComparisonScenario{Name: "Allow Boundary Contact", Settings: alt})
	}

	return scenarios
}
