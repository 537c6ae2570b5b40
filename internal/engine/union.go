package engine

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// Unify merges the input regions into a single region covering their union.
// Overlapping and touching inputs are dissolved into shared rings. A single
// input is returned as is.
func Unify(regions []model.Region) (model.Region, error) {
	if len(regions) == 0 {
		return model.Region{}, fmt.Errorf("%w: no regions to unify", model.ErrInvalidGeometry)
	}

	crs, err := commonCRS(regions)
	if err != nil {
		return model.Region{}, err
	}

	for i, r := range regions {
		if err := ValidateRegion(r); err != nil {
			return model.Region{}, fmt.Errorf("region %d: %w", i+1, err)
		}
	}

	if len(regions) == 1 {
		return regions[0], nil
	}

	var merged geom.Polygonal
	bound := regions[0].Bound()
	for _, r := range regions {
		bound = bound.Union(r.Bound())
		for _, p := range r.Polygons {
			gp := model.GeomPolygon(p)
			if merged == nil {
				merged = gp
				continue
			}
			merged = merged.Union(gp)
		}
	}

	tol := model.Tolerance(bound)
	var rings []orb.Ring
	for _, path := range mergedPaths(merged) {
		ring := make(orb.Ring, 0, len(path)+1)
		for _, pt := range path {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		ring = model.DedupeRing(model.CloseRing(ring), tol)
		ring = model.CloseRing(ring)
		if len(ring) < 4 || math.Abs(model.SignedArea(ring)) <= tol*tol {
			continue
		}
		rings = append(rings, ring)
	}

	result := model.Region{Polygons: model.AssembleRings(rings, tol), CRS: crs}
	if result.IsEmpty() {
		return model.Region{}, fmt.Errorf("%w: union of %d regions is empty", model.ErrInvalidGeometry, len(regions))
	}
	return result, nil
}

// ValidateRegion checks every ring of the region: closed, at least four
// points, non-zero area and free of self-intersections.
func ValidateRegion(r model.Region) error {
	if len(r.Polygons) == 0 {
		return fmt.Errorf("%w: region has no polygons", model.ErrInvalidGeometry)
	}
	tol := model.Tolerance(r.Bound())
	for pi, poly := range r.Polygons {
		if len(poly) == 0 {
			return fmt.Errorf("%w: polygon %d has no rings", model.ErrInvalidGeometry, pi+1)
		}
		for ri, ring := range poly {
			if err := validateRing(ring, tol); err != nil {
				return fmt.Errorf("polygon %d ring %d: %w", pi+1, ri+1, err)
			}
		}
	}
	return nil
}

func validateRing(ring orb.Ring, tol float64) error {
	for _, p := range ring {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return fmt.Errorf("%w: non-finite coordinate", model.ErrInvalidGeometry)
		}
	}
	if len(ring) < 4 {
		return fmt.Errorf("%w: ring has %d points, need at least 4", model.ErrInvalidGeometry, len(ring))
	}
	if !model.IsClosed(ring) {
		return fmt.Errorf("%w: ring is not closed", model.ErrInvalidGeometry)
	}
	if model.SignedArea(ring) == 0 {
		return fmt.Errorf("%w: ring has zero area", model.ErrInvalidGeometry)
	}
	if model.SelfIntersects(ring, tol) {
		return fmt.Errorf("%w: ring intersects itself", model.ErrInvalidGeometry)
	}
	return nil
}

// commonCRS returns the CRS shared by all regions. Untagged regions adopt the
// tag of the others.
func commonCRS(regions []model.Region) (string, error) {
	crs := ""
	for _, r := range regions {
		if r.CRS == "" {
			continue
		}
		if crs == "" {
			crs = r.CRS
			continue
		}
		if r.CRS != crs {
			return "", fmt.Errorf("%w: %q and %q", model.ErrCRSMismatch, crs, r.CRS)
		}
	}
	return crs, nil
}

// mergedPaths flattens the clipper output into its rings.
func mergedPaths(g geom.Polygonal) []geom.Path {
	if g == nil {
		return nil
	}
	var paths []geom.Path
	for _, p := range g.Polygons() {
		paths = append(paths, p...)
	}
	return paths
}
