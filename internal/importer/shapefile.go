package importer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// shapeReader is the part of go-shp's Reader and ZipReader used here.
type shapeReader interface {
	Next() bool
	Shape() (int, shp.Shape)
	Err() error
}

// ImportShapefile imports parcel polygons from an ESRI shapefile. The
// coordinate reference is read from the sibling .prj file when present.
func ImportShapefile(path string) ImportResult {
	result := ImportResult{}

	reader, err := shp.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open shapefile: %v", err))
		return result
	}
	defer reader.Close()

	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	if data, err := os.ReadFile(prj); err == nil {
		result.CRS = strings.TrimSpace(string(data))
	} else {
		result.Warnings = append(result.Warnings, "No .prj file next to the shapefile; coordinate reference unknown")
	}

	readShapes(reader, &result)
	return result
}

// ImportShapefileZip imports a zipped shapefile. The archive must hold
// exactly one .shp with its .shx and .dbf companions.
func ImportShapefileZip(path string) ImportResult {
	result := ImportResult{}

	reader, err := shp.OpenZip(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open zipped shapefile: %v", err))
		return result
	}
	defer reader.Close()

	crs, err := readZippedPrj(path)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("Cannot read .prj from archive: %v", err))
	case crs == "":
		result.Warnings = append(result.Warnings, "Archive has no .prj file; coordinate reference unknown")
	default:
		result.CRS = crs
	}

	readShapes(reader, &result)
	return result
}

// readZippedPrj returns the content of the first .prj entry of the archive.
func readZippedPrj(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".prj") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", nil
}

// readShapes turns every polygon record into regions. Shapefile polygons list
// outer rings and holes as flat parts, so they are regrouped by nesting.
func readShapes(reader shapeReader, result *ImportResult) {
	for reader.Next() {
		n, shape := reader.Shape()
		label := fmt.Sprintf("Record %d", n+1)

		var parts []int32
		var points []shp.Point
		switch s := shape.(type) {
		case *shp.Polygon:
			parts, points = s.Parts, s.Points
		case *shp.PolygonZ:
			parts, points = s.Parts, s.Points
		case *shp.PolygonM:
			parts, points = s.Parts, s.Points
		case *shp.Null, nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: empty shape, skipped", label))
			continue
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %T is not a polygon, skipped", label, shape))
			continue
		}

		rings := splitParts(parts, points)
		if len(rings) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: polygon has no usable rings", label))
			continue
		}

		var bound orb.Bound
		for i, r := range rings {
			if i == 0 {
				bound = r.Bound()
			} else {
				bound = bound.Union(r.Bound())
			}
		}
		for _, poly := range model.AssembleRings(rings, model.Tolerance(bound)) {
			result.Regions = append(result.Regions, model.Region{Polygons: orb.MultiPolygon{poly}, CRS: result.CRS})
		}
	}

	if err := reader.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read shapefile: %v", err))
	}
	if len(result.Regions) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No polygons found in shapefile")
	}
}

// splitParts slices the flat point list into closed rings at the part offsets.
func splitParts(parts []int32, points []shp.Point) []orb.Ring {
	var rings []orb.Ring
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || start >= end {
			continue
		}
		ring := make(orb.Ring, 0, end-start+1)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		ring = model.CloseRing(ring)
		if len(ring) >= 4 {
			rings = append(rings, ring)
		}
	}
	return rings
}
