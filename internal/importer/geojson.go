package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// DefaultGeoJSONCRS is assumed when a GeoJSON document names no CRS.
const DefaultGeoJSONCRS = "EPSG:4326"

// geojsonHeader captures the members orb's decoders do not expose directly.
type geojsonHeader struct {
	Type string `json:"type"`
	CRS  *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// ImportGeoJSON imports parcel polygons from a GeoJSON file.
func ImportGeoJSON(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	return DecodeGeoJSON(data)
}

// DecodeGeoJSON reads a FeatureCollection, a single Feature or a bare
// geometry. Polygon and MultiPolygon geometries become regions, one per
// polygon; other geometry types are skipped with a warning.
func DecodeGeoJSON(data []byte) ImportResult {
	result := ImportResult{}

	var header geojsonHeader
	if err := json.Unmarshal(data, &header); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse GeoJSON: %v", err))
		return result
	}

	result.CRS = DefaultGeoJSONCRS
	if header.CRS != nil && header.CRS.Properties.Name != "" {
		result.CRS = normalizeCRSName(header.CRS.Properties.Name)
	}

	var geometries []orb.Geometry
	switch header.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse FeatureCollection: %v", err))
			return result
		}
		for _, f := range fc.Features {
			geometries = append(geometries, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse Feature: %v", err))
			return result
		}
		geometries = append(geometries, f.Geometry)
	case "":
		result.Errors = append(result.Errors, "GeoJSON document has no type")
		return result
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse geometry: %v", err))
			return result
		}
		geometries = append(geometries, g.Geometry())
	}

	for i, g := range geometries {
		label := fmt.Sprintf("Feature %d", i+1)
		switch geom := g.(type) {
		case orb.Polygon:
			region, closed := polygonRegion(geom, result.CRS)
			result.Regions = append(result.Regions, region)
			result.Warnings = appendClosedWarning(result.Warnings, label, closed)
		case orb.MultiPolygon:
			closed := 0
			for _, p := range geom {
				region, n := polygonRegion(p, result.CRS)
				result.Regions = append(result.Regions, region)
				closed += n
			}
			result.Warnings = appendClosedWarning(result.Warnings, label, closed)
		case nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: no geometry, skipped", label))
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s geometry is not a parcel, skipped", label, g.GeoJSONType()))
		}
	}

	if len(result.Regions) == 0 {
		result.Errors = append(result.Errors, "No Polygon or MultiPolygon features found")
	}
	return result
}

// polygonRegion wraps one polygon as a region, closing any open rings. It
// returns how many rings had to be closed.
func polygonRegion(p orb.Polygon, crs string) (model.Region, int) {
	poly := make(orb.Polygon, 0, len(p))
	closed := 0
	for _, r := range p {
		if len(r) > 0 && !model.IsClosed(r) {
			closed++
		}
		poly = append(poly, model.CloseRing(r))
	}
	return model.Region{Polygons: orb.MultiPolygon{poly}, CRS: crs}, closed
}

func appendClosedWarning(warnings []string, label string, closed int) []string {
	if closed == 0 {
		return warnings
	}
	return append(warnings, fmt.Sprintf("%s: closed %d open ring(s)", label, closed))
}

// normalizeCRSName turns OGC URNs such as "urn:ogc:def:crs:EPSG::32633" into
// the short "EPSG:32633" form. Other names are kept as given.
func normalizeCRSName(name string) string {
	switch {
	case strings.HasPrefix(name, "urn:ogc:def:crs:OGC:1.3:CRS84"), strings.HasPrefix(name, "urn:ogc:def:crs:OGC::CRS84"):
		return DefaultGeoJSONCRS
	case strings.HasPrefix(name, "urn:ogc:def:crs:EPSG:"):
		parts := strings.Split(name, ":")
		return "EPSG:" + parts[len(parts)-1]
	}
	return name
}
