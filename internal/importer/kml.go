package importer

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// KML coordinates are always WGS84 longitude/latitude.
const kmlCRS = "EPSG:4326"

type kmlRing struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

type kmlPolygon struct {
	Outer kmlRing   `xml:"outerBoundaryIs"`
	Inner []kmlRing `xml:"innerBoundaryIs"`
}

// ImportKML imports parcel polygons from a KML file.
func ImportKML(path string) ImportResult {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	defer f.Close()
	return DecodeKML(f)
}

// ImportKMZ imports the main KML document of a KMZ archive.
func ImportKMZ(path string) ImportResult {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open KMZ archive: %v", err)}}
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(filepath.Ext(f.Name), ".kml") {
			if doc == nil || strings.EqualFold(f.Name, "doc.kml") {
				doc = f
			}
		}
	}
	if doc == nil {
		return ImportResult{Errors: []string{"KMZ archive contains no .kml document"}}
	}

	rc, err := doc.Open()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read %s: %v", doc.Name, err)}}
	}
	defer rc.Close()
	return DecodeKML(rc)
}

// DecodeKML collects every Polygon element of the document, wherever it is
// nested (Placemark, MultiGeometry, Folder).
func DecodeKML(r io.Reader) ImportResult {
	result := ImportResult{CRS: kmlCRS}

	dec := xml.NewDecoder(r)
	n := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse KML: %v", err))
			return result
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Polygon" {
			continue
		}

		n++
		var p kmlPolygon
		if err := dec.DecodeElement(&p, &start); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Polygon %d: %v", n, err))
			continue
		}

		outer, err := parseKMLCoordinates(p.Outer.Coordinates)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Polygon %d: %v", n, err))
			continue
		}
		if len(outer) < 3 {
			result.Errors = append(result.Errors, fmt.Sprintf("Polygon %d: outer boundary needs at least 3 coordinates", n))
			continue
		}

		var holes []orb.Ring
		for i, in := range p.Inner {
			hole, err := parseKMLCoordinates(in.Coordinates)
			if err != nil || len(hole) < 3 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Polygon %d: inner boundary %d unusable, skipped", n, i+1))
				continue
			}
			holes = append(holes, hole)
		}
		result.Regions = append(result.Regions, model.NewRegion(kmlCRS, outer, holes...))
	}

	if len(result.Regions) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No polygons found in KML document")
	}
	return result
}

// parseKMLCoordinates reads whitespace-separated "lon,lat[,alt]" tuples.
func parseKMLCoordinates(s string) (orb.Ring, error) {
	var ring orb.Ring
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid coordinate %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q", parts[1])
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring, nil
}
