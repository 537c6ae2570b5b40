package importer

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
)

const utm33PRJ = `PROJCS["WGS_1984_UTM_Zone_33N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],UNIT["Meter",1.0]]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ─── GeoJSON Tests ─────────────────────────────────────────

func TestDecodeGeoJSON_FeatureCollection(t *testing.T) {
	data := `{
		"type": "FeatureCollection",
		"crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::32633"}},
		"features": [
			{"type": "Feature", "properties": {"name": "a"},
			 "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "MultiPolygon", "coordinates": [
				[[[20,0],[30,0],[30,10],[20,10],[20,0]]],
				[[[40,0],[50,0],[50,10],[40,10],[40,0]]]
			 ]}},
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "Point", "coordinates": [5,5]}}
		]
	}`

	result := DecodeGeoJSON([]byte(data))
	require.Empty(t, result.Errors)
	assert.Equal(t, "EPSG:32633", result.CRS)
	require.Len(t, result.Regions, 3)
	for _, r := range result.Regions {
		assert.Equal(t, "EPSG:32633", r.CRS)
		assert.InDelta(t, 100.0, r.Area(), 1e-9)
	}
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Point")
}

func TestDecodeGeoJSON_SingleFeatureDefaultsToWGS84(t *testing.T) {
	data := `{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[7,45],[7.001,45],[7.001,45.001],[7,45]]]}}`
	result := DecodeGeoJSON([]byte(data))
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Equal(t, DefaultGeoJSONCRS, result.CRS)
	assert.Len(t, result.Regions, 1)
}

func TestDecodeGeoJSON_BareGeometryWithHole(t *testing.T) {
	data := `{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]],[[4,4],[6,4],[6,6],[4,6],[4,4]]]}`
	result := DecodeGeoJSON([]byte(data))
	require.True(t, result.OK(), "errors: %v", result.Errors)
	require.Len(t, result.Regions, 1)
	assert.Len(t, result.Regions[0].Polygons[0], 2)
	assert.InDelta(t, 96.0, result.Regions[0].Area(), 1e-9)
}

func TestDecodeGeoJSON_OpenRingClosedWithWarning(t *testing.T) {
	data := `{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10]]]}`
	result := DecodeGeoJSON([]byte(data))
	require.True(t, result.OK(), "errors: %v", result.Errors)
	require.Len(t, result.Regions, 1)

	ring := result.Regions[0].Polygons[0][0]
	assert.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "closed 1 open ring")
}

func TestDecodeGeoJSON_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":     `{oops`,
		"no type":      `{"features":[]}`,
		"no polygons":  `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}]}`,
		"bad geometry": `{"type":"Polygon","coordinates":"nope"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			result := DecodeGeoJSON([]byte(data))
			assert.NotEmpty(t, result.Errors)
			assert.False(t, result.OK())
		})
	}
}

func TestImportGeoJSON_File(t *testing.T) {
	path := writeFile(t, "parcel.geojson", `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`)
	result := ImportFile(path)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Len(t, result.Regions, 1)
}

func TestNormalizeCRSName(t *testing.T) {
	assert.Equal(t, "EPSG:3857", normalizeCRSName("urn:ogc:def:crs:EPSG::3857"))
	assert.Equal(t, "EPSG:4326", normalizeCRSName("urn:ogc:def:crs:OGC:1.3:CRS84"))
	assert.Equal(t, "EPSG:2056", normalizeCRSName("EPSG:2056"))
}

// ─── Shapefile Tests ───────────────────────────────────────

// writeShapefile writes polygons (each a list of rings) and returns the .shp path.
func writeShapefile(t *testing.T, dir string, polygons [][][]shp.Point, prj string) string {
	t.Helper()
	path := filepath.Join(dir, "parcels.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 20)}))
	for i, rings := range polygons {
		poly := shp.Polygon(*shp.NewPolyLine(rings))
		w.Write(&poly)
		require.NoError(t, w.WriteAttribute(i, 0, fmt.Sprintf("parcel %d", i+1)))
	}
	w.Close()

	if prj != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "parcels.prj"), []byte(prj), 0644))
	}
	return path
}

func shpRing(pts ...[2]float64) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

func TestImportShapefile(t *testing.T) {
	dir := t.TempDir()
	outer := shpRing([2]float64{0, 0}, [2]float64{0, 20}, [2]float64{20, 20}, [2]float64{20, 0}, [2]float64{0, 0})
	hole := shpRing([2]float64{5, 5}, [2]float64{10, 5}, [2]float64{10, 10}, [2]float64{5, 10}, [2]float64{5, 5})
	second := shpRing([2]float64{30, 0}, [2]float64{30, 5}, [2]float64{35, 5}, [2]float64{35, 0}, [2]float64{30, 0})

	path := writeShapefile(t, dir, [][][]shp.Point{{outer, hole}, {second}}, utm33PRJ)

	result := ImportFile(path)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Equal(t, utm33PRJ, result.CRS)
	require.Len(t, result.Regions, 2)

	first := result.Regions[0]
	require.Len(t, first.Polygons, 1)
	assert.Len(t, first.Polygons[0], 2, "hole kept with its outer ring")
	assert.InDelta(t, 375.0, first.Area(), 1e-9)
	assert.Equal(t, utm33PRJ, first.CRS)
	assert.InDelta(t, 25.0, result.Regions[1].Area(), 1e-9)
}

func TestImportShapefile_NoPrj(t *testing.T) {
	dir := t.TempDir()
	ring := shpRing([2]float64{0, 0}, [2]float64{0, 1}, [2]float64{1, 1}, [2]float64{1, 0}, [2]float64{0, 0})
	path := writeShapefile(t, dir, [][][]shp.Point{{ring}}, "")

	result := ImportShapefile(path)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Empty(t, result.CRS)
	assert.NotEmpty(t, result.Warnings)
}

func TestImportShapefile_Missing(t *testing.T) {
	result := ImportShapefile(filepath.Join(t.TempDir(), "nope.shp"))
	assert.NotEmpty(t, result.Errors)
}

func TestImportShapefileZip(t *testing.T) {
	dir := t.TempDir()
	ring := shpRing([2]float64{0, 0}, [2]float64{0, 10}, [2]float64{10, 10}, [2]float64{10, 0}, [2]float64{0, 0})
	writeShapefile(t, dir, [][][]shp.Point{{ring}}, utm33PRJ)

	zipPath := filepath.Join(t.TempDir(), "parcels.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(zf)
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		data, err := os.ReadFile(filepath.Join(dir, "parcels"+ext))
		require.NoError(t, err)
		w, err := zw.Create("parcels" + ext)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	result := ImportFile(zipPath)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Equal(t, utm33PRJ, result.CRS)
	require.Len(t, result.Regions, 1)
	assert.InDelta(t, 100.0, result.Regions[0].Area(), 1e-9)
}

func TestSplitParts(t *testing.T) {
	pts := shpRing([2]float64{0, 0}, [2]float64{0, 1}, [2]float64{1, 1}, [2]float64{0, 0},
		[2]float64{5, 5}, [2]float64{5, 6}, [2]float64{6, 6})
	rings := splitParts([]int32{0, 4}, pts)
	require.Len(t, rings, 2)
	assert.Len(t, rings[0], 4)
	assert.Len(t, rings[1], 4, "open part gets closed")
	assert.Equal(t, rings[1][0], rings[1][3])
}

// ─── KML Tests ─────────────────────────────────────────────

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <Placemark>
        <name>Parcel 12</name>
        <Polygon>
          <outerBoundaryIs><LinearRing><coordinates>
            7.0000,45.0000,0 7.0010,45.0000,0 7.0010,45.0010,0 7.0000,45.0010,0 7.0000,45.0000,0
          </coordinates></LinearRing></outerBoundaryIs>
          <innerBoundaryIs><LinearRing><coordinates>
            7.0004,45.0004 7.0006,45.0004 7.0006,45.0006 7.0004,45.0006 7.0004,45.0004
          </coordinates></LinearRing></innerBoundaryIs>
        </Polygon>
      </Placemark>
      <Placemark>
        <MultiGeometry>
          <Polygon><outerBoundaryIs><LinearRing><coordinates>
            7.002,45 7.003,45 7.003,45.001 7.002,45
          </coordinates></LinearRing></outerBoundaryIs></Polygon>
          <Point><coordinates>7.1,45.1</coordinates></Point>
        </MultiGeometry>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestDecodeKML(t *testing.T) {
	result := DecodeKML(strings.NewReader(sampleKML))
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Equal(t, "EPSG:4326", result.CRS)
	require.Len(t, result.Regions, 2)
	assert.Len(t, result.Regions[0].Polygons[0], 2)
	assert.Equal(t, orb.Point{7.0, 45.0}, result.Regions[0].Polygons[0][0][0])
}

func TestDecodeKML_BadCoordinates(t *testing.T) {
	doc := `<kml><Placemark><Polygon><outerBoundaryIs><LinearRing><coordinates>a,b 1,2 3,4</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark></kml>`
	result := DecodeKML(strings.NewReader(doc))
	assert.NotEmpty(t, result.Errors)
}

func TestDecodeKML_NoPolygons(t *testing.T) {
	result := DecodeKML(strings.NewReader(`<kml><Document/></kml>`))
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "No polygons")
}

func TestImportKMZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcel.kmz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("doc.kml")
	require.NoError(t, err)
	_, err = w.Write([]byte(sampleKML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	result := ImportFile(path)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Len(t, result.Regions, 2)
}

// ─── DXF Tests ─────────────────────────────────────────────

func TestImportDXF_PolylineWithInnerOutline(t *testing.T) {
	d := dxf.NewDrawing()
	_, err := d.LwPolyline(true, []float64{100, 200, 0}, []float64{140, 200, 0}, []float64{140, 230, 0}, []float64{100, 230, 0})
	require.NoError(t, err)
	_, err = d.LwPolyline(true, []float64{110, 210, 0}, []float64{120, 210, 0}, []float64{120, 220, 0}, []float64{110, 220, 0})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "survey.dxf")
	require.NoError(t, d.SaveAs(path))

	result := ImportFile(path)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	require.Len(t, result.Regions, 1)

	region := result.Regions[0]
	assert.Len(t, region.Polygons[0], 2, "inner outline becomes a hole")
	assert.InDelta(t, 1200.0-100.0, region.Area(), 1e-6)
	assert.Equal(t, orb.Point{100, 200}, region.Bound().Min, "coordinates are kept as drawn")
}

func TestImportDXF_ChainedLines(t *testing.T) {
	d := dxf.NewDrawing()
	corners := [][2]float64{{0, 0}, {10, 0}, {10, 5}, {0, 5}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		_, err := d.Line(a[0], a[1], 0, b[0], b[1], 0)
		require.NoError(t, err)
	}
	path := filepath.Join(t.TempDir(), "lines.dxf")
	require.NoError(t, d.SaveAs(path))

	result := ImportDXF(path)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	require.Len(t, result.Regions, 1)
	assert.InDelta(t, 50.0, result.Regions[0].Area(), 1e-6)
}

func TestImportDXF_Missing(t *testing.T) {
	result := ImportDXF(filepath.Join(t.TempDir(), "missing.dxf"))
	assert.NotEmpty(t, result.Errors)
}

func TestChainSegments_DropsOpenChains(t *testing.T) {
	segs := []segment{
		{orb.Point{0, 0}, orb.Point{1, 0}},
		{orb.Point{1, 0}, orb.Point{1, 1}},
	}
	assert.Empty(t, chainSegments(segs, 0.01))

	closed := append(segs, segment{orb.Point{1, 1}, orb.Point{0, 0}})
	rings := chainSegments(closed, 0.01)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 3)
}

func TestBulgeArcPoints_Semicircle(t *testing.T) {
	pts := bulgeArcPoints(orb.Point{0, 0}, orb.Point{2, 0}, 1, 8)
	require.Len(t, pts, 9)
	for _, p := range pts {
		d := (p[0]-1)*(p[0]-1) + p[1]*p[1]
		assert.InDelta(t, 1.0, d, 1e-9, "point %v should lie on the unit circle around (1,0)", p)
	}
}
