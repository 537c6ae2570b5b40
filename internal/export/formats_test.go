package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb/geojson"
	"github.com/piwi3910/LotiSmart/internal/importer"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// ─── GeoJSON Tests ──────────────────────────────────────────

func TestEncodeGeoJSON_Properties(t *testing.T) {
	data, err := EncodeGeoJSON(buildTestLots())
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 4)

	first := fc.Features[0]
	assert.Equal(t, "Polygon", first.Geometry.GeoJSONType())
	assert.Equal(t, 1.0, first.Properties["lot"])
	assert.Equal(t, "Lot 1", first.Properties["label"])
	assert.Equal(t, 25.0, first.Properties["area"])
	assert.Contains(t, string(data), `"crs"`)
}

func TestExportGeoJSON_RoundTripsThroughImporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lots.geojson")
	require.NoError(t, ExportGeoJSON(path, buildTestLots()))

	result := importer.ImportFile(path)
	require.Empty(t, result.Errors)
	assert.Equal(t, "EPSG:32633", result.CRS)
	require.Len(t, result.Regions, 4)
	for _, r := range result.Regions {
		assert.InDelta(t, 25.0, r.Area(), 1e-9)
	}
}

func TestEncodeGeoJSON_Empty(t *testing.T) {
	data, err := EncodeGeoJSON(model.LotSet{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"features":[]`)
	assert.NotContains(t, string(data), `"crs"`)
}

// ─── Excel Tests ────────────────────────────────────────────

func TestExportExcel_Schedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lots.xlsx")
	require.NoError(t, ExportExcel(path, buildTestLots(), buildTestRecord()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(lotsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, scheduleHeaders, rows[0])
	assert.Equal(t, "Lot 1", rows[1][1])
	assert.Equal(t, "5", rows[3][2], "third lot starts the second column")
	assert.True(t, strings.HasPrefix(rows[1][6], "POLYGON(("), "WKT column: %q", rows[1][6])

	count, err := f.GetCellValue(summarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "4", count)
	source, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "parcel.geojson", source)
}

func TestExportExcel_NoLots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.xlsx")
	require.NoError(t, ExportExcel(path, model.LotSet{}, buildTestRecord()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(lotsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

// ─── DXF Tests ──────────────────────────────────────────────

func TestExportDXF_Entities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.dxf")
	require.NoError(t, ExportDXF(path, buildTestParcel(), buildTestLots()))

	d, err := dxf.Open(path)
	require.NoError(t, err)

	var polylines, texts int
	for _, e := range d.Entities() {
		switch e.(type) {
		case *entity.LwPolyline:
			polylines++
		case *entity.Text:
			texts++
		}
	}
	// Parcel outer ring, its hole, four lots
	assert.Equal(t, 6, polylines)
	assert.Equal(t, 4, texts)
}

func TestExportDXF_EmptyParcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dxf")
	assert.Error(t, ExportDXF(path, model.Region{}, buildTestLots()))
}

func TestRingVertices(t *testing.T) {
	sq := model.Square{Side: 2}
	v := ringVertices(sq.Ring())
	require.Len(t, v, 4)
	assert.Equal(t, []float64{0, 0}, v[0])
	assert.Equal(t, []float64{0, 2}, v[3])
	assert.Nil(t, ringVertices(nil))
}

// ─── Shapefile Tests ────────────────────────────────────────

func TestExportShapefile_Records(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lots.shp")

	ls := buildTestLots()
	ls.CRS = "EPSG:4326"
	require.NoError(t, ExportShapefile(path, ls))

	prj, err := os.ReadFile(filepath.Join(dir, "lots.prj"))
	require.NoError(t, err)
	assert.Equal(t, wgs84PRJ, string(prj))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var labels []string
	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		require.True(t, ok, "record %d is %T", n, shape)
		assert.Len(t, poly.Points, 5)
		labels = append(labels, strings.TrimSpace(r.ReadAttribute(n, 1)))
		assert.Equal(t, "5.0000", r.ReadAttribute(n, 2))
		assert.Equal(t, "25.0000", r.ReadAttribute(n, 3))
	}
	assert.Equal(t, []string{"Lot 1", "Lot 2", "Lot 3", "Lot 4"}, labels)

	result := importer.ImportShapefile(path)
	require.Empty(t, result.Errors)
	require.Len(t, result.Regions, 4)
	assert.InDelta(t, 25.0, result.Regions[0].Area(), 1e-9)
}

func TestDbfPad(t *testing.T) {
	assert.Equal(t, "Lot 1"+strings.Repeat(" ", 27), dbfPad(lotFields[1], "Lot 1"))
	assert.Equal(t, "        12", dbfPad(lotFields[0], "12"))
	assert.NotContains(t, dbfPad(lotFields[2], "5.0000"), "\x00")
}

func TestExportShapefile_AddsExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ExportShapefile(filepath.Join(dir, "lots"), buildTestLots()))

	_, err := os.Stat(filepath.Join(dir, "lots.shp"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "lots.dbf"))
	assert.NoError(t, err)

	// EPSG:32633 has no built-in WKT, so no .prj is written
	_, err = os.Stat(filepath.Join(dir, "lots.prj"))
	assert.True(t, os.IsNotExist(err))
}

func TestPrjFor(t *testing.T) {
	assert.Equal(t, wgs84PRJ, prjFor("epsg:4326"))
	wkt := `PROJCS["ETRS89 / UTM zone 33N",GEOGCS["ETRS89"]]`
	assert.Equal(t, wkt, prjFor(wkt))
	assert.Empty(t, prjFor("EPSG:32633"))
	assert.Empty(t, prjFor(""))
}
