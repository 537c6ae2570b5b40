package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// wgs84PRJ is written for lot sets tagged EPSG:4326.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Shapefile attribute columns, in field order.
var lotFields = []shp.Field{
	shp.NumberField("LOT", 10),
	shp.StringField("LABEL", 32),
	shp.FloatField("SIDE", 16, 4),
	shp.FloatField("AREA", 18, 4),
}

// ExportShapefile writes one polygon record per lot. Rings are written
// clockwise as ESRI expects. A .prj is written next to the .shp when the
// lot set's CRS is WKT or EPSG:4326.
func ExportShapefile(path string, lotSet model.LotSet) error {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		path += ".shp"
	}

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}
	defer w.Close()

	if err := w.SetFields(lotFields); err != nil {
		return fmt.Errorf("failed to set fields: %w", err)
	}

	for _, lot := range lotSet.Lots {
		ring := model.OrientRing(lot.Square.Ring(), false)
		pts := make([]shp.Point, len(ring))
		for i, p := range ring {
			pts[i] = shp.Point{X: p[0], Y: p[1]}
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{pts}))
		row := int(w.Write(&poly))

		attrs := []string{
			strconv.Itoa(lot.Number),
			lot.Label,
			strconv.FormatFloat(lot.Square.Side, 'f', int(lotFields[2].Precision), 64),
			strconv.FormatFloat(lot.Square.Area(), 'f', int(lotFields[3].Precision), 64),
		}
		for field, v := range attrs {
			if err := w.WriteAttribute(row, field, dbfPad(lotFields[field], v)); err != nil {
				return fmt.Errorf("failed to write attributes of lot %d: %w", lot.Number, err)
			}
		}
	}

	if prj := prjFor(lotSet.CRS); prj != "" {
		prjPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
		if err := os.WriteFile(prjPath, []byte(prj), 0644); err != nil {
			return fmt.Errorf("failed to write .prj: %w", err)
		}
	}
	return nil
}

// dbfPad fills a value to its field width with spaces. Character fields are
// left aligned, numeric fields right aligned. Values longer than the field
// are left for the writer to reject.
func dbfPad(f shp.Field, v string) string {
	if f.Fieldtype == 'C' {
		return fmt.Sprintf("%-*s", int(f.Size), v)
	}
	return fmt.Sprintf("%*s", int(f.Size), v)
}

// prjFor returns the .prj content for a CRS tag, or "" when none can be written.
func prjFor(crs string) string {
	crs = strings.TrimSpace(crs)
	upper := strings.ToUpper(crs)
	switch {
	case upper == "EPSG:4326":
		return wgs84PRJ
	case strings.HasPrefix(upper, "PROJCS["), strings.HasPrefix(upper, "GEOGCS["),
		strings.HasPrefix(upper, "COMPD_CS["), strings.HasPrefix(upper, "GEOCCS["):
		return crs
	}
	return ""
}
