package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/table"
)

// DXF layer names.
const (
	LayerParcel    = "PARCEL"
	LayerLots      = "LOTS"
	LayerLotLabels = "LOT_LABELS"
)

// ExportDXF writes the parcel boundary and lot squares to a DXF drawing in CRS
// units. The parcel rings go on the PARCEL layer, lots on LOTS and their
// numbers on LOT_LABELS.
func ExportDXF(path string, region model.Region, lotSet model.LotSet) error {
	if region.IsEmpty() {
		return fmt.Errorf("no parcel to export")
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerParcel, color.White, table.LT_CONTINUOUS, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerParcel, err)
	}
	for _, ring := range region.Rings() {
		if _, err := d.LwPolyline(true, ringVertices(ring)...); err != nil {
			return fmt.Errorf("failed to write parcel ring: %w", err)
		}
	}

	if _, err := d.AddLayer(LayerLots, color.Green, table.LT_CONTINUOUS, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerLots, err)
	}
	for _, lot := range lotSet.Lots {
		if _, err := d.LwPolyline(true, ringVertices(lot.Square.Ring())...); err != nil {
			return fmt.Errorf("failed to write lot %d: %w", lot.Number, err)
		}
	}

	if _, err := d.AddLayer(LayerLotLabels, color.Yellow, table.LT_CONTINUOUS, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerLotLabels, err)
	}
	for _, lot := range lotSet.Lots {
		h := lot.Square.Side / 5
		x := lot.Square.Origin[0] + lot.Square.Side/10
		y := lot.Square.Origin[1] + lot.Square.Side/2 - h/2
		if _, err := d.Text(fmt.Sprintf("%d", lot.Number), x, y, 0, h); err != nil {
			return fmt.Errorf("failed to label lot %d: %w", lot.Number, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

// ringVertices converts a closed orb ring to open LWPOLYLINE vertices; the
// closed flag on the polyline supplies the final edge.
func ringVertices(r orb.Ring) [][]float64 {
	if len(r) == 0 {
		return nil
	}
	r = model.CloseRing(r)
	out := make([][]float64, 0, len(r)-1)
	for _, p := range r[:len(r)-1] {
		out = append(out, []float64{p[0], p[1]})
	}
	return out
}
