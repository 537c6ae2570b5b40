package widgets

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/LotiSmart/internal/model"
)

func testParcel() model.Region {
	return model.NewRegion("", orb.Ring{{0, 0}, {40, 0}, {40, 20}, {0, 20}})
}

func TestViewport(t *testing.T) {
	vp := NewViewport(orb.Bound{Min: orb.Point{100, 200}, Max: orb.Point{140, 220}}, 400, 400)

	assert.Equal(t, float32(10), vp.Scale, "width limits the scale")
	assert.Equal(t, fyne.NewSize(400, 200), vp.Size())
	assert.Equal(t, fyne.NewPos(0, 200), vp.Pos(orb.Point{100, 200}), "south-west corner is bottom-left")
	assert.Equal(t, fyne.NewPos(400, 0), vp.Pos(orb.Point{140, 220}), "north-east corner is top-right")
}

func TestViewport_Degenerate(t *testing.T) {
	vp := NewViewport(orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{5, 9}}, 400, 400)
	if vp.Scale != 0 {
		t.Errorf("expected zero scale for a zero-width bound, got %v", vp.Scale)
	}
	assert.Equal(t, fyne.NewSize(0, 0), vp.Size())
}

func TestParcelCanvas_Objects(t *testing.T) {
	test.NewTempApp(t)

	lots := model.LotSet{Side: 10, Lots: []model.Lot{
		model.NewLot(1, model.Square{Origin: orb.Point{0, 0}, Side: 10}),
		model.NewLot(2, model.Square{Origin: orb.Point{0, 10}, Side: 10}),
	}}
	pc := NewParcelCanvas(testParcel(), lots, 400, 400)
	r := test.TempWidgetRenderer(t, pc)

	// background + 2 lots with numbers + 4 outline edges
	assert.Len(t, r.Objects(), 1+2*2+4)
	assert.Equal(t, fyne.NewSize(400, 200), r.MinSize())

	pc.SetLots(model.LotSet{})
	assert.Len(t, r.Objects(), 1+4)
}

func TestParcelCanvas_Empty(t *testing.T) {
	test.NewTempApp(t)
	r := test.TempWidgetRenderer(t, NewParcelCanvas(model.Region{}, model.LotSet{}, 400, 400))
	assert.Empty(t, r.Objects())
}

func TestResultSummary(t *testing.T) {
	parcel := testParcel()
	assert.Equal(t, "Parcel 40.0 x 20.0, area 800.0 | not partitioned yet", ResultSummary(parcel, nil))
	assert.Equal(t, "Parcel 40.0 x 20.0, area 800.0 | no lot fits", ResultSummary(parcel, &model.LotSet{Side: 30}))

	lots := model.LotSet{Side: 20, Lots: []model.Lot{
		model.NewLot(1, model.Square{Origin: orb.Point{0, 0}, Side: 20}),
		model.NewLot(2, model.Square{Origin: orb.Point{20, 0}, Side: 20}),
	}}
	assert.Equal(t, "Parcel 40.0 x 20.0, area 800.0 | 2 lots of 20.00 x 20.00, 100.0% coverage", ResultSummary(parcel, &lots))
}
