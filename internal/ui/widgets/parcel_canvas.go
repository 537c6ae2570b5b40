package widgets

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/paulmach/orb"

	"github.com/piwi3910/LotiSmart/internal/model"
)

// Lot colors cycle for visual distinction between neighbours.
var lotColors = []color.NRGBA{
	{R: 76, G: 175, B: 80, A: 200},  // green
	{R: 33, G: 150, B: 243, A: 200}, // blue
	{R: 255, G: 152, B: 0, A: 200},  // orange
	{R: 156, G: 39, B: 176, A: 200}, // purple
	{R: 0, G: 188, B: 212, A: 200},  // cyan
	{R: 121, G: 85, B: 72, A: 200},  // brown
}

var (
	outlineColor = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	holeColor    = color.NRGBA{R: 200, G: 0, B: 0, A: 255}
	groundColor  = color.NRGBA{R: 222, G: 214, B: 180, A: 255}
)

// Viewport maps parcel coordinates onto a canvas of at most maxW x maxH
// pixels. Canvas y grows downwards, so northings are flipped.
type Viewport struct {
	Bound orb.Bound
	Scale float32
}

// NewViewport fits b into the given pixel size, keeping the aspect ratio.
func NewViewport(b orb.Bound, maxW, maxH float32) Viewport {
	w := float32(b.Max[0] - b.Min[0])
	h := float32(b.Max[1] - b.Min[1])
	if w <= 0 || h <= 0 {
		return Viewport{Bound: b}
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return Viewport{Bound: b, Scale: scale}
}

// Pos converts a parcel point to a canvas position.
func (v Viewport) Pos(p orb.Point) fyne.Position {
	return fyne.NewPos(
		float32(p[0]-v.Bound.Min[0])*v.Scale,
		float32(v.Bound.Max[1]-p[1])*v.Scale,
	)
}

// Size returns the canvas size the parcel occupies.
func (v Viewport) Size() fyne.Size {
	return fyne.NewSize(
		float32(v.Bound.Max[0]-v.Bound.Min[0])*v.Scale,
		float32(v.Bound.Max[1]-v.Bound.Min[1])*v.Scale,
	)
}

// ParcelCanvas renders a parcel outline with its lots.
type ParcelCanvas struct {
	widget.BaseWidget
	region    model.Region
	lots      model.LotSet
	maxWidth  float32
	maxHeight float32
}

func NewParcelCanvas(region model.Region, lots model.LotSet, maxW, maxH float32) *ParcelCanvas {
	pc := &ParcelCanvas{
		region:    region,
		lots:      lots,
		maxWidth:  maxW,
		maxHeight: maxH,
	}
	pc.ExtendBaseWidget(pc)
	return pc
}

// SetLots replaces the lots shown on top of the parcel.
func (pc *ParcelCanvas) SetLots(lots model.LotSet) {
	pc.lots = lots
	pc.Refresh()
}

func (pc *ParcelCanvas) viewport() Viewport {
	return NewViewport(pc.region.Bound(), pc.maxWidth, pc.maxHeight)
}

func (pc *ParcelCanvas) CreateRenderer() fyne.WidgetRenderer {
	return newParcelCanvasRenderer(pc)
}

type parcelCanvasRenderer struct {
	pc      *ParcelCanvas
	objects []fyne.CanvasObject
}

func newParcelCanvasRenderer(pc *ParcelCanvas) *parcelCanvasRenderer {
	r := &parcelCanvasRenderer{pc: pc}
	r.rebuild()
	return r
}

func (r *parcelCanvasRenderer) rebuild() {
	r.objects = nil
	if r.pc.region.IsEmpty() {
		return
	}
	vp := r.pc.viewport()

	bg := canvas.NewRectangle(groundColor)
	bg.Resize(vp.Size())
	r.objects = append(r.objects, bg)

	for i, lot := range r.pc.lots.Lots {
		b := lot.Square.Bound()
		topLeft := vp.Pos(orb.Point{b.Min[0], b.Max[1]})
		side := float32(lot.Square.Side) * vp.Scale

		rect := canvas.NewRectangle(lotColors[i%len(lotColors)])
		rect.StrokeColor = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
		rect.StrokeWidth = 1
		rect.Resize(fyne.NewSize(side, side))
		rect.Move(topLeft)
		r.objects = append(r.objects, rect)

		// Number only if big enough
		if side > 18 {
			label := canvas.NewText(fmt.Sprintf("%d", lot.Number), color.Black)
			label.TextSize = 10
			label.Move(fyne.NewPos(topLeft.X+3, topLeft.Y+2))
			r.objects = append(r.objects, label)
		}
	}

	for _, poly := range r.pc.region.Polygons {
		for i, ring := range poly {
			col := outlineColor
			if i > 0 {
				col = holeColor
			}
			r.drawRing(vp, ring, col)
		}
	}
}

func (r *parcelCanvasRenderer) drawRing(vp Viewport, ring orb.Ring, col color.Color) {
	for i := 0; i+1 < len(ring); i++ {
		line := canvas.NewLine(col)
		line.StrokeWidth = 2
		line.Position1 = vp.Pos(ring[i])
		line.Position2 = vp.Pos(ring[i+1])
		r.objects = append(r.objects, line)
	}
}

func (r *parcelCanvasRenderer) Layout(size fyne.Size)        {}
func (r *parcelCanvasRenderer) Refresh()                     { r.rebuild() }
func (r *parcelCanvasRenderer) Destroy()                     {}
func (r *parcelCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *parcelCanvasRenderer) MinSize() fyne.Size {
	return r.pc.viewport().Size()
}

// RenderResult creates a scrollable view of the parcel, its lots and a summary.
func RenderResult(region model.Region, lots *model.LotSet) fyne.CanvasObject {
	if region.IsEmpty() {
		return widget.NewLabel("No parcel loaded. Use File > Open Parcel to begin.")
	}

	var shown model.LotSet
	if lots != nil {
		shown = *lots
	}
	items := []fyne.CanvasObject{NewParcelCanvas(region, shown, 800, 560)}

	summary := widget.NewLabel(ResultSummary(region, lots))
	summary.TextStyle = fyne.TextStyle{Bold: true}
	items = append(items, widget.NewSeparator(), summary)

	return container.NewVScroll(container.NewVBox(items...))
}

// ResultSummary describes the parcel and, after a run, its lots.
func ResultSummary(region model.Region, lots *model.LotSet) string {
	b := region.Bound()
	text := fmt.Sprintf("Parcel %.1f x %.1f, area %.1f",
		b.Max[0]-b.Min[0], b.Max[1]-b.Min[1], region.Area())
	switch {
	case lots == nil:
		return text + " | not partitioned yet"
	case lots.Len() == 0:
		return text + " | no lot fits"
	default:
		return text + fmt.Sprintf(" | %d lots of %.2f x %.2f, %.1f%% coverage",
			lots.Len(), lots.Side, lots.Side, lots.Coverage(region))
	}
}
