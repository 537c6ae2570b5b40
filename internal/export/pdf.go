// Package export writes partition results to files: GeoJSON, PDF plans,
// QR stake labels, Excel schedules, DXF drawings and shapefiles.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// lotColor represents an RGB fill color for a lot.
type lotColor struct {
	R, G, B int
}

// lotColors mirrors the color scheme used in the UI parcel canvas widget.
var lotColors = []lotColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 10.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// scheduleRowsPerPage is the number of lot rows that fit below the schedule header.
const scheduleRowsPerPage = 24

// planTransform maps CRS coordinates onto the page. The y axis is flipped
// because PDF coordinates grow downwards.
type planTransform struct {
	scale   float64
	bound   orb.Bound
	offsetX float64
	offsetY float64
}

func newPlanTransform(b orb.Bound, x, y, w, h float64) planTransform {
	bw := b.Max[0] - b.Min[0]
	bh := b.Max[1] - b.Min[1]
	scale := 1.0
	if bw > 0 && bh > 0 {
		scale = math.Min(w/bw, h/bh)
	}
	return planTransform{
		scale:   scale,
		bound:   b,
		offsetX: x + (w-bw*scale)/2,
		offsetY: y,
	}
}

func (t planTransform) point(p orb.Point) (float64, float64) {
	return t.offsetX + (p[0]-t.bound.Min[0])*t.scale,
		t.offsetY + (t.bound.Max[1]-p[1])*t.scale
}

func (t planTransform) ring(r orb.Ring) []fpdf.PointType {
	pts := make([]fpdf.PointType, 0, len(r))
	for _, p := range r {
		x, y := t.point(p)
		pts = append(pts, fpdf.PointType{X: x, Y: y})
	}
	return pts
}

// ExportPDF generates a PDF document with a plan of the parcel and its lots,
// followed by a lot schedule. A run without lots still produces the plan.
func ExportPDF(path string, region model.Region, lotSet model.LotSet, record model.RunRecord) error {
	if region.IsEmpty() {
		return fmt.Errorf("no parcel to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderPlanPage(pdf, region, lotSet, record)

	renderSchedulePages(pdf, region, lotSet, record)

	return pdf.OutputFileAndClose(path)
}

// renderPlanPage draws the parcel outline with the accepted lots on top.
func renderPlanPage(pdf *fpdf.Fpdf, region model.Region, lotSet model.LotSet, record model.RunRecord) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := "Parcel Plan"
	if record.Source != "" {
		title += ": " + record.Source
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Lots: %d | Lot side: %.2f | Parcel area: %.1f | Coverage: %.1f%%",
		lotSet.Len(), lotSet.Side, region.Area(), lotSet.Coverage(region))
	if lotSet.CRS != "" {
		stats += " | CRS: " + shortCRS(lotSet.CRS)
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	b := region.Bound()
	t := newPlanTransform(b, marginLeft, drawAreaTop, drawWidth, drawHeight)
	canvasW := (b.Max[0] - b.Min[0]) * t.scale
	canvasH := (b.Max[1] - b.Min[1]) * t.scale

	// Parcel: outer rings filled, holes punched back out in white
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.5)
	for _, poly := range region.Polygons {
		if len(poly) == 0 {
			continue
		}
		pdf.SetFillColor(230, 225, 200)
		pdf.Polygon(t.ring(poly[0]), "FD")
		pdf.SetFillColor(255, 255, 255)
		for _, hole := range poly[1:] {
			pdf.Polygon(t.ring(hole), "FD")
		}
	}

	for i, lot := range lotSet.Lots {
		col := lotColors[i%len(lotColors)]
		x, y := t.point(orb.Point{lot.Square.Origin[0], lot.Square.Origin[1] + lot.Square.Side})
		side := lot.Square.Side * t.scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Rect(x, y, side, side, "FD")

		if side > 5 {
			label := fmt.Sprintf("%d", lot.Number)
			pdf.SetFont("Helvetica", "", labelFontSize(side))
			pdf.SetTextColor(0, 0, 0)
			labelW := pdf.GetStringWidth(label)
			if labelW < side-1 {
				pdf.SetXY(x+(side-labelW)/2, y+side/2-2)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, b, t.offsetX, t.offsetY, canvasW, canvasH)

	if lotSet.Len() == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(150, 0, 0)
		pdf.SetXY(marginLeft, t.offsetY+canvasH+6)
		pdf.CellFormat(drawWidth, 5, "No lot of the requested area fits inside this parcel.", "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

// drawDimensionAnnotations adds width and height labels outside the parcel extent.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, b orb.Bound, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.1f", b.Max[0]-b.Min[0])
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.1f", b.Max[1]-b.Min[1])
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// renderSchedulePages draws the run summary and the lot table, continuing
// onto further pages when the table is long.
func renderSchedulePages(pdf *fpdf.Fpdf, region model.Region, lotSet model.LotSet, record model.RunRecord) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Lot Schedule", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	summaryItems := []struct {
		label string
		value string
	}{
		{"Source", record.Source},
		{"Run", record.Timestamp.Format("2006-01-02 15:04:05")},
		{"Minimum Lot Area", fmt.Sprintf("%.1f", record.MinArea)},
		{"Lots", fmt.Sprintf("%d", lotSet.Len())},
		{"Lot Area Total", fmt.Sprintf("%.1f", lotSet.TotalArea())},
		{"Coverage", fmt.Sprintf("%.1f%%", lotSet.Coverage(region))},
	}

	for _, item := range summaryItems {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(150, 6, item.value, "", 0, "L", false, 0, "")
		y += 6
	}

	if lotSet.Len() == 0 {
		return
	}

	y += 6
	colWidths := []float64{20, 40, 45, 45, 35, 40}
	headers := []string{"#", "Label", "Origin X", "Origin Y", "Side", "Area"}

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		pdf.SetXY(marginLeft, y)
		for i, h := range headers {
			pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
		}
		y += 6
	}

	drawHeader()
	pdf.SetFont("Helvetica", "", 9)
	rows := 0
	for i, lot := range lotSet.Lots {
		if rows == scheduleRowsPerPage {
			pdf.AddPage()
			y = marginTop
			rows = 0
			drawHeader()
			pdf.SetFont("Helvetica", "", 9)
		}
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(245, 245, 245)
		}
		pdf.SetXY(marginLeft, y)
		cells := []string{
			fmt.Sprintf("%d", lot.Number),
			lot.Label,
			fmt.Sprintf("%.2f", lot.Square.Origin[0]),
			fmt.Sprintf("%.2f", lot.Square.Origin[1]),
			fmt.Sprintf("%.2f", lot.Square.Side),
			fmt.Sprintf("%.2f", lot.Square.Area()),
		}
		for c, text := range cells {
			align := "R"
			if c == 1 {
				align = "L"
			}
			pdf.CellFormat(colWidths[c], 5.5, text, "1", 0, align, fill, 0, "")
		}
		y += 5.5
		rows++
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by LotiSmart - Parcel Lot Partitioner", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns an appropriate font size for a lot of the given drawn side.
func labelFontSize(side float64) float64 {
	switch {
	case side > 30:
		return 9
	case side > 12:
		return 7
	default:
		return 5
	}
}

// shortCRS keeps EPSG-style tags as they are and truncates WKT definitions.
func shortCRS(crs string) string {
	if len(crs) <= 40 {
		return crs
	}
	return crs[:37] + "..."
}
