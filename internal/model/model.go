package model

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ContainmentPolicy controls how a lot touching the parcel boundary is treated.
type ContainmentPolicy int

const (
	BoundaryInclusive ContainmentPolicy = iota // Edges on the boundary count as inside
	BoundaryExclusive                          // Lots must stay clear of the boundary
)

func (p ContainmentPolicy) String() string {
	switch p {
	case BoundaryExclusive:
		return "exclusive"
	default:
		return "inclusive"
	}
}

// ParseContainmentPolicy converts a config string to a ContainmentPolicy.
func ParseContainmentPolicy(s string) (ContainmentPolicy, error) {
	switch s {
	case "", "inclusive":
		return BoundaryInclusive, nil
	case "exclusive":
		return BoundaryExclusive, nil
	default:
		return BoundaryInclusive, fmt.Errorf("unknown containment policy %q (must be 'inclusive' or 'exclusive')", s)
	}
}

func (p ContainmentPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ContainmentPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseContainmentPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Region is a planar area made of one or more polygons. Each polygon is an
// outer ring followed by its holes; every ring is closed.
type Region struct {
	Polygons orb.MultiPolygon `json:"polygons"`
	CRS      string           `json:"crs,omitempty"`
}

// NewRegion builds a single-polygon region from an outer ring and optional holes.
func NewRegion(crs string, outer orb.Ring, holes ...orb.Ring) Region {
	poly := orb.Polygon{CloseRing(outer)}
	for _, h := range holes {
		poly = append(poly, CloseRing(h))
	}
	return Region{Polygons: orb.MultiPolygon{poly}, CRS: crs}
}

// Bound returns the bounding box of the region.
func (r Region) Bound() orb.Bound {
	return r.Polygons.Bound()
}

// Area returns the planar area of the region, holes subtracted.
func (r Region) Area() float64 {
	if len(r.Polygons) == 0 {
		return 0
	}
	return planar.Area(r.Polygons)
}

// IsEmpty reports whether the region has no usable area.
func (r Region) IsEmpty() bool {
	return len(r.Polygons) == 0 || r.Area() <= 0
}

// Rings returns every ring of the region, outer rings and holes alike.
func (r Region) Rings() []orb.Ring {
	var rings []orb.Ring
	for _, p := range r.Polygons {
		rings = append(rings, p...)
	}
	return rings
}

// Square is a candidate lot: a lower-left corner and a side length.
type Square struct {
	Origin orb.Point `json:"origin"`
	Side   float64   `json:"side"`
}

// Bound returns the square's extent.
func (s Square) Bound() orb.Bound {
	return orb.Bound{
		Min: s.Origin,
		Max: orb.Point{s.Origin[0] + s.Side, s.Origin[1] + s.Side},
	}
}

// Corners returns the four corners counter-clockwise from the origin.
func (s Square) Corners() [4]orb.Point {
	x, y := s.Origin[0], s.Origin[1]
	return [4]orb.Point{
		{x, y},
		{x + s.Side, y},
		{x + s.Side, y + s.Side},
		{x, y + s.Side},
	}
}

// Ring returns the closed counter-clockwise ring of the square.
func (s Square) Ring() orb.Ring {
	c := s.Corners()
	return orb.Ring{c[0], c[1], c[2], c[3], c[0]}
}

// Polygon returns the square as an orb polygon.
func (s Square) Polygon() orb.Polygon {
	return orb.Polygon{s.Ring()}
}

// Area returns the square's area.
func (s Square) Area() float64 {
	return s.Side * s.Side
}

// Lot is an accepted square. Number is 1-based and follows sweep order.
type Lot struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Square Square `json:"square"`
}

// NewLot creates a lot with its display label.
func NewLot(number int, sq Square) Lot {
	return Lot{
		Number: number,
		Label:  fmt.Sprintf("Lot %d", number),
		Square: sq,
	}
}

// LotSet is the ordered output of a partition run, tagged with the CRS of the
// originating region.
type LotSet struct {
	Lots []Lot   `json:"lots"`
	CRS  string  `json:"crs,omitempty"`
	Side float64 `json:"side"`
}

// Len returns the number of lots.
func (ls LotSet) Len() int {
	return len(ls.Lots)
}

// TotalArea returns the combined area of all lots.
func (ls LotSet) TotalArea() float64 {
	var total float64
	for _, l := range ls.Lots {
		total += l.Square.Area()
	}
	return total
}

// Coverage returns the share of the region covered by lots, as a percentage.
func (ls LotSet) Coverage(region Region) float64 {
	ra := region.Area()
	if ra == 0 {
		return 0
	}
	return (ls.TotalArea() / ra) * 100.0
}

// Bound returns the extent of all lots, or an empty bound when there are none.
func (ls LotSet) Bound() orb.Bound {
	if len(ls.Lots) == 0 {
		return orb.Bound{}
	}
	b := ls.Lots[0].Square.Bound()
	for _, l := range ls.Lots[1:] {
		b = b.Union(l.Square.Bound())
	}
	return b
}

// RunRecord is one row of the run history log.
type RunRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	MinArea   float64   `json:"min_area"`
	LotCount  int       `json:"lot_count"`
}

// NewRunRecord creates a record with a fresh ID.
func NewRunRecord(source string, minArea float64, lotCount int, now time.Time) RunRecord {
	return RunRecord{
		ID:        uuid.New().String(),
		Timestamp: now,
		Source:    source,
		MinArea:   minArea,
		LotCount:  lotCount,
	}
}

// Settings holds the parameters of a partition run.
type Settings struct {
	MinArea     float64           `json:"min_area" yaml:"min_area"`           // Minimum lot area in square CRS units (m²)
	Containment ContainmentPolicy `json:"containment" yaml:"containment"`     // Boundary handling
	CRS         string            `json:"crs,omitempty" yaml:"crs,omitempty"` // Fallback CRS when the source has none
}

// Parameter limits enforced by the calling layers (CLI, API, desktop).
const (
	DefaultMinArea = 150.0
	MinAllowedArea = 50.0
)

func DefaultSettings() Settings {
	return Settings{
		MinArea:     DefaultMinArea,
		Containment: BoundaryInclusive,
	}
}

// ValidateMinArea enforces the user-facing lower limit on the lot area.
func ValidateMinArea(area float64) error {
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return fmt.Errorf("%w: minimum lot area must be a finite number", ErrInvalidParameter)
	}
	if area < MinAllowedArea {
		return fmt.Errorf("%w: minimum lot area must be at least %.0f, got %g", ErrInvalidParameter, MinAllowedArea, area)
	}
	return nil
}

// Project ties everything together for save/load.
type Project struct {
	Name     string     `json:"name"`
	Source   string     `json:"source"`
	Settings Settings   `json:"settings"`
	Parcel   Region     `json:"parcel"`
	Result   *LotSet    `json:"result,omitempty"`
	LastRun  *RunRecord `json:"last_run,omitempty"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Settings: DefaultSettings(),
	}
}
