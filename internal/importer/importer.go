// Package importer reads parcel boundaries from vector files. It supports
// GeoJSON, ESRI shapefiles (plain or zipped), KML/KMZ, DXF drawings and
// CSV/Excel vertex tables with automatic delimiter detection and flexible
// column mapping.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Regions  []model.Region
	CRS      string
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced usable geometry without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Regions) > 0
}

// Err folds the collected error messages into a single error, or nil.
func (r ImportResult) Err() error {
	switch {
	case len(r.Errors) > 0:
		return fmt.Errorf("%w: %s", model.ErrInvalidGeometry, strings.Join(r.Errors, "; "))
	case len(r.Regions) == 0:
		return fmt.Errorf("%w: no polygons found", model.ErrInvalidGeometry)
	}
	return nil
}

// SupportedExtensions lists the file extensions ImportFile understands.
var SupportedExtensions = []string{".geojson", ".json", ".shp", ".zip", ".kml", ".kmz", ".dxf", ".csv", ".xlsx", ".xls"}

// ImportFile reads a parcel file, choosing the reader from its extension.
func ImportFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return ImportGeoJSON(path)
	case ".shp":
		return ImportShapefile(path)
	case ".zip":
		return ImportShapefileZip(path)
	case ".kml":
		return ImportKML(path)
	case ".kmz":
		return ImportKMZ(path)
	case ".dxf":
		return ImportDXF(path)
	case ".csv", ".txt":
		return ImportCSV(path)
	case ".xlsx", ".xls":
		return ImportExcel(path)
	default:
		return ImportResult{Errors: []string{
			fmt.Sprintf("Unsupported file format %q (supported: %s)", filepath.Ext(path), strings.Join(SupportedExtensions, ", ")),
		}}
	}
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Parcel int
	Ring   int
	X      int
	Y      int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"parcel": {"parcel", "parcel id", "parcel_id", "id", "name", "feature", "polygon", "plot"},
	"ring":   {"ring", "ring id", "part", "hole"},
	"x":      {"x", "easting", "east", "e", "lon", "lng", "long", "longitude"},
	"y":      {"y", "northing", "north", "n", "lat", "latitude"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1 // Allow variable field counts

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Parcel: -1, Ring: -1, X: -1, Y: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "parcel":
					if mapping.Parcel == -1 {
						mapping.Parcel = i
					}
				case "ring":
					if mapping.Ring == -1 {
						mapping.Ring = i
					}
				case "x":
					if mapping.X == -1 {
						mapping.X = i
					}
				case "y":
					if mapping.Y == -1 {
						mapping.Y = i
					}
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping(len(row)), false
	}
	return mapping, true
}

// positionalMapping guesses the layout of a header-less table from its width:
// "x,y", "parcel,x,y" or "parcel,ring,x,y".
func positionalMapping(cols int) ColumnMapping {
	switch {
	case cols <= 2:
		return ColumnMapping{Parcel: -1, Ring: -1, X: 0, Y: 1}
	case cols == 3:
		return ColumnMapping{Parcel: 0, Ring: -1, X: 1, Y: 2}
	default:
		return ColumnMapping{Parcel: 0, Ring: 1, X: 2, Y: 3}
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// vertex is one parsed table row.
type vertex struct {
	parcel string
	ring   int
	point  orb.Point
}

// parseRow extracts a vertex from a row using the given column mapping.
// Returns the vertex and any error message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (vertex, string) {
	v := vertex{parcel: getCell(row, mapping.Parcel)}
	if v.parcel == "" {
		v.parcel = "1"
	}

	if s := getCell(row, mapping.Ring); s != "" {
		ring, err := strconv.Atoi(s)
		if err != nil || ring < 0 {
			return vertex{}, fmt.Sprintf("%s: Invalid ring number '%s'", rowLabel, s)
		}
		v.ring = ring
	}

	xStr := getCell(row, mapping.X)
	if xStr == "" {
		return vertex{}, fmt.Sprintf("%s: Missing x value", rowLabel)
	}
	x, err := strconv.ParseFloat(xStr, 64)
	if err != nil {
		return vertex{}, fmt.Sprintf("%s: Invalid x '%s'", rowLabel, xStr)
	}

	yStr := getCell(row, mapping.Y)
	if yStr == "" {
		return vertex{}, fmt.Sprintf("%s: Missing y value", rowLabel)
	}
	y, err := strconv.ParseFloat(yStr, 64)
	if err != nil {
		return vertex{}, fmt.Sprintf("%s: Invalid y '%s'", rowLabel, yStr)
	}

	v.point = orb.Point{x, y}
	return v, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports parcel vertices from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports parcel vertices from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports parcel vertices from an Excel (.xlsx, .xls) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// Vertices are grouped into rings by parcel and ring number, in the order the
// parcels first appear. Ring 0 is the outer boundary, higher numbers are holes.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.X == -1 {
			missing = append(missing, "X")
		}
		if mapping.Y == -1 {
			missing = append(missing, "Y")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) > mapping.X {
		if _, err := strconv.ParseFloat(getCell(rows[0], mapping.X), 64); err != nil {
			// Unrecognized header; skip it but keep the positional mapping
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	type ringKey struct {
		parcel string
		ring   int
	}
	var parcels []string
	rings := make(map[ringKey]orb.Ring)
	ringOrder := make(map[string][]int)

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		v, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}

		if _, seen := ringOrder[v.parcel]; !seen {
			parcels = append(parcels, v.parcel)
			ringOrder[v.parcel] = nil
		}
		key := ringKey{v.parcel, v.ring}
		if _, seen := rings[key]; !seen {
			ringOrder[v.parcel] = append(ringOrder[v.parcel], v.ring)
		}
		rings[key] = append(rings[key], v.point)
	}

	for _, id := range parcels {
		order := ringOrder[id]
		sort.Ints(order)
		var outer orb.Ring
		var holes []orb.Ring
		for _, n := range order {
			ring := rings[ringKey{id, n}]
			if len(ring) < 3 {
				result.Errors = append(result.Errors, fmt.Sprintf("Parcel %s ring %d: need at least 3 vertices, got %d", id, n, len(ring)))
				continue
			}
			if outer == nil {
				outer = ring
				continue
			}
			holes = append(holes, ring)
		}
		if outer != nil {
			result.Regions = append(result.Regions, model.NewRegion("", outer, holes...))
		}
	}

	if len(result.Regions) > 0 {
		result.Warnings = append(result.Warnings, "Vertex tables carry no coordinate reference; using the configured default")
	} else if len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
