package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/piwi3910/LotiSmart/internal/model"
)

// csvHeader is written once when the file is created.
var csvHeader = []string{"Timestamp", "Source", "MinArea", "LotCount", "ID"}

// CSVLog appends records to a CSV file. Appends from one process are
// serialised; the file is opened per call so it can be inspected while the
// application runs.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVLog returns a log backed by the file at path. The file is created on
// the first append.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

// Path returns the backing file location.
func (l *CSVLog) Path() string {
	return l.path
}

func (l *CSVLog) Append(_ context.Context, rec model.RunRecord) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close history file: %w", cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat history file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}
	row := []string{
		rec.Timestamp.Format(time.RFC3339),
		rec.Source,
		strconv.FormatFloat(rec.MinArea, 'f', -1, 64),
		strconv.Itoa(rec.LotCount),
		rec.ID,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write history row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush history file: %w", err)
	}
	return nil
}

// List reads every record. A missing file is an empty history.
func (l *CSVLog) List(_ context.Context) ([]model.RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records []model.RunRecord
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return records, fmt.Errorf("history line %d: %w", line, err)
		}
		if line == 1 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		rec, err := parseCSVRecord(row)
		if err != nil {
			return records, fmt.Errorf("history line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *CSVLog) Close() error { return nil }

func parseCSVRecord(row []string) (model.RunRecord, error) {
	if len(row) < 4 {
		return model.RunRecord{}, fmt.Errorf("expected at least 4 columns, got %d", len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("invalid timestamp %q", row[0])
	}
	minArea, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("invalid minimum area %q", row[2])
	}
	count, err := strconv.Atoi(row[3])
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("invalid lot count %q", row[3])
	}
	rec := model.RunRecord{Timestamp: ts, Source: row[1], MinArea: minArea, LotCount: count}
	if len(row) > 4 {
		rec.ID = row[4]
	}
	return rec, nil
}
