// Package service runs the partition pipeline for the CLI, the HTTP API and
// the desktop app: it validates parameters, partitions, records the run in
// the history log and updates metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/piwi3910/LotiSmart/internal/engine"
	"github.com/piwi3910/LotiSmart/internal/history"
	"github.com/piwi3910/LotiSmart/internal/logger"
	"github.com/piwi3910/LotiSmart/internal/metrics"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// ErrHistory marks a run that succeeded but could not be recorded.
var ErrHistory = errors.New("run not recorded")

// Service wires the engine to the history log.
type Service struct {
	Config  model.AppConfig
	History history.Log
	Now     func() time.Time
}

// New creates a service. A nil log disables history.
func New(cfg model.AppConfig, log history.Log) *Service {
	if log == nil {
		log = history.NopLog{}
	}
	return &Service{Config: cfg, History: log, Now: time.Now}
}

// ValidateMinArea applies both the fixed lower limit and the configured one.
func (s *Service) ValidateMinArea(area float64) error {
	if err := model.ValidateMinArea(area); err != nil {
		return err
	}
	if area < s.Config.MinAllowedArea {
		return fmt.Errorf("%w: minimum lot area must be at least %g, got %g",
			model.ErrInvalidParameter, s.Config.MinAllowedArea, area)
	}
	return nil
}

// Settings returns run settings built from the configured defaults.
func (s *Service) Settings() model.Settings {
	settings := model.DefaultSettings()
	s.Config.ApplyToSettings(&settings)
	return settings
}

// Partition runs one partition and appends its record to the history log.
// When only the history append fails the result is returned together with an
// error wrapping ErrHistory.
func (s *Service) Partition(ctx context.Context, source string, regions []model.Region, settings model.Settings) (engine.RunResult, error) {
	l := logger.L()

	if err := s.ValidateMinArea(settings.MinArea); err != nil {
		metrics.ObserveError(err)
		return engine.RunResult{}, err
	}

	res, err := engine.New(settings).Run(ctx, source, regions, s.Now())
	if err != nil {
		metrics.ObserveError(err)
		l.Warn("partition_error", "source", source, "min_area", settings.MinArea, "err", err)
		return engine.RunResult{}, err
	}

	metrics.ObserveRun(res.Lots.Len(), res.Elapsed)
	l.Info("partition_done",
		"source", source,
		"min_area", settings.MinArea,
		"side", roundTo(res.Lots.Side, 4),
		"lots", res.Lots.Len(),
		"capacity", res.Capacity,
		"coverage_pct", roundTo(res.Coverage(), 2),
		"duration_ms", res.Elapsed.Milliseconds(),
	)

	if err := s.History.Append(ctx, res.Record); err != nil {
		l.Error("history_append_error", "run", res.Record.ID, "err", err)
		return res, fmt.Errorf("%w: %v", ErrHistory, err)
	}
	return res, nil
}

// Runs lists the recorded runs.
func (s *Service) Runs(ctx context.Context) ([]model.RunRecord, error) {
	return s.History.List(ctx)
}

// Close releases the history log.
func (s *Service) Close() error {
	return s.History.Close()
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
