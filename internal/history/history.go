// Package history records one RunRecord per partition run. Records can go to
// a CSV file, a Postgres table or a Redis list; all stores share the Log
// interface so callers never depend on the backend.
package history

import (
	"context"
	"fmt"

	"github.com/piwi3910/LotiSmart/internal/logger"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// Log is an append-only store of run records.
type Log interface {
	Append(ctx context.Context, rec model.RunRecord) error
	// List returns all records in the order they were appended.
	List(ctx context.Context) ([]model.RunRecord, error)
	Close() error
}

// Open returns the store selected by cfg.Backend. An empty backend means CSV.
func Open(ctx context.Context, cfg model.HistoryConfig) (Log, error) {
	logger.L().Debug("history_open", "backend", cfg.Backend)
	switch cfg.Backend {
	case model.HistoryCSV, "":
		path := cfg.Path
		if path == "" {
			path = model.DefaultAppConfig().History.Path
		}
		return NewCSVLog(path), nil
	case model.HistoryPostgres:
		l, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return l, nil
	case model.HistoryRedis:
		l, err := OpenRedis(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		return l, nil
	case model.HistoryNone:
		return NopLog{}, nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}

// NopLog discards records.
type NopLog struct{}

func (NopLog) Append(context.Context, model.RunRecord) error   { return nil }
func (NopLog) List(context.Context) ([]model.RunRecord, error) { return nil, nil }
func (NopLog) Close() error                                    { return nil }
