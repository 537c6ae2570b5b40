package model

import (
	"fmt"
	"os"
	"strconv"
)

// History backends understood by history.Open.
const (
	HistoryCSV      = "csv"
	HistoryPostgres = "postgres"
	HistoryRedis    = "redis"
	HistoryNone     = "none"
)

// HistoryConfig selects and configures the run-history store.
type HistoryConfig struct {
	Backend   string `json:"backend" yaml:"backend"`       // "csv", "postgres", "redis" or "none"
	Path      string `json:"path" yaml:"path"`             // CSV file location
	DSN       string `json:"dsn" yaml:"dsn"`               // Postgres connection string
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"` // host:port of the Redis server
	RedisKey  string `json:"redis_key" yaml:"redis_key"`
}

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to new projects
	DefaultMinArea     float64           `json:"default_min_area" yaml:"default_min_area"`
	MinAllowedArea     float64           `json:"min_allowed_area" yaml:"min_allowed_area"`
	DefaultCRS         string            `json:"default_crs" yaml:"default_crs"`
	DefaultContainment ContainmentPolicy `json:"default_containment" yaml:"default_containment"`

	History HistoryConfig `json:"history" yaml:"history"`

	// Application preferences
	RecentFiles []string `json:"recent_files" yaml:"recent_files"`
	Theme       string   `json:"theme" yaml:"theme"` // "light", "dark", "system"
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultMinArea:     defaults.MinArea,
		MinAllowedArea:     MinAllowedArea,
		DefaultCRS:         defaults.CRS,
		DefaultContainment: defaults.Containment,
		History: HistoryConfig{
			Backend:  HistoryCSV,
			Path:     "lot_history.csv",
			RedisKey: "lotismart:runs",
		},
		RecentFiles: []string{},
		Theme:       "system",
	}
}

// ApplyToSettings copies the default values from AppConfig into a Settings struct.
// This is used when creating a new project so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *Settings) {
	s.MinArea = c.DefaultMinArea
	s.Containment = c.DefaultContainment
	s.CRS = c.DefaultCRS
}

// ApplyEnv overrides config values from LOTISMART_* environment variables.
// Malformed numbers are reported, the remaining variables are still applied.
func (c *AppConfig) ApplyEnv() error {
	var firstErr error
	if v := os.Getenv("LOTISMART_HISTORY"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("LOTISMART_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("LOTISMART_PG_DSN"); v != "" {
		c.History.DSN = v
	}
	if v := os.Getenv("LOTISMART_REDIS_ADDR"); v != "" {
		c.History.RedisAddr = v
	}
	if v := os.Getenv("LOTISMART_MIN_AREA"); v != "" {
		area, err := strconv.ParseFloat(v, 64)
		if err != nil {
			firstErr = fmt.Errorf("invalid LOTISMART_MIN_AREA %q: %w", v, err)
		} else {
			c.DefaultMinArea = area
		}
	}
	return firstErr
}

// Validate checks the config for values the rest of the application cannot use.
func (c AppConfig) Validate() error {
	if c.MinAllowedArea <= 0 {
		return fmt.Errorf("%w: min_allowed_area must be positive", ErrInvalidParameter)
	}
	if c.DefaultMinArea < c.MinAllowedArea {
		return fmt.Errorf("%w: default_min_area %g is below min_allowed_area %g",
			ErrInvalidParameter, c.DefaultMinArea, c.MinAllowedArea)
	}
	switch c.History.Backend {
	case HistoryCSV:
		if c.History.Path == "" {
			return fmt.Errorf("history backend csv requires a path")
		}
	case HistoryPostgres:
		if c.History.DSN == "" {
			return fmt.Errorf("history backend postgres requires a dsn")
		}
	case HistoryRedis:
		if c.History.RedisAddr == "" {
			return fmt.Errorf("history backend redis requires redis_addr")
		}
	case HistoryNone, "":
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	switch c.Theme {
	case "light", "dark", "system", "":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}

// AddRecentFile moves path to the front of the recent list, keeping at most max entries.
func (c *AppConfig) AddRecentFile(path string, max int) {
	recent := []string{path}
	for _, p := range c.RecentFiles {
		if p != path {
			recent = append(recent, p)
		}
	}
	if max > 0 && len(recent) > max {
		recent = recent[:max]
	}
	c.RecentFiles = recent
}
