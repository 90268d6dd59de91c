package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arnavshah/festival-planner-go/pkg/models"
	"github.com/arnavshah/festival-planner-go/pkg/scheduler"
	"github.com/arnavshah/festival-planner-go/pkg/stats"
	"github.com/arnavshah/festival-planner-go/pkg/timeline"
)

const (
	defaultTimezone      = "Europe/Brussels"
	defaultWindowStart   = "10:00"
	defaultWindowEnd     = "02:00"
	defaultPruneSchedule = "@daily"
	defaultRetentionDays = 90
)

// LayoutConfig tunes the layout engine.
type LayoutConfig struct {
	MaxLanes             int     `yaml:"max_lanes" json:"max_lanes"`
	MaxPropagationRounds int     `yaml:"max_propagation_rounds" json:"max_propagation_rounds"`
	MaxFavoriteWidthPct  float64 `yaml:"max_favorite_width_pct" json:"max_favorite_width_pct"`
	MaxColumnWidthPct    float64 `yaml:"max_column_width_pct" json:"max_column_width_pct"`
	MinHeight            float64 `yaml:"min_height" json:"min_height"`
	// Scale is pixels per minute when a request does not set one.
	Scale float64 `yaml:"scale" json:"scale"`
}

// StatsConfig tunes clash detection and completion scoring.
type StatsConfig struct {
	MinClashMinutes   int `yaml:"min_clash_minutes" json:"min_clash_minutes"`
	TransitionMinutes int `yaml:"transition_minutes" json:"transition_minutes"`
}

// UsageConfig controls retention of per-key usage rows.
type UsageConfig struct {
	// PruneSchedule is a cron spec (e.g. "@daily", "0 4 * * *").
	PruneSchedule string `yaml:"prune_schedule" json:"prune_schedule"`
	RetentionDays int    `yaml:"retention_days" json:"retention_days"`
}

// Config is the festival configuration file.
type Config struct {
	// Timezone is the IANA zone the festival runs in, used for calendar export.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DayBoundaryHour is the hour before which a time label belongs to the
	// previous festival day. Zero means the default (6).
	DayBoundaryHour int `yaml:"day_boundary_hour" json:"day_boundary_hour"`

	Days        []models.Day        `yaml:"days" json:"days"`
	StageGroups []models.StageGroup `yaml:"stage_groups" json:"stage_groups"`

	Layout LayoutConfig `yaml:"layout" json:"layout"`
	Stats  StatsConfig  `yaml:"stats" json:"stats"`
	Usage  UsageConfig  `yaml:"usage" json:"usage"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	lc := scheduler.DefaultConfig()
	sc := stats.DefaultConfig()
	return &Config{
		Timezone:        defaultTimezone,
		DayBoundaryHour: timeline.DefaultDayBoundaryHour,
		Days: []models.Day{
			{Label: "Friday", Date: "2026-07-17", WindowStart: defaultWindowStart, WindowEnd: defaultWindowEnd},
			{Label: "Saturday", Date: "2026-07-18", WindowStart: defaultWindowStart, WindowEnd: defaultWindowEnd},
			{Label: "Sunday", Date: "2026-07-19", WindowStart: defaultWindowStart, WindowEnd: defaultWindowEnd},
		},
		StageGroups: []models.StageGroup{
			{Name: "Mainstage", Stages: []string{"mainstage"}},
			{Name: "Freedom", Stages: []string{"freedom"}},
			{Name: "Atmosphere", Stages: []string{"atmosphere"}},
			{Name: "Core", Stages: []string{"core"}},
			{Name: "Garden", Stages: []string{"rose-garden", "elixir"}},
		},
		Layout: LayoutConfig{
			MaxLanes:             lc.MaxLanes,
			MaxPropagationRounds: lc.MaxPropagationRounds,
			MaxFavoriteWidthPct:  lc.MaxFavoriteWidthPct,
			MaxColumnWidthPct:    lc.MaxColumnWidthPct,
			MinHeight:            lc.MinHeight,
			Scale:                lc.Scale,
		},
		Stats: StatsConfig{
			MinClashMinutes:   sc.MinClashMinutes,
			TransitionMinutes: sc.TransitionMinutes,
		},
		Usage: UsageConfig{
			PruneSchedule: defaultPruneSchedule,
			RetentionDays: defaultRetentionDays,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled files still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.DayBoundaryHour <= 0 || c.DayBoundaryHour > 23 {
		c.DayBoundaryHour = def.DayBoundaryHour
	}
	if len(c.Days) == 0 {
		c.Days = def.Days
	}
	for i := range c.Days {
		if c.Days[i].WindowStart == "" {
			c.Days[i].WindowStart = defaultWindowStart
		}
		if c.Days[i].WindowEnd == "" {
			c.Days[i].WindowEnd = defaultWindowEnd
		}
	}
	if len(c.StageGroups) == 0 {
		c.StageGroups = def.StageGroups
	}

	if c.Layout.MaxLanes <= 0 {
		c.Layout.MaxLanes = def.Layout.MaxLanes
	}
	if c.Layout.MaxPropagationRounds <= 0 {
		c.Layout.MaxPropagationRounds = def.Layout.MaxPropagationRounds
	}
	if c.Layout.MaxFavoriteWidthPct <= 0 || c.Layout.MaxFavoriteWidthPct > 100 {
		c.Layout.MaxFavoriteWidthPct = def.Layout.MaxFavoriteWidthPct
	}
	if c.Layout.MaxColumnWidthPct <= 0 || c.Layout.MaxColumnWidthPct > 100 {
		c.Layout.MaxColumnWidthPct = def.Layout.MaxColumnWidthPct
	}
	if c.Layout.MinHeight <= 0 {
		c.Layout.MinHeight = def.Layout.MinHeight
	}
	if c.Layout.Scale <= 0 {
		c.Layout.Scale = def.Layout.Scale
	}

	if c.Stats.MinClashMinutes <= 0 {
		c.Stats.MinClashMinutes = def.Stats.MinClashMinutes
	}
	if c.Stats.TransitionMinutes < 0 {
		c.Stats.TransitionMinutes = def.Stats.TransitionMinutes
	}

	if c.Usage.PruneSchedule == "" {
		c.Usage.PruneSchedule = def.Usage.PruneSchedule
	}
	if c.Usage.RetentionDays <= 0 {
		c.Usage.RetentionDays = def.Usage.RetentionDays
	}
}

// Lineup validates the configured days and stage groups.
func (c *Config) Lineup() (*models.Lineup, error) {
	return models.NewLineup(c.Days, c.StageGroups)
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SchedulerConfig maps the file onto layout engine parameters.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		DayBoundaryHour:      c.DayBoundaryHour,
		MaxLanes:             c.Layout.MaxLanes,
		MaxPropagationRounds: c.Layout.MaxPropagationRounds,
		MaxFavoriteWidthPct:  c.Layout.MaxFavoriteWidthPct,
		MaxColumnWidthPct:    c.Layout.MaxColumnWidthPct,
		MinHeight:            c.Layout.MinHeight,
		Scale:                c.Layout.Scale,
	}
}

// StatsConfig maps the file onto aggregator parameters.
func (c *Config) StatsConfig() stats.Config {
	return stats.Config{
		DayBoundaryHour:   c.DayBoundaryHour,
		MinClashMinutes:   c.Stats.MinClashMinutes,
		TransitionMinutes: c.Stats.TransitionMinutes,
	}
}

// Retention is how long usage rows are kept.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Usage.RetentionDays) * 24 * time.Hour
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written with 0600 perms and
// returned. Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file in the same directory.
// The parent directory is created with 0700 and the file ends up 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".festival-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
