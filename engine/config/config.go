package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/builder"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("config: invalid setting")

// Duration is a time.Duration written as a Go duration string ("250ms", "1s").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalid, string(b), err)
	}
	*d = Duration(v)
	return nil
}

// SchedulerConfig configures both build schedulers.
type SchedulerConfig struct {
	Workers     int      `toml:"workers"`
	QueueSize   int      `toml:"queue_size"`
	IdleTimeout Duration `toml:"idle_timeout"`
	LeafSize    int      `toml:"leaf_size"`
}

// RendererConfig selects the GPU sink.
type RendererConfig struct {
	Backend       string `toml:"backend"`
	Label         string `toml:"label"`
	ForceSoftware bool   `toml:"force_software"`
}

// EngineConfig configures the tick loop and profiler.
type EngineConfig struct {
	TickRate        float64  `toml:"tick_rate"`
	Profiling       bool     `toml:"profiling"`
	ProfileInterval Duration `toml:"profile_interval"`
}

// MaterialsConfig locates the material mapping table.
type MaterialsConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// LogConfig configures the engine logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// WindowConfig configures the optional progress window.
type WindowConfig struct {
	Enabled bool   `toml:"enabled"`
	Title   string `toml:"title"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
}

// Config is the full application configuration. Fields missing from a file keep
// their Default values.
type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Renderer  RendererConfig  `toml:"renderer"`
	Engine    EngineConfig    `toml:"engine"`
	Materials MaterialsConfig `toml:"materials"`
	Log       LogConfig       `toml:"log"`
	Window    WindowConfig    `toml:"window"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{
			Workers:     4,
			QueueSize:   256,
			IdleTimeout: Duration(time.Second),
			LeafSize:    4,
		},
		Renderer: RendererConfig{
			Backend: renderer.BackendTypeMemory.String(),
			Label:   "oxy-trace",
		},
		Engine: EngineConfig{
			TickRate:        60,
			ProfileInterval: Duration(time.Second),
		},
		Materials: MaterialsConfig{
			Path:  "material_mappings.yaml",
			Watch: true,
		},
		Log: LogConfig{Level: "info"},
		Window: WindowConfig{
			Title:  "oxy-trace",
			Width:  640,
			Height: 120,
		},
	}
}

// Load decodes a TOML file over Default and validates the result.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Config: the loaded configuration
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: error if encoding or writing fails
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	var errs []error
	if c.Scheduler.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: scheduler.workers must be at least 1", ErrInvalid))
	}
	if c.Scheduler.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("%w: scheduler.queue_size must be at least 1", ErrInvalid))
	}
	if c.Scheduler.LeafSize < 1 {
		errs = append(errs, fmt.Errorf("%w: scheduler.leaf_size must be at least 1", ErrInvalid))
	}
	if c.Engine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: engine.tick_rate must be positive", ErrInvalid))
	}
	if _, err := c.BackendType(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BackendType parses Renderer.Backend.
func (c Config) BackendType() (renderer.RendererBackendType, error) {
	t, ok := renderer.ParseBackendType(c.Renderer.Backend)
	if !ok {
		return t, fmt.Errorf("%w: renderer.backend %q", ErrInvalid, c.Renderer.Backend)
	}
	return t, nil
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return lvl, nil
}

// SchedulerOptions converts the scheduler section into builder options.
//
// Returns:
//   - []builder.SchedulerBuilderOption: options for builder.NewScheduler
func (c Config) SchedulerOptions() []builder.SchedulerBuilderOption {
	return []builder.SchedulerBuilderOption{
		builder.WithWorkers(c.Scheduler.Workers),
		builder.WithQueueSize(c.Scheduler.QueueSize),
		builder.WithIdleTimeout(time.Duration(c.Scheduler.IdleTimeout)),
		builder.WithLeafSize(c.Scheduler.LeafSize),
	}
}
