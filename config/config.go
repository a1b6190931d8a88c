// Package config loads the YAML run configuration.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-busstop/controller"
	"github.com/nvr-ai/go-busstop/geometry"
	"github.com/nvr-ai/go-busstop/input"
	"github.com/nvr-ai/go-busstop/logging"
	"github.com/nvr-ai/go-busstop/source"
)

// Config represents the full configuration of a run.
type Config struct {
	// Source is a video path, a device id, a frame directory or an image.
	Source string `yaml:"source"`
	// Points are the platform corners in frame pixels, in click order.
	Points []geometry.Point2D `yaml:"points"`
	Tuning input.Tuning       `yaml:"tuning"`

	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
	Profiler ProfilerConfig `yaml:"profiler"`
}

// PipelineConfig selects the mask producers and how they are fused.
type PipelineConfig struct {
	Producers []string `yaml:"producers"`
	// Policy is select, union or intersect.
	Policy string `yaml:"policy"`
	// Select names the producer kept by the select policy. Empty keeps the first.
	Select   string `yaml:"select"`
	Sections int    `yaml:"sections"`
	// History is the number of recent results retained. 0 disables retention.
	History int `yaml:"history"`
}

// OutputConfig selects the sinks.
type OutputConfig struct {
	Window bool `yaml:"window"`
	// Dir receives mask and preview PNGs when set.
	Dir           string `yaml:"dir"`
	PreviewWidth  int    `yaml:"preview_width"`
	PreviewHeight int    `yaml:"preview_height"`
	Progress      bool   `yaml:"progress"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string         `yaml:"level"`
	Format logging.Format `yaml:"format"`
}

// ProfilerConfig configures periodic stage timing reports.
type ProfilerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ReportInterval time.Duration `yaml:"report_interval"`
	MaxSamples     int           `yaml:"max_samples"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Source: source.DefaultTarget,
		Tuning: input.DefaultTuning,
		Pipeline: PipelineConfig{
			Producers: []string{"fixed_hsv"},
			Policy:    "select",
			Sections:  controller.DefaultSections,
			History:   30,
		},
		Output: OutputConfig{
			Window:        true,
			PreviewWidth:  600,
			PreviewHeight: 400,
			Progress:      true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatAuto,
		},
		Profiler: ProfilerConfig{
			ReportInterval: 5 * time.Second,
			MaxSamples:     300,
		},
	}
}

// LoadFromFile reads a YAML file over the defaults and validates the result.
//
// Arguments:
// - path: Path to the YAML file.
//
// Returns:
// - The merged configuration.
// - An error if the file cannot be read, parsed or validated.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if n := len(c.Points); n != 0 && n != 4 {
		return errors.Errorf("points: expected 0 or 4 corners, got %d", n)
	}
	if err := checkPercent("tuning.chroma_percent", c.Tuning.ChromaPercent); err != nil {
		return err
	}
	if err := checkPercent("tuning.white_percentile", c.Tuning.WhitePercentile); err != nil {
		return err
	}

	if len(c.Pipeline.Producers) == 0 {
		return errors.New("pipeline.producers: at least one producer is required")
	}
	seen := make(map[string]bool, len(c.Pipeline.Producers))
	for _, name := range c.Pipeline.Producers {
		if !controller.KnownProducer(name) {
			return errors.Errorf("pipeline.producers: unknown mask producer %q", name)
		}
		if seen[name] {
			return errors.Errorf("pipeline.producers: %q listed twice", name)
		}
		seen[name] = true
	}
	if _, err := controller.PolicyByName(c.Pipeline.Policy, c.Pipeline.Select); err != nil {
		return errors.Wrap(err, "pipeline.policy")
	}
	if c.Pipeline.Select != "" && !seen[c.Pipeline.Select] {
		return errors.Errorf("pipeline.select: %q is not a configured producer", c.Pipeline.Select)
	}
	if c.Pipeline.Sections < 1 {
		return errors.Errorf("pipeline.sections must be at least 1, got %d", c.Pipeline.Sections)
	}
	if c.Pipeline.History < 0 {
		return errors.Errorf("pipeline.history must not be negative, got %d", c.Pipeline.History)
	}

	if c.Output.PreviewWidth <= 0 || c.Output.PreviewHeight <= 0 {
		return errors.New("output: preview size must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch c.Log.Format {
	case "", logging.FormatAuto, logging.FormatText, logging.FormatJSON:
	default:
		return errors.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Profiler.Enabled && c.Profiler.ReportInterval <= 0 {
		return errors.New("profiler.report_interval must be positive")
	}
	return nil
}

// Producers builds the configured mask producers. Close the controller they
// are passed to, or each producer implementing io.Closer, when done.
func (c Config) Producers() ([]controller.Producer, error) {
	out := make([]controller.Producer, 0, len(c.Pipeline.Producers))
	for _, name := range c.Pipeline.Producers {
		p, err := controller.ProducerByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func checkPercent(field string, v int) error {
	if v < 0 || v > 100 {
		return errors.Errorf("%s must be within [0, 100], got %d", field, v)
	}
	return nil
}
