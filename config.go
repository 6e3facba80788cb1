// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned, wrapped, for configuration values which
// cannot be used.
var ErrInvalidConfig = errors.New("perfbench: invalid configuration")

// Output formats.
const (
	FormatPlain   = "plain"
	FormatHuman   = "human"
	FormatMetrics = "metrics"
)

// maxIterationsLimit keeps the doubling trial size from overflowing.
const maxIterationsLimit = 1 << 62

// Config configures a Suite.
type Config struct {
	// Counters is the comma separated counter specification. If empty,
	// DefaultCounter is used.
	Counters string `yaml:"counters"`

	// DefaultCounter is the specification used when Counters is empty.
	DefaultCounter string `yaml:"default_counter"`

	// TimeLimit is the total time budget of one benchmark under one
	// counter, shared evenly between epochs.
	TimeLimit time.Duration `yaml:"time"`

	// Epochs is the number of independent measurements to take the best
	// of.
	Epochs int `yaml:"epochs"`

	// MaxIterations caps the total iterations of one epoch.
	MaxIterations int64 `yaml:"max_iterations"`

	// Interactive selects the human readable reporter.
	Interactive bool `yaml:"interactive"`

	// Format is one of FormatPlain, FormatHuman or FormatMetrics.
	Format string `yaml:"format"`

	// Separator separates fields in the plaintext format.
	Separator string `yaml:"separator"`

	// Seed is passed to benchmarks through Run.Seed.
	Seed int64 `yaml:"seed"`

	// Verbose enables debug logging to standard error.
	Verbose bool `yaml:"verbose"`

	// ConfigFile names a YAML file holding any of the fields above.
	// Values set by flags take precedence over the file.
	ConfigFile string `yaml:"-"`

	// Registry resolves counter specifications. Nil means DefaultRegistry.
	Registry *Registry `yaml:"-"`

	// Output receives results. Nil means standard output.
	Output io.Writer `yaml:"-"`

	// Reporter overrides the reporter selected by Format.
	Reporter Reporter `yaml:"-"`

	// Logger overrides the logger selected by Verbose.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the default configuration: the time counter,
// a one second budget split over three epochs, and plaintext output.
func DefaultConfig() Config {
	return Config{
		DefaultCounter: "time",
		TimeLimit:      time.Second,
		Epochs:         3,
		MaxIterations:  1 << 31,
		Format:         FormatPlain,
		Separator:      ",",
	}
}

// RegisterFlags registers flags for the command line configurable fields
// of cfg on fs. The current values of cfg become the flag defaults.
func (cfg *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&cfg.Counters, "counters", "c", cfg.Counters, "comma separated counters, such as time,lpe:cycles")
	fs.DurationVarP(&cfg.TimeLimit, "time", "t", cfg.TimeLimit, "time budget per benchmark and counter")
	fs.IntVarP(&cfg.Epochs, "epochs", "e", cfg.Epochs, "number of epochs to take the best of")
	fs.BoolVarP(&cfg.Interactive, "interactive", "i", cfg.Interactive, "human readable output")
	fs.StringVarP(&cfg.Separator, "separator", "d", cfg.Separator, "field separator for plaintext output")
	fs.Int64VarP(&cfg.Seed, "seed", "s", cfg.Seed, "seed passed to benchmarks")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "output format: plain, human or metrics")
	fs.Int64Var(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "maximum iterations per epoch")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log progress to standard error")
}

// Resolve finishes configuration after fs has been parsed: it loads
// ConfigFile, if set, and reapplies the flags set on fs so that they take
// precedence. fs may be nil if cfg was not configured from flags.
func (cfg *Config) Resolve(fs *pflag.FlagSet) error {
	if cfg.ConfigFile == "" {
		return cfg.Validate()
	}
	changed := make(map[string]string)
	if fs != nil {
		fs.Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})
	}
	if err := cfg.LoadFile(cfg.ConfigFile); err != nil {
		return err
	}
	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return errors.Wrapf(err, "perfbench: reapplying flag --%s", name)
		}
	}
	return cfg.Validate()
}

// LoadFile decodes the YAML file at path into cfg. Fields absent from the
// file keep their values.
func (cfg *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "perfbench: opening config file")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrapf(err, "perfbench: decoding %s", path)
	}
	return nil
}

// Validate reports whether cfg can be used to run a suite.
func (cfg *Config) Validate() error {
	switch {
	case cfg.Epochs < 1:
		return errors.Wrapf(ErrInvalidConfig, "epochs must be positive, got %d", cfg.Epochs)
	case cfg.TimeLimit <= 0:
		return errors.Wrapf(ErrInvalidConfig, "time limit must be positive, got %v", cfg.TimeLimit)
	case cfg.MaxIterations < 1 || cfg.MaxIterations > maxIterationsLimit:
		return errors.Wrapf(ErrInvalidConfig, "max iterations out of range: %d", cfg.MaxIterations)
	}
	switch cfg.format() {
	case FormatPlain, FormatHuman, FormatMetrics:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown format %q", cfg.Format)
	}
	return nil
}

// spec returns the effective counter specification.
func (cfg *Config) spec() string {
	if cfg.Counters != "" {
		return cfg.Counters
	}
	return cfg.DefaultCounter
}

// format returns the effective output format.
func (cfg *Config) format() string {
	if cfg.Interactive && (cfg.Format == "" || cfg.Format == FormatPlain) {
		return FormatHuman
	}
	if cfg.Format == "" {
		return FormatPlain
	}
	return cfg.Format
}

func (cfg *Config) registry() *Registry {
	if cfg.Registry != nil {
		return cfg.Registry
	}
	return DefaultRegistry
}

func (cfg *Config) output() io.Writer {
	if cfg.Output != nil {
		return cfg.Output
	}
	return os.Stdout
}

func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	if cfg.Verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (cfg *Config) reporter() Reporter {
	if cfg.Reporter != nil {
		return cfg.Reporter
	}
	switch cfg.format() {
	case FormatHuman:
		return NewHumanReporter(cfg.output())
	case FormatMetrics:
		return NewMetricsReporter(cfg.output())
	default:
		return NewPlainReporter(cfg.output(), cfg.Separator)
	}
}
