// Package config loads intcode run settings from YAML.
package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ezrec/intcode/cpu"
	"github.com/ezrec/intcode/translate"
)

var f = translate.From

var (
	ErrConfigCapacity  = errors.New(f("capacity must be positive"))
	ErrConfigQuota     = errors.New(f("quota must be positive, or -1 for none"))
	ErrConfigTickLimit = errors.New(f("tick_limit must not be negative"))
	ErrConfigNetwork   = errors.New(f("network must not be negative"))
	ErrConfigSource    = errors.New(f("only one of program and assembly may be set"))
	ErrConfigMode      = errors.New(f("only one of network and phases may be set"))
)

// Config is one run of the intcode tool.
type Config struct {
	Program   string  `yaml:"program"`    // Program text file.
	Assembly  string  `yaml:"assembly"`   // Assembler source file.
	Capacity  int64   `yaml:"capacity"`   // Memory capacity in cells.
	TickLimit int     `yaml:"tick_limit"` // Instruction budget, zero for unlimited.
	Quota     int     `yaml:"quota"`      // Outputs per run, or -1.
	Ascii     bool    `yaml:"ascii"`      // ASCII tape mode.
	Inputs    []int64 `yaml:"inputs"`     // Values given before the input tape.
	Script    string  `yaml:"script"`     // Starlark driver script.
	Verbose   bool    `yaml:"verbose"`

	Network  int     `yaml:"network"`  // Network size, zero for a single machine.
	Phases   []int64 `yaml:"phases"`   // Amplifier chain phase settings.
	Feedback bool    `yaml:"feedback"` // Chain feeds back into the first stage.

	Path string `yaml:"-"` // File the config was loaded from.
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Capacity: cpu.MEMORY_CAPACITY,
		Quota:    cpu.QUOTA_NONE,
	}
}

// Validate checks the settings for consistency.
func (cfg *Config) Validate() (err error) {
	var errs []error

	if cfg.Capacity <= 0 {
		errs = append(errs, ErrConfigCapacity)
	}
	if cfg.Quota == 0 || cfg.Quota < cpu.QUOTA_NONE {
		errs = append(errs, ErrConfigQuota)
	}
	if cfg.TickLimit < 0 {
		errs = append(errs, ErrConfigTickLimit)
	}
	if cfg.Network < 0 {
		errs = append(errs, ErrConfigNetwork)
	}
	if len(cfg.Program) > 0 && len(cfg.Assembly) > 0 {
		errs = append(errs, ErrConfigSource)
	}
	if cfg.Network > 0 && len(cfg.Phases) > 0 {
		errs = append(errs, ErrConfigMode)
	}

	err = errors.Join(errs...)

	return
}

// Decode reads YAML settings over the defaults. Unknown fields are errors.
func Decode(r io.Reader) (cfg *Config, err error) {
	cfg = Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err = decoder.Decode(cfg)
	if errors.Is(err, io.EOF) {
		// Empty document.
		err = nil
	}
	if err != nil {
		cfg = nil
		return
	}

	err = cfg.Validate()
	if err != nil {
		cfg = nil
		return
	}

	return
}

// Load reads a config file. Relative file names in it are taken from the
// config file's directory.
func Load(path string) (cfg *Config, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	file, err := os.Open(abs)
	if err != nil {
		return
	}
	defer file.Close()

	cfg, err = Decode(file)
	if err != nil {
		err = errors.Join(errors.New(f("config %v", abs)), err)
		return
	}

	cfg.Path = abs
	dir := filepath.Dir(abs)
	for _, name := range []*string{&cfg.Program, &cfg.Assembly, &cfg.Script} {
		if len(*name) > 0 && !filepath.IsAbs(*name) && *name != "-" {
			*name = filepath.Join(dir, *name)
		}
	}

	return
}
