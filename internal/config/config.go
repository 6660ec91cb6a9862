// Package config loads the driver configuration from TOML or YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// BuildMode is "release" for release builds. Set it with
// -ldflags "-X github.com/blacktop/go-hyperplatform/internal/config.BuildMode=release".
var BuildMode = "debug"

// IsReleaseBuild reports whether this binary was built for release.
func IsReleaseBuild() bool {
	return BuildMode == "release"
}

const (
	DefaultLogFile          = "/var/log/hyperplatform/hyperplatform.log"
	DefaultSystemRangeStart = 0xC0000000
)

// Config is the driver configuration.
type Config struct {
	Log     LogConfig     `toml:"log" yaml:"log"`
	Compat  CompatConfig  `toml:"compat" yaml:"compat"`
	Debug   DebugConfig   `toml:"debug" yaml:"debug"`
	Runtime RuntimeConfig `toml:"runtime" yaml:"runtime"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	VM      VMConfig      `toml:"vm" yaml:"vm"`
}

type LogConfig struct {
	Level string `toml:"level" validate:"oneof=trace debug info warn error" yaml:"level"`
	File  string `toml:"file" validate:"required" yaml:"file"`
	// FunctionName annotates each record with its caller.
	FunctionName bool `toml:"function_name" yaml:"function_name"`
}

type CompatConfig struct {
	SupportedMajors  []uint32 `toml:"supported_majors" validate:"min=1" yaml:"supported_majors"`
	SystemRangeStart uint64   `toml:"system_range_start" yaml:"system_range_start"`
}

type DebugConfig struct {
	BreakOnEntry bool `toml:"break_on_entry" yaml:"break_on_entry"`
}

type RuntimeConfig struct {
	// PoolLimit caps the bytes destructor registrations may use. Zero is
	// unlimited.
	PoolLimit int `toml:"pool_limit" validate:"gte=0" yaml:"pool_limit"`
}

type MetricsConfig struct {
	// Listen is the admin HTTP address. Empty disables the server.
	Listen string `toml:"listen" validate:"omitempty,hostname_port" yaml:"listen"`
}

type VMConfig struct {
	// Backend is "host", which requires hardware virtualization, or "null".
	Backend string `toml:"backend" validate:"oneof=host null" yaml:"backend"`
	// Processors overrides how many processors are virtualized. Zero is all.
	Processors int `toml:"processors" validate:"gte=0" yaml:"processors"`
}

// Default returns the built-in configuration.
func Default() Config {
	level := "debug"
	if IsReleaseBuild() {
		level = "info"
	}
	return Config{
		Log: LogConfig{
			Level: level,
			File:  DefaultLogFile,
		},
		Compat: CompatConfig{
			SupportedMajors:  []uint32{5, 6},
			SystemRangeStart: DefaultSystemRangeStart,
		},
		VM: VMConfig{
			Backend: "host",
		},
	}
}

// Load reads path over the defaults and validates the result. Files ending
// in .yaml or .yml are read as YAML, anything else as TOML. Unknown keys are
// rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		err = decodeTOML(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// LoadOrDefault loads path when it is set and returns Default otherwise.
func LoadOrDefault(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the configuration for values the driver cannot use.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	errs := make([]error, len(verrs))
	for i, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		errs[i] = fmt.Errorf("%s %v fails %s", field, fe.Value(), rule)
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}
