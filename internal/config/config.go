// Package config reads the cropper settings file.
//
// A settings file is YAML:
//
//	aspect_ratio: 1.5            # or {minimum: 1, maximum: 2}
//	min_width: 100               # pixels, or "25%" of the rotated image
//	max_height: "80%"
//	image_restriction: fit_area  # none | stencil | fit_area | fill_area
//	stencil_size: {width: 300, height: 200}
//	priority: coordinates        # coordinates | visible_area
//	auto_zoom: none              # none | simplest | stencil | static
//	adjust_stencil: false
//	default_size_fraction: 0.8
//	logging:
//	  level: info
//	  file: cropkit.log
//
// Environment variables override the logging section.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"cropkit/cropper"
	"cropkit/geometry"
)

const (
	EnvLogLevel = "CROPKIT_LOG_LEVEL"
	EnvLogFile  = "CROPKIT_LOG_FILE"
)

// Length is a size in pixels, or in percents of the rotated image when
// Percent is set.
type Length struct {
	Value   float64
	Percent bool
}

func (l *Length) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: length must be a number or a percentage", node.Line)
	}
	text := strings.TrimSpace(node.Value)
	percent := strings.HasSuffix(text, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(text, "%")), 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid length %q", node.Line, node.Value)
	}
	if v < 0 {
		return fmt.Errorf("line %d: negative length %q", node.Line, node.Value)
	}
	*l = Length{Value: v, Percent: percent}
	return nil
}

func (l Length) MarshalYAML() (interface{}, error) {
	if l.Percent {
		return strconv.FormatFloat(l.Value, 'f', -1, 64) + "%", nil
	}
	return l.Value, nil
}

// of resolves l against the image dimension it refers to.
func (l *Length) of(dimension, fallback float64) float64 {
	switch {
	case l == nil:
		return fallback
	case l.Percent:
		return l.Value / 100 * dimension
	default:
		return l.Value
	}
}

// AspectRatio accepts either a single number or a {minimum, maximum} map.
type AspectRatio struct {
	Minimum float64 `yaml:"minimum,omitempty"`
	Maximum float64 `yaml:"maximum,omitempty"`
}

func (a *AspectRatio) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var r float64
		if err := node.Decode(&r); err != nil {
			return fmt.Errorf("line %d: invalid aspect ratio %q", node.Line, node.Value)
		}
		*a = AspectRatio{Minimum: r, Maximum: r}
		return nil
	}
	type plain AspectRatio
	return node.Decode((*plain)(a))
}

type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// AutoZoom selects the postprocess step of a cropper.
type AutoZoom string

const (
	AutoZoomNone     AutoZoom = "none"
	AutoZoomSimplest AutoZoom = "simplest"
	AutoZoomStencil  AutoZoom = "stencil"
	AutoZoomStatic   AutoZoom = "static"
)

func (z *AutoZoom) UnmarshalText(text []byte) error {
	switch v := AutoZoom(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case "":
		*z = AutoZoomNone
	case AutoZoomNone, AutoZoomSimplest, AutoZoomStencil, AutoZoomStatic:
		*z = v
	default:
		return fmt.Errorf("unknown auto zoom %q", text)
	}
	return nil
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File enables a rotating JSON log next to the console output.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type Config struct {
	AspectRatio *AspectRatio `yaml:"aspect_ratio"`
	MinWidth    *Length      `yaml:"min_width"`
	MinHeight   *Length      `yaml:"min_height"`
	MaxWidth    *Length      `yaml:"max_width"`
	MaxHeight   *Length      `yaml:"max_height"`

	ImageRestriction    cropper.ImageRestriction `yaml:"image_restriction"`
	StencilSize         *Size                    `yaml:"stencil_size"`
	Priority            cropper.Priority         `yaml:"priority"`
	AutoZoom            AutoZoom                 `yaml:"auto_zoom"`
	AdjustStencil       bool                     `yaml:"adjust_stencil"`
	DefaultSizeFraction float64                  `yaml:"default_size_fraction"`

	Logging LoggingConfig `yaml:"logging"`
}

// Defaults returns the configuration used without a settings file.
func Defaults() Config {
	return Config{
		ImageRestriction: cropper.FitArea,
		Priority:         cropper.PriorityCoordinates,
		AutoZoom:         AutoZoomNone,
		Logging:          LoggingConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// Parse decodes a settings file on top of the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse settings: %w", err)
	}
	if cfg.DefaultSizeFraction < 0 || cfg.DefaultSizeFraction > 1 {
		return cfg, fmt.Errorf("default_size_fraction must be within (0, 1], got %g", cfg.DefaultSizeFraction)
	}
	return cfg, nil
}

// Load reads the settings file at path, or returns the defaults when path
// is empty. Environment overrides are applied either way.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read settings: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// Settings converts the file into cropper settings. Percent lengths are
// resolved against the image of the state they are applied to.
func (c Config) Settings() cropper.Settings {
	s := cropper.Settings{
		ImageRestriction:    c.ImageRestriction,
		AdjustStencil:       c.AdjustStencil,
		DefaultSizeFraction: c.DefaultSizeFraction,
	}
	if c.AspectRatio != nil {
		s.AspectRatio = cropper.Static(geometry.AspectRatio{Minimum: c.AspectRatio.Minimum, Maximum: c.AspectRatio.Maximum})
	}
	if c.StencilSize != nil {
		s.StencilSize = cropper.Static(geometry.Size{Width: c.StencilSize.Width, Height: c.StencilSize.Height})
	}
	if c.MinWidth != nil || c.MinHeight != nil || c.MaxWidth != nil || c.MaxHeight != nil {
		s.SizeRestrictions = c.sizeRestrictions()
	}
	return s
}

func (c Config) sizeRestrictions() cropper.Setting[geometry.SizeRestrictions] {
	resolve := func(image geometry.Size) geometry.SizeRestrictions {
		return geometry.SizeRestrictions{
			MinWidth:  c.MinWidth.of(image.Width, 0),
			MinHeight: c.MinHeight.of(image.Height, 0),
			MaxWidth:  c.MaxWidth.of(image.Width, math.Inf(1)),
			MaxHeight: c.MaxHeight.of(image.Height, math.Inf(1)),
		}
	}
	for _, l := range []*Length{c.MinWidth, c.MinHeight, c.MaxWidth, c.MaxHeight} {
		if l != nil && l.Percent {
			return cropper.Computed(func(s cropper.State, _ cropper.Settings) geometry.SizeRestrictions {
				return resolve(cropper.TransformedImageSize(s))
			})
		}
	}
	return cropper.PixelsRestriction(resolve(geometry.Size{}))
}

// Postprocess returns the steps selected by auto_zoom.
func (c Config) Postprocess() cropper.Pipeline {
	switch c.AutoZoom {
	case AutoZoomSimplest:
		return cropper.Pipeline{cropper.SimplestAutoZoom{}}
	case AutoZoomStencil:
		return cropper.Pipeline{cropper.StencilAutoZoom{Fraction: c.DefaultSizeFraction}}
	case AutoZoomStatic:
		return cropper.Pipeline{cropper.StaticAutoZoom{}}
	}
	return nil
}

// Options returns the cropper.Instance options the file selects.
func (c Config) Options() []cropper.Option {
	opts := []cropper.Option{cropper.WithPriority(c.Priority)}
	if steps := c.Postprocess(); len(steps) > 0 {
		opts = append(opts, cropper.WithPostprocess(steps...))
	}
	return opts
}
