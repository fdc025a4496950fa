// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads engine settings from TOML or YAML files.
//
// Keys not present in a file keep their [Default] values; unknown keys are
// rejected. The format is chosen by the file extension.
//
// Example config.toml:
//
//	backend = "vulkan"
//
//	[window]
//	width = 1280
//	height = 720
//
//	[swapchain]
//	image_count = 3
//	present_mode = "mailbox"
//
//	[frame]
//	chain = "previous-submission"
//	wait_timeout = "50ms"
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config errors.
var (
	// ErrUnknownFormat is returned for files that are neither TOML nor YAML.
	ErrUnknownFormat = errors.New("config: unknown file format")

	// ErrInvalid is wrapped by every validation error.
	ErrInvalid = errors.New("config: invalid value")
)

// Format is a configuration file encoding.
type Format uint8

const (
	TOML Format = iota + 1
	YAML
)

func (f Format) String() string {
	switch f {
	case TOML:
		return "toml"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// FormatOf returns the format for a file name by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Config holds every setting of a g3d run.
type Config struct {
	// Backend names the device backend: sim, noop, vulkan, metal, dx12,
	// gl or auto.
	Backend string `toml:"backend" yaml:"backend"`

	Window    Window    `toml:"window" yaml:"window"`
	Swapchain Swapchain `toml:"swapchain" yaml:"swapchain"`
	Frame     Frame     `toml:"frame" yaml:"frame"`
	Scene     Scene     `toml:"scene" yaml:"scene"`
	Shader    Shader    `toml:"shader" yaml:"shader"`

	// shaderSource is the content of Shader.Path when it is not watched.
	shaderSource string
}

// Window describes the scripted window of a headless run.
type Window struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	// Frames is the number of redraws before the window closes.
	Frames int `toml:"frames" yaml:"frames"`

	// ResizeEvery resizes the window after every n redraws; zero never
	// resizes. Sizes alternate between the base size and the base size
	// grown by ResizeStep pixels.
	ResizeEvery int `toml:"resize_every" yaml:"resize_every"`
	ResizeStep  int `toml:"resize_step" yaml:"resize_step"`
}

// Swapchain holds the presentation settings.
type Swapchain struct {
	// ImageCount requests a chain length; zero uses the surface minimum
	// plus one.
	ImageCount  uint32 `toml:"image_count" yaml:"image_count"`
	PresentMode string `toml:"present_mode" yaml:"present_mode"`
	Depth       bool   `toml:"depth" yaml:"depth"`
	DepthFormat string `toml:"depth_format" yaml:"depth_format"`
}

// Frame holds the frame scheduler settings.
type Frame struct {
	Chain          string    `toml:"chain" yaml:"chain"`
	Uniforms       string    `toml:"uniforms" yaml:"uniforms"`
	ClearColor     []float64 `toml:"clear_color" yaml:"clear_color"`
	WaitTimeout    Duration  `toml:"wait_timeout" yaml:"wait_timeout"`
	StallThreshold Duration  `toml:"stall_threshold" yaml:"stall_threshold"`
	AcquireTimeout Duration  `toml:"acquire_timeout" yaml:"acquire_timeout"`
}

// Scene holds the animation settings.
type Scene struct {
	// RotationStep is added to the model rotation about x, y and z on
	// every redraw, in radians.
	RotationStep []float32 `toml:"rotation_step" yaml:"rotation_step"`
}

// Shader selects the WGSL shader. An empty Path uses the built-in one.
type Shader struct {
	// Path is resolved against the directory of the config file.
	Path  string `toml:"path" yaml:"path"`
	Watch bool   `toml:"watch" yaml:"watch"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: "auto",
		Window: Window{
			Width:      800,
			Height:     600,
			Frames:     300,
			ResizeStep: 64,
		},
		Swapchain: Swapchain{
			PresentMode: "fifo",
			Depth:       true,
			DepthFormat: "depth16unorm",
		},
		Frame: Frame{
			Chain:          "own-slot",
			Uniforms:       "per-frame",
			ClearColor:     []float64{0, 0, 1, 1},
			WaitTimeout:    Duration(100 * time.Millisecond),
			StallThreshold: Duration(time.Second),
			AcquireTimeout: Duration(time.Second),
		},
		Scene: Scene{
			RotationStep: []float32{-0.1, 0, 0},
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	c := Default()
	if err := c.Decode(bufio.NewReader(f), format); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if c.Shader.Path != "" && !filepath.IsAbs(c.Shader.Path) {
		c.Shader.Path = filepath.Join(filepath.Dir(path), c.Shader.Path)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if c.Shader.Path != "" && !c.Shader.Watch {
		src, err := os.ReadFile(c.Shader.Path)
		if err != nil {
			return nil, fmt.Errorf("config: shader: %w", err)
		}
		c.shaderSource = string(src)
	}
	return c, nil
}

// Decode decodes r over c. Keys missing from r keep their current values.
func (c *Config) Decode(r io.Reader, format Format) error {
	switch format {
	case TOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		return dec.Decode(c)
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// Encode writes c to w.
func (c *Config) Encode(w io.Writer, format Format) error {
	switch format {
	case TOML:
		return toml.NewEncoder(w).Encode(c)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string", node.Line)
	}
	if err := d.UnmarshalText([]byte(node.Value)); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}
