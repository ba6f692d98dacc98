package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so configuration files can use human readable
// strings such as "250ms" in both YAML and JSON documents.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML encodes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar at line %d", node.Line)
	}
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode int: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures every tunable of the streaming runtime.
type Config struct {
	Noise     NoiseConfig     `yaml:"noise" json:"noise"`
	LOD       LODConfig       `yaml:"lod" json:"lod"`
	Streaming StreamingConfig `yaml:"streaming" json:"streaming"`
	Atlas     AtlasConfig     `yaml:"atlas" json:"atlas"`
	Jobs      JobsConfig      `yaml:"jobs" json:"jobs"`
	App       AppConfig       `yaml:"app" json:"app"`
	Debug     DebugConfig     `yaml:"debug" json:"debug"`
	Blocks    []BlockConfig   `yaml:"blocks" json:"blocks"`
}

type NoiseConfig struct {
	Seed       int64   `yaml:"seed" json:"seed"`
	Frequency  float64 `yaml:"frequency" json:"frequency"`
	Amplitude  float64 `yaml:"amplitude" json:"amplitude"`
	Octaves    int     `yaml:"octaves" json:"octaves"`
	Lacunarity float64 `yaml:"lacunarity" json:"lacunarity"`
	Gain       float64 `yaml:"gain" json:"gain"`
	BaseHeight int     `yaml:"base_height" json:"baseHeight"`
	SeaLevel   int     `yaml:"sea_level" json:"seaLevel"`
}

// LODConfig holds Chebyshev chunk distances: up to LOD0 renders full detail,
// up to LOD1 half detail, quarter detail beyond.
type LODConfig struct {
	LOD0 int `yaml:"lod0" json:"lod0"`
	LOD1 int `yaml:"lod1" json:"lod1"`
}

type StreamingConfig struct {
	LoadRadius   int `yaml:"load_radius" json:"loadRadius"`
	MeshRadius   int `yaml:"mesh_radius" json:"meshRadius"`
	RenderRadius int `yaml:"render_radius" json:"renderRadius"`
}

type AtlasConfig struct {
	TilesX            int     `yaml:"tiles_x" json:"tilesX"`
	TilesY            int     `yaml:"tiles_y" json:"tilesY"`
	Padding           float64 `yaml:"padding" json:"padding"`
	TextureResolution int     `yaml:"texture_resolution" json:"textureResolution"`
}

// JobsConfig sizes the two worker pools. Zero means runtime.NumCPU.
type JobsConfig struct {
	GenerationWorkers int `yaml:"generation_workers" json:"generationWorkers"`
	MeshingWorkers    int `yaml:"meshing_workers" json:"meshingWorkers"`
}

type AppConfig struct {
	Title    string   `yaml:"title" json:"title"`
	Width    int      `yaml:"width" json:"width"`
	Height   int      `yaml:"height" json:"height"`
	FOV      float64  `yaml:"fov" json:"fov"` // degrees
	TickRate Duration `yaml:"tick_rate" json:"tickRate"`
	FlySpeed float64  `yaml:"fly_speed" json:"flySpeed"` // blocks per second
}

type DebugConfig struct {
	Addr           string   `yaml:"addr" json:"addr"` // empty disables the server
	StreamInterval Duration `yaml:"stream_interval" json:"streamInterval"`
}

// Load reads configuration from a YAML file, or a JSON file when the path ends
// in ".json". An empty path returns defaults. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) Validate() error {
	if c.LOD.LOD0 <= 0 || c.LOD.LOD1 <= 0 {
		return errors.New("lod thresholds must be positive")
	}
	if c.LOD.LOD0 > c.LOD.LOD1 {
		return errors.New("lod.lod0 must be <= lod.lod1")
	}
	if c.Streaming.LoadRadius <= 0 || c.Streaming.MeshRadius <= 0 || c.Streaming.RenderRadius <= 0 {
		return errors.New("streaming radii must be positive")
	}
	if c.Streaming.MeshRadius > c.Streaming.LoadRadius {
		return errors.New("streaming.meshRadius must be <= loadRadius")
	}
	if c.Streaming.RenderRadius > c.Streaming.MeshRadius {
		return errors.New("streaming.renderRadius must be <= meshRadius")
	}
	if c.Atlas.TilesX <= 0 || c.Atlas.TilesY <= 0 {
		return errors.New("atlas tiles must be positive")
	}
	if c.Atlas.TextureResolution <= 0 {
		return errors.New("atlas.textureResolution must be positive")
	}
	if c.Atlas.Padding < 0 {
		return errors.New("atlas.padding cannot be negative")
	}
	if c.Jobs.GenerationWorkers < 0 || c.Jobs.MeshingWorkers < 0 {
		return errors.New("jobs worker counts cannot be negative")
	}
	if c.Noise.Octaves <= 0 {
		return errors.New("noise.octaves must be positive")
	}
	if c.Noise.SeaLevel < 0 || c.Noise.SeaLevel > 255 {
		return errors.New("noise.seaLevel must be within 0..255")
	}
	if c.App.Width <= 0 || c.App.Height <= 0 {
		return errors.New("app dimensions must be positive")
	}
	if c.Debug.StreamInterval < 0 {
		return errors.New("debug.streamInterval cannot be negative")
	}
	return validateBlocks(c.Blocks)
}

// Warnings reports settings that are legal but probably unintended.
func (c *Config) Warnings() []string {
	var out []string
	if c.Streaming.RenderRadius < c.LOD.LOD1 {
		out = append(out, fmt.Sprintf("streaming.renderRadius %d is below lod.lod1 %d; the coarsest level is never drawn", c.Streaming.RenderRadius, c.LOD.LOD1))
	}
	if c.Atlas.TilesX > 0 && c.Atlas.TilesY > 0 &&
		(c.Atlas.TextureResolution%c.Atlas.TilesX != 0 || c.Atlas.TextureResolution%c.Atlas.TilesY != 0) {
		out = append(out, fmt.Sprintf("atlas.textureResolution %d is not divisible by the %dx%d tile grid", c.Atlas.TextureResolution, c.Atlas.TilesX, c.Atlas.TilesY))
	}
	return out
}
