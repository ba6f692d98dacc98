package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns a configuration that runs without any file on disk.
func Default() *Config {
	return &Config{
		Noise: NoiseConfig{
			Seed:       1337,
			Frequency:  0.0025,
			Amplitude:  32,
			Octaves:    4,
			Lacunarity: 2.0,
			Gain:       0.5,
			BaseHeight: 64,
			SeaLevel:   62,
		},
		LOD: LODConfig{
			LOD0: 4,
			LOD1: 8,
		},
		Streaming: StreamingConfig{
			LoadRadius:   10,
			MeshRadius:   9,
			RenderRadius: 8,
		},
		Atlas: AtlasConfig{
			TilesX:            4,
			TilesY:            4,
			Padding:           0.5,
			TextureResolution: 1024,
		},
		App: AppConfig{
			Title:    "CodexCraft",
			Width:    1600,
			Height:   900,
			FOV:      70,
			TickRate: Duration(16 * time.Millisecond),
			FlySpeed: 20,
		},
		Debug: DebugConfig{
			StreamInterval: Duration(time.Second),
		},
		Blocks: DefaultBlocks(),
	}
}

// WriteDefault writes the default configuration to the provided path,
// creating parent directories as needed.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
