package config

import (
	"errors"
	"fmt"
	"strings"
)

// Block flag names accepted in BlockConfig.Flags.
const (
	FlagOpaque      = "opaque"
	FlagTransparent = "transparent"
	FlagFluid       = "fluid"
)

// TileConfig addresses one cell of the texture atlas.
type TileConfig struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// BlockConfig describes one block type. The list order assigns block ids, so
// the first entry must be air. Top, Bottom and Side override Tile for the
// matching faces.
type BlockConfig struct {
	Name   string      `yaml:"name" json:"name"`
	Flags  []string    `yaml:"flags,omitempty" json:"flags,omitempty"`
	Tile   TileConfig  `yaml:"tile" json:"tile"`
	Top    *TileConfig `yaml:"top,omitempty" json:"top,omitempty"`
	Bottom *TileConfig `yaml:"bottom,omitempty" json:"bottom,omitempty"`
	Side   *TileConfig `yaml:"side,omitempty" json:"side,omitempty"`
}

// DefaultBlocks returns the block palette used by the terrain generator.
func DefaultBlocks() []BlockConfig {
	return []BlockConfig{
		{Name: "air", Flags: []string{FlagTransparent}},
		{
			Name:   "grass",
			Flags:  []string{FlagOpaque},
			Tile:   TileConfig{X: 1, Y: 0},
			Top:    &TileConfig{X: 0, Y: 0},
			Bottom: &TileConfig{X: 2, Y: 0},
		},
		{Name: "dirt", Flags: []string{FlagOpaque}, Tile: TileConfig{X: 2, Y: 0}},
		{Name: "stone", Flags: []string{FlagOpaque}, Tile: TileConfig{X: 3, Y: 0}},
		{Name: "water", Flags: []string{FlagTransparent, FlagFluid}, Tile: TileConfig{X: 0, Y: 1}},
		{Name: "sand", Flags: []string{FlagOpaque}, Tile: TileConfig{X: 1, Y: 1}},
		{Name: "snow", Flags: []string{FlagOpaque}, Tile: TileConfig{X: 2, Y: 1}},
	}
}

func validateBlocks(blocks []BlockConfig) error {
	if len(blocks) == 0 {
		return errors.New("blocks cannot be empty")
	}
	if blocks[0].Name != "air" {
		return fmt.Errorf("blocks[0] must be air, got %q", blocks[0].Name)
	}
	if len(blocks) > 1<<16 {
		return fmt.Errorf("blocks: %d definitions exceed the id space", len(blocks))
	}
	seen := make(map[string]struct{}, len(blocks))
	for i, b := range blocks {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return fmt.Errorf("blocks[%d].name must be set", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("blocks[%d]: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
		for _, f := range b.Flags {
			switch f {
			case FlagOpaque, FlagTransparent, FlagFluid:
			default:
				return fmt.Errorf("blocks[%d]: unknown flag %q", i, f)
			}
		}
	}
	return nil
}
