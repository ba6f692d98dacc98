// Package terrain fills chunk columns from fractal OpenSimplex height noise.
package terrain

import (
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/MasterKyle08/CodexCraft/internal/config"
	"github.com/MasterKyle08/CodexCraft/internal/world"
)

// snowLine is the height above BaseHeight where surfaces turn to snow.
const snowLine = 40

// dirtDepth is the number of dirt layers under the surface block.
const dirtDepth = 3

// Generator produces deterministic terrain from a seed. The noise source is
// read-only after construction so Generate may run on many goroutines.
type Generator struct {
	cfg   config.NoiseConfig
	noise opensimplex.Noise

	grass, dirt, stone, water, sand, snow world.BlockID
}

// NewGenerator resolves the block palette by name from the registry.
func NewGenerator(cfg config.NoiseConfig, registry *world.Registry) (*Generator, error) {
	g := &Generator{
		cfg:   cfg,
		noise: opensimplex.New(cfg.Seed),
	}
	for name, dst := range map[string]*world.BlockID{
		"grass": &g.grass,
		"dirt":  &g.dirt,
		"stone": &g.stone,
		"water": &g.water,
		"sand":  &g.sand,
		"snow":  &g.snow,
	} {
		id, ok := registry.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("terrain: registry has no %q block", name)
		}
		*dst = id
	}
	return g, nil
}

// HeightAt returns the fractal surface height at world column (x, z).
func (g *Generator) HeightAt(x, z float64) float64 {
	height := float64(g.cfg.BaseHeight)
	freq := g.cfg.Frequency
	weight := 1.0
	for i := 0; i < g.cfg.Octaves; i++ {
		height += g.noise.Eval2(x*freq, z*freq) * g.cfg.Amplitude * weight
		weight *= g.cfg.Gain
		freq *= g.cfg.Lacunarity
	}
	return height
}

// Generate fills the chunk from its coordinate. It only writes blocks; the
// caller owns the state transition that publishes them.
func (g *Generator) Generate(chunk *world.Chunk) {
	origin := chunk.Coord().WorldPosition()
	for z := 0; z < world.ChunkDepth; z++ {
		for x := 0; x < world.ChunkWidth; x++ {
			height := g.HeightAt(float64(origin.X())+float64(x), float64(origin.Z())+float64(z))
			g.fillColumn(chunk, x, z, height)
		}
	}
}

func (g *Generator) fillColumn(chunk *world.Chunk, x, z int, height float64) {
	surface := int(math.Floor(height))
	surface = max(0, min(surface, world.ChunkHeight-1))
	top := max(surface, g.cfg.SeaLevel-1)
	top = min(top, world.ChunkHeight-1)
	for y := 0; y <= top; y++ {
		var id world.BlockID
		switch {
		case y == surface:
			id = g.surfaceBlock(y, height)
		case y < surface && y >= surface-dirtDepth:
			id = g.dirt
		case y < surface:
			id = g.stone
		case y < g.cfg.SeaLevel:
			id = g.water
		}
		if id != world.BlockAir {
			chunk.Set(x, y, z, id)
		}
	}
}

func (g *Generator) surfaceBlock(y int, height float64) world.BlockID {
	switch {
	case y < g.cfg.SeaLevel-2:
		return g.sand
	case height-float64(g.cfg.BaseHeight) > snowLine:
		return g.snow
	default:
		return g.grass
	}
}
