package world

import (
	"errors"
	"fmt"

	"github.com/MasterKyle08/CodexCraft/internal/config"
)

// Registry maps block ids to definitions. It is immutable after construction
// and safe for concurrent reads.
type Registry struct {
	defs   []BlockDefinition
	byName map[string]BlockID
}

// NewRegistry builds a registry from definitions in id order. The first
// definition must be air.
func NewRegistry(defs ...BlockDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("registry: no block definitions")
	}
	if defs[0].Name != "air" {
		return nil, fmt.Errorf("registry: id 0 must be air, got %q", defs[0].Name)
	}
	if len(defs) > 1<<16 {
		return nil, fmt.Errorf("registry: %d definitions exceed the id space", len(defs))
	}
	r := &Registry{
		defs:   make([]BlockDefinition, len(defs)),
		byName: make(map[string]BlockID, len(defs)),
	}
	copy(r.defs, defs)
	for i, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("registry: block %d has no name", i)
		}
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate block name %q", def.Name)
		}
		r.byName[def.Name] = BlockID(i)
	}
	return r, nil
}

// DefaultRegistry returns the built-in palette. Ids match the Block* constants.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		BlockDefinition{Name: "air", Flags: FlagTransparent},
		BlockDefinition{Name: "grass", Flags: FlagOpaque, Faces: ColumnFaces(BlockFaceUV{0, 0}, BlockFaceUV{1, 0}, BlockFaceUV{2, 0})},
		BlockDefinition{Name: "dirt", Flags: FlagOpaque, Faces: UniformFaces(BlockFaceUV{2, 0})},
		BlockDefinition{Name: "stone", Flags: FlagOpaque, Faces: UniformFaces(BlockFaceUV{3, 0})},
		BlockDefinition{Name: "water", Flags: FlagTransparent | FlagFluid, Faces: UniformFaces(BlockFaceUV{0, 1})},
		BlockDefinition{Name: "sand", Flags: FlagOpaque, Faces: UniformFaces(BlockFaceUV{1, 1})},
		BlockDefinition{Name: "snow", Flags: FlagOpaque, Faces: UniformFaces(BlockFaceUV{2, 1})},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// RegistryFromConfig builds a registry from the config block list.
func RegistryFromConfig(blocks []config.BlockConfig) (*Registry, error) {
	defs := make([]BlockDefinition, 0, len(blocks))
	for i, b := range blocks {
		var flags BlockFlags
		for _, name := range b.Flags {
			switch name {
			case config.FlagOpaque:
				flags |= FlagOpaque
			case config.FlagTransparent:
				flags |= FlagTransparent
			case config.FlagFluid:
				flags |= FlagFluid
			default:
				return nil, fmt.Errorf("registry: block %d (%s): unknown flag %q", i, b.Name, name)
			}
		}
		base := tileUV(&b.Tile, BlockFaceUV{})
		top := tileUV(b.Top, base)
		side := tileUV(b.Side, base)
		bottom := tileUV(b.Bottom, base)
		defs = append(defs, BlockDefinition{Name: b.Name, Flags: flags, Faces: ColumnFaces(top, side, bottom)})
	}
	return NewRegistry(defs...)
}

func tileUV(tile *config.TileConfig, fallback BlockFaceUV) BlockFaceUV {
	if tile == nil {
		return fallback
	}
	return BlockFaceUV{TileX: tile.X, TileY: tile.Y}
}

// Definition returns the definition for id. Unknown ids resolve to air.
func (r *Registry) Definition(id BlockID) *BlockDefinition {
	if int(id) >= len(r.defs) {
		return &r.defs[BlockAir]
	}
	return &r.defs[id]
}

func (r *Registry) Flags(id BlockID) BlockFlags {
	return r.Definition(id).Flags
}

func (r *Registry) Name(id BlockID) string {
	return r.Definition(id).Name
}

// Lookup resolves a block name to its id.
func (r *Registry) Lookup(name string) (BlockID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

func (r *Registry) Len() int {
	return len(r.defs)
}

// IsOpaque reports whether id occludes neighbours and renders in the opaque
// pass. Air is never opaque.
func (r *Registry) IsOpaque(id BlockID) bool {
	if id == BlockAir {
		return false
	}
	f := r.Flags(id)
	return f.Has(FlagOpaque) && !f.Has(FlagTransparent)
}

// IsTransparent reports see-through non-fluid blocks. Air is excluded.
func (r *Registry) IsTransparent(id BlockID) bool {
	if id == BlockAir {
		return false
	}
	f := r.Flags(id)
	return f.Has(FlagTransparent) && !f.Has(FlagFluid)
}

func (r *Registry) IsFluid(id BlockID) bool {
	if id == BlockAir {
		return false
	}
	return r.Flags(id).Has(FlagFluid)
}
