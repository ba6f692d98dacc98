package world

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// LODCount is the number of mesh detail levels tracked per chunk.
const LODCount = 3

// ChunkState is the lifecycle stage of a stored chunk.
type ChunkState int32

const (
	StateUnloaded ChunkState = iota
	StateGenerating
	StateMeshPending
	StateUploaded
)

func (s ChunkState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateGenerating:
		return "generating"
	case StateMeshPending:
		return "mesh-pending"
	case StateUploaded:
		return "uploaded"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Chunk is a 16×256×16 column of blocks split into vertical sections.
//
// Block data has a single writer: the generation job fills it while the state
// is StateGenerating and publishes it by storing StateMeshPending. Readers
// load the state first, so the atomic pair orders their reads after the
// writes. State and dirty flags may be touched from any goroutine.
type Chunk struct {
	coord    ChunkCoord
	sections [SectionsCount]*Section
	state    atomic.Int32
	dirty    [LODCount]atomic.Bool
	revision atomic.Uint64
}

// NewChunk returns an all-air chunk in StateGenerating with every LOD dirty.
func NewChunk(coord ChunkCoord) *Chunk {
	c := &Chunk{coord: coord}
	for i := range c.sections {
		c.sections[i] = NewSection()
	}
	c.state.Store(int32(StateGenerating))
	c.MarkAllDirty()
	return c
}

func (c *Chunk) Coord() ChunkCoord {
	return c.coord
}

// Get returns the block at local coordinates. Out-of-range y reads air.
func (c *Chunk) Get(x, y, z int) BlockID {
	if y < 0 || y >= ChunkHeight || x < 0 || x >= ChunkWidth || z < 0 || z >= ChunkDepth {
		return BlockAir
	}
	return c.sections[y/SectionSize].Get(x, y%SectionSize, z)
}

// Set writes a block and marks every LOD dirty. Out-of-range writes are
// ignored.
func (c *Chunk) Set(x, y, z int, id BlockID) {
	if y < 0 || y >= ChunkHeight || x < 0 || x >= ChunkWidth || z < 0 || z >= ChunkDepth {
		return
	}
	c.sections[y/SectionSize].Set(x, y%SectionSize, z, id)
	c.MarkAllDirty()
}

// Section returns the section at index i (0 is the bottom).
func (c *Chunk) Section(i int) *Section {
	if i < 0 || i >= SectionsCount {
		return nil
	}
	return c.sections[i]
}

// Empty reports whether every section is empty.
func (c *Chunk) Empty() bool {
	for _, s := range c.sections {
		if !s.Empty() {
			return false
		}
	}
	return true
}

func (c *Chunk) State() ChunkState {
	return ChunkState(c.state.Load())
}

func (c *Chunk) SetState(s ChunkState) {
	c.state.Store(int32(s))
}

func (c *Chunk) CompareAndSwapState(from, to ChunkState) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// NeedsRemesh reports the dirty flag for lod. Out-of-range levels are never
// dirty.
func (c *Chunk) NeedsRemesh(lod int) bool {
	if lod < 0 || lod >= LODCount {
		return false
	}
	return c.dirty[lod].Load()
}

func (c *Chunk) MarkDirty(lod int) {
	if lod < 0 || lod >= LODCount {
		return
	}
	c.revision.Add(1)
	c.dirty[lod].Store(true)
}

func (c *Chunk) MarkAllDirty() {
	c.revision.Add(1)
	for i := range c.dirty {
		c.dirty[i].Store(true)
	}
}

func (c *Chunk) ClearDirty(lod int) {
	if lod < 0 || lod >= LODCount {
		return
	}
	c.dirty[lod].Store(false)
}

func (c *Chunk) AnyDirty() bool {
	for i := range c.dirty {
		if c.dirty[i].Load() {
			return true
		}
	}
	return false
}

// Revision increases every time a dirty flag is raised. A consumer that
// snapshots it before meshing can tell whether the chunk was dirtied again
// while the mesh was being built.
func (c *Chunk) Revision() uint64 {
	return c.revision.Load()
}

// Bounds returns the column's world-space AABB.
func (c *Chunk) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	lo := c.coord.WorldPosition()
	return lo, lo.Add(mgl32.Vec3{ChunkWidth, ChunkHeight, ChunkDepth})
}
