package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Chunk column dimensions in blocks.
const (
	ChunkWidth    = 16
	ChunkHeight   = 256
	ChunkDepth    = 16
	SectionSize   = 16
	SectionsCount = ChunkHeight / SectionSize
)

// ChunkCoord identifies a chunk column in chunk space. It is comparable and
// used directly as a map key.
type ChunkCoord struct {
	X int
	Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Offset returns the coordinate shifted by dx, dz chunks.
func (c ChunkCoord) Offset(dx, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Z: c.Z + dz}
}

// WorldPosition returns the block-space position of the chunk's minimum corner.
func (c ChunkCoord) WorldPosition() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X * ChunkWidth), 0, float32(c.Z * ChunkDepth)}
}

// ChebyshevDistance is max(|dx|, |dz|), the ring index around other.
func (c ChunkCoord) ChebyshevDistance(other ChunkCoord) int {
	return max(abs(c.X-other.X), abs(c.Z-other.Z))
}

// ManhattanDistance is |dx| + |dz|.
func (c ChunkCoord) ManhattanDistance(other ChunkCoord) int {
	return abs(c.X-other.X) + abs(c.Z-other.Z)
}

// FromWorld returns the chunk containing the world position. Negative
// positions floor toward negative chunks.
func FromWorld(pos mgl32.Vec3) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(float64(pos.X()) / ChunkWidth)),
		Z: int(math.Floor(float64(pos.Z()) / ChunkDepth)),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
