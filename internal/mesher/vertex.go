package mesher

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FullLight is the light value written to every vertex. Light propagation is
// not modelled.
const FullLight uint8 = 255

// Vertex is the interleaved GPU vertex layout.
type Vertex struct {
	Position mgl32.Vec3
	Normal   uint32 // 10:10:10 packed, see PackNormal
	UV       mgl32.Vec2
	Light    uint8
}

// PackNormal maps each component from [-1, 1] to a 10-bit unsigned value and
// packs x, y, z into bits 0-9, 10-19 and 20-29.
func PackNormal(n mgl32.Vec3) uint32 {
	return packComponent(n.X()) | packComponent(n.Y())<<10 | packComponent(n.Z())<<20
}

// UnpackNormal reverses PackNormal up to quantization error.
func UnpackNormal(p uint32) mgl32.Vec3 {
	unpack := func(v uint32) float32 {
		return float32(v&0x3ff)/1023*2 - 1
	}
	return mgl32.Vec3{unpack(p), unpack(p >> 10), unpack(p >> 20)}
}

func packComponent(v float32) uint32 {
	scaled := (v*0.5 + 0.5) * 1023
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 1023 {
		scaled = 1023
	}
	return uint32(scaled)
}

// Buffers holds triangle-list geometry: four vertices and six indices per
// quad.
type Buffers struct {
	Vertices []Vertex
	Indices  []uint32
}

func (b Buffers) Empty() bool {
	return len(b.Vertices) == 0 || len(b.Indices) == 0
}

func (b Buffers) QuadCount() int {
	return len(b.Indices) / 6
}

// LevelBuffers pairs the opaque and translucent geometry of one detail level.
type LevelBuffers struct {
	Opaque      Buffers
	Translucent Buffers
}
