package world

import "strings"

// BlockID indexes the registry. Zero is always air.
type BlockID uint16

const BlockAir BlockID = 0

// Block ids of the default registry, in registration order.
const (
	BlockGrass BlockID = iota + 1
	BlockDirt
	BlockStone
	BlockWater
	BlockSand
	BlockSnow
)

// BlockFace names one side of a block. The order matches the mesher's
// orientation loop: positive then negative direction per axis.
type BlockFace uint8

const (
	FacePosX BlockFace = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
	FaceCount
)

var faceNames = [FaceCount]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (f BlockFace) String() string {
	if f >= FaceCount {
		return "invalid"
	}
	return faceNames[f]
}

// FaceFor returns the face pointing along axis (0=x, 1=y, 2=z) in the given
// direction.
func FaceFor(axis int, positive bool) BlockFace {
	f := BlockFace(axis * 2)
	if !positive {
		f++
	}
	return f
}

// BlockFlags is a bit set of rendering classes. Flags combine freely; water
// is Transparent|Fluid.
type BlockFlags uint8

const (
	FlagOpaque BlockFlags = 1 << iota
	FlagTransparent
	FlagFluid
)

func (f BlockFlags) Has(flag BlockFlags) bool {
	return f&flag == flag
}

func (f BlockFlags) String() string {
	var parts []string
	if f.Has(FlagOpaque) {
		parts = append(parts, "opaque")
	}
	if f.Has(FlagTransparent) {
		parts = append(parts, "transparent")
	}
	if f.Has(FlagFluid) {
		parts = append(parts, "fluid")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// BlockFaceUV is the atlas tile used by one face.
type BlockFaceUV struct {
	TileX int
	TileY int
}

// BlockDefinition describes one block type.
type BlockDefinition struct {
	Name  string
	Flags BlockFlags
	Faces [FaceCount]BlockFaceUV
}

// UniformFaces returns a face table with the same tile on every side.
func UniformFaces(tile BlockFaceUV) [FaceCount]BlockFaceUV {
	var faces [FaceCount]BlockFaceUV
	for i := range faces {
		faces[i] = tile
	}
	return faces
}

// ColumnFaces returns a face table with distinct top and bottom tiles and a
// shared side tile.
func ColumnFaces(top, side, bottom BlockFaceUV) [FaceCount]BlockFaceUV {
	faces := UniformFaces(side)
	faces[FacePosY] = top
	faces[FaceNegY] = bottom
	return faces
}
