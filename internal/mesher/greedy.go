// Package mesher converts chunk block data into merged quad geometry.
package mesher

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/MasterKyle08/CodexCraft/internal/world"
)

// uAxis and vAxis give the two in-plane axes swept for faces perpendicular to
// each axis: x faces sweep (z, y), y faces (x, z), z faces (x, y).
var (
	uAxis = [3]int{2, 0, 0}
	vAxis = [3]int{1, 2, 1}
)

// Neighbors are the four horizontally adjacent chunks. A nil neighbour reads
// as air. The mesher only reads them.
type Neighbors struct {
	PosX *world.Chunk
	NegX *world.Chunk
	PosZ *world.Chunk
	NegZ *world.Chunk
}

// Mesher builds greedy meshes. It holds only immutable state and is safe for
// concurrent use.
type Mesher struct {
	registry *world.Registry
	atlas    world.Atlas
}

func New(registry *world.Registry, atlas world.Atlas) *Mesher {
	return &Mesher{registry: registry, atlas: atlas}
}

// Build meshes one pass of one detail level. Level lod samples every
// (1<<lod)-th block along each axis and scales the output back to block
// units. The result depends only on the chunk, its neighbours and the
// arguments.
func (m *Mesher) Build(chunk *world.Chunk, nb Neighbors, lod int, opaquePass bool) Buffers {
	var out Buffers
	if chunk == nil || lod < 0 || lod >= world.LODCount || chunk.Empty() {
		return out
	}
	s := newSampler(chunk, nb, lod)
	m.sweep(s, opaquePass, func(q quad) {
		m.emit(&out, q, s.step)
	})
	return out
}

// BuildAll meshes both passes of every detail level.
func (m *Mesher) BuildAll(chunk *world.Chunk, nb Neighbors) [world.LODCount]LevelBuffers {
	var out [world.LODCount]LevelBuffers
	for lod := range out {
		out[lod] = LevelBuffers{
			Opaque:      m.Build(chunk, nb, lod, true),
			Translucent: m.Build(chunk, nb, lod, false),
		}
	}
	return out
}

// NaiveFaceCount counts the visible unit faces at the given level without
// merging. A greedy mesh never has more quads than this.
func (m *Mesher) NaiveFaceCount(chunk *world.Chunk, nb Neighbors, lod int, opaquePass bool) int {
	if chunk == nil || lod < 0 || lod >= world.LODCount {
		return 0
	}
	s := newSampler(chunk, nb, lod)
	count := 0
	for axis := 0; axis < 3; axis++ {
		w, h := s.dims[uAxis[axis]], s.dims[vAxis[axis]]
		mask := make([]world.BlockID, w*h)
		for _, positive := range [2]bool{true, false} {
			for slice := 0; slice <= s.dims[axis]; slice++ {
				m.fillMask(s, mask, axis, slice, positive, opaquePass)
				for _, id := range mask {
					if id != world.BlockAir {
						count++
					}
				}
			}
		}
	}
	return count
}

// quad is a merged rectangle in sample units.
type quad struct {
	id       world.BlockID
	axis     int
	positive bool
	slice    int
	i, j     int
	w, h     int
}

func (m *Mesher) sweep(s *sampler, opaquePass bool, emit func(quad)) {
	for axis := 0; axis < 3; axis++ {
		w, h := s.dims[uAxis[axis]], s.dims[vAxis[axis]]
		mask := make([]world.BlockID, w*h)
		for _, positive := range [2]bool{true, false} {
			for slice := 0; slice <= s.dims[axis]; slice++ {
				m.fillMask(s, mask, axis, slice, positive, opaquePass)
				merge(mask, w, h, func(id world.BlockID, i, j, qw, qh int) {
					emit(quad{id: id, axis: axis, positive: positive, slice: slice, i: i, j: j, w: qw, h: qh})
				})
			}
		}
	}
}

// fillMask records, for every cell of the plane between slice-1 and slice,
// the block whose face is visible there in the given direction, or air.
// Positive faces belong to the block at slice-1, negative faces to the block
// at slice. Faces owned by a block outside the chunk are left to the chunk
// that holds it, so neighbours only ever act as the block behind.
func (m *Mesher) fillMask(s *sampler, mask []world.BlockID, axis, slice int, positive, opaquePass bool) {
	u, v := uAxis[axis], vAxis[axis]
	w, h := s.dims[u], s.dims[v]
	if (positive && slice == 0) || (!positive && slice == s.dims[axis]) {
		clear(mask)
		return
	}
	var pos [3]int
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			pos[u], pos[v] = i, j
			pos[axis] = slice - 1
			below := s.at(pos)
			pos[axis] = slice
			above := s.at(pos)

			front, behind := below, above
			if !positive {
				front, behind = above, below
			}
			id := world.BlockAir
			if m.faceVisible(front, behind, opaquePass) {
				id = front
			}
			mask[i+j*w] = id
		}
	}
}

func (m *Mesher) faceVisible(front, behind world.BlockID, opaquePass bool) bool {
	r := m.registry
	if opaquePass {
		return r.IsOpaque(front) && !r.IsFluid(front) && !r.IsOpaque(behind) && !r.IsFluid(behind)
	}
	seeThrough := func(id world.BlockID) bool {
		return r.IsTransparent(id) || r.IsFluid(id)
	}
	return seeThrough(front) && !seeThrough(behind)
}

// merge walks the mask row-major, grows each run of equal ids first along u
// then along v, reports the rectangle and clears the cells it covers.
func merge(mask []world.BlockID, w, h int, report func(id world.BlockID, i, j, qw, qh int)) {
	for j := 0; j < h; j++ {
		for i := 0; i < w; {
			id := mask[i+j*w]
			if id == world.BlockAir {
				i++
				continue
			}
			qw := 1
			for i+qw < w && mask[i+qw+j*w] == id {
				qw++
			}
			qh := 1
		grow:
			for j+qh < h {
				row := (j + qh) * w
				for k := 0; k < qw; k++ {
					if mask[i+k+row] != id {
						break grow
					}
				}
				qh++
			}
			report(id, i, j, qw, qh)
			for dy := 0; dy < qh; dy++ {
				row := (j + dy) * w
				for k := 0; k < qw; k++ {
					mask[i+k+row] = world.BlockAir
				}
			}
			i += qw
		}
	}
}

func (m *Mesher) emit(out *Buffers, q quad, step int) {
	u, v := uAxis[q.axis], vAxis[q.axis]

	var origin, du, dv, normal mgl32.Vec3
	origin[q.axis] = float32(q.slice * step)
	origin[u] = float32(q.i * step)
	origin[v] = float32(q.j * step)
	du[u] = float32(q.w * step)
	dv[v] = float32(q.h * step)
	normal[q.axis] = 1
	if !q.positive {
		normal[q.axis] = -1
	}

	tile := m.registry.Definition(q.id).Faces[world.FaceFor(q.axis, q.positive)]
	uv := m.atlas.UV(tile)
	size := uv.Size()
	uvU := mgl32.Vec2{size.X() * float32(q.w), 0}
	uvV := mgl32.Vec2{0, size.Y() * float32(q.h)}

	packed := PackNormal(normal)
	corner := func(p mgl32.Vec3, t mgl32.Vec2) Vertex {
		return Vertex{Position: p, Normal: packed, UV: t, Light: FullLight}
	}

	base := uint32(len(out.Vertices))
	// Triangles wind counter-clockwise when seen from the side the normal
	// points to.
	if du.Cross(dv).Dot(normal) > 0 {
		out.Vertices = append(out.Vertices,
			corner(origin, uv.UV0),
			corner(origin.Add(du), uv.UV0.Add(uvU)),
			corner(origin.Add(du).Add(dv), uv.UV0.Add(uvU).Add(uvV)),
			corner(origin.Add(dv), uv.UV0.Add(uvV)),
		)
	} else {
		out.Vertices = append(out.Vertices,
			corner(origin, uv.UV0),
			corner(origin.Add(dv), uv.UV0.Add(uvV)),
			corner(origin.Add(dv).Add(du), uv.UV0.Add(uvV).Add(uvU)),
			corner(origin.Add(du), uv.UV0.Add(uvU)),
		)
	}
	out.Indices = append(out.Indices, base, base+1, base+2, base, base+2, base+3)
}
