package mesher

import "github.com/MasterKyle08/CodexCraft/internal/world"

// sampler reads blocks at a detail level's resolution. Sample (ax, ay, az)
// maps to block (ax*step, ay*step, az*step); horizontal reads past the chunk
// edge fall through to the neighbour, anything else outside reads air.
type sampler struct {
	chunk *world.Chunk
	nb    Neighbors
	step  int
	dims  [3]int
}

func newSampler(chunk *world.Chunk, nb Neighbors, lod int) *sampler {
	step := 1 << lod
	return &sampler{
		chunk: chunk,
		nb:    nb,
		step:  step,
		dims:  [3]int{world.ChunkWidth / step, world.ChunkHeight / step, world.ChunkDepth / step},
	}
}

func (s *sampler) at(pos [3]int) world.BlockID {
	x, y, z := pos[0]*s.step, pos[1]*s.step, pos[2]*s.step
	if y < 0 || y >= world.ChunkHeight {
		return world.BlockAir
	}
	src := s.chunk
	switch {
	case x < 0:
		src, x = s.nb.NegX, x+world.ChunkWidth
	case x >= world.ChunkWidth:
		src, x = s.nb.PosX, x-world.ChunkWidth
	}
	switch {
	case z < 0:
		if src != s.chunk {
			return world.BlockAir
		}
		src, z = s.nb.NegZ, z+world.ChunkDepth
	case z >= world.ChunkDepth:
		if src != s.chunk {
			return world.BlockAir
		}
		src, z = s.nb.PosZ, z-world.ChunkDepth
	}
	if src == nil {
		return world.BlockAir
	}
	return src.Get(x, y, z)
}
