package streamer

import (
	"github.com/MasterKyle08/CodexCraft/internal/mesher"
	"github.com/MasterKyle08/CodexCraft/internal/render"
	"github.com/MasterKyle08/CodexCraft/internal/world"
)

// ChunkMesh owns the GPU meshes of one chunk, one opaque and one translucent
// mesh per detail level. GPU meshes are created lazily on first upload. All
// methods must run on the consumer goroutine.
type ChunkMesh struct {
	factory render.MeshFactory
	levels  [world.LODCount]meshLevel
}

type meshLevel struct {
	cpu            mesher.LevelBuffers
	opaque         render.GPUMesh
	translucent    render.GPUMesh
	hasOpaque      bool
	hasTranslucent bool
}

func newChunkMesh(factory render.MeshFactory) *ChunkMesh {
	return &ChunkMesh{factory: factory}
}

// setBuffers replaces the CPU geometry of every level. Nothing reaches the
// GPU until Upload.
func (m *ChunkMesh) setBuffers(levels [world.LODCount]mesher.LevelBuffers) {
	for i := range m.levels {
		m.levels[i].cpu = levels[i]
	}
}

// Upload pushes the level's CPU buffers to the GPU and drops the CPU copy.
// Translucent geometry is uploaded as dynamic.
func (m *ChunkMesh) Upload(lod int) {
	if lod < 0 || lod >= world.LODCount {
		return
	}
	l := &m.levels[lod]

	l.hasOpaque = !l.cpu.Opaque.Empty()
	if l.hasOpaque {
		if l.opaque == nil {
			l.opaque = m.factory()
		}
		l.opaque.Upload(l.cpu.Opaque.Vertices, l.cpu.Opaque.Indices, false)
	}

	l.hasTranslucent = !l.cpu.Translucent.Empty()
	if l.hasTranslucent {
		if l.translucent == nil {
			l.translucent = m.factory()
		}
		l.translucent.Upload(l.cpu.Translucent.Vertices, l.cpu.Translucent.Indices, true)
	}

	l.cpu = mesher.LevelBuffers{}
}

func (m *ChunkMesh) HasOpaque(lod int) bool {
	return lod >= 0 && lod < world.LODCount && m.levels[lod].hasOpaque
}

func (m *ChunkMesh) HasTranslucent(lod int) bool {
	return lod >= 0 && lod < world.LODCount && m.levels[lod].hasTranslucent
}

func (m *ChunkMesh) DrawOpaque(lod int) {
	if m.HasOpaque(lod) {
		m.levels[lod].opaque.Draw()
	}
}

func (m *ChunkMesh) DrawTranslucent(lod int) {
	if m.HasTranslucent(lod) {
		m.levels[lod].translucent.Draw()
	}
}

// Release frees every GPU mesh. The record is empty afterwards.
func (m *ChunkMesh) Release() {
	for i := range m.levels {
		l := &m.levels[i]
		if l.opaque != nil {
			l.opaque.Release()
		}
		if l.translucent != nil {
			l.translucent.Release()
		}
		*l = meshLevel{}
	}
}
