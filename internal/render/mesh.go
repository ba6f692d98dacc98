package render

import (
	"sync/atomic"

	"github.com/MasterKyle08/CodexCraft/internal/mesher"
)

// GPUMesh is an uploaded vertex/index buffer pair. Implementations are bound
// to the graphics context and must only be used from the consumer goroutine.
type GPUMesh interface {
	// Upload replaces the buffer contents. Dynamic hints that the data will be
	// re-uploaded often.
	Upload(vertices []mesher.Vertex, indices []uint32, dynamic bool)
	Draw()
	Release()
}

// MeshFactory creates GPU meshes on demand.
type MeshFactory func() GPUMesh

// HeadlessMesh is a GPUMesh that only records what it was asked to do. It
// backs the headless driver and tests.
type HeadlessMesh struct {
	IndexCount  int
	VertexCount int
	Dynamic     bool
	Uploads     int
	Draws       int
	Released    bool

	stats *HeadlessStats
}

// HeadlessStats aggregates activity over every mesh created by a
// HeadlessFactory.
type HeadlessStats struct {
	Live       atomic.Int64
	Uploads    atomic.Int64
	Draws      atomic.Int64
	DrawnQuads atomic.Int64
}

// HeadlessFactory returns a factory producing HeadlessMesh values that report
// into stats. A nil stats is allowed.
func HeadlessFactory(stats *HeadlessStats) MeshFactory {
	return func() GPUMesh {
		if stats != nil {
			stats.Live.Add(1)
		}
		return &HeadlessMesh{stats: stats}
	}
}

func (m *HeadlessMesh) Upload(vertices []mesher.Vertex, indices []uint32, dynamic bool) {
	m.VertexCount = len(vertices)
	m.IndexCount = len(indices)
	m.Dynamic = dynamic
	m.Uploads++
	if m.stats != nil {
		m.stats.Uploads.Add(1)
	}
}

func (m *HeadlessMesh) Draw() {
	if m.Released || m.IndexCount == 0 {
		return
	}
	m.Draws++
	if m.stats != nil {
		m.stats.Draws.Add(1)
		m.stats.DrawnQuads.Add(int64(m.IndexCount / 6))
	}
}

func (m *HeadlessMesh) Release() {
	if m.Released {
		return
	}
	m.Released = true
	if m.stats != nil {
		m.stats.Live.Add(-1)
	}
}
