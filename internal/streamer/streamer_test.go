package streamer

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"weak"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MasterKyle08/CodexCraft/internal/config"
	"github.com/MasterKyle08/CodexCraft/internal/render"
	"github.com/MasterKyle08/CodexCraft/internal/world"
)

var origin = mgl32.Vec3{8, 70, 8}

// flatGenerator lays four layers of stone, with a water layer on top in
// chunks with an even X coordinate.
var flatGenerator = GeneratorFunc(func(c *world.Chunk) {
	water := c.Coord().X%2 == 0
	for z := 0; z < world.ChunkDepth; z++ {
		for x := 0; x < world.ChunkWidth; x++ {
			for y := 0; y < 4; y++ {
				c.Set(x, y, z, world.BlockStone)
			}
			if water {
				c.Set(x, 4, z, world.BlockWater)
			}
		}
	}
})

func newTestStreamer(t *testing.T, streaming config.StreamingConfig, stats *render.HeadlessStats) *Streamer {
	t.Helper()
	s := New(Options{
		Streaming:         streaming,
		LOD:               config.LODConfig{LOD0: 0, LOD1: 1},
		Registry:          world.DefaultRegistry(),
		Atlas:             world.AtlasFromConfig(config.Default().Atlas),
		Generator:         flatGenerator,
		MeshFactory:       render.HeadlessFactory(stats),
		GenerationWorkers: 2,
		MeshingWorkers:    2,
		Logger:            log.New(io.Discard, "", 0),
	})
	t.Cleanup(s.Close)
	return s
}

func radius(r int) config.StreamingConfig {
	return config.StreamingConfig{LoadRadius: r, MeshRadius: r, RenderRadius: r}
}

// settle runs Update until want chunks are uploaded with nothing dirty or in
// flight.
func settle(t *testing.T, s *Streamer, pos mgl32.Vec3, want int) Stats {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		s.Update(pos)
		st := s.Stats()
		if st.TotalChunks == want && st.Uploaded == want && st.Dirty == 0 && st.MeshingInFlight == 0 && st.PendingUploads == 0 {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("store did not settle: %+v", st)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestUpdateCreatesEntriesAcrossLoadWindow(t *testing.T) {
	s := newTestStreamer(t, radius(2), nil)
	s.Update(origin)

	st := s.Stats()
	if st.TotalChunks != 25 {
		t.Fatalf("expected 25 entries, got %d", st.TotalChunks)
	}
	for dz := -2; dz <= 2; dz++ {
		for dx := -2; dx <= 2; dx++ {
			e, ok := s.Entry(world.ChunkCoord{X: dx, Z: dz})
			if !ok {
				t.Fatalf("missing entry (%d,%d)", dx, dz)
			}
			switch e.Chunk().State() {
			case world.StateGenerating, world.StateMeshPending, world.StateUploaded:
			default:
				t.Fatalf("entry (%d,%d) in unexpected state %v", dx, dz, e.Chunk().State())
			}
		}
	}
	if _, ok := s.Entry(world.ChunkCoord{X: 3}); ok {
		t.Fatal("entry outside the load radius should not exist")
	}
}

func TestRadiusOneSettlesToNineUploadedChunks(t *testing.T) {
	var stats render.HeadlessStats
	s := newTestStreamer(t, radius(1), &stats)

	st := settle(t, s, origin, 9)
	if st.Generating != 0 || st.MeshPending != 0 {
		t.Fatalf("unexpected stats after settling: %+v", st)
	}
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			e, _ := s.Entry(world.ChunkCoord{X: dx, Z: dz})
			for level := 0; level < world.LODCount; level++ {
				if e.Chunk().NeedsRemesh(level) {
					t.Fatalf("chunk (%d,%d) lod %d still dirty", dx, dz, level)
				}
			}
			if !e.mesh.HasOpaque(0) {
				t.Fatalf("chunk (%d,%d) has no opaque geometry", dx, dz)
			}
		}
	}
	if stats.Live.Load() == 0 {
		t.Fatal("expected GPU meshes to be created")
	}
}

func TestLoadOffsetsOrderedByManhattanDistance(t *testing.T) {
	s := newTestStreamer(t, radius(2), nil)
	offsets := s.loadOffsets(2)
	if len(offsets) != 25 {
		t.Fatalf("expected 25 offsets, got %d", len(offsets))
	}
	if offsets[0] != (world.ChunkCoord{}) {
		t.Fatalf("first offset should be the centre, got %v", offsets[0])
	}
	var zero world.ChunkCoord
	for i := 1; i < len(offsets); i++ {
		if offsets[i].ManhattanDistance(zero) < offsets[i-1].ManhattanDistance(zero) {
			t.Fatalf("offsets out of order at %d: %v after %v", i, offsets[i], offsets[i-1])
		}
	}
	if &s.loadOffsets(2)[0] != &offsets[0] {
		t.Fatal("offsets should be cached per radius")
	}
}

func TestMeshingGuardAllowsOneTaskPerChunk(t *testing.T) {
	s := newTestStreamer(t, radius(1), nil)

	var active sync.Map
	var violations, runs atomic.Int32
	s.meshHook = func(coord world.ChunkCoord, start bool) {
		v, _ := active.LoadOrStore(coord, new(atomic.Int32))
		n := v.(*atomic.Int32)
		if !start {
			n.Add(-1)
			return
		}
		runs.Add(1)
		if n.Add(1) > 1 {
			violations.Add(1)
		}
		time.Sleep(100 * time.Microsecond)
	}

	settle(t, s, origin, 9)
	before := runs.Load()

	center := world.ChunkCoord{}
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if !s.MarkDirty(center) {
					t.Error("MarkDirty reported a missing chunk")
					return
				}
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			s.Update(origin)
		}
	}
	settle(t, s, origin, 9)

	if violations.Load() != 0 {
		t.Fatalf("observed %d overlapping meshing tasks", violations.Load())
	}
	if extra := runs.Load() - before; extra < 1 || extra >= 800 {
		t.Fatalf("expected coalesced remeshing, got %d runs for 800 marks", extra)
	}
	if s.MarkDirty(world.ChunkCoord{X: 50}) {
		t.Fatal("MarkDirty should report unknown chunks")
	}
}

func TestEvictionSkipsInFlightEntries(t *testing.T) {
	var stats render.HeadlessStats
	s := newTestStreamer(t, radius(1), &stats)
	settle(t, s, origin, 9)

	home := world.ChunkCoord{}
	e, _ := s.Entry(home)
	e.meshInFlight.Store(true)

	far := mgl32.Vec3{10*world.ChunkWidth + 8, 70, 8}
	s.Update(far)
	if _, ok := s.Entry(home); !ok {
		t.Fatal("in-flight chunk must not be evicted")
	}
	if _, ok := s.Entry(world.ChunkCoord{X: 1}); ok {
		t.Fatal("idle far chunk should have been evicted")
	}
	if e.Evicted() {
		t.Fatal("kept entry should not be marked evicted")
	}

	e.meshInFlight.Store(false)
	s.Update(far)
	if _, ok := s.Entry(home); ok {
		t.Fatal("chunk should be evicted once its guard clears")
	}
	if !e.Evicted() || e.mesh != nil {
		t.Fatal("evicted entry should be flagged and its meshes released")
	}
	if s.MarkDirty(home) {
		t.Fatal("evicted chunk should no longer be reachable")
	}
}

func TestEvictionRespectsMargin(t *testing.T) {
	s := newTestStreamer(t, radius(1), nil)
	settle(t, s, origin, 9)

	// Three chunks east: the west column is exactly loadRadius+2 away.
	s.Update(mgl32.Vec3{2*world.ChunkWidth + 8, 70, 8})
	if _, ok := s.Entry(world.ChunkCoord{X: -1}); !ok {
		t.Fatal("chunk within the eviction margin should be kept")
	}
	s.Update(mgl32.Vec3{3*world.ChunkWidth + 8, 70, 8})
	if _, ok := s.Entry(world.ChunkCoord{X: -1}); ok {
		t.Fatal("chunk beyond the eviction margin should be dropped")
	}
}

func TestUploadForEvictedEntryIsDropped(t *testing.T) {
	s := newTestStreamer(t, radius(1), nil)

	coord := world.ChunkCoord{X: 7, Z: 7}
	ghost := &ChunkEntry{chunk: world.NewChunk(coord)}
	ghost.meshInFlight.Store(true)
	ghost.evicted.Store(true)

	s.uploadMu.Lock()
	s.uploads = append(s.uploads, PendingUpload{Coord: coord, entry: ghost})
	s.uploadMu.Unlock()

	s.processUploads()
	if ghost.mesh != nil {
		t.Fatal("dropped upload should not create a mesh")
	}
	if ghost.MeshInFlight() {
		t.Fatal("dropped upload should clear the guard")
	}
	if ghost.Chunk().State() != world.StateGenerating {
		t.Fatal("dropped upload should not change state")
	}
	if s.Stats().PendingUploads != 0 {
		t.Fatal("upload queue should be empty")
	}
}

func TestMeshingAbortsWhileGenerating(t *testing.T) {
	s := newTestStreamer(t, radius(1), nil)

	coord := world.ChunkCoord{X: 5, Z: -3}
	e := &ChunkEntry{chunk: world.NewChunk(coord)}
	e.meshInFlight.Store(true)
	s.mu.Lock()
	s.chunks[coord] = e
	s.mu.Unlock()

	s.meshChunk(coord, weak.Make(e))
	if e.MeshInFlight() {
		t.Fatal("aborted meshing task should clear the guard")
	}
	if got := s.Stats().PendingUploads; got != 0 {
		t.Fatalf("aborted meshing task queued %d uploads", got)
	}
	if e.Chunk().State() != world.StateGenerating {
		t.Fatalf("state changed to %v", e.Chunk().State())
	}
	if !e.Chunk().NeedsRemesh(0) {
		t.Fatal("dirty flags should survive an aborted meshing task")
	}
}

func TestReloadRemeshesEveryChunk(t *testing.T) {
	var stats render.HeadlessStats
	s := newTestStreamer(t, radius(1), &stats)
	settle(t, s, origin, 9)

	before := stats.Uploads.Load()
	s.Reload()
	if s.Stats().Dirty != 9 {
		t.Fatalf("expected every chunk dirty after reload, got %+v", s.Stats())
	}
	settle(t, s, origin, 9)
	if stats.Uploads.Load() < before+9 {
		t.Fatalf("expected at least 9 new uploads, got %d", stats.Uploads.Load()-before)
	}
}

func TestCloseReleasesMeshesAndStopsWork(t *testing.T) {
	var stats render.HeadlessStats
	s := newTestStreamer(t, radius(1), &stats)
	settle(t, s, origin, 9)

	e, _ := s.Entry(world.ChunkCoord{})
	s.Close()
	if stats.Live.Load() != 0 {
		t.Fatalf("expected all meshes released, %d live", stats.Live.Load())
	}
	if !e.Evicted() {
		t.Fatal("entries should be evicted on close")
	}
	s.Update(origin)
	if s.Stats().TotalChunks != 0 {
		t.Fatal("Update after Close should do nothing")
	}
	s.Close()
}
