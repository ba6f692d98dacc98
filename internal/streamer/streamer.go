// Package streamer keeps a window of generated and meshed chunks around a
// moving viewpoint.
//
// One consumer goroutine calls Update, GatherDrawCommands and Close. Terrain
// generation and meshing run on two job schedulers and hand results back
// through the upload queue, which Update drains.
package streamer

import (
	"log"
	"slices"
	"sync"
	"weak"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MasterKyle08/CodexCraft/internal/config"
	"github.com/MasterKyle08/CodexCraft/internal/jobs"
	"github.com/MasterKyle08/CodexCraft/internal/lod"
	"github.com/MasterKyle08/CodexCraft/internal/mesher"
	"github.com/MasterKyle08/CodexCraft/internal/render"
	"github.com/MasterKyle08/CodexCraft/internal/world"
)

// evictionMargin is how far past the load radius a chunk may drift before it
// is dropped.
const evictionMargin = 2

// Generator fills a freshly created chunk. It runs on generation workers and
// must be safe for concurrent use.
type Generator interface {
	Generate(chunk *world.Chunk)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(chunk *world.Chunk)

func (f GeneratorFunc) Generate(chunk *world.Chunk) {
	f(chunk)
}

// Options configures a Streamer.
type Options struct {
	Streaming config.StreamingConfig
	LOD       config.LODConfig
	Registry  *world.Registry
	Atlas     world.Atlas
	Generator Generator

	// MeshFactory creates GPU meshes; nil uses headless meshes.
	MeshFactory render.MeshFactory

	// Worker counts; zero means one per CPU.
	GenerationWorkers int
	MeshingWorkers    int

	Logger  *log.Logger
	Verbose bool
}

// Streamer owns the chunk store.
type Streamer struct {
	streaming config.StreamingConfig
	policy    lod.Policy
	mesher    *mesher.Mesher
	generator Generator
	factory   render.MeshFactory
	logger    *log.Logger
	verbose   bool

	generation *jobs.Scheduler
	meshing    *jobs.Scheduler

	mu     sync.RWMutex
	chunks map[world.ChunkCoord]*ChunkEntry

	uploadMu sync.Mutex
	uploads  []PendingUpload

	// consumer goroutine only
	offsets       []world.ChunkCoord
	offsetsRadius int
	closed        bool

	// meshHook observes meshing task start and end; tests use it.
	meshHook func(coord world.ChunkCoord, start bool)
}

// New starts the worker pools. Registry defaults to world.DefaultRegistry.
func New(opts Options) *Streamer {
	registry := opts.Registry
	if registry == nil {
		registry = world.DefaultRegistry()
	}
	generator := opts.Generator
	if generator == nil {
		generator = GeneratorFunc(func(*world.Chunk) {})
	}
	factory := opts.MeshFactory
	if factory == nil {
		factory = render.HeadlessFactory(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "streamer ", log.LstdFlags|log.Lmicroseconds)
	}

	if err := opts.Atlas.Validate(opts.Atlas.TextureResolution, opts.Atlas.TextureResolution); err != nil {
		logger.Printf("warning: %v", err)
	}

	s := &Streamer{
		streaming:     opts.Streaming,
		policy:        lod.FromConfig(opts.LOD),
		mesher:        mesher.New(registry, opts.Atlas),
		generator:     generator,
		factory:       factory,
		logger:        logger,
		verbose:       opts.Verbose,
		generation:    jobs.New("generation", jobs.WorkersFor(opts.GenerationWorkers)),
		meshing:       jobs.New("meshing", jobs.WorkersFor(opts.MeshingWorkers)),
		chunks:        make(map[world.ChunkCoord]*ChunkEntry),
		offsetsRadius: -1,
	}
	logger.Printf("started: load radius %d, render radius %d, %d generation / %d meshing workers",
		s.streaming.LoadRadius, s.streaming.RenderRadius, s.generation.Workers(), s.meshing.Workers())
	return s
}

// Update runs one consumer tick: it makes sure every chunk within the load
// radius exists and is queued for the work it needs, uploads finished meshes,
// then evicts chunks that drifted out of range.
func (s *Streamer) Update(viewpoint mgl32.Vec3) {
	if s.closed {
		return
	}
	center := world.FromWorld(viewpoint)
	for _, off := range s.loadOffsets(s.streaming.LoadRadius) {
		coord := center.Offset(off.X, off.Z)
		entry, created := s.ensureEntry(coord)
		if created {
			continue
		}
		c := entry.chunk
		switch c.State() {
		case world.StateMeshPending:
			s.scheduleMeshing(coord, entry)
		case world.StateUploaded:
			if c.AnyDirty() {
				s.scheduleMeshing(coord, entry)
			}
		}
	}
	s.processUploads()
	s.unloadFarChunks(center)
}

// loadOffsets returns every offset within radius (Chebyshev) ordered by
// Manhattan distance, so chunks nearest the viewpoint are queued first. The
// slice is cached per radius.
func (s *Streamer) loadOffsets(radius int) []world.ChunkCoord {
	if radius == s.offsetsRadius {
		return s.offsets
	}
	var origin world.ChunkCoord
	offsets := make([]world.ChunkCoord, 0, (2*radius+1)*(2*radius+1))
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			offsets = append(offsets, world.ChunkCoord{X: dx, Z: dz})
		}
	}
	slices.SortStableFunc(offsets, func(a, b world.ChunkCoord) int {
		return a.ManhattanDistance(origin) - b.ManhattanDistance(origin)
	})
	s.offsets = offsets
	s.offsetsRadius = radius
	return offsets
}

func (s *Streamer) lookup(coord world.ChunkCoord) *ChunkEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[coord]
}

// ensureEntry returns the entry for coord, creating it and queueing
// generation when missing.
func (s *Streamer) ensureEntry(coord world.ChunkCoord) (*ChunkEntry, bool) {
	if e := s.lookup(coord); e != nil {
		return e, false
	}

	s.mu.Lock()
	if e, ok := s.chunks[coord]; ok {
		s.mu.Unlock()
		return e, false
	}
	e := &ChunkEntry{chunk: world.NewChunk(coord)}
	s.chunks[coord] = e
	s.mu.Unlock()

	handle := weak.Make(e)
	s.generation.Enqueue(func() {
		s.generate(coord, handle)
	})
	return e, true
}

var neighborOffsets = [...]world.ChunkCoord{
	{X: 1, Z: 0},
	{X: -1, Z: 0},
	{X: 0, Z: 1},
	{X: 0, Z: -1},
}

func (s *Streamer) generate(coord world.ChunkCoord, handle entryHandle) {
	e := resolve(handle)
	if e == nil {
		return
	}
	c := e.chunk
	s.generator.Generate(c)
	c.MarkAllDirty()
	c.SetState(world.StateMeshPending)
	if e.evicted.Load() {
		return
	}

	// Neighbours that meshed against this chunk while it was still
	// generating saw air along the shared edge.
	for _, off := range neighborOffsets {
		ncoord := coord.Offset(off.X, off.Z)
		n := s.lookup(ncoord)
		if n == nil || n.chunk.State() == world.StateGenerating {
			continue
		}
		n.chunk.MarkAllDirty()
		s.scheduleMeshing(ncoord, n)
	}
	s.scheduleMeshing(coord, e)
}

// scheduleMeshing enqueues a meshing task unless one is already in flight
// for the entry.
func (s *Streamer) scheduleMeshing(coord world.ChunkCoord, e *ChunkEntry) {
	if !e.meshInFlight.CompareAndSwap(false, true) {
		return
	}
	handle := weak.Make(e)
	s.meshing.Enqueue(func() {
		s.meshChunk(coord, handle)
	})
}

func (s *Streamer) meshChunk(coord world.ChunkCoord, handle entryHandle) {
	e := resolve(handle)
	if e == nil {
		return
	}
	if s.meshHook != nil {
		s.meshHook(coord, true)
		defer s.meshHook(coord, false)
	}
	c := e.chunk
	if c.State() == world.StateGenerating {
		e.meshInFlight.Store(false)
		return
	}

	revision := c.Revision()
	levels := s.mesher.BuildAll(c, s.gatherNeighbors(coord))

	s.uploadMu.Lock()
	s.uploads = append(s.uploads, PendingUpload{
		Coord:    coord,
		Levels:   levels,
		entry:    e,
		revision: revision,
	})
	s.uploadMu.Unlock()
}

// gatherNeighbors collects the adjacent chunks whose blocks are safe to read.
func (s *Streamer) gatherNeighbors(coord world.ChunkCoord) mesher.Neighbors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	get := func(dx, dz int) *world.Chunk {
		e := s.chunks[coord.Offset(dx, dz)]
		if e == nil || e.chunk.State() == world.StateGenerating {
			return nil
		}
		return e.chunk
	}
	return mesher.Neighbors{
		PosX: get(1, 0),
		NegX: get(-1, 0),
		PosZ: get(0, 1),
		NegZ: get(0, -1),
	}
}

// processUploads drains finished meshes onto the GPU. Uploads whose
// coordinate no longer maps to the entry that produced them are dropped.
func (s *Streamer) processUploads() {
	s.uploadMu.Lock()
	batch := s.uploads
	s.uploads = nil
	s.uploadMu.Unlock()

	dropped := 0
	for i := range batch {
		up := &batch[i]
		e := up.entry
		if s.lookup(up.Coord) != e || e.evicted.Load() {
			e.meshInFlight.Store(false)
			dropped++
			continue
		}

		if e.mesh == nil {
			e.mesh = newChunkMesh(s.factory)
		}
		e.mesh.setBuffers(up.Levels)
		for level := 0; level < world.LODCount; level++ {
			e.mesh.Upload(level)
		}

		c := e.chunk
		for level := 0; level < world.LODCount; level++ {
			c.ClearDirty(level)
		}
		// Dirtied again while this mesh was being built.
		if c.Revision() != up.revision {
			c.MarkAllDirty()
		}
		c.SetState(world.StateUploaded)
		e.meshInFlight.Store(false)
	}
	if dropped > 0 && s.verbose {
		s.logger.Printf("dropped %d uploads for evicted chunks", dropped)
	}
}

// unloadFarChunks removes chunks beyond the eviction radius. A chunk with a
// meshing task in flight is kept until that task drains.
func (s *Streamer) unloadFarChunks(center world.ChunkCoord) {
	limit := s.streaming.LoadRadius + evictionMargin
	var evicted []*ChunkEntry

	s.mu.Lock()
	for coord, e := range s.chunks {
		if coord.ChebyshevDistance(center) <= limit {
			continue
		}
		if !e.meshInFlight.CompareAndSwap(false, true) {
			continue
		}
		e.evicted.Store(true)
		delete(s.chunks, coord)
		evicted = append(evicted, e)
	}
	s.mu.Unlock()

	for _, e := range evicted {
		if e.mesh != nil {
			e.mesh.Release()
			e.mesh = nil
		}
	}
	if len(evicted) > 0 {
		s.logger.Printf("evicted %d chunks around %v", len(evicted), center)
	}
}

// Reload marks every chunk dirty and queues it for meshing.
func (s *Streamer) Reload() {
	s.mu.RLock()
	entries := make(map[world.ChunkCoord]*ChunkEntry, len(s.chunks))
	for coord, e := range s.chunks {
		entries[coord] = e
	}
	s.mu.RUnlock()

	for coord, e := range entries {
		e.chunk.MarkAllDirty()
		if e.chunk.State() != world.StateGenerating {
			s.scheduleMeshing(coord, e)
		}
	}
	s.logger.Printf("reload: %d chunks queued for meshing", len(entries))
}

// MarkDirty marks every level of the chunk at coord dirty and queues it for
// meshing. It reports whether the chunk exists.
func (s *Streamer) MarkDirty(coord world.ChunkCoord) bool {
	e := s.lookup(coord)
	if e == nil {
		return false
	}
	e.chunk.MarkAllDirty()
	if e.chunk.State() != world.StateGenerating {
		s.scheduleMeshing(coord, e)
	}
	return true
}

// Entry returns the store record at coord.
func (s *Streamer) Entry(coord world.ChunkCoord) (*ChunkEntry, bool) {
	e := s.lookup(coord)
	return e, e != nil
}

// Close stops both worker pools and releases every GPU mesh. Queued work is
// discarded. It must run on the consumer goroutine.
func (s *Streamer) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.generation.Close()
	s.meshing.Close()

	s.mu.Lock()
	entries := s.chunks
	s.chunks = make(map[world.ChunkCoord]*ChunkEntry)
	s.mu.Unlock()

	for _, e := range entries {
		e.evicted.Store(true)
		if e.mesh != nil {
			e.mesh.Release()
			e.mesh = nil
		}
	}
	s.uploadMu.Lock()
	s.uploads = nil
	s.uploadMu.Unlock()
	s.logger.Printf("closed: released %d chunks", len(entries))
}
