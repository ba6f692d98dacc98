package streamer

import (
	"sync/atomic"
	"weak"

	"github.com/MasterKyle08/CodexCraft/internal/mesher"
	"github.com/MasterKyle08/CodexCraft/internal/world"
)

// ChunkEntry is the store's record for one coordinate.
//
// meshInFlight is the per-chunk guard: it is set when a meshing task is
// enqueued and cleared when that task's upload is drained or the task aborts,
// so at most one meshing task per chunk exists at a time. Eviction claims the
// guard permanently.
type ChunkEntry struct {
	chunk *world.Chunk
	mesh  *ChunkMesh // consumer goroutine only

	meshInFlight atomic.Bool
	evicted      atomic.Bool
}

func (e *ChunkEntry) Chunk() *world.Chunk {
	return e.chunk
}

func (e *ChunkEntry) MeshInFlight() bool {
	return e.meshInFlight.Load()
}

func (e *ChunkEntry) Evicted() bool {
	return e.evicted.Load()
}

// entryHandle is what background tasks hold. It does not keep an evicted
// entry alive.
type entryHandle = weak.Pointer[ChunkEntry]

// resolve returns the live entry behind h, or nil once it was evicted or
// collected.
func resolve(h entryHandle) *ChunkEntry {
	e := h.Value()
	if e == nil || e.evicted.Load() {
		return nil
	}
	return e
}

// PendingUpload is finished geometry waiting for the consumer goroutine.
type PendingUpload struct {
	Coord  world.ChunkCoord
	Levels [world.LODCount]mesher.LevelBuffers

	entry    *ChunkEntry
	revision uint64
}
