package world

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewChunkStartsGeneratingAndDirty(t *testing.T) {
	c := NewChunk(ChunkCoord{X: 1, Z: 2})
	if c.State() != StateGenerating {
		t.Fatalf("expected generating state, got %v", c.State())
	}
	for lod := 0; lod < LODCount; lod++ {
		if !c.NeedsRemesh(lod) {
			t.Fatalf("lod %d should start dirty", lod)
		}
	}
	if !c.Empty() {
		t.Fatal("new chunk should be empty")
	}
}

func TestChunkGetSetAndBounds(t *testing.T) {
	c := NewChunk(ChunkCoord{X: -1, Z: 0})
	c.Set(3, 200, 15, BlockStone)
	if got := c.Get(3, 200, 15); got != BlockStone {
		t.Fatalf("expected stone, got %d", got)
	}
	if c.Section(200 / SectionSize).Empty() {
		t.Fatal("section holding stone should not be empty")
	}
	if !c.Section(0).Empty() {
		t.Fatal("untouched section should stay empty")
	}
	if got := c.Get(0, -1, 0); got != BlockAir {
		t.Fatalf("below the column should read air, got %d", got)
	}
	if got := c.Get(0, ChunkHeight, 0); got != BlockAir {
		t.Fatalf("above the column should read air, got %d", got)
	}

	c.Set(3, 200, 15, BlockAir)
	if c.Empty() {
		t.Fatal("empty flag must stay false after a block was written")
	}

	lo, hi := c.Bounds()
	if lo != (mgl32.Vec3{-16, 0, 0}) || hi != (mgl32.Vec3{0, 256, 16}) {
		t.Fatalf("unexpected bounds %v..%v", lo, hi)
	}
}

func TestChunkDirtyFlags(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	for lod := 0; lod < LODCount; lod++ {
		c.ClearDirty(lod)
	}
	if c.AnyDirty() {
		t.Fatal("expected clean chunk")
	}

	rev := c.Revision()
	c.MarkDirty(1)
	if !c.NeedsRemesh(1) || c.NeedsRemesh(0) || c.NeedsRemesh(2) {
		t.Fatal("only lod 1 should be dirty")
	}
	if c.Revision() == rev {
		t.Fatal("marking dirty should bump the revision")
	}

	c.MarkDirty(7)
	c.ClearDirty(-1)
	if c.NeedsRemesh(7) || c.NeedsRemesh(-1) {
		t.Fatal("out of range lods are never dirty")
	}

	c.ClearDirty(1)
	c.Set(0, 0, 0, BlockDirt)
	for lod := 0; lod < LODCount; lod++ {
		if !c.NeedsRemesh(lod) {
			t.Fatalf("Set should dirty lod %d", lod)
		}
	}
}

func TestChunkStateTransitionsAreAtomic(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	var wg sync.WaitGroup
	var winners sync.Map
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if c.CompareAndSwapState(StateGenerating, StateMeshPending) {
				winners.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	winners.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != 1 {
		t.Fatalf("expected exactly one successful transition, got %d", count)
	}
	if c.State() != StateMeshPending {
		t.Fatalf("expected mesh-pending, got %v", c.State())
	}
}
