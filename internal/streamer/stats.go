package streamer

import "github.com/MasterKyle08/CodexCraft/internal/world"

// Stats is a point-in-time summary of the store.
type Stats struct {
	TotalChunks     int `json:"totalChunks"`
	Generating      int `json:"generating"`
	MeshPending     int `json:"meshPending"`
	Uploaded        int `json:"uploaded"`
	Dirty           int `json:"dirty"`
	MeshingInFlight int `json:"meshingInFlight"`
	PendingUploads  int `json:"pendingUploads"`
	GenerationQueue int `json:"generationQueue"`
	MeshingQueue    int `json:"meshingQueue"`
}

// Stats may be called from any goroutine.
func (s *Streamer) Stats() Stats {
	var st Stats
	s.mu.RLock()
	st.TotalChunks = len(s.chunks)
	for _, e := range s.chunks {
		switch e.chunk.State() {
		case world.StateGenerating:
			st.Generating++
		case world.StateMeshPending:
			st.MeshPending++
		case world.StateUploaded:
			st.Uploaded++
		}
		if e.chunk.AnyDirty() {
			st.Dirty++
		}
		if e.meshInFlight.Load() {
			st.MeshingInFlight++
		}
	}
	s.mu.RUnlock()

	s.uploadMu.Lock()
	st.PendingUploads = len(s.uploads)
	s.uploadMu.Unlock()

	st.GenerationQueue = s.generation.Pending()
	st.MeshingQueue = s.meshing.Pending()
	return st
}
