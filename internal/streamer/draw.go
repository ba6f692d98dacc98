package streamer

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MasterKyle08/CodexCraft/internal/world"
)

// Viewpoint is anything with a world position, typically the camera.
type Viewpoint interface {
	Position() mgl32.Vec3
}

// Frustum culls world-space boxes.
type Frustum interface {
	Intersects(lo, hi mgl32.Vec3) bool
}

// DrawCommand is one chunk mesh to draw this frame.
type DrawCommand struct {
	Coord       world.ChunkCoord
	Level       uint8
	Translucent bool

	// DistanceSq is the squared distance from the viewpoint to the chunk
	// centre, used for ordering.
	DistanceSq float32

	mesh *ChunkMesh
}

// Draw issues the GPU draw for the command. Consumer goroutine only.
func (c DrawCommand) Draw() {
	if c.Translucent {
		c.mesh.DrawTranslucent(int(c.Level))
		return
	}
	c.mesh.DrawOpaque(int(c.Level))
}

// GatherDrawCommands selects uploaded chunks within the render radius that
// intersect the frustum and picks each one's detail level from its distance.
// Opaque commands come back nearest first, translucent ones farthest first.
// A nil frustum disables culling.
func (s *Streamer) GatherDrawCommands(view Viewpoint, frustum Frustum) (opaque, translucent []DrawCommand) {
	pos := view.Position()
	center := world.FromWorld(pos)
	half := mgl32.Vec3{world.ChunkWidth / 2, world.ChunkHeight / 2, world.ChunkDepth / 2}

	s.mu.RLock()
	for coord, e := range s.chunks {
		distance := coord.ChebyshevDistance(center)
		if distance > s.streaming.RenderRadius {
			continue
		}
		if e.chunk.State() != world.StateUploaded || e.mesh == nil {
			continue
		}
		lo, hi := e.chunk.Bounds()
		if frustum != nil && !frustum.Intersects(lo, hi) {
			continue
		}
		level := s.policy.Select(distance)
		d := lo.Add(half).Sub(pos)
		cmd := DrawCommand{Coord: coord, Level: level, DistanceSq: d.Dot(d), mesh: e.mesh}
		if e.mesh.HasOpaque(int(level)) {
			opaque = append(opaque, cmd)
		}
		if e.mesh.HasTranslucent(int(level)) {
			cmd.Translucent = true
			translucent = append(translucent, cmd)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(opaque, func(a, b DrawCommand) int {
		return compareDistance(a, b)
	})
	slices.SortFunc(translucent, func(a, b DrawCommand) int {
		return compareDistance(b, a)
	})
	return opaque, translucent
}

func compareDistance(a, b DrawCommand) int {
	switch {
	case a.DistanceSq < b.DistanceSq:
		return -1
	case a.DistanceSq > b.DistanceSq:
		return 1
	case a.Coord.X != b.Coord.X:
		return a.Coord.X - b.Coord.X
	default:
		return a.Coord.Z - b.Coord.Z
	}
}
