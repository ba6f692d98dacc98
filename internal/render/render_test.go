package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MasterKyle08/CodexCraft/internal/mesher"
)

// near compares by absolute distance, which stays meaningful for zero
// components.
func near(got, want mgl32.Vec3, tolerance float32) bool {
	return got.Sub(want).Len() < tolerance
}

func TestCameraForwardFollowsYaw(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{}, 70, 1600, 900)
	if f := cam.Forward(); !near(f, mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Fatalf("default forward should be -Z, got %v", f)
	}
	cam.SetRotation(0, 90)
	if f := cam.Forward(); !near(f, mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Fatalf("yaw 90 should face +X, got %v", f)
	}
	cam.SetRotation(120, 0)
	if pitch, _ := cam.Rotation(); pitch != maxPitch {
		t.Fatalf("pitch should clamp to %v, got %v", maxPitch, pitch)
	}
}

func TestCameraMove(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 70, 0}, 70, 800, 600)
	cam.Move(10, 0, 0)
	if p := cam.Position(); !near(p, mgl32.Vec3{0, 70, -10}, 1e-4) {
		t.Fatalf("unexpected position after forward move %v", p)
	}
	cam.Move(0, 5, 2)
	if p := cam.Position(); !near(p, mgl32.Vec3{5, 72, -10}, 1e-4) {
		t.Fatalf("unexpected position after strafe %v", p)
	}
}

func TestFrustumIntersects(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{8, 64, 8}, 70, 1600, 900)
	f := FrustumFromCamera(cam)

	cases := []struct {
		name   string
		lo, hi mgl32.Vec3
		want   bool
	}{
		{"ahead", mgl32.Vec3{0, 0, -40}, mgl32.Vec3{16, 256, -24}, true},
		{"behind", mgl32.Vec3{0, 0, 40}, mgl32.Vec3{16, 256, 56}, false},
		{"containing camera", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{16, 256, 16}, true},
		{"far left", mgl32.Vec3{-400, 0, -20}, mgl32.Vec3{-384, 256, -4}, false},
		{"beyond far plane", mgl32.Vec3{0, 0, -5000}, mgl32.Vec3{16, 256, -4984}, false},
	}
	for _, tc := range cases {
		if got := f.Intersects(tc.lo, tc.hi); got != tc.want {
			t.Fatalf("%s: Intersects = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHeadlessMeshRecordsActivity(t *testing.T) {
	var stats HeadlessStats
	factory := HeadlessFactory(&stats)
	m := factory().(*HeadlessMesh)

	m.Draw()
	if m.Draws != 0 {
		t.Fatal("drawing an empty mesh should be a no-op")
	}

	m.Upload(make([]mesher.Vertex, 8), make([]uint32, 12), true)
	m.Draw()
	if m.Uploads != 1 || m.Draws != 1 || !m.Dynamic || m.IndexCount != 12 {
		t.Fatalf("unexpected mesh record %+v", m)
	}
	if stats.DrawnQuads.Load() != 2 || stats.Live.Load() != 1 {
		t.Fatalf("unexpected stats: quads=%d live=%d", stats.DrawnQuads.Load(), stats.Live.Load())
	}

	m.Release()
	m.Release()
	m.Draw()
	if stats.Live.Load() != 0 || m.Draws != 1 {
		t.Fatal("released mesh should not draw or double count")
	}
}
