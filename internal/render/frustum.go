package render

import "github.com/go-gl/mathgl/mgl32"

// Frustum is six normalized planes (a, b, c, d) with inside meaning
// a*x + b*y + c*z + d >= 0.
type Frustum struct {
	planes [6]mgl32.Vec4
}

// FrustumFromCamera builds a frustum from the camera's current matrices.
func FrustumFromCamera(cam *Camera) *Frustum {
	f := &Frustum{}
	f.Update(cam.ViewProjection())
	return f
}

// Update extracts the planes from a projection*view matrix.
func (f *Frustum) Update(projView mgl32.Mat4) {
	r0, r1, r2, r3 := projView.Row(0), projView.Row(1), projView.Row(2), projView.Row(3)
	f.planes = [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}
	for i, p := range f.planes {
		length := p.Vec3().Len()
		if length > 0 {
			f.planes[i] = p.Mul(1 / length)
		}
	}
}

// Intersects reports whether the AABB is at least partly inside. For each
// plane it tests the box corner furthest along the plane normal.
func (f *Frustum) Intersects(lo, hi mgl32.Vec3) bool {
	for _, p := range f.planes {
		v := lo
		if p.X() >= 0 {
			v[0] = hi.X()
		}
		if p.Y() >= 0 {
			v[1] = hi.Y()
		}
		if p.Z() >= 0 {
			v[2] = hi.Z()
		}
		if p.Vec3().Dot(v)+p.W() < 0 {
			return false
		}
	}
	return true
}
