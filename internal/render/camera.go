// Package render holds the camera and frustum math plus the GPU mesh contract
// the streamer uploads through.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const maxPitch = 89.0

// Camera is a free-flying perspective camera. Angles are in degrees; yaw 0
// looks down -Z.
type Camera struct {
	position mgl32.Vec3
	pitch    float32
	yaw      float32

	fovY   float32
	aspect float32
	near   float32
	far    float32
}

// NewCamera creates a camera at position with a vertical field of view in
// degrees and a viewport size in pixels.
func NewCamera(position mgl32.Vec3, fovY float32, width, height int) *Camera {
	c := &Camera{
		position: position,
		fovY:     fovY,
		near:     0.1,
		far:      2048,
	}
	c.Resize(width, height)
	return c
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.position = p
}

// SetRotation sets pitch and yaw in degrees. Pitch is clamped short of
// straight up or down.
func (c *Camera) SetRotation(pitch, yaw float32) {
	c.pitch = mgl32.Clamp(pitch, -maxPitch, maxPitch)
	c.yaw = float32(math.Mod(float64(yaw), 360))
}

func (c *Camera) Rotation() (pitch, yaw float32) {
	return c.pitch, c.yaw
}

// Resize updates the aspect ratio. Zero sizes are ignored.
func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl32.Vec3 {
	pitch := mgl32.DegToRad(c.pitch)
	yaw := mgl32.DegToRad(c.yaw)
	cp := float32(math.Cos(float64(pitch)))
	return mgl32.Vec3{
		cp * float32(math.Sin(float64(yaw))),
		float32(math.Sin(float64(pitch))),
		-cp * float32(math.Cos(float64(yaw))),
	}.Normalize()
}

// Right returns the unit vector to the camera's right in the horizontal plane.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Forward().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// Move translates the camera by forward, right and up amounts relative to its
// orientation.
func (c *Camera) Move(forward, right, up float32) {
	c.position = c.position.
		Add(c.Forward().Mul(forward)).
		Add(c.Right().Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.fovY), c.aspect, c.near, c.far)
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}
