package scene

import (
	"planet-viewer/math"
)

// Camera is a perspective camera aimed at a target point.
type Camera struct {
	Position    math.Vec3
	Target      math.Vec3
	Up          math.Vec3
	FOV         float32 // vertical, radians
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	viewMatrix       math.Mat4
	projectionMatrix math.Mat4
	viewProjMatrix   math.Mat4
	dirty            bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Position:    math.Vec3{Z: 5},
		Target:      math.Vec3Zero,
		Up:          math.Vec3Up,
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
		c.dirty = true
	}
}

func (c *Camera) SetPosition(pos math.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) LookAt(target, up math.Vec3) {
	c.Target = target
	c.Up = up
	c.dirty = true
}

func (c *Camera) GetViewMatrix() math.Mat4 {
	c.updateMatrices()
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() math.Mat4 {
	c.updateMatrices()
	return c.projectionMatrix
}

// GetViewProjectionMatrix returns view * projection for row vectors.
func (c *Camera) GetViewProjectionMatrix() math.Mat4 {
	c.updateMatrices()
	return c.viewProjMatrix
}

// Project maps a world position to normalized device coordinates. ok is
// false when the point is behind the camera.
func (c *Camera) Project(world math.Vec3) (ndc math.Vec3, ok bool) {
	clip := c.GetViewProjectionMatrix().MulVec(world.ToVec4(1))
	if clip.W <= 0 {
		return math.Vec3{}, false
	}
	return clip.ToVec3DivW(), true
}

func (c *Camera) updateMatrices() {
	if !c.dirty {
		return
	}
	c.viewMatrix = math.Mat4LookAt(c.Position, c.Target, c.Up)
	c.projectionMatrix = math.Mat4Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
	c.viewProjMatrix = c.viewMatrix.Mul(c.projectionMatrix)
	c.dirty = false
}
