package accel

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box. An empty box has Min > Max on every axis.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns a box that contains nothing and grows to fit the first point added.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Empty reports whether the box contains no points.
func (b AABB) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Grow returns the box extended to contain p.
func (b AABB) Grow(p mgl32.Vec3) AABB {
	for i := range 3 {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	if o.Empty() {
		return b
	}
	return b.Grow(o.Min).Grow(o.Max)
}

// Centroid returns the center of the box.
func (b AABB) Centroid() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns Max - Min, or zero for an empty box.
func (b AABB) Extent() mgl32.Vec3 {
	if b.Empty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// SurfaceArea returns the box's surface area.
func (b AABB) SurfaceArea() float32 {
	e := b.Extent()
	return 2 * (e[0]*e[1] + e[1]*e[2] + e[2]*e[0])
}

// LongestAxis returns 0, 1 or 2 for the axis with the largest extent.
func (b AABB) LongestAxis() int {
	e := b.Extent()
	axis := 0
	if e[1] > e[axis] {
		axis = 1
	}
	if e[2] > e[axis] {
		axis = 2
	}
	return axis
}

// Transform returns the world-space box enclosing b's eight corners under m.
//
// Parameters:
//   - m: the object-to-world matrix
//
// Returns:
//   - AABB: the transformed bounds
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.Empty() {
		return b
	}
	out := EmptyAABB()
	for i := range 8 {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Grow(mgl32.TransformCoordinate(corner, m))
	}
	return out
}
