package instance

import (
	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// HandleBuilderOption is a function that configures a Handle during construction.
type HandleBuilderOption func(*handle)

// WithParent sets the initial CurrentParent.
//
// Parameters:
//   - g: the source group
//
// Returns:
//   - HandleBuilderOption: a function that applies the parent option to a handle
func WithParent(g *geometry.Group) HandleBuilderOption {
	return func(h *handle) {
		h.current = g
	}
}

// WithTransform sets the initial object-to-world matrix.
//
// Parameters:
//   - m: the matrix
//
// Returns:
//   - HandleBuilderOption: a function that applies the transform option to a handle
func WithTransform(m mgl32.Mat4) HandleBuilderOption {
	return func(h *handle) {
		h.transform = m
	}
}

// WithTracker sets the Tracker that receives the handle's events.
//
// Parameters:
//   - t: the tracker
//
// Returns:
//   - HandleBuilderOption: a function that applies the tracker option to a handle
func WithTracker(t Tracker) HandleBuilderOption {
	return func(h *handle) {
		h.tracker = t
	}
}
