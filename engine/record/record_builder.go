package record

import (
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/go-gl/mathgl/mgl32"
)

// RecordBuilderOption is a function that configures a Record during construction.
type RecordBuilderOption func(*record)

// WithName overrides the display name, which defaults to the mesh name.
//
// Parameters:
//   - name: the display name
//
// Returns:
//   - RecordBuilderOption: a function that applies the name option to a record
func WithName(name string) RecordBuilderOption {
	return func(r *record) {
		r.name = name
	}
}

// WithTransform sets the initial object-to-world matrix.
//
// Parameters:
//   - m: the matrix
//
// Returns:
//   - RecordBuilderOption: a function that applies the transform option to a record
func WithTransform(m mgl32.Mat4) RecordBuilderOption {
	return func(r *record) {
		r.transform = m
	}
}

// WithMaterialTable applies the table to every following submesh on creation.
//
// Parameters:
//   - t: the material table
//
// Returns:
//   - RecordBuilderOption: a function that applies the table option to a record
func WithMaterialTable(t material.Table) RecordBuilderOption {
	return func(r *record) {
		r.table = t
	}
}

// WithSubmeshMaterials supplies authored parameters instead of the defaults.
// The slice must hold one entry per traced submesh.
//
// Parameters:
//   - params: the authored parameters
//
// Returns:
//   - RecordBuilderOption: a function that applies the parameters option to a record
func WithSubmeshMaterials(params []material.SubmeshMaterial) RecordBuilderOption {
	return func(r *record) {
		r.authored = params
	}
}
