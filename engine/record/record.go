package record

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoVertices is returned when the mesh has no vertex positions.
	ErrNoVertices = errors.New("record: mesh has zero vertices")
	// ErrNoSubmeshes is returned when the mesh or the material list is empty.
	ErrNoSubmeshes = errors.New("record: no submeshes")
	// ErrNotTriangles is returned when a used submesh is not a triangle list.
	ErrNotTriangles = errors.New("record: submesh is not triangle topology")
	// ErrIndexOutOfRange is returned when a submesh index references a missing vertex.
	ErrIndexOutOfRange = errors.New("record: index out of range")
	// ErrMissingMaterial is returned when a host material slot is nil.
	ErrMissingMaterial = errors.New("record: missing a material")
	// ErrSubmeshCountMismatch is returned when authored parameters do not match the submesh count.
	ErrSubmeshCountMismatch = errors.New("record: submesh parameter count mismatch")
	// ErrSubmeshIndex is returned when a submesh index is outside the record.
	ErrSubmeshIndex = errors.New("record: submesh index out of range")
)

var nextID atomic.Uint64

type record struct {
	mu *sync.RWMutex

	id        uint64
	name      string
	mesh      Mesh
	hosts     []material.HostMaterial
	params    []material.SubmeshMaterial
	transform mgl32.Mat4
	ready     bool

	table    material.Table
	authored []material.SubmeshMaterial
}

// Record is the per-renderable metadata of one scene object: its mesh, world transform
// and one parameter struct per submesh. A Record only exists fully initialised;
// NewRecord returns an error instead of a partial record. Safe for concurrent use.
type Record interface {
	// ID returns the record's process-unique identity.
	ID() uint64

	// Name returns the display name used in diagnostics.
	Name() string

	// Mesh returns the record's geometry. The returned slices are shared and must not be modified.
	Mesh() Mesh

	// Transform returns the object-to-world matrix.
	Transform() mgl32.Mat4

	// SetTransform sets the object-to-world matrix. Registries pick it up on their
	// next top-level rebuild.
	//
	// Parameters:
	//   - m: the new matrix
	SetTransform(m mgl32.Mat4)

	// SubmeshCount returns the number of traced submeshes.
	SubmeshCount() int

	// Submesh returns a copy of one submesh's parameters.
	//
	// Parameters:
	//   - i: the submesh index
	//
	// Returns:
	//   - material.SubmeshMaterial: the parameters
	//   - error: ErrSubmeshIndex if i is out of range
	Submesh(i int) (material.SubmeshMaterial, error)

	// Submeshes returns a copy of every submesh's parameters.
	Submeshes() []material.SubmeshMaterial

	// SetSubmeshes replaces every submesh's parameters, leaving follow flags as given.
	//
	// Parameters:
	//   - params: one entry per submesh
	//
	// Returns:
	//   - error: ErrSubmeshCountMismatch if the length differs from SubmeshCount
	SetSubmeshes(params []material.SubmeshMaterial) error

	// EditSubmesh applies a direct parameter edit. Editing any submesh unlinks
	// every submesh of the record from its host material.
	//
	// Parameters:
	//   - i: the submesh index
	//   - edit: mutates the submesh's parameters
	//
	// Returns:
	//   - error: ErrSubmeshIndex if i is out of range
	EditSubmesh(i int, edit func(*material.SubmeshMaterial)) error

	// SetFollow links or unlinks one submesh from its host material.
	//
	// Parameters:
	//   - i: the submesh index
	//   - follow: the new FollowMaterial value
	//
	// Returns:
	//   - error: ErrSubmeshIndex if i is out of range
	SetFollow(i int, follow bool) error

	// HostMaterials returns the host materials in submesh order.
	HostMaterials() []material.HostMaterial

	// SetHostMaterial reassigns the host material of one submesh. The new material
	// is not read until the next SyncHostMaterials.
	//
	// Parameters:
	//   - i: the submesh index
	//   - host: the new host material
	//
	// Returns:
	//   - error: ErrSubmeshIndex or ErrMissingMaterial
	SetHostMaterial(i int, host material.HostMaterial) error

	// SyncHostMaterials copies host material properties into every following submesh
	// through the table. Unmapped shaders leave their submesh untouched; the others
	// are still synced.
	//
	// Parameters:
	//   - t: the material table
	//
	// Returns:
	//   - error: joined ErrShaderNotMapped errors, nil if every follower synced
	SyncHostMaterials(t material.Table) error

	// HasFollowers reports whether any submesh follows its host material.
	HasFollowers() bool

	// Ready reports whether the record may be registered.
	Ready() bool

	// Retire marks the record as no longer ready. Hosts call it when the owning
	// object is destroyed.
	Retire()
}

var _ Record = &record{}

// NewRecord validates mesh and host materials and creates a ready Record.
// The traced submesh count is min(len(mesh.Submeshes), len(hosts)).
//
// Parameters:
//   - mesh: the object's geometry
//   - hosts: the host materials, one per submesh
//   - options: functional options
//
// Returns:
//   - Record: the new record
//   - error: a validation error; no record exists in that case
func NewRecord(mesh Mesh, hosts []material.HostMaterial, options ...RecordBuilderOption) (Record, error) {
	r := &record{
		mu:        &sync.RWMutex{},
		name:      mesh.Name,
		transform: mgl32.Ident4(),
	}
	for _, opt := range options {
		opt(r)
	}

	count, err := validate(r.name, mesh, hosts)
	if err != nil {
		return nil, err
	}

	r.mesh = Mesh{Name: mesh.Name, Positions: mesh.Positions, Submeshes: mesh.Submeshes[:count]}
	r.hosts = slices.Clone(hosts[:count])

	if r.authored != nil {
		if len(r.authored) != count {
			return nil, fmt.Errorf("%s: %d parameters for %d submeshes: %w", r.name, len(r.authored), count, ErrSubmeshCountMismatch)
		}
		r.params = slices.Clone(r.authored)
	} else {
		r.params = make([]material.SubmeshMaterial, count)
		for i, h := range r.hosts {
			r.params[i] = material.DefaultSubmeshMaterial(h.Name())
		}
	}
	r.authored = nil

	if r.table != nil {
		if err := r.syncLocked(r.table); err != nil {
			common.Logger().Warn("record created with unmapped materials", "record", r.name, "err", err)
		}
	}

	r.id = nextID.Add(1)
	r.ready = true
	return r, nil
}

func validate(name string, mesh Mesh, hosts []material.HostMaterial) (int, error) {
	if mesh.VertexCount() == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrNoVertices)
	}
	count := min(len(mesh.Submeshes), len(hosts))
	if count == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrNoSubmeshes)
	}
	for i, s := range mesh.Submeshes[:count] {
		if s.Topology != TopologyTriangles || len(s.Indices)%3 != 0 {
			return 0, fmt.Errorf("%s: submesh %d (%s): %w", name, i, s.Topology, ErrNotTriangles)
		}
		for _, idx := range s.Indices {
			if int(idx) >= len(mesh.Positions) {
				return 0, fmt.Errorf("%s: submesh %d index %d: %w", name, i, idx, ErrIndexOutOfRange)
			}
		}
	}
	for i, h := range hosts[:count] {
		if h == nil {
			common.Logger().Warn("object is missing a material and will not be included", "record", name, "submesh", i)
			return 0, fmt.Errorf("%s: submesh %d: %w", name, i, ErrMissingMaterial)
		}
	}
	return count, nil
}

func (r *record) ID() uint64 {
	return r.id
}

func (r *record) Name() string {
	return r.name
}

func (r *record) Mesh() Mesh {
	return r.mesh
}

func (r *record) Transform() mgl32.Mat4 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transform
}

func (r *record) SetTransform(m mgl32.Mat4) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = m
}

func (r *record) SubmeshCount() int {
	return len(r.mesh.Submeshes)
}

func (r *record) Submesh(i int) (material.SubmeshMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.params) {
		return material.SubmeshMaterial{}, fmt.Errorf("%s: submesh %d: %w", r.name, i, ErrSubmeshIndex)
	}
	return r.params[i], nil
}

func (r *record) Submeshes() []material.SubmeshMaterial {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.params)
}

func (r *record) SetSubmeshes(params []material.SubmeshMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(params) != len(r.params) {
		return fmt.Errorf("%s: %d parameters for %d submeshes: %w", r.name, len(params), len(r.params), ErrSubmeshCountMismatch)
	}
	copy(r.params, params)
	return nil
}

func (r *record) EditSubmesh(i int, edit func(*material.SubmeshMaterial)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.params) {
		return fmt.Errorf("%s: submesh %d: %w", r.name, i, ErrSubmeshIndex)
	}
	for j := range r.params {
		r.params[j].FollowMaterial = false
	}
	edit(&r.params[i])
	return nil
}

func (r *record) SetFollow(i int, follow bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.params) {
		return fmt.Errorf("%s: submesh %d: %w", r.name, i, ErrSubmeshIndex)
	}
	r.params[i].FollowMaterial = follow
	return nil
}

func (r *record) HostMaterials() []material.HostMaterial {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.hosts)
}

func (r *record) SetHostMaterial(i int, host material.HostMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.hosts) {
		return fmt.Errorf("%s: submesh %d: %w", r.name, i, ErrSubmeshIndex)
	}
	if host == nil {
		return fmt.Errorf("%s: submesh %d: %w", r.name, i, ErrMissingMaterial)
	}
	r.hosts[i] = host
	r.params[i].Name = host.Name()
	return nil
}

func (r *record) SyncHostMaterials(t material.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncLocked(t)
}

func (r *record) syncLocked(t material.Table) error {
	var errs []error
	for i := range r.params {
		if !r.params[i].FollowMaterial {
			continue
		}
		if err := t.Sync(r.hosts[i], &r.params[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *record) HasFollowers() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.params {
		if p.FollowMaterial {
			return true
		}
	}
	return false
}

func (r *record) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

func (r *record) Retire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = false
}
