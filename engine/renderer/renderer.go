package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
)

// Stats counts the Renderer's uploads since creation.
type Stats struct {
	GroupUploads    int
	MaterialUploads int
	TopLevelUploads int
	LightUploads    int
	Releases        int
	LiveSlots       int
	BytesWritten    uint64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	slots    map[uint64]int
	freeList []int
	next     int
	stats    Stats
	released bool

	forceFallbackAdapter bool
	label                string
}

// Renderer is the GPU-side sink of the scene registries. It owns the compacted
// mesh-data buffer: each uploaded group gets a slot that stays stable across
// re-uploads and is recycled after ReleaseGroup.
//
// Only the frame's main-thread synchronization pass calls the Renderer.
type Renderer interface {
	// UploadGroup writes a group's structure, reusing the group's slot if it has one.
	//
	// Parameters:
	//   - groupID: the group's ID
	//   - blas: the built structure
	//
	// Returns:
	//   - int: the group's mesh-data slot
	//   - error: an error if the backend write fails
	UploadGroup(groupID uint64, blas *accel.BottomLevel) (int, error)

	// UploadMaterials writes a group's per-submesh parameters into its slot.
	//
	// Parameters:
	//   - groupID: the group's ID
	//   - mats: the parameters in submesh order
	//
	// Returns:
	//   - error: an error if the group has no slot or the write fails
	UploadMaterials(groupID uint64, mats []material.SubmeshMaterial) error

	// ReleaseGroup frees a group's slot. Releasing a group without a slot is a no-op.
	//
	// Parameters:
	//   - groupID: the group's ID
	ReleaseGroup(groupID uint64)

	// Slot returns a group's mesh-data slot.
	//
	// Parameters:
	//   - groupID: the group's ID
	//
	// Returns:
	//   - int: the slot
	//   - bool: false if the group has no slot
	Slot(groupID uint64) (int, bool)

	// UploadTopLevel writes the scene-wide structure.
	//
	// Parameters:
	//   - tlas: the structure
	//
	// Returns:
	//   - error: an error if the write fails
	UploadTopLevel(tlas *accel.TopLevel) error

	// UploadLights writes the light list.
	//
	// Parameters:
	//   - lights: the packed lights
	//
	// Returns:
	//   - error: an error if the write fails
	UploadLights(lights []light.GPULight) error

	// Stats returns the upload counters.
	Stats() Stats

	// BackendType returns the selected backend.
	BackendType() RendererBackendType

	// Backend returns the backend.
	Backend() RendererBackend

	// Release frees the backend. The Renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with the given backend type. A backend supplied with
// WithBackend takes precedence. The WGPU backend panics when no adapter or device is
// available, as GPU initialisation failures are not recoverable.
//
// Parameters:
//   - backendType: the backend to create
//   - options: functional options
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		slots:       make(map[uint64]int),
		label:       "oxy-trace",
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeWGPU:
			r.backend = newWGPURendererBackend(r.label, r.forceFallbackAdapter)
		default:
			r.backend = NewMemoryBackend()
		}
	}
	return r
}

func (r *renderer) UploadGroup(groupID uint64, blas *accel.BottomLevel) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[groupID]
	if !ok {
		slot = r.allocLocked()
	}
	nodes := accel.MarshalNodes(blas.Nodes)
	tris := blas.MarshalTriangles()
	if err := r.backend.WriteMeshData(slot, nodes, tris); err != nil {
		if !ok {
			r.freeList = append(r.freeList, slot)
		}
		return -1, fmt.Errorf("failed to upload group %d: %w", groupID, err)
	}
	r.slots[groupID] = slot
	r.stats.GroupUploads++
	r.stats.BytesWritten += uint64(len(nodes) + len(tris))
	return slot, nil
}

func (r *renderer) allocLocked() int {
	if n := len(r.freeList); n > 0 {
		slot := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		return slot
	}
	slot := r.next
	r.next++
	return slot
}

func (r *renderer) UploadMaterials(groupID uint64, mats []material.SubmeshMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[groupID]
	if !ok {
		return fmt.Errorf("group %d has no mesh-data slot", groupID)
	}
	data := material.MarshalMaterials(mats)
	if err := r.backend.WriteMaterials(slot, data); err != nil {
		return fmt.Errorf("failed to upload materials of group %d: %w", groupID, err)
	}
	r.stats.MaterialUploads++
	r.stats.BytesWritten += uint64(len(data))
	return nil
}

func (r *renderer) ReleaseGroup(groupID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[groupID]
	if !ok {
		return
	}
	delete(r.slots, groupID)
	r.backend.FreeSlot(slot)
	r.freeList = append(r.freeList, slot)
	r.stats.Releases++
}

func (r *renderer) Slot(groupID uint64) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[groupID]
	return slot, ok
}

func (r *renderer) UploadTopLevel(tlas *accel.TopLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes := accel.MarshalNodes(tlas.Nodes)
	insts := tlas.MarshalInstances()
	if err := r.backend.WriteTopLevel(nodes, insts); err != nil {
		return fmt.Errorf("failed to upload top-level structure: %w", err)
	}
	r.stats.TopLevelUploads++
	r.stats.BytesWritten += uint64(len(nodes) + len(insts))
	return nil
}

func (r *renderer) UploadLights(lights []light.GPULight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := light.MarshalLights(lights)
	if err := r.backend.WriteLights(data); err != nil {
		return fmt.Errorf("failed to upload lights: %w", err)
	}
	r.stats.LightUploads++
	r.stats.BytesWritten += uint64(len(data))
	return nil
}

func (r *renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.LiveSlots = len(r.slots)
	return s
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.backend.Release()
}
