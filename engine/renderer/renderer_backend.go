package renderer

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeMemory keeps every buffer in host memory. Used headless and in tests.
	BackendTypeMemory RendererBackendType = iota

	// BackendTypeWGPU writes every buffer to WebGPU storage buffers.
	BackendTypeWGPU
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeMemory:
		return "memory"
	case BackendTypeWGPU:
		return "wgpu"
	}
	return "unknown"
}

// ParseBackendType maps a config string to a RendererBackendType.
//
// Parameters:
//   - s: "memory" or "wgpu"
//
// Returns:
//   - RendererBackendType: the backend type
//   - bool: false if s names no backend
func ParseBackendType(s string) (RendererBackendType, bool) {
	switch s {
	case "memory", "":
		return BackendTypeMemory, true
	case "wgpu", "webgpu":
		return BackendTypeWGPU, true
	}
	return BackendTypeMemory, false
}

// RendererBackend stores packed buffers for the Renderer. The Renderer owns slot
// allocation; backends only place bytes. Backends are called with the Renderer's
// lock held and need no locking of their own.
type RendererBackend interface {
	// WriteMeshData stores the BVH nodes and triangles of one mesh-data slot.
	//
	// Parameters:
	//   - slot: the mesh-data slot
	//   - nodes: packed BVH nodes
	//   - triangles: packed triangles
	//
	// Returns:
	//   - error: an error if the write fails
	WriteMeshData(slot int, nodes, triangles []byte) error

	// WriteMaterials stores the packed submesh materials of one slot.
	//
	// Parameters:
	//   - slot: the mesh-data slot
	//   - materials: packed materials
	//
	// Returns:
	//   - error: an error if the write fails
	WriteMaterials(slot int, materials []byte) error

	// FreeSlot drops the buffers of a slot.
	//
	// Parameters:
	//   - slot: the mesh-data slot
	FreeSlot(slot int)

	// WriteTopLevel stores the scene-wide structure.
	//
	// Parameters:
	//   - nodes: packed BVH nodes
	//   - instances: packed instances
	//
	// Returns:
	//   - error: an error if the write fails
	WriteTopLevel(nodes, instances []byte) error

	// WriteLights stores the packed light list.
	//
	// Parameters:
	//   - lights: packed lights
	//
	// Returns:
	//   - error: an error if the write fails
	WriteLights(lights []byte) error

	// Release frees every resource held by the backend.
	Release()
}
