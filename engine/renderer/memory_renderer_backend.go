package renderer

import (
	"slices"
	"sync"
)

// MemoryBackend is a RendererBackend that keeps copies of every written buffer.
type MemoryBackend struct {
	mu *sync.RWMutex

	nodes     map[int][]byte
	triangles map[int][]byte
	materials map[int][]byte
	tlasNodes []byte
	instances []byte
	lights    []byte
	released  bool
}

var _ RendererBackend = &MemoryBackend{}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		mu:        &sync.RWMutex{},
		nodes:     make(map[int][]byte),
		triangles: make(map[int][]byte),
		materials: make(map[int][]byte),
	}
}

func (m *MemoryBackend) WriteMeshData(slot int, nodes, triangles []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[slot] = slices.Clone(nodes)
	m.triangles[slot] = slices.Clone(triangles)
	return nil
}

func (m *MemoryBackend) WriteMaterials(slot int, materials []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materials[slot] = slices.Clone(materials)
	return nil
}

func (m *MemoryBackend) FreeSlot(slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, slot)
	delete(m.triangles, slot)
	delete(m.materials, slot)
}

func (m *MemoryBackend) WriteTopLevel(nodes, instances []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tlasNodes = slices.Clone(nodes)
	m.instances = slices.Clone(instances)
	return nil
}

func (m *MemoryBackend) WriteLights(lights []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lights = slices.Clone(lights)
	return nil
}

func (m *MemoryBackend) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
	clear(m.nodes)
	clear(m.triangles)
	clear(m.materials)
}

// MeshData returns the node and triangle bytes of a slot.
func (m *MemoryBackend) MeshData(slot int) ([]byte, []byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[slot]
	return n, m.triangles[slot], ok
}

// Materials returns the material bytes of a slot.
func (m *MemoryBackend) Materials(slot int) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.materials[slot]
	return b, ok
}

// TopLevel returns the last written top-level node and instance bytes.
func (m *MemoryBackend) TopLevel() ([]byte, []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tlasNodes, m.instances
}

// Lights returns the last written light bytes.
func (m *MemoryBackend) Lights() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lights
}

// Released reports whether Release was called.
func (m *MemoryBackend) Released() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.released
}
