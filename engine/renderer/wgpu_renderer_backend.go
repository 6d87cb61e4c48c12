package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// storageBuffer is a growable GPU storage buffer.
type storageBuffer struct {
	buf      *wgpu.Buffer
	capacity uint64
}

type wgpuSlot struct {
	nodes     storageBuffer
	triangles storageBuffer
	materials storageBuffer
}

type wgpuRendererBackendImpl struct {
	label string

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	slots     map[int]*wgpuSlot
	tlasNodes storageBuffer
	instances storageBuffer
	lights    storageBuffer
}

// wgpuRendererBackend is the WebGPU RendererBackend. It is headless: the path tracer
// that consumes the buffers owns any surface.
type wgpuRendererBackend interface {
	RendererBackend
	Device() *wgpu.Device
	Queue() *wgpu.Queue
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(label string, forceFallbackAdapter bool) wgpuRendererBackend {
	w := &wgpuRendererBackendImpl{
		label:    label,
		instance: wgpu.CreateInstance(nil),
		slots:    make(map[int]*wgpuSlot),
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: label + " Device",
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()
	return w
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

// write grows sb to fit data if needed and writes data at offset 0. Empty data is skipped.
func (b *wgpuRendererBackendImpl) write(sb *storageBuffer, label string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	size := uint64(len(data))
	if sb.buf == nil || sb.capacity < size {
		if sb.buf != nil {
			sb.buf.Release()
			sb.buf = nil
		}
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            b.label + " " + label,
			Size:             size,
			Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s buffer: %w", label, err)
		}
		sb.buf = buf
		sb.capacity = size
	}
	return b.queue.WriteBuffer(sb.buf, 0, data)
}

func (sb *storageBuffer) release() {
	if sb.buf != nil {
		sb.buf.Release()
		sb.buf = nil
		sb.capacity = 0
	}
}

func (b *wgpuRendererBackendImpl) slot(slot int) *wgpuSlot {
	s, ok := b.slots[slot]
	if !ok {
		s = &wgpuSlot{}
		b.slots[slot] = s
	}
	return s
}

func (b *wgpuRendererBackendImpl) WriteMeshData(slot int, nodes, triangles []byte) error {
	s := b.slot(slot)
	if err := b.write(&s.nodes, fmt.Sprintf("Mesh %d BVH Buffer", slot), nodes); err != nil {
		return err
	}
	return b.write(&s.triangles, fmt.Sprintf("Mesh %d Triangle Buffer", slot), triangles)
}

func (b *wgpuRendererBackendImpl) WriteMaterials(slot int, materials []byte) error {
	return b.write(&b.slot(slot).materials, fmt.Sprintf("Mesh %d Material Buffer", slot), materials)
}

func (b *wgpuRendererBackendImpl) FreeSlot(slot int) {
	s, ok := b.slots[slot]
	if !ok {
		return
	}
	s.nodes.release()
	s.triangles.release()
	s.materials.release()
	delete(b.slots, slot)
}

func (b *wgpuRendererBackendImpl) WriteTopLevel(nodes, instances []byte) error {
	if err := b.write(&b.tlasNodes, "TLAS Buffer", nodes); err != nil {
		return err
	}
	return b.write(&b.instances, "Instance Buffer", instances)
}

func (b *wgpuRendererBackendImpl) WriteLights(lights []byte) error {
	return b.write(&b.lights, "Light Buffer", lights)
}

func (b *wgpuRendererBackendImpl) Release() {
	for slot := range b.slots {
		b.FreeSlot(slot)
	}
	b.tlasNodes.release()
	b.instances.release()
	b.lights.release()
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
