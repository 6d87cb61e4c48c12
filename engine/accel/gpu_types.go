package accel

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUBVHNodeSource is the canonical WGSL definition of the BvhNode struct.
// Matches GPUBVHNode layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/bvh_node.wgsl
var GPUBVHNodeSource string

// GPUBVHNode is the GPU-aligned representation of one BVHNode.
// Size: 32 bytes (std430 / WGSL aligned).
type GPUBVHNode struct {
	Min       [3]float32 // offset  0
	LeftFirst uint32     // offset 12: left child index (interior) or first primitive (leaf)
	Max       [3]float32 // offset 16
	Count     uint32     // offset 28: 0 for interior nodes
}

// Size returns the size of the GPUBVHNode struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUBVHNode) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBVHNode struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUBVHNode) Marshal() []byte {
	buf := make([]byte, 32)
	putVec3(buf[0:12], g.Min)
	binary.LittleEndian.PutUint32(buf[12:16], g.LeftFirst)
	putVec3(buf[16:28], g.Max)
	binary.LittleEndian.PutUint32(buf[28:32], g.Count)
	return buf
}

// GPUTriangleSource is the canonical WGSL definition of the Triangle struct.
// Matches GPUTriangle layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/triangle.wgsl
var GPUTriangleSource string

// GPUTriangle is the GPU-aligned representation of one merged triangle.
// Size: 48 bytes (std430 / WGSL aligned).
type GPUTriangle struct {
	V0      [3]float32 // offset  0
	Submesh uint32     // offset 12: index into the group's material range
	V1      [3]float32 // offset 16
	_pad0   uint32     // offset 28
	V2      [3]float32 // offset 32
	_pad1   uint32     // offset 44
}

// Size returns the size of the GPUTriangle struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUTriangle) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUTriangle struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPUTriangle) Marshal() []byte {
	buf := make([]byte, 48)
	putVec3(buf[0:12], g.V0)
	binary.LittleEndian.PutUint32(buf[12:16], g.Submesh)
	putVec3(buf[16:28], g.V1)
	putVec3(buf[32:44], g.V2)
	return buf
}

// GPUInstanceSource is the canonical WGSL definition of the Instance struct.
// Matches GPUInstance layout exactly (144 bytes, std430 aligned).
//
//go:embed assets/instance.wgsl
var GPUInstanceSource string

// GPUInstance is the GPU-aligned representation of one top-level instance.
// Size: 144 bytes (std430 / WGSL aligned).
type GPUInstance struct {
	Transform        [16]float32 // offset   0: column-major object-to-world
	InverseTransform [16]float32 // offset  64: column-major world-to-object
	MeshDataIndex    int32       // offset 128: slot in the compacted mesh-data buffer
	_pad             [3]uint32   // offset 132: padding to 144-byte alignment
}

// Size returns the size of the GPUInstance struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 144-byte buffer ready for GPU upload
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, 144)
	for i := range 16 {
		putF32(buf[i*4:i*4+4], g.Transform[i])
		putF32(buf[64+i*4:64+i*4+4], g.InverseTransform[i])
	}
	binary.LittleEndian.PutUint32(buf[128:132], uint32(g.MeshDataIndex))
	return buf
}

// MarshalNodes packs BVH nodes for upload.
func MarshalNodes(nodes []BVHNode) []byte {
	out := make([]byte, 0, len(nodes)*32)
	for _, n := range nodes {
		g := GPUBVHNode{Min: n.Bounds.Min, LeftFirst: n.LeftFirst, Max: n.Bounds.Max, Count: n.Count}
		out = append(out, g.Marshal()...)
	}
	return out
}

// MarshalTriangles packs a structure's triangles for upload.
func (b *BottomLevel) MarshalTriangles() []byte {
	out := make([]byte, 0, len(b.Triangles)*48)
	for _, t := range b.Triangles {
		g := GPUTriangle{V0: t.V0, V1: t.V1, V2: t.V2, Submesh: t.Submesh}
		out = append(out, g.Marshal()...)
	}
	return out
}

// MarshalInstances packs the top-level instances for upload.
func (t *TopLevel) MarshalInstances() []byte {
	out := make([]byte, 0, len(t.Instances)*144)
	for _, inst := range t.Instances {
		g := GPUInstance{
			Transform:        inst.Transform,
			InverseTransform: inverse(inst.Transform),
			MeshDataIndex:    int32(inst.MeshDataIndex),
		}
		out = append(out, g.Marshal()...)
	}
	return out
}

func inverse(m mgl32.Mat4) mgl32.Mat4 {
	if m.Det() == 0 {
		return mgl32.Ident4()
	}
	return m.Inv()
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func putVec3(b []byte, v [3]float32) {
	putF32(b[0:4], v[0])
	putF32(b[4:8], v[1])
	putF32(b[8:12], v[2])
}
