package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of a single light source.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 64 bytes (std430 / WGSL aligned).
type GPULight struct {
	Position  [3]float32 // offset  0: world-space position (point/spot)
	LightType uint32     // offset 12: 0 = point, 1 = directional, 2 = spot
	Radiance  [3]float32 // offset 16: color * intensity
	Energy    float32    // offset 28: luminance of Radiance, used for light selection
	Direction [3]float32 // offset 32: toward the light (directional) or cone axis (spot)
	_pad0     float32    // offset 44
	SpotAngle [2]float32 // offset 48: falloff scale and bias for spot lights
	_pad1     [2]float32 // offset 56: padding to 64-byte alignment
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Radiance[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Radiance[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Radiance[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Energy))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.SpotAngle[0]))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.SpotAngle[1]))
	return buf
}

// MarshalLights packs a light list for upload.
//
// Parameters:
//   - lights: the packed lights
//
// Returns:
//   - []byte: len(lights)*64 bytes
func MarshalLights(lights []GPULight) []byte {
	out := make([]byte, 0, len(lights)*64)
	for i := range lights {
		out = append(out, lights[i].Marshal()...)
	}
	return out
}
