package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (112 bytes, std430 aligned).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterial is the GPU-aligned representation of one submesh's shading parameters.
// Matches the WGSL Material struct layout exactly (see GPUMaterialSource).
// Size: 112 bytes (std430 / WGSL aligned).
type GPUMaterial struct {
	BaseColor         [3]float32 // offset   0
	MaterialType      uint32     // offset  12: MaterialType enum value
	EmissionColor     [3]float32 // offset  16
	Emission          float32    // offset  28
	Roughness         float32    // offset  32
	Metallic          float32    // offset  36
	IOR               float32    // offset  40
	Specular          float32    // offset  44
	SpecularTint      float32    // offset  48
	Sheen             float32    // offset  52
	SheenTint         float32    // offset  56
	ClearCoat         float32    // offset  60
	ClearCoatGloss    float32    // offset  64
	Anisotropic       float32    // offset  68
	Flatness          float32    // offset  72
	DiffTrans         float32    // offset  76
	TransmissionColor [3]float32 // offset  80
	SpecTrans         float32    // offset  92
	Thin              int32      // offset  96
	ScatterDist       float32    // offset 100
	_pad              [2]uint32  // offset 104: padding to 112-byte alignment
}

// NewGPUMaterial packs submesh parameters into their GPU layout.
//
// Parameters:
//   - sm: the submesh parameters
//
// Returns:
//   - GPUMaterial: the packed material
func NewGPUMaterial(sm SubmeshMaterial) GPUMaterial {
	return GPUMaterial{
		BaseColor:         sm.BaseColor,
		MaterialType:      uint32(sm.Type),
		EmissionColor:     sm.EmissionColor,
		Emission:          sm.Emission,
		Roughness:         sm.Roughness,
		Metallic:          sm.Metallic,
		IOR:               sm.IOR,
		Specular:          sm.Specular,
		SpecularTint:      sm.SpecularTint,
		Sheen:             sm.Sheen,
		SheenTint:         sm.SheenTint,
		ClearCoat:         sm.ClearCoat,
		ClearCoatGloss:    sm.ClearCoatGloss,
		Anisotropic:       sm.Anisotropic,
		Flatness:          sm.Flatness,
		DiffTrans:         sm.DiffTrans,
		TransmissionColor: sm.TransmissionColor,
		SpecTrans:         sm.SpecTrans,
		Thin:              sm.Thin,
		ScatterDist:       sm.ScatterDist,
	}
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, 112)
	putVec3(buf[0:12], g.BaseColor)
	binary.LittleEndian.PutUint32(buf[12:16], g.MaterialType)
	putVec3(buf[16:28], g.EmissionColor)
	putF32(buf[28:32], g.Emission)
	putF32(buf[32:36], g.Roughness)
	putF32(buf[36:40], g.Metallic)
	putF32(buf[40:44], g.IOR)
	putF32(buf[44:48], g.Specular)
	putF32(buf[48:52], g.SpecularTint)
	putF32(buf[52:56], g.Sheen)
	putF32(buf[56:60], g.SheenTint)
	putF32(buf[60:64], g.ClearCoat)
	putF32(buf[64:68], g.ClearCoatGloss)
	putF32(buf[68:72], g.Anisotropic)
	putF32(buf[72:76], g.Flatness)
	putF32(buf[76:80], g.DiffTrans)
	putVec3(buf[80:92], g.TransmissionColor)
	putF32(buf[92:96], g.SpecTrans)
	binary.LittleEndian.PutUint32(buf[96:100], uint32(g.Thin))
	putF32(buf[100:104], g.ScatterDist)
	return buf
}

// MarshalMaterials packs a flat material table for upload.
//
// Parameters:
//   - mats: submesh parameters in table order
//
// Returns:
//   - []byte: len(mats)*112 bytes
func MarshalMaterials(mats []SubmeshMaterial) []byte {
	out := make([]byte, 0, len(mats)*112)
	for _, sm := range mats {
		g := NewGPUMaterial(sm)
		out = append(out, g.Marshal()...)
	}
	return out
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func putVec3(b []byte, v [3]float32) {
	putF32(b[0:4], v[0])
	putF32(b[4:8], v[1])
	putF32(b[8:12], v[2])
}
