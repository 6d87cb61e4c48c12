package geometry

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
)

// Fingerprint identifies geometrically identical, material-identical records.
// Records with equal fingerprints share one group.
type Fingerprint uint64

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// FingerprintOf hashes a record's positions, submesh indices and topology, and each
// submesh's material name and parameters as they are at the time of the call.
// Transforms are not part of the fingerprint.
//
// Parameters:
//   - r: the record
//
// Returns:
//   - Fingerprint: the record's fingerprint
func FingerprintOf(r record.Record) Fingerprint {
	h := fnv.New64a()
	var buf [8]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		h.Write(buf[:4])
	}
	putF32 := func(v float32) {
		putU32(math.Float32bits(v))
	}

	mesh := r.Mesh()
	putU32(uint32(len(mesh.Positions)))
	for _, p := range mesh.Positions {
		putF32(p[0])
		putF32(p[1])
		putF32(p[2])
	}
	putU32(uint32(len(mesh.Submeshes)))
	for _, s := range mesh.Submeshes {
		putU32(uint32(s.Topology))
		putU32(uint32(len(s.Indices)))
		for _, idx := range s.Indices {
			putU32(idx)
		}
	}
	for _, sm := range r.Submeshes() {
		h.Write([]byte(sm.Name))
		h.Write([]byte{0})
		hashMaterial(sm, putU32, putF32)
	}
	return Fingerprint(h.Sum64())
}

func hashMaterial(sm material.SubmeshMaterial, putU32 func(uint32), putF32 func(float32)) {
	putU32(uint32(sm.Type))
	for _, v := range [...]float32{
		sm.BaseColor[0], sm.BaseColor[1], sm.BaseColor[2],
		sm.Emission, sm.EmissionColor[0], sm.EmissionColor[1], sm.EmissionColor[2],
		sm.Roughness, sm.Metallic, sm.IOR, sm.Specular, sm.SpecularTint,
		sm.Sheen, sm.SheenTint, sm.ClearCoat, sm.ClearCoatGloss, sm.Anisotropic,
		sm.Flatness, sm.DiffTrans, sm.SpecTrans,
		sm.TransmissionColor[0], sm.TransmissionColor[1], sm.TransmissionColor[2],
		sm.ScatterDist,
	} {
		putF32(v)
	}
	putU32(uint32(sm.Thin))
}

// SameContent reports whether a and b have identical geometry and submesh parameters,
// the inputs FingerprintOf hashes. Equal fingerprints with different content are
// collisions and must not share a group.
//
// Parameters:
//   - a: the first record
//   - b: the second record
//
// Returns:
//   - bool: true if the records could share one structure
func SameContent(a, b record.Record) bool {
	if a == b {
		return true
	}
	ma, mb := a.Mesh(), b.Mesh()
	if !slices.Equal(ma.Positions, mb.Positions) {
		return false
	}
	if !slices.EqualFunc(ma.Submeshes, mb.Submeshes, func(x, y record.Submesh) bool {
		return x.Topology == y.Topology && slices.Equal(x.Indices, y.Indices)
	}) {
		return false
	}
	return slices.EqualFunc(a.Submeshes(), b.Submeshes(), func(x, y material.SubmeshMaterial) bool {
		x.FollowMaterial, y.FollowMaterial = false, false
		return x == y
	})
}
