package geometry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, shift float32, opts ...record.RecordBuilderOption) record.Record {
	t.Helper()
	mesh := record.Mesh{
		Name:      "tri",
		Positions: [][3]float32{{shift, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Submeshes: []record.Submesh{{Indices: []uint32{0, 1, 2}}},
	}
	r, err := record.NewRecord(mesh, []material.HostMaterial{&material.StaticHostMaterial{MaterialName: "M", Shader: "Standard"}}, opts...)
	require.NoError(t, err)
	return r
}

func TestFingerprintIgnoresTransform(t *testing.T) {
	a := newRecord(t, 0)
	b := newRecord(t, 0, record.WithTransform(mgl32.Translate3D(5, 0, 0)))
	c := newRecord(t, 0.5)

	assert.Equal(t, FingerprintOf(a), FingerprintOf(b))
	assert.NotEqual(t, FingerprintOf(a), FingerprintOf(c))

	require.NoError(t, b.EditSubmesh(0, func(sm *material.SubmeshMaterial) { sm.Roughness = 0.9 }))
	assert.NotEqual(t, FingerprintOf(a), FingerprintOf(b))
	assert.Len(t, FingerprintOf(a).String(), 16)
}

func TestSameContentComparesWhatTheFingerprintHashes(t *testing.T) {
	a := newRecord(t, 0)
	b := newRecord(t, 0, record.WithTransform(mgl32.Translate3D(5, 0, 0)))
	assert.True(t, SameContent(a, b))
	assert.False(t, SameContent(a, newRecord(t, 0.5)))

	require.NoError(t, b.SetFollow(0, false))
	assert.True(t, SameContent(a, b), "follow flags are not content")

	require.NoError(t, b.EditSubmesh(0, func(sm *material.SubmeshMaterial) { sm.Metallic = 1 }))
	assert.False(t, SameContent(a, b))
}

func TestRekey(t *testing.T) {
	a := newRecord(t, 0)
	g := NewGroup(FingerprintOf(a))
	require.NoError(t, a.EditSubmesh(0, func(sm *material.SubmeshMaterial) { sm.Roughness = 0.4 }))
	assert.NotEqual(t, FingerprintOf(a), g.Fingerprint())

	g.Rekey(FingerprintOf(a))
	assert.Equal(t, FingerprintOf(a), g.Fingerprint())
}

func TestGroupMembersAndReferences(t *testing.T) {
	a, b := newRecord(t, 0), newRecord(t, 0)
	g := NewGroup(FingerprintOf(a))
	assert.Equal(t, -1, g.MeshDataIndex())
	assert.True(t, g.Orphaned())
	assert.Nil(t, g.Lead())

	assert.True(t, g.AddMember(a))
	assert.False(t, g.AddMember(a))
	assert.True(t, g.AddMember(b))
	assert.Equal(t, a, g.Lead())
	assert.Equal(t, 2, g.MemberCount())

	assert.Equal(t, 1, g.AddReference())
	assert.Equal(t, 0, g.ReleaseReference())
	assert.Equal(t, 0, g.ReleaseReference())

	assert.True(t, g.RemoveMember(a))
	assert.False(t, g.RemoveMember(a))
	assert.Equal(t, b, g.Lead())
	assert.True(t, g.RemoveMember(b))
	assert.True(t, g.Orphaned())
}

func TestGroupGenerationGuardsApply(t *testing.T) {
	g := NewGroup(1)
	gen := g.MarkDirty()
	assert.True(t, g.NeedsRebuild())

	stale := gen
	gen = g.MarkDirty()
	_, ok := g.Apply(stale, &accel.BottomLevel{}, 3)
	assert.False(t, ok)
	assert.True(t, g.NeedsRebuild())

	prev, ok := g.Apply(gen, &accel.BottomLevel{}, 3)
	require.True(t, ok)
	assert.Equal(t, -1, prev)
	assert.False(t, g.NeedsRebuild())
	assert.Equal(t, 3, g.MeshDataIndex())
	assert.NotNil(t, g.BLAS())

	slot, ok := g.Destroy()
	assert.True(t, ok)
	assert.Equal(t, 3, slot)
	assert.False(t, g.Current(gen))
	_, ok = g.Destroy()
	assert.False(t, ok)
	assert.True(t, g.Destroyed())
	assert.Nil(t, g.BLAS())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	r := newRecord(t, 0)
	g := NewGroup(FingerprintOf(r))
	g.AddMember(r)
	gen := g.MarkDirty()

	snap, err := g.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, g.ID(), snap.GroupID)
	assert.Equal(t, gen, snap.Generation)
	require.Len(t, snap.Mesh.Positions, 3)
	require.Len(t, snap.Materials, 1)

	r.Mesh().Positions[1][0] = 42
	r.Mesh().Submeshes[0].Indices[0] = 2
	assert.Equal(t, float32(1), snap.Mesh.Positions[1][0])
	assert.Equal(t, uint32(0), snap.Mesh.Submeshes[0].Indices[0])

	pos, subs := snap.Geometry()
	assert.Len(t, pos, 3)
	assert.Len(t, subs, 1)

	empty, err := NewGroup(2).Snapshot()
	require.NoError(t, err)
	assert.Empty(t, empty.Mesh.Positions)
}
