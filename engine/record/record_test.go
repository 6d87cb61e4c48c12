package record

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad() Mesh {
	return Mesh{
		Name:      "quad",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Submeshes: []Submesh{{Indices: []uint32{0, 1, 2, 0, 2, 3}}},
	}
}

func host(shader string) material.HostMaterial {
	return &material.StaticHostMaterial{
		MaterialName: "Paint",
		Shader:       shader,
		Floats:       map[string]float32{"_Metallic": 0.5},
		Colors:       map[string][4]float32{"_Color": {1, 0, 0, 1}},
	}
}

func TestNewRecordValidation(t *testing.T) {
	tests := []struct {
		name  string
		mesh  func() Mesh
		hosts []material.HostMaterial
		want  error
	}{
		{"zero vertices", func() Mesh { m := quad(); m.Positions = nil; return m }, []material.HostMaterial{host("Standard")}, ErrNoVertices},
		{"no materials", quad, nil, ErrNoSubmeshes},
		{"no submeshes", func() Mesh { m := quad(); m.Submeshes = nil; return m }, []material.HostMaterial{host("Standard")}, ErrNoSubmeshes},
		{"lines", func() Mesh { m := quad(); m.Submeshes[0].Topology = TopologyLines; return m }, []material.HostMaterial{host("Standard")}, ErrNotTriangles},
		{"ragged indices", func() Mesh { m := quad(); m.Submeshes[0].Indices = []uint32{0, 1}; return m }, []material.HostMaterial{host("Standard")}, ErrNotTriangles},
		{"bad index", func() Mesh { m := quad(); m.Submeshes[0].Indices = []uint32{0, 1, 7}; return m }, []material.HostMaterial{host("Standard")}, ErrIndexOutOfRange},
		{"nil material", quad, []material.HostMaterial{nil}, ErrMissingMaterial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRecord(tt.mesh(), tt.hosts)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, r)
		})
	}
}

func TestNewRecordUsesMinimumSubmeshCount(t *testing.T) {
	m := quad()
	m.Submeshes = append(m.Submeshes, Submesh{Indices: []uint32{0, 1}, Topology: TopologyLines})

	r, err := NewRecord(m, []material.HostMaterial{host("Standard")})
	require.NoError(t, err)
	assert.Equal(t, 1, r.SubmeshCount())
	assert.True(t, r.Ready())
	assert.True(t, r.HasFollowers())
	assert.Equal(t, 2, r.Mesh().TriangleCount())

	sm, err := r.Submesh(0)
	require.NoError(t, err)
	assert.Equal(t, "Paint", sm.Name)
	assert.Equal(t, float32(1), sm.IOR)
}

func TestNewRecordAppliesTable(t *testing.T) {
	tbl := material.NewTable(material.DefaultRules()...)
	r, err := NewRecord(quad(), []material.HostMaterial{host(material.ErrorShaderName)},
		WithMaterialTable(tbl), WithName("crate"), WithTransform(mgl32.Translate3D(1, 2, 3)))
	require.NoError(t, err)

	sm, err := r.Submesh(0)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), sm.Metallic)
	assert.Equal(t, [3]float32{1, 0, 0}, sm.BaseColor)
	assert.Equal(t, "crate", r.Name())
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), r.Transform())
}

func TestNewRecordAuthoredParameters(t *testing.T) {
	authored := []material.SubmeshMaterial{material.DefaultSubmeshMaterial("x"), material.DefaultSubmeshMaterial("y")}
	_, err := NewRecord(quad(), []material.HostMaterial{host("Standard")}, WithSubmeshMaterials(authored))
	assert.ErrorIs(t, err, ErrSubmeshCountMismatch)

	r, err := NewRecord(quad(), []material.HostMaterial{host("Standard")}, WithSubmeshMaterials(authored[:1]))
	require.NoError(t, err)
	assert.Equal(t, "x", r.Submeshes()[0].Name)
}

func TestEditSubmeshUnlinksEveryFollower(t *testing.T) {
	m := quad()
	m.Submeshes = append(m.Submeshes, Submesh{Indices: []uint32{1, 2, 3}})
	r, err := NewRecord(m, []material.HostMaterial{host("Standard"), host("Standard")})
	require.NoError(t, err)

	require.NoError(t, r.EditSubmesh(1, func(sm *material.SubmeshMaterial) { sm.Roughness = 0.3 }))
	params := r.Submeshes()
	assert.False(t, params[0].FollowMaterial)
	assert.False(t, params[1].FollowMaterial)
	assert.Equal(t, float32(0.3), params[1].Roughness)
	assert.False(t, r.HasFollowers())

	assert.ErrorIs(t, r.EditSubmesh(5, func(*material.SubmeshMaterial) {}), ErrSubmeshIndex)
}

func TestSyncHostMaterials(t *testing.T) {
	m := quad()
	m.Submeshes = append(m.Submeshes, Submesh{Indices: []uint32{1, 2, 3}})
	r, err := NewRecord(m, []material.HostMaterial{host("Unknown"), host("Standard")})
	require.NoError(t, err)

	err = r.SyncHostMaterials(material.NewTable(material.DefaultRules()...))
	assert.ErrorIs(t, err, material.ErrShaderNotMapped)
	params := r.Submeshes()
	assert.Equal(t, float32(0), params[0].Metallic)
	assert.Equal(t, float32(0.5), params[1].Metallic)

	require.NoError(t, r.SetFollow(0, false))
	assert.NoError(t, r.SyncHostMaterials(material.NewTable(material.DefaultRules()...)))

	assert.ErrorIs(t, r.SetHostMaterial(0, nil), ErrMissingMaterial)
	require.NoError(t, r.SetHostMaterial(0, &material.StaticHostMaterial{MaterialName: "Steel", Shader: "Standard"}))
	assert.Equal(t, "Steel", r.HostMaterials()[0].Name())
	assert.Equal(t, "Steel", r.Submeshes()[0].Name)
}

func TestSetSubmeshesAndRetire(t *testing.T) {
	r, err := NewRecord(quad(), []material.HostMaterial{host("Standard")})
	require.NoError(t, err)

	assert.ErrorIs(t, r.SetSubmeshes(nil), ErrSubmeshCountMismatch)
	p := material.DefaultSubmeshMaterial("z")
	p.Metallic = 1
	require.NoError(t, r.SetSubmeshes([]material.SubmeshMaterial{p}))
	assert.Equal(t, float32(1), r.Submeshes()[0].Metallic)

	other, err := NewRecord(quad(), []material.HostMaterial{host("Standard")})
	require.NoError(t, err)
	assert.NotEqual(t, r.ID(), other.ID())

	r.Retire()
	assert.False(t, r.Ready())
}
