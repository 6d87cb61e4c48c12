package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleBLAS(t *testing.T) *accel.BottomLevel {
	t.Helper()
	blas, err := accel.BuildBottomLevel(
		[][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		[]accel.SubmeshGeometry{{Indices: []uint32{0, 1, 2}}}, 0)
	require.NoError(t, err)
	return blas
}

func TestSlotsAreStableAndRecycled(t *testing.T) {
	mem := NewMemoryBackend()
	r := NewRenderer(BackendTypeMemory, WithBackend(mem))
	blas := triangleBLAS(t)

	a, err := r.UploadGroup(1, blas)
	require.NoError(t, err)
	b, err := r.UploadGroup(2, blas)
	require.NoError(t, err)
	again, err := r.UploadGroup(1, blas)
	require.NoError(t, err)
	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)

	nodes, tris, ok := mem.MeshData(a)
	require.True(t, ok)
	assert.Len(t, nodes, 32)
	assert.Len(t, tris, 48)

	r.ReleaseGroup(1)
	r.ReleaseGroup(1)
	_, ok = r.Slot(1)
	assert.False(t, ok)
	_, _, ok = mem.MeshData(a)
	assert.False(t, ok)

	c, err := r.UploadGroup(3, blas)
	require.NoError(t, err)
	assert.Equal(t, a, c, "freed slot is reused")

	s := r.Stats()
	assert.Equal(t, 4, s.GroupUploads)
	assert.Equal(t, 1, s.Releases)
	assert.Equal(t, 2, s.LiveSlots)
}

func TestUploadMaterialsNeedsSlot(t *testing.T) {
	mem := NewMemoryBackend()
	r := NewRenderer(BackendTypeMemory, WithBackend(mem))
	mats := []material.SubmeshMaterial{material.DefaultSubmeshMaterial("m")}

	assert.Error(t, r.UploadMaterials(9, mats))

	slot, err := r.UploadGroup(9, triangleBLAS(t))
	require.NoError(t, err)
	require.NoError(t, r.UploadMaterials(9, mats))
	data, ok := mem.Materials(slot)
	require.True(t, ok)
	assert.Len(t, data, 112)
	assert.Equal(t, 1, r.Stats().MaterialUploads)
}

func TestUploadTopLevelAndLights(t *testing.T) {
	mem := NewMemoryBackend()
	r := NewRenderer(BackendTypeMemory, WithBackend(mem), WithLabel("test"))
	blas := triangleBLAS(t)

	tlas := accel.BuildTopLevel([]accel.Instance{accel.NewInstance(1, 0, blas, mgl32.Ident4())})
	require.NoError(t, r.UploadTopLevel(tlas))
	nodes, insts := mem.TopLevel()
	assert.Len(t, nodes, 32)
	assert.Len(t, insts, 144)

	require.NoError(t, r.UploadLights([]light.GPULight{light.NewLight(light.LightTypePoint).Pack()}))
	assert.Len(t, mem.Lights(), 64)

	s := r.Stats()
	assert.Equal(t, 1, s.TopLevelUploads)
	assert.Equal(t, 1, s.LightUploads)
	assert.Positive(t, s.BytesWritten)

	r.Release()
	r.Release()
	assert.True(t, mem.Released())
}

func TestDefaultBackendIsMemory(t *testing.T) {
	r := NewRenderer(BackendTypeMemory)
	assert.Equal(t, BackendTypeMemory, r.BackendType())
	assert.IsType(t, &MemoryBackend{}, r.Backend())

	bt, ok := ParseBackendType("wgpu")
	assert.True(t, ok)
	assert.Equal(t, BackendTypeWGPU, bt)
	_, ok = ParseBackendType("vulkan")
	assert.False(t, ok)
	assert.Equal(t, "memory", BackendTypeMemory.String())
}
