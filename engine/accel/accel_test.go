package accel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grid returns n unit quads laid out along +X, two triangles each.
func grid(n int) ([][3]float32, []SubmeshGeometry) {
	var pos [][3]float32
	var idx []uint32
	for i := range n {
		x := float32(i * 2)
		base := uint32(len(pos))
		pos = append(pos, [3]float32{x, 0, 0}, [3]float32{x + 1, 0, 0}, [3]float32{x + 1, 1, 0}, [3]float32{x, 1, 0})
		idx = append(idx, base, base+1, base+2, base, base+2, base+3)
	}
	return pos, []SubmeshGeometry{{Indices: idx}}
}

func TestAABB(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.Empty())
	assert.Equal(t, mgl32.Vec3{}, b.Extent())

	b = b.Grow(mgl32.Vec3{0, 0, 0}).Grow(mgl32.Vec3{4, 2, 1})
	assert.False(t, b.Empty())
	assert.Equal(t, 0, b.LongestAxis())
	assert.Equal(t, mgl32.Vec3{2, 1, 0.5}, b.Centroid())
	assert.InDelta(t, 2*(8+2+4), b.SurfaceArea(), 1e-5)

	moved := b.Transform(mgl32.Translate3D(10, 0, 0))
	assert.InDelta(t, 10, moved.Min[0], 1e-5)
	assert.InDelta(t, 14, moved.Max[0], 1e-5)

	assert.Equal(t, b, b.Union(EmptyAABB()))
}

func TestBuildBottomLevelCoversEveryTriangle(t *testing.T) {
	pos, subs := grid(16)
	blas, err := BuildBottomLevel(pos, subs, 2)
	require.NoError(t, err)
	assert.Equal(t, 32, blas.TriangleCount())

	seen := 0
	for _, n := range blas.Nodes {
		if !n.Leaf() {
			continue
		}
		assert.LessOrEqual(t, int(n.Count), 2)
		for _, tri := range blas.Triangles[n.LeftFirst : n.LeftFirst+n.Count] {
			tb := tri.Bounds()
			assert.True(t, n.Bounds.Min[0] <= tb.Min[0] && tb.Max[0] <= n.Bounds.Max[0])
		}
		seen += int(n.Count)
	}
	assert.Equal(t, 32, seen)
	assert.InDelta(t, 31, blas.Bounds().Max[0], 1e-5)
}

func TestBuildBottomLevelDegenerate(t *testing.T) {
	_, err := BuildBottomLevel(nil, nil, 0)
	assert.ErrorIs(t, err, ErrDegenerate)

	flat := [][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	_, err = BuildBottomLevel(flat, []SubmeshGeometry{{Indices: []uint32{0, 1, 2}}}, 0)
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = BuildBottomLevel(flat, []SubmeshGeometry{{Indices: []uint32{0, 1, 9}}}, 0)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestBuildTopLevel(t *testing.T) {
	assert.Empty(t, BuildTopLevel(nil).Instances)
	assert.True(t, BuildTopLevel(nil).Bounds().Empty())

	pos, subs := grid(1)
	blas, err := BuildBottomLevel(pos, subs, 0)
	require.NoError(t, err)

	var insts []Instance
	for i := range 5 {
		insts = append(insts, NewInstance(uint64(i), i, blas, mgl32.Translate3D(float32(i*10), 0, 0)))
	}
	tlas := BuildTopLevel(insts)
	assert.Len(t, tlas.Instances, 5)
	assert.InDelta(t, 41, tlas.Bounds().Max[0], 1e-5)
	assert.Len(t, tlas.MarshalInstances(), 5*144)
}

func TestGPULayouts(t *testing.T) {
	n := GPUBVHNode{}
	tri := GPUTriangle{}
	inst := GPUInstance{}
	assert.Equal(t, 32, n.Size())
	assert.Equal(t, 48, tri.Size())
	assert.Equal(t, 144, inst.Size())
	assert.Len(t, n.Marshal(), n.Size())
	assert.Len(t, tri.Marshal(), tri.Size())
	assert.Len(t, inst.Marshal(), inst.Size())

	pos, subs := grid(2)
	blas, err := BuildBottomLevel(pos, subs, 0)
	require.NoError(t, err)
	assert.Len(t, MarshalNodes(blas.Nodes), len(blas.Nodes)*32)
	assert.Len(t, blas.MarshalTriangles(), 4*48)
}
