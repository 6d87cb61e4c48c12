package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGPUMaterialLayout(t *testing.T) {
	sm := DefaultSubmeshMaterial("Glass")
	sm.Type = MaterialTypeCutout
	sm.Roughness = 0.5
	sm.Thin = 1
	sm.ScatterDist = 2

	g := NewGPUMaterial(sm)
	buf := g.Marshal()

	assert.Equal(t, 112, g.Size())
	assert.Len(t, buf, g.Size())
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))
	assert.Equal(t, uint32(MaterialTypeCutout), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[32:36])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[40:44])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[96:100]))
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[100:104])))
	assert.NotEmpty(t, GPUMaterialSource)
}

func TestMarshalMaterials(t *testing.T) {
	mats := []SubmeshMaterial{DefaultSubmeshMaterial("a"), DefaultSubmeshMaterial("b")}
	assert.Len(t, MarshalMaterials(mats), 224)
	assert.Empty(t, MarshalMaterials(nil))
}
