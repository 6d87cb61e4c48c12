package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litHost() *StaticHostMaterial {
	return &StaticHostMaterial{
		MaterialName: "Brick",
		Shader:       "Lit",
		Floats:       map[string]float32{"_Metal": 0.25, "_Rough": 0.75},
		Colors:       map[string][4]float32{"_Base": {0.5, 0.4, 0.3, 1}},
	}
}

func TestSyncCopiesBoundProperties(t *testing.T) {
	tbl := NewTable(BindingRule{ShaderName: "Lit", BaseColorValue: "_Base", MetallicRange: "_Metal", RoughnessRange: "_Rough"})
	sm := DefaultSubmeshMaterial("Brick")

	require.NoError(t, tbl.Sync(litHost(), &sm))
	assert.Equal(t, float32(0.25), sm.Metallic)
	assert.Equal(t, float32(0.75), sm.Roughness)
	assert.Equal(t, [3]float32{0.5, 0.4, 0.3}, sm.BaseColor)
}

func TestSyncNullPropertiesAreSkipped(t *testing.T) {
	tbl := NewTable(BindingRule{ShaderName: "Lit", BaseColorValue: NullProperty, MetallicRange: NullProperty, RoughnessRange: "_Rough"})
	sm := DefaultSubmeshMaterial("Brick")
	sm.Metallic = 0.9
	sm.BaseColor = [3]float32{0.1, 0.1, 0.1}

	require.NoError(t, tbl.Sync(litHost(), &sm))
	assert.Equal(t, float32(0.9), sm.Metallic)
	assert.Equal(t, float32(0.75), sm.Roughness)
	assert.Equal(t, [3]float32{1, 1, 1}, sm.BaseColor, "unbound base color resets to white")
}

func TestSyncGlassAndCutoutFlags(t *testing.T) {
	tbl := NewTable(BindingRule{ShaderName: "Lit", IsGlass: true, IsCutout: true})
	sm := DefaultSubmeshMaterial("Brick")

	require.NoError(t, tbl.Sync(litHost(), &sm))
	assert.Equal(t, float32(1), sm.SpecTrans)
	assert.Equal(t, MaterialTypeCutout, sm.Type)
}

func TestSyncUnmappedShader(t *testing.T) {
	tbl := NewTable()
	sm := DefaultSubmeshMaterial("Brick")
	before := sm

	err := tbl.Sync(litHost(), &sm)
	assert.ErrorIs(t, err, ErrShaderNotMapped)
	assert.Equal(t, before, sm)
}

func TestSyncErrorShaderFallsBackToStandard(t *testing.T) {
	tbl := NewTable(DefaultRules()...)
	host := &StaticHostMaterial{
		MaterialName: "Broken",
		Shader:       ErrorShaderName,
		Floats:       map[string]float32{"_Metallic": 1},
	}
	sm := DefaultSubmeshMaterial("Broken")

	require.NoError(t, tbl.Sync(host, &sm))
	assert.Equal(t, float32(1), sm.Metallic)
}

func TestTableVersionBumps(t *testing.T) {
	tbl := NewTable()
	v0 := tbl.Version()
	tbl.SetRule(BindingRule{ShaderName: "A"})
	assert.Greater(t, tbl.Version(), v0)

	v1 := tbl.Version()
	tbl.RemoveRule("missing")
	assert.Equal(t, v1, tbl.Version())
	tbl.RemoveRule("A")
	assert.Greater(t, tbl.Version(), v1)

	tbl.Replace(DefaultRules())
	assert.Len(t, tbl.Rules(), len(DefaultRules()))
}

func TestDefaultSubmeshMaterial(t *testing.T) {
	sm := DefaultSubmeshMaterial("M")
	assert.Equal(t, MaterialTypeDisney, sm.Type)
	assert.Equal(t, float32(1), sm.IOR)
	assert.True(t, sm.FollowMaterial)
	assert.Equal(t, "Disney", sm.Type.String())
	assert.Equal(t, "Unknown", MaterialType(42).String())
}
