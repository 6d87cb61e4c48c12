package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackDirectionalPointsAgainstForward(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithForward(0, 0, 2), WithColor(1, 0.5, 0), WithIntensity(2))
	g := l.Pack()

	assert.Equal(t, uint32(1), g.LightType)
	assert.Equal(t, [3]float32{0, 0, -1}, g.Direction)
	assert.Equal(t, [3]float32{2, 1, 0}, g.Radiance)
	assert.InDelta(t, 0.299*2+0.587*1, g.Energy, 1e-5)
	assert.Equal(t, [2]float32{}, g.SpotAngle)
}

func TestPackSpotRemap(t *testing.T) {
	l := NewLight(LightTypeSpot, WithSpotAngles(60, 90), WithForward(0, -1, 0))
	g := l.Pack()

	innerCos := cosDeg(30)
	outerCos := cosDeg(45)
	inv := 1 / (innerCos - outerCos)
	assert.Equal(t, uint32(2), g.LightType)
	assert.Equal(t, [3]float32{0, -1, 0}, g.Direction)
	assert.InDelta(t, inv, g.SpotAngle[0], 1e-3)
	assert.InDelta(t, -outerCos*inv, g.SpotAngle[1], 1e-3)

	l.SetSpotAngles(40, 40)
	assert.InDelta(t, 1000, l.Pack().SpotAngle[0], 1e-2)
}

func TestPackPointHasNoDirection(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(1, 2, 3))
	g := l.Pack()
	assert.Equal(t, uint32(0), g.LightType)
	assert.Equal(t, [3]float32{1, 2, 3}, g.Position)
	assert.Equal(t, [3]float32{}, g.Direction)
	assert.Equal(t, "Point", l.Type().String())
}

func TestRegistryCollectsOnlyOnChange(t *testing.T) {
	r := NewRegistry()
	_, changed := r.Collect()
	assert.False(t, changed)

	a := NewLight(LightTypePoint)
	b := NewLight(LightTypePoint, WithEnabled(false))
	r.Add(a)
	r.Add(a)
	r.Add(b)
	assert.Len(t, r.Lights(), 2)

	lights, changed := r.Collect()
	require.True(t, changed)
	assert.Len(t, lights, 1)
	_, changed = r.Collect()
	assert.False(t, changed)

	b.SetEnabled(true)
	lights, changed = r.Collect()
	require.True(t, changed)
	assert.Len(t, lights, 2)
	assert.InDelta(t, 2, r.TotalEnergy(), 1e-5)

	r.Remove(a)
	lights, changed = r.Collect()
	require.True(t, changed)
	assert.Len(t, lights, 1)
}

func TestMarshalLights(t *testing.T) {
	g := NewLight(LightTypeSpot).Pack()
	assert.Equal(t, 64, g.Size())
	assert.Len(t, MarshalLights([]GPULight{g, g}), 128)
}
