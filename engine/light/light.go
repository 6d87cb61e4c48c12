package light

import (
	"sync"

	"github.com/chewxy/math32"
)

// LightType identifies the kind of light source. The values are the encoding the
// path tracer reads.
type LightType int

const (
	// LightTypePoint emits in all directions from a position.
	LightTypePoint LightType = iota

	// LightTypeDirectional has no position, only a direction. Used for the sun and moon.
	LightTypeDirectional

	// LightTypeSpot emits in a cone from a position along its forward vector.
	LightTypeSpot
)

var lightTypeNames = [...]string{"Point", "Directional", "Spot"}

func (t LightType) String() string {
	if t < 0 || int(t) >= len(lightTypeNames) {
		return "Unknown"
	}
	return lightTypeNames[t]
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.RWMutex

	lightType  LightType
	position   [3]float32
	forward    [3]float32
	color      [3]float32
	intensity  float32
	innerAngle float32 // full cone angle in degrees
	outerAngle float32 // full cone angle in degrees
	enabled    bool
	changed    bool
}

// Light is a scene light the path tracer samples directly. Lights are held by a
// Registry, which packs every enabled light for upload when any of them changed.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (point, directional, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Forward returns the normalized forward vector of the light's transform.
	//
	// Returns:
	//   - [3]float32: forward as (x, y, z)
	Forward() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// SpotAngles returns the inner and outer full cone angles in degrees.
	//
	// Returns:
	//   - float32: inner angle
	//   - float32: outer angle
	SpotAngles() (float32, float32)

	// Enabled returns whether this light is packed for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetForward sets the forward vector of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: forward components (will be normalized)
	SetForward(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetSpotAngles sets the inner and outer full cone angles for spot lights.
	//
	// Parameters:
	//   - innerDeg: inner cone angle in degrees
	//   - outerDeg: outer cone angle in degrees
	SetSpotAngles(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Pack converts the light to its GPU representation.
	//
	// Returns:
	//   - GPULight: the packed light
	Pack() GPULight

	// takeChanged reports and clears the changed flag.
	takeChanged() bool
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (point, directional, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:         &sync.RWMutex{},
		lightType:  lightType,
		forward:    [3]float32{0, 0, 1},
		color:      [3]float32{1, 1, 1},
		intensity:  1.0,
		innerAngle: 21.8,
		outerAngle: 30,
		enabled:    true,
		changed:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *lightImpl) Forward() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.forward
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *lightImpl) SpotAngles() (float32, float32) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.innerAngle, l.outerAngle
}

func (l *lightImpl) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = [3]float32{x, y, z}
	l.changed = true
}

func (l *lightImpl) SetForward(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forward = normalize3(x, y, z)
	l.changed = true
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = [3]float32{r, g, b}
	l.changed = true
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
	l.changed = true
}

func (l *lightImpl) SetSpotAngles(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.innerAngle = innerDeg
	l.outerAngle = outerDeg
	l.changed = true
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled != enabled {
		l.enabled = enabled
		l.changed = true
	}
}

func (l *lightImpl) takeChanged() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.changed
	l.changed = false
	return c
}

// Pack computes the radiance (color × intensity) and its luminance, the direction
// the tracer expects (opposite the forward vector for directional lights, the
// forward vector for spots, zero for points) and the spot falloff remap
// (1/max(cos_in-cos_out, 0.001), -cos_out/max(...)) from half-angle cosines.
func (l *lightImpl) Pack() GPULight {
	l.mu.RLock()
	defer l.mu.RUnlock()

	g := GPULight{
		Position:  l.position,
		LightType: uint32(l.lightType),
		Radiance: [3]float32{
			l.color[0] * l.intensity,
			l.color[1] * l.intensity,
			l.color[2] * l.intensity,
		},
	}
	g.Energy = Luminance(g.Radiance[0], g.Radiance[1], g.Radiance[2])

	switch l.lightType {
	case LightTypeDirectional:
		g.Direction = [3]float32{-l.forward[0], -l.forward[1], -l.forward[2]}
	case LightTypeSpot:
		g.Direction = l.forward
		innerCos := cosDeg(0.5 * l.innerAngle)
		outerCos := cosDeg(0.5 * l.outerAngle)
		inv := 1 / math32.Max(innerCos-outerCos, 0.001)
		g.SpotAngle = [2]float32{inv, -outerCos * inv}
	}
	return g
}

// Luminance returns the perceptual luminance of a linear RGB color.
func Luminance(r, g, b float32) float32 {
	return 0.299*r + 0.587*g + 0.114*b
}
