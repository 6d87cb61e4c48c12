package light

import (
	"slices"
	"sync"
)

type registry struct {
	mu *sync.Mutex

	lights  []Light
	changed bool
}

// Registry holds the scene's lights and reports when the packed list must be re-uploaded.
type Registry interface {
	// Add registers a light. Adding a registered light is a no-op.
	//
	// Parameters:
	//   - l: the light
	Add(l Light)

	// Remove unregisters a light.
	//
	// Parameters:
	//   - l: the light
	Remove(l Light)

	// Lights returns every registered light.
	Lights() []Light

	// Collect packs every enabled light if the set or any light changed since the last
	// Collect, and clears the change flags.
	//
	// Returns:
	//   - []GPULight: the packed enabled lights
	//   - bool: false if nothing changed, in which case the slice is nil
	Collect() ([]GPULight, bool)

	// TotalEnergy returns the summed luminance of every enabled light.
	TotalEnergy() float32
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry.
func NewRegistry() Registry {
	return &registry{mu: &sync.Mutex{}}
}

func (r *registry) Add(l Light) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.lights, l) {
		return
	}
	r.lights = append(r.lights, l)
	r.changed = true
}

func (r *registry) Remove(l Light) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.lights, l); i >= 0 {
		r.lights = slices.Delete(r.lights, i, i+1)
		r.changed = true
	}
}

func (r *registry) Lights() []Light {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lights)
}

func (r *registry) Collect() ([]GPULight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := r.changed
	for _, l := range r.lights {
		if l.takeChanged() {
			changed = true
		}
	}
	r.changed = false
	if !changed {
		return nil, false
	}
	out := make([]GPULight, 0, len(r.lights))
	for _, l := range r.lights {
		if l.Enabled() {
			out = append(out, l.Pack())
		}
	}
	return out, true
}

func (r *registry) TotalEnergy() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float32
	for _, l := range r.lights {
		if l.Enabled() {
			total += l.Pack().Energy
		}
	}
	return total
}
