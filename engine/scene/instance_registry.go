package scene

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/Carmen-Shannon/oxy-trace/engine/instance"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
)

type instanceRegistry struct {
	s *sceneRegistry

	live       *common.OrderedSet[uint64, instance.Handle]
	added      *common.OrderedSet[uint64, instance.Handle]
	removed    *common.OrderedSet[uint64, instance.Handle]
	reparented *common.OrderedSet[uint64, instance.Handle]
}

// InstanceRegistry tracks instance handles and the hidden source groups they
// usually point at. It shares its owning SceneRegistry's lock and frame; source
// groups are built by a scheduler of their own.
type InstanceRegistry interface {
	instance.Tracker

	// NewHandle creates a handle reporting to this registry.
	//
	// Parameters:
	//   - options: handle options; WithTracker is set by the registry
	//
	// Returns:
	//   - instance.Handle: the new, unbound handle
	NewHandle(options ...instance.HandleBuilderOption) instance.Handle

	// RegisterSource adds a record as an instance source. Sources are never drawn
	// directly, only through handles parented to their group.
	//
	// Parameters:
	//   - r: the source record
	//
	// Returns:
	//   - *geometry.Group: the source group handles should be parented to
	//   - error: ErrNotReady or ErrAlreadyRegistered
	RegisterSource(r record.Record) (*geometry.Group, error)

	// UnregisterSource removes an instance source record.
	//
	// Parameters:
	//   - r: the source record
	//
	// Returns:
	//   - error: ErrNotRegistered
	UnregisterSource(r record.Record) error

	// Handles returns every enabled handle in enable order.
	Handles() []instance.Handle

	// RunningTaskCount returns the source builds launched and not yet applied.
	RunningTaskCount() int
}

var _ InstanceRegistry = &instanceRegistry{}

func newInstanceRegistry(s *sceneRegistry) *instanceRegistry {
	return &instanceRegistry{
		s:          s,
		live:       common.NewOrderedSet[uint64, instance.Handle](),
		added:      common.NewOrderedSet[uint64, instance.Handle](),
		removed:    common.NewOrderedSet[uint64, instance.Handle](),
		reparented: common.NewOrderedSet[uint64, instance.Handle](),
	}
}

func (ir *instanceRegistry) NewHandle(options ...instance.HandleBuilderOption) instance.Handle {
	opts := append(slices.Clone(options), instance.WithTracker(ir))
	return instance.NewHandle(opts...)
}

func (ir *instanceRegistry) RegisterSource(r record.Record) (*geometry.Group, error) {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()

	if _, ok := ir.s.scene.groupOf(r); ok {
		return nil, fmt.Errorf("%w: %q is a scene record", ErrAlreadyRegistered, r.Name())
	}
	ir.s.prepareLocked(r)
	g, _, err := ir.s.sources.register(r)
	if err != nil {
		common.Logger().Warn("instance source rejected", "record", r.Name(), "err", err)
		return nil, err
	}
	return g, nil
}

func (ir *instanceRegistry) UnregisterSource(r record.Record) error {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()

	if _, err := ir.s.sources.unregister(r); err != nil {
		return err
	}
	ir.s.markInstancesDirty()
	return nil
}

func (ir *instanceRegistry) Handles() []instance.Handle {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()
	return ir.live.Values()
}

func (ir *instanceRegistry) RunningTaskCount() int {
	return ir.s.sourceScheduler.RunningTaskCount()
}

func (ir *instanceRegistry) InstanceAdded(h instance.Handle) {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()
	ir.removed.Remove(h.ID())
	ir.live.Push(h.ID(), h)
	ir.added.Push(h.ID(), h)
}

func (ir *instanceRegistry) InstanceRemoved(h instance.Handle) {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()
	ir.added.Remove(h.ID())
	ir.reparented.Remove(h.ID())
	ir.live.Remove(h.ID())
	ir.removed.Push(h.ID(), h)
}

func (ir *instanceRegistry) InstanceReparented(h instance.Handle) {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()
	ir.reparented.Push(h.ID(), h)
}

func (ir *instanceRegistry) InstanceMoved(instance.Handle) {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()
	ir.s.markInstancesDirty()
}

func (ir *instanceRegistry) GroupOrphaned(g *geometry.Group) {
	ir.s.mu.Lock()
	defer ir.s.mu.Unlock()
	ir.s.routeOrphan(g)
}

// retargetLocked moves every enabled handle parented to from over to to. The
// references move in the next instance pass.
func (ir *instanceRegistry) retargetLocked(from, to *geometry.Group) int {
	n := 0
	for _, h := range ir.live.Values() {
		if h.Retarget(from, to) {
			ir.reparented.Push(h.ID(), h)
			n++
		}
	}
	return n
}

// processLocked runs the instance pass: reparent diffs first, then the add and
// remove sets. It reports how many handles each set held.
func (ir *instanceRegistry) processLocked() (reparented, added, removed int) {
	for _, h := range ir.reparented.Drain() {
		from := h.Update()
		if from == nil {
			continue
		}
		reparented++
		ir.s.routeOrphan(from)
	}
	added = len(ir.added.Drain())
	removed = len(ir.removed.Drain())
	if reparented+added+removed > 0 {
		ir.s.markInstancesDirty()
	}
	return reparented, added, removed
}

// instancesLocked returns one top-level instance per enabled handle whose counted
// group has an applied structure.
func (ir *instanceRegistry) instancesLocked() []accel.Instance {
	var out []accel.Instance
	for _, h := range ir.live.Values() {
		g := h.PreviousParent()
		if g == nil {
			continue
		}
		blas, slot := g.BLAS(), g.MeshDataIndex()
		if blas == nil || slot < 0 {
			continue
		}
		out = append(out, accel.NewInstance(g.ID(), slot, blas, h.Transform()))
	}
	return out
}
