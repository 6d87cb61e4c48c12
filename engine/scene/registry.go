package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/builder"
	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNotReady is returned when a record that is not fully initialised is registered.
	ErrNotReady = errors.New("scene: record not ready")
	// ErrAlreadyRegistered is returned when a record is registered twice.
	ErrAlreadyRegistered = errors.New("scene: record already registered")
	// ErrNotRegistered is returned for operations on a record the registry does not hold.
	ErrNotRegistered = errors.New("scene: record not registered")
)

// PendingWork is a snapshot of every queue depth.
type PendingWork struct {
	Rebuild       int
	Materials     int
	Teardown      int
	SourceRebuild int
	Added         int
	Removed       int
	Reparented    int
}

// Empty reports whether no queue holds work.
func (p PendingWork) Empty() bool {
	return p == PendingWork{}
}

type sceneRegistry struct {
	mu *sync.Mutex

	name     string
	r        renderer.Renderer
	table    material.Table
	lights   light.Registry
	scene    *groupTable
	sources  *groupTable
	handles  *instanceRegistry
	topLevel *accel.TopLevel

	schedulerOptions []builder.SchedulerBuilderOption
	sceneScheduler   builder.Scheduler
	sourceScheduler  builder.Scheduler

	tableVersion uint64
	tlasDirty    bool
	frames       uint64
	closed       bool
}

// SceneRegistry keeps GPU acceleration structures in step with a mutable scene.
// Host mutations enqueue work; Frame applies finished builds, processes the queues,
// rebuilds the top-level structure and schedules new builds. Mutation methods are
// safe to call from any goroutine, all renderer traffic happens inside Frame.
type SceneRegistry interface {
	// Name returns the registry's label used in logs.
	Name() string

	// RegisterRecord adds a record to the scene. Records sharing a fingerprint share
	// one group; the group is queued for a rebuild.
	//
	// Parameters:
	//   - r: the record to add
	//
	// Returns:
	//   - *geometry.Group: the group the record joined
	//   - error: ErrNotReady or ErrAlreadyRegistered
	RegisterRecord(r record.Record) (*geometry.Group, error)

	// UnregisterRecord removes a record. A group left without members and instance
	// references is torn down on the next Frame, otherwise it is rebuilt.
	//
	// Parameters:
	//   - r: the record to remove
	//
	// Returns:
	//   - error: ErrNotRegistered
	UnregisterRecord(r record.Record) error

	// NotifyMaterialChanged re-syncs the record's followed submeshes, copies its
	// parameters to every sibling in the group and queues a parameter upload. Any
	// number of calls before the next Frame produce one upload.
	//
	// Parameters:
	//   - r: the edited record
	//
	// Returns:
	//   - error: ErrNotRegistered
	NotifyMaterialChanged(r record.Record) error

	// SetRecordTransform moves a registered record. Only the top-level structure is rebuilt.
	//
	// Parameters:
	//   - r: the record to move
	//   - m: the new object-to-world matrix
	//
	// Returns:
	//   - error: ErrNotRegistered
	SetRecordTransform(r record.Record, m mgl32.Mat4) error

	// DrainAndSchedule launches a build for every queued group that has none in flight.
	//
	// Returns:
	//   - int: the number of builds launched
	DrainAndSchedule() int

	// ApplyCompleted applies every finished build whose tag still matches its group.
	//
	// Returns:
	//   - int: results applied
	//   - int: stale results discarded
	ApplyCompleted() (int, int)

	// RunningTaskCount returns the scene builds launched and not yet applied.
	RunningTaskCount() int

	// Wait blocks until every launched build of both schedulers has finished. The
	// results are applied by the next Frame.
	Wait()

	// Frame runs one full synchronization pass.
	//
	// Returns:
	//   - FrameStats: what the pass did
	Frame() FrameStats

	// Group looks up a live group of either table by ID.
	Group(id uint64) (*geometry.Group, bool)

	// GroupOf returns the group a record is registered in.
	GroupOf(r record.Record) (*geometry.Group, bool)

	// Groups returns the live scene groups sorted by ID.
	Groups() []*geometry.Group

	// Pending returns the current queue depths.
	Pending() PendingWork

	// TopLevel returns the last built top-level structure, nil before the first build.
	TopLevel() *accel.TopLevel

	// Instances returns the instance registry that shares this registry's lock.
	Instances() InstanceRegistry

	// Lights returns the light registry uploaded by Frame.
	Lights() light.Registry

	// MaterialTable returns the shared material table.
	MaterialTable() material.Table

	// ResyncFollowers re-applies the material table to every registered record with
	// a followed submesh and queues the affected groups for a parameter upload.
	//
	// Returns:
	//   - int: the number of records synced
	ResyncFollowers() int

	// Close stops both schedulers. In-flight builds are abandoned.
	Close()
}

var _ SceneRegistry = &sceneRegistry{}

// NewSceneRegistry creates a SceneRegistry that uploads through r. The renderer is
// required and NewSceneRegistry panics if it is nil.
//
// Parameters:
//   - r: the renderer receiving structures, materials and lights (must not be nil)
//   - options: functional options
//
// Returns:
//   - SceneRegistry: the new registry
func NewSceneRegistry(r renderer.Renderer, options ...RegistryBuilderOption) SceneRegistry {
	if r == nil {
		panic("scene: NewSceneRegistry requires a non-nil Renderer")
	}

	s := &sceneRegistry{
		mu:   &sync.Mutex{},
		name: "scene",
		r:    r,
	}
	for _, option := range options {
		option(s)
	}

	// Schedulers and the table are created after options so With* overrides win.
	if s.table == nil {
		s.table = material.NewTable(material.DefaultRules()...)
	}
	if s.lights == nil {
		s.lights = light.NewRegistry()
	}
	if s.sceneScheduler == nil {
		s.sceneScheduler = builder.NewScheduler(s.schedulerOptions...)
	}
	if s.sourceScheduler == nil {
		s.sourceScheduler = builder.NewScheduler(s.schedulerOptions...)
	}
	s.tableVersion = s.table.Version()
	s.scene = newGroupTable("scene", true, s.sceneScheduler)
	s.sources = newGroupTable("instance-source", false, s.sourceScheduler)
	s.handles = newInstanceRegistry(s)
	return s
}

func (s *sceneRegistry) Name() string {
	return s.name
}

func (s *sceneRegistry) RegisterRecord(r record.Record) (*geometry.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources.groupOf(r); ok {
		return nil, fmt.Errorf("%w: %q is an instance source", ErrAlreadyRegistered, r.Name())
	}
	s.prepareLocked(r)
	g, _, err := s.scene.register(r)
	if err != nil {
		common.Logger().Warn("record rejected", "registry", s.name, "record", r.Name(), "err", err)
		return nil, err
	}
	s.tlasDirty = true
	return g, nil
}

func (s *sceneRegistry) UnregisterRecord(r record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.scene.unregister(r); err != nil {
		return err
	}
	s.tlasDirty = true
	return nil
}

func (s *sceneRegistry) NotifyMaterialChanged(r record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, g, ok := s.lookupLocked(r)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, r.Name())
	}
	s.syncRecordLocked(r)
	propagate(r, g)
	if _, merged := s.refileLocked(t, g); !merged {
		t.materials.Push(g.ID(), g)
	}
	return nil
}

// prepareLocked applies the table to a record about to be registered, so its
// fingerprint is taken over table-synced parameters.
func (s *sceneRegistry) prepareLocked(r record.Record) {
	if !r.Ready() {
		return
	}
	if _, _, ok := s.lookupLocked(r); ok {
		return
	}
	s.syncRecordLocked(r)
}

// refileLocked keys g by its members' current parameters. Members that now match
// another group join it, and g's enabled handles follow on the next instance pass.
func (s *sceneRegistry) refileLocked(t *groupTable, g *geometry.Group) (*geometry.Group, bool) {
	target, merged := t.refile(g)
	if !merged {
		return g, false
	}
	moved := s.handles.retargetLocked(g, target)
	s.tlasDirty = true
	common.Logger().Debug("handles follow merged group", "registry", s.name, "from", g.ID(), "to", target.ID(), "handles", moved)
	return target, true
}

// syncRecordLocked applies the table to r's followed submeshes. Unmapped shaders
// are a diagnostic, the remaining submeshes are still synced.
func (s *sceneRegistry) syncRecordLocked(r record.Record) {
	if err := r.SyncHostMaterials(s.table); err != nil {
		common.Logger().Warn("material sync incomplete", "registry", s.name, "record", r.Name(), "err", err)
	}
}

// propagate copies src's parameters to every other member of g.
func propagate(src record.Record, g *geometry.Group) {
	params := src.Submeshes()
	for _, m := range g.Members() {
		if m.ID() == src.ID() {
			continue
		}
		if err := m.SetSubmeshes(params); err != nil {
			common.Logger().Warn("material propagation failed", "group", g.ID(), "record", m.Name(), "err", err)
		}
	}
}

func (s *sceneRegistry) lookupLocked(r record.Record) (*groupTable, *geometry.Group, bool) {
	if g, ok := s.scene.groupOf(r); ok {
		return s.scene, g, true
	}
	if g, ok := s.sources.groupOf(r); ok {
		return s.sources, g, true
	}
	return nil, nil, false
}

func (s *sceneRegistry) SetRecordTransform(r record.Record, m mgl32.Mat4) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.lookupLocked(r); !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, r.Name())
	}
	r.SetTransform(m)
	s.tlasDirty = true
	return nil
}

func (s *sceneRegistry) DrainAndSchedule() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.drain() + s.sources.drain()
}

func (s *sceneRegistry) ApplyCompleted() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked()
}

func (s *sceneRegistry) applyLocked() (int, int) {
	applied, discarded := s.scene.applyCompleted(s.r)
	a, d := s.sources.applyCompleted(s.r)
	applied += a
	discarded += d
	if applied > 0 {
		s.tlasDirty = true
	}
	return applied, discarded
}

func (s *sceneRegistry) RunningTaskCount() int {
	return s.sceneScheduler.RunningTaskCount()
}

func (s *sceneRegistry) Wait() {
	s.sceneScheduler.Wait()
	s.sourceScheduler.Wait()
}

func (s *sceneRegistry) Group(id uint64) (*geometry.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.scene.byID[id]; ok {
		return g, true
	}
	g, ok := s.sources.byID[id]
	return g, ok
}

func (s *sceneRegistry) GroupOf(r record.Record) (*geometry.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, g, ok := s.lookupLocked(r)
	return g, ok
}

func (s *sceneRegistry) Groups() []*geometry.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.groups()
}

func (s *sceneRegistry) Pending() PendingWork {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p PendingWork
	p.Rebuild, p.Materials, p.Teardown = s.scene.pending()
	srcRebuild, srcMaterials, srcTeardown := s.sources.pending()
	p.SourceRebuild = srcRebuild
	p.Materials += srcMaterials
	p.Teardown += srcTeardown
	p.Added = s.handles.added.Len()
	p.Removed = s.handles.removed.Len()
	p.Reparented = s.handles.reparented.Len()
	return p
}

func (s *sceneRegistry) TopLevel() *accel.TopLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topLevel
}

func (s *sceneRegistry) Instances() InstanceRegistry {
	return s.handles
}

func (s *sceneRegistry) Lights() light.Registry {
	return s.lights
}

func (s *sceneRegistry) MaterialTable() material.Table {
	return s.table
}

func (s *sceneRegistry) ResyncFollowers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resyncLocked()
}

func (s *sceneRegistry) resyncLocked() int {
	n := 0
	for _, t := range []*groupTable{s.scene, s.sources} {
		for _, r := range t.records() {
			if !r.HasFollowers() {
				continue
			}
			g, _ := t.groupOf(r)
			s.syncRecordLocked(r)
			propagate(r, g)
			if _, merged := s.refileLocked(t, g); !merged {
				t.materials.Push(g.ID(), g)
			}
			n++
		}
	}
	s.tableVersion = s.table.Version()
	return n
}

func (s *sceneRegistry) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sceneScheduler.Close()
	s.sourceScheduler.Close()
	common.Logger().Info("scene registry closed", "registry", s.name, "frames", s.frames)
}

// markInstancesDirty flags the top-level structure for a rebuild on the next Frame.
func (s *sceneRegistry) markInstancesDirty() {
	s.tlasDirty = true
}

// routeOrphan queues g for teardown in whichever table owns it.
func (s *sceneRegistry) routeOrphan(g *geometry.Group) {
	if g == nil || !g.Orphaned() {
		return
	}
	switch {
	case s.scene.owns(g):
		s.scene.queueTeardown(g)
	case s.sources.owns(g):
		s.sources.queueTeardown(g)
	}
}
