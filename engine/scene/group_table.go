package scene

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/builder"
	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
)

// groupTable is one set of geometry groups with its queues and scheduler. The
// scene registry owns two: visible scene groups and hidden instance sources.
// Callers hold the registry lock.
type groupTable struct {
	name    string
	visible bool

	byFingerprint map[geometry.Fingerprint][]*geometry.Group
	byID          map[uint64]*geometry.Group
	byRecord      map[uint64]*geometry.Group

	rebuild   *common.OrderedSet[uint64, *geometry.Group]
	materials *common.OrderedSet[uint64, *geometry.Group]
	teardown  *common.OrderedSet[uint64, *geometry.Group]

	scheduler builder.Scheduler
}

func newGroupTable(name string, visible bool, s builder.Scheduler) *groupTable {
	return &groupTable{
		name:          name,
		visible:       visible,
		byFingerprint: make(map[geometry.Fingerprint][]*geometry.Group),
		byID:          make(map[uint64]*geometry.Group),
		byRecord:      make(map[uint64]*geometry.Group),
		rebuild:       common.NewOrderedSet[uint64, *geometry.Group](),
		materials:     common.NewOrderedSet[uint64, *geometry.Group](),
		teardown:      common.NewOrderedSet[uint64, *geometry.Group](),
		scheduler:     s,
	}
}

// register adds r to the group matching its fingerprint and content, creating the
// group on first sight, and queues the group for a rebuild.
func (t *groupTable) register(r record.Record) (*geometry.Group, bool, error) {
	if !r.Ready() {
		return nil, false, fmt.Errorf("%w: %q", ErrNotReady, r.Name())
	}
	if _, ok := t.byRecord[r.ID()]; ok {
		return nil, false, fmt.Errorf("%w: %q", ErrAlreadyRegistered, r.Name())
	}

	fp := geometry.FingerprintOf(r)
	g := t.match(fp, r)
	created := g == nil
	if created {
		g = geometry.NewGroup(fp)
		t.file(g)
		t.byID[g.ID()] = g
	}
	g.AddMember(r)
	t.byRecord[r.ID()] = g
	t.teardown.Remove(g.ID())
	g.MarkDirty()
	t.rebuild.Push(g.ID(), g)

	common.Logger().Debug("record registered",
		"table", t.name, "record", r.Name(), "group", g.ID(), "fingerprint", fp.String(), "created", created)
	return g, created, nil
}

// unregister removes r from its group. An orphaned group moves to the teardown
// queue, otherwise it is rebuilt without r.
func (t *groupTable) unregister(r record.Record) (*geometry.Group, error) {
	g, ok := t.byRecord[r.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, r.Name())
	}
	delete(t.byRecord, r.ID())
	g.RemoveMember(r)

	if g.Orphaned() {
		t.queueTeardown(g)
		return g, nil
	}
	g.MarkDirty()
	t.rebuild.Push(g.ID(), g)
	return g, nil
}

// match returns the live group filed under fp whose lead has the same content as r.
// A group without members has nothing to compare and matches on the key alone.
func (t *groupTable) match(fp geometry.Fingerprint, r record.Record) *geometry.Group {
	for _, g := range t.byFingerprint[fp] {
		if g.Destroyed() {
			continue
		}
		if lead := g.Lead(); lead == nil || geometry.SameContent(lead, r) {
			return g
		}
	}
	return nil
}

func (t *groupTable) file(g *geometry.Group) {
	fp := g.Fingerprint()
	t.byFingerprint[fp] = append(t.byFingerprint[fp], g)
}

func (t *groupTable) unfile(g *geometry.Group) {
	fp := g.Fingerprint()
	bucket := slices.DeleteFunc(t.byFingerprint[fp], func(o *geometry.Group) bool { return o == g })
	if len(bucket) == 0 {
		delete(t.byFingerprint, fp)
		return
	}
	t.byFingerprint[fp] = bucket
}

// refile keys g by its members' current parameters. When another live group already
// holds that content, g's members join it and g is left to its handles; it is torn
// down once the last one lets go. It returns the group now holding the members and
// whether they moved.
func (t *groupTable) refile(g *geometry.Group) (*geometry.Group, bool) {
	lead := g.Lead()
	if lead == nil || !t.owns(g) {
		return g, false
	}
	fp := geometry.FingerprintOf(lead)
	if fp == g.Fingerprint() {
		return g, false
	}

	t.unfile(g)
	target := t.match(fp, lead)
	if target == nil {
		g.Rekey(fp)
		t.file(g)
		common.Logger().Debug("group rekeyed", "table", t.name, "group", g.ID(), "fingerprint", fp.String())
		return g, false
	}

	for _, m := range g.Members() {
		g.RemoveMember(m)
		target.AddMember(m)
		t.byRecord[m.ID()] = target
	}
	t.rebuild.Remove(g.ID())
	t.materials.Remove(g.ID())
	if g.Orphaned() {
		t.queueTeardown(g)
	}
	common.Logger().Debug("group merged", "table", t.name, "group", g.ID(), "into", target.ID())
	return target, true
}

// owns reports whether g is a live group of this table.
func (t *groupTable) owns(g *geometry.Group) bool {
	return t.byID[g.ID()] == g
}

func (t *groupTable) queueTeardown(g *geometry.Group) {
	t.rebuild.Remove(g.ID())
	t.materials.Remove(g.ID())
	t.teardown.Push(g.ID(), g)
}

func (t *groupTable) groupOf(r record.Record) (*geometry.Group, bool) {
	g, ok := t.byRecord[r.ID()]
	return g, ok
}

// records returns every registered record, grouped and in group order.
func (t *groupTable) records() []record.Record {
	var out []record.Record
	for _, g := range t.groups() {
		out = append(out, g.Members()...)
	}
	return out
}

// groups returns the live groups sorted by ID.
func (t *groupTable) groups() []*geometry.Group {
	out := make([]*geometry.Group, 0, len(t.byID))
	for _, g := range t.byID {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *geometry.Group) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

// applyCompleted uploads every collected result that still matches its group's
// generation. Empty results release the group's structure and slot.
func (t *groupTable) applyCompleted(r renderer.Renderer) (applied, discarded int) {
	log := common.Logger()
	for _, res := range t.scheduler.Completed() {
		g, ok := t.byID[res.GroupID]
		if !ok || !g.Current(res.Generation) {
			discarded++
			log.Debug("stale build discarded", "table", t.name, "group", res.GroupID, "generation", res.Generation)
			continue
		}

		if res.Empty() {
			if _, ok := g.Apply(res.Generation, nil, -1); ok {
				r.ReleaseGroup(g.ID())
				applied++
				log.Debug("empty build applied", "table", t.name, "group", g.ID(), "err", res.Err)
			}
			continue
		}

		slot, err := r.UploadGroup(g.ID(), res.BLAS)
		if err != nil {
			log.Warn("group upload failed", "table", t.name, "group", g.ID(), "err", err)
			if _, ok := g.Apply(res.Generation, nil, -1); ok {
				r.ReleaseGroup(g.ID())
				applied++
			}
			continue
		}
		if _, ok := g.Apply(res.Generation, res.BLAS, slot); !ok {
			discarded++
			continue
		}
		if lead := g.Lead(); lead != nil {
			if err := r.UploadMaterials(g.ID(), lead.Submeshes()); err != nil {
				log.Warn("material upload failed", "table", t.name, "group", g.ID(), "err", err)
			}
		}
		t.materials.Remove(g.ID())
		applied++
	}
	return applied, discarded
}

// uploadMaterials re-uploads parameters for every group in the material queue.
// Groups without a slot are skipped: their pending build uploads materials on apply.
func (t *groupTable) uploadMaterials(r renderer.Renderer) int {
	n := 0
	for _, g := range t.materials.Drain() {
		if g.Destroyed() {
			continue
		}
		if _, ok := r.Slot(g.ID()); !ok {
			continue
		}
		lead := g.Lead()
		if lead == nil {
			continue
		}
		if err := r.UploadMaterials(g.ID(), lead.Submeshes()); err != nil {
			common.Logger().Warn("material upload failed", "table", t.name, "group", g.ID(), "err", err)
			continue
		}
		n++
	}
	return n
}

// destroyOrphans tears down every queued group that is still orphaned. A group
// that regained a member or reference since it was queued survives; if it has no
// members its structure still holds the records that left, so it is rebuilt empty.
func (t *groupTable) destroyOrphans(r renderer.Renderer) int {
	n := 0
	for _, g := range t.teardown.Drain() {
		if !t.owns(g) {
			continue
		}
		if !g.Orphaned() {
			if g.MemberCount() == 0 {
				g.MarkDirty()
				t.rebuild.Push(g.ID(), g)
			}
			continue
		}
		g.Destroy()
		r.ReleaseGroup(g.ID())
		delete(t.byID, g.ID())
		t.unfile(g)
		n++
		common.Logger().Debug("group destroyed", "table", t.name, "group", g.ID())
	}
	return n
}

// drain launches a build for every queued group. Groups with a build already in
// flight stay queued for the next drain.
func (t *groupTable) drain() int {
	launched := 0
	for _, g := range t.rebuild.Drain() {
		if g.Destroyed() {
			continue
		}
		if !t.scheduler.Launch(g) {
			t.rebuild.Push(g.ID(), g)
			continue
		}
		launched++
	}
	return launched
}

// instances returns one top-level instance per member of every applied group.
func (t *groupTable) instances() []accel.Instance {
	if !t.visible {
		return nil
	}
	var out []accel.Instance
	for _, g := range t.groups() {
		blas, slot := g.BLAS(), g.MeshDataIndex()
		if blas == nil || slot < 0 {
			continue
		}
		for _, m := range g.Members() {
			out = append(out, accel.NewInstance(g.ID(), slot, blas, m.Transform()))
		}
	}
	return out
}

func (t *groupTable) pending() (rebuild, materials, teardown int) {
	return t.rebuild.Len(), t.materials.Len(), t.teardown.Len()
}
