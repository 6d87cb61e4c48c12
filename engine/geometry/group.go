package geometry

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
)

var nextGroupID atomic.Uint64

// Group owns one bottom-level structure shared by every member record with the
// same fingerprint. The first member is the lead: the structure is built from its
// geometry and its parameters are the group's material parameters.
//
// The applied structure reflects the members as of the last applied build. MarkDirty
// bumps the generation as soon as that stops being true, and only a build tagged with
// the current generation may clear NeedsRebuild. Safe for concurrent use.
type Group struct {
	mu *sync.RWMutex

	id            uint64
	fingerprint   Fingerprint
	members       []record.Record
	instanceRefs  int
	needsRebuild  bool
	generation    uint64
	blas          *accel.BottomLevel
	meshDataIndex int
	destroyed     bool
}

// NewGroup creates an empty, clean group with no structure.
//
// Parameters:
//   - fp: the fingerprint the group's members share
//
// Returns:
//   - *Group: the new group
func NewGroup(fp Fingerprint) *Group {
	return &Group{
		mu:            &sync.RWMutex{},
		id:            nextGroupID.Add(1),
		fingerprint:   fp,
		meshDataIndex: -1,
	}
}

// ID returns the group's process-unique identity.
func (g *Group) ID() uint64 {
	return g.id
}

// Fingerprint returns the fingerprint the group is filed under.
func (g *Group) Fingerprint() Fingerprint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fingerprint
}

// Rekey replaces the fingerprint after the members' parameters changed.
//
// Parameters:
//   - fp: the members' current fingerprint
func (g *Group) Rekey(fp Fingerprint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fingerprint = fp
}

// AddMember appends r to the member set.
//
// Parameters:
//   - r: the record
//
// Returns:
//   - bool: false if r was already a member
func (g *Group) AddMember(r record.Record) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slices.Contains(g.members, r) {
		return false
	}
	g.members = append(g.members, r)
	return true
}

// RemoveMember removes r, keeping the order of the remaining members.
//
// Parameters:
//   - r: the record
//
// Returns:
//   - bool: false if r was not a member
func (g *Group) RemoveMember(r record.Record) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := slices.Index(g.members, r)
	if i < 0 {
		return false
	}
	g.members = slices.Delete(g.members, i, i+1)
	return true
}

// Members returns the member records in insertion order.
func (g *Group) Members() []record.Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.members)
}

// MemberCount returns the number of member records.
func (g *Group) MemberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// Lead returns the first member, or nil for an empty group.
func (g *Group) Lead() record.Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.members) == 0 {
		return nil
	}
	return g.members[0]
}

// InstanceReferences returns the number of enabled instance handles counted against the group.
func (g *Group) InstanceReferences() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.instanceRefs
}

// AddReference counts one more enabled instance.
//
// Returns:
//   - int: the new reference count
func (g *Group) AddReference() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instanceRefs++
	return g.instanceRefs
}

// ReleaseReference counts one less enabled instance. The count never goes below zero.
//
// Returns:
//   - int: the new reference count
func (g *Group) ReleaseReference() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.instanceRefs > 0 {
		g.instanceRefs--
	}
	return g.instanceRefs
}

// Orphaned reports whether the group has neither members nor instance references.
func (g *Group) Orphaned() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members) == 0 && g.instanceRefs == 0
}

// NeedsRebuild reports whether the applied structure may be out of date.
func (g *Group) NeedsRebuild() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.needsRebuild
}

// Generation returns the current generation counter.
func (g *Group) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

// MarkDirty sets NeedsRebuild and bumps the generation, invalidating any build
// launched before the call.
//
// Returns:
//   - uint64: the new generation
func (g *Group) MarkDirty() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.needsRebuild = true
	g.generation++
	return g.generation
}

// Destroy marks the group destroyed and bumps the generation so no in-flight build
// can be applied. It returns the structure slot that the caller must release.
//
// Returns:
//   - int: the released mesh-data slot, -1 if the group had none
//   - bool: false if the group was already destroyed
func (g *Group) Destroy() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return -1, false
	}
	slot := g.meshDataIndex
	g.destroyed = true
	g.generation++
	g.needsRebuild = false
	g.blas = nil
	g.meshDataIndex = -1
	return slot, true
}

// Destroyed reports whether Destroy has been called.
func (g *Group) Destroyed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.destroyed
}

// BLAS returns the last applied structure, nil if none.
func (g *Group) BLAS() *accel.BottomLevel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blas
}

// MeshDataIndex returns the group's slot in the compacted mesh-data buffer, -1 if none.
func (g *Group) MeshDataIndex() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.meshDataIndex
}

// Current reports whether a build tagged with generation may still be applied.
//
// Parameters:
//   - generation: the build's tag
//
// Returns:
//   - bool: true if the group is alive and the tag matches
func (g *Group) Current(generation uint64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.destroyed && g.generation == generation
}

// Apply stores a completed build and clears NeedsRebuild. A nil structure applies an
// empty group: the structure and slot are dropped. It returns the previous slot so the
// caller can release it when the slot changed.
//
// Parameters:
//   - generation: the build's tag
//   - blas: the built structure, nil for an empty group
//   - slot: the uploaded mesh-data slot, -1 for an empty group
//
// Returns:
//   - int: the previous slot
//   - bool: false if the build is stale and nothing was applied
func (g *Group) Apply(generation uint64, blas *accel.BottomLevel, slot int) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed || g.generation != generation {
		return -1, false
	}
	prev := g.meshDataIndex
	g.blas = blas
	g.meshDataIndex = slot
	g.needsRebuild = false
	return prev, true
}

// Snapshot deep-copies the lead member's geometry and parameters together with the
// current generation.
//
// Returns:
//   - *Snapshot: the snapshot, without geometry for a group with no members
//   - error: error if the copy fails
func (g *Group) Snapshot() (*Snapshot, error) {
	g.mu.RLock()
	id, gen := g.id, g.generation
	var lead record.Record
	if len(g.members) > 0 {
		lead = g.members[0]
	}
	g.mu.RUnlock()
	if lead == nil {
		return &Snapshot{GroupID: id, Generation: gen}, nil
	}
	return newSnapshot(id, gen, lead)
}
