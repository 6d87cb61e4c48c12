package instance

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoParent is returned when a handle is enabled without a parent group. The
	// handle is destroyed.
	ErrNoParent = errors.New("instance: handle has no parent group")
	// ErrDestroyed is returned by every mutation of a destroyed handle.
	ErrDestroyed = errors.New("instance: handle destroyed")
)

// State is the binding state of a Handle.
type State int

const (
	// StateUnbound means the handle counts against no group.
	StateUnbound State = iota
	// StateBound means the handle is enabled and counts against exactly one group.
	StateBound
	// StateDestroyed is terminal.
	StateDestroyed
)

var stateNames = [...]string{"Unbound", "Bound", "Destroyed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Tracker receives handle events. InstanceRegistry is the production Tracker.
// Handles never call a Tracker while holding their own lock.
type Tracker interface {
	// InstanceAdded is called after a handle was enabled.
	InstanceAdded(h Handle)
	// InstanceRemoved is called after a handle was disabled.
	InstanceRemoved(h Handle)
	// InstanceReparented is called after an enabled handle's CurrentParent changed.
	InstanceReparented(h Handle)
	// InstanceMoved is called after an enabled handle's transform changed.
	InstanceMoved(h Handle)
	// GroupOrphaned is called when a reference release left g with no members and no references.
	GroupOrphaned(g *geometry.Group)
}

var nextID atomic.Uint64

type handle struct {
	mu *sync.Mutex

	id        uint64
	current   *geometry.Group
	previous  *geometry.Group
	transform mgl32.Mat4
	enabled   bool
	state     State
	tracker   Tracker
}

// Handle places a shared group in the scene at its own transform. While enabled it
// counts as exactly one reference against the group it was counted on. Reparenting
// is a two-field diff: SetParent changes CurrentParent and Update later moves the
// reference from PreviousParent.
type Handle interface {
	// ID returns the handle's process-unique identity.
	ID() uint64

	// CurrentParent returns the group the handle should reference.
	CurrentParent() *geometry.Group

	// PreviousParent returns the group the handle's reference is currently counted on.
	PreviousParent() *geometry.Group

	// Transform returns the instance's object-to-world matrix.
	Transform() mgl32.Mat4

	// SetTransform sets the object-to-world matrix.
	//
	// Parameters:
	//   - m: the new matrix
	//
	// Returns:
	//   - error: ErrDestroyed
	SetTransform(m mgl32.Mat4) error

	// SetParent changes CurrentParent. For an enabled handle the reference moves on the
	// next Update; a nil parent is only accepted while disabled.
	//
	// Parameters:
	//   - g: the new parent
	//
	// Returns:
	//   - error: ErrDestroyed, or ErrNoParent for a nil parent on an enabled handle
	SetParent(g *geometry.Group) error

	// Retarget moves CurrentParent from one group to another without notifying the
	// tracker. It is used by the registry that owns both groups when their members
	// merge; that registry queues the handle for its next Update itself.
	//
	// Parameters:
	//   - from: the parent the handle must currently have
	//   - to: the new parent
	//
	// Returns:
	//   - bool: false if the handle is destroyed or its parent is not from
	Retarget(from, to *geometry.Group) bool

	// Enable counts the handle against CurrentParent. Enabling an enabled handle is a no-op.
	//
	// Returns:
	//   - error: ErrNoParent (the handle is destroyed) or ErrDestroyed
	Enable() error

	// Disable releases the handle's reference. Disabling a disabled handle is a no-op.
	//
	// Returns:
	//   - error: ErrDestroyed
	Disable() error

	// Update applies a pending reparent: it releases PreviousParent, references
	// CurrentParent and sets PreviousParent = CurrentParent.
	//
	// Returns:
	//   - *geometry.Group: the group that lost the reference, nil if nothing moved
	Update() *geometry.Group

	// Destroy disables the handle and makes it terminal.
	Destroy()

	// Enabled reports whether the handle is counted against a group.
	Enabled() bool

	// State returns the binding state.
	State() State
}

var _ Handle = &handle{}

// NewHandle creates an unbound handle.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Handle: the new handle
func NewHandle(options ...HandleBuilderOption) Handle {
	h := &handle{
		mu:        &sync.Mutex{},
		id:        nextID.Add(1),
		transform: mgl32.Ident4(),
		state:     StateUnbound,
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *handle) ID() uint64 {
	return h.id
}

func (h *handle) CurrentParent() *geometry.Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *handle) PreviousParent() *geometry.Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.previous
}

func (h *handle) Transform() mgl32.Mat4 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.transform
}

func (h *handle) SetTransform(m mgl32.Mat4) error {
	h.mu.Lock()
	if h.state == StateDestroyed {
		h.mu.Unlock()
		return ErrDestroyed
	}
	h.transform = m
	notify := h.enabled && h.tracker != nil
	h.mu.Unlock()

	if notify {
		h.tracker.InstanceMoved(h)
	}
	return nil
}

func (h *handle) SetParent(g *geometry.Group) error {
	h.mu.Lock()
	if h.state == StateDestroyed {
		h.mu.Unlock()
		return ErrDestroyed
	}
	if g == nil && h.enabled {
		h.mu.Unlock()
		return ErrNoParent
	}
	if g == h.current {
		h.mu.Unlock()
		return nil
	}
	h.current = g
	notify := h.enabled && h.tracker != nil
	h.mu.Unlock()

	if notify {
		h.tracker.InstanceReparented(h)
	}
	return nil
}

func (h *handle) Retarget(from, to *geometry.Group) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateDestroyed || to == nil || h.current != from {
		return false
	}
	h.current = to
	return true
}

func (h *handle) Enable() error {
	h.mu.Lock()
	switch {
	case h.state == StateDestroyed:
		h.mu.Unlock()
		return ErrDestroyed
	case h.enabled:
		h.mu.Unlock()
		return nil
	case h.current == nil:
		h.state = StateDestroyed
		h.mu.Unlock()
		return ErrNoParent
	}
	h.current.AddReference()
	h.previous = h.current
	h.enabled = true
	h.state = StateBound
	tracker := h.tracker
	h.mu.Unlock()

	if tracker != nil {
		tracker.InstanceAdded(h)
	}
	return nil
}

func (h *handle) Disable() error {
	h.mu.Lock()
	if h.state == StateDestroyed {
		h.mu.Unlock()
		return ErrDestroyed
	}
	orphan, ok := h.disableLocked()
	tracker := h.tracker
	h.mu.Unlock()

	if ok && tracker != nil {
		tracker.InstanceRemoved(h)
		if orphan != nil {
			tracker.GroupOrphaned(orphan)
		}
	}
	return nil
}

// disableLocked releases the counted reference. The counted group is PreviousParent,
// which equals CurrentParent unless a reparent is still pending.
func (h *handle) disableLocked() (*geometry.Group, bool) {
	if !h.enabled {
		return nil, false
	}
	counted := h.previous
	h.enabled = false
	h.state = StateUnbound
	h.previous = nil
	counted.ReleaseReference()
	if counted.Orphaned() {
		return counted, true
	}
	return nil, true
}

func (h *handle) Update() *geometry.Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.enabled || h.current == h.previous {
		return nil
	}
	from := h.previous
	from.ReleaseReference()
	h.current.AddReference()
	h.previous = h.current
	return from
}

func (h *handle) Destroy() {
	h.mu.Lock()
	if h.state == StateDestroyed {
		h.mu.Unlock()
		return
	}
	orphan, ok := h.disableLocked()
	h.state = StateDestroyed
	tracker := h.tracker
	h.mu.Unlock()

	if ok && tracker != nil {
		tracker.InstanceRemoved(h)
		if orphan != nil {
			tracker.GroupOrphaned(orphan)
		}
	}
}

func (h *handle) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

func (h *handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}
