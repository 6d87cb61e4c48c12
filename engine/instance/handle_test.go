package instance

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	mu         sync.Mutex
	added      int
	removed    int
	reparented int
	moved      int
	orphaned   []*geometry.Group
}

func (r *recordingTracker) InstanceAdded(Handle)      { r.mu.Lock(); r.added++; r.mu.Unlock() }
func (r *recordingTracker) InstanceRemoved(Handle)    { r.mu.Lock(); r.removed++; r.mu.Unlock() }
func (r *recordingTracker) InstanceReparented(Handle) { r.mu.Lock(); r.reparented++; r.mu.Unlock() }
func (r *recordingTracker) InstanceMoved(Handle)      { r.mu.Lock(); r.moved++; r.mu.Unlock() }
func (r *recordingTracker) GroupOrphaned(g *geometry.Group) {
	r.mu.Lock()
	r.orphaned = append(r.orphaned, g)
	r.mu.Unlock()
}

func TestEnableWithoutParentDestroys(t *testing.T) {
	h := NewHandle()
	assert.ErrorIs(t, h.Enable(), ErrNoParent)
	assert.Equal(t, StateDestroyed, h.State())
	assert.ErrorIs(t, h.Enable(), ErrDestroyed)
	assert.ErrorIs(t, h.SetParent(geometry.NewGroup(1)), ErrDestroyed)
	assert.ErrorIs(t, h.SetTransform(mgl32.Ident4()), ErrDestroyed)
	assert.ErrorIs(t, h.Disable(), ErrDestroyed)
}

func TestEnableDisableCountsOnce(t *testing.T) {
	tr := &recordingTracker{}
	g := geometry.NewGroup(1)
	h := NewHandle(WithParent(g), WithTracker(tr))
	assert.Equal(t, StateUnbound, h.State())

	require.NoError(t, h.Enable())
	require.NoError(t, h.Enable())
	assert.Equal(t, 1, g.InstanceReferences())
	assert.Equal(t, StateBound, h.State())
	assert.Equal(t, g, h.PreviousParent())
	assert.Equal(t, 1, tr.added)

	require.NoError(t, h.Disable())
	require.NoError(t, h.Disable())
	assert.Equal(t, 0, g.InstanceReferences())
	assert.Equal(t, 1, tr.removed)
	assert.Equal(t, []*geometry.Group{g}, tr.orphaned)
	assert.Equal(t, "Unbound", h.State().String())
}

func TestReparentMovesReferenceOnUpdate(t *testing.T) {
	tr := &recordingTracker{}
	a, b := geometry.NewGroup(1), geometry.NewGroup(2)
	h := NewHandle(WithParent(a), WithTracker(tr))
	require.NoError(t, h.Enable())

	require.NoError(t, h.SetParent(b))
	assert.Equal(t, 1, tr.reparented)
	assert.Equal(t, 1, a.InstanceReferences(), "reference moves on update")
	assert.Equal(t, 0, b.InstanceReferences())

	assert.Equal(t, a, h.Update())
	assert.Nil(t, h.Update())
	assert.Equal(t, 0, a.InstanceReferences())
	assert.Equal(t, 1, b.InstanceReferences())
	assert.Equal(t, b, h.PreviousParent())

	assert.ErrorIs(t, h.SetParent(nil), ErrNoParent)
}

func TestDisableWithPendingReparentReleasesCountedGroup(t *testing.T) {
	a, b := geometry.NewGroup(1), geometry.NewGroup(2)
	h := NewHandle(WithParent(a))
	require.NoError(t, h.Enable())
	require.NoError(t, h.SetParent(b))
	require.NoError(t, h.Disable())

	assert.Equal(t, 0, a.InstanceReferences())
	assert.Equal(t, 0, b.InstanceReferences())
	assert.Nil(t, h.Update())

	require.NoError(t, h.Enable())
	assert.Equal(t, 1, b.InstanceReferences())
}

func TestSetTransformNotifiesWhenEnabled(t *testing.T) {
	tr := &recordingTracker{}
	h := NewHandle(WithParent(geometry.NewGroup(1)), WithTracker(tr), WithTransform(mgl32.Translate3D(1, 0, 0)))
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), h.Transform())

	require.NoError(t, h.SetTransform(mgl32.Ident4()))
	assert.Equal(t, 0, tr.moved)
	require.NoError(t, h.Enable())
	require.NoError(t, h.SetTransform(mgl32.Translate3D(2, 0, 0)))
	assert.Equal(t, 1, tr.moved)

	h.Destroy()
	h.Destroy()
	assert.Equal(t, StateDestroyed, h.State())
	assert.False(t, h.Enabled())
}

func TestReferenceCountMatchesEnabledHandles(t *testing.T) {
	groups := []*geometry.Group{geometry.NewGroup(1), geometry.NewGroup(2), geometry.NewGroup(3)}
	handles := make([]Handle, 8)
	for i := range handles {
		handles[i] = NewHandle(WithParent(groups[i%len(groups)]))
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		h := handles[rng.IntN(len(handles))]
		switch rng.IntN(3) {
		case 0:
			require.NoError(t, h.Enable())
		case 1:
			require.NoError(t, h.Disable())
		case 2:
			require.NoError(t, h.SetParent(groups[rng.IntN(len(groups))]))
		}
		if rng.IntN(4) == 0 {
			for _, h := range handles {
				h.Update()
			}
		}
	}
	for _, h := range handles {
		h.Update()
	}

	want := map[*geometry.Group]int{}
	for _, h := range handles {
		if h.Enabled() {
			want[h.CurrentParent()]++
		}
	}
	for _, g := range groups {
		assert.Equal(t, want[g], g.InstanceReferences())
	}
}

func TestRetargetMovesParentSilently(t *testing.T) {
	tr := &recordingTracker{}
	from, to := geometry.NewGroup(1), geometry.NewGroup(1)
	h := NewHandle(WithParent(from), WithTracker(tr))
	require.NoError(t, h.Enable())

	assert.False(t, h.Retarget(to, from), "parent is not to")
	assert.True(t, h.Retarget(from, to))
	assert.Same(t, to, h.CurrentParent())
	assert.Same(t, from, h.PreviousParent())
	assert.Zero(t, tr.reparented)

	assert.Same(t, from, h.Update())
	assert.Equal(t, 0, from.InstanceReferences())
	assert.Equal(t, 1, to.InstanceReferences())

	h.Destroy()
	assert.False(t, h.Retarget(to, from))
}
