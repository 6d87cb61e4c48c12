package builder

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroup(t *testing.T) *geometry.Group {
	t.Helper()
	mesh := record.Mesh{
		Name:      "tri",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Submeshes: []record.Submesh{{Indices: []uint32{0, 1, 2}}},
	}
	r, err := record.NewRecord(mesh, []material.HostMaterial{&material.StaticHostMaterial{MaterialName: "M", Shader: "Standard"}})
	require.NoError(t, err)
	g := geometry.NewGroup(geometry.FingerprintOf(r))
	g.AddMember(r)
	g.MarkDirty()
	return g
}

func TestLaunchBuildsWithDefaultBuilder(t *testing.T) {
	s := NewScheduler(WithWorkers(2))
	t.Cleanup(s.Close)
	g := newGroup(t)

	require.True(t, s.Launch(g))
	s.Wait()
	assert.Equal(t, 1, s.RunningTaskCount(), "a group stays in flight until collected")

	results := s.Completed()
	require.Len(t, results, 1)
	assert.Equal(t, g.ID(), results[0].GroupID)
	assert.Equal(t, g.Generation(), results[0].Generation)
	assert.NoError(t, results[0].Err)
	assert.False(t, results[0].Empty())
	assert.Equal(t, 1, results[0].BLAS.TriangleCount())
	assert.Equal(t, 0, s.RunningTaskCount())
	assert.Nil(t, s.Completed())
}

func TestAtMostOneBuildPerGroup(t *testing.T) {
	release := make(chan struct{})
	s := NewScheduler(WithBuildFunc(func(*geometry.Snapshot) (*accel.BottomLevel, error) {
		<-release
		return nil, accel.ErrDegenerate
	}))
	t.Cleanup(s.Close)
	g := newGroup(t)

	require.True(t, s.Launch(g))
	assert.False(t, s.Launch(g))
	assert.True(t, s.InFlight(g.ID()))
	assert.Equal(t, 1, s.RunningTaskCount())

	close(release)
	s.Wait()
	assert.False(t, s.Launch(g), "result not yet collected")

	results := s.Completed()
	require.Len(t, results, 1)
	assert.True(t, results[0].Empty())
	assert.ErrorIs(t, results[0].Err, accel.ErrDegenerate)
	assert.False(t, s.InFlight(g.ID()))
	assert.True(t, s.Launch(g))
	s.Wait()
}

func TestSnapshotTakenAtLaunch(t *testing.T) {
	release := make(chan struct{})
	var seen uint64
	s := NewScheduler(WithBuildFunc(func(snap *geometry.Snapshot) (*accel.BottomLevel, error) {
		<-release
		seen = snap.Generation
		return nil, nil
	}))
	t.Cleanup(s.Close)
	g := newGroup(t)
	gen := g.Generation()

	require.True(t, s.Launch(g))
	g.MarkDirty()
	close(release)
	s.Wait()

	results := s.Completed()
	require.Len(t, results, 1)
	assert.Equal(t, gen, seen)
	assert.Equal(t, gen, results[0].Generation)
	assert.False(t, g.Current(results[0].Generation))
}

func TestPanicsAreRecovered(t *testing.T) {
	s := NewScheduler(WithBuildFunc(func(*geometry.Snapshot) (*accel.BottomLevel, error) {
		panic(errors.New("boom"))
	}))
	t.Cleanup(s.Close)

	require.True(t, s.Launch(newGroup(t)))
	s.Wait()
	results := s.Completed()
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "boom")
	assert.True(t, results[0].Empty())
}

func TestLaunchAfterClose(t *testing.T) {
	s := NewScheduler(WithQueueSize(1), WithLeafSize(2))
	s.Close()
	s.Close()
	assert.False(t, s.Launch(newGroup(t)))
}

func TestWaitReturnsAfterCloseDropsQueuedBuilds(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	s := NewScheduler(WithWorkers(1), WithBuildFunc(func(*geometry.Snapshot) (*accel.BottomLevel, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	}))

	first := newGroup(t)
	require.True(t, s.Launch(first))
	<-started
	queued := []*geometry.Group{newGroup(t), newGroup(t)}
	for _, g := range queued {
		require.True(t, s.Launch(g))
	}

	s.Close()
	for _, g := range queued {
		assert.False(t, s.InFlight(g.ID()), "dropped builds leave flight")
	}
	close(release)

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait blocked after Close")
	}

	results := s.Completed()
	require.Len(t, results, 1)
	assert.Equal(t, first.ID(), results[0].GroupID)
}
