package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/builder"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, options ...EngineBuilderOption) Engine {
	t.Helper()
	reg := scene.NewSceneRegistry(
		renderer.NewRenderer(renderer.BackendTypeMemory),
		scene.WithSchedulerOptions(builder.WithWorkers(1)),
	)
	t.Cleanup(reg.Close)
	return NewEngine(reg, options...)
}

func quad(t *testing.T) record.Record {
	t.Helper()
	r, err := record.NewRecord(record.Mesh{
		Name:      "quad",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Submeshes: []record.Submesh{{Indices: []uint32{0, 1, 2, 0, 2, 3}}},
	}, []material.HostMaterial{&material.StaticHostMaterial{MaterialName: "M", Shader: "Standard"}})
	require.NoError(t, err)
	return r
}

func TestNewEnginePanicsWithoutRegistry(t *testing.T) {
	assert.Panics(t, func() { NewEngine(nil) })
}

func TestStepRunsTickCallbackThenFrame(t *testing.T) {
	e := newTestEngine(t, WithProfiling(true), WithProfilerInterval(time.Hour))
	r := quad(t)

	e.SetTickCallback(func(float32) {
		if e.Frames() == 0 {
			_, err := e.Registry().RegisterRecord(r)
			require.NoError(t, err)
		}
	})
	var last scene.FrameStats
	e.SetFrameCallback(func(stats scene.FrameStats) { last = stats })

	stats := e.Step(0.016)
	assert.Equal(t, 1, stats.Launched)
	assert.Equal(t, stats, last)
	assert.Equal(t, uint64(1), e.Frames())

	e.Registry().Wait()
	stats = e.Step(0.016)
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 1, stats.Instances)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t, WithTickRate(500))
	var ticks atomic.Int64
	e.SetTickCallback(func(float32) { ticks.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, ticks.Load())
	assert.Equal(t, uint64(ticks.Load()), e.Frames())
}

func TestQuitStopsRun(t *testing.T) {
	e := newTestEngine(t, WithTickRate(200))
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	e.Quit()
	e.Quit()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestPauseSkipsTicks(t *testing.T) {
	e := newTestEngine(t, WithTickRate(500))
	e.Pause()
	assert.True(t, e.Paused())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = e.Run(ctx)
	assert.Equal(t, uint64(0), e.Frames())

	e.Resume()
	assert.False(t, e.Paused())
}

func TestKeysDriveEngine(t *testing.T) {
	e := newTestEngine(t).(*engine)

	e.handleKey(common.KeyP)
	assert.True(t, e.Paused())
	e.handleKey(common.KeySpace)
	assert.Equal(t, uint64(1), e.Frames())
	e.handleKey(common.KeyP)
	assert.False(t, e.Paused())
	e.handleKey(common.KeySpace)
	assert.Equal(t, uint64(1), e.Frames())
	e.handleKey(common.KeyR)
}

func TestTickInterval(t *testing.T) {
	assert.Equal(t, time.Second/60, tickInterval(0))
	assert.Equal(t, 10*time.Millisecond, tickInterval(100))
}
