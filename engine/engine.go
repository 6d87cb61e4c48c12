package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/profiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick goroutine and the optional window thread.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	paused  atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	// tickMu serializes ticks between the tick goroutine and Step.
	tickMu *sync.Mutex

	registry scene.SceneRegistry
	window   window.Window
	title    string
	watcher  material.Watcher

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  func(stats scene.FrameStats)

	frames      atomic.Uint64
	sceneTasks  atomic.Int64
	sourceTasks atomic.Int64
}

// Engine drives a SceneRegistry at a fixed tick rate. Every tick runs the host's
// tick callback, then exactly one registry Frame.
type Engine interface {
	// Registry returns the driven scene registry.
	Registry() scene.SceneRegistry

	// Window returns the progress window, nil when running headless.
	Window() window.Window

	// EnableProfiler enables periodic profiling output to the engine logger.
	EnableProfiler()

	// DisableProfiler disables profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called before each Frame. Host scene
	// mutations belong here.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called with each Frame's statistics.
	//
	// Parameters:
	//   - callback: function receiving the frame statistics
	SetFrameCallback(callback func(stats scene.FrameStats))

	// Pause stops ticking until Resume. Step still works while paused.
	Pause()

	// Resume restarts ticking after Pause.
	Resume()

	// Paused reports whether ticking is paused.
	Paused() bool

	// Step runs a single tick synchronously.
	//
	// Parameters:
	//   - deltaTime: the delta time handed to the tick callback
	//
	// Returns:
	//   - scene.FrameStats: the Frame's statistics
	Step(deltaTime float32) scene.FrameStats

	// Frames returns the number of ticks run so far.
	Frames() uint64

	// Run starts the tick loop and blocks until ctx is done, Quit is called or the
	// window closes. With a window, Run must be called from the main goroutine.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: ctx.Err() if the context ended the loop, nil otherwise
	Run(ctx context.Context) error

	// Quit signals the tick loop to stop. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine driving reg. The registry is required and NewEngine
// panics if it is nil.
//
// Parameters:
//   - reg: the scene registry to drive (must not be nil)
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(reg scene.SceneRegistry, options ...EngineBuilderOption) Engine {
	if reg == nil {
		panic("engine: NewEngine requires a non-nil SceneRegistry")
	}

	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		tickMu:          &sync.Mutex{},
		registry:        reg,
		title:           "oxy-trace",
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if e.window != nil {
		e.window.SetKeyDownCallback(e.handleKey)
		e.window.SetUpdateCallback(func() {
			e.window.SetTitle(window.ProgressTitle(e.title, int(e.sceneTasks.Load()), int(e.sourceTasks.Load())))
			select {
			case <-e.quitChannel:
				_ = e.window.Close()
			default:
			}
		})
	}

	return e
}

func (e *engine) Registry() scene.SceneRegistry {
	return e.registry
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)
	common.Logger().Info("engine started", "registry", e.registry.Name(), "tick", e.engineTickRate)

	e.wg.Add(1)
	go e.handleEngine()

	if e.window != nil {
		go func() {
			select {
			case <-ctx.Done():
				e.signalQuit()
			case <-e.quitChannel:
			}
		}()
		e.window.ProcessMessages()
		e.signalQuit()
		_ = e.window.Close()
	} else {
		select {
		case <-ctx.Done():
			e.signalQuit()
		case <-e.quitChannel:
		}
	}
	e.wg.Wait()
	err := ctx.Err()

	if e.watcher != nil {
		if cerr := e.watcher.Close(); cerr != nil {
			common.Logger().Warn("material watcher close failed", "err", cerr)
		}
	}
	common.Logger().Info("engine stopped", "registry", e.registry.Name(), "frames", e.frames.Load())
	return err
}

// Quit signals the tick goroutine to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.paused.Load() {
				continue
			}
			e.Step(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) Step(deltaTime float32) scene.FrameStats {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if e.tickCallback != nil {
		e.tickCallback(deltaTime)
	}
	stats := e.registry.Frame()
	e.frames.Add(1)
	e.sceneTasks.Store(int64(e.registry.RunningTaskCount()))
	e.sourceTasks.Store(int64(e.registry.Instances().RunningTaskCount()))

	if e.profilingEnabled {
		e.profiler.Tick(profiler.Sample{
			Applied:   stats.Applied,
			Discarded: stats.Discarded,
			Launched:  stats.Launched,
			Running:   stats.Running,
			Instances: stats.Instances,
			Sync:      stats.Duration,
		})
	}
	if e.frameCallback != nil {
		e.frameCallback(stats)
	}
	return stats
}

// handleKey maps progress window keys onto engine actions.
func (e *engine) handleKey(keyCode uint32) {
	switch keyCode {
	case common.KeyP:
		if e.paused.Load() {
			e.Resume()
		} else {
			e.Pause()
		}
	case common.KeyR:
		n := e.registry.ResyncFollowers()
		common.Logger().Info("material followers re-synced", "records", n)
	case common.KeySpace:
		if e.paused.Load() {
			e.Step(0)
		}
	}
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) Pause() {
	e.paused.Store(true)
}

func (e *engine) Resume() {
	e.paused.Store(false)
}

func (e *engine) Paused() bool {
	return e.paused.Load()
}

// EnableProfiler enables profiling output to the engine logger.
func (e *engine) EnableProfiler() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables profiling output.
func (e *engine) DisableProfiler() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.tickCallback = callback
}

// SetFrameCallback registers the function called with each Frame's statistics.
func (e *engine) SetFrameCallback(callback func(stats scene.FrameStats)) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.frameCallback = callback
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}
