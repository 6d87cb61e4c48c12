package builder

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
)

// BuildFunc turns a snapshot into a bottom-level structure. It runs on a worker
// goroutine and must only read the snapshot.
type BuildFunc func(snap *geometry.Snapshot) (*accel.BottomLevel, error)

// Result is a completed build, tagged with the group and generation it was launched for.
type Result struct {
	GroupID    uint64
	Generation uint64
	BLAS       *accel.BottomLevel
	Err        error
	Duration   time.Duration
}

// Empty reports whether the build produced nothing to upload. Failed and degenerate
// builds are empty.
func (r Result) Empty() bool {
	return r.Err != nil || r.BLAS == nil || r.BLAS.TriangleCount() == 0
}

type scheduler struct {
	mu *sync.Mutex

	pool        worker.DynamicWorkerPool
	workers     int
	queueSize   int
	idleTimeout time.Duration
	leafSize    int
	build       BuildFunc

	inFlight  map[uint64]struct{}
	queued    map[int]uint64
	completed []Result
	wg        sync.WaitGroup
	taskID    int
	closed    bool
}

// Scheduler runs bottom-level builds off the calling goroutine with at most one
// build in flight per group. A group stays in flight until its Result has been
// collected with Completed.
type Scheduler interface {
	// Launch snapshots g and starts a build for it.
	//
	// Parameters:
	//   - g: the group to build
	//
	// Returns:
	//   - bool: false if a build for g is already in flight or the scheduler is closed
	Launch(g *geometry.Group) bool

	// InFlight reports whether a build for the group is launched and not yet collected.
	//
	// Parameters:
	//   - groupID: the group's ID
	//
	// Returns:
	//   - bool: true if in flight
	InFlight(groupID uint64) bool

	// RunningTaskCount returns the number of launched builds not yet collected.
	RunningTaskCount() int

	// Completed returns every posted result without blocking and releases their groups.
	Completed() []Result

	// Wait blocks until every launched build has posted its result or been dropped
	// by Close.
	Wait()

	// Close stops the worker pool. Builds that have not started are dropped without a
	// Result and leave flight; builds already running still post theirs.
	Close()
}

var _ Scheduler = &scheduler{}

// NewScheduler creates a Scheduler backed by a dynamic worker pool.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Scheduler: the new scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &scheduler{
		mu:          &sync.Mutex{},
		workers:     4,
		queueSize:   256,
		idleTimeout: 1 * time.Second,
		leafSize:    accel.DefaultLeafSize,
		inFlight:    make(map[uint64]struct{}),
		queued:      make(map[int]uint64),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.build == nil {
		leaf := s.leafSize
		s.build = func(snap *geometry.Snapshot) (*accel.BottomLevel, error) {
			pos, subs := snap.Geometry()
			return accel.BuildBottomLevel(pos, subs, leaf)
		}
	}
	s.pool = worker.NewDynamicWorkerPool(s.workers, s.queueSize, s.idleTimeout)
	return s
}

func (s *scheduler) Launch(g *geometry.Group) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.inFlight[g.ID()]; ok {
		s.mu.Unlock()
		return false
	}
	s.inFlight[g.ID()] = struct{}{}
	s.taskID++
	id := s.taskID
	s.queued[id] = g.ID()
	s.wg.Add(1)
	s.mu.Unlock()

	snap, err := g.Snapshot()
	if err != nil {
		if s.claim(id) {
			s.post(Result{GroupID: g.ID(), Generation: g.Generation(), Err: err})
		}
		return true
	}

	s.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: snap.GroupID,
		Do: func() (any, error) {
			if !s.claim(id) {
				return nil, nil
			}
			res := s.run(snap)
			s.post(res)
			return res, res.Err
		},
	})
	return true
}

// run executes the build function and recovers panics into the result.
func (s *scheduler) run(snap *geometry.Snapshot) (res Result) {
	start := time.Now()
	res = Result{GroupID: snap.GroupID, Generation: snap.Generation}
	defer func() {
		if p := recover(); p != nil {
			res.BLAS = nil
			res.Err = fmt.Errorf("build of group %d panicked: %v", snap.GroupID, p)
		}
		res.Duration = time.Since(start)
		common.Logger().Debug("blas build finished",
			"group", res.GroupID, "generation", res.Generation,
			"triangles", res.BLAS.TriangleCount(), "duration", res.Duration, "err", res.Err)
	}()
	res.BLAS, res.Err = s.build(snap)
	return res
}

// claim takes task id off the queued set. It returns false if Close already dropped it.
func (s *scheduler) claim(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queued[id]; !ok {
		return false
	}
	delete(s.queued, id)
	return true
}

func (s *scheduler) post(res Result) {
	s.mu.Lock()
	s.completed = append(s.completed, res)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *scheduler) InFlight(groupID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[groupID]
	return ok
}

func (s *scheduler) RunningTaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

func (s *scheduler) Completed() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.completed) == 0 {
		return nil
	}
	out := s.completed
	s.completed = nil
	for _, r := range out {
		delete(s.inFlight, r.GroupID)
	}
	return out
}

func (s *scheduler) Wait() {
	s.wg.Wait()
}

func (s *scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	dropped := s.queued
	s.queued = make(map[int]uint64)
	for _, groupID := range dropped {
		delete(s.inFlight, groupID)
	}
	s.mu.Unlock()

	s.pool.Stop()
	s.pool.ClearTaskQueue()
	for range dropped {
		s.wg.Done()
	}
	if len(dropped) > 0 {
		common.Logger().Debug("queued builds dropped on close", "count", len(dropped))
	}
}
