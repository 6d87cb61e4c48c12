package builder

import "time"

// SchedulerBuilderOption is a function that configures a Scheduler during construction.
type SchedulerBuilderOption func(*scheduler)

// WithWorkers sets the maximum number of concurrent builds.
//
// Parameters:
//   - n: the worker count, values below 1 are treated as 1
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the worker option to a scheduler
func WithWorkers(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.workers = max(n, 1)
	}
}

// WithQueueSize sets how many launched builds may wait for a worker before Launch blocks.
//
// Parameters:
//   - n: the queue capacity
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the queue option to a scheduler
func WithQueueSize(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.queueSize = max(n, 1)
	}
}

// WithIdleTimeout sets how long an idle worker is kept.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the timeout option to a scheduler
func WithIdleTimeout(d time.Duration) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.idleTimeout = d
	}
}

// WithLeafSize sets the maximum triangles per BVH leaf for the default build function.
//
// Parameters:
//   - n: the leaf size
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the leaf size option to a scheduler
func WithLeafSize(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.leafSize = n
	}
}

// WithBuildFunc replaces the default BLAS builder.
//
// Parameters:
//   - fn: the build function
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the build function to a scheduler
func WithBuildFunc(fn BuildFunc) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.build = fn
	}
}
