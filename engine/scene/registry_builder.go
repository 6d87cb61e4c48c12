package scene

import (
	"github.com/Carmen-Shannon/oxy-trace/engine/builder"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
)

// RegistryBuilderOption is a functional option for configuring a SceneRegistry.
// Use the With* functions to create options.
type RegistryBuilderOption func(s *sceneRegistry)

// WithName sets the label the registry logs under.
//
// Parameters:
//   - name: the label
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithName(name string) RegistryBuilderOption {
	return func(s *sceneRegistry) {
		s.name = name
	}
}

// WithMaterialTable shares an existing material table with the registry. Defaults to
// a table holding material.DefaultRules.
//
// Parameters:
//   - t: the table
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithMaterialTable(t material.Table) RegistryBuilderOption {
	return func(s *sceneRegistry) {
		s.table = t
	}
}

// WithLightRegistry sets the light registry uploaded by Frame.
//
// Parameters:
//   - l: the light registry
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithLightRegistry(l light.Registry) RegistryBuilderOption {
	return func(s *sceneRegistry) {
		s.lights = l
	}
}

// WithSchedulerOptions configures both default schedulers.
// Ignored for a scheduler supplied with WithSceneScheduler or WithSourceScheduler.
//
// Parameters:
//   - options: scheduler options
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithSchedulerOptions(options ...builder.SchedulerBuilderOption) RegistryBuilderOption {
	return func(s *sceneRegistry) {
		s.schedulerOptions = append(s.schedulerOptions, options...)
	}
}

// WithSceneScheduler sets the scheduler that builds scene groups.
//
// Parameters:
//   - sched: the scheduler
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithSceneScheduler(sched builder.Scheduler) RegistryBuilderOption {
	return func(s *sceneRegistry) {
		s.sceneScheduler = sched
	}
}

// WithSourceScheduler sets the scheduler that builds instance source groups.
//
// Parameters:
//   - sched: the scheduler
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithSourceScheduler(sched builder.Scheduler) RegistryBuilderOption {
	return func(s *sceneRegistry) {
		s.sourceScheduler = sched
	}
}
