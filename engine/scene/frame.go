package scene

import (
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
)

// FrameStats reports what one Frame pass did.
type FrameStats struct {
	Frame           uint64
	Applied         int
	Discarded       int
	Reparented      int
	Added           int
	Removed         int
	Resynced        int
	MaterialUploads int
	TornDown        int
	LightsUploaded  bool
	TopLevelRebuilt bool
	Instances       int
	Launched        int
	Running         int
	Duration        time.Duration
}

// Frame runs the synchronization pass in a fixed order:
//  1. apply completed builds (scene groups, then instance sources)
//  2. instance pass: reparent diffs, add set, remove set
//  3. re-sync followers when the material table changed
//  4. upload queued material parameters
//  5. destroy orphaned groups
//  6. upload lights if any changed
//  7. rebuild the top-level structure if anything moved
//  8. drain the rebuild queues into the schedulers
func (s *sceneRegistry) Frame() FrameStats {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	stats := FrameStats{Frame: s.frames}
	log := common.Logger()

	stats.Applied, stats.Discarded = s.applyLocked()

	stats.Reparented, stats.Added, stats.Removed = s.handles.processLocked()

	if s.table.Version() != s.tableVersion {
		stats.Resynced = s.resyncLocked()
		log.Debug("material table changed, followers re-synced", "registry", s.name, "records", stats.Resynced)
	}

	stats.MaterialUploads = s.scene.uploadMaterials(s.r) + s.sources.uploadMaterials(s.r)

	stats.TornDown = s.scene.destroyOrphans(s.r) + s.sources.destroyOrphans(s.r)
	if stats.TornDown > 0 {
		s.tlasDirty = true
	}

	if lights, changed := s.lights.Collect(); changed {
		if err := s.r.UploadLights(lights); err != nil {
			log.Warn("light upload failed", "registry", s.name, "err", err)
		} else {
			stats.LightsUploaded = true
		}
	}

	if s.tlasDirty {
		instances := append(s.scene.instances(), s.handles.instancesLocked()...)
		s.topLevel = accel.BuildTopLevel(instances)
		if err := s.r.UploadTopLevel(s.topLevel); err != nil {
			log.Warn("top-level upload failed", "registry", s.name, "err", err)
		}
		s.tlasDirty = false
		stats.TopLevelRebuilt = true
	}
	if s.topLevel != nil {
		stats.Instances = len(s.topLevel.Instances)
	}

	stats.Launched = s.scene.drain() + s.sources.drain()
	stats.Running = s.sceneScheduler.RunningTaskCount() + s.sourceScheduler.RunningTaskCount()
	stats.Duration = time.Since(start)
	return stats
}
