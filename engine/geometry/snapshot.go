package geometry

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/accel"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
	"github.com/jinzhu/copier"
)

// Snapshot is a private deep copy of everything a build reads from a group.
// Builds never touch the group after the snapshot is taken.
type Snapshot struct {
	GroupID    uint64
	Generation uint64
	Name       string
	Mesh       record.Mesh
	Materials  []material.SubmeshMaterial
}

// Geometry returns the snapshot's triangle submeshes in the form the BLAS builder takes.
func (s *Snapshot) Geometry() ([][3]float32, []accel.SubmeshGeometry) {
	subs := make([]accel.SubmeshGeometry, len(s.Mesh.Submeshes))
	for i, sm := range s.Mesh.Submeshes {
		subs[i] = accel.SubmeshGeometry{Indices: sm.Indices}
	}
	return s.Mesh.Positions, subs
}

func newSnapshot(id, generation uint64, lead record.Record) (*Snapshot, error) {
	snap := &Snapshot{
		GroupID:    id,
		Generation: generation,
		Name:       lead.Name(),
		Materials:  lead.Submeshes(),
	}
	if err := copier.CopyWithOption(&snap.Mesh, lead.Mesh(), copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to snapshot group %d: %w", id, err)
	}
	return snap, nil
}
