package accel

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Instance places one group's bottom-level structure in the world.
type Instance struct {
	GroupID       uint64
	MeshDataIndex int
	Transform     mgl32.Mat4
	Bounds        AABB // world space
}

// NewInstance creates an instance of blas at transform.
//
// Parameters:
//   - groupID: the owning group
//   - meshDataIndex: the group's slot in the compacted mesh-data buffer
//   - blas: the group's structure
//   - transform: object-to-world matrix
//
// Returns:
//   - Instance: the instance with its world bounds computed
func NewInstance(groupID uint64, meshDataIndex int, blas *BottomLevel, transform mgl32.Mat4) Instance {
	return Instance{
		GroupID:       groupID,
		MeshDataIndex: meshDataIndex,
		Transform:     transform,
		Bounds:        blas.Bounds().Transform(transform),
	}
}

// TopLevel is the scene-wide structure over every instance. It is rebuilt wholesale.
type TopLevel struct {
	Instances []Instance
	Nodes     []BVHNode
}

// Bounds returns the world bounds of the whole scene.
func (t *TopLevel) Bounds() AABB {
	if t == nil || len(t.Nodes) == 0 {
		return EmptyAABB()
	}
	return t.Nodes[0].Bounds
}

// BuildTopLevel builds a BVH over instances with one instance per leaf. Instances
// are reordered to leaf order. An empty input yields an empty structure.
//
// Parameters:
//   - instances: every live instance
//
// Returns:
//   - *TopLevel: the built structure
func BuildTopLevel(instances []Instance) *TopLevel {
	if len(instances) == 0 {
		return &TopLevel{}
	}
	bounds := make([]AABB, len(instances))
	for i, inst := range instances {
		bounds[i] = inst.Bounds
	}
	nodes, order := buildHierarchy(bounds, 1)

	ordered := make([]Instance, len(instances))
	for i, idx := range order {
		ordered[i] = instances[idx]
	}
	return &TopLevel{Instances: ordered, Nodes: nodes}
}
