package accel

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegenerate is returned when merged geometry produces no usable triangles.
var ErrDegenerate = errors.New("accel: degenerate geometry")

// Triangle is one merged triangle in object space, tagged with the submesh it came from.
type Triangle struct {
	V0, V1, V2 mgl32.Vec3
	Submesh    uint32
}

// Bounds returns the triangle's bounding box.
func (t Triangle) Bounds() AABB {
	return EmptyAABB().Grow(t.V0).Grow(t.V1).Grow(t.V2)
}

// Area returns the triangle's surface area.
func (t Triangle) Area() float32 {
	return 0.5 * t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Len()
}

// BottomLevel is a built per-group acceleration structure: a BVH over the group's
// merged triangles, which are stored in leaf order.
type BottomLevel struct {
	Nodes     []BVHNode
	Triangles []Triangle
}

// Bounds returns the object-space bounds of the structure.
func (b *BottomLevel) Bounds() AABB {
	if b == nil || len(b.Nodes) == 0 {
		return EmptyAABB()
	}
	return b.Nodes[0].Bounds
}

// TriangleCount returns the number of triangles in the structure.
func (b *BottomLevel) TriangleCount() int {
	if b == nil {
		return 0
	}
	return len(b.Triangles)
}

// SubmeshGeometry is the index list of one triangle submesh.
type SubmeshGeometry struct {
	Indices []uint32
}

// BuildBottomLevel merges submesh geometry into one triangle list and builds a BVH over it.
// Zero-area triangles are dropped.
//
// Parameters:
//   - positions: shared vertex positions
//   - submeshes: per-submesh triangle index lists
//   - leafSize: maximum triangles per leaf, DefaultLeafSize if <= 0
//
// Returns:
//   - *BottomLevel: the built structure
//   - error: ErrDegenerate if no triangle survives the merge, or an index error
func BuildBottomLevel(positions [][3]float32, submeshes []SubmeshGeometry, leafSize int) (*BottomLevel, error) {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}

	var tris []Triangle
	for s, sm := range submeshes {
		if len(sm.Indices)%3 != 0 {
			return nil, fmt.Errorf("submesh %d has %d indices: %w", s, len(sm.Indices), ErrDegenerate)
		}
		for i := 0; i < len(sm.Indices); i += 3 {
			a, b, c := sm.Indices[i], sm.Indices[i+1], sm.Indices[i+2]
			if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
				return nil, fmt.Errorf("submesh %d triangle %d references a missing vertex: %w", s, i/3, ErrDegenerate)
			}
			t := Triangle{
				V0:      positions[a],
				V1:      positions[b],
				V2:      positions[c],
				Submesh: uint32(s),
			}
			if t.Area() <= 0 {
				continue
			}
			tris = append(tris, t)
		}
	}
	if len(tris) == 0 {
		return nil, ErrDegenerate
	}

	bounds := make([]AABB, len(tris))
	for i, t := range tris {
		bounds[i] = t.Bounds()
	}
	nodes, order := buildHierarchy(bounds, leafSize)

	ordered := make([]Triangle, len(tris))
	for i, idx := range order {
		ordered[i] = tris[idx]
	}
	return &BottomLevel{Nodes: nodes, Triangles: ordered}, nil
}
