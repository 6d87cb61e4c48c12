package accel

import (
	"sort"
)

// DefaultLeafSize is the primitive count at or below which the builder stops splitting.
const DefaultLeafSize = 4

// BVHNode is one node of a flattened bounding volume hierarchy. Interior nodes have
// Count == 0 and their children at LeftFirst and LeftFirst+1. Leaves reference
// Count primitives starting at LeftFirst in the hierarchy's primitive order.
type BVHNode struct {
	Bounds    AABB
	LeftFirst uint32
	Count     uint32
}

// Leaf reports whether the node references primitives directly.
func (n BVHNode) Leaf() bool {
	return n.Count > 0
}

// buildHierarchy builds a flat BVH over primitive bounds by splitting at the median
// centroid along the longest axis. It returns the nodes (root at index 0) and the
// primitive order leaves index into.
func buildHierarchy(bounds []AABB, leafSize int) ([]BVHNode, []uint32) {
	if len(bounds) == 0 {
		return nil, nil
	}
	if leafSize < 1 {
		leafSize = 1
	}

	order := make([]uint32, len(bounds))
	centroids := make([][3]float32, len(bounds))
	for i, b := range bounds {
		order[i] = uint32(i)
		centroids[i] = b.Centroid()
	}

	nodes := make([]BVHNode, 1, 2*len(bounds))
	type job struct {
		node        int
		first, last int
	}
	stack := []job{{node: 0, first: 0, last: len(bounds)}}
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		box := EmptyAABB()
		centroidBox := EmptyAABB()
		for _, idx := range order[j.first:j.last] {
			box = box.Union(bounds[idx])
			centroidBox = centroidBox.Grow(centroids[idx])
		}
		nodes[j.node].Bounds = box

		count := j.last - j.first
		axis := centroidBox.LongestAxis()
		if count <= leafSize || centroidBox.Extent()[axis] == 0 {
			nodes[j.node].LeftFirst = uint32(j.first)
			nodes[j.node].Count = uint32(count)
			continue
		}

		span := order[j.first:j.last]
		sort.Slice(span, func(a, b int) bool {
			return centroids[span[a]][axis] < centroids[span[b]][axis]
		})
		mid := j.first + count/2

		left := len(nodes)
		nodes = append(nodes, BVHNode{}, BVHNode{})
		nodes[j.node].LeftFirst = uint32(left)
		nodes[j.node].Count = 0
		stack = append(stack, job{node: left + 1, first: mid, last: j.last}, job{node: left, first: j.first, last: mid})
	}
	return nodes, order
}
