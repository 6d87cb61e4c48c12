package record

// Topology is the primitive layout of a submesh's index list.
type Topology int

const (
	// TopologyTriangles is an indexed triangle list. It is the only topology that can be traced.
	TopologyTriangles Topology = iota
	// TopologyLines is an indexed line list.
	TopologyLines
	// TopologyLineStrip is an indexed line strip.
	TopologyLineStrip
	// TopologyPoints is an indexed point list.
	TopologyPoints
)

var topologyNames = [...]string{"Triangles", "Lines", "LineStrip", "Points"}

func (t Topology) String() string {
	if t < 0 || int(t) >= len(topologyNames) {
		return "Unknown"
	}
	return topologyNames[t]
}

// Submesh is one index range of a mesh, rendered with one material.
type Submesh struct {
	Indices  []uint32
	Topology Topology
}

// Mesh is the geometry a record was created from. Submeshes share Positions.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Submeshes []Submesh
}

// VertexCount returns the number of vertex positions.
func (m Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles across all triangle submeshes.
func (m Mesh) TriangleCount() int {
	n := 0
	for _, s := range m.Submeshes {
		if s.Topology == TopologyTriangles {
			n += len(s.Indices) / 3
		}
	}
	return n
}
