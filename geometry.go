package ylscene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry holds one triangle surface as typed per-attribute buffers.
// Normals, UVs and Tangents are per-vertex when present and may be empty.
// Tangents carry the handedness sign in W.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Tangents  []mgl32.Vec4
	Indices   []uint32
}

func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions)
}

// TriangleCount counts indexed triangles, or position triples when the
// geometry is not indexed.
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

func (g *Geometry) IsEmpty() bool {
	return g.VertexCount() == 0
}

// Clone makes a deep copy so baking never writes into shared template buffers.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	clone := &Geometry{}
	if len(g.Positions) > 0 {
		clone.Positions = make([]mgl32.Vec3, len(g.Positions))
		copy(clone.Positions, g.Positions)
	}
	if len(g.Normals) > 0 {
		clone.Normals = make([]mgl32.Vec3, len(g.Normals))
		copy(clone.Normals, g.Normals)
	}
	if len(g.UVs) > 0 {
		clone.UVs = make([]mgl32.Vec2, len(g.UVs))
		copy(clone.UVs, g.UVs)
	}
	if len(g.Tangents) > 0 {
		clone.Tangents = make([]mgl32.Vec4, len(g.Tangents))
		copy(clone.Tangents, g.Tangents)
	}
	if len(g.Indices) > 0 {
		clone.Indices = make([]uint32, len(g.Indices))
		copy(clone.Indices, g.Indices)
	}
	return clone
}

// sequentialIndices returns 0..n-1, used for non-indexed geometry merged into
// an indexed buffer.
func sequentialIndices(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

// Bounds returns the axis-aligned min/max corners. ok is false for empty
// geometry.
func (g *Geometry) Bounds() (minB, maxB mgl32.Vec3, ok bool) {
	if g.IsEmpty() {
		return minB, maxB, false
	}
	minB, maxB = g.Positions[0], g.Positions[0]
	for _, p := range g.Positions[1:] {
		for i := 0; i < 3; i++ {
			minB[i] = min(minB[i], p[i])
			maxB[i] = max(maxB[i], p[i])
		}
	}
	return minB, maxB, true
}
