package ylscene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrMalformedInstance rejects instances without usable geometry or material.
	ErrMalformedInstance = errors.New("malformed instance")
	// ErrBatchFull means a new signature arrived while the state already holds
	// the maximum number of surfaces. Commit and retry.
	ErrBatchFull = errors.New("batch surface limit reached")
)

// DefaultMaxSurfaces is the rendering backend's per-mesh surface ceiling.
const DefaultMaxSurfaces = 256

// NormalMode selects how normals are carried through a baked transform.
type NormalMode int

const (
	// NormalsInverseTranspose applies the inverse-transpose of each scale
	// and rotation step, then renormalizes. Correct under non-uniform scale.
	NormalsInverseTranspose NormalMode = iota
	// NormalsRotateOnly applies the two rotations only and never rescales.
	NormalsRotateOnly
)

func (m NormalMode) String() string {
	if m == NormalsRotateOnly {
		return "rotate-only"
	}
	return "inverse-transpose"
}

type batchBucket struct {
	signature MaterialSignature
	geometry  *Geometry
	material  *Material
}

// BucketInfo is a read-only summary of one bucket.
type BucketInfo struct {
	Signature MaterialSignature
	Vertices  int
	Indices   int
}

// BatchState accumulates baked instance geometry into one bucket per material
// signature. Not safe for concurrent use; shard and Merge instead.
type BatchState struct {
	buckets      map[MaterialSignature]*batchBucket
	order        []*batchBucket
	surfaceCount int
	maxSurfaces  int
	normalMode   NormalMode
}

type BatchOption func(*BatchState)

func WithNormalMode(mode NormalMode) BatchOption {
	return func(b *BatchState) { b.normalMode = mode }
}

// NewBatchState creates an empty session. maxSurfaces <= 0 selects
// DefaultMaxSurfaces.
func NewBatchState(maxSurfaces int, opts ...BatchOption) *BatchState {
	if maxSurfaces <= 0 {
		maxSurfaces = DefaultMaxSurfaces
	}
	b := &BatchState{
		buckets:     make(map[MaterialSignature]*batchBucket),
		maxSurfaces: maxSurfaces,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BatchState) SurfaceCount() int { return b.surfaceCount }
func (b *BatchState) MaxSurfaces() int  { return b.maxSurfaces }
func (b *BatchState) Len() int          { return len(b.order) }

// Buckets summarizes the buckets in first-seen order.
func (b *BatchState) Buckets() []BucketInfo {
	out := make([]BucketInfo, 0, len(b.order))
	for _, bk := range b.order {
		out = append(out, BucketInfo{
			Signature: bk.signature,
			Vertices:  len(bk.geometry.Positions),
			Indices:   len(bk.geometry.Indices),
		})
	}
	return out
}

// Placement locates an instance's owning node: its world matrix and the
// rotation NormalsRotateOnly applies to normals.
type Placement struct {
	World    mgl32.Mat4
	Rotation mgl32.Quat
}

// PlacementOf places an owning node directly at t.
func PlacementOf(t Transform) Placement {
	return Placement{World: t.ObjectToWorld(), Rotation: t.Rotation}
}

// Append bakes inst at the owning node's absolute transform and merges it
// into the bucket for its material signature. A rejected call
// (ErrMalformedInstance, ErrBatchFull) leaves the state untouched.
func (b *BatchState) Append(inst *ResolvedInstance, node Transform) error {
	return b.AppendAt(inst, PlacementOf(node))
}

// AppendAt is Append for an owner given by its world matrix. Nested owners
// under non-uniformly scaled parents need it: their matrix chain carries a
// shear no Transform can express.
func (b *BatchState) AppendAt(inst *ResolvedInstance, at Placement) error {
	if err := validateInstance(inst); err != nil {
		return err
	}
	mesh := inst.Mesh
	sig, ok := SignatureOf(mesh.Material)
	if !ok {
		return fmt.Errorf("%w: no material", ErrMalformedInstance)
	}

	bucket, exists := b.buckets[sig]
	if !exists && b.surfaceCount >= b.maxSurfaces {
		return ErrBatchFull
	}

	baked := BakeGeometry(mesh.Geometry, mesh.Transform, at, b.normalMode)

	if !exists {
		b.addBucket(sig, baked, mesh.Material.Clone())
		return nil
	}
	bucket.merge(baked)
	return nil
}

// TryAppend is Append reporting only success.
func (b *BatchState) TryAppend(inst *ResolvedInstance, node Transform) bool {
	return b.Append(inst, node) == nil
}

func (b *BatchState) addBucket(sig MaterialSignature, geom *Geometry, mat *Material) {
	bucket := &batchBucket{signature: sig, geometry: geom, material: mat}
	b.buckets[sig] = bucket
	b.order = append(b.order, bucket)
	b.surfaceCount++
}

// Commit turns the buckets into one batch node, one surface per signature in
// first-seen order, then resets the state. Returns nil when nothing was
// appended. The id only affects the node name; negative ids are omitted.
func (b *BatchState) Commit(id int) *Node {
	if b.surfaceCount == 0 {
		return nil
	}

	name := "Combined Mesh"
	if id > -1 {
		name = fmt.Sprintf("[%d] Combined Mesh", id)
	}
	node := NewNode(name, NodeBatch)
	for _, bk := range b.order {
		node.Surfaces = append(node.Surfaces, Surface{
			Geometry: bk.geometry,
			Material: bk.material,
		})
	}

	b.reset()
	return node
}

func (b *BatchState) reset() {
	clear(b.buckets)
	b.order = nil
	b.surfaceCount = 0
}

// Merge folds another shard's buckets into b in the shard's bucket order.
// Each bucket is merged like a single append, so index offsets stay correct.
// When the ceiling is hit, b is committed and the batch is returned; ids
// start at firstID. other is left empty.
func (b *BatchState) Merge(other *BatchState, firstID int) []*Node {
	var committed []*Node
	for _, src := range other.order {
		if bucket, ok := b.buckets[src.signature]; ok {
			bucket.merge(src.geometry)
			continue
		}
		if b.surfaceCount >= b.maxSurfaces {
			committed = append(committed, b.Commit(firstID+len(committed)))
		}
		b.addBucket(src.signature, src.geometry, src.material)
	}
	other.reset()
	return committed
}

// merge concatenates g onto the bucket geometry. Indices are offset by the
// vertex count held before this call. An attribute the bucket carries but g
// lacks is padded so per-vertex buffers stay aligned; one the bucket lacks is
// dropped.
func (bk *batchBucket) merge(g *Geometry) {
	dst := bk.geometry
	n := len(g.Positions)
	base := uint32(len(dst.Positions))

	dst.Positions = append(dst.Positions, g.Positions...)

	if len(dst.Normals) > 0 {
		if len(g.Normals) == n {
			dst.Normals = append(dst.Normals, g.Normals...)
		} else {
			dst.Normals = append(dst.Normals, make([]mgl32.Vec3, n)...)
		}
	}
	if len(dst.UVs) > 0 {
		if len(g.UVs) == n {
			dst.UVs = append(dst.UVs, g.UVs...)
		} else {
			dst.UVs = append(dst.UVs, make([]mgl32.Vec2, n)...)
		}
	}
	if len(dst.Tangents) > 0 {
		if len(g.Tangents) == n {
			dst.Tangents = append(dst.Tangents, g.Tangents...)
		} else {
			pad := make([]mgl32.Vec4, n)
			for i := range pad {
				pad[i] = mgl32.Vec4{1, 0, 0, 1}
			}
			dst.Tangents = append(dst.Tangents, pad...)
		}
	}

	src := g.Indices
	if len(src) == 0 {
		src = sequentialIndices(n)
	}
	if len(dst.Indices) == 0 && base > 0 {
		dst.Indices = sequentialIndices(int(base))
	}
	for _, idx := range src {
		dst.Indices = append(dst.Indices, idx+base)
	}
}

func validateInstance(inst *ResolvedInstance) error {
	if inst == nil || inst.Mesh == nil {
		return fmt.Errorf("%w: no mesh", ErrMalformedInstance)
	}
	g := inst.Mesh.Geometry
	if g.IsEmpty() {
		return fmt.Errorf("%w: no vertices", ErrMalformedInstance)
	}
	n := len(g.Positions)
	attrs := []struct {
		name  string
		count int
	}{{"normals", len(g.Normals)}, {"uvs", len(g.UVs)}, {"tangents", len(g.Tangents)}}
	for _, a := range attrs {
		if a.count != 0 && a.count != n {
			return fmt.Errorf("%w: %d %s for %d vertices", ErrMalformedInstance, a.count, a.name, n)
		}
	}
	for _, idx := range g.Indices {
		if idx >= uint32(n) {
			return fmt.Errorf("%w: index %d out of range for %d vertices", ErrMalformedInstance, idx, n)
		}
	}
	return nil
}

// BakeGeometry returns a copy of src expressed in the space the owner's world
// matrix maps into. Positions go through the mesh transform and then the
// owner matrix. Normals take the inverse-transpose of that combined linear
// part, or only the two rotations in NormalsRotateOnly mode. Tangents take
// the linear part and keep their sign. Per-vertex attributes whose length does
// not match the vertex count are dropped.
func BakeGeometry(src *Geometry, mesh Transform, node Placement, mode NormalMode) *Geometry {
	out := src.Clone()
	n := len(out.Positions)

	m := node.World.Mul4(mesh.ObjectToWorld())
	for i, v := range out.Positions {
		out.Positions[i] = m.Mul4x1(v.Vec4(1)).Vec3()
	}
	linear := m.Mat3()

	if len(out.Normals) != n {
		out.Normals = nil
	}
	switch mode {
	case NormalsRotateOnly:
		rot := node.Rotation.Mul(mesh.Rotation)
		for i, nv := range out.Normals {
			out.Normals[i] = rot.Rotate(nv)
		}
	default:
		normalMat := linear.Inv().Transpose()
		for i, nv := range out.Normals {
			nv = normalMat.Mul3x1(nv)
			if nv.Len() > 0 {
				nv = nv.Normalize()
			}
			out.Normals[i] = nv
		}
	}

	if len(out.Tangents) != n {
		out.Tangents = nil
	}
	for i, t := range out.Tangents {
		d := linear.Mul3x1(t.Vec3())
		if d.Len() > 0 {
			d = d.Normalize()
		}
		out.Tangents[i] = d.Vec4(t.W())
	}

	if len(out.UVs) != n {
		out.UVs = nil
	}
	return out
}
