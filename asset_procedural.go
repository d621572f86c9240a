package ylscene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// StdUnit is the edge length of a 1x1x1 block in engine units.
	StdUnit float32 = 0.375
	// StdHalfUnit is half a block, handy when authoring offset assets.
	StdHalfUnit float32 = 0.1875
)

// faceBuilder accumulates flat-shaded convex polygons. Every polygon gets its
// own vertices so normals stay per-face.
type faceBuilder struct {
	geom   Geometry
	center mgl32.Vec3
}

func newFaceBuilder(center mgl32.Vec3) *faceBuilder {
	return &faceBuilder{center: center}
}

// face adds a triangle or quad. Vertex order is flipped when needed so the
// face normal points away from the builder center, which holds for convex
// shapes.
func (b *faceBuilder) face(verts ...mgl32.Vec3) {
	if len(verts) < 3 {
		return
	}
	n := verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0]))
	var centroid mgl32.Vec3
	for _, v := range verts {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1 / float32(len(verts)))
	if n.Dot(centroid.Sub(b.center)) < 0 {
		for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
		n = n.Mul(-1)
	}
	n = n.Normalize()
	tangent := verts[1].Sub(verts[0]).Normalize().Vec4(1)

	var uvs []mgl32.Vec2
	if len(verts) == 4 {
		uvs = []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	} else {
		uvs = []mgl32.Vec2{{0, 0}, {1, 0}, {0.5, 1}}
	}

	base := uint32(len(b.geom.Positions))
	for i, v := range verts {
		b.geom.Positions = append(b.geom.Positions, v)
		b.geom.Normals = append(b.geom.Normals, n)
		b.geom.Tangents = append(b.geom.Tangents, tangent)
		if i < len(uvs) {
			b.geom.UVs = append(b.geom.UVs, uvs[i])
		} else {
			b.geom.UVs = append(b.geom.UVs, mgl32.Vec2{})
		}
	}
	// Fan triangulation.
	for i := 1; i+1 < len(verts); i++ {
		b.geom.Indices = append(b.geom.Indices, base, base+uint32(i), base+uint32(i+1))
	}
}

func (b *faceBuilder) geometry() *Geometry {
	g := b.geom
	return &g
}

// BoxGeometry is an axis-aligned box of the given size centered on the origin.
func BoxGeometry(size mgl32.Vec3) *Geometry {
	h := size.Mul(0.5)
	c := [8]mgl32.Vec3{
		{-h[0], -h[1], -h[2]}, {h[0], -h[1], -h[2]}, {h[0], h[1], -h[2]}, {-h[0], h[1], -h[2]},
		{-h[0], -h[1], h[2]}, {h[0], -h[1], h[2]}, {h[0], h[1], h[2]}, {-h[0], h[1], h[2]},
	}
	b := newFaceBuilder(mgl32.Vec3{})
	b.face(c[4], c[5], c[6], c[7]) // +z
	b.face(c[1], c[0], c[3], c[2]) // -z
	b.face(c[5], c[1], c[2], c[6]) // +x
	b.face(c[0], c[4], c[7], c[3]) // -x
	b.face(c[3], c[7], c[6], c[2]) // +y
	b.face(c[0], c[1], c[5], c[4]) // -y
	return b.geometry()
}

// SlopeGeometry is a unit wedge: full height along the back (-z) edge,
// sloping down to the front (+z) bottom edge.
func SlopeGeometry() *Geometry {
	const h = 0.5
	bl, br := mgl32.Vec3{-h, -h, -h}, mgl32.Vec3{h, -h, -h}
	fl, fr := mgl32.Vec3{-h, -h, h}, mgl32.Vec3{h, -h, h}
	tl, tr := mgl32.Vec3{-h, h, -h}, mgl32.Vec3{h, h, -h}

	b := newFaceBuilder(mgl32.Vec3{0, -h / 3, -h / 3})
	b.face(bl, br, fr, fl) // bottom
	b.face(bl, br, tr, tl) // back
	b.face(fl, fr, tr, tl) // slope
	b.face(bl, fl, tl)     // left
	b.face(br, fr, tr)     // right
	return b.geometry()
}

// CornerGeometry is a unit corner slope: a pyramid over the unit footprint
// with its apex above the back-left corner.
func CornerGeometry() *Geometry {
	const h = 0.5
	bl, br := mgl32.Vec3{-h, -h, -h}, mgl32.Vec3{h, -h, -h}
	fl, fr := mgl32.Vec3{-h, -h, h}, mgl32.Vec3{h, -h, h}
	apex := mgl32.Vec3{-h, h, -h}

	b := newFaceBuilder(mgl32.Vec3{-h / 4, -h / 2, -h / 4})
	b.face(bl, br, fr, fl) // bottom
	b.face(bl, br, apex)   // back
	b.face(fl, bl, apex)   // left
	b.face(br, fr, apex)
	b.face(fr, fl, apex)
	return b.geometry()
}

// SpikeGeometry is a unit square pyramid with its apex centered on top.
func SpikeGeometry() *Geometry {
	const h = 0.5
	bl, br := mgl32.Vec3{-h, -h, -h}, mgl32.Vec3{h, -h, -h}
	fl, fr := mgl32.Vec3{-h, -h, h}, mgl32.Vec3{h, -h, h}
	apex := mgl32.Vec3{0, h, 0}

	b := newFaceBuilder(mgl32.Vec3{0, -h / 2, 0})
	b.face(bl, br, fr, fl)
	b.face(bl, br, apex)
	b.face(br, fr, apex)
	b.face(fr, fl, apex)
	b.face(fl, bl, apex)
	return b.geometry()
}

// HullGeometry is a blunt hull centered on the origin: a full-width deck on
// top tapering to a keel a third as wide, running the length along Z.
func HullGeometry(size mgl32.Vec3) *Geometry {
	h := size.Mul(0.5)
	k := h[0] / 3
	dl, dr := mgl32.Vec3{-h[0], h[1], -h[2]}, mgl32.Vec3{h[0], h[1], -h[2]}
	dfl, dfr := mgl32.Vec3{-h[0], h[1], h[2]}, mgl32.Vec3{h[0], h[1], h[2]}
	kl, kr := mgl32.Vec3{-k, -h[1], -h[2]}, mgl32.Vec3{k, -h[1], -h[2]}
	kfl, kfr := mgl32.Vec3{-k, -h[1], h[2]}, mgl32.Vec3{k, -h[1], h[2]}

	b := newFaceBuilder(mgl32.Vec3{})
	b.face(dl, dr, dfr, dfl)   // deck
	b.face(kl, kr, kfr, kfl)   // keel
	b.face(dl, dfl, kfl, kl)   // port
	b.face(dr, dfr, kfr, kr)   // starboard
	b.face(dl, dr, kr, kl)     // stern
	b.face(dfl, dfr, kfr, kfl) // bow
	return b.geometry()
}

// SphereGeometry is a smooth UV sphere centered on the origin.
func SphereGeometry(radius float32, rings, segments int) *Geometry {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	g := &Geometry{}
	for r := 0; r <= rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		st, ct := math.Sin(theta), math.Cos(theta)
		for s := 0; s <= segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			sp, cp := math.Sin(phi), math.Cos(phi)
			n := mgl32.Vec3{float32(st * cp), float32(ct), float32(st * sp)}
			g.Positions = append(g.Positions, n.Mul(radius))
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, mgl32.Vec2{float32(s) / float32(segments), float32(r) / float32(rings)})
			g.Tangents = append(g.Tangents, mgl32.Vec4{float32(-sp), 0, float32(cp), 1})
		}
	}
	stride := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			g.Indices = append(g.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return g
}

// CreateBoxMesh registers a box mesh and returns its id.
func (server *AssetServer) CreateBoxMesh(name string, size mgl32.Vec3, mat *Material) AssetId {
	return server.LoadMesh(name, BoxGeometry(size), mat)
}

func (server *AssetServer) CreateSphereMesh(name string, radius float32, mat *Material) AssetId {
	return server.LoadMesh(name, SphereGeometry(radius, 8, 16), mat)
}

// glassMaterial is the translucent material used for window panes.
func glassMaterial() *Material {
	return &Material{
		Albedo:      mgl32.Vec4{0.75, 0.88, 1, 0.35},
		Transparent: true,
	}
}

// CreateGlassPane registers a thin translucent pane w x h blocks in size.
func (server *AssetServer) CreateGlassPane(name string, w, h float32) AssetId {
	size := mgl32.Vec3{w * StdUnit, h * StdUnit, StdUnit / 8}
	return server.LoadMesh(name, BoxGeometry(size), glassMaterial())
}

// hullSize is the footprint of the large wooden hull in blocks.
var hullSize = mgl32.Vec3{8, 4, 24}

// CreateHull registers the large wooden ship hull, sized in blocks.
func (server *AssetServer) CreateHull(name string, blocks mgl32.Vec3) AssetId {
	mat := NewMaterial(mgl32.Vec4{0.45, 0.3, 0.18, 1})
	return server.LoadMesh(name, HullGeometry(blocks.Mul(StdUnit)), mat)
}
