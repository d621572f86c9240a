// Package raster draws a built scene tree into a small preview image on the
// CPU: orthographic projection, flat shading and a z-buffer.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/ylscene"
)

// View is a fixed camera orientation.
type View int

const (
	ViewIso View = iota
	ViewFront
	ViewTop
	ViewSide
)

func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iso":
		return ViewIso, nil
	case "front":
		return ViewFront, nil
	case "top":
		return ViewTop, nil
	case "side":
		return ViewSide, nil
	}
	return ViewIso, fmt.Errorf("unknown view %q", s)
}

// rotation maps world space into view space, where the camera looks down -Z.
func (v View) rotation() mgl32.Mat4 {
	switch v {
	case ViewFront:
		return mgl32.Ident4()
	case ViewTop:
		return mgl32.HomogRotate3DX(mgl32.DegToRad(90))
	case ViewSide:
		return mgl32.HomogRotate3DY(mgl32.DegToRad(-90))
	}
	return mgl32.HomogRotate3DX(mgl32.DegToRad(30)).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(-45)))
}

type Options struct {
	Size        int
	Supersample int
	View        View
	Background  color.NRGBA
	Light       LightConfig
}

func DefaultOptions() Options {
	return Options{
		Size:        512,
		Supersample: 2,
		View:        ViewIso,
		Light:       DefaultLightConfig(),
	}
}

type triangle struct {
	v    [3]mgl64.Vec3 // view space
	frag Fragment
	// emission in linear space, added after lighting
	emission [3]float64
	opaque   bool
}

// Render draws every surface under root. An empty scene yields a blank image
// of the requested size.
func Render(root *ylscene.Node, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = 512
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	if opts.Light == (LightConfig{}) {
		opts.Light = DefaultLightConfig()
	}
	renderSize := opts.Size * opts.Supersample

	tris := collect(root, opts.View.rotation())
	if len(tris) == 0 {
		fb := NewFrameBuffer(opts.Size, opts.Size)
		fb.Fill(opts.Background)
		return fb.Image()
	}
	fb := NewFrameBuffer(renderSize, renderSize)
	fb.Fill(opts.Background)

	minB, maxB := bounds(tris)
	center := minB.Add(maxB).Mul(0.5)
	span := math.Max(maxB[0]-minB[0], maxB[1]-minB[1])
	if span < 0.001 {
		span = 0.001
	}
	margin := float64(8 * opts.Supersample)
	scale := (float64(renderSize) - 2*margin) / span
	half := float64(renderSize) / 2

	// Opaque first, then translucent back to front.
	sort.SliceStable(tris, func(i, j int) bool {
		if tris[i].opaque != tris[j].opaque {
			return tris[i].opaque
		}
		if tris[i].opaque {
			return false
		}
		return depth(tris[i]) < depth(tris[j])
	})

	lc := opts.Light
	for _, t := range tris {
		n := t.v[1].Sub(t.v[0]).Cross(t.v[2].Sub(t.v[0]))
		if n.Len() < 1e-12 {
			continue
		}
		shade := lc.Shade(n.Normalize())
		rgb := lc.shadeColor([3]uint8{t.frag.R, t.frag.G, t.frag.B}, shade, t.emission)
		frag := Fragment{R: rgb[0], G: rgb[1], B: rgb[2], A: t.frag.A}

		var screen [3]mgl64.Vec3
		for k, p := range t.v {
			screen[k] = mgl64.Vec3{
				(p[0]-center[0])*scale + half,
				half - (p[1]-center[1])*scale,
				p[2],
			}
		}
		RasterizeTriangle(fb, screen, frag)
	}

	return Downsample(fb.Image(), opts.Size)
}

func depth(t triangle) float64 {
	return (t.v[0][2] + t.v[1][2] + t.v[2][2]) / 3
}

// collect flattens the tree into view-space triangles. World matrices are
// multiplied down the tree so nested non-uniform scales stay exact.
func collect(root *ylscene.Node, view mgl32.Mat4) []triangle {
	var out []triangle
	if root == nil {
		return out
	}
	var visit func(n *ylscene.Node, parent mgl32.Mat4)
	visit = func(n *ylscene.Node, parent mgl32.Mat4) {
		world := parent.Mul4(n.Transform.ObjectToWorld())
		m := view.Mul4(world)
		for _, s := range n.Surfaces {
			out = appendSurface(out, s, m)
		}
		for _, c := range n.Children {
			visit(c, world)
		}
	}
	parent := mgl32.Ident4()
	if root.Parent != nil {
		parent = root.Parent.WorldMatrix()
	}
	visit(root, parent)
	return out
}

func appendSurface(out []triangle, s ylscene.Surface, m mgl32.Mat4) []triangle {
	g := s.Geometry
	if g.IsEmpty() {
		return out
	}
	base := triangle{frag: Fragment{R: 200, G: 200, B: 200, A: 255}, opaque: true}
	if mat := s.Material; mat != nil {
		base.frag = Fragment{
			R: toByte(mat.Albedo[0]),
			G: toByte(mat.Albedo[1]),
			B: toByte(mat.Albedo[2]),
			A: toByte(mat.Albedo[3]),
		}
		if !mat.Transparent {
			base.frag.A = 255
		}
		base.opaque = base.frag.A == 255
		if mat.EmissionEnabled {
			k := float64(mat.EmissionEnergy) / float64(ylscene.EmissionMultiplier)
			for i := 0; i < 3; i++ {
				base.emission[i] = float64(mat.Emission[i]) * k
			}
		}
	}

	pos := make([]mgl64.Vec3, len(g.Positions))
	for i, p := range g.Positions {
		v := m.Mul4x1(p.Vec4(1))
		pos[i] = mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
	}

	idx := g.Indices
	if len(idx) == 0 {
		idx = make([]uint32, len(g.Positions)/3*3)
		for i := range idx {
			idx[i] = uint32(i)
		}
	}
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := int(idx[i]), int(idx[i+1]), int(idx[i+2])
		if a >= len(pos) || b >= len(pos) || c >= len(pos) {
			continue
		}
		t := base
		t.v = [3]mgl64.Vec3{pos[a], pos[b], pos[c]}
		out = append(out, t)
	}
	return out
}

func bounds(tris []triangle) (minB, maxB mgl64.Vec3) {
	inf := math.Inf(1)
	minB = mgl64.Vec3{inf, inf, inf}
	maxB = mgl64.Vec3{-inf, -inf, -inf}
	for _, t := range tris {
		for _, p := range t.v {
			for k := 0; k < 3; k++ {
				minB[k] = math.Min(minB[k], p[k])
				maxB[k] = math.Max(maxB[k], p[k])
			}
		}
	}
	return minB, maxB
}

func toByte(v float32) uint8 {
	return clamp255(float64(v) * 255)
}
