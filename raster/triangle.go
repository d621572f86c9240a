package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Fragment is the flat color of one triangle after lighting.
type Fragment struct {
	R, G, B, A uint8
}

// RasterizeTriangle fills a screen-space triangle (x, y in pixels, z larger is
// closer) with a flat color. Opaque fragments test and write depth;
// translucent ones test depth and blend over what is there.
func RasterizeTriangle(fb *FrameBuffer, v [3]mgl64.Vec3, frag Fragment) {
	x0, y0, z0 := v[0][0], v[0][1], v[0][2]
	x1, y1, z1 := v[1][0], v[1][1], v[1][2]
	x2, y2, z2 := v[2][0], v[2][1], v[2][2]

	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, fb.Width-1)
	maxY = min(maxY, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	opaque := frag.A == 255
	alpha := float64(frag.A) / 255

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			px := zIdx * 4
			if opaque {
				fb.ZBuf[zIdx] = z
				fb.Color[px] = frag.R
				fb.Color[px+1] = frag.G
				fb.Color[px+2] = frag.B
				fb.Color[px+3] = 255
				continue
			}
			fb.Color[px] = blend(fb.Color[px], frag.R, alpha)
			fb.Color[px+1] = blend(fb.Color[px+1], frag.G, alpha)
			fb.Color[px+2] = blend(fb.Color[px+2], frag.B, alpha)
			fb.Color[px+3] = clamp255(float64(fb.Color[px+3]) + float64(frag.A)*(1-float64(fb.Color[px+3])/255))
		}
	}
}

func blend(dst, src uint8, alpha float64) uint8 {
	return clamp255(float64(dst)*(1-alpha) + float64(src)*alpha)
}
