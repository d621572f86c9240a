package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LightConfig holds the flat-shading parameters.
type LightConfig struct {
	LightDir mgl64.Vec3
	RimDir   mgl64.Vec3
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	Exposure float64
	InvGamma float64
}

func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir: mgl64.Vec3{180, 260, 140}.Normalize(),
		RimDir:   mgl64.Vec3{-160, 130, -210}.Normalize(),
		Ambient:  0.45,
		Hemi:     0.35,
		Direct:   1.2,
		Rim:      0.4,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// Shade returns the lighting scalar for a unit face normal. Faces are lit
// from both sides.
func (lc *LightConfig) Shade(n mgl64.Vec3) float64 {
	ndlMain := math.Abs(n.Dot(lc.LightDir))
	ndlRim := math.Abs(n.Dot(lc.RimDir))
	hemi := (1.0-math.Abs(n[1]))*0.5 + 0.5
	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim
}

var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

// shadeColor lights an sRGB color and encodes the result back to sRGB.
// emission is added in linear space after lighting.
func (lc *LightConfig) shadeColor(c [3]uint8, shade float64, emission [3]float64) [3]uint8 {
	var out [3]uint8
	for i := 0; i < 3; i++ {
		l := srgbToLinear[c[i]]*shade*lc.Exposure + emission[i]
		out[i] = clamp255(math.Pow(ACESTonemap(l), lc.InvGamma) * 255)
	}
	return out
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
