package ylscene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// EmissionMultiplier scales the 4th color component into emission energy.
	EmissionMultiplier float32 = 20.0
	// emissionThreshold is the smallest 4th color component that turns emission on.
	emissionThreshold float32 = 0.001
	rimAmount         float32 = 1.0
)

// Material describes the look of one surface.
type Material struct {
	Albedo      mgl32.Vec4 // RGBA, 0..1
	Transparent bool

	EmissionEnabled bool
	Emission        mgl32.Vec3 // RGB, 0..1
	EmissionEnergy  float32

	RimEnabled bool
	Rim        float32
}

func NewMaterial(albedo mgl32.Vec4) *Material {
	return &Material{Albedo: albedo}
}

// DefaultMaterial is opaque white.
func DefaultMaterial() *Material {
	return &Material{Albedo: mgl32.Vec4{1, 1, 1, 1}}
}

func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// ApplyColor sets the block color from a [r, g, b, emission?] list. The
// albedo alpha is kept. Lists shorter than 3 are ignored. A 4th component
// above 0.001 enables emission (rgb scaled by it), an energy of
// component*EmissionMultiplier, and a full rim highlight.
func (m *Material) ApplyColor(color []float32) {
	if m == nil || len(color) < 3 {
		return
	}
	m.Albedo = mgl32.Vec4{color[0], color[1], color[2], m.Albedo.W()}
	if len(color) > 3 && color[3] > emissionThreshold {
		e := color[3]
		m.EmissionEnabled = true
		m.Emission = mgl32.Vec3{color[0] * e, color[1] * e, color[2] * e}
		m.EmissionEnergy = e * EmissionMultiplier
		m.RimEnabled = true
		m.Rim = rimAmount
	}
}

// MaterialSignature groups materials that can share one merged surface.
// Colors are quantized to 8 bits per channel, so two materials with the
// same signature are visually identical.
type MaterialSignature struct {
	Albedo   [4]uint8
	Emissive bool
	Emission [4]uint8
}

// SignatureOf computes the batching key of m. ok is false for a nil material.
// Only color data is inspected, never geometry.
func SignatureOf(m *Material) (sig MaterialSignature, ok bool) {
	if m == nil {
		return sig, false
	}
	sig.Albedo = quantizeColor(m.Albedo)
	if m.EmissionEnabled {
		sig.Emissive = true
		sig.Emission = quantizeColor(m.Emission.Vec4(1))
	}
	return sig, true
}

// String renders the signature as hex, e.g. "ff0000ff e:7f0000ff".
func (s MaterialSignature) String() string {
	out := hexColor(s.Albedo)
	if s.Emissive {
		out += " e:" + hexColor(s.Emission)
	}
	return out
}

func hexColor(c [4]uint8) string {
	return fmt.Sprintf("%02x%02x%02x%02x", c[0], c[1], c[2], c[3])
}

func quantizeColor(c mgl32.Vec4) [4]uint8 {
	return [4]uint8{quantize(c[0]), quantize(c[1]), quantize(c[2]), quantize(c[3])}
}

func quantize(v float32) uint8 {
	q := math.Round(float64(v) * 255)
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}
