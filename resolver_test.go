package ylscene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	c := NewCatalog()
	c.Add("100", &BlockDefinition{
		Type:   "BLOCK",
		Shape:  "STANDARD",
		Size:   [3]int{2, 1, 3},
		Colors: [][]float32{{0.5, 0.5, 0.5}},

		BBCenterOffset: [3]float32{0.375, 0, 0.75},
		BBDimensions:   [3]float32{0.75, 0.375, 1.125},
	})
	c.Add("3966", &BlockDefinition{Type: "WINDOW", Shape: "STANDARD", Size: [3]int{1, 1, 1}})
	c.Add("200", &BlockDefinition{Type: "MUSKET BALL", Shape: "STANDARD", Size: [3]int{1, 1, 1}})
	c.Add("300", &BlockDefinition{
		Type:  "CANNON",
		Shape: "WEIRD",
		Size:  [3]int{1, 1, 1},

		BBCenterOffset: [3]float32{1, 2, 3},
		BBDimensions:   [3]float32{4, 5, 6},
	})
	return c
}

func TestResolvePriorityOrder(t *testing.T) {
	assets := DefaultAssetServer()
	r := NewResolver(testCatalog(), assets, DefaultResolverOptions(), nil)

	inst, err := r.Resolve("3966", nil)
	require.NoError(t, err)
	assert.Equal(t, LookupID, inst.MatchedBy)

	inst, err = r.Resolve("200", nil)
	require.NoError(t, err)
	assert.Equal(t, LookupType, inst.MatchedBy)
	assert.Equal(t, "musket_ball", inst.Mesh.Asset.Name)

	inst, err = r.Resolve("100", nil)
	require.NoError(t, err)
	assert.Equal(t, LookupShape, inst.MatchedBy)
}

func TestResolveConfigurableOrder(t *testing.T) {
	opts := DefaultResolverOptions()
	opts.Order = []LookupKind{LookupShape, LookupType, LookupID}
	r := NewResolver(testCatalog(), DefaultAssetServer(), opts, nil)

	inst, err := r.Resolve("3966", nil)
	require.NoError(t, err)
	assert.Equal(t, LookupShape, inst.MatchedBy)
}

func TestResolveShapeFit(t *testing.T) {
	r := NewResolver(testCatalog(), DefaultAssetServer(), DefaultResolverOptions(), nil)

	inst, err := r.Resolve("100", nil)
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{2, 1, 3}, inst.Scale, "owning node is scaled by the block size")
	assert.Equal(t, mgl32.Vec3{StdUnit, StdUnit, StdUnit}, inst.Mesh.Transform.Scale)
	// bb offset with Z mirrored, divided by size
	vecNear(t, mgl32.Vec3{0.1875, 0, -0.25}, inst.Mesh.Transform.Position)

	// Mesh and node together cover the bounding box.
	entity := NewNode("e", NodeEntity)
	entity.Transform.Scale = inst.Scale
	mesh := NewNode("m", NodeMesh)
	mesh.Transform = inst.Mesh.Transform
	entity.AddChild(mesh)
	g := inst.Mesh.Geometry
	lo, hi, ok := g.Bounds()
	require.True(t, ok)
	m := mesh.WorldMatrix()
	size := m.Mul4x1(hi.Vec4(1)).Vec3().Sub(m.Mul4x1(lo.Vec4(1)).Vec3())
	vecNear(t, mgl32.Vec3{0.75, 0.375, 1.125}, size)
}

func TestResolveDoesNotShareMaterial(t *testing.T) {
	assets := DefaultAssetServer()
	r := NewResolver(testCatalog(), assets, DefaultResolverOptions(), nil)

	a, err := r.Resolve("100", [][]float32{{1, 0, 0}})
	require.NoError(t, err)
	b, err := r.Resolve("100", [][]float32{{0, 0, 1}})
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, a.Mesh.Material.Albedo)
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, b.Mesh.Material.Albedo)
	tmpl, _ := assets.ByShape("STANDARD")
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, tmpl.Material.Albedo)
	assert.Same(t, a.Mesh.Geometry, b.Mesh.Geometry, "geometry stays shared")
}

func TestResolveColors(t *testing.T) {
	r := NewResolver(testCatalog(), DefaultAssetServer(), DefaultResolverOptions(), nil)

	inst, err := r.Resolve("100", nil)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 1}, inst.Mesh.Material.Albedo, "catalog default")

	inst, err = r.Resolve("100", [][]float32{{0, 1, 0, 0.25}})
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 1}, inst.Mesh.Material.Albedo, "override wins")
	assert.True(t, inst.Mesh.Material.EmissionEnabled)
	assert.InDelta(t, 5.0, inst.Mesh.Material.EmissionEnergy, 1e-6)
}

func TestResolvePlaceholder(t *testing.T) {
	opts := DefaultResolverOptions()
	opts.UnsupportedTransparency = 0.3
	r := NewResolver(testCatalog(), DefaultAssetServer(), opts, nil)

	inst, err := r.Resolve("300", nil)
	require.NoError(t, err)
	require.True(t, inst.Placeholder)

	assert.Equal(t, mgl32.Vec3{1, 1, 1}, inst.Scale)
	assert.Equal(t, mgl32.Vec3{1, 2, -3}, inst.Mesh.Transform.Position)
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 0.3}, inst.Mesh.Material.Albedo)
	assert.True(t, inst.Mesh.Material.Transparent)

	lo, hi, ok := inst.Mesh.Geometry.Bounds()
	require.True(t, ok)
	vecNear(t, mgl32.Vec3{4, 5, 6}, hi.Sub(lo))
}

func TestResolveUnsupportedWithoutPlaceholder(t *testing.T) {
	opts := DefaultResolverOptions()
	opts.DrawUnsupported = false
	r := NewResolver(testCatalog(), DefaultAssetServer(), opts, nil)

	_, err := r.Resolve("300", nil)
	assert.True(t, errors.Is(err, ErrUnsupportedBlock))
}

func TestResolveUnknownBlock(t *testing.T) {
	r := NewResolver(testCatalog(), DefaultAssetServer(), DefaultResolverOptions(), nil)
	_, err := r.Resolve("nope", nil)
	assert.True(t, errors.Is(err, ErrUnknownBlock))
}

func TestResolveWithBoundsOverride(t *testing.T) {
	catalog := testCatalog()
	r := NewResolver(catalog, DefaultAssetServer(), DefaultResolverOptions(), nil)

	dims := [3]float32{1, 1, 1}
	offset := [3]float32{0, 0, 0}
	inst, err := r.ResolveWith("300", Overrides{BBCenterOffset: &offset, BBDimensions: &dims})
	require.NoError(t, err)
	require.True(t, inst.Placeholder)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, inst.Mesh.Transform.Position)
	lo, hi, _ := inst.Mesh.Geometry.Bounds()
	vecNear(t, mgl32.Vec3{1, 1, 1}, hi.Sub(lo))

	def, _ := catalog.Get("300")
	assert.Equal(t, [3]float32{4, 5, 6}, def.BBDimensions, "catalog is not modified")

	// Meshes registered by id ignore the bounds.
	inst, err = r.ResolveWith("3966", Overrides{BBCenterOffset: &[3]float32{9, 9, 9}})
	require.NoError(t, err)
	assert.Equal(t, LookupID, inst.MatchedBy)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, inst.Mesh.Transform.Position)
}
