package ylscene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAssetServerTables(t *testing.T) {
	server := DefaultAssetServer()

	for _, shape := range []string{"STANDARD", "SLOPE", "CORNER", "SPIKE"} {
		asset, ok := server.ByShape(shape)
		if !ok {
			t.Errorf("Expected shape %s to be registered", shape)
			continue
		}
		if asset.Geometry.IsEmpty() {
			t.Errorf("Shape %s has no geometry", shape)
		}
	}

	ball, ok := server.ByType("MUSKET BALL")
	require.True(t, ok)
	lo, hi, _ := ball.Geometry.Bounds()
	vecNear(t, mgl32.Vec3{0.1, 0.1, 0.1}, hi.Sub(lo))

	for _, id := range []string{"3966", "2756", "5617", "5618"} {
		pane, ok := server.ByID(id)
		require.True(t, ok, id)
		assert.True(t, pane.Material.Transparent)
	}

	hull, ok := server.ByID("3978")
	require.True(t, ok)
	assert.False(t, hull.Material.Transparent)
	lo, hi, _ = hull.Geometry.Bounds()
	vecNear(t, hullSize.Mul(StdUnit), hi.Sub(lo))

	_, ok = server.ByShape("none")
	assert.False(t, ok)
	_, ok = server.ByType("")
	assert.False(t, ok)
}

func TestGlassPaneSize(t *testing.T) {
	server := NewAssetServer()
	id := server.CreateGlassPane("pane", 2, 4)
	pane, ok := server.Mesh(id)
	require.True(t, ok)

	lo, hi, _ := pane.Geometry.Bounds()
	vecNear(t, mgl32.Vec3{2 * StdUnit, 4 * StdUnit, StdUnit / 8}, hi.Sub(lo))
}

func TestRegisterUnknownAssetPanics(t *testing.T) {
	server := NewAssetServer()
	require.PanicsWithValue(t, "asset missing is not loaded", func() {
		server.RegisterShape("STANDARD", "missing")
	})
}

func TestInstantiateClonesMaterial(t *testing.T) {
	server := NewAssetServer()
	id := server.LoadMesh("box", BoxGeometry(mgl32.Vec3{1, 1, 1}), DefaultMaterial())
	asset, _ := server.Mesh(id)

	a := asset.Instantiate()
	a.Material.ApplyColor([]float32{1, 0, 0})
	b := asset.Instantiate()

	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, b.Material.Albedo)
	assert.Same(t, a.Geometry, b.Geometry)
	assert.Equal(t, 1, server.Len())

	noMat := server.LoadMesh("bare", BoxGeometry(mgl32.Vec3{1, 1, 1}), nil)
	bare, _ := server.Mesh(noMat)
	assert.NotNil(t, bare.Instantiate().Material)
}

func TestParseLookupKind(t *testing.T) {
	for _, k := range DefaultLookupOrder {
		parsed, err := ParseLookupKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseLookupKind("color")
	assert.Error(t, err)
}
