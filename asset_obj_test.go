package ylscene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestLoadOBJQuad(t *testing.T) {
	g, err := LoadOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)

	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, g.Indices)
	assert.Equal(t, 2, g.TriangleCount())
	assert.Len(t, g.UVs, 4)
	for _, n := range g.Normals {
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, n)
	}
}

func TestLoadOBJSharesRepeatedVertices(t *testing.T) {
	doc := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 3 2 4
`
	g, err := LoadOBJ(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, g.Indices)
	assert.Nil(t, g.UVs)

	// Normals are generated when the file has none.
	require.Len(t, g.Normals, 4)
	vecNear(t, mgl32.Vec3{0, 0, 1}, g.Normals[0])
}

func TestLoadOBJNegativeIndices(t *testing.T) {
	doc := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	g, err := LoadOBJ(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, g.Indices)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, g.Positions[1])
}

func TestLoadOBJErrors(t *testing.T) {
	_, err := LoadOBJ(strings.NewReader("v 0 0 0\nf 1 2 3\n"))
	assert.ErrorContains(t, err, "obj line 2")

	_, err = LoadOBJ(strings.NewReader("v 0 0\n"))
	assert.ErrorContains(t, err, "obj line 1")

	_, err = LoadOBJ(strings.NewReader("# nothing\n"))
	assert.ErrorContains(t, err, "no faces")
}

func TestLoadOBJMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cannon.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0644))

	server := NewAssetServer()
	id, err := server.LoadOBJMesh(path, nil)
	require.NoError(t, err)

	asset, ok := server.Mesh(id)
	require.True(t, ok)
	assert.Equal(t, "cannon", asset.Name)
	assert.Equal(t, path, asset.SourcePath)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, asset.Material.Albedo)

	server.RegisterType("CANNON", id)
	found, ok := server.ByType("CANNON")
	require.True(t, ok)
	assert.Same(t, asset, found)
}
