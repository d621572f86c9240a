package ylscene

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{
	"A": {
		"Type": "BLOCK",
		"Shape": "STANDARD",
		"Size": [2, 1, 1],
		"Colors": [[0.5, 0.25, 1, 0]],
		"bb-center-offset": [0.375, 0, 0],
		"bb-dimensions": [0.75, 0.375, 0.375]
	},
	"B": {"type": "MUSKET BALL", "shape": "none", "size": [1, 1, 1]}
}`

const sceneJSON = `{
	"zeta":  {"type": "entity", "name": "last-alpha", "blockdef": "A", "position": [0, 0, 0], "rotation": [0, 0, 0]},
	"alpha": {"type": "group", "name": "Hull", "position": [1, 2, 3], "rotation": [0, 90, 0],
		"children": {
			"2": {"type": "entity", "blockdef": "B", "position": [1, 0, 0], "rotation": [0, 0, 0], "colors": [[1, 0, 0, 0.5]]},
			"1": {"type": "entity", "BlockDef": "A", "position": [2, 0, 0], "rotation": [0, 0, 0]}
		}
	},
	"mid":   {"type": "entity", "block-ref": "A", "position": [0, 1, 0], "rotation": [0, 0, 0]}
}`

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader(catalogJSON))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, c.Keys())

	a, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, "BLOCK", a.Type)
	assert.Equal(t, "STANDARD", a.Shape)
	assert.Equal(t, [3]int{2, 1, 1}, a.Size)
	assert.Equal(t, [][]float32{{0.5, 0.25, 1, 0}}, a.Colors)
	assert.Equal(t, [3]float32{0.375, 0, 0}, a.BBCenterOffset)
	assert.Equal(t, [3]float32{0.75, 0.375, 0.375}, a.BBDimensions)

	b, _ := c.Get("B")
	assert.Equal(t, "MUSKET BALL", b.Type)
}

func TestLoadScenePreservesOrder(t *testing.T) {
	scene, err := LoadScene(strings.NewReader(sceneJSON))
	require.NoError(t, err)

	keys := make([]string, 0, len(scene))
	for _, e := range scene {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	assert.Equal(t, 5, scene.Count())

	group, ok := scene.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, NodeTypeGroup, group.Type)
	assert.Equal(t, [3]float32{1, 2, 3}, group.Position)
	assert.Equal(t, [3]float32{0, 90, 0}, group.Rotation)
	require.Len(t, group.Children, 2)
	assert.Equal(t, "2", group.Children[0].Key)
	assert.Equal(t, "1", group.Children[1].Key)
	assert.Equal(t, "B", group.Children[0].Node.BlockRef)
	assert.Equal(t, "A", group.Children[1].Node.BlockRef, "keys match case-insensitively")
	assert.Equal(t, [][]float32{{1, 0, 0, 0.5}}, group.Children[0].Node.Colors)

	mid, _ := scene.Get("mid")
	assert.Equal(t, "A", mid.BlockRef)
}

func TestLoadSceneYAML(t *testing.T) {
	doc := `
b:
  type: entity
  blockdef: A
  position: [0, 0, 1]
  rotation: [0, 0, 0]
a:
  type: group
  position: [0, 0, 0]
  rotation: [0, 0, 0]
`
	scene, err := LoadScene(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, scene, 2)
	assert.Equal(t, "b", scene[0].Key)
	assert.Equal(t, [3]float32{0, 0, 1}, scene[0].Node.Position)
}

func TestLoadSceneInvalid(t *testing.T) {
	cases := map[string]string{
		"missing rotation": `{"x": {"type": "entity", "blockdef": "A", "position": [0, 0, 0]}}`,
		"short position":   `{"x": {"type": "entity", "blockdef": "A", "position": [0, 0], "rotation": [0, 0, 0]}}`,
		"not a mapping":    `[1, 2, 3]`,
		"broken":           `{"x": `,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadScene(strings.NewReader(doc))
			assert.True(t, errors.Is(err, ErrInvalidDocument), "got %v", err)
		})
	}
}

func TestLoadCatalogInvalidSize(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader(`{"A": {"shape": "STANDARD", "size": [1, 1]}}`))
	assert.True(t, errors.Is(err, ErrInvalidDocument))

	_, err = LoadCatalog(strings.NewReader(`{"A": {"shape": "STANDARD"}}`))
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestLoadEmptyDocument(t *testing.T) {
	scene, err := LoadScene(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, scene)

	c, err := LoadCatalog(strings.NewReader("  "))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "blockdef.json")
	scenePath := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(catPath, []byte(catalogJSON), 0644))
	require.NoError(t, os.WriteFile(scenePath, []byte(sceneJSON), 0644))

	c, err := LoadCatalogFile(catPath)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	scene, err := LoadSceneFile(scenePath)
	require.NoError(t, err)
	assert.Len(t, scene, 3)

	_, err = LoadSceneFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
