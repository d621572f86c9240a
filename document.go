package ylscene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidDocument = errors.New("invalid document")

// LoadCatalog decodes a block-definition document (JSON or YAML) mapping
// block keys to definitions. Field names are matched case-insensitively.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	root, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}
	catalog := NewCatalog()
	if root == nil {
		return catalog, nil
	}
	err = eachPair(root, func(key string, value *yaml.Node) error {
		def, err := decodeBlockDefinition(value)
		if err != nil {
			return fmt.Errorf("block %q: %w", key, err)
		}
		catalog.Add(key, def)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// LoadScene decodes a scene-description document. Children keep document
// order.
func LoadScene(r io.Reader) (Children, error) {
	root, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}
	return decodeChildren(root, "")
}

func LoadCatalogFile(filename string) (*Catalog, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	catalog, err := LoadCatalog(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return catalog, nil
}

func LoadSceneFile(filename string) (Children, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scene, err := LoadScene(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return scene, nil
}

// decodeDocument parses r into its top-level mapping node. Returns nil for an
// empty document.
func decodeDocument(r io.Reader) (*yaml.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// JSON may be indented with tabs, which YAML rejects. Raw tabs cannot
	// occur inside JSON strings, so swapping them is lossless.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		data = bytes.ReplaceAll(data, []byte{'\t'}, []byte{' '})
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if isNull(root) {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrInvalidDocument)
	}
	return root, nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func eachPair(mapping *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if mapping.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidDocument, mapping.Line)
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if err := fn(mapping.Content[i].Value, mapping.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func decodeChildren(mapping *yaml.Node, path string) (Children, error) {
	var children Children
	err := eachPair(mapping, func(key string, value *yaml.Node) error {
		spec, err := decodeSceneNode(value, path+"/"+key)
		if err != nil {
			return err
		}
		children.Add(key, spec)
		return nil
	})
	return children, err
}

func decodeSceneNode(n *yaml.Node, path string) (*SceneNodeSpec, error) {
	spec := &SceneNodeSpec{}
	var hasPos, hasRot bool
	err := eachPair(n, func(key string, value *yaml.Node) error {
		if isNull(value) {
			return nil
		}
		var err error
		switch strings.ToLower(key) {
		case "type":
			var t string
			err = value.Decode(&t)
			spec.Type = NodeType(strings.ToLower(t))
		case "name":
			err = value.Decode(&spec.Name)
		case "blockdef", "block-ref", "block_ref":
			err = value.Decode(&spec.BlockRef)
		case "position":
			spec.Position, err = decodeVec3(value)
			hasPos = err == nil
		case "rotation":
			spec.Rotation, err = decodeVec3(value)
			hasRot = err == nil
		case "colors":
			err = value.Decode(&spec.Colors)
		case "bb-center-offset":
			var v [3]float32
			v, err = decodeVec3(value)
			spec.BBCenterOffset = &v
		case "bb-dimensions":
			var v [3]float32
			v, err = decodeVec3(value)
			spec.BBDimensions = &v
		case "children":
			spec.Children, err = decodeChildren(value, path)
		}
		if err != nil {
			return fmt.Errorf("%s: %s: %w", path, key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if spec.Type == NodeTypeEntity || spec.Type == NodeTypeGroup {
		if !hasPos || !hasRot {
			return nil, fmt.Errorf("%w: %s: position and rotation are required", ErrInvalidDocument, path)
		}
	}
	return spec, nil
}

func decodeBlockDefinition(n *yaml.Node) (*BlockDefinition, error) {
	def := &BlockDefinition{}
	hasSize := false
	err := eachPair(n, func(key string, value *yaml.Node) error {
		if isNull(value) {
			return nil
		}
		var err error
		switch strings.ToLower(key) {
		case "type":
			err = value.Decode(&def.Type)
		case "shape":
			err = value.Decode(&def.Shape)
		case "material":
			err = value.Decode(&def.Material)
		case "size":
			var size []int
			if err = value.Decode(&size); err == nil {
				if len(size) < 3 {
					return fmt.Errorf("%w: size needs 3 components", ErrInvalidDocument)
				}
				def.Size = [3]int{size[0], size[1], size[2]}
				hasSize = true
			}
		case "colors":
			err = value.Decode(&def.Colors)
		case "bb-center-offset":
			def.BBCenterOffset, err = decodeVec3(value)
		case "bb-dimensions":
			def.BBDimensions, err = decodeVec3(value)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !hasSize {
		return nil, fmt.Errorf("%w: size is required", ErrInvalidDocument)
	}
	return def, nil
}

func decodeVec3(n *yaml.Node) ([3]float32, error) {
	var v []float32
	if err := n.Decode(&v); err != nil {
		return [3]float32{}, err
	}
	if len(v) < 3 {
		return [3]float32{}, fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidDocument, len(v))
	}
	return [3]float32{v[0], v[1], v[2]}, nil
}
