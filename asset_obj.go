package ylscene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type objFaceVert struct {
	position, texco, normal int
}

// LoadOBJ reads a Wavefront OBJ stream into indexed geometry. Polygons are
// fan-triangulated and repeated face-vertices share one output vertex.
// Only v, vt, vn and f records are used. Normals are generated by averaging
// face normals when the file has none.
func LoadOBJ(r io.Reader) (*Geometry, error) {
	var positions []mgl32.Vec3
	var texcos []mgl32.Vec2
	var normals []mgl32.Vec3

	geom := &Geometry{}
	seen := make(map[objFaceVert]uint32)
	hasNormals := true

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			texcos = append(texcos, mgl32.Vec2{v[0], v[1]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], v[2]}.Normalize())
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", lineNo)
			}
			poly := make([]uint32, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				fv, err := parseFaceVert(tok, len(positions), len(texcos), len(normals))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				if fv.normal < 0 {
					hasNormals = false
				}
				idx, ok := seen[fv]
				if !ok {
					idx = uint32(len(geom.Positions))
					seen[fv] = idx
					geom.Positions = append(geom.Positions, positions[fv.position])
					if fv.texco >= 0 {
						geom.UVs = append(geom.UVs, texcos[fv.texco])
					} else {
						geom.UVs = append(geom.UVs, mgl32.Vec2{})
					}
					if fv.normal >= 0 {
						geom.Normals = append(geom.Normals, normals[fv.normal])
					} else {
						geom.Normals = append(geom.Normals, mgl32.Vec3{})
					}
				}
				poly = append(poly, idx)
			}
			for i := 1; i+1 < len(poly); i++ {
				geom.Indices = append(geom.Indices, poly[0], poly[i], poly[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(geom.Positions) == 0 {
		return nil, fmt.Errorf("obj: no faces")
	}
	if len(texcos) == 0 {
		geom.UVs = nil
	}
	if !hasNormals {
		generateNormals(geom)
	}
	return geom, nil
}

func LoadOBJFile(filename string) (*Geometry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	geom, err := LoadOBJ(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return geom, nil
}

// LoadOBJMesh loads an OBJ file as a mesh template. A nil material means
// default white.
func (server *AssetServer) LoadOBJMesh(filename string, mat *Material) (AssetId, error) {
	geom, err := LoadOBJFile(filename)
	if err != nil {
		return "", err
	}
	if mat == nil {
		mat = DefaultMaterial()
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	id := server.LoadMesh(name, geom, mat)
	server.meshes[id].SourcePath = filename
	return id, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceVert parses "v", "v/vt", "v//vn" or "v/vt/vn". OBJ indices are
// 1-based, negative values count back from the end. Missing parts are -1.
func parseFaceVert(tok string, nv, nt, nn int) (objFaceVert, error) {
	fv := objFaceVert{position: -1, texco: -1, normal: -1}
	parts := strings.Split(tok, "/")
	counts := [3]int{nv, nt, nn}
	dst := [3]*int{&fv.position, &fv.texco, &fv.normal}
	for i, p := range parts {
		if i > 2 {
			break
		}
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return fv, fmt.Errorf("bad face index %q", tok)
		}
		if v < 0 {
			v = counts[i] + v
		} else {
			v--
		}
		if v < 0 || v >= counts[i] {
			return fv, fmt.Errorf("face index %q out of range", tok)
		}
		*dst[i] = v
	}
	if fv.position < 0 {
		return fv, fmt.Errorf("face vertex %q has no position", tok)
	}
	return fv, nil
}

func generateNormals(g *Geometry) {
	acc := make([]mgl32.Vec3, len(g.Positions))
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := g.Indices[i], g.Indices[i+1], g.Indices[i+2]
		n := g.Positions[b].Sub(g.Positions[a]).Cross(g.Positions[c].Sub(g.Positions[a]))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	for i, n := range acc {
		if n.Len() > 0 {
			acc[i] = n.Normalize()
		}
	}
	g.Normals = acc
}
