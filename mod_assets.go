package ylscene

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type AssetId string

// LookupKind names one of the three catalog lookup tables.
type LookupKind int

const (
	LookupID LookupKind = iota
	LookupType
	LookupShape
)

// DefaultLookupOrder resolves by exact id, then semantic type, then shape.
var DefaultLookupOrder = []LookupKind{LookupID, LookupType, LookupShape}

func (k LookupKind) String() string {
	switch k {
	case LookupID:
		return "id"
	case LookupType:
		return "type"
	case LookupShape:
		return "shape"
	}
	return fmt.Sprintf("LookupKind(%d)", int(k))
}

func ParseLookupKind(s string) (LookupKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "id":
		return LookupID, nil
	case "type":
		return LookupType, nil
	case "shape":
		return LookupShape, nil
	}
	return 0, fmt.Errorf("unknown lookup kind %q", s)
}

// MeshAsset is an instantiable mesh template: shared read-only geometry, a
// template material and the transform of the mesh inside its owning node.
type MeshAsset struct {
	Id            AssetId
	Name          string
	Geometry      *Geometry
	Material      *Material
	MeshTransform Transform
	SourcePath    string
}

// MeshInstance is one placed use of a MeshAsset. The material is private to
// the instance; geometry stays shared with the template.
type MeshInstance struct {
	Asset     *MeshAsset
	Geometry  *Geometry
	Material  *Material
	Transform Transform
}

func (a *MeshAsset) Instantiate() *MeshInstance {
	mat := a.Material.Clone()
	if mat == nil {
		mat = DefaultMaterial()
	}
	return &MeshInstance{
		Asset:     a,
		Geometry:  a.Geometry,
		Material:  mat,
		Transform: a.MeshTransform,
	}
}

// AssetServer owns mesh templates and the id/type/shape lookup tables that
// point into them. It is built once and then only read.
type AssetServer struct {
	meshes map[AssetId]*MeshAsset
	tables [3]map[string]AssetId
}

func NewAssetServer() *AssetServer {
	server := &AssetServer{
		meshes: make(map[AssetId]*MeshAsset),
	}
	for i := range server.tables {
		server.tables[i] = make(map[string]AssetId)
	}
	return server
}

// DefaultAssetServer registers the built-in block library: the four standard
// shapes, the musket ball, the glass windows and the large wooden hull.
func DefaultAssetServer() *AssetServer {
	server := NewAssetServer()

	server.RegisterShape("STANDARD", server.LoadMesh("block_std", BoxGeometry(mgl32.Vec3{1, 1, 1}), DefaultMaterial()))
	server.RegisterShape("SLOPE", server.LoadMesh("block_slope", SlopeGeometry(), DefaultMaterial()))
	server.RegisterShape("CORNER", server.LoadMesh("block_corner", CornerGeometry(), DefaultMaterial()))
	server.RegisterShape("SPIKE", server.LoadMesh("block_spike", SpikeGeometry(), DefaultMaterial()))

	server.RegisterType("MUSKET BALL", server.CreateSphereMesh("musket_ball", 0.05, DefaultMaterial()))

	server.RegisterID("3966", server.CreateGlassPane("glass_window_1x1x1", 1, 1))
	server.RegisterID("2756", server.CreateGlassPane("glass_window_2x2x1", 2, 2))
	server.RegisterID("5617", server.CreateGlassPane("glass_window_2x4x1", 2, 4))
	server.RegisterID("5618", server.CreateGlassPane("glass_window_4x4x1", 4, 4))
	server.RegisterID("3978", server.CreateHull("ship_hull_wooden_large", hullSize))

	return server
}

// LoadMesh stores a mesh template and returns its new id.
func (server *AssetServer) LoadMesh(name string, geom *Geometry, mat *Material) AssetId {
	id := makeAssetId()

	server.meshes[id] = &MeshAsset{
		Id:            id,
		Name:          name,
		Geometry:      geom,
		Material:      mat,
		MeshTransform: NewTransform(),
	}

	return id
}

func (server *AssetServer) Mesh(id AssetId) (*MeshAsset, bool) {
	m, ok := server.meshes[id]
	return m, ok
}

func (server *AssetServer) Len() int {
	return len(server.meshes)
}

func (server *AssetServer) Register(kind LookupKind, key string, id AssetId) {
	if _, ok := server.meshes[id]; !ok {
		panic(fmt.Sprintf("asset %s is not loaded", id))
	}
	server.tables[kind][key] = id
}

func (server *AssetServer) RegisterID(key string, id AssetId)    { server.Register(LookupID, key, id) }
func (server *AssetServer) RegisterType(key string, id AssetId)  { server.Register(LookupType, key, id) }
func (server *AssetServer) RegisterShape(key string, id AssetId) { server.Register(LookupShape, key, id) }

// Lookup returns the template registered under key in the given table.
func (server *AssetServer) Lookup(kind LookupKind, key string) (*MeshAsset, bool) {
	if server == nil || kind < LookupID || kind > LookupShape || key == "" {
		return nil, false
	}
	id, ok := server.tables[kind][key]
	if !ok {
		return nil, false
	}
	return server.Mesh(id)
}

func (server *AssetServer) ByID(key string) (*MeshAsset, bool)  { return server.Lookup(LookupID, key) }
func (server *AssetServer) ByType(t string) (*MeshAsset, bool)  { return server.Lookup(LookupType, t) }
func (server *AssetServer) ByShape(s string) (*MeshAsset, bool) { return server.Lookup(LookupShape, s) }

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
