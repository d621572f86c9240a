package ylscene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnknownBlock means the reference key is not in the catalog.
	ErrUnknownBlock = errors.New("no block reference")
	// ErrUnsupportedBlock means no lookup table matched and placeholders are off.
	ErrUnsupportedBlock = errors.New("unsupported entity")
)

// ResolvedInstance is the mesh and owning-node scale chosen for one entity.
type ResolvedInstance struct {
	Key         string
	Definition  *BlockDefinition
	Mesh        *MeshInstance
	Scale       mgl32.Vec3
	MatchedBy   LookupKind
	Placeholder bool
}

type ResolverOptions struct {
	// Order lists the lookup tables to try; the first hit wins.
	Order                   []LookupKind
	DrawUnsupported         bool
	UnsupportedTransparency float32
	// StdUnit is the mesh scale applied to shape matches.
	StdUnit float32
}

func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		Order:                   DefaultLookupOrder,
		DrawUnsupported:         true,
		UnsupportedTransparency: 0.5,
		StdUnit:                 StdUnit,
	}
}

// Resolver turns block references into mesh instances using an injected,
// read-only catalog and asset server.
type Resolver struct {
	catalog *Catalog
	assets  *AssetServer
	opts    ResolverOptions
	log     Logger
}

func NewResolver(catalog *Catalog, assets *AssetServer, opts ResolverOptions, log Logger) *Resolver {
	if len(opts.Order) == 0 {
		opts.Order = DefaultLookupOrder
	}
	if opts.StdUnit == 0 {
		opts.StdUnit = StdUnit
	}
	return &Resolver{
		catalog: catalog,
		assets:  assets,
		opts:    opts,
		log:     orNop(log),
	}
}

// Overrides carry per-node values that replace catalog data for a single
// resolution. Nil bounds keep the definition's.
type Overrides struct {
	Colors         [][]float32
	BBCenterOffset *[3]float32
	BBDimensions   *[3]float32
}

// Resolve picks the mesh for ref and applies its color. override, when not
// empty, replaces the catalog's default colors.
func (r *Resolver) Resolve(ref string, override [][]float32) (*ResolvedInstance, error) {
	return r.ResolveWith(ref, Overrides{Colors: override})
}

// ResolveWith is Resolve with per-node overrides. Bounding-box overrides
// affect shape fits and placeholders; meshes found by id or type are used
// as registered.
func (r *Resolver) ResolveWith(ref string, ov Overrides) (*ResolvedInstance, error) {
	def, ok := r.catalog.Get(ref)
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrUnknownBlock, ref)
	}
	if ov.BBCenterOffset != nil || ov.BBDimensions != nil {
		local := *def
		if ov.BBCenterOffset != nil {
			local.BBCenterOffset = *ov.BBCenterOffset
		}
		if ov.BBDimensions != nil {
			local.BBDimensions = *ov.BBDimensions
		}
		def = &local
	}

	inst := &ResolvedInstance{
		Key:        ref,
		Definition: def,
		Scale:      mgl32.Vec3{1, 1, 1},
	}

	matched := false
	for _, kind := range r.opts.Order {
		asset, ok := r.lookup(kind, ref, def)
		if !ok {
			continue
		}
		inst.Mesh = asset.Instantiate()
		inst.MatchedBy = kind
		if kind == LookupShape {
			r.fitShape(inst, def)
		}
		matched = true
		break
	}

	if !matched {
		if !r.opts.DrawUnsupported {
			return nil, fmt.Errorf("%w: %q (type %q, shape %q)", ErrUnsupportedBlock, ref, def.Type, def.Shape)
		}
		inst.Mesh = r.placeholder(def)
		inst.Placeholder = true
	}

	colors := ov.Colors
	if len(colors) == 0 {
		colors = def.Colors
	}
	if len(colors) > 0 {
		inst.Mesh.Material.ApplyColor(colors[0])
	}

	r.log.Debugf("resolved %q via %s", ref, matchName(inst))
	return inst, nil
}

func (r *Resolver) lookup(kind LookupKind, ref string, def *BlockDefinition) (*MeshAsset, bool) {
	switch kind {
	case LookupID:
		return r.assets.ByID(ref)
	case LookupType:
		return r.assets.ByType(def.Type)
	case LookupShape:
		return r.assets.ByShape(def.Shape)
	}
	return nil, false
}

// fitShape sizes a unit shape mesh: the mesh is scaled to one standard unit,
// the owning node is scaled by the block size, and the bounding-box offset is
// converted into the node's pre-scale units (with Z mirrored).
func (r *Resolver) fitShape(inst *ResolvedInstance, def *BlockDefinition) {
	size := mgl32.Vec3{float32(def.Size[0]), float32(def.Size[1]), float32(def.Size[2])}
	offset := mgl32.Vec3{def.BBCenterOffset[0], def.BBCenterOffset[1], -def.BBCenterOffset[2]}

	inst.Mesh.Transform.Scale = mgl32.Vec3{r.opts.StdUnit, r.opts.StdUnit, r.opts.StdUnit}
	inst.Mesh.Transform.Position = divVec3(offset, size)
	inst.Scale = size
}

// placeholder is a translucent box covering the block's bounding box.
func (r *Resolver) placeholder(def *BlockDefinition) *MeshInstance {
	dims := mgl32.Vec3{def.BBDimensions[0], def.BBDimensions[1], def.BBDimensions[2]}
	tr := NewTransform()
	tr.Position = mgl32.Vec3{def.BBCenterOffset[0], def.BBCenterOffset[1], -def.BBCenterOffset[2]}
	return &MeshInstance{
		Geometry: BoxGeometry(dims),
		Material: &Material{
			Albedo:      mgl32.Vec4{0, 0, 0, r.opts.UnsupportedTransparency},
			Transparent: true,
		},
		Transform: tr,
	}
}

func matchName(inst *ResolvedInstance) string {
	if inst.Placeholder {
		return "placeholder"
	}
	return inst.MatchedBy.String()
}
