package ylscene

import (
	"errors"
	"fmt"
	"time"
)

// Stats counts what a build produced.
type Stats struct {
	Entities  int
	Groups    int
	Skipped   int
	Malformed int
	Batches   int
	Surfaces  int
	Vertices  int
	Triangles int
}

func (s Stats) String() string {
	return fmt.Sprintf("entities=%d groups=%d skipped=%d malformed=%d batches=%d surfaces=%d vertices=%d triangles=%d",
		s.Entities, s.Groups, s.Skipped, s.Malformed, s.Batches, s.Surfaces, s.Vertices, s.Triangles)
}

type Result struct {
	Root     *Node
	Stats    Stats
	Duration time.Duration
	Profile  *Profiler
}

// Builder assembles a scene tree from a decoded document. Catalog and Assets
// are only read.
type Builder struct {
	Catalog *Catalog
	Assets  *AssetServer
	Options Options
	Logger  Logger
}

func NewBuilder(catalog *Catalog, assets *AssetServer, opts Options, log Logger) *Builder {
	return &Builder{Catalog: catalog, Assets: assets, Options: opts, Logger: log}
}

// build holds the per-call state of Builder.Build.
type build struct {
	opts    Options
	log     Logger
	root    *Node
	batch   *BatchState
	batchID int
	stats   Stats
	prof    *Profiler
}

// Build walks scene and returns the produced tree. Resolution failures and
// batch capacity never abort the build; they are logged and counted.
func (b *Builder) Build(scene Children) (*Result, error) {
	if b.Catalog == nil {
		return nil, errors.New("builder: no catalog")
	}
	if b.Assets == nil {
		return nil, errors.New("builder: no asset server")
	}

	start := time.Now()
	log := orNop(b.Logger)
	opts := b.Options
	if opts.MaxSurfaces <= 0 {
		opts.MaxSurfaces = DefaultMaxSurfaces
	}

	s := &build{
		opts:  opts,
		log:   log,
		root:  NewNode("Scene", NodeGroup),
		batch: NewBatchState(opts.MaxSurfaces, WithNormalMode(opts.NormalMode)),
		prof:  NewProfiler(),
	}
	walker := NewWalker(NewResolver(b.Catalog, b.Assets, opts.resolverOptions(), log), log)

	s.prof.BeginScope("walk")
	for _, entry := range scene {
		WalkScene(walker, Children{entry}, s.root, s.visit)
		if opts.CombineSimilarMaterials && opts.CommitPerGroup &&
			entry.Node != nil && entry.Node.Type == NodeTypeGroup {
			s.commit()
		}
	}
	if opts.CombineSimilarMaterials {
		s.commit()
	}
	s.prof.EndScope("walk")

	s.stats.Skipped = walker.Skipped
	s.collectGeometryStats()

	res := &Result{Root: s.root, Stats: s.stats, Duration: time.Since(start), Profile: s.prof}
	log.Infof("scene built in %s", res.Duration)
	log.Debugf("%s", res.Stats)
	return res, nil
}

func (s *build) visit(parent *Node, v *Visit) (*Node, bool) {
	if v.Instance == nil {
		s.stats.Groups++
		group := NewNode(v.Name, NodeGroup)
		group.Transform = v.Local
		parent.AddChild(group)
		return group, true
	}

	s.stats.Entities++
	if !s.opts.CombineSimilarMaterials {
		node := entityNode(v)
		parent.AddChild(node)
		return node, true
	}

	if err := s.append(v); err != nil {
		s.stats.Malformed++
		s.log.Warnf("%s: %v, attaching unbatched", v.Name, err)
		node := entityNode(v)
		parent.AddChild(node)
		return node, true
	}

	// The absorbed entity still frames its children.
	if v.Spec.Children.Count() == 0 {
		return parent, true
	}
	frame := NewNode(v.Name, NodeGroup)
	frame.Transform = v.Local
	parent.AddChild(frame)
	return frame, true
}

// append adds the entity to the batch, committing once when the surface
// ceiling is reached.
func (s *build) append(v *Visit) error {
	s.prof.BeginScope("bake")
	defer s.prof.EndScope("bake")

	at := Placement{World: v.World, Rotation: v.Absolute.Rotation}
	err := s.batch.AppendAt(v.Instance, at)
	if !errors.Is(err, ErrBatchFull) {
		return err
	}
	s.prof.Count("flushes", 1)
	s.commit()
	if err := s.batch.AppendAt(v.Instance, at); err != nil {
		if errors.Is(err, ErrBatchFull) {
			panic(fmt.Sprintf("ylscene: batch full right after commit (max %d)", s.batch.MaxSurfaces()))
		}
		return err
	}
	return nil
}

// commit attaches the current batch under the root. Batch vertices are already
// in root space, so the node keeps an identity transform.
func (s *build) commit() {
	s.prof.BeginScope("commit")
	defer s.prof.EndScope("commit")

	node := s.batch.Commit(s.batchID)
	if node == nil {
		return
	}
	s.batchID++
	s.stats.Batches++
	s.root.AddChild(node)
	s.log.Debugf("committed %s with %d surfaces", node.Name, len(node.Surfaces))
}

func (s *build) collectGeometryStats() {
	s.root.Walk(func(n *Node, _ Transform) bool {
		for _, surf := range n.Surfaces {
			s.stats.Surfaces++
			s.stats.Vertices += surf.Geometry.VertexCount()
			s.stats.Triangles += surf.Geometry.TriangleCount()
		}
		return true
	})
}

// entityNode builds the un-batched form of an entity: the entity node at its
// local transform, holding a mesh child with the mesh transform and surface.
func entityNode(v *Visit) *Node {
	node := NewNode(v.Name, NodeEntity)
	node.Transform = v.Local

	mesh := v.Instance.Mesh
	if mesh == nil {
		return node
	}
	name := "Mesh"
	if mesh.Asset != nil && mesh.Asset.Name != "" {
		name = mesh.Asset.Name
	}
	child := NewNode(name, NodeMesh)
	child.Transform = mesh.Transform
	if !mesh.Geometry.IsEmpty() {
		child.Surfaces = []Surface{{Geometry: mesh.Geometry, Material: mesh.Material}}
	}
	node.AddChild(child)
	return node
}
