package ylscene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Visit describes one placed node during a walk.
type Visit struct {
	Key   string
	Spec  *SceneNodeSpec
	Name  string // "[key] name"
	Depth int

	// Parent and Absolute are in the engine convention, relative to the walk
	// root. Local is Absolute re-expressed relative to Parent.
	Parent   Transform
	Absolute Transform
	Local    Transform
	// World is the product of Local matrices from the walk root down to this
	// node, the same chain Node.WorldMatrix multiplies for the built tree.
	World mgl32.Mat4

	// Instance is nil for groups.
	Instance *ResolvedInstance
}

// Walker descends a scene tree, resolving entities and computing transforms.
type Walker struct {
	resolver *Resolver
	log      Logger

	Visited int
	Skipped int
}

func NewWalker(resolver *Resolver, log Logger) *Walker {
	return &Walker{resolver: resolver, log: orNop(log)}
}

// WalkScene visits roots in document order. fn receives the value produced
// for the parent and returns the value handed to the node's children; when it
// returns false the children are not visited. Nodes that cannot be resolved
// are skipped together with their whole subtree, since they provide no frame
// to place children in.
func WalkScene[T any](w *Walker, roots Children, root T, fn func(parent T, v *Visit) (T, bool)) {
	walkChildren(w, roots, root, NewTransform(), mgl32.Ident4(), 0, fn)
}

func walkChildren[T any](w *Walker, children Children, parent T, parentAbs Transform, parentWorld mgl32.Mat4, depth int, fn func(T, *Visit) (T, bool)) {
	for _, entry := range children {
		v, err := w.place(entry.Key, entry.Node, parentAbs, depth)
		if err != nil {
			w.Skipped += 1 + entry.Node.childCount()
			w.log.Warnf("skipping %q: %v", entry.Key, err)
			continue
		}
		w.Visited++
		v.World = parentWorld.Mul4(v.Local.ObjectToWorld())

		child, descend := fn(parent, v)
		if !descend || len(entry.Node.Children) == 0 {
			continue
		}
		walkChildren(w, entry.Node.Children, child, v.Absolute, v.World, depth+1, fn)
	}
}

func (s *SceneNodeSpec) childCount() int {
	if s == nil {
		return 0
	}
	return s.Children.Count()
}

// place resolves one node and computes its transforms. The source position and
// rotation are axis-corrected here and nowhere else.
func (w *Walker) place(key string, spec *SceneNodeSpec, parentAbs Transform, depth int) (*Visit, error) {
	if spec == nil {
		return nil, fmt.Errorf("empty node")
	}

	v := &Visit{
		Key:    key,
		Spec:   spec,
		Name:   fmt.Sprintf("[%s] %s", key, spec.Name),
		Depth:  depth,
		Parent: parentAbs,
	}

	abs := NewTransform()
	switch spec.Type {
	case NodeTypeEntity:
		inst, err := w.resolver.ResolveWith(spec.BlockRef, Overrides{
			Colors:         spec.Colors,
			BBCenterOffset: spec.BBCenterOffset,
			BBDimensions:   spec.BBDimensions,
		})
		if err != nil {
			return nil, err
		}
		v.Instance = inst
		abs.Scale = inst.Scale
	case NodeTypeGroup:
	default:
		return nil, fmt.Errorf("unknown node type %q", spec.Type)
	}

	abs.Position, abs.Rotation = AxisCorrect(spec.Position, spec.Rotation)
	v.Absolute = abs
	v.Local = Reparent(parentAbs, abs)
	return v, nil
}
