package ylscene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeKind tells the rendering collaborator what a Node stands for.
type NodeKind int

const (
	NodeGroup  NodeKind = iota // empty grouping node
	NodeEntity                 // placed block; its mesh is a NodeMesh child
	NodeMesh                   // mesh sub-node carrying surfaces
	NodeBatch                  // merged surfaces in world space
)

func (k NodeKind) String() string {
	switch k {
	case NodeGroup:
		return "group"
	case NodeEntity:
		return "entity"
	case NodeMesh:
		return "mesh"
	case NodeBatch:
		return "batch"
	}
	return "unknown"
}

// Surface is one (geometry, material) pair drawn with a single call.
type Surface struct {
	Geometry *Geometry
	Material *Material
}

// Node is the produced scene graph. Transforms are local to the parent.
type Node struct {
	Name      string
	Kind      NodeKind
	Transform Transform
	Surfaces  []Surface
	Children  []*Node
	Parent    *Node
}

func NewNode(name string, kind NodeKind) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Transform: NewTransform(),
	}
}

func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// World composes local transforms from the root down to n.
func (n *Node) World() Transform {
	if n.Parent == nil {
		return n.Transform
	}
	return Compose(n.Parent.World(), n.Transform)
}

// WorldMatrix multiplies object-to-world matrices from the root down to n.
// Unlike World it stays exact when a non-uniformly scaled parent holds a
// rotated child.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.ObjectToWorld()
	if n.Parent == nil {
		return m
	}
	return n.Parent.WorldMatrix().Mul4(m)
}

// Walk visits n and its descendants depth-first, parents first. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, world Transform) bool) {
	n.walk(n.World(), fn)
}

func (n *Node) walk(world Transform, fn func(*Node, Transform) bool) {
	if !fn(n, world) {
		return
	}
	for _, c := range n.Children {
		c.walk(Compose(world, c.Transform), fn)
	}
}

// SurfaceCount returns the number of surfaces in the subtree, which is the
// number of draw calls needed to render it.
func (n *Node) SurfaceCount() int {
	count := 0
	n.Walk(func(node *Node, _ Transform) bool {
		count += len(node.Surfaces)
		return true
	})
	return count
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ Transform) bool {
		if found != nil {
			return false
		}
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}
