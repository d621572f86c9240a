package ylscene

type NodeType string

const (
	NodeTypeEntity NodeType = "entity"
	NodeTypeGroup  NodeType = "group"
)

// BlockDefinition is one catalog entry describing a placeable block.
type BlockDefinition struct {
	Type           string
	Shape          string
	Size           [3]int
	Material       string
	Colors         [][]float32 // [r, g, b, emission?] per entry
	BBCenterOffset [3]float32
	BBDimensions   [3]float32
}

// Catalog maps block reference keys to definitions, keeping document order.
type Catalog struct {
	keys []string
	defs map[string]*BlockDefinition
}

func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*BlockDefinition)}
}

// Add inserts or replaces a definition. Replacing keeps the original position.
func (c *Catalog) Add(key string, def *BlockDefinition) {
	if _, ok := c.defs[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.defs[key] = def
}

func (c *Catalog) Get(key string) (*BlockDefinition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.defs[key]
	return def, ok
}

func (c *Catalog) Keys() []string {
	return c.keys
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// SceneNodeSpec is one entry of the scene-description tree. Position and
// Rotation (degrees) are in the source document convention and absolute.
type SceneNodeSpec struct {
	Type     NodeType
	Name     string
	BlockRef string
	Position [3]float32
	Rotation [3]float32
	Colors   [][]float32
	Children Children

	BBCenterOffset *[3]float32
	BBDimensions   *[3]float32
}

type ChildEntry struct {
	Key  string
	Node *SceneNodeSpec
}

// Children is an insertion-ordered key to node mapping.
type Children []ChildEntry

func (c *Children) Add(key string, node *SceneNodeSpec) {
	for i := range *c {
		if (*c)[i].Key == key {
			(*c)[i].Node = node
			return
		}
	}
	*c = append(*c, ChildEntry{Key: key, Node: node})
}

func (c Children) Get(key string) (*SceneNodeSpec, bool) {
	for _, e := range c {
		if e.Key == key {
			return e.Node, true
		}
	}
	return nil, false
}

// Count returns the number of nodes in the subtree, including nested children.
func (c Children) Count() int {
	n := 0
	for _, e := range c {
		n++
		if e.Node != nil {
			n += e.Node.Children.Count()
		}
	}
	return n
}
