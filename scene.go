package arbor

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"io"
	"reflect"

	"github.com/jinzhu/copier"
)

// Scene is a detached, reusable description of a subtree: one node instance
// per entry, children in sibling order, plus the owner flag that decides
// whether the entry becomes an owner boundary when instanced. Scenes are
// built fluently (NewScene + Attach), loaded from disk (LoadScene), or
// captured from a live tree (SaveBranch), and stamped into a tree any
// number of times with Instance.
type Scene struct {
	instance Node
	children []*Scene
	fromDisk bool
	isOwner  bool
}

// NewScene wraps a detached node as a scene root. Scene roots are owner
// boundaries when instanced.
func NewScene(n Node) *Scene {
	if n == nil {
		panic("arbor: cannot build a scene from nil")
	}
	if n.Base().tree != nil {
		panic("arbor: scene nodes must be detached")
	}
	return &Scene{instance: n, isOwner: true}
}

// Attach nests child scenes under this one, clearing their owner flag:
// their nodes will belong to this scene's owner once instanced. The
// receiver is returned for chaining.
func (s *Scene) Attach(children ...*Scene) *Scene {
	for _, c := range children {
		if c == nil {
			panic("arbor: cannot attach nil scene")
		}
		c.isOwner = false
		s.children = append(s.children, c)
	}
	return s
}

// AttachOwned nests child scenes keeping their owner flag set, so each
// becomes its own owner boundary when instanced.
func (s *Scene) AttachOwned(children ...*Scene) *Scene {
	for _, c := range children {
		if c == nil {
			panic("arbor: cannot attach nil scene")
		}
		c.isOwner = true
		s.children = append(s.children, c)
	}
	return s
}

// Root returns the scene's root node instance.
func (s *Scene) Root() Node { return s.instance }

// Children returns a copy of the direct child scenes.
func (s *Scene) Children() []*Scene {
	out := make([]*Scene, len(s.children))
	copy(out, s.children)
	return out
}

// IsOwner reports whether this entry instances as an owner boundary.
func (s *Scene) IsOwner() bool { return s.isOwner }

// FromDisk reports whether this scene was deserialized. Nodes of a
// deserialized scene run Loaded before their first Ready.
func (s *Scene) FromDisk() bool { return s.fromDisk }

// Len returns the number of nodes in the scene.
func (s *Scene) Len() int {
	n := 1
	for _, c := range s.children {
		n += c.Len()
	}
	return n
}

// --- Traversal ---

// Iterate visits every entry depth-first, parents before children. The
// scene root is visited with a nil parent.
func (s *Scene) Iterate(visit func(parent Node, n Node, isOwner bool)) {
	s.walk(nil, func(parent Node, sc *Scene) {
		visit(parent, sc.instance, sc.isOwner)
	})
}

func (s *Scene) walk(parent Node, f func(parent Node, sc *Scene)) {
	f(parent, s)
	for _, c := range s.children {
		c.walk(s.instance, f)
	}
}

// --- Cloning ---

// Clone deep-copies the scene. Every node instance is cloned detached;
// structure, owner flags, and the from-disk marker carry over. Instance
// clones internally, so an explicit Clone is only needed to fork a
// template for further editing.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		instance: cloneNode(s.instance),
		fromDisk: s.fromDisk,
		isOwner:  s.isOwner,
	}
	for _, child := range s.children {
		c.children = append(c.children, child.Clone())
	}
	return c
}

// cloneNode produces a detached copy of a node: a fresh value of the same
// concrete type with the exported payload deep-copied, carrying only name
// and process mode from the record. Handles, tree linkage, children, and
// per-frame status never survive a clone.
func cloneNode(src Node) Node {
	t := reflect.TypeOf(src)
	if t.Kind() != reflect.Ptr {
		panic("arbor: node types must be pointers, got " + t.String())
	}
	clone := reflect.New(t.Elem()).Interface().(Node)
	if err := copier.CopyWithOption(clone, src, copier.Option{DeepCopy: true}); err != nil {
		panic("arbor: cloning " + nodeTypeName(src) + ": " + err.Error())
	}
	b := src.Base()
	*clone.Base() = NodeBase{name: b.name, mode: b.mode}
	return clone
}

// --- Instancing ---

// Instance stamps a clone of the scene into the tree under parent and
// returns the new subtree root. Entries flagged as owners become their own
// owner boundary; everything else belongs to its nearest boundary above.
// From-disk entries are marked for a Loaded call. If the tree has already
// started, the new subtree is readied bottom-up in one pass; under an idle
// tree, Start will ready it along with everything else.
func (s *Scene) Instance(parent Node) Node {
	pb := parent.Base()
	if pb.tree == nil {
		panic("arbor: cannot instance a scene under a detached node")
	}
	tree := pb.tree

	inst := s.Clone()
	inst.walk(nil, func(p Node, sc *Scene) {
		target := p
		if target == nil {
			target = parent
		}
		target.Base().addChild(sc.instance, true)
		cb := sc.instance.Base()
		if sc.isOwner {
			cb.owner = cb.rid
		}
		if sc.fromDisk {
			cb.justLoaded = true
		}
	})

	root := inst.instance
	if tree.status != TreeIdle {
		tree.readyPass(root.Base().rid)
	}
	return root
}

// --- Structural hashing ---

// StructuralHash folds the scene's shape into a single value: concrete
// type names, owner flags, and child counts, in traversal order. Field
// values and node names do not participate, so two scenes hash equal
// exactly when they are structurally indistinguishable.
func (s *Scene) StructuralHash() uint64 {
	h := fnv.New64a()
	s.hashInto(h)
	return h.Sum64()
}

func (s *Scene) hashInto(h hash.Hash64) {
	_, _ = io.WriteString(h, nodeTypeName(s.instance))
	if s.isOwner {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s.children)))
	_, _ = h.Write(buf[:])
	for _, c := range s.children {
		c.hashInto(h)
	}
}

// --- Branch extraction ---

// SaveBranch captures this node and its live descendants as a detached
// scene. Node state is cloned as it stands right now; descendants that are
// owner boundaries in the tree become owned sub-scene roots, so instancing
// the result reproduces the same boundaries. The branch root itself is
// always a scene root.
func (n *NodeBase) SaveBranch() *Scene {
	if n.tree == nil {
		panic("arbor: cannot save a branch outside a tree")
	}
	node, ok := n.tree.arena.Get(n.rid)
	if !ok {
		panic("arbor: cannot save a freed branch")
	}
	return n.tree.saveScene(node, true)
}

func (t *NodeTree) saveScene(n Node, asRoot bool) *Scene {
	b := n.Base()
	s := &Scene{
		instance: cloneNode(n),
		isOwner:  asRoot || b.IsOwnerBoundary(),
	}
	for _, rid := range b.children {
		child, ok := t.arena.Get(rid)
		if !ok {
			continue
		}
		s.children = append(s.children, t.saveScene(child, false))
	}
	return s
}
