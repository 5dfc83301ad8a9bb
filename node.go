package arbor

import (
	"strconv"
	"strings"
)

// Node is the capability surface every tree participant implements.
// Concrete node types embed NodeBase, which provides the structural state,
// the Base accessor, and no-op defaults for all four lifecycle hooks, so a
// type only overrides the hooks it uses.
type Node interface {
	// Base returns the node's structural record.
	Base() *NodeBase

	// Ready runs once when the node enters a started tree: at Start for
	// nodes added while the tree was idle (bottom-up, deepest first), or
	// immediately on insertion afterwards.
	Ready()

	// Process runs every frame the tree's status and the node's effective
	// process mode allow. delta is the wall-clock time in seconds since
	// the previous frame.
	Process(delta float64)

	// Terminal runs when the node leaves the tree, with the reason.
	Terminal(reason TerminationReason)

	// Loaded runs once before Ready on nodes carrying the just-loaded
	// flag, for post-deserialization fixups.
	Loaded()
}

// NodeBase is the structural record embedded by every concrete node type.
// All cross-references are RIDs resolved through the owning tree's arena;
// the only direct pointer is the tree back-reference, which is nil while
// the node is detached.
type NodeBase struct {
	name       string
	mode       ProcessMode
	rid        RID
	tree       *NodeTree
	parent     RID
	owner      RID
	children   []RID
	depth      int
	status     NodeStatus
	statusMsg  string
	justLoaded bool
}

// NewBase returns a NodeBase ready to be embedded in a concrete node type:
//
//	type Mover struct {
//		arbor.NodeBase
//		Speed float64
//	}
//
//	func NewMover(name string) *Mover {
//		return &Mover{NodeBase: arbor.NewBase(name)}
//	}
func NewBase(name string) NodeBase {
	return NodeBase{name: name}
}

// Base returns the node's structural record.
func (n *NodeBase) Base() *NodeBase { return n }

// Ready is a no-op default. Override it on the embedding type.
func (n *NodeBase) Ready() {}

// Process is a no-op default. Override it on the embedding type.
func (n *NodeBase) Process(delta float64) {}

// Terminal is a no-op default. Override it on the embedding type.
func (n *NodeBase) Terminal(reason TerminationReason) {}

// Loaded is a no-op default. Override it on the embedding type.
func (n *NodeBase) Loaded() {}

// --- Accessors ---

// Name returns the node's name, unique among its current siblings.
func (n *NodeBase) Name() string { return n.name }

// RID returns the node's handle, or NilRID while detached.
func (n *NodeBase) RID() RID { return n.rid }

// Tree returns the owning tree, or nil while detached.
func (n *NodeBase) Tree() *NodeTree { return n.tree }

// Depth returns the node's distance from the tree root. The root is 0.
func (n *NodeBase) Depth() int { return n.depth }

// InsideTree reports whether the node is registered in a tree's arena.
func (n *NodeBase) InsideTree() bool { return n.tree != nil }

// IsRoot reports whether the node is its tree's root.
func (n *NodeBase) IsRoot() bool { return n.tree != nil && n.rid == n.tree.root }

// ProcessMode returns the node's own mode. ModeInherit resolves through
// ancestors at dispatch time.
func (n *NodeBase) ProcessMode() ProcessMode { return n.mode }

// SetProcessMode sets the node's own mode.
func (n *NodeBase) SetProcessMode(mode ProcessMode) { n.mode = mode }

// Status returns the node's transient per-frame condition.
func (n *NodeBase) Status() NodeStatus { return n.status }

// StatusMessage returns the message attached to a Warned or Panicked
// status, or "" when Normal.
func (n *NodeBase) StatusMessage() string { return n.statusMsg }

// MarkAsLoaded flags the node as freshly deserialized: its next Ready will
// be preceded by exactly one Loaded call. The persistence layer sets this
// on every node it produces.
func (n *NodeBase) MarkAsLoaded() { n.justLoaded = true }

// --- Structure ---

// Parent returns the node's parent, or nil for the root or a detached node.
func (n *NodeBase) Parent() Node {
	if n.tree == nil || n.parent == NilRID {
		return nil
	}
	p, _ := n.tree.arena.Get(n.parent)
	return p
}

// Owner returns the root of the nearest saved/instanced subtree containing
// this node, which is not necessarily the parent. The tree root and every
// instanced scene root own themselves.
func (n *NodeBase) Owner() Node {
	if n.tree == nil || n.owner == NilRID {
		return nil
	}
	o, _ := n.tree.arena.Get(n.owner)
	return o
}

// IsOwnerBoundary reports whether this node is the root of a saved or
// instanced subtree (it is its own owner).
func (n *NodeBase) IsOwnerBoundary() bool {
	return n.rid != NilRID && n.owner == n.rid
}

// Root returns the tree root, or nil while detached.
func (n *NodeBase) Root() Node {
	if n.tree == nil {
		return nil
	}
	return n.tree.Root()
}

// Children returns the node's current children in sibling order. Dead
// handles never appear. The returned slice is freshly allocated.
func (n *NodeBase) Children() []Node {
	if n.tree == nil {
		return nil
	}
	return n.tree.arena.AllValid(n.children)
}

// ChildRIDs returns a copy of the node's child handle list.
func (n *NodeBase) ChildRIDs() []RID {
	return append([]RID(nil), n.children...)
}

// NumChildren returns the number of children.
func (n *NodeBase) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index.
// Panics if the index is out of range.
func (n *NodeBase) ChildAt(index int) Node {
	if n.tree == nil || index < 0 || index >= len(n.children) {
		panic("arbor: child index out of range")
	}
	c, _ := n.tree.arena.Get(n.children[index])
	return c
}

// GetChild returns the first child with the given name, or nil.
func (n *NodeBase) GetChild(name string) Node {
	if n.tree == nil {
		return nil
	}
	for _, rid := range n.children {
		if c, ok := n.tree.arena.Get(rid); ok && c.Base().name == name {
			return c
		}
	}
	return nil
}

// childNames returns the names of all live children.
func (n *NodeBase) childNames() []string {
	if n.tree == nil {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for _, rid := range n.children {
		if c, ok := n.tree.arena.Get(rid); ok {
			names = append(names, c.Base().name)
		}
	}
	return names
}

// AddChild registers child into the tree under this node, renaming it
// first if its name collides with a current sibling. If the tree has
// already started, the child's Ready hook (preceded by Loaded when the
// just-loaded flag is set) runs immediately; while the tree is idle,
// Start runs it instead.
//
// Panics if child is nil, already inside a tree, or if this node is
// detached. Build detached subtrees with a Scene and instance them.
func (n *NodeBase) AddChild(child Node) {
	n.addChild(child, false)
}

// addChild is AddChild with an optional ready-suppression used by the
// bulk-instancing path so that Ready runs bottom-up once over the whole
// new subtree rather than per insertion.
func (n *NodeBase) addChild(child Node, suppressReady bool) {
	if child == nil {
		panic("arbor: cannot add nil child")
	}
	if n.tree == nil {
		panic("arbor: AddChild on a node outside a tree")
	}
	cb := child.Base()
	if cb.tree != nil {
		panic("arbor: child is already inside a tree")
	}

	proposed := cb.name
	cb.name = ensureUniqueName(proposed, n.childNames())

	rid := n.tree.register(child)
	cb.rid = rid
	cb.tree = n.tree
	cb.parent = n.rid
	cb.owner = n.owner
	cb.depth = n.depth + 1
	n.children = append(n.children, rid)

	n.tree.emitEvent(TreeEvent{Kind: EventNodeAdded, RID: rid, Name: cb.name})
	if cb.name != proposed {
		n.tree.emitEvent(TreeEvent{Kind: EventNodeRenamed, RID: rid, Name: cb.name})
	}
	if n.tree.debug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}

	if !suppressReady && n.tree.status != TreeIdle {
		if cb.justLoaded {
			child.Loaded()
			cb.justLoaded = false
		}
		child.Ready()
	}
}

// RemoveChild tears down the first child with the given name along with
// its whole subtree: each node in top-down order runs
// Terminal(ReasonRemovedAsChild) and leaves the arena. Returns false and
// logs a warning when no child matches.
func (n *NodeBase) RemoveChild(name string) bool {
	if n.tree == nil {
		panic("arbor: RemoveChild on a node outside a tree")
	}
	for i, rid := range n.children {
		c, ok := n.tree.arena.Get(rid)
		if !ok || c.Base().name != name {
			continue
		}
		n.tree.tearDown(rid, ReasonRemovedAsChild)
		n.children = append(n.children[:i], n.children[i+1:]...)
		return true
	}
	n.LogWarn("RemoveChild: no child named " + strconv.Quote(name))
	return false
}

// Free tears down this node and its whole subtree: each node in top-down
// order runs Terminal(ReasonFreed) and leaves the arena, and the node is
// detached from its parent. Freeing the root terminates the whole tree.
func (n *NodeBase) Free() {
	if n.tree == nil {
		panic("arbor: Free on a node outside a tree")
	}
	t := n.tree
	rid := n.rid
	if rid == t.root {
		t.tearDown(rid, ReasonFreed)
		t.setStatus(TreeTerminated)
		return
	}
	parent, ok := t.arena.Get(n.parent)
	t.tearDown(rid, ReasonFreed)
	if ok {
		parent.Base().detachChild(rid)
	}
}

// detachChild removes rid from the children list, preserving order.
func (n *NodeBase) detachChild(rid RID) {
	for i, c := range n.children {
		if c == rid {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// SetName renames the node, re-uniquing against its current siblings.
// Returns the name actually applied.
func (n *NodeBase) SetName(name string) string {
	if n.tree == nil {
		n.name = name
		return name
	}
	if n.parent != NilRID {
		if parent, ok := n.tree.arena.Get(n.parent); ok {
			siblings := make([]string, 0, len(parent.Base().children))
			for _, rid := range parent.Base().children {
				if rid == n.rid {
					continue
				}
				if c, live := n.tree.arena.Get(rid); live {
					siblings = append(siblings, c.Base().name)
				}
			}
			name = ensureUniqueName(name, siblings)
		}
	}
	n.name = name
	n.tree.emitEvent(TreeEvent{Kind: EventNodeRenamed, RID: n.rid, Name: name})
	return name
}

// clearStructural resets the fields that only have meaning inside a tree.
// Called by the tree when the node leaves the arena.
func (n *NodeBase) clearStructural() {
	n.rid = NilRID
	n.tree = nil
	n.parent = NilRID
	n.owner = NilRID
	n.children = nil
	n.depth = 0
	n.status = StatusNormal
	n.statusMsg = ""
}

// --- Unique naming ---

// splitNameSuffix splits a name into its base and the value of its
// trailing digit run. has is false when the name has no such run (or the
// run overflows an int, which is treated as no suffix).
func splitNameSuffix(name string) (base string, value int, has bool) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return name, 0, false
	}
	v, err := strconv.Atoi(name[i:])
	if err != nil {
		return name, 0, false
	}
	return name[:i], v, true
}

// ensureUniqueName returns a name unique among siblings. The candidate's
// trailing digit run is stripped to a base; if no sibling name starts with
// that base the candidate is kept, otherwise the smallest integer not used
// as a suffix by any base-sharing sibling, counting up from the
// candidate's own suffix (absent counts as 0), is appended to the base.
func ensureUniqueName(candidate string, siblings []string) string {
	if len(siblings) == 0 {
		return candidate
	}

	base, own, _ := splitNameSuffix(candidate)

	used := make(map[int]bool, len(siblings))
	similar := false
	for _, s := range siblings {
		if !strings.HasPrefix(s, base) {
			continue
		}
		similar = true
		_, v, _ := splitNameSuffix(s)
		used[v] = true
	}
	if !similar {
		return candidate
	}

	v := own
	for used[v] {
		v++
	}
	return base + strconv.Itoa(v)
}

// --- Group ---

// Group is a node with no behavior of its own, used purely to structure a
// tree. The hooks are NodeBase's defaults.
type Group struct {
	NodeBase
}

// NewGroup creates a grouping node.
func NewGroup(name string) *Group {
	return &Group{NodeBase: NewBase(name)}
}
