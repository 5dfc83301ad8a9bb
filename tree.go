package arbor

import (
	"errors"
	"time"
)

// ErrTreeNotIdle is returned by Start when the tree has already started.
var ErrTreeNotIdle = errors.New("arbor: tree is not idle")

// NodeTree owns the node arena and drives the lifecycle of everything in
// it. All access happens on the goroutine driving Process; there is no
// locking anywhere. The tree's complexity is aliasing, not concurrency:
// many tree pointers may reference the same node, and structural mutation
// may happen mid-traversal, so every reference re-resolves through the
// arena instead of holding a node across a call boundary.
type NodeTree struct {
	arena      table[Node]
	identity   map[RID]string // "" = addressable by path; non-empty = singleton name
	singletons map[string]RID
	root       RID
	status     TreeStatus
	paused     bool // dispatch row while status is TreeQueuedTermination
	lastFrame  time.Time
	logger     *Logger
	sink       EventSink
	debug      bool
	stats      debugStats
}

// NewNodeTree creates a tree owning root. The root is its own owner and
// sits at depth 0. The tree is Idle until Start.
//
// Panics if root is nil or already inside a tree.
func NewNodeTree(root Node, verbosity Verbosity) *NodeTree {
	if root == nil {
		panic("arbor: cannot create a tree with a nil root")
	}
	rb := root.Base()
	if rb.tree != nil {
		panic("arbor: root is already inside a tree")
	}
	t := &NodeTree{
		identity:   make(map[RID]string),
		singletons: make(map[string]RID),
		logger:     NewLogger(verbosity),
	}
	rid := t.register(root)
	rb.rid = rid
	rb.tree = t
	rb.parent = NilRID
	rb.owner = rid
	rb.depth = 0
	t.root = rid
	return t
}

// register inserts a node into the arena with a path identity and returns
// its handle.
func (t *NodeTree) register(n Node) RID {
	rid := t.arena.Insert(n)
	t.identity[rid] = ""
	return rid
}

// unregister removes a node from the arena, drops its identity and any
// singleton binding, and clears its structural fields.
func (t *NodeTree) unregister(rid RID, n Node) {
	name := n.Base().name
	t.arena.Remove(rid)
	if singleton, ok := t.identity[rid]; ok {
		if singleton != "" {
			delete(t.singletons, singleton)
		}
		delete(t.identity, rid)
	}
	n.Base().clearStructural()
	t.emitEvent(TreeEvent{Kind: EventNodeFreed, RID: rid, Name: name})
}

// tearDown walks the subtree under rid top-down, running Terminal with the
// given reason on each node and unregistering it. The caller detaches rid
// from its parent's children list.
func (t *NodeTree) tearDown(rid RID, reason TerminationReason) {
	for _, r := range t.topDownClosure(rid) {
		n, ok := t.arena.Get(r)
		if !ok {
			continue
		}
		n.Terminal(reason)
		t.unregister(r, n)
	}
}

// topDownClosure returns rid and every live descendant in breadth-first
// order: parents always precede their children.
func (t *NodeTree) topDownClosure(rid RID) []RID {
	out := []RID{rid}
	for i := 0; i < len(out); i++ {
		if n, ok := t.arena.Get(out[i]); ok {
			out = append(out, n.Base().children...)
		}
	}
	return out
}

// bottomUpOrder returns the subtree under rid deepest-first, converging on
// rid itself last. Used for the Ready pass.
func (t *NodeTree) bottomUpOrder(rid RID) []RID {
	order := t.topDownClosure(rid)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// --- Arena access ---

// Node returns the node under rid, if it is still live.
func (t *NodeTree) Node(rid RID) (Node, bool) {
	return t.arena.Get(rid)
}

// Nodes returns the nodes under rids, failing with ErrDuplicateHandle when
// the same handle is requested twice. Dead handles are skipped. Use this
// wherever every returned node may be mutated.
func (t *NodeTree) Nodes(rids ...RID) ([]Node, error) {
	return t.arena.GetMany(rids)
}

// ValidNodes returns the nodes under rids, silently skipping dead handles.
func (t *NodeTree) ValidNodes(rids ...RID) []Node {
	return t.arena.AllValid(rids)
}

// Root returns the tree's root node, or nil once the tree has terminated
// and the root has been torn down.
func (t *NodeTree) Root() Node {
	n, _ := t.arena.Get(t.root)
	return n
}

// RootRID returns the root's handle.
func (t *NodeTree) RootRID() RID { return t.root }

// Len returns the number of live nodes.
func (t *NodeTree) Len() int { return t.arena.Len() }

// Status returns the tree's lifecycle state.
func (t *NodeTree) Status() TreeStatus { return t.status }

// Logger returns the tree's diagnostic sink.
func (t *NodeTree) Logger() *Logger { return t.logger }

// --- Lifecycle ---

// Start moves the tree to TreeRunning and runs the Ready pass bottom-up
// (deepest nodes first, root last). Nodes flagged just-loaded run Loaded
// immediately before their Ready. The status flips before the pass so a
// child added from inside a Ready hook is readied at insertion instead of
// being skipped. Fails with ErrTreeNotIdle unless the tree is Idle.
func (t *NodeTree) Start() error {
	if t.status != TreeIdle {
		return ErrTreeNotIdle
	}
	t.paused = false
	t.setStatus(TreeRunning)
	t.readyPass(t.root)
	t.lastFrame = time.Now()
	return nil
}

// readyPass runs Loaded (where flagged) then Ready over the subtree under
// rid in bottom-up order.
func (t *NodeTree) readyPass(rid RID) {
	for _, r := range t.bottomUpOrder(rid) {
		n, ok := t.arena.Get(r)
		if !ok {
			continue
		}
		b := n.Base()
		if b.justLoaded {
			n.Loaded()
			b.justLoaded = false
		}
		n.Ready()
	}
}

// Process runs one frame: it computes the wall-clock delta since the
// previous frame, resets every node's transient status, walks the tree
// top-down dispatching Process (or Terminal while terminating) per the
// status/mode matrix, and then advances a queued termination by exactly
// one state. Returns the status after the frame. No-op outside the active
// states.
func (t *NodeTree) Process() TreeStatus {
	if !t.active() {
		return t.status
	}
	now := time.Now()
	delta := now.Sub(t.lastFrame).Seconds()
	t.lastFrame = now

	t.stats = debugStats{}
	start := now
	t.resetStatuses()
	t.processTail(t.root, delta, ModePausable)

	switch t.status {
	case TreeQueuedTermination:
		t.setStatus(TreeTerminating)
	case TreeTerminating:
		t.setStatus(TreeTerminated)
	}
	if t.debug {
		t.stats.frameTime = time.Since(start)
		t.debugLog()
	}
	return t.status
}

// active reports whether Process dispatches anything in the current state.
func (t *NodeTree) active() bool {
	switch t.status {
	case TreeRunning, TreePaused, TreeQueuedTermination, TreeTerminating:
		return true
	default:
		return false
	}
}

// resetStatuses clears every node's per-frame condition.
func (t *NodeTree) resetStatuses() {
	t.arena.Each(func(_ RID, n Node) {
		b := n.Base()
		b.status = StatusNormal
		b.statusMsg = ""
	})
}

// processTail visits the node under rid and then its children, snapshotted
// at visit time so that structural changes made by the node's own Process
// affect only its remaining subtree. inherited is the effective mode of
// the nearest non-Inherit ancestor; the root inherits ModePausable.
func (t *NodeTree) processTail(rid RID, delta float64, inherited ProcessMode) {
	n, ok := t.arena.Get(rid)
	if !ok {
		return
	}
	mode := n.Base().mode
	if mode == ModeInherit {
		mode = inherited
	}

	switch t.status {
	case TreeRunning, TreePaused, TreeQueuedTermination:
		running := t.status == TreeRunning ||
			(t.status == TreeQueuedTermination && !t.paused)
		if running {
			if mode == ModeAlways || mode == ModePausable {
				n.Process(delta)
				t.stats.processed++
			}
		} else {
			if mode == ModeAlways || mode == ModeInverse {
				n.Process(delta)
				t.stats.processed++
			}
		}
	case TreeTerminating:
		n.Terminal(ReasonTreeTerminating)
	case TreeTerminated:
		return
	}
	t.stats.visited++

	// The node may have freed itself or restructured its subtree; the
	// snapshot comes from a fresh lookup.
	n, ok = t.arena.Get(rid)
	if !ok {
		return
	}
	snapshot := append([]RID(nil), n.Base().children...)
	for _, child := range snapshot {
		if t.status == TreeTerminated {
			return
		}
		t.processTail(child, delta, mode)
	}
}

// Pause moves a running tree to the paused dispatch row.
func (t *NodeTree) Pause() {
	if t.status == TreeRunning {
		t.paused = true
		t.setStatus(TreePaused)
	}
}

// Resume moves a paused tree back to the running dispatch row.
func (t *NodeTree) Resume() {
	if t.status == TreePaused {
		t.paused = false
		t.setStatus(TreeRunning)
	}
}

// QueueTermination begins a graceful shutdown: the tree processes one more
// normal frame, then one frame of Terminal calls, then stops. Only
// transitions out of Running or Paused.
func (t *NodeTree) QueueTermination() {
	if t.status == TreeRunning || t.status == TreePaused {
		t.setStatus(TreeQueuedTermination)
	}
}

// Terminate stops the tree immediately, skipping Terminal calls for any
// pending nodes.
func (t *NodeTree) Terminate() {
	if t.status != TreeTerminated {
		t.setStatus(TreeTerminated)
	}
}

// setStatus applies a status change and notifies the event sink.
func (t *NodeTree) setStatus(s TreeStatus) {
	if t.status == s {
		return
	}
	t.status = s
	t.emitEvent(TreeEvent{Kind: EventTreeStatusChanged, Status: s})
}

// --- Singletons ---

// RegisterSingleton makes the node reachable by name through the flat
// singleton map, bypassing the hierarchy. Returns false when the name is
// already claimed. The binding is dropped automatically when the node
// leaves the tree.
func (t *NodeTree) RegisterSingleton(name string, n Node) bool {
	if name == "" || n == nil || n.Base().tree != t {
		return false
	}
	if _, taken := t.singletons[name]; taken {
		return false
	}
	rid := n.Base().rid
	t.identity[rid] = name
	t.singletons[name] = rid
	return true
}

// Singleton returns the node registered under name, if any.
func (t *NodeTree) Singleton(name string) (Node, bool) {
	rid, ok := t.singletons[name]
	if !ok {
		return nil, false
	}
	return t.arena.Get(rid)
}

// SingletonTp builds a typed pointer to the singleton registered under
// name, attributed to owner. Fails with ErrMissingNode when no singleton
// holds the name, ErrWrongType when it is not a T.
func SingletonTp[T Node](owner Node, name string) (Tp[T], error) {
	base := owner.Base()
	if base.tree == nil {
		return Tp[T]{}, ErrMissingNode
	}
	rid, ok := base.tree.singletons[name]
	if !ok {
		return Tp[T]{}, ErrMissingNode
	}
	return MakeTp[T](owner, rid)
}

// singletonName returns the singleton name bound to rid, or "".
func (t *NodeTree) singletonName(rid RID) string {
	return t.identity[rid]
}

// --- Integration ---

// SetEventSink attaches an optional sink receiving structural tree events.
// The arbor/ecs package provides a Donburi-backed implementation.
func (t *NodeTree) SetEventSink(sink EventSink) {
	t.sink = sink
}

func (t *NodeTree) emitEvent(event TreeEvent) {
	if t.sink != nil {
		t.sink.EmitTreeEvent(event)
	}
}

// SetDebugMode enables per-frame stats on stderr plus tree depth and child
// count warnings on structural operations.
func (t *NodeTree) SetDebugMode(enabled bool) {
	t.debug = enabled
}
