// Package arbor is a node-tree runtime for self-updating object hierarchies.
//
// Arbor provides the handle-addressed node arena, re-validating tree
// pointers, lifecycle engine, scene instancing, signals, and diagnostics
// that a simulation or game built on per-frame object trees needs. It
// pairs with [Ebitengine] for the frame loop but runs headless just as
// well.
//
// Full documentation, tutorials, and examples are available at:
//
// https://phanxgames.github.io/arbor/
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and
// drives the tree for you:
//
//	root := arbor.NewGroup("Root")
//	tree := arbor.NewNodeTree(root, arbor.VerbosityNoDebug)
//	// ... add nodes ...
//	arbor.Run(tree, arbor.RunConfig{
//		Title: "My Game", Width: 640, Height: 480,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [NodeTree.Process] from your Update, or drive the tree from any loop:
//
//	tree.Start()
//	for tree.Process() != arbor.TreeTerminated {
//	}
//
// # Node trees
//
// Every object is a [Node]: a struct embedding [NodeBase] that overrides
// the hooks it cares about. Ready runs once when the node enters a started
// tree, Process runs every frame with the elapsed seconds, Terminal runs
// when the node leaves the tree, and Loaded runs once before Ready for
// deserialized nodes.
//
//	type Mover struct {
//		arbor.NodeBase
//		Speed float64
//	}
//
//	func (m *Mover) Process(delta float64) {
//		// per-frame logic
//	}
//
//	mover := &Mover{NodeBase: arbor.NewBase("Mover"), Speed: 40}
//	root.AddChild(mover)
//
// Nodes are addressed by [RID] handles, never by retained Go pointers.
// A [Tp] re-resolves its target through the arena on every dereference,
// so use-after-free surfaces as a clean error (or a crash report, for the
// fatal accessor) instead of stale memory. Sibling names are kept unique
// automatically, which makes path lookups like
//
//	ptr, err := arbor.GetNodeAs[*Mover](root, "World/Mover")
//
// unambiguous.
//
// # Scenes
//
// A [Scene] is a detached subtree template: build one fluently with
// [NewScene] and [Scene.Attach], capture one from a live branch with
// SaveBranch, or load one from TOML with [LoadScene] and a [Registry].
// Instance stamps clones into the tree any number of times.
//
// # Key features
//
// Arbor includes generation-checked handles, a tree status machine with
// pause/resume and staged termination, per-node process modes (including
// inverse mode for pause menus), typed signals, singleton registration,
// crash reports with tree snapshots, scene persistence (via [go-toml]),
// field animation (via [gween]), and ECS integration (via [Donburi]
// adapter in arbor/ecs).
//
// See the full docs for guides on each feature:
// https://phanxgames.github.io/arbor/
//
// [Ebitengine]: https://ebitengine.org
// [go-toml]: https://github.com/pelletier/go-toml
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package arbor
