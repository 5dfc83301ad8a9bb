// Nodes10k is a stress demo: a spawner keeps the tree at ten thousand
// short-lived nodes, each freeing itself when its lifetime runs out. The
// stats overlay and the FPS probe show what a full walk over a churning
// arena costs per frame.
package main

import (
	"log"
	"math/rand/v2"

	"github.com/phanxgames/arbor"
)

const (
	windowTitle = "Arbor — 10k Nodes Demo"
	target      = 10000
)

// ephemeral frees itself once its lifetime has elapsed.
type ephemeral struct {
	arbor.NodeBase
	ttl float64
}

func newEphemeral() *ephemeral {
	return &ephemeral{
		NodeBase: arbor.NewBase("e"),
		ttl:      0.5 + rand.Float64()*4,
	}
}

func (e *ephemeral) Process(delta float64) {
	e.ttl -= delta
	if e.ttl <= 0 {
		e.Free()
	}
}

// spawner tops the population back up to the target every frame.
type spawner struct {
	arbor.NodeBase
}

func (s *spawner) Process(delta float64) {
	missing := target - s.Tree().Len()
	// Cap the per-frame refill so a mass die-off spreads over frames.
	if missing > 500 {
		missing = 500
	}
	for i := 0; i < missing; i++ {
		s.AddChild(newEphemeral())
	}
}

func main() {
	root := arbor.NewGroup("Root")
	tree := arbor.NewNodeTree(root, arbor.VerbosityNoDebug)

	root.AddChild(&spawner{NodeBase: arbor.NewBase("Spawner")})
	probe := arbor.NewFPSProbe("FPS")
	probe.Interval = 5
	root.AddChild(probe)

	if err := arbor.Run(tree, arbor.RunConfig{
		Title:     windowTitle,
		Width:     800,
		Height:    600,
		ShowStats: true,
	}); err != nil {
		log.Fatal(err)
	}
}
