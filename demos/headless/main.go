// Headless runs a tree without a window: the frame loop is a plain for
// loop calling Process until the tree reports Terminated. A scripted
// TestRunner drives the lifecycle, which is the same shape a CI smoke
// test of a game's node graph would take.
package main

import (
	"fmt"
	"log"

	"github.com/phanxgames/arbor"
)

var script = []byte(`{
	"steps": [
		{"action": "expect-status", "status": "Idle"},
		{"action": "start"},
		{"action": "expect-status", "status": "Running"},
		{"action": "process", "frames": 30},
		{"action": "expect-nodes", "count": 5},
		{"action": "free", "path": "World/Pawn"},
		{"action": "process", "frames": 1},
		{"action": "expect-nodes", "count": 4},
		{"action": "pause"},
		{"action": "process", "frames": 10},
		{"action": "resume"},
		{"action": "queue-termination"},
		{"action": "process", "frames": 2},
		{"action": "expect-status", "status": "Terminated"}
	]
}`)

// ticker counts the frames it sees so the demo has something to report.
type ticker struct {
	arbor.NodeBase
	frames int
}

func (tk *ticker) Process(delta float64) {
	tk.frames++
}

func (tk *ticker) Terminal(reason arbor.TerminationReason) {
	tk.LogInfo(fmt.Sprintf("processed %d frames (%s)", tk.frames, reason))
}

func main() {
	root := arbor.NewGroup("Root")
	tree := arbor.NewNodeTree(root, arbor.VerbosityNoDebug)

	world := arbor.NewGroup("World")
	root.AddChild(world)
	world.AddChild(&ticker{NodeBase: arbor.NewBase("Clock")})
	world.AddChild(arbor.NewGroup("Pawn"))
	paused := &ticker{NodeBase: arbor.NewBase("Background")}
	paused.SetProcessMode(arbor.ModeAlways)
	world.AddChild(paused)

	runner, err := arbor.LoadTestScript(script)
	if err != nil {
		log.Fatal(err)
	}
	if err := runner.Run(tree); err != nil {
		log.Fatal(err)
	}
	log.Println("script completed, tree terminated cleanly")
}
