package arbor

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame traversal metrics.
// Only populated when NodeTree.debug is true.
type debugStats struct {
	frameTime time.Duration
	visited   int
	processed int
}

// debugLog prints traversal stats for the completed frame to stderr.
func (t *NodeTree) debugLog() {
	if !t.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[arbor] frame: %v | visited: %d | processed: %d | live: %d | status: %v\n",
		t.stats.frameTime, t.stats.visited, t.stats.processed, t.arena.Len(), t.status)
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n Node) {
	b := n.Base()
	if b.depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[arbor] warning: tree depth %d exceeds %d (node %q)\n",
			b.depth, debugMaxTreeDepth, b.name)
	}
}

// debugCheckChildCount warns on stderr if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *NodeBase) {
	if len(n.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "[arbor] warning: node %q has %d children (threshold %d)\n",
			n.name, len(n.children), debugMaxChildCount)
	}
}
