package arbor

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// ProcessMode is the per-node policy governing whether the node's Process
// hook runs while the tree is running or paused.
type ProcessMode uint8

const (
	ModeInherit  ProcessMode = iota // use the nearest non-Inherit ancestor's mode (default)
	ModeAlways                      // run while running and while paused
	ModePausable                    // run while running, skip while paused
	ModeInverse                     // skip while running, run while paused
)

// String returns the mode name.
func (m ProcessMode) String() string {
	switch m {
	case ModeInherit:
		return "Inherit"
	case ModeAlways:
		return "Always"
	case ModePausable:
		return "Pausable"
	case ModeInverse:
		return "Inverse"
	default:
		return fmt.Sprintf("ProcessMode(%d)", uint8(m))
	}
}

// TreeStatus is the lifecycle state of a NodeTree. A tree advances
// Idle -> Running/Paused -> QueuedTermination -> Terminating -> Terminated,
// one state per completed frame once termination is queued.
type TreeStatus uint8

const (
	TreeIdle              TreeStatus = iota // created, Start not yet called
	TreeRunning                             // processing frames
	TreePaused                              // processing frames with the paused dispatch row
	TreeQueuedTermination                   // one final normal frame, then Terminating
	TreeTerminating                         // one frame of Terminal calls, then Terminated
	TreeTerminated                          // no further dispatch; the tree is done
)

// String returns the status name.
func (s TreeStatus) String() string {
	switch s {
	case TreeIdle:
		return "Idle"
	case TreeRunning:
		return "Running"
	case TreePaused:
		return "Paused"
	case TreeQueuedTermination:
		return "QueuedTermination"
	case TreeTerminating:
		return "Terminating"
	case TreeTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("TreeStatus(%d)", uint8(s))
	}
}

// NodeStatus is a node's transient per-frame condition. It is reset to
// StatusNormal at the start of every Process pass and is surfaced in crash
// report tree snapshots.
type NodeStatus uint8

const (
	StatusNormal   NodeStatus = iota // nothing reported this frame
	StatusWarned                     // LogWarn was called on this node this frame
	StatusPanicked                   // LogPanic was called on this node this frame
)

// String returns the status name.
func (s NodeStatus) String() string {
	switch s {
	case StatusNormal:
		return "Normal"
	case StatusWarned:
		return "Warned"
	case StatusPanicked:
		return "Panicked"
	default:
		return fmt.Sprintf("NodeStatus(%d)", uint8(s))
	}
}

// TerminationReason tells a node's Terminal hook why it is being torn down.
type TerminationReason uint8

const (
	ReasonFreed           TerminationReason = iota // Free was called on the node or an ancestor
	ReasonRemovedAsChild                           // the node left the tree via RemoveChild
	ReasonTreeTerminating                          // the whole tree is shutting down
)

// String returns the reason name.
func (r TerminationReason) String() string {
	switch r {
	case ReasonFreed:
		return "Freed"
	case ReasonRemovedAsChild:
		return "RemovedAsChild"
	case ReasonTreeTerminating:
		return "TreeTerminating"
	default:
		return fmt.Sprintf("TerminationReason(%d)", uint8(r))
	}
}

// --- Tree events ---

// TreeEventKind identifies a kind of structural tree event.
type TreeEventKind uint8

const (
	EventNodeAdded         TreeEventKind = iota // a node was registered into the arena
	EventNodeRenamed                            // a node was renamed on insertion or SetName
	EventNodeFreed                              // a node left the arena
	EventTreeStatusChanged                      // the tree moved to a new TreeStatus
)

// TreeEvent carries structural event data for the optional EventSink.
// RID and Name are valid for node events; Status for status events.
type TreeEvent struct {
	Kind   TreeEventKind
	RID    RID
	Name   string
	Status TreeStatus
}

// EventSink is the interface for optional ECS integration. When set on a
// NodeTree, structural events are forwarded to it as they happen. The
// arbor/ecs package provides a Donburi-backed implementation.
type EventSink interface {
	EmitTreeEvent(event TreeEvent)
}

// --- Run ---

// RunConfig configures Run.
type RunConfig struct {
	Title     string // window title
	Width     int    // window width in pixels (default 640)
	Height    int    // window height in pixels (default 480)
	TPS       int    // ticks (frames) per second; 0 keeps ebiten's default
	ShowStats bool   // overlay FPS, node count, and tree status on screen
}

// game adapts a NodeTree to the ebiten game loop.
type game struct {
	tree      *NodeTree
	showStats bool
}

func (g *game) Update() error {
	if g.tree.Process() == TreeTerminated {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.showStats {
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"FPS: %.1f\nTPS: %.1f\nnodes: %d\nstatus: %v",
			ebiten.ActualFPS(), ebiten.ActualTPS(), g.tree.Len(), g.tree.Status()))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Run creates a window and drives the tree with an ebiten game loop until
// the tree terminates or the window is closed. If the tree is still Idle it
// is started first. For full control, implement ebiten.Game yourself and
// call NodeTree.Process from your Update.
func Run(tree *NodeTree, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	if cfg.Title == "" {
		cfg.Title = "arbor"
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	if tree.Status() == TreeIdle {
		if err := tree.Start(); err != nil {
			return err
		}
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	err := ebiten.RunGame(&game{tree: tree, showStats: cfg.ShowStats})
	if err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
