package arbor

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string `json:"action"`
	Path   string `json:"path,omitempty"`
	Frames int    `json:"frames,omitempty"`
	Status string `json:"status,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner drives a NodeTree through a scripted sequence of lifecycle
// actions for automated testing: processing frames, pausing and resuming,
// freeing nodes by path, queueing termination, and asserting tree status
// or live node counts between frames.
type TestRunner struct {
	steps  []testStep
	cursor int
	done   bool
}

// LoadTestScript parses a JSON test script.
//
// Supported actions: "start", "process" (with frames), "pause", "resume",
// "queue-termination", "terminate", "free" (with path, relative to the
// root), "expect-status" (with status), "expect-nodes" (with count).
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Run executes the remaining steps against the tree, stopping at the
// first failure.
func (r *TestRunner) Run(t *NodeTree) error {
	for !r.done {
		if err := r.Step(t); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the next script step against the tree.
func (r *TestRunner) Step(t *NodeTree) error {
	if r.done {
		return nil
	}

	i := r.cursor
	st := r.steps[i]
	r.cursor++
	if r.cursor >= len(r.steps) {
		r.done = true
	}

	switch st.Action {
	case "start":
		if err := t.Start(); err != nil {
			return fmt.Errorf("step %d (start): %w", i, err)
		}
	case "process":
		frames := st.Frames
		if frames < 1 {
			frames = 1
		}
		for f := 0; f < frames; f++ {
			t.Process()
		}
	case "pause":
		t.Pause()
	case "resume":
		t.Resume()
	case "queue-termination":
		t.QueueTermination()
	case "terminate":
		t.Terminate()
	case "free":
		ptr, err := t.Root().Base().GetNode(st.Path)
		if err != nil {
			return fmt.Errorf("step %d (free %q): %w", i, st.Path, err)
		}
		n, err := ptr.TryGet()
		if err != nil {
			return fmt.Errorf("step %d (free %q): %w", i, st.Path, err)
		}
		n.Base().Free()
	case "expect-status":
		want, err := parseTreeStatus(st.Status)
		if err != nil {
			return fmt.Errorf("step %d (expect-status): %w", i, err)
		}
		if got := t.Status(); got != want {
			return fmt.Errorf("step %d (expect-status): tree is %v, want %v", i, got, want)
		}
	case "expect-nodes":
		if got := t.Len(); got != st.Count {
			return fmt.Errorf("step %d (expect-nodes): tree has %d nodes, want %d", i, got, st.Count)
		}
	default:
		return fmt.Errorf("step %d: unknown action %q", i, st.Action)
	}
	return nil
}

func parseTreeStatus(s string) (TreeStatus, error) {
	switch s {
	case "Idle":
		return TreeIdle, nil
	case "Running":
		return TreeRunning, nil
	case "Paused":
		return TreePaused, nil
	case "QueuedTermination":
		return TreeQueuedTermination, nil
	case "Terminating":
		return TreeTerminating, nil
	case "Terminated":
		return TreeTerminated, nil
	default:
		return TreeIdle, fmt.Errorf("unknown tree status %q", s)
	}
}
