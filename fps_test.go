package arbor

import (
	"strings"
	"testing"
)

func TestNewFPSProbe(t *testing.T) {
	p := NewFPSProbe("FPS")
	if p.Interval != 1 {
		t.Errorf("Interval = %g, want 1", p.Interval)
	}
	if p.ProcessMode() != ModeAlways {
		t.Errorf("mode = %v, want Always", p.ProcessMode())
	}
	if p.FPS() != 0 {
		t.Errorf("FPS = %g, want 0 before the first window", p.FPS())
	}
}

func TestFPSProbeMeasures(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	p := NewFPSProbe("FPS")
	p.Interval = 0 // measure silently
	root.AddChild(p)

	for i := 0; i < 10; i++ {
		p.Process(0.1)
	}
	if !almostEqual(p.FPS(), 10) {
		t.Errorf("FPS = %g, want 10", p.FPS())
	}

	// The window restarts after each measurement.
	for i := 0; i < 4; i++ {
		p.Process(0.25)
	}
	if !almostEqual(p.FPS(), 4) {
		t.Errorf("FPS = %g, want 4", p.FPS())
	}
}

func TestFPSProbePosts(t *testing.T) {
	root := NewGroup("Root")
	tree := NewNodeTree(root, VerbosityAll)
	var out strings.Builder
	tree.Logger().SetOutput(&out)
	tree.Logger().SetColor(false)
	p := NewFPSProbe("FPS")
	p.Interval = 0.5
	root.AddChild(p)

	p.Process(0.5)
	if !strings.Contains(out.String(), "2.0 fps") {
		t.Errorf("output = %q, want a 2.0 fps post", out.String())
	}
}

func TestFPSProbeRunsWhilePaused(t *testing.T) {
	root := NewGroup("Root")
	tree := newTestTree(root)
	p := NewFPSProbe("FPS")
	p.Interval = 0
	root.AddChild(p)
	if err := tree.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tree.Pause()

	// Always mode keeps the probe fed during a pause.
	before := p.frames
	tree.Process()
	if p.frames != before+1 {
		t.Error("the probe should tick while the tree is paused")
	}
}
