package arbor

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

// --- Animation ---

func TestTweenAnimates(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	x := 0.0
	tw := NewTween("Move").Animate(&x, 10, 1, ease.Linear)
	root.AddChild(tw)

	if tw.Done() {
		t.Fatal("a fresh tween is not done")
	}
	tw.Process(0.5)
	if !almostEqual(x, 5) {
		t.Errorf("x = %g, want 5", x)
	}
	if tw.Done() {
		t.Error("halfway is not done")
	}
	tw.Process(0.5)
	if !almostEqual(x, 10) {
		t.Errorf("x = %g, want 10", x)
	}
	if !tw.Done() {
		t.Error("the tween should be done at its duration")
	}
}

func TestTweenMultipleFields(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	x, y := 0.0, 100.0
	tw := NewTween("Move").
		Animate(&x, 10, 1, ease.Linear).
		Animate(&y, 0, 2, ease.Linear)
	root.AddChild(tw)

	tw.Process(1)
	if !almostEqual(x, 10) || !almostEqual(y, 50) {
		t.Errorf("x, y = %g, %g, want 10, 50", x, y)
	}
	if tw.Done() {
		t.Error("not done while the slower field is mid-flight")
	}
	tw.Process(1)
	if !almostEqual(y, 0) {
		t.Errorf("y = %g, want 0", y)
	}
	if !tw.Done() {
		t.Error("done once every field has arrived")
	}
}

func TestTweenFinishedFiresOnce(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	x := 0.0
	tw := NewTween("Move").Animate(&x, 1, 1, ease.Linear)
	root.AddChild(tw)

	fired := 0
	tw.Finished.Connect(func(done *Tween) {
		if done != tw {
			t.Error("the signal should carry the tween itself")
		}
		fired++
	})

	tw.Process(2)
	tw.Process(1) // no-op once done
	tw.Process(1)
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestTweenRestart(t *testing.T) {
	root := NewGroup("Root")
	newTestTree(root)
	x := 0.0
	tw := NewTween("Move").Animate(&x, 10, 1, ease.Linear)
	root.AddChild(tw)

	tw.Process(1)
	if !tw.Done() {
		t.Fatal("should be done")
	}

	tw.Restart()
	if tw.Done() {
		t.Error("Restart should clear done")
	}
	tw.Process(0.5)
	if !almostEqual(x, 5) {
		t.Errorf("x = %g, want 5 after restart", x)
	}
}

func TestTweenFreeOnFinish(t *testing.T) {
	root := NewGroup("Root")
	tree := newTestTree(root)
	x := 0.0
	tw := NewTween("Move").Animate(&x, 1, 1, ease.Linear).FreeOnFinish()
	root.AddChild(tw)

	fired := false
	tw.Finished.Connect(func(*Tween) { fired = true })

	tw.Process(1)
	if !fired {
		t.Error("Finished should fire before the free")
	}
	if tw.InsideTree() {
		t.Error("the tween should have freed itself")
	}
	if tree.Len() != 1 {
		t.Errorf("Len = %d, want 1", tree.Len())
	}
}

func TestTweenEmptyProcessNoOp(t *testing.T) {
	tw := NewTween("Idle")
	tw.Process(1) // nothing registered
	if tw.Done() {
		t.Error("an empty tween never finishes")
	}
}

// --- Limits ---

func TestTweenNilFieldPanic(t *testing.T) {
	tw := NewTween("Move")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for a nil field, got none")
		}
	}()
	tw.Animate(nil, 1, 1, ease.Linear)
}

func TestTweenFieldLimitPanic(t *testing.T) {
	tw := NewTween("Move")
	var f [5]float64
	for i := 0; i < 4; i++ {
		tw.Animate(&f[i], 1, 1, ease.Linear)
	}
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic past the field limit, got none")
		}
	}()
	tw.Animate(&f[4], 1, 1, ease.Linear) // should panic
}
