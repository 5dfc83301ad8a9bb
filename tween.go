package arbor

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween is a node that animates up to 4 float64 fields while it sits in
// the tree. Fields are registered by pointer with Animate; Process drives
// the tweens with the frame delta, so pausing the tree (or giving the
// Tween a process mode) pauses the animation with it. When every tween
// completes, Finished fires once and the node can free itself.
//
// There is no global animation manager. A Tween lives next to the node it
// animates and is freed with it.
type Tween struct {
	NodeBase
	tweens       [4]*gween.Tween
	fields       [4]*float64
	count        int
	done         bool
	freeOnFinish bool

	// Finished fires once when the last registered tween completes.
	Finished Signal[*Tween]
}

// NewTween creates an empty Tween node. Register fields with Animate.
func NewTween(name string) *Tween {
	return &Tween{NodeBase: NewBase(name)}
}

// Animate registers one field transition from its current value to the
// given target over duration seconds using the easing function. At most 4
// fields per Tween; panics beyond that. Returns the receiver for chaining.
func (t *Tween) Animate(field *float64, to float64, duration float32, fn ease.TweenFunc) *Tween {
	if field == nil {
		panic("arbor: cannot animate a nil field")
	}
	if t.count == len(t.tweens) {
		panic("arbor: a Tween animates at most 4 fields")
	}
	t.tweens[t.count] = gween.New(float32(*field), float32(to), duration, fn)
	t.fields[t.count] = field
	t.count++
	t.done = false
	return t
}

// FreeOnFinish makes the node free itself right after Finished fires.
// Returns the receiver for chaining.
func (t *Tween) FreeOnFinish() *Tween {
	t.freeOnFinish = true
	return t
}

// Done reports whether every registered tween has completed.
func (t *Tween) Done() bool { return t.done }

// Restart rewinds every registered tween to its start.
func (t *Tween) Restart() {
	for i := 0; i < t.count; i++ {
		t.tweens[i].Reset()
	}
	t.done = false
}

// Process advances all tweens by delta seconds and writes the values to
// the registered fields. On the frame the last tween finishes, Finished
// is emitted and, if requested, the node frees itself.
func (t *Tween) Process(delta float64) {
	if t.done || t.count == 0 {
		return
	}

	allDone := true
	for i := 0; i < t.count; i++ {
		val, finished := t.tweens[i].Update(float32(delta))
		*t.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	if !allDone {
		return
	}

	t.done = true
	t.Finished.Emit(t)
	if t.freeOnFinish {
		t.Free()
	}
}
