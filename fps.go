package arbor

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// FPSProbe is a node that measures the tree's real frame rate from the
// deltas Process hands it, independent of any driver. Every interval it
// posts a Debug line with the measured rate, plus the driver's ticks per
// second when running under Run. Reads are headless: FPS is valid in
// tests and scripted runs too.
type FPSProbe struct {
	NodeBase
	Interval float64 // seconds between posts; 0 disables posting

	elapsed float64
	frames  int
	fps     float64
}

// NewFPSProbe creates a probe posting once per second. It runs in Always
// mode so pausing the tree does not silence it.
func NewFPSProbe(name string) *FPSProbe {
	p := &FPSProbe{NodeBase: NewBase(name), Interval: 1}
	p.SetProcessMode(ModeAlways)
	return p
}

// FPS returns the rate measured over the last completed interval.
func (p *FPSProbe) FPS() float64 { return p.fps }

// Process accumulates frame deltas and rolls the measurement window.
func (p *FPSProbe) Process(delta float64) {
	p.frames++
	p.elapsed += delta

	window := p.Interval
	if window <= 0 {
		window = 1
	}
	if p.elapsed < window {
		return
	}

	p.fps = float64(p.frames) / p.elapsed
	p.frames = 0
	p.elapsed = 0

	if p.Interval > 0 {
		if tps := ebiten.ActualTPS(); tps > 0 {
			p.LogDebug(fmt.Sprintf("%.1f fps (driver: %.1f tps)", p.fps, tps))
		} else {
			p.LogDebug(fmt.Sprintf("%.1f fps", p.fps))
		}
	}
}
