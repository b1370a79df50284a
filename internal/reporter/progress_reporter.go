package reporter

import (
	"context"
	"time"

	"wsdrop/internal/config"
)

// finishThreshold is where the display snaps to 100
const finishThreshold = 99.9

// Source reports the actual percent of the active transfer
type Source interface {
	Percent() float64
}

// DisplayProgress eases the displayed percent toward the actual one. It is
// cosmetic and independent of how fast chunks go out.
type DisplayProgress struct {
	Displayed float64
	Smoothing float64
}

// Step moves Displayed a Smoothing fraction of the way to actual. Once the
// display reaches finishThreshold it is forced to exactly 100 and finished
// is true.
func (d *DisplayProgress) Step(actual float64) (displayed float64, finished bool) {
	d.Displayed += (actual - d.Displayed) * d.Smoothing
	if d.Displayed >= finishThreshold {
		d.Displayed = 100
		return d.Displayed, true
	}
	return d.Displayed, false
}

// ProgressReporter ticks a DisplayProgress for one transfer at a time
type ProgressReporter struct {
	tick      time.Duration
	smoothing float64
}

func NewProgressReporter(cfg *config.Config) *ProgressReporter {
	return &ProgressReporter{
		tick:      cfg.Progress.Tick,
		smoothing: cfg.Progress.Smoothing,
	}
}

// Run renders a fresh DisplayProgress every tick until it finishes or ctx is
// done. It returns the last displayed value.
func (pr *ProgressReporter) Run(ctx context.Context, src Source, render func(float64)) float64 {
	display := &DisplayProgress{Smoothing: pr.smoothing}
	ticker := time.NewTicker(pr.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return display.Displayed
		case <-ticker.C:
			displayed, finished := display.Step(src.Percent())
			render(displayed)
			if finished {
				return displayed
			}
		}
	}
}
