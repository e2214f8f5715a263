package main

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"rafcdn/internal/messages"
	"rafcdn/internal/uploads"
)

// progressDisplay renders the tracker's single progress indicator as a
// terminal bar. It is a no-op when the writer is not a terminal.
type progressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
	name    string
}

func newProgressDisplay(out io.Writer) *progressDisplay {
	return &progressDisplay{out: out, enabled: messages.ShouldColorize(out)}
}

// Update mirrors the indicator of a tracker view.
func (p *progressDisplay) Update(view uploads.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	ind := view.Indicator
	if !ind.Visible {
		p.clearLocked()
		return
	}
	if p.bar == nil || p.name != ind.Name {
		p.clearLocked()
		p.name = ind.Name
		p.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(ind.Name),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(int(ind.Percent))
}

// Clear erases the bar so other output can be printed cleanly.
func (p *progressDisplay) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Clear()
	}
}

func (p *progressDisplay) clearLocked() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
	p.name = ""
}
