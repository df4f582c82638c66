package cli

import (
	"io"
	"time"

	"github.com/Sternrassler/posts-sync/pkg/checkpoint"
	"github.com/schollz/progressbar/v3"
)

// jobProgress renders checkpoints as a progress bar. The bar is created once
// the listing size is known.
type jobProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newJobProgress(out io.Writer) *jobProgress {
	return &jobProgress{out: out}
}

func newBar(out io.Writer, total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Report implements batch.Reporter.
func (p *jobProgress) Report(cp *checkpoint.Checkpoint) {
	if !cp.Initialized || cp.Sandbox.Max <= 0 {
		return
	}
	if p.bar == nil {
		p.bar = newBar(p.out, int64(cp.Sandbox.Max), cp.Message)
	}
	p.bar.Describe(cp.Message)
	p.bar.Set(cp.Sandbox.Progress)
}

// Finish completes the bar and moves past it.
func (p *jobProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
		io.WriteString(p.out, "\n")
	}
}
