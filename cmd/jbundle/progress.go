package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
)

// progressPrinter renders download progress on one line, redrawing only
// when the whole percentage changes.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	last    int
	printed bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, last: -1}
}

// Update matches jdk.ProgressFunc.
func (p *progressPrinter) Update(done, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := -1
	if total > 0 {
		pct = int(done * 100 / total)
	}
	if pct == p.last && pct != -1 {
		return
	}
	p.last = pct

	fmt.Fprintf(p.w, "\r%s", formatProgress(done, total))
	p.printed = true
}

// Done ends the progress line if anything was drawn.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed {
		fmt.Fprintln(p.w)
		p.printed = false
	}
	p.last = -1
}

// formatProgress renders "Downloading 12 MB / 190 MB (6%)".
// An unknown total shows only the bytes received.
func formatProgress(done, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("Downloading %s", humanize.Bytes(uint64(done)))
	}
	return fmt.Sprintf("Downloading %s / %s (%d%%)",
		humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)), done*100/total)
}
