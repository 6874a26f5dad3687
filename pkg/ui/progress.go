package ui

import (
	"fmt"
	"strings"
	"time"
)

// Progress tracks records written during one run
type Progress struct {
	term      *Terminal
	kind      string
	target    string
	records   int
	errors    int
	startTime time.Time
}

// NewProgress starts tracking a run of kind against target
func (t *Terminal) NewProgress(kind, target string) *Progress {
	return &Progress{
		term:      t,
		kind:      kind,
		target:    target,
		startTime: time.Now(),
	}
}

// Record counts one written record and refreshes the live line
func (p *Progress) Record() {
	p.records++
	p.refresh()
}

// Fail counts a failed run
func (p *Progress) Fail() {
	p.errors++
	p.refresh()
}

// Records returns the number of records counted so far
func (p *Progress) Records() int {
	return p.records
}

// Rate returns records per minute since the run started
func (p *Progress) Rate() float64 {
	elapsed := time.Since(p.startTime).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(p.records) / elapsed
}

func (p *Progress) refresh() {
	t := p.term
	if t.quiet || !t.live {
		return
	}

	line := fmt.Sprintf("%s %s • %d %s • %.1f/min",
		t.paint(Cyan, p.target),
		t.paint(Magenta, "→"),
		p.records,
		p.kind,
		p.Rate(),
	)
	if p.errors > 0 {
		line += " • " + t.paint(Red, fmt.Sprintf("%d errors", p.errors))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete prints the run summary
func (p *Progress) Complete() {
	t := p.term
	if t.quiet {
		return
	}

	elapsed := time.Since(p.startTime)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.live {
		fmt.Fprintln(t.out)
	}
	fmt.Fprintf(t.out, "%s Extracted %d %s from %s in %s\n",
		t.paint(Green, "✓"),
		p.records,
		p.kind,
		p.target,
		FormatDuration(elapsed),
	)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
