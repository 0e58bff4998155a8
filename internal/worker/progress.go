package worker

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress tracks sweep progress and aggregates results as they arrive.
type Progress struct {
	startTime time.Time
	output    io.Writer
	total     int
	completed int
	failed    int
	cycles    uint64
	peak      float32
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a progress tracker writing to stderr when enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Update records the completion counters.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Record folds a successful result into the cycle and peak aggregates.
func (p *Progress) Record(r Result) {
	if r.Err != nil {
		return
	}
	peak := float32(math.Max(math.Abs(float64(r.Stats.Min)), math.Abs(float64(r.Stats.Max))))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cycles += r.Stats.Cycles
	if peak > p.peak {
		p.peak = peak
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Print renders the progress line to output.
func (p *Progress) Print() {
	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	var rate float64
	var eta time.Duration
	if completed > 0 && elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		if rate > 0 {
			eta = time.Duration(float64(total-completed)/rate) * time.Second
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\r[%s] %d/%d seeds", bar(completed, total), completed, total)
	if failed > 0 {
		fmt.Fprintf(&sb, " (%d failed)", failed)
	}
	fmt.Fprintf(&sb, " - %.1f seeds/sec", rate)
	if eta > 0 && completed < total {
		fmt.Fprintf(&sb, " - ETA: %s", formatDuration(eta))
	}
	if completed == total {
		fmt.Fprintf(&sb, " - Done in %s", formatDuration(elapsed))
	}
	sb.WriteString("          ")

	fmt.Fprint(p.output, sb.String())
}

func bar(completed, total int) string {
	filled := 0
	if total > 0 {
		filled = completed * barWidth / total
	}
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// Done prints the final progress and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary describes the finished sweep.
func (p *Progress) Summary() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.startTime)
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(p.completed) / elapsed.Seconds()
	}

	return fmt.Sprintf("Swept %d/%d seeds (%d failed) in %s (%.1f seeds/sec), %d cycles, peak %.3f",
		p.completed-p.failed, p.total, p.failed, formatDuration(elapsed), rate, p.cycles, p.peak)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
