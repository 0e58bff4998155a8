// Package store records sampled traces in a SQLite database so runs can be
// replayed and checked for determinism later.
package store

import (
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/trace"
)

// Run describes one recorded trace.
type Run struct {
	ID        string     `json:"id"`
	Seed      uint32     `json:"seed"`
	Grid      trace.Grid `json:"grid"`
	Samples   int        `json:"samples"`
	CreatedAt time.Time  `json:"created_at"`
}

// Mismatch is a stored sample that a fresh sampler no longer reproduces.
type Mismatch struct {
	Index  int     `json:"index"`
	T      float32 `json:"t"`
	Stored float32 `json:"stored"`
	Got    float32 `json:"got"`
}

// Report is the outcome of verifying one run.
type Report struct {
	Run        Run        `json:"run"`
	Checked    int        `json:"checked"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether the run holds a sample for every grid point and each
// one was reproduced bit for bit.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0 && r.Checked == r.Run.Samples && r.Checked == r.Run.Grid.Len()
}
