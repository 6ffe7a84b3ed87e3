package upload

import (
	"math"
	"sync"
)

// ProgressReporter receives whole percentages.
type ProgressReporter func(percent int)

// Progress turns byte counts into rounded percentages and only reports changes.
type Progress struct {
	mu   sync.Mutex
	last int
	cb   ProgressReporter
}

func NewProgress(cb ProgressReporter) *Progress {
	return &Progress{last: -1, cb: cb}
}

// Observe records loaded of total bytes.
func (p *Progress) Observe(loaded, total int64) {
	if p == nil || p.cb == nil || total <= 0 {
		return
	}
	percent := int(math.Round(float64(loaded) * 100 / float64(total)))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	p.mu.Lock()
	if percent == p.last {
		p.mu.Unlock()
		return
	}
	p.last = percent
	p.mu.Unlock()

	p.cb(percent)
}

// Last returns the most recent percentage, -1 before any report.
func (p *Progress) Last() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
