package eventlog

import (
	"sync"
	"time"
)

type Line struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Ring keeps the most recent lines in memory for the control API.
type Ring struct {
	mu    sync.RWMutex
	lines []Line
	size  int
	now   func() time.Time
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = 500
	}

	return &Ring{size: size, now: time.Now}
}

func (r *Ring) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, Line{Time: r.now(), Text: line})
	if over := len(r.lines) - r.size; over > 0 {
		r.lines = append(r.lines[:0:0], r.lines[over:]...)
	}
}

func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

func (r *Ring) Lines() []Line {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}
