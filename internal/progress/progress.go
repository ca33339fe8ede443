package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/cleancache/pkg/utils"
)

// Phase represents the current phase of a cleanup run
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseScanning  Phase = "scanning"
	PhaseDeleting  Phase = "deleting"
	PhasePruning   Phase = "pruning"
	PhaseReporting Phase = "reporting"
	PhaseComplete  Phase = "complete"
	PhaseError     Phase = "error"
)

// PercentIndeterminate marks a snapshot that carries detail text only
const PercentIndeterminate = -1

// Snapshot is an immutable point-in-time progress report
type Snapshot struct {
	RunID      string
	Phase      Phase
	Percent    int    // 0-100, or PercentIndeterminate
	Operation  string // e.g. "Deleting C:\Windows\Temp\x.log"
	Counter    string // "N/M"
	Output     string // incremental command output
	Error      string // incremental error text
	FreedBytes int64
	At         time.Time
}

// Indeterminate reports whether the snapshot carries no percentage
func (s Snapshot) Indeterminate() bool {
	return s.Percent == PercentIndeterminate
}

// Reporter fans snapshots out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses that update.
type Reporter struct {
	mu        sync.RWMutex
	latest    Snapshot
	hasLatest bool
	listeners []chan Snapshot
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan Snapshot, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Snapshot, 10)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Publish records s as the latest snapshot and notifies listeners
func (r *Reporter) Publish(s Snapshot) {
	if s.At.IsZero() {
		s.At = time.Now()
	}

	r.mu.Lock()
	r.latest = s
	r.hasLatest = true
	r.mu.Unlock()

	// Sending under the read lock keeps Unsubscribe from closing a channel
	// mid-send
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, listener := range r.listeners {
		select {
		case listener <- s:
		default:
			// Skip if channel is full
		}
	}
}

// Latest returns the most recently published snapshot
func (r *Reporter) Latest() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.hasLatest
}

// PercentOf returns done/total as a percentage clamped to [0,100]. A zero
// total counts as complete.
func PercentOf(done, total int64) int {
	if total <= 0 {
		return 100
	}
	if done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return int(done * 100 / total)
}

// Counter formats "done/total"
func Counter(done, total int) string {
	return fmt.Sprintf("%d/%d", done, total)
}

// FormatSnapshot returns a human-readable progress line
func FormatSnapshot(s Snapshot) string {
	switch s.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning %s", s.Operation)
	case PhaseDeleting:
		pct := "--"
		if !s.Indeterminate() {
			pct = fmt.Sprintf("%d%%", s.Percent)
		}
		return fmt.Sprintf("Cleaning... %s (%s) - %s freed", s.Counter, pct, utils.FormatBytes(s.FreedBytes))
	case PhasePruning:
		return "Removing empty folders..."
	case PhaseReporting, PhaseComplete:
		return fmt.Sprintf("Cleanup complete: %s freed", utils.FormatBytes(s.FreedBytes))
	case PhaseError:
		return fmt.Sprintf("Cleanup error: %s", s.Error)
	default:
		return "Preparing cleanup..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
