package pipeline

import (
	"sync"

	"github.com/anime-shed/live-text-overlay-go/internal/frame"
)

// Outcome is the gate's decision for a submitted frame
type Outcome int

const (
	// Accepted frames are owned by the caller until Done is called
	Accepted Outcome = iota
	// Dropped frames have already been released by the gate
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// GateStats is a point-in-time view of the gate
type GateStats struct {
	Accepted uint64 `json:"accepted"`
	Dropped  uint64 `json:"dropped"`
	InFlight bool   `json:"in_flight"`
	Closed   bool   `json:"closed"`
}

// Gate admits at most one frame at a time. Frames submitted while another is in
// flight are released and dropped, never queued.
type Gate struct {
	mu       sync.Mutex
	inFlight bool
	closed   bool
	accepted uint64
	dropped  uint64
}

// NewGate creates an idle gate
func NewGate() *Gate {
	return &Gate{}
}

// Submit accepts f if the gate is idle. Otherwise f is released before Submit returns.
func (g *Gate) Submit(f *frame.Frame) Outcome {
	g.mu.Lock()
	if g.inFlight || g.closed {
		g.dropped++
		g.mu.Unlock()
		f.Release()
		return Dropped
	}
	g.inFlight = true
	g.accepted++
	g.mu.Unlock()
	return Accepted
}

// Done frees the gate. Call it only after the accepted frame has been released.
func (g *Gate) Done() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// Close makes every later Submit drop
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// Stats returns the gate counters
func (g *Gate) Stats() GateStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GateStats{
		Accepted: g.accepted,
		Dropped:  g.dropped,
		InFlight: g.inFlight,
		Closed:   g.closed,
	}
}
