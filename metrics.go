package reactor

import (
	"sync/atomic"
	"time"

	"github.com/behrlich/go-reactor/internal/interfaces"
)

// Metrics is the built-in interfaces.Observer implementation: atomic
// counters for bytes and operations across every talker, listener, and UDP
// endpoint a Reactor owns. Pass it (or any other interfaces.Observer) to
// Options.Observer to have every endpoint report through it.
type Metrics struct {
	ReadOps  atomic.Uint64
	WriteOps atomic.Uint64

	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	ReadErrors  atomic.Uint64
	WriteErrors atomic.Uint64

	AcceptsOffered  atomic.Uint64
	AcceptsAdmitted atomic.Uint64
	AcceptsRefused  atomic.Uint64

	OtherErrors atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics returns a Metrics ready to observe, with its uptime clock
// started.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// ObserveRead implements interfaces.Observer.
func (m *Metrics) ObserveRead(_ string, bytes uint64, success bool) {
	m.ReadOps.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
}

// ObserveWrite implements interfaces.Observer.
func (m *Metrics) ObserveWrite(_ string, bytes uint64, success bool) {
	m.WriteOps.Add(1)
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
}

// ObserveAccept implements interfaces.Observer.
func (m *Metrics) ObserveAccept(_ string, accepted bool) {
	m.AcceptsOffered.Add(1)
	if accepted {
		m.AcceptsAdmitted.Add(1)
	} else {
		m.AcceptsRefused.Add(1)
	}
}

// ObserveError implements interfaces.Observer.
func (m *Metrics) ObserveError(_ string, _ error) {
	m.OtherErrors.Add(1)
}

// Snapshot is a point-in-time copy of Metrics' counters plus derived rates.
type Snapshot struct {
	ReadOps    uint64
	WriteOps   uint64
	ReadBytes  uint64
	WriteBytes uint64

	ReadErrors  uint64
	WriteErrors uint64
	OtherErrors uint64

	AcceptsOffered  uint64
	AcceptsAdmitted uint64
	AcceptsRefused  uint64

	UptimeNs uint64

	ReadIOPS       float64
	WriteIOPS      float64
	ReadBandwidth  float64
	WriteBandwidth float64
}

// Snapshot takes a consistent-enough (each field loaded independently, no
// cross-field lock) snapshot of the current counters and derives per-second
// rates from the observer's uptime.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		ReadOps:         m.ReadOps.Load(),
		WriteOps:        m.WriteOps.Load(),
		ReadBytes:       m.ReadBytes.Load(),
		WriteBytes:      m.WriteBytes.Load(),
		ReadErrors:      m.ReadErrors.Load(),
		WriteErrors:     m.WriteErrors.Load(),
		OtherErrors:     m.OtherErrors.Load(),
		AcceptsOffered:  m.AcceptsOffered.Load(),
		AcceptsAdmitted: m.AcceptsAdmitted.Load(),
		AcceptsRefused:  m.AcceptsRefused.Load(),
	}

	s.UptimeNs = uint64(time.Now().UnixNano() - m.StartTime.Load())
	if s.UptimeNs > 0 {
		uptimeSeconds := float64(s.UptimeNs) / 1e9
		s.ReadIOPS = float64(s.ReadOps) / uptimeSeconds
		s.WriteIOPS = float64(s.WriteOps) / uptimeSeconds
		s.ReadBandwidth = float64(s.ReadBytes) / uptimeSeconds
		s.WriteBandwidth = float64(s.WriteBytes) / uptimeSeconds
	}
	return s
}

// Reset zeroes every counter and restarts the uptime clock; useful between
// test cases or benchmark runs.
func (m *Metrics) Reset() {
	m.ReadOps.Store(0)
	m.WriteOps.Store(0)
	m.ReadBytes.Store(0)
	m.WriteBytes.Store(0)
	m.ReadErrors.Store(0)
	m.WriteErrors.Store(0)
	m.OtherErrors.Store(0)
	m.AcceptsOffered.Store(0)
	m.AcceptsAdmitted.Store(0)
	m.AcceptsRefused.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
}

var _ interfaces.Observer = (*Metrics)(nil)
