// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pacer

import (
	"log/slog"
	"runtime"
	"time"
)

// DefaultSpin is the final slice of each wait spent spinning.
const DefaultSpin = time.Millisecond

// Clock abstracts time for the pacer.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Option configures a Pacer.
type Option func(*Pacer)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(p *Pacer) { p.clock = c }
}

// WithSpin sets how much of each wait is spent spinning rather than
// sleeping. Zero sleeps the whole remainder.
func WithSpin(d time.Duration) Option {
	return func(p *Pacer) { p.spin = max(d, 0) }
}

// WithLogger sets the logger that reports resynchronizations.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pacer) { p.log = l }
}

// Pacer spaces frames at a fixed interval.
type Pacer struct {
	budget time.Duration
	spin   time.Duration
	clock  Clock
	log    *slog.Logger

	// ref is the start of the current frame's budget.
	ref     time.Time
	last    time.Time
	started bool
	stats   Stats
}

// New creates a pacer for the given frame interval. A non-positive
// interval disables waiting; Wait then only records statistics.
func New(interval time.Duration, opts ...Option) *Pacer {
	p := &Pacer{
		budget: interval,
		spin:   DefaultSpin,
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ForFPS returns the frame interval for a target frame rate.
func ForFPS(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

// Interval returns the frame budget.
func (p *Pacer) Interval() time.Duration { return p.budget }

// Start records the reference time. Calling Start again restarts the
// schedule but keeps statistics.
func (p *Pacer) Start() {
	now := p.clock.Now()
	p.ref = now
	p.last = now
	p.started = true
}

// Wait blocks until the current frame's budget has elapsed and returns
// how long it waited. Frames that are already late return immediately.
func (p *Pacer) Wait() time.Duration {
	if !p.started {
		p.Start()
	}
	now := p.clock.Now()
	var waited time.Duration

	if p.budget > 0 {
		target := p.ref.Add(p.budget)
		switch {
		case now.Before(target):
			waited = p.sleepUntil(now, target)
			p.ref = target
		case now.Sub(target) > p.budget:
			p.stats.Resyncs++
			if p.log != nil {
				p.log.Warn("pacer: frame overran budget, resynchronizing",
					"late", now.Sub(target), "budget", p.budget)
			}
			p.ref = now
		default:
			p.ref = target
		}
	}

	end := p.clock.Now()
	p.stats.add(end.Sub(p.last))
	p.last = end
	return waited
}

// sleepUntil sleeps all but the spin slice, then spins to target.
func (p *Pacer) sleepUntil(now, target time.Time) time.Duration {
	start := now
	if bulk := target.Sub(now) - p.spin; bulk > 0 {
		p.clock.Sleep(bulk)
		now = p.clock.Now()
	}
	for now.Before(target) {
		runtime.Gosched()
		now = p.clock.Now()
	}
	return now.Sub(start)
}

// Stats returns the frame statistics so far.
func (p *Pacer) Stats() Stats { return p.stats }
