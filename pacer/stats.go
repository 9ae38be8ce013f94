// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pacer

import "time"

// statsWindow is the length of the moving average, in frames.
const statsWindow = 64

// Stats summarizes recent frame intervals.
type Stats struct {
	Frames  uint64
	Average time.Duration
	Max     time.Duration

	// Last is the interval between the two most recent frames.
	Last time.Duration

	// Resyncs counts frames that overran by more than one budget.
	Resyncs uint64
}

// FPS returns the frame rate implied by the moving average.
func (s Stats) FPS() float64 {
	if s.Average <= 0 {
		return 0
	}
	return 1 / s.Average.Seconds()
}

func (s *Stats) add(d time.Duration) {
	s.Last = d
	s.Max = max(s.Max, d)
	if s.Frames < statsWindow/2 {
		// Warm-up: not enough history for a stable average.
		s.Average = d
	} else {
		s.Average = ((statsWindow-1)*s.Average + d) / statsWindow
	}
	s.Frames++
}
