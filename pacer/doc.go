// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pacer holds a render loop to a fixed frame interval.
//
// After each present the loop calls [Pacer.Wait]. If the frame finished
// early, Wait sleeps most of the remaining budget and spins through the
// final slice, since sleep granularity is coarse on most platforms. A frame
// that overruns by more than a whole budget resynchronizes the schedule to
// the current time instead of trying to catch up with shortened frames.
package pacer
