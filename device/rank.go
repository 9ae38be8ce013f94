// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package device

import (
	"slices"
	"strings"

	"github.com/gogpu/gframe/gpucore"
)

// rank orders adapter types, most capable first.
func rank(t gpucore.AdapterType) int {
	switch t {
	case gpucore.AdapterDiscrete:
		return 0
	case gpucore.AdapterIntegrated:
		return 1
	case gpucore.AdapterVirtual:
		return 2
	case gpucore.AdapterCPU:
		return 3
	default:
		return 4
	}
}

// RankAdapters returns the indices of adapters ordered most capable
// first: discrete, integrated, virtual, CPU, then anything else. Ties keep
// name order. If prefer is non-empty, adapters whose name contains it
// (case-insensitively) come before all others.
func RankAdapters(adapters []gpucore.AdapterInfo, prefer string) []int {
	order := make([]int, len(adapters))
	for i := range order {
		order[i] = i
	}
	prefer = strings.ToLower(prefer)
	preferred := func(i int) bool {
		return prefer != "" && strings.Contains(strings.ToLower(adapters[i].Name), prefer)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if pa, pb := preferred(a), preferred(b); pa != pb {
			if pa {
				return -1
			}
			return 1
		}
		if ra, rb := rank(adapters[a].Type), rank(adapters[b].Type); ra != rb {
			return ra - rb
		}
		return strings.Compare(adapters[a].Name, adapters[b].Name)
	})
	return order
}
