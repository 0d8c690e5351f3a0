package consensus

import "sort"

// LastIrreversibleBlockNum computes the median of last_confirmed_block_num
// across the active schedule (spec §4.7: "Irreversibility:
// last_irreversible_block_num = median(last_confirmed_block_num) over the
// current schedule"). Returns 0 for an empty schedule. The result never
// decreases across calls for a monotonically advancing confirmations slice,
// but enforcing that monotonicity is the caller's responsibility (it holds
// the previous value to compare against).
func LastIrreversibleBlockNum(confirmations []uint64) uint64 {
	if len(confirmations) == 0 {
		return 0
	}
	sorted := append([]uint64{}, confirmations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

// AdvanceIrreversibility folds a newly computed candidate into the
// chain-tracked cursor, enforcing spec §4.7's "never decreases" invariant.
func AdvanceIrreversibility(current, candidate uint64) uint64 {
	if candidate > current {
		return candidate
	}
	return current
}
