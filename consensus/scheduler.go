package consensus

import (
	"math/big"
	"sort"

	"deipchain/state"
)

// MaxVotedWitnesses is the default top-N witness count selected by vote rank
// each shuffle (spec §4.7, DEIP_MAX_VOTED_WITNESSES default 19 plus one
// runner slot for twenty scheduled witnesses per round).
const MaxVotedWitnesses = 19

// maxVotesFixedPoint is the 1000*MAXVOTES constant from the virtual-time
// scheduling formula (spec §4.7); MAXVOTES itself is the protocol's maximum
// attainable vote weight and is folded into this single constant, grounded
// on original_source/.../witness_objects.hpp's virtual_scheduled_time
// derivation.
var maxVotesFixedPoint = big.NewInt(1000 * (1 << 20))

// Schedule is the current round's witness rotation (spec §4.7 "Witness
// schedule"): the shuffled list of scheduled witness owner names plus the
// virtual-time cursor carried into the next round.
type Schedule struct {
	CurrentShuffledWitnesses []string
	NumScheduledWitnesses    int
	CurrentVirtualTime       *big.Int
	CurrentAbsoluteSlot      uint64
}

// witnessRank ranks witnesses by descending vote count, tie-broken by
// ascending owner name (spec §4.7 step 1).
func witnessRank(witnesses []*state.Witness) []*state.Witness {
	ranked := append([]*state.Witness{}, witnesses...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Votes != ranked[j].Votes {
			return ranked[i].Votes > ranked[j].Votes
		}
		return ranked[i].Owner < ranked[j].Owner
	})
	return ranked
}

// selectRunner picks the remaining witness with the smallest
// virtual_scheduled_time, recomputes its virtual_position/virtual_scheduled_time
// against the schedule's current virtual time, and returns it (spec §4.7
// step 2). Returns nil if no eligible runner remains.
func selectRunner(sched *Schedule, candidates []*state.Witness, virtualTime VirtualTimeTracker) *state.Witness {
	var runner *state.Witness
	var runnerState *WitnessVirtualState
	for _, w := range candidates {
		vs := virtualTime[w.Owner]
		if vs == nil {
			vs = &WitnessVirtualState{LastUpdate: new(big.Int), Position: new(big.Int), ScheduledTime: new(big.Int).Set(maxVotesFixedPoint)}
			virtualTime[w.Owner] = vs
		}
		if runner == nil || vs.ScheduledTime.Cmp(runnerState.ScheduledTime) < 0 {
			runner = w
			runnerState = vs
		}
	}
	if runner == nil {
		return nil
	}
	advanceVirtualTime(sched, runner, runnerState)
	return runner
}

// WitnessVirtualState mirrors the three 128-bit fixed-point fields the
// original tracks directly on the witness object; kept out-of-band here
// since the scheduler, not chainbase, owns scheduling-round bookkeeping.
type WitnessVirtualState struct {
	LastUpdate    *big.Int
	Position      *big.Int
	ScheduledTime *big.Int
}

// VirtualTimeTracker carries each witness's virtual-time scheduling cursor
// across rounds; callers hold one per chain and pass it into every
// ShuffleWitnesses call so virtual_scheduled_time stays monotonic.
type VirtualTimeTracker map[string]*WitnessVirtualState

// NewVirtualTimeTracker returns an empty tracker.
func NewVirtualTimeTracker() VirtualTimeTracker {
	return make(VirtualTimeTracker)
}

func advanceVirtualTime(sched *Schedule, w *state.Witness, vs *WitnessVirtualState) {
	votes := w.Votes
	if votes == 0 {
		votes = 1
	}
	// The schedule's virtual time moves forward to the runner's scheduled
	// time, and the runner starts a new lap from there.
	if vs.ScheduledTime.Cmp(sched.CurrentVirtualTime) > 0 {
		sched.CurrentVirtualTime.Set(vs.ScheduledTime)
	}
	vs.Position.SetInt64(0)
	vs.LastUpdate.Set(sched.CurrentVirtualTime)

	remaining := new(big.Int).Sub(maxVotesFixedPoint, vs.Position)
	remaining.Div(remaining, big.NewInt(int64(votes)))
	vs.ScheduledTime.Add(vs.LastUpdate, remaining)
}

// ShuffleWitnesses computes the next round's schedule from the top-N voted
// witnesses plus one virtual-time runner. The schedule lists the top-N in
// rank order followed by the runner; no shuffle is applied to that order.
// virtualTime carries each witness's scheduling cursor across rounds, and
// prev.CurrentVirtualTime only moves forward.
func ShuffleWitnesses(prev *Schedule, witnesses []*state.Witness, virtualTime VirtualTimeTracker) *Schedule {
	if prev.CurrentVirtualTime == nil {
		prev.CurrentVirtualTime = new(big.Int)
	}
	ranked := witnessRank(witnesses)

	topN := ranked
	if len(topN) > MaxVotedWitnesses {
		topN = topN[:MaxVotedWitnesses]
	}
	topSet := make(map[string]bool, len(topN))
	for _, w := range topN {
		topSet[w.Owner] = true
	}

	var remaining []*state.Witness
	for _, w := range ranked {
		if !topSet[w.Owner] {
			remaining = append(remaining, w)
		}
	}

	shuffled := make([]string, 0, len(topN)+1)
	for _, w := range topN {
		shuffled = append(shuffled, w.Owner)
	}
	if runner := selectRunner(prev, remaining, virtualTime); runner != nil {
		shuffled = append(shuffled, runner.Owner)
	}

	return &Schedule{
		CurrentShuffledWitnesses: shuffled,
		NumScheduledWitnesses:    len(shuffled),
		CurrentVirtualTime:       new(big.Int).Set(prev.CurrentVirtualTime),
		CurrentAbsoluteSlot:      prev.CurrentAbsoluteSlot,
	}
}

// GetScheduledWitness returns the witness expected to produce the block at
// slot offset k from the schedule's current absolute slot (spec §4.7).
func GetScheduledWitness(sched *Schedule, k uint64) (string, bool) {
	if sched.NumScheduledWitnesses == 0 {
		return "", false
	}
	idx := (sched.CurrentAbsoluteSlot + k) % uint64(sched.NumScheduledWitnesses)
	return sched.CurrentShuffledWitnesses[idx], true
}
