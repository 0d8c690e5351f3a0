package consensus

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"deipchain/state"
)

func TestWitnessRankOrdersByVotesThenName(t *testing.T) {
	witnesses := []*state.Witness{
		{Owner: "zed", Votes: 10},
		{Owner: "amy", Votes: 10},
		{Owner: "bob", Votes: 50},
	}
	ranked := witnessRank(witnesses)
	require.Equal(t, []string{"bob", "amy", "zed"}, []string{ranked[0].Owner, ranked[1].Owner, ranked[2].Owner})
}

func TestShuffleWitnessesIncludesTopNAndOneRunner(t *testing.T) {
	var witnesses []*state.Witness
	for i := 0; i < 25; i++ {
		witnesses = append(witnesses, &state.Witness{Owner: string(rune('a' + i)), Votes: uint64(25 - i)})
	}
	prev := &Schedule{CurrentVirtualTime: new(big.Int)}
	virtualTime := NewVirtualTimeTracker()

	sched := ShuffleWitnesses(prev, witnesses, virtualTime)
	require.Equal(t, MaxVotedWitnesses+1, sched.NumScheduledWitnesses)
	for i := 0; i < MaxVotedWitnesses; i++ {
		require.Equal(t, string(rune('a'+i)), sched.CurrentShuffledWitnesses[i])
	}
}

func TestGetScheduledWitnessWrapsAroundSchedule(t *testing.T) {
	sched := &Schedule{CurrentShuffledWitnesses: []string{"a", "b", "c"}, NumScheduledWitnesses: 3, CurrentAbsoluteSlot: 2}
	w, ok := GetScheduledWitness(sched, 2)
	require.True(t, ok)
	require.Equal(t, "b", w) // (2+2) % 3 == 1 -> "b"
}

func TestSlotTimeAndSlotAtTimeRoundTrip(t *testing.T) {
	head := int64(1_000_000)
	t1 := SlotTime(head, 1)
	require.Equal(t, int64(1), SlotAtTime(head, t1))
	require.Equal(t, int64(2), SlotAtTime(head, SlotTime(head, 2)))
}

func TestLastIrreversibleBlockNumIsMedianAndMonotonic(t *testing.T) {
	require.Equal(t, uint64(0), LastIrreversibleBlockNum(nil))
	require.Equal(t, uint64(20), LastIrreversibleBlockNum([]uint64{10, 20, 30}))
	require.Equal(t, uint64(30), AdvanceIrreversibility(30, 20))
	require.Equal(t, uint64(40), AdvanceIrreversibility(30, 40))
}
