package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deipchain/state"
)

// pushEntry opens a new undo session, runs mutate under it, and records the
// (still-open) session as the fork database's new tip at digest/number.
func pushEntry(t *testing.T, fork *ForkDB, chain *state.Chain, digest [32]byte, number uint64, mutate func()) {
	t.Helper()
	session := chain.DB.Begin()
	mutate()
	fork.push(&blockEntry{digest: digest, number: number, session: session})
}

func TestForkDBFindForkPointAndGenesisLink(t *testing.T) {
	fork := NewForkDB()
	require.True(t, fork.isGenesisLink([32]byte{}))
	require.Equal(t, -1, fork.findForkPoint([32]byte{0x01}))

	chain := state.NewChain()
	d1 := [32]byte{0x01}
	pushEntry(t, fork, chain, d1, 1, func() {})

	require.Equal(t, 0, fork.findForkPoint(d1))
	require.False(t, fork.isGenesisLink(d1))
	require.Equal(t, d1, fork.HeadDigest())
	require.Equal(t, uint64(1), fork.HeadNumber())
}

func TestForkDBPopToUndoesEntriesAboveForkPoint(t *testing.T) {
	chain := state.NewChain()
	fork := NewForkDB()

	seed := chain.DB.Begin()
	_, err := chain.Budgets.Create(func(b *state.Budget) { b.Owner = "root"; b.Balance = 0 })
	require.NoError(t, err)
	require.NoError(t, seed.Commit())

	d1 := [32]byte{0x01}
	pushEntry(t, fork, chain, d1, 1, func() {
		_, err := chain.Budgets.Create(func(b *state.Budget) { b.Owner = "alice"; b.Balance = 10 })
		require.NoError(t, err)
	})

	d2 := [32]byte{0x02}
	pushEntry(t, fork, chain, d2, 2, func() {
		_, err := chain.Budgets.Create(func(b *state.Budget) { b.Owner = "bob"; b.Balance = 20 })
		require.NoError(t, err)
	})

	require.Len(t, chain.Budgets.All(), 3)

	popped, err := fork.popTo(0)
	require.NoError(t, err)
	require.Equal(t, 1, popped)
	require.Len(t, fork.chain, 1)
	require.Equal(t, d1, fork.HeadDigest())

	names := make([]string, 0)
	for _, b := range chain.Budgets.All() {
		names = append(names, b.Owner)
	}
	require.ElementsMatch(t, []string{"root", "alice"}, names)
}

func TestForkDBFlattenCommitsWholeStack(t *testing.T) {
	chain := state.NewChain()
	fork := NewForkDB()

	d1 := [32]byte{0x01}
	pushEntry(t, fork, chain, d1, 1, func() {
		_, err := chain.Budgets.Create(func(b *state.Budget) { b.Owner = "alice"; b.Balance = 10 })
		require.NoError(t, err)
	})
	d2 := [32]byte{0x02}
	pushEntry(t, fork, chain, d2, 2, func() {
		_, err := chain.Budgets.Create(func(b *state.Budget) { b.Owner = "bob"; b.Balance = 20 })
		require.NoError(t, err)
	})

	require.NoError(t, fork.Flatten())
	require.Empty(t, fork.chain)
	require.Len(t, chain.Budgets.All(), 2)
}
