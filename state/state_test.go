package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deipchain/protocol"
)

func TestChainAccountLifecycle(t *testing.T) {
	c := NewChain()
	s := c.DB.Begin()
	_, err := c.Accounts.Create(func(a *Account) {
		a.Name = "alice"
		a.Owner = AuthorityRecord{WeightThreshold: 1, AccountWeights: map[string]uint16{}, KeyWeights: map[string]uint16{"key-alice": 1}}
		a.Active = a.Owner
		bal, _ := protocol.NewAsset(1000, 3, "DEIP")
		a.Balance = bal
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	alice, err := c.Accounts.GetBy("by_name", []byte("alice"))
	require.NoError(t, err)
	require.Equal(t, int64(1000), alice.Balance.Amount.Int64())

	owner, active, _, _, ok := c.AccountAuthorities("alice", "")
	require.True(t, ok)
	require.Equal(t, uint16(1), owner.KeyWeights["key-alice"])
	require.Equal(t, owner, active)
}

func TestBudgetAllocateExhausts(t *testing.T) {
	b := &Budget{Owner: "genesis", Balance: 100, PerBlock: 30}
	require.True(t, b.Active())

	require.Equal(t, int64(30), b.Allocate(1))
	require.Equal(t, int64(30), b.Allocate(2))
	require.Equal(t, int64(30), b.Allocate(3))
	require.Equal(t, int64(10), b.Allocate(4))
	require.False(t, b.Active())
	require.Equal(t, int64(0), b.Allocate(5))
}

func TestWitnessTableOrdersByVotesDescending(t *testing.T) {
	c := NewChain()
	s := c.DB.Begin()
	_, err := c.Witnesses.Create(func(w *Witness) { w.Owner = "low"; w.Votes = 10 })
	require.NoError(t, err)
	_, err = c.Witnesses.Create(func(w *Witness) { w.Owner = "high"; w.Votes = 1000 })
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	rows, err := c.Witnesses.FindBy("by_vote", uint64Key(0), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "high", rows[0].Owner)
	require.Equal(t, "low", rows[1].Owner)
}
