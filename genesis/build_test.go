package genesis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deipchain/protocol"
)

func mustLoadSpec(t *testing.T, body string) *Spec {
	t.Helper()
	path := writeSpec(t, body)
	spec, err := Load(path)
	require.NoError(t, err)
	return spec
}

func TestBuildSeedsAccountsWitnessesBudgets(t *testing.T) {
	spec := mustLoadSpec(t, validSpecJSON())
	chain, block, err := Build(spec)
	require.NoError(t, err)
	require.NotNil(t, chain)
	require.NotNil(t, block)

	alice, err := chain.Accounts.GetBy("by_name", []byte("alice"))
	require.NoError(t, err)
	require.Equal(t, int64(1000), alice.Balance.Amount.Int64())
	require.Equal(t, int64(500), alice.CommonTokens.Amount.Int64())
	require.Equal(t, "DEIP", alice.Balance.SymbolString())
	require.Equal(t, uint32(1), alice.Owner.WeightThreshold)
	require.Equal(t, uint16(1), alice.Owner.KeyWeights[aliceKey])

	bob, err := chain.Accounts.GetBy("by_name", []byte("bob"))
	require.NoError(t, err)
	require.Equal(t, int64(0), bob.Balance.Amount.Int64())

	witness, err := chain.Witnesses.GetBy("by_owner", []byte("alice"))
	require.NoError(t, err)
	require.Equal(t, aliceKey, witness.SigningKey)
	require.True(t, witness.Running)

	require.Len(t, chain.Budgets.All(), 1)
}

func TestBuildGenesisBlockIsWellFormed(t *testing.T) {
	spec := mustLoadSpec(t, validSpecJSON())
	_, block, err := Build(spec)
	require.NoError(t, err)

	require.Equal(t, uint64(0), block.Number)
	require.Equal(t, [32]byte{}, block.Previous)
	require.Equal(t, protocol.MerkleRoot(nil), block.TransactionMerkleRoot)
	require.Empty(t, block.Witness)
	require.Empty(t, block.WitnessSignature)

	wantTime, err := time.Parse(time.RFC3339, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, wantTime.Unix(), block.TimestampUnix.Int64())
}

func TestBuildSeedsOptionalTokenSale(t *testing.T) {
	spec := mustLoadSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [
			{"name": "alice", "ownerKey": "`+aliceKey+`", "balance": 0, "commonTokens": 0}
		],
		"tokenSale": {
			"researchId": 7,
			"owner": "alice",
			"softCap": 100,
			"hardCap": 1000,
			"startTimeUnix": 1,
			"endTimeUnix": 2000000000
		}
	}`)
	chain, _, err := Build(spec)
	require.NoError(t, err)

	all := chain.TokenSales.All()
	require.Len(t, all, 1)
	sale := all[0]
	require.Equal(t, uint64(7), sale.ResearchID)
	require.Equal(t, "alice", sale.Owner)
	require.Equal(t, int64(100), sale.SoftCap)
	require.Equal(t, int64(1000), sale.HardCap)
}

func TestBuildWithoutTokenSaleSeedsNone(t *testing.T) {
	spec := mustLoadSpec(t, validSpecJSON())
	chain, _, err := Build(spec)
	require.NoError(t, err)
	require.Empty(t, chain.TokenSales.All())
}

func TestBuildRejectsNilSpec(t *testing.T) {
	_, _, err := Build(nil)
	require.Error(t, err)
}
