package evaluator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deipchain/protocol"
	"deipchain/state"
)

func newTestChain(t *testing.T) (*state.Chain, *Context) {
	t.Helper()
	c := state.NewChain()
	ctx := &Context{Chain: c, BlockNum: 1, NowUnix: 1000}
	return c, ctx
}

func createAccount(t *testing.T, c *state.Chain, name string) {
	t.Helper()
	_, err := c.Accounts.Create(func(a *state.Account) {
		a.Name = name
		a.Owner = state.AuthorityRecord{WeightThreshold: 1, AccountWeights: map[string]uint16{}, KeyWeights: map[string]uint16{"key-" + name: 1}}
		a.Active = a.Owner
	})
	require.NoError(t, err)
}

func TestEvaluateTransferMovesBalance(t *testing.T) {
	c, ctx := newTestChain(t)
	s := c.DB.Begin()
	createAccount(t, c, "alice")
	createAccount(t, c, "bob")
	amt, err := protocol.NewAsset(500, 3, "DEIP")
	require.NoError(t, err)
	require.NoError(t, c.Accounts.Modify(mustGetID(t, c, "alice"), func(a *state.Account) { a.Balance = amt }))
	require.NoError(t, s.Commit())

	transferAmt, err := protocol.NewAsset(200, 3, "DEIP")
	require.NoError(t, err)
	s2 := c.DB.Begin()
	require.NoError(t, Apply(ctx, protocol.Transfer{From: "alice", To: "bob", Amount: transferAmt}))
	require.NoError(t, s2.Commit())

	alice, _ := c.Accounts.GetBy("by_name", []byte("alice"))
	bob, _ := c.Accounts.GetBy("by_name", []byte("bob"))
	require.Equal(t, int64(300), alice.Balance.Amount.Int64())
	require.Equal(t, int64(200), bob.Balance.Amount.Int64())
}

func TestEvaluateTransferInsufficientFunds(t *testing.T) {
	c, ctx := newTestChain(t)
	s := c.DB.Begin()
	createAccount(t, c, "alice")
	createAccount(t, c, "bob")
	require.NoError(t, s.Commit())

	amt, _ := protocol.NewAsset(1, 3, "DEIP")
	s2 := c.DB.Begin()
	err := Apply(ctx, protocol.Transfer{From: "alice", To: "bob", Amount: amt})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, s2.Undo())
}

func mustGetID(t *testing.T, c *state.Chain, name string) state.ID {
	t.Helper()
	acc, err := c.Accounts.GetBy("by_name", []byte(name))
	require.NoError(t, err)
	return acc.GetID()
}

func TestEvaluateAccountWitnessVoteTogglesCount(t *testing.T) {
	c, ctx := newTestChain(t)
	s := c.DB.Begin()
	createAccount(t, c, "alice")
	createAccount(t, c, "bob")
	require.NoError(t, Apply(ctx, protocol.WitnessUpdate{Owner: "bob", URL: "https://bob.example"}))
	require.NoError(t, s.Commit())

	s2 := c.DB.Begin()
	require.NoError(t, Apply(ctx, protocol.AccountWitnessVote{Account: "alice", Witness: "bob", Approve: true}))
	require.NoError(t, s2.Commit())
	witness, err := c.Witnesses.GetBy("by_owner", []byte("bob"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), witness.Votes)

	s3 := c.DB.Begin()
	require.NoError(t, Apply(ctx, protocol.AccountWitnessVote{Account: "alice", Witness: "bob", Approve: false}))
	require.NoError(t, s3.Commit())
	witness, err = c.Witnesses.GetBy("by_owner", []byte("bob"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), witness.Votes)
}

func TestEvaluateReviewCreateUpdatesECI(t *testing.T) {
	c, ctx := newTestChain(t)
	s := c.DB.Begin()
	createAccount(t, c, "group")
	createAccount(t, c, "reviewer")
	require.NoError(t, Apply(ctx, protocol.ResearchGroupCreate{Creator: "group", Group: "group"}))
	require.NoError(t, Apply(ctx, protocol.ResearchCreate{ResearchGroup: "group", Title: "Paper"}))
	research, err := c.Research.GetBy("by_research_group", []byte("group"))
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, protocol.ResearchContentCreate{
		ResearchGroup: "group", ResearchID: uint64(research.GetID()), ContentType: 1, Title: "v1", ContentHash: "abc",
	}))
	require.NoError(t, s.Commit())

	contents := c.ResearchContent.All()
	require.Len(t, contents, 1)
	content := contents[0]

	s2 := c.DB.Begin()
	require.NoError(t, Apply(ctx, protocol.ReviewCreate{
		Author: "reviewer", ResearchContentID: uint64(content.GetID()), Content: "looks solid", ExpertiseTokensAmount: 100,
	}))
	require.NoError(t, s2.Commit())

	updated, err := c.ResearchContent.Get(content.GetID())
	require.NoError(t, err)
	require.NotZero(t, updated.ECI)

	updatedResearch, err := c.Research.Get(research.GetID())
	require.NoError(t, err)
	require.Equal(t, updated.ECI, updatedResearch.ECI)
}

func TestEvaluateProposalExecutesOnceQuorumMet(t *testing.T) {
	c, ctx := newTestChain(t)
	s := c.DB.Begin()
	createAccount(t, c, "alice")
	createAccount(t, c, "bob")
	require.NoError(t, c.Accounts.Modify(mustGetID(t, c, "alice"), func(a *state.Account) {
		a.Active = state.AuthorityRecord{WeightThreshold: 1, AccountWeights: map[string]uint16{"bob": 1}, KeyWeights: map[string]uint16{}}
	}))
	require.NoError(t, Apply(ctx, protocol.ResearchGroupCreate{Creator: "alice", Group: "alice"}))
	require.NoError(t, s.Commit())

	amt, _ := protocol.NewAsset(50, 3, "DEIP")
	s2 := c.DB.Begin()
	require.NoError(t, Apply(ctx, protocol.ProposalCreate{
		Creator:        "alice",
		ResearchGroup:  "alice",
		Operations:     []protocol.Operation{protocol.Transfer{From: "bob", To: "alice", Amount: amt}},
		ExpirationUnix: protocol.SignedInt(ctx.NowUnix + 1000),
	}))
	require.NoError(t, s2.Commit())

	proposals := c.Proposals.All()
	require.Len(t, proposals, 1)
	proposalID := uint64(proposals[0].GetID())

	s3 := c.DB.Begin()
	require.NoError(t, c.Accounts.Modify(mustGetID(t, c, "bob"), func(a *state.Account) {
		bal, _ := protocol.NewAsset(100, 3, "DEIP")
		a.Balance = bal
	}))

	require.NoError(t, Apply(ctx, protocol.ProposalUpdate{
		ProposalID:           proposalID,
		ActiveApprovalsToAdd: []string{"bob"},
	}))
	require.NoError(t, s3.Commit())

	require.Empty(t, c.Proposals.All())
	alice, err := c.Accounts.GetBy("by_name", []byte("alice"))
	require.NoError(t, err)
	require.Equal(t, int64(50), alice.Balance.Amount.Int64())
}
