package state

import (
	"deipchain/authority"
	"deipchain/chainbase"
)

// Chain aggregates every chainbase table into one registry plus the
// singleton DynamicGlobalProperties record: the one object graph every
// evaluator and service is handed, and the one object every native module
// needs a reference to.
type Chain struct {
	DB *chainbase.Database

	Accounts                     *chainbase.Table[Account, *Account]
	Witnesses                    *chainbase.Table[Witness, *Witness]
	WitnessVotes                 *chainbase.Table[WitnessVote, *WitnessVote]
	ResearchGroups                *chainbase.Table[ResearchGroup, *ResearchGroup]
	Research                     *chainbase.Table[Research, *Research]
	ResearchContent              *chainbase.Table[ResearchContent, *ResearchContent]
	Reviews                      *chainbase.Table[Review, *Review]
	ReviewVotes                  *chainbase.Table[ReviewVote, *ReviewVote]
	TokenSales                   *chainbase.Table[ResearchTokenSale, *ResearchTokenSale]
	TokenSaleContributions       *chainbase.Table[ResearchTokenSaleContribution, *ResearchTokenSaleContribution]
	SecurityTokenBalances        *chainbase.Table[SecurityTokenBalance, *SecurityTokenBalance]
	Proposals                    *chainbase.Table[Proposal, *Proposal]
	DisciplineExpertise          *chainbase.Table[DisciplineExpertise, *DisciplineExpertise]
	ExpertiseAllocationProposals *chainbase.Table[ExpertiseAllocationProposal, *ExpertiseAllocationProposal]
	Budgets                      *chainbase.Table[Budget, *Budget]

	GlobalProperties DynamicGlobalProperties
}

// NewChain builds an empty Chain with every table registered against a
// single shared Database, so a single Session spans the whole object graph
// (spec §4.1 "undo sessions span the whole database").
func NewChain() *Chain {
	db := chainbase.NewDatabase()
	c := &Chain{
		DB:                           db,
		Accounts:                     NewAccountTable(),
		Witnesses:                    NewWitnessTable(),
		WitnessVotes:                 NewWitnessVoteTable(),
		ResearchGroups:               NewResearchGroupTable(),
		Research:                     NewResearchTable(),
		ResearchContent:              NewResearchContentTable(),
		Reviews:                      NewReviewTable(),
		ReviewVotes:                  NewReviewVoteTable(),
		TokenSales:                   NewResearchTokenSaleTable(),
		TokenSaleContributions:       NewResearchTokenSaleContributionTable(),
		SecurityTokenBalances:        NewSecurityTokenBalanceTable(),
		Proposals:                    NewProposalTable(),
		DisciplineExpertise:          NewDisciplineExpertiseTable(),
		ExpertiseAllocationProposals: NewExpertiseAllocationProposalTable(),
		Budgets:                      NewBudgetTable(),
	}
	chainbase.Register(db, c.Accounts)
	chainbase.Register(db, c.Witnesses)
	chainbase.Register(db, c.WitnessVotes)
	chainbase.Register(db, c.ResearchGroups)
	chainbase.Register(db, c.Research)
	chainbase.Register(db, c.ResearchContent)
	chainbase.Register(db, c.Reviews)
	chainbase.Register(db, c.ReviewVotes)
	chainbase.Register(db, c.TokenSales)
	chainbase.Register(db, c.TokenSaleContributions)
	chainbase.Register(db, c.SecurityTokenBalances)
	chainbase.Register(db, c.Proposals)
	chainbase.Register(db, c.DisciplineExpertise)
	chainbase.Register(db, c.ExpertiseAllocationProposals)
	chainbase.Register(db, c.Budgets)
	return c
}

func toAuthority(r AuthorityRecord) authority.Authority {
	return authority.Authority{
		WeightThreshold: r.WeightThreshold,
		AccountWeights:  r.AccountWeights,
		KeyWeights:      r.KeyWeights,
	}
}

// AccountAuthorities adapts Chain's account table to authority.AccountAuthorities,
// the lookup callback authority.Satisfied/VerifyAuthority use to resolve an
// account's current owner/active authority and, when opTag names one the
// account has registered, its active_override authority (spec §3
// "active_override").
func (c *Chain) AccountAuthorities(name, opTag string) (owner, active, override authority.Authority, hasOverride bool, ok bool) {
	acc, err := c.Accounts.GetBy("by_name", []byte(name))
	if err != nil {
		return authority.Authority{}, authority.Authority{}, authority.Authority{}, false, false
	}
	if opTag != "" {
		if rec, has := acc.ActiveOverrides[opTag]; has {
			return toAuthority(acc.Owner), toAuthority(acc.Active), toAuthority(rec), true, true
		}
	}
	return toAuthority(acc.Owner), toAuthority(acc.Active), authority.Authority{}, false, true
}
