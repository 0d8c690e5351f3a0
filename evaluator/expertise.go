package evaluator

import (
	"deipchain/protocol"
	"deipchain/state"
)

func init() {
	Register(protocol.OpExpertiseAllocationProposalCreate, evaluateExpertiseAllocationProposalCreate)
	Register(protocol.OpExpertiseAllocationProposalVote, evaluateExpertiseAllocationProposalVote)
}

func evaluateExpertiseAllocationProposalCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ExpertiseAllocationProposalCreate)
	if _, err := getAccount(ctx, op.Creator); err != nil {
		return err
	}
	_, err := ctx.Chain.ExpertiseAllocationProposals.Create(func(p *state.ExpertiseAllocationProposal) {
		p.Creator = op.Creator
		p.DisciplineID = op.DisciplineID
		p.Description = op.Description
		p.AmountToTransfer = op.AmountToTransfer
		p.QuorumPercent = op.QuorumPercent
		p.Voters = map[string]bool{}
		p.ExpirationUnix = op.ExpirationUnix.Int64()
		p.Status = state.ExpertiseProposalActive
	})
	return err
}

// disciplineTotalExpertise sums every account's committed expertise in a
// discipline, the denominator for a quorum-percent vote.
func disciplineTotalExpertise(ctx *Context, disciplineID uint32) int64 {
	var total int64
	ctx.Chain.DisciplineExpertise.Range(func(e *state.DisciplineExpertise) bool {
		if e.DisciplineID == disciplineID {
			total += e.Amount
		}
		return true
	})
	return total
}

func evaluateExpertiseAllocationProposalVote(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ExpertiseAllocationProposalVote)
	if _, err := getAccount(ctx, op.Voter); err != nil {
		return err
	}
	proposal, err := ctx.Chain.ExpertiseAllocationProposals.Get(state.ID(op.ProposalID))
	if err != nil {
		return ErrExpertiseProposalNotFound
	}
	if proposal.Status != state.ExpertiseProposalActive {
		return ErrProposalExpired
	}
	if ctx.NowUnix >= proposal.ExpirationUnix {
		return ErrProposalExpired
	}
	if proposal.Voters[op.Voter] {
		return ErrAlreadyVoted
	}

	newTotal := proposal.TotalVotedAmount + op.VotingPower
	total := disciplineTotalExpertise(ctx, proposal.DisciplineID)
	newStatus := proposal.Status
	if total > 0 && uint64(newTotal)*10000/uint64(total) >= uint64(proposal.QuorumPercent) {
		newStatus = state.ExpertiseProposalApproved
	}

	if err := ctx.Chain.ExpertiseAllocationProposals.Modify(proposal.GetID(), func(p *state.ExpertiseAllocationProposal) {
		voters := make(map[string]bool, len(p.Voters)+1)
		for v, ok := range p.Voters {
			voters[v] = ok
		}
		voters[op.Voter] = true
		p.Voters = voters
		p.TotalVotedAmount = newTotal
		p.Status = newStatus
	}); err != nil {
		return err
	}

	if newStatus != state.ExpertiseProposalApproved {
		return nil
	}
	return grantDisciplineExpertise(ctx, proposal.Creator, proposal.DisciplineID, int64(proposal.AmountToTransfer))
}

func grantDisciplineExpertise(ctx *Context, account string, disciplineID uint32, amount int64) error {
	existing, err := ctx.Chain.DisciplineExpertise.GetBy("by_account_discipline", disciplineKeyFor(account, disciplineID))
	if err == nil {
		return ctx.Chain.DisciplineExpertise.Modify(existing.GetID(), func(e *state.DisciplineExpertise) {
			e.Amount += amount
		})
	}
	_, createErr := ctx.Chain.DisciplineExpertise.Create(func(e *state.DisciplineExpertise) {
		e.Account = account
		e.DisciplineID = disciplineID
		e.Amount = amount
	})
	return createErr
}

func disciplineKeyFor(account string, disciplineID uint32) []byte {
	return append([]byte(account+"\x00"), uint64Key(uint64(disciplineID))...)
}

// ProcessExpiredExpertiseAllocationProposals marks active proposals past
// their expiration as rejected, called once per block by the pipeline.
func ProcessExpiredExpertiseAllocationProposals(ctx *Context) error {
	var toExpire []*state.ExpertiseAllocationProposal
	ctx.Chain.ExpertiseAllocationProposals.Range(func(p *state.ExpertiseAllocationProposal) bool {
		if p.Status == state.ExpertiseProposalActive && ctx.NowUnix >= p.ExpirationUnix {
			toExpire = append(toExpire, p)
		}
		return true
	})
	for _, p := range toExpire {
		if err := ctx.Chain.ExpertiseAllocationProposals.Modify(p.GetID(), func(p *state.ExpertiseAllocationProposal) {
			p.Status = state.ExpertiseProposalRejected
		}); err != nil {
			return err
		}
	}
	return nil
}
