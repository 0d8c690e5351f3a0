package evaluator

import (
	"deipchain/protocol"
	"deipchain/state"
)

func init() {
	Register(protocol.OpProposalCreate, evaluateProposalCreate)
	Register(protocol.OpProposalUpdate, evaluateProposalUpdate)
	Register(protocol.OpProposalDelete, evaluateProposalDelete)
}

// maxNestedProposalDepth bounds recursive application of a proposal's
// operations, guarding against a proposal that (directly or via further
// nested proposals) contains itself.
const maxNestedProposalDepth = 6

func evaluateProposalCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ProposalCreate)
	if _, err := getAccount(ctx, op.Creator); err != nil {
		return err
	}
	if _, err := getResearchGroup(ctx, op.ResearchGroup); err != nil {
		return err
	}
	_, err := ctx.Chain.Proposals.Create(func(p *state.Proposal) {
		p.Creator = op.Creator
		p.ResearchGroup = op.ResearchGroup
		p.Operations = append([]protocol.Operation{}, op.Operations...)
		p.ExpirationUnix = op.ExpirationUnix.Int64()
		p.ReviewPeriodTimeUnix = ctx.NowUnix + int64(op.ReviewPeriodSeconds)
		p.ActiveApprovals = map[string]bool{}
		p.OwnerApprovals = map[string]bool{}
		p.KeyApprovals = map[string]bool{}
		p.CreatedAtUnix = ctx.NowUnix
	})
	return err
}

func applyApprovalSet(set map[string]bool, toAdd, toRemove []string) map[string]bool {
	out := make(map[string]bool, len(set)+len(toAdd))
	for acc, ok := range set {
		out[acc] = ok
	}
	for _, acc := range toRemove {
		delete(out, acc)
	}
	for _, acc := range toAdd {
		out[acc] = true
	}
	return out
}

func evaluateProposalUpdate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ProposalUpdate)
	proposal, err := ctx.Chain.Proposals.Get(state.ID(op.ProposalID))
	if err != nil {
		return ErrProposalNotFound
	}
	if ctx.NowUnix >= proposal.ExpirationUnix {
		return ErrProposalExpired
	}

	if err := ctx.Chain.Proposals.Modify(proposal.GetID(), func(p *state.Proposal) {
		p.ActiveApprovals = applyApprovalSet(p.ActiveApprovals, op.ActiveApprovalsToAdd, op.ActiveApprovalsToRemove)
		p.OwnerApprovals = applyApprovalSet(p.OwnerApprovals, op.OwnerApprovalsToAdd, op.OwnerApprovalsToRemove)
		p.KeyApprovals = applyApprovalSet(p.KeyApprovals, op.KeyApprovalsToAdd, op.KeyApprovalsToRemove)
	}); err != nil {
		return err
	}

	proposal, _ = ctx.Chain.Proposals.Get(proposal.GetID())
	if proposal.ReviewPeriodTimeUnix > 0 && ctx.NowUnix < proposal.ReviewPeriodTimeUnix {
		return nil
	}
	return maybeExecuteProposal(ctx, proposal, 0)
}

// maybeExecuteProposal executes proposal's operations and removes it once
// its approvals clear the owning research group's active-authority quorum
// (grounded on original_source's proposal_vote_evaluator.hpp quorum check).
func maybeExecuteProposal(ctx *Context, proposal *state.Proposal, depth int) error {
	if depth > maxNestedProposalDepth {
		return ErrProposalExpired
	}
	_, active, _, _, ok := ctx.Chain.AccountAuthorities(proposal.ResearchGroup, "")
	if !ok {
		return ErrResearchGroupNotFound
	}
	approved := proposal.TotalApprovalWeight(active.AccountWeights)
	if approved < active.WeightThreshold {
		return nil
	}
	for _, op := range proposal.Operations {
		if err := Apply(ctx, op); err != nil {
			return err
		}
	}
	return ctx.Chain.Proposals.Remove(proposal.GetID())
}

func evaluateProposalDelete(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ProposalDelete)
	proposal, err := ctx.Chain.Proposals.Get(state.ID(op.ProposalID))
	if err != nil {
		return ErrProposalNotFound
	}
	if proposal.Creator != op.Requester && !proposal.OwnerApprovals[op.Requester] {
		return ErrProposalNotFound
	}
	return ctx.Chain.Proposals.Remove(proposal.GetID())
}

// ProcessExpiredProposals is called once per block by the pipeline to drop
// proposals whose expiration has passed without reaching quorum.
func ProcessExpiredProposals(ctx *Context) error {
	var expired []*state.Proposal
	ctx.Chain.Proposals.Range(func(p *state.Proposal) bool {
		if ctx.NowUnix >= p.ExpirationUnix {
			expired = append(expired, p)
		}
		return true
	})
	for _, p := range expired {
		if err := ctx.Chain.Proposals.Remove(p.GetID()); err != nil {
			return err
		}
		ctx.emit("proposal_expired", p.GetID())
	}
	return nil
}
