package state

import (
	"deipchain/chainbase"
	"deipchain/protocol"
)

// Proposal is a deferred, multi-signature bundle of operations awaiting
// enough account/key approvals to execute (spec §4.6 "proposal engine"),
// grounded on original_source's proposal_vote_evaluator.hpp approval-set
// bookkeeping.
type Proposal struct {
	id ID

	Creator       string
	ResearchGroup string
	Operations    []protocol.Operation

	ExpirationUnix      int64
	ReviewPeriodTimeUnix int64 // zero means no review period

	ActiveApprovals map[string]bool
	OwnerApprovals  map[string]bool
	KeyApprovals    map[string]bool

	CreatedAtUnix int64
}

func (p Proposal) GetID() ID   { return p.id }
func (p *Proposal) SetID(id ID) { p.id = id }

func NewProposalTable() *chainbase.Table[Proposal, *Proposal] {
	return chainbase.NewTable[Proposal, *Proposal]("proposal",
		&chainbase.Index[Proposal, *Proposal]{
			Name:   "by_research_group",
			Unique: false,
			KeyFn:  func(p *Proposal) []byte { return []byte(p.ResearchGroup) },
		},
		&chainbase.Index[Proposal, *Proposal]{
			Name:   "by_expiration",
			Unique: false,
			KeyFn:  func(p *Proposal) []byte { return uint64Key(uint64(p.ExpirationUnix)) },
		},
	)
}

// TotalApprovalWeight sums the weight every current approver contributes
// under the research group's active authority, the quorum test
// evaluator/proposal.go runs before executing a proposal's operations.
func (p *Proposal) TotalApprovalWeight(weights map[string]uint16) uint32 {
	var total uint32
	for acc := range p.ActiveApprovals {
		total += uint32(weights[acc])
	}
	for acc := range p.OwnerApprovals {
		total += uint32(weights[acc])
	}
	return total
}
