package state

import "deipchain/chainbase"

// DisciplineExpertise is one account's Expertise Contribution Index within
// one research discipline (spec §4.4 "ECI").
type DisciplineExpertise struct {
	id ID

	Account      string
	DisciplineID uint32
	Amount       int64
}

func (e DisciplineExpertise) GetID() ID    { return e.id }
func (e *DisciplineExpertise) SetID(id ID) { e.id = id }

func disciplineKey(account string, discipline uint32) []byte {
	return append([]byte(account+"\x00"), uint64Key(uint64(discipline))...)
}

func NewDisciplineExpertiseTable() *chainbase.Table[DisciplineExpertise, *DisciplineExpertise] {
	return chainbase.NewTable[DisciplineExpertise, *DisciplineExpertise]("discipline_expertise",
		&chainbase.Index[DisciplineExpertise, *DisciplineExpertise]{
			Name:   "by_account_discipline",
			Unique: true,
			KeyFn:  func(e *DisciplineExpertise) []byte { return disciplineKey(e.Account, e.DisciplineID) },
		},
	)
}

// ExpertiseAllocationProposalStatus tracks an allocation proposal through
// its quorum-gated lifetime (spec §3, supplemented from
// original_source/.../expertise_allocation_proposal).
type ExpertiseAllocationProposalStatus uint8

const (
	ExpertiseProposalActive ExpertiseAllocationProposalStatus = iota
	ExpertiseProposalApproved
	ExpertiseProposalRejected
	ExpertiseProposalExpired
)

// ExpertiseAllocationProposal proposes transferring a fixed amount of
// expertise tokens into a discipline, subject to a quorum-percent vote.
type ExpertiseAllocationProposal struct {
	id ID

	Creator          string
	DisciplineID     uint32
	Description      string
	AmountToTransfer uint32
	QuorumPercent    uint16

	TotalVotedAmount uint32
	Voters           map[string]bool

	ExpirationUnix int64
	Status         ExpertiseAllocationProposalStatus
}

func (p ExpertiseAllocationProposal) GetID() ID    { return p.id }
func (p *ExpertiseAllocationProposal) SetID(id ID) { p.id = id }

func NewExpertiseAllocationProposalTable() *chainbase.Table[ExpertiseAllocationProposal, *ExpertiseAllocationProposal] {
	return chainbase.NewTable[ExpertiseAllocationProposal, *ExpertiseAllocationProposal]("expertise_allocation_proposal",
		&chainbase.Index[ExpertiseAllocationProposal, *ExpertiseAllocationProposal]{
			Name:   "by_discipline",
			Unique: false,
			KeyFn:  func(p *ExpertiseAllocationProposal) []byte { return uint64Key(uint64(p.DisciplineID)) },
		},
	)
}
