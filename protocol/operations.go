package protocol

import "deipchain/authority"

// OpTag identifies an operation's concrete type on the wire, since
// Operations are stored in a tagged union (RLP cannot encode a Go interface
// directly — spec §6 "operations are a tagged list").
type OpTag uint8

const (
	OpTransfer OpTag = iota
	OpTransferToCommonTokens
	OpWithdrawCommonTokens
	OpSetWithdrawCommonTokensRoute

	OpAccountCreate
	OpAccountUpdate

	OpWitnessUpdate
	OpAccountWitnessVote
	OpAccountWitnessProxy

	OpResearchGroupCreate
	OpResearchCreate
	OpResearchUpdate
	OpResearchContentCreate
	OpReviewCreate
	OpReviewVote

	OpResearchTokenSaleCreate
	OpResearchTokenSaleContribute

	OpProposalCreate
	OpProposalUpdate
	OpProposalDelete

	OpExpertiseAllocationProposalCreate
	OpExpertiseAllocationProposalVote
)

// Operation is implemented by every concrete operation struct. RequiredAuths
// reports which accounts must sign (and at which authority level) for the
// operation to be valid, before any chainbase state is consulted
// (spec §4.2 "static required-authority derivation").
type Operation interface {
	Tag() OpTag
	RequiredAuths() authority.Requirement
	Validate() error
}

// --- Transfers -------------------------------------------------------------

type Transfer struct {
	From   string
	To     string
	Amount Asset
	Memo   string
}

func (Transfer) Tag() OpTag { return OpTransfer }
func (o Transfer) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.From}}
}
func (o Transfer) Validate() error {
	if o.From == "" || o.To == "" {
		return errEmptyAccount
	}
	if o.Amount.IsNegative() || o.Amount.IsZero() {
		return errNonPositiveAmount
	}
	return nil
}

// TransferToCommonTokens converts a liquid balance into the research
// community's common-token (stake-like, non-transferable) balance
// (spec §4 "common tokens").
type TransferToCommonTokens struct {
	From   string
	To     string
	Amount Asset
}

func (TransferToCommonTokens) Tag() OpTag { return OpTransferToCommonTokens }
func (o TransferToCommonTokens) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.From}}
}
func (o TransferToCommonTokens) Validate() error {
	if o.From == "" || o.To == "" {
		return errEmptyAccount
	}
	if o.Amount.IsNegative() || o.Amount.IsZero() {
		return errNonPositiveAmount
	}
	return nil
}

// WithdrawCommonTokens records (or clears, with Amount zero) a vesting
// withdrawal request of common tokens, split into a per-period withdrawal
// rate on the account. Applying it moves no tokens; no per-period payout is
// processed.
type WithdrawCommonTokens struct {
	Account string
	Amount  Asset
}

func (WithdrawCommonTokens) Tag() OpTag { return OpWithdrawCommonTokens }
func (o WithdrawCommonTokens) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Account}}
}
func (o WithdrawCommonTokens) Validate() error {
	if o.Account == "" {
		return errEmptyAccount
	}
	if o.Amount.IsNegative() {
		return errNonPositiveAmount
	}
	return nil
}

type SetWithdrawCommonTokensRoute struct {
	From     string
	To       string
	Percent  uint16 // basis points out of 10000
	AutoCommon bool
}

func (SetWithdrawCommonTokensRoute) Tag() OpTag { return OpSetWithdrawCommonTokensRoute }
func (o SetWithdrawCommonTokensRoute) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.From}}
}
func (o SetWithdrawCommonTokensRoute) Validate() error {
	if o.From == "" || o.To == "" {
		return errEmptyAccount
	}
	if o.Percent > 10000 {
		return errInvalidPercent
	}
	return nil
}

// --- Accounts ---------------------------------------------------------------

type AccountCreate struct {
	Creator    string
	NewAccount string
	Owner      authority.Authority
	Active     string // active key, compressed-hex
	Memo       string
}

func (AccountCreate) Tag() OpTag { return OpAccountCreate }
func (o AccountCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Creator}}
}
func (o AccountCreate) Validate() error {
	if o.Creator == "" || o.NewAccount == "" {
		return errEmptyAccount
	}
	return nil
}

type AccountUpdate struct {
	Account string
	Owner   *authority.Authority
	Memo    string

	// Overrides registers (or replaces) a per-operation-tag active_override
	// authority, keyed by the stringified OpTag it applies to (spec §3
	// "active_override"). A nil map leaves existing overrides untouched.
	Overrides map[string]authority.Authority
}

func (AccountUpdate) Tag() OpTag { return OpAccountUpdate }
func (o AccountUpdate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Owner: []string{o.Account}}
}
func (o AccountUpdate) Validate() error {
	if o.Account == "" {
		return errEmptyAccount
	}
	return nil
}

// --- Witnesses ---------------------------------------------------------------

type WitnessUpdate struct {
	Owner     string
	URL       string
	SigningKey string
	Props     WitnessProps
}

type WitnessProps struct {
	AccountCreationFee Asset
	MaximumBlockSize   uint32
}

func (WitnessUpdate) Tag() OpTag { return OpWitnessUpdate }
func (o WitnessUpdate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Owner}}
}
func (o WitnessUpdate) Validate() error {
	if o.Owner == "" {
		return errEmptyAccount
	}
	return nil
}

type AccountWitnessVote struct {
	Account string
	Witness string
	Approve bool
}

func (AccountWitnessVote) Tag() OpTag { return OpAccountWitnessVote }
func (o AccountWitnessVote) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Account}}
}
func (o AccountWitnessVote) Validate() error {
	if o.Account == "" || o.Witness == "" {
		return errEmptyAccount
	}
	return nil
}

type AccountWitnessProxy struct {
	Account string
	Proxy   string // empty clears the proxy
}

func (AccountWitnessProxy) Tag() OpTag { return OpAccountWitnessProxy }
func (o AccountWitnessProxy) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Account}}
}
func (o AccountWitnessProxy) Validate() error {
	if o.Account == "" {
		return errEmptyAccount
	}
	return nil
}

// --- Research group / research / content / review ----------------------------

type ResearchGroupCreate struct {
	Creator     string
	Group       string
	Permlink    string
	Description string
}

func (ResearchGroupCreate) Tag() OpTag { return OpResearchGroupCreate }
func (o ResearchGroupCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Creator}}
}
func (o ResearchGroupCreate) Validate() error {
	if o.Creator == "" || o.Group == "" {
		return errEmptyAccount
	}
	return nil
}

type ResearchCreate struct {
	ResearchGroup string
	Title         string
	Abstract      string
	Disciplines   []uint32
	IsFinished    bool
}

func (ResearchCreate) Tag() OpTag { return OpResearchCreate }
func (o ResearchCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.ResearchGroup}}
}
func (o ResearchCreate) Validate() error {
	if o.ResearchGroup == "" || o.Title == "" {
		return errEmptyAccount
	}
	return nil
}

type ResearchUpdate struct {
	ResearchGroup string
	ResearchID    uint64
	Title         string
	Abstract      string
	IsFinished    bool
}

func (ResearchUpdate) Tag() OpTag { return OpResearchUpdate }
func (o ResearchUpdate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.ResearchGroup}}
}
func (o ResearchUpdate) Validate() error {
	if o.ResearchGroup == "" {
		return errEmptyAccount
	}
	return nil
}

type ResearchContentCreate struct {
	ResearchGroup string
	ResearchID    uint64
	ContentType   uint8
	Title         string
	ContentHash   string // hex-encoded content digest
	Authors       []string
}

func (ResearchContentCreate) Tag() OpTag { return OpResearchContentCreate }
func (o ResearchContentCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.ResearchGroup}}
}
func (o ResearchContentCreate) Validate() error {
	if o.ResearchGroup == "" || o.ContentHash == "" {
		return errEmptyAccount
	}
	return nil
}

type ReviewCreate struct {
	Author             string
	ResearchContentID  uint64
	Content             string
	ExpertiseTokensAmount uint32

	// IsPositive is the review's polarity (spec §3 "is_positive"), feeding
	// the m_r = +-1 branch of the expertise-weight formula (spec §4.4).
	IsPositive bool

	// Disciplines names the discipline IDs this review assesses research
	// against (spec §3 "Review").
	Disciplines []uint32

	// AssessmentModelVersion identifies the scoring rubric version used to
	// produce CriteriaScores (spec §3 "Review").
	AssessmentModelVersion string

	// CriteriaScores maps a named assessment criterion to the score the
	// reviewer gave it under AssessmentModelVersion (spec §3 "Review").
	CriteriaScores map[string]int32
}

func (ReviewCreate) Tag() OpTag { return OpReviewCreate }
func (o ReviewCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Author}}
}
func (o ReviewCreate) Validate() error {
	if o.Author == "" {
		return errEmptyAccount
	}
	return nil
}

type ReviewVote struct {
	Voter    string
	ReviewID uint64
	Weight   SignedInt
}

func (ReviewVote) Tag() OpTag { return OpReviewVote }
func (o ReviewVote) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Voter}}
}
func (o ReviewVote) Validate() error {
	if o.Voter == "" {
		return errEmptyAccount
	}
	return nil
}

// --- Research token sale -----------------------------------------------------

type ResearchTokenSaleCreate struct {
	ResearchGroup  string
	ResearchID     uint64
	StartTimeUnix  SignedInt
	EndTimeUnix    SignedInt
	SoftCap        Asset
	HardCap        Asset

	// SecurityTokensOffered is the security-token quantity this round sells,
	// distributed pro-rata across contributors once the sale clears its
	// soft cap (spec §3 "security-token set on sale", §4.5 "atomically
	// issues security tokens pro-rata").
	SecurityTokensOffered uint64
}

func (ResearchTokenSaleCreate) Tag() OpTag { return OpResearchTokenSaleCreate }
func (o ResearchTokenSaleCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.ResearchGroup}}
}
func (o ResearchTokenSaleCreate) Validate() error {
	if o.ResearchGroup == "" {
		return errEmptyAccount
	}
	if o.EndTimeUnix <= o.StartTimeUnix {
		return errInvalidTimeRange
	}
	if o.HardCap.Amount < o.SoftCap.Amount {
		return errInvalidCapRange
	}
	return nil
}

type ResearchTokenSaleContribute struct {
	TokenSaleID uint64
	Owner       string
	Amount      Asset
}

func (ResearchTokenSaleContribute) Tag() OpTag { return OpResearchTokenSaleContribute }
func (o ResearchTokenSaleContribute) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Owner}}
}
func (o ResearchTokenSaleContribute) Validate() error {
	if o.Owner == "" {
		return errEmptyAccount
	}
	if o.Amount.IsNegative() || o.Amount.IsZero() {
		return errNonPositiveAmount
	}
	return nil
}

// --- Proposals ----------------------------------------------------------------

type ProposalCreate struct {
	Creator        string
	ResearchGroup  string
	Operations     []Operation
	ExpirationUnix SignedInt
	ReviewPeriodSeconds uint32
}

func (ProposalCreate) Tag() OpTag { return OpProposalCreate }
func (o ProposalCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Creator}}
}
func (o ProposalCreate) Validate() error {
	if o.Creator == "" || o.ResearchGroup == "" {
		return errEmptyAccount
	}
	if len(o.Operations) == 0 {
		return errEmptyProposal
	}
	return nil
}

type ProposalUpdate struct {
	ProposalID       uint64
	ActiveApprovalsToAdd    []string
	ActiveApprovalsToRemove []string
	OwnerApprovalsToAdd     []string
	OwnerApprovalsToRemove  []string
	KeyApprovalsToAdd       []string
	KeyApprovalsToRemove    []string
}

func (ProposalUpdate) Tag() OpTag { return OpProposalUpdate }
func (o ProposalUpdate) RequiredAuths() authority.Requirement {
	accounts := append(append([]string{}, o.ActiveApprovalsToAdd...), o.ActiveApprovalsToRemove...)
	return authority.Requirement{Active: accounts}
}
func (o ProposalUpdate) Validate() error { return nil }

type ProposalDelete struct {
	ProposalID uint64
	Requester  string
}

func (ProposalDelete) Tag() OpTag { return OpProposalDelete }
func (o ProposalDelete) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Requester}}
}
func (o ProposalDelete) Validate() error {
	if o.Requester == "" {
		return errEmptyAccount
	}
	return nil
}

// --- Expertise allocation proposals --------------------------------------------

type ExpertiseAllocationProposalCreate struct {
	Creator        string
	DisciplineID   uint32
	Description    string
	AmountToTransfer uint32
	ExpirationUnix SignedInt
	QuorumPercent  uint16
}

func (ExpertiseAllocationProposalCreate) Tag() OpTag { return OpExpertiseAllocationProposalCreate }
func (o ExpertiseAllocationProposalCreate) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Creator}}
}
func (o ExpertiseAllocationProposalCreate) Validate() error {
	if o.Creator == "" {
		return errEmptyAccount
	}
	if o.QuorumPercent == 0 || o.QuorumPercent > 10000 {
		return errInvalidPercent
	}
	return nil
}

type ExpertiseAllocationProposalVote struct {
	ProposalID uint64
	Voter      string
	VotingPower uint32
}

func (ExpertiseAllocationProposalVote) Tag() OpTag { return OpExpertiseAllocationProposalVote }
func (o ExpertiseAllocationProposalVote) RequiredAuths() authority.Requirement {
	return authority.Requirement{Active: []string{o.Voter}}
}
func (o ExpertiseAllocationProposalVote) Validate() error {
	if o.Voter == "" {
		return errEmptyAccount
	}
	return nil
}
