package state

import "deipchain/chainbase"

// TokenSaleStatus is the research token sale state machine of spec §4.5:
// inactive -> active -> collecting_funds/refunding -> finished/expired.
type TokenSaleStatus uint8

const (
	TokenSaleInactive TokenSaleStatus = iota
	TokenSaleActive
	TokenSaleCollectingFunds
	TokenSaleRefunding
	TokenSaleFinished
	TokenSaleExpired
)

// ResearchTokenSale is one research group's fundraising round for a
// Research (spec §4.5).
type ResearchTokenSale struct {
	id ID

	ResearchID uint64
	Owner      string

	StartTimeUnix int64
	EndTimeUnix   int64

	SoftCap      int64
	HardCap      int64
	TotalRaised  int64

	// SecurityTokensOffered is the quantity distributed pro-rata across
	// contributors once the sale succeeds (spec §4.5).
	SecurityTokensOffered int64

	Status TokenSaleStatus
}

func (s ResearchTokenSale) GetID() ID   { return s.id }
func (s *ResearchTokenSale) SetID(id ID) { s.id = id }

func NewResearchTokenSaleTable() *chainbase.Table[ResearchTokenSale, *ResearchTokenSale] {
	return chainbase.NewTable[ResearchTokenSale, *ResearchTokenSale]("research_token_sale",
		&chainbase.Index[ResearchTokenSale, *ResearchTokenSale]{
			Name:   "by_research",
			Unique: false,
			KeyFn:  func(s *ResearchTokenSale) []byte { return uint64Key(s.ResearchID) },
		},
		&chainbase.Index[ResearchTokenSale, *ResearchTokenSale]{
			Name:   "by_end_time",
			Unique: false,
			KeyFn: func(s *ResearchTokenSale) []byte {
				return uint64Key(uint64(s.EndTimeUnix))
			},
		},
	)
}

// ResearchTokenSaleContribution is one account's pledge toward a token sale
// (spec §4.5 "contribute"), refundable if the sale expires below soft cap.
type ResearchTokenSaleContribution struct {
	id ID

	TokenSaleID uint64
	Owner       string
	Amount      int64
}

func (c ResearchTokenSaleContribution) GetID() ID    { return c.id }
func (c *ResearchTokenSaleContribution) SetID(id ID) { c.id = id }

func NewResearchTokenSaleContributionTable() *chainbase.Table[ResearchTokenSaleContribution, *ResearchTokenSaleContribution] {
	return chainbase.NewTable[ResearchTokenSaleContribution, *ResearchTokenSaleContribution]("research_token_sale_contribution",
		&chainbase.Index[ResearchTokenSaleContribution, *ResearchTokenSaleContribution]{
			Name:   "by_sale_owner",
			Unique: true,
			KeyFn: func(c *ResearchTokenSaleContribution) []byte {
				return append(uint64Key(c.TokenSaleID), []byte(c.Owner)...)
			},
		},
	)
}

// SecurityTokenBalance is one account's pro-rata share of the security
// tokens a research token sale issues once it clears its soft cap (spec
// §4.5 "atomically issues security tokens pro-rata").
type SecurityTokenBalance struct {
	id ID

	ResearchID uint64
	Owner      string
	Amount     int64
}

func (b SecurityTokenBalance) GetID() ID    { return b.id }
func (b *SecurityTokenBalance) SetID(id ID) { b.id = id }

func NewSecurityTokenBalanceTable() *chainbase.Table[SecurityTokenBalance, *SecurityTokenBalance] {
	return chainbase.NewTable[SecurityTokenBalance, *SecurityTokenBalance]("security_token_balance",
		&chainbase.Index[SecurityTokenBalance, *SecurityTokenBalance]{
			Name:   "by_research_owner",
			Unique: true,
			KeyFn: func(b *SecurityTokenBalance) []byte {
				return append(uint64Key(b.ResearchID), []byte(b.Owner)...)
			},
		},
	)
}
