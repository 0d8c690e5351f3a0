package state

import "deipchain/chainbase"

// uint64Key renders v as a fixed-width big-endian key so ascending byte
// comparison matches ascending numeric order.
func uint64Key(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
	return b[:]
}

// Research is a single research project owned by a research group account
// (spec §3 "Research").
type Research struct {
	id ID

	ResearchGroup string
	Title         string
	Abstract      string
	Disciplines   []uint32
	IsFinished    bool

	OwnedTokens int64 // security tokens reserved for this research, pre-sale
	ECI         int64 // aggregate Expertise Contribution Index, summed over content
	CreatedAtUnix int64
}

func (r Research) GetID() ID   { return r.id }
func (r *Research) SetID(id ID) { r.id = id }

func NewResearchTable() *chainbase.Table[Research, *Research] {
	return chainbase.NewTable[Research, *Research]("research",
		&chainbase.Index[Research, *Research]{
			Name:   "by_research_group",
			Unique: false,
			KeyFn:  func(r *Research) []byte { return []byte(r.ResearchGroup) },
		},
	)
}

// ResearchContent is a versioned artifact (paper, dataset, milestone report)
// attached to a Research (spec §3 "Research content").
type ResearchContent struct {
	id ID

	ResearchID  uint64
	ContentType uint8
	Title       string
	ContentHash string
	Authors     []string

	ECI           int64 // Expertise Contribution Index, sum of weight(r) over reviews
	CreatedAtUnix int64
}

func (c ResearchContent) GetID() ID    { return c.id }
func (c *ResearchContent) SetID(id ID) { c.id = id }

func NewResearchContentTable() *chainbase.Table[ResearchContent, *ResearchContent] {
	return chainbase.NewTable[ResearchContent, *ResearchContent]("research_content",
		&chainbase.Index[ResearchContent, *ResearchContent]{
			Name:   "by_research",
			Unique: false,
			KeyFn: func(c *ResearchContent) []byte {
				return uint64Key(c.ResearchID)
			},
		},
	)
}

// Review is a peer review of a ResearchContent, carrying an expertise-token
// stake (spec §3 "Review", §4.4 "ECI").
type Review struct {
	id ID

	Author            string
	ResearchContentID uint64
	Content           string
	ExpertiseTokensAmount uint32
	IsPositive            bool
	Weight                int64 // last computed weight(r,d), cached for vote recomputation

	// Disciplines, AssessmentModelVersion and CriteriaScores carry the
	// review's structured assessment (spec §3 "Review"); ECI itself
	// (ResearchContent.ECI) still aggregates Weight alone, these exist so a
	// reviewer's per-criterion reasoning is retrievable, not just its net
	// weight.
	Disciplines            []uint32
	AssessmentModelVersion string
	CriteriaScores         map[string]int32

	CreatedAtUnix int64
}

func (r Review) GetID() ID   { return r.id }
func (r *Review) SetID(id ID) { r.id = id }

func NewReviewTable() *chainbase.Table[Review, *Review] {
	return chainbase.NewTable[Review, *Review]("review",
		&chainbase.Index[Review, *Review]{
			Name:   "by_content",
			Unique: false,
			KeyFn: func(r *Review) []byte {
				return uint64Key(r.ResearchContentID)
			},
		},
	)
}

// ReviewVote is a weighted up/down vote cast on a Review by another account
// (spec §3 "Review vote").
type ReviewVote struct {
	id ID

	ReviewID uint64
	Voter    string
	Weight   int64
}

func (v ReviewVote) GetID() ID   { return v.id }
func (v *ReviewVote) SetID(id ID) { v.id = id }

func NewReviewVoteTable() *chainbase.Table[ReviewVote, *ReviewVote] {
	return chainbase.NewTable[ReviewVote, *ReviewVote]("review_vote",
		&chainbase.Index[ReviewVote, *ReviewVote]{
			Name:   "by_review_voter",
			Unique: true,
			KeyFn: func(v *ReviewVote) []byte {
				return append(uint64Key(v.ReviewID), []byte(v.Voter)...)
			},
		},
	)
}

// ResearchGroup is the account-like container that owns one or more
// Research entities and votes as a unit via its members' weighted authority
// (spec §3 "Research group").
type ResearchGroup struct {
	id ID

	Account     string
	Permlink    string
	Description string

	Members []ResearchGroupMember

	CreatedAtUnix int64
}

// ResearchGroupMember is one member's share of a research group, used for
// proportional token and vote-weight distribution (spec §4.6's
// invite_member-shaped proposal handling).
type ResearchGroupMember struct {
	Account string
	Share   uint16 // basis points out of 10000
}

func (g ResearchGroup) GetID() ID   { return g.id }
func (g *ResearchGroup) SetID(id ID) { g.id = id }

func NewResearchGroupTable() *chainbase.Table[ResearchGroup, *ResearchGroup] {
	return chainbase.NewTable[ResearchGroup, *ResearchGroup]("research_group",
		&chainbase.Index[ResearchGroup, *ResearchGroup]{
			Name:   "by_account",
			Unique: true,
			KeyFn:  func(g *ResearchGroup) []byte { return []byte(g.Account) },
		},
	)
}
