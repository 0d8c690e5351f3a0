package protocol

import (
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"deipchain/authority"
)

// overrideEntry is one (operation tag, authority) pair. AccountUpdate.Overrides
// is rendered to a sorted slice of these for RLP, which has no native map
// support and no defined map iteration order (mirrors authority.weightEntry).
type overrideEntry struct {
	Tag  string
	Auth authority.Authority
}

type accountUpdateWire struct {
	Account   string
	Owner     *authority.Authority
	Memo      string
	Overrides []overrideEntry
}

func sortedOverrideEntries(m map[string]authority.Authority) []overrideEntry {
	out := make([]overrideEntry, 0, len(m))
	for tag, a := range m {
		out = append(out, overrideEntry{Tag: tag, Auth: a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

func (o AccountUpdate) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, accountUpdateWire{
		Account:   o.Account,
		Owner:     o.Owner,
		Memo:      o.Memo,
		Overrides: sortedOverrideEntries(o.Overrides),
	})
}

func (o *AccountUpdate) DecodeRLP(s *rlp.Stream) error {
	var wire accountUpdateWire
	if err := s.Decode(&wire); err != nil {
		return err
	}
	o.Account = wire.Account
	o.Owner = wire.Owner
	o.Memo = wire.Memo
	if len(wire.Overrides) > 0 {
		o.Overrides = make(map[string]authority.Authority, len(wire.Overrides))
		for _, e := range wire.Overrides {
			o.Overrides[e.Tag] = e.Auth
		}
	}
	return nil
}

// criterionScoreEntry is one (criterion name, score) pair; see overrideEntry.
type criterionScoreEntry struct {
	Criterion string
	Score     int32
}

type reviewCreateWire struct {
	Author                string
	ResearchContentID     uint64
	Content               string
	ExpertiseTokensAmount uint32
	IsPositive            bool
	Disciplines           []uint32
	AssessmentModelVersion string
	CriteriaScores        []criterionScoreEntry
}

func sortedCriteriaScores(m map[string]int32) []criterionScoreEntry {
	out := make([]criterionScoreEntry, 0, len(m))
	for k, v := range m {
		out = append(out, criterionScoreEntry{Criterion: k, Score: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Criterion < out[j].Criterion })
	return out
}

func (o ReviewCreate) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, reviewCreateWire{
		Author:                 o.Author,
		ResearchContentID:      o.ResearchContentID,
		Content:                o.Content,
		ExpertiseTokensAmount:  o.ExpertiseTokensAmount,
		IsPositive:             o.IsPositive,
		Disciplines:            o.Disciplines,
		AssessmentModelVersion: o.AssessmentModelVersion,
		CriteriaScores:         sortedCriteriaScores(o.CriteriaScores),
	})
}

func (o *ReviewCreate) DecodeRLP(s *rlp.Stream) error {
	var wire reviewCreateWire
	if err := s.Decode(&wire); err != nil {
		return err
	}
	o.Author = wire.Author
	o.ResearchContentID = wire.ResearchContentID
	o.Content = wire.Content
	o.ExpertiseTokensAmount = wire.ExpertiseTokensAmount
	o.IsPositive = wire.IsPositive
	o.Disciplines = wire.Disciplines
	o.AssessmentModelVersion = wire.AssessmentModelVersion
	if len(wire.CriteriaScores) > 0 {
		o.CriteriaScores = make(map[string]int32, len(wire.CriteriaScores))
		for _, e := range wire.CriteriaScores {
			o.CriteriaScores[e.Criterion] = e.Score
		}
	}
	return nil
}
