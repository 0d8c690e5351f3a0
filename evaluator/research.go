package evaluator

import (
	"math"

	"deipchain/protocol"
	"deipchain/state"
)

func init() {
	Register(protocol.OpResearchGroupCreate, evaluateResearchGroupCreate)
	Register(protocol.OpResearchCreate, evaluateResearchCreate)
	Register(protocol.OpResearchUpdate, evaluateResearchUpdate)
	Register(protocol.OpResearchContentCreate, evaluateResearchContentCreate)
	Register(protocol.OpReviewCreate, evaluateReviewCreate)
	Register(protocol.OpReviewVote, evaluateReviewVoteOp)
}

// ECI influence constants (spec §4.4). Chain-wide, not currently
// configurable per-genesis.
const (
	ciEa           = 1000.0
	ciVa           = 200.0
	ciCuratorBonus = 50.0
)

func evaluateResearchGroupCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ResearchGroupCreate)
	if _, err := getAccount(ctx, op.Creator); err != nil {
		return err
	}
	if _, err := ctx.Chain.ResearchGroups.GetBy("by_account", []byte(op.Group)); err == nil {
		return ErrResearchGroupExists
	}
	_, err := ctx.Chain.ResearchGroups.Create(func(g *state.ResearchGroup) {
		g.Account = op.Group
		g.Permlink = op.Permlink
		g.Description = op.Description
		g.Members = []state.ResearchGroupMember{{Account: op.Creator, Share: 10000}}
		g.CreatedAtUnix = ctx.NowUnix
	})
	return err
}

func getResearchGroup(ctx *Context, account string) (*state.ResearchGroup, error) {
	g, err := ctx.Chain.ResearchGroups.GetBy("by_account", []byte(account))
	if err != nil {
		return nil, ErrResearchGroupNotFound
	}
	return g, nil
}

func evaluateResearchCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ResearchCreate)
	if _, err := getResearchGroup(ctx, op.ResearchGroup); err != nil {
		return err
	}
	_, err := ctx.Chain.Research.Create(func(r *state.Research) {
		r.ResearchGroup = op.ResearchGroup
		r.Title = op.Title
		r.Abstract = op.Abstract
		r.Disciplines = append([]uint32{}, op.Disciplines...)
		r.IsFinished = op.IsFinished
		r.CreatedAtUnix = ctx.NowUnix
	})
	return err
}

func getResearchByGroupAndID(ctx *Context, group string, researchID uint64) (*state.Research, error) {
	r, err := ctx.Chain.Research.Get(state.ID(researchID))
	if err != nil || r.ResearchGroup != group {
		return nil, ErrResearchNotFound
	}
	return r, nil
}

func evaluateResearchUpdate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ResearchUpdate)
	research, err := getResearchByGroupAndID(ctx, op.ResearchGroup, op.ResearchID)
	if err != nil {
		return err
	}
	return ctx.Chain.Research.Modify(research.GetID(), func(r *state.Research) {
		if op.Title != "" {
			r.Title = op.Title
		}
		if op.Abstract != "" {
			r.Abstract = op.Abstract
		}
		r.IsFinished = op.IsFinished
	})
}

func evaluateResearchContentCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ResearchContentCreate)
	research, err := getResearchByGroupAndID(ctx, op.ResearchGroup, op.ResearchID)
	if err != nil {
		return err
	}
	_, err = ctx.Chain.ResearchContent.Create(func(c *state.ResearchContent) {
		c.ResearchID = uint64(research.GetID())
		c.ContentType = op.ContentType
		c.Title = op.Title
		c.ContentHash = op.ContentHash
		c.Authors = append([]string{}, op.Authors...)
		c.CreatedAtUnix = ctx.NowUnix
	})
	return err
}

// reviewsOfContent returns every Review targeting contentID.
func reviewsOfContent(ctx *Context, contentID uint64) []*state.Review {
	var out []*state.Review
	ctx.Chain.Reviews.Range(func(r *state.Review) bool {
		if r.ResearchContentID == contentID {
			out = append(out, r)
		}
		return true
	})
	return out
}

// reviewWeight computes weight(r,d) per spec §4.4 given the reviewer's
// expertise commitment, the mean commitment across the content's reviewers,
// the count of reviews on the content, and the vote count on this review.
func reviewWeight(isPositive bool, eR, eAvg float64, n int, votes int64) int64 {
	polarity := 1.0
	if !isPositive {
		polarity = -1.0
	}
	if n <= 0 {
		n = 1
	}
	if eR == 0 {
		eR = 1
	}
	influence := (1.0/float64(n))*ciEa*(eAvg/eR) + ciVa*(1.0-1.0/float64(n))
	w := math.Round(polarity*influence*eR) + polarity*float64(votes)*ciCuratorBonus
	return int64(w)
}

func evaluateReviewCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ReviewCreate)
	if _, err := getAccount(ctx, op.Author); err != nil {
		return err
	}
	content, err := ctx.Chain.ResearchContent.Get(state.ID(op.ResearchContentID))
	if err != nil {
		return ErrResearchNotFound
	}

	existing := reviewsOfContent(ctx, op.ResearchContentID)
	sum := float64(op.ExpertiseTokensAmount)
	for _, r := range existing {
		sum += float64(r.ExpertiseTokensAmount)
	}
	n := len(existing) + 1
	eAvg := sum / float64(n)

	weight := reviewWeight(op.IsPositive, float64(op.ExpertiseTokensAmount), eAvg, n, 0)

	review, err := ctx.Chain.Reviews.Create(func(r *state.Review) {
		r.Author = op.Author
		r.ResearchContentID = op.ResearchContentID
		r.Content = op.Content
		r.ExpertiseTokensAmount = op.ExpertiseTokensAmount
		r.IsPositive = op.IsPositive
		r.Disciplines = append([]uint32{}, op.Disciplines...)
		r.AssessmentModelVersion = op.AssessmentModelVersion
		if op.CriteriaScores != nil {
			r.CriteriaScores = make(map[string]int32, len(op.CriteriaScores))
			for k, v := range op.CriteriaScores {
				r.CriteriaScores[k] = v
			}
		}
		r.Weight = weight
		r.CreatedAtUnix = ctx.NowUnix
	})
	if err != nil {
		return err
	}

	if err := ctx.Chain.ResearchContent.Modify(content.GetID(), func(c *state.ResearchContent) {
		c.ECI += weight
	}); err != nil {
		return err
	}
	if err := ctx.Chain.Research.Modify(state.ID(content.ResearchID), func(r *state.Research) {
		r.ECI += weight
	}); err != nil {
		return err
	}
	ctx.emit("research_content_eci_history", map[string]any{
		"content_id": review.ResearchContentID,
		"previous":   content.ECI,
		"new":        content.ECI + weight,
		"timestamp":  ctx.NowUnix,
		"source_id":  review.GetID(),
	})
	return nil
}

func evaluateReviewVoteOp(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ReviewVote)
	if _, err := getAccount(ctx, op.Voter); err != nil {
		return err
	}
	review, err := ctx.Chain.Reviews.Get(state.ID(op.ReviewID))
	if err != nil {
		return ErrResearchNotFound
	}
	content, err := ctx.Chain.ResearchContent.Get(state.ID(review.ResearchContentID))
	if err != nil {
		return ErrResearchNotFound
	}

	existingKey := append(uint64Key(op.ReviewID), []byte(op.Voter)...)
	if _, err := ctx.Chain.ReviewVotes.GetBy("by_review_voter", existingKey); err == nil {
		return ErrAlreadyVoted
	}

	allReviews := reviewsOfContent(ctx, review.ResearchContentID)
	sum := 0.0
	for _, r := range allReviews {
		sum += float64(r.ExpertiseTokensAmount)
	}
	n := len(allReviews)
	eAvg := sum / float64(n)

	votes := countReviewVotes(ctx, op.ReviewID) + 1
	newWeight := reviewWeight(review.IsPositive, float64(review.ExpertiseTokensAmount), eAvg, n, votes)
	delta := newWeight - review.Weight

	if _, err := ctx.Chain.ReviewVotes.Create(func(v *state.ReviewVote) {
		v.ReviewID = op.ReviewID
		v.Voter = op.Voter
		v.Weight = op.Weight.Int64()
	}); err != nil {
		return err
	}
	if err := ctx.Chain.Reviews.Modify(review.GetID(), func(r *state.Review) {
		r.Weight = newWeight
	}); err != nil {
		return err
	}
	if err := ctx.Chain.ResearchContent.Modify(content.GetID(), func(c *state.ResearchContent) {
		c.ECI += delta
	}); err != nil {
		return err
	}
	return ctx.Chain.Research.Modify(state.ID(content.ResearchID), func(r *state.Research) {
		r.ECI += delta
	})
}

func countReviewVotes(ctx *Context, reviewID uint64) int64 {
	var count int64
	ctx.Chain.ReviewVotes.Range(func(v *state.ReviewVote) bool {
		if v.ReviewID == reviewID {
			count++
		}
		return true
	})
	return count
}

func uint64Key(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
	return b[:]
}
