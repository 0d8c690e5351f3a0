package evaluator

import (
	"deipchain/protocol"
	"deipchain/state"
)

func init() {
	Register(protocol.OpResearchTokenSaleCreate, evaluateResearchTokenSaleCreate)
	Register(protocol.OpResearchTokenSaleContribute, evaluateResearchTokenSaleContribute)
}

func evaluateResearchTokenSaleCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ResearchTokenSaleCreate)
	research, err := getResearchByGroupAndID(ctx, op.ResearchGroup, op.ResearchID)
	if err != nil {
		return err
	}
	status := state.TokenSaleInactive
	if int64(op.StartTimeUnix) <= ctx.NowUnix {
		status = state.TokenSaleActive
	}
	_, err = ctx.Chain.TokenSales.Create(func(s *state.ResearchTokenSale) {
		s.ResearchID = uint64(research.GetID())
		s.Owner = op.ResearchGroup
		s.StartTimeUnix = op.StartTimeUnix.Int64()
		s.EndTimeUnix = op.EndTimeUnix.Int64()
		s.SoftCap = op.SoftCap.Amount.Int64()
		s.HardCap = op.HardCap.Amount.Int64()
		s.SecurityTokensOffered = int64(op.SecurityTokensOffered)
		s.Status = status
	})
	return err
}

// saleContributions returns every contribution recorded against saleID.
func saleContributions(ctx *Context, saleID uint64) []*state.ResearchTokenSaleContribution {
	var out []*state.ResearchTokenSaleContribution
	ctx.Chain.TokenSaleContributions.Range(func(c *state.ResearchTokenSaleContribution) bool {
		if c.TokenSaleID == saleID {
			out = append(out, c)
		}
		return true
	})
	return out
}

// distributeAndFinishTokenSale atomically issues sale's security tokens
// pro-rata across every contribution and marks the sale finished (spec
// §4.5 "transition to collecting_funds atomically issues security tokens
// pro-rata", spec §8 scenario 3).
func distributeAndFinishTokenSale(ctx *Context, sale *state.ResearchTokenSale) error {
	contributions := saleContributions(ctx, uint64(sale.GetID()))
	for _, c := range contributions {
		if sale.TotalRaised == 0 {
			continue
		}
		share := c.Amount * sale.SecurityTokensOffered / sale.TotalRaised
		key := append(uint64Key(sale.ResearchID), []byte(c.Owner)...)
		existing, err := ctx.Chain.SecurityTokenBalances.GetBy("by_research_owner", key)
		if err == nil {
			if err := ctx.Chain.SecurityTokenBalances.Modify(existing.GetID(), func(b *state.SecurityTokenBalance) {
				b.Amount += share
			}); err != nil {
				return err
			}
		} else {
			if _, err := ctx.Chain.SecurityTokenBalances.Create(func(b *state.SecurityTokenBalance) {
				b.ResearchID = sale.ResearchID
				b.Owner = c.Owner
				b.Amount = share
			}); err != nil {
				return err
			}
		}
	}
	if err := ctx.Chain.TokenSales.Modify(sale.GetID(), func(s *state.ResearchTokenSale) {
		s.Status = state.TokenSaleFinished
	}); err != nil {
		return err
	}
	ctx.emit("research_token_sale_finished", sale.GetID())
	return nil
}

// refundAndExpireTokenSale atomically credits every contributor's balance
// back and marks the sale expired (spec §4.5 "transition to refunding
// atomically credits each contributor the amount they contributed").
func refundAndExpireTokenSale(ctx *Context, sale *state.ResearchTokenSale) error {
	contributions := saleContributions(ctx, uint64(sale.GetID()))
	for _, c := range contributions {
		owner, err := getAccount(ctx, c.Owner)
		if err != nil {
			continue
		}
		if err := ctx.Chain.Accounts.Modify(owner.GetID(), func(a *state.Account) {
			a.Balance.Amount += protocol.SignedInt(c.Amount)
		}); err != nil {
			return err
		}
	}
	if err := ctx.Chain.TokenSales.Modify(sale.GetID(), func(s *state.ResearchTokenSale) {
		s.Status = state.TokenSaleExpired
	}); err != nil {
		return err
	}
	ctx.emit("research_token_sale_refunded", sale.GetID())
	return nil
}

func evaluateResearchTokenSaleContribute(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.ResearchTokenSaleContribute)
	if _, err := getAccount(ctx, op.Owner); err != nil {
		return err
	}
	sale, err := ctx.Chain.TokenSales.Get(state.ID(op.TokenSaleID))
	if err != nil {
		return ErrTokenSaleNotFound
	}
	if sale.Status != state.TokenSaleActive && sale.Status != state.TokenSaleInactive {
		return ErrTokenSaleNotActive
	}
	if ctx.NowUnix >= sale.EndTimeUnix {
		return ErrTokenSaleNotActive
	}

	newTotal := sale.TotalRaised + op.Amount.Amount.Int64()
	if newTotal > sale.HardCap {
		return ErrTokenSaleHardCapExceeded
	}

	key := append(uint64Key(op.TokenSaleID), []byte(op.Owner)...)
	existing, err := ctx.Chain.TokenSaleContributions.GetBy("by_sale_owner", key)
	if err == nil {
		if err := ctx.Chain.TokenSaleContributions.Modify(existing.GetID(), func(c *state.ResearchTokenSaleContribution) {
			c.Amount += op.Amount.Amount.Int64()
		}); err != nil {
			return err
		}
	} else {
		if _, err := ctx.Chain.TokenSaleContributions.Create(func(c *state.ResearchTokenSaleContribution) {
			c.TokenSaleID = op.TokenSaleID
			c.Owner = op.Owner
			c.Amount = op.Amount.Amount.Int64()
		}); err != nil {
			return err
		}
	}

	newStatus := sale.Status
	if newStatus == state.TokenSaleInactive {
		newStatus = state.TokenSaleActive
	}
	reachedHardCap := newTotal >= sale.HardCap
	if reachedHardCap {
		newStatus = state.TokenSaleCollectingFunds
	}
	if err := ctx.Chain.TokenSales.Modify(sale.GetID(), func(s *state.ResearchTokenSale) {
		s.TotalRaised = newTotal
		s.Status = newStatus
	}); err != nil {
		return err
	}
	ctx.emit("research_token_sale_contributed", op)

	if reachedHardCap {
		sale, err = ctx.Chain.TokenSales.Get(sale.GetID())
		if err != nil {
			return err
		}
		return distributeAndFinishTokenSale(ctx, sale)
	}
	return nil
}

// processTokenSaleExpiration is the tick-time state transition for a sale
// whose window has closed (spec §4.5): at or above soft cap it transitions
// through collecting_funds, atomically issuing security tokens pro-rata,
// to finished; below soft cap it transitions through refunding, atomically
// crediting every contributor back, to expired. A sale already moved to
// collecting_funds early (hard cap reached mid-window, handled in
// evaluateResearchTokenSaleContribute) is already finished by the time its
// window closes, so this only ever drives the still-active case.
func processTokenSaleExpiration(ctx *Context, sale *state.ResearchTokenSale) error {
	if sale.Status != state.TokenSaleActive && sale.Status != state.TokenSaleInactive {
		return nil
	}
	if ctx.NowUnix < sale.EndTimeUnix {
		return nil
	}
	if sale.TotalRaised >= sale.SoftCap {
		if err := ctx.Chain.TokenSales.Modify(sale.GetID(), func(s *state.ResearchTokenSale) {
			s.Status = state.TokenSaleCollectingFunds
		}); err != nil {
			return err
		}
		sale, err := ctx.Chain.TokenSales.Get(sale.GetID())
		if err != nil {
			return err
		}
		return distributeAndFinishTokenSale(ctx, sale)
	}
	if err := ctx.Chain.TokenSales.Modify(sale.GetID(), func(s *state.ResearchTokenSale) {
		s.Status = state.TokenSaleRefunding
	}); err != nil {
		return err
	}
	sale, err := ctx.Chain.TokenSales.Get(sale.GetID())
	if err != nil {
		return err
	}
	return refundAndExpireTokenSale(ctx, sale)
}

// ProcessExpiredTokenSales is called once per block by the pipeline to drive
// the sale state machine forward for sales whose window has closed.
func ProcessExpiredTokenSales(ctx *Context) error {
	var sales []*state.ResearchTokenSale
	ctx.Chain.TokenSales.Range(func(s *state.ResearchTokenSale) bool {
		sales = append(sales, s)
		return true
	})
	for _, s := range sales {
		if err := processTokenSaleExpiration(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
