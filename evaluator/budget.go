package evaluator

import (
	"deipchain/protocol"
	"deipchain/state"
)

// ProcessBudgets pays out one block's worth of every active budget into its
// owning account's balance, grounded on
// original_source/libraries/chain/dbs_budget.cpp: budgets decrement by
// PerBlock every block until exhausted. Called once per block by the
// pipeline, after transactions have applied.
func ProcessBudgets(ctx *Context) error {
	var budgets []*state.Budget
	ctx.Chain.Budgets.Range(func(b *state.Budget) bool {
		budgets = append(budgets, b)
		return true
	})
	for _, b := range budgets {
		if !b.Active() {
			continue
		}
		owner, err := getAccount(ctx, b.Owner)
		if err != nil {
			continue
		}
		var paid int64
		if err := ctx.Chain.Budgets.Modify(b.GetID(), func(row *state.Budget) {
			paid = row.Allocate(ctx.BlockNum)
		}); err != nil {
			return err
		}
		if paid == 0 {
			continue
		}
		if err := ctx.Chain.Accounts.Modify(owner.GetID(), func(a *state.Account) {
			a.Balance.Amount += protocol.SignedInt(paid)
		}); err != nil {
			return err
		}
		ctx.emit("budget_payout", struct {
			Owner  string
			Amount int64
		}{Owner: b.Owner, Amount: paid})
	}
	return nil
}
