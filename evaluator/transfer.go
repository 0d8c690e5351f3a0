package evaluator

import (
	"fmt"

	"deipchain/protocol"
	"deipchain/state"
)

func init() {
	Register(protocol.OpTransfer, evaluateTransfer)
	Register(protocol.OpTransferToCommonTokens, evaluateTransferToCommonTokens)
	Register(protocol.OpWithdrawCommonTokens, evaluateWithdrawCommonTokens)
	Register(protocol.OpSetWithdrawCommonTokensRoute, evaluateSetWithdrawCommonTokensRoute)
}

func getAccount(ctx *Context, name string) (*state.Account, error) {
	acc, err := ctx.Chain.Accounts.GetBy("by_name", []byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, name)
	}
	return acc, nil
}

func evaluateTransfer(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.Transfer)
	from, err := getAccount(ctx, op.From)
	if err != nil {
		return err
	}
	if _, err := getAccount(ctx, op.To); err != nil {
		return err
	}
	if from.Balance.Amount.Int64() < op.Amount.Amount.Int64() {
		return ErrInsufficientFunds
	}
	if err := ctx.Chain.Accounts.Modify(from.GetID(), func(a *state.Account) {
		a.Balance.Amount -= op.Amount.Amount
	}); err != nil {
		return err
	}
	to, _ := getAccount(ctx, op.To)
	if err := ctx.Chain.Accounts.Modify(to.GetID(), func(a *state.Account) {
		a.Balance.Amount += op.Amount.Amount
	}); err != nil {
		return err
	}
	ctx.emit("transfer", op)
	return nil
}

func evaluateTransferToCommonTokens(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.TransferToCommonTokens)
	from, err := getAccount(ctx, op.From)
	if err != nil {
		return err
	}
	to, err := getAccount(ctx, op.To)
	if err != nil {
		return err
	}
	if from.Balance.Amount.Int64() < op.Amount.Amount.Int64() {
		return ErrInsufficientFunds
	}
	if err := ctx.Chain.Accounts.Modify(from.GetID(), func(a *state.Account) {
		a.Balance.Amount -= op.Amount.Amount
	}); err != nil {
		return err
	}
	if err := ctx.Chain.Accounts.Modify(to.GetID(), func(a *state.Account) {
		a.CommonTokens.Amount += op.Amount.Amount
	}); err != nil {
		return err
	}
	ctx.emit("transfer_to_common_tokens", op)
	return nil
}

// vestingWithdrawPeriods is the number of periods a withdraw-common-tokens
// request is divided into: the request records Amount/vestingWithdrawPeriods
// as the account's WithdrawRate. No code in this module pays those periods
// out; the common tokens stay where they are.
const vestingWithdrawPeriods = 13

func evaluateWithdrawCommonTokens(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.WithdrawCommonTokens)
	acc, err := getAccount(ctx, op.Account)
	if err != nil {
		return err
	}
	if op.Amount.Amount.Int64() > acc.CommonTokens.Amount.Int64() {
		return ErrInsufficientFunds
	}
	perPeriod := op.Amount.Amount.Int64() / vestingWithdrawPeriods
	return ctx.Chain.Accounts.Modify(acc.GetID(), func(a *state.Account) {
		a.ToWithdraw = op.Amount
		a.WithdrawRate.Amount = protocol.SignedInt(perPeriod)
		a.NextVestingWithdrawal = ctx.NowUnix
		a.Withdrawn.Amount = 0
	})
}

func evaluateSetWithdrawCommonTokensRoute(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.SetWithdrawCommonTokensRoute)
	from, err := getAccount(ctx, op.From)
	if err != nil {
		return err
	}
	if _, err := getAccount(ctx, op.To); err != nil {
		return err
	}
	return ctx.Chain.Accounts.Modify(from.GetID(), func(a *state.Account) {
		for i, r := range a.WithdrawRoutes {
			if r.To == op.To {
				a.WithdrawRoutes = append(append([]state.WithdrawRoute{}, a.WithdrawRoutes[:i]...), a.WithdrawRoutes[i+1:]...)
				break
			}
		}
		if op.Percent > 0 {
			a.WithdrawRoutes = append(a.WithdrawRoutes, state.WithdrawRoute{
				To: op.To, Percent: op.Percent, AutoCommon: op.AutoCommon,
			})
		}
	})
}
