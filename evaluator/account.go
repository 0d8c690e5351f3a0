package evaluator

import (
	"deipchain/authority"
	"deipchain/protocol"
	"deipchain/state"
)

func init() {
	Register(protocol.OpAccountCreate, evaluateAccountCreate)
	Register(protocol.OpAccountUpdate, evaluateAccountUpdate)
}

func evaluateAccountCreate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.AccountCreate)
	if _, err := getAccount(ctx, op.Creator); err != nil {
		return err
	}
	if _, err := ctx.Chain.Accounts.GetBy("by_name", []byte(op.NewAccount)); err == nil {
		return ErrAccountExists
	}
	owner := state.AuthorityRecord{
		WeightThreshold: op.Owner.WeightThreshold,
		AccountWeights:  map[string]uint16{},
		KeyWeights:      map[string]uint16{},
	}
	for acc, w := range op.Owner.AccountWeights {
		owner.AccountWeights[acc] = w
	}
	for key, w := range op.Owner.KeyWeights {
		owner.KeyWeights[key] = w
	}
	active := owner
	if op.Active != "" {
		active = state.AuthorityRecord{
			WeightThreshold: 1,
			AccountWeights:  map[string]uint16{},
			KeyWeights:      map[string]uint16{op.Active: 1},
		}
	}
	_, err := ctx.Chain.Accounts.Create(func(a *state.Account) {
		a.Name = op.NewAccount
		a.Owner = owner
		a.Active = active
		a.CreatedAtUnix = ctx.NowUnix
	})
	if err != nil {
		return err
	}
	ctx.emit("account_create", op)
	return nil
}

func toAuthorityRecord(a authority.Authority) state.AuthorityRecord {
	rec := state.AuthorityRecord{
		WeightThreshold: a.WeightThreshold,
		AccountWeights:  map[string]uint16{},
		KeyWeights:      map[string]uint16{},
	}
	for acc, w := range a.AccountWeights {
		rec.AccountWeights[acc] = w
	}
	for k, w := range a.KeyWeights {
		rec.KeyWeights[k] = w
	}
	return rec
}

func evaluateAccountUpdate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.AccountUpdate)
	acc, err := getAccount(ctx, op.Account)
	if err != nil {
		return err
	}
	if op.Owner == nil && op.Overrides == nil {
		return nil
	}
	return ctx.Chain.Accounts.Modify(acc.GetID(), func(a *state.Account) {
		if op.Owner != nil {
			a.Owner = toAuthorityRecord(*op.Owner)
		}
		if op.Overrides != nil {
			overrides := make(map[string]state.AuthorityRecord, len(a.ActiveOverrides)+len(op.Overrides))
			for tag, rec := range a.ActiveOverrides {
				overrides[tag] = rec
			}
			for tag, auth := range op.Overrides {
				overrides[tag] = toAuthorityRecord(auth)
			}
			a.ActiveOverrides = overrides
		}
	})
}
