package evaluator

import (
	"deipchain/protocol"
	"deipchain/state"
)

func init() {
	Register(protocol.OpWitnessUpdate, evaluateWitnessUpdate)
	Register(protocol.OpAccountWitnessVote, evaluateAccountWitnessVote)
	Register(protocol.OpAccountWitnessProxy, evaluateAccountWitnessProxy)
}

func evaluateWitnessUpdate(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.WitnessUpdate)
	if _, err := getAccount(ctx, op.Owner); err != nil {
		return err
	}
	existing, err := ctx.Chain.Witnesses.GetBy("by_owner", []byte(op.Owner))
	if err != nil {
		_, createErr := ctx.Chain.Witnesses.Create(func(w *state.Witness) {
			w.Owner = op.Owner
			w.URL = op.URL
			w.SigningKey = op.SigningKey
			w.AccountCreationFee = op.Props.AccountCreationFee
			w.MaximumBlockSize = op.Props.MaximumBlockSize
			w.CreatedAtUnix = ctx.NowUnix
			w.Running = true
		})
		return createErr
	}
	return ctx.Chain.Witnesses.Modify(existing.GetID(), func(w *state.Witness) {
		w.URL = op.URL
		w.SigningKey = op.SigningKey
		w.AccountCreationFee = op.Props.AccountCreationFee
		w.MaximumBlockSize = op.Props.MaximumBlockSize
	})
}

func evaluateAccountWitnessVote(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.AccountWitnessVote)
	if _, err := getAccount(ctx, op.Account); err != nil {
		return err
	}
	witness, err := ctx.Chain.Witnesses.GetBy("by_owner", []byte(op.Witness))
	if err != nil {
		return ErrWitnessNotFound
	}

	existing, err := ctx.Chain.WitnessVotes.GetBy("by_witness_account", witnessVoteKeyFor(op.Witness, op.Account))
	hasVote := err == nil

	if op.Approve {
		if hasVote {
			return nil
		}
		if _, err := ctx.Chain.WitnessVotes.Create(func(v *state.WitnessVote) {
			v.Witness = op.Witness
			v.Account = op.Account
		}); err != nil {
			return err
		}
		return ctx.Chain.Witnesses.Modify(witness.GetID(), func(w *state.Witness) { w.Votes++ })
	}
	if !hasVote {
		return nil
	}
	if err := ctx.Chain.WitnessVotes.Remove(existing.GetID()); err != nil {
		return err
	}
	return ctx.Chain.Witnesses.Modify(witness.GetID(), func(w *state.Witness) {
		if w.Votes > 0 {
			w.Votes--
		}
	})
}

func witnessVoteKeyFor(witness, account string) []byte {
	return append([]byte(witness+"\x00"), []byte(account)...)
}

func evaluateAccountWitnessProxy(ctx *Context, operation protocol.Operation) error {
	op := operation.(protocol.AccountWitnessProxy)
	acc, err := getAccount(ctx, op.Account)
	if err != nil {
		return err
	}
	return ctx.Chain.Accounts.Modify(acc.GetID(), func(a *state.Account) {
		a.Proxy = op.Proxy
	})
}
