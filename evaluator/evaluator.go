// Package evaluator implements one pure evaluator per operation tag: a
// function from (chain state, operation) to state mutations, with no
// knowledge of transactions, blocks or signatures (spec §4.3). Evaluators
// assume RequiredAuths has already been checked by the authority layer.
package evaluator

import (
	"fmt"

	"deipchain/protocol"
	"deipchain/state"
)

// Context is the read/write handle an evaluator is given. It must be called
// inside an open chainbase session (pipeline opens one per pushed
// transaction, and one per applied block shared by all its transactions).
type Context struct {
	Chain   *state.Chain
	BlockNum uint64
	NowUnix int64

	virtualOps []VirtualOp
}

// VirtualOp records a side effect an evaluator produced that isn't itself a
// signed operation but is still worth surfacing to subscribers (spec §4.3
// "virtual operations"), e.g. a token sale completing or a budget paying
// out.
type VirtualOp struct {
	Kind    string
	Payload any
}

func (ctx *Context) emit(kind string, payload any) {
	ctx.virtualOps = append(ctx.virtualOps, VirtualOp{Kind: kind, Payload: payload})
}

// VirtualOps drains and returns every virtual operation emitted so far.
func (ctx *Context) VirtualOps() []VirtualOp {
	ops := ctx.virtualOps
	ctx.virtualOps = nil
	return ops
}

// Evaluator mutates chain state in response to one concrete operation.
type Evaluator func(ctx *Context, op protocol.Operation) error

var dispatch = map[protocol.OpTag]Evaluator{}

// Register adds an evaluator for tag; called from each evaluator file's
// init so the dispatch table is assembled without a central switch that
// would need editing for every new operation.
func Register(tag protocol.OpTag, fn Evaluator) {
	if _, exists := dispatch[tag]; exists {
		panic(fmt.Sprintf("evaluator: duplicate registration for tag %d", tag))
	}
	dispatch[tag] = fn
}

// Apply validates op and runs its registered evaluator.
func Apply(ctx *Context, op protocol.Operation) error {
	if err := op.Validate(); err != nil {
		return fmt.Errorf("evaluator: %w", err)
	}
	fn, ok := dispatch[op.Tag()]
	if !ok {
		return fmt.Errorf("evaluator: no evaluator registered for tag %d", op.Tag())
	}
	return fn(ctx, op)
}
