package state

import "deipchain/chainbase"

// Budget is a per-block payout stream funding a research group or the
// network's root/genesis budget owner, grounded on
// original_source/libraries/chain/dbs_budget.cpp: balance decreases by
// PerBlock every block while balance > 0 and PerBlock > 0.
type Budget struct {
	id ID

	Owner    string
	Balance  int64
	PerBlock int64

	LastAllocatedBlock uint64
	CreatedAtUnix      int64
}

func (b Budget) GetID() ID   { return b.id }
func (b *Budget) SetID(id ID) { b.id = id }

// Active reports whether the budget still pays out, mirroring
// dbs_budget.cpp's exhaustion check.
func (b *Budget) Active() bool {
	return b.PerBlock > 0 && b.Balance > 0
}

// Allocate pays out one block's worth of budget, capping at the remaining
// balance, and returns the amount paid.
func (b *Budget) Allocate(blockNum uint64) int64 {
	if !b.Active() {
		return 0
	}
	amount := b.PerBlock
	if amount > b.Balance {
		amount = b.Balance
	}
	b.Balance -= amount
	b.LastAllocatedBlock = blockNum
	return amount
}

func NewBudgetTable() *chainbase.Table[Budget, *Budget] {
	return chainbase.NewTable[Budget, *Budget]("budget",
		&chainbase.Index[Budget, *Budget]{
			Name:   "by_owner",
			Unique: false,
			KeyFn:  func(b *Budget) []byte { return []byte(b.Owner) },
		},
	)
}
