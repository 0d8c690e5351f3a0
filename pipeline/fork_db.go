package pipeline

// blockEntry is one accepted block's undo session, kept open on the
// chainbase session stack so a later fork switch can pop it (spec §4.8
// "pop back to the fork point... each pop restores one undo session").
type blockEntry struct {
	digest  [32]byte
	number  uint64
	session chainbaseSession
}

// ForkDB tracks the chain of accepted blocks as a stack of open undo
// sessions — the candidate block tree a Graphene-style node keeps to
// support popping back to a fork point and re-applying an alternate
// branch (spec §4.8 step 1).
//
// chainbase's undo stack only allows the topmost session to be committed
// or undone (spec §4.1 "Lifecycle rules"), which maps cleanly onto
// popping back to a fork point (repeated Undo from the tip) but not onto
// selectively flattening only the entries at or below the irreversible
// cursor while leaving newer ones open — that would require committing a
// non-topmost frame. Flatten (below) therefore compacts the whole window
// at once rather than pruning incrementally; see DESIGN.md's
// `pipeline/fork_db.go` entry.
type ForkDB struct {
	chain []*blockEntry
}

// NewForkDB returns an empty fork database (genesis has not been pushed
// yet).
func NewForkDB() *ForkDB {
	return &ForkDB{}
}

// HeadDigest returns the current best chain's tip block header digest
// (what the next block's BlockHeader.Previous must equal), or the zero
// value before any block has been pushed.
func (f *ForkDB) HeadDigest() [32]byte {
	if len(f.chain) == 0 {
		return [32]byte{}
	}
	return f.chain[len(f.chain)-1].digest
}

// HeadNumber returns the current best chain's tip block number.
func (f *ForkDB) HeadNumber() uint64 {
	if len(f.chain) == 0 {
		return 0
	}
	return f.chain[len(f.chain)-1].number
}

// findForkPoint returns the index in f.chain of the entry whose digest
// matches previous, or -1 if previous is not a known ancestor.
func (f *ForkDB) findForkPoint(previous [32]byte) int {
	for i := len(f.chain) - 1; i >= 0; i-- {
		if f.chain[i].digest == previous {
			return i
		}
	}
	return -1
}

// isGenesisLink reports whether previous is the well-formed predecessor of
// the chain's first block (the zero digest, since ForkDB is still empty).
func (f *ForkDB) isGenesisLink(previous [32]byte) bool {
	return len(f.chain) == 0 && previous == [32]byte{}
}

// popTo undoes every block session above the entry at index forkPoint,
// returning the number of blocks discarded.
func (f *ForkDB) popTo(forkPoint int) (int, error) {
	popped := 0
	for len(f.chain)-1 > forkPoint {
		entry := f.chain[len(f.chain)-1]
		if err := entry.session.Undo(); err != nil {
			return popped, err
		}
		f.chain = f.chain[:len(f.chain)-1]
		popped++
	}
	return popped, nil
}

// push records a newly applied block's session as the new chain tip.
func (f *ForkDB) push(entry *blockEntry) {
	f.chain = append(f.chain, entry)
}

// Flatten collapses every currently open block session into the
// permanent base, discarding the ability to pop back past the current
// tip. Callers invoke this once confident no further reorg will reach
// behind last_irreversible_block_num (spec §4.7), trading fine-grained
// per-block revertibility for bounded memory growth of the undo stack.
func (f *ForkDB) Flatten() error {
	for len(f.chain) > 0 {
		top := f.chain[len(f.chain)-1]
		if err := top.session.Commit(); err != nil {
			return err
		}
		f.chain = f.chain[:len(f.chain)-1]
	}
	return nil
}
