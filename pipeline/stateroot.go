package pipeline

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"deipchain/state"
	"deipchain/storage"
)

// accountLeaf is the trie value stored per account, a compact summary of the
// balances and authority thresholds that feed into state_root (spec §3
// "dynamic_global_properties", §4.1 "chainbase flush"). It is deliberately
// smaller than the full chainbase Account row: state_root attests to
// balances and authority weight, not to every mutable field.
type accountLeaf struct {
	Balance         []byte
	CommonTokens    []byte
	OwnerThreshold  uint32
	ActiveThreshold uint32
}

// flushStateRoot recomputes the account state trie from the current
// chainbase snapshot and writes the resulting root into
// Chain.GlobalProperties.StateRoot (spec §3 "state_root"). It is a no-op
// when the pipeline was not given a trie (e.g. an in-memory test pipeline).
func (p *Pipeline) flushStateRoot(blockNumber uint64) error {
	if p.trie == nil {
		return nil
	}
	var flushErr error
	p.Chain.Accounts.Range(func(a *state.Account) bool {
		leaf, err := encodeAccountLeaf(a)
		if err != nil {
			flushErr = err
			return false
		}
		key := crypto.Keccak256([]byte(a.Name))
		if err := p.trie.Update(key, leaf); err != nil {
			flushErr = fmt.Errorf("pipeline: update state trie for %q: %w", a.Name, err)
			return false
		}
		return true
	})
	if flushErr != nil {
		return flushErr
	}
	root, err := p.trie.Commit(blockNumber)
	if err != nil {
		return fmt.Errorf("pipeline: commit state trie: %w", err)
	}
	p.Chain.GlobalProperties.StateRoot = [32]byte(root)
	return nil
}

func encodeAccountLeaf(a *state.Account) ([]byte, error) {
	bal := uint256.NewInt(0)
	if a.Balance.Amount > 0 {
		bal = uint256.NewInt(uint64(a.Balance.Amount))
	}
	common := uint256.NewInt(0)
	if a.CommonTokens.Amount > 0 {
		common = uint256.NewInt(uint64(a.CommonTokens.Amount))
	}
	leaf := accountLeaf{
		Balance:         bal.Bytes(),
		CommonTokens:    common.Bytes(),
		OwnerThreshold:  a.Owner.WeightThreshold,
		ActiveThreshold: a.Active.WeightThreshold,
	}
	enc, err := rlp.EncodeToBytes(leaf)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encode account leaf for %q: %w", a.Name, err)
	}
	return enc, nil
}
