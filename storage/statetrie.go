package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"
)

// StateTrie is the account-state Merkle-Patricia trie whose root is
// recorded as dynamic_global_properties.state_root (spec §3). It opens its
// own go-ethereum-managed LevelDB handle (rawdb.NewLevelDBDatabase) rather
// than sharing the plain Database above, since triedb.Database needs a full
// ethdb.Database (batches, iterators) that a bare Put/Get store can't
// provide.
type StateTrie struct {
	disk   interface{ Close() error }
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
}

// OpenStateTrie opens the trie rooted at root (nil or empty for the empty
// trie) backed by a LevelDB database under dir.
func OpenStateTrie(dir string, root []byte) (*StateTrie, error) {
	diskdb, err := rawdb.NewLevelDBDatabase(dir, 0, 0, "deipchain/statetrie", false)
	if err != nil {
		return nil, fmt.Errorf("storage: open state trie database: %w", err)
	}
	trieDB := triedb.NewDatabase(diskdb, nil)
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(rootHash), trieDB)
	if err != nil {
		return nil, fmt.Errorf("storage: open state trie: %w", err)
	}
	return &StateTrie{disk: diskdb, trieDB: trieDB, trie: underlying, root: rootHash}, nil
}

// Get retrieves the value stored under key.
func (t *StateTrie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

// Update inserts or updates the value stored under key.
func (t *StateTrie) Update(key, value []byte) error {
	return t.trie.Update(key, value)
}

// Commit persists in-memory mutations to the backing trie database and
// returns the new root hash, recreating the underlying trie so it can be
// reused for the next flush (spec §4.1 "chainbase flush").
func (t *StateTrie) Commit(blockNumber uint64) (common.Hash, error) {
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, fmt.Errorf("storage: merge trie nodes: %w", err)
		}
		if err := t.trieDB.Update(newRoot, t.root, blockNumber, merged, nil); err != nil {
			return common.Hash{}, fmt.Errorf("storage: update trie database: %w", err)
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, fmt.Errorf("storage: commit trie database: %w", err)
		}
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(newRoot), t.trieDB)
	if err != nil {
		return common.Hash{}, fmt.Errorf("storage: reopen trie after commit: %w", err)
	}
	t.trie = underlying
	t.root = newRoot
	return newRoot, nil
}

// Root returns the last committed root hash.
func (t *StateTrie) Root() common.Hash { return t.root }

// Close releases the underlying database handle.
func (t *StateTrie) Close() error { return t.disk.Close() }
