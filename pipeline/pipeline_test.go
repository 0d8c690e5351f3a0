package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deipchain/config"
	"deipchain/crypto"
	"deipchain/protocol"
	"deipchain/state"
)

const testChainID = uint64(1)

// newTestWitness seeds a chain with one account/witness pair named owner,
// signed by a freshly generated key, and returns the key so tests can sign
// blocks on the witness's behalf.
func newTestWitness(t *testing.T, chain *state.Chain, owner string) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	signingKey := key.PubKey().CompressedHex()

	session := chain.DB.Begin()
	_, err = chain.Accounts.Create(func(a *state.Account) {
		a.Name = owner
		a.Owner = state.AuthorityRecord{WeightThreshold: 1, AccountWeights: map[string]uint16{}, KeyWeights: map[string]uint16{signingKey: 1}}
		a.Active = a.Owner
	})
	require.NoError(t, err)
	_, err = chain.Witnesses.Create(func(w *state.Witness) {
		w.Owner = owner
		w.SigningKey = signingKey
		w.Running = true
	})
	require.NoError(t, err)
	require.NoError(t, session.Commit())
	return key
}

func newTestPipeline(t *testing.T, skip config.SkipFlags) (*Pipeline, *crypto.PrivateKey) {
	t.Helper()
	chain := state.NewChain()
	chain.GlobalProperties.HeadBlockTimeUnix = 1_700_000_004 // a multiple of BlockIntervalSeconds (3)
	key := newTestWitness(t, chain, "alice")
	p := New(chain, testChainID, skip)
	return p, key
}

// signedGenesisChildBlock builds block 1 extending the zero previous-digest
// genesis link, one slot after the pipeline's current head block time,
// witnessed and signed by key.
func signedGenesisChildBlock(t *testing.T, p *Pipeline, key *crypto.PrivateKey, witness string) *protocol.Block {
	t.Helper()
	block := &protocol.Block{
		BlockHeader: protocol.BlockHeader{
			Previous:              [32]byte{},
			Number:                1,
			TimestampUnix:         protocol.SignedInt(p.Chain.GlobalProperties.HeadBlockTimeUnix + 3),
			Witness:               witness,
			TransactionMerkleRoot: protocol.MerkleRoot(nil),
		},
	}
	digest, err := block.Digest()
	require.NoError(t, err)
	sig, err := key.Sign(digest)
	require.NoError(t, err)
	block.WitnessSignature = sig
	return block
}

func TestPushBlockAppliesGenesisChild(t *testing.T) {
	p, key := newTestPipeline(t, config.SkipFlags{})
	block := signedGenesisChildBlock(t, p, key, "alice")

	err := p.PushBlock(context.Background(), block)
	require.NoError(t, err)

	require.Equal(t, uint64(1), p.Chain.GlobalProperties.HeadBlockNumber)
	require.Equal(t, "alice", p.Chain.GlobalProperties.CurrentWitness)
	require.Equal(t, 1, len(p.fork.chain))

	witness, err := p.Chain.Witnesses.GetBy("by_owner", []byte("alice"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), witness.LastConfirmedBlockNum)
}

func TestPushBlockRejectsUnlinkableBlock(t *testing.T) {
	p, key := newTestPipeline(t, config.SkipFlags{})
	block := signedGenesisChildBlock(t, p, key, "alice")
	block.Previous = [32]byte{0xFF}

	err := p.PushBlock(context.Background(), block)
	require.ErrorIs(t, err, ErrUnlinkableBlock)
}

func TestPushBlockRejectsBadMerkleRoot(t *testing.T) {
	p, key := newTestPipeline(t, config.SkipFlags{})
	block := signedGenesisChildBlock(t, p, key, "alice")
	block.TransactionMerkleRoot = [32]byte{0x01}

	err := p.PushBlock(context.Background(), block)
	require.ErrorIs(t, err, ErrBadMerkleRoot)
}

func TestPushBlockRejectsBadWitnessSignature(t *testing.T) {
	p, key := newTestPipeline(t, config.SkipFlags{})
	block := signedGenesisChildBlock(t, p, key, "alice")
	block.WitnessSignature[0] ^= 0xFF

	err := p.PushBlock(context.Background(), block)
	require.ErrorIs(t, err, ErrBadWitnessSignature)
}

func TestPushBlockRejectsUnknownWitness(t *testing.T) {
	p, key := newTestPipeline(t, config.SkipFlags{})
	block := signedGenesisChildBlock(t, p, key, "alice")
	block.Witness = "carol"

	err := p.PushBlock(context.Background(), block)
	require.ErrorIs(t, err, ErrBadWitnessSignature)
}

func TestPushBlockHonorsSkipWitnessSignature(t *testing.T) {
	p, key := newTestPipeline(t, config.SkipFlags{SkipWitnessSignature: true})
	block := signedGenesisChildBlock(t, p, key, "alice")
	block.WitnessSignature = nil

	err := p.PushBlock(context.Background(), block)
	require.NoError(t, err)
}

func TestPushTransactionRejectsEmptyOperations(t *testing.T) {
	p, _ := newTestPipeline(t, config.SkipFlags{})
	tx := &protocol.Transaction{Expiration: protocol.SignedInt(p.Chain.GlobalProperties.HeadBlockTimeUnix + 60)}

	err := p.PushTransaction(context.Background(), tx)
	require.ErrorIs(t, err, ErrEmptyTransaction)
}

func TestPushTransactionRejectsExpiredTransaction(t *testing.T) {
	p, _ := newTestPipeline(t, config.SkipFlags{})
	tx := &protocol.Transaction{
		Expiration: protocol.SignedInt(1), // far in the past
		Operations: []protocol.Operation{protocol.Transfer{From: "alice", To: "alice"}},
	}

	err := p.PushTransaction(context.Background(), tx)
	require.ErrorIs(t, err, ErrTransactionExpired)
}

func TestPushTransactionRejectsTaposMismatch(t *testing.T) {
	p, _ := newTestPipeline(t, config.SkipFlags{})
	amt, err := protocol.NewAsset(1, 3, "DEIP")
	require.NoError(t, err)
	tx := &protocol.Transaction{
		RefBlockNum:    7,
		RefBlockPrefix: 0xDEADBEEF,
		Expiration:     protocol.SignedInt(time.Now().Add(30 * time.Second).Unix()),
		Operations:     []protocol.Operation{protocol.Transfer{From: "alice", To: "alice", Amount: amt}},
	}

	err = p.PushTransaction(context.Background(), tx)
	require.ErrorIs(t, err, ErrTaposMismatch)
}
