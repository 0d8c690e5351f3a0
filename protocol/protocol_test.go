package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deipchain/crypto"
)

func TestAssetArithmetic(t *testing.T) {
	a, err := NewAsset(100, 3, "DEIP")
	require.NoError(t, err)
	b, err := NewAsset(50, 3, "DEIP")
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, int64(150), sum.Amount.Int64())

	other, err := NewAsset(1, 3, "SBD")
	require.NoError(t, err)
	_, err = a.Add(other)
	require.Error(t, err)
}

func TestOperationEnvelopeRoundTrip(t *testing.T) {
	op := Transfer{From: "alice", To: "bob", Amount: Asset{Amount: 10, Symbol: [8]byte{'D', 'E', 'I', 'P'}}}
	require.NoError(t, op.Validate())

	enc, err := EncodeOperation(op)
	require.NoError(t, err)

	decoded, err := DecodeOperation(enc)
	require.NoError(t, err)
	got, ok := decoded.(Transfer)
	require.True(t, ok)
	require.Equal(t, op, got)
}

func TestProposalCreateNestedOperationsRoundTrip(t *testing.T) {
	inner := Transfer{From: "group", To: "bob", Amount: Asset{Amount: 5, Symbol: [8]byte{'D', 'E', 'I', 'P'}}}
	op := ProposalCreate{
		Creator:        "alice",
		ResearchGroup:  "group",
		Operations:     []Operation{inner},
		ExpirationUnix: 1000,
	}
	require.NoError(t, op.Validate())

	enc, err := EncodeOperation(op)
	require.NoError(t, err)

	decoded, err := DecodeOperation(enc)
	require.NoError(t, err)
	got, ok := decoded.(ProposalCreate)
	require.True(t, ok)
	require.Len(t, got.Operations, 1)
	require.Equal(t, inner, got.Operations[0])
}

func TestTransactionSignAndRecover(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	tx := &Transaction{
		RefBlockNum:    1,
		RefBlockPrefix: 42,
		Expiration:     12345,
		Operations: []Operation{
			Transfer{From: "alice", To: "bob", Amount: Asset{Amount: 10, Symbol: [8]byte{'D', 'E', 'I', 'P'}}},
		},
	}
	require.NoError(t, tx.Sign(7, key))
	require.Len(t, tx.Signatures, 1)

	signers, err := tx.RecoverSigners(7)
	require.NoError(t, err)
	require.True(t, signers[key.PubKey().CompressedHex()])
}

func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
	tx := &Transaction{
		RefBlockNum:    3,
		RefBlockPrefix: 99,
		Expiration:     555,
		Operations: []Operation{
			WithdrawCommonTokens{Account: "alice", Amount: Asset{Amount: 1, Symbol: [8]byte{'D', 'E', 'I', 'P'}}},
		},
	}
	enc, err := tx.Encode()
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, decoded.Decode(enc))
	require.Equal(t, tx.RefBlockNum, decoded.RefBlockNum)
	require.Len(t, decoded.Operations, 1)
	require.Equal(t, tx.Operations[0], decoded.Operations[0])
}

func TestMerkleRootDeterministic(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	root1 := MerkleRoot(leaves)
	root2 := MerkleRoot(leaves)
	require.Equal(t, root1, root2)
	require.NotEqual(t, [32]byte{}, root1)
}
