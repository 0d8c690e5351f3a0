package protocol

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockHeader is a block's signed metadata, excluding the transaction list
// (spec §4.8 "block header").
type BlockHeader struct {
	Previous       [32]byte
	Number         uint64
	TimestampUnix  SignedInt
	Witness        string
	TransactionMerkleRoot [32]byte
	StateRoot      [32]byte // Merkle commitment over flushed chainbase tables
	Extensions     []byte
}

type headerWire struct {
	Previous              [32]byte
	Number                uint64
	TimestampUnix         SignedInt
	Witness               string
	TransactionMerkleRoot [32]byte
	StateRoot             [32]byte
	Extensions            []byte
}

func (h *BlockHeader) wire() headerWire {
	return headerWire{
		Previous:              h.Previous,
		Number:                h.Number,
		TimestampUnix:         h.TimestampUnix,
		Witness:               h.Witness,
		TransactionMerkleRoot: h.TransactionMerkleRoot,
		StateRoot:             h.StateRoot,
		Extensions:            h.Extensions,
	}
}

// Digest is the signature-independent hash of the header.
func (h *BlockHeader) Digest() ([]byte, error) {
	b, err := rlp.EncodeToBytes(h.wire())
	if err != nil {
		return nil, fmt.Errorf("protocol: header digest: %w", err)
	}
	return crypto.Keccak256(b), nil
}

// Block is a full, signed block: a header plus the ordered transaction list
// it commits to via TransactionMerkleRoot.
type Block struct {
	BlockHeader
	Transactions []*Transaction
	WitnessSignature []byte
}

// ID is the block's identity used for TaPOS references and fork-choice:
// the low 4 bytes of block number followed by the low 16 bytes of the
// header digest, a short "block prefix" rather than carrying the full
// 32-byte hash in every transaction.
func (b *Block) ID() ([20]byte, error) {
	digest, err := b.Digest()
	if err != nil {
		return [20]byte{}, err
	}
	var id [20]byte
	id[0] = byte(b.Number >> 24)
	id[1] = byte(b.Number >> 16)
	id[2] = byte(b.Number >> 8)
	id[3] = byte(b.Number)
	copy(id[4:], digest[:16])
	return id, nil
}

// RefBlockPrefix extracts the TaPOS prefix a transaction referencing this
// block as RefBlockNum must carry as its RefBlockPrefix (spec §4.2 "TaPOS").
func RefBlockPrefix(blockID [20]byte) uint32 {
	return uint32(blockID[4]) | uint32(blockID[5])<<8 | uint32(blockID[6])<<16 | uint32(blockID[7])<<24
}

// MerkleRoot computes a binary Merkle root over the given leaf digests,
// duplicating the final leaf on odd levels (spec §6 "transaction Merkle
// root"), the same pairing rule go-ethereum's state trie commitments use
// for sibling padding.
func MerkleRoot(leaves [][]byte) [32]byte {
	if len(leaves) == 0 {
		return [32]byte{}
	}
	level := make([][]byte, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		var next [][]byte
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, crypto.Keccak256(level[i], level[i+1]))
			} else {
				next = append(next, crypto.Keccak256(level[i], level[i]))
			}
		}
		level = next
	}
	var root [32]byte
	copy(root[:], level[0])
	return root
}
