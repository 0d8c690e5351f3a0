package protocol

import (
	"fmt"
	"strconv"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"deipchain/authority"
	"deipchain/crypto"
)

// Transaction is a signed, TaPOS-protected bundle of operations
// (spec §4.2, §6). RefBlockNum/RefBlockPrefix implement transaction-as-
// proof-of-stake (TaPOS): they must match a recent block, so a transaction
// cannot be replayed against an unrelated fork.
type Transaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     SignedInt // unix seconds
	Operations     []Operation
	Extensions     []byte

	Signatures      [][]byte
	TenantSignature []byte // present only under tenant affirmation (spec §4.2)
}

type transactionWire struct {
	RefBlockNum     uint16
	RefBlockPrefix  uint32
	Expiration      SignedInt
	Operations      [][]byte
	Extensions      []byte
	Signatures      [][]byte
	TenantSignature []byte
}

func (tx *Transaction) toWire() (transactionWire, error) {
	wire := transactionWire{
		RefBlockNum:     tx.RefBlockNum,
		RefBlockPrefix:  tx.RefBlockPrefix,
		Expiration:      tx.Expiration,
		Extensions:      tx.Extensions,
		Signatures:      tx.Signatures,
		TenantSignature: tx.TenantSignature,
	}
	for _, op := range tx.Operations {
		enc, err := EncodeOperation(op)
		if err != nil {
			return transactionWire{}, err
		}
		wire.Operations = append(wire.Operations, enc)
	}
	return wire, nil
}

func (tx *Transaction) fromWire(wire transactionWire) error {
	tx.RefBlockNum = wire.RefBlockNum
	tx.RefBlockPrefix = wire.RefBlockPrefix
	tx.Expiration = wire.Expiration
	tx.Extensions = wire.Extensions
	tx.Signatures = wire.Signatures
	tx.TenantSignature = wire.TenantSignature
	tx.Operations = tx.Operations[:0]
	for _, enc := range wire.Operations {
		op, err := DecodeOperation(enc)
		if err != nil {
			return err
		}
		tx.Operations = append(tx.Operations, op)
	}
	return nil
}

// unsignedWire is the portion of the transaction that digests and
// signatures are computed over: everything except the signatures
// themselves.
type unsignedWire struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     SignedInt
	Operations     [][]byte
	Extensions     []byte
}

func (tx *Transaction) unsignedBytes() ([]byte, error) {
	wire, err := tx.toWire()
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(unsignedWire{
		RefBlockNum:    wire.RefBlockNum,
		RefBlockPrefix: wire.RefBlockPrefix,
		Expiration:     wire.Expiration,
		Operations:     wire.Operations,
		Extensions:     wire.Extensions,
	})
}

// Digest is the canonical, signature-independent hash of the transaction
// body (spec §4.2 "canonical tx digest").
func (tx *Transaction) Digest() ([]byte, error) {
	b, err := tx.unsignedBytes()
	if err != nil {
		return nil, fmt.Errorf("protocol: transaction digest: %w", err)
	}
	h := ethcrypto.Keccak256(b)
	return h, nil
}

// SigningDigest is the chain-id-bound digest signatures are computed over
// (spec §4.2 "signing digest").
func (tx *Transaction) SigningDigest(chainID uint64) ([]byte, error) {
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}
	return authority.SigningDigest(chainID, digest), nil
}

// Sign appends a new signature from key over the transaction's signing
// digest under chainID.
func (tx *Transaction) Sign(chainID uint64, key *crypto.PrivateKey) error {
	digest, err := tx.SigningDigest(chainID)
	if err != nil {
		return err
	}
	sig, err := key.Sign(digest)
	if err != nil {
		return fmt.Errorf("protocol: sign transaction: %w", err)
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// RecoverSigners returns the compressed-hex public keys that produced every
// signature on tx.
func (tx *Transaction) RecoverSigners(chainID uint64) (map[string]bool, error) {
	digest, err := tx.SigningDigest(chainID)
	if err != nil {
		return nil, err
	}
	return authority.RecoverSigners(digest, tx.Signatures)
}

// Encode renders the fully-signed transaction to its canonical wire bytes.
func (tx *Transaction) Encode() ([]byte, error) {
	wire, err := tx.toWire()
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(wire)
}

// Decode parses a transaction from its canonical wire bytes.
func (tx *Transaction) Decode(b []byte) error {
	var wire transactionWire
	if err := rlp.DecodeBytes(b, &wire); err != nil {
		return fmt.Errorf("protocol: decode transaction: %w", err)
	}
	return tx.fromWire(wire)
}

// RequiredAuthorities merges the per-operation authority requirements of
// every operation in the transaction (spec §4.2), tagging each active
// account with the operation tag that named it so an account's
// active_override, if it has registered one for that tag, can replace its
// active authority (spec §3 "active_override", §4.2 step 2).
func (tx *Transaction) RequiredAuthorities() authority.Requirement {
	req := authority.Requirement{Overrides: make(map[string]string)}
	for _, op := range tx.Operations {
		r := op.RequiredAuths()
		req.Owner = append(req.Owner, r.Owner...)
		req.Active = append(req.Active, r.Active...)
		tag := strconv.Itoa(int(op.Tag()))
		for _, acc := range r.Active {
			req.Overrides[acc] = tag
		}
	}
	return req
}
