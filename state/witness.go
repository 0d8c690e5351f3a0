package state

import (
	"encoding/binary"

	"deipchain/chainbase"
	"deipchain/protocol"
)

// Witness is a block-producing candidate account (spec §4.7 "witness
// scheduler"). One Witness record exists per Account that has ever called
// witness_update.
type Witness struct {
	id ID

	Owner      string
	URL        string
	SigningKey string // compressed-hex public key

	Votes uint64

	TotalMissed      uint32
	LastConfirmedBlockNum uint64
	LastAttemptedBlockNum uint64

	AccountCreationFee protocol.Asset
	MaximumBlockSize   uint32

	CreatedAtUnix int64
	Running       bool
}

func (w Witness) GetID() ID   { return w.id }
func (w *Witness) SetID(v ID) { w.id = v }

func votesKey(w *Witness) []byte {
	// Descending vote order: invert the 64-bit votes so ascending byte
	// comparison yields descending vote order (spec §4.7 "top-N by vote").
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], ^w.Votes)
	return b[:]
}

func NewWitnessTable() *chainbase.Table[Witness, *Witness] {
	return chainbase.NewTable[Witness, *Witness]("witness",
		&chainbase.Index[Witness, *Witness]{
			Name:   "by_owner",
			Unique: true,
			KeyFn:  func(w *Witness) []byte { return []byte(w.Owner) },
		},
		&chainbase.Index[Witness, *Witness]{
			Name:   "by_vote",
			Unique: false,
			KeyFn:  votesKey,
		},
	)
}

// WitnessVote is one account's approval of one witness (spec §4.7
// "account_witness_vote"), a many-to-many join table.
type WitnessVote struct {
	id ID

	Witness string
	Account string
}

func (v WitnessVote) GetID() ID   { return v.id }
func (v *WitnessVote) SetID(id ID) { v.id = id }

func witnessVoteKey(v *WitnessVote) []byte {
	return append([]byte(v.Witness+"\x00"), []byte(v.Account)...)
}

func NewWitnessVoteTable() *chainbase.Table[WitnessVote, *WitnessVote] {
	return chainbase.NewTable[WitnessVote, *WitnessVote]("witness_vote",
		&chainbase.Index[WitnessVote, *WitnessVote]{
			Name:   "by_witness_account",
			Unique: true,
			KeyFn:  witnessVoteKey,
		},
	)
}
