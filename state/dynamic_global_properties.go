package state

// blockSummarySize is the ring buffer length for TaPOS lookups: 2^16, so a
// ref_block_num (uint16) indexes it directly (spec §6 "TaPOS").
const blockSummarySize = 1 << 16

// DynamicGlobalProperties is the chain's one singleton record of slowly
// changing, block-by-block global counters (spec §4.7/§4.8): head block
// number/time, the current witness schedule, and the Merkle state root
// committed at the last flush.
//
// BlockSummary is deliberately not a chainbase table: it is a fixed-size
// ring overwritten deterministically by block number modulo its length, so
// undo/redo never needs to distinguish one generation's entry from the
// next — reapplying a block during a fork switch just overwrites the same
// slot with the same value.
type DynamicGlobalProperties struct {
	HeadBlockNumber   uint64
	HeadBlockTimeUnix int64
	CurrentWitness    string

	CurrentAbsoluteSlot uint64
	MaximumBlockSize    uint32

	TotalSupply       int64
	TotalCommonTokens int64

	LastIrreversibleBlockNum uint64

	StateRoot [32]byte

	BlockSummary [blockSummarySize]uint32
}

// RecordBlockSummary stores the TaPOS prefix for blockNum so a later
// transaction referencing it as ref_block_num can be validated.
func (p *DynamicGlobalProperties) RecordBlockSummary(blockNum uint64, prefix uint32) {
	p.BlockSummary[uint16(blockNum)] = prefix
}

// BlockSummaryPrefix returns the TaPOS prefix recorded for refBlockNum.
func (p *DynamicGlobalProperties) BlockSummaryPrefix(refBlockNum uint16) uint32 {
	return p.BlockSummary[refBlockNum]
}
