package state

import "deipchain/chainbase"

// ID re-exports chainbase.ID so callers of this package rarely need to
// import chainbase directly.
type ID = chainbase.ID

// Unlike protocol, state tables are never RLP-encoded directly (chainbase is
// a process-local in-memory object database, not a wire format); ordinary
// int64 and Go maps are fine here even though the protocol package has to
// route signed integers and maps through wrapper types to satisfy RLP.
