package pipeline

import "errors"

var (
	// ErrTransactionExpired and ErrTaposMismatch are the stateless
	// "TaPOS / Expiration" rejection kind (spec §7).
	ErrTransactionExpired  = errors.New("pipeline: transaction expired")
	ErrTransactionNotYetValid = errors.New("pipeline: transaction expiration is not in the future")
	ErrExpirationTooFar    = errors.New("pipeline: transaction expiration exceeds the maximum time until expiration")
	ErrTaposMismatch       = errors.New("pipeline: ref_block_prefix does not match block_summary")
	ErrEmptyTransaction    = errors.New("pipeline: transaction has no operations")
	ErrRateLimited         = errors.New("pipeline: push_transaction rate limit exceeded")

	// ErrMissingTenantAffirmation is returned when tenant affirmation is
	// enabled (Pipeline.Tenant set) and a transaction carries no
	// TenantSignature (spec §4.2 "tenant affirmation").
	ErrMissingTenantAffirmation = errors.New("pipeline: transaction is missing the required tenant affirmation signature")

	// Block validation kind (spec §7).
	ErrUnlinkableBlock    = errors.New("pipeline: block does not extend a known chain")
	ErrBadWitnessSignature = errors.New("pipeline: invalid witness signature")
	ErrWrongScheduledWitness = errors.New("pipeline: witness does not match the scheduled slot")
	ErrBadMerkleRoot      = errors.New("pipeline: transaction merkle root mismatch")
	ErrBadTimestamp       = errors.New("pipeline: block timestamp is not aligned to a valid slot")

	// ErrPopBeyondGenesis is the fatal "Undo" error kind (spec §7): the node
	// must halt rather than continue with an inconsistent fork database.
	ErrPopBeyondGenesis = errors.New("pipeline: attempted to pop beyond genesis")
)
