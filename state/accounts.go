// Package state is the chain's domain schema: chainbase tables for every
// entity named in spec §3, wired together into a single Chain object that
// services and evaluators mutate (spec §4.3-§4.7). It plays the role the
// teacher's core/state/manager.go plays for its own native modules, adapted
// from a single KV-backed manager into a set of chainbase tables.
package state

import (
	"deipchain/chainbase"
	"deipchain/protocol"
)

// Account is a chain account: the owner of balances, authorities and,
// for research groups, the creator of research entities (spec §3 "Account",
// "Research group").
type Account struct {
	id ID

	Name   string
	Owner  AuthorityRecord
	Active AuthorityRecord

	// ActiveOverrides maps an operation tag (protocol.OpTag, stringified)
	// to the active_override authority that replaces this account's
	// ordinary active authority when that operation requires it (spec §3
	// "active_override", §4.2 step 2). Most accounts never populate this.
	ActiveOverrides map[string]AuthorityRecord

	Balance      protocol.Asset
	CommonTokens protocol.Asset // non-transferable community stake

	WithdrawRate          protocol.Asset
	WithdrawRoutes        []WithdrawRoute
	NextVestingWithdrawal int64 // unix seconds
	ToWithdraw            protocol.Asset
	Withdrawn             protocol.Asset

	Proxy             string
	WitnessesVotedFor uint16

	IsResearchGroup bool
	CreatedAtUnix   int64
}

// WithdrawRoute is one destination of a withdraw-common-tokens route
// (spec §4.4 "set_withdraw_common_tokens_route").
type WithdrawRoute struct {
	To         string
	Percent    uint16
	AutoCommon bool
}

// AuthorityRecord mirrors authority.Authority's shape for chainbase
// storage; kept as a distinct type so this package does not need to import
// authority's RLP machinery just to persist weight maps in memory (no RLP
// encoding happens at this layer — only the wire/protocol layer encodes to
// bytes, state is a pure in-memory chainbase schema).
type AuthorityRecord struct {
	WeightThreshold uint32
	AccountWeights  map[string]uint16
	KeyWeights      map[string]uint16
}

func (a Account) GetID() ID   { return a.id }
func (a *Account) SetID(v ID) { a.id = v }

func NewAccountTable() *chainbase.Table[Account, *Account] {
	return chainbase.NewTable[Account, *Account]("account",
		&chainbase.Index[Account, *Account]{
			Name:   "by_name",
			Unique: true,
			KeyFn:  func(a *Account) []byte { return []byte(a.Name) },
		},
	)
}
