// Package authority implements recursive multi-signature satisfaction over
// account and key weights, and the canonical signing digests transactions
// are signed against (spec §4.2).
package authority

import "sort"

// MaxRecursionDepth bounds how many levels of account-authority delegation
// (an account listed in another account's Authority) a satisfaction check
// will follow, preventing unbounded or cyclic recursion (spec §4.2
// "authority recursion is bounded ... default 2").
const MaxRecursionDepth = 2

// Authority is a weighted threshold set of account and key authorities, the
// same shape as the owner/active/active_override authorities on an account
// (spec §3 "Account").
type Authority struct {
	WeightThreshold uint32
	AccountWeights  map[string]uint16
	KeyWeights      map[string]uint16 // compressed-hex public key -> weight
}

// NewAuthority returns an empty authority with the given threshold.
func NewAuthority(threshold uint32) Authority {
	return Authority{
		WeightThreshold: threshold,
		AccountWeights:  make(map[string]uint16),
		KeyWeights:      make(map[string]uint16),
	}
}

func (a Authority) sortedAccounts() []string {
	out := make([]string, 0, len(a.AccountWeights))
	for acc := range a.AccountWeights {
		out = append(out, acc)
	}
	sort.Strings(out)
	return out
}

// Level identifies which of an account's three authority levels is being
// checked: owner (highest), active, or active_override (per-operation
// override granted to another account, e.g. a research group's active
// authority delegated to a tenant — spec §4.2 "active_override").
type Level uint8

const (
	LevelOwner Level = iota
	LevelActive
	LevelOverride
)

// Requirement is the set of accounts, at a given level, whose authority an
// operation demands before chainbase state is consulted (spec §4.2 "static
// required-authority derivation").
type Requirement struct {
	Owner  []string
	Active []string

	// Overrides maps an Active account to the operation tag demanding it.
	// If that account has registered an active_override authority for the
	// tag, it replaces the account's ordinary active authority for this
	// requirement (spec §3 "active_override", §4.2 step 2: "an operation
	// may request an override slot ... the override authority replaces the
	// active authority").
	Overrides map[string]string
}

// AccountAuthorities is the callback Satisfied uses to resolve an account's
// current owner/active authority, and (when opTag names one it has
// registered) its active_override authority; it is supplied by the caller
// (typically backed by chainbase) so this package stays storage agnostic.
// opTag is the empty string when no override applies to this lookup.
type AccountAuthorities func(account, opTag string) (owner, active, override Authority, hasOverride, ok bool)

// Satisfied reports whether the accumulated signer set (signerKeys, as
// compressed-hex public keys) meets the weight threshold of authority a,
// recursively resolving any account listed in a.AccountWeights through
// lookup, bounded by MaxRecursionDepth. Every key in signerKeys that
// contributes weight anywhere in the recursion is marked in used, so a
// caller can reject signatures that never helped satisfy anything (spec
// §4.2 step 4 "no irrelevant signatures"); used may be nil to skip that
// bookkeeping.
func Satisfied(a Authority, signerKeys map[string]bool, lookup AccountAuthorities, level Level, opTag string, depth int, used map[string]bool) bool {
	if depth > MaxRecursionDepth {
		return false
	}
	var total uint32
	for key, weight := range a.KeyWeights {
		if signerKeys[key] {
			total += uint32(weight)
			if used != nil {
				used[key] = true
			}
		}
	}
	for _, acc := range a.sortedAccounts() {
		weight := a.AccountWeights[acc]
		owner, active, override, hasOverride, ok := lookup(acc, opTag)
		if !ok {
			continue
		}
		var delegated Authority
		switch level {
		case LevelOwner:
			delegated = owner
		case LevelOverride:
			if hasOverride {
				delegated = override
			} else {
				delegated = active
			}
		default:
			delegated = active
		}
		if Satisfied(delegated, signerKeys, lookup, level, opTag, depth+1, used) {
			total += uint32(weight)
		}
	}
	return total >= a.WeightThreshold
}
