// Package genesis builds a chain's initial state deterministically from a
// declarative JSON document (spec §6 "genesis"), the same role the
// teacher's core/genesis package plays for its own native-token/validator
// bootstrap, adapted to DEIP's account/witness/budget/research schema.
package genesis

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Spec is the genesis document an operator hands to a new chain: the
// accounts, witnesses and budgets that exist before block 1, plus an
// optional token sale.
//
// original_source/libraries/chain/genesis.cpp auto-issues a fixed supply of
// security tokens at genesis unconditionally; per spec §9 this is treated
// as a non-goal unless a genesis document explicitly asks for it, which is
// exactly what the optional TokenSale field is: present only when an
// operator's genesis document names one.
type Spec struct {
	GenesisTime string `json:"genesisTime"`
	ChainID     uint64 `json:"chainId"`

	Accounts  []AccountSpec  `json:"accounts"`
	Witnesses []WitnessSpec  `json:"witnesses"`
	Budgets   []BudgetSpec   `json:"budgets,omitempty"`
	TokenSale *TokenSaleSpec `json:"tokenSale,omitempty"`

	genesisTimestamp time.Time
}

// AccountSpec seeds one account: its owner/active signing keys and initial
// balances (spec §3 "Account").
type AccountSpec struct {
	Name         string `json:"name"`
	OwnerKey     string `json:"ownerKey"`  // compressed-hex public key
	ActiveKey    string `json:"activeKey,omitempty"`
	Balance      int64  `json:"balance"`
	CommonTokens int64  `json:"commonTokens"`
}

// WitnessSpec seeds one witness candidate (spec §4.7). Genesis witnesses
// start with zero votes; the first ShuffleWitnesses call after genesis
// ranks them the same as any witness_update-registered candidate would be.
type WitnessSpec struct {
	Owner      string `json:"owner"`
	SigningKey string `json:"signingKey"` // compressed-hex public key
	URL        string `json:"url,omitempty"`
}

// BudgetSpec seeds one per-block payout stream, including the network's
// root/genesis budget owner case named in SPEC_FULL.md's supplemented
// features (grounded on original_source/libraries/chain/dbs_budget.cpp).
type BudgetSpec struct {
	Owner    string `json:"owner"`
	Balance  int64  `json:"balance"`
	PerBlock int64  `json:"perBlock"`
}

// TokenSaleSpec seeds one research token sale, the "explicitly requests
// it" escape hatch spec §9 leaves open for genesis-time token issuance.
type TokenSaleSpec struct {
	ResearchID    uint64 `json:"researchId"`
	Owner         string `json:"owner"`
	SoftCap       int64  `json:"softCap"`
	HardCap       int64  `json:"hardCap"`
	StartTimeUnix int64  `json:"startTimeUnix"`
	EndTimeUnix   int64  `json:"endTimeUnix"`
}

// Load reads and validates a genesis document from path.
func Load(path string) (*Spec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis: spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read spec %q: %w", path, err)
	}
	var spec Spec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("genesis: decode spec %q: %w", path, err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("genesis: invalid spec %q: %w", path, err)
	}
	return &spec, nil
}

// Timestamp returns the parsed genesis time; only meaningful after Load or
// validate has run.
func (s *Spec) Timestamp() time.Time { return s.genesisTimestamp }

func (s *Spec) validate() error {
	ts, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = ts

	names := make(map[string]struct{}, len(s.Accounts))
	for i := range s.Accounts {
		a := &s.Accounts[i]
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("accounts[%d]: name must be provided", i)
		}
		if _, dup := names[a.Name]; dup {
			return fmt.Errorf("accounts[%d]: duplicate name %q", i, a.Name)
		}
		names[a.Name] = struct{}{}
		if err := validateCompressedKey(a.OwnerKey); err != nil {
			return fmt.Errorf("accounts[%d].ownerKey: %w", i, err)
		}
		if a.ActiveKey != "" {
			if err := validateCompressedKey(a.ActiveKey); err != nil {
				return fmt.Errorf("accounts[%d].activeKey: %w", i, err)
			}
		}
		if a.Balance < 0 || a.CommonTokens < 0 {
			return fmt.Errorf("accounts[%d]: balances must not be negative", i)
		}
	}

	witnesses := make(map[string]struct{}, len(s.Witnesses))
	for i := range s.Witnesses {
		w := &s.Witnesses[i]
		if strings.TrimSpace(w.Owner) == "" {
			return fmt.Errorf("witnesses[%d]: owner must be provided", i)
		}
		if _, ok := names[w.Owner]; !ok {
			return fmt.Errorf("witnesses[%d]: owner %q is not a genesis account", i, w.Owner)
		}
		if _, dup := witnesses[w.Owner]; dup {
			return fmt.Errorf("witnesses[%d]: duplicate owner %q", i, w.Owner)
		}
		witnesses[w.Owner] = struct{}{}
		if err := validateCompressedKey(w.SigningKey); err != nil {
			return fmt.Errorf("witnesses[%d].signingKey: %w", i, err)
		}
	}

	for i := range s.Budgets {
		b := &s.Budgets[i]
		if strings.TrimSpace(b.Owner) == "" {
			return fmt.Errorf("budgets[%d]: owner must be provided", i)
		}
		if _, ok := names[b.Owner]; !ok {
			return fmt.Errorf("budgets[%d]: owner %q is not a genesis account", i, b.Owner)
		}
		if b.Balance < 0 || b.PerBlock < 0 {
			return fmt.Errorf("budgets[%d]: balance/perBlock must not be negative", i)
		}
	}

	if s.TokenSale != nil {
		ts := s.TokenSale
		if _, ok := names[ts.Owner]; !ok {
			return fmt.Errorf("tokenSale: owner %q is not a genesis account", ts.Owner)
		}
		if ts.EndTimeUnix <= ts.StartTimeUnix {
			return fmt.Errorf("tokenSale: endTimeUnix must be after startTimeUnix")
		}
		if ts.HardCap < ts.SoftCap {
			return fmt.Errorf("tokenSale: hardCap must be >= softCap")
		}
	}

	return nil
}

func validateCompressedKey(key string) error {
	trimmed := strings.TrimPrefix(strings.TrimSpace(key), "0x")
	if trimmed == "" {
		return fmt.Errorf("must be provided")
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != 33 {
		return fmt.Errorf("compressed public key must be 33 bytes, got %d", len(b))
	}
	return nil
}

func parseGenesisTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid genesisTime %q", value)
}

// sortedAccountNames returns the spec's account names in sorted order. It
// has no caller: genesis seeding iterates the accounts in document order.
func (s *Spec) sortedAccountNames() []string {
	out := make([]string, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		out = append(out, a.Name)
	}
	sort.Strings(out)
	return out
}
