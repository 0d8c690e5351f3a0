package genesis

import (
	"fmt"

	"deipchain/protocol"
	"deipchain/state"
)

// Genesis account balances and witness block-size limits use the same
// DEIP common-token symbol and fixed-point precision the evaluator tests
// exercise elsewhere (e.g. evaluator/evaluator_test.go).
const (
	commonTokenSymbol      = "DEIP"
	commonTokenPrecision   = 3
	defaultMaximumBlockSize = 2 * 1024 * 1024
)

// Build constructs a fresh Chain from spec and the signed genesis block
// (block number 0, no witness signature, empty transaction list) that
// commits to it. The chain's tables are populated under a single undo
// session that is committed immediately: genesis has no parent session to
// leave reopenable, unlike every subsequent block (pipeline.Pipeline keeps
// those open — see pipeline/fork_db.go).
func Build(spec *Spec) (*state.Chain, *protocol.Block, error) {
	if spec == nil {
		return nil, nil, fmt.Errorf("genesis: spec must not be nil")
	}
	if err := spec.validate(); err != nil {
		return nil, nil, fmt.Errorf("genesis: %w", err)
	}

	chain := state.NewChain()
	session := chain.DB.Begin()

	if err := seedAccounts(chain, spec); err != nil {
		session.Undo()
		return nil, nil, err
	}
	if err := seedWitnesses(chain, spec); err != nil {
		session.Undo()
		return nil, nil, err
	}
	if err := seedBudgets(chain, spec); err != nil {
		session.Undo()
		return nil, nil, err
	}
	if err := seedTokenSale(chain, spec); err != nil {
		session.Undo()
		return nil, nil, err
	}

	if err := session.Commit(); err != nil {
		return nil, nil, fmt.Errorf("genesis: commit seed session: %w", err)
	}

	ts := spec.Timestamp().Unix()
	chain.GlobalProperties.HeadBlockNumber = 0
	chain.GlobalProperties.HeadBlockTimeUnix = ts
	chain.GlobalProperties.MaximumBlockSize = defaultMaximumBlockSize

	block := &protocol.Block{
		BlockHeader: protocol.BlockHeader{
			Previous:              [32]byte{},
			Number:                0,
			TimestampUnix:         protocol.SignedInt(ts),
			Witness:                "",
			TransactionMerkleRoot: protocol.MerkleRoot(nil),
		},
	}

	if id, err := block.ID(); err == nil {
		chain.GlobalProperties.RecordBlockSummary(0, protocol.RefBlockPrefix(id))
	}

	return chain, block, nil
}

func seedAccounts(chain *state.Chain, spec *Spec) error {
	ts := spec.Timestamp().Unix()
	for _, a := range spec.Accounts {
		balance, err := protocol.NewAsset(a.Balance, commonTokenPrecision, commonTokenSymbol)
		if err != nil {
			return err
		}
		common, err := protocol.NewAsset(a.CommonTokens, commonTokenPrecision, commonTokenSymbol)
		if err != nil {
			return err
		}
		activeKey := a.ActiveKey
		if activeKey == "" {
			activeKey = a.OwnerKey
		}
		_, err = chain.Accounts.Create(func(row *state.Account) {
			row.Name = a.Name
			row.Owner = singleKeyAuthority(a.OwnerKey)
			row.Active = singleKeyAuthority(activeKey)
			row.Balance = balance
			row.CommonTokens = common
			row.CreatedAtUnix = ts
		})
		if err != nil {
			return fmt.Errorf("genesis: seed account %q: %w", a.Name, err)
		}
	}
	return nil
}

func singleKeyAuthority(compressedKey string) state.AuthorityRecord {
	return state.AuthorityRecord{
		WeightThreshold: 1,
		AccountWeights:  map[string]uint16{},
		KeyWeights:      map[string]uint16{compressedKey: 1},
	}
}

func seedWitnesses(chain *state.Chain, spec *Spec) error {
	ts := spec.Timestamp().Unix()
	for _, w := range spec.Witnesses {
		_, err := chain.Witnesses.Create(func(row *state.Witness) {
			row.Owner = w.Owner
			row.SigningKey = w.SigningKey
			row.URL = w.URL
			row.MaximumBlockSize = defaultMaximumBlockSize
			row.Running = true
			row.CreatedAtUnix = ts
		})
		if err != nil {
			return fmt.Errorf("genesis: seed witness %q: %w", w.Owner, err)
		}
	}
	return nil
}

func seedBudgets(chain *state.Chain, spec *Spec) error {
	ts := spec.Timestamp().Unix()
	for _, b := range spec.Budgets {
		_, err := chain.Budgets.Create(func(row *state.Budget) {
			row.Owner = b.Owner
			row.Balance = b.Balance
			row.PerBlock = b.PerBlock
			row.CreatedAtUnix = ts
		})
		if err != nil {
			return fmt.Errorf("genesis: seed budget owner %q: %w", b.Owner, err)
		}
	}
	return nil
}

// seedTokenSale inserts the genesis document's optional token sale
// directly into the table, bypassing evaluateResearchTokenSaleCreate's
// Research-entity lookup: genesis construction writes chainbase rows
// directly rather than dispatching through the evaluator, so a genesis
// token sale's ResearchID is taken on the operator's word rather than
// validated against a Research row that genesis itself has no mechanism to
// seed (spec §9's escape hatch is narrowly about token issuance, not a
// general research-entity bootstrap).
func seedTokenSale(chain *state.Chain, spec *Spec) error {
	if spec.TokenSale == nil {
		return nil
	}
	ts := spec.TokenSale
	status := state.TokenSaleInactive
	if ts.StartTimeUnix <= spec.Timestamp().Unix() {
		status = state.TokenSaleActive
	}
	_, err := chain.TokenSales.Create(func(row *state.ResearchTokenSale) {
		row.ResearchID = ts.ResearchID
		row.Owner = ts.Owner
		row.StartTimeUnix = ts.StartTimeUnix
		row.EndTimeUnix = ts.EndTimeUnix
		row.SoftCap = ts.SoftCap
		row.HardCap = ts.HardCap
		row.Status = status
	})
	if err != nil {
		return fmt.Errorf("genesis: seed token sale: %w", err)
	}
	return nil
}
