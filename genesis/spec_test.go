package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const aliceKey = "02aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const bobKey = "03bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func writeSpec(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func validSpecJSON() string {
	return `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"chainId": 1,
		"accounts": [
			{"name": "alice", "ownerKey": "` + aliceKey + `", "balance": 1000, "commonTokens": 500},
			{"name": "bob", "ownerKey": "` + bobKey + `", "balance": 0, "commonTokens": 0}
		],
		"witnesses": [
			{"owner": "alice", "signingKey": "` + aliceKey + `", "url": "https://alice.example"}
		],
		"budgets": [
			{"owner": "bob", "balance": 100, "perBlock": 1}
		]
	}`
}

func TestLoadValidSpec(t *testing.T) {
	path := writeSpec(t, validSpecJSON())
	spec, err := Load(path)
	require.NoError(t, err)
	require.Len(t, spec.Accounts, 2)
	require.Equal(t, uint64(1), spec.ChainID)
	require.False(t, spec.Timestamp().IsZero())
}

func TestLoadRejectsDuplicateAccountName(t *testing.T) {
	path := writeSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [
			{"name": "alice", "ownerKey": "`+aliceKey+`", "balance": 0, "commonTokens": 0},
			{"name": "alice", "ownerKey": "`+bobKey+`", "balance": 0, "commonTokens": 0}
		]
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidOwnerKey(t *testing.T) {
	path := writeSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [
			{"name": "alice", "ownerKey": "not-hex", "balance": 0, "commonTokens": 0}
		]
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNegativeBalance(t *testing.T) {
	path := writeSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [
			{"name": "alice", "ownerKey": "`+aliceKey+`", "balance": -1, "commonTokens": 0}
		]
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsWitnessWithoutGenesisAccount(t *testing.T) {
	path := writeSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [
			{"name": "alice", "ownerKey": "`+aliceKey+`", "balance": 0, "commonTokens": 0}
		],
		"witnesses": [
			{"owner": "carol", "signingKey": "`+bobKey+`"}
		]
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBudgetWithoutGenesisAccount(t *testing.T) {
	path := writeSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [
			{"name": "alice", "ownerKey": "`+aliceKey+`", "balance": 0, "commonTokens": 0}
		],
		"budgets": [
			{"owner": "carol", "balance": 10, "perBlock": 1}
		]
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsTokenSaleCapOrdering(t *testing.T) {
	path := writeSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [
			{"name": "alice", "ownerKey": "`+aliceKey+`", "balance": 0, "commonTokens": 0}
		],
		"tokenSale": {
			"researchId": 1,
			"owner": "alice",
			"softCap": 1000,
			"hardCap": 500,
			"startTimeUnix": 1,
			"endTimeUnix": 2
		}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeSpec(t, `{
		"genesisTime": "2026-01-01T00:00:00Z",
		"accounts": [],
		"notAField": true
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMissingGenesisTime(t *testing.T) {
	path := writeSpec(t, `{"accounts": []}`)
	_, err := Load(path)
	require.Error(t, err)
}
