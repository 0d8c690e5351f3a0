// Package protocol defines the chain's wire types: transactions, operations,
// blocks and the asset amounts they move (spec §4.2, §6).
package protocol

import "fmt"

// Asset is a signed integer amount of a fixed-point token identified by a
// short symbol (spec §3 "Asset"). Common tokens (the network's native
// currency) and research security tokens are both represented this way.
type Asset struct {
	Amount    SignedInt
	Precision uint8
	Symbol    [8]byte
}

// NewAsset builds an Asset from a symbol string, left-padding with zero
// bytes; symbols longer than 8 bytes are rejected.
func NewAsset(amount int64, precision uint8, symbol string) (Asset, error) {
	if len(symbol) > 8 {
		return Asset{}, fmt.Errorf("protocol: asset symbol %q exceeds 8 bytes", symbol)
	}
	var sym [8]byte
	copy(sym[:], symbol)
	return Asset{Amount: SignedInt(amount), Precision: precision, Symbol: sym}, nil
}

func (a Asset) SymbolString() string {
	n := 0
	for n < len(a.Symbol) && a.Symbol[n] != 0 {
		n++
	}
	return string(a.Symbol[:n])
}

func (a Asset) String() string {
	return fmt.Sprintf("%d %s", a.Amount.Int64(), a.SymbolString())
}

// SameAsset reports whether a and b carry the same symbol and precision,
// the precondition for every arithmetic operation below (spec §4 "Asset
// arithmetic is only defined between matching symbols").
func (a Asset) SameAsset(b Asset) bool {
	return a.Symbol == b.Symbol && a.Precision == b.Precision
}

func (a Asset) Add(b Asset) (Asset, error) {
	if !a.SameAsset(b) {
		return Asset{}, fmt.Errorf("protocol: asset symbol mismatch: %s vs %s", a.SymbolString(), b.SymbolString())
	}
	a.Amount += b.Amount
	return a, nil
}

func (a Asset) Sub(b Asset) (Asset, error) {
	if !a.SameAsset(b) {
		return Asset{}, fmt.Errorf("protocol: asset symbol mismatch: %s vs %s", a.SymbolString(), b.SymbolString())
	}
	a.Amount -= b.Amount
	return a, nil
}

func (a Asset) IsNegative() bool { return a.Amount < 0 }
func (a Asset) IsZero() bool     { return a.Amount == 0 }
