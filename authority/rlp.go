package authority

import (
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
)

// weightEntry is one (name, weight) pair. Authority's maps are rendered to
// sorted slices of these for RLP, which (like Go's maps generally) has no
// native map support and, more importantly, no defined iteration order;
// encoding a sorted entry slice instead of the raw map keeps the digest
// deterministic across processes.
type weightEntry struct {
	Name   string
	Weight uint16
}

type authorityWire struct {
	WeightThreshold uint32
	AccountWeights  []weightEntry
	KeyWeights      []weightEntry
}

func sortedWeightEntries(m map[string]uint16) []weightEntry {
	out := make([]weightEntry, 0, len(m))
	for k, v := range m {
		out = append(out, weightEntry{Name: k, Weight: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (a Authority) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, authorityWire{
		WeightThreshold: a.WeightThreshold,
		AccountWeights:  sortedWeightEntries(a.AccountWeights),
		KeyWeights:      sortedWeightEntries(a.KeyWeights),
	})
}

func (a *Authority) DecodeRLP(s *rlp.Stream) error {
	var wire authorityWire
	if err := s.Decode(&wire); err != nil {
		return err
	}
	a.WeightThreshold = wire.WeightThreshold
	a.AccountWeights = make(map[string]uint16, len(wire.AccountWeights))
	for _, e := range wire.AccountWeights {
		a.AccountWeights[e.Name] = e.Weight
	}
	a.KeyWeights = make(map[string]uint16, len(wire.KeyWeights))
	for _, e := range wire.KeyWeights {
		a.KeyWeights[e.Name] = e.Weight
	}
	return nil
}
