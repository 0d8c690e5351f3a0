package protocol

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// SignedInt is a signed 64-bit quantity (unix timestamps, asset amounts,
// review vote weights) that RLP cannot encode directly: go-ethereum's rlp
// package only supports unsigned integers and byte strings, so every
// signed field on the wire goes through this sign-and-magnitude wrapper
// rather than leaking the restriction into every operation struct.
type SignedInt int64

type signedIntWire struct {
	Negative  bool
	Magnitude uint64
}

func (v SignedInt) EncodeRLP(w io.Writer) error {
	neg := v < 0
	mag := uint64(v)
	if neg {
		mag = uint64(-v)
	}
	return rlp.Encode(w, signedIntWire{Negative: neg, Magnitude: mag})
}

func (v *SignedInt) DecodeRLP(s *rlp.Stream) error {
	var wire signedIntWire
	if err := s.Decode(&wire); err != nil {
		return fmt.Errorf("protocol: decode signed int: %w", err)
	}
	n := int64(wire.Magnitude)
	if wire.Negative {
		n = -n
	}
	*v = SignedInt(n)
	return nil
}

func (v SignedInt) Int64() int64 { return int64(v) }
