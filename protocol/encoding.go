package protocol

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// operationEnvelope is the tagged-union wire form of an Operation: RLP has
// no native interface support, so every operation is encoded as its tag
// followed by the RLP encoding of its concrete struct (spec §6 "operations
// are a tagged list"), the same shape a discriminated TxType field takes.
type operationEnvelope struct {
	Tag     OpTag
	Payload []byte
}

// EncodeOperation renders op to its tagged wire form.
func EncodeOperation(op Operation) ([]byte, error) {
	if pc, ok := op.(ProposalCreate); ok {
		payload, err := encodeProposalCreate(pc)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode operation: %w", err)
		}
		return rlp.EncodeToBytes(operationEnvelope{Tag: OpProposalCreate, Payload: payload})
	}
	payload, err := rlp.EncodeToBytes(op)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode operation: %w", err)
	}
	return rlp.EncodeToBytes(operationEnvelope{Tag: op.Tag(), Payload: payload})
}

// DecodeOperation parses a tagged operation envelope back into its concrete
// type.
func DecodeOperation(b []byte) (Operation, error) {
	var env operationEnvelope
	if err := rlp.DecodeBytes(b, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode operation envelope: %w", err)
	}
	switch env.Tag {
	case OpTransfer:
		var op Transfer
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpTransferToCommonTokens:
		var op TransferToCommonTokens
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpWithdrawCommonTokens:
		var op WithdrawCommonTokens
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpSetWithdrawCommonTokensRoute:
		var op SetWithdrawCommonTokensRoute
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpAccountCreate:
		var op AccountCreate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpAccountUpdate:
		var op AccountUpdate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpWitnessUpdate:
		var op WitnessUpdate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpAccountWitnessVote:
		var op AccountWitnessVote
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpAccountWitnessProxy:
		var op AccountWitnessProxy
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpResearchGroupCreate:
		var op ResearchGroupCreate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpResearchCreate:
		var op ResearchCreate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpResearchUpdate:
		var op ResearchUpdate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpResearchContentCreate:
		var op ResearchContentCreate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpReviewCreate:
		var op ReviewCreate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpReviewVote:
		var op ReviewVote
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpResearchTokenSaleCreate:
		var op ResearchTokenSaleCreate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpResearchTokenSaleContribute:
		var op ResearchTokenSaleContribute
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpProposalUpdate:
		var op ProposalUpdate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpProposalDelete:
		var op ProposalDelete
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpExpertiseAllocationProposalCreate:
		var op ExpertiseAllocationProposalCreate
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpExpertiseAllocationProposalVote:
		var op ExpertiseAllocationProposalVote
		if err := rlp.DecodeBytes(env.Payload, &op); err != nil {
			return nil, err
		}
		return op, nil
	case OpProposalCreate:
		return decodeProposalCreate(env.Payload)
	default:
		return nil, fmt.Errorf("protocol: unknown operation tag %d", env.Tag)
	}
}

// proposalCreateWire is ProposalCreate's wire form: nested operations are
// themselves envelopes, since ProposalCreate.Operations holds the interface
// type directly.
type proposalCreateWire struct {
	Creator             string
	ResearchGroup       string
	Operations          [][]byte
	ExpirationUnix      SignedInt
	ReviewPeriodSeconds uint32
}

func encodeProposalCreate(o ProposalCreate) ([]byte, error) {
	wire := proposalCreateWire{
		Creator:             o.Creator,
		ResearchGroup:       o.ResearchGroup,
		ExpirationUnix:      o.ExpirationUnix,
		ReviewPeriodSeconds: o.ReviewPeriodSeconds,
	}
	for _, op := range o.Operations {
		enc, err := EncodeOperation(op)
		if err != nil {
			return nil, err
		}
		wire.Operations = append(wire.Operations, enc)
	}
	return rlp.EncodeToBytes(wire)
}

func decodeProposalCreate(payload []byte) (Operation, error) {
	var wire proposalCreateWire
	if err := rlp.DecodeBytes(payload, &wire); err != nil {
		return nil, fmt.Errorf("protocol: decode proposal_create: %w", err)
	}
	out := ProposalCreate{
		Creator:             wire.Creator,
		ResearchGroup:       wire.ResearchGroup,
		ExpirationUnix:      wire.ExpirationUnix,
		ReviewPeriodSeconds: wire.ReviewPeriodSeconds,
	}
	for _, enc := range wire.Operations {
		op, err := DecodeOperation(enc)
		if err != nil {
			return nil, err
		}
		out.Operations = append(out.Operations, op)
	}
	return out, nil
}
