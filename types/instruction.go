// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InstructionKind is the wire tag discriminating instruction variants.
type InstructionKind string

const (
	KindTransferReserveAsset InstructionKind = "transferReserveAsset"
	KindTransact             InstructionKind = "transact"
	KindQueryResponse        InstructionKind = "queryResponse"
)

// Instruction is the closed set of XCM instructions supported by the
// simulation. The set is sealed: new variants must be added here, to the
// decoder below, and to every dispatch site (the engine rejects unknown
// kinds instead of ignoring them).
type Instruction interface {
	// Kind returns the wire tag of the variant.
	Kind() InstructionKind

	// Validate checks the variant's structural invariants.
	Validate() *ValidationError

	sealedInstruction()
}

// TransferReserveAsset credits an asset amount to a beneficiary on the
// destination chain.
type TransferReserveAsset struct {
	Asset       string `json:"asset"`
	Amount      Amount `json:"amount"`
	Beneficiary string `json:"beneficiary"`
}

func (*TransferReserveAsset) Kind() InstructionKind { return KindTransferReserveAsset }
func (*TransferReserveAsset) sealedInstruction()    {}

func (t *TransferReserveAsset) Validate() *ValidationError {
	if strings.TrimSpace(t.Asset) == "" {
		return NewInvalidPayload("asset identifier must be provided")
	}
	if t.Amount.IsZero() {
		return NewInvalidPayload("transfer amount must be greater than zero")
	}
	if strings.TrimSpace(t.Beneficiary) == "" {
		return NewInvalidPayload("beneficiary must be provided")
	}
	return nil
}

func (t *TransferReserveAsset) MarshalJSON() ([]byte, error) {
	type alias TransferReserveAsset
	return json.Marshal(struct {
		Type InstructionKind `json:"type"`
		*alias
	}{KindTransferReserveAsset, (*alias)(t)})
}

// Transact records an opaque call against the destination chain.
type Transact struct {
	CallData string  `json:"callData"`
	Weight   *uint64 `json:"weight,omitempty"`
}

func (*Transact) Kind() InstructionKind { return KindTransact }
func (*Transact) sealedInstruction()    {}

func (t *Transact) Validate() *ValidationError {
	if strings.TrimSpace(t.CallData) == "" {
		return NewInvalidPayload("callData must be provided")
	}
	return nil
}

// WeightOrDefault returns the declared weight, or zero when absent.
func (t *Transact) WeightOrDefault() uint64 {
	if t.Weight == nil {
		return 0
	}
	return *t.Weight
}

func (t *Transact) MarshalJSON() ([]byte, error) {
	type alias Transact
	return json.Marshal(struct {
		Type InstructionKind `json:"type"`
		*alias
	}{KindTransact, (*alias)(t)})
}

// QueryResponse delivers a response payload for a previously issued query.
type QueryResponse struct {
	QueryID  string `json:"queryId"`
	Response string `json:"response"`
}

func (*QueryResponse) Kind() InstructionKind { return KindQueryResponse }
func (*QueryResponse) sealedInstruction()    {}

func (q *QueryResponse) Validate() *ValidationError {
	if strings.TrimSpace(q.QueryID) == "" {
		return NewInvalidPayload("queryId must be provided")
	}
	if strings.TrimSpace(q.Response) == "" {
		return NewInvalidPayload("response must be provided")
	}
	return nil
}

func (q *QueryResponse) MarshalJSON() ([]byte, error) {
	type alias QueryResponse
	return json.Marshal(struct {
		Type InstructionKind `json:"type"`
		*alias
	}{KindQueryResponse, (*alias)(q)})
}

// Instructions decodes the tagged union form used on the wire:
// {"type": "transferReserveAsset", ...}.
type Instructions []Instruction

func (ins *Instructions) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}

	decoded := make(Instructions, 0, len(raws))
	for i, raw := range raws {
		instruction, err := UnmarshalInstruction(raw)
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		decoded = append(decoded, instruction)
	}
	*ins = decoded
	return nil
}

// UnmarshalInstruction decodes a single tagged instruction.
func UnmarshalInstruction(raw []byte) (Instruction, error) {
	var tag struct {
		Type InstructionKind `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}

	switch tag.Type {
	case KindTransferReserveAsset:
		var t TransferReserveAsset
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case KindTransact:
		var t Transact
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case KindQueryResponse:
		var q QueryResponse
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, err
		}
		return &q, nil
	default:
		return nil, NewUnsupportedInstruction(fmt.Sprintf("unknown instruction type %q", tag.Type))
	}
}
