// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package types defines the XCM Lite message model: envelopes, the sealed
// instruction set, amounts, protocol versions, and the status/error
// taxonomy shared across the relay pipeline.
package types

import (
	"encoding/json"
	"fmt"
)

// Envelope is an incoming message submission. It is immutable once
// admitted; the pipeline only ever reads it.
type Envelope struct {
	// MessageID is the optional caller-supplied id. When empty the
	// processor mints one.
	MessageID string `json:"messageId,omitempty"`

	SenderPara   uint32       `json:"senderPara"`
	DestPara     uint32       `json:"destPara"`
	Version      Version      `json:"xcmVersion"`
	Instructions Instructions `json:"instructions"`

	// Signature is the hex-encoded ed25519 signature over SigningBytes.
	Signature string `json:"signature,omitempty"`
}

// Validate checks structural correctness against the configured protocol
// version. It is pure: no side effects, deterministic for any well-formed
// envelope.
func (e *Envelope) Validate(configuredVersion string) *ValidationError {
	if e.SenderPara == 0 || e.DestPara == 0 {
		return NewInvalidPayload("sender and destination parachain IDs must be non-zero")
	}
	if e.SenderPara == e.DestPara {
		return NewInvalidPayload("sender and destination parachain IDs must differ")
	}
	if len(e.Instructions) == 0 {
		return NewInvalidPayload("at least one instruction is required")
	}
	if !e.Version.Matches(configuredVersion) {
		return NewVersionMismatch(fmt.Sprintf(
			"message version %s mismatches configured version %s", e.Version, configuredVersion))
	}
	for i, instruction := range e.Instructions {
		if err := instruction.Validate(); err != nil {
			return NewInvalidPayload(fmt.Sprintf("instruction %d invalid: %s", i, err.Detail))
		}
	}
	return nil
}

// SigningBytes returns the canonical byte serialization the sender signs:
// the JSON encoding of the envelope with the signature field cleared.
// Admission reconstructs these bytes deterministically from the inbound
// representation, so clients and server always agree on what was signed.
func (e *Envelope) SigningBytes() ([]byte, error) {
	unsigned := *e
	unsigned.Signature = ""
	b, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize envelope: %w", err)
	}
	return b, nil
}
