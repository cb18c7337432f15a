// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// ErrorCode is the high-level error code exposed at the API boundary.
type ErrorCode string

const (
	CodeInvalidPayload         ErrorCode = "invalidPayload"
	CodeInvalidSignature       ErrorCode = "invalidSignature"
	CodeVersionMismatch        ErrorCode = "versionMismatch"
	CodeUnsupportedInstruction ErrorCode = "unsupportedInstruction"
)

// ValidationError is a client-caused structural or semantic rejection.
// It carries the wire-level code plus a human-readable detail.
type ValidationError struct {
	Code   ErrorCode `json:"code"`
	Detail string    `json:"detail"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// NewInvalidPayload returns a ValidationError with the invalidPayload code.
func NewInvalidPayload(detail string) *ValidationError {
	return &ValidationError{Code: CodeInvalidPayload, Detail: detail}
}

// NewVersionMismatch returns a ValidationError with the versionMismatch code.
func NewVersionMismatch(detail string) *ValidationError {
	return &ValidationError{Code: CodeVersionMismatch, Detail: detail}
}

// NewUnsupportedInstruction returns a ValidationError with the
// unsupportedInstruction code.
func NewUnsupportedInstruction(detail string) *ValidationError {
	return &ValidationError{Code: CodeUnsupportedInstruction, Detail: detail}
}
