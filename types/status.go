// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

// Status is the lifecycle state of an admitted message.
//
// Pending is set at admission; Executed and Failed are terminal and are
// written exactly once by the relay worker. Relayed exists for wire
// compatibility with clients of the original enum; the worker transitions
// straight from Pending to a terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRelayed  Status = "relayed"
	StatusExecuted Status = "executed"
	StatusFailed   Status = "failed"
)

// Terminal reports whether no further transition occurs from this status.
func (s Status) Terminal() bool {
	return s == StatusExecuted || s == StatusFailed
}

// MessageRecord tracks one admitted message. Records are created by the
// processor at Pending, finalized by the relay worker, and retained for
// the process lifetime.
type MessageRecord struct {
	Status Status   `json:"status"`
	Hops   []uint32 `json:"hops"`

	// Outcome is the engine's effect summary, set only on Executed and
	// possibly absent.
	Outcome string `json:"outcome,omitempty"`

	// Error is the stringified failure cause, set only on Failed.
	Error string `json:"error,omitempty"`
}

// PendingRecord returns the record registered at admission: Pending, with
// the sender as the only traversed hop so far.
func PendingRecord(senderPara uint32) MessageRecord {
	return MessageRecord{
		Status: StatusPending,
		Hops:   []uint32{senderPara},
	}
}

// ExecutedRecord returns a terminal Executed record.
func ExecutedRecord(hops []uint32, outcome string) MessageRecord {
	return MessageRecord{Status: StatusExecuted, Hops: hops, Outcome: outcome}
}

// FailedRecord returns a terminal Failed record.
func FailedRecord(hops []uint32, cause string) MessageRecord {
	return MessageRecord{Status: StatusFailed, Hops: hops, Error: cause}
}
