// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package engine applies admitted messages to destination chain state.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/luxfi/xcmsim/state"
	"github.com/luxfi/xcmsim/types"
)

// UnknownParachainError reports execution against an unregistered
// destination chain.
type UnknownParachainError struct {
	ParaID uint32
}

func (e *UnknownParachainError) Error() string {
	return fmt.Sprintf("destination parachain %d not registered", e.ParaID)
}

// Outcome is what execution produced, one entry per applied instruction.
type Outcome struct {
	Logs []string
}

// Summary renders the outcome for status lookups. Empty when nothing was
// applied.
func (o Outcome) Summary() string {
	if len(o.Logs) == 0 {
		return ""
	}
	return fmt.Sprintf("%d instructions applied", len(o.Logs))
}

// Engine executes a validated envelope against the destination ledger.
type Engine interface {
	Execute(envelope *types.Envelope) (Outcome, error)
}

// LedgerEngine is the default engine: it applies instruction effects to the
// in-memory ledger of the destination parachain. All of one message's
// effects are applied under the destination ledger's exclusive section;
// effects are not rolled back across instructions.
type LedgerEngine struct {
	store *state.Store
	log   *zap.Logger
}

// NewLedgerEngine returns an engine bound to the shared store.
func NewLedgerEngine(store *state.Store, log *zap.Logger) *LedgerEngine {
	return &LedgerEngine{store: store, log: log}
}

func (e *LedgerEngine) Execute(envelope *types.Envelope) (Outcome, error) {
	if !e.store.HasChain(envelope.DestPara) {
		return Outcome{}, &UnknownParachainError{ParaID: envelope.DestPara}
	}

	var (
		logs   []string
		insErr error
	)
	err := e.store.MutateLedger(envelope.DestPara, func(tx *state.LedgerTx) {
		for _, instruction := range envelope.Instructions {
			line, err := applyInstruction(tx, instruction)
			if err != nil {
				insErr = err
				return
			}
			logs = append(logs, line)
		}
	})
	if err != nil {
		return Outcome{}, err
	}
	if insErr != nil {
		return Outcome{}, insErr
	}

	e.log.Debug("executed message",
		zap.Uint32("destPara", envelope.DestPara),
		zap.Int("instructions", len(logs)),
	)
	return Outcome{Logs: logs}, nil
}

// applyInstruction dispatches over the sealed instruction set. An unknown
// variant is an error, never a silent no-op.
func applyInstruction(tx *state.LedgerTx, instruction types.Instruction) (string, error) {
	switch data := instruction.(type) {
	case *types.TransferReserveAsset:
		newBalance := tx.Credit(data.Beneficiary, data.Amount.Int())
		tx.Log(fmt.Sprintf("Balance updated: %s => %s", data.Beneficiary, newBalance.Dec()))
		return fmt.Sprintf("TransferReserveAsset: %s %s to %s", data.Amount, data.Asset, data.Beneficiary), nil
	case *types.Transact:
		tx.Log(fmt.Sprintf("Transact executed: call_data_len=%d, weight=%d",
			len(data.CallData), data.WeightOrDefault()))
		return fmt.Sprintf("Transact: call_data=%d bytes, weight=%d",
			len(data.CallData), data.WeightOrDefault()), nil
	case *types.QueryResponse:
		tx.Log(fmt.Sprintf("QueryResponse stored: id=%s, response=%s", data.QueryID, data.Response))
		return fmt.Sprintf("QueryResponse: id=%s, response_length=%d",
			data.QueryID, len(data.Response)), nil
	default:
		return "", fmt.Errorf("unsupported instruction kind %q", instruction.Kind())
	}
}
