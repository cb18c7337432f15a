// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luxfi/xcmsim/state"
	"github.com/luxfi/xcmsim/types"
)

func newTestEngine(t *testing.T) (*LedgerEngine, *state.Store) {
	t.Helper()
	store, err := state.New([]uint32{1000, 2000})
	require.NoError(t, err)
	return NewLedgerEngine(store, zap.NewNop()), store
}

func transferEnvelope(dest uint32, amount uint64) *types.Envelope {
	return &types.Envelope{
		SenderPara: 1000,
		DestPara:   dest,
		Version:    types.VersionV3,
		Instructions: types.Instructions{
			&types.TransferReserveAsset{
				Asset:       "DOT",
				Amount:      types.NewAmount(amount),
				Beneficiary: "acct-123",
			},
		},
	}
}

func TestExecuteTransfer(t *testing.T) {
	engine, store := newTestEngine(t)

	outcome, err := engine.Execute(transferEnvelope(2000, 10))
	require.NoError(t, err)
	require.Equal(t, []string{"TransferReserveAsset: 10 DOT to acct-123"}, outcome.Logs)
	require.Equal(t, "1 instructions applied", outcome.Summary())

	balance, ok := store.Balance(2000, "acct-123")
	require.True(t, ok)
	require.Equal(t, "10", balance.Dec())

	view, err := store.LedgerSnapshot(2000)
	require.NoError(t, err)
	require.Equal(t, []string{"Balance updated: acct-123 => 10"}, view.Logs)
}

func TestExecuteTransferAccumulates(t *testing.T) {
	engine, store := newTestEngine(t)

	_, err := engine.Execute(transferEnvelope(2000, 10))
	require.NoError(t, err)
	_, err = engine.Execute(transferEnvelope(2000, 5))
	require.NoError(t, err)

	balance, _ := store.Balance(2000, "acct-123")
	require.Equal(t, "15", balance.Dec())
}

func TestExecuteMixedInstructions(t *testing.T) {
	engine, store := newTestEngine(t)
	weight := uint64(7)

	envelope := &types.Envelope{
		SenderPara: 1000,
		DestPara:   2000,
		Version:    types.VersionV3,
		Instructions: types.Instructions{
			&types.Transact{CallData: "0xabcdef", Weight: &weight},
			&types.QueryResponse{QueryID: "q-1", Response: "ok"},
		},
	}

	outcome, err := engine.Execute(envelope)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Transact: call_data=8 bytes, weight=7",
		"QueryResponse: id=q-1, response_length=2",
	}, outcome.Logs)
	require.Equal(t, "2 instructions applied", outcome.Summary())

	view, err := store.LedgerSnapshot(2000)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Transact executed: call_data_len=8, weight=7",
		"QueryResponse stored: id=q-1, response=ok",
	}, view.Logs)
}

func TestExecuteDefaultWeight(t *testing.T) {
	engine, _ := newTestEngine(t)

	envelope := &types.Envelope{
		SenderPara:   1000,
		DestPara:     2000,
		Version:      types.VersionV3,
		Instructions: types.Instructions{&types.Transact{CallData: "abc"}},
	}

	outcome, err := engine.Execute(envelope)
	require.NoError(t, err)
	require.Equal(t, []string{"Transact: call_data=3 bytes, weight=0"}, outcome.Logs)
}

func TestExecuteUnknownDestination(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Execute(transferEnvelope(9999, 10))
	var unknown *UnknownParachainError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, uint32(9999), unknown.ParaID)
	require.Contains(t, err.Error(), "9999")
}

func TestEmptyOutcomeSummary(t *testing.T) {
	require.Empty(t, Outcome{}.Summary())
}
