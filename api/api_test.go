// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luxfi/xcmsim/config"
	"github.com/luxfi/xcmsim/engine"
	"github.com/luxfi/xcmsim/keys"
	"github.com/luxfi/xcmsim/metrics"
	"github.com/luxfi/xcmsim/processor"
	"github.com/luxfi/xcmsim/state"
	"github.com/luxfi/xcmsim/types"
)

type testService struct {
	server    *httptest.Server
	store     *state.Store
	registry  *keys.Registry
	processor *processor.Processor
	stop      func()
}

// newTestService boots the full pipeline behind an httptest server:
// chains 1000 and 2000, configured version V3, relay worker running.
func newTestService(t *testing.T) *testService {
	t.Helper()

	cfg := config.Config{
		LogLevel:   "info",
		XCMVersion: "V3",
		ChainKeys: []config.ChainKeyConfig{
			{ParaID: 1000, SeedPhrase: "chain one thousand"},
			{ParaID: 2000, SeedPhrase: "chain two thousand"},
		},
	}
	require.NoError(t, cfg.Validate())

	store, err := state.New(cfg.ParaIDs())
	require.NoError(t, err)

	chainKeys := make([]keys.ChainKey, 0, len(cfg.ChainKeys))
	for _, entry := range cfg.ChainKeys {
		chainKeys = append(chainKeys, keys.ChainKey{
			ParaID:     entry.ParaID,
			SecretKey:  entry.SecretKey,
			SeedPhrase: entry.SeedPhrase,
		})
	}
	registry, err := keys.NewRegistry(cfg.ParaIDs(), chainKeys)
	require.NoError(t, err)

	m := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	p := processor.New(store, registry, cfg.XCMVersion, zap.NewNop(), m)
	worker := processor.NewRelayWorker(p, engine.NewLedgerEngine(store, zap.NewNop()), zap.NewNop(), m)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(context.Background())
	}()

	server := httptest.NewServer(NewServer(zap.NewNop(), cfg, store, p).Router())
	svc := &testService{
		server:    server,
		store:     store,
		registry:  registry,
		processor: p,
	}
	svc.stop = func() {
		server.Close()
		p.Close()
		<-workerDone
	}
	t.Cleanup(svc.stop)
	return svc
}

// signEnvelope fills in the envelope's signature over its signing bytes.
func signEnvelope(t *testing.T, registry *keys.Registry, envelope *types.Envelope) {
	t.Helper()
	rawPayload, err := envelope.SigningBytes()
	require.NoError(t, err)
	signature, err := registry.Sign(envelope.SenderPara, rawPayload)
	require.NoError(t, err)
	envelope.Signature = hex.EncodeToString(signature)
}

func transferEnvelope(sender, dest uint32) *types.Envelope {
	return &types.Envelope{
		SenderPara: sender,
		DestPara:   dest,
		Version:    types.VersionV3,
		Instructions: types.Instructions{
			&types.TransferReserveAsset{
				Asset:       "DOT",
				Amount:      types.NewAmount(10),
				Beneficiary: "acct-123",
			},
		},
	}
}

func (svc *testService) submit(t *testing.T, envelope *types.Envelope) *http.Response {
	t.Helper()
	body, err := json.Marshal(envelope)
	require.NoError(t, err)
	resp, err := http.Post(svc.server.URL+SubmitPath, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (svc *testService) getStatus(t *testing.T, messageID string) (*http.Response, types.MessageRecord) {
	t.Helper()
	resp, err := http.Get(svc.server.URL + "/status/" + messageID)
	require.NoError(t, err)
	var record types.MessageRecord
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	}
	resp.Body.Close()
	return resp, record
}

func (svc *testService) waitForTerminal(t *testing.T, messageID string) types.MessageRecord {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		resp, record := svc.getStatus(t, messageID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		if record.Status.Terminal() {
			return record
		}
		select {
		case <-deadline:
			t.Fatalf("message %s never reached a terminal status", messageID)
		case <-time.After(time.Millisecond):
		}
	}
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	return body
}

func TestSubmitAndExecuteTransfer(t *testing.T) {
	svc := newTestService(t)

	envelope := transferEnvelope(1000, 2000)
	signEnvelope(t, svc.registry, envelope)

	resp := svc.submit(t, envelope)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accepted SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	resp.Body.Close()
	require.Equal(t, "Accepted", accepted.Status)
	require.NotEmpty(t, accepted.MessageID)

	record := svc.waitForTerminal(t, accepted.MessageID)
	require.Equal(t, types.StatusExecuted, record.Status)
	require.Equal(t, []uint32{1000, 2000}, record.Hops)

	balance, ok := svc.store.Balance(2000, "acct-123")
	require.True(t, ok)
	require.Equal(t, "10", balance.Dec())
}

func TestSubmitToUnregisteredDestination(t *testing.T) {
	svc := newTestService(t)

	envelope := transferEnvelope(1000, 9999)
	signEnvelope(t, svc.registry, envelope)

	resp := svc.submit(t, envelope)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accepted SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	resp.Body.Close()

	record := svc.waitForTerminal(t, accepted.MessageID)
	require.Equal(t, types.StatusFailed, record.Status)
	require.Contains(t, record.Error, "9999")
	require.Equal(t, []uint32{1000, 9999}, record.Hops)
}

func TestSubmitMissingSignature(t *testing.T) {
	svc := newTestService(t)

	resp := svc.submit(t, transferEnvelope(1000, 2000))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	require.Equal(t, types.CodeInvalidPayload, body.Code)
}

func TestSubmitBadSignature(t *testing.T) {
	svc := newTestService(t)

	envelope := transferEnvelope(1000, 2000)
	envelope.Signature = hex.EncodeToString(make([]byte, 64))

	resp := svc.submit(t, envelope)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeError(t, resp)
	require.Equal(t, types.CodeInvalidSignature, body.Code)

	// No record was created for the rejected submission.
	require.Equal(t, 0, svc.store.MessageCount())
}

func TestSubmitVersionMismatch(t *testing.T) {
	svc := newTestService(t)

	envelope := transferEnvelope(1000, 2000)
	envelope.Version = types.VersionV4
	signEnvelope(t, svc.registry, envelope)

	resp := svc.submit(t, envelope)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeError(t, resp)
	require.Equal(t, types.CodeVersionMismatch, body.Code)
}

func TestSubmitAfterShutdown(t *testing.T) {
	svc := newTestService(t)
	svc.processor.Close()

	envelope := transferEnvelope(1000, 2000)
	signEnvelope(t, svc.registry, envelope)

	resp := svc.submit(t, envelope)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestStatusNotFound(t *testing.T) {
	svc := newTestService(t)

	resp, _ := svc.getStatus(t, "no-such-message")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusPendingVisibleImmediately(t *testing.T) {
	svc := newTestService(t)

	// Submit directly so the worker has not seen the message yet.
	envelope := transferEnvelope(1000, 2000)
	rawPayload, err := envelope.SigningBytes()
	require.NoError(t, err)
	signature, err := svc.registry.Sign(1000, rawPayload)
	require.NoError(t, err)

	messageID, err := svc.processor.Submit(context.Background(), *envelope, rawPayload, signature)
	require.NoError(t, err)

	resp, record := svc.getStatus(t, messageID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// Pending means accepted-not-yet-processed; the worker may already
	// have finished, but it must never read as rejected.
	require.Contains(t, []types.Status{types.StatusPending, types.StatusExecuted}, record.Status)
}

func TestConfigEndpointHidesSecrets(t *testing.T) {
	svc := newTestService(t)

	resp, err := http.Get(svc.server.URL + ConfigPath)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	resp.Body.Close()

	require.Equal(t, "V3", raw["xcm-version"])
	encoded, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NotContains(t, string(encoded), "seed")
	require.NotContains(t, string(encoded), "secret")
}
