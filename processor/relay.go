// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package processor

import (
	"context"

	"go.uber.org/zap"

	"github.com/luxfi/xcmsim/engine"
	"github.com/luxfi/xcmsim/metrics"
	"github.com/luxfi/xcmsim/types"
)

const hopLimitExceeded = "maximum hop count exceeded"

// RelayWorker is the single consumer of the relay queue. Exactly one
// worker runs per process; that exclusivity is what serializes status
// finalization and ledger writes per destination without per-message locks.
type RelayWorker struct {
	processor *Processor
	engine    engine.Engine
	log       *zap.Logger
	metrics   *metrics.PipelineMetrics
}

// NewRelayWorker binds the worker to the processor's queue and an engine.
func NewRelayWorker(p *Processor, e engine.Engine, log *zap.Logger, m *metrics.PipelineMetrics) *RelayWorker {
	return &RelayWorker{processor: p, engine: e, log: log, metrics: m}
}

// Run drains the queue until the processor is closed or the context is
// canceled. After Close, messages already enqueued are still drained to a
// terminal status; a single message's failure never stops the loop.
func (w *RelayWorker) Run(ctx context.Context) {
	p := w.processor
	for {
		select {
		case queued, ok := <-p.queue:
			if !ok {
				w.log.Info("relay worker stopping", zap.String("reason", "queue closed"))
				return
			}
			w.process(queued)
		case <-ctx.Done():
			w.log.Info("relay worker stopping", zap.String("reason", "context canceled"))
			return
		}
	}
}

// process routes one message through its hop path and execution, then
// finalizes its status. Every dequeued message reaches exactly one
// terminal state.
func (w *RelayWorker) process(queued QueuedMessage) {
	envelope := queued.Envelope
	hops := []uint32{envelope.SenderPara, envelope.DestPara}

	var record types.MessageRecord
	if len(hops) > MaxHops {
		record = types.FailedRecord(hops, hopLimitExceeded)
		w.metrics.IncFailed(envelope.DestPara, "hop_limit")
	} else if outcome, err := w.engine.Execute(&envelope); err != nil {
		record = types.FailedRecord(hops, err.Error())
		w.metrics.IncFailed(envelope.DestPara, "execution")
		w.log.Warn("message execution failed",
			zap.String("messageID", queued.MessageID),
			zap.Uint32("destPara", envelope.DestPara),
			zap.Error(err),
		)
	} else {
		record = types.ExecutedRecord(hops, outcome.Summary())
		w.metrics.IncExecuted(envelope.DestPara)
	}

	// Upsert: if admission's record went missing the outcome is written
	// into a fresh one rather than dropped.
	if err := w.processor.store.PutMessage(queued.MessageID, record); err != nil {
		w.log.Error("failed to finalize message status",
			zap.String("messageID", queued.MessageID),
			zap.Error(err),
		)
	}
	w.metrics.SetQueueDepth(len(w.processor.queue))
}
