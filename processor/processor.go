// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package processor implements the submission-to-relay pipeline: the
// synchronous admission path (validate, authenticate, register, enqueue)
// and the asynchronous relay worker that drains the queue and finalizes
// message status.
package processor

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luxfi/xcmsim/cache"
	"github.com/luxfi/xcmsim/keys"
	"github.com/luxfi/xcmsim/metrics"
	"github.com/luxfi/xcmsim/state"
	"github.com/luxfi/xcmsim/types"
)

const (
	// QueueCapacity bounds the relay queue; producers block once it fills.
	QueueCapacity = 128

	// MaxHops is the hop ceiling enforced by the relay worker.
	MaxHops = 3

	// signatureCacheSize bounds the verified-signature memo.
	signatureCacheSize = 1024
)

// ErrChannelClosed reports that the relay queue has been shut down: the
// worker is no longer consuming and the process should be considered
// degraded. The rejected submission itself is safe to retry.
var ErrChannelClosed = errors.New("relay channel closed")

// QueuedMessage is one admitted message waiting for relay.
type QueuedMessage struct {
	MessageID  string
	Envelope   types.Envelope
	RawPayload []byte
}

type sigCacheKey struct {
	paraID      uint32
	payloadHash [sha256.Size]byte
	signature   string
}

// Processor coordinates message validation, signature checking, and
// enqueueing for relay. Submit runs on the caller's goroutine; many may
// run concurrently.
type Processor struct {
	store             *state.Store
	keys              *keys.Registry
	configuredVersion string
	log               *zap.Logger
	metrics           *metrics.PipelineMetrics

	queue     chan QueuedMessage
	done      chan struct{}
	closeOnce sync.Once

	sigCache *cache.LRUCache[sigCacheKey, struct{}]
}

// New constructs the processor and its bounded relay queue.
func New(
	store *state.Store,
	registry *keys.Registry,
	configuredVersion string,
	log *zap.Logger,
	m *metrics.PipelineMetrics,
) *Processor {
	return &Processor{
		store:             store,
		keys:              registry,
		configuredVersion: configuredVersion,
		log:               log,
		metrics:           m,
		queue:             make(chan QueuedMessage, QueueCapacity),
		done:              make(chan struct{}),
		sigCache:          cache.NewLRUCache[sigCacheKey, struct{}](signatureCacheSize),
	}
}

// Submit validates the envelope, verifies its signature, registers a
// Pending record, and enqueues the message for relay. It returns the
// resolved message id; relay runs asynchronously and its outcome is only
// observable via status lookup.
//
// The Pending record is written before enqueueing. If the enqueue then
// fails the record stays Pending with nothing in flight for it; a
// resubmission under the same id overwrites it.
func (p *Processor) Submit(
	ctx context.Context,
	envelope types.Envelope,
	rawPayload []byte,
	signature []byte,
) (string, error) {
	if err := envelope.Validate(p.configuredVersion); err != nil {
		p.metrics.IncRejected(string(err.Code))
		return "", err
	}

	if err := p.verifySignature(envelope.SenderPara, rawPayload, signature); err != nil {
		p.metrics.IncRejected(string(types.CodeInvalidSignature))
		return "", err
	}

	messageID := envelope.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	if err := p.store.PutMessage(messageID, types.PendingRecord(envelope.SenderPara)); err != nil {
		return "", err
	}

	queued := QueuedMessage{
		MessageID:  messageID,
		Envelope:   envelope,
		RawPayload: rawPayload,
	}
	if err := p.enqueue(ctx, queued); err != nil {
		return "", err
	}

	p.metrics.IncSubmitted(envelope.SenderPara, envelope.DestPara)
	p.metrics.SetQueueDepth(len(p.queue))
	p.log.Debug("message admitted",
		zap.String("messageID", messageID),
		zap.Uint32("senderPara", envelope.SenderPara),
		zap.Uint32("destPara", envelope.DestPara),
	)
	return messageID, nil
}

// verifySignature checks the sender's signature over the raw payload,
// memoizing successful verifications so replayed identical submissions
// skip the ed25519 check. Failures are never memoized.
func (p *Processor) verifySignature(paraID uint32, rawPayload, signature []byte) error {
	key := sigCacheKey{
		paraID:      paraID,
		payloadHash: sha256.Sum256(rawPayload),
		signature:   string(signature),
	}
	_, err := p.sigCache.Get(key, func(sigCacheKey) (struct{}, error) {
		return struct{}{}, p.keys.Verify(paraID, rawPayload, signature)
	}, false)
	return err
}

// enqueue blocks until queue capacity is available, the queue is shut
// down, or the caller's context is canceled. A send that races with Close
// is reported as ErrChannelClosed, never dropped silently.
func (p *Processor) enqueue(ctx context.Context, queued QueuedMessage) (err error) {
	defer func() {
		if recover() != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case p.queue <- queued:
		return nil
	case <-p.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the relay queue down. In-flight and later submissions fail
// with ErrChannelClosed; the worker drains what was already enqueued and
// then stops.
func (p *Processor) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		close(p.queue)
	})
}

// Closed reports whether the relay queue has been shut down.
func (p *Processor) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// QueueDepth returns the number of messages waiting for relay.
func (p *Processor) QueueDepth() int {
	return len(p.queue)
}
