// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package metrics exposes the relay pipeline's prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PipelineMetrics tracks the submission-to-relay pipeline.
type PipelineMetrics struct {
	submittedMessageCount   *prometheus.CounterVec
	rejectedMessageCount    *prometheus.CounterVec
	executedMessageCount    *prometheus.CounterVec
	failedRelayMessageCount *prometheus.CounterVec
	relayQueueDepth         prometheus.Gauge
}

func NewPipelineMetrics(registerer prometheus.Registerer) *PipelineMetrics {
	m := PipelineMetrics{
		submittedMessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "submitted_message_count",
				Help: "Number of messages admitted and enqueued for relay",
			},
			[]string{"source_chain_id", "destination_chain_id"},
		),
		rejectedMessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rejected_message_count",
				Help: "Number of submissions rejected at admission",
			},
			[]string{"reason"},
		),
		executedMessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "executed_message_count",
				Help: "Number of messages that relayed and executed successfully",
			},
			[]string{"destination_chain_id"},
		),
		failedRelayMessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failed_relay_message_count",
				Help: "Number of messages that reached the Failed terminal status",
			},
			[]string{"destination_chain_id", "failure_reason"},
		),
		relayQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_queue_depth",
				Help: "Number of messages waiting in the relay queue",
			},
		),
	}

	registerer.MustRegister(m.submittedMessageCount)
	registerer.MustRegister(m.rejectedMessageCount)
	registerer.MustRegister(m.executedMessageCount)
	registerer.MustRegister(m.failedRelayMessageCount)
	registerer.MustRegister(m.relayQueueDepth)

	return &m
}

func (m *PipelineMetrics) IncSubmitted(sourcePara, destPara uint32) {
	m.submittedMessageCount.WithLabelValues(paraLabel(sourcePara), paraLabel(destPara)).Inc()
}

func (m *PipelineMetrics) IncRejected(reason string) {
	m.rejectedMessageCount.WithLabelValues(reason).Inc()
}

func (m *PipelineMetrics) IncExecuted(destPara uint32) {
	m.executedMessageCount.WithLabelValues(paraLabel(destPara)).Inc()
}

func (m *PipelineMetrics) IncFailed(destPara uint32, reason string) {
	m.failedRelayMessageCount.WithLabelValues(paraLabel(destPara), reason).Inc()
}

func (m *PipelineMetrics) SetQueueDepth(depth int) {
	m.relayQueueDepth.Set(float64(depth))
}

func paraLabel(paraID uint32) string {
	return strconv.FormatUint(uint64(paraID), 10)
}

// StartMetricsServer serves the registry on its own port.
func StartMetricsServer(logger *zap.Logger, port uint16) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		addr := fmt.Sprintf(":%d", port)
		logger.Info("starting metrics server", zap.Uint16("port", port))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server exited", zap.Error(err))
		}
	}()

	return registry
}
