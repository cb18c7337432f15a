// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package api is the HTTP boundary of the relay: it translates transport
// requests into processor calls and status lookups, and maps pipeline
// errors onto status codes.
package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/luxfi/xcmsim/config"
	"github.com/luxfi/xcmsim/keys"
	"github.com/luxfi/xcmsim/processor"
	"github.com/luxfi/xcmsim/state"
	"github.com/luxfi/xcmsim/types"
)

const (
	SubmitPath = "/submit"
	StatusPath = "/status/{id}"
	ConfigPath = "/config"
)

// SubmitResponse acknowledges an admitted message.
type SubmitResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId"`
}

// ErrorResponse is the error body returned for every rejected request.
type ErrorResponse struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

// Server wires the admission boundary onto HTTP routes.
type Server struct {
	logger    *zap.Logger
	cfg       config.Config
	store     *state.Store
	processor *processor.Processor
}

func NewServer(logger *zap.Logger, cfg config.Config, store *state.Store, p *processor.Processor) *Server {
	return &Server{
		logger:    logger,
		cfg:       cfg,
		store:     store,
		processor: p,
	}
}

// Router returns the API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(SubmitPath, s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc(StatusPath, s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc(ConfigPath, s.handleConfig).Methods(http.MethodGet)
	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var envelope types.Envelope
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&envelope); err != nil {
		s.writeError(w, err)
		return
	}

	if envelope.Signature == "" {
		s.writeError(w, types.NewInvalidPayload("signature is required"))
		return
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(envelope.Signature, "0x"))
	if err != nil {
		s.writeError(w, types.NewInvalidPayload("signature decoding failed: "+err.Error()))
		return
	}

	rawPayload, err := envelope.SigningBytes()
	if err != nil {
		s.writeError(w, types.NewInvalidPayload(err.Error()))
		return
	}

	messageID, err := s.processor.Submit(r.Context(), envelope, rawPayload, signature)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SubmitResponse{Status: "Accepted", MessageID: messageID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, ok, err := s.store.GetMessage(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{
			Code:    types.CodeInvalidPayload,
			Message: "message not found",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	// Secret key material never leaves the process; the struct tags strip it.
	s.writeJSON(w, http.StatusOK, s.cfg)
}

// writeError maps a pipeline error onto an HTTP status and error body.
//
// Validation errors are client mistakes (400, or 409 for version skew);
// authentication failures are 401; a closed relay queue means the service
// is degraded (503); poisoned state is an internal fault (500).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		validation   *types.ValidationError
		unknownChain *keys.UnknownChainError
	)

	switch {
	case errors.As(err, &validation):
		status := http.StatusBadRequest
		switch validation.Code {
		case types.CodeVersionMismatch:
			status = http.StatusConflict
		case types.CodeInvalidSignature:
			status = http.StatusUnauthorized
		}
		s.writeJSON(w, status, ErrorResponse{Code: validation.Code, Message: validation.Detail})

	case errors.As(err, &unknownChain), errors.Is(err, keys.ErrInvalidSignature):
		s.writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Code:    types.CodeInvalidSignature,
			Message: "signature verification failed",
		})

	case errors.Is(err, processor.ErrChannelClosed):
		s.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Code:    types.CodeInvalidPayload,
			Message: "relay channel unavailable",
		})

	case errors.Is(err, state.ErrStatePoisoned):
		s.logger.Error("shared state poisoned", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    types.CodeInvalidPayload,
			Message: "internal state error",
		})

	default:
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    types.CodeInvalidPayload,
			Message: err.Error(),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}
