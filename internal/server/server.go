// Package server exposes the batch intake endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/johnchik/llm-expense-tracker/internal/model"
)

// Config holds server settings.
type Config struct {
	Addr string
}

// BatchProcessor ingests one batch of notifications.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, notifications []model.Notification) (model.BatchResult, error)
}

// Server is the HTTP front of the intake pipeline.
type Server struct {
	httpServer *http.Server
	processor  BatchProcessor
}

// New creates a server.
func New(cfg Config, processor BatchProcessor) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{processor: processor}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleBatch)
	mux.HandleFunc("/notifications", s.handleBatch)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Handler exposes the server's handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type batchRequest struct {
	Notifications []model.Notification `json:"notifications"`
}

type batchResponse struct {
	Type    string             `json:"type"`
	Summary batchSummary       `json:"summary"`
	Results []model.ItemResult `json:"results"`
}

type batchSummary struct {
	New        int `json:"new"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

type errorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Type:    "error",
			Message: "method not allowed",
		})
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Type:    "error",
			Message: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	if req.Notifications == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Type:    "error",
			Message: "missing notifications array",
		})
		return
	}

	result, err := s.processor.ProcessBatch(r.Context(), req.Notifications)
	if err != nil {
		slog.Error("Batch processing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Type:    "error",
			Message: err.Error(),
		})
		return
	}

	// Callers only care about what landed and what broke; skips and
	// duplicates are visible in the summary counts.
	reported := make([]model.ItemResult, 0, len(result.Results))
	for _, item := range result.Results {
		if item.Status == model.StatusLogged || item.Status == model.StatusError {
			reported = append(reported, item)
		}
	}

	writeJSON(w, http.StatusOK, batchResponse{
		Type: "batch_processed",
		Summary: batchSummary{
			New:        result.New,
			Duplicates: result.Duplicates,
			Errors:     result.Errors,
		},
		Results: reported,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
