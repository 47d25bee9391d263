package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/DegrassiAaron/meepleai/apimodels"
)

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	var req apimodels.QARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}
	slog.Debug("Received QA request", "gameId", req.GameID, "conversationId", req.ConversationID)

	result := s.engine.Ask(r.Context(), req.GameID, req.Query)
	writeJSON(w, result)
}

func (s *Server) handleChess(w http.ResponseWriter, r *http.Request) {
	var req apimodels.ChessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	result := s.engine.AskChess(r.Context(), req.Query)
	writeJSON(w, result)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req apimodels.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	result := s.engine.Explain(r.Context(), req.GameID, req.Topic)
	writeJSON(w, result)
}

func (s *Server) handleSetupGuide(w http.ResponseWriter, r *http.Request) {
	var req apimodels.SetupGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	result := s.engine.GenerateSetupGuide(r.Context(), req.GameID)
	writeJSON(w, result)
}

// handleQAStream answers over SSE: each event is one data: line holding
// the JSON stream event envelope. The client dropping the connection
// cancels the request context and stops the pipeline.
func (s *Server) handleQAStream(w http.ResponseWriter, r *http.Request) {
	var req apimodels.QARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for event := range s.engine.StreamAsk(r.Context(), req.GameID, req.Query) {
		data, err := json.Marshal(event)
		if err != nil {
			slog.Error("Failed to encode stream event", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req apimodels.InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.GameID == "" {
		http.Error(w, "gameId is required", http.StatusBadRequest)
		return
	}

	var err error
	if req.Endpoint == "" {
		err = s.cache.InvalidateGame(r.Context(), req.GameID)
	} else {
		err = s.cache.InvalidateEndpoint(r.Context(), req.GameID, req.Endpoint)
	}
	if err != nil {
		slog.Error("Cache invalidation failed", "gameId", req.GameID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
