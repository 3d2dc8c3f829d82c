package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
)

// Direct tool endpoints bypass the agent pipeline and call one backend
// through the gateway. Payloads are duck-typed the way the original tools
// were: a plain string, a structured object or its serialized form all
// normalize to the same request.

func decodeToolInput(r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		// Non-JSON bodies are treated as plain text input.
		return string(body), nil
	}
	return input, nil
}

func (s *Server) toolSearchHandler(w http.ResponseWriter, r *http.Request) {
	input, err := decodeToolInput(r)
	if err != nil {
		http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req, err := gateway.NormalizeSearchInput(input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.system.Gateway().Search(r.Context(), req)
	if err != nil {
		writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": records})
}

func (s *Server) toolSentimentHandler(w http.ResponseWriter, r *http.Request) {
	input, err := decodeToolInput(r)
	if err != nil {
		http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req, err := gateway.NormalizeSentimentInput(input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	scores, err := s.system.Gateway().ScoreSentiment(r.Context(), req)
	if err != nil {
		writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": scores})
}

func (s *Server) toolCompleteHandler(w http.ResponseWriter, r *http.Request) {
	input, err := decodeToolInput(r)
	if err != nil {
		http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req, err := gateway.NormalizeCompletionInput(input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text, err := s.system.Gateway().Complete(r.Context(), req)
	if err != nil {
		writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// writeToolError maps the failure taxonomy onto HTTP status codes.
func writeToolError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch core.CodeOf(err) {
	case core.CodeInvalidInput:
		status = http.StatusBadRequest
	case core.CodeTimeout:
		status = http.StatusGatewayTimeout
	case core.CodeMalformedResponse:
		status = http.StatusBadGateway
	case core.CodeServiceUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": string(core.CodeOf(err))})
}
