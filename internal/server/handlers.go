package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ratewise/ratewise/internal/common"
	"github.com/ratewise/ratewise/internal/model"
)

// maxRequestBytes bounds the estimate request body.
const maxRequestBytes = 1 << 20

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req model.EstimateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	result, err := s.estimator.Estimate(ctx, req)
	if err != nil {
		status, body := errorResponse(err)
		attrs := append(common.ErrorAttrs(err), "status", status, "request_id", RequestID(r.Context()))
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "Estimate failed", attrs...)
		} else {
			s.logger.InfoContext(ctx, "Estimate rejected", attrs...)
		}
		writeJSON(w, status, body)
		return
	}

	if err := writeJSON(w, http.StatusOK, result); err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode estimate",
			"error", err, "request_id", RequestID(r.Context()))
	}
}

// errorResponse maps a pipeline error to its HTTP status and body.
// Validation maps to 400; every other kind is a 500 carrying details.
func errorResponse(err error) (int, ErrorResponse) {
	switch common.Kind(err) {
	case common.ErrValidation:
		return http.StatusBadRequest, ErrorResponse{Error: common.Details(err)}
	case common.ErrUpstreamConfig:
		return http.StatusInternalServerError, ErrorResponse{Error: "estimation service is not configured", Details: common.Details(err)}
	case common.ErrDataAccess:
		return http.StatusInternalServerError, ErrorResponse{Error: "failed to load historical context", Details: common.Details(err)}
	case common.ErrCompletionTransport:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusInternalServerError, ErrorResponse{Error: "completion request timed out", Details: common.Details(err)}
		}
		return http.StatusInternalServerError, ErrorResponse{Error: "completion request failed", Details: common.Details(err)}
	case common.ErrResponseParse:
		return http.StatusInternalServerError, ErrorResponse{Error: "model returned unparseable output", Details: common.Details(err)}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Details: err.Error()}
	}
}

// writeJSON encodes v before touching the response, so an unencodable
// value becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "failed to encode response", Details: err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
	return err
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}
