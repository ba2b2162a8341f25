package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"adpilot/internal/core/domain"
)

// executeRequest is the wire shape of POST /api/v1/execute.
type executeRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Context    struct {
		UserID    string `json:"user_id"`
		SessionID string `json:"session_id"`
	} `json:"context"`
}

// errorBody is the error half of the response envelope.
type errorBody struct {
	Code      string         `json:"code"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id"`
}

// handleExecute decodes the action envelope, dispatches it to the engine
// and renders the standard {status, ...} envelope. Failures are always a
// structured error object, never a bare message.
func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, domain.NewValidationError("request body is not valid JSON"))
		return
	}
	if req.Action == "" {
		h.writeError(w, requestID, domain.NewValidationError("action is required"))
		return
	}

	cc := domain.CallContext{
		UserID:    req.Context.UserID,
		SessionID: req.Context.SessionID,
		RequestID: requestID,
	}
	result, err := h.engine.Execute(r.Context(), req.Action, req.Parameters, cc)
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	h.writeSuccess(w, result)
}

// handleCheckRules lets an external scheduler drive a rule evaluation
// pass; the response lists every rule that fired.
func (h *Handler) handleCheckRules(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	triggers, err := h.engine.CheckRules(r.Context())
	if err != nil {
		h.writeError(w, requestID, err)
		return
	}
	if triggers == nil {
		triggers = []domain.RuleTrigger{}
	}
	h.writeSuccess(w, map[string]any{"triggers": triggers})
}

// writeSuccess flattens the payload into the success envelope, so callers
// see {status:"success", campaign_id:..., ...} rather than a nested
// result object.
func (h *Handler) writeSuccess(w http.ResponseWriter, payload any) {
	body := map[string]any{"status": "success"}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			var fields map[string]any
			if json.Unmarshal(raw, &fields) == nil {
				for k, v := range fields {
					body[k] = v
				}
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, requestID string, err error) {
	engErr := domain.AsEngineError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(engErr))
	body := map[string]any{
		"status": "error",
		"error": errorBody{
			Code:      engErr.Code,
			Type:      string(engErr.Type),
			Message:   engErr.Message,
			Details:   engErr.Details,
			Timestamp: time.Now().UTC(),
			RequestID: requestID,
		},
	}
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		h.logger.Error("encode error response", slog.Any("error", encErr))
	}
}

func httpStatus(err *domain.Error) int {
	switch err.Type {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeBusiness:
		if err.Code == domain.CodeUnknownAction {
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	case domain.ErrorTypePlatform, domain.ErrorTypeSync:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
