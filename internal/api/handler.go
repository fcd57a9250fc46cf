package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MediNotify/internal/db"
	"MediNotify/internal/dispatch"
	"MediNotify/internal/models"
	"MediNotify/internal/orchestrator"
)

// LogLister is the admin-view slice of the store.
type LogLister interface {
	ListLogs(ctx context.Context, limit int) ([]*models.NotificationLog, error)
}

type Handler struct {
	Worker       *dispatch.Worker
	Queue        orchestrator.Enqueuer
	Templates    orchestrator.TemplateResolver
	Orchestrator *orchestrator.Orchestrator
	Logs         LogLister
	Feed         *RecordFeed
	Log          *zap.Logger
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /hooks/notification-log", h.DispatchHook)
	mux.HandleFunc("POST /notify", h.Notify)
	mux.HandleFunc("POST /order-events", h.OrderEvent)
	mux.HandleFunc("GET /logs", h.ListLogs)
	mux.HandleFunc("GET /records", h.ListRecords)
	return mux
}

// hookPayload is the database webhook envelope delivered once per inserted
// notification log.
type hookPayload struct {
	Type   string `json:"type"`
	Table  string `json:"table"`
	Schema string `json:"schema"`
	Record struct {
		ID             string                 `json:"id"`
		TemplateID     string                 `json:"template_id"`
		RecipientEmail string                 `json:"recipient_email"`
		RecipientName  string                 `json:"recipient_name"`
		ContextData    map[string]interface{} `json:"context_data"`
		Status         string                 `json:"status"`
	} `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

// DispatchHook is the dispatch worker's inbound entry point. The body is
// parsed exactly once and the parsed record carried through both the success
// and failure paths.
func (h *Handler) DispatchHook(w http.ResponseWriter, r *http.Request) {
	var payload hookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.Log.Error("invalid webhook payload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "invalid webhook payload: "+err.Error())
		return
	}

	if models.LogStatus(payload.Record.Status) != models.StatusPending {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "skipped": true})
		return
	}

	log, err := h.logFromPayload(r.Context(), payload)
	if err != nil {
		h.Log.Error("unusable webhook record",
			zap.String("record_id", payload.Record.ID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := h.Worker.Process(r.Context(), log)
	switch out.Kind {
	case dispatch.OutcomeSkipped:
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "skipped": true})
	case dispatch.OutcomeSent:
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": out.ProviderID})
	default:
		writeError(w, http.StatusInternalServerError, out.Err.Error())
	}
}

// logFromPayload re-reads the row so a replayed delivery sees the latest
// status; a row the store does not know yet falls back to the payload.
func (h *Handler) logFromPayload(ctx context.Context, payload hookPayload) (*models.NotificationLog, error) {
	id, err := uuid.Parse(payload.Record.ID)
	if err != nil {
		return nil, errors.New("webhook record has no usable id")
	}

	if log, err := h.Worker.Store.GetLog(ctx, id); err == nil {
		return log, nil
	} else if !errors.Is(err, db.ErrLogNotFound) {
		h.Log.Warn("could not re-read log, using webhook record",
			zap.String("log_id", id.String()),
			zap.Error(err),
		)
	}

	templateID, err := uuid.Parse(payload.Record.TemplateID)
	if err != nil {
		return nil, errors.New("webhook record has no usable template_id")
	}
	return &models.NotificationLog{
		ID:             id,
		TemplateID:     templateID,
		RecipientEmail: payload.Record.RecipientEmail,
		RecipientName:  payload.Record.RecipientName,
		ContextData:    payload.Record.ContextData,
		Status:         models.LogStatus(payload.Record.Status),
	}, nil
}

type notifyRequest struct {
	Trigger   string `json:"trigger"`
	Recipient struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"recipient"`
	Payload map[string]interface{} `json:"payload"`
}

// Notify queues one email for an event trigger. This is the consolidated
// replacement for the storefront's overlapping helper endpoints.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Trigger == "" || req.Recipient.Email == "" {
		writeError(w, http.StatusBadRequest, "trigger and recipient.email are required")
		return
	}

	tmpl, err := h.Templates.GetTemplateByTrigger(r.Context(), req.Trigger)
	if err != nil {
		// a disabled notification type is a skip, not a failure
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "skipped": true})
		return
	}

	if !h.Queue.Enqueue(r.Context(), req.Recipient.Email, req.Recipient.Name, tmpl.ID, req.Payload) {
		writeError(w, http.StatusInternalServerError, "failed to queue notification")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"success": true})
}

type orderEventRequest struct {
	Status models.OrderStatus `json:"status"`
	Order  models.Order       `json:"order"`
}

// OrderEvent fires the orchestrator for one order status transition.
func (h *Handler) OrderEvent(w http.ResponseWriter, r *http.Request) {
	var req orderEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Status == "" || req.Order.ID == "" {
		writeError(w, http.StatusBadRequest, "status and order.id are required")
		return
	}

	h.Orchestrator.Notify(r.Context(), req.Status, req.Order)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"success": true})
}

// ListLogs serves the admin notification-log table.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Logs.ListLogs(r.Context(), 50)
	if err != nil {
		h.Log.Error("failed to list notification logs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": logs})
}

// ListRecords serves the in-memory notification feed.
func (h *Handler) ListRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": h.Feed.Snapshot()})
}
