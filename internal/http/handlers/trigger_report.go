package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mydailysportsreport/whatsapp-bot/internal/reports"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

// TriggerReportHandler lets an operator kick off an immediate report run for
// one subscriber, e.g. right after a manual signup fix.
type TriggerReportHandler struct {
	trigger reports.Trigger
	logger  *logging.Logger
}

func NewTriggerReportHandler(trigger reports.Trigger, logger *logging.Logger) *TriggerReportHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TriggerReportHandler{trigger: trigger, logger: logger}
}

func (h *TriggerReportHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubscriberID string `json:"subscriber_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubscriberID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "subscriber_id required"})
		return
	}

	if err := h.trigger.Fire(r.Context(), req.SubscriberID); err != nil {
		h.logger.Error("manual report trigger failed", "subscriber_id", req.SubscriberID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"triggered": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"triggered": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
