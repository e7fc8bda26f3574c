package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/http/middleware"
	"github.com/globaltierra/crm-api/internal/usecase"
)

const maxWebhookBody = 1 << 20 // 1 MiB

type WebhookHandler struct {
	Ingest *usecase.IngestWebhookUseCase
}

func NewWebhookHandler(ingest *usecase.IngestWebhookUseCase) *WebhookHandler {
	return &WebhookHandler{Ingest: ingest}
}

type webhookResponse struct {
	Status   string `json:"status"`
	EventID  string `json:"event_id,omitempty"`
	Replayed bool   `json:"replayed,omitempty"`
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	provider, err := entity.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown_provider"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable_body"})
		return
	}

	output, err := h.Ingest.Execute(r.Context(), usecase.IngestWebhookInput{
		Provider: provider,
		Payload:  body,
		Headers:  r.Header,
	})
	if err != nil {
		h.writeError(w, provider, err)
		return
	}

	middleware.RecordWebhookEvent(string(provider), string(output.Status))

	// REJECTED and RECEIVED are still 200: the delivery was handled,
	// the provider must not retry it.
	writeJSON(w, http.StatusOK, webhookResponse{
		Status:   string(output.Status),
		EventID:  output.EventID,
		Replayed: output.Replayed,
	})
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, provider entity.PaymentProvider, err error) {
	if usecase.IsAuthenticationError(err) {
		middleware.RecordWebhookEvent(string(provider), "unauthenticated")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_signature"})
		return
	}

	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": de.Code})
		return
	}

	// Transient failure: 5xx tells the provider to retry; idempotency
	// makes the retry safe.
	log.Printf("webhook %s ingestion failed: %v", provider, err)
	middleware.RecordWebhookEvent(string(provider), "error")
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "temporarily_unavailable"})
}
