package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/globaltierra/crm-api/internal/infra/http/handlers"
	"github.com/globaltierra/crm-api/internal/usecase"
)

func newLeadHandler(leads *MockLeadRepository, producer *MockQueueProducer) *handlers.LeadHandler {
	uc := usecase.NewSubmitLeadUseCase(leads, producer, 24*time.Hour)
	return handlers.NewLeadHandler(uc)
}

func postLead(t *testing.T, h *handlers.LeadHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestLeadHandler_Created(t *testing.T) {
	leads := new(MockLeadRepository)
	producer := new(MockQueueProducer)
	leads.On("UpsertWithinWindow", mock.Anything, mock.AnythingOfType("*entity.Lead"), 24*time.Hour).Return(false, nil)
	producer.On("PublishNotification", mock.Anything, mock.Anything).Return(nil)

	rec := postLead(t, newLeadHandler(leads, producer), `{
		"name": "Ana Maria",
		"email": "Ana@Example.com",
		"phone": "+57 3001234567",
		"message": "Quisiera cotizar el tour a Cartagena"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var out usecase.SubmitLeadOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.ID)
	assert.False(t, out.Deduped)
	leads.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestLeadHandler_Deduped(t *testing.T) {
	leads := new(MockLeadRepository)
	producer := new(MockQueueProducer)
	leads.On("UpsertWithinWindow", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	rec := postLead(t, newLeadHandler(leads, producer), `{
		"name": "Ana Maria",
		"email": "ana@example.com",
		"message": "Segunda consulta"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var out usecase.SubmitLeadOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Deduped)
	producer.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
}

func TestLeadHandler_ValidationListsEveryField(t *testing.T) {
	leads := new(MockLeadRepository)
	producer := new(MockQueueProducer)

	rec := postLead(t, newLeadHandler(leads, producer), `{"phone": "abc"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error  string                    `json:"error"`
		Fields []usecase.ValidationError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body.Error)

	fields := make([]string, 0, len(body.Fields))
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "message", "phone"}, fields)
	leads.AssertNotCalled(t, "UpsertWithinWindow", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeadHandler_InvalidJSON(t *testing.T) {
	rec := postLead(t, newLeadHandler(new(MockLeadRepository), new(MockQueueProducer)), `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
}

func TestLeadHandler_StoreUnavailable(t *testing.T) {
	leads := new(MockLeadRepository)
	leads.On("UpsertWithinWindow", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))

	rec := postLead(t, newLeadHandler(leads, new(MockQueueProducer)), `{
		"name": "Ana Maria",
		"email": "ana@example.com",
		"message": "Consulta"
	}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "store_unavailable")
}

func TestLeadHandler_RateLimited(t *testing.T) {
	leads := new(MockLeadRepository)
	producer := new(MockQueueProducer)
	leads.On("UpsertWithinWindow", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	producer.On("PublishNotification", mock.Anything, mock.Anything).Return(nil)

	h := newLeadHandler(leads, producer)

	body := `{"name": "Ana", "email": "ana@example.com", "message": "hola"}`
	for i := 0; i < 10; i++ {
		rec := postLead(t, h, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := postLead(t, h, body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")

	// A different client is not affected.
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec = httptest.NewRecorder()
	h.Handle(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
