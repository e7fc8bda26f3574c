package usecase_test

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/queue"
	"github.com/globaltierra/crm-api/internal/usecase"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) UpsertWithinWindow(ctx context.Context, lead *entity.Lead, window time.Duration) (bool, error) {
	args := m.Called(ctx, lead, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	args := m.Called(ctx, email)
	if lead, ok := args.Get(0).(*entity.Lead); ok {
		return lead, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeadRepository) AdvanceStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockLeadRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.Lead, error) {
	args := m.Called(ctx, from, to)
	if leads, ok := args.Get(0).([]entity.Lead); ok {
		return leads, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeadRepository) ListConvertedBetween(ctx context.Context, from, to time.Time) ([]entity.Lead, error) {
	args := m.Called(ctx, from, to)
	if leads, ok := args.Get(0).([]entity.Lead); ok {
		return leads, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPaymentEventRepository struct {
	mock.Mock
}

func (m *MockPaymentEventRepository) Create(ctx context.Context, event *entity.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPaymentEventRepository) FindByProviderEventID(ctx context.Context, provider entity.PaymentProvider, id string) (*entity.PaymentEvent, error) {
	args := m.Called(ctx, provider, id)
	if event, ok := args.Get(0).(*entity.PaymentEvent); ok {
		return event, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentEventRepository) ResolvePending(ctx context.Context, provider entity.PaymentProvider, id string, status entity.PaymentEventStatus, leadID string) error {
	args := m.Called(ctx, provider, id, status, leadID)
	return args.Error(0)
}

func (m *MockPaymentEventRepository) FindLinkedLeadByTransaction(ctx context.Context, provider entity.PaymentProvider, externalTransactionID string) (string, error) {
	args := m.Called(ctx, provider, externalTransactionID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentEventRepository) ListAppliedBetween(ctx context.Context, from, to time.Time) ([]entity.PaymentEvent, error) {
	args := m.Called(ctx, from, to)
	if events, ok := args.Get(0).([]entity.PaymentEvent); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMessageEventRepository struct {
	mock.Mock
}

func (m *MockMessageEventRepository) Record(ctx context.Context, msg *entity.MessageEvent) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageEventRepository) ListSentBetween(ctx context.Context, from, to time.Time) ([]entity.MessageEvent, error) {
	args := m.Called(ctx, from, to)
	if msgs, ok := args.Get(0).([]entity.MessageEvent); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishNotification(ctx context.Context, payload queue.NotificationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockWebhookProvider struct {
	mock.Mock
}

func (m *MockWebhookProvider) VerifySignature(payload []byte, headers http.Header) error {
	args := m.Called(payload, headers)
	return args.Error(0)
}

func (m *MockWebhookProvider) Normalize(payload []byte) (*usecase.NormalizedEvent, error) {
	args := m.Called(payload)
	if norm, ok := args.Get(0).(*usecase.NormalizedEvent); ok {
		return norm, args.Error(1)
	}
	return nil, args.Error(1)
}
