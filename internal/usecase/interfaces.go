package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/queue"
)

type LeadRepositoryInterface interface {
	// UpsertWithinWindow creates the lead, or updates the contact
	// fields of an existing lead with the same normalized email
	// created inside the dedup window. Exactly one write, serialized
	// per email. Returns whether the submission was deduped and
	// rewrites lead.ID/CreatedAt with the stored values.
	UpsertWithinWindow(ctx context.Context, lead *entity.Lead, window time.Duration) (bool, error)
	FindByEmail(ctx context.Context, email string) (*entity.Lead, error)
	// AdvanceStatus applies a monotonic transition; lower or equal
	// target statuses are a no-op.
	AdvanceStatus(ctx context.Context, id string, status entity.LeadStatus) error
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.Lead, error)
	ListConvertedBetween(ctx context.Context, from, to time.Time) ([]entity.Lead, error)
}

type PaymentEventRepositoryInterface interface {
	// Create is insert-if-absent on (provider, id); a concurrent
	// duplicate surfaces entity.ErrDuplicatePaymentEvent.
	Create(ctx context.Context, event *entity.PaymentEvent) error
	FindByProviderEventID(ctx context.Context, provider entity.PaymentProvider, id string) (*entity.PaymentEvent, error)
	// ResolvePending moves a RECEIVED/VERIFIED event to its outcome;
	// terminal events are never touched.
	ResolvePending(ctx context.Context, provider entity.PaymentProvider, id string, status entity.PaymentEventStatus, leadID string) error
	// FindLinkedLeadByTransaction returns the lead a prior event with
	// the same external transaction id was linked to, or "".
	FindLinkedLeadByTransaction(ctx context.Context, provider entity.PaymentProvider, externalTransactionID string) (string, error)
	ListAppliedBetween(ctx context.Context, from, to time.Time) ([]entity.PaymentEvent, error)
}

type MessageEventRepositoryInterface interface {
	Record(ctx context.Context, msg *entity.MessageEvent) error
	ListSentBetween(ctx context.Context, from, to time.Time) ([]entity.MessageEvent, error)
}

// NormalizedEvent is the provider-agnostic view of one webhook
// payload. Known=false marks event types we accept but do not apply.
type NormalizedEvent struct {
	EventID               string
	EventType             string
	ExternalTransactionID string
	PayerEmail            string
	AmountCents           int64
	Currency              string
	OccurredAt            time.Time
	Known                 bool
}

// WebhookProvider authenticates and normalizes one provider's
// payloads. Implementations are looked up by entity.PaymentProvider,
// never by payload shape.
type WebhookProvider interface {
	VerifySignature(payload []byte, headers http.Header) error
	Normalize(payload []byte) (*NormalizedEvent, error)
}

type QueueProducerInterface interface {
	PublishNotification(ctx context.Context, payload queue.NotificationPayload) error
}

type SnapshotPublisherInterface interface {
	Publish(ctx context.Context, snapshot *entity.KPISnapshot) error
}
