package usecase

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/queue"
)

type IngestWebhookInput struct {
	Provider entity.PaymentProvider
	Payload  []byte
	Headers  http.Header
}

type IngestWebhookOutput struct {
	EventID string                    `json:"event_id"`
	Status  entity.PaymentEventStatus `json:"status"`
	LeadID  string                    `json:"lead_id,omitempty"`
	// Replayed marks a redelivery that returned the prior outcome
	// without reprocessing.
	Replayed bool `json:"replayed"`
}

type IngestWebhookUseCase struct {
	Events    PaymentEventRepositoryInterface
	Leads     LeadRepositoryInterface
	Providers map[entity.PaymentProvider]WebhookProvider
	Queue     QueueProducerInterface

	AllowedCurrencies map[string]bool
	// Timeout bounds verification plus store writes for one delivery;
	// on expiry the provider gets a 5xx and retries.
	Timeout time.Duration
}

func NewIngestWebhookUseCase(
	events PaymentEventRepositoryInterface,
	leads LeadRepositoryInterface,
	providers map[entity.PaymentProvider]WebhookProvider,
	producer QueueProducerInterface,
	allowedCurrencies []string,
	timeout time.Duration,
) *IngestWebhookUseCase {
	allowed := make(map[string]bool, len(allowedCurrencies))
	for _, c := range allowedCurrencies {
		allowed[c] = true
	}
	return &IngestWebhookUseCase{
		Events:            events,
		Leads:             leads,
		Providers:         providers,
		Queue:             producer,
		AllowedCurrencies: allowed,
		Timeout:           timeout,
	}
}

func (uc *IngestWebhookUseCase) Execute(ctx context.Context, input IngestWebhookInput) (*IngestWebhookOutput, error) {
	if uc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.Timeout)
		defer cancel()
	}

	provider, ok := uc.Providers[input.Provider]
	if !ok {
		return nil, &DomainError{Code: "UNKNOWN_PROVIDER", Message: "no webhook integration for " + string(input.Provider)}
	}

	// 1. Authenticate before anything touches the store, so spoofed
	// deliveries never pollute it.
	if err := provider.VerifySignature(input.Payload, input.Headers); err != nil {
		return nil, &AuthenticationError{Provider: string(input.Provider), Reason: err.Error()}
	}

	// 2. Normalize the provider-native shape.
	norm, err := provider.Normalize(input.Payload)
	if err != nil {
		return nil, &DomainError{Code: "MALFORMED_PAYLOAD", Message: err.Error()}
	}

	// 3. Idempotency: a terminal prior outcome is returned as-is. A
	// non-terminal prior (unlinked, or an unknown event type) may be
	// re-resolved now, e.g. when the matching lead arrived late.
	if existing, err := uc.Events.FindByProviderEventID(ctx, input.Provider, norm.EventID); err == nil {
		if existing.Status.IsTerminal() {
			return &IngestWebhookOutput{
				EventID:  existing.ID,
				Status:   existing.Status,
				LeadID:   existing.LeadID,
				Replayed: true,
			}, nil
		}
		return uc.resolvePending(ctx, input.Provider, existing, norm)
	} else if !errors.Is(err, entity.ErrPaymentEventNotFound) {
		return nil, storeUnavailable("lookup payment event", err)
	}

	event := &entity.PaymentEvent{
		ID:                    norm.EventID,
		Provider:              input.Provider,
		ExternalTransactionID: norm.ExternalTransactionID,
		AmountCents:           norm.AmountCents,
		Currency:              norm.Currency,
		OccurredAt:            norm.OccurredAt,
		RawPayloadHash:        entity.HashPayload(input.Payload),
		CreatedAt:             time.Now().UTC(),
		UpdatedAt:             time.Now().UTC(),
	}

	// 4. Unsupported event types are kept for audit but never applied.
	if !norm.Known {
		event.Status = entity.PaymentEventReceived
		return uc.persist(ctx, input.Provider, event, norm)
	}

	// 5. Link to a lead; acceptance never blocks on lead existence.
	leadID, err := uc.linkLead(ctx, input.Provider, norm)
	if err != nil {
		return nil, err
	}
	if leadID == "" {
		event.Status = entity.PaymentEventVerified
		return uc.persist(ctx, input.Provider, event, norm)
	}
	event.LeadID = leadID

	// 6. Sanity check decides APPLIED vs REJECTED.
	if !uc.sane(norm) {
		event.Status = entity.PaymentEventRejected
		return uc.persist(ctx, input.Provider, event, norm)
	}

	// Advance the lead before claiming the event id: the transition is
	// monotonic, so the losing side of a concurrent redelivery turns
	// it into a no-op.
	if err := uc.Leads.AdvanceStatus(ctx, leadID, entity.LeadStatusPaid); err != nil {
		return nil, storeUnavailable("advance lead status", err)
	}

	event.Status = entity.PaymentEventApplied
	return uc.persist(ctx, input.Provider, event, norm)
}

// resolvePending retries linking and applying for an event stored
// earlier in a non-terminal state.
func (uc *IngestWebhookUseCase) resolvePending(ctx context.Context, provider entity.PaymentProvider, existing *entity.PaymentEvent, norm *NormalizedEvent) (*IngestWebhookOutput, error) {
	if !norm.Known {
		return &IngestWebhookOutput{EventID: existing.ID, Status: existing.Status, Replayed: true}, nil
	}

	leadID, err := uc.linkLead(ctx, provider, norm)
	if err != nil {
		return nil, err
	}
	if leadID == "" {
		return &IngestWebhookOutput{EventID: existing.ID, Status: existing.Status, Replayed: true}, nil
	}

	status := entity.PaymentEventRejected
	if uc.sane(norm) {
		if err := uc.Leads.AdvanceStatus(ctx, leadID, entity.LeadStatusPaid); err != nil {
			return nil, storeUnavailable("advance lead status", err)
		}
		status = entity.PaymentEventApplied
	}

	if err := uc.Events.ResolvePending(ctx, provider, existing.ID, status, leadID); err != nil {
		return nil, storeUnavailable("resolve pending payment event", err)
	}

	if status == entity.PaymentEventApplied {
		uc.notifyApplied(ctx, provider, leadID, norm)
	}

	return &IngestWebhookOutput{EventID: existing.ID, Status: status, LeadID: leadID}, nil
}

func (uc *IngestWebhookUseCase) persist(ctx context.Context, provider entity.PaymentProvider, event *entity.PaymentEvent, norm *NormalizedEvent) (*IngestWebhookOutput, error) {
	err := uc.Events.Create(ctx, event)
	if errors.Is(err, entity.ErrDuplicatePaymentEvent) {
		// Lost the race against a concurrent delivery of the same id;
		// the winner's outcome is the outcome.
		winner, findErr := uc.Events.FindByProviderEventID(ctx, provider, event.ID)
		if findErr != nil {
			return nil, storeUnavailable("lookup winning payment event", findErr)
		}
		return &IngestWebhookOutput{
			EventID:  winner.ID,
			Status:   winner.Status,
			LeadID:   winner.LeadID,
			Replayed: true,
		}, nil
	}
	if err != nil {
		return nil, storeUnavailable("insert payment event", err)
	}

	if event.Status == entity.PaymentEventApplied {
		uc.notifyApplied(ctx, provider, event.LeadID, norm)
	}

	return &IngestWebhookOutput{EventID: event.ID, Status: event.Status, LeadID: event.LeadID}, nil
}

// linkLead resolves the lead by payer email, falling back to a prior
// event linked under the same external transaction id.
func (uc *IngestWebhookUseCase) linkLead(ctx context.Context, provider entity.PaymentProvider, norm *NormalizedEvent) (string, error) {
	if norm.PayerEmail != "" {
		lead, err := uc.Leads.FindByEmail(ctx, entity.NormalizeEmail(norm.PayerEmail))
		if err == nil {
			return lead.ID, nil
		}
		if !errors.Is(err, entity.ErrLeadNotFound) {
			return "", storeUnavailable("lookup lead by email", err)
		}
	}

	if norm.ExternalTransactionID != "" {
		leadID, err := uc.Events.FindLinkedLeadByTransaction(ctx, provider, norm.ExternalTransactionID)
		if err != nil {
			return "", storeUnavailable("lookup lead by transaction", err)
		}
		return leadID, nil
	}

	return "", nil
}

func (uc *IngestWebhookUseCase) sane(norm *NormalizedEvent) bool {
	return norm.AmountCents >= 0 && uc.AllowedCurrencies[norm.Currency]
}

func (uc *IngestWebhookUseCase) notifyApplied(ctx context.Context, provider entity.PaymentProvider, leadID string, norm *NormalizedEvent) {
	if uc.Queue == nil {
		return
	}
	payload := queue.NotificationPayload{
		Kind:        queue.KindPaymentApplied,
		LeadID:      leadID,
		Email:       norm.PayerEmail,
		Provider:    string(provider),
		AmountCents: norm.AmountCents,
		Currency:    norm.Currency,
		Origin:      "WEBHOOK_" + string(provider),
	}
	if err := uc.Queue.PublishNotification(ctx, payload); err != nil {
		log.Printf("payment %s applied but notification publish failed: %v", norm.EventID, err)
	}
}
