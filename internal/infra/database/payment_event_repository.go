package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/globaltierra/crm-api/internal/entity"
)

type PaymentEventRepository struct {
	DB *sql.DB
}

func NewPaymentEventRepository(db *sql.DB) *PaymentEventRepository {
	return &PaymentEventRepository{DB: db}
}

// Create is the insert-if-absent primitive the replay guarantee rests
// on: the primary key (provider, id) makes the second concurrent
// delivery fail with a unique violation instead of double-applying.
func (r *PaymentEventRepository) Create(ctx context.Context, event *entity.PaymentEvent) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO payment_events (
			id, provider, external_transaction_id, lead_id,
			amount_cents, currency, occurred_at, raw_payload_hash,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		event.ID,
		event.Provider,
		event.ExternalTransactionID,
		nullString(event.LeadID),
		event.AmountCents,
		event.Currency,
		event.OccurredAt,
		event.RawPayloadHash,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entity.ErrDuplicatePaymentEvent
		}
		return err
	}

	return nil
}

func (r *PaymentEventRepository) FindByProviderEventID(ctx context.Context, provider entity.PaymentProvider, id string) (*entity.PaymentEvent, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, provider, external_transaction_id, COALESCE(lead_id, ''),
		       amount_cents, currency, occurred_at, raw_payload_hash,
		       status, created_at, updated_at
		FROM payment_events
		WHERE provider = $1 AND id = $2
	`, provider, id)

	event, err := scanPaymentEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPaymentEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ResolvePending finalizes an event stored in a non-terminal state.
// The status guard keeps APPLIED and REJECTED rows immutable.
func (r *PaymentEventRepository) ResolvePending(ctx context.Context, provider entity.PaymentProvider, id string, status entity.PaymentEventStatus, leadID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE payment_events
		SET status = $3, lead_id = $4, updated_at = NOW()
		WHERE provider = $1 AND id = $2
		  AND status IN ('RECEIVED', 'VERIFIED')
	`, provider, id, status, nullString(leadID))
	return err
}

func (r *PaymentEventRepository) FindLinkedLeadByTransaction(ctx context.Context, provider entity.PaymentProvider, externalTransactionID string) (string, error) {
	var leadID string
	err := r.DB.QueryRowContext(ctx, `
		SELECT lead_id FROM payment_events
		WHERE provider = $1 AND external_transaction_id = $2 AND lead_id IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, provider, externalTransactionID).Scan(&leadID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return leadID, nil
}

func (r *PaymentEventRepository) ListAppliedBetween(ctx context.Context, from, to time.Time) ([]entity.PaymentEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, provider, external_transaction_id, COALESCE(lead_id, ''),
		       amount_cents, currency, occurred_at, raw_payload_hash,
		       status, created_at, updated_at
		FROM payment_events
		WHERE status = 'APPLIED' AND occurred_at >= $1 AND occurred_at < $2
		ORDER BY occurred_at, id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []entity.PaymentEvent
	for rows.Next() {
		event, err := scanPaymentEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func scanPaymentEvent(row rowScanner) (*entity.PaymentEvent, error) {
	var event entity.PaymentEvent
	err := row.Scan(
		&event.ID,
		&event.Provider,
		&event.ExternalTransactionID,
		&event.LeadID,
		&event.AmountCents,
		&event.Currency,
		&event.OccurredAt,
		&event.RawPayloadHash,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
