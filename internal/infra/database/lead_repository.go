package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/globaltierra/crm-api/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// UpsertWithinWindow merges a resubmission from the same normalized
// email into the existing lead when it was created inside the dedup
// window, otherwise inserts a fresh lead. The advisory lock serializes
// concurrent submissions per email so exactly one row wins.
func (r *LeadRepository) UpsertWithinWindow(ctx context.Context, lead *entity.Lead, window time.Duration) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lead.Email); err != nil {
		return false, err
	}

	cutoff := time.Now().UTC().Add(-window)

	var existingID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM leads
		WHERE email = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, lead.Email, cutoff).Scan(&existingID)

	switch {
	case err == nil:
		err = tx.QueryRowContext(ctx, `
			UPDATE leads
			SET name = $2, phone = $3, message = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING id, created_at, updated_at, status
		`, existingID, lead.Name, nullString(lead.Phone), lead.Message).Scan(
			&lead.ID, &lead.CreatedAt, &lead.UpdatedAt, &lead.Status,
		)
		if err != nil {
			return false, err
		}
		return true, tx.Commit()

	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO leads (id, name, email, phone, message, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, lead.ID, lead.Name, lead.Email, nullString(lead.Phone), lead.Message,
			lead.Status, lead.CreatedAt, lead.UpdatedAt)
		if err != nil {
			return false, err
		}
		return false, tx.Commit()

	default:
		return false, err
	}
}

func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), message, status, converted_at, created_at, updated_at
		FROM leads
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, email)

	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// AdvanceStatus only ever moves the lifecycle forward. Transitions
// into CONVERTED or PAID stamp converted_at once.
func (r *LeadRepository) AdvanceStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads
		SET status = $2,
		    converted_at = CASE
		        WHEN $2 IN ('CONVERTED', 'PAID') AND converted_at IS NULL THEN NOW()
		        ELSE converted_at
		    END,
		    updated_at = NOW()
		WHERE id = $1
		  AND CASE status
		        WHEN 'NEW' THEN 0
		        WHEN 'CONTACTED' THEN 1
		        WHEN 'CONVERTED' THEN 2
		        WHEN 'PAID' THEN 3
		      END <
		      CASE $2
		        WHEN 'NEW' THEN 0
		        WHEN 'CONTACTED' THEN 1
		        WHEN 'CONVERTED' THEN 2
		        WHEN 'PAID' THEN 3
		      END
	`, id, status)
	if err != nil {
		return fmt.Errorf("advance lead status: %w", err)
	}

	// Zero rows means the lead is already at or past the target,
	// which is the no-op a redelivery expects. Only a missing lead is
	// an error.
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return entity.ErrLeadNotFound
		}
	}
	return nil
}

func (r *LeadRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.Lead, error) {
	return r.list(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), message, status, converted_at, created_at, updated_at
		FROM leads
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at, id
	`, from, to)
}

func (r *LeadRepository) ListConvertedBetween(ctx context.Context, from, to time.Time) ([]entity.Lead, error) {
	return r.list(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), message, status, converted_at, created_at, updated_at
		FROM leads
		WHERE converted_at IS NOT NULL AND converted_at >= $1 AND converted_at < $2
		ORDER BY converted_at, id
	`, from, to)
}

func (r *LeadRepository) list(ctx context.Context, query string, from, to time.Time) ([]entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var lead entity.Lead
	var convertedAt sql.NullTime
	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Message,
		&lead.Status,
		&convertedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if convertedAt.Valid {
		t := convertedAt.Time
		lead.ConvertedAt = &t
	}
	return &lead, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
