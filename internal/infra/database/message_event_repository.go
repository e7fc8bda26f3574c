package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/globaltierra/crm-api/internal/entity"
)

type MessageEventRepository struct {
	DB *sql.DB
}

func NewMessageEventRepository(db *sql.DB) *MessageEventRepository {
	return &MessageEventRepository{DB: db}
}

func (r *MessageEventRepository) Record(ctx context.Context, msg *entity.MessageEvent) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO message_events (id, lead_id, kind, recipient, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, nullString(msg.LeadID), msg.Kind, msg.Recipient, msg.SentAt)
	return err
}

func (r *MessageEventRepository) ListSentBetween(ctx context.Context, from, to time.Time) ([]entity.MessageEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, COALESCE(lead_id, ''), kind, recipient, sent_at
		FROM message_events
		WHERE sent_at >= $1 AND sent_at < $2
		ORDER BY sent_at, id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []entity.MessageEvent
	for rows.Next() {
		var msg entity.MessageEvent
		if err := rows.Scan(&msg.ID, &msg.LeadID, &msg.Kind, &msg.Recipient, &msg.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
