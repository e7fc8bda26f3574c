package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusConverted LeadStatus = "CONVERTED"
	LeadStatusPaid      LeadStatus = "PAID"
)

// Rank orders the lead lifecycle. Transitions only move forward.
func (s LeadStatus) Rank() int {
	switch s {
	case LeadStatusNew:
		return 0
	case LeadStatusContacted:
		return 1
	case LeadStatusConverted:
		return 2
	case LeadStatusPaid:
		return 3
	}
	return -1
}

func (s LeadStatus) CanAdvanceTo(next LeadStatus) bool {
	return s.Rank() < next.Rank()
}

type Lead struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Message     string     `json:"message"`
	Status      LeadStatus `json:"status"`
	ConvertedAt *time.Time `json:"converted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NormalizeEmail is the canonical form used for dedup lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NewLead(name, email, phone, message string) *Lead {
	now := time.Now().UTC()
	return &Lead{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Phone:     strings.TrimSpace(phone),
		Message:   strings.TrimSpace(message),
		Status:    LeadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
