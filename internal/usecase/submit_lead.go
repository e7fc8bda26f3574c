package usecase

import (
	"context"
	"log"
	"time"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/queue"
)

type SubmitLeadInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type SubmitLeadOutput struct {
	ID      string `json:"id"`
	Deduped bool   `json:"deduped"`
}

type SubmitLeadUseCase struct {
	Leads       LeadRepositoryInterface
	Queue       QueueProducerInterface
	DedupWindow time.Duration
}

func NewSubmitLeadUseCase(leads LeadRepositoryInterface, producer QueueProducerInterface, dedupWindow time.Duration) *SubmitLeadUseCase {
	return &SubmitLeadUseCase{
		Leads:       leads,
		Queue:       producer,
		DedupWindow: dedupWindow,
	}
}

func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) (*SubmitLeadOutput, error) {
	if errs := ValidateSubmitLeadInput(input); len(errs) > 0 {
		return nil, errs
	}

	lead := entity.NewLead(input.Name, input.Email, input.Phone, input.Message)

	deduped, err := uc.Leads.UpsertWithinWindow(ctx, lead, uc.DedupWindow)
	if err != nil {
		return nil, storeUnavailable("upsert lead", err)
	}

	// Notify ops about fresh leads only; a merged resubmission is the
	// same prospect. Best effort: the lead is already durable.
	if !deduped && uc.Queue != nil {
		payload := queue.NotificationPayload{
			Kind:    queue.KindLeadCaptured,
			LeadID:  lead.ID,
			Name:    lead.Name,
			Email:   lead.Email,
			Phone:   lead.Phone,
			Message: lead.Message,
			Origin:  "WEB_FORM",
		}
		if err := uc.Queue.PublishNotification(ctx, payload); err != nil {
			log.Printf("lead %s stored but notification publish failed: %v", lead.ID, err)
		}
	}

	return &SubmitLeadOutput{ID: lead.ID, Deduped: deduped}, nil
}
