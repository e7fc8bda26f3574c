package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/queue"
	"github.com/globaltierra/crm-api/internal/usecase"
)

func TestSubmitLeadCreatesAndNotifies(t *testing.T) {
	ctx := context.Background()
	leadRepo := new(MockLeadRepository)
	producer := new(MockQueueProducer)

	leadRepo.On("UpsertWithinWindow", ctx, mock.MatchedBy(func(l *entity.Lead) bool {
		return l.Email == "ana@x.com" && l.Status == entity.LeadStatusNew
	}), 24*time.Hour).Return(false, nil)

	producer.On("PublishNotification", ctx, mock.MatchedBy(func(p queue.NotificationPayload) bool {
		return p.Kind == queue.KindLeadCaptured && p.Email == "ana@x.com"
	})).Return(nil)

	uc := usecase.NewSubmitLeadUseCase(leadRepo, producer, 24*time.Hour)

	out, err := uc.Execute(ctx, usecase.SubmitLeadInput{
		Name:    "Ana",
		Email:   "Ana@X.com", // mixed case, must be normalized
		Message: "hola",
	})

	assert.NoError(t, err)
	assert.False(t, out.Deduped)
	assert.NotEmpty(t, out.ID)
	leadRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestSubmitLeadDedupSkipsNotification(t *testing.T) {
	ctx := context.Background()
	leadRepo := new(MockLeadRepository)
	producer := new(MockQueueProducer)

	// Resubmission inside the window merges into the existing lead.
	leadRepo.On("UpsertWithinWindow", ctx, mock.MatchedBy(func(l *entity.Lead) bool {
		return l.Email == "ana@x.com" && l.Message == "hola2"
	}), 24*time.Hour).Return(true, nil)

	uc := usecase.NewSubmitLeadUseCase(leadRepo, producer, 24*time.Hour)

	out, err := uc.Execute(ctx, usecase.SubmitLeadInput{
		Name:    "Ana",
		Email:   " ana@x.com ",
		Message: "hola2",
	})

	assert.NoError(t, err)
	assert.True(t, out.Deduped)
	producer.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
}

func TestSubmitLeadValidationFailureListsAllFields(t *testing.T) {
	uc := usecase.NewSubmitLeadUseCase(new(MockLeadRepository), new(MockQueueProducer), 24*time.Hour)

	_, err := uc.Execute(context.Background(), usecase.SubmitLeadInput{
		Name:  "",
		Email: "nope",
	})

	var verrs usecase.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3) // name, email, message
}

func TestSubmitLeadStoreFailureIsTechnical(t *testing.T) {
	ctx := context.Background()
	leadRepo := new(MockLeadRepository)
	leadRepo.On("UpsertWithinWindow", ctx, mock.Anything, mock.Anything).
		Return(false, errors.New("connection refused"))

	uc := usecase.NewSubmitLeadUseCase(leadRepo, new(MockQueueProducer), 24*time.Hour)

	_, err := uc.Execute(ctx, usecase.SubmitLeadInput{
		Name:    "Ana",
		Email:   "ana@x.com",
		Message: "hola",
	})

	assert.True(t, usecase.IsTechnicalError(err))
}

func TestSubmitLeadSurvivesNotificationFailure(t *testing.T) {
	ctx := context.Background()
	leadRepo := new(MockLeadRepository)
	producer := new(MockQueueProducer)

	leadRepo.On("UpsertWithinWindow", ctx, mock.Anything, mock.Anything).Return(false, nil)
	producer.On("PublishNotification", ctx, mock.Anything).Return(errors.New("broker down"))

	uc := usecase.NewSubmitLeadUseCase(leadRepo, producer, 24*time.Hour)

	out, err := uc.Execute(ctx, usecase.SubmitLeadInput{
		Name:    "Ana",
		Email:   "ana@x.com",
		Message: "hola",
	})

	// The lead is durable; a broker hiccup must not fail the request.
	assert.NoError(t, err)
	assert.False(t, out.Deduped)
}
