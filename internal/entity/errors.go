package entity

import "errors"

var (
	ErrLeadNotFound          = errors.New("lead not found")
	ErrDuplicatePaymentEvent = errors.New("payment event already exists for (provider, id)")
	ErrPaymentEventNotFound  = errors.New("payment event not found")
)
