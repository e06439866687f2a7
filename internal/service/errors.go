package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("investment not found")
	ErrForbidden         = errors.New("requester does not own this investment")
	ErrInvalidState      = errors.New("investment is not in an active or suspended state")
	ErrInvalidStatus     = errors.New("unknown investment status")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrPlanUnavailable   = errors.New("plan is not available")
)

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
