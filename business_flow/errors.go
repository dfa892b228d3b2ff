// Package businessflow contains the core business logic and use cases for campaign orchestration
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer and credential errors
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrCredentialMissing = errors.New("no active platform credential for customer")

	// Campaign request validation errors
	ErrCampaignNameRequired  = errors.New("campaign name is required")
	ErrAdSetNameRequired     = errors.New("ad set name is required")
	ErrAdNameRequired        = errors.New("ad name is required")
	ErrBudgetNotPositive     = errors.New("total budget must be greater than zero")
	ErrDurationNotPositive   = errors.New("campaign duration must be at least one day")
	ErrDailyBudgetBelowFloor = errors.New("computed daily budget is below the platform minimum")
	ErrAgeRangeInvalid       = errors.New("age range minimum exceeds maximum")
	ErrAdAccountRequired     = errors.New("ad account reference is required")
	ErrPageRequired          = errors.New("page reference is required")

	// Registry and targeting errors
	ErrRegistryNotFound   = errors.New("campaign registry entry not found for account")
	ErrCreativeNotSet     = errors.New("registry entry has no creative id")
	ErrCampaignArchived   = errors.New("registered campaign is archived on the platform")
	ErrNoLocationResolved = errors.New("no location could be resolved")

	// Rotation errors
	ErrEmptyInventoryPool = errors.New("inventory pool is empty")
	ErrCycleInProgress    = errors.New("a rotation cycle is already running")
)

// BusinessError represents a business logic error with structured information
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrCampaignNameRequired),
		errors.Is(err, ErrAdSetNameRequired),
		errors.Is(err, ErrAdNameRequired),
		errors.Is(err, ErrBudgetNotPositive),
		errors.Is(err, ErrDurationNotPositive),
		errors.Is(err, ErrDailyBudgetBelowFloor),
		errors.Is(err, ErrAgeRangeInvalid),
		errors.Is(err, ErrAdAccountRequired),
		errors.Is(err, ErrPageRequired):
		return true
	}
	return false
}
