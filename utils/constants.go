package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Budget constants
const (
	// USDCurrency is the only billing currency the platform integration supports today
	USDCurrency = "USD"

	// MinDailyBudgetCents is the platform-side floor for an ad set's daily budget ($1.00)
	MinDailyBudgetCents = 100
)

// Targeting bounds enforced by the remote platform
const (
	MinTargetingAge = 13
	MaxTargetingAge = 65
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request context keys set by handlers and read by flows for audit logging
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
	CustomerIDKey ContextKey = "customer_id"
)
