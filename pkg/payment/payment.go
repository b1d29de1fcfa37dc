package payment

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Verify outcomes. Pending covers every provider state that may still turn into a success.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

type InitializeRequest struct {
	Email       string
	AmountMinor int64 // smallest currency unit (kobo for NGN)
	Currency    string
	Reference   string
	Metadata    map[string]interface{}
	CallbackURL string
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Raw              map[string]interface{}
}

type VerifyResult struct {
	Status          string
	Reference       string
	AmountMinor     int64
	Currency        string
	GatewayResponse string
	Raw             map[string]interface{}
}

// Gateway is the external payment provider. Implementations hold no per-payment state.
type Gateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// APIError is a request the provider answered but refused.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, e.Message)
}

// UnknownReference reports whether the provider said it has no record of the reference.
// Auth failures and rate limits are 4xx too but say nothing about the payment.
func (e *APIError) UnknownReference() bool {
	switch e.StatusCode {
	case http.StatusNotFound:
		return true
	case http.StatusBadRequest:
		return strings.Contains(strings.ToLower(e.Message), "reference not found")
	}
	return false
}

// ToMinor converts a major-unit amount to the provider's smallest unit.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinor is the inverse of ToMinor.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
