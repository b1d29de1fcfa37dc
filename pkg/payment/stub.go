package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// StubGateway is an in-memory provider for development and tests. Every initialized reference
// verifies as success unless SetOutcome says otherwise.
type StubGateway struct {
	CheckoutBase string

	mu       sync.Mutex
	amounts  map[string]InitializeRequest
	outcomes map[string]string
}

func NewStubGateway(checkoutBase string) *StubGateway {
	if checkoutBase == "" {
		checkoutBase = "http://localhost:8099/stub/checkout"
	}
	return &StubGateway{
		CheckoutBase: checkoutBase,
		amounts:      make(map[string]InitializeRequest),
		outcomes:     make(map[string]string),
	}
}

func (s *StubGateway) Name() string { return "stub" }

func (s *StubGateway) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	s.mu.Lock()
	s.amounts[req.Reference] = req
	s.mu.Unlock()
	code := uuid.NewString()
	return &InitializeResponse{
		AuthorizationURL: s.CheckoutBase + "/" + req.Reference,
		AccessCode:       code,
		Reference:        req.Reference,
		Raw:              map[string]interface{}{"access_code": code},
	}, nil
}

func (s *StubGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	init, ok := s.amounts[reference]
	if !ok {
		return nil, &APIError{StatusCode: 404, Message: "Transaction reference not found"}
	}
	status, set := s.outcomes[reference]
	if !set {
		status = StatusSuccess
	}
	return &VerifyResult{
		Status:      status,
		Reference:   reference,
		AmountMinor: init.AmountMinor,
		Currency:    init.Currency,
		Raw:         map[string]interface{}{"status": status, "amount": init.AmountMinor},
	}, nil
}

// SetOutcome fixes what Verify reports for reference.
func (s *StubGateway) SetOutcome(reference, status string) {
	s.mu.Lock()
	s.outcomes[reference] = status
	s.mu.Unlock()
}
