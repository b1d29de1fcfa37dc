package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PaystackGateway talks to the Paystack transaction API.
type PaystackGateway struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewPaystackGateway(baseURL, secretKey string) *PaystackGateway {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &PaystackGateway{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PaystackGateway) Name() string { return "paystack" }

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitReq struct {
	Email       string                 `json:"email"`
	Amount      string                 `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
}

func (p *PaystackGateway) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	payload := paystackInitReq{
		Email:       req.Email,
		Amount:      strconv.FormatInt(req.AmountMinor, 10),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	body, _ := json.Marshal(payload)
	log.Printf("[paystack] POST %s/transaction/initialize reference=%s amount=%d", p.BaseURL, req.Reference, req.AmountMinor)
	env, err := p.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}
	var data paystackInitData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode initialize data: %w", err)
	}
	if data.AuthorizationURL == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "missing authorization_url"}
	}
	ref := data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &InitializeResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        ref,
		Raw:              rawMap(env.Data),
	}, nil
}

func (p *PaystackGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	env, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	var data paystackVerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode verify data: %w", err)
	}
	log.Printf("[paystack] verify reference=%s status=%s", reference, data.Status)
	return &VerifyResult{
		Status:          paystackStatus(data.Status),
		Reference:       data.Reference,
		AmountMinor:     data.Amount,
		Currency:        data.Currency,
		GatewayResponse: data.GatewayResponse,
		Raw:             rawMap(env.Data),
	}, nil
}

// paystackStatus folds Paystack's transaction states into the three verify outcomes.
func paystackStatus(s string) string {
	switch s {
	case "success":
		return StatusSuccess
	case "failed", "reversed":
		return StatusFailed
	default: // ongoing, pending, processing, queued, abandoned
		return StatusPending
	}
}

func (p *PaystackGateway) do(ctx context.Context, method, path string, body []byte) (*paystackEnvelope, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	var env paystackEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !env.Status {
		log.Printf("[paystack] %s %s rejected status=%d message=%s", method, path, resp.StatusCode, env.Message)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

func rawMap(data json.RawMessage) map[string]interface{} {
	var m map[string]interface{}
	if len(data) == 0 || json.Unmarshal(data, &m) != nil {
		return map[string]interface{}{}
	}
	return m
}
