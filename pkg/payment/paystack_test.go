package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaystackGateway_Initialize(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("missing bearer token")
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"CM-1"}}`))
	}))
	defer srv.Close()

	gw := NewPaystackGateway(srv.URL, "sk_test")
	res, err := gw.Initialize(context.Background(), InitializeRequest{
		Email:       "u1@example.com",
		AmountMinor: 500000,
		Currency:    "NGN",
		Reference:   "CM-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AuthorizationURL != "https://checkout.paystack.com/abc" || res.AccessCode != "abc" {
		t.Fatalf("unexpected response %+v", res)
	}
	if got["amount"] != "500000" || got["reference"] != "CM-1" || got["email"] != "u1@example.com" {
		t.Fatalf("unexpected request body %v", got)
	}
}

func TestPaystackGateway_InitializeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Duplicate Transaction Reference"}`))
	}))
	defer srv.Close()

	_, err := NewPaystackGateway(srv.URL, "sk_test").Initialize(context.Background(), InitializeRequest{Reference: "CM-1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Duplicate Transaction Reference" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestPaystackGateway_VerifyStatuses(t *testing.T) {
	cases := map[string]string{
		"success":   StatusSuccess,
		"failed":    StatusFailed,
		"reversed":  StatusFailed,
		"abandoned": StatusPending,
		"ongoing":   StatusPending,
	}
	for provider, want := range cases {
		t.Run(provider, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/transaction/verify/CM-9" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"` + provider + `","reference":"CM-9","amount":500000,"currency":"NGN","gateway_response":"Approved"}}`))
			}))
			defer srv.Close()

			res, err := NewPaystackGateway(srv.URL, "sk").Verify(context.Background(), "CM-9")
			if err != nil {
				t.Fatal(err)
			}
			if res.Status != want {
				t.Fatalf("status = %s, want %s", res.Status, want)
			}
			if res.AmountMinor != 500000 || res.Currency != "NGN" || res.Raw["gateway_response"] != "Approved" {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
}

func TestMinorUnits(t *testing.T) {
	if got := ToMinor(decimal.RequireFromString("5000")); got != 500000 {
		t.Fatalf("ToMinor(5000) = %d", got)
	}
	if got := ToMinor(decimal.RequireFromString("19.99")); got != 1999 {
		t.Fatalf("ToMinor(19.99) = %d", got)
	}
	if !FromMinor(1999).Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("FromMinor(1999) = %s", FromMinor(1999))
	}
}

func TestStubGateway(t *testing.T) {
	gw := NewStubGateway("https://pay.local")
	ctx := context.Background()
	if _, err := gw.Verify(ctx, "unknown"); err == nil {
		t.Fatal("verify of an unknown reference must fail")
	}
	res, err := gw.Initialize(ctx, InitializeRequest{Reference: "R1", AmountMinor: 100, Currency: "NGN"})
	if err != nil || res.AuthorizationURL != "https://pay.local/R1" {
		t.Fatalf("initialize = %+v, %v", res, err)
	}
	v, _ := gw.Verify(ctx, "R1")
	if v.Status != StatusSuccess || v.AmountMinor != 100 {
		t.Fatalf("verify = %+v", v)
	}
	gw.SetOutcome("R1", StatusFailed)
	if v, _ := gw.Verify(ctx, "R1"); v.Status != StatusFailed {
		t.Fatalf("verify after SetOutcome = %+v", v)
	}
}

func TestAPIError_UnknownReference(t *testing.T) {
	cases := []struct {
		err  APIError
		want bool
	}{
		{APIError{StatusCode: 400, Message: "Transaction reference not found"}, true},
		{APIError{StatusCode: 404, Message: "Not found"}, true},
		{APIError{StatusCode: 400, Message: "Invalid amount"}, false},
		{APIError{StatusCode: 401, Message: "Invalid key"}, false},
		{APIError{StatusCode: 403, Message: "Forbidden"}, false},
		{APIError{StatusCode: 429, Message: "Too many requests"}, false},
		{APIError{StatusCode: 502, Message: "Bad gateway"}, false},
	}
	for _, tc := range cases {
		if got := tc.err.UnknownReference(); got != tc.want {
			t.Errorf("%d %q: UnknownReference() = %v, want %v", tc.err.StatusCode, tc.err.Message, got, tc.want)
		}
	}
}
