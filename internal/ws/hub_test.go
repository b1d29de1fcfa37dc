package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coursemart/config"
	"coursemart/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestHub_NotifyPaymentReachesOnlyThatUser(t *testing.T) {
	hub := NewHub()
	a1, a2, b := NewClient(1), NewClient(1), NewClient(2)
	for _, c := range []*Client{a1, a2, b} {
		hub.Register(c)
	}

	hub.NotifyPayment(1, PaymentUpdate{Reference: "CM-1", Status: "COMPLETED", Enrolled: true})

	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.Send:
			var got PaymentUpdate
			if err := json.Unmarshal(msg, &got); err != nil {
				t.Fatal(err)
			}
			if got.Type != "payment" || got.Reference != "CM-1" || !got.Enrolled {
				t.Fatalf("unexpected update %+v", got)
			}
		default:
			t.Fatal("user 1 connection did not receive the update")
		}
	}
	select {
	case <-b.Send:
		t.Fatal("user 2 received user 1's update")
	default:
	}
}

func TestHub_ClosedClientIsSkipped(t *testing.T) {
	hub := NewHub()
	c := NewClient(7)
	hub.Register(c)
	c.Close()
	c.Close()
	if hub.ClientCount() != 0 {
		t.Fatalf("client count = %d", hub.ClientCount())
	}
	hub.NotifyPayment(7, PaymentUpdate{Reference: "CM-2"})
}

func TestUpgradePaymentsWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Minute, Issuer: "coursemart"}
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/payments", UpgradePaymentsWS(cfg, hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/payments"
	if _, resp, err := websocket.DefaultDialer.Dial(base, nil); err == nil {
		t.Fatal("handshake without a token must fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}

	tok, _ := auth.GenerateAccessToken(cfg, 5, "u5@example.com", "STUDENT")
	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+tok, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	hub.NotifyPayment(5, PaymentUpdate{Reference: "CM-5", Status: "FAILED"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got PaymentUpdate
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.Reference != "CM-5" || got.Status != "FAILED" {
		t.Fatalf("unexpected update %+v", got)
	}
}
