package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

func TestPaymentHandler_Create(t *testing.T) {
	replay := false
	stub := &stubPaymentService{
		createFn: func(ctx context.Context, caller ports.Caller, in ports.CreatePaymentInput) (*ports.PaymentResult, error) {
			if caller.UserID != "u1" || in.CourseID != "c1" || in.Method != domain.MethodStripe {
				t.Fatalf("unexpected input: %+v %+v", caller, in)
			}
			if in.IdempotencyKey != "k-1" {
				t.Fatalf("idempotency key not forwarded: %q", in.IdempotencyKey)
			}
			p := &domain.Payment{ID: "p1", UserID: "u1", CourseID: "c1", Method: in.Method, Status: domain.PaymentPending}
			return &ports.PaymentResult{Payment: p, ClientSecret: "cs_1", AlreadyExisted: replay}, nil
		},
	}
	h := NewPaymentHandler(stub)

	send := func() (int, map[string]any) {
		c, rec := newJSONContext(http.MethodPost, "/payment/create",
			strings.NewReader(`{"course_id":"c1","payment_method":"stripe"}`), userClaims("u1", domain.RoleUser))
		c.Request().Header.Set(idempotencyHeader, "k-1")
		if err := h.Create(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		return rec.Code, resp
	}

	code, resp := send()
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if resp["id"] != "p1" || resp["status"] != "pending" || resp["client_secret"] != "cs_1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	replay = true
	if code, _ := send(); code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", code)
	}
}

func TestPaymentHandler_Create_UnknownMethod(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentService{})

	c, _ := newJSONContext(http.MethodPost, "/payment/create",
		strings.NewReader(`{"course_id":"c1","payment_method":"cash"}`), userClaims("u1", domain.RoleUser))
	if err := h.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPaymentHandler_UpdateStatus(t *testing.T) {
	stub := &stubPaymentService{
		updateStatusFn: func(ctx context.Context, caller ports.Caller, id string, status domain.PaymentStatus) (*domain.Payment, error) {
			if id != "p1" || status != domain.PaymentCompleted {
				t.Fatalf("unexpected args: %s %s", id, status)
			}
			return &domain.Payment{ID: id, Status: status}, nil
		},
	}
	h := NewPaymentHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/payment/update/p1/status?status=completed", nil, userClaims("a1", domain.RoleAdmin))
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPaymentHandler_Charge_PropagatesTransitionError(t *testing.T) {
	stub := &stubPaymentService{
		chargeFn: func(ctx context.Context, caller ports.Caller, id, pm string) (*domain.Payment, error) {
			if pm != "pm_card_visa" {
				t.Fatalf("unexpected payment method %q", pm)
			}
			return nil, domain.ErrInvalidTransition
		},
	}
	h := NewPaymentHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/payment/p1/charge",
		strings.NewReader(`{"payment_method":"pm_card_visa"}`), userClaims("u1", domain.RoleUser))
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := h.Charge(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
