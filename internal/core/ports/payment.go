package ports

import (
	"context"
	"time"

	"github.com/coursehub/marketplace/internal/core/domain"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	// UpdateStatus moves the payment from one status to another only if it is
	// still in from. It returns domain.ErrInvalidTransition when another
	// request changed the status first.
	UpdateStatus(ctx context.Context, id string, from, to domain.PaymentStatus, at time.Time) (*domain.Payment, error)
}

// ChargeRequest is what the gateway needs to open a payment intent.
type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	UserID         string
	CourseID       string
	IdempotencyKey string
}

// GatewayIntent is the processor-side view of a payment.
type GatewayIntent struct {
	Ref          string
	ClientSecret string
	Status       domain.PaymentStatus
}

// PaymentGateway is the third-party payment processor.
type PaymentGateway interface {
	Create(ctx context.Context, req ChargeRequest) (*GatewayIntent, error)
	Charge(ctx context.Context, ref, paymentMethod string) (*GatewayIntent, error)
	Status(ctx context.Context, ref string) (domain.PaymentStatus, error)
}

// CreatePaymentInput carries a checkout request.
type CreatePaymentInput struct {
	UserID         string
	CourseID       string
	Amount         float64
	Method         domain.PaymentMethod
	IdempotencyKey string
}

// PaymentResult wraps the stored payment with data only relevant at creation.
type PaymentResult struct {
	Payment      *domain.Payment
	ClientSecret string
	// AlreadyExisted is true when the Idempotency-Key matched an earlier payment.
	AlreadyExisted bool
}

type PaymentService interface {
	Create(ctx context.Context, caller Caller, input CreatePaymentInput) (*PaymentResult, error)
	Get(ctx context.Context, caller Caller, id string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, caller Caller, id string, status domain.PaymentStatus) (*domain.Payment, error)
	Charge(ctx context.Context, caller Caller, id, paymentMethod string) (*domain.Payment, error)
	Sync(ctx context.Context, caller Caller, id string) (*domain.Payment, error)
}
