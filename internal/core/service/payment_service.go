package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

// IdempotencyStore remembers which payment a client Idempotency-Key produced (Redis).
type IdempotencyStore interface {
	// Reserve claims key. When it is already held, reserved is false and
	// paymentID is the payment it produced, or empty while still in flight.
	Reserve(ctx context.Context, key string) (paymentID string, reserved bool, err error)
	Complete(ctx context.Context, key, paymentID string) error
	Release(ctx context.Context, key string) error
}

// EnrollmentQueue receives grants for completed payments.
type EnrollmentQueue interface {
	Enqueue(grant ports.EnrollmentGrant)
}

type PaymentService struct {
	repo     ports.PaymentRepository
	courses  ports.CourseRepository
	gateway  ports.PaymentGateway
	idem     IdempotencyStore
	queue    EnrollmentQueue
	currency string
	log      zerolog.Logger
}

func NewPaymentService(
	repo ports.PaymentRepository,
	courses ports.CourseRepository,
	gateway ports.PaymentGateway,
	idem IdempotencyStore,
	queue EnrollmentQueue,
	currency string,
	log zerolog.Logger,
) *PaymentService {
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		repo:     repo,
		courses:  courses,
		gateway:  gateway,
		idem:     idem,
		queue:    queue,
		currency: currency,
		log:      log,
	}
}

// Create opens a payment intent with the gateway and records a pending
// payment. Nothing is stored when the gateway refuses. A repeated
// Idempotency-Key returns the payment created by the first call, or
// domain.ErrPaymentInProgress while that call has not finished.
func (s *PaymentService) Create(ctx context.Context, caller ports.Caller, in ports.CreatePaymentInput) (res *ports.PaymentResult, err error) {
	userID := in.UserID
	if userID == "" {
		userID = caller.UserID
	}
	if !caller.CanActFor(userID) {
		return nil, domain.ErrForbidden
	}

	method := in.Method
	if method == "" {
		method = domain.MethodStripe
	}
	if method != domain.MethodStripe && method != domain.MethodPaypal {
		return nil, fmt.Errorf("%w: unsupported payment method %q", domain.ErrInvalidInput, method)
	}

	var idemKey, reservedKey string
	if in.IdempotencyKey != "" {
		idemKey = userID + ":" + in.IdempotencyKey
		existingID, reserved, err := s.idem.Reserve(ctx, idemKey)
		switch {
		case err != nil:
			// The gateway still receives the key and deduplicates on its side.
			s.log.Warn().Err(err).Msg("idempotency reserve failed, creating anyway")
		case !reserved && existingID == "":
			return nil, domain.ErrPaymentInProgress
		case !reserved:
			return s.replay(ctx, existingID)
		default:
			reservedKey = idemKey
			defer func() {
				if res == nil {
					s.release(ctx, reservedKey)
				}
			}()
		}
	}

	course, err := s.courses.FindByID(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	amount := in.Amount
	if amount <= 0 {
		amount = course.Price
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}

	intent, err := s.gateway.Create(ctx, ports.ChargeRequest{
		AmountMinor:    int64(math.Round(amount * 100)),
		Currency:       s.currency,
		UserID:         userID,
		CourseID:       course.ID,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("course_id", course.ID).Msg("gateway create failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Payment{
		UserID:      userID,
		CourseID:    course.ID,
		Amount:      amount,
		Currency:    s.currency,
		Method:      method,
		Status:      domain.PaymentPending,
		GatewayRef:  intent.Ref,
		PaymentDate: now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if reservedKey != "" {
		if err := s.idem.Complete(ctx, reservedKey, created.ID); err != nil {
			s.log.Warn().Err(err).Str("payment_id", created.ID).Msg("failed to store idempotency key")
		}
	}

	s.log.Info().Str("payment_id", created.ID).Str("user_id", userID).Str("course_id", course.ID).Msg("payment created")
	return &ports.PaymentResult{Payment: created, ClientSecret: intent.ClientSecret}, nil
}

func (s *PaymentService) replay(ctx context.Context, paymentID string) (*ports.PaymentResult, error) {
	existing, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("idempotent replay: %w", err)
	}
	s.log.Info().Str("payment_id", paymentID).Msg("idempotent replay")
	return &ports.PaymentResult{Payment: existing, AlreadyExisted: true}, nil
}

// release frees a reservation after a failed create. It runs even when the
// request context was cancelled.
func (s *PaymentService) release(ctx context.Context, key string) {
	if err := s.idem.Release(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn().Err(err).Msg("failed to release idempotency key")
	}
}

func (s *PaymentService) Get(ctx context.Context, caller ports.Caller, id string) (*domain.Payment, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanActFor(p.UserID) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

// UpdateStatus applies a manual status change.
func (s *PaymentService) UpdateStatus(ctx context.Context, caller ports.Caller, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	p, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, p, status)
}

// Charge confirms the intent with the given processor payment method and
// applies the resulting status.
func (s *PaymentService) Charge(ctx context.Context, caller ports.Caller, id, paymentMethod string) (*domain.Payment, error) {
	p, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentPending {
		return nil, fmt.Errorf("%w: payment is %s", domain.ErrInvalidTransition, p.Status)
	}

	intent, err := s.gateway.Charge(ctx, p.GatewayRef, paymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}
	if intent.Status == p.Status {
		return p, nil
	}
	return s.transition(ctx, p, intent.Status)
}

// Sync pulls the status from the gateway. Terminal payments are returned as is.
func (s *PaymentService) Sync(ctx context.Context, caller ports.Caller, id string) (*domain.Payment, error) {
	p, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentPending {
		return p, nil
	}

	status, err := s.gateway.Status(ctx, p.GatewayRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}
	if status == p.Status {
		return p, nil
	}
	return s.transition(ctx, p, status)
}

func (s *PaymentService) transition(ctx context.Context, p *domain.Payment, to domain.PaymentStatus) (*domain.Payment, error) {
	if !p.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, p.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, p.ID, p.Status, to, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}

	if to == domain.PaymentCompleted {
		s.queue.Enqueue(ports.EnrollmentGrant{
			UserID:    updated.UserID,
			CourseID:  updated.CourseID,
			PaymentID: updated.ID,
		})
	}

	s.log.Info().Str("payment_id", p.ID).Str("from", string(p.Status)).Str("to", string(to)).Msg("payment status changed")
	return updated, nil
}
