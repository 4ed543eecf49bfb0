// Package payment holds the PaymentGateway implementations: Stripe for real
// deployments and an in-memory processor for local runs and tests.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

// StripeGateway talks to the Stripe PaymentIntents API.
type StripeGateway struct {
	api *client.API
}

// StripeOption tweaks the Stripe client.
type StripeOption func(*stripe.BackendConfig)

// WithBaseURL points the client at another API host, such as stripe-mock.
func WithBaseURL(url string) StripeOption {
	return func(c *stripe.BackendConfig) { c.URL = stripe.String(url) }
}

func NewStripeGateway(apiKey string, opts ...StripeOption) *StripeGateway {
	cfg := &stripe.BackendConfig{
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		MaxNetworkRetries: stripe.Int64(2),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	api := client.New(apiKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Create(ctx context.Context, req ports.ChargeRequest) (*ports.GatewayIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinor),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("course_id", req.CourseID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}
	return &ports.GatewayIntent{Ref: pi.ID, ClientSecret: pi.ClientSecret, Status: mapIntentStatus(pi.Status)}, nil
}

// Charge confirms the intent. A card decline is a failed payment, not a
// gateway error.
func (g *StripeGateway) Charge(ctx context.Context, ref, paymentMethod string) (*ports.GatewayIntent, error) {
	params := &stripe.PaymentIntentConfirmParams{PaymentMethod: stripe.String(paymentMethod)}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Confirm(ref, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
			return &ports.GatewayIntent{Ref: ref, Status: domain.PaymentFailed}, nil
		}
		return nil, fmt.Errorf("stripe confirm intent: %w", err)
	}
	return &ports.GatewayIntent{Ref: pi.ID, Status: mapIntentStatus(pi.Status)}, nil
}

func (g *StripeGateway) Status(ctx context.Context, ref string) (domain.PaymentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(ref, params)
	if err != nil {
		return "", fmt.Errorf("stripe get intent: %w", err)
	}
	return mapIntentStatus(pi.Status), nil
}

// mapIntentStatus folds Stripe's intent lifecycle into ours. Every state that
// can still move is pending.
func mapIntentStatus(s stripe.PaymentIntentStatus) domain.PaymentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentCompleted
	case stripe.PaymentIntentStatusCanceled:
		return domain.PaymentFailed
	default:
		return domain.PaymentPending
	}
}
