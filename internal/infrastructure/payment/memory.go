package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

// DeclinedPaymentMethod makes MemoryGateway.Charge fail, mirroring the Stripe
// test card of the same name.
const DeclinedPaymentMethod = "pm_card_chargeDeclined"

// MemoryGateway is a processor that lives in process memory. It is used when
// no Stripe key is configured.
type MemoryGateway struct {
	mu      sync.Mutex
	intents map[string]*ports.GatewayIntent
	byKey   map[string]string
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		intents: make(map[string]*ports.GatewayIntent),
		byKey:   make(map[string]string),
	}
}

func (g *MemoryGateway) Create(_ context.Context, req ports.ChargeRequest) (*ports.GatewayIntent, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if req.IdempotencyKey != "" {
		if ref, ok := g.byKey[req.IdempotencyKey]; ok {
			intent := *g.intents[ref]
			return &intent, nil
		}
	}

	ref := "pi_mem_" + uuid.NewString()
	intent := &ports.GatewayIntent{
		Ref:          ref,
		ClientSecret: ref + "_secret_" + uuid.NewString(),
		Status:       domain.PaymentPending,
	}
	g.intents[ref] = intent
	if req.IdempotencyKey != "" {
		g.byKey[req.IdempotencyKey] = ref
	}

	out := *intent
	return &out, nil
}

func (g *MemoryGateway) Charge(_ context.Context, ref, paymentMethod string) (*ports.GatewayIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[ref]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", ref)
	}
	if intent.Status == domain.PaymentPending {
		if paymentMethod == "" || paymentMethod == DeclinedPaymentMethod {
			intent.Status = domain.PaymentFailed
		} else {
			intent.Status = domain.PaymentCompleted
		}
	}

	out := *intent
	return &out, nil
}

func (g *MemoryGateway) Status(_ context.Context, ref string) (domain.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[ref]
	if !ok {
		return "", fmt.Errorf("no such payment intent: %s", ref)
	}
	return intent.Status, nil
}
