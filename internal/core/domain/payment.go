package domain

import "time"

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// validTransitions defines the allowed state machine transitions.
// completed and failed are terminal.
var validTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentCompleted, PaymentFailed},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// PaymentMethod is the processor the customer chose at checkout.
type PaymentMethod string

const (
	MethodStripe PaymentMethod = "stripe"
	MethodPaypal PaymentMethod = "paypal"
)

// Payment records a purchase of one course by one user.
type Payment struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	CourseID    string        `json:"course_id"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	Method      PaymentMethod `json:"payment_method"`
	Status      PaymentStatus `json:"status"`
	GatewayRef  string        `json:"gateway_ref,omitempty"`
	PaymentDate time.Time     `json:"payment_date"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
