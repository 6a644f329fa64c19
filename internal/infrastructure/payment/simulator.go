package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
)

type intentState int

const (
	intentCreated intentState = iota
	intentCaptured
	intentRefunded
)

type intent struct {
	amount money.Money
	email  string
	state  intentState
}

// Simulator is an in-process payment gateway. Confirmation captures an intent
// at most once and refunds are accepted once per captured intent.
type Simulator struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	intents     map[string]*intent
}

var _ domain.Gateway = (*Simulator)(nil)

func NewSimulator() *Simulator {
	return &Simulator{
		random:      rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: 1,
		intents:     make(map[string]*intent),
	}
}

func (s *Simulator) CreatePaymentIntent(ctx context.Context, amount money.Money, customerEmail string) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	if amount.IsEmpty() || amount.IsZero() {
		return domain.Failed("", "amount must be positive"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "pi_" + uuid.NewString()
	s.intents[ref] = &intent{amount: amount, email: customerEmail}
	return domain.Succeeded(ref), nil
}

func (s *Simulator) ConfirmPayment(ctx context.Context, reference string) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[reference]
	switch {
	case !ok:
		return domain.Failed(reference, "unknown payment reference"), nil
	case in.state != intentCreated:
		return domain.Failed(reference, "payment already captured"), nil
	case s.random.Float64() >= s.successRate:
		return domain.Failed(reference, "card declined"), nil
	}
	in.state = intentCaptured
	return domain.Succeeded(reference), nil
}

func (s *Simulator) RefundPayment(ctx context.Context, reference string) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[reference]
	switch {
	case !ok:
		return domain.Failed(reference, "unknown payment reference"), nil
	case in.state == intentRefunded:
		return domain.Failed(reference, "payment already refunded"), nil
	case in.state != intentCaptured:
		return domain.Failed(reference, "payment not captured"), nil
	}
	in.state = intentRefunded
	return domain.Succeeded(reference), nil
}

// SetSuccessRate adjusts the confirmation success rate (primarily for tests).
func (s *Simulator) SetSuccessRate(rate float64) {
	s.mu.Lock()
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	s.successRate = rate
	s.mu.Unlock()
}
