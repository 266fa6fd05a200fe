// Package treasury models the value rail the ledger escrows on. Donated units
// sit in escrow between submission and verification; finalize pushes them to
// the organizer and refund returns them to the donor. Recipients can reject a
// push, which is the one failure that can surface after verification.
package treasury

import (
	"context"
	"errors"
	"sync"

	"veilfund/pkg/domain"
)

// ErrRejected is returned when a recipient refuses a value transfer.
var ErrRejected = errors.New("recipient rejected transfer")

// ErrInsufficientEscrow is returned when a release exceeds escrowed funds.
// Seeing it means bookkeeping and custody have diverged.
var ErrInsufficientEscrow = errors.New("insufficient escrowed funds")

// RejectPolicy decides whether a principal refuses incoming value. The default
// accepts everything; tests inject failures through it.
type RejectPolicy func(domain.Principal) bool

// Ledger is the in-memory value rail.
type Ledger struct {
	mu       sync.Mutex
	escrow   uint64
	balances map[domain.Principal]uint64
	reject   RejectPolicy
}

// Option configures the ledger.
type Option func(*Ledger)

func WithRejectPolicy(p RejectPolicy) Option {
	return func(l *Ledger) {
		if p != nil {
			l.reject = p
		}
	}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		balances: make(map[domain.Principal]uint64),
		reject:   func(domain.Principal) bool { return false },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Deposit records value received from a donor's payment rail into escrow.
func (l *Ledger) Deposit(_ context.Context, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.escrow += amount
	return nil
}

// Release pushes escrowed value to a recipient. Fails with ErrRejected when
// the recipient refuses the transfer; escrow is untouched in that case.
func (l *Ledger) Release(_ context.Context, to domain.Principal, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.escrow < amount {
		return ErrInsufficientEscrow
	}
	if l.reject(to) {
		return ErrRejected
	}
	l.escrow -= amount
	l.balances[to] += amount
	return nil
}

// WithdrawAll drains escrow to the given principal. Owner escape hatch only.
func (l *Ledger) WithdrawAll(_ context.Context, to domain.Principal) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	amount := l.escrow
	if l.reject(to) {
		return 0, ErrRejected
	}
	l.escrow = 0
	l.balances[to] += amount
	return amount, nil
}

// BalanceOf reports the plaintext balance a principal has received.
func (l *Ledger) BalanceOf(_ context.Context, p domain.Principal) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[p]
}

// Escrowed reports the value currently held between submission and verification.
func (l *Ledger) Escrowed(_ context.Context) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrow
}
