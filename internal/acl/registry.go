// Package acl tracks which principals may request decryption of which
// ciphertext handles. Grants are additive: there is no revoke path, so a grant
// observed once holds forever.
package acl

import (
	"context"
	"sync"

	"veilfund/internal/fhe"
	"veilfund/pkg/domain"
)

// Registry is the access-grant relation (handle, principal) -> may-decrypt.
type Registry interface {
	// Grant records decrypt rights. Granting twice is a no-op, not an error.
	Grant(ctx context.Context, h fhe.Handle, p domain.Principal) error
	// Allowed reports whether the principal may request decryption of the handle.
	Allowed(ctx context.Context, h fhe.Handle, p domain.Principal) (bool, error)
}

// InMemory is the default single-process registry.
type InMemory struct {
	mu     sync.RWMutex
	grants map[fhe.Handle]map[domain.Principal]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{grants: make(map[fhe.Handle]map[domain.Principal]struct{})}
}

func (r *InMemory) Grant(_ context.Context, h fhe.Handle, p domain.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.grants[h]
	if !ok {
		set = make(map[domain.Principal]struct{})
		r.grants[h] = set
	}
	set[p] = struct{}{}
	return nil
}

func (r *InMemory) Allowed(_ context.Context, h fhe.Handle, p domain.Principal) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[h][p]
	return ok, nil
}
