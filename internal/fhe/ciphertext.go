// Package fhe wraps confidential amounts behind an opaque ciphertext handle.
// The ledger never sees plaintext: values are imported under a validity proof,
// combined homomorphically, and only converted back to plaintext by the
// decryption oracle. The concrete scheme is a backend capability so the core
// protocol stays independent of any particular confidential-computation stack.
package fhe

import "errors"

// Handle identifies a ciphertext for access-control purposes. Every backend
// operation that produces a ciphertext assigns a fresh handle; decrypt rights
// are granted per handle.
type Handle string

// IsNil returns true when the handle is empty.
func (h Handle) IsNil() bool { return h == "" }

// Ciphertext is an opaque encrypted amount. Payload bytes are meaningful only
// to the backend that produced them.
type Ciphertext struct {
	Handle  Handle
	Payload []byte
}

// Proof accompanies an imported ciphertext and binds it to a client that knows
// how the payload was constructed. A forged payload fails verification before
// any ledger state is touched.
type Proof struct {
	Salt   []byte
	Digest []byte
}

// Backend is the confidential-computation capability the ledger runs on.
type Backend interface {
	// EncryptZero produces a fresh encryption of zero, used to initialize
	// campaign accumulators.
	EncryptZero() (Ciphertext, error)

	// EncryptOne produces a fresh encryption of one, used for homomorphic
	// donor-count increments.
	EncryptOne() (Ciphertext, error)

	// ImportWithProof admits an externally produced payload. Returns
	// ErrInvalidProof when the proof does not validate.
	ImportWithProof(payload []byte, proof Proof) (Ciphertext, error)

	// Add homomorphically combines two ciphertexts into a new one with a
	// fresh handle.
	Add(a, b Ciphertext) (Ciphertext, error)

	// CmpPlain reports whether the encrypted amount is at least the given
	// plaintext value. Only the boolean leaves the backend.
	CmpPlain(ct Ciphertext, value uint64) (bool, error)

	// Decrypt recovers the plaintext amount. Only the oracle gateway may
	// call this; ledger code paths never do.
	Decrypt(ct Ciphertext) (uint64, error)
}

var (
	// ErrInvalidProof is returned when an imported payload's proof does not
	// validate.
	ErrInvalidProof = errors.New("ciphertext proof rejected")
	// ErrMalformed is returned for payloads the backend cannot interpret.
	ErrMalformed = errors.New("malformed ciphertext")
)
