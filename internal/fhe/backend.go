package fhe

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	mimcNative "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
)

const saltSize = 32

// SealedBackend implements Backend by sealing amounts under an XChaCha20-
// Poly1305 key held by the oracle operator. Homomorphic addition is simulated
// by unsealing inside the backend boundary; callers only ever see opaque
// payloads and handles. Production deployments swap this for an FHE
// coprocessor behind the same interface.
type SealedBackend struct {
	aead cipher.AEAD
}

// NewSealedBackend builds a backend from a 32-byte sealing key.
func NewSealedBackend(key []byte) (*SealedBackend, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("sealed backend key: %w", err)
	}
	return &SealedBackend{aead: aead}, nil
}

// NewRandomBackend builds a backend with an ephemeral key. Used by dev wiring
// and tests where no key management exists.
func NewRandomBackend() (*SealedBackend, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return NewSealedBackend(key)
}

func (b *SealedBackend) seal(amount uint64) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], amount)
	return b.aead.Seal(nonce, nonce, plain[:], nil), nil
}

func (b *SealedBackend) unseal(payload []byte) (uint64, error) {
	ns := b.aead.NonceSize()
	if len(payload) < ns {
		return 0, ErrMalformed
	}
	plain, err := b.aead.Open(nil, payload[:ns], payload[ns:], nil)
	if err != nil {
		return 0, ErrMalformed
	}
	if len(plain) != 8 {
		return 0, ErrMalformed
	}
	return binary.BigEndian.Uint64(plain), nil
}

// EncryptZero produces a fresh encryption of zero.
func (b *SealedBackend) EncryptZero() (Ciphertext, error) {
	payload, err := b.seal(0)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{Handle: newHandle(), Payload: payload}, nil
}

// EncryptOne produces a fresh encryption of one.
func (b *SealedBackend) EncryptOne() (Ciphertext, error) {
	payload, err := b.seal(1)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{Handle: newHandle(), Payload: payload}, nil
}

// SealAmount produces the payload and proof a donor submits alongside a
// donation. This is the client half of the import protocol; the dev wallet and
// tests use it, the server never calls it on behalf of a donor.
func (b *SealedBackend) SealAmount(amount uint64) ([]byte, Proof, error) {
	payload, err := b.seal(amount)
	if err != nil {
		return nil, Proof{}, err
	}
	proof, err := ProvePayload(payload)
	if err != nil {
		return nil, Proof{}, err
	}
	return payload, proof, nil
}

// ProvePayload computes the validity proof for a payload: a MiMC binding of
// the payload digest under a fresh salt.
func ProvePayload(payload []byte) (Proof, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return Proof{}, err
	}
	return Proof{Salt: salt, Digest: bindPayload(payload, salt)}, nil
}

// bindPayload hashes the payload digest and salt with MiMC. Inputs are
// left-padded to the MiMC block size so every block is a canonical field
// element.
func bindPayload(payload, salt []byte) []byte {
	sum := sha256.Sum256(payload)
	h := mimcNative.NewMiMC()
	h.Write(padBlock(sum[:]))
	h.Write(padBlock(salt))
	return h.Sum(nil)
}

func padBlock(b []byte) []byte {
	if len(b) >= mimcNative.BlockSize {
		return b
	}
	padded := make([]byte, mimcNative.BlockSize)
	copy(padded[mimcNative.BlockSize-len(b):], b)
	return padded
}

// ImportWithProof admits an externally produced payload after checking its
// proof and that the payload unseals at all.
func (b *SealedBackend) ImportWithProof(payload []byte, proof Proof) (Ciphertext, error) {
	if len(proof.Salt) != saltSize || len(proof.Digest) == 0 {
		return Ciphertext{}, ErrInvalidProof
	}
	expected := bindPayload(payload, proof.Salt)
	if subtle.ConstantTimeCompare(expected, proof.Digest) != 1 {
		return Ciphertext{}, ErrInvalidProof
	}
	if _, err := b.unseal(payload); err != nil {
		return Ciphertext{}, ErrInvalidProof
	}
	return Ciphertext{Handle: newHandle(), Payload: payload}, nil
}

// Add homomorphically combines two ciphertexts. The result carries a fresh
// handle; grants on the operands do not carry over.
func (b *SealedBackend) Add(x, y Ciphertext) (Ciphertext, error) {
	a, err := b.unseal(x.Payload)
	if err != nil {
		return Ciphertext{}, err
	}
	c, err := b.unseal(y.Payload)
	if err != nil {
		return Ciphertext{}, err
	}
	payload, err := b.seal(a + c)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{Handle: newHandle(), Payload: payload}, nil
}

// CmpPlain reports whether the encrypted amount is at least value.
func (b *SealedBackend) CmpPlain(ct Ciphertext, value uint64) (bool, error) {
	amount, err := b.unseal(ct.Payload)
	if err != nil {
		return false, err
	}
	return amount >= value, nil
}

// Decrypt recovers the plaintext amount. Only the oracle gateway calls this.
func (b *SealedBackend) Decrypt(ct Ciphertext) (uint64, error) {
	return b.unseal(ct.Payload)
}

func newHandle() Handle {
	return Handle(uuid.NewString())
}
