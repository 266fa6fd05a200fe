package oracle

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
)

// sigDomain separates oracle result signatures from any other use of the keys.
const sigDomain = "veilfund.oracle.v1"

// Signature is one oracle operator's attestation of a decryption result.
type Signature struct {
	KeyID string `json:"key_id"`
	Sig   []byte `json:"sig"`
}

// KeySet holds the oracle's published verification keys and the number of
// distinct valid signatures a callback must carry.
type KeySet struct {
	keys     map[string]ed25519.PublicKey
	required int
}

// NewKeySet builds a key set from hex-encoded ed25519 public keys.
func NewKeySet(hexKeys map[string]string, required int) (*KeySet, error) {
	if required <= 0 {
		required = 1
	}
	if len(hexKeys) < required {
		return nil, fmt.Errorf("key set has %d keys but %d signatures required", len(hexKeys), required)
	}
	keys := make(map[string]ed25519.PublicKey, len(hexKeys))
	for kid, hk := range hexKeys {
		raw, err := hex.DecodeString(hk)
		if err != nil {
			return nil, fmt.Errorf("decode oracle key %s: %w", kid, err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("oracle key %s has wrong size %d", kid, len(raw))
		}
		keys[kid] = ed25519.PublicKey(raw)
	}
	return &KeySet{keys: keys, required: required}, nil
}

// resultDigest is the message oracle operators sign: a domain-separated hash
// of the request id and the decrypted amount.
func resultDigest(requestID domain.RequestID, amount uint64) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(requestID))
	binary.BigEndian.PutUint64(buf[8:], amount)
	h := sha256.New()
	h.Write([]byte(sigDomain))
	h.Write(buf[:])
	return h.Sum(nil)
}

// Verify checks that enough distinct known keys signed the result. A failed
// check must leave the caller's state untouched; Verify itself holds no state.
func (k *KeySet) Verify(requestID domain.RequestID, amount uint64, sigs []Signature) error {
	digest := resultDigest(requestID, amount)
	seen := make(map[string]bool, len(sigs))
	valid := 0
	for _, s := range sigs {
		if seen[s.KeyID] {
			continue
		}
		pub, ok := k.keys[s.KeyID]
		if !ok {
			continue
		}
		if ed25519.Verify(pub, digest, s.Sig) {
			seen[s.KeyID] = true
			valid++
		}
	}
	if valid < k.required {
		return dErrors.New(dErrors.CodeInvalidSignature,
			fmt.Sprintf("oracle callback carries %d valid signatures, %d required", valid, k.required))
	}
	return nil
}

// Signer holds oracle private keys. Only the in-process gateway and tests use
// it; a production oracle signs out of process.
type Signer struct {
	keys map[string]ed25519.PrivateKey
}

// NewSigner generates n fresh keypairs and returns the signer plus the
// hex-encoded public keys for the matching KeySet.
func NewSigner(n int) (*Signer, map[string]string, error) {
	if n <= 0 {
		n = 1
	}
	priv := make(map[string]ed25519.PrivateKey, n)
	pub := make(map[string]string, n)
	for i := 0; i < n; i++ {
		kid := fmt.Sprintf("oracle-%d", i+1)
		p, s, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, nil, err
		}
		priv[kid] = s
		pub[kid] = hex.EncodeToString(p)
	}
	return &Signer{keys: priv}, pub, nil
}

// Sign produces one signature per held key over the result digest.
func (s *Signer) Sign(requestID domain.RequestID, amount uint64) []Signature {
	digest := resultDigest(requestID, amount)
	sigs := make([]Signature, 0, len(s.keys))
	for kid, key := range s.keys {
		sigs = append(sigs, Signature{KeyID: kid, Sig: ed25519.Sign(key, digest)})
	}
	return sigs
}
