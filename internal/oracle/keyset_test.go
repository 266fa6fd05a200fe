package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
)

func newKeySet(t *testing.T, n, required int) (*Signer, *KeySet) {
	t.Helper()
	signer, pubs, err := NewSigner(n)
	require.NoError(t, err)
	ks, err := NewKeySet(pubs, required)
	require.NoError(t, err)
	return signer, ks
}

func TestKeySet_Verify(t *testing.T) {
	t.Run("accepts a correctly signed result", func(t *testing.T) {
		signer, ks := newKeySet(t, 1, 1)
		sigs := signer.Sign(domain.RequestID(7), 3)
		assert.NoError(t, ks.Verify(domain.RequestID(7), 3, sigs))
	})

	t.Run("rejects a result signed for another amount", func(t *testing.T) {
		signer, ks := newKeySet(t, 1, 1)
		sigs := signer.Sign(domain.RequestID(7), 3)
		err := ks.Verify(domain.RequestID(7), 4, sigs)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	t.Run("rejects a result signed for another request", func(t *testing.T) {
		signer, ks := newKeySet(t, 1, 1)
		sigs := signer.Sign(domain.RequestID(7), 3)
		err := ks.Verify(domain.RequestID(8), 3, sigs)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	t.Run("rejects signatures from unknown keys", func(t *testing.T) {
		_, ks := newKeySet(t, 1, 1)
		rogue, _, err := NewSigner(1)
		require.NoError(t, err)
		sigs := rogue.Sign(domain.RequestID(7), 3)
		// Same key id as a known key, but a different private key.
		verr := ks.Verify(domain.RequestID(7), 3, sigs)
		assert.True(t, dErrors.HasCode(verr, dErrors.CodeInvalidSignature))
	})

	t.Run("threshold requires distinct keys", func(t *testing.T) {
		signer, ks := newKeySet(t, 3, 2)
		sigs := signer.Sign(domain.RequestID(9), 5)
		assert.NoError(t, ks.Verify(domain.RequestID(9), 5, sigs))

		// A single signature duplicated does not meet a threshold of two.
		dup := []Signature{sigs[0], sigs[0]}
		err := ks.Verify(domain.RequestID(9), 5, dup)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	t.Run("empty callback is rejected", func(t *testing.T) {
		_, ks := newKeySet(t, 1, 1)
		err := ks.Verify(domain.RequestID(1), 1, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})
}

func TestNewKeySet_Validation(t *testing.T) {
	_, pubs, err := NewSigner(1)
	require.NoError(t, err)

	t.Run("rejects threshold above key count", func(t *testing.T) {
		_, err := NewKeySet(pubs, 2)
		assert.Error(t, err)
	})

	t.Run("rejects malformed keys", func(t *testing.T) {
		_, err := NewKeySet(map[string]string{"bad": "not-hex"}, 1)
		assert.Error(t, err)
	})
}
