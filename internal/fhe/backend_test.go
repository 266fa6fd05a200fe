package fhe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *SealedBackend {
	t.Helper()
	b, err := NewRandomBackend()
	require.NoError(t, err)
	return b
}

func TestSealedBackend_ImportWithProof(t *testing.T) {
	b := newBackend(t)

	t.Run("round trip with valid proof", func(t *testing.T) {
		payload, proof, err := b.SealAmount(7)
		require.NoError(t, err)

		ct, err := b.ImportWithProof(payload, proof)
		require.NoError(t, err)
		assert.False(t, ct.Handle.IsNil())

		amount, err := b.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), amount)
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		payload, proof, err := b.SealAmount(7)
		require.NoError(t, err)

		payload[len(payload)-1] ^= 0xff
		_, err = b.ImportWithProof(payload, proof)
		assert.ErrorIs(t, err, ErrInvalidProof)
	})

	t.Run("rejects forged digest", func(t *testing.T) {
		payload, proof, err := b.SealAmount(7)
		require.NoError(t, err)

		proof.Digest[0] ^= 0xff
		_, err = b.ImportWithProof(payload, proof)
		assert.ErrorIs(t, err, ErrInvalidProof)
	})

	t.Run("rejects empty proof", func(t *testing.T) {
		payload, _, err := b.SealAmount(7)
		require.NoError(t, err)

		_, err = b.ImportWithProof(payload, Proof{})
		assert.ErrorIs(t, err, ErrInvalidProof)
	})

	t.Run("rejects payload sealed under another key", func(t *testing.T) {
		other := newBackend(t)
		payload, proof, err := other.SealAmount(7)
		require.NoError(t, err)

		_, err = b.ImportWithProof(payload, proof)
		assert.ErrorIs(t, err, ErrInvalidProof)
	})
}

func TestSealedBackend_Add(t *testing.T) {
	b := newBackend(t)

	zero, err := b.EncryptZero()
	require.NoError(t, err)

	p1, pr1, err := b.SealAmount(3)
	require.NoError(t, err)
	ct1, err := b.ImportWithProof(p1, pr1)
	require.NoError(t, err)

	sum, err := b.Add(zero, ct1)
	require.NoError(t, err)

	p2, pr2, err := b.SealAmount(4)
	require.NoError(t, err)
	ct2, err := b.ImportWithProof(p2, pr2)
	require.NoError(t, err)

	sum, err = b.Add(sum, ct2)
	require.NoError(t, err)

	amount, err := b.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), amount)

	// Each addition mints a fresh handle so old grants never leak forward.
	assert.NotEqual(t, zero.Handle, sum.Handle)
	assert.NotEqual(t, ct1.Handle, sum.Handle)
}

func TestSealedBackend_CmpPlain(t *testing.T) {
	b := newBackend(t)

	payload, proof, err := b.SealAmount(5)
	require.NoError(t, err)
	ct, err := b.ImportWithProof(payload, proof)
	require.NoError(t, err)

	reached, err := b.CmpPlain(ct, 5)
	require.NoError(t, err)
	assert.True(t, reached)

	reached, err = b.CmpPlain(ct, 6)
	require.NoError(t, err)
	assert.False(t, reached)
}

func TestSealedBackend_DecryptMalformed(t *testing.T) {
	b := newBackend(t)
	_, err := b.Decrypt(Ciphertext{Payload: []byte("short")})
	assert.ErrorIs(t, err, ErrMalformed)
}
