package abe

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPolicy = "((ONE and THREE) and (TWO OR FOUR))"

func setup(t *testing.T) (*Scheme, *PublicKey, *MasterKey) {
	t.Helper()
	s := New()
	pk, msk, err := s.Setup()
	require.NoError(t, err)
	return s, pk, msk
}

func TestRoundTrip(t *testing.T) {
	s, pk, msk := setup(t)

	key, err := s.KeyGen(pk, msk, []string{"ONE", "TWO", "THREE"})
	require.NoError(t, err)
	msg, err := s.RandomMessage(pk)
	require.NoError(t, err)

	ct, err := s.Encrypt(pk, msg, testPolicy)
	require.NoError(t, err)
	got, err := s.Decrypt(pk, ct, key)
	require.NoError(t, err)

	assert.True(t, got.Equal(msg))
	assert.Equal(t, msg.Bytes(), got.Bytes())
}

func TestRoundTripOrBranch(t *testing.T) {
	s, pk, msk := setup(t)

	key, err := s.KeyGen(pk, msk, []string{"ONE", "THREE", "FOUR"})
	require.NoError(t, err)
	msg, err := s.RandomMessage(pk)
	require.NoError(t, err)

	ct, err := s.Encrypt(pk, msg, testPolicy)
	require.NoError(t, err)
	got, err := s.Decrypt(pk, ct, key)
	require.NoError(t, err)
	assert.True(t, got.Equal(msg))
}

func TestDecryptUnsatisfiedPolicy(t *testing.T) {
	s, pk, msk := setup(t)

	key, err := s.KeyGen(pk, msk, []string{"ONE", "TWO"})
	require.NoError(t, err)
	msg, err := s.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := s.Encrypt(pk, msg, testPolicy)
	require.NoError(t, err)

	_, err = s.Decrypt(pk, ct, key)
	assert.ErrorIs(t, err, ErrPolicyNotSatisfied)
}

func TestDecryptWithUnrelatedKey(t *testing.T) {
	s, pk, msk := setup(t)
	_, otherPK, otherMSK := setup(t)

	foreign, err := s.KeyGen(otherPK, otherMSK, []string{"ONE", "TWO", "THREE"})
	require.NoError(t, err)
	msg, err := s.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := s.Encrypt(pk, msg, testPolicy)
	require.NoError(t, err)

	got, err := s.Decrypt(pk, ct, foreign)
	require.NoError(t, err)
	assert.False(t, got.Equal(msg))

	// the genuine key from the same setup still works
	own, err := s.KeyGen(pk, msk, []string{"ONE", "TWO", "THREE"})
	require.NoError(t, err)
	got, err = s.Decrypt(pk, ct, own)
	require.NoError(t, err)
	assert.True(t, got.Equal(msg))
}

func TestEncryptRejectsBadPolicy(t *testing.T) {
	s, pk, _ := setup(t)
	msg, err := s.RandomMessage(pk)
	require.NoError(t, err)

	_, err = s.Encrypt(pk, msg, "ONE and")
	assert.Error(t, err)
}

func TestKeyGenRequiresAttributes(t *testing.T) {
	s, pk, msk := setup(t)
	_, err := s.KeyGen(pk, msk, nil)
	assert.Error(t, err)
}

func TestRandomMessagesDiffer(t *testing.T) {
	s, pk, _ := setup(t)
	a, err := s.RandomMessage(pk)
	require.NoError(t, err)
	b, err := s.RandomMessage(pk)
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
}

func TestSecretSharingReconstructs(t *testing.T) {
	n, err := ParsePolicy("A or (B and C) or D")
	require.NoError(t, err)
	secret, err := randomScalar()
	require.NoError(t, err)

	shares := make([]fr.Element, n.Leaves())
	require.NoError(t, shareSecret(n, secret, shares))

	// Leaves A and D sit directly under the 1-of-3 root, so each holds q(x)
	// of a constant polynomial.
	assert.True(t, shares[0].Equal(&secret))
	assert.True(t, shares[3].Equal(&secret))

	// B and C hold points on a line through (0, secret).
	indices := []int{1, 2}
	var got fr.Element
	for k, idx := range indices {
		coeff := lagrangeAtZero(idx, indices)
		var term fr.Element
		term.Mul(&coeff, &shares[1+k])
		got.Add(&got, &term)
	}
	assert.True(t, got.Equal(&secret))
}
