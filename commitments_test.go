package tss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitmentOpens(t *testing.T) {
	for i := 0; i < 32; i++ {
		nonce, err := newEphemeralNonce()
		require.NoError(t, err)
		blind, err := newBlindFactor()
		require.NoError(t, err)

		c := commitNonce(nonce.public, blind)
		require.True(t, c.Open(nonce.public, blind))
	}
}

func TestCommitmentBinding(t *testing.T) {
	nonce, err := newEphemeralNonce()
	require.NoError(t, err)
	blind, err := newBlindFactor()
	require.NoError(t, err)
	c := commitNonce(nonce.public, blind)

	// No other nonce/blind pair may open the commitment. Sample many
	// distinct pairs; a single success would break the ceremony.
	for i := 0; i < 64; i++ {
		otherNonce, err := newEphemeralNonce()
		require.NoError(t, err)
		otherBlind, err := newBlindFactor()
		require.NoError(t, err)

		require.False(t, c.Open(otherNonce.public, blind), "different nonce must not open")
		require.False(t, c.Open(nonce.public, otherBlind), "different blind must not open")
		require.False(t, c.Open(otherNonce.public, otherBlind), "different pair must not open")
	}
}

func TestCommitmentDeterministic(t *testing.T) {
	nonce, err := newEphemeralNonce()
	require.NoError(t, err)
	blind, err := newBlindFactor()
	require.NoError(t, err)

	require.Equal(t, commitNonce(nonce.public, blind), commitNonce(nonce.public, blind))
}

func TestCommitmentSingleBitFlip(t *testing.T) {
	nonce, err := newEphemeralNonce()
	require.NoError(t, err)
	blind, err := newBlindFactor()
	require.NoError(t, err)
	c := commitNonce(nonce.public, blind)

	for i := range blind {
		tampered := blind
		tampered[i] ^= 1
		require.False(t, c.Open(nonce.public, tampered), "flipped blind byte %d must not open", i)
	}
}
