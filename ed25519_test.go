package tss

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func TestKeypairMatchesStockEd25519(t *testing.T) {
	// The expanded keypair must agree with crypto/ed25519 on the public key
	// for the same seed; Solana address derivation depends on it.
	for i := 0; i < 8; i++ {
		var seed [seedSize]byte
		_, err := rand.Read(seed[:])
		require.NoError(t, err)

		kp := KeypairFromSeed(seed)
		ref := ed25519.NewKeyFromSeed(seed[:])
		require.Equal(t, []byte(ref.Public().(ed25519.PublicKey)), kp.Public().Bytes())
	}
}

func TestKeypairBase58RoundTrip(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	parsed, err := ParseKeypair(kp.Base58())
	require.NoError(t, err)
	require.Equal(t, kp.Public(), parsed.Public())
	require.Equal(t, kp.seed, parsed.seed)
}

func TestParseKeypairRejectsBadInput(t *testing.T) {
	_, err := ParseKeypair("not base58 IO0l")
	require.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = ParseKeypair(base58.Encode(make([]byte, 32)))
	var tooShort *InputTooShortError
	require.ErrorAs(t, err, &tooShort)
	require.Equal(t, KeypairSize, tooShort.Expected)
	require.Equal(t, 32, tooShort.Found)

	_, err = ParseKeypair(base58.Encode(make([]byte, KeypairSize+1)))
	require.Error(t, err)
}

func TestParseKeypairRejectsMismatchedPublicKey(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	other, err := GenerateKeypair()
	require.NoError(t, err)

	// Seed from one keypair, public key from another.
	raw := make([]byte, 0, KeypairSize)
	raw = append(raw, kp.seed[:]...)
	raw = append(raw, other.public[:]...)

	_, err = ParseKeypair(base58.Encode(raw))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not match")
}

func TestSignVerifiesUnderStockEd25519(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	messages := [][]byte{
		nil,
		[]byte("x"),
		[]byte("a longer message that spans more than one hash block to make sure the prefix hashing is right"),
	}
	for _, msg := range messages {
		sig := kp.Sign(msg)
		require.True(t, ed25519.Verify(ed25519.PublicKey(kp.Public().Bytes()), msg, sig[:]))
	}
}

func TestSignIsDeterministic(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	msg := []byte("pay the rent")
	require.Equal(t, kp.Sign(msg), kp.Sign(msg))
}

func TestDeriveKeypairDeterministic(t *testing.T) {
	a, err := DeriveKeypair([]byte("correct horse battery staple"))
	require.NoError(t, err)
	b, err := DeriveKeypair([]byte("correct horse battery staple"))
	require.NoError(t, err)
	require.Equal(t, a.Public(), b.Public())
	require.Equal(t, a.Base58(), b.Base58())

	c, err := DeriveKeypair([]byte("correct horse battery staples"))
	require.NoError(t, err)
	require.NotEqual(t, a.Public(), c.Public())
}

func TestAddressRoundTrip(t *testing.T) {
	addr := randomAddress(t)
	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr, parsed)
}

func TestParseAddressRejectsBadInput(t *testing.T) {
	_, err := ParseAddress("not base58 IO0l")
	require.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = ParseAddress(base58.Encode(make([]byte, 31)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "32 bytes")
}
