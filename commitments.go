package tss

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
)

const (
	// CommitmentSize is the size of a nonce commitment: one SHA-512 output.
	CommitmentSize = 64
	// BlindFactorSize is the size of the random blind factor a commitment is
	// computed over.
	BlindFactorSize = 64
)

// commitmentDomain separates nonce commitments from every other SHA-512 use
// in the protocol.
var commitmentDomain = []byte("solana-tss nonce commitment v1")

// Commitment binds a party to its ephemeral nonce point before the point is
// revealed. It is hiding (the commitment alone leaks nothing about the nonce)
// and binding (no other nonce/blind pair opens it).
type Commitment [CommitmentSize]byte

// BlindFactor is the per-commitment randomness. A fresh one is drawn for
// every ceremony and revealed together with the nonce point in round 2.
type BlindFactor [BlindFactorSize]byte

// newBlindFactor draws a fresh blind factor from the system CSPRNG.
func newBlindFactor() (BlindFactor, error) {
	var blind BlindFactor
	if _, err := rand.Read(blind[:]); err != nil {
		return blind, fmt.Errorf("failed to read randomness: %w", err)
	}
	return blind, nil
}

// commitNonce computes SHA-512(domain ‖ R ‖ blind) over the 32-byte encoding
// of the nonce point, which is its y-coordinate plus the sign bit of x.
func commitNonce(nonce [32]byte, blind BlindFactor) Commitment {
	h := sha512.New()
	h.Write(commitmentDomain)
	h.Write(nonce[:])
	h.Write(blind[:])

	var c Commitment
	copy(c[:], h.Sum(nil))
	return c
}

// Open recomputes the commitment from a revealed nonce point and blind
// factor and compares in constant time. A false result means the revealed
// pair is not the one committed to.
func (c Commitment) Open(nonce [32]byte, blind BlindFactor) bool {
	expected := commitNonce(nonce, blind)
	return subtle.ConstantTimeCompare(c[:], expected[:]) == 1
}
