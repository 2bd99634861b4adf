package tss

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/hkdf"
)

// Address is a 32-byte Solana account address: the canonical encoding of an
// Ed25519 public key. It identifies a participant in the signing ceremony and
// doubles as the on-chain address once keys are aggregated.
type Address [32]byte

// ParseAddress decodes a base58 address string.
func ParseAddress(s string) (Address, error) {
	var addr Address
	raw, err := base58.Decode(s)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// String returns the base58 form used everywhere Solana addresses are shown.
func (addr Address) String() string {
	return base58.Encode(addr[:])
}

// Bytes returns the raw 32 bytes.
func (addr Address) Bytes() []byte { return addr[:] }

// IsZero reports whether the address is all zeros.
func (addr Address) IsZero() bool { return addr == Address{} }

// Point decodes the address as an edwards25519 point. Participant addresses
// must be valid curve points; arbitrary program addresses need not be.
func (addr Address) Point() (*edwards25519.Point, error) {
	return pointFromBytes(addr[:])
}

const (
	// KeypairSize is the size of the portable secret-key encoding: the
	// 32-byte seed followed by the 32-byte public key, as produced by the
	// stock Solana tooling.
	KeypairSize = 64

	seedSize = 32
)

// Keypair holds one party's long-term Ed25519 key material in expanded form:
// the secret scalar x with public point A = x*G, plus the RFC 8032 prefix
// used for deterministic single-signer nonces.
type Keypair struct {
	seed   [seedSize]byte
	secret *edwards25519.Scalar
	prefix [32]byte
	public Address
}

// GenerateKeypair creates a keypair from fresh system randomness.
func GenerateKeypair() (*Keypair, error) {
	var seed [seedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	return KeypairFromSeed(seed), nil
}

// DeriveKeypair deterministically derives a keypair from caller-supplied seed
// material via HKDF-SHA256. The same material always yields the same keypair.
func DeriveKeypair(material []byte) (*Keypair, error) {
	kdf := hkdf.New(sha256.New, material, []byte("solana-tss keypair v1"), []byte("ed25519 seed"))
	var seed [seedSize]byte
	if _, err := io.ReadFull(kdf, seed[:]); err != nil {
		return nil, fmt.Errorf("failed to derive seed: %w", err)
	}
	return KeypairFromSeed(seed), nil
}

// KeypairFromSeed expands a 32-byte seed per RFC 8032: the secret scalar is
// the clamped lower half of SHA-512(seed), the prefix is the upper half.
func KeypairFromSeed(seed [seedSize]byte) *Keypair {
	h := sha512.Sum512(seed[:])
	secret, err := new(edwards25519.Scalar).SetBytesWithClamping(h[:32])
	if err != nil {
		// SetBytesWithClamping only fails on wrong input length.
		panic("tss: scalar clamping failed: " + err.Error())
	}

	kp := &Keypair{seed: seed, secret: secret}
	copy(kp.prefix[:], h[32:])
	copy(kp.public[:], new(edwards25519.Point).ScalarBaseMult(secret).Bytes())
	return kp
}

// ParseKeypair decodes the base58 seed‖pubkey encoding produced by Base58.
// The embedded public key must match the one derived from the seed.
func ParseKeypair(s string) (*Keypair, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(raw) < KeypairSize {
		return nil, &InputTooShortError{Expected: KeypairSize, Found: len(raw)}
	}
	if len(raw) != KeypairSize {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d", KeypairSize, len(raw))
	}

	var seed [seedSize]byte
	copy(seed[:], raw[:seedSize])
	kp := KeypairFromSeed(seed)
	if !bytes.Equal(kp.public[:], raw[seedSize:]) {
		return nil, fmt.Errorf("keypair public key does not match its seed")
	}
	return kp, nil
}

// Base58 returns the portable secret-key encoding: base58(seed ‖ pubkey).
func (kp *Keypair) Base58() string {
	raw := make([]byte, 0, KeypairSize)
	raw = append(raw, kp.seed[:]...)
	raw = append(raw, kp.public[:]...)
	return base58.Encode(raw)
}

// Public returns the party's address.
func (kp *Keypair) Public() Address { return kp.public }

// Sign produces a standard RFC 8032 Ed25519 signature over message with the
// deterministic nonce r = SHA-512(prefix ‖ message). Used for the
// single-signer send path; the ceremony uses fresh random nonces instead.
func (kp *Keypair) Sign(message []byte) [SignatureSize]byte {
	hr := sha512.New()
	hr.Write(kp.prefix[:])
	hr.Write(message)
	r, _ := new(edwards25519.Scalar).SetUniformBytes(hr.Sum(nil))

	R := new(edwards25519.Point).ScalarBaseMult(r)
	k := signingChallenge(R.Bytes(), kp.public, message)
	s := new(edwards25519.Scalar).MultiplyAdd(k, kp.secret, r)

	var sig [SignatureSize]byte
	copy(sig[:32], R.Bytes())
	copy(sig[32:], s.Bytes())
	return sig
}

// signingChallenge computes the Ed25519 challenge k = SHA-512(R ‖ A ‖ M)
// reduced mod the group order, exactly as RFC 8032 verification recomputes
// it. The ceremony feeds the aggregate nonce and aggregate key through the
// same function so the combined signature verifies under stock Ed25519.
func signingChallenge(R []byte, pub Address, message []byte) *edwards25519.Scalar {
	h := sha512.New()
	h.Write(R)
	h.Write(pub[:])
	h.Write(message)
	k, _ := new(edwards25519.Scalar).SetUniformBytes(h.Sum(nil))
	return k
}

// randomScalar draws a fresh uniformly distributed scalar from the system's
// CSPRNG. 64 bytes are reduced mod the group order to avoid bias.
func randomScalar() (*edwards25519.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	s, _ := new(edwards25519.Scalar).SetUniformBytes(buf[:])
	return s, nil
}

// scalarFromBytes decodes a canonical 32-byte scalar.
func scalarFromBytes(b []byte) (*edwards25519.Scalar, error) {
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return s, nil
}

// pointFromBytes decodes a canonical 32-byte curve point.
func pointFromBytes(b []byte) (*edwards25519.Point, error) {
	p, err := new(edwards25519.Point).SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return p, nil
}

