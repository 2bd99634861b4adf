package tss

import (
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
)

// Byte layouts of the relayed protocol values. All integers are
// little-endian; points and scalars use their canonical 32-byte encodings.
const (
	// FirstMessageSize is commitment(64) ‖ sender(32).
	FirstMessageSize = CommitmentSize + 32
	// SecondMessageSize is R(32) ‖ blind_factor(64) ‖ sender(32).
	SecondMessageSize = 32 + BlindFactorSize + 32
	// SignatureSize is the raw Ed25519 signature layout R(32) ‖ s(32); a
	// partial signature uses the same shape.
	SignatureSize = 64
	// stepOneSecretSize is r(32) ‖ R(32) ‖ msg2.R(32) ‖ msg2.blind(64).
	stepOneSecretSize = 32 + 32 + 32 + BlindFactorSize
	// stepTwoSecretMinSize is r(32) ‖ R(32) ‖ count(8); count first messages
	// of FirstMessageSize each follow.
	stepTwoSecretMinSize = 32 + 32 + 8

	// maxCeremonyParties bounds the first-message count read from a relayed
	// secret. A Solana transaction cannot reference more accounts than this,
	// so a larger count can only be a corrupt or hostile payload.
	maxCeremonyParties = 255
)

// EphemeralNonce is a fresh secret scalar r and its public point R = r·G,
// generated once per ceremony. Reusing r across two messages under the same
// long-term key lets anyone recover the key, so nonces are drawn from the
// CSPRNG at round 1 and exist only inside the ceremony's secret state.
type EphemeralNonce struct {
	r      *edwards25519.Scalar
	public [32]byte
}

func newEphemeralNonce() (EphemeralNonce, error) {
	r, err := randomScalar()
	if err != nil {
		return EphemeralNonce{}, err
	}
	nonce := EphemeralNonce{r: r}
	copy(nonce.public[:], new(edwards25519.Point).ScalarBaseMult(r).Bytes())
	return nonce, nil
}

func (n *EphemeralNonce) equal(other *EphemeralNonce) bool {
	return n.r.Equal(other.r) == 1 && n.public == other.public
}

// FirstMessage is the round-1 broadcast unit: one party's nonce commitment
// plus its identity.
type FirstMessage struct {
	Commitment Commitment
	Sender     Address
}

// Serialize returns commitment(64) ‖ sender(32).
func (m *FirstMessage) Serialize() []byte {
	out := make([]byte, 0, FirstMessageSize)
	out = append(out, m.Commitment[:]...)
	out = append(out, m.Sender[:]...)
	return out
}

// DeserializeFirstMessage parses the FirstMessage layout.
func DeserializeFirstMessage(b []byte) (*FirstMessage, error) {
	if len(b) < FirstMessageSize {
		return nil, &InputTooShortError{Expected: FirstMessageSize, Found: len(b)}
	}
	var m FirstMessage
	copy(m.Commitment[:], b[:CommitmentSize])
	copy(m.Sender[:], b[CommitmentSize:FirstMessageSize])
	return &m, nil
}

// SecondMessage is the round-2 broadcast unit: the opening of the round-1
// commitment. It reveals the nonce point and the blind factor the sender
// committed with.
type SecondMessage struct {
	R           [32]byte
	BlindFactor BlindFactor
	Sender      Address
}

// Serialize returns R(32) ‖ blind_factor(64) ‖ sender(32).
func (m *SecondMessage) Serialize() []byte {
	out := make([]byte, 0, SecondMessageSize)
	out = append(out, m.R[:]...)
	out = append(out, m.BlindFactor[:]...)
	out = append(out, m.Sender[:]...)
	return out
}

// DeserializeSecondMessage parses the SecondMessage layout. The nonce slice
// must decode to a valid curve point.
func DeserializeSecondMessage(b []byte) (*SecondMessage, error) {
	if len(b) < SecondMessageSize {
		return nil, &InputTooShortError{Expected: SecondMessageSize, Found: len(b)}
	}
	if _, err := pointFromBytes(b[:32]); err != nil {
		return nil, err
	}
	var m SecondMessage
	copy(m.R[:], b[:32])
	copy(m.BlindFactor[:], b[32:32+BlindFactorSize])
	copy(m.Sender[:], b[32+BlindFactorSize:SecondMessageSize])
	return &m, nil
}

// noncePoint decodes the revealed nonce point.
func (m *SecondMessage) noncePoint() (*edwards25519.Point, error) {
	return pointFromBytes(m.R[:])
}

// Signature is a 64-byte Ed25519 signature R ‖ s.
type Signature struct {
	R [32]byte
	S [32]byte
}

// Serialize returns the raw 64-byte signature.
func (sig *Signature) Serialize() []byte {
	out := make([]byte, 0, SignatureSize)
	out = append(out, sig.R[:]...)
	out = append(out, sig.S[:]...)
	return out
}

// PartialSignature is one party's scalar contribution toward the final
// signature, packaged in the full signature's byte shape: the nonce half
// holds the aggregate nonce R_agg every party computed, the scalar half
// holds only this party's s_i. An aggregator sums the scalar halves while
// keeping the shared nonce half fixed.
type PartialSignature Signature

// Serialize returns the raw 64-byte partial signature.
func (p *PartialSignature) Serialize() []byte {
	return (*Signature)(p).Serialize()
}

// DeserializePartialSignature parses the 64-byte partial signature layout,
// validating the nonce half as a curve point and the scalar half as a
// canonical scalar.
func DeserializePartialSignature(b []byte) (*PartialSignature, error) {
	if len(b) < SignatureSize {
		return nil, &InputTooShortError{Expected: SignatureSize, Found: len(b)}
	}
	if _, err := pointFromBytes(b[:32]); err != nil {
		return nil, err
	}
	if _, err := scalarFromBytes(b[32:SignatureSize]); err != nil {
		return nil, err
	}
	var p PartialSignature
	copy(p.R[:], b[:32])
	copy(p.S[:], b[32:SignatureSize])
	return &p, nil
}

// StepOneSecret is the state a party carries privately from round 1 into
// round 2: its ephemeral nonce and the reveal message it will broadcast.
// It is never sent to other parties.
type StepOneSecret struct {
	nonce       EphemeralNonce
	secondR     [32]byte // reveal-message nonce point, equal to nonce.public
	blindFactor BlindFactor
}

// Serialize returns r(32) ‖ R(32) ‖ msg2.R(32) ‖ msg2.blind_factor(64).
func (s *StepOneSecret) Serialize() []byte {
	out := make([]byte, 0, stepOneSecretSize)
	out = append(out, s.nonce.r.Bytes()...)
	out = append(out, s.nonce.public[:]...)
	out = append(out, s.secondR[:]...)
	out = append(out, s.blindFactor[:]...)
	return out
}

// DeserializeStepOneSecret parses the round-1 secret layout.
func DeserializeStepOneSecret(b []byte) (*StepOneSecret, error) {
	if len(b) < stepOneSecretSize {
		return nil, &InputTooShortError{Expected: stepOneSecretSize, Found: len(b)}
	}
	r, err := scalarFromBytes(b[:32])
	if err != nil {
		return nil, err
	}
	if _, err := pointFromBytes(b[32:64]); err != nil {
		return nil, err
	}
	if _, err := pointFromBytes(b[64:96]); err != nil {
		return nil, err
	}

	s := &StepOneSecret{nonce: EphemeralNonce{r: r}}
	copy(s.nonce.public[:], b[32:64])
	copy(s.secondR[:], b[64:96])
	copy(s.blindFactor[:], b[96:stepOneSecretSize])
	return s, nil
}

// Equal reports whether two round-1 secrets are identical.
func (s *StepOneSecret) Equal(other *StepOneSecret) bool {
	return s.nonce.equal(&other.nonce) && s.secondR == other.secondR && s.blindFactor == other.blindFactor
}

// StepTwoSecret is the state a party carries privately from round 2 into
// round 3: its ephemeral nonce plus every round-1 message it received. The
// stored first messages are what round 3 checks the reveals against, so they
// must come from the party's own round-2 invocation, not from a peer.
type StepTwoSecret struct {
	nonce         EphemeralNonce
	firstMessages []FirstMessage
}

// Serialize returns r(32) ‖ R(32) ‖ count(8) ‖ count × [commitment(64) ‖ sender(32)].
func (s *StepTwoSecret) Serialize() []byte {
	out := make([]byte, 0, stepTwoSecretMinSize+len(s.firstMessages)*FirstMessageSize)
	out = append(out, s.nonce.r.Bytes()...)
	out = append(out, s.nonce.public[:]...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(s.firstMessages)))
	for i := range s.firstMessages {
		out = append(out, s.firstMessages[i].Commitment[:]...)
		out = append(out, s.firstMessages[i].Sender[:]...)
	}
	return out
}

// DeserializeStepTwoSecret parses the round-2 secret layout.
func DeserializeStepTwoSecret(b []byte) (*StepTwoSecret, error) {
	if len(b) < stepTwoSecretMinSize {
		return nil, &InputTooShortError{Expected: stepTwoSecretMinSize, Found: len(b)}
	}
	r, err := scalarFromBytes(b[:32])
	if err != nil {
		return nil, err
	}
	if _, err := pointFromBytes(b[32:64]); err != nil {
		return nil, err
	}

	count := binary.LittleEndian.Uint64(b[64:72])
	if count > maxCeremonyParties {
		return nil, fmt.Errorf("first message count %d exceeds the %d party limit", count, maxCeremonyParties)
	}
	expected := stepTwoSecretMinSize + int(count)*FirstMessageSize
	if len(b) < expected {
		return nil, &InputTooShortError{Expected: expected, Found: len(b)}
	}

	s := &StepTwoSecret{
		nonce:         EphemeralNonce{r: r},
		firstMessages: make([]FirstMessage, count),
	}
	copy(s.nonce.public[:], b[32:64])
	for i := range s.firstMessages {
		chunk := b[stepTwoSecretMinSize+i*FirstMessageSize:]
		copy(s.firstMessages[i].Commitment[:], chunk[:CommitmentSize])
		copy(s.firstMessages[i].Sender[:], chunk[CommitmentSize:FirstMessageSize])
	}
	return s, nil
}

// Equal reports whether two round-2 secrets are identical.
func (s *StepTwoSecret) Equal(other *StepTwoSecret) bool {
	if !s.nonce.equal(&other.nonce) || len(s.firstMessages) != len(other.firstMessages) {
		return false
	}
	for i := range s.firstMessages {
		if s.firstMessages[i] != other.firstMessages[i] {
			return false
		}
	}
	return true
}
