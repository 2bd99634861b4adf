package tss

import (
	"errors"
	"fmt"
)

// Common errors returned by the codec and the signing rounds.
var (
	ErrInvalidPoint    = errors.New("invalid ed25519 point")
	ErrInvalidScalar   = errors.New("invalid ed25519 scalar")
	ErrInvalidEncoding = errors.New("invalid base58")

	// ErrMismatchedContext is returned when partial signatures combine into a
	// signature that does not verify. The usual cause is parties signing
	// different transaction parameters in round 3; the partials themselves
	// look well formed, so this is only detectable after combination.
	ErrMismatchedContext = errors.New("combined signature does not verify, the parties likely signed different transaction parameters")
)

// InputTooShortError reports a buffer shorter than the minimum size of the
// type being deserialized.
type InputTooShortError struct {
	Expected int
	Found    int
}

func (e *InputTooShortError) Error() string {
	return fmt.Sprintf("input too short, expected: %d, found: %d", e.Expected, e.Found)
}

// CommitmentMismatchError reports that a party's revealed nonce and blind
// factor do not open the commitment it published in round 1. This aborts the
// ceremony: the nonce was changed after commitment, either by corruption in
// transit or by an actively malicious party.
type CommitmentMismatchError struct {
	Party Address
}

func (e *CommitmentMismatchError) Error() string {
	return fmt.Sprintf("commitment of party %s does not open with the revealed nonce and blind factor", e.Party)
}

// MissingMessageError reports a participant for which one of the two rounds'
// messages was not supplied.
type MissingMessageError struct {
	Party Address
	Round int
}

func (e *MissingMessageError) Error() string {
	return fmt.Sprintf("no round %d message from party %s", e.Round, e.Party)
}

// DuplicateMessageError reports two messages from the same sender in one
// round.
type DuplicateMessageError struct {
	Party Address
	Round int
}

func (e *DuplicateMessageError) Error() string {
	return fmt.Sprintf("more than one round %d message from party %s", e.Round, e.Party)
}

// DecodeError annotates a deserialization failure with the name of the field
// or argument being decoded, so the CLI can tell the operator which of the
// many relayed payloads was bad.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// annotate wraps err in a DecodeError unless it is nil.
func annotate(field string, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Field: field, Err: err}
}
