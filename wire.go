package tss

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// wireValue is any protocol value with a binary wire form.
type wireValue interface {
	Serialize() []byte
}

// EncodeBase58 returns the human-transportable text form of a protocol
// value: base58 over its binary serialization. This is what the CLI prints
// for the operator to copy between parties.
func EncodeBase58(v wireValue) string {
	return base58.Encode(v.Serialize())
}

// decodeBase58 decodes the text transport layer and hands the raw bytes to
// the type's binary parser.
func decodeBase58[T any](s string, parse func([]byte) (T, error)) (T, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return parse(raw)
}

// ParseFirstMessage decodes a base58-encoded FirstMessage.
func ParseFirstMessage(s string) (*FirstMessage, error) {
	return decodeBase58(s, DeserializeFirstMessage)
}

// ParseSecondMessage decodes a base58-encoded SecondMessage.
func ParseSecondMessage(s string) (*SecondMessage, error) {
	return decodeBase58(s, DeserializeSecondMessage)
}

// ParsePartialSignature decodes a base58-encoded PartialSignature.
func ParsePartialSignature(s string) (*PartialSignature, error) {
	return decodeBase58(s, DeserializePartialSignature)
}

// ParseStepOneSecret decodes a base58-encoded round-1 secret.
func ParseStepOneSecret(s string) (*StepOneSecret, error) {
	return decodeBase58(s, DeserializeStepOneSecret)
}

// ParseStepTwoSecret decodes a base58-encoded round-2 secret.
func ParseStepTwoSecret(s string) (*StepTwoSecret, error) {
	return decodeBase58(s, DeserializeStepTwoSecret)
}

// ParseFirstMessages decodes a list of base58 FirstMessages, annotating
// failures with the list position.
func ParseFirstMessages(encoded []string) ([]FirstMessage, error) {
	msgs := make([]FirstMessage, 0, len(encoded))
	for i, s := range encoded {
		m, err := ParseFirstMessage(s)
		if err != nil {
			return nil, annotate(fmt.Sprintf("first message %d", i+1), err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, nil
}

// ParseSecondMessages decodes a list of base58 SecondMessages, annotating
// failures with the list position.
func ParseSecondMessages(encoded []string) ([]SecondMessage, error) {
	msgs := make([]SecondMessage, 0, len(encoded))
	for i, s := range encoded {
		m, err := ParseSecondMessage(s)
		if err != nil {
			return nil, annotate(fmt.Sprintf("second message %d", i+1), err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, nil
}

// ParsePartialSignatures decodes a list of base58 PartialSignatures,
// annotating failures with the list position.
func ParsePartialSignatures(encoded []string) ([]*PartialSignature, error) {
	sigs := make([]*PartialSignature, 0, len(encoded))
	for i, s := range encoded {
		p, err := ParsePartialSignature(s)
		if err != nil {
			return nil, annotate(fmt.Sprintf("partial signature %d", i+1), err)
		}
		sigs = append(sigs, p)
	}
	return sigs, nil
}
