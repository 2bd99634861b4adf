package tss

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Blockhash is a recent block hash anchoring a transaction to a slot window.
// Every ceremony party must use the identical hash or the signed messages
// diverge.
type Blockhash [32]byte

// ParseBlockhash decodes the base58 blockhash string returned by the RPC
// layer.
func ParseBlockhash(s string) (Blockhash, error) {
	var h Blockhash
	raw, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("blockhash must be %d bytes, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the base58 form.
func (h Blockhash) String() string { return base58.Encode(h[:]) }

// IsZero reports whether the hash is all zeros.
func (h Blockhash) IsZero() bool { return h == Blockhash{} }

// AccountMeta describes how an instruction touches one account.
type AccountMeta struct {
	Address    Address
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation before account indices are
// compiled.
type Instruction struct {
	ProgramID Address
	Accounts  []AccountMeta
	Data      []byte
}

// CompiledInstruction references its accounts by index into the message's
// account key table.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndices []uint8
	Data           []byte
}

// MessageHeader counts the signer and read-only accounts in a message.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is the signed portion of a Solana transaction. Its serialized
// bytes are exactly what each ceremony party signs, so serialization must be
// deterministic and byte-identical across parties.
type Message struct {
	Header          MessageHeader
	AccountKeys     []Address
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

// Serialize encodes the message in Solana's wire layout:
// header(3) ‖ shortvec(account keys) ‖ blockhash(32) ‖ shortvec(instructions).
func (msg *Message) Serialize() []byte {
	var out []byte
	out = append(out, msg.Header.NumRequiredSignatures)
	out = append(out, msg.Header.NumReadonlySignedAccounts)
	out = append(out, msg.Header.NumReadonlyUnsignedAccounts)

	out = appendShortvecLen(out, len(msg.AccountKeys))
	for _, key := range msg.AccountKeys {
		out = append(out, key[:]...)
	}

	out = append(out, msg.RecentBlockhash[:]...)

	out = appendShortvecLen(out, len(msg.Instructions))
	for _, in := range msg.Instructions {
		out = append(out, in.ProgramIDIndex)
		out = appendShortvecLen(out, len(in.AccountIndices))
		out = append(out, in.AccountIndices...)
		out = appendShortvecLen(out, len(in.Data))
		out = append(out, in.Data...)
	}
	return out
}

// Transaction is a message plus one signature per required signer.
type Transaction struct {
	Message    *Message
	Signatures []Signature
}

// NewTransaction wraps a message with empty signature slots.
func NewTransaction(msg *Message) *Transaction {
	return &Transaction{
		Message:    msg,
		Signatures: make([]Signature, msg.Header.NumRequiredSignatures),
	}
}

// Serialize encodes the transaction for submission:
// shortvec(signatures) ‖ message.
func (tx *Transaction) Serialize() []byte {
	var out []byte
	out = appendShortvecLen(out, len(tx.Signatures))
	for i := range tx.Signatures {
		out = append(out, tx.Signatures[i].Serialize()...)
	}
	return append(out, tx.Message.Serialize()...)
}

// appendShortvecLen appends a length in Solana's compact-u16 encoding: seven
// bits per byte, least significant group first, high bit as continuation.
func appendShortvecLen(out []byte, n int) []byte {
	v := uint16(n)
	for {
		if v < 0x80 {
			return append(out, byte(v))
		}
		out = append(out, byte(v&0x7f)|0x80)
		v >>= 7
	}
}
