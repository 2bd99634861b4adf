package tss

import (
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// SolToLamports converts a SOL amount to lamports, rejecting negative and
// unrepresentable amounts.
func SolToLamports(sol float64) (uint64, error) {
	if sol < 0 || math.IsNaN(sol) || math.IsInf(sol, 0) {
		return 0, fmt.Errorf("invalid SOL amount: %v", sol)
	}
	lamports := sol * LamportsPerSol
	if lamports > math.MaxUint64 {
		return 0, fmt.Errorf("SOL amount %v overflows lamports", sol)
	}
	return uint64(math.Round(lamports)), nil
}

// LamportsToSol converts lamports to a SOL amount for display.
func LamportsToSol(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSol
}

// TransactionContext is the externally agreed set of transaction parameters
// every ceremony party must sign identically: amount, recipient, optional
// memo, the recent blockhash, and the full participant key set. Its
// serialized message bytes are exactly what gets signed; if two parties
// disagree on a single byte, their partial signatures cannot combine into
// one valid signature.
type TransactionContext struct {
	Lamports        uint64
	To              Address
	Memo            string
	RecentBlockhash Blockhash
	Keys            []Address
}

// AggregateKey returns the joint address derived from the participant set.
func (c *TransactionContext) AggregateKey() (Address, error) {
	return AggregateKeys(c.Keys)
}

// UnsignedMessage builds the transfer message the parties are signing, with
// the aggregate key as fee payer and source of funds.
func (c *TransactionContext) UnsignedMessage() (*Message, error) {
	agg, err := c.AggregateKey()
	if err != nil {
		return nil, err
	}
	return buildTransferMessage(agg, c.To, c.Lamports, c.Memo, c.RecentBlockhash)
}

// Fingerprint returns a short blake2b digest of the exact bytes being
// signed. Parties can compare fingerprints out of band before relaying
// partial signatures; a mismatch here is cheaper to find than a combined
// signature that fails to verify.
func (c *TransactionContext) Fingerprint() (string, error) {
	msg, err := c.UnsignedMessage()
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(msg.Serialize())
	return fmt.Sprintf("%x", sum[:8]), nil
}
