package tss

import (
	"bytes"
	"crypto/sha512"
	"fmt"
	"sort"

	"filippo.io/edwards25519"
)

// keyAggDomain separates key-aggregation coefficients from the other SHA-512
// uses in the protocol.
var keyAggDomain = []byte("solana-tss key aggregation v1")

// canonicalKeyOrder returns the participant set sorted ascending by raw key
// bytes. Every party must aggregate over the same ordering or the resulting
// addresses and signatures diverge; sorting makes the order independent of
// how the operator happened to list the keys. Duplicates are rejected.
func canonicalKeyOrder(keys []Address) ([]Address, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one participant key is required")
	}

	sorted := make([]Address, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("duplicate participant key %s", sorted[i])
		}
	}
	return sorted, nil
}

// aggregationCoefficient computes the musig-style coefficient
// a_i = H(domain ‖ pk_i ‖ pk_1 ‖ … ‖ pk_n) over the canonically ordered
// participant set. The per-key coefficient is what defeats rogue-key attacks:
// a party cannot pick its key as a function of the others' keys without
// changing its own coefficient.
func aggregationCoefficient(key Address, sorted []Address) *edwards25519.Scalar {
	h := sha512.New()
	h.Write(keyAggDomain)
	h.Write(key[:])
	for _, pk := range sorted {
		h.Write(pk[:])
	}
	a, _ := new(edwards25519.Scalar).SetUniformBytes(h.Sum(nil))
	return a
}

// AggregateKeys combines a set of participant keys into the joint signing
// key PK_agg = Σ a_i·P_i. The result is the Solana address the parties
// control together. The same set of keys yields the same address in any
// presentation order.
func AggregateKeys(keys []Address) (Address, error) {
	var agg Address

	sorted, err := canonicalKeyOrder(keys)
	if err != nil {
		return agg, err
	}

	sum := edwards25519.NewIdentityPoint()
	for _, pk := range sorted {
		point, err := pk.Point()
		if err != nil {
			return agg, fmt.Errorf("participant key %s: %w", pk, err)
		}
		a := aggregationCoefficient(pk, sorted)
		sum.Add(sum, new(edwards25519.Point).ScalarMult(a, point))
	}

	copy(agg[:], sum.Bytes())
	return agg, nil
}

// aggregateNonces sums the revealed per-party nonce points into the
// aggregate nonce R_agg. Point addition commutes, so every party arrives at
// the same aggregate regardless of message arrival order.
func aggregateNonces(nonces []*edwards25519.Point) *edwards25519.Point {
	sum := edwards25519.NewIdentityPoint()
	for _, R := range nonces {
		sum.Add(sum, R)
	}
	return sum
}
