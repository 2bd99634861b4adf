// Package tss implements an n-of-n aggregated Ed25519 signature scheme for
// Solana. N parties, each holding an ordinary Ed25519 keypair, jointly control
// a single aggregate address and cooperatively produce one signature that
// verifies under stock Ed25519.
//
// Signing is a three-round commit/reveal/sign ceremony. Each round is a
// separate invocation of the same program; all protocol messages and the
// party's intermediate secret state travel as base58 text that a human relays
// between parties:
//
//	round 1: generate a fresh ephemeral nonce, broadcast a commitment to it
//	round 2: reveal the nonce point and the commitment's blind factor
//	round 3: open everyone's commitments, sign the agreed transaction, emit a
//	         partial signature
//
// Partial signatures from all parties are summed into the final signature by
// any party (or an external combiner) and broadcast to the cluster.
//
// The commit-then-reveal ordering of nonces is what prevents a malicious
// party from choosing its nonce after seeing the others'. Skipping the
// commitment check in round 3 defeats the scheme's unforgeability.
package tss
