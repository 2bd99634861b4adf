package tss

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
)

// SignStepOne runs round 1 of the ceremony for one party: draw a fresh
// ephemeral nonce (r, R) and a fresh blind factor, and commit to R before
// anyone reveals anything. The returned FirstMessage is broadcast to every
// other party; the StepOneSecret stays with this party and is the only input
// besides the keypair that round 2 needs.
func SignStepOne(kp *Keypair) (*FirstMessage, *StepOneSecret, error) {
	nonce, err := newEphemeralNonce()
	if err != nil {
		return nil, nil, err
	}
	blind, err := newBlindFactor()
	if err != nil {
		return nil, nil, err
	}

	msg := &FirstMessage{
		Commitment: commitNonce(nonce.public, blind),
		Sender:     kp.Public(),
	}
	secret := &StepOneSecret{
		nonce:       nonce,
		secondR:     nonce.public,
		blindFactor: blind,
	}
	return msg, secret, nil
}

// SignStepTwo runs round 2: reveal the nonce point and blind factor
// committed in round 1, verbatim from the round-1 secret. The received first
// messages are not checked here — there is nothing to check them against
// yet — but they are folded into the round-2 secret so that round 3 verifies
// the reveals against the commitments *this* party collected, not against a
// list a peer could rewrite.
func SignStepTwo(kp *Keypair, secret *StepOneSecret, firstMessages []FirstMessage) (*SecondMessage, *StepTwoSecret, error) {
	if len(firstMessages) == 0 {
		return nil, nil, fmt.Errorf("at least one first message is required")
	}

	msg := &SecondMessage{
		R:           secret.secondR,
		BlindFactor: secret.blindFactor,
		Sender:      kp.Public(),
	}
	carried := make([]FirstMessage, len(firstMessages))
	copy(carried, firstMessages)

	return msg, &StepTwoSecret{nonce: secret.nonce, firstMessages: carried}, nil
}

// SignStepThree runs round 3: open every commitment, aggregate the nonces
// and keys, and produce this party's partial signature over the agreed
// transaction. Every party must supply a byte-identical TransactionContext;
// a disagreement is not detectable here and only surfaces when the combined
// signature fails to verify.
func SignStepThree(kp *Keypair, secret *StepTwoSecret, secondMessages []SecondMessage, txCtx *TransactionContext) (*PartialSignature, error) {
	sorted, err := canonicalKeyOrder(txCtx.Keys)
	if err != nil {
		return nil, err
	}
	own := kp.Public()
	if !containsKey(sorted, own) {
		return nil, fmt.Errorf("signer %s is not in the participant set", own)
	}

	nonces, err := openReveals(secret.firstMessages, secondMessages)
	if err != nil {
		return nil, err
	}

	// The reveal set and the participant set must be the same parties.
	for _, pk := range sorted {
		if _, ok := nonces[pk]; !ok {
			return nil, &MissingMessageError{Party: pk, Round: 2}
		}
	}
	if len(nonces) != len(sorted) {
		for sender := range nonces {
			if !containsKey(sorted, sender) {
				return nil, fmt.Errorf("party %s sent messages but is not in the participant set", sender)
			}
		}
	}

	points := make([]*edwards25519.Point, 0, len(sorted))
	for _, pk := range sorted {
		points = append(points, nonces[pk])
	}
	aggregateNonce := aggregateNonces(points)

	aggregateKey, err := AggregateKeys(txCtx.Keys)
	if err != nil {
		return nil, err
	}
	message, err := txCtx.UnsignedMessage()
	if err != nil {
		return nil, err
	}

	k := signingChallenge(aggregateNonce.Bytes(), aggregateKey, message.Serialize())
	weighted := new(edwards25519.Scalar).Multiply(aggregationCoefficient(own, sorted), kp.secret)
	si := new(edwards25519.Scalar).MultiplyAdd(k, weighted, secret.nonce.r)

	partial := &PartialSignature{}
	copy(partial.R[:], aggregateNonce.Bytes())
	copy(partial.S[:], si.Bytes())
	return partial, nil
}

// openReveals matches each round-2 reveal to the round-1 commitment from the
// same sender and opens it. Any commitment that fails to open aborts the
// ceremony: the nonce was changed after commitment, which is exactly the
// rogue-nonce move the commit-then-reveal ordering exists to stop.
func openReveals(firstMessages []FirstMessage, secondMessages []SecondMessage) (map[Address]*edwards25519.Point, error) {
	commitments := make(map[Address]Commitment, len(firstMessages))
	for i := range firstMessages {
		sender := firstMessages[i].Sender
		if _, dup := commitments[sender]; dup {
			return nil, &DuplicateMessageError{Party: sender, Round: 1}
		}
		commitments[sender] = firstMessages[i].Commitment
	}

	nonces := make(map[Address]*edwards25519.Point, len(secondMessages))
	for i := range secondMessages {
		msg := &secondMessages[i]
		if _, dup := nonces[msg.Sender]; dup {
			return nil, &DuplicateMessageError{Party: msg.Sender, Round: 2}
		}
		commitment, ok := commitments[msg.Sender]
		if !ok {
			return nil, &MissingMessageError{Party: msg.Sender, Round: 1}
		}
		if !commitment.Open(msg.R, msg.BlindFactor) {
			return nil, &CommitmentMismatchError{Party: msg.Sender}
		}
		R, err := msg.noncePoint()
		if err != nil {
			return nil, err
		}
		nonces[msg.Sender] = R
	}

	for sender := range commitments {
		if _, ok := nonces[sender]; !ok {
			return nil, &MissingMessageError{Party: sender, Round: 2}
		}
	}
	return nonces, nil
}

// CombinePartialSignatures sums the scalar halves of the partial signatures
// into the final signature. All partials must agree on the aggregate nonce;
// the summation itself is order-independent.
func CombinePartialSignatures(partials []*PartialSignature) (*Signature, error) {
	if len(partials) == 0 {
		return nil, fmt.Errorf("at least one partial signature is required")
	}

	sum := edwards25519.NewScalar()
	for i, p := range partials {
		if p.R != partials[0].R {
			return nil, fmt.Errorf("partial signature %d disagrees on the aggregate nonce", i+1)
		}
		si, err := scalarFromBytes(p.S[:])
		if err != nil {
			return nil, annotate(fmt.Sprintf("partial signature %d", i+1), err)
		}
		sum.Add(sum, si)
	}

	sig := &Signature{R: partials[0].R}
	copy(sig.S[:], sum.Bytes())
	return sig, nil
}

// FinalizeTransaction combines the partial signatures, verifies the result
// against the aggregate key and the context's message bytes, and assembles
// the broadcastable transaction. A combined signature that fails
// verification means the parties signed different transaction parameters.
func FinalizeTransaction(txCtx *TransactionContext, partials []*PartialSignature) (*Transaction, error) {
	sig, err := CombinePartialSignatures(partials)
	if err != nil {
		return nil, err
	}

	aggregateKey, err := txCtx.AggregateKey()
	if err != nil {
		return nil, err
	}
	message, err := txCtx.UnsignedMessage()
	if err != nil {
		return nil, err
	}

	if !ed25519.Verify(ed25519.PublicKey(aggregateKey[:]), message.Serialize(), sig.Serialize()) {
		return nil, ErrMismatchedContext
	}

	tx := NewTransaction(message)
	tx.Signatures[0] = *sig
	return tx, nil
}

func containsKey(keys []Address, key Address) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
