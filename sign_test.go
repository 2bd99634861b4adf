package tss

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func testBlockhash(t *testing.T) Blockhash {
	t.Helper()
	var h Blockhash
	_, err := rand.Read(h[:])
	require.NoError(t, err)
	return h
}

// runCeremony drives a full n-party ceremony over txCtx and returns each
// party's partial signature, relaying every value through its wire encoding
// the way the CLI would.
func runCeremony(t *testing.T, parties []*Keypair, txCtx *TransactionContext) []*PartialSignature {
	t.Helper()

	firstMessages := make([]FirstMessage, len(parties))
	stepOneSecrets := make([]*StepOneSecret, len(parties))
	for i, kp := range parties {
		msg, secret, err := SignStepOne(kp)
		require.NoError(t, err)

		relayed, err := ParseFirstMessage(EncodeBase58(msg))
		require.NoError(t, err)
		firstMessages[i] = *relayed

		stepOneSecrets[i], err = ParseStepOneSecret(EncodeBase58(secret))
		require.NoError(t, err)
	}

	secondMessages := make([]SecondMessage, len(parties))
	stepTwoSecrets := make([]*StepTwoSecret, len(parties))
	for i, kp := range parties {
		msg, secret, err := SignStepTwo(kp, stepOneSecrets[i], firstMessages)
		require.NoError(t, err)

		relayed, err := ParseSecondMessage(EncodeBase58(msg))
		require.NoError(t, err)
		secondMessages[i] = *relayed

		stepTwoSecrets[i], err = ParseStepTwoSecret(EncodeBase58(secret))
		require.NoError(t, err)
	}

	partials := make([]*PartialSignature, len(parties))
	for i, kp := range parties {
		partial, err := SignStepThree(kp, stepTwoSecrets[i], secondMessages, txCtx)
		require.NoError(t, err)

		partials[i], err = ParsePartialSignature(EncodeBase58(partial))
		require.NoError(t, err)
	}
	return partials
}

func ceremonyContext(t *testing.T, parties []*Keypair) *TransactionContext {
	t.Helper()
	keys := make([]Address, len(parties))
	for i, kp := range parties {
		keys[i] = kp.Public()
	}
	return &TransactionContext{
		Lamports:        123_456_789,
		To:              randomAddress(t),
		Memo:            "rent",
		RecentBlockhash: testBlockhash(t),
		Keys:            keys,
	}
}

func generateParties(t *testing.T, n int) []*Keypair {
	t.Helper()
	parties := make([]*Keypair, n)
	for i := range parties {
		kp, err := GenerateKeypair()
		require.NoError(t, err)
		parties[i] = kp
	}
	return parties
}

func TestTwoPartyCeremony(t *testing.T) {
	parties := generateParties(t, 2)
	txCtx := ceremonyContext(t, parties)

	partials := runCeremony(t, parties, txCtx)

	tx, err := FinalizeTransaction(txCtx, partials)
	require.NoError(t, err)

	aggregateKey, err := txCtx.AggregateKey()
	require.NoError(t, err)
	message, err := txCtx.UnsignedMessage()
	require.NoError(t, err)

	// The combined signature must verify under stock Ed25519.
	require.True(t, ed25519.Verify(
		ed25519.PublicKey(aggregateKey[:]),
		message.Serialize(),
		tx.Signatures[0].Serialize(),
	))
}

func TestFivePartyCeremony(t *testing.T) {
	parties := generateParties(t, 5)
	txCtx := ceremonyContext(t, parties)

	partials := runCeremony(t, parties, txCtx)

	_, err := FinalizeTransaction(txCtx, partials)
	require.NoError(t, err)
}

func TestCeremonyKeyOrderDoesNotMatter(t *testing.T) {
	parties := generateParties(t, 2)

	// The two parties list the participant keys in opposite orders; the
	// canonical ordering must make their views identical.
	ctxA := ceremonyContext(t, parties)
	ctxB := *ctxA
	ctxB.Keys = []Address{ctxA.Keys[1], ctxA.Keys[0]}

	firstMessages := make([]FirstMessage, 2)
	stepOneSecrets := make([]*StepOneSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepOne(kp)
		require.NoError(t, err)
		firstMessages[i] = *msg
		stepOneSecrets[i] = secret
	}

	secondMessages := make([]SecondMessage, 2)
	stepTwoSecrets := make([]*StepTwoSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepTwo(kp, stepOneSecrets[i], firstMessages)
		require.NoError(t, err)
		secondMessages[i] = *msg
		stepTwoSecrets[i] = secret
	}

	partialA, err := SignStepThree(parties[0], stepTwoSecrets[0], secondMessages, ctxA)
	require.NoError(t, err)
	partialB, err := SignStepThree(parties[1], stepTwoSecrets[1], secondMessages, &ctxB)
	require.NoError(t, err)

	_, err = FinalizeTransaction(ctxA, []*PartialSignature{partialA, partialB})
	require.NoError(t, err)
}

func TestContextDisagreementBreaksSignature(t *testing.T) {
	parties := generateParties(t, 2)
	txCtx := ceremonyContext(t, parties)

	firstMessages := make([]FirstMessage, 2)
	stepOneSecrets := make([]*StepOneSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepOne(kp)
		require.NoError(t, err)
		firstMessages[i] = *msg
		stepOneSecrets[i] = secret
	}

	secondMessages := make([]SecondMessage, 2)
	stepTwoSecrets := make([]*StepTwoSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepTwo(kp, stepOneSecrets[i], firstMessages)
		require.NoError(t, err)
		secondMessages[i] = *msg
		stepTwoSecrets[i] = secret
	}

	// Party 2 signs over a context that differs by a single field.
	divergent := *txCtx
	divergent.Lamports++

	partialA, err := SignStepThree(parties[0], stepTwoSecrets[0], secondMessages, txCtx)
	require.NoError(t, err)
	partialB, err := SignStepThree(parties[1], stepTwoSecrets[1], secondMessages, &divergent)
	require.NoError(t, err)

	// Both partials look well formed; the disagreement only surfaces when
	// the combined signature fails verification.
	_, err = FinalizeTransaction(txCtx, []*PartialSignature{partialA, partialB})
	require.ErrorIs(t, err, ErrMismatchedContext)

	fpA, err := txCtx.Fingerprint()
	require.NoError(t, err)
	fpB, err := divergent.Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, fpA, fpB, "fingerprints must expose the disagreement")
}

func TestTamperedRevealAborts(t *testing.T) {
	parties := generateParties(t, 2)
	txCtx := ceremonyContext(t, parties)

	firstMessages := make([]FirstMessage, 2)
	stepOneSecrets := make([]*StepOneSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepOne(kp)
		require.NoError(t, err)
		firstMessages[i] = *msg
		stepOneSecrets[i] = secret
	}

	secondMessages := make([]SecondMessage, 2)
	stepTwoSecrets := make([]*StepTwoSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepTwo(kp, stepOneSecrets[i], firstMessages)
		require.NoError(t, err)
		secondMessages[i] = *msg
		stepTwoSecrets[i] = secret
	}

	// Party 2's reveal is swapped for a different, individually valid
	// nonce/blind pair after the commitment was published.
	substitute, err := newEphemeralNonce()
	require.NoError(t, err)
	substituteBlind, err := newBlindFactor()
	require.NoError(t, err)
	secondMessages[1].R = substitute.public
	secondMessages[1].BlindFactor = substituteBlind

	_, err = SignStepThree(parties[0], stepTwoSecrets[0], secondMessages, txCtx)
	var mismatch *CommitmentMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, parties[1].Public(), mismatch.Party)
}

func TestStepThreeRejectsForeignSigner(t *testing.T) {
	parties := generateParties(t, 2)
	txCtx := ceremonyContext(t, parties)

	outsider, err := GenerateKeypair()
	require.NoError(t, err)

	_, secret, err := SignStepOne(outsider)
	require.NoError(t, err)
	_, stepTwo, err := SignStepTwo(outsider, secret, []FirstMessage{{Sender: outsider.Public()}})
	require.NoError(t, err)

	_, err = SignStepThree(outsider, stepTwo, nil, txCtx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not in the participant set")
}

func TestStepThreeRequiresAllReveals(t *testing.T) {
	parties := generateParties(t, 2)
	txCtx := ceremonyContext(t, parties)

	firstMessages := make([]FirstMessage, 2)
	stepOneSecrets := make([]*StepOneSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepOne(kp)
		require.NoError(t, err)
		firstMessages[i] = *msg
		stepOneSecrets[i] = secret
	}

	_, stepTwo, err := SignStepTwo(parties[0], stepOneSecrets[0], firstMessages)
	require.NoError(t, err)

	ownReveal := SecondMessage{
		R:           stepOneSecrets[0].secondR,
		BlindFactor: stepOneSecrets[0].blindFactor,
		Sender:      parties[0].Public(),
	}

	_, err = SignStepThree(parties[0], stepTwo, []SecondMessage{ownReveal}, txCtx)
	var missing *MissingMessageError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, parties[1].Public(), missing.Party)
	require.Equal(t, 2, missing.Round)
}

func TestStepThreeRejectsDuplicateReveal(t *testing.T) {
	parties := generateParties(t, 2)
	txCtx := ceremonyContext(t, parties)

	firstMessages := make([]FirstMessage, 2)
	stepOneSecrets := make([]*StepOneSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepOne(kp)
		require.NoError(t, err)
		firstMessages[i] = *msg
		stepOneSecrets[i] = secret
	}

	secondMessages := make([]SecondMessage, 2)
	stepTwoSecrets := make([]*StepTwoSecret, 2)
	for i, kp := range parties {
		msg, secret, err := SignStepTwo(kp, stepOneSecrets[i], firstMessages)
		require.NoError(t, err)
		secondMessages[i] = *msg
		stepTwoSecrets[i] = secret
	}

	doubled := append(secondMessages, secondMessages[0])
	_, err := SignStepThree(parties[0], stepTwoSecrets[0], doubled, txCtx)
	var dup *DuplicateMessageError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, 2, dup.Round)
}

func TestCombineRejectsDivergentNonces(t *testing.T) {
	nonceA, err := newEphemeralNonce()
	require.NoError(t, err)
	nonceB, err := newEphemeralNonce()
	require.NoError(t, err)
	sA, err := randomScalar()
	require.NoError(t, err)
	sB, err := randomScalar()
	require.NoError(t, err)

	partialA := &PartialSignature{R: nonceA.public}
	copy(partialA.S[:], sA.Bytes())
	partialB := &PartialSignature{R: nonceB.public}
	copy(partialB.S[:], sB.Bytes())

	_, err = CombinePartialSignatures([]*PartialSignature{partialA, partialB})
	require.Error(t, err)
	require.Contains(t, err.Error(), "aggregate nonce")
}

func TestFreshNoncesPerCeremony(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	msgA, secretA, err := SignStepOne(kp)
	require.NoError(t, err)
	msgB, secretB, err := SignStepOne(kp)
	require.NoError(t, err)

	require.NotEqual(t, msgA.Commitment, msgB.Commitment)
	require.False(t, secretA.Equal(secretB), "two ceremonies must never share an ephemeral nonce")
}
