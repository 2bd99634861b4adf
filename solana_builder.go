package tss

import (
	"encoding/binary"
	"fmt"
)

// Well-known program addresses.
var (
	// SystemProgramID is the native system program (all zeros).
	SystemProgramID = Address{}

	// MemoProgramID is the SPL memo program,
	// MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr.
	MemoProgramID = Address{
		5, 74, 83, 90, 153, 41, 33, 6, 77, 36, 232, 113, 96, 218, 56, 124,
		124, 53, 181, 221, 188, 146, 187, 129, 228, 31, 168, 64, 65, 5, 68, 141,
	}
)

// transferInstruction builds a system-program SOL transfer: instruction tag
// 2 (u32 LE) followed by the lamport amount (u64 LE).
func transferInstruction(from, to Address, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Address: from, IsSigner: true, IsWritable: true},
			{Address: to, IsWritable: true},
		},
		Data: data,
	}
}

// memoInstruction builds a memo-program instruction carrying a UTF-8 note.
// The memo program takes no accounts; the text rides in the instruction
// data and lands on chain next to the transfer.
func memoInstruction(memo string) Instruction {
	return Instruction{
		ProgramID: MemoProgramID,
		Data:      []byte(memo),
	}
}

// compileMessage flattens instructions into a Solana message. Accounts are
// laid out the way the runtime requires: fee payer first, then the remaining
// writable signers, read-only signers, writable non-signers and read-only
// non-signers, each class in first-appearance order. The layout is a pure
// function of the inputs, which is what lets independent ceremony parties
// build bit-identical messages.
func compileMessage(feePayer Address, blockhash Blockhash, instructions []Instruction) (*Message, error) {
	if feePayer.IsZero() {
		return nil, fmt.Errorf("fee payer must be set")
	}
	if blockhash.IsZero() {
		return nil, fmt.Errorf("recent blockhash must be set")
	}
	if len(instructions) == 0 {
		return nil, fmt.Errorf("at least one instruction is required")
	}

	type accountFlags struct {
		signer   bool
		writable bool
	}
	flags := map[Address]*accountFlags{
		feePayer: {signer: true, writable: true},
	}
	order := []Address{feePayer}

	observe := func(addr Address, signer, writable bool) {
		f, seen := flags[addr]
		if !seen {
			f = &accountFlags{}
			flags[addr] = f
			order = append(order, addr)
		}
		f.signer = f.signer || signer
		f.writable = f.writable || writable
	}

	for _, in := range instructions {
		for _, acc := range in.Accounts {
			observe(acc.Address, acc.IsSigner, acc.IsWritable)
		}
		observe(in.ProgramID, false, false)
	}

	classed := make([]Address, 0, len(order))
	for _, pick := range []func(accountFlags) bool{
		func(f accountFlags) bool { return f.signer && f.writable },
		func(f accountFlags) bool { return f.signer && !f.writable },
		func(f accountFlags) bool { return !f.signer && f.writable },
		func(f accountFlags) bool { return !f.signer && !f.writable },
	} {
		for _, addr := range order {
			if pick(*flags[addr]) {
				classed = append(classed, addr)
			}
		}
	}
	if len(classed) > 255 {
		return nil, fmt.Errorf("transaction references %d accounts, limit is 255", len(classed))
	}

	indices := make(map[Address]uint8, len(classed))
	var header MessageHeader
	for i, addr := range classed {
		indices[addr] = uint8(i)
		f := flags[addr]
		if f.signer {
			header.NumRequiredSignatures++
			if !f.writable {
				header.NumReadonlySignedAccounts++
			}
		} else if !f.writable {
			header.NumReadonlyUnsignedAccounts++
		}
	}

	compiled := make([]CompiledInstruction, 0, len(instructions))
	for _, in := range instructions {
		ci := CompiledInstruction{
			ProgramIDIndex: indices[in.ProgramID],
			Data:           in.Data,
		}
		for _, acc := range in.Accounts {
			ci.AccountIndices = append(ci.AccountIndices, indices[acc.Address])
		}
		compiled = append(compiled, ci)
	}

	return &Message{
		Header:          header,
		AccountKeys:     classed,
		RecentBlockhash: blockhash,
		Instructions:    compiled,
	}, nil
}

// buildTransferMessage assembles the unsigned transfer (plus optional memo)
// message every party signs.
func buildTransferMessage(from, to Address, lamports uint64, memo string, blockhash Blockhash) (*Message, error) {
	instructions := []Instruction{transferInstruction(from, to, lamports)}
	if memo != "" {
		instructions = append(instructions, memoInstruction(memo))
	}
	return compileMessage(from, blockhash, instructions)
}

// SignSingleTransfer builds and signs a plain single-key transfer. No
// ceremony involved; this is the reference path for a wallet one keypair
// controls outright.
func SignSingleTransfer(kp *Keypair, to Address, lamports uint64, memo string, blockhash Blockhash) (*Transaction, error) {
	msg, err := buildTransferMessage(kp.Public(), to, lamports, memo, blockhash)
	if err != nil {
		return nil, err
	}

	tx := NewTransaction(msg)
	raw := kp.Sign(msg.Serialize())
	copy(tx.Signatures[0].R[:], raw[:32])
	copy(tx.Signatures[0].S[:], raw[32:])
	return tx, nil
}
