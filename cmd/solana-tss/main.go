// Command solana-tss manages an n-of-n aggregated-signature Solana wallet.
//
// Each signing round of the ceremony is a separate invocation; the printed
// payloads are relayed between the parties by the operator.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	tss "github.com/revhacker/solana-tss"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "solana-tss",
		Short:         "Managing a Solana TSS wallet",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGenerateCommand(),
		newBalanceCommand(),
		newAirdropCommand(),
		newRecentBlockHashCommand(),
		newSendSingleCommand(),
		newAggregateKeysCommand(),
		newStepOneCommand(),
		newStepTwoCommand(),
		newStepThreeCommand(),
		newBroadcastCommand(),
	)
	return root
}

func newGenerateCommand() *cobra.Command {
	var seed string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a pair of keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				kp  *tss.Keypair
				err error
			)
			if seed != "" {
				kp, err = tss.DeriveKeypair([]byte(seed))
			} else {
				kp, err = tss.GenerateKeypair()
			}
			if err != nil {
				return err
			}
			fmt.Printf("secret key: %s\n", kp.Base58())
			fmt.Printf("public key: %s\n", kp.Public())
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "derive the keypair deterministically from this seed material")
	return cmd
}

func newBalanceCommand() *cobra.Command {
	var net string

	cmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Check the balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := tss.ParseAddress(args[0])
			if err != nil {
				return fmt.Errorf("failed to decode address: %w", err)
			}
			client, err := newClient(net)
			if err != nil {
				return err
			}
			lamports, err := client.Balance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Printf("The balance of %s is: %v SOL\n", addr, tss.LamportsToSol(lamports))
			return nil
		},
	}
	addNetFlag(cmd, &net)
	return cmd
}

func newAirdropCommand() *cobra.Command {
	var (
		net    string
		to     string
		amount float64
	)

	cmd := &cobra.Command{
		Use:   "airdrop",
		Short: "Request an airdrop from a faucet",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := tss.ParseAddress(to)
			if err != nil {
				return fmt.Errorf("failed to decode recipient: %w", err)
			}
			lamports, err := tss.SolToLamports(amount)
			if err != nil {
				return err
			}
			client, err := newClient(net)
			if err != nil {
				return err
			}
			signature, err := client.RequestAirdrop(cmd.Context(), addr, lamports)
			if err != nil {
				return err
			}
			fmt.Printf("Airdrop transaction ID: %s\n", signature)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "address of the recipient")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount of SOL to request")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	addNetFlag(cmd, &net)
	return cmd
}

func newRecentBlockHashCommand() *cobra.Command {
	var net string

	cmd := &cobra.Command{
		Use:   "recent-block-hash",
		Short: "Print a recent block hash, all parties must sign over the same hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(net)
			if err != nil {
				return err
			}
			hash, err := client.LatestBlockhash(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Recent block hash: %s\n", hash)
			return nil
		},
	}
	addNetFlag(cmd, &net)
	return cmd
}

func newSendSingleCommand() *cobra.Command {
	var (
		net     string
		keypair string
		to      string
		amount  float64
		memo    string
	)

	cmd := &cobra.Command{
		Use:   "send-single",
		Short: "Send a transaction using a single private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := tss.ParseKeypair(keypair)
			if err != nil {
				return fmt.Errorf("failed to decode keypair: %w", err)
			}
			recipient, err := tss.ParseAddress(to)
			if err != nil {
				return fmt.Errorf("failed to decode recipient: %w", err)
			}
			lamports, err := tss.SolToLamports(amount)
			if err != nil {
				return err
			}
			client, err := newClient(net)
			if err != nil {
				return err
			}
			hash, err := client.LatestBlockhash(cmd.Context())
			if err != nil {
				return err
			}
			tx, err := tss.SignSingleTransfer(kp, recipient, lamports, memo, hash)
			if err != nil {
				return err
			}
			signature, err := client.SendTransaction(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Printf("Transaction ID: %s\n", signature)
			return nil
		},
	}
	cmd.Flags().StringVar(&keypair, "keypair", "", "base58 secret key of the sender")
	cmd.Flags().StringVar(&to, "to", "", "address of the recipient")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount of SOL to send")
	cmd.Flags().StringVar(&memo, "memo", "", "optional memo to attach")
	_ = cmd.MarkFlagRequired("keypair")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	addNetFlag(cmd, &net)
	return cmd
}

func newAggregateKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate-keys <key>...",
		Short: "Aggregate a list of addresses into a single address they all sign on together",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}
			agg, err := tss.AggregateKeys(keys)
			if err != nil {
				return err
			}
			fmt.Printf("The aggregated public key: %s\n", agg)
			return nil
		},
	}
}

func newStepOneCommand() *cobra.Command {
	var keypair string

	cmd := &cobra.Command{
		Use:   "agg-send-step-one",
		Short: "Start aggregate signing",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := tss.ParseKeypair(keypair)
			if err != nil {
				return fmt.Errorf("failed to decode keypair: %w", err)
			}
			msg, secret, err := tss.SignStepOne(kp)
			if err != nil {
				return err
			}
			fmt.Printf("Message 1: %s\n", tss.EncodeBase58(msg))
			fmt.Printf("Secret state: keep this a secret, and pass it back to yourself in step 2: %s\n", tss.EncodeBase58(secret))
			return nil
		},
	}
	cmd.Flags().StringVar(&keypair, "keypair", "", "base58 secret key of the party signing")
	_ = cmd.MarkFlagRequired("keypair")
	return cmd
}

func newStepTwoCommand() *cobra.Command {
	var (
		keypair       string
		firstMessages []string
		secretState   string
	)

	cmd := &cobra.Command{
		Use:   "agg-send-step-two",
		Short: "Step 2 of aggregate signing, pass in the secret data from step 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := tss.ParseKeypair(keypair)
			if err != nil {
				return fmt.Errorf("failed to decode keypair: %w", err)
			}
			msgs, err := tss.ParseFirstMessages(firstMessages)
			if err != nil {
				return err
			}
			secret, err := tss.ParseStepOneSecret(secretState)
			if err != nil {
				return fmt.Errorf("failed to decode secret state: %w", err)
			}
			msg, nextSecret, err := tss.SignStepTwo(kp, secret, msgs)
			if err != nil {
				return err
			}
			fmt.Printf("Message 2: %s\n", tss.EncodeBase58(msg))
			fmt.Printf("Secret state: keep this a secret, and pass it back to yourself in step 3: %s\n", tss.EncodeBase58(nextSecret))
			return nil
		},
	}
	cmd.Flags().StringVar(&keypair, "keypair", "", "base58 secret key of the party signing")
	cmd.Flags().StringSliceVar(&firstMessages, "first-messages", nil, "all first messages received in step 1, including your own")
	cmd.Flags().StringVar(&secretState, "secret-state", "", "the secret state printed in step 1")
	_ = cmd.MarkFlagRequired("keypair")
	_ = cmd.MarkFlagRequired("first-messages")
	_ = cmd.MarkFlagRequired("secret-state")
	return cmd
}

func newStepThreeCommand() *cobra.Command {
	var (
		keypair        string
		secondMessages []string
		secretState    string
		txFlags        transactionFlags
	)

	cmd := &cobra.Command{
		Use:   "agg-send-step-three",
		Short: "Step 3 of aggregate signing, pass in the secret data from step 2",
		Long: "Step 3 of aggregate signing, pass in the secret data from step 2.\n" +
			"All parties must pass in exactly the same transaction details (amount, to, memo, recent block hash, keys).",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := tss.ParseKeypair(keypair)
			if err != nil {
				return fmt.Errorf("failed to decode keypair: %w", err)
			}
			msgs, err := tss.ParseSecondMessages(secondMessages)
			if err != nil {
				return err
			}
			secret, err := tss.ParseStepTwoSecret(secretState)
			if err != nil {
				return fmt.Errorf("failed to decode secret state: %w", err)
			}
			txCtx, err := txFlags.context()
			if err != nil {
				return err
			}
			partial, err := tss.SignStepThree(kp, secret, msgs, txCtx)
			if err != nil {
				return err
			}
			fingerprint, err := txCtx.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Printf("Transaction fingerprint: %s (compare with the other parties before combining)\n", fingerprint)
			fmt.Printf("Partial signature: %s\n", tss.EncodeBase58(partial))
			return nil
		},
	}
	cmd.Flags().StringVar(&keypair, "keypair", "", "base58 secret key of the party signing")
	cmd.Flags().StringSliceVar(&secondMessages, "second-messages", nil, "all second messages received in step 2, including your own")
	cmd.Flags().StringVar(&secretState, "secret-state", "", "the secret state printed in step 2")
	txFlags.register(cmd)
	_ = cmd.MarkFlagRequired("keypair")
	_ = cmd.MarkFlagRequired("second-messages")
	_ = cmd.MarkFlagRequired("secret-state")
	return cmd
}

func newBroadcastCommand() *cobra.Command {
	var (
		net        string
		signatures []string
		txFlags    transactionFlags
	)

	cmd := &cobra.Command{
		Use:   "aggregate-signatures-and-broadcast",
		Short: "Combine the partial signatures and broadcast the transaction",
		Long: "Combine the partial signatures from step 3 into the final signature and broadcast the transaction.\n" +
			"The transaction details must be exactly the ones the parties signed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			partials, err := tss.ParsePartialSignatures(signatures)
			if err != nil {
				return err
			}
			txCtx, err := txFlags.context()
			if err != nil {
				return err
			}
			tx, err := tss.FinalizeTransaction(txCtx, partials)
			if err != nil {
				return err
			}
			client, err := newClient(net)
			if err != nil {
				return err
			}
			signature, err := client.SendTransaction(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Printf("Transaction ID: %s\n", signature)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&signatures, "signatures", nil, "the partial signatures produced in step 3")
	txFlags.register(cmd)
	_ = cmd.MarkFlagRequired("signatures")
	addNetFlag(cmd, &net)
	return cmd
}

// transactionFlags are the transaction parameters shared by step 3 and the
// broadcast command. Every party must supply identical values.
type transactionFlags struct {
	amount          float64
	to              string
	memo            string
	recentBlockHash string
	keys            []string
}

func (f *transactionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.amount, "amount", 0, "amount of SOL to send")
	cmd.Flags().StringVar(&f.to, "to", "", "address of the recipient")
	cmd.Flags().StringVar(&f.memo, "memo", "", "optional memo attached to the transaction")
	cmd.Flags().StringVar(&f.recentBlockHash, "recent-block-hash", "", "hash from recent-block-hash, all parties must pass the same one")
	cmd.Flags().StringSliceVar(&f.keys, "keys", nil, "addresses of all participants")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("recent-block-hash")
	_ = cmd.MarkFlagRequired("keys")
}

func (f *transactionFlags) context() (*tss.TransactionContext, error) {
	to, err := tss.ParseAddress(f.to)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recipient: %w", err)
	}
	hash, err := tss.ParseBlockhash(f.recentBlockHash)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recent block hash: %w", err)
	}
	lamports, err := tss.SolToLamports(f.amount)
	if err != nil {
		return nil, err
	}
	keys, err := parseKeys(f.keys)
	if err != nil {
		return nil, err
	}
	return &tss.TransactionContext{
		Lamports:        lamports,
		To:              to,
		Memo:            f.memo,
		RecentBlockhash: hash,
		Keys:            keys,
	}, nil
}

func parseKeys(raw []string) ([]tss.Address, error) {
	keys := make([]tss.Address, 0, len(raw))
	for i, s := range raw {
		key, err := tss.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key %d: %w", i+1, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func newClient(net string) (*tss.Client, error) {
	network, err := tss.ParseNetwork(net)
	if err != nil {
		return nil, err
	}
	return tss.NewClient(network), nil
}

func addNetFlag(cmd *cobra.Command, net *string) {
	cmd.Flags().StringVar(net, "net", "testnet", "desired network: mainnet/testnet/devnet")
}
