package tss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
)

// Network selects which Solana cluster to talk to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Devnet  Network = "devnet"
)

// ParseNetwork accepts the network names the CLI exposes.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet", "Mainnet":
		return Mainnet, nil
	case "testnet", "Testnet":
		return Testnet, nil
	case "devnet", "Devnet":
		return Devnet, nil
	default:
		return "", fmt.Errorf("unknown network %q, expected mainnet, testnet or devnet", s)
	}
}

// ClusterURL returns the public RPC endpoint for the network.
func (n Network) ClusterURL() string {
	switch n {
	case Mainnet:
		return "https://api.mainnet-beta.solana.com"
	case Devnet:
		return "https://api.devnet.solana.com"
	default:
		return "https://api.testnet.solana.com"
	}
}

// RPCError is a JSON-RPC error object returned by the cluster.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client is a minimal JSON-RPC 2.0 client for the handful of cluster calls
// the wallet needs: balances, airdrops, recent blockhashes and transaction
// submission.
type Client struct {
	url  string
	http *http.Client
	log  *slog.Logger
}

// NewClient returns a client for one of the public clusters.
func NewClient(network Network) *Client {
	return NewClientURL(network.ClusterURL())
}

// NewClientURL returns a client for an arbitrary RPC endpoint.
func NewClientURL(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  slog.Default(),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("rpc call", "method", method, "url", c.url)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if decoded.Error != nil {
		return decoded.Error
	}
	if result != nil {
		if err := json.Unmarshal(decoded.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// Balance returns the lamport balance of an address.
func (c *Client) Balance(ctx context.Context, addr Address) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []any{addr.String()}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// RequestAirdrop asks a faucet-backed cluster for lamports and returns the
// airdrop transaction's signature.
func (c *Client) RequestAirdrop(ctx context.Context, to Address, lamports uint64) (string, error) {
	var signature string
	if err := c.call(ctx, "requestAirdrop", []any{to.String(), lamports}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// LatestBlockhash returns a recent blockhash for anchoring a transaction.
// Every ceremony party must be given the same hash.
func (c *Client) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", []any{}, &result); err != nil {
		return Blockhash{}, err
	}
	return ParseBlockhash(result.Value.Blockhash)
}

// SendTransaction submits a fully signed transaction and returns its
// signature string.
func (c *Client) SendTransaction(ctx context.Context, tx *Transaction) (string, error) {
	encoded := base58.Encode(tx.Serialize())
	var signature string
	params := []any{encoded, map[string]any{"encoding": "base58"}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}
