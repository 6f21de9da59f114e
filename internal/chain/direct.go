package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/verdantlab/ranger/internal/models"
	"github.com/verdantlab/ranger/internal/netx"
	"github.com/verdantlab/ranger/internal/treespec"
)

// DirectClient signs and submits transactions from the user's own balance
// via the node's JSON-RPC endpoint, then polls for the mined receipt.
type DirectClient struct {
	rpcURL       string
	contract     string
	signer       Signer
	client       *http.Client
	pollInterval time.Duration

	reqID atomic.Int64
}

// NewDirectClient returns a client for the given node RPC endpoint.
func NewDirectClient(rpcURL, contract string, signer Signer) *DirectClient {
	return &DirectClient{
		rpcURL:       rpcURL,
		contract:     contract,
		signer:       signer,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: 2 * time.Second,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type submission struct {
	From      string `json:"from"`
	Contract  string `json:"contract"`
	Call      Call   `json:"call"`
	Signature string `json:"signature"`
}

type receiptResult struct {
	TxHash   string `json:"tx_hash"`
	BlockRef string `json:"block_ref"`
	Status   string `json:"status"`
}

// Submit signs the call, broadcasts it, and waits until the node reports a
// mined receipt. The node applies its own inclusion timeout; this client
// only polls within the caller's context.
func (c *DirectClient) Submit(ctx context.Context, call Call) (*models.Receipt, error) {
	sub := submission{
		From:     c.signer.Address(),
		Contract: c.contract,
		Call:     call,
	}

	unsigned, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}
	sig, err := c.signer.SignDigest(Digest(unsigned))
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to sign submission: %w", err)
	}
	sub.Signature = hex.EncodeToString(sig)

	var txHash string
	if err := c.call(ctx, "registry_submit", []any{sub}, &txHash); err != nil {
		return nil, err
	}

	return c.waitReceipt(ctx, txHash)
}

func (c *DirectClient) waitReceipt(ctx context.Context, txHash string) (*models.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var rec *receiptResult
		if err := c.call(ctx, "registry_getReceipt", []any{txHash}, &rec); err != nil {
			return nil, err
		}
		if rec != nil {
			if rec.Status == "reverted" {
				return nil, &ChainError{Detail: "transaction reverted: " + txHash}
			}
			return &models.Receipt{TxHash: rec.TxHash, BlockRef: rec.BlockRef}, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, &ChainError{Detail: "receipt wait aborted", Err: ctx.Err()}
		}
	}
}

// Ping probes node reachability; used as the connectivity signal.
func (c *DirectClient) Ping(ctx context.Context) error {
	var v string
	return c.call(ctx, "registry_clientVersion", nil, &v)
}

// TreeSpec fetches the current metadata document of an existing tree from
// the node. Implements the upload pipeline's reference-data lookup.
func (c *DirectClient) TreeSpec(ctx context.Context, treeID string) (*treespec.Spec, error) {
	id, err := Hex2Dec(treeID)
	if err != nil {
		return nil, err
	}
	var spec *treespec.Spec
	if err := c.call(ctx, "registry_getTreeSpec", []any{id}, &spec); err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, fmt.Errorf("tree %s has no spec", treeID)
	}
	return spec, nil
}

func (c *DirectClient) call(ctx context.Context, method string, params []any, out any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	if err := netx.PostJSON(ctx, c.client, c.rpcURL, nil, req, &resp); err != nil {
		return &ChainError{Detail: "rpc transport failure", Err: err}
	}
	if resp.Error != nil {
		return mapRPCError(resp.Error)
	}
	if out == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return &ChainError{Detail: "malformed rpc result", Err: err}
	}
	return nil
}

func mapRPCError(e *rpcError) error {
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, e.Message)
	case e.Code == 4001 || strings.Contains(msg, "rejected"):
		return fmt.Errorf("%w: %s", ErrUserRejected, e.Message)
	default:
		return &ChainError{Detail: e.Message}
	}
}
