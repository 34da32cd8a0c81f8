// Package chain wraps the ledger node RPC surface the tipping engine
// depends on: balance queries, fee quotes via dry-run payment info, and
// signed transfer submission.
package chain

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"taotip-go/internal/models"

	"go.uber.org/zap"
)

// ErrUnavailable wraps connectivity and timeout failures talking to the
// node. Periodic callers retry on their next cycle; interactive callers
// surface it as a transient failure.
var ErrUnavailable = errors.New("ledger node unavailable")

// SignedTransfer is a fully signed transfer extrinsic ready for submission.
type SignedTransfer struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	PublicKey []byte `json:"public_key"`
	Signature []byte `json:"signature"`
}

// TransferResult reports the outcome of a submitted transfer after waiting
// for inclusion.
type TransferResult struct {
	Success          bool   `json:"success"`
	Hash             string `json:"hash"`
	ConfirmedBalance int64  `json:"confirmed_balance"` // sender balance after inclusion, rao
}

// Client is the ledger node contract consumed by the engine and scanner.
// Implementations must honor context deadlines; a timed-out call means
// failed-unconfirmed, never success.
type Client interface {
	GetBalance(ctx context.Context, address string) (int64, error)
	GetPaymentInfo(ctx context.Context, from, to string, amount int64) (int64, error)
	SubmitTransfer(ctx context.Context, transfer SignedTransfer) (*TransferResult, error)
	IsValidAddress(address string) bool
}

// TransferPayload builds the canonical byte payload signed for a transfer.
func TransferPayload(from, to string, amount int64) []byte {
	buf := bytes.NewBufferString(from)
	buf.WriteByte(0)
	buf.WriteString(to)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.LittleEndian, amount)
	return buf.Bytes()
}

// Compile-time check: *RPCClient must satisfy Client.
var _ Client = (*RPCClient)(nil)

// RPCClient is a lightweight JSON-RPC 2.0 client for the ledger node.
type RPCClient struct {
	endpoint   string
	ss58Prefix uint16
	http       *http.Client
	nextID     atomic.Int64
}

func NewRPCClient(cfg models.ChainConfig) *RPCClient {
	return &RPCClient{
		endpoint:   cfg.Endpoint,
		ss58Prefix: cfg.SS58Prefix,
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// GetBalance returns the on-chain balance of an address in rao.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (int64, error) {
	if !c.IsValidAddress(address) {
		return 0, fmt.Errorf("invalid address: %s", address)
	}

	var result struct {
		Balance int64 `json:"balance"`
	}
	if err := c.call(ctx, "system_accountBalance", []any{address}, &result); err != nil {
		return 0, err
	}
	return result.Balance, nil
}

// GetPaymentInfo dry-runs the transfer against the node and returns the
// quoted partial fee in rao. The fee depends on call encoding size and
// network state, so it is never a static constant.
func (c *RPCClient) GetPaymentInfo(ctx context.Context, from, to string, amount int64) (int64, error) {
	params := map[string]any{
		"from":   from,
		"to":     to,
		"amount": amount,
	}
	var result struct {
		PartialFee int64 `json:"partial_fee"`
	}
	if err := c.call(ctx, "payment_queryInfo", []any{params}, &result); err != nil {
		return 0, err
	}
	return result.PartialFee, nil
}

// SubmitTransfer submits a signed transfer and waits for inclusion.
func (c *RPCClient) SubmitTransfer(ctx context.Context, transfer SignedTransfer) (*TransferResult, error) {
	zap.L().Info("Submitting transfer",
		zap.String("from", transfer.From),
		zap.String("to", transfer.To),
		zap.Int64("amount", transfer.Amount))

	var result TransferResult
	if err := c.call(ctx, "author_submitTransfer", []any{transfer}, &result); err != nil {
		return nil, err
	}

	zap.L().Info("Transfer submitted",
		zap.Bool("success", result.Success),
		zap.String("hash", result.Hash))
	return &result, nil
}

// IsValidAddress reports whether the address is a well-formed SS58 address
// for the configured network.
func (c *RPCClient) IsValidAddress(address string) bool {
	return IsValidSS58(address, c.ss58Prefix)
}

func (c *RPCClient) call(ctx context.Context, method string, params any, out any) error {
	id := c.nextID.Add(1)
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status=%d", ErrUnavailable, method, resp.StatusCode)
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("node rpc error: %s (%d)", rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if out == nil {
		return nil
	}
	if len(rpcResp.Result) == 0 {
		return fmt.Errorf("node rpc returned empty result for %s", method)
	}

	zap.L().Debug("RPC call completed",
		zap.String("method", method),
		zap.Duration("elapsed", time.Since(start)))
	return json.Unmarshal(rpcResp.Result, out)
}
