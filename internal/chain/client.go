package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// ERC-20 function selectors, first four bytes of keccak256 of the signature.
const (
	selectorDecimals    = "0x313ce567" // decimals()
	selectorTotalSupply = "0x18160ddd" // totalSupply()
)

// Endpoint is a JSON-RPC client for one chain RPC URL, bound to one token
// contract. Read calls are wrapped with a capped fixed-delay retry.
type Endpoint struct {
	url        string
	token      string
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewEndpoint(url, token string, attempts int, retryDelay, timeout time.Duration, logger *slog.Logger) *Endpoint {
	if attempts < 1 {
		attempts = 1
	}
	return &Endpoint{
		url:        url,
		token:      token,
		client:     &http.Client{Timeout: timeout},
		attempts:   attempts,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// URL returns the RPC endpoint address, used for logging and error reporting.
func (e *Endpoint) URL() string { return e.url }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// Decimals reads the token's decimals() value.
func (e *Endpoint) Decimals(ctx context.Context) (int, error) {
	e.logger.Info("getting decimals", "token", e.token, "rpc", e.url)
	result, err := e.withRetry(ctx, selectorDecimals)
	if err != nil {
		return 0, err
	}
	if !result.IsInt64() || result.Int64() < 0 || result.Int64() > 255 {
		return 0, fmt.Errorf("decimals out of range on %s: %s", e.url, result)
	}
	return int(result.Int64()), nil
}

// TotalSupply reads the token's totalSupply() in raw integer units.
func (e *Endpoint) TotalSupply(ctx context.Context) (*big.Int, error) {
	return e.withRetry(ctx, selectorTotalSupply)
}

func (e *Endpoint) withRetry(ctx context.Context, selector string) (*big.Int, error) {
	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		if attempt > 0 {
			e.logger.Info("repeat attempt", "rpc", e.url, "delay", e.retryDelay.String())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}
		result, err := e.ethCall(ctx, selector)
		if err == nil {
			return result, nil
		}
		lastErr = err
		e.logger.Error("not able to get data", "rpc", e.url, "error", err)
	}
	return nil, lastErr
}

func (e *Endpoint) ethCall(ctx context.Context, selector string) (*big.Int, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_call",
		Params:  []any{callParams{To: e.token, Data: selector}, "latest"},
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", e.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc %s: unexpected status %d", e.url, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode rpc response from %s: %w", e.url, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc %s: %s (code %d)", e.url, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	return parseHexWord(rpcResp.Result, e.url)
}

func parseHexWord(result, url string) (*big.Int, error) {
	hexStr := strings.TrimPrefix(result, "0x")
	if hexStr == "" {
		return nil, fmt.Errorf("rpc %s: empty call result", url)
	}
	value, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		return nil, fmt.Errorf("rpc %s: malformed call result %q", url, result)
	}
	return value, nil
}
