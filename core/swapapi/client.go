// Package swapapi is the request/response client for the remote quote and
// execute relay service.
package swapapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/types"
)

const (
	defaultQuoteTimeout   = 5 * time.Second
	defaultExecuteTimeout = 30 * time.Second
)

// Client speaks JSON over HTTP to the swap relay. It is stateless: every
// method is a single request/response exchange and failures are reported as
// typed errors, never cached.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	quoteTimeout   time.Duration
	executeTimeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithQuoteTimeout bounds quote calls.
func WithQuoteTimeout(d time.Duration) Option {
	return func(c *Client) { c.quoteTimeout = d }
}

// WithExecuteTimeout bounds execute calls.
func WithExecuteTimeout(d time.Duration) Option {
	return func(c *Client) { c.executeTimeout = d }
}

// NewClient creates a relay client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		quoteTimeout:   defaultQuoteTimeout,
		executeTimeout: defaultExecuteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QuoteInput identifies the swap to price. AmountIn is already converted to
// the input token's smallest unit.
type QuoteInput struct {
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	AmountIn string `json:"amountIn"`
}

type quoteResponse struct {
	Success   bool   `json:"success"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	// The service emits price_impact as a JSON number.
	PriceImpact     json.Number `json:"price_impact"`
	MinimumReceived string      `json:"minimum_received"`
	Error           string      `json:"error"`
}

// GetQuote fetches the expected output for a token pair and amount. Any
// failure, transport or service-reported, comes back as
// types.ErrQuoteUnavailable so callers know to clear a displayed quote.
func (c *Client) GetQuote(ctx context.Context, in QuoteInput) (*types.QuoteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.quoteTimeout)
	defer cancel()

	var resp quoteResponse
	if err := c.post(ctx, "/api/get-quote", in, &resp); err != nil {
		return nil, errors.Wrapf(types.ErrQuoteUnavailable, "%v", err)
	}
	if !resp.Success {
		return nil, errors.Wrap(types.ErrQuoteUnavailable, serviceReason(resp.Error))
	}
	return &types.QuoteResult{
		AmountOut:          resp.AmountOut,
		PriceImpactPercent: resp.PriceImpact.String(),
		MinimumReceived:    resp.MinimumReceived,
	}, nil
}

// ExecuteInput is the execute-service request payload.
type ExecuteInput struct {
	WalletAddress string `json:"walletAddress"`
	TokenIn       string `json:"tokenIn"`
	TokenOut      string `json:"tokenOut"`
	AmountIn      string `json:"amountIn"`
	Slippage      string `json:"slippage"`
}

// ExecuteResult is the execute-service response. XPEarned is a pointer
// because the XP policy is a backend concern and the field may be absent.
type ExecuteResult struct {
	Success         bool    `json:"success"`
	TransactionHash string  `json:"transaction_hash"`
	AmountOut       string  `json:"amount_out"`
	AmountOutMin    string  `json:"amount_out_min"`
	XPEarned        *uint64 `json:"xp_earned"`
	Message         string  `json:"message"`
	Error           string  `json:"error"`
}

// ExecuteSwap submits the swap for execution. The returned result is the
// single source of truth for success; an error (wrapping
// types.ErrRemoteService) means the swap must be treated as not executed.
func (c *Client) ExecuteSwap(ctx context.Context, in ExecuteInput) (*ExecuteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.executeTimeout)
	defer cancel()

	var resp ExecuteResult
	if err := c.post(ctx, "/api/execute-swap", in, &resp); err != nil {
		return nil, errors.Wrapf(types.ErrRemoteService, "%v", err)
	}
	if !resp.Success {
		return &resp, errors.Wrap(types.ErrRemoteService, serviceReason(resp.Error))
	}
	return &resp, nil
}

// WalletInfo is the relay's view of a validated wallet address.
type WalletInfo struct {
	Success bool   `json:"success"`
	Address string `json:"address"`
	Network string `json:"network"`
	ChainID uint64 `json:"chain_id"`
	Error   string `json:"error"`
}

// ValidateWallet asks the relay to validate an address format.
func (c *Client) ValidateWallet(ctx context.Context, address string) (*WalletInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.quoteTimeout)
	defer cancel()

	req := map[string]string{"address": address}
	var resp WalletInfo
	if err := c.post(ctx, "/api/validate-wallet", req, &resp); err != nil {
		return nil, errors.Wrapf(types.ErrRemoteService, "%v", err)
	}
	if !resp.Success {
		return &resp, errors.Wrap(types.ErrRemoteService, serviceReason(resp.Error))
	}
	return &resp, nil
}

// TokenInfo is the relay's token metadata response.
type TokenInfo struct {
	Success  bool   `json:"success"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Error    string `json:"error"`
}

// GetTokenInfo fetches metadata for a token address.
func (c *Client) GetTokenInfo(ctx context.Context, address string) (*TokenInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.quoteTimeout)
	defer cancel()

	req := map[string]string{"tokenAddress": address}
	var resp TokenInfo
	if err := c.post(ctx, "/api/token-info", req, &resp); err != nil {
		return nil, errors.Wrapf(types.ErrRemoteService, "%v", err)
	}
	if !resp.Success {
		return &resp, errors.Wrap(types.ErrRemoteService, serviceReason(resp.Error))
	}
	return &resp, nil
}

// HealthStatus is the relay health report.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Network string `json:"network"`
}

// Health checks relay liveness.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.quoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var status HealthStatus
	if err := c.do(req, &status); err != nil {
		return nil, errors.Wrapf(types.ErrRemoteService, "%v", err)
	}
	return &status, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encoding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Logger.Debug("relay request failed",
			zap.String("path", req.URL.Path), zap.Error(err))
		return errors.Wrap(err, "calling relay")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading relay response")
	}
	logging.Logger.Debug("relay request",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	// The relay reports application failures in the body with non-2xx
	// statuses; decode those too so the caller sees the service reason.
	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode >= 400 {
			return errors.Errorf("relay returned status %d", resp.StatusCode)
		}
		return errors.Wrap(err, "decoding relay response")
	}
	return nil
}

func serviceReason(reason string) string {
	if reason == "" {
		return "service reported failure without a reason"
	}
	return fmt.Sprintf("service error: %s", reason)
}
