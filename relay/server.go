package relay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/registry"
	"github.com/tokenquest/sdk-go/core/types"
	"github.com/tokenquest/sdk-go/core/util"
	"github.com/tokenquest/sdk-go/core/wallet"
)

const (
	serviceName    = "Token Quest Relay"
	serviceVersion = "1.0.0"
	networkName    = "BSC Testnet"
	simulatedGas   = "150000"
)

// Server is the relay HTTP server.
type Server struct {
	registry *registry.Registry
	quoter   Quoter
	network  types.ChainDescriptor
	now      func() time.Time

	httpServer *http.Server
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithQuoter replaces the default simulated quoter.
func WithQuoter(q Quoter) ServerOption {
	return func(s *Server) { s.quoter = q }
}

// WithServerClock overrides the wall clock, for deterministic tests.
func WithServerClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// NewServer builds the relay with all routes and middleware configured.
func NewServer(cfg *Config, reg *registry.Registry, opts ...ServerOption) *Server {
	s := &Server{
		registry: reg,
		quoter:   NewStaticRateQuoter(),
		network:  wallet.RequiredNetwork,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      s.buildHandler(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wired HTTP handler, exposed for tests.
func (s *Server) Handler(cfg *Config) http.Handler {
	return s.buildHandler(cfg)
}

func (s *Server) buildHandler(cfg *Config) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/validate-wallet", s.handleValidateWallet).Methods(http.MethodPost)
	router.HandleFunc("/api/get-quote", s.handleGetQuote).Methods(http.MethodPost)
	router.HandleFunc("/api/execute-swap", s.handleExecuteSwap).Methods(http.MethodPost)
	router.HandleFunc("/api/token-info", s.handleTokenInfo).Methods(http.MethodPost)
	router.HandleFunc("/api/tokens", s.handleTokens).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found")
	})

	cors := &corsMiddleware{allowedOrigin: cfg.CORSOrigin}
	limiter := newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var handler http.Handler = router
	handler = limiter.Handler(handler)
	handler = cors.Handler(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// Start runs the server until Shutdown is called.
func (s *Server) Start() error {
	logging.Logger.Info("relay listening",
		zap.String("addr", s.httpServer.Addr), zap.String("network", networkName))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
		"network": networkName,
	})
}

func (s *Server) handleValidateWallet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Address string `json:"address"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Address == "" {
		writeError(w, http.StatusBadRequest, "wallet address is required")
		return
	}
	addr, err := util.NewAddress(payload.Address)
	if err != nil {
		writeError(w, http.StatusOK, "invalid wallet address format")
		return
	}
	chainID, _ := util.ParseChainID(s.network.ChainID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"address":  addr.Checksum(),
		"network":  networkName,
		"chain_id": chainID,
	})
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TokenIn  string `json:"tokenIn"`
		TokenOut string `json:"tokenOut"`
		AmountIn string `json:"amountIn"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.TokenIn == "" || payload.TokenOut == "" || payload.AmountIn == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters: tokenIn, tokenOut, amountIn")
		return
	}

	tokenIn, ok := s.registry.ByAddress(payload.TokenIn)
	if !ok {
		writeError(w, http.StatusOK, fmt.Sprintf("unknown token %s", payload.TokenIn))
		return
	}
	tokenOut, ok := s.registry.ByAddress(payload.TokenOut)
	if !ok {
		writeError(w, http.StatusOK, fmt.Sprintf("unknown token %s", payload.TokenOut))
		return
	}

	amountOut, priceImpact, err := s.quoter.Quote(r.Context(), tokenIn, tokenOut, payload.AmountIn)
	if err != nil {
		logging.Logger.Warn("quote failed",
			zap.String("token_in", tokenIn.Symbol), zap.String("token_out", tokenOut.Symbol),
			zap.Error(err))
		writeError(w, http.StatusOK, fmt.Sprintf("quote calculation failed: %v", err))
		return
	}
	minimumReceived, err := util.ApplySlippage(amountOut, types.DefaultSlippagePercent)
	if err != nil {
		writeError(w, http.StatusOK, fmt.Sprintf("quote calculation failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"amount_in":        payload.AmountIn,
		"amount_out":       amountOut,
		"price_impact":     json.Number(priceImpact),
		"minimum_received": minimumReceived,
	})
}

func (s *Server) handleExecuteSwap(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WalletAddress string `json:"walletAddress"`
		TokenIn       string `json:"tokenIn"`
		TokenOut      string `json:"tokenOut"`
		AmountIn      string `json:"amountIn"`
		Slippage      string `json:"slippage"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.WalletAddress == "" || payload.TokenIn == "" || payload.TokenOut == "" || payload.AmountIn == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters")
		return
	}
	if payload.Slippage == "" {
		payload.Slippage = types.DefaultSlippagePercent
	}

	walletAddr, err := util.NewAddress(payload.WalletAddress)
	if err != nil {
		writeError(w, http.StatusOK, "invalid wallet address format")
		return
	}
	tokenIn, ok := s.registry.ByAddress(payload.TokenIn)
	if !ok {
		writeError(w, http.StatusOK, fmt.Sprintf("unknown token %s", payload.TokenIn))
		return
	}
	tokenOut, ok := s.registry.ByAddress(payload.TokenOut)
	if !ok {
		writeError(w, http.StatusOK, fmt.Sprintf("unknown token %s", payload.TokenOut))
		return
	}

	amountOut, _, err := s.quoter.Quote(r.Context(), tokenIn, tokenOut, payload.AmountIn)
	if err != nil {
		writeError(w, http.StatusOK, fmt.Sprintf("swap execution failed: %v", err))
		return
	}
	amountOutMin, err := util.ApplySlippage(amountOut, payload.Slippage)
	if err != nil {
		writeError(w, http.StatusOK, fmt.Sprintf("swap execution failed: %v", err))
		return
	}

	xp := XPForSwap(payload.AmountIn, tokenIn.Decimals)
	txHash := s.transactionHash(walletAddr, tokenIn, tokenOut, payload.AmountIn)

	logging.Logger.Info("swap executed",
		zap.String("wallet", walletAddr.Hex()),
		zap.String("token_in", tokenIn.Symbol), zap.String("token_out", tokenOut.Symbol),
		zap.String("tx", txHash), zap.Uint64("xp", xp))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"transaction_hash": txHash,
		"amount_in":        payload.AmountIn,
		"amount_out":       amountOut,
		"amount_out_min":   amountOutMin,
		"gas_used":         simulatedGas,
		"network":          networkName,
		"xp_earned":        xp,
		"message":          fmt.Sprintf("Congratulations! You found a treasure worth %d XP!", xp),
	})
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TokenAddress string `json:"tokenAddress"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.TokenAddress == "" {
		writeError(w, http.StatusBadRequest, "token address is required")
		return
	}
	token, ok := s.registry.ByAddress(payload.TokenAddress)
	if !ok {
		writeError(w, http.StatusOK, fmt.Sprintf("failed to get token info: unknown token %s", payload.TokenAddress))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"address":  token.Address.Checksum(),
		"symbol":   token.Symbol,
		"name":     token.Name,
		"decimals": token.Decimals,
	})
}

func (s *Server) handleTokens(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tokens":  s.registry.Tokens(),
	})
}

// transactionHash simulates the on-chain execution of the testnet demo: a
// deterministic hash over the swap parameters and the current time.
func (s *Server) transactionHash(walletAddr util.Address, tokenIn, tokenOut types.TokenRef, amountIn string) string {
	material := fmt.Sprintf("%s%s%s%s%d",
		walletAddr.Hex(), tokenIn.Address.Hex(), tokenOut.Address.Hex(),
		amountIn, s.now().UnixNano())
	sum := sha256.Sum256([]byte(material))
	return "0x" + hex.EncodeToString(sum[:])
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON payload")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Logger.Error("encoding response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   reason,
	})
}
