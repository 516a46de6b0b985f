package types

import (
	"fmt"
	"strings"

	"github.com/tokenquest/sdk-go/core/util"
)

// DefaultSlippagePercent is applied when a swap request leaves the slippage
// tolerance empty.
const DefaultSlippagePercent = "0.5"

// SwapRequest is the user-facing form state for one swap. Token fields carry
// addresses; Amount is the display amount ("1.5"), not smallest units.
type SwapRequest struct {
	FromToken       string `json:"from_token"`
	ToToken         string `json:"to_token"`
	Amount          string `json:"amount"`
	SlippagePercent string `json:"slippage_percent,omitempty"`
}

// Validate checks the structural invariants of the request. Each failure has
// a distinct message because the reasons are shown to the user verbatim.
func (r *SwapRequest) Validate() error {
	if r.FromToken == "" {
		return fmt.Errorf("from token is required")
	}
	if r.ToToken == "" {
		return fmt.Errorf("to token is required")
	}
	if strings.EqualFold(r.FromToken, r.ToToken) {
		return fmt.Errorf("cannot swap a token for itself")
	}
	if r.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if _, err := util.ParsePositive(r.Amount); err != nil {
		return fmt.Errorf("amount must be a positive number")
	}
	return nil
}

// Slippage returns the requested slippage tolerance, falling back to the
// default when unset.
func (r *SwapRequest) Slippage() string {
	if r.SlippagePercent == "" {
		return DefaultSlippagePercent
	}
	return r.SlippagePercent
}

// QuoteResult is the expected outcome of a swap at current prices. Amounts
// are smallest-unit integer strings. Quotes are ephemeral: recomputed on
// every qualifying input change and never persisted.
type QuoteResult struct {
	AmountOut          string `json:"amount_out"`
	PriceImpactPercent string `json:"price_impact"`
	MinimumReceived    string `json:"minimum_received,omitempty"`
}

// SwapOutcome is the terminal result of a submitted swap.
type SwapOutcome struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	XPEarned        uint64 `json:"xp_earned"`
	Message         string `json:"message"`
	ErrorReason     string `json:"error_reason,omitempty"`
}

// QuestLogEntry is one completed swap as shown in the quest log.
type QuestLogEntry struct {
	FromSymbol      string `json:"from_symbol"`
	ToSymbol        string `json:"to_symbol"`
	AmountDisplay   string `json:"amount_display"`
	XPEarned        uint64 `json:"xp_earned"`
	Timestamp       string `json:"timestamp"` // ISO 8601 / RFC 3339, UTC
	TransactionHash string `json:"transaction_hash"`
}

// ProgressionState is the persisted XP ledger state. Level is always derived
// as xpTotal/100 + 1 and never assigned independently.
type ProgressionState struct {
	XPTotal uint64 `json:"xp_total"`
	Level   uint64 `json:"level"`
}

// StreakState tracks consecutive days with at least one completed swap.
type StreakState struct {
	CurrentDays int    `json:"current_days"`
	BestDays    int    `json:"best_days"`
	LastDay     string `json:"last_day,omitempty"` // civil date, YYYY-MM-DD
}
