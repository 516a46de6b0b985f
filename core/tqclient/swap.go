package tqclient

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/swapapi"
	"github.com/tokenquest/sdk-go/core/types"
	"github.com/tokenquest/sdk-go/core/util"
)

const defaultSuccessMessage = "Swap executed successfully!"

// SubmitSwap validates the request, executes it through the remote service
// and, only on a successful result, credits XP and records a quest-log
// entry. The remote result is the single commit signal: a failed or errored
// execution mutates neither the ledger nor the log.
//
// Only one swap may be in flight at a time. A second call while one is
// pending is rejected synchronously with types.ErrBusy rather than queued,
// so a double-click can never award XP twice.
//
// Wallet state is re-read at each step instead of trusted from earlier in
// the call: an accountsChanged disconnect arriving mid-swap makes the swap
// fail with a wallet-not-connected reason instead of completing.
func (c *Client) SubmitSwap(ctx context.Context, req types.SwapRequest) (*types.SwapOutcome, error) {
	if !c.swapInFlight.CompareAndSwap(false, true) {
		return failedOutcome("another swap is already in progress"),
			errors.WithStack(types.ErrBusy)
	}
	defer c.swapInFlight.Store(false)

	// Validation gate: every check runs before any external call and each
	// failure carries its own user-facing reason.
	if !c.Session.Snapshot().Connected {
		return failedOutcome("wallet not connected"),
			errors.WithStack(types.ErrWalletNotConnected)
	}
	if err := req.Validate(); err != nil {
		return failedOutcome(err.Error()), errors.Wrapf(types.ErrUserInput, "%v", err)
	}
	fromTok, ok := c.registry.Resolve(req.FromToken)
	if !ok {
		return failedOutcome("unknown from token"),
			errors.Wrapf(types.ErrUserInput, "unknown from token %q", req.FromToken)
	}
	toTok, ok := c.registry.Resolve(req.ToToken)
	if !ok {
		return failedOutcome("unknown to token"),
			errors.Wrapf(types.ErrUserInput, "unknown to token %q", req.ToToken)
	}
	// Validate compares the raw refs; symbol-vs-address aliases of the same
	// token are only caught here, after resolution.
	if fromTok.Address.Equal(toTok.Address) {
		return failedOutcome("cannot swap a token for itself"),
			errors.Wrap(types.ErrUserInput, "from and to token are the same")
	}
	amountIn, err := util.ToSmallestUnit(req.Amount, fromTok.Decimals)
	if err != nil {
		return failedOutcome(err.Error()), errors.Wrapf(types.ErrUserInput, "%v", err)
	}

	// Re-read the session right before use; an event may have replaced the
	// account since the gate above.
	snap := c.Session.Snapshot()
	if !snap.Connected {
		return failedOutcome("wallet not connected"),
			errors.WithStack(types.ErrWalletNotConnected)
	}

	result, err := c.api.ExecuteSwap(ctx, swapapi.ExecuteInput{
		WalletAddress: snap.Account.Hex(),
		TokenIn:       fromTok.Address.Hex(),
		TokenOut:      toTok.Address.Hex(),
		AmountIn:      amountIn,
		Slippage:      req.Slippage(),
	})
	if err != nil {
		reason := "swap execution failed"
		if result != nil && result.Error != "" {
			reason = result.Error
		}
		logging.Logger.Info("swap execution failed",
			zap.String("from", fromTok.Symbol), zap.String("to", toTok.Symbol),
			zap.Error(err))
		return failedOutcome(reason), err
	}

	// The wallet may have disconnected while the execution was in flight;
	// in that case the swap is reported as failed and nothing is credited.
	if !c.Session.Snapshot().Connected {
		return failedOutcome("wallet not connected"),
			errors.WithStack(types.ErrWalletNotConnected)
	}

	xp := uint64(DefaultXPAward)
	if result.XPEarned != nil {
		xp = *result.XPEarned
	}
	state := c.ledger.AddXP(ctx, xp)

	c.questLog.Append(ctx, types.QuestLogEntry{
		FromSymbol:      fromTok.Symbol,
		ToSymbol:        toTok.Symbol,
		AmountDisplay:   req.Amount,
		XPEarned:        xp,
		Timestamp:       c.now().UTC().Format(time.RFC3339),
		TransactionHash: result.TransactionHash,
	})

	message := result.Message
	if message == "" {
		message = defaultSuccessMessage
	}
	logging.Logger.Info("swap executed",
		zap.String("from", fromTok.Symbol), zap.String("to", toTok.Symbol),
		zap.String("tx", result.TransactionHash),
		zap.Uint64("xp", xp), zap.Uint64("level", state.Level))

	return &types.SwapOutcome{
		Success:         true,
		TransactionHash: result.TransactionHash,
		XPEarned:        xp,
		Message:         message,
	}, nil
}

func failedOutcome(reason string) *types.SwapOutcome {
	return &types.SwapOutcome{
		Success:     false,
		Message:     reason,
		ErrorReason: reason,
	}
}
