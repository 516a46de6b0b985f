// Package progression owns the XP/level ledger and its persistence.
package progression

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/kvstore"
	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/types"
)

// XPPerLevel is the XP span of one level.
const XPPerLevel = 100

// Persisted keys. Level is stored for external readers but always recomputed
// from the XP total on load; the XP total is the only source of truth.
const (
	keyXPTotal = "tokenquest.xp_total"
	keyLevel   = "tokenquest.level"
	keyStreak  = "tokenquest.streak"
)

// LevelForXP derives the level from an XP total.
func LevelForXP(xpTotal uint64) uint64 {
	return xpTotal/XPPerLevel + 1
}

// LevelUpHandler is notified when an XP award raises the level. A single
// award crossing several thresholds fires once with the final level.
type LevelUpHandler func(oldLevel, newLevel uint64)

// Ledger is the single writer of progression state. All mutations persist
// synchronously before returning; a failing store degrades the ledger to
// in-memory operation for the rest of the session instead of failing awards.
type Ledger struct {
	store     kvstore.Store
	onLevelUp LevelUpHandler
	now       func() time.Time

	mu       sync.Mutex
	xpTotal  uint64
	level    uint64
	streak   streak
	degraded bool
}

// LedgerOption customizes a Ledger.
type LedgerOption func(*Ledger)

// WithLevelUpHandler registers the level-up notification handler.
func WithLevelUpHandler(fn LevelUpHandler) LedgerOption {
	return func(l *Ledger) { l.onLevelUp = fn }
}

// WithClock overrides the wall clock, for streak tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger over the given store with default state
// {0 XP, level 1}. Call Load to pick up persisted state.
func NewLedger(store kvstore.Store, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
		level: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads persisted progression state. Absent or malformed data resets to
// the defaults without error; only genuine store failures are reported, and
// even then the ledger stays usable in memory.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.xpTotal = 0
	l.level = 1
	l.streak = streak{}

	raw, err := l.store.Get(ctx, keyXPTotal)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		// First run.
	case err != nil:
		l.degraded = true
		logging.Logger.Warn("progression store unreadable, starting fresh", zap.Error(err))
		return errors.Wrapf(types.ErrPersistence, "loading xp total: %v", err)
	default:
		xp, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			logging.Logger.Warn("malformed persisted xp total, resetting",
				zap.String("value", raw), zap.Error(parseErr))
		} else {
			l.xpTotal = xp
			l.level = LevelForXP(xp)
		}
	}

	l.streak = loadStreak(ctx, l.store)
	return nil
}

// AddXP awards XP, recomputes the level, advances the daily streak and
// persists the new state before returning. The level invariant
// level == xpTotal/100 + 1 holds on return.
func (l *Ledger) AddXP(ctx context.Context, amount uint64) types.ProgressionState {
	l.mu.Lock()
	oldLevel := l.level
	l.xpTotal += amount
	l.level = LevelForXP(l.xpTotal)
	l.streak.advance(l.now())
	state := types.ProgressionState{XPTotal: l.xpTotal, Level: l.level}
	leveledUp := l.level > oldLevel
	newLevel := l.level
	l.persistLocked(ctx)
	l.mu.Unlock()

	if leveledUp && l.onLevelUp != nil {
		l.onLevelUp(oldLevel, newLevel)
	}
	return state
}

// State returns the current progression state.
func (l *Ledger) State() types.ProgressionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return types.ProgressionState{XPTotal: l.xpTotal, Level: l.level}
}

// Streak returns the current daily swap streak.
func (l *Ledger) Streak() types.StreakState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streak.state()
}

// Degraded reports whether a persistence failure switched the ledger to
// in-memory-only operation for this session.
func (l *Ledger) Degraded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.degraded
}

func (l *Ledger) persistLocked(ctx context.Context) {
	if err := l.store.Set(ctx, keyXPTotal, strconv.FormatUint(l.xpTotal, 10)); err != nil {
		l.degraded = true
		logging.Logger.Warn("persisting xp total failed, continuing in memory", zap.Error(err))
		return
	}
	if err := l.store.Set(ctx, keyLevel, strconv.FormatUint(l.level, 10)); err != nil {
		l.degraded = true
		logging.Logger.Warn("persisting level failed, continuing in memory", zap.Error(err))
		return
	}
	if err := persistStreak(ctx, l.store, l.streak); err != nil {
		l.degraded = true
		logging.Logger.Warn("persisting streak failed, continuing in memory", zap.Error(err))
	}
}
