// Package tqclient wires the wallet session, token registry, relay client,
// progression ledger and quest log into the single client the front end
// drives.
package tqclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/kvstore"
	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/progression"
	"github.com/tokenquest/sdk-go/core/questlog"
	"github.com/tokenquest/sdk-go/core/registry"
	"github.com/tokenquest/sdk-go/core/swapapi"
	"github.com/tokenquest/sdk-go/core/types"
	"github.com/tokenquest/sdk-go/core/wallet"
)

// DefaultXPAward is credited when the execute service omits xp_earned. The
// XP policy is a backend concern; the client only tolerates its absence.
const DefaultXPAward = 10

// Client is the swap front end's single entry point. All business state
// lives in the owned components; the client adds the orchestration and the
// single-swap-in-flight guard.
type Client struct {
	Session *wallet.Session `validate:"required"`

	registry *registry.Registry
	api      *swapapi.Client
	ledger   *progression.Ledger
	questLog *questlog.Log

	swapInFlight atomic.Bool
	quoteSeq     atomic.Uint64

	quoteMu      sync.Mutex
	currentQuote *types.QuoteResult

	now func() time.Time
}

type clientConfig struct {
	bridge      wallet.Bridge
	store       kvstore.Store
	registry    *registry.Registry
	apiOpts     []swapapi.Option
	sessionOpts []wallet.SessionOption
	ledgerOpts  []progression.LedgerOption
	now         func() time.Time
}

// Option configures NewClient.
type Option func(*clientConfig)

// WithBridge installs the wallet capability. Without one, wallet operations
// fail with types.ErrWalletUnavailable.
func WithBridge(b wallet.Bridge) Option {
	return func(c *clientConfig) { c.bridge = b }
}

// WithStore replaces the default in-memory persistence capability.
func WithStore(s kvstore.Store) Option {
	return func(c *clientConfig) { c.store = s }
}

// WithRegistry replaces the default token registry.
func WithRegistry(r *registry.Registry) Option {
	return func(c *clientConfig) { c.registry = r }
}

// WithLogger routes SDK logging to the given zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { logging.SetLogger(logger) }
}

// WithAPIOptions forwards options to the relay client (timeouts, transport).
func WithAPIOptions(opts ...swapapi.Option) Option {
	return func(c *clientConfig) { c.apiOpts = append(c.apiOpts, opts...) }
}

// WithSessionOptions forwards options to the wallet session (required
// network, change handler).
func WithSessionOptions(opts ...wallet.SessionOption) Option {
	return func(c *clientConfig) { c.sessionOpts = append(c.sessionOpts, opts...) }
}

// WithLevelUpHandler registers the level-up notification handler.
func WithLevelUpHandler(fn progression.LevelUpHandler) Option {
	return func(c *clientConfig) {
		c.ledgerOpts = append(c.ledgerOpts, progression.WithLevelUpHandler(fn))
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
		c.ledgerOpts = append(c.ledgerOpts, progression.WithClock(now))
	}
}

// NewClient builds a client against the relay at relayURL and loads any
// persisted progression and quest-log state. Malformed persisted state
// resets to defaults; a failing store is logged and the client starts with
// defaults in memory.
func NewClient(ctx context.Context, relayURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		store:    kvstore.NewMemoryStore(),
		registry: registry.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Client{
		Session:  wallet.NewSession(cfg.bridge, cfg.sessionOpts...),
		registry: cfg.registry,
		api:      swapapi.NewClient(relayURL, cfg.apiOpts...),
		ledger:   progression.NewLedger(cfg.store, cfg.ledgerOpts...),
		questLog: questlog.New(cfg.store),
		now:      cfg.now,
	}
	if err := c.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := c.ledger.Load(ctx); err != nil {
		logging.Logger.Warn("progression state unavailable, starting fresh", zap.Error(err))
	}
	if err := c.questLog.Load(ctx); err != nil {
		logging.Logger.Warn("quest log unavailable, starting fresh", zap.Error(err))
	}
	return c, nil
}

// Validate checks the client wiring.
func (c *Client) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Registry returns the token registry in use.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// Progression returns the current XP/level state.
func (c *Client) Progression() types.ProgressionState {
	return c.ledger.State()
}

// Streak returns the current daily swap streak.
func (c *Client) Streak() types.StreakState {
	return c.ledger.Streak()
}

// QuestLog returns the completed-swap history, newest first.
func (c *Client) QuestLog() []types.QuestLogEntry {
	return c.questLog.Entries()
}
