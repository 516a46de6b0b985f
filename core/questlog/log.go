// Package questlog keeps the bounded, newest-first history of completed
// swaps shown to the user.
package questlog

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/kvstore"
	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/types"
)

// Capacity is the maximum number of retained entries; the oldest entry is
// evicted when a new one arrives at capacity.
const Capacity = 10

const keyQuestLog = "tokenquest.quest_log"

// Log is the quest log. Entries are ordered newest first. Only the swap
// orchestrator writes to it, and only on swap success.
type Log struct {
	store kvstore.Store

	mu      sync.Mutex
	entries []types.QuestLogEntry
}

// New creates an empty log over the given store. Call Load to pick up
// persisted history.
func New(store kvstore.Store) *Log {
	return &Log{store: store}
}

// Load reads the persisted history. Absent or malformed data yields an empty
// log; only genuine store failures are reported.
func (l *Log) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	raw, err := l.store.Get(ctx, keyQuestLog)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(types.ErrPersistence, "loading quest log: %v", err)
	}

	var entries []types.QuestLogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logging.Logger.Warn("malformed persisted quest log, resetting", zap.Error(err))
		return nil
	}
	if len(entries) > Capacity {
		entries = entries[:Capacity]
	}
	l.entries = entries
	return nil
}

// Append records a completed swap as the newest entry, evicting the oldest
// one at capacity, and persists the log.
func (l *Log) Append(ctx context.Context, entry types.QuestLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]types.QuestLogEntry{entry}, l.entries...)
	if len(l.entries) > Capacity {
		l.entries = l.entries[:Capacity]
	}

	data, err := json.Marshal(l.entries)
	if err != nil {
		logging.Logger.Warn("encoding quest log failed", zap.Error(err))
		return
	}
	if err := l.store.Set(ctx, keyQuestLog, string(data)); err != nil {
		logging.Logger.Warn("persisting quest log failed, continuing in memory", zap.Error(err))
	}
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []types.QuestLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.QuestLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
