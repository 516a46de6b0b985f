package progression

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"

	"github.com/tokenquest/sdk-go/core/kvstore"
	"github.com/tokenquest/sdk-go/core/types"
)

// streak counts consecutive UTC days with at least one completed swap.
// Dates are civil (day-granular, zone-free) so a streak does not depend on
// the local timezone of whichever host happens to run the SDK.
type streak struct {
	Current int        `json:"current"`
	Best    int        `json:"best"`
	LastDay civil.Date `json:"last_day"`
}

func (s *streak) advance(now time.Time) {
	today := civil.DateOf(now.UTC())
	switch {
	case s.Current == 0:
		s.Current = 1
	case today == s.LastDay:
		// Another swap on the same day keeps the streak unchanged.
	case today == s.LastDay.AddDays(1):
		s.Current++
	default:
		s.Current = 1
	}
	s.LastDay = today
	if s.Current > s.Best {
		s.Best = s.Current
	}
}

func (s streak) state() types.StreakState {
	st := types.StreakState{CurrentDays: s.Current, BestDays: s.Best}
	if s.Current > 0 {
		st.LastDay = s.LastDay.String()
	}
	return st
}

func loadStreak(ctx context.Context, store kvstore.Store) streak {
	raw, err := store.Get(ctx, keyStreak)
	if err != nil {
		return streak{}
	}
	var s streak
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Current < 0 || s.Best < 0 {
		return streak{}
	}
	return s
}

func persistStreak(ctx context.Context, store kvstore.Store, s streak) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding streak")
	}
	return store.Set(ctx, keyStreak, string(data))
}
