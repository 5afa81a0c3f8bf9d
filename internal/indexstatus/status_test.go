package indexstatus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestSlot_Flip(t *testing.T) {
	assert.Equal(t, SlotB, SlotA.Flip())
	assert.Equal(t, SlotA, SlotB.Flip())
	for _, s := range []Slot{SlotA, SlotB} {
		assert.Equal(t, s, s.Flip().Flip())
	}
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("B")
	require.NoError(t, err)
	assert.Equal(t, SlotB, s)

	_, err = ParseSlot("GREEN")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	s := New()
	assert.Equal(t, StatusID, s.ID)
	assert.Equal(t, SlotA, s.CurrentSlot)
	assert.Equal(t, SlotB, s.OtherSlot())
	assert.Equal(t, StateAbsent, s.CurrentState)
	assert.Equal(t, StateAbsent, s.OtherState)
	assert.Empty(t, s.ActiveSlots())
}

func TestMarkBuildInProgress(t *testing.T) {
	s, err := New().MarkBuildInProgress(testNow)
	require.NoError(t, err)

	assert.Equal(t, StateBuilding, s.OtherState)
	require.NotNil(t, s.OtherStartedAt)
	assert.Equal(t, testNow, *s.OtherStartedAt)
	assert.Nil(t, s.OtherEndedAt)
	assert.True(t, s.InProgress())
	assert.Equal(t, []Slot{SlotB}, s.ActiveSlots())

	_, err = s.MarkBuildInProgress(testNow)
	assert.ErrorIs(t, err, ErrBuildAlreadyInProgress)
}

func TestMarkBuildInProgress_CurrentBuildingAfterForcedSwitch(t *testing.T) {
	s, err := New().MarkBuildInProgress(testNow)
	require.NoError(t, err)
	s = s.SwitchIndex()
	assert.Equal(t, StateBuilding, s.CurrentState)

	_, err = s.MarkBuildInProgress(testNow)
	assert.ErrorIs(t, err, ErrBuildAlreadyInProgress)
}

func TestMarkBuildCompleteAndSwitchIndex(t *testing.T) {
	earlier := testNow.Add(-time.Hour)
	s := IndexStatus{
		ID:               StatusID,
		CurrentSlot:      SlotA,
		CurrentState:     StateCompleted,
		CurrentStartedAt: &earlier,
		CurrentEndedAt:   &earlier,
		OtherState:       StateBuilding,
		OtherStartedAt:   &earlier,
	}

	next := s.MarkBuildCompleteAndSwitchIndex(testNow)

	assert.Equal(t, SlotB, next.CurrentSlot)
	assert.Equal(t, SlotA, next.OtherSlot())
	assert.Equal(t, StateCompleted, next.CurrentState)
	require.NotNil(t, next.CurrentEndedAt)
	assert.Equal(t, testNow, *next.CurrentEndedAt)
	assert.Equal(t, &earlier, next.CurrentStartedAt)

	// previous current becomes the standby verbatim
	assert.Equal(t, StateCompleted, next.OtherState)
	assert.Equal(t, &earlier, next.OtherStartedAt)
	assert.Equal(t, &earlier, next.OtherEndedAt)
	assert.Equal(t, []Slot{SlotB, SlotA}, next.ActiveSlots())
}

func TestSwitchIndex_KeepsStates(t *testing.T) {
	s := New()
	s.CurrentState = StateCompleted
	s.OtherState = StateCancelled

	next := s.SwitchIndex()
	assert.Equal(t, SlotB, next.CurrentSlot)
	assert.Equal(t, StateCancelled, next.CurrentState)
	assert.Equal(t, StateCompleted, next.OtherState)
	assert.Equal(t, s, next.SwitchIndex())
}

func TestMarkBuildCancelled(t *testing.T) {
	s, err := New().MarkBuildInProgress(testNow)
	require.NoError(t, err)

	next := s.MarkBuildCancelled(testNow.Add(time.Minute))
	assert.Equal(t, SlotA, next.CurrentSlot)
	assert.Equal(t, StateCancelled, next.OtherState)
	require.NotNil(t, next.OtherEndedAt)
	assert.Equal(t, testNow.Add(time.Minute), *next.OtherEndedAt)
	assert.False(t, next.InProgress())
}

func TestAtMostOneSlotBuilding(t *testing.T) {
	// Walk every sequence of transitions up to a fixed depth and check the invariant.
	type step func(IndexStatus) (IndexStatus, bool)
	steps := []step{
		func(s IndexStatus) (IndexStatus, bool) {
			n, err := s.MarkBuildInProgress(testNow)
			return n, err == nil
		},
		func(s IndexStatus) (IndexStatus, bool) {
			if !s.InProgress() {
				return s, false
			}
			return s.MarkBuildCompleteAndSwitchIndex(testNow), true
		},
		func(s IndexStatus) (IndexStatus, bool) { return s.SwitchIndex(), true },
		func(s IndexStatus) (IndexStatus, bool) {
			if !s.InProgress() {
				return s, false
			}
			return s.MarkBuildCancelled(testNow), true
		},
	}

	var walk func(s IndexStatus, depth int)
	walk = func(s IndexStatus, depth int) {
		building := 0
		if s.CurrentState == StateBuilding {
			building++
		}
		if s.OtherState == StateBuilding {
			building++
		}
		require.LessOrEqual(t, building, 1, "status %s", s)
		if depth == 0 {
			return
		}
		for _, st := range steps {
			if next, ok := st(s); ok {
				walk(next, depth-1)
			}
		}
	}
	walk(New(), 6)
}

func TestMemoryStore_GetInitializes(t *testing.T) {
	store := NewMemoryStore()
	s, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, New(), s)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := store.Update(ctx, func(s IndexStatus) (IndexStatus, error) {
		return s.MarkBuildInProgress(testNow)
	})
	require.NoError(t, err)
	assert.Equal(t, StateBuilding, s.OtherState)
	assert.Equal(t, int64(1), s.Version)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestMemoryStore_UpdateErrorLeavesStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	_, err := store.Update(ctx, func(s IndexStatus) (IndexStatus, error) {
		s.OtherState = StateBuilding
		return s, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, New(), got)
}

func TestMemoryStore_ConcurrentBuildsOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, func(s IndexStatus) (IndexStatus, error) {
				return s.MarkBuildInProgress(testNow)
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
