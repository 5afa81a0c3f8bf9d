package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/synchronizer"
)

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) PopulateIndex(ctx context.Context, slot indexstatus.Slot) (int, error) {
	args := m.Called(ctx, slot)
	return args.Int(0), args.Error(1)
}

func (m *mockHandler) PopulateIndexWithPage(ctx context.Context, page queue.PrisonerPage) (int, error) {
	args := m.Called(ctx, page)
	return args.Int(0), args.Error(1)
}

func (m *mockHandler) PopulateIndexWithPrisoner(ctx context.Context, prisonerNumber string) (*prisoner.Prisoner, error) {
	args := m.Called(ctx, prisonerNumber)
	p, _ := args.Get(0).(*prisoner.Prisoner)
	return p, args.Error(1)
}

func testConfig() Config {
	return Config{
		Workers:         4,
		ChannelBufSize:  10,
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: 5 * time.Millisecond,
		ShutdownTimeout: time.Second,
	}
}

// run starts w and returns a function that stops it and waits for Run to
// return.
func run(t *testing.T, w *Worker) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.Run(ctx))
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func drained(q *queue.Memory) func() bool {
	return func() bool {
		d, err := q.Depth(context.Background())
		return err == nil && d.Visible == 0 && d.InFlight == 0
	}
}

func TestWorker_DispatchesEachKind(t *testing.T) {
	q := queue.NewMemory(3)
	h := new(mockHandler)
	h.On("PopulateIndex", mock.Anything, indexstatus.SlotB).Return(2, nil).Once()
	h.On("PopulateIndexWithPage", mock.Anything, queue.PrisonerPage{Page: 1, PageSize: 50}).Return(50, nil).Once()
	h.On("PopulateIndexWithPrisoner", mock.Anything, "A1234AA").Return(&prisoner.Prisoner{PrisonerNumber: "A1234AA"}, nil).Once()

	ctx := context.Background()
	require.NoError(t, q.Send(ctx, queue.PopulateIndex(indexstatus.SlotB)))
	require.NoError(t, q.Send(ctx, queue.PopulatePrisonerPage(queue.PrisonerPage{Page: 1, PageSize: 50})))
	require.NoError(t, q.Send(ctx, queue.PopulatePrisoner("A1234AA")))

	stop := run(t, New(q, h, testConfig(), nil))
	assert.Eventually(t, drained(q), time.Second, 5*time.Millisecond)
	stop()

	h.AssertExpectations(t)
	assert.Empty(t, q.DeadLetters())
}

func TestWorker_MalformedMessageDropped(t *testing.T) {
	q := queue.NewMemory(3)
	h := new(mockHandler)

	require.NoError(t, q.Send(context.Background(), queue.Message{Kind: "BOGUS"}))

	stop := run(t, New(q, h, testConfig(), nil))
	assert.Eventually(t, drained(q), time.Second, 5*time.Millisecond)
	stop()

	h.AssertNotCalled(t, "PopulateIndex", mock.Anything, mock.Anything)
	assert.Empty(t, q.DeadLetters())
}

func TestWorker_RefusedAndMissingAreAcked(t *testing.T) {
	q := queue.NewMemory(3)
	h := new(mockHandler)
	refused := &orchestrator.PreconditionError{Err: orchestrator.ErrBuildNotInProgress, Status: indexstatus.New()}
	h.On("PopulateIndexWithPrisoner", mock.Anything, "A0001AA").Return(nil, refused).Once()
	h.On("PopulateIndexWithPrisoner", mock.Anything, "A0002AA").Return(nil, synchronizer.ErrPrisonerNotFound).Once()

	ctx := context.Background()
	require.NoError(t, q.Send(ctx, queue.PopulatePrisoner("A0001AA")))
	require.NoError(t, q.Send(ctx, queue.PopulatePrisoner("A0002AA")))

	stop := run(t, New(q, h, testConfig(), nil))
	assert.Eventually(t, drained(q), time.Second, 5*time.Millisecond)
	stop()

	h.AssertExpectations(t)
	assert.Empty(t, q.DeadLetters())
}

func TestWorker_FailuresRetriedThenDeadLettered(t *testing.T) {
	q := queue.NewMemory(2)
	h := new(mockHandler)
	h.On("PopulateIndexWithPrisoner", mock.Anything, "A1234AA").Return(nil, errors.New("upstream down")).Twice()

	require.NoError(t, q.Send(context.Background(), queue.PopulatePrisoner("A1234AA")))

	stop := run(t, New(q, h, testConfig(), nil))
	assert.Eventually(t, func() bool { return len(q.DeadLetters()) == 1 }, time.Second, 5*time.Millisecond)
	stop()

	h.AssertExpectations(t)
	d, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.DeadLettered)
}

func TestShard_SamePrisonerSameShard(t *testing.T) {
	a := shard(queue.PopulatePrisoner("A1234AA"), 8)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a, shard(queue.PopulatePrisoner("A1234AA"), 8))
	}
	for _, m := range []queue.Message{
		queue.PopulateIndex(indexstatus.SlotA),
		queue.PopulatePrisonerPage(queue.PrisonerPage{Page: 3, PageSize: 10}),
		queue.PopulatePrisoner("Z9999ZZ"),
	} {
		s := shard(m, 8)
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 8)
	}
}

func TestBackoff(t *testing.T) {
	w := New(queue.NewMemory(0), new(mockHandler), Config{RetryBackoff: time.Second, MaxRetryBackoff: 5 * time.Second}, nil)

	assert.Equal(t, time.Second, w.backoff(1))
	assert.Equal(t, 2*time.Second, w.backoff(2))
	assert.Equal(t, 4*time.Second, w.backoff(3))
	assert.Equal(t, 5*time.Second, w.backoff(4))
	assert.Equal(t, 5*time.Second, w.backoff(10))
}
