package synchronizer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/events"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

type fakePrison struct {
	bookings map[string]*upstream.Booking
	err      error
}

func (f *fakePrison) GetBooking(_ context.Context, prisonerNumber string) (*upstream.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.bookings[prisonerNumber]
	if !ok {
		return nil, upstream.ErrNotFound
	}
	return b, nil
}

func (f *fakePrison) CountPrisonerNumbers(context.Context) (int, error) {
	return len(f.bookings), nil
}

func (f *fakePrison) GetPrisonerNumbers(_ context.Context, page, pageSize int) ([]string, error) {
	var all []string
	for k := range f.bookings {
		all = append(all, k)
	}
	sort.Strings(all)
	start := min(page*pageSize, len(all))
	return all[start:min(start+pageSize, len(all))], nil
}

type fakeIncentives struct {
	level *upstream.IncentiveLevel
	err   error
}

func (f *fakeIncentives) GetCurrentIncentive(context.Context, int64) (*upstream.IncentiveLevel, error) {
	return f.level, f.err
}

type fakeRestricted struct {
	patient *upstream.RestrictedPatient
	err     error
}

func (f *fakeRestricted) GetRestrictedPatient(context.Context, string) (*upstream.RestrictedPatient, error) {
	return f.patient, f.err
}

type recordingPublisher struct {
	mu         sync.Mutex
	primary    []events.Event
	secondary  []events.Event
	primaryErr error
}

func (r *recordingPublisher) PublishPrimary(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.primaryErr != nil {
		return r.primaryErr
	}
	r.primary = append(r.primary, e)
	return nil
}

func (r *recordingPublisher) PublishSecondary(_ context.Context, evs []events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secondary = append(r.secondary, evs...)
}

type fixture struct {
	prison     *fakePrison
	incentives *fakeIncentives
	restricted *fakeRestricted
	store      *search.Memory
	publisher  *recordingPublisher
	telemetry  *telemetry.Captured
	sync       *Synchronizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bookingID := int64(1200)
	f := &fixture{
		prison: &fakePrison{bookings: map[string]*upstream.Booking{
			"A1234AA": {
				OffenderNo:  "A1234AA",
				BookingID:   &bookingID,
				BookingNo:   "38412A",
				FirstName:   "JOHN",
				LastName:    "SMITH",
				DateOfBirth: "1980-02-28",
				ActiveFlag:  true,
				AgencyID:    "MDI",
				Status:      "ACTIVE IN",
				InOutStatus: "IN",
			},
		}},
		incentives: &fakeIncentives{level: &upstream.IncentiveLevel{
			IepCode:  "STD",
			IepLevel: "Standard",
			IepTime:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}},
		restricted: &fakeRestricted{},
		store:      search.NewMemory(),
		publisher:  &recordingPublisher{},
		telemetry:  &telemetry.Captured{},
	}
	ctx := context.Background()
	require.NoError(t, f.store.CreateIndex(ctx, indexstatus.SlotA))
	require.NoError(t, f.store.CreateIndex(ctx, indexstatus.SlotB))
	f.sync = New(Deps{
		Prison:             f.prison,
		Incentives:         f.incentives,
		RestrictedPatients: f.restricted,
		Store:              f.store,
		Publisher:          f.publisher,
		Telemetry:          f.telemetry,
		Now:                func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return f
}

var bothSlots = []indexstatus.Slot{indexstatus.SlotA, indexstatus.SlotB}

func TestBuild_WritesOnlyTargetSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.sync.Build(ctx, "A1234AA", indexstatus.SlotB)
	require.NoError(t, err)
	assert.Equal(t, "A1234AA", doc.PrisonerNumber)
	require.NotNil(t, doc.CurrentIncentive)
	assert.Equal(t, "STD", doc.CurrentIncentive.Level.Code)

	got, err := f.store.Get(ctx, "A1234AA", indexstatus.SlotB)
	require.NoError(t, err)
	assert.NotNil(t, got)
	got, err = f.store.Get(ctx, "A1234AA", indexstatus.SlotA)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Empty(t, f.publisher.primary)
	assert.Empty(t, f.publisher.secondary)
}

func TestBuild_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.sync.Build(context.Background(), "Z9999ZZ", indexstatus.SlotB)
	assert.ErrorIs(t, err, ErrPrisonerNotFound)
	assert.Len(t, f.telemetry.Named(telemetry.EventPrisonerNotFound), 1)
}

func TestBuild_BookingFailure(t *testing.T) {
	f := newFixture(t)
	f.prison.err = errors.New("connection refused")

	_, err := f.sync.Build(context.Background(), "A1234AA", indexstatus.SlotB)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPrisonerNotFound)
}

func TestUpdate_FirstSightingPublishesCreated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)

	require.Len(t, f.publisher.primary, 1)
	assert.Equal(t, events.TypeCreated, f.publisher.primary[0].Type)
	for _, slot := range bothSlots {
		got, err := f.store.Get(ctx, "A1234AA", slot)
		require.NoError(t, err)
		assert.NotNil(t, got, slot)
	}
	diffs, err := f.store.GetDifferences(ctx, "A1234AA")
	require.NoError(t, err)
	assert.Empty(t, diffs)
	assert.Len(t, f.telemetry.Named(telemetry.EventPrisonerCreated), 1)
}

func TestUpdate_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)
	_, err = f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)

	assert.Len(t, f.publisher.primary, 1, "no updated event when nothing changed")
	assert.Empty(t, f.publisher.secondary)
	diffs, err := f.store.GetDifferences(ctx, "A1234AA")
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestUpdate_AlertChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)

	f.prison.bookings["A1234AA"].Alerts = []upstream.Alert{{AlertType: "X", AlertCode: "XA", Active: true}}
	_, err = f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)

	require.Len(t, f.publisher.primary, 2)
	updated := f.publisher.primary[1]
	assert.Equal(t, events.TypeUpdated, updated.Type)
	assert.Equal(t, []prisoner.Category{prisoner.CategoryAlerts}, updated.AdditionalInformation.(events.UpdatedInfo).CategoriesChanged)

	require.Len(t, f.publisher.secondary, 1)
	alerts := f.publisher.secondary[0]
	assert.Equal(t, events.TypeAlertsUpdated, alerts.Type)
	assert.Equal(t, []string{"XA"}, alerts.AdditionalInformation.(events.AlertsInfo).AlertsAdded)

	diffs, err := f.store.GetDifferences(ctx, "A1234AA")
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, prisoner.CategoryAlerts, diffs[0].Category)
	assert.NotEmpty(t, diffs[0].Differences)
}

func TestUpdate_PrimaryPublishFailureLeavesIndexUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)

	f.prison.bookings["A1234AA"].LastName = "JONES"
	f.publisher.primaryErr = errors.New("broker unavailable")
	_, err = f.sync.Update(ctx, "A1234AA", bothSlots)
	require.Error(t, err)

	got, err := f.store.Get(ctx, "A1234AA", indexstatus.SlotA)
	require.NoError(t, err)
	assert.Equal(t, "SMITH", got.LastName)

	// the retry sees the same difference
	f.publisher.primaryErr = nil
	_, err = f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)
	require.Len(t, f.publisher.primary, 2)
	assert.Equal(t, events.TypeUpdated, f.publisher.primary[1].Type)
	got, err = f.store.Get(ctx, "A1234AA", indexstatus.SlotB)
	require.NoError(t, err)
	assert.Equal(t, "JONES", got.LastName)
}

func TestUpdate_IncentiveFailureKeepsPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)

	f.incentives.level = nil
	f.incentives.err = errors.New("timeout")
	doc, err := f.sync.Update(ctx, "A1234AA", bothSlots)
	require.NoError(t, err)
	require.NotNil(t, doc.CurrentIncentive)
	assert.Equal(t, "STD", doc.CurrentIncentive.Level.Code)
	assert.Len(t, f.publisher.primary, 1)
}

func TestUpdate_NoBookingIDSkipsIncentive(t *testing.T) {
	f := newFixture(t)
	f.prison.bookings["A1234AA"].BookingID = nil
	f.incentives.err = errors.New("must not be called")

	doc, err := f.sync.Update(context.Background(), "A1234AA", bothSlots)
	require.NoError(t, err)
	assert.Nil(t, doc.CurrentIncentive)
}

func TestUpdate_SingleSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.Update(ctx, "A1234AA", []indexstatus.Slot{indexstatus.SlotA})
	require.NoError(t, err)
	got, err := f.store.Get(ctx, "A1234AA", indexstatus.SlotB)
	require.NoError(t, err)
	assert.Nil(t, got)
}
