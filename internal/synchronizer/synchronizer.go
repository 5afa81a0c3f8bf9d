// Package synchronizer rebuilds one prisoner document from the upstream
// sources and writes it to the target index slots.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/diff"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/events"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/translate"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

// ErrPrisonerNotFound is returned when the source-of-truth has no booking.
var ErrPrisonerNotFound = errors.New("prisoner not found")

// EventPublisher publishes derived events.
type EventPublisher interface {
	PublishPrimary(ctx context.Context, e events.Event) error
	PublishSecondary(ctx context.Context, evs []events.Event)
}

// Deps are the collaborators of a Synchronizer.
type Deps struct {
	Prison             upstream.PrisonAPI
	Incentives         upstream.IncentivesAPI
	RestrictedPatients upstream.RestrictedPatientsAPI
	Store              search.Gateway
	Publisher          EventPublisher
	Telemetry          telemetry.Recorder
	Logger             *slog.Logger
	Now                func() time.Time
}

type Synchronizer struct {
	prison     upstream.PrisonAPI
	incentives upstream.IncentivesAPI
	restricted upstream.RestrictedPatientsAPI
	store      search.Gateway
	publisher  EventPublisher
	telemetry  telemetry.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

func New(d Deps) *Synchronizer {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Synchronizer{
		prison:     d.Prison,
		incentives: d.Incentives,
		restricted: d.RestrictedPatients,
		store:      d.Store,
		publisher:  d.Publisher,
		telemetry:  d.Telemetry,
		logger:     d.Logger.With("component", "synchronizer"),
		now:        d.Now,
	}
}

type sourceData struct {
	booking           *upstream.Booking
	incentive         upstream.Result[upstream.IncentiveLevel]
	restrictedPatient upstream.Result[upstream.RestrictedPatient]
}

// fetch loads the booking, then the two secondary sources concurrently.
// Secondary failures are captured in their results, never returned.
func (s *Synchronizer) fetch(ctx context.Context, prisonerNumber string) (sourceData, error) {
	booking, err := s.prison.GetBooking(ctx, prisonerNumber)
	if errors.Is(err, upstream.ErrNotFound) {
		s.telemetry.TrackEvent(telemetry.EventPrisonerNotFound, map[string]string{"prisonerNumber": prisonerNumber})
		return sourceData{}, fmt.Errorf("%w: %s", ErrPrisonerNotFound, prisonerNumber)
	}
	if err != nil {
		return sourceData{}, fmt.Errorf("failed to fetch booking for %s: %w", prisonerNumber, err)
	}

	data := sourceData{
		booking:   booking,
		incentive: upstream.Success[upstream.IncentiveLevel](nil),
	}
	var g errgroup.Group
	if booking.BookingID != nil {
		bookingID := *booking.BookingID
		g.Go(func() error {
			data.incentive = upstream.Of(s.incentives.GetCurrentIncentive(ctx, bookingID))
			return nil
		})
	}
	g.Go(func() error {
		data.restrictedPatient = upstream.Of(s.restricted.GetRestrictedPatient(ctx, prisonerNumber))
		return nil
	})
	_ = g.Wait()

	if data.incentive.Failed() {
		telemetry.SecondaryFetchFailures.WithLabelValues("incentives").Inc()
		s.logger.Warn("Incentive fetch failed, using previous value", "prisonerNumber", prisonerNumber, "error", data.incentive.Err)
	}
	if data.restrictedPatient.Failed() {
		telemetry.SecondaryFetchFailures.WithLabelValues("restricted-patients").Inc()
		s.logger.Warn("Restricted patient fetch failed, using previous value", "prisonerNumber", prisonerNumber, "error", data.restrictedPatient.Err)
	}
	return data, nil
}

// Build writes a freshly translated document to slot without diffing or
// publishing events.
func (s *Synchronizer) Build(ctx context.Context, prisonerNumber string, slot indexstatus.Slot) (*prisoner.Prisoner, error) {
	start := time.Now()
	doc, err := s.build(ctx, prisonerNumber, slot)
	record("build", start, err)
	return doc, err
}

func (s *Synchronizer) build(ctx context.Context, prisonerNumber string, slot indexstatus.Slot) (*prisoner.Prisoner, error) {
	data, err := s.fetch(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}
	doc := translate.Translate(translate.Input{
		Booking:           data.booking,
		Incentive:         data.incentive,
		RestrictedPatient: data.restrictedPatient,
	})
	if err := s.store.Save(ctx, doc, slot); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update re-synchronizes one prisoner into every slot, diffs against the
// previously indexed document and publishes the derived events.
//
// The primary event is published before any write so that a publication
// failure leaves the index unchanged and a retry derives the same events.
func (s *Synchronizer) Update(ctx context.Context, prisonerNumber string, slots []indexstatus.Slot) (*prisoner.Prisoner, error) {
	start := time.Now()
	doc, err := s.update(ctx, prisonerNumber, slots)
	record("update", start, err)
	return doc, err
}

func (s *Synchronizer) update(ctx context.Context, prisonerNumber string, slots []indexstatus.Slot) (*prisoner.Prisoner, error) {
	data, err := s.fetch(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Get(ctx, prisonerNumber, slots...)
	if err != nil {
		return nil, err
	}

	doc := translate.Translate(translate.Input{
		Booking:           data.booking,
		Incentive:         data.incentive,
		RestrictedPatient: data.restrictedPatient,
		Existing:          existing,
	})
	now := s.now()
	changes := diff.Compare(existing, doc)
	derived := events.Derive(events.Change{
		Before:  existing,
		After:   doc,
		Booking: data.booking,
		Diff:    changes,
		Now:     now,
	})

	var secondary []events.Event
	for _, e := range derived {
		if !e.Primary {
			secondary = append(secondary, e)
			continue
		}
		if err := s.publisher.PublishPrimary(ctx, e); err != nil {
			return nil, err
		}
	}

	for _, slot := range slots {
		if err := s.store.Save(ctx, doc, slot); err != nil {
			return nil, err
		}
	}

	if existing != nil && !changes.Empty() {
		if err := s.store.SaveDifferences(ctx, differenceRecords(prisonerNumber, changes, now)); err != nil {
			s.logger.Error("Failed to record differences", "prisonerNumber", prisonerNumber, "error", err)
		}
	}

	s.publisher.PublishSecondary(ctx, secondary)

	name := telemetry.EventPrisonerUpdated
	if existing == nil {
		name = telemetry.EventPrisonerCreated
	}
	s.telemetry.TrackEvent(name, map[string]string{
		"prisonerNumber":    prisonerNumber,
		"categoriesChanged": fmt.Sprint(changes.Categories()),
	})
	return doc, nil
}

func differenceRecords(prisonerNumber string, d diff.Diff, now time.Time) []search.DifferenceRecord {
	var out []search.DifferenceRecord
	for _, c := range d.Categories() {
		out = append(out, search.DifferenceRecord{
			ID:             uuid.NewString(),
			PrisonerNumber: prisonerNumber,
			Category:       c,
			Differences:    d.Descriptions(c),
			DateTime:       now.UTC().Truncate(time.Millisecond),
		})
	}
	return out
}

func record(mode string, start time.Time, err error) {
	result := "success"
	switch {
	case errors.Is(err, ErrPrisonerNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	telemetry.Synchronizations.WithLabelValues(mode, result).Inc()
	telemetry.SynchronizationLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
