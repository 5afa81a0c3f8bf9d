// Package orchestrator runs the guarded index lifecycle operations: prepare a
// rebuild of the standby slot, fan the population out over the background
// queue, complete or cancel the build, switch slots, and route live
// per-prisoner updates to every active slot.
//
// Each operation loads the index status (and, where it matters, the queue
// depth) and evaluates its preconditions in order before mutating anything.
// Status mutations go through indexstatus.Store.Update, which re-checks the
// status preconditions against the committed record.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

// Synchronizer writes one prisoner document.
type Synchronizer interface {
	Build(ctx context.Context, prisonerNumber string, slot indexstatus.Slot) (*prisoner.Prisoner, error)
	Update(ctx context.Context, prisonerNumber string, slots []indexstatus.Slot) (*prisoner.Prisoner, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Status       indexstatus.Store
	Store        search.Gateway
	Queue        queue.Gateway
	Prison       upstream.PrisonAPI
	Synchronizer Synchronizer
	Telemetry    telemetry.Recorder
	Logger       *slog.Logger
	Now          func() time.Time
}

type Orchestrator struct {
	status    indexstatus.Store
	store     search.Gateway
	queue     queue.Gateway
	prison    upstream.PrisonAPI
	sync      Synchronizer
	telemetry telemetry.Recorder
	limiter   *rate.Limiter
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config, d Deps) *Orchestrator {
	cfg.ApplyDefaults()
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	limit := rate.Inf
	if cfg.PopulateRate > 0 {
		limit = rate.Limit(cfg.PopulateRate)
	}
	return &Orchestrator{
		status:    d.Status,
		store:     d.Store,
		queue:     d.Queue,
		prison:    d.Prison,
		sync:      d.Synchronizer,
		telemetry: d.Telemetry,
		limiter:   rate.NewLimiter(limit, cfg.PopulateBurst),
		cfg:       cfg,
		logger:    d.Logger.With("component", "orchestrator"),
		now:       d.Now,
	}
}

// GetStatus returns the current index status.
func (o *Orchestrator) GetStatus(ctx context.Context) (indexstatus.IndexStatus, error) {
	return o.status.Get(ctx)
}

// QueueDepth returns the outstanding background work.
func (o *Orchestrator) QueueDepth(ctx context.Context) (queue.Depth, error) {
	d, err := o.queue.Depth(ctx)
	if err != nil {
		return d, err
	}
	telemetry.QueueDepth.WithLabelValues("visible").Set(float64(d.Visible))
	telemetry.QueueDepth.WithLabelValues("in_flight").Set(float64(d.InFlight))
	telemetry.QueueDepth.WithLabelValues("dead_lettered").Set(float64(d.DeadLettered))
	return d, nil
}

func (o *Orchestrator) snapshot(ctx context.Context) (indexstatus.IndexStatus, queue.Depth, error) {
	st, err := o.status.Get(ctx)
	if err != nil {
		return st, queue.Depth{}, fmt.Errorf("failed to load index status: %w", err)
	}
	d, err := o.QueueDepth(ctx)
	if err != nil {
		return st, d, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return st, d, nil
}

// PrepareIndexForRebuild starts a rebuild of the standby slot: the slot's
// physical index is recreated empty and one populate-index message is queued.
func (o *Orchestrator) PrepareIndexForRebuild(ctx context.Context) (indexstatus.IndexStatus, error) {
	const op = "prepare"
	st, depth, err := o.snapshot(ctx)
	if err != nil {
		return st, err
	}
	if st.CurrentState == indexstatus.StateBuilding || st.InProgress() {
		return st, refuse(op, ErrBuildAlreadyInProgress, st)
	}
	if depth.Active() {
		return st, refuse(op, ErrActiveMessagesExist, st)
	}

	slot := st.OtherSlot()
	next, err := o.status.Update(ctx, func(s indexstatus.IndexStatus) (indexstatus.IndexStatus, error) {
		if s.OtherSlot() != slot {
			return s, indexstatus.ErrConcurrentUpdate
		}
		return s.MarkBuildInProgress(o.now())
	})
	if err != nil {
		return next, asPrecondition(op, err, next)
	}

	if err := o.resetIndex(ctx, slot); err != nil {
		o.rollbackBuild(ctx, st)
		return st, err
	}
	if err := o.queue.Send(ctx, queue.PopulateIndex(slot)); err != nil {
		o.rollbackBuild(ctx, st)
		return st, fmt.Errorf("failed to queue populate index: %w", err)
	}

	o.logger.Info("Index build started", "slot", slot, "status", next.String())
	o.telemetry.TrackEvent(telemetry.EventBuildIndexStarted, statusProps(next))
	return next, nil
}

// CheckServingIndex fails when the alias points at a slot whose index is
// missing.
func (o *Orchestrator) CheckServingIndex(ctx context.Context) error {
	slot, ok, err := o.store.AliasSlot(ctx)
	if err != nil || !ok {
		return err
	}
	exists, err := o.store.IndexExists(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", slot, err)
	}
	if !exists {
		return fmt.Errorf("index %s serving reads does not exist", slot)
	}
	return nil
}

func (o *Orchestrator) resetIndex(ctx context.Context, slot indexstatus.Slot) error {
	if err := o.store.DeleteIndex(ctx, slot); err != nil {
		return fmt.Errorf("failed to delete index %s: %w", slot, err)
	}
	if err := o.store.CreateIndex(ctx, slot); err != nil {
		return fmt.Errorf("failed to create index %s: %w", slot, err)
	}
	return nil
}

// rollbackBuild restores the standby slot's state from before a failed
// prepare.
func (o *Orchestrator) rollbackBuild(ctx context.Context, prev indexstatus.IndexStatus) {
	_, err := o.status.Update(ctx, func(s indexstatus.IndexStatus) (indexstatus.IndexStatus, error) {
		if s.CurrentSlot != prev.CurrentSlot || !s.InProgress() {
			return s, indexstatus.ErrConcurrentUpdate
		}
		s.OtherState = prev.OtherState
		s.OtherStartedAt = prev.OtherStartedAt
		s.OtherEndedAt = prev.OtherEndedAt
		return s, nil
	})
	if err != nil {
		o.logger.Error("Failed to roll back index build", "error", err)
	}
}

// MarkIndexingComplete completes the standby build, swaps the slots and
// points reads at the new current slot.
func (o *Orchestrator) MarkIndexingComplete(ctx context.Context, ignoreThreshold bool) (indexstatus.IndexStatus, error) {
	const op = "complete"
	st, depth, err := o.snapshot(ctx)
	if err != nil {
		return st, err
	}
	if !st.InProgress() {
		return st, refuse(op, ErrBuildNotInProgress, st)
	}
	if depth.Active() {
		return st, refuse(op, ErrActiveMessagesExist, st)
	}

	slot := st.OtherSlot()
	count, err := o.store.Count(ctx, slot)
	if err != nil {
		return st, fmt.Errorf("failed to count index %s: %w", slot, err)
	}
	telemetry.IndexDocuments.WithLabelValues(string(slot)).Set(float64(count))
	if !ignoreThreshold && count < o.cfg.CompletionThreshold {
		o.logger.Warn("Index below completion threshold", "slot", slot, "count", count, "threshold", o.cfg.CompletionThreshold)
		return st, refuse(op, ErrThresholdNotReached, st)
	}

	next, err := o.switchAliasAndStatus(ctx, slot, func(s indexstatus.IndexStatus) (indexstatus.IndexStatus, error) {
		if !s.InProgress() || s.OtherSlot() != slot {
			return s, ErrBuildNotInProgress
		}
		return s.MarkBuildCompleteAndSwitchIndex(o.now()), nil
	})
	if err != nil {
		return next, asPrecondition(op, err, next)
	}

	o.logger.Info("Index build completed", "slot", slot, "count", count, "status", next.String())
	props := statusProps(next)
	props["count"] = strconv.FormatInt(count, 10)
	o.telemetry.TrackEvent(telemetry.EventBuildIndexCompleted, props)
	return next, nil
}

// SwitchIndex swaps serving and standby slots without changing their states.
// Unless forced, the standby slot must hold a completed build.
func (o *Orchestrator) SwitchIndex(ctx context.Context, force bool) (indexstatus.IndexStatus, error) {
	const op = "switch"
	st, err := o.status.Get(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to load index status: %w", err)
	}
	if !force {
		if err := switchable(st); err != nil {
			return st, refuse(op, err, st)
		}
	}

	slot := st.OtherSlot()
	next, err := o.switchAliasAndStatus(ctx, slot, func(s indexstatus.IndexStatus) (indexstatus.IndexStatus, error) {
		if s.OtherSlot() != slot {
			return s, indexstatus.ErrConcurrentUpdate
		}
		if !force {
			if err := switchable(s); err != nil {
				return s, err
			}
		}
		return s.SwitchIndex(), nil
	})
	if err != nil {
		return next, asPrecondition(op, err, next)
	}

	o.logger.Info("Index switched", "slot", slot, "force", force, "status", next.String())
	o.telemetry.TrackEvent(telemetry.EventIndexSwitched, statusProps(next))
	return next, nil
}

func switchable(s indexstatus.IndexStatus) error {
	switch s.OtherState {
	case indexstatus.StateAbsent:
		return ErrBuildAbsent
	case indexstatus.StateBuilding:
		return ErrBuildAlreadyInProgress
	case indexstatus.StateCancelled:
		return ErrBuildCancelled
	}
	return nil
}

// switchAliasAndStatus points reads at slot and then commits fn. If the
// status update fails the alias is restored, or removed when there was none.
func (o *Orchestrator) switchAliasAndStatus(ctx context.Context, slot indexstatus.Slot, fn indexstatus.UpdateFunc) (indexstatus.IndexStatus, error) {
	prev, hadAlias, err := o.store.AliasSlot(ctx)
	if err != nil {
		return indexstatus.IndexStatus{}, fmt.Errorf("failed to read index alias: %w", err)
	}
	if err := o.store.SwitchAlias(ctx, slot); err != nil {
		return indexstatus.IndexStatus{}, fmt.Errorf("failed to switch index alias to %s: %w", slot, err)
	}
	next, err := o.status.Update(ctx, fn)
	if err == nil || (hadAlias && prev == slot) {
		return next, err
	}
	var rerr error
	if hadAlias {
		rerr = o.store.SwitchAlias(ctx, prev)
	} else {
		rerr = o.store.ClearAlias(ctx)
	}
	if rerr != nil {
		o.logger.Error("Failed to restore index alias", "slot", prev, "error", rerr)
		return next, errors.Join(err, rerr)
	}
	return next, err
}

// CancelIndexing abandons the standby build and purges outstanding work.
// Messages already being processed may still complete; the populate
// operations refuse them once the slot is no longer building.
func (o *Orchestrator) CancelIndexing(ctx context.Context) (indexstatus.IndexStatus, error) {
	const op = "cancel"
	st, err := o.status.Get(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to load index status: %w", err)
	}
	if !st.InProgress() {
		return st, refuse(op, ErrBuildNotInProgress, st)
	}

	next, err := o.status.Update(ctx, func(s indexstatus.IndexStatus) (indexstatus.IndexStatus, error) {
		if !s.InProgress() {
			return s, ErrBuildNotInProgress
		}
		return s.MarkBuildCancelled(o.now()), nil
	})
	if err != nil {
		return next, asPrecondition(op, err, next)
	}

	o.logger.Info("Index build cancelled", "slot", next.OtherSlot(), "status", next.String())
	o.telemetry.TrackEvent(telemetry.EventBuildIndexCancelled, statusProps(next))
	if err := o.queue.Purge(ctx); err != nil {
		return next, fmt.Errorf("index build cancelled but queue purge failed: %w", err)
	}
	return next, nil
}

// PopulateIndex splits the full prisoner population into pages and queues
// one message per page. It returns the number of pages queued.
func (o *Orchestrator) PopulateIndex(ctx context.Context, slot indexstatus.Slot) (int, error) {
	const op = "populate_index"
	st, err := o.buildingStatus(ctx, op)
	if err != nil {
		return 0, err
	}
	if slot != st.OtherSlot() {
		o.logger.Warn("Ignoring populate for wrong index", "requested", slot, "building", st.OtherSlot())
		o.telemetry.TrackEvent(telemetry.EventPopulateWrongIndex, map[string]string{
			"requested": string(slot),
			"building":  string(st.OtherSlot()),
		})
		return 0, refuse(op, ErrWrongIndexRequested, st)
	}

	total, err := o.prison.CountPrisonerNumbers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count prisoners: %w", err)
	}
	pageSize := o.cfg.PageSize
	pages := (total + pageSize - 1) / pageSize
	o.telemetry.TrackEvent(telemetry.EventPopulatePrisonerPages, map[string]string{
		"totalNumberOfPrisoners": strconv.Itoa(total),
		"pages":                  strconv.Itoa(pages),
		"pageSize":               strconv.Itoa(pageSize),
	})

	for page := 0; page < pages; page++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return page, err
		}
		if err := o.queue.Send(ctx, queue.PopulatePrisonerPage(queue.PrisonerPage{Page: page, PageSize: pageSize})); err != nil {
			return page, fmt.Errorf("failed to queue page %d: %w", page, err)
		}
	}
	return pages, nil
}

// PopulateIndexWithPage queues one populate-prisoner message per prisoner
// in the page. It returns the number of messages queued.
func (o *Orchestrator) PopulateIndexWithPage(ctx context.Context, page queue.PrisonerPage) (int, error) {
	const op = "populate_page"
	if _, err := o.buildingStatus(ctx, op); err != nil {
		return 0, err
	}

	numbers, err := o.prison.GetPrisonerNumbers(ctx, page.Page, page.PageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch prisoner page %d: %w", page.Page, err)
	}
	for i, number := range numbers {
		if i == 0 {
			o.trackPage(telemetry.EventPopulatePageFirst, page, number)
		}
		if i == len(numbers)-1 {
			o.trackPage(telemetry.EventPopulatePageLast, page, number)
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return i, err
		}
		if err := o.queue.Send(ctx, queue.PopulatePrisoner(number)); err != nil {
			return i, fmt.Errorf("failed to queue prisoner %s: %w", number, err)
		}
	}
	return len(numbers), nil
}

// PopulateIndexWithPrisoner writes one prisoner into the slot being built.
func (o *Orchestrator) PopulateIndexWithPrisoner(ctx context.Context, prisonerNumber string) (*prisoner.Prisoner, error) {
	st, err := o.buildingStatus(ctx, "populate_prisoner")
	if err != nil {
		return nil, err
	}
	return o.sync.Build(ctx, prisonerNumber, st.OtherSlot())
}

// UpdatePrisoner re-synchronizes one prisoner into every active slot and
// publishes the resulting events.
func (o *Orchestrator) UpdatePrisoner(ctx context.Context, prisonerNumber string) (*prisoner.Prisoner, error) {
	st, err := o.status.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load index status: %w", err)
	}
	slots := st.ActiveSlots()
	if len(slots) == 0 {
		return nil, refuse("update_prisoner", ErrNoActiveIndexes, st)
	}
	return o.sync.Update(ctx, prisonerNumber, slots)
}

func (o *Orchestrator) trackPage(name string, page queue.PrisonerPage, prisonerNumber string) {
	o.telemetry.TrackEvent(name, map[string]string{
		"page":           strconv.Itoa(page.Page),
		"prisonerNumber": prisonerNumber,
	})
}

func (o *Orchestrator) buildingStatus(ctx context.Context, op string) (indexstatus.IndexStatus, error) {
	st, err := o.status.Get(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to load index status: %w", err)
	}
	if !st.InProgress() {
		return st, refuse(op, ErrBuildNotInProgress, st)
	}
	return st, nil
}

func statusProps(s indexstatus.IndexStatus) map[string]string {
	return map[string]string{
		"currentIndex":      string(s.CurrentSlot),
		"currentIndexState": string(s.CurrentState),
		"otherIndexState":   string(s.OtherState),
	}
}
