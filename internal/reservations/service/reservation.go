package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	labserrors "labbook/internal/labs/errors"
	planserrors "labbook/internal/plans/errors"
	reservationserrors "labbook/internal/reservations/errors"
	"labbook/internal/reservations/events"
	"labbook/internal/reservations/policy"
	"labbook/internal/reservations/repository"
	"labbook/internal/reservations/validator"
	"labbook/pkg/config"
	apperrors "labbook/pkg/errors"
	"labbook/pkg/interval"
	"labbook/pkg/model"
	"labbook/pkg/sanitizer"
)

// LabRegistry is the slice of the lab domain the reservation flow needs:
// existence and active state at request time.
type LabRegistry interface {
	FindByID(ctx context.Context, id string) (*model.Lab, error)
}

// PlanRegistry resolves teaching plan links. A link to a missing plan is
// dropped silently rather than failing the reservation.
type PlanRegistry interface {
	FindByID(ctx context.Context, id string) (*model.Plan, error)
}

type ReservationService interface {
	Create(ctx context.Context, actor model.Actor, res *model.Reservation) error
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error)
	ListForActor(ctx context.Context, actor model.Actor, status *model.Status, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListPending(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListForLabInWindow(ctx context.Context, labID string, window interval.Interval) ([]*model.Reservation, error)
	Edit(ctx context.Context, actor model.Actor, id string, update *model.ReservationUpdate) (*model.Reservation, error)
	Decide(ctx context.Context, actor model.Actor, id string, target model.Status, reason string) (*model.Reservation, error)
	Cancel(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error)
	History(ctx context.Context, actor model.Actor, id string) ([]*model.StatusRecord, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	history   repository.StatusHistoryRepository
	lockRepo  repository.LabLockRepository
	labs      LabRegistry
	plans     PlanRegistry
	events    *events.Publisher
	validator *validator.ReservationValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	history repository.StatusHistoryRepository,
	lockRepo repository.LabLockRepository,
	labs LabRegistry,
	plans PlanRegistry,
	publisher *events.Publisher,
	v *validator.ReservationValidator,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		history:   history,
		lockRepo:  lockRepo,
		labs:      labs,
		plans:     plans,
		events:    publisher,
		validator: v,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create registers a new pending reservation. The conflict check and the
// insert run inside one transaction while the per-lab advisory lock is
// held, so two requests for the same lab serialize on the lock and the
// loser sees the winner's row.
func (s *reservationService) Create(ctx context.Context, actor model.Actor, res *model.Reservation) error {
	if !policy.CanCreate(actor) {
		return apperrors.Forbidden("Only instructors can request reservations")
	}

	res.RequesterID = actor.ID
	res.Status = model.StatusPending
	res.StatusReason = ""
	s.sanitize(res)

	if err := s.checkWindow(res.Window()); err != nil {
		return err
	}
	if err := s.validator.Validate(res); err != nil {
		return apperrors.Validation("Reservation validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.checkLabBookable(ctx, res.LabID); err != nil {
		return err
	}
	s.resolvePlanLink(ctx, res)

	lockID, err := s.acquireLabLock(ctx, res.LabID)
	if err != nil {
		return err
	}
	defer s.releaseLabLock(ctx, lockID)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureNoConflict(sessCtx, res.LabID, res.Window(), ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, res); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"lab_id", res.LabID,
			"requester_id", res.RequesterID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Reservation created",
		"reservation_id", res.ID,
		"lab_id", res.LabID,
		"requester_id", res.RequesterID,
		"start_time", res.StartTime,
		"end_time", res.EndTime,
	)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error) {
	res, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanView(actor, res) {
		return nil, apperrors.Forbidden("You do not have access to this reservation")
	}

	return res, nil
}

// ListForActor returns the reservations the actor is allowed to see:
// everything for directors and admins, only their own for instructors.
func (s *reservationService) ListForActor(ctx context.Context, actor model.Actor, status *model.Status, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if status != nil && !status.IsValid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown status filter: %s", *status))
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if policy.CanListAll(actor) {
		reservations, err := s.repo.FindAll(ctx, status, limit, offset)
		if err != nil {
			return nil, 0, apperrors.Internal("Failed to list reservations", err)
		}
		total, err := s.repo.CountAll(ctx, status)
		if err != nil {
			return nil, 0, apperrors.Internal("Failed to count reservations", err)
		}
		return reservations, total, nil
	}

	reservations, err := s.repo.FindByRequester(ctx, actor.ID, status, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list reservations", err)
	}
	total, err := s.repo.CountByRequester(ctx, actor.ID, status)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count reservations", err)
	}
	return reservations, total, nil
}

func (s *reservationService) ListPending(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if !policy.CanDecide(actor) {
		return nil, 0, apperrors.Forbidden("Only directors and administrators can review pending reservations")
	}

	pending := model.StatusPending
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	reservations, err := s.repo.FindAll(ctx, &pending, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list pending reservations", err)
	}
	total, err := s.repo.CountAll(ctx, &pending)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count pending reservations", err)
	}
	return reservations, total, nil
}

// ListForLabInWindow returns the occupying reservations on a lab that
// overlap the window. Used by availability views.
func (s *reservationService) ListForLabInWindow(ctx context.Context, labID string, window interval.Interval) ([]*model.Reservation, error) {
	if !window.IsValid() {
		return nil, apperrors.InvalidInterval("Window end must be after window start")
	}

	if _, err := s.labs.FindByID(ctx, labID); err != nil {
		return nil, s.translateLabError(err, labID)
	}

	reservations, err := s.repo.FindByLabInWindow(ctx, labID, window)
	if err != nil {
		return nil, apperrors.Internal("Failed to list reservations for lab", err)
	}
	return reservations, nil
}

// Edit lets the requester rework a reservation while it is pending or
// waiting for changes. Any edit resets the status to pending and clears
// the decision reason; the new window is conflict-checked like a create.
func (s *reservationService) Edit(ctx context.Context, actor model.Actor, id string, update *model.ReservationUpdate) (*model.Reservation, error) {
	existing, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanEdit(actor, existing) {
		return nil, apperrors.Forbidden("Only the requester can edit a reservation")
	}
	if existing.Status.IsTerminal() {
		return nil, apperrors.AlreadyTerminal("Cancelled reservations cannot be edited")
	}
	if existing.Status != model.StatusPending && existing.Status != model.StatusNeedsChanges {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("Reservations in status %s cannot be edited", existing.Status))
	}

	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, apperrors.Validation("Reservation update validation failed", map[string]any{"errors": err.Error()})
	}

	merged := s.mergeUpdate(existing, update)
	s.sanitize(merged)

	if err := s.checkWindow(merged.Window()); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(merged); err != nil {
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{"errors": err.Error()})
	}

	from := existing.Status
	merged.Status = model.StatusPending
	merged.StatusReason = ""

	lockID, err := s.acquireLabLock(ctx, merged.LabID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLabLock(ctx, lockID)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureNoConflict(sessCtx, merged.LabID, merged.Window(), id); err != nil {
			return err
		}
		if err := s.repo.Update(sessCtx, id, merged); err != nil {
			return s.translateReservationError(err, id)
		}
		if from != model.StatusPending {
			return s.appendHistory(sessCtx, id, from, model.StatusPending)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to edit reservation", "reservation_id", id, "error", err)
		return nil, err
	}

	if from != model.StatusPending {
		s.publishStatusChange(ctx, merged, from, model.StatusPending, "")
	}

	s.cfg.Log.Info("Reservation edited", "reservation_id", id, "from_status", from)
	return merged, nil
}

// Decide moves a reservation to approved, rejected or needs_changes.
// Approval re-checks conflicts under the lab lock because a sibling
// reservation may have been approved since this one was requested.
func (s *reservationService) Decide(ctx context.Context, actor model.Actor, id string, target model.Status, reason string) (*model.Reservation, error) {
	if !policy.CanDecide(actor) {
		return nil, apperrors.Forbidden("Only directors and administrators can decide reservations")
	}

	switch target {
	case model.StatusApproved, model.StatusRejected, model.StatusNeedsChanges:
	default:
		return nil, apperrors.InvalidTransition(fmt.Sprintf("A decision cannot set status %s", target))
	}

	reason = sanitizer.NormalizeReason(reason)
	if reason == "" && (target == model.StatusRejected || target == model.StatusNeedsChanges) {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("A reason is required when setting status %s", target))
	}

	existing, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(existing.Status, target); err != nil {
		return nil, err
	}

	var lockID string
	if target == model.StatusApproved {
		lockID, err = s.acquireLabLock(ctx, existing.LabID)
		if err != nil {
			return nil, err
		}
		defer s.releaseLabLock(ctx, lockID)
	}

	var decided *model.Reservation
	var from model.Status

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		current, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.translateReservationError(err, id)
		}
		if err := s.checkTransition(current.Status, target); err != nil {
			return err
		}
		if target == model.StatusApproved {
			if err := s.ensureNoConflict(sessCtx, current.LabID, current.Window(), id); err != nil {
				return err
			}
		}

		from = current.Status
		current.Status = target
		current.StatusReason = reason

		if err := s.repo.Update(sessCtx, id, current); err != nil {
			return s.translateReservationError(err, id)
		}
		if err := s.appendHistory(sessCtx, id, from, target); err != nil {
			return err
		}

		decided = current
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to decide reservation",
			"reservation_id", id,
			"target_status", target,
			"decider_id", actor.ID,
			"error", err,
		)
		return nil, err
	}

	s.publishStatusChange(ctx, decided, from, target, reason)

	s.cfg.Log.Info("Reservation decided",
		"reservation_id", id,
		"from_status", from,
		"to_status", target,
		"decider_id", actor.ID,
	)
	return decided, nil
}

// Cancel soft-deletes a reservation. Cancellation is terminal: the slot is
// released and no further transition is accepted.
func (s *reservationService) Cancel(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error) {
	existing, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanCancel(actor, existing) {
		return nil, apperrors.Forbidden("Only the requester, a director or an administrator can cancel a reservation")
	}
	if existing.Status.IsTerminal() {
		return nil, apperrors.AlreadyTerminal("Reservation is already cancelled")
	}

	var cancelled *model.Reservation
	var from model.Status

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		current, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.translateReservationError(err, id)
		}
		if current.Status.IsTerminal() {
			return apperrors.AlreadyTerminal("Reservation is already cancelled")
		}

		from = current.Status
		current.Status = model.StatusCancelled

		if err := s.repo.Update(sessCtx, id, current); err != nil {
			return s.translateReservationError(err, id)
		}
		if err := s.appendHistory(sessCtx, id, from, model.StatusCancelled); err != nil {
			return err
		}

		cancelled = current
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "reservation_id", id, "error", err)
		return nil, err
	}

	s.publishStatusChange(ctx, cancelled, from, model.StatusCancelled, "")

	s.cfg.Log.Info("Reservation cancelled",
		"reservation_id", id,
		"from_status", from,
		"cancelled_by", actor.ID,
	)
	return cancelled, nil
}

func (s *reservationService) History(ctx context.Context, actor model.Actor, id string) ([]*model.StatusRecord, error) {
	res, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanView(actor, res) {
		return nil, apperrors.Forbidden("You do not have access to this reservation")
	}

	records, err := s.history.ListByReservation(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reservation history", err)
	}
	return records, nil
}

func (s *reservationService) findByID(ctx context.Context, id string) (*model.Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateReservationError(err, id)
	}
	return res, nil
}

func (s *reservationService) translateReservationError(err error, id string) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal("Reservation lookup failed", err)
	}
}

func (s *reservationService) translateLabError(err error, labID string) error {
	switch {
	case errors.Is(err, labserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Lab", labID)
	case errors.Is(err, labserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid lab ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal("Lab lookup failed", err)
	}
}

// checkWindow enforces the interval rules for new and edited bookings:
// non-empty and strictly in the future at decision time.
func (s *reservationService) checkWindow(window interval.Interval) error {
	if !window.IsValid() {
		return apperrors.InvalidInterval("End time must be after start time")
	}
	if !window.Start.After(s.now()) {
		return apperrors.InvalidInterval("Start time must be in the future")
	}
	return nil
}

func (s *reservationService) checkLabBookable(ctx context.Context, labID string) error {
	lab, err := s.labs.FindByID(ctx, labID)
	if err != nil {
		return s.translateLabError(err, labID)
	}
	if !lab.Active {
		return apperrors.ResourceInactive(fmt.Sprintf("Lab %s", lab.Name))
	}
	return nil
}

// resolvePlanLink verifies the optional teaching plan link. A dangling
// link is cleared rather than failing the booking.
func (s *reservationService) resolvePlanLink(ctx context.Context, res *model.Reservation) {
	if res.PlanID == "" {
		return
	}

	if _, err := s.plans.FindByID(ctx, res.PlanID); err != nil {
		if errors.Is(err, planserrors.ErrNotFound) || errors.Is(err, planserrors.ErrInvalidID) {
			s.cfg.Log.Warn("Dropping link to unknown teaching plan",
				"plan_id", res.PlanID,
				"requester_id", res.RequesterID,
			)
			res.PlanID = ""
			return
		}
		s.cfg.Log.Warn("Plan lookup failed, keeping link unverified",
			"plan_id", res.PlanID,
			"error", err,
		)
	}
}

func (s *reservationService) checkTransition(current, target model.Status) error {
	if current.IsTerminal() {
		return apperrors.AlreadyTerminal("Cancelled reservations cannot be decided")
	}
	if current == target {
		return apperrors.InvalidTransition(fmt.Sprintf("Reservation is already %s", current))
	}
	return nil
}

// ensureNoConflict runs inside the transaction. The repository query
// already filters by lab, approved status and window overlap; the loop
// re-verifies in memory so the invariant does not depend on the query
// alone.
func (s *reservationService) ensureNoConflict(ctx context.Context, labID string, window interval.Interval, excludeID string) error {
	existing, err := s.repo.FindConflicting(ctx, labID, window, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check for conflicting reservations", err)
	}

	for _, other := range existing {
		if excludeID != "" && other.ID == excludeID {
			continue
		}
		if !other.Status.BlocksWindow() {
			continue
		}
		if window.Overlaps(other.Window()) {
			return apperrors.Conflict(fmt.Sprintf(
				"Lab is already reserved from %s to %s",
				other.StartTime.Format(time.RFC3339),
				other.EndTime.Format(time.RFC3339),
			))
		}
	}
	return nil
}

// acquireLabLock inserts the advisory lock document for the lab, retrying
// a few times on contention before giving up with a conflict.
func (s *reservationService) acquireLabLock(ctx context.Context, labID string) (string, error) {
	lockID := fmt.Sprintf("lab_lock_%s", labID)

	for attempt := 0; attempt < s.cfg.LabLockRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", apperrors.Timeout("Timed out waiting for the lab lock")
			case <-time.After(s.cfg.LabLockRetryInterval):
			}
		}

		lock := &model.LabLock{
			ID:        lockID,
			LabID:     labID,
			ExpiresAt: s.now().Add(s.cfg.LabLockTTL),
		}

		_, err := s.lockRepo.Create(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Internal("Failed to acquire lab lock", err)
		}
	}

	s.cfg.Log.Warn("Lab lock contention, giving up", "lab_id", labID)
	return "", apperrors.Conflict("This lab is processing another booking request, please try again")
}

func (s *reservationService) releaseLabLock(ctx context.Context, lockID string) {
	if err := s.lockRepo.Delete(ctx, lockID); err != nil {
		// The TTL index reaps the stale lock after expiry.
		s.cfg.Log.Warn("Failed to release lab lock", "lock_id", lockID, "error", err)
	}
}

func (s *reservationService) appendHistory(ctx context.Context, reservationID string, from, to model.Status) error {
	record := &model.StatusRecord{
		ReservationID: reservationID,
		FromStatus:    from,
		ToStatus:      to,
		OccurredAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.history.Append(ctx, record); err != nil {
		return apperrors.Internal("Failed to record status transition", err)
	}
	return nil
}

func (s *reservationService) publishStatusChange(ctx context.Context, res *model.Reservation, from, to model.Status, reason string) {
	s.events.StatusChanged(ctx, events.StatusChanged{
		ReservationID: res.ID,
		LabID:         res.LabID,
		RequesterID:   res.RequesterID,
		FromStatus:    from,
		ToStatus:      to,
		Reason:        reason,
		OccurredAt:    s.now().UTC(),
	})
}

func (s *reservationService) mergeUpdate(existing *model.Reservation, update *model.ReservationUpdate) *model.Reservation {
	merged := *existing

	if update.StartTime != nil {
		merged.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		merged.EndTime = *update.EndTime
	}
	if update.Title != "" {
		merged.Title = update.Title
	}
	if update.Class != nil {
		merged.Class = *update.Class
	}
	if update.Description != nil {
		merged.Description = *update.Description
	}

	return &merged
}

func (s *reservationService) sanitize(res *model.Reservation) {
	res.LabID = strings.TrimSpace(res.LabID)
	res.PlanID = strings.TrimSpace(res.PlanID)
	res.Title = sanitizer.NormalizeTitle(res.Title)
	res.Class = sanitizer.NormalizeTitle(res.Class)
	res.Description = strings.TrimSpace(res.Description)
}
