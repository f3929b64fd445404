package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	labserrors "labbook/internal/labs/errors"
	planserrors "labbook/internal/plans/errors"
	reservationserrors "labbook/internal/reservations/errors"
	"labbook/internal/reservations/repository"
	"labbook/internal/reservations/validator"
	"labbook/pkg/config"
	mongotx "labbook/pkg/db/mongo"
	apperrors "labbook/pkg/errors"
	"labbook/pkg/interval"
	"labbook/pkg/logger"
	"labbook/pkg/model"
)

const (
	labID      = "65f1a2b3c4d5e6f7a8b9c0d1"
	otherLabID = "65f1a2b3c4d5e6f7a8b9c0d2"
	planID     = "65f1a2b3c4d5e6f7a8b9c0d3"
)

var (
	testNow    = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)
	instructor = model.Actor{ID: "teacher-1", Role: model.RoleInstructor}
	otherInstr = model.Actor{ID: "teacher-2", Role: model.RoleInstructor}
	director   = model.Actor{ID: "director-1", Role: model.RoleDirector}
)

// at returns an instant a number of hours past the injected test clock.
func at(hours float64) time.Time {
	return testNow.Add(time.Duration(hours * float64(time.Hour)))
}

type fakeReservationRepo struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	store map[string]*model.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{store: make(map[string]*model.Reservation)}
}

func (f *fakeReservationRepo) Create(_ context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	res.ID = primitive.NewObjectID().Hex()
	res.CreatedAt = time.Now().UTC()
	clone := *res
	f.store[res.ID] = &clone
	return nil
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res, ok := f.store[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	clone := *res
	return &clone, nil
}

func (f *fakeReservationRepo) FindAll(_ context.Context, status *model.Status, _ int, _ int64) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Reservation
	for _, res := range f.store {
		if status == nil || res.Status == *status {
			clone := *res
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) CountAll(ctx context.Context, status *model.Status) (int64, error) {
	all, _ := f.FindAll(ctx, status, 0, 0)
	return int64(len(all)), nil
}

func (f *fakeReservationRepo) FindByRequester(_ context.Context, requesterID string, status *model.Status, _ int, _ int64) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Reservation
	for _, res := range f.store {
		if res.RequesterID != requesterID {
			continue
		}
		if status == nil || res.Status == *status {
			clone := *res
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) CountByRequester(ctx context.Context, requesterID string, status *model.Status) (int64, error) {
	own, _ := f.FindByRequester(ctx, requesterID, status, 0, 0)
	return int64(len(own)), nil
}

func (f *fakeReservationRepo) FindConflicting(_ context.Context, lab string, window interval.Interval, excludeID string) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Reservation
	for _, res := range f.store {
		if res.LabID != lab || res.ID == excludeID {
			continue
		}
		if !res.Status.BlocksWindow() {
			continue
		}
		if window.Overlaps(res.Window()) {
			clone := *res
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) FindByLabInWindow(_ context.Context, lab string, window interval.Interval) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Reservation
	for _, res := range f.store {
		if res.LabID != lab || !res.Status.InFlight() {
			continue
		}
		if window.Overlaps(res.Window()) {
			clone := *res
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) Update(_ context.Context, id string, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.store[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	clone := *res
	clone.ID = id
	f.store[id] = &clone
	return nil
}

// ExecuteTransaction serializes callbacks the way competing MongoDB
// transactions on the same documents would.
func (f *fakeReservationRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(nil)
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []*model.StatusRecord
}

func (f *fakeHistoryRepo) Append(_ context.Context, record *model.StatusRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clone := *record
	clone.ID = primitive.NewObjectID().Hex()
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeHistoryRepo) ListByReservation(_ context.Context, reservationID string) ([]*model.StatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.StatusRecord
	for _, r := range f.records {
		if r.ReservationID == reservationID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeLockRepo struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{held: make(map[string]bool)}
}

func (f *fakeLockRepo) Create(_ context.Context, lock *model.LabLock) (*model.LabLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.held[lock.ID] {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}
	f.held[lock.ID] = true
	return lock, nil
}

func (f *fakeLockRepo) Delete(_ context.Context, lockID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.held, lockID)
	return nil
}

func (f *fakeLockRepo) heldCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.held)
}

type fakeLabRegistry struct {
	labs map[string]*model.Lab
}

func (f *fakeLabRegistry) FindByID(_ context.Context, id string) (*model.Lab, error) {
	lab, ok := f.labs[id]
	if !ok {
		return nil, labserrors.ErrNotFound
	}
	clone := *lab
	return &clone, nil
}

type fakePlanRegistry struct {
	plans map[string]*model.Plan
}

func (f *fakePlanRegistry) FindByID(_ context.Context, id string) (*model.Plan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, planserrors.ErrNotFound
	}
	clone := *plan
	return &clone, nil
}

type fixture struct {
	repo    *fakeReservationRepo
	history *fakeHistoryRepo
	locks   *fakeLockRepo
	labs    *fakeLabRegistry
	plans   *fakePlanRegistry
	cfg     *config.Config
	svc     *reservationService
}

func newFixture() *fixture {
	cfg := &config.Config{
		LabLockTTL:           10 * time.Second,
		LabLockRetryAttempts: 100,
		LabLockRetryInterval: time.Millisecond,
		Log:                  logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"}),
	}

	f := &fixture{
		repo:    newFakeReservationRepo(),
		history: &fakeHistoryRepo{},
		locks:   newFakeLockRepo(),
		labs: &fakeLabRegistry{labs: map[string]*model.Lab{
			labID: {ID: labID, Name: "Chemistry Lab", Active: true},
		}},
		plans: &fakePlanRegistry{plans: map[string]*model.Plan{
			planID: {ID: planID, AuthorID: instructor.ID, Title: "Acids and bases"},
		}},
		cfg: cfg,
	}

	svc := NewReservationService(
		f.repo, f.history, f.locks, f.labs, f.plans, nil,
		validator.NewReservationValidator(cfg.Log), cfg,
	).(*reservationService)
	svc.now = func() time.Time { return testNow }

	f.svc = svc
	return f
}

func (f *fixture) newRequest(startHours, endHours float64) *model.Reservation {
	return &model.Reservation{
		LabID:     labID,
		StartTime: at(startHours),
		EndTime:   at(endHours),
		Title:     "Chemistry practical",
	}
}

func (f *fixture) seed(requester string, status model.Status, startHours, endHours float64) string {
	id := primitive.NewObjectID().Hex()
	f.repo.store[id] = &model.Reservation{
		ID:          id,
		LabID:       labID,
		RequesterID: requester,
		StartTime:   at(startHours),
		EndTime:     at(endHours),
		Title:       "Seeded session",
		Status:      status,
	}
	return id
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, err)
	}
}

func TestCreatePendingReservation(t *testing.T) {
	f := newFixture()
	res := f.newRequest(2, 3)

	if err := f.svc.Create(context.Background(), instructor, res); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if res.ID == "" {
		t.Error("expected an assigned ID")
	}
	if res.Status != model.StatusPending {
		t.Errorf("status = %s, want pending", res.Status)
	}
	if res.RequesterID != instructor.ID {
		t.Errorf("requester = %s, want %s", res.RequesterID, instructor.ID)
	}
	if f.locks.heldCount() != 0 {
		t.Error("lab lock should be released after create")
	}
	if len(f.history.records) != 0 {
		t.Error("creation is not a transition and must not append history")
	}
}

func TestCreateForbiddenForDeciders(t *testing.T) {
	f := newFixture()

	err := f.svc.Create(context.Background(), director, f.newRequest(2, 3))
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestCreateInvalidIntervals(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
	}{
		{"end before start", 3, 2},
		{"zero length", 2, 2},
		{"start equals now", 0, 1},
		{"start in the past", -2, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			err := f.svc.Create(context.Background(), instructor, f.newRequest(tt.start, tt.end))
			assertCode(t, err, apperrors.CodeInvalidInterval)
		})
	}
}

func TestCreateLabChecks(t *testing.T) {
	f := newFixture()

	req := f.newRequest(2, 3)
	req.LabID = otherLabID
	assertCode(t, f.svc.Create(context.Background(), instructor, req), apperrors.CodeNotFound)

	f.labs.labs[labID].Active = false
	assertCode(t, f.svc.Create(context.Background(), instructor, f.newRequest(2, 3)), apperrors.CodeResourceInactive)
}

func TestCreateBlockedByApprovedOverlap(t *testing.T) {
	f := newFixture()
	f.seed(otherInstr.ID, model.StatusApproved, 2, 3)

	err := f.svc.Create(context.Background(), instructor, f.newRequest(2.5, 3.5))
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCreateAllowsBackToBackWithApproved(t *testing.T) {
	f := newFixture()
	f.seed(otherInstr.ID, model.StatusApproved, 2, 3)

	// Half-open windows: [2,3) then [3,4) share only the boundary instant.
	if err := f.svc.Create(context.Background(), instructor, f.newRequest(3, 4)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestCreateAllowsCompetingPending(t *testing.T) {
	f := newFixture()
	f.seed(otherInstr.ID, model.StatusPending, 2, 3)

	// Overlapping pending requests queue; only approval settles the window.
	if err := f.svc.Create(context.Background(), instructor, f.newRequest(2.5, 3.5)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestCreatePlanLink(t *testing.T) {
	f := newFixture()

	linked := f.newRequest(2, 3)
	linked.PlanID = planID
	if err := f.svc.Create(context.Background(), instructor, linked); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if linked.PlanID != planID {
		t.Errorf("valid plan link should be kept, got %q", linked.PlanID)
	}

	dangling := f.newRequest(4, 5)
	dangling.PlanID = "65f1a2b3c4d5e6f7a8b9c0ff"
	if err := f.svc.Create(context.Background(), instructor, dangling); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if dangling.PlanID != "" {
		t.Errorf("dangling plan link should be dropped, got %q", dangling.PlanID)
	}
}

func TestCreateGivesUpOnHeldLock(t *testing.T) {
	f := newFixture()
	f.cfg.LabLockRetryAttempts = 2
	f.locks.held["lab_lock_"+labID] = true

	err := f.svc.Create(context.Background(), instructor, f.newRequest(2, 3))
	assertCode(t, err, apperrors.CodeConflict)

	if len(f.repo.store) != 0 {
		t.Error("no reservation should be written when the lock is never acquired")
	}
}

func TestEditPermissionsAndStatuses(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)
	title := "Moved session"

	_, err := f.svc.Edit(context.Background(), otherInstr, id, &model.ReservationUpdate{Title: title})
	assertCode(t, err, apperrors.CodeForbidden)

	// Deciders review requests, they do not rework them.
	_, err = f.svc.Edit(context.Background(), director, id, &model.ReservationUpdate{Title: title})
	assertCode(t, err, apperrors.CodeForbidden)

	approved := f.seed(instructor.ID, model.StatusApproved, 5, 6)
	_, err = f.svc.Edit(context.Background(), instructor, approved, &model.ReservationUpdate{Title: title})
	assertCode(t, err, apperrors.CodeInvalidTransition)

	cancelled := f.seed(instructor.ID, model.StatusCancelled, 7, 8)
	_, err = f.svc.Edit(context.Background(), instructor, cancelled, &model.ReservationUpdate{Title: title})
	assertCode(t, err, apperrors.CodeAlreadyTerminal)
}

func TestEditNeedsChangesReturnsToPending(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusNeedsChanges, 2, 3)
	f.repo.store[id].StatusReason = "please shorten the slot"

	start := at(2)
	end := at(2.5)
	updated, err := f.svc.Edit(context.Background(), instructor, id, &model.ReservationUpdate{
		StartTime: &start,
		EndTime:   &end,
	})
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	if updated.Status != model.StatusPending {
		t.Errorf("status = %s, want pending", updated.Status)
	}
	if updated.StatusReason != "" {
		t.Errorf("status reason should be cleared, got %q", updated.StatusReason)
	}

	records, _ := f.history.ListByReservation(context.Background(), id)
	if len(records) != 1 {
		t.Fatalf("expected one transition record, got %d", len(records))
	}
	if records[0].FromStatus != model.StatusNeedsChanges || records[0].ToStatus != model.StatusPending {
		t.Errorf("record = %s->%s, want needs_changes->pending", records[0].FromStatus, records[0].ToStatus)
	}
}

func TestEditPendingLeavesNoHistory(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)

	if _, err := f.svc.Edit(context.Background(), instructor, id, &model.ReservationUpdate{Title: "Moved session"}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if len(f.history.records) != 0 {
		t.Error("pending to pending is not a transition and must not append history")
	}
}

func TestEditConflictLeavesReservationUnchanged(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)
	f.seed(otherInstr.ID, model.StatusApproved, 5, 6)

	start := at(5.5)
	end := at(6.5)
	_, err := f.svc.Edit(context.Background(), instructor, id, &model.ReservationUpdate{
		StartTime: &start,
		EndTime:   &end,
	})
	assertCode(t, err, apperrors.CodeConflict)

	current, _ := f.repo.FindByID(context.Background(), id)
	if !current.StartTime.Equal(at(2)) {
		t.Error("failed edit must not change the stored reservation")
	}
}

func TestDecideRequiresDecider(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)

	_, err := f.svc.Decide(context.Background(), instructor, id, model.StatusApproved, "")
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestDecideRejectRequiresReason(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)

	_, err := f.svc.Decide(context.Background(), director, id, model.StatusRejected, "   ")
	assertCode(t, err, apperrors.CodeInvalidTransition)

	decided, err := f.svc.Decide(context.Background(), director, id, model.StatusRejected, "schedule clash")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decided.Status != model.StatusRejected {
		t.Errorf("status = %s, want rejected", decided.Status)
	}
	if decided.StatusReason != "schedule clash" {
		t.Errorf("reason = %q, want %q", decided.StatusReason, "schedule clash")
	}
}

func TestDecideApprove(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)

	decided, err := f.svc.Decide(context.Background(), director, id, model.StatusApproved, "")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if decided.Status != model.StatusApproved {
		t.Errorf("status = %s, want approved", decided.Status)
	}
	if f.locks.heldCount() != 0 {
		t.Error("lab lock should be released after approval")
	}

	records, _ := f.history.ListByReservation(context.Background(), id)
	if len(records) != 1 || records[0].FromStatus != model.StatusPending || records[0].ToStatus != model.StatusApproved {
		t.Errorf("expected one pending->approved record, got %+v", records)
	}
}

func TestDecideGuards(t *testing.T) {
	f := newFixture()

	cancelled := f.seed(instructor.ID, model.StatusCancelled, 2, 3)
	_, err := f.svc.Decide(context.Background(), director, cancelled, model.StatusApproved, "")
	assertCode(t, err, apperrors.CodeAlreadyTerminal)

	approved := f.seed(instructor.ID, model.StatusApproved, 5, 6)
	_, err = f.svc.Decide(context.Background(), director, approved, model.StatusApproved, "")
	assertCode(t, err, apperrors.CodeInvalidTransition)

	pending := f.seed(instructor.ID, model.StatusPending, 7, 8)
	_, err = f.svc.Decide(context.Background(), director, pending, model.StatusCancelled, "")
	assertCode(t, err, apperrors.CodeInvalidTransition)
}

func TestCompetingRequestsOnlyOneApproval(t *testing.T) {
	f := newFixture()
	first := f.seed(instructor.ID, model.StatusPending, 2, 3)
	second := f.seed(otherInstr.ID, model.StatusPending, 2.5, 3.5)

	if _, err := f.svc.Decide(context.Background(), director, second, model.StatusApproved, ""); err != nil {
		t.Fatalf("approving the first competing request failed: %v", err)
	}

	_, err := f.svc.Decide(context.Background(), director, first, model.StatusApproved, "")
	assertCode(t, err, apperrors.CodeConflict)

	current, _ := f.repo.FindByID(context.Background(), first)
	if current.Status != model.StatusPending {
		t.Errorf("losing request should stay pending, got %s", current.Status)
	}
}

func TestConcurrentApprovalsExactlyOneWins(t *testing.T) {
	f := newFixture()
	ids := []string{
		f.seed(instructor.ID, model.StatusPending, 2, 3),
		f.seed(otherInstr.ID, model.StatusPending, 2.5, 3.5),
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Decide(context.Background(), director, id, model.StatusApproved, "")
		}(i, id)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.AsAppError(err).Code == apperrors.CodeConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one approval and one conflict, got %d approvals, %d conflicts", successes, conflicts)
	}

	var approved int
	for _, id := range ids {
		res, _ := f.repo.FindByID(context.Background(), id)
		if res.Status == model.StatusApproved {
			approved++
		}
	}
	if approved != 1 {
		t.Fatalf("expected exactly one approved reservation, got %d", approved)
	}
}

func TestCancelPermissionsAndAudit(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)

	_, err := f.svc.Cancel(context.Background(), otherInstr, id)
	assertCode(t, err, apperrors.CodeForbidden)

	cancelled, err := f.svc.Cancel(context.Background(), director, id)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	records, _ := f.history.ListByReservation(context.Background(), id)
	if len(records) != 1 || records[0].FromStatus != model.StatusPending || records[0].ToStatus != model.StatusCancelled {
		t.Errorf("expected one pending->cancelled record, got %+v", records)
	}
}

func TestCancelIsTerminal(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusCancelled, 2, 3)

	_, err := f.svc.Cancel(context.Background(), instructor, id)
	assertCode(t, err, apperrors.CodeAlreadyTerminal)

	if len(f.history.records) != 0 {
		t.Error("rejected cancel must leave the audit trail untouched")
	}
}

func TestGetByIDVisibility(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)

	if _, err := f.svc.GetByID(context.Background(), instructor, id); err != nil {
		t.Errorf("requester should see their reservation: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), director, id); err != nil {
		t.Errorf("director should see any reservation: %v", err)
	}

	_, err := f.svc.GetByID(context.Background(), otherInstr, id)
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.GetByID(context.Background(), director, primitive.NewObjectID().Hex())
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestListForActorScoping(t *testing.T) {
	f := newFixture()
	f.seed(instructor.ID, model.StatusPending, 2, 3)
	f.seed(otherInstr.ID, model.StatusPending, 4, 5)

	own, total, err := f.svc.ListForActor(context.Background(), instructor, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListForActor() error = %v", err)
	}
	if len(own) != 1 || total != 1 {
		t.Errorf("instructor should only see their own: got %d (total %d)", len(own), total)
	}

	all, total, err := f.svc.ListForActor(context.Background(), director, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListForActor() error = %v", err)
	}
	if len(all) != 2 || total != 2 {
		t.Errorf("director should see everything: got %d (total %d)", len(all), total)
	}

	bogus := model.Status("archived")
	_, _, err = f.svc.ListForActor(context.Background(), director, &bogus, 10, 0)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestListPendingRequiresDecider(t *testing.T) {
	f := newFixture()
	f.seed(instructor.ID, model.StatusPending, 2, 3)
	f.seed(otherInstr.ID, model.StatusApproved, 4, 5)

	_, _, err := f.svc.ListPending(context.Background(), instructor, 10, 0)
	assertCode(t, err, apperrors.CodeForbidden)

	pending, total, err := f.svc.ListPending(context.Background(), director, 10, 0)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 || total != 1 {
		t.Errorf("expected one pending reservation, got %d (total %d)", len(pending), total)
	}
}

func TestListForLabInWindow(t *testing.T) {
	f := newFixture()
	f.seed(instructor.ID, model.StatusPending, 2, 3)
	f.seed(otherInstr.ID, model.StatusApproved, 3, 4)
	f.seed(otherInstr.ID, model.StatusCancelled, 2, 3)
	f.seed(instructor.ID, model.StatusPending, 10, 11)

	_, err := f.svc.ListForLabInWindow(context.Background(), labID, interval.Interval{Start: at(3), End: at(1)})
	assertCode(t, err, apperrors.CodeInvalidInterval)

	_, err = f.svc.ListForLabInWindow(context.Background(), otherLabID, interval.Interval{Start: at(1), End: at(5)})
	assertCode(t, err, apperrors.CodeNotFound)

	inWindow, err := f.svc.ListForLabInWindow(context.Background(), labID, interval.Interval{Start: at(1), End: at(5)})
	if err != nil {
		t.Fatalf("ListForLabInWindow() error = %v", err)
	}
	if len(inWindow) != 2 {
		t.Errorf("expected the two in-flight overlapping reservations, got %d", len(inWindow))
	}
}

func TestHistoryVisibility(t *testing.T) {
	f := newFixture()
	id := f.seed(instructor.ID, model.StatusPending, 2, 3)

	if _, err := f.svc.Decide(context.Background(), director, id, model.StatusNeedsChanges, "shorten the slot"); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	_, err := f.svc.History(context.Background(), otherInstr, id)
	assertCode(t, err, apperrors.CodeForbidden)

	records, err := f.svc.History(context.Background(), instructor, id)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 || records[0].ToStatus != model.StatusNeedsChanges {
		t.Errorf("expected one pending->needs_changes record, got %+v", records)
	}
}

// Compile-time checks that the fakes satisfy the repository contracts.
var (
	_ repository.ReservationRepository   = (*fakeReservationRepo)(nil)
	_ repository.StatusHistoryRepository = (*fakeHistoryRepo)(nil)
	_ repository.LabLockRepository       = (*fakeLockRepo)(nil)
)
