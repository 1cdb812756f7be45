package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubTimesheetRepo struct {
	mu        sync.Mutex
	entries   []*domain.TimeEntry
	overrides map[string]int  // "userID|date" -> capacity
	batchKeys map[string]bool // committed idempotency keys
	nextID    int64

	insertErr error // if set, InsertEntry returns this error once then nil
	batchErr  error // if set, InsertBatch always fails
}

func newStubTimesheetRepo() *stubTimesheetRepo {
	return &stubTimesheetRepo{overrides: map[string]int{}, batchKeys: map[string]bool{}}
}

func (r *stubTimesheetRepo) InsertEntry(_ context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		err := r.insertErr
		r.insertErr = nil
		return nil, err
	}
	r.nextID++
	clone := *e
	clone.ID = r.nextID
	r.entries = append(r.entries, &clone)
	return &clone, nil
}

// InsertBatch mirrors the real repository's transaction: entries and the
// idempotency key commit together or not at all.
func (r *stubTimesheetRepo) InsertBatch(_ context.Context, entries []*domain.TimeEntry, idempotencyKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batchErr != nil {
		return r.batchErr
	}
	for _, e := range entries {
		r.nextID++
		clone := *e
		clone.ID = r.nextID
		r.entries = append(r.entries, &clone)
	}
	if idempotencyKey != "" {
		r.batchKeys[idempotencyKey] = true
	}
	return nil
}

func (r *stubTimesheetRepo) DeleteEntry(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrEntryNotFound
}

func (r *stubTimesheetRepo) FindEntry(_ context.Context, id int64) (*domain.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (r *stubTimesheetRepo) ListEntries(_ context.Context, f ports.EntryFilter) ([]*domain.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TimeEntry
	for _, e := range r.entries {
		if f.UserIDs != nil && !containsID(f.UserIDs, e.UserID) {
			continue
		}
		if f.DateFrom != "" && e.EntryDate < f.DateFrom {
			continue
		}
		if f.DateTo != "" && e.EntryDate > f.DateTo {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubTimesheetRepo) HoursForDay(_ context.Context, userID int64, date string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, e := range r.entries {
		if e.UserID == userID && e.EntryDate == date {
			total += e.Hours
		}
	}
	return total, nil
}

func (r *stubTimesheetRepo) CapacityForDay(_ context.Context, userID int64, date string, defaultHours int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.overrides[dayKey(userID, date)]; ok {
		return c, nil
	}
	return defaultHours, nil
}

func (r *stubTimesheetRepo) UpsertCapacityOverride(_ context.Context, o *domain.CapacityOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[dayKey(o.UserID, o.Date)] = o.CapacityH
	return nil
}

// stubReferential backs both the referential repository and the scope
// resolver. Scope maps are keyed by user id.
type stubReferential struct {
	missionsByCode map[string]*domain.Mission
	missionScope   map[int64][]int64
	visibleUsers   map[int64][]int64
}

func newStubReferential() *stubReferential {
	return &stubReferential{
		missionsByCode: map[string]*domain.Mission{},
		missionScope:   map[int64][]int64{},
		visibleUsers:   map[int64][]int64{},
	}
}

func (r *stubReferential) MissionIDsFor(_ context.Context, actor domain.Actor) ([]int64, error) {
	if actor.Role == domain.RoleAdmin || actor.Role == domain.RoleBoard {
		var all []int64
		for _, m := range r.missionsByCode {
			all = append(all, m.ID)
		}
		return all, nil
	}
	return r.missionScope[actor.UserID], nil
}

func (r *stubReferential) VisibleUserIDsFor(_ context.Context, actor domain.Actor, _ []int64) ([]int64, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleBoard:
		return nil, nil
	case domain.RoleLead:
		return r.visibleUsers[actor.UserID], nil
	default:
		return []int64{actor.UserID}, nil
	}
}

func (r *stubReferential) CreateClient(_ context.Context, c *domain.Client) (*domain.Client, error) {
	return c, nil
}
func (r *stubReferential) ListClients(context.Context) ([]*domain.Client, error) { return nil, nil }

func (r *stubReferential) CreateMission(_ context.Context, m *domain.Mission) (*domain.Mission, error) {
	m.ID = int64(len(r.missionsByCode) + 1)
	r.missionsByCode[m.Code] = m
	return m, nil
}
func (r *stubReferential) UpdateMission(context.Context, *domain.Mission) error { return nil }

func (r *stubReferential) FindMissionByID(_ context.Context, id int64) (*domain.Mission, error) {
	for _, m := range r.missionsByCode {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.ErrMissionNotFound
}

func (r *stubReferential) FindMissionByCode(_ context.Context, code string) (*domain.Mission, error) {
	m, ok := r.missionsByCode[code]
	if !ok {
		return nil, domain.ErrMissionNotFound
	}
	return m, nil
}

func (r *stubReferential) ListMissions(_ context.Context, scope []int64, includeFinancial bool) ([]*domain.Mission, error) {
	var out []*domain.Mission
	for _, m := range r.missionsByCode {
		if scope != nil && !containsID(scope, m.ID) {
			continue
		}
		clone := *m
		if !includeFinancial {
			clone.SoldAmountEUR = 0
			clone.DailyCostEUR = 0
		}
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubReferential) SetLead(context.Context, int64, int64) error { return nil }

func (r *stubReferential) Assign(context.Context, *domain.MissionAssignment) error { return nil }

type stubAuthRepo struct {
	byUsername map[string]*domain.User
}

func newStubAuthRepo(users ...*domain.User) *stubAuthRepo {
	r := &stubAuthRepo{byUsername: map[string]*domain.User{}}
	for _, u := range users {
		r.byUsername[u.Username] = u
	}
	return r
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *stubAuthRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, ok := r.byUsername[u.Username]; ok {
		return nil, domain.ErrUserExists
	}
	clone := *u
	clone.ID = int64(len(r.byUsername) + 1)
	r.byUsername[u.Username] = &clone
	return &clone, nil
}

func (r *stubAuthRepo) Deactivate(_ context.Context, id int64) error {
	for _, u := range r.byUsername {
		if u.ID == id {
			u.Active = false
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubAuthRepo) List(context.Context) ([]*domain.User, error) { return nil, nil }

// stubDedup reads the same key ledger the stub repo writes, like the real
// dedup reading the import_batches table InsertBatch commits into.
type stubDedup struct {
	repo *stubTimesheetRepo
}

func (d *stubDedup) IsDuplicate(_ context.Context, key string) (bool, error) {
	d.repo.mu.Lock()
	defer d.repo.mu.Unlock()
	return d.repo.batchKeys[key], nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const testDay = "2026-08-17"

type timesheetFixture struct {
	svc   *TimesheetService
	repo  *stubTimesheetRepo
	ref   *stubReferential
	users *stubAuthRepo
	dedup *stubDedup
}

func newTimesheetFixture() *timesheetFixture {
	repo := newStubTimesheetRepo()
	ref := newStubReferential()
	users := newStubAuthRepo(
		&domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin, Active: true},
		&domain.User{ID: 2, Username: "lead1", Role: domain.RoleLead, Active: true},
		&domain.User{ID: 3, Username: "consult1", Role: domain.RoleConsultant, Active: true},
		&domain.User{ID: 4, Username: "consult2", Role: domain.RoleConsultant, Active: true},
	)
	dedup := &stubDedup{repo: repo}

	ref.missionsByCode["M1"] = &domain.Mission{ID: 10, Code: "M1", Status: domain.MissionOngoing, Active: true}
	ref.missionsByCode["M3"] = &domain.Mission{ID: 30, Code: "M3", Status: domain.MissionOngoing, Active: true}
	ref.missionScope[2] = []int64{10}    // lead1 leads M1
	ref.missionScope[3] = []int64{10}    // consult1 assigned to M1
	ref.visibleUsers[2] = []int64{2, 3}  // lead1 sees self and consult1

	svc := NewTimesheetService(repo, ref, users, dedup, 8, zerolog.Nop())
	return &timesheetFixture{svc: svc, repo: repo, ref: ref, users: users, dedup: dedup}
}

var (
	actorAdmin   = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	actorLead    = domain.Actor{UserID: 2, Role: domain.RoleLead}
	actorConsult = domain.Actor{UserID: 3, Role: domain.RoleConsultant}
	actorBoard   = domain.Actor{UserID: 5, Role: domain.RoleBoard}
)

func mid(id int64) *int64 { return &id }

// ---------------------------------------------------------------------------
// LogTime
// ---------------------------------------------------------------------------

func TestLogTime_ConsultantOwnEntry(t *testing.T) {
	f := newTimesheetFixture()

	entry, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		EntryDate: testDay,
		MissionID: mid(10),
		Category:  domain.CategoryBillable,
		Hours:     8,
	})
	if err != nil {
		t.Fatalf("LogTime: %v", err)
	}
	if entry.UserID != actorConsult.UserID {
		t.Errorf("entry user = %d, want %d", entry.UserID, actorConsult.UserID)
	}
	if len(f.repo.entries) != 1 {
		t.Errorf("repo has %d entries, want 1", len(f.repo.entries))
	}
}

func TestLogTime_BoardDenied(t *testing.T) {
	f := newTimesheetFixture()

	_, err := f.svc.LogTime(context.Background(), actorBoard, ports.LogTimeInput{
		EntryDate: testDay, Category: domain.CategoryInternal, Hours: 4,
	})
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}
	if len(f.repo.entries) != 0 {
		t.Error("denied write reached storage")
	}
}

func TestLogTime_OnBehalfRequiresAdmin(t *testing.T) {
	f := newTimesheetFixture()

	_, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		UserID: 4, EntryDate: testDay, Category: domain.CategoryInternal, Hours: 4,
	})
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}
	if denied.Scope != domain.ScopeOtherUser {
		t.Errorf("scope = %q, want %q", denied.Scope, domain.ScopeOtherUser)
	}

	if _, err := f.svc.LogTime(context.Background(), actorAdmin, ports.LogTimeInput{
		UserID: 4, EntryDate: testDay, Category: domain.CategoryInternal, Hours: 4,
	}); err != nil {
		t.Fatalf("admin on-behalf write: %v", err)
	}
}

func TestLogTime_OutOfMissionScope(t *testing.T) {
	f := newTimesheetFixture()

	// consult1 is staffed on M1 (id 10), not M3 (id 30).
	_, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		EntryDate: testDay, MissionID: mid(30), Category: domain.CategoryBillable, Hours: 4,
	})
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}
	if denied.Scope != domain.ScopeOutOfMission {
		t.Errorf("scope = %q, want %q", denied.Scope, domain.ScopeOutOfMission)
	}
}

func TestLogTime_CapacityExceeded(t *testing.T) {
	f := newTimesheetFixture()

	if _, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		EntryDate: testDay, Category: domain.CategoryInternal, Hours: 8,
	}); err != nil {
		t.Fatalf("first write: %v", err)
	}

	_, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		EntryDate: testDay, Category: domain.CategoryInternal, Hours: 1,
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(f.repo.entries) != 1 {
		t.Errorf("repo has %d entries, want 1", len(f.repo.entries))
	}
}

func TestLogTime_CapacityOverrideRaisesCeiling(t *testing.T) {
	f := newTimesheetFixture()
	f.repo.overrides[dayKey(3, testDay)] = 12

	for _, hours := range []int{8, 4} {
		if _, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
			EntryDate: testDay, Category: domain.CategoryInternal, Hours: hours,
		}); err != nil {
			t.Fatalf("write of %dh under 12h override: %v", hours, err)
		}
	}
}

func TestLogTime_RejectsBadHoursBucket(t *testing.T) {
	f := newTimesheetFixture()

	for _, hours := range []int{0, 3, 7, 9} {
		_, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
			EntryDate: testDay, Category: domain.CategoryInternal, Hours: hours,
		})
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("hours=%d: expected ValidationError, got %v", hours, err)
		}
	}
}

func TestLogTime_RetriesTransientStorageError(t *testing.T) {
	f := newTimesheetFixture()
	f.repo.insertErr = &domain.StorageError{Op: "insert entry", Transient: true, Err: errors.New("busy")}

	if _, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		EntryDate: testDay, Category: domain.CategoryInternal, Hours: 4,
	}); err != nil {
		t.Fatalf("transient error should be retried once: %v", err)
	}
	if len(f.repo.entries) != 1 {
		t.Errorf("repo has %d entries, want 1", len(f.repo.entries))
	}
}

// Concurrent writers on the same (user, day) serialize on the key lock, so
// the daily ceiling holds under contention: with 8h capacity and four 4h
// writes, exactly two commit.
func TestLogTime_ConcurrentWritesHoldCeiling(t *testing.T) {
	f := newTimesheetFixture()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
				EntryDate: testDay, Category: domain.CategoryInternal, Hours: 4,
			})
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
		} else {
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("unexpected error kind: %v", err)
			}
		}
	}
	if committed != 2 {
		t.Errorf("%d writes committed, want 2", committed)
	}
	total, _ := f.repo.HoursForDay(context.Background(), 3, testDay)
	if total != 8 {
		t.Errorf("committed hours = %d, want 8", total)
	}
}

// ---------------------------------------------------------------------------
// DeleteEntry
// ---------------------------------------------------------------------------

func TestDeleteEntry_OwnOnly(t *testing.T) {
	f := newTimesheetFixture()
	entry, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		EntryDate: testDay, Category: domain.CategoryInternal, Hours: 4,
	})
	if err != nil {
		t.Fatal(err)
	}

	other := domain.Actor{UserID: 4, Role: domain.RoleConsultant}
	err = f.svc.DeleteEntry(context.Background(), other, entry.ID)
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}

	if err := f.svc.DeleteEntry(context.Background(), actorConsult, entry.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.svc.DeleteEntry(context.Background(), actorAdmin, entry.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound after delete, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// ImportBatch
// ---------------------------------------------------------------------------

func TestImportBatch_CommitsAndMarksKey(t *testing.T) {
	f := newTimesheetFixture()

	result, err := f.svc.ImportBatch(context.Background(), actorLead, ports.ImportInput{
		IdempotencyKey: "batch-1",
		Rows: []ports.ImportRow{
			{EntryDate: testDay, Username: "consult1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 8},
			{EntryDate: testDay, Username: "lead1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 4},
		},
	})
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}
	if result.Imported != 2 || result.AlreadyProcessed {
		t.Errorf("result = %+v, want 2 imported", result)
	}
	if !f.repo.batchKeys["batch-1"] {
		t.Error("idempotency key not committed with the batch")
	}

	// Replaying the same key immediately after the commit is a no-op.
	replay, err := f.svc.ImportBatch(context.Background(), actorLead, ports.ImportInput{
		IdempotencyKey: "batch-1",
		Rows: []ports.ImportRow{
			{EntryDate: testDay, Username: "lead1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 4},
		},
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.AlreadyProcessed || len(f.repo.entries) != 2 {
		t.Errorf("replay = %+v with %d entries, want no-op on 2 entries", replay, len(f.repo.entries))
	}
}

func TestImportBatch_IdempotentReplay(t *testing.T) {
	f := newTimesheetFixture()
	f.repo.batchKeys["batch-1"] = true

	result, err := f.svc.ImportBatch(context.Background(), actorLead, ports.ImportInput{
		IdempotencyKey: "batch-1",
		Rows: []ports.ImportRow{
			{EntryDate: testDay, Username: "lead1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 4},
		},
	})
	if err != nil {
		t.Fatalf("ImportBatch replay: %v", err)
	}
	if !result.AlreadyProcessed || result.Imported != 0 {
		t.Errorf("result = %+v, want replay with 0 imported", result)
	}
	if len(f.repo.entries) != 0 {
		t.Error("replayed batch wrote entries")
	}
}

// A failing batch leaves zero rows and an unmarked key, so the client can
// safely retry with the same key.
func TestImportBatch_AtomicOnStorageFailure(t *testing.T) {
	f := newTimesheetFixture()
	f.repo.batchErr = errors.New("disk full")

	_, err := f.svc.ImportBatch(context.Background(), actorLead, ports.ImportInput{
		IdempotencyKey: "batch-1",
		Rows: []ports.ImportRow{
			{EntryDate: testDay, Username: "lead1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 4},
		},
	})
	if err == nil {
		t.Fatal("expected error from failing batch")
	}
	if len(f.repo.entries) != 0 {
		t.Error("failed batch left entries behind")
	}
	if f.repo.batchKeys["batch-1"] {
		t.Error("failed batch recorded its idempotency key")
	}
}

func TestImportBatch_RejectsBatchBeyondCapacity(t *testing.T) {
	f := newTimesheetFixture()

	// 8h + 4h on the same user and day exceeds the 8h default.
	_, err := f.svc.ImportBatch(context.Background(), actorLead, ports.ImportInput{
		IdempotencyKey: "batch-1",
		Rows: []ports.ImportRow{
			{EntryDate: testDay, Username: "consult1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 8},
			{EntryDate: testDay, Username: "consult1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 4},
		},
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(f.repo.entries) != 0 {
		t.Error("rejected batch left entries behind")
	}
}

func TestImportBatch_LeadLimitedToTeam(t *testing.T) {
	f := newTimesheetFixture()

	// consult2 is not staffed on any of lead1's missions.
	_, err := f.svc.ImportBatch(context.Background(), actorLead, ports.ImportInput{
		IdempotencyKey: "batch-1",
		Rows: []ports.ImportRow{
			{EntryDate: testDay, Username: "consult2", Category: domain.CategoryInternal, Hours: 4},
		},
	})
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}
	if denied.Scope != domain.ScopeOtherUser {
		t.Errorf("scope = %q, want %q", denied.Scope, domain.ScopeOtherUser)
	}
}

func TestImportBatch_UnknownUserRejectsWholeBatch(t *testing.T) {
	f := newTimesheetFixture()

	_, err := f.svc.ImportBatch(context.Background(), actorAdmin, ports.ImportInput{
		IdempotencyKey: "batch-1",
		Rows: []ports.ImportRow{
			{EntryDate: testDay, Username: "lead1", Category: domain.CategoryInternal, Hours: 4},
			{EntryDate: testDay, Username: "ghost", Category: domain.CategoryInternal, Hours: 4},
		},
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(f.repo.entries) != 0 {
		t.Error("partially valid batch wrote entries")
	}
}

// ---------------------------------------------------------------------------
// ListEntries / ExportEntries
// ---------------------------------------------------------------------------

func TestListEntries_ConsultantSeesOnlyOwn(t *testing.T) {
	f := newTimesheetFixture()
	seedEntries(t, f)

	entries, err := f.svc.ListEntries(context.Background(), actorConsult, "", "")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.UserID != actorConsult.UserID {
			t.Errorf("consultant sees entry of user %d", e.UserID)
		}
	}
}

func TestListEntries_LeadSeesTeam(t *testing.T) {
	f := newTimesheetFixture()
	seedEntries(t, f)

	entries, err := f.svc.ListEntries(context.Background(), actorLead, "", "")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.UserID != 2 && e.UserID != 3 {
			t.Errorf("lead sees entry of user %d outside team", e.UserID)
		}
	}
}

func TestExportEntries_ResolvesExchangeVocabulary(t *testing.T) {
	f := newTimesheetFixture()
	if _, err := f.svc.LogTime(context.Background(), actorConsult, ports.LogTimeInput{
		EntryDate: testDay, MissionID: mid(10), Category: domain.CategoryBillable, Hours: 8,
	}); err != nil {
		t.Fatal(err)
	}

	rows, err := f.svc.ExportEntries(context.Background(), actorConsult, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("exported %d rows, want 1", len(rows))
	}
	if rows[0].Username != "consult1" || rows[0].MissionCode != "M1" {
		t.Errorf("row = %+v, want consult1 on M1", rows[0])
	}
}

// ---------------------------------------------------------------------------
// SetCapacityOverride
// ---------------------------------------------------------------------------

func TestSetCapacityOverride_LeadOutsideTeamDenied(t *testing.T) {
	f := newTimesheetFixture()

	err := f.svc.SetCapacityOverride(context.Background(), actorLead, ports.CapacityOverrideInput{
		UserID: 4, Date: testDay, CapacityH: 4,
	})
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}

	if err := f.svc.SetCapacityOverride(context.Background(), actorLead, ports.CapacityOverrideInput{
		UserID: 3, Date: testDay, CapacityH: 4,
	}); err != nil {
		t.Fatalf("lead override for own team: %v", err)
	}
}

func TestSetCapacityOverride_ConsultantDenied(t *testing.T) {
	f := newTimesheetFixture()

	err := f.svc.SetCapacityOverride(context.Background(), actorConsult, ports.CapacityOverrideInput{
		UserID: 3, Date: testDay, CapacityH: 4,
	})
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}
}

func seedEntries(t *testing.T, f *timesheetFixture) {
	t.Helper()
	for _, in := range []struct {
		actor domain.Actor
		input ports.LogTimeInput
	}{
		{actorConsult, ports.LogTimeInput{EntryDate: testDay, MissionID: mid(10), Category: domain.CategoryBillable, Hours: 8}},
		{actorLead, ports.LogTimeInput{EntryDate: testDay, MissionID: mid(10), Category: domain.CategoryBillable, Hours: 4}},
		{actorAdmin, ports.LogTimeInput{UserID: 4, EntryDate: testDay, Category: domain.CategoryInternal, Hours: 4}},
	} {
		if _, err := f.svc.LogTime(context.Background(), in.actor, in.input); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
}
