package ports

import (
	"context"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// EntryFilter narrows timesheet reads. UserIDs and MissionIDs are always the
// scope lists resolved by the service layer, never raw caller input.
type EntryFilter struct {
	UserIDs    []int64
	MissionIDs []int64
	DateFrom   string
	DateTo     string
	Category   domain.Category
}

// TimesheetRepository persists CRA entries and capacity overrides.
type TimesheetRepository interface {
	InsertEntry(ctx context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error)
	// InsertBatch writes all entries and records idempotencyKey (when not
	// empty) in one transaction; any failure leaves zero rows committed and
	// the key unrecorded, so the batch is safe to retry.
	InsertBatch(ctx context.Context, entries []*domain.TimeEntry, idempotencyKey string) error
	DeleteEntry(ctx context.Context, id int64) error
	FindEntry(ctx context.Context, id int64) (*domain.TimeEntry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]*domain.TimeEntry, error)

	// HoursForDay sums committed hours for (userID, date).
	HoursForDay(ctx context.Context, userID int64, date string) (int, error)
	// CapacityForDay returns the override for (userID, date) or defaultHours.
	CapacityForDay(ctx context.Context, userID int64, date string, defaultHours int) (int, error)
	UpsertCapacityOverride(ctx context.Context, o *domain.CapacityOverride) error
}

// BatchDedup reads the idempotency ledger for import batches. Keys are
// written by InsertBatch inside the batch transaction.
type BatchDedup interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
}

// LogTimeInput is a single interactive CRA write. UserID zero means the
// actor logs time for themselves.
type LogTimeInput struct {
	UserID      int64
	EntryDate   string
	MissionID   *int64
	Category    domain.Category
	Hours       int
	Description string
}

// ImportRow is one CSV line mapped to a pending entry.
type ImportRow struct {
	EntryDate   string
	Username    string
	MissionCode string
	Category    domain.Category
	Hours       int
	Description string
}

// ImportInput is an atomic CRA import batch.
type ImportInput struct {
	IdempotencyKey string
	Rows           []ImportRow
}

// ImportResult reports the outcome of an import batch.
type ImportResult struct {
	Imported int
	// AlreadyProcessed is true when the idempotency key matched a previously
	// committed batch; nothing was written.
	AlreadyProcessed bool
}

// CapacityOverrideInput sets a per-day capacity for one user.
type CapacityOverrideInput struct {
	UserID    int64
	Date      string
	CapacityH int
	Reason    string
}

// TimesheetService is the policy-checked write and read path for CRA data.
type TimesheetService interface {
	LogTime(ctx context.Context, actor domain.Actor, input LogTimeInput) (*domain.TimeEntry, error)
	DeleteEntry(ctx context.Context, actor domain.Actor, entryID int64) error
	ImportBatch(ctx context.Context, actor domain.Actor, input ImportInput) (*ImportResult, error)
	// ListEntries returns entries visible to the actor, optionally narrowed
	// by date range.
	ListEntries(ctx context.Context, actor domain.Actor, dateFrom, dateTo string) ([]*domain.TimeEntry, error)
	// ExportEntries returns the actor's visible entries resolved to the CSV
	// exchange vocabulary (usernames and mission codes).
	ExportEntries(ctx context.Context, actor domain.Actor, dateFrom, dateTo string) ([]ImportRow, error)
	SetCapacityOverride(ctx context.Context, actor domain.Actor, input CapacityOverrideInput) error
}
