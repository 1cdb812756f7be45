package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// TimesheetRepository persists CRA entries and capacity overrides.
type TimesheetRepository struct {
	db *sql.DB
}

func NewTimesheetRepository(db *sql.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

const entryColumns = "id, entry_date, user_id, mission_id, category, hours, COALESCE(description, ''), created_at"

func scanEntry(row interface{ Scan(...any) error }) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	var missionID sql.NullInt64
	var createdAt string
	if err := row.Scan(&e.ID, &e.EntryDate, &e.UserID, &missionID, &e.Category, &e.Hours, &e.Description, &createdAt); err != nil {
		return nil, err
	}
	if missionID.Valid {
		e.MissionID = &missionID.Int64
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		e.CreatedAt = ts.UTC()
	}
	return &e, nil
}

func missionArg(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (r *TimesheetRepository) InsertEntry(ctx context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO time_entries (entry_date, user_id, mission_id, category, hours, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.EntryDate, e.UserID, missionArg(e.MissionID), e.Category, e.Hours, nullable(e.Description),
	)
	if err != nil {
		return nil, storageErr("insert entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("insert entry", err)
	}
	return r.FindEntry(ctx, id)
}

// InsertBatch commits the entries and the idempotency key together: a crash
// between the two can never leave a marked key without its rows, or rows
// without their key.
func (r *TimesheetRepository) InsertBatch(ctx context.Context, entries []*domain.TimeEntry, idempotencyKey string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO time_entries (entry_date, user_id, mission_id, category, hours, description)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return storageErr("prepare batch", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx,
				e.EntryDate, e.UserID, missionArg(e.MissionID), e.Category, e.Hours, nullable(e.Description)); err != nil {
				return storageErr("insert batch entry", err)
			}
		}

		if idempotencyKey != "" {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO import_batches (key) VALUES (?)", idempotencyKey); err != nil {
				return storageErr("record batch key", err)
			}
		}
		return nil
	})
}

func (r *TimesheetRepository) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ?", id)
	if err != nil {
		return storageErr("delete entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *TimesheetRepository) FindEntry(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM time_entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, storageErr("find entry", err)
	}
	return e, nil
}

func (r *TimesheetRepository) ListEntries(ctx context.Context, f ports.EntryFilter) ([]*domain.TimeEntry, error) {
	query := "SELECT " + entryColumns + " FROM time_entries WHERE 1=1"
	var args []any

	if f.UserIDs != nil {
		if len(f.UserIDs) == 0 {
			return nil, nil
		}
		in, inArgs := inClause(f.UserIDs)
		query += " AND user_id IN " + in
		args = append(args, inArgs...)
	}
	if f.MissionIDs != nil {
		if len(f.MissionIDs) == 0 {
			return nil, nil
		}
		in, inArgs := inClause(f.MissionIDs)
		query += " AND (mission_id IN " + in + " OR mission_id IS NULL)"
		args = append(args, inArgs...)
	}
	if f.DateFrom != "" {
		query += " AND entry_date >= ?"
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		query += " AND entry_date <= ?"
		args = append(args, f.DateTo)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	query += " ORDER BY entry_date, user_id, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list entries", err)
	}
	defer rows.Close()

	var out []*domain.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr("scan entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *TimesheetRepository) HoursForDay(ctx context.Context, userID int64, date string) (int, error) {
	var hours int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(hours), 0) FROM time_entries WHERE user_id = ? AND entry_date = ?",
		userID, date).Scan(&hours)
	if err != nil {
		return 0, storageErr("sum hours", err)
	}
	return hours, nil
}

func (r *TimesheetRepository) CapacityForDay(ctx context.Context, userID int64, date string, defaultHours int) (int, error) {
	var capacity int
	err := r.db.QueryRowContext(ctx,
		"SELECT capacity_h FROM capacity_overrides WHERE user_id = ? AND cap_date = ?",
		userID, date).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultHours, nil
	}
	if err != nil {
		return 0, storageErr("read capacity", err)
	}
	return capacity, nil
}

func (r *TimesheetRepository) UpsertCapacityOverride(ctx context.Context, o *domain.CapacityOverride) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO capacity_overrides (user_id, cap_date, capacity_h, reason)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, cap_date) DO UPDATE SET capacity_h = excluded.capacity_h, reason = excluded.reason`,
		o.UserID, o.Date, o.CapacityH, nullable(o.Reason),
	)
	if err != nil {
		return storageErr("upsert capacity", err)
	}
	return nil
}
