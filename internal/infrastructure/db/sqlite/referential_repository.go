package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// ReferentialRepository persists clients, missions, and staffing links, and
// answers the row-level scope questions for the data access layer.
type ReferentialRepository struct {
	db *sql.DB
}

func NewReferentialRepository(db *sql.DB) *ReferentialRepository {
	return &ReferentialRepository{db: db}
}

func (r *ReferentialRepository) CreateClient(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO clients (name, is_active) VALUES (?, ?)", c.Name, boolInt(c.Active))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Invalid("name", "client already exists")
		}
		return nil, storageErr("insert client", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("insert client", err)
	}
	c.ID = id
	return c, nil
}

func (r *ReferentialRepository) ListClients(ctx context.Context) ([]*domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, is_active FROM clients ORDER BY name")
	if err != nil {
		return nil, storageErr("list clients", err)
	}
	defer rows.Close()

	var out []*domain.Client
	for rows.Next() {
		var c domain.Client
		var active int
		if err := rows.Scan(&c.ID, &c.Name, &active); err != nil {
			return nil, storageErr("scan client", err)
		}
		c.Active = active == 1
		out = append(out, &c)
	}
	return out, rows.Err()
}

const missionColumns = `id, client_id, code, name, status, start_date, COALESCE(end_date, ''),
	sold_days, sold_amount_eur, daily_cost_eur, COALESCE(notes, ''), is_active`

// missionColumnsMasked substitutes zeroes for the money columns so a scan
// without the financial grant never reads them off disk.
const missionColumnsMasked = `id, client_id, code, name, status, start_date, COALESCE(end_date, ''),
	sold_days, 0, 0, COALESCE(notes, ''), is_active`

func scanMission(row interface{ Scan(...any) error }) (*domain.Mission, error) {
	var m domain.Mission
	var active int
	if err := row.Scan(&m.ID, &m.ClientID, &m.Code, &m.Name, &m.Status, &m.StartDate, &m.EndDate,
		&m.SoldDays, &m.SoldAmountEUR, &m.DailyCostEUR, &m.Notes, &active); err != nil {
		return nil, err
	}
	m.Active = active == 1
	return &m, nil
}

func (r *ReferentialRepository) CreateMission(ctx context.Context, m *domain.Mission) (*domain.Mission, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO missions (client_id, code, name, status, start_date, end_date,
		  sold_days, sold_amount_eur, daily_cost_eur, notes, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ClientID, m.Code, m.Name, m.Status, m.StartDate, nullable(m.EndDate),
		m.SoldDays, m.SoldAmountEUR, m.DailyCostEUR, nullable(m.Notes), boolInt(m.Active),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Invalid("code", "mission code already exists")
		}
		return nil, storageErr("insert mission", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("insert mission", err)
	}
	m.ID = id
	return m, nil
}

func (r *ReferentialRepository) UpdateMission(ctx context.Context, m *domain.Mission) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE missions SET client_id = ?, code = ?, name = ?, status = ?, start_date = ?,
		  end_date = ?, sold_days = ?, sold_amount_eur = ?, daily_cost_eur = ?, notes = ?
		 WHERE id = ?`,
		m.ClientID, m.Code, m.Name, m.Status, m.StartDate, nullable(m.EndDate),
		m.SoldDays, m.SoldAmountEUR, m.DailyCostEUR, nullable(m.Notes), m.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Invalid("code", "mission code already exists")
		}
		return storageErr("update mission", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMissionNotFound
	}
	return nil
}

func (r *ReferentialRepository) FindMissionByID(ctx context.Context, id int64) (*domain.Mission, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+missionColumns+" FROM missions WHERE id = ?", id)
	m, err := scanMission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMissionNotFound
		}
		return nil, storageErr("find mission", err)
	}
	return m, nil
}

func (r *ReferentialRepository) FindMissionByCode(ctx context.Context, code string) (*domain.Mission, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+missionColumns+" FROM missions WHERE code = ?", code)
	m, err := scanMission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMissionNotFound
		}
		return nil, storageErr("find mission", err)
	}
	return m, nil
}

func (r *ReferentialRepository) ListMissions(ctx context.Context, scope []int64, includeFinancial bool) ([]*domain.Mission, error) {
	cols := missionColumnsMasked
	if includeFinancial {
		cols = missionColumns
	}

	query := "SELECT " + cols + " FROM missions WHERE is_active = 1"
	var args []any
	if scope != nil {
		if len(scope) == 0 {
			return nil, nil
		}
		in, inArgs := inClause(scope)
		query += " AND id IN " + in
		args = inArgs
	}
	query += " ORDER BY code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list missions", err)
	}
	defer rows.Close()

	var out []*domain.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, storageErr("scan mission", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ReferentialRepository) SetLead(ctx context.Context, missionID, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO mission_leads (mission_id, user_id) VALUES (?, ?)",
		missionID, userID); err != nil {
		return storageErr("set lead", err)
	}
	return nil
}

func (r *ReferentialRepository) Assign(ctx context.Context, a *domain.MissionAssignment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO mission_assignments (mission_id, user_id, start_date, end_date, allocation_pct)
		 VALUES (?, ?, ?, ?, ?)`,
		a.MissionID, a.UserID, a.StartDate, nullable(a.EndDate), a.AllocationPct,
	)
	if err != nil {
		return storageErr("assign user", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// MissionIDsFor resolves the actor's mission scope: Admin and Board see every
// active mission, a Lead sees the missions they lead, a Consultant sees the
// missions they are assigned to or have logged time on.
func (r *ReferentialRepository) MissionIDsFor(ctx context.Context, actor domain.Actor) ([]int64, error) {
	var query string
	var args []any
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleBoard:
		query = "SELECT id FROM missions WHERE is_active = 1"
	case domain.RoleLead:
		query = `SELECT m.id FROM missions m
			 JOIN mission_leads ml ON ml.mission_id = m.id
			 WHERE m.is_active = 1 AND ml.user_id = ?`
		args = []any{actor.UserID}
	default:
		query = `SELECT DISTINCT m.id FROM missions m
			 LEFT JOIN mission_assignments ma ON ma.mission_id = m.id AND ma.user_id = ?
			 LEFT JOIN time_entries te ON te.mission_id = m.id AND te.user_id = ?
			 WHERE m.is_active = 1 AND (ma.id IS NOT NULL OR te.id IS NOT NULL)`
		args = []any{actor.UserID, actor.UserID}
	}
	return r.queryIDs(ctx, "mission scope", query, args...)
}

// VisibleUserIDsFor resolves whose time the actor may read: everyone for
// Admin/Board, the team staffed on (or logging against) the given missions
// for a Lead, only themselves for a Consultant.
func (r *ReferentialRepository) VisibleUserIDsFor(ctx context.Context, actor domain.Actor, missionIDs []int64) ([]int64, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleBoard:
		return r.queryIDs(ctx, "user scope", "SELECT id FROM users WHERE is_active = 1")
	case domain.RoleLead:
		if len(missionIDs) == 0 {
			return []int64{actor.UserID}, nil
		}
		in, inArgs := inClause(missionIDs)
		query := `SELECT DISTINCT u.id FROM users u
			 LEFT JOIN mission_assignments ma ON ma.user_id = u.id AND ma.mission_id IN ` + in + `
			 LEFT JOIN time_entries te ON te.user_id = u.id AND te.mission_id IN ` + in + `
			 WHERE u.is_active = 1 AND (ma.id IS NOT NULL OR te.id IS NOT NULL OR u.id = ?)`
		args := make([]any, 0, 2*len(inArgs)+1)
		args = append(args, inArgs...)
		args = append(args, inArgs...)
		args = append(args, actor.UserID)
		return r.queryIDs(ctx, "user scope", query, args...)
	default:
		return []int64{actor.UserID}, nil
	}
}

func (r *ReferentialRepository) queryIDs(ctx context.Context, op, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(op, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// inClause builds a "(?, ?, ...)" placeholder group and its argument slice.
func inClause(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return fmt.Sprintf("(%s)", strings.Join(marks, ", ")), args
}
