package sqlite

import (
	"context"
	"database/sql"
	"math"

	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// ViewRepository reads the derived KPI projections. Every query is scoped by
// an id list the service layer resolved from the actor; an empty scope short
// circuits to empty rows without touching the database.
type ViewRepository struct {
	db *sql.DB
}

func NewViewRepository(db *sql.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

func (r *ViewRepository) MissionHours(ctx context.Context, scope []int64) ([]ports.MissionHoursRow, error) {
	return r.missionHours(ctx, scope, false)
}

func (r *ViewRepository) MissionsAtRisk(ctx context.Context, scope []int64) ([]ports.MissionHoursRow, error) {
	return r.missionHours(ctx, scope, true)
}

func (r *ViewRepository) missionHours(ctx context.Context, scope []int64, riskOnly bool) ([]ports.MissionHoursRow, error) {
	if scope != nil && len(scope) == 0 {
		return nil, nil
	}

	query := `SELECT h.mission_id, h.mission_code, h.mission_name, h.client_name, h.status,
		  h.sold_hours, h.consumed_hours, COALESCE(h.consumed_pct, 0), rk.risk_level
		 FROM kpi_mission_hours h
		 JOIN kpi_mission_risk rk ON rk.mission_id = h.mission_id`
	var args []any
	where := " WHERE 1=1"
	if scope != nil {
		in, inArgs := inClause(scope)
		where += " AND h.mission_id IN " + in
		args = inArgs
	}
	if riskOnly {
		where += " AND rk.risk_level IN ('overrun', 'near_limit')"
	}
	query += where + " ORDER BY h.mission_code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("mission hours", err)
	}
	defer rows.Close()

	var out []ports.MissionHoursRow
	for rows.Next() {
		var m ports.MissionHoursRow
		if err := rows.Scan(&m.MissionID, &m.Code, &m.Name, &m.ClientName, &m.Status,
			&m.SoldHours, &m.ConsumedHours, &m.ConsumedPct, &m.RiskLevel); err != nil {
			return nil, storageErr("scan mission hours", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ViewRepository) MissionFinance(ctx context.Context, scope []int64) ([]ports.MissionFinanceRow, error) {
	if scope != nil && len(scope) == 0 {
		return nil, nil
	}

	query := `SELECT mission_id, mission_code, mission_name, client_name,
		  sold_amount_eur, cost_eur, margin_eur
		 FROM kpi_finance_mission`
	var args []any
	if scope != nil {
		in, inArgs := inClause(scope)
		query += " WHERE mission_id IN " + in
		args = inArgs
	}
	query += " ORDER BY mission_code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("mission finance", err)
	}
	defer rows.Close()

	var out []ports.MissionFinanceRow
	for rows.Next() {
		var f ports.MissionFinanceRow
		if err := rows.Scan(&f.MissionID, &f.Code, &f.Name, &f.ClientName,
			&f.SoldAmountEUR, &f.CostEUR, &f.MarginEUR); err != nil {
			return nil, storageErr("scan mission finance", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UserLoad aggregates logged hours per user over the period and sets capacity
// to the number of distinct worked days times the default day, adjusted by
// per-day overrides.
func (r *ViewRepository) UserLoad(ctx context.Context, userIDs []int64, dateFrom, dateTo string, defaultDayHours int) ([]ports.UserLoadRow, error) {
	if userIDs != nil && len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT l.user_id, l.user_name,
		  SUM(l.logged_hours) AS logged_hours,
		  SUM(COALESCE(co.capacity_h, ?)) AS capacity_h
		 FROM kpi_user_load_daily l
		 LEFT JOIN capacity_overrides co ON co.user_id = l.user_id AND co.cap_date = l.day
		 WHERE 1=1`
	args := []any{defaultDayHours}
	if userIDs != nil {
		in, inArgs := inClause(userIDs)
		query += " AND l.user_id IN " + in
		args = append(args, inArgs...)
	}
	if dateFrom != "" {
		query += " AND l.day >= ?"
		args = append(args, dateFrom)
	}
	if dateTo != "" {
		query += " AND l.day <= ?"
		args = append(args, dateTo)
	}
	query += " GROUP BY l.user_id ORDER BY l.user_name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("user load", err)
	}
	defer rows.Close()

	var out []ports.UserLoadRow
	for rows.Next() {
		var u ports.UserLoadRow
		if err := rows.Scan(&u.UserID, &u.UserName, &u.LoggedHours, &u.CapacityH); err != nil {
			return nil, storageErr("scan user load", err)
		}
		if u.CapacityH > 0 {
			u.LoadPct = round1(u.LoggedHours / u.CapacityH * 100)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// bucketExpr maps a granularity to a strftime bucket over entry_date.
func bucketExpr(g ports.Granularity) string {
	switch g {
	case ports.GranularityDay:
		return "te.entry_date"
	case ports.GranularityMonth:
		return "strftime('%Y-%m', te.entry_date)"
	default:
		return "strftime('%Y-W%W', te.entry_date)"
	}
}

func (r *ViewRepository) TimeByBucket(ctx context.Context, userIDs, missionIDs []int64, g ports.Granularity, dateFrom, dateTo string) ([]ports.CRASummaryRow, error) {
	if (userIDs != nil && len(userIDs) == 0) || (missionIDs != nil && len(missionIDs) == 0) {
		return nil, nil
	}

	bucket := bucketExpr(g)
	query := `SELECT ` + bucket + ` AS period,
		  COALESCE(te.mission_id, 0), COALESCE(m.code, ''), te.category, SUM(te.hours)
		 FROM time_entries te
		 LEFT JOIN missions m ON m.id = te.mission_id
		 WHERE 1=1`
	var args []any
	if userIDs != nil {
		in, inArgs := inClause(userIDs)
		query += " AND te.user_id IN " + in
		args = append(args, inArgs...)
	}
	if missionIDs != nil {
		in, inArgs := inClause(missionIDs)
		query += " AND (te.mission_id IN " + in + " OR te.mission_id IS NULL)"
		args = append(args, inArgs...)
	}
	if dateFrom != "" {
		query += " AND te.entry_date >= ?"
		args = append(args, dateFrom)
	}
	if dateTo != "" {
		query += " AND te.entry_date <= ?"
		args = append(args, dateTo)
	}
	query += " GROUP BY period, te.mission_id, te.category ORDER BY period, te.mission_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("time by bucket", err)
	}
	defer rows.Close()

	var out []ports.CRASummaryRow
	for rows.Next() {
		var s ports.CRASummaryRow
		if err := rows.Scan(&s.Period, &s.MissionID, &s.MissionCode, &s.Category, &s.Hours); err != nil {
			return nil, storageErr("scan bucket", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
