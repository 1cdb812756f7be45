package ports

import (
	"context"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// ViewKind names a role-scoped derived projection. Views are never stored;
// they are recomputed from missions and time entries on every call.
type ViewKind string

const (
	ViewMissionProgress         ViewKind = "mission_progress"
	ViewCapacityVsLoad          ViewKind = "capacity_vs_load"
	ViewCRASummary              ViewKind = "cra_summary"
	ViewBoardFinancialSynthesis ViewKind = "board_financial_synthesis"
)

// Granularity buckets a CRA summary.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ViewFilters narrows a view request. Zero values mean "no filter".
type ViewFilters struct {
	DateFrom    string
	DateTo      string
	Granularity Granularity
	MissionID   int64
}

// MissionHoursRow is the operational progress of one mission, from the
// kpi_mission_hours projection.
type MissionHoursRow struct {
	MissionID     int64   `json:"mission_id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	ClientName    string  `json:"client_name"`
	Status        string  `json:"status"`
	SoldHours     float64 `json:"sold_hours"`
	ConsumedHours float64 `json:"consumed_hours"`
	ConsumedPct   float64 `json:"consumed_pct"`
	RiskLevel     string  `json:"risk_level,omitempty"`
}

// MissionFinanceRow is the restricted financial projection of one mission.
type MissionFinanceRow struct {
	MissionID     int64   `json:"mission_id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	ClientName    string  `json:"client_name"`
	SoldAmountEUR float64 `json:"sold_amount_eur"`
	CostEUR       float64 `json:"cost_eur"`
	MarginEUR     float64 `json:"margin_eur"`
}

// UserLoadRow is one user's logged hours against capacity over a period.
type UserLoadRow struct {
	UserID      int64   `json:"user_id"`
	UserName    string  `json:"user_name"`
	LoggedHours float64 `json:"logged_hours"`
	CapacityH   float64 `json:"capacity_h"`
	LoadPct     float64 `json:"load_pct"`
}

// CRASummaryRow buckets logged hours by period, mission, and category.
type CRASummaryRow struct {
	Period      string          `json:"period"`
	MissionID   int64           `json:"mission_id,omitempty"`
	MissionCode string          `json:"mission_code,omitempty"`
	Category    domain.Category `json:"category"`
	Hours       float64         `json:"hours"`
}

// ViewPayload is the result of BuildView. Exactly one of the row slices is
// populated, matching Kind. Financial rows appear only for roles holding
// the FinancialSummary read grant; for everyone else the field is absent
// from the JSON payload, never zeroed.
type ViewPayload struct {
	Kind       ViewKind            `json:"kind"`
	Missions   []MissionHoursRow   `json:"missions,omitempty"`
	Financials []MissionFinanceRow `json:"financials,omitempty"`
	Load       []UserLoadRow       `json:"load,omitempty"`
	Summary    []CRASummaryRow     `json:"summary,omitempty"`
}

// ViewRepository reads the derived KPI projections. Scope id lists are
// resolved by the service layer; empty scope yields empty rows.
type ViewRepository interface {
	MissionHours(ctx context.Context, scope []int64) ([]MissionHoursRow, error)
	MissionsAtRisk(ctx context.Context, scope []int64) ([]MissionHoursRow, error)
	MissionFinance(ctx context.Context, scope []int64) ([]MissionFinanceRow, error)
	UserLoad(ctx context.Context, userIDs []int64, dateFrom, dateTo string, defaultDayHours int) ([]UserLoadRow, error)
	TimeByBucket(ctx context.Context, userIDs, missionIDs []int64, g Granularity, dateFrom, dateTo string) ([]CRASummaryRow, error)
}

// ViewService composes role-scoped views. Masking is applied before
// aggregation: restricted columns are not fetched for roles lacking the
// grant, so no aggregate can leak them.
type ViewService interface {
	BuildView(ctx context.Context, actor domain.Actor, kind ViewKind, filters ViewFilters) (*ViewPayload, error)
}
