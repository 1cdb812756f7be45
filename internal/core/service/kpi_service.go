package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// KPIService is the chatbot's backend: a fixed registry of named, pre-vetted
// queries. The caller picks a name; the declared minimum role is checked
// before any repository call, and caller parameters only ever narrow within
// the resolved scope.
type KPIService struct {
	views    ports.ViewRepository
	scope    ports.ScopeResolver
	missions ports.ReferentialRepository
	dayHours int
	log      zerolog.Logger
}

func NewKPIService(views ports.ViewRepository, missions ports.ReferentialRepository, dayHours int, log zerolog.Logger) *KPIService {
	if dayHours <= 0 {
		dayHours = 8
	}
	return &KPIService{views: views, scope: missions, missions: missions, dayHours: dayHours, log: log}
}

type kpiDef struct {
	minRole     domain.Role
	description string
	run         func(s *KPIService, ctx context.Context, actor domain.Actor, params ports.KPIParams) (*ports.KPIResult, error)
}

// registry is the whole KPI surface. Adding a query means adding an entry
// here; there is no other execution path.
var registry = map[ports.KPIQuery]kpiDef{
	ports.KPIMissionsAtRisk: {
		minRole:     domain.RoleConsultant,
		description: "missions overrunning or near their sold load",
		run:         (*KPIService).missionsAtRisk,
	},
	ports.KPICapacityUtilization: {
		minRole:     domain.RoleConsultant,
		description: "logged hours vs capacity for visible users",
		run:         (*KPIService).capacityUtilization,
	},
	ports.KPITimeSplit: {
		minRole:     domain.RoleConsultant,
		description: "hours split by category",
		run:         (*KPIService).timeSplit,
	},
	ports.KPIMissionStatus: {
		minRole:     domain.RoleConsultant,
		description: "progress of one mission by code",
		run:         (*KPIService).missionStatus,
	},
	ports.KPIFinancialSynthesis: {
		minRole:     domain.RoleBoard,
		description: "revenue, cost and margin over the visible perimeter",
		run:         (*KPIService).financialSynthesis,
	},
}

// Run executes a named query. The role gate fires before anything touches
// the data layer.
func (s *KPIService) Run(ctx context.Context, actor domain.Actor, query ports.KPIQuery, params ports.KPIParams) (*ports.KPIResult, error) {
	def, ok := registry[query]
	if !ok {
		return nil, domain.Invalid("query", "is not a known KPI query")
	}
	if !actor.Role.AtLeast(def.minRole) {
		s.log.Warn().
			Str("query", string(query)).
			Str("role", string(actor.Role)).
			Msg("kpi query denied")
		return nil, domain.Denied(actor.Role, domain.ResourceFinancialSummary, domain.ActionRead)
	}
	return def.run(s, ctx, actor, params)
}

// Catalog lists the queries role may invoke, for the chatbot's help answer.
func (s *KPIService) Catalog(role domain.Role) []ports.KPIInfo {
	var out []ports.KPIInfo
	for name, def := range registry {
		if role.AtLeast(def.minRole) {
			out = append(out, ports.KPIInfo{Query: name, Description: def.description, MinRole: def.minRole})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Query < out[j].Query })
	return out
}

func (s *KPIService) missionsAtRisk(ctx context.Context, actor domain.Actor, _ ports.KPIParams) (*ports.KPIResult, error) {
	scope, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.views.MissionsAtRisk(ctx, scope)
	if err != nil {
		return nil, err
	}

	result := &ports.KPIResult{
		Query:   ports.KPIMissionsAtRisk,
		Summary: fmt.Sprintf("%d mission(s) at risk or near limit in your perimeter", len(rows)),
		Columns: []string{"code", "name", "client_name", "sold_hours", "consumed_hours", "risk_level"},
	}
	for _, r := range rows {
		result.Rows = append(result.Rows, []any{r.Code, r.Name, r.ClientName, r.SoldHours, r.ConsumedHours, r.RiskLevel})
	}
	return result, nil
}

func (s *KPIService) capacityUtilization(ctx context.Context, actor domain.Actor, params ports.KPIParams) (*ports.KPIResult, error) {
	missionIDs, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	userIDs, err := s.scope.VisibleUserIDsFor(ctx, actor, missionIDs)
	if err != nil {
		return nil, err
	}
	rows, err := s.views.UserLoad(ctx, userIDs, params.DateFrom, params.DateTo, s.dayHours)
	if err != nil {
		return nil, err
	}

	result := &ports.KPIResult{
		Query:   ports.KPICapacityUtilization,
		Columns: []string{"user_name", "logged_hours", "capacity_h", "load_pct"},
	}
	var busiest string
	var max float64
	for _, r := range rows {
		result.Rows = append(result.Rows, []any{r.UserName, r.LoggedHours, r.CapacityH, r.LoadPct})
		if r.LoggedHours > max {
			max = r.LoggedHours
			busiest = r.UserName
		}
	}
	if busiest == "" {
		result.Summary = "no logged time for visible users"
	} else {
		result.Summary = fmt.Sprintf("busiest: %s with %.0fh logged", busiest, max)
	}
	return result, nil
}

func (s *KPIService) timeSplit(ctx context.Context, actor domain.Actor, params ports.KPIParams) (*ports.KPIResult, error) {
	missionIDs, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	userIDs, err := s.scope.VisibleUserIDsFor(ctx, actor, missionIDs)
	if err != nil {
		return nil, err
	}
	rows, err := s.views.TimeByBucket(ctx, userIDs, missionIDs, ports.GranularityMonth, params.DateFrom, params.DateTo)
	if err != nil {
		return nil, err
	}

	totals := map[domain.Category]float64{}
	var total float64
	for _, r := range rows {
		totals[r.Category] += r.Hours
		total += r.Hours
	}

	result := &ports.KPIResult{
		Query:   ports.KPITimeSplit,
		Summary: fmt.Sprintf("%.0fh logged across %d categories", total, len(totals)),
		Columns: []string{"category", "hours", "pct"},
	}
	for _, c := range []domain.Category{domain.CategoryBillable, domain.CategoryNonBillableClient, domain.CategoryInternal} {
		h, ok := totals[c]
		if !ok {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = h / total * 100
		}
		result.Rows = append(result.Rows, []any{string(c), h, pct})
	}
	return result, nil
}

func (s *KPIService) missionStatus(ctx context.Context, actor domain.Actor, params ports.KPIParams) (*ports.KPIResult, error) {
	if params.MissionCode == "" {
		return nil, domain.Invalid("mission_code", "is required for missionStatus")
	}
	mission, err := s.missions.FindMissionByCode(ctx, params.MissionCode)
	if err != nil {
		return nil, err
	}

	scope, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !containsID(scope, mission.ID) {
		// Out-of-scope codes read as not found: the surface does not confirm
		// the existence of missions the caller cannot see.
		return nil, domain.ErrMissionNotFound
	}

	rows, err := s.views.MissionHours(ctx, []int64{mission.ID})
	if err != nil {
		return nil, err
	}
	result := &ports.KPIResult{
		Query:   ports.KPIMissionStatus,
		Columns: []string{"code", "name", "client_name", "status", "sold_hours", "consumed_hours", "consumed_pct"},
	}
	for _, r := range rows {
		result.Summary = fmt.Sprintf("%s (%s): %.1f%% of sold load consumed", r.Code, r.Name, r.ConsumedPct)
		result.Rows = append(result.Rows, []any{r.Code, r.Name, r.ClientName, r.Status, r.SoldHours, r.ConsumedHours, r.ConsumedPct})
	}
	return result, nil
}

func (s *KPIService) financialSynthesis(ctx context.Context, actor domain.Actor, _ ports.KPIParams) (*ports.KPIResult, error) {
	scope, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.views.MissionFinance(ctx, scope)
	if err != nil {
		return nil, err
	}

	var sold, cost, margin float64
	result := &ports.KPIResult{
		Query:   ports.KPIFinancialSynthesis,
		Columns: []string{"code", "name", "client_name", "sold_amount_eur", "cost_eur", "margin_eur"},
	}
	for _, r := range rows {
		sold += r.SoldAmountEUR
		cost += r.CostEUR
		margin += r.MarginEUR
		result.Rows = append(result.Rows, []any{r.Code, r.Name, r.ClientName, r.SoldAmountEUR, r.CostEUR, r.MarginEUR})
	}
	result.Summary = fmt.Sprintf("sold %.0f EUR, cost %.0f EUR, margin %.0f EUR", sold, cost, margin)
	return result, nil
}
