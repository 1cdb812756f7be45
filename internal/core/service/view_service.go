package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// ViewService composes role-scoped views over the derived KPI projections.
//
// Masking happens at query time: financial projections are only fetched for
// roles holding the FinancialSummary read grant, so no aggregate computed
// here can leak a masked column. Payloads omit restricted sections rather
// than zeroing them.
type ViewService struct {
	views ports.ViewRepository
	scope ports.ScopeResolver
	cfg   ViewConfig
	log   zerolog.Logger
}

// ViewConfig carries the immutable settings the composer needs.
type ViewConfig struct {
	DayHours           int
	DefaultGranularity ports.Granularity
}

func NewViewService(views ports.ViewRepository, scope ports.ScopeResolver, cfg ViewConfig, log zerolog.Logger) *ViewService {
	if cfg.DayHours <= 0 {
		cfg.DayHours = 8
	}
	if cfg.DefaultGranularity == "" {
		cfg.DefaultGranularity = ports.GranularityWeek
	}
	return &ViewService{views: views, scope: scope, cfg: cfg, log: log}
}

// BuildView assembles the requested view for the actor. Unauthorized view
// kinds fail with AccessDenied, never with an empty payload, so callers can
// tell "no access" from "no data".
func (s *ViewService) BuildView(ctx context.Context, actor domain.Actor, kind ports.ViewKind, filters ports.ViewFilters) (*ports.ViewPayload, error) {
	switch kind {
	case ports.ViewMissionProgress:
		return s.missionProgress(ctx, actor, filters)
	case ports.ViewCapacityVsLoad:
		return s.capacityVsLoad(ctx, actor, filters)
	case ports.ViewCRASummary:
		return s.craSummary(ctx, actor, filters)
	case ports.ViewBoardFinancialSynthesis:
		return s.financialSynthesis(ctx, actor)
	default:
		return nil, domain.Invalid("view", "unknown view kind")
	}
}

func (s *ViewService) missionProgress(ctx context.Context, actor domain.Actor, filters ports.ViewFilters) (*ports.ViewPayload, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceMission, domain.ActionRead) {
		return nil, domain.Denied(actor.Role, domain.ResourceMission, domain.ActionRead)
	}

	scope, err := s.missionScope(ctx, actor, filters.MissionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.views.MissionHours(ctx, scope)
	if err != nil {
		return nil, err
	}

	payload := &ports.ViewPayload{Kind: ports.ViewMissionProgress, Missions: rows}

	// The financial projection is fetched only when the visible field set
	// includes money columns; Lead and Consultant never reach this query.
	fields := domain.VisibleFields(actor.Role, domain.ResourceMission)
	if fields.Has(domain.FieldMarginEUR) {
		fin, err := s.views.MissionFinance(ctx, scope)
		if err != nil {
			return nil, err
		}
		payload.Financials = fin
	}
	return payload, nil
}

func (s *ViewService) capacityVsLoad(ctx context.Context, actor domain.Actor, filters ports.ViewFilters) (*ports.ViewPayload, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceCRAEntry, domain.ActionRead) {
		return nil, domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionRead)
	}

	missionIDs, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	userIDs, err := s.scope.VisibleUserIDsFor(ctx, actor, missionIDs)
	if err != nil {
		return nil, err
	}

	rows, err := s.views.UserLoad(ctx, userIDs, filters.DateFrom, filters.DateTo, s.cfg.DayHours)
	if err != nil {
		return nil, err
	}
	return &ports.ViewPayload{Kind: ports.ViewCapacityVsLoad, Load: rows}, nil
}

func (s *ViewService) craSummary(ctx context.Context, actor domain.Actor, filters ports.ViewFilters) (*ports.ViewPayload, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceCRAEntry, domain.ActionRead) {
		return nil, domain.Denied(actor.Role, domain.ResourceCRAEntry, domain.ActionRead)
	}

	g := filters.Granularity
	switch g {
	case ports.GranularityDay, ports.GranularityWeek, ports.GranularityMonth:
	case "":
		g = s.cfg.DefaultGranularity
	default:
		return nil, domain.Invalid("granularity", "must be day, week, or month")
	}

	missionIDs, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	userIDs, err := s.scope.VisibleUserIDsFor(ctx, actor, missionIDs)
	if err != nil {
		return nil, err
	}

	// Both lists restrict the query: entries on out-of-scope missions are
	// excluded even when logged by a visible user.
	rows, err := s.views.TimeByBucket(ctx, userIDs, missionIDs, g, filters.DateFrom, filters.DateTo)
	if err != nil {
		return nil, err
	}
	return &ports.ViewPayload{Kind: ports.ViewCRASummary, Summary: rows}, nil
}

func (s *ViewService) financialSynthesis(ctx context.Context, actor domain.Actor) (*ports.ViewPayload, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceFinancialSummary, domain.ActionRead) {
		return nil, domain.Denied(actor.Role, domain.ResourceFinancialSummary, domain.ActionRead)
	}

	scope, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	fin, err := s.views.MissionFinance(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &ports.ViewPayload{Kind: ports.ViewBoardFinancialSynthesis, Financials: fin}, nil
}

// missionScope resolves the actor's mission perimeter, optionally narrowed
// to one mission. Narrowing outside the perimeter is a scope violation, not
// an empty result.
func (s *ViewService) missionScope(ctx context.Context, actor domain.Actor, missionID int64) ([]int64, error) {
	scope, err := s.scope.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if missionID == 0 {
		return scope, nil
	}
	if !containsID(scope, missionID) {
		return nil, domain.DeniedScope(actor.Role, domain.ResourceMission, domain.ActionRead, domain.ScopeOutOfMission)
	}
	return []int64{missionID}, nil
}
