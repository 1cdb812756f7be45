package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// ReferentialService is the policy-checked surface for clients, missions,
// staffing, and demo administration. Financial mission fields travel only
// through this admin write path.
type ReferentialService struct {
	repo   ports.ReferentialRepository
	seeder ports.Seeder
	log    zerolog.Logger
}

func NewReferentialService(repo ports.ReferentialRepository, seeder ports.Seeder, log zerolog.Logger) *ReferentialService {
	return &ReferentialService{repo: repo, seeder: seeder, log: log}
}

func (s *ReferentialService) CreateClient(ctx context.Context, actor domain.Actor, name string) (*domain.Client, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return nil, domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	if name == "" {
		return nil, domain.Invalid("name", "is required")
	}
	return s.repo.CreateClient(ctx, &domain.Client{Name: name, Active: true})
}

func (s *ReferentialService) ListClients(ctx context.Context, actor domain.Actor) ([]*domain.Client, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionRead) {
		return nil, domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionRead)
	}
	return s.repo.ListClients(ctx)
}

func (s *ReferentialService) CreateMission(ctx context.Context, actor domain.Actor, input ports.MissionInput) (*ports.MissionSummary, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return nil, domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	if err := validateMissionInput(input); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateMission(ctx, missionFromInput(input))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("code", created.Code).Msg("mission created")
	return maskMission(actor.Role, created), nil
}

func (s *ReferentialService) UpdateMission(ctx context.Context, actor domain.Actor, missionID int64, input ports.MissionInput) error {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	if err := validateMissionInput(input); err != nil {
		return err
	}

	existing, err := s.repo.FindMissionByID(ctx, missionID)
	if err != nil {
		return err
	}
	m := missionFromInput(input)
	m.ID = existing.ID
	m.Active = existing.Active
	return s.repo.UpdateMission(ctx, m)
}

// ListMissions returns missions in the actor's scope with financial columns
// masked at query time for roles without the FinancialSummary grant.
func (s *ReferentialService) ListMissions(ctx context.Context, actor domain.Actor) ([]*ports.MissionSummary, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceMission, domain.ActionRead) {
		return nil, domain.Denied(actor.Role, domain.ResourceMission, domain.ActionRead)
	}

	scope, err := s.repo.MissionIDsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	// Masking at query time: the SELECT omits money columns for roles
	// without the grant; maskMission is the second fence on the payload.
	includeFinancial := domain.VisibleFields(actor.Role, domain.ResourceMission).Has(domain.FieldSoldAmountEUR)
	missions, err := s.repo.ListMissions(ctx, scope, includeFinancial)
	if err != nil {
		return nil, err
	}

	out := make([]*ports.MissionSummary, 0, len(missions))
	for _, m := range missions {
		out = append(out, maskMission(actor.Role, m))
	}
	return out, nil
}

func (s *ReferentialService) SetLead(ctx context.Context, actor domain.Actor, missionID, userID int64) error {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	return s.repo.SetLead(ctx, missionID, userID)
}

func (s *ReferentialService) Assign(ctx context.Context, actor domain.Actor, missionID, userID int64, startDate, endDate string, allocationPct int) error {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	if _, err := time.Parse(domain.DateLayout, startDate); err != nil {
		return domain.Invalid("start_date", "must be an ISO date (YYYY-MM-DD)")
	}
	if allocationPct < 0 || allocationPct > 100 {
		return domain.Invalid("allocation_pct", "must be between 0 and 100")
	}
	return s.repo.Assign(ctx, &domain.MissionAssignment{
		MissionID:     missionID,
		UserID:        userID,
		StartDate:     startDate,
		EndDate:       endDate,
		AllocationPct: allocationPct,
	})
}

// ResetDemo truncates operational tables and reloads the demo dataset.
// Requires the Reset grant, held by Admin only.
func (s *ReferentialService) ResetDemo(ctx context.Context, actor domain.Actor) error {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionReset) {
		return domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionReset)
	}
	if err := s.seeder.Reset(ctx); err != nil {
		return err
	}
	s.log.Warn().Int64("user_id", actor.UserID).Msg("demo data reset")
	return nil
}

func validateMissionInput(input ports.MissionInput) error {
	if input.Code == "" || input.Name == "" {
		return domain.Invalid("code", "and name are required")
	}
	if input.ClientID == 0 {
		return domain.Invalid("client_id", "is required")
	}
	if !domain.ValidMissionStatus(input.Status) {
		return domain.Invalid("status", "is not a known mission status")
	}
	if _, err := time.Parse(domain.DateLayout, input.StartDate); err != nil {
		return domain.Invalid("start_date", "must be an ISO date (YYYY-MM-DD)")
	}
	if input.EndDate != "" {
		if _, err := time.Parse(domain.DateLayout, input.EndDate); err != nil {
			return domain.Invalid("end_date", "must be an ISO date (YYYY-MM-DD)")
		}
	}
	return nil
}

func missionFromInput(input ports.MissionInput) *domain.Mission {
	return &domain.Mission{
		ClientID:      input.ClientID,
		Code:          input.Code,
		Name:          input.Name,
		Status:        input.Status,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		SoldDays:      input.SoldDays,
		SoldAmountEUR: input.SoldAmountEUR,
		DailyCostEUR:  input.DailyCostEUR,
		Notes:         input.Notes,
		Active:        true,
	}
}

// maskMission projects a mission through the caller's visible field set.
// The Financial section is attached only when the money columns are visible.
func maskMission(role domain.Role, m *domain.Mission) *ports.MissionSummary {
	out := &ports.MissionSummary{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		ClientID:  m.ClientID,
		Status:    m.Status,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		SoldDays:  m.SoldDays,
		Notes:     m.Notes,
	}
	if domain.VisibleFields(role, domain.ResourceMission).Has(domain.FieldSoldAmountEUR) {
		out.Financial = &ports.MissionFinancial{
			SoldAmountEUR: m.SoldAmountEUR,
			DailyCostEUR:  m.DailyCostEUR,
		}
	}
	return out
}
