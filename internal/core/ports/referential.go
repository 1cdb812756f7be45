package ports

import (
	"context"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// ScopeResolver answers the two row-level visibility questions the data
// access layer asks before every scoped read or write.
type ScopeResolver interface {
	// MissionIDsFor returns the mission ids visible to the actor: all for
	// Admin/Board, led missions for a Lead, assigned missions (or missions
	// with own time logged) for a Consultant.
	MissionIDsFor(ctx context.Context, actor domain.Actor) ([]int64, error)
	// VisibleUserIDsFor returns the user ids whose time the actor may read:
	// all for Admin/Board, the team staffed on led missions for a Lead, self
	// for a Consultant.
	VisibleUserIDsFor(ctx context.Context, actor domain.Actor, missionIDs []int64) ([]int64, error)
}

// ReferentialRepository persists clients, missions, and staffing links.
type ReferentialRepository interface {
	ScopeResolver

	CreateClient(ctx context.Context, c *domain.Client) (*domain.Client, error)
	ListClients(ctx context.Context) ([]*domain.Client, error)

	CreateMission(ctx context.Context, m *domain.Mission) (*domain.Mission, error)
	UpdateMission(ctx context.Context, m *domain.Mission) error
	FindMissionByID(ctx context.Context, id int64) (*domain.Mission, error)
	FindMissionByCode(ctx context.Context, code string) (*domain.Mission, error)
	// ListMissions returns missions restricted to scope (nil = unrestricted).
	// When includeFinancial is false the financial columns are not part of
	// the SELECT; returned missions carry zero values there.
	ListMissions(ctx context.Context, scope []int64, includeFinancial bool) ([]*domain.Mission, error)

	SetLead(ctx context.Context, missionID, userID int64) error
	Assign(ctx context.Context, a *domain.MissionAssignment) error
}

// Seeder loads and resets the demo dataset.
type Seeder interface {
	// SeedIfEmpty loads demo data when the user table is empty.
	SeedIfEmpty(ctx context.Context) error
	// Reset truncates operational tables and reloads demo data.
	Reset(ctx context.Context) error
}

// MissionInput carries all mission fields an admin may set. Financial fields
// travel only through this admin path.
type MissionInput struct {
	ClientID      int64
	Code          string
	Name          string
	Status        domain.MissionStatus
	StartDate     string
	EndDate       string
	SoldDays      float64
	SoldAmountEUR float64
	DailyCostEUR  float64
	Notes         string
}

// MissionSummary is the role-masked mission row returned by reads. Financial
// is nil whenever the caller lacks the FinancialSummary read grant.
type MissionSummary struct {
	ID        int64
	Code      string
	Name      string
	ClientID  int64
	Status    domain.MissionStatus
	StartDate string
	EndDate   string
	SoldDays  float64
	Notes     string
	Financial *MissionFinancial
}

// MissionFinancial holds the restricted money columns of a mission.
type MissionFinancial struct {
	SoldAmountEUR float64
	DailyCostEUR  float64
}

// ReferentialService is the policy-checked surface for referential CRUD and
// demo administration.
type ReferentialService interface {
	CreateClient(ctx context.Context, actor domain.Actor, name string) (*domain.Client, error)
	ListClients(ctx context.Context, actor domain.Actor) ([]*domain.Client, error)

	CreateMission(ctx context.Context, actor domain.Actor, input MissionInput) (*MissionSummary, error)
	UpdateMission(ctx context.Context, actor domain.Actor, missionID int64, input MissionInput) error
	ListMissions(ctx context.Context, actor domain.Actor) ([]*MissionSummary, error)

	SetLead(ctx context.Context, actor domain.Actor, missionID, userID int64) error
	Assign(ctx context.Context, actor domain.Actor, missionID, userID int64, startDate, endDate string, allocationPct int) error

	ResetDemo(ctx context.Context, actor domain.Actor) error
}
