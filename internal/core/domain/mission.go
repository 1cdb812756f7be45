package domain

// MissionStatus represents the lifecycle state of a mission.
type MissionStatus string

const (
	MissionPipeline  MissionStatus = "pipeline"
	MissionOngoing   MissionStatus = "ongoing"
	MissionPaused    MissionStatus = "paused"
	MissionDone      MissionStatus = "done"
	MissionCancelled MissionStatus = "cancelled"
)

// ValidMissionStatus reports whether s is a known lifecycle state.
func ValidMissionStatus(s MissionStatus) bool {
	switch s {
	case MissionPipeline, MissionOngoing, MissionPaused, MissionDone, MissionCancelled:
		return true
	}
	return false
}

// Client is a referential record a mission is sold to.
type Client struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"is_active"`
}

// Mission is the central operational aggregate. Dates are ISO "2006-01-02"
// strings, matching their TEXT representation in storage.
//
// SoldAmountEUR and DailyCostEUR are financial fields: they never reach a
// Lead or Consultant payload. The policy engine owns that rule; Mission
// itself is role-agnostic.
type Mission struct {
	ID            int64         `json:"id"`
	ClientID      int64         `json:"client_id"`
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Status        MissionStatus `json:"status"`
	StartDate     string        `json:"start_date"`
	EndDate       string        `json:"end_date,omitempty"`
	SoldDays      float64       `json:"sold_days"`
	SoldAmountEUR float64       `json:"sold_amount_eur"`
	DailyCostEUR  float64       `json:"daily_cost_eur"`
	Notes         string        `json:"notes,omitempty"`
	Active        bool          `json:"is_active"`
}

// MissionAssignment staffs a user on a mission over a period.
type MissionAssignment struct {
	ID            int64  `json:"id"`
	MissionID     int64  `json:"mission_id"`
	UserID        int64  `json:"user_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	AllocationPct int    `json:"allocation_pct"`
}
