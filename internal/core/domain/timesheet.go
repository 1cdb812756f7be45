package domain

import "time"

// Category classifies how logged time is billed.
type Category string

const (
	CategoryBillable          Category = "billable"
	CategoryNonBillableClient Category = "non_billable_client"
	CategoryInternal          Category = "internal"
)

// ValidCategory reports whether c is a known time category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryBillable, CategoryNonBillableClient, CategoryInternal:
		return true
	}
	return false
}

// DateLayout is the ISO day format used for all date-only fields.
const DateLayout = "2006-01-02"

// ValidHours is the set of accepted day buckets: quarter, half, full day.
var ValidHours = map[int]struct{}{1: {}, 4: {}, 8: {}}

// TimeEntry is a single CRA (compte-rendu d'activité) record. MissionID is
// nil for internal time not attached to a mission.
type TimeEntry struct {
	ID          int64     `json:"id"`
	EntryDate   string    `json:"entry_date"`
	UserID      int64     `json:"user_id"`
	MissionID   *int64    `json:"mission_id,omitempty"`
	Category    Category  `json:"category"`
	Hours       int       `json:"hours"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CapacityOverride replaces the default daily capacity for one user on one
// date (part-time day, absence, exceptional overtime allowance).
type CapacityOverride struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Date      string `json:"cap_date"`
	CapacityH int    `json:"capacity_h"`
	Reason    string `json:"reason,omitempty"`
}
