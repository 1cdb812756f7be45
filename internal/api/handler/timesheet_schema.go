package handler

// --- Request / Response types for the CRA surface ---

type logTimeRequest struct {
	// UserID is optional; zero means the caller logs for themselves. Only an
	// admin may set it to another user.
	UserID      int64  `json:"user_id"`
	EntryDate   string `json:"entry_date"  validate:"required,datetime=2006-01-02"`
	MissionID   *int64 `json:"mission_id"`
	Category    string `json:"category"    validate:"required,oneof=billable non_billable_client internal"`
	Hours       int    `json:"hours"       validate:"required,oneof=1 4 8"`
	Description string `json:"description"`
}

type capacityOverrideRequest struct {
	UserID    int64  `json:"user_id"    validate:"required"`
	Date      string `json:"cap_date"   validate:"required,datetime=2006-01-02"`
	CapacityH int    `json:"capacity_h" validate:"min=0,max=24"`
	Reason    string `json:"reason"`
}

type importResponse struct {
	Imported         int  `json:"imported"`
	AlreadyProcessed bool `json:"already_processed"`
}
