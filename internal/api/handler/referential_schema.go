package handler

// --- Request / Response types for the referential surface ---

type createClientRequest struct {
	Name string `json:"name" validate:"required"`
}

type missionRequest struct {
	ClientID      int64   `json:"client_id"       validate:"required"`
	Code          string  `json:"code"            validate:"required"`
	Name          string  `json:"name"            validate:"required"`
	Status        string  `json:"status"          validate:"required,oneof=pipeline ongoing paused done cancelled"`
	StartDate     string  `json:"start_date"      validate:"required,datetime=2006-01-02"`
	EndDate       string  `json:"end_date"        validate:"omitempty,datetime=2006-01-02"`
	SoldDays      float64 `json:"sold_days"       validate:"min=0"`
	SoldAmountEUR float64 `json:"sold_amount_eur" validate:"min=0"`
	DailyCostEUR  float64 `json:"daily_cost_eur"  validate:"min=0"`
	Notes         string  `json:"notes"`
}

type setLeadRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

type assignRequest struct {
	UserID        int64  `json:"user_id"        validate:"required"`
	StartDate     string `json:"start_date"     validate:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date"       validate:"omitempty,datetime=2006-01-02"`
	AllocationPct int    `json:"allocation_pct" validate:"min=0,max=100"`
}

// missionResponse is the role-masked mission payload. The financial block is
// omitted entirely for roles without the financial grant.
type missionResponse struct {
	ID        int64              `json:"id"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	ClientID  int64              `json:"client_id"`
	Status    string             `json:"status"`
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date,omitempty"`
	SoldDays  float64            `json:"sold_days"`
	Notes     string             `json:"notes,omitempty"`
	Financial *financialResponse `json:"financial,omitempty"`
}

type financialResponse struct {
	SoldAmountEUR float64 `json:"sold_amount_eur"`
	DailyCostEUR  float64 `json:"daily_cost_eur"`
}
