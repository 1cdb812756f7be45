package ports

import (
	"context"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// KPIQuery names one pre-approved query on the chatbot surface. The set is
// fixed at compile time; callers pick a name, never supply query text.
type KPIQuery string

const (
	KPIMissionsAtRisk      KPIQuery = "missionsAtRisk"
	KPICapacityUtilization KPIQuery = "capacityUtilization"
	KPITimeSplit           KPIQuery = "timeSplit"
	KPIMissionStatus       KPIQuery = "missionStatus"
	KPIFinancialSynthesis  KPIQuery = "financialSynthesis"
)

// KPIParams are the only caller-supplied inputs a named query accepts.
// They narrow within the caller's scope; they can never widen it.
type KPIParams struct {
	MissionCode string
	DateFrom    string
	DateTo      string
}

// KPIResult is a tabular answer plus a one-line summary. Columns are the
// payload's only field names, so masking is auditable per row set.
type KPIResult struct {
	Query   KPIQuery `json:"query"`
	Summary string   `json:"summary"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// KPIInfo describes one catalog entry for the chatbot's help output.
type KPIInfo struct {
	Query       KPIQuery    `json:"query"`
	Description string      `json:"description"`
	MinRole     domain.Role `json:"min_role"`
}

// KPIService is the restricted read-only surface consumed by the chatbot.
// Each named query declares a minimum role, checked before any data access.
type KPIService interface {
	Run(ctx context.Context, actor domain.Actor, query KPIQuery, params KPIParams) (*KPIResult, error)
	// Catalog lists the queries the given role may invoke.
	Catalog(role domain.Role) []KPIInfo
}
