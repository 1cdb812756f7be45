package domain

// ResourceKind names a protected class of data.
type ResourceKind string

const (
	ResourceMission          ResourceKind = "mission"
	ResourceCRAEntry         ResourceKind = "cra_entry"
	ResourceFinancialSummary ResourceKind = "financial_summary"
	ResourceReferential      ResourceKind = "referential"
)

// Action names an operation on a resource kind.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionImport Action = "import"
	ActionExport Action = "export"
	ActionReset  Action = "reset"
)

type grantKey struct {
	role     Role
	resource ResourceKind
	action   Action
}

// grants is the authoritative policy table. Evaluation is fail-closed: a
// (role, resource, action) triple absent from this map is denied. Row-level
// scoping (own missions, own team, own entries) is enforced by the data
// access layer on top of these grants.
var grants = map[grantKey]struct{}{}

func grant(role Role, resource ResourceKind, actions ...Action) {
	for _, a := range actions {
		grants[grantKey{role, resource, a}] = struct{}{}
	}
}

func init() {
	// Admin: full control, including referential CRUD and demo reset.
	grant(RoleAdmin, ResourceMission, ActionRead, ActionWrite)
	grant(RoleAdmin, ResourceCRAEntry, ActionRead, ActionWrite, ActionImport, ActionExport)
	grant(RoleAdmin, ResourceFinancialSummary, ActionRead, ActionWrite)
	grant(RoleAdmin, ResourceReferential, ActionRead, ActionWrite, ActionImport, ActionExport, ActionReset)

	// Board: full financial visibility, read-only elsewhere.
	grant(RoleBoard, ResourceMission, ActionRead, ActionWrite)
	grant(RoleBoard, ResourceCRAEntry, ActionRead, ActionExport)
	grant(RoleBoard, ResourceFinancialSummary, ActionRead, ActionWrite)
	grant(RoleBoard, ResourceReferential, ActionRead)

	// Lead: operational read/write on own missions, own + team CRA, no finance.
	grant(RoleLead, ResourceMission, ActionRead, ActionWrite)
	grant(RoleLead, ResourceCRAEntry, ActionRead, ActionWrite, ActionImport, ActionExport)

	// Consultant: read own missions, write own CRA.
	grant(RoleConsultant, ResourceMission, ActionRead)
	grant(RoleConsultant, ResourceCRAEntry, ActionRead, ActionWrite, ActionImport, ActionExport)
}

// CanAccess reports whether role holds an explicit grant for (resource,
// action). Default is deny.
func CanAccess(role Role, resource ResourceKind, action Action) bool {
	_, ok := grants[grantKey{role, resource, action}]
	return ok
}

// FieldName identifies a column of a resource in view payloads and exports.
type FieldName string

const (
	FieldCode          FieldName = "code"
	FieldMissionName   FieldName = "name"
	FieldClientName    FieldName = "client_name"
	FieldStatus        FieldName = "status"
	FieldStartDate     FieldName = "start_date"
	FieldEndDate       FieldName = "end_date"
	FieldSoldDays      FieldName = "sold_days"
	FieldSoldHours     FieldName = "sold_hours"
	FieldConsumedHours FieldName = "consumed_hours"
	FieldConsumedPct   FieldName = "consumed_pct"
	FieldNotes         FieldName = "notes"
	FieldSoldAmountEUR FieldName = "sold_amount_eur"
	FieldDailyCostEUR  FieldName = "daily_cost_eur"
	FieldCostEUR       FieldName = "cost_eur"
	FieldMarginEUR     FieldName = "margin_eur"
)

// FieldSet is a set of visible field names.
type FieldSet map[FieldName]struct{}

// Has reports whether f is in the set.
func (s FieldSet) Has(f FieldName) bool {
	_, ok := s[f]
	return ok
}

// financialFields is the denylist stripped from any Mission payload for
// roles without a FinancialSummary read grant. It applies on top of Mission
// read grants: even a future broadening of Mission access keeps these out.
var financialFields = FieldSet{
	FieldSoldAmountEUR: {},
	FieldDailyCostEUR:  {},
	FieldCostEUR:       {},
	FieldMarginEUR:     {},
}

// FinancialField reports whether f is on the financial denylist.
func FinancialField(f FieldName) bool {
	return financialFields.Has(f)
}

var missionOpsFields = []FieldName{
	FieldCode, FieldMissionName, FieldClientName, FieldStatus, FieldStartDate,
	FieldEndDate, FieldSoldDays, FieldSoldHours, FieldConsumedHours,
	FieldConsumedPct, FieldNotes,
}

var financialSummaryFields = []FieldName{
	FieldCode, FieldMissionName, FieldClientName,
	FieldSoldAmountEUR, FieldDailyCostEUR, FieldCostEUR, FieldMarginEUR,
}

// VisibleFields returns the set of fields role may see on resource. A role
// without a read grant gets an empty set; roles without FinancialSummary
// access never see denylisted fields on any resource.
func VisibleFields(role Role, resource ResourceKind) FieldSet {
	out := FieldSet{}
	if !CanAccess(role, resource, ActionRead) {
		return out
	}

	var fields []FieldName
	switch resource {
	case ResourceMission:
		fields = missionOpsFields
		if CanAccess(role, ResourceFinancialSummary, ActionRead) {
			fields = append(fields, FieldSoldAmountEUR, FieldDailyCostEUR, FieldCostEUR, FieldMarginEUR)
		}
	case ResourceFinancialSummary:
		fields = financialSummaryFields
	case ResourceCRAEntry:
		fields = []FieldName{FieldCode, FieldClientName, FieldStatus, FieldConsumedHours}
	default:
		return out
	}

	for _, f := range fields {
		if FinancialField(f) && !CanAccess(role, ResourceFinancialSummary, ActionRead) {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}
