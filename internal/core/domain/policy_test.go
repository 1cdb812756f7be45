package domain

import "testing"

func TestCanAccess_GrantTable(t *testing.T) {
	cases := []struct {
		role     Role
		resource ResourceKind
		action   Action
		want     bool
	}{
		{RoleAdmin, ResourceReferential, ActionReset, true},
		{RoleAdmin, ResourceFinancialSummary, ActionWrite, true},
		{RoleBoard, ResourceFinancialSummary, ActionRead, true},
		{RoleBoard, ResourceCRAEntry, ActionExport, true},
		{RoleBoard, ResourceCRAEntry, ActionWrite, false},
		{RoleBoard, ResourceReferential, ActionWrite, false},
		{RoleBoard, ResourceReferential, ActionReset, false},
		{RoleLead, ResourceMission, ActionWrite, true},
		{RoleLead, ResourceCRAEntry, ActionImport, true},
		{RoleLead, ResourceFinancialSummary, ActionRead, false},
		{RoleLead, ResourceReferential, ActionRead, false},
		{RoleConsultant, ResourceMission, ActionRead, true},
		{RoleConsultant, ResourceMission, ActionWrite, false},
		{RoleConsultant, ResourceCRAEntry, ActionWrite, true},
		{RoleConsultant, ResourceFinancialSummary, ActionRead, false},
	}
	for _, tc := range cases {
		if got := CanAccess(tc.role, tc.resource, tc.action); got != tc.want {
			t.Errorf("CanAccess(%s, %s, %s) = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
}

// An unknown role or resource must always be denied, whatever the action.
func TestCanAccess_FailsClosed(t *testing.T) {
	actions := []Action{ActionRead, ActionWrite, ActionImport, ActionExport, ActionReset}
	for _, a := range actions {
		if CanAccess(Role("INTERN"), ResourceMission, a) {
			t.Errorf("unknown role granted %s on mission", a)
		}
		if CanAccess(RoleAdmin, ResourceKind("payroll"), a) {
			t.Errorf("admin granted %s on unknown resource", a)
		}
		if CanAccess(Role(""), ResourceCRAEntry, a) {
			t.Errorf("empty role granted %s on cra_entry", a)
		}
	}
}

func TestVisibleFields_FinancialDenylist(t *testing.T) {
	for _, role := range []Role{RoleLead, RoleConsultant} {
		fields := VisibleFields(role, ResourceMission)
		if len(fields) == 0 {
			t.Fatalf("%s should see operational mission fields", role)
		}
		for f := range fields {
			if FinancialField(f) {
				t.Errorf("%s sees financial field %s", role, f)
			}
		}
	}

	for _, role := range []Role{RoleAdmin, RoleBoard} {
		fields := VisibleFields(role, ResourceMission)
		if !fields.Has(FieldSoldAmountEUR) || !fields.Has(FieldMarginEUR) {
			t.Errorf("%s should see financial mission fields", role)
		}
	}
}

// A role without a read grant gets an empty set, not a partial one.
func TestVisibleFields_NoReadGrant(t *testing.T) {
	if got := VisibleFields(RoleConsultant, ResourceFinancialSummary); len(got) != 0 {
		t.Errorf("consultant sees %d financial summary fields, want 0", len(got))
	}
	if got := VisibleFields(Role("INTERN"), ResourceMission); len(got) != 0 {
		t.Errorf("unknown role sees %d mission fields, want 0", len(got))
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleBoard.AtLeast(RoleLead) {
		t.Error("board should rank at least lead")
	}
	if RoleConsultant.AtLeast(RoleBoard) {
		t.Error("consultant should not rank at least board")
	}
	if !RoleAdmin.AtLeast(RoleAdmin) {
		t.Error("admin should rank at least admin")
	}
	if Role("INTERN").AtLeast(RoleConsultant) {
		t.Error("unknown role should rank below every known role")
	}
}
