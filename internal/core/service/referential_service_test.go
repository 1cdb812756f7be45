package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

type stubSeeder struct {
	resets int
}

func (s *stubSeeder) SeedIfEmpty(context.Context) error { return nil }
func (s *stubSeeder) Reset(context.Context) error       { s.resets++; return nil }

func newReferentialFixture() (*ReferentialService, *stubReferential, *stubSeeder) {
	ref := newStubReferential()
	ref.missionsByCode["M1"] = &domain.Mission{
		ID: 10, Code: "M1", Name: "Diagnostic", ClientID: 1, Status: domain.MissionOngoing,
		SoldDays: 40, SoldAmountEUR: 48000, DailyCostEUR: 650, Active: true,
	}
	ref.missionScope[2] = []int64{10}
	ref.missionScope[3] = []int64{10}

	seeder := &stubSeeder{}
	return NewReferentialService(ref, seeder, zerolog.Nop()), ref, seeder
}

func TestListMissions_MasksFinancialsByRole(t *testing.T) {
	svc, _, _ := newReferentialFixture()

	for _, actor := range []domain.Actor{actorLead, actorConsult} {
		missions, err := svc.ListMissions(context.Background(), actor)
		if err != nil {
			t.Fatalf("%s: %v", actor.Role, err)
		}
		if len(missions) != 1 {
			t.Fatalf("%s: got %d missions, want 1", actor.Role, len(missions))
		}
		if missions[0].Financial != nil {
			t.Errorf("%s: financial section leaked", actor.Role)
		}
		if missions[0].SoldDays != 40 {
			t.Errorf("%s: operational sold_days masked, want 40", actor.Role)
		}
	}

	missions, err := svc.ListMissions(context.Background(), actorBoard)
	if err != nil {
		t.Fatal(err)
	}
	if missions[0].Financial == nil {
		t.Fatal("board mission missing financial section")
	}
	if missions[0].Financial.SoldAmountEUR != 48000 {
		t.Errorf("sold_amount = %v, want 48000", missions[0].Financial.SoldAmountEUR)
	}
}

func TestCreateMission_WriteGrantRequired(t *testing.T) {
	svc, _, _ := newReferentialFixture()

	input := ports.MissionInput{
		ClientID: 1, Code: "M9", Name: "Due diligence", Status: domain.MissionPipeline, StartDate: "2026-09-01",
	}

	// Board reads the referential but does not edit it.
	for _, actor := range []domain.Actor{actorBoard, actorLead, actorConsult} {
		_, err := svc.CreateMission(context.Background(), actor, input)
		var denied *domain.AccessDenied
		if !errors.As(err, &denied) {
			t.Errorf("%s: expected AccessDenied, got %v", actor.Role, err)
		}
	}

	created, err := svc.CreateMission(context.Background(), actorAdmin, input)
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if created.Code != "M9" {
		t.Errorf("created code = %q, want M9", created.Code)
	}
}

func TestCreateMission_Validation(t *testing.T) {
	svc, _, _ := newReferentialFixture()

	cases := []struct {
		name  string
		input ports.MissionInput
	}{
		{"missing_code", ports.MissionInput{ClientID: 1, Name: "x", Status: domain.MissionOngoing, StartDate: "2026-09-01"}},
		{"missing_client", ports.MissionInput{Code: "M9", Name: "x", Status: domain.MissionOngoing, StartDate: "2026-09-01"}},
		{"bad_status", ports.MissionInput{ClientID: 1, Code: "M9", Name: "x", Status: "ARCHIVED", StartDate: "2026-09-01"}},
		{"bad_date", ports.MissionInput{ClientID: 1, Code: "M9", Name: "x", Status: domain.MissionOngoing, StartDate: "01/09/2026"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateMission(context.Background(), actorAdmin, tc.input)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestAssign_RejectsBadAllocation(t *testing.T) {
	svc, _, _ := newReferentialFixture()

	err := svc.Assign(context.Background(), actorAdmin, 10, 3, "2026-09-01", "", 150)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestResetDemo_AdminOnly(t *testing.T) {
	svc, _, seeder := newReferentialFixture()

	for _, actor := range []domain.Actor{actorBoard, actorLead, actorConsult} {
		err := svc.ResetDemo(context.Background(), actor)
		var denied *domain.AccessDenied
		if !errors.As(err, &denied) {
			t.Errorf("%s: expected AccessDenied, got %v", actor.Role, err)
		}
	}
	if seeder.resets != 0 {
		t.Fatalf("seeder reset %d times before an admin asked", seeder.resets)
	}

	if err := svc.ResetDemo(context.Background(), actorAdmin); err != nil {
		t.Fatal(err)
	}
	if seeder.resets != 1 {
		t.Fatalf("seeder resets = %d, want 1", seeder.resets)
	}
}
