package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// Seeder loads the demo dataset used by local runs and the reset-demo
// endpoint. Hashes are computed at seed time so the demo password never
// lands in the repository.
type Seeder struct {
	db            *sql.DB
	adminPassword string
	demoPassword  string
	bcryptCost    int
}

func NewSeeder(db *sql.DB, adminPassword, demoPassword string, bcryptCost int) *Seeder {
	return &Seeder{db: db, adminPassword: adminPassword, demoPassword: demoPassword, bcryptCost: bcryptCost}
}

// SeedIfEmpty loads demo data only when no user exists yet.
func (s *Seeder) SeedIfEmpty(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return storageErr("count users", err)
	}
	if count > 0 {
		return nil
	}
	return s.seed(ctx)
}

// Reset truncates operational tables and reloads the demo dataset.
func (s *Seeder) Reset(ctx context.Context) error {
	tables := []string{
		"time_entries", "capacity_overrides", "mission_assignments",
		"mission_leads", "missions", "clients", "users", "import_batches",
	}
	if err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return storageErr("truncate "+t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return s.seed(ctx)
}

type seedUser struct {
	username string
	fullName string
	email    string
	role     domain.Role
}

var demoUsers = []seedUser{
	{"admin", "Alix Dupont", "admin@atlasconseil.example", domain.RoleAdmin},
	{"board1", "Bertrand Morel", "b.morel@atlasconseil.example", domain.RoleBoard},
	{"lead1", "Lea Fontaine", "l.fontaine@atlasconseil.example", domain.RoleLead},
	{"lead2", "Luc Perrin", "l.perrin@atlasconseil.example", domain.RoleLead},
	{"consult1", "Camille Roche", "c.roche@atlasconseil.example", domain.RoleConsultant},
	{"consult2", "Chloe Garnier", "c.garnier@atlasconseil.example", domain.RoleConsultant},
	{"consult3", "Cedric Blanc", "c.blanc@atlasconseil.example", domain.RoleConsultant},
}

func (s *Seeder) seed(ctx context.Context) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		userIDs := map[string]int64{}
		for _, u := range demoUsers {
			password := s.demoPassword
			if u.role == domain.RoleAdmin {
				password = s.adminPassword
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
			if err != nil {
				return fmt.Errorf("hash demo password: %w", err)
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO users (username, password_hash, role, full_name, email, is_active)
				 VALUES (?, ?, ?, ?, ?, 1)`,
				u.username, string(hash), u.role, u.fullName, u.email)
			if err != nil {
				return storageErr("seed user", err)
			}
			userIDs[u.username], _ = res.LastInsertId()
		}

		clientIDs := map[string]int64{}
		for _, name := range []string{"Nexa Retail", "Banque Horizon", "Groupe Veyron"} {
			res, err := tx.ExecContext(ctx, "INSERT INTO clients (name, is_active) VALUES (?, 1)", name)
			if err != nil {
				return storageErr("seed client", err)
			}
			clientIDs[name], _ = res.LastInsertId()
		}

		missions := []struct {
			client    string
			code      string
			name      string
			status    domain.MissionStatus
			start     string
			soldDays  float64
			soldEUR   float64
			dailyCost float64
		}{
			{"Nexa Retail", "M1", "Supply chain diagnostic", domain.MissionOngoing, "2026-05-04", 40, 48000, 650},
			{"Banque Horizon", "M2", "Core banking migration PMO", domain.MissionOngoing, "2026-03-02", 120, 156000, 700},
			{"Groupe Veyron", "M3", "Carve-out due diligence", domain.MissionOngoing, "2026-06-15", 25, 37500, 800},
			{"Nexa Retail", "M4", "Pricing strategy sprint", domain.MissionPipeline, "2026-09-01", 15, 22500, 750},
		}
		missionIDs := map[string]int64{}
		for _, m := range missions {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO missions (client_id, code, name, status, start_date,
				  sold_days, sold_amount_eur, daily_cost_eur, is_active)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
				clientIDs[m.client], m.code, m.name, m.status, m.start, m.soldDays, m.soldEUR, m.dailyCost)
			if err != nil {
				return storageErr("seed mission", err)
			}
			missionIDs[m.code], _ = res.LastInsertId()
		}

		leads := map[string]string{"M1": "lead1", "M2": "lead1", "M3": "lead2"}
		for code, lead := range leads {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO mission_leads (mission_id, user_id) VALUES (?, ?)",
				missionIDs[code], userIDs[lead]); err != nil {
				return storageErr("seed lead", err)
			}
		}

		assignments := []struct {
			code  string
			user  string
			start string
		}{
			{"M1", "consult1", "2026-05-04"},
			{"M1", "consult2", "2026-05-04"},
			{"M2", "consult1", "2026-03-02"},
			{"M2", "consult3", "2026-03-02"},
			{"M3", "consult3", "2026-06-15"},
		}
		for _, a := range assignments {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO mission_assignments (mission_id, user_id, start_date, allocation_pct)
				 VALUES (?, ?, ?, 100)`,
				missionIDs[a.code], userIDs[a.user], a.start); err != nil {
				return storageErr("seed assignment", err)
			}
		}

		entries := []struct {
			date     string
			user     string
			code     string
			category domain.Category
			hours    int
		}{
			{"2026-08-17", "consult1", "M1", domain.CategoryBillable, 8},
			{"2026-08-18", "consult1", "M1", domain.CategoryBillable, 4},
			{"2026-08-18", "consult1", "", domain.CategoryInternal, 4},
			{"2026-08-17", "consult2", "M1", domain.CategoryBillable, 8},
			{"2026-08-18", "consult2", "M1", domain.CategoryNonBillableClient, 8},
			{"2026-08-17", "consult3", "M2", domain.CategoryBillable, 8},
			{"2026-08-18", "consult3", "M3", domain.CategoryBillable, 8},
			{"2026-08-19", "consult3", "M3", domain.CategoryBillable, 8},
			{"2026-08-17", "lead1", "M1", domain.CategoryBillable, 4},
			{"2026-08-17", "lead1", "", domain.CategoryInternal, 4},
		}
		for _, e := range entries {
			var mission any
			if e.code != "" {
				mission = missionIDs[e.code]
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO time_entries (entry_date, user_id, mission_id, category, hours)
				 VALUES (?, ?, ?, ?, ?)`,
				e.date, userIDs[e.user], mission, e.category, e.hours); err != nil {
				return storageErr("seed entry", err)
			}
		}
		return nil
	})
}
