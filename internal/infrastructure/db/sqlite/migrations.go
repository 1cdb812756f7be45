package sqlite

// migrations is the full schema, applied in order at startup. Statements are
// idempotent (IF NOT EXISTS) so restarts are safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('ADMIN','BOARD','LEAD','CONSULTANT')),
		full_name     TEXT NOT NULL,
		email         TEXT,
		is_active     INTEGER NOT NULL DEFAULT 1 CHECK (is_active IN (0,1)),
		created_at    TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS clients (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		name      TEXT NOT NULL UNIQUE,
		is_active INTEGER NOT NULL DEFAULT 1 CHECK (is_active IN (0,1))
	)`,

	`CREATE TABLE IF NOT EXISTS missions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id       INTEGER NOT NULL,
		code            TEXT NOT NULL UNIQUE,
		name            TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'ongoing'
		                 CHECK (status IN ('pipeline','ongoing','paused','done','cancelled')),
		start_date      TEXT NOT NULL,
		end_date        TEXT,
		sold_days       REAL NOT NULL DEFAULT 0,
		sold_amount_eur REAL NOT NULL DEFAULT 0,
		daily_cost_eur  REAL NOT NULL DEFAULT 0,
		notes           TEXT,
		is_active       INTEGER NOT NULL DEFAULT 1 CHECK (is_active IN (0,1)),
		FOREIGN KEY (client_id) REFERENCES clients(id)
	)`,

	`CREATE TABLE IF NOT EXISTS mission_leads (
		mission_id INTEGER NOT NULL,
		user_id    INTEGER NOT NULL,
		PRIMARY KEY (mission_id, user_id),
		FOREIGN KEY (mission_id) REFERENCES missions(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS mission_assignments (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		mission_id     INTEGER NOT NULL,
		user_id        INTEGER NOT NULL,
		start_date     TEXT NOT NULL,
		end_date       TEXT,
		allocation_pct INTEGER NOT NULL DEFAULT 100 CHECK (allocation_pct BETWEEN 0 AND 100),
		FOREIGN KEY (mission_id) REFERENCES missions(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS time_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_date  TEXT NOT NULL,
		user_id     INTEGER NOT NULL,
		mission_id  INTEGER,
		category    TEXT NOT NULL CHECK (category IN ('billable','non_billable_client','internal')),
		hours       INTEGER NOT NULL CHECK (hours IN (1,4,8)),
		description TEXT,
		created_at  TEXT NOT NULL DEFAULT (datetime('now')),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (mission_id) REFERENCES missions(id) ON DELETE SET NULL
	)`,

	`CREATE INDEX IF NOT EXISTS ix_time_entries_user_date ON time_entries(user_id, entry_date)`,
	`CREATE INDEX IF NOT EXISTS ix_time_entries_mission_date ON time_entries(mission_id, entry_date)`,

	`CREATE TABLE IF NOT EXISTS capacity_overrides (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL,
		cap_date   TEXT NOT NULL,
		capacity_h INTEGER NOT NULL CHECK (capacity_h BETWEEN 0 AND 24),
		reason     TEXT,
		UNIQUE (user_id, cap_date),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS import_batches (
		key        TEXT PRIMARY KEY,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	// Derived projections. Views recompute on every read; nothing derived is
	// ever stored.
	`CREATE VIEW IF NOT EXISTS kpi_mission_hours AS
	SELECT
	  m.id         AS mission_id,
	  m.code       AS mission_code,
	  m.name       AS mission_name,
	  c.name       AS client_name,
	  m.status     AS status,
	  m.sold_days  AS sold_days,
	  ROUND(m.sold_days * 8.0, 2) AS sold_hours,
	  COALESCE(SUM(te.hours), 0)  AS consumed_hours,
	  ROUND((COALESCE(SUM(te.hours), 0) / NULLIF(m.sold_days * 8.0, 0)) * 100.0, 1) AS consumed_pct
	FROM missions m
	JOIN clients c ON c.id = m.client_id
	LEFT JOIN time_entries te
	  ON te.mission_id = m.id
	 AND te.category IN ('billable','non_billable_client')
	WHERE m.is_active = 1
	GROUP BY m.id`,

	`CREATE VIEW IF NOT EXISTS kpi_mission_risk AS
	SELECT
	  mission_id,
	  mission_code,
	  mission_name,
	  client_name,
	  status,
	  sold_hours,
	  consumed_hours,
	  CASE
	    WHEN sold_hours = 0 THEN 'no_sold_load'
	    WHEN consumed_hours > sold_hours THEN 'overrun'
	    WHEN consumed_hours >= sold_hours * 0.9 THEN 'near_limit'
	    ELSE 'ok'
	  END AS risk_level
	FROM kpi_mission_hours`,

	`CREATE VIEW IF NOT EXISTS kpi_user_load_daily AS
	SELECT
	  te.entry_date AS day,
	  u.id          AS user_id,
	  u.full_name   AS user_name,
	  SUM(te.hours) AS logged_hours
	FROM time_entries te
	JOIN users u ON u.id = te.user_id
	WHERE u.is_active = 1
	GROUP BY te.entry_date, u.id`,

	`CREATE VIEW IF NOT EXISTS kpi_finance_mission AS
	SELECT
	  m.id   AS mission_id,
	  m.code AS mission_code,
	  m.name AS mission_name,
	  c.name AS client_name,
	  m.sold_amount_eur AS sold_amount_eur,
	  m.daily_cost_eur  AS daily_cost_eur,
	  COALESCE(SUM(te.hours), 0) AS consumed_hours,
	  ROUND((COALESCE(SUM(te.hours), 0) / 8.0) * m.daily_cost_eur, 2) AS cost_eur,
	  ROUND(m.sold_amount_eur - ((COALESCE(SUM(te.hours), 0) / 8.0) * m.daily_cost_eur), 2) AS margin_eur
	FROM missions m
	JOIN clients c ON c.id = m.client_id
	LEFT JOIN time_entries te
	  ON te.mission_id = m.id
	 AND te.category IN ('billable','non_billable_client')
	WHERE m.is_active = 1
	GROUP BY m.id`,
}
