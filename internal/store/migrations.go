package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Athlete profile (singleton row): threshold settings and the
		// latest computed fitness snapshot.
		`CREATE TABLE IF NOT EXISTS athlete_profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			ftp REAL NOT NULL,
			weight_kg REAL,
			ctl REAL DEFAULT 0,
			atl REAL DEFAULT 0,
			tsb REAL DEFAULT 0,
			rider_type TEXT,
			fitness_computed_at TEXT,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Rides (summary data plus computed training metrics)
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL DEFAULT 'strava',
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			distance REAL,
			total_elevation_gain REAL,
			average_watts REAL,
			weighted_average_watts REAL,
			max_watts REAL,
			device_watts INTEGER DEFAULT 0,
			trainer INTEGER DEFAULT 0,
			normalized_power REAL,
			intensity_factor REAL,
			tss REAL,
			samples_synced INTEGER DEFAULT 0,
			time_zone1 INTEGER DEFAULT 0,
			time_zone2 INTEGER DEFAULT 0,
			time_zone3 INTEGER DEFAULT 0,
			time_zone4 INTEGER DEFAULT 0,
			time_zone5 INTEGER DEFAULT 0,
			time_zone6 INTEGER DEFAULT 0,
			time_zone7 INTEGER DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_external ON activities(external_id)`,

		// Power samples (1 Hz watts from streams or FIT records)
		`CREATE TABLE IF NOT EXISTS power_samples (
			activity_id INTEGER NOT NULL,
			time_offset INTEGER NOT NULL,
			watts REAL NOT NULL,
			PRIMARY KEY (activity_id, time_offset),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Personal records (all-time best power per canonical duration)
		`CREATE TABLE IF NOT EXISTS power_records (
			duration_key TEXT PRIMARY KEY,
			watts REAL NOT NULL,
			achieved_at TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Training programs (macro plan serialized as JSON)
		`CREATE TABLE IF NOT EXISTS training_programs (
			id TEXT PRIMARY KEY,
			goal_type TEXT NOT NULL,
			goal_description TEXT,
			target_date TEXT,
			hours_per_week REAL NOT NULL,
			sessions_per_week INTEGER NOT NULL,
			total_weeks INTEGER NOT NULL,
			macro_plan TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Week plans (one row per planned week of a program)
		`CREATE TABLE IF NOT EXISTS week_plans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			program_id TEXT NOT NULL,
			week_number INTEGER NOT NULL,
			phase TEXT NOT NULL,
			is_recovery INTEGER DEFAULT 0,
			target_tss REAL NOT NULL,
			target_sessions INTEGER NOT NULL,
			target_hours REAL,
			actual_tss REAL,
			actual_sessions INTEGER,
			actual_hours REAL,
			actual_ctl REAL,
			status TEXT NOT NULL DEFAULT 'planned',
			instructions TEXT,
			adaptation_notes TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (program_id, week_number),
			FOREIGN KEY (program_id) REFERENCES training_programs(id) ON DELETE CASCADE
		)`,

		// Planned workouts (sessions within a week plan)
		`CREATE TABLE IF NOT EXISTS planned_workouts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			week_plan_id INTEGER NOT NULL,
			day_index INTEGER NOT NULL,
			workout_type TEXT NOT NULL,
			target_tss REAL NOT NULL,
			target_duration_min INTEGER NOT NULL,
			steps_text TEXT,
			status TEXT NOT NULL DEFAULT 'planned',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (week_plan_id) REFERENCES week_plans(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_week_plans_program ON week_plans(program_id)`,
		`CREATE INDEX IF NOT EXISTS idx_planned_workouts_week ON planned_workouts(week_plan_id)`,

		// Sync state (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
