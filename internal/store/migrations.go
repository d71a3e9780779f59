package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per supervisor boot with tracing on
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			plugins TEXT NOT NULL DEFAULT '',
			start_tick INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,

		// Hand frames table - raw classification stream per session
		`CREATE TABLE IF NOT EXISTS hand_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			hand_id TEXT NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		// Intents table - committed gesture transitions per session
		`CREATE TABLE IF NOT EXISTS intents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			hand_id TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('pinch-start', 'drag', 'release'))
		)`,

		// Dispatches table - synthesized events per session
		`CREATE TABLE IF NOT EXISTS dispatches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			hand_id TEXT NOT NULL,
			pointer_id INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			target_id TEXT NOT NULL DEFAULT '',
			frame_id TEXT NOT NULL DEFAULT ''
		)`,

		// Indexes for replay scans
		`CREATE INDEX IF NOT EXISTS idx_hand_frames_session_tick
			ON hand_frames(session_id, tick)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_session_tick
			ON dispatches(session_id, tick)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
