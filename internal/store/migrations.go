package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create calculations",
		SQL: `
			CREATE TABLE calculations (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				identity    TEXT NOT NULL,
				channel_id  TEXT NOT NULL DEFAULT '',
				user_id     TEXT NOT NULL DEFAULT '',
				username    TEXT NOT NULL DEFAULT '',
				service     TEXT NOT NULL DEFAULT '',
				params      TEXT NOT NULL,
				details     TEXT NOT NULL,
				total_cost  INTEGER NOT NULL,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_calculations_identity ON calculations (identity, id);
			CREATE INDEX idx_calculations_created ON calculations (created_at);
		`,
	},
	{
		Version: 2,
		Name:    "create calculations full-text index",
		SQL: `
			CREATE VIRTUAL TABLE calculations_fts USING fts5(
				details,
				username,
				content='calculations',
				content_rowid='id'
			);

			CREATE TRIGGER calculations_ai AFTER INSERT ON calculations BEGIN
				INSERT INTO calculations_fts(rowid, details, username)
				VALUES (new.id, new.details, new.username);
			END;

			CREATE TRIGGER calculations_ad AFTER DELETE ON calculations BEGIN
				INSERT INTO calculations_fts(calculations_fts, rowid, details, username)
				VALUES ('delete', old.id, old.details, old.username);
			END;
		`,
	},
	{
		Version: 3,
		Name:    "create operations tables",
		SQL: `
			CREATE TABLE loaders (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id        INTEGER NOT NULL UNIQUE,
				full_name      TEXT NOT NULL,
				phone          TEXT NOT NULL DEFAULT '',
				is_active      INTEGER NOT NULL DEFAULT 1,
				total_orders   INTEGER NOT NULL DEFAULT 0,
				total_earnings REAL NOT NULL DEFAULT 0,
				rating         REAL NOT NULL DEFAULT 5.0
			);

			CREATE TABLE transport (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				name         TEXT NOT NULL,
				type         TEXT NOT NULL,
				capacity     TEXT NOT NULL DEFAULT '',
				is_available INTEGER NOT NULL DEFAULT 1
			);

			CREATE TABLE orders (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id        INTEGER NOT NULL,
				username       TEXT NOT NULL DEFAULT '',
				work_type      TEXT NOT NULL,
				scheduled_date TEXT NOT NULL,
				scheduled_time TEXT NOT NULL,
				address        TEXT NOT NULL,
				comment        TEXT NOT NULL DEFAULT '',
				status         TEXT NOT NULL DEFAULT 'pending',
				cost           INTEGER NOT NULL DEFAULT 0,
				created_at     TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_orders_status ON orders (status);
		`,
	},
}
