package storage

const schemaVersion = 2

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS validation_results (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	remote_id            INTEGER,
	success              INTEGER NOT NULL DEFAULT 0,
	result               TEXT    NOT NULL DEFAULT '{}',
	meta                 TEXT    NOT NULL DEFAULT '{}',
	exception_info       TEXT    NOT NULL DEFAULT '{}',
	expectation_config   TEXT    NOT NULL DEFAULT '{}',
	observed_value       TEXT    NOT NULL DEFAULT '',
	expectation_id       INTEGER,
	validation_report_id INTEGER,
	source               TEXT    NOT NULL DEFAULT '',
	created_at           TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_validation_results_expectation ON validation_results(expectation_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_validation_results_created ON validation_results(created_at);
`

type migration struct {
	version int
	sql     string
}

// migrations upgrade databases created before the source column existed.
var migrations = []migration{
	{
		version: 2,
		sql: `ALTER TABLE validation_results ADD COLUMN source TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS idx_validation_results_created ON validation_results(created_at);`,
	},
}
