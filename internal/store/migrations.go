package store

type migration struct {
	version int
	sql     string
}

// migrations are applied in order. Every script records its own version
// in schema_version as its last statement.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS blobs (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE blobs ADD COLUMN size INTEGER NOT NULL DEFAULT 0;

UPDATE blobs SET size = length(data);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
