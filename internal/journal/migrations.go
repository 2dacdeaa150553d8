package journal

type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create relay entries",
		SQL: `
			CREATE TABLE entries (
				id          TEXT PRIMARY KEY,
				direction   TEXT NOT NULL,
				command     TEXT NOT NULL,
				channel     TEXT NOT NULL DEFAULT '',
				msgid       TEXT NOT NULL DEFAULT '',
				account     TEXT NOT NULL DEFAULT '',
				reply_to    TEXT NOT NULL DEFAULT '',
				preview     TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_entries_created ON entries (created_at);
			CREATE INDEX idx_entries_channel ON entries (channel);
		`,
	},
}
