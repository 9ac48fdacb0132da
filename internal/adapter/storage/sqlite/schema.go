package sqlite

// Table layouts match the on-disk database of earlier releases; the content
// key column keeps its md5_hash name so existing databases stay readable.

const schemaPlaybackPosition = `
CREATE TABLE IF NOT EXISTS playback_position (
	md5_hash TEXT NOT NULL UNIQUE,
	path TEXT,
	position REAL NOT NULL
);`

const schemaRecentFiles = `
CREATE TABLE IF NOT EXISTS recent_files (
	recent_file_id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	filename TEXT,
	opened_from TEXT,
	timestamp INTEGER NOT NULL
);`

const schemaRecentFilesIndexes = `
CREATE INDEX IF NOT EXISTS idx_recent_files_timestamp ON recent_files(timestamp DESC);`

// migrate creates missing tables and indexes. Statements are idempotent so
// opening an already initialized database is safe.
func (s *Store) migrate() error {
	statements := []string{
		schemaPlaybackPosition,
		schemaRecentFiles,
		schemaRecentFilesIndexes,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
