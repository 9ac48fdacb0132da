// Package sqlite persists playback positions and the recently-played history
// in a SQLite database.
//
// Position writes are fire-and-forget: they are queued to a background writer
// goroutine so the playback path never blocks on disk. Reads go straight to
// the database and degrade to "no position" on any failure.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/ports"
)

// writeQueueSize bounds the background writer queue. When the queue is full
// the oldest pending intent for the same key has long been superseded anyway,
// so overflowing writes are dropped with a log line.
const writeQueueSize = 64

// Store is a SQLite-backed implementation of PositionRepository and
// RecentFilesRepository.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	writes chan writeOp
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// writeOp is one queued mutation for the background writer.
type writeOp struct {
	delete   bool
	key      string
	identity string
	position float64

	// flush is set on sentinel ops used by Flush; the writer closes it
	// once every earlier op has been applied
	flush chan struct{}
}

// Open opens (or creates) the database at path and starts the background
// writer. Use ":memory:" for an ephemeral database in tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewStoreError("open", "cannot open database", err)
	}

	// the background writer is the only writing connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, domain.NewStoreError("open", "cannot enable WAL", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, domain.NewStoreError("open", "cannot set busy timeout", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
		writes: make(chan writeOp, writeQueueSize),
		done:   make(chan struct{}),
	}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, domain.NewStoreError("open", "cannot create tables", err)
	}

	go store.writer()

	return store, nil
}

// writer drains the write queue until the store closes.
func (s *Store) writer() {
	defer close(s.done)

	for op := range s.writes {
		switch {
		case op.flush != nil:
			close(op.flush)
		case op.delete:
			s.applyDelete(op.key)
		default:
			s.applySave(op)
		}
	}
}

func (s *Store) applySave(op writeOp) {
	_, err := s.db.Exec(`
		INSERT INTO playback_position (md5_hash, path, position)
		VALUES (?, ?, ?)
		ON CONFLICT(md5_hash) DO UPDATE SET
			position=excluded.position
	`, op.key, op.identity, op.position)
	if err != nil {
		s.logger.Warn("failed to save playback position",
			slog.String("key", op.key),
			slog.Any("error", err))
	}
}

func (s *Store) applyDelete(key string) {
	_, err := s.db.Exec(`DELETE FROM playback_position WHERE md5_hash = ?`, key)
	if err != nil {
		s.logger.Warn("failed to delete playback position",
			slog.String("key", key),
			slog.Any("error", err))
	}
}

// enqueue hands an op to the writer, dropping it when the store is closed or
// the queue is full.
func (s *Store) enqueue(op writeOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.writes <- op:
	default:
		s.logger.Warn("position write queue full, dropping write",
			slog.String("key", op.key))
	}
}

// Position returns the stored position for key, or 0.0 when no row exists or
// the read fails.
func (s *Store) Position(key string) float64 {
	var position float64
	err := s.db.QueryRow(`
		SELECT position FROM playback_position WHERE md5_hash = ? LIMIT 1
	`, key).Scan(&position)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("failed to read playback position",
				slog.String("key", key),
				slog.Any("error", err))
		}
		return 0.0
	}
	return position
}

// SavePosition queues an upsert of the position row for key.
func (s *Store) SavePosition(key, identity string, position float64) {
	s.enqueue(writeOp{key: key, identity: identity, position: position})
}

// DeletePosition queues removal of the position row for key.
func (s *Store) DeletePosition(key string) {
	s.enqueue(writeOp{delete: true, key: key})
}

// Flush blocks until every previously queued write has been applied.
// Returns immediately on a closed store.
func (s *Store) Flush() {
	flushed := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.writes <- writeOp{flush: flushed}
	s.mu.Unlock()

	<-flushed
}

// AddRecentFile upserts a history entry keyed by URL. The filename of an
// existing row is kept; source and timestamp are refreshed.
func (s *Store) AddRecentFile(entry domain.RecentFile) {
	_, err := s.db.Exec(`
		INSERT INTO recent_files (url, filename, opened_from, timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			opened_from=excluded.opened_from,
			timestamp=excluded.timestamp
	`, entry.URL, entry.Filename, entry.OpenedFrom, entry.Timestamp)
	if err != nil {
		s.logger.Warn("failed to record recent file",
			slog.String("url", entry.URL),
			slog.Any("error", err))
	}
}

// RecentFiles returns up to limit history entries, newest first.
func (s *Store) RecentFiles(limit int) []domain.RecentFile {
	rows, err := s.db.Query(`
		SELECT url, filename, opened_from, timestamp
		FROM recent_files
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		s.logger.Warn("failed to read recent files", slog.Any("error", err))
		return nil
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.RecentFile
	for rows.Next() {
		var (
			entry      domain.RecentFile
			filename   sql.NullString
			openedFrom sql.NullString
		)
		if err := rows.Scan(&entry.URL, &filename, &openedFrom, &entry.Timestamp); err != nil {
			s.logger.Warn("failed to scan recent file row", slog.Any("error", err))
			return entries
		}
		entry.Filename = filename.String
		entry.OpenedFrom = openedFrom.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("failed to read recent files", slog.Any("error", err))
	}

	return entries
}

// ClearRecentFiles removes all history entries.
func (s *Store) ClearRecentFiles() {
	if _, err := s.db.Exec(`DELETE FROM recent_files`); err != nil {
		s.logger.Warn("failed to clear recent files", slog.Any("error", err))
	}
}

// ClearPositions removes every stored playback position.
func (s *Store) ClearPositions() error {
	s.Flush()
	if _, err := s.db.Exec(`DELETE FROM playback_position`); err != nil {
		return domain.NewStoreError("clear", "cannot clear playback positions", err)
	}
	return nil
}

// Close drains the write queue, stops the writer and closes the database.
// Returns an error if already closed.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("store already closed")
	}
	s.closed = true
	close(s.writes)
	s.mu.Unlock()

	<-s.done
	return s.db.Close()
}

// Verify interface compliance
var (
	_ ports.PositionRepository    = (*Store)(nil)
	_ ports.RecentFilesRepository = (*Store)(nil)
)
