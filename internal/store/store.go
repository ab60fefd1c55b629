// Package store is the durable, phone-keyed lead database and crawl-state
// journal. One SQLite file backs one crawl target, so a run can be killed at
// any point and resumed without refetching pages it already processed.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/dmaher/rentleads/internal/normalize"
	"github.com/dmaher/rentleads/internal/types"
)

// Store wraps one SQLite database file. Methods are safe for concurrent use
// within a process, but the file itself assumes a single writer: two crawls
// against the same path must not run at once.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS phones (
	phone         TEXT PRIMARY KEY,
	agent_name    TEXT NOT NULL DEFAULT '',
	business_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS addresses (
	phone   TEXT NOT NULL,
	address TEXT NOT NULL,
	UNIQUE (phone, address)
);

CREATE INDEX IF NOT EXISTS idx_addresses_phone ON addresses (phone);

CREATE TABLE IF NOT EXISTS crawled_urls (
	url TEXT PRIMARY KEY
);
`

// Open creates or opens the store file at path and brings its schema up to
// date. Older files are migrated in place, never rebuilt.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, &types.StorageError{Op: "open", Err: err}
	}
	// modernc's driver is not safe for concurrent writes on one connection
	// pool entry; a single connection plus our mutex keeps writes serial.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &types.StorageError{Op: "init schema", Err: err}
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: logger.With("component", "store", "path", path),
	}
	s.migrate()
	return s, nil
}

// migrate tolerates files written by older versions. Each statement is allowed
// to fail: a duplicate-column error means the column already exists, a
// missing-column error means there is nothing to migrate from.
func (s *Store) migrate() {
	steps := []string{
		`ALTER TABLE phones ADD COLUMN agent_name TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE phones ADD COLUMN business_name TEXT NOT NULL DEFAULT ''`,
		`UPDATE phones SET agent_name = manager_name WHERE agent_name = '' AND manager_name != ''`,
	}
	for _, stmt := range steps {
		if _, err := s.db.Exec(stmt); err != nil {
			if !isSchemaMismatch(err) {
				s.logger.Debug("migration step skipped", "error", err)
			}
		}
	}
}

func isSchemaMismatch(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate column") || strings.Contains(msg, "no such column")
}

// IsURLCrawled reports whether the canonical form of url has already been
// processed in this or a previous run.
func (s *Store) IsURLCrawled(url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM crawled_urls WHERE url = ?`, normalize.URL(url)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &types.StorageError{Op: "is crawled", Err: err}
	}
	return true, nil
}

// MarkURLCrawled records that url has been processed. Idempotent. The write
// commits before return so a crash cannot lose crawl state.
func (s *Store) MarkURLCrawled(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO crawled_urls (url) VALUES (?)`, normalize.URL(url))
	if err != nil {
		return &types.StorageError{Op: "mark crawled", Err: err}
	}
	return nil
}

// UpsertPhone inserts or updates the record for a phone. Names follow
// first-non-empty-wins: once a record has an agent or business name, later
// candidates never overwrite it, they only fill fields still blank.
func (s *Store) UpsertPhone(phone, agentName, businessName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO phones (phone, agent_name, business_name) VALUES (?, ?, ?)
		ON CONFLICT (phone) DO UPDATE SET
			agent_name    = CASE WHEN phones.agent_name = ''    THEN excluded.agent_name    ELSE phones.agent_name    END,
			business_name = CASE WHEN phones.business_name = '' THEN excluded.business_name ELSE phones.business_name END`,
		phone, agentName, businessName)
	if err != nil {
		return &types.StorageError{Op: "upsert phone", Err: err}
	}
	return nil
}

// AddAddress adds an address to a phone's set. Returns true when the address
// was new for that phone, false when it was already present.
func (s *Store) AddAddress(phone, address string) (bool, error) {
	if address == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT OR IGNORE INTO addresses (phone, address) VALUES (?, ?)`, phone, address)
	if err != nil {
		return false, &types.StorageError{Op: "add address", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &types.StorageError{Op: "add address", Err: err}
	}
	return n > 0, nil
}

// UnitsCount returns the number of distinct addresses tied to a phone. A lead
// with many units is a portfolio landlord, the most valuable kind.
func (s *Store) UnitsCount(phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM addresses WHERE phone = ?`, phone).Scan(&n)
	if err != nil {
		return 0, &types.StorageError{Op: "units count", Err: err}
	}
	return n, nil
}

// UniquePhonesCount returns how many distinct phone records the store holds.
func (s *Store) UniquePhonesCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM phones`).Scan(&n); err != nil {
		return 0, &types.StorageError{Op: "phones count", Err: err}
	}
	return n, nil
}

// AllPhones returns every record with its full address set, sorted by phone.
// Addresses within a record are sorted so output is deterministic.
func (s *Store) AllPhones() ([]types.PhoneRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT phone, agent_name, business_name FROM phones ORDER BY phone`)
	if err != nil {
		// Files from before the rename carry manager_name instead.
		rows, err = s.db.Query(`SELECT phone, manager_name, '' FROM phones ORDER BY phone`)
		if err != nil {
			return nil, &types.StorageError{Op: "all phones", Err: err}
		}
	}
	defer rows.Close()

	var records []types.PhoneRecord
	for rows.Next() {
		var rec types.PhoneRecord
		if err := rows.Scan(&rec.Phone, &rec.AgentName, &rec.BusinessName); err != nil {
			return nil, &types.StorageError{Op: "all phones", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "all phones", Err: err}
	}

	for i := range records {
		addrs, err := s.addressesLocked(records[i].Phone)
		if err != nil {
			return nil, err
		}
		records[i].Addresses = addrs
		records[i].Units = len(addrs)
	}
	return records, nil
}

func (s *Store) addressesLocked(phone string) ([]string, error) {
	rows, err := s.db.Query(`SELECT address FROM addresses WHERE phone = ?`, phone)
	if err != nil {
		return nil, &types.StorageError{Op: "addresses", Err: err}
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, &types.StorageError{Op: "addresses", Err: err}
		}
		addrs = append(addrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "addresses", Err: err}
	}
	sort.Strings(addrs)
	return addrs, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
