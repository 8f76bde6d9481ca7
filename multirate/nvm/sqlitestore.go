package nvm

import (
	"database/sql"
	"errors"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists accumulator values in a SQLite database. It
// shares a file format with nothing else; the table is one row per
// field.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite-backed store at the given
// path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS accumulators (
	field TEXT PRIMARY KEY,
	value REAL NOT NULL
);`
	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreWithDB creates a store over an already opened database.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns the saved value, or 0 if the field was never saved.
func (s *SQLiteStore) Load(field string) (float64, error) {
	row := s.db.QueryRow(
		"SELECT value FROM accumulators WHERE field = ?", field)

	var v float64
	err := row.Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return v, nil
}

// Save commits the value of a field, replacing any earlier one.
func (s *SQLiteStore) Save(field string, v float64) error {
	_, err := s.db.Exec(
		`INSERT INTO accumulators (field, value) VALUES (?, ?)
		ON CONFLICT(field) DO UPDATE SET value = excluded.value`,
		field, v)

	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
