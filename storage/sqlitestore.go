package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

/*
SQLiteStore keeps payloads as blobs in a single sqlite table. It suits a local
corpus of many small payloads where a directory of files would be unwieldy.
*/

////////////////////////////////////////////////////////////////////////////////

// SQLiteStore is a sqlite-backed store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates a store in the database file at path. Use
// ":memory:" for a transient store.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db}
	if err := store.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
	create table if not exists objects (
		id text primary key,
		data blob not null,
		created_at text not null default current_timestamp
	);
	`); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Put stores an object, replacing any existing object with the same id.
func (s *SQLiteStore) Put(ctx context.Context, id string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
	insert into objects (id, data) values ($1, $2)
	on conflict (id) do update set data = excluded.data`,
		id, data,
	)
	if err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

// Get retrieves an object.
func (s *SQLiteStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `select data from objects where id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `delete from objects where id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List returns the ids beginning with prefix.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	select id from objects where substr(id, 1, length($1)) = $1 order by id`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) String() string {
	return "sqlite"
}
