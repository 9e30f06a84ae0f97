package store

import (
	"database/sql"
	"encoding/json"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	"github.com/hal-serve/hal-serve/rfc7232"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the resource database in
// the given file.
func NewSQLiteStore(filename string) SQLiteStore {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS resources (path TEXT PRIMARY KEY, attributes TEXT, etag TEXT)")
	if err != nil {
		panic(err)
	}
	return SQLiteStore{
		db: db,
	}
}

func (s SQLiteStore) Get(path string) (Entry, bool, error) {
	entry := Entry{Path: path}
	var attributes string
	var etag string
	err := s.db.QueryRow("SELECT attributes, etag FROM resources WHERE path = ?", path).Scan(&attributes, &etag)
	if err == sql.ErrNoRows {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, err
	}
	if err := json.Unmarshal([]byte(attributes), &entry.Attributes); err != nil {
		return entry, false, err
	}
	entry.ETag = rfc7232.ETag(etag)
	return entry, true, nil
}

func (s SQLiteStore) Put(entry Entry) error {
	if entry.ETag == "" {
		entry.ETag = Tag(entry)
	}
	attributes, err := json.Marshal(entry.Attributes)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO resources (path, attributes, etag) VALUES (?, ?, ?) ON CONFLICT (path) DO UPDATE SET attributes = ?, etag = ?",
		entry.Path, string(attributes), string(entry.ETag), string(attributes), string(entry.ETag))
	return err
}

func (s SQLiteStore) Delete(path string) error {
	_, err := s.db.Exec("DELETE FROM resources WHERE path = ?", path)
	return err
}

func (s SQLiteStore) Children(path string) ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM resources WHERE path LIKE ? || '/%' ORDER BY path", strings.TrimSuffix(path, "/"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var children []string
	for rows.Next() {
		var candidate string
		if err := rows.Scan(&candidate); err != nil {
			return nil, err
		}
		if isDirectChild(path, candidate) {
			children = append(children, candidate)
		}
	}
	return children, rows.Err()
}
