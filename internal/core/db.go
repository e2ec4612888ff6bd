package core

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// dbHandle is the subset of *sql.DB the index uses.
type dbHandle interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Close() error
}

// sqlRows abstracts *sql.Rows for result collection.
type sqlRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// openMemDB opens a private in-memory index database. The pool is pinned to
// one connection: each sqlite memory connection is its own database.
func openMemDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func initSchema(db dbHandle) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS defs (
			id   INTEGER PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			pub  INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_defs_name ON defs(name);`,
		`CREATE TABLE IF NOT EXISTS refs (
			id      INTEGER PRIMARY KEY,
			def_id  INTEGER NOT NULL,
			node_id INTEGER NOT NULL,
			file    TEXT NOT NULL,
			offset  INTEGER NOT NULL,
			kind    TEXT NOT NULL,
			raw     TEXT NOT NULL,
			module  TEXT NOT NULL,
			FOREIGN KEY(def_id) REFERENCES defs(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_refs_def ON refs(def_id);`,
		`CREATE INDEX IF NOT EXISTS idx_refs_file ON refs(file, offset);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func insertDef(db dbHandle, path, kind, name string, pub bool) (int64, error) {
	p := 0
	if pub {
		p = 1
	}
	res, err := db.Exec(
		`INSERT INTO defs (path, kind, name, pub) VALUES (?, ?, ?, ?)`,
		path, kind, name, p,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertRef(db dbHandle, defID int64, nodeID NodeID, file string, offset int, kind, raw, module string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO refs (def_id, node_id, file, offset, kind, raw, module)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		defID, int(nodeID), file, offset, kind, raw, module,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
