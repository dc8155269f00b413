package store

import "database/sql"

const ddl = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS documents (
    id          TEXT PRIMARY KEY,
    filename    TEXT NOT NULL,
    path        TEXT NOT NULL,
    size_bytes  INTEGER NOT NULL DEFAULT 0,
    uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS indexes (
    document_id     TEXT PRIMARY KEY,
    embedding_model TEXT NOT NULL,
    index_blob      BLOB NOT NULL,
    metadata        TEXT NOT NULL,
    built_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Init creates the schema tables if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}
