package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// NewSQLiteDB opens a SQLite database file. ":memory:" gives a private
// in-memory database.
func NewSQLiteDB(path string) (*SQLDB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection, so an in-memory database is shared by every query
	conn.SetMaxOpenConns(1)

	db := &SQLDB{conn: conn, dialect: "sqlite"}
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := db.initSchema(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL DEFAULT 0,
	bedrooms INTEGER NOT NULL DEFAULT 0,
	bathrooms INTEGER NOT NULL DEFAULT 0,
	square_feet REAL NOT NULL DEFAULT 0,
	property_type TEXT NOT NULL DEFAULT '',
	for_rent INTEGER NOT NULL DEFAULT 0,
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	image_url TEXT,
	address TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price)
`
