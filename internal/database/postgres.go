package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

func NewPostgresDB(host, port, user, password, dbname string) (*SQLDB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &SQLDB{conn: conn, dialect: "postgres"}
	if err := db.initSchema(postgresSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return db, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id VARCHAR(36) PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	bedrooms INTEGER NOT NULL DEFAULT 0,
	bathrooms INTEGER NOT NULL DEFAULT 0,
	square_feet DOUBLE PRECISION NOT NULL DEFAULT 0,
	property_type VARCHAR(32) NOT NULL DEFAULT '',
	for_rent BOOLEAN NOT NULL DEFAULT FALSE,
	lat DOUBLE PRECISION NOT NULL,
	lng DOUBLE PRECISION NOT NULL,
	image_url TEXT,
	address TEXT,
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
CREATE INDEX IF NOT EXISTS idx_listings_for_rent ON listings(for_rent);
`

// initSchema creates the listings table if it doesn't exist
func (db *SQLDB) initSchema(schema string) error {
	_, err := db.conn.Exec(schema)
	return err
}
