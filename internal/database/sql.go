// Package database implements the listing repository over MySQL (gorm),
// PostgreSQL and SQLite.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"listing-browser/internal/models"
	"listing-browser/internal/store"
)

// SQLDB is a listing repository over database/sql. Queries are written with
// "?" placeholders and rebound for the dialect.
type SQLDB struct {
	conn    *sql.DB
	dialect string
}

const listingColumns = `id, title, description, price, bedrooms, bathrooms, square_feet,
	property_type, for_rent, lat, lng, image_url, address, created_at`

func (db *SQLDB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection pool
func (db *SQLDB) Conn() *sql.DB {
	return db.conn
}

// rebind converts "?" placeholders to "$n" for PostgreSQL
func (db *SQLDB) rebind(query string) string {
	if db.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (models.Listing, error) {
	var l models.Listing
	var propertyType string
	var imageURL, address sql.NullString
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Price, &l.Bedrooms, &l.Bathrooms, &l.SquareFeet,
		&propertyType, &l.ForRent, &l.Lat, &l.Lng, &imageURL, &address, &l.CreatedAt,
	)
	l.PropertyType = models.PropertyType(propertyType)
	l.ImageURL = imageURL.String
	l.Address = address.String
	return l, err
}

// List retrieves all listings, newest first
func (db *SQLDB) List(ctx context.Context) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Get retrieves a listing by ID
func (db *SQLDB) Get(ctx context.Context, id string) (models.Listing, error) {
	query := db.rebind(`SELECT ` + listingColumns + ` FROM listings WHERE id = ?`)

	l, err := scanListing(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, store.ErrNotFound
	}
	if err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

func (db *SQLDB) Insert(ctx context.Context, l models.Listing) error {
	query := db.rebind(`INSERT INTO listings (` + listingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := db.conn.ExecContext(ctx, query,
		l.ID, l.Title, l.Description, l.Price, l.Bedrooms, l.Bathrooms, l.SquareFeet,
		string(l.PropertyType), l.ForRent, l.Lat, l.Lng, l.ImageURL, l.Address, l.CreatedAt)
	return err
}

// Update writes only the patched columns
func (db *SQLDB) Update(ctx context.Context, id string, patch models.ListingPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		if _, err := db.Get(ctx, id); err != nil {
			return err
		}
		return nil
	}

	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = name + " = ?"
		args = append(args, cols[name])
	}
	args = append(args, id)

	query := db.rebind(fmt.Sprintf(`UPDATE listings SET %s WHERE id = ?`, strings.Join(sets, ", ")))
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
