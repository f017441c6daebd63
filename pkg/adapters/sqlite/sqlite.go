// Package sqlite is a local backend: a properties table the assistant searches
// and a tickets table escalations are filed into.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Backend implements ports.Searcher and ports.TicketSubmitter on SQLite.
type Backend struct {
	db *sql.DB
}

// StoredTicket is a ticket with the metadata added on submission.
type StoredTicket struct {
	ID        string
	Ticket    domain.Ticket
	CreatedAt time.Time
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *Backend) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		city TEXT NOT NULL,
		price INTEGER NOT NULL,
		amenities TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_properties_city_type ON properties(city, type);

	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		looking_for TEXT NOT NULL,
		problem TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := b.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Seed inserts or replaces properties.
func (b *Backend) Seed(ctx context.Context, properties ...domain.PropertySummary) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO properties (id, title, type, city, price, amenities)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		type = excluded.type,
		city = excluded.city,
		price = excluded.price,
		amenities = excluded.amenities`

	for _, p := range properties {
		if p.ID == "" {
			return errors.New("property missing ID")
		}
		_, err := tx.ExecContext(ctx, query, p.ID, p.Title, p.Type, p.City, p.Price, encodeAmenities(p.Amenities))
		if err != nil {
			return fmt.Errorf("upsert property %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// Search returns the properties matching every filter set on req, cheapest first.
// Price bounds are inclusive.
func (b *Backend) Search(ctx context.Context, req domain.SearchRequest) ([]domain.PropertySummary, error) {
	var where []string
	var args []any

	if req.Type != "" {
		where = append(where, "type = ?")
		args = append(args, req.Type)
	}
	if req.City != "" {
		where = append(where, "city = ?")
		args = append(args, req.City)
	}
	if req.PriceMin != nil {
		where = append(where, "price >= ?")
		args = append(args, *req.PriceMin)
	}
	if req.PriceMax != nil {
		where = append(where, "price <= ?")
		args = append(args, *req.PriceMax)
	}
	for _, a := range req.Amenities {
		// Amenities are stored as ",a,b,".
		where = append(where, "amenities LIKE ?")
		args = append(args, "%,"+a+",%")
	}

	query := `SELECT id, title, type, city, price, amenities FROM properties`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY price, id"

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var out []domain.PropertySummary
	for rows.Next() {
		var p domain.PropertySummary
		var amenities string
		if err := rows.Scan(&p.ID, &p.Title, &p.Type, &p.City, &p.Price, &amenities); err != nil {
			return nil, fmt.Errorf("scan property row: %w", err)
		}
		p.Amenities = decodeAmenities(amenities)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return out, nil
}

// Submit files the ticket under a new random ID.
func (b *Backend) Submit(ctx context.Context, ticket domain.Ticket) error {
	query := `
	INSERT INTO tickets (id, name, email, looking_for, problem, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := b.db.ExecContext(ctx, query,
		uuid.NewString(), ticket.Name, ticket.Email, ticket.LookingFor, ticket.Problem,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// Tickets returns the filed tickets, oldest first.
func (b *Backend) Tickets(ctx context.Context) ([]StoredTicket, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, name, email, looking_for, problem, created_at FROM tickets ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var out []StoredTicket
	for rows.Next() {
		var st StoredTicket
		var createdAt int64
		t := &st.Ticket
		if err := rows.Scan(&st.ID, &t.Name, &t.Email, &t.LookingFor, &t.Problem, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		st.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, st)
	}
	return out, rows.Err()
}

func encodeAmenities(amenities []string) string {
	if len(amenities) == 0 {
		return ""
	}
	return "," + strings.Join(amenities, ",") + ","
}

func decodeAmenities(s string) []string {
	s = strings.Trim(s, ",")
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
