package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"art-market/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const ledgerSchema = `
	CREATE TABLE IF NOT EXISTS ledger_documents (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresBackend keeps the collection as a single JSONB row that is
// rewritten wholesale on every save.
type PostgresBackend struct {
	db   *sqlx.DB
	name string
}

// NewPostgresBackend connects to the database and ensures the document table
func NewPostgresBackend(databaseURL, name string) (*PostgresBackend, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(ledgerSchema); err != nil {
		return nil, fmt.Errorf("failed to create ledger table: %w", err)
	}

	return &PostgresBackend{db: db, name: name}, nil
}

// Close closes the database connection
func (p *PostgresBackend) Close() error {
	return p.db.Close()
}

// Load reads the collection document; a missing row is an empty collection
func (p *PostgresBackend) Load(ctx context.Context) ([]models.Artwork, error) {
	var body []byte
	err := p.db.GetContext(ctx, &body, "SELECT body FROM ledger_documents WHERE name = $1", p.name)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.Artwork{}, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read ledger", Err: err}
	}

	var artworks []models.Artwork
	if err := json.Unmarshal(body, &artworks); err != nil {
		return nil, &models.StorageError{Op: "decode ledger", Err: err}
	}
	return artworks, nil
}

// Save upserts the whole collection document
func (p *PostgresBackend) Save(ctx context.Context, artworks []models.Artwork) error {
	if artworks == nil {
		artworks = []models.Artwork{}
	}

	body, err := json.Marshal(artworks)
	if err != nil {
		return &models.StorageError{Op: "encode ledger", Err: err}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO ledger_documents (name, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		p.name, string(body))
	if err != nil {
		return &models.StorageError{Op: "write ledger", Err: err}
	}
	return nil
}
