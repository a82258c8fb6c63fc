package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLStorage keeps the cart in a single row of the carts table.
// It works with sqlite (modernc) and postgres (lib/pq).
type SQLStorage struct {
	db      *sql.DB
	dialect string
	key     string
}

func NewSQLStorage(dialect, dsn, storageKey string) (*SQLStorage, error) {
	if dialect != config.DriverSQLite && dialect != config.DriverPostgres {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == config.DriverSQLite {
		// one connection keeps ":memory:" databases shared and serialises writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLStorage{db: db, dialect: dialect, key: storageKey}, nil
}

func (s *SQLStorage) RunMigrations() error {
	var (
		driver database.Driver
		err    error
	)
	switch s.dialect {
	case config.DriverSQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	default:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, s.dialect, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *SQLStorage) Load(ctx context.Context) (*domain.CartDocument, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM carts WHERE storage_key = $1`, s.key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var doc domain.CartDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &doc, nil
}

func (s *SQLStorage) Save(ctx context.Context, doc domain.CartDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	query := `
		INSERT INTO carts (storage_key, version, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (storage_key) DO UPDATE
		SET version = excluded.version, payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.key, doc.Version, string(payload), doc.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (s *SQLStorage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE storage_key = $1`, s.key); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
