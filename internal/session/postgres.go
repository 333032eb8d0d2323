package session

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the subset of *pgxpool.Pool used by PostgresProvider.
// Narrow interface for testability.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresProvider stores session areas in the session_items table so that
// carts survive a restart of the edge server.
type PostgresProvider struct {
	db DB
}

// NewPostgresProvider creates a provider on top of a pool or connection.
func NewPostgresProvider(db DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// Scope returns the storage area of sessionID.
func (p *PostgresProvider) Scope(sessionID uuid.UUID) Storage {
	return &postgresArea{db: p.db, id: sessionID}
}

type postgresArea struct {
	db DB
	id uuid.UUID
}

func (a *postgresArea) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := a.db.QueryRow(ctx, `
		SELECT value FROM session_items WHERE session_id = $1 AND key = $2`,
		a.id, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get session item %q: %w", key, err)
	}
	return []byte(value), true, nil
}

func (a *postgresArea) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := a.db.Exec(ctx, `
		INSERT INTO session_items (session_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id, key) DO UPDATE SET
			value = $3,
			updated_at = now()`,
		a.id, key, string(value),
	)
	if err != nil {
		return fmt.Errorf("set session item %q: %w", key, err)
	}
	return nil
}

// Migrate applies the embedded schema migrations in lexical order.
// Every migration is idempotent, so running it on each start-up is safe.
func Migrate(ctx context.Context, db DB, applied func(name string)) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if applied != nil {
			applied(name)
		}
	}
	return nil
}
