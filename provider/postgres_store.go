package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	colKey       = "key"
	colValue     = "value"
	colUpdatedAt = "updated_at"
)

// Querier is the subset of *pgxpool.Pool used by PostgresStore.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements providers.Store on a key/value table.
type PostgresStore struct {
	db     Querier
	table  string
	prefix string
	logger zerolog.Logger
	psql   sq.StatementBuilderType
}

var _ providers.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store over table. Keys are stored as prefix:key.
func NewPostgresStore(db Querier, table, prefix string, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		table:  table,
		prefix: prefix,
		logger: logger.With().Str("component", "postgres_store").Logger(),
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate creates the table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s TEXT PRIMARY KEY,
	%s BYTEA NOT NULL,
	%s TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table, colKey, colValue, colUpdatedAt)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *PostgresStore) selectQuery(key string) (string, []any, error) {
	return s.psql.Select(colValue).
		From(s.table).
		Where(sq.Eq{colKey: s.key(key)}).
		ToSql()
}

func (s *PostgresStore) upsertQuery(key string, value []byte) (string, []any, error) {
	return s.psql.Insert(s.table).
		Columns(colKey, colValue, colUpdatedAt).
		Values(s.key(key), value, sq.Expr("now()")).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s",
			colKey, colValue, colValue, colUpdatedAt, colUpdatedAt)).
		ToSql()
}

func (s *PostgresStore) deleteQuery(key string) (string, []any, error) {
	return s.psql.Delete(s.table).
		Where(sq.Eq{colKey: s.key(key)}).
		ToSql()
}

// Get reads a value; absent keys return providers.ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	sqlStr, args, err := s.selectQuery(key)
	if err != nil {
		return nil, err
	}

	var value []byte
	if err := s.db.QueryRow(ctx, sqlStr, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, providers.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces a value.
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	sqlStr, args, err := s.upsertQuery(key, value)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes a value.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	sqlStr, args, err := s.deleteQuery(key)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug().Str("key", key).Msg("Delete of absent key")
	}
	return nil
}
