package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/reportflow/config"
	"github.com/sweetpotato0/reportflow/errors"
)

// PostgresService authorizes API keys against a PostgreSQL table.
type PostgresService struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns local-development defaults.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "reportflow",
		SSLMode:  "disable",
	}
}

// NewPostgresService connects and ensures the api_keys table exists.
func NewPostgresService(cfg *PostgresConfig) (*PostgresService, error) {
	if cfg == nil {
		cfg = DefaultPostgresConfig()
	}
	if err := config.NewValidator().
		RequireNonEmpty("host", cfg.Host).
		ValidateRange("port", cfg.Port, 1, 65535).
		RequireNonEmpty("dbname", cfg.DBName).
		Validate(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	svc := &PostgresService{db: db}
	if err := svc.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return svc, nil
}

func (s *PostgresService) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS api_keys (
		key_hash VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		revoked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_api_keys_user_id ON api_keys(user_id);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Issue stores a key for a user. The plaintext key is never persisted.
func (s *PostgresService) Issue(ctx context.Context, apiKey, userID string) error {
	query := `INSERT INTO api_keys (key_hash, user_id, created_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, HashKey(apiKey), userID, time.Now()); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}
	return nil
}

// Rotate atomically replaces a key: the old key is revoked and the new one
// issued for the same user in a single transaction.
func (s *PostgresService) Rotate(ctx context.Context, oldKey, newKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM api_keys WHERE key_hash = $1 AND revoked = FALSE`,
		HashKey(oldKey)).Scan(&userID)
	if err == sql.ErrNoRows {
		return errors.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("failed to look up api key: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE api_keys SET revoked = TRUE WHERE key_hash = $1`, HashKey(oldKey)); err != nil {
		return fmt.Errorf("failed to revoke old key: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, created_at) VALUES ($1, $2, $3)`,
		HashKey(newKey), userID, time.Now()); err != nil {
		return fmt.Errorf("failed to issue new key: %w", err)
	}
	return tx.Commit()
}

// Delete removes a key entirely. Prefer Revoke when the audit trail matters.
func (s *PostgresService) Delete(ctx context.Context, apiKey string) error {
	query := `DELETE FROM api_keys WHERE key_hash = $1`
	if _, err := s.db.ExecContext(ctx, query, HashKey(apiKey)); err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return nil
}

// Revoke disables a key without deleting its audit trail.
func (s *PostgresService) Revoke(ctx context.Context, apiKey string) error {
	query := `UPDATE api_keys SET revoked = TRUE WHERE key_hash = $1`
	if _, err := s.db.ExecContext(ctx, query, HashKey(apiKey)); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return nil
}

// Authorize implements Service.
func (s *PostgresService) Authorize(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", errors.ErrUnauthorized
	}
	var userID string
	query := `SELECT user_id FROM api_keys WHERE key_hash = $1 AND revoked = FALSE`
	err := s.db.QueryRowContext(ctx, query, HashKey(apiKey)).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", errors.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up api key: %w", err)
	}
	return userID, nil
}

// Close releases the database handle.
func (s *PostgresService) Close() error {
	return s.db.Close()
}
