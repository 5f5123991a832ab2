// Package pg implements the analytics sink on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/reportflow/analytics"
	"github.com/sweetpotato0/reportflow/config"
)

// Sink writes turn records into a PostgreSQL table.
type Sink struct {
	db *sql.DB
}

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultConfig returns local-development defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "reportflow",
		SSLMode:  "disable",
	}
}

// New connects and ensures the turns table exists.
func New(cfg *Config) (*Sink, error) {
	if cfg == nil {
		cfg = DefaultConfig()
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

	sink := &Sink{db: db}
	if err := sink.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return sink, nil
}

func (s *Sink) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS turns (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		input TEXT NOT NULL,
		response TEXT NOT NULL,
		report VARCHAR(64),
		status INTEGER NOT NULL,
		fields JSONB,
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_user_id ON turns(user_id);
	CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at);
	CREATE INDEX IF NOT EXISTS idx_turns_status ON turns(status);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Write implements analytics.Sink.
func (s *Sink) Write(ctx context.Context, rec *analytics.Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	var fieldsJSON []byte
	if len(rec.Fields) > 0 {
		var err error
		fieldsJSON, err = json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	} else {
		fieldsJSON = []byte("{}")
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
	INSERT INTO turns (user_id, input, response, report, status, fields, prompt_tokens, latency_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.UserID, rec.Input, rec.Response, string(rec.Report),
		int(rec.Status), fieldsJSON, rec.PromptTokens, rec.Latency.Milliseconds(), createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
