// Package db provides database connection management for orderimport.
package db

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"

	"github.com/artm44/TestTask-SKRIN/internal/logging"
)

// ConnectSingle establishes the single connection an import run works
// over. The importer owns one transaction on this connection for the
// whole run, so a pool would buy nothing here. NUMERIC columns are
// mapped to shopspring decimals.
func ConnectSingle(ctx context.Context, connString string) (*pgx.Conn, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	logging.Debug().
		Str("host", config.Host).
		Uint16("port", config.Port).
		Str("database", config.Database).
		Msg("Connecting to database")

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	pgxdecimal.Register(conn.TypeMap())

	// Verify connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Str("host", config.Host).
		Str("database", config.Database).
		Msg("Connected to database")

	return conn, nil
}
