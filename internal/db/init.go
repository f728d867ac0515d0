package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"

	"github.com/uplink-dao/uplink-tweet/internal/constants"
	"github.com/uplink-dao/uplink-tweet/internal/lock"
	"github.com/uplink-dao/uplink-tweet/internal/logging"
)

const (
	// DefaultMigrationsDir is where the deployed binary expects its SQL
	// scripts, relative to the working directory.
	DefaultMigrationsDir = "./migrations"

	schema = "uplink_tweet"
)

// Open connects to postgres and verifies the connection before handing
// it back.
func Open(postgresURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return conn, nil
}

// Init creates the queue schema and runs every SQL script in
// migrationsDir, in lexical order. A distributed lock ensures only one
// dispatcher instance runs migrations at a time; the others block here
// until it finishes.
func Init(ctx context.Context, conn *sql.DB, locks lock.DistributedLockManager, logger *logging.Logger, migrationsDir string) error {
	if err := locks.Acquire(ctx, constants.MigrationLock); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer locks.Release(ctx, constants.MigrationLock)

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	scripts, err := readSQLScripts(migrationsDir)
	if err != nil {
		return err
	}

	for _, script := range scripts {
		logger.Info("running migration", "file", script.name)
		if _, err := conn.ExecContext(ctx, script.content); err != nil {
			return fmt.Errorf("migration %s: %w", script.name, err)
		}
	}

	return nil
}

type sqlScript struct {
	name    string
	content string
}

func readSQLScripts(dir string) ([]sqlScript, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var scripts []sqlScript
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, sqlScript{name: entry.Name(), content: string(content)})
	}

	return scripts, nil
}
