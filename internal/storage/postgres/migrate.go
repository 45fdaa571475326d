package postgres

import (
	"embed"
	"errors"
	"fmt"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"net/url"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies all pending up migrations. ErrNoChange is not treated as a failure.
func Migrate(dbUrl, migrationsTable string) (applied bool, err error) {
	const op = "storage.postgres.Migrate"

	dsn, err := withMigrationsTable(dbUrl, migrationsTable)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func withMigrationsTable(dbUrl, table string) (string, error) {
	u, err := url.Parse(dbUrl)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("database url must include a scheme, e.g. postgres://")
	}
	if table == "" {
		return u.String(), nil
	}

	q := u.Query()
	q.Set("x-migrations-table", table)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
