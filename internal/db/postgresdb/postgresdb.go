// Package postgresdb provides a PostgreSQL-based implementation of the user storage.
// The schema is managed with goose migrations applied on start.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

const (
	// DriverPgx selects the pgx database/sql driver.
	DriverPgx = "pgx"

	// DriverPq selects the lib/pq database/sql driver.
	DriverPq = "postgres"
)

var openDB = sql.Open

// PostgresDB is a PostgreSQL-backed implementation of the user storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
	DriverName string
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every table before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// WithDriverName selects the database/sql driver, DriverPgx or DriverPq.
// An empty name keeps the default pgx driver.
func WithDriverName(name string) InitOption {
	return func(options *initOptions) {
		if name != "" {
			options.DriverName = name
		}
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
		DriverName: DriverPgx,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := openDB(options.DriverName, databaseDSN)
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `sql.Open()` calling: %w",
				err,
			)
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.prepare(ctx, migrationsDir, options.DBPreReset); err != nil {
		return nil, errors.Join(err, database.Close())
	}

	return result, nil
}

func (db *PostgresDB) prepare(ctx context.Context, migrationsDir string, preReset bool) error {
	if preReset {
		if err := db.resetDB(ctx); err != nil {
			return fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/prepare(): error while `db.resetDB()` calling: %w",
				err,
			)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/prepare(): error while `goose.SetDialect()` calling: %w",
			err,
		)
	}

	if err := goose.UpContext(ctx, db.database, migrationsDir); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/prepare(): error while `goose.UpContext()` calling: %w",
			err,
		)
	}

	return nil
}

// Save inserts a user with a zero ID and lets the database assign one.
// A user with an ID is upserted; the id sequence is moved past it so later
// inserts do not collide.
func (db *PostgresDB) Save(ctx context.Context, usr *user.User) (*user.User, error) {
	if usr.ID == 0 {
		return db.insert(ctx, usr)
	}

	transaction, err := db.database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	saved := &user.User{}
	err = transaction.QueryRowContext(
		ctx,
		`
			INSERT INTO users (id, name, email)
				VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE
				SET
					name = EXCLUDED.name,
					email = EXCLUDED.email
				RETURNING id, name, email
		`,
		usr.ID,
		usr.Name,
		usr.Email,
	).Scan(&saved.ID, &saved.Name, &saved.Email)
	if err != nil {
		return nil, err
	}

	_, err = transaction.ExecContext(
		ctx,
		`SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT MAX(id) FROM users), 1))`,
	)
	if err != nil {
		return nil, err
	}

	if err := transaction.Commit(); err != nil {
		return nil, err
	}

	return saved, nil
}

func (db *PostgresDB) insert(ctx context.Context, usr *user.User) (*user.User, error) {
	saved := &user.User{
		Name:  usr.Name,
		Email: usr.Email,
	}
	err := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		usr.Name,
		usr.Email,
	).Scan(&saved.ID)
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// FindByID fetches a user by ID. The boolean result reports whether the user exists.
func (db *PostgresDB) FindByID(ctx context.Context, userID int64) (*user.User, bool, error) {
	found := &user.User{}
	err := db.database.QueryRowContext(
		ctx,
		`SELECT id, name, email FROM users WHERE id = $1`,
		userID,
	).Scan(&found.ID, &found.Name, &found.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return found, true, nil
}

// Delete removes the user with usr.ID. Removing an absent user is not an error.
func (db *PostgresDB) Delete(ctx context.Context, usr *user.User) error {
	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM users WHERE id = $1`,
		usr.ID,
	)

	return err
}

// Count returns the number of stored users.
func (db *PostgresDB) Count(ctx context.Context) (int64, error) {
	var count int64
	err := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
