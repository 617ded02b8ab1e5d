package sql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	// Registers the pgx driver for database/sql. Importing the mysql
	// package above registers the mysql driver as a side effect.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/saasify/saasify-api/internal/store"
	"github.com/saasify/saasify-api/internal/store/sql/queries"
)

// Unique-violation codes per dialect.
const (
	pgUniqueViolation    = "23505"
	mysqlUniqueViolation = 1062
)

// Store implements store.UserStore over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	queries *queries.Queries
}

// Config holds SQL store configuration.
type Config struct {
	// Dialect specifies the database type (postgres, mysql).
	Dialect Dialect

	// DB is an existing database connection. If provided, DSN is ignored.
	DB *sql.DB

	// DSN is the data source name for connecting to the database.
	DSN string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns sets the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum lifetime of a connection.
	ConnMaxLifetime time.Duration
}

// New creates a new SQL user store.
func New(cfg *Config) (*Store, error) {
	db := cfg.DB
	if db == nil {
		var err error
		db, err = sql.Open(driverName(cfg.Dialect), cfg.DSN)
		if err != nil {
			return nil, err
		}

		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	q, err := loadQueries(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, dialect: cfg.Dialect, queries: q}, nil
}

// Create inserts a new user row, assigning an ID and timestamps.
// The unique index on email turns create races into store.ErrEmailTaken.
func (s *Store) Create(ctx context.Context, user *store.User) error {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.Email = store.NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.queries.InsertUser,
		user.ID, user.Email, user.PasswordHash, user.Name, string(user.Role),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByEmail retrieves a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, s.queries.SelectUserByEmail, store.NormalizeEmail(email))
	return scanUser(row)
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, s.queries.SelectUserByID, id)
	return scanUser(row)
}

// Update persists changes to an existing user row.
func (s *Store) Update(ctx context.Context, user *store.User) error {
	user.Email = store.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, s.queries.UpdateUser,
		user.Email, user.PasswordHash, user.Name, string(user.Role),
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailTaken
		}
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a user row by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.queries.DeleteUser, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the users schema.
func (s *Store) Migrate(ctx context.Context) error {
	// Split schema by semicolon for multiple statements.
	statements := strings.Split(s.queries.Schema, ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanUser scans a single user row.
func scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = store.Role(role)
	return &u, nil
}

// isUniqueViolation reports whether err is a duplicate-key error in either
// supported dialect.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlUniqueViolation
	}

	return false
}

// Ensure Store implements store.UserStore.
var _ store.UserStore = (*Store)(nil)
