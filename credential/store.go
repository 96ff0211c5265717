package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    INTEGER NOT NULL
)`

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRow) record() goSession.UserRecord {
	return goSession.UserRecord{
		UserID:       r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    time.UnixMilli(r.CreatedAt).UTC(),
	}
}

// Store is a SQLite-backed goSession.CredentialStore.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to the SQLite database at path and bootstraps the schema.
// ":memory:" is accepted and pinned to one connection so every query sees the same database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("credential: database path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sqlx.ConnectContext(ctx, DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("credential: open sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing handle and creates the users table if it is missing.
func New(ctx context.Context, db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("credential: nil database")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("credential: bootstrap schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindByEmail returns goSession.ErrUserNotFound when no account has email.
func (s *Store) FindByEmail(ctx context.Context, email string) (goSession.UserRecord, error) {
	return s.findOne(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

// FindByID returns goSession.ErrUserNotFound when no account has id.
func (s *Store) FindByID(ctx context.Context, id string) (goSession.UserRecord, error) {
	return s.findOne(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) findOne(ctx context.Context, query string, arg string) (goSession.UserRecord, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goSession.UserRecord{}, goSession.ErrUserNotFound
		}
		return goSession.UserRecord{}, fmt.Errorf("credential: query user: %w", err)
	}
	return row.record(), nil
}

// CreateUser inserts a new account with a fresh UUID.
func (s *Store) CreateUser(ctx context.Context, input goSession.CreateUserInput) (goSession.UserRecord, error) {
	row := userRow{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		CreatedAt:    s.now().UTC().UnixMilli(),
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (:id, :name, :email, :password_hash, :created_at)`, row)
	if err != nil {
		if isUniqueConstraintError(err) {
			return goSession.UserRecord{}, goSession.ErrAccountExists
		}
		return goSession.UserRecord{}, fmt.Errorf("credential: insert user: %w", err)
	}
	return row.record(), nil
}

// Count returns the number of stored accounts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("credential: count users: %w", err)
	}
	return n, nil
}

// isUniqueConstraintError matches the email UNIQUE index. The driver enables
// extended result codes, so primary key clashes report a different code.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
