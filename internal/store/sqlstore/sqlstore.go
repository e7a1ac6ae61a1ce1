package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"papeleria/backend/internal/store"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type dialect struct {
	name      string
	driver    string
	timestamp string
	forUpdate string
}

var dialects = map[string]dialect{
	"postgres": {name: "postgres", driver: "pgx", timestamp: "TIMESTAMPTZ", forUpdate: " FOR UPDATE"},
	"mysql":    {name: "mysql", driver: "mysql", timestamp: "DATETIME", forUpdate: " FOR UPDATE"},
	// SQLite serialises writers on a single connection and has no row locks.
	"sqlite": {name: "sqlite", driver: "sqlite", timestamp: "TIMESTAMP", forUpdate: ""},
}

func SupportedDriver(name string) bool {
	_, ok := dialects[name]
	return ok
}

type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx so read helpers can run
// inside or outside a transaction.
type queryer interface {
	Rebind(query string) string
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open connects with one of the supported drivers: postgres, mysql or sqlite.
func Open(ctx context.Context, driver string, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}

	if d.name == "sqlite" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxIdleConns(8)
		db.SetMaxOpenConns(30)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func get(ctx context.Context, q queryer, dest any, query string, args ...any) error {
	err := q.GetContext(ctx, dest, q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func selectAll(ctx context.Context, q queryer, dest any, query string, args ...any) error {
	return q.SelectContext(ctx, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q queryer, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func count(ctx context.Context, q queryer, query string, args ...any) (int, error) {
	var n int
	if err := q.GetContext(ctx, &n, q.Rebind(query), args...); err != nil {
		return 0, err
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func likePattern(search string) string {
	escaped := strings.NewReplacer("%", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(search)))
	return "%" + escaped + "%"
}

func fullName(first sql.NullString, last sql.NullString) string {
	return strings.TrimSpace(first.String + " " + last.String)
}
