// Package sqlstore is the relational unit of work behind the storefront. It
// runs on SQLite (modernc.org/sqlite, no CGO) by default and on MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store implements store.UnitOfWork on database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
}

var _ store.UnitOfWork = (*Store)(nil)

// Open connects and applies the schema. For SQLite, dsn is a file path.
func Open(driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	switch driver {
	case DriverSQLite:
		if !strings.HasPrefix(dsn, "file:") {
			dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", dsn)
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: open sqlite: %w", err)
		}
		// one connection serialises writers; units of work must therefore
		// only use their own transaction, never the pool.
		db.SetMaxOpenConns(1)
		d = sqliteDialect
	case DriverMySQL:
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: open mysql: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		d = mysqlDialect
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	s := &Store{db: db, dialect: d}
	if err := s.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the pool for components that write outside units of work.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return repoErr("begin", err)
	}

	if err := fn(ctx, &repos{q: sqlTx, d: s.dialect}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return repoErr("commit", err)
	}
	return nil
}

func (s *Store) applySchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: apply schema: %w", err)
		}
	}
	return nil
}

// queryer is satisfied by *sql.Tx and *sql.DB.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repos struct {
	q queryer
	d dialect
}

func (r *repos) Carts() cart.Repository          { return cartRepository{r.q, r.d} }
func (r *repos) Inventory() inventory.Repository { return inventoryRepository{r.q} }
func (r *repos) Orders() order.Repository        { return orderRepository{r.q} }
func (r *repos) Addresses() address.Repository   { return addressRepository{r.q} }
func (r *repos) Products() catalog.Repository    { return productRepository{r.q} }

func repoErr(op string, err error) error {
	return fmt.Errorf("%w: sqlstore %s: %w", store.ErrRepository, op, err)
}

func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlstore: parse time %q: %w", s, err)
	}
	return t, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
