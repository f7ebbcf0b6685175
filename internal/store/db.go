// Package store persists reconciliation runs and their results in Postgres
// or SQLite through database/sql.
//
// Queries follows the generated-query layout: build one with New for plain
// connections and derive a transaction-scoped copy with WithTx. Statements
// are written with ? placeholders and rebound for the active driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers
const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

// DBTX is satisfied by *sql.DB, *sql.Tx and *sql.Conn
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db     DBTX
	driver string
}

// New wraps db for the given driver
func New(db DBTX, driver string) *Queries {
	return &Queries{db: db, driver: driver}
}

// WithTx returns a copy of q that runs every statement inside tx
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, driver: q.driver}
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, driver, url string) (*sql.DB, error) {
	switch driver {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == SQLite {
		// one connection keeps :memory: databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func (q *Queries) rebind(query string) string {
	return rebind(q.driver, query)
}

// rebind rewrites ? placeholders to $1, $2, ... for Postgres
func rebind(driver, query string) string {
	if driver != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
