// Package sql provides a SQL-backed user store.
package sql

import (
	"github.com/saasify/saasify-api/internal/store/sql/queries"
)

// Dialect represents a SQL database dialect.
type Dialect string

const (
	// PostgreSQL dialect, served by the pgx stdlib driver.
	PostgreSQL Dialect = "postgres"
	// MySQL dialect, served by go-sql-driver/mysql.
	MySQL Dialect = "mysql"
)

// driverName returns the database/sql driver name for a dialect.
func driverName(d Dialect) string {
	switch d {
	case MySQL:
		return "mysql"
	default:
		return "pgx"
	}
}

// loadQueries returns the embedded query set for a dialect.
func loadQueries(d Dialect) (*queries.Queries, error) {
	switch d {
	case MySQL:
		return queries.LoadMySQL()
	default:
		return queries.LoadPostgres()
	}
}
