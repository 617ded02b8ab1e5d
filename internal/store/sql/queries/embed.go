// Package queries embeds SQL query files for the SQL user store.
package queries

import (
	"embed"
	"strings"
)

// PostgresFS embeds PostgreSQL query files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// MySQLFS embeds MySQL query files.
//
//go:embed mysql/*.sql
var MySQLFS embed.FS

// Queries holds parsed SQL queries by name.
type Queries struct {
	Schema            string
	InsertUser        string
	SelectUserByEmail string
	SelectUserByID    string
	UpdateUser        string
	DeleteUser        string
	SelectEmailOwner  string
}

// LoadPostgres loads PostgreSQL queries from embedded files.
func LoadPostgres() (*Queries, error) {
	return load(PostgresFS, "postgres")
}

// LoadMySQL loads MySQL queries from embedded files.
func LoadMySQL() (*Queries, error) {
	return load(MySQLFS, "mysql")
}

func load(fs embed.FS, dir string) (*Queries, error) {
	q := &Queries{}

	schema, err := fs.ReadFile(dir + "/schema.sql")
	if err != nil {
		return nil, err
	}
	q.Schema = string(schema)

	users, err := fs.ReadFile(dir + "/users.sql")
	if err != nil {
		return nil, err
	}
	parsed := parseNamedQueries(string(users))
	q.InsertUser = parsed["InsertUser"]
	q.SelectUserByEmail = parsed["SelectUserByEmail"]
	q.SelectUserByID = parsed["SelectUserByID"]
	q.UpdateUser = parsed["UpdateUser"]
	q.DeleteUser = parsed["DeleteUser"]
	q.SelectEmailOwner = parsed["SelectEmailOwner"]

	return q, nil
}

// parseNamedQueries parses SQL content with -- name: comments.
func parseNamedQueries(content string) map[string]string {
	result := make(map[string]string)

	parts := strings.Split(content, "-- name:")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lines := strings.SplitN(part, "\n", 2)
		if len(lines) < 2 {
			continue
		}

		name := strings.TrimSpace(lines[0])
		query := strings.TrimSpace(lines[1])
		if name != "" && query != "" {
			result[name] = query
		}
	}

	return result
}
