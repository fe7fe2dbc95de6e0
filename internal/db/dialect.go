package db

import (
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Dialect captures the few places where the SQLite and Postgres ledgers
// differ. Queries are written with '?' placeholders and rebound on use.
type Dialect struct {
	Name string

	numbered bool
	lockRow  string
}

var (
	SQLite   = Dialect{Name: DriverSQLite}
	Postgres = Dialect{Name: DriverPostgres, numbered: true, lockRow: " FOR UPDATE"}
)

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ForUpdate returns the clause that locks selected rows for the rest of the
// transaction, or "" where the driver already serializes writers.
func (d Dialect) ForUpdate() string {
	return d.lockRow
}
