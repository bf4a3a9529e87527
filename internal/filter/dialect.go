package filter

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Dialect captures the few places where generated SQL differs per store.
type Dialect interface {
	// Name is the database/sql driver name.
	Name() string
	// Placeholder formats the bind markers of the outermost statement.
	Placeholder() sq.PlaceholderFormat
	// JSONText extracts field from the JSON column expression as unquoted text.
	JSONText(column, field string) string
	// SnapshotIsolation is the isolation level used for the count and page reads.
	SnapshotIsolation() sql.IsolationLevel
	// BindTime converts a parsed range bound into the value compared
	// against stored timestamps.
	BindTime(t time.Time) interface{}
}

type postgresDialect struct{}

func (postgresDialect) Name() string                      { return "postgres" }
func (postgresDialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }
func (postgresDialect) JSONText(column, field string) string {
	return fmt.Sprintf("%s->>%s", column, pq.QuoteLiteral(field))
}
func (postgresDialect) SnapshotIsolation() sql.IsolationLevel { return sql.LevelRepeatableRead }
func (postgresDialect) BindTime(t time.Time) interface{}      { return t }

type mysqlDialect struct{}

func (mysqlDialect) Name() string                      { return "mysql" }
func (mysqlDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }
func (mysqlDialect) JSONText(column, field string) string {
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(%s, '$.%s'))", column, field)
}
func (mysqlDialect) SnapshotIsolation() sql.IsolationLevel { return sql.LevelRepeatableRead }
func (mysqlDialect) BindTime(t time.Time) interface{}      { return t }

type sqliteDialect struct{}

func (sqliteDialect) Name() string                      { return "sqlite3" }
func (sqliteDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }
func (sqliteDialect) JSONText(column, field string) string {
	return fmt.Sprintf("json_extract(%s, '$.%s')", column, field)
}
func (sqliteDialect) SnapshotIsolation() sql.IsolationLevel { return sql.LevelDefault }

// SQLite has no timestamp type; DATETIME columns hold UTC text in the
// CURRENT_TIMESTAMP layout and are compared lexically.
func (sqliteDialect) BindTime(t time.Time) interface{} {
	return t.UTC().Format(sqliteTimeLayout)
}

const sqliteTimeLayout = "2006-01-02 15:04:05.999999999"

var (
	Postgres Dialect = postgresDialect{}
	MySQL    Dialect = mysqlDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
