// Package sqlstore keeps a database's tables in SQLite through database/sql.
package sqlstore

import (
	"database/sql"
	"time"

	"github.com/binex-dsk/libpassman/database"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// The DSN of a private, in-memory SQLite database.
const MemoryDSN = ":memory:"

// Store implements database.Store and database.Batcher on top of SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ database.Store   = (*Store)(nil)
	_ database.Batcher = (*Store)(nil)
)

// Open opens a SQLite database at the given DSN.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open sqlite")
	}

	// Every connection to :memory: is a separate database, so there must only
	// ever be one, and it must never be closed while idle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot connect to sqlite")
	}

	return &Store{db: db}, nil
}

// OpenMemory opens a fresh in-memory store.
func OpenMemory() (*Store, error) {
	return Open(MemoryDSN)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Execute(query string, args ...interface{}) error {
	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(err, "sqlite")
	}
	return nil
}

// ExecuteBatch runs every statement in one transaction, rolling all of them back
// if any fails.
func (s *Store) ExecuteBatch(statements []database.Statement) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "cannot begin transaction")
	}

	for i, statement := range statements {
		if _, err := tx.Exec(statement.Query, statement.Args...); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				klog.Errorf("cannot roll back failed batch: %v", rollbackErr)
			}
			return errors.Wrapf(err, "statement %d of %d", i+1, len(statements))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "cannot commit transaction")
	}
	klog.V(4).Infof("executed a batch of %d statements", len(statements))
	return nil
}

// Tables lists the user tables in creation order.
func (s *Store) Tables() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "cannot read table name")
		}
		tables = append(tables, name)
	}
	return tables, errors.Wrap(rows.Err(), "cannot list tables")
}

// FirstRow reads the column names, declared types, and first row of a table.
func (s *Store) FirstRow(table string) ([]database.Column, error) {
	rows, err := s.db.Query("SELECT * FROM " + database.QuoteIdentifier(table) + " LIMIT 1")
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read table %q", table)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read columns of %q", table)
	}

	raw := make([]interface{}, len(types))
	if rows.Next() {
		pointers := make([]interface{}, len(raw))
		for i := range raw {
			pointers[i] = &raw[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrapf(err, "cannot read first row of %q", table)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "cannot read first row of %q", table)
	}

	columns := make([]database.Column, len(types))
	for i, t := range types {
		columns[i] = database.Column{
			Name:  t.Name(),
			Type:  t.DatabaseTypeName(),
			Value: toValue(raw[i]),
		}
	}
	return columns, nil
}

// Converts whatever the driver scanned into a Value. NULL, as read from an
// empty table, is empty text.
func toValue(raw interface{}) database.Value {
	switch v := raw.(type) {
	case nil:
		return database.TextValue("")
	case string:
		return database.TextValue(v)
	case []byte:
		return database.BytesValue(v)
	case int64:
		return database.NumberValue(float64(v))
	case float64:
		return database.NumberValue(v)
	case bool:
		return database.BoolValue(v)
	case time.Time:
		return database.TextValue(v.Format(time.RFC3339Nano))
	default:
		klog.Warningf("unexpected sqlite value of type %T", raw)
		return database.TextValue("")
	}
}
