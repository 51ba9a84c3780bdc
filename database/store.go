package database

// A Store is the relational engine a database's statement log is replayed into.
// Each Database owns its store; two databases must never share one.
type Store interface {
	// Execute runs a single statement, binding args to its placeholders.
	Execute(query string, args ...interface{}) error

	// Tables lists every table, in creation order.
	Tables() ([]string, error)

	// FirstRow returns the columns of a table along with the values of its
	// first row. An empty table yields empty values.
	FirstRow(table string) ([]Column, error)
}

// A Column is one column of a table's first row.
type Column struct {
	Name string

	// The declared column type, such as "TEXT" or "BLOB".
	Type string

	Value Value
}

// A Statement is a query and the arguments bound to its placeholders.
type Statement struct {
	Query string
	Args  []interface{}
}

// A Batcher is a store that can execute several statements atomically. Saving
// to one either replaces every table or changes nothing.
type Batcher interface {
	ExecuteBatch(statements []Statement) error
}
