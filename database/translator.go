package database

import (
	"math"
	"strconv"
	"strings"

	"github.com/binex-dsk/libpassman/util"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Newlines can't appear inside a statement log line, so they're stored as this
// marker and restored on load.
const newlineMarker = " || char(10) || "

func encodeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", newlineMarker)
}

func decodeNewlines(s string) string {
	return strings.ReplaceAll(s, newlineMarker, "\n")
}

// QuoteIdentifier quotes a table or column name, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(encodeNewlines(name), `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// The statements that recreate a single entry: the textual form written to the
// log, and the parameterized form executed against the store.
type entryStatements struct {
	createLog string
	insertLog string
	insert    Statement
}

// Builds the CREATE TABLE and INSERT statements for an entry. Values that can't
// be stored as their field's type are errors.
func buildStatements(e *Entry) (*entryStatements, error) {
	var (
		table        = QuoteIdentifier(e.Name())
		columns      = make([]string, 0, e.Len())
		definitions  = make([]string, 0, e.Len())
		literals     = make([]string, 0, e.Len())
		placeholders = make([]string, 0, e.Len())
		args         = make([]interface{}, 0, e.Len())
		seen         = util.NewSortedStringSet()
	)

	for _, f := range e.fields {
		if f.Name == "" {
			return nil, errors.Errorf("entry %q has a field without a name", e.Name())
		}

		// column names are case-insensitive to the store
		key := strings.ToLower(f.Name)
		if seen.Contains(key) {
			return nil, errors.Errorf("entry %q has more than one field named %q", e.Name(), f.Name)
		}
		seen.Add(key)

		var (
			literal string
			arg     interface{}
		)
		switch f.Type {
		case Number:
			n, err := f.Value.Float()
			if err != nil {
				return nil, errors.Wrapf(err, "field %q of entry %q", f.Name, e.Name())
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return nil, errors.Errorf("field %q of entry %q is not a finite number", f.Name, e.Name())
			}
			literal, arg = strconv.FormatFloat(n, 'g', -1, 64), n
		case Boolean:
			b, err := f.Value.Bool()
			if err != nil {
				return nil, errors.Wrapf(err, "field %q of entry %q", f.Name, e.Name())
			}
			if b {
				literal, arg = "1", int64(1)
			} else {
				literal, arg = "0", int64(0)
			}
		default:
			s := encodeNewlines(f.String())
			literal, arg = quoteLiteral(s), s
		}

		column := QuoteIdentifier(f.Name)
		columns = append(columns, column)
		definitions = append(definitions, column+" "+f.Type.sqlType())
		literals = append(literals, literal)
		placeholders = append(placeholders, "?")
		args = append(args, arg)
	}

	insertPrefix := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES ("
	return &entryStatements{
		createLog: "CREATE TABLE " + table + " (" + strings.Join(definitions, ", ") + ")",
		insertLog: insertPrefix + strings.Join(literals, ", ") + ")",
		insert: Statement{
			Query: insertPrefix + strings.Join(placeholders, ", ") + ")",
			Args:  args,
		},
	}, nil
}

// Returns a DROP TABLE statement for every table in the store.
func (d *Database) dropStatements() ([]Statement, error) {
	tables, err := d.store.Tables()
	if err != nil {
		return nil, errors.Wrap(err, "cannot list tables")
	}

	drops := make([]Statement, 0, len(tables))
	for _, table := range tables {
		drops = append(drops, Statement{Query: "DROP TABLE " + QuoteIdentifier(table)})
	}
	return drops, nil
}

// Runs the statements as one batch when the store supports it, or one at a
// time otherwise.
func (d *Database) execute(statements []Statement) error {
	if batcher, ok := d.store.(Batcher); ok {
		return batcher.ExecuteBatch(statements)
	}

	for _, s := range statements {
		if err := d.store.Execute(s.Query, s.Args...); err != nil {
			return errors.Wrapf(err, "cannot execute %q", s.Query)
		}
	}
	return nil
}

// SaveStatementLog rebuilds the store and the statement log from the current
// entries. Every statement is built before anything is executed, and the log
// is only replaced once the store has been rebuilt. Entries with an empty name
// are skipped, and two entries whose names differ only by case are an error.
func (d *Database) SaveStatementLog() error {
	var (
		statements []Statement
		log        strings.Builder
		names      = util.NewSortedStringSet()
	)

	for _, e := range d.entries {
		name := e.Name()
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if names.Contains(key) {
			return errors.Errorf("more than one entry is named %q", name)
		}
		names.Add(key)

		s, err := buildStatements(e)
		if err != nil {
			return err
		}

		statements = append(statements, Statement{Query: s.createLog}, s.insert)
		log.WriteString(s.createLog + "\n")
		log.WriteString(s.insertLog + "\n")
	}

	drops, err := d.dropStatements()
	if err != nil {
		return err
	}

	if err := d.execute(append(drops, statements...)); err != nil {
		return errors.Wrap(err, "cannot save entries")
	}

	d.statementLog = []byte(log.String())
	klog.V(2).Infof("saved %d entries to the statement log", names.Len())
	return nil
}

// Drops every table, then executes each non-empty line of the log. Lines that
// fail are logged and skipped, so a partially corrupt log still loads whatever
// it can. Returns the number of skipped lines.
func (d *Database) replay(log []byte) (int, error) {
	drops, err := d.dropStatements()
	if err != nil {
		return 0, err
	}
	if err := d.execute(drops); err != nil {
		return 0, errors.Wrap(err, "cannot clear store")
	}

	skipped := 0
	for _, line := range strings.Split(string(log), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := d.store.Execute(line); err != nil {
			klog.Warningf("skipping statement that failed to replay: %v", err)
			klog.V(4).Infof("skipped statement: %s", line)
			skipped++
		}
	}
	return skipped, nil
}

// Load rebuilds the entries from the store, one entry per table.
func (d *Database) Load() error {
	return d.load(false)
}

// Rebuilds the entries from the store. With legacyLayout, tables are read as
// written by the pre-2.0 format.
func (d *Database) load(legacyLayout bool) error {
	d.entries = nil

	tables, err := d.store.Tables()
	if err != nil {
		return errors.Wrap(err, "cannot list tables")
	}

	entries := make([]*Entry, 0, len(tables))
	for _, table := range tables {
		columns, err := d.store.FirstRow(table)
		if err != nil {
			return errors.Wrapf(err, "cannot read table %q", table)
		}
		if legacyLayout {
			columns = reorderLegacyColumns(columns)
		}
		entries = append(entries, entryFromColumns(columns))
	}

	d.entries = entries
	return nil
}

// Builds an entry from a table's first row, one field per column.
func entryFromColumns(columns []Column) *Entry {
	fields := make([]*Field, 0, len(columns))
	for _, c := range columns {
		t := fieldTypeFromSQL(c.Type)
		fields = append(fields, NewField(decodeNewlines(c.Name), t, t.decode(c.Value)))
	}
	return NewEntry(fields...)
}

// Old databases stored the password before the notes, as Name, Email, URL,
// Password, Notes. Those columns are swapped so the notes come first, and the
// notes become multiline. Anything after them is kept in place.
func reorderLegacyColumns(columns []Column) []Column {
	if len(columns) < 4 || !strings.EqualFold(columns[3].Name, "password") {
		return columns
	}

	reordered := append([]Column(nil), columns[:3]...)

	notes := Column{Name: "Notes", Value: TextValue("")}
	rest := columns[4:]
	if len(rest) > 0 {
		notes.Value, rest = rest[0].Value, rest[1:]
	}
	notes.Type = Multiline.sqlType()

	password := columns[3]
	password.Name = "Password"
	password.Type = Text.sqlType()

	reordered = append(reordered, notes, password)
	return append(reordered, rest...)
}
