package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	tracking "fastrack/internal/tracking/domain"
)

// Default table names mirroring the traceability sheets.
const (
	DefaultProcessTable = "proceso"
	DefaultDetailTable  = "detalle"
)

// Option configures an EventStore.
type Option func(*EventStore)

// WithSchema sets the schema holding the tables.
func WithSchema(schema string) Option {
	return func(s *EventStore) {
		s.schema = strings.TrimSpace(schema)
	}
}

// WithTables overrides the process and detail table names.
func WithTables(process, detail string) Option {
	return func(s *EventStore) {
		if process = strings.TrimSpace(process); process != "" {
			s.tables[tracking.SheetProcess] = process
		}
		if detail = strings.TrimSpace(detail); detail != "" {
			s.tables[tracking.SheetDetail] = detail
		}
	}
}

// WithOrderColumn sets the column that defines source row order.
// Without it rows come back in physical order (ctid), which matches
// insertion order only for append-only tables.
func WithOrderColumn(column string) Option {
	return func(s *EventStore) {
		s.orderColumn = strings.TrimSpace(column)
	}
}

// EventStore reads the traceability tables from Postgres.
// Every column is read as text so the normalizer sees sheet-like cells.
type EventStore struct {
	db          *sql.DB
	schema      string
	tables      map[string]string
	orderColumn string
}

// NewEventStore constructs a Postgres event store.
func NewEventStore(db *sql.DB, opts ...Option) (*EventStore, error) {
	if db == nil {
		return nil, errors.New("postgres event store: nil db")
	}
	s := &EventStore{
		db: db,
		tables: map[string]string{
			tracking.SheetProcess: DefaultProcessTable,
			tracking.SheetDetail:  DefaultDetailTable,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TableName returns the sanitized, schema-qualified table for a sheet.
func (s *EventStore) TableName(sheet string) (string, bool) {
	table, ok := s.tables[strings.ToUpper(strings.TrimSpace(sheet))]
	if !ok {
		return "", false
	}
	ident := pgx.Identifier{table}
	if s.schema != "" {
		ident = pgx.Identifier{s.schema, table}
	}
	return ident.Sanitize(), true
}

func (s *EventStore) selectQuery(sheet string) (string, error) {
	table, ok := s.TableName(sheet)
	if !ok {
		return "", fmt.Errorf("unknown sheet %q", sheet)
	}
	order := "ctid"
	if s.orderColumn != "" {
		order = pgx.Identifier{s.orderColumn}.Sanitize()
	}
	return "SELECT * FROM " + table + " ORDER BY " + order + " ASC", nil
}

// Load reads a whole table.
func (s *EventStore) Load(ctx context.Context, sheet string) (tracking.Table, error) {
	query, err := s.selectQuery(sheet)
	if err != nil {
		return tracking.Table{}, wrap(err)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return tracking.Table{}, wrap(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return tracking.Table{}, wrap(err)
	}
	table := tracking.Table{Name: strings.ToUpper(strings.TrimSpace(sheet)), Header: columns}
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return tracking.Table{}, wrap(err)
		}
		row := make([]string, len(columns))
		for i, value := range values {
			if value.Valid {
				row[i] = value.String
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return tracking.Table{}, wrap(err)
	}
	return table, nil
}

// CountQuery returns a row-count query for a sheet's table.
func (s *EventStore) CountQuery(sheet string) (string, bool) {
	table, ok := s.TableName(sheet)
	if !ok {
		return "", false
	}
	return "SELECT COUNT(*) FROM " + table, true
}

func wrap(err error) error {
	return fmt.Errorf("postgres event store: %w: %w", tracking.ErrStoreUnavailable, err)
}
