package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// insertBatchSize caps the number of rows per INSERT statement.
const insertBatchSize = 500

// Store reads and appends catalog rows through gorm.
// Every value and predicate is parameter-bound.
type Store struct {
	db        *gorm.DB
	namespace string
}

// NewStore wraps a catalog connection. An empty namespace leaves table names unqualified.
func NewStore(db *gorm.DB, namespace string) *Store {
	return &Store{db: db, namespace: strings.TrimSpace(namespace)}
}

// DB exposes the underlying handle to features that own their own tables.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Namespace returns the configured table qualifier.
func (s *Store) Namespace() string {
	return s.namespace
}

// Qualify returns the namespace-qualified table name.
func (s *Store) Qualify(table string) string {
	if s.namespace == "" {
		return table
	}
	return s.namespace + "." + table
}

// Select returns rows of table ordered by id. With no columns every column is returned;
// a nil predicate selects all rows.
func (s *Store) Select(ctx context.Context, table string, columns []string, where *Predicate) ([]Row, error) {
	q := s.db.WithContext(ctx).Table(s.Qualify(table))
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	if where != nil {
		q = q.Where(where.SQL, where.Args...)
	}

	var found []map[string]any
	if err := q.Order(ColID).Find(&found).Error; err != nil {
		return nil, &QueryError{Op: "select", Table: s.Qualify(table), Err: err}
	}

	rows := make([]Row, len(found))
	for i, m := range found {
		rows[i] = Row(m)
	}
	return rows, nil
}

// InsertBatch appends rows in a single transaction: either every row is committed or none.
// Each row must carry exactly one value per column, in column order.
func (s *Store) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if len(columns) == 0 {
		return &QueryError{Op: "insert", Table: s.Qualify(table), Err: errors.New("no columns")}
	}

	records := make([]map[string]any, len(rows))
	for i, values := range rows {
		if len(values) != len(columns) {
			return &QueryError{
				Op:    "insert",
				Table: s.Qualify(table),
				Err:   fmt.Errorf("row %d has %d values for %d columns", i, len(values), len(columns)),
			}
		}
		rec := make(map[string]any, len(columns))
		for j, col := range columns {
			rec[col] = values[j]
		}
		records[i] = rec
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(records); start += insertBatchSize {
			end := min(start+insertBatchSize, len(records))
			if err := tx.Table(s.Qualify(table)).Create(records[start:end]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &QueryError{Op: "insert", Table: s.Qualify(table), Err: err}
	}
	return nil
}
