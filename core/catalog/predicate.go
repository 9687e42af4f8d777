package catalog

import "strings"

// Predicate is a WHERE clause with positional placeholders. Values are always bound,
// never interpolated into SQL.
type Predicate struct {
	SQL  string
	Args []any
}

// Eq builds "col = ?".
func Eq(col string, val any) *Predicate {
	return &Predicate{SQL: col + " = ?", Args: []any{val}}
}

// Like builds "col LIKE ?" with the value wrapped in wildcards.
// Wildcard characters inside the value are escaped.
func Like(col, contains string) *Predicate {
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(contains)
	return &Predicate{SQL: col + " LIKE ? ESCAPE '!'", Args: []any{"%" + escaped + "%"}}
}

// And joins predicates with AND, skipping nil entries.
func And(preds ...*Predicate) *Predicate {
	var parts []string
	var args []any
	for _, p := range preds {
		if p == nil {
			continue
		}
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	if len(parts) == 0 {
		return nil
	}
	return &Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}
