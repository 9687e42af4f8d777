package warehouse

import (
	"fmt"
	"strings"

	"catalog-sync/core/catalog"
)

// statement is one listing query together with the session switches it needs.
// after runs even when the query fails.
type statement struct {
	before []string
	query  string
	args   []any
	after  []string
}

// dialect translates listing requests into the SQL of one warehouse flavour.
type dialect interface {
	name() string
	driver() string
	dsn(cfg Config) (string, error)
	topLevel(kind catalog.Kind) (statement, error)
	scoped(kind catalog.Kind, path []string) (statement, error)
	session() statement
	rolesOfUser(user string) statement
	grantsToRole(role string) statement
}

func dialectFor(cfg Config) (dialect, error) {
	switch strings.ToLower(cfg.Dialect) {
	case DialectSnowflake, "":
		return snowflake{cfg: cfg}, nil
	case DialectPostgres:
		return postgres{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported warehouse dialect: %s", cfg.Dialect)
	}
}

// scopeDepth is the number of path segments a scoped listing of kind expects.
var scopeDepth = map[catalog.Kind]int{
	catalog.KindSchema:         1,
	catalog.KindTable:          2,
	catalog.KindColumn:         3,
	catalog.KindPrivilegeGrant: 1,
	catalog.KindRoleGrant:      1,
}

func checkScope(kind catalog.Kind, path []string) error {
	want, ok := scopeDepth[kind]
	if !ok {
		return fmt.Errorf("%s is not a scoped kind", kind)
	}
	if len(path) != want {
		return fmt.Errorf("%s listing needs a scope of %d names, got %d", kind, want, len(path))
	}
	return nil
}

// quoteIdent quotes an identifier for Snowflake and Postgres alike.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quotePath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
