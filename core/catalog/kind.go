package catalog

import "fmt"

// Kind names one family of mirrored warehouse objects.
type Kind string

const (
	KindDatabase       Kind = "database"
	KindSchema         Kind = "schema"
	KindTable          Kind = "table"
	KindColumn         Kind = "column"
	KindRole           Kind = "role"
	KindUser           Kind = "user"
	KindPrivilegeGrant Kind = "grants_to_roles"
	KindRoleGrant      Kind = "role_grants"
)

// Kinds lists every kind in dependency order.
var Kinds = []Kind{
	KindDatabase,
	KindSchema,
	KindTable,
	KindColumn,
	KindRole,
	KindUser,
	KindPrivilegeGrant,
	KindRoleGrant,
}

// Table catalog table names, unqualified.
const (
	TableDatabases       = "database_objs"
	TableSchemas         = "schema_objs"
	TableTables          = "table_objs"
	TableColumns         = "column_objs"
	TableRoles           = "role_objs"
	TableUsers           = "user_objs"
	TablePrivilegeGrants = "grants_privilege_objs"
	TableRoleGrants      = "grants_role_objs"
)

var tables = map[Kind]string{
	KindDatabase:       TableDatabases,
	KindSchema:         TableSchemas,
	KindTable:          TableTables,
	KindColumn:         TableColumns,
	KindRole:           TableRoles,
	KindUser:           TableUsers,
	KindPrivilegeGrant: TablePrivilegeGrants,
	KindRoleGrant:      TableRoleGrants,
}

// TableFor returns the catalog table holding objects of the given kind.
func TableFor(k Kind) string {
	return tables[k]
}

// ParseKind validates a kind name as typed on the command line.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := tables[k]; !ok {
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
	return k, nil
}

// Grant target tags as stored in granted_on / granted_to.
const (
	TargetDatabase = "DATABASE"
	TargetSchema   = "SCHEMA"
	TargetTable    = "TABLE"
	TargetRole     = "ROLE"
	TargetUser     = "USER"
)
