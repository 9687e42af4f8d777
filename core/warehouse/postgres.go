package warehouse

import (
	"fmt"
	"net/url"
	"strings"

	"catalog-sync/core/catalog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// postgres serves Postgres-compatible warehouses through the system catalogs.
// Every query aliases its columns to the names SHOW would produce on Snowflake.
// Only the connected database is visible, other databases list as empty.
type postgres struct {
	cfg Config
}

func (postgres) name() string   { return DialectPostgres }
func (postgres) driver() string { return "pgx" }

func (postgres) dsn(cfg Config) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("postgres warehouse needs a host")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	q.Set("application_name", "catalog-sync")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

const (
	pgDatabases = `SELECT datname AS name, NULL AS created_on
FROM pg_database
WHERE NOT datistemplate
ORDER BY datname`

	pgRoles = `SELECT rolname AS name, NULL AS created_on
FROM pg_roles
WHERE NOT rolcanlogin AND rolname NOT LIKE 'pg!_%' ESCAPE '!'
ORDER BY rolname`

	pgUsers = `SELECT u.rolname AS login_name, NULL AS created_on, NULL AS last_success_login,
  NULL AS email, NULL AS owner, NULL AS default_role, NULL AS ext_authn_uid, false AS ext_authn_duo
FROM pg_roles u
WHERE u.rolcanlogin
ORDER BY u.rolname`

	pgSchemas = `SELECT schema_name AS name, NULL AS created_on
FROM information_schema.schemata
WHERE catalog_name = $1
ORDER BY schema_name`

	pgTables = `SELECT table_name AS name, NULL AS created_on
FROM information_schema.tables
WHERE table_catalog = $1 AND table_schema = $2
ORDER BY table_name`

	pgColumns = `SELECT column_name, NULL AS created_on
FROM information_schema.columns
WHERE table_catalog = $1 AND table_schema = $2 AND table_name = $3
ORDER BY ordinal_position`

	pgPrivilegeGrants = `SELECT NULL AS created_on, a.privilege_type AS privilege, 'DATABASE' AS granted_on,
  quote_ident(d.datname) AS name, a.is_grantable AS grant_option
FROM pg_database d CROSS JOIN LATERAL aclexplode(d.datacl) a JOIN pg_roles r ON r.oid = a.grantee
WHERE r.rolname = $1
UNION ALL
SELECT NULL, a.privilege_type, 'SCHEMA',
  quote_ident(current_database()) || '.' || quote_ident(n.nspname), a.is_grantable
FROM pg_namespace n CROSS JOIN LATERAL aclexplode(n.nspacl) a JOIN pg_roles r ON r.oid = a.grantee
WHERE r.rolname = $1
UNION ALL
SELECT NULL, t.privilege_type, 'TABLE',
  quote_ident(t.table_catalog) || '.' || quote_ident(t.table_schema) || '.' || quote_ident(t.table_name),
  t.is_grantable = 'YES'
FROM information_schema.table_privileges t
WHERE t.grantee = $1`

	pgRoleGrants = `SELECT NULL AS created_on, r.rolname AS role,
  CASE WHEN m.rolcanlogin THEN 'USER' ELSE 'ROLE' END AS granted_to,
  m.rolname AS grantee_name, g.rolname AS granted_by
FROM pg_auth_members am
JOIN pg_roles r ON r.oid = am.roleid
JOIN pg_roles m ON m.oid = am.member
LEFT JOIN pg_roles g ON g.oid = am.grantor
WHERE r.rolname = $1
ORDER BY m.rolname`

	pgSession = `SELECT current_user AS user_name, current_database() AS warehouse, current_user AS role_name`

	pgRolesOfUser = `SELECT r.rolname AS role
FROM pg_auth_members am
JOIN pg_roles r ON r.oid = am.roleid
JOIN pg_roles m ON m.oid = am.member
WHERE m.rolname = $1
ORDER BY r.rolname`

	pgAccountGrants = `SELECT 'CREATE DATABASE' AS privilege, 'ACCOUNT' AS granted_on, rolname AS name FROM pg_roles WHERE rolname = $1 AND rolcreatedb
UNION ALL
SELECT 'MANAGE GRANTS', 'ACCOUNT', rolname FROM pg_roles WHERE rolname = $1 AND rolcreaterole
UNION ALL
SELECT 'USAGE', 'WAREHOUSE', current_database() WHERE has_database_privilege($1, current_database(), 'CONNECT')`
)

func (postgres) topLevel(kind catalog.Kind) (statement, error) {
	switch kind {
	case catalog.KindDatabase:
		return statement{query: pgDatabases}, nil
	case catalog.KindRole:
		return statement{query: pgRoles}, nil
	case catalog.KindUser:
		return statement{query: pgUsers}, nil
	default:
		return statement{}, fmt.Errorf("%s is not a top-level kind", kind)
	}
}

func (postgres) scoped(kind catalog.Kind, path []string) (statement, error) {
	if err := checkScope(kind, path); err != nil {
		return statement{}, err
	}
	args := make([]any, len(path))
	for i, p := range path {
		args[i] = p
	}
	switch kind {
	case catalog.KindSchema:
		return statement{query: pgSchemas, args: args}, nil
	case catalog.KindTable:
		return statement{query: pgTables, args: args}, nil
	case catalog.KindColumn:
		return statement{query: pgColumns, args: args}, nil
	case catalog.KindPrivilegeGrant:
		return statement{query: pgPrivilegeGrants, args: args}, nil
	default:
		return statement{query: pgRoleGrants, args: args}, nil
	}
}

func (postgres) session() statement {
	return statement{query: pgSession}
}

func (postgres) rolesOfUser(user string) statement {
	return statement{query: pgRolesOfUser, args: []any{user}}
}

func (postgres) grantsToRole(role string) statement {
	return statement{query: pgAccountGrants, args: []any{strings.TrimSpace(role)}}
}
