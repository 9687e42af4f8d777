package warehouse

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"catalog-sync/core/catalog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockInventory(t *testing.T, cfg Config) (*Inventory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	inv, err := NewInventory(context.Background(), db, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		_ = inv.Close()
	})
	return inv, mock
}

func snowflakeConfig() Config {
	return Config{Dialect: DialectSnowflake, Role: "SYSADMIN", UserAdminRole: "SECURITYADMIN", TimeoutSeconds: 5}
}

func TestListTopLevelDatabases(t *testing.T) {
	inv, mock := newMockInventory(t, snowflakeConfig())
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SHOW DATABASES").WillReturnRows(
		sqlmock.NewRows([]string{"created_on", "name", "owner"}).
			AddRow(created, "SALES", "SYSADMIN").
			AddRow(nil, "HR", "SYSADMIN"))

	got, err := inv.ListTopLevel(context.Background(), catalog.KindDatabase)
	require.NoError(t, err)

	want := []catalog.Row{
		{FieldName: "SALES", FieldCreatedOn: created},
		{FieldName: "HR", FieldCreatedOn: nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListTopLevel() mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersSwitchesRole(t *testing.T) {
	inv, mock := newMockInventory(t, snowflakeConfig())

	mock.ExpectExec(regexp.QuoteMeta(`USE ROLE "SECURITYADMIN"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SHOW USERS").WillReturnRows(
		sqlmock.NewRows([]string{"name", "login_name", "created_on", "last_success_login", "email", "owner", "default_role", "ext_authn_uid", "ext_authn_duo"}).
			AddRow("ALICE", "alice", nil, nil, "alice@example.com", "USERADMIN", "ANALYST", "", "false").
			AddRow("BOB", "bob", nil, nil, nil, nil, nil, "uid-1", "true"))
	mock.ExpectExec(regexp.QuoteMeta(`USE ROLE "SYSADMIN"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	got, err := inv.ListTopLevel(context.Background(), catalog.KindUser)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "alice", got[0][FieldLoginName])
	assert.Equal(t, "USERADMIN", got[0][FieldOwner])
	assert.Equal(t, "ANALYST", got[0][FieldDefaultRole])
	assert.Equal(t, false, got[0][FieldExtAuthnDuo])
	assert.Equal(t, "", got[1][FieldEmail])
	assert.Equal(t, true, got[1][FieldExtAuthnDuo])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersRestoresRoleOnFailure(t *testing.T) {
	inv, mock := newMockInventory(t, snowflakeConfig())

	mock.ExpectExec(regexp.QuoteMeta(`USE ROLE "SECURITYADMIN"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SHOW USERS").WillReturnError(errors.New("insufficient privileges"))
	mock.ExpectExec(regexp.QuoteMeta(`USE ROLE "SYSADMIN"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := inv.ListTopLevel(context.Background(), catalog.KindUser)
	var rqe *RemoteQueryError
	require.True(t, errors.As(err, &rqe))
	assert.Equal(t, catalog.KindUser, rqe.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScopedQuotesIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		kind  catalog.Kind
		path  []string
		query string
		cols  []string
		row   []any
		want  catalog.Row
	}{
		{
			name:  "schemas",
			kind:  catalog.KindSchema,
			path:  []string{"SALES"},
			query: `SHOW SCHEMAS IN DATABASE "SALES"`,
			cols:  []string{"created_on", "name", "database_name"},
			row:   []any{nil, "PUBLIC", "SALES"},
			want:  catalog.Row{FieldName: "PUBLIC", FieldCreatedOn: nil},
		},
		{
			name:  "tables with quotes",
			kind:  catalog.KindTable,
			path:  []string{"SALES", `we"ird`},
			query: `SHOW TABLES IN SCHEMA "SALES"."we""ird"`,
			cols:  []string{"created_on", "name"},
			row:   []any{nil, "ORDERS"},
			want:  catalog.Row{FieldName: "ORDERS", FieldCreatedOn: nil},
		},
		{
			name:  "columns",
			kind:  catalog.KindColumn,
			path:  []string{"SALES", "PUBLIC", "ORDERS"},
			query: `SHOW COLUMNS IN TABLE "SALES"."PUBLIC"."ORDERS"`,
			cols:  []string{"table_name", "schema_name", "column_name", "data_type"},
			row:   []any{"ORDERS", "PUBLIC", "ID", "NUMBER"},
			want:  catalog.Row{FieldName: "ID", FieldCreatedOn: nil},
		},
		{
			name:  "privilege grants",
			kind:  catalog.KindPrivilegeGrant,
			path:  []string{"ANALYST"},
			query: `SHOW GRANTS TO ROLE "ANALYST"`,
			cols:  []string{"created_on", "privilege", "granted_on", "name", "granted_to", "grantee_name", "grant_option", "granted_by"},
			row:   []any{nil, "USAGE", "DATABASE", "SALES", "ROLE", "ANALYST", "false", "SYSADMIN"},
			want: catalog.Row{
				FieldCreatedOn:   nil,
				FieldPrivilege:   "USAGE",
				FieldGrantedOn:   "DATABASE",
				FieldName:        "SALES",
				FieldGrantOption: false,
			},
		},
		{
			name:  "role grants",
			kind:  catalog.KindRoleGrant,
			path:  []string{"ANALYST"},
			query: `SHOW GRANTS OF ROLE "ANALYST"`,
			cols:  []string{"created_on", "role", "granted_to", "grantee_name", "granted_by"},
			row:   []any{nil, "ANALYST", "USER", "alice", ""},
			want: catalog.Row{
				FieldCreatedOn:   nil,
				FieldRole:        "ANALYST",
				FieldGrantedTo:   "USER",
				FieldGranteeName: "alice",
				FieldGrantedBy:   "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, mock := newMockInventory(t, snowflakeConfig())
			mock.ExpectQuery("^" + regexp.QuoteMeta(tt.query) + "$").
				WillReturnRows(sqlmock.NewRows(tt.cols).AddRow(sqlmockValues(tt.row)...))

			got, err := inv.ListScoped(context.Background(), tt.kind, tt.path)
			require.NoError(t, err)
			require.Len(t, got, 1)
			if diff := cmp.Diff(tt.want, got[0]); diff != "" {
				t.Errorf("ListScoped() mismatch (-want +got):\n%s", diff)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListScopedFailureIsReturnedAsValue(t *testing.T) {
	inv, mock := newMockInventory(t, snowflakeConfig())
	mock.ExpectQuery("SHOW SCHEMAS").WillReturnError(errors.New("Database 'LOCKED' does not exist or not authorized"))

	rows, err := inv.ListScoped(context.Background(), catalog.KindSchema, []string{"LOCKED"})
	assert.Nil(t, rows)

	var rqe *RemoteQueryError
	require.True(t, errors.As(err, &rqe))
	assert.Equal(t, []string{"LOCKED"}, rqe.Scope)
	assert.Contains(t, err.Error(), "listing schema in LOCKED failed")
}

func TestListScopedRejectsBadScope(t *testing.T) {
	inv, _ := newMockInventory(t, snowflakeConfig())

	_, err := inv.ListScoped(context.Background(), catalog.KindTable, []string{"ONLY_DB"})
	var rqe *RemoteQueryError
	require.True(t, errors.As(err, &rqe))

	_, err = inv.ListTopLevel(context.Background(), catalog.KindSchema)
	require.True(t, errors.As(err, &rqe))
}

func TestSessionAndGrants(t *testing.T) {
	inv, mock := newMockInventory(t, snowflakeConfig())

	mock.ExpectQuery("CURRENT_USER").WillReturnRows(
		sqlmock.NewRows([]string{"USER_NAME", "WAREHOUSE", "ROLE_NAME"}).AddRow("SYNC", "COMPUTE_WH", "SYSADMIN"))
	mock.ExpectQuery(regexp.QuoteMeta(`SHOW GRANTS TO USER "SYNC"`)).WillReturnRows(
		sqlmock.NewRows([]string{"created_on", "role", "granted_to", "grantee_name"}).
			AddRow(nil, "SYSADMIN", "USER", "SYNC").
			AddRow(nil, "SECURITYADMIN", "USER", "SYNC"))

	s, err := inv.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Session{User: "SYNC", Warehouse: "COMPUTE_WH", Role: "SYSADMIN", Roles: []string{"SYSADMIN", "SECURITYADMIN"}}, s)

	mock.ExpectQuery(regexp.QuoteMeta(`SHOW GRANTS TO ROLE "SYSADMIN"`)).WillReturnRows(
		sqlmock.NewRows([]string{"privilege", "granted_on", "name"}).
			AddRow("CREATE DATABASE", "ACCOUNT", "ACME").
			AddRow("USAGE", "warehouse", "COMPUTE_WH"))

	grants, err := inv.GrantsToRole(context.Background(), "SYSADMIN")
	require.NoError(t, err)
	assert.Equal(t, []Grant{
		{Privilege: "CREATE DATABASE", GrantedOn: "ACCOUNT", Name: "ACME"},
		{Privilege: "USAGE", GrantedOn: "WAREHOUSE", Name: "COMPUTE_WH"},
	}, grants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBindsScope(t *testing.T) {
	inv, mock := newMockInventory(t, Config{Dialect: DialectPostgres, TimeoutSeconds: 5})

	mock.ExpectQuery(regexp.QuoteMeta(pgTables)).
		WithArgs("shop", "public").
		WillReturnRows(sqlmock.NewRows([]string{"name", "created_on"}).AddRow("orders", nil))

	got, err := inv.ListScoped(context.Background(), catalog.KindTable, []string{"shop", "public"})
	require.NoError(t, err)
	assert.Equal(t, []catalog.Row{{FieldName: "orders", FieldCreatedOn: nil}}, got)

	mock.ExpectQuery(regexp.QuoteMeta(pgColumns)).
		WithArgs("shop", "public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "created_on"}).AddRow("id", nil).AddRow("total", nil))

	got, err = inv.ListScoped(context.Background(), catalog.KindColumn, []string{"shop", "public", "orders"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "total", got[1][FieldName])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectFor(t *testing.T) {
	_, err := dialectFor(Config{Dialect: "oracle"})
	assert.ErrorContains(t, err, "unsupported warehouse dialect")

	d, err := dialectFor(Config{})
	require.NoError(t, err)
	assert.Equal(t, DialectSnowflake, d.name())

	dsn, err := postgres{}.dsn(Config{Host: "wh", Port: 5432, User: "u", Password: "p@ss", Database: "shop", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p%40ss@wh:5432/shop?application_name=catalog-sync&sslmode=disable", dsn)
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"SALES", []string{"SALES"}},
		{"SALES.PUBLIC.ORDERS", []string{"SALES", "PUBLIC", "ORDERS"}},
		{`SALES."my.schema".T`, []string{"SALES", "my.schema", "T"}},
		{`"a""b".C`, []string{`a"b`, "C"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitPath(tt.in), tt.in)
	}
}

func sqlmockValues(in []any) []driver.Value {
	out := make([]driver.Value, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
