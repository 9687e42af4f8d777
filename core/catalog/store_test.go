package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-sync/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store := NewStore(db, "")
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "database_objs", NewStore(nil, "").Qualify(TableDatabases))
	assert.Equal(t, "catalog.database_objs", NewStore(nil, " catalog ").Qualify(TableDatabases))
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Migrate(ctx))
	assert.NoError(t, store.Verify(ctx, Kinds))
}

func TestVerifyMissingTables(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	defer database.Close(db)

	err = NewStore(db, "").Verify(context.Background(), []Kind{KindDatabase, KindRole})

	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "verify", qe.Op)
	assert.Contains(t, err.Error(), "database_objs does not exist")
	assert.Contains(t, err.Error(), "role_objs does not exist")
}

func TestProblemsMissingColumns(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, db.Exec("CREATE TABLE database_objs (id INTEGER PRIMARY KEY, name TEXT)").Error)

	problems, err := NewStore(db, "").Problems(context.Background(), []Kind{KindDatabase})
	require.NoError(t, err)
	assert.Equal(t, []string{"table database_objs is missing columns: obj_created_on"}, problems)
}

func TestInsertAndSelect(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := store.InsertBatch(ctx, TableDatabases, []string{ColObjCreatedOn, ColName}, [][]any{
		{created, "SALES"},
		{nil, "HR"},
	})
	require.NoError(t, err)

	rows, err := store.Select(ctx, TableDatabases, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "SALES", rows[0].String(ColName))
	assert.NotZero(t, rows[0].ID())
	if ts := rows[0].Time(ColObjCreatedOn); assert.NotNil(t, ts) {
		assert.True(t, created.Equal(*ts))
	}
	assert.Nil(t, rows[1].Time(ColObjCreatedOn))
	assert.Less(t, rows[0].ID(), rows[1].ID())

	rows, err = store.Select(ctx, TableDatabases, []string{ColID, ColName}, Eq(ColName, "HR"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "HR", rows[0].String(ColName))
	_, hasCreated := rows[0][ColObjCreatedOn]
	assert.False(t, hasCreated)
}

func TestSelectPredicateIsBound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, TableRoles, []string{ColName}, [][]any{{"ANALYST"}}))

	rows, err := store.Select(ctx, TableRoles, nil, Eq(ColName, "x' OR '1'='1"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsertBatchIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.InsertBatch(ctx, TableRoles, []string{ColName}, [][]any{
		{"ANALYST"},
		{"LOADER"},
		{"ANALYST"},
	})
	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "insert", qe.Op)

	rows, err := store.Select(ctx, TableRoles, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsertBatchShapeMismatch(t *testing.T) {
	store := newTestStore(t)

	err := store.InsertBatch(context.Background(), TableRoles, []string{ColName}, [][]any{{"A", "B"}})
	assert.ErrorContains(t, err, "row 0 has 2 values for 1 columns")
}

func TestInsertBatchEmpty(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.InsertBatch(context.Background(), TableRoles, []string{ColName}, nil))
}

func TestSelectMissingTable(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Select(context.Background(), "nope_objs", nil, nil)
	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "select", qe.Op)
}

func TestLikeAndAnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, TableRoles, []string{ColName}, [][]any{
		{"DATA_READER"}, {"DATAXREADER"}, {"LOADER"},
	}))

	rows, err := store.Select(ctx, TableRoles, nil, Like(ColName, "A_R"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DATA_READER", rows[0].String(ColName))

	assert.Nil(t, And(nil, nil))
	p := And(Eq("a", 1), nil, Eq("b", "x"))
	assert.Equal(t, "(a = ?) AND (b = ?)", p.SQL)
	assert.Equal(t, []any{1, "x"}, p.Args)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("grants_to_roles")
	assert.NoError(t, err)
	assert.Equal(t, KindPrivilegeGrant, k)
	assert.Equal(t, TablePrivilegeGrants, TableFor(k))

	_, err = ParseKind("warehouse")
	assert.Error(t, err)
}

func TestNamesDifferingOnlyByCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, TableTables,
		[]string{ColName, ColSchemaID}, [][]any{{"ORDERS", int64(1)}, {"orders", int64(1)}}))
	require.NoError(t, store.InsertBatch(ctx, TableColumns,
		[]string{ColName, ColTableID}, [][]any{{"ID", int64(1)}, {"Id", int64(1)}}))

	tables, err := store.Select(ctx, TableTables, []string{ColName}, nil)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "ORDERS", tables[0].String(ColName))
	assert.Equal(t, "orders", tables[1].String(ColName))

	found, err := store.Select(ctx, TableColumns, nil, Eq(ColName, "Id"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(2), found[0].ID())
}

func TestMigratorCollation(t *testing.T) {
	ctx := context.Background()

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}),
		&gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	opts, ok := NewStore(db, "catalog").Migrator(ctx).Get("gorm:table_options")
	require.True(t, ok)
	assert.Equal(t, "CHARSET=utf8mb4 COLLATE=utf8mb4_bin", opts)

	_, ok = newTestStore(t).Migrator(ctx).Get("gorm:table_options")
	assert.False(t, ok)
}
