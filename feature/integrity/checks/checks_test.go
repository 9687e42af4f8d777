package checks

import (
	"context"
	"errors"
	"testing"

	"catalog-sync/core/catalog"
	"catalog-sync/core/database"
	"catalog-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *catalog.Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return catalog.NewStore(db, "")
}

func insert(t *testing.T, store *catalog.Store, table string, cols []string, rows ...[]any) {
	t.Helper()
	require.NoError(t, store.InsertBatch(context.Background(), table, cols, rows))
}

func TestCheckTables(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	problems, err := CheckTables(ctx, store)
	require.NoError(t, err)
	assert.Len(t, problems, len(catalog.Kinds))
	assert.Contains(t, problems, "table database_objs does not exist")

	require.NoError(t, store.Migrate(ctx))
	problems, err = CheckTables(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestCheckReferences(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	insert(t, store, catalog.TableDatabases, []string{catalog.ColName}, []any{"SALES"})
	insert(t, store, catalog.TableSchemas, []string{catalog.ColName, catalog.ColDatabaseID},
		[]any{"PUBLIC", int64(1)}, []any{"ORPHAN", int64(99)})
	insert(t, store, catalog.TableRoles, []string{catalog.ColName}, []any{"ANALYST"})
	insert(t, store, catalog.TableUsers, []string{catalog.ColLoginName, catalog.ColOwnerRoleID},
		[]any{"alice", nil}, []any{"bob", int64(1)})
	insert(t, store, catalog.TablePrivilegeGrants,
		[]string{catalog.ColPrivilege, catalog.ColGrantedOn, catalog.ColGrantedOnID, catalog.ColGrantedTo, catalog.ColGrantedToID},
		[]any{"USAGE", catalog.TargetDatabase, int64(1), catalog.TargetRole, int64(1)},
		[]any{"SELECT", catalog.TargetTable, int64(5), catalog.TargetRole, int64(1)})
	insert(t, store, catalog.TableRoleGrants,
		[]string{catalog.ColRoleID, catalog.ColGrantedTo, catalog.ColGrantedToID},
		[]any{int64(1), catalog.TargetUser, int64(2)},
		[]any{int64(1), catalog.TargetUser, int64(7)})

	dangling, err := CheckReferences(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []Dangling{
		{Kind: catalog.KindSchema, ID: 2, Column: catalog.ColDatabaseID, Target: catalog.KindDatabase, RefID: 99},
		{Kind: catalog.KindPrivilegeGrant, ID: 2, Column: catalog.ColGrantedOnID, Target: catalog.KindTable, RefID: 5},
		{Kind: catalog.KindRoleGrant, ID: 2, Column: catalog.ColGrantedToID, Target: catalog.KindUser, RefID: 7},
	}, dangling)
}

func TestCheckReferences_UnknownDiscriminator(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	insert(t, store, catalog.TablePrivilegeGrants,
		[]string{catalog.ColPrivilege, catalog.ColGrantedOn, catalog.ColGrantedOnID, catalog.ColGrantedTo, catalog.ColGrantedToID},
		[]any{"USAGE", "WAREHOUSE", int64(1), catalog.TargetRole, int64(1)})

	_, err := CheckReferences(ctx, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown granted_on "WAREHOUSE"`)
}

func TestCheckArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reports").Return(false, nil)

		report, err := CheckArchive(ctx, client, "reports", "scans")
		require.NoError(t, err)
		assert.Equal(t, &ArchiveReport{Bucket: "reports"}, report)
		client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CountsReports", func(t *testing.T) {
		client := new(mocks.Client)
		ch := make(chan minio.ObjectInfo, 3)
		ch <- minio.ObjectInfo{Key: "scans/2024-05-01/a.json"}
		ch <- minio.ObjectInfo{Key: "scans/2024-05-02/b.json"}
		ch <- minio.ObjectInfo{Key: "scans/readme.txt"}
		close(ch)
		client.On("BucketExists", mock.Anything, "reports").Return(true, nil)
		client.On("ListObjects", mock.Anything, "reports", minio.ListObjectsOptions{Prefix: "scans/", Recursive: true}).
			Return((<-chan minio.ObjectInfo)(ch))

		report, err := CheckArchive(ctx, client, "reports", "scans")
		require.NoError(t, err)
		assert.Equal(t, &ArchiveReport{Bucket: "reports", Exists: true, Reports: 2}, report)
	})

	t.Run("BucketCheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reports").Return(false, errors.New("denied"))

		_, err := CheckArchive(ctx, client, "reports", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "denied")
	})
}
