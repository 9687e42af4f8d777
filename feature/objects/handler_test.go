package objects

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog-sync/core/catalog"
	"catalog-sync/core/database"
	"catalog-sync/core/storage"
	"catalog-sync/core/storage/mocks"
	"catalog-sync/feature/scan"
	"catalog-sync/feature/tags"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, archive *scan.Archive) (*fiber.App, *catalog.Store) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	ctx := context.Background()
	store := catalog.NewStore(db, "")
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, tags.Migrate(ctx, store))
	require.NoError(t, store.InsertBatch(ctx, catalog.TableDatabases, []string{catalog.ColName}, [][]any{{"SALES"}, {"HR"}}))
	require.NoError(t, store.InsertBatch(ctx, catalog.TableSchemas,
		[]string{catalog.ColName, catalog.ColDatabaseID}, [][]any{{"PUBLIC", int64(2)}}))

	tagSvc := tags.NewService(store, zap.NewNop())
	_, err = tagSvc.Create(ctx, "pii", []string{"email"})
	require.NoError(t, err)

	svc := NewService(store, tagSvc, archive, NewCache(time.Minute), zap.NewNop())
	app := fiber.New()
	require.NoError(t, NewFeature(svc).Load(app))
	return app, store
}

func get(t *testing.T, app *fiber.App, target string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func TestHandleListObjects(t *testing.T) {
	app, _ := newTestApp(t, nil)

	var body struct {
		Kind  string           `json:"kind"`
		Count int              `json:"count"`
		Rows  []map[string]any `json:"rows"`
	}
	require.Equal(t, fiber.StatusOK, get(t, app, "/objects/schema", &body))
	assert.Equal(t, "schema", body.Kind)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "HR", body.Rows[0][catalog.ColDatabaseName])

	var errBody map[string]string
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/objects/warehouse", &errBody))
	assert.Contains(t, errBody["error"], "warehouse")
}

func TestHandleListObjects_Cached(t *testing.T) {
	app, store := newTestApp(t, nil)

	var first, second struct {
		Count int `json:"count"`
	}
	require.Equal(t, fiber.StatusOK, get(t, app, "/objects/database", &first))
	require.NoError(t, store.InsertBatch(context.Background(), catalog.TableDatabases, []string{catalog.ColName}, [][]any{{"OPS"}}))
	require.Equal(t, fiber.StatusOK, get(t, app, "/objects/database", &second))

	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 2, second.Count, "served from cache until the TTL expires")
}

func TestHandleGetObject(t *testing.T) {
	app, _ := newTestApp(t, nil)

	var row map[string]any
	require.Equal(t, fiber.StatusOK, get(t, app, "/objects/database/2", &row))
	assert.Equal(t, "HR", row[catalog.ColName])

	assert.Equal(t, fiber.StatusNotFound, get(t, app, "/objects/database/99", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/objects/database/abc", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/objects/database/0", nil))
}

func TestHandleListTags(t *testing.T) {
	app, _ := newTestApp(t, nil)

	var found []tags.TagView
	require.Equal(t, fiber.StatusOK, get(t, app, "/tags?name=pi", &found))
	assert.Equal(t, []tags.TagView{{Name: "pii", AllowedValues: []string{"email"}}}, found)

	var none []tags.TagView
	require.Equal(t, fiber.StatusOK, get(t, app, "/tags?name=owner", &none))
	assert.Empty(t, none)

	var assigned []tags.AssignmentView
	require.Equal(t, fiber.StatusOK, get(t, app, "/tags/assignments?type=column", &assigned))
	assert.Empty(t, assigned)
}

func TestHandleReports(t *testing.T) {
	t.Run("archive disabled", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		assert.Equal(t, fiber.StatusNotFound, get(t, app, "/scans", nil))
		assert.Equal(t, fiber.StatusNotFound, get(t, app, "/scans/2024-05-01/x.json", nil))
	})

	t.Run("archive enabled", func(t *testing.T) {
		client := new(mocks.Client)
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Key: "scans/2024-05-01/x.json", Size: 42}
		close(ch)
		client.On("ListObjects", mock.Anything, "reports", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
		client.On("GetObject", mock.Anything, "reports", "scans/2024-05-01/x.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(`{"run_id":"x","target":"all","passes":[]}`)), nil)

		app, _ := newTestApp(t, scan.NewArchive(client, storage.Config{Bucket: "reports", Prefix: "scans"}))

		var list []scan.ReportInfo
		require.Equal(t, fiber.StatusOK, get(t, app, "/scans", &list))
		require.Len(t, list, 1)
		assert.Equal(t, int64(42), list[0].Size)

		var report scan.Report
		require.Equal(t, fiber.StatusOK, get(t, app, "/scans/scans/2024-05-01/x.json", &report))
		assert.Equal(t, "x", report.RunID)
	})
}
