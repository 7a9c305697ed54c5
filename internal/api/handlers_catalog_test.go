package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varbridge/backend/internal/catalog"
	"github.com/varbridge/backend/internal/models"
)

type fakeSnapshotReader struct {
	snapshot *catalog.Snapshot
	query    string
}

func (f *fakeSnapshotReader) Snapshots(ctx context.Context, fileKey string) ([]catalog.Snapshot, error) {
	if f.snapshot == nil {
		return []catalog.Snapshot{}, nil
	}
	return []catalog.Snapshot{{ID: f.snapshot.ID, FileKey: fileKey, VariableCount: f.snapshot.VariableCount}}, nil
}

func (f *fakeSnapshotReader) Search(ctx context.Context, fileKey, query string) (*catalog.Snapshot, error) {
	f.query = query
	if f.snapshot == nil {
		return nil, fmt.Errorf("%w for file %s", catalog.ErrNoSnapshot, fileKey)
	}
	return f.snapshot, nil
}

func TestCatalogHandler_HandleLatestSnapshot(t *testing.T) {
	reader := &fakeSnapshotReader{snapshot: &catalog.Snapshot{
		ID:            "snap-1",
		FileKey:       "abc",
		FetchedAt:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		VariableCount: 1,
		Variables:     []models.VariableView{sampleViews[0]},
	}}
	h := NewCatalogHandler(reader)
	c, rec := newContext(http.MethodGet, "/api/catalog/abc?q=brand", map[string]string{"fileKey": "abc"})

	require.NoError(t, h.HandleLatestSnapshot(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "brand", reader.query)
	assert.Contains(t, rec.Body.String(), `"id":"snap-1"`)
	assert.Contains(t, rec.Body.String(), `"name":"color/primary"`)
}

func TestCatalogHandler_Errors(t *testing.T) {
	t.Run("no snapshot", func(t *testing.T) {
		h := NewCatalogHandler(&fakeSnapshotReader{})
		c, _ := newContext(http.MethodGet, "/api/catalog/abc", map[string]string{"fileKey": "abc"})

		err := h.HandleLatestSnapshot(c)
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})

	t.Run("disabled", func(t *testing.T) {
		h := NewCatalogHandler(nil)
		c, _ := newContext(http.MethodGet, "/api/catalog/abc", map[string]string{"fileKey": "abc"})

		err := h.HandleListSnapshots(c)
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	})
}

func TestCatalogHandler_HandleListSnapshots(t *testing.T) {
	h := NewCatalogHandler(&fakeSnapshotReader{snapshot: &catalog.Snapshot{ID: "snap-1", VariableCount: 3}})
	c, rec := newContext(http.MethodGet, "/api/catalog/abc/snapshots", map[string]string{"fileKey": "abc"})

	require.NoError(t, h.HandleListSnapshots(c))
	assert.Contains(t, rec.Body.String(), `"variableCount":3`)
}
