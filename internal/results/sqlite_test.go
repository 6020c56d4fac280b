package results

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	return store
}

func sampleRecord(id string, created time.Time) *Record {
	return &Record{
		ID:           id,
		SampleID:     "proband-" + id,
		GenomeBuild:  "hg38",
		Status:       StatusCompleted,
		Fingerprint:  Fingerprint("proband-"+id, "HP:0001250"),
		Diseases:     3,
		TopDiseaseID: "OMIM:100100",
		TopPosttest:  0.82,
		Payload:      json.RawMessage(`{"results":[{"disease_id":"OMIM:100100"}]}`),
		CreatedAt:    created,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "runs.db")

	// Act
	store, err := NewSQLiteStore(dbPath)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	record := sampleRecord("run-1", time.Time{})

	// Act
	err := store.Save(ctx, record)
	require.NoError(t, err)
	retrieved, err := store.Get(ctx, "run-1")

	// Assert
	require.NoError(t, err)
	assert.False(t, record.CreatedAt.IsZero(), "CreatedAt should be set")
	assert.False(t, record.UpdatedAt.IsZero(), "UpdatedAt should be set")
	assert.Equal(t, record.SampleID, retrieved.SampleID)
	assert.Equal(t, StatusCompleted, retrieved.Status)
	assert.Equal(t, record.Fingerprint, retrieved.Fingerprint)
	assert.Equal(t, 3, retrieved.Diseases)
	assert.InDelta(t, 0.82, retrieved.TopPosttest, 1e-12)
	assert.JSONEq(t, string(record.Payload), string(retrieved.Payload))
}

func TestSQLiteStore_Save_RequiresID(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	// Act
	err := store.Save(context.Background(), &Record{SampleID: "x"})

	// Assert
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSQLiteStore_Save_Update(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	record := sampleRecord("run-1", time.Time{})
	require.NoError(t, store.Save(ctx, record))

	record.Status = StatusFailed
	record.Error = "background variant rates unavailable"
	record.Payload = nil

	// Act
	err := store.Save(ctx, record)

	// Assert
	require.NoError(t, err)
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "Should update, not create new")

	retrieved, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, retrieved.Status)
	assert.Equal(t, "background variant rates unavailable", retrieved.Error)
	assert.Nil(t, retrieved.Payload)
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	// Act
	retrieved, err := store.Get(context.Background(), "missing")

	// Assert
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.Nil(t, retrieved)
}

func TestSQLiteStore_List_Pagination(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 17, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c", "run-d", "run-e"} {
		require.NoError(t, store.Save(ctx, sampleRecord(id, base.Add(time.Duration(i)*time.Minute))))
	}

	// Act
	page1, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	page2, err := store.List(ctx, 2, 2)
	require.NoError(t, err)
	page3, err := store.List(ctx, 2, 4)
	require.NoError(t, err)

	// Assert
	require.Len(t, page1, 2)
	assert.Equal(t, "run-e", page1[0].ID, "newest run first")
	assert.Equal(t, "run-d", page1[1].ID)
	assert.Len(t, page2, 2)
	require.Len(t, page3, 1)
	assert.Equal(t, "run-a", page3[0].ID)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleRecord("run-1", time.Time{})))

	// Act
	err := store.Delete(ctx, "run-1")

	// Assert
	require.NoError(t, err)
	_, err = store.Get(ctx, "run-1")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestSQLiteStore_ExportImportJSON(t *testing.T) {
	source := createTestStore(t)
	defer source.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 17, 10, 0, 0, 0, time.UTC)
	require.NoError(t, source.Save(ctx, sampleRecord("run-1", base)))
	require.NoError(t, source.Save(ctx, sampleRecord("run-2", base.Add(time.Minute))))

	var buf bytes.Buffer
	require.NoError(t, source.ExportJSON(ctx, &buf))
	assert.Contains(t, buf.String(), `"version": "1.0"`)
	assert.Contains(t, buf.String(), `"count": 2`)

	target := createTestStore(t)
	defer target.Close()
	require.NoError(t, target.Save(ctx, sampleRecord("run-1", base)))

	// Act
	imported, skipped, err := target.ImportJSON(ctx, &buf)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped, "existing run ids are skipped")

	count, err := target.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	run2, err := target.Get(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, "proband-run-2", run2.SampleID)
}

func TestSQLiteStore_ImportJSON_InvalidJSON(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	// Act
	_, _, err := store.ImportJSON(context.Background(), bytes.NewReader([]byte("{not json")))

	// Assert
	assert.Error(t, err)
}
