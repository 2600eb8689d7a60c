package badger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/arthmitra/internal/common"
	"github.com/bobmcallan/arthmitra/internal/interfaces"
	"github.com/bobmcallan/arthmitra/internal/models"
)

// --- Test helpers ---

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	store, err := NewStore(testLogger(), filepath.Join(dir, "badger"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}

func chunk(id, source string, index int) models.Chunk {
	return models.Chunk{ID: id, Source: source, Index: index, Text: "text " + id}
}

// compile-time checks
var (
	_ interfaces.VectorStore     = (*ChunkStorage)(nil)
	_ interfaces.KeyValueStorage = (*KVStorage)(nil)
)

// --- Store tests ---

func TestStore_OpenClose(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	if store.DB() == nil {
		t.Fatal("expected non-nil DB")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{}
	if err := store.Close(); err != nil {
		t.Fatalf("Close on nil DB should not error: %v", err)
	}
}

// --- Chunk storage tests ---

func TestChunkStorage_UpsertSearch(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	t.Cleanup(func() { store.Close() })

	cs, err := NewChunkStorage(store, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	chunks := []models.Chunk{
		chunk("a", "documents/ppf.pdf", 0),
		chunk("b", "documents/nps.pdf", 0),
		chunk("c", "documents/tax.md", 0),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.8, 0.6, 0},
	}
	require.NoError(t, cs.Upsert(ctx, chunks, vectors))

	hits, err := cs.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "c", hits[1].Chunk.ID)
	assert.InDelta(t, 0.8, hits[1].Score, 1e-6)

	n, err := cs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestChunkStorage_SearchEdgeCases(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	t.Cleanup(func() { store.Close() })

	cs, err := NewChunkStorage(store, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	hits, err := cs.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits, "empty store")

	require.NoError(t, cs.Upsert(ctx, []models.Chunk{chunk("a", "x.txt", 0)}, [][]float32{{1, 0}}))

	hits, err = cs.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits, "k of zero")

	hits, err = cs.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.0, hits[0].Score, "dimension mismatch scores zero")
}

func TestChunkStorage_UpsertValidation(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	t.Cleanup(func() { store.Close() })

	cs, err := NewChunkStorage(store, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, cs.Upsert(ctx, []models.Chunk{chunk("a", "x.txt", 0)}, nil))
	assert.Error(t, cs.Upsert(ctx, []models.Chunk{chunk("", "x.txt", 0)}, [][]float32{{1}}))
}

func TestChunkStorage_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := newTestStore(t, dir)
	cs, err := NewChunkStorage(store, testLogger())
	require.NoError(t, err)

	page := 2
	c := chunk("p", "documents/scheme.pdf", 1)
	c.Page = &page
	require.NoError(t, cs.Upsert(ctx, []models.Chunk{c, chunk("q", "documents/notes.md", 0)}, [][]float32{{1, 1}, {0, 1}}))
	require.NoError(t, store.Close())

	reopened := newTestStore(t, dir)
	t.Cleanup(func() { reopened.Close() })
	cs2, err := NewChunkStorage(reopened, testLogger())
	require.NoError(t, err)

	n, err := cs2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sources, err := cs2.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.md", "scheme.pdf"}, sources)

	paths, err := cs2.Paths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"documents/notes.md", "documents/scheme.pdf"}, paths)

	hits, err := cs2.Search(ctx, []float32{1, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NotNil(t, hits[0].Chunk.Page)
	assert.Equal(t, 2, *hits[0].Chunk.Page)
}

func TestChunkStorage_Clear(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	t.Cleanup(func() { store.Close() })

	cs, err := NewChunkStorage(store, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	var chunks []models.Chunk
	var vectors [][]float32
	for i := 0; i < 5; i++ {
		chunks = append(chunks, chunk(fmt.Sprintf("c%d", i), "doc.txt", i))
		vectors = append(vectors, []float32{float32(i), 1})
	}
	require.NoError(t, cs.Upsert(ctx, chunks, vectors))
	require.NoError(t, cs.Clear(ctx))

	n, err := cs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	fresh, err := NewChunkStorage(store, testLogger())
	require.NoError(t, err)
	n, err = fresh.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "clear removes persisted chunks too")
}

// --- KV storage tests ---

func TestKVStorage_CRUD(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	t.Cleanup(func() { store.Close() })

	kv := NewKVStorage(store, testLogger())
	ctx := context.Background()

	_, err := kv.Get(ctx, "embedding_model")
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, kv.Set(ctx, "embedding_model", "text-embedding-004"))
	v, err := kv.Get(ctx, "embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-004", v)

	all, err := kv.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"embedding_model": "text-embedding-004"}, all)

	require.NoError(t, kv.Delete(ctx, "embedding_model"))
	require.NoError(t, kv.Delete(ctx, "embedding_model"), "deleting a missing key is not an error")
	_, err = kv.Get(ctx, "embedding_model")
	assert.Error(t, err)
}
