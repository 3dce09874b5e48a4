package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vulnscan-adk/pkg/feed"
)

func openMemory(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestUpsertAndLookup(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()
	score := 9.8
	severity := "CRITICAL"
	published := time.Date(2024, 3, 1, 10, 15, 7, 0, time.UTC)

	n, err := c.Upsert(ctx, []feed.Record{
		{ID: "CVE-1", Description: "sql injection", CVSSScore: &score, Severity: &severity, Published: &published},
		{ID: "CVE-2", Description: "xss"},
		{ID: feed.NotAvailable, Description: "dropped"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rec, ok, err := c.Lookup(ctx, "CVE-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sql injection", rec.Description)
	require.NotNil(t, rec.CVSSScore)
	assert.InDelta(t, 9.8, *rec.CVSSScore, 1e-9)
	assert.Equal(t, "CRITICAL", *rec.Severity)
	require.NotNil(t, rec.Published)
	assert.True(t, published.Equal(*rec.Published))

	rec, ok, err = c.Lookup(ctx, "CVE-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, rec.CVSSScore)
	assert.Nil(t, rec.Severity)
	assert.Nil(t, rec.Published)
}

func TestLookupMissing(t *testing.T) {
	c := openMemory(t)
	_, ok, err := c.Lookup(context.Background(), "CVE-404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertReplaces(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()
	_, err := c.Upsert(ctx, []feed.Record{{ID: "CVE-1", Description: "old"}})
	require.NoError(t, err)
	_, err = c.Upsert(ctx, []feed.Record{{ID: "CVE-1", Description: "new"}})
	require.NoError(t, err)

	rec, _, err := c.Lookup(ctx, "CVE-1")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Description)
	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpenFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	_, err = c.Upsert(context.Background(), []feed.Record{{ID: "CVE-1", Description: "d"}})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	count, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
