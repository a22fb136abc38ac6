package session

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/pkg/config"
	"github.com/wonny/dipscan/pkg/redis"
)

func sampleAnalysis() *analytics.Analysis {
	return &analytics.Analysis{
		Dataset: contracts.NewDataset([]contracts.PricePoint{
			{Company: "Boeing", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 200},
			{Company: "Boeing", Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Price: 180, ReturnPct: contracts.Float(-10)},
		}),
		Files:    []contracts.FileReport{{File: "boeing.csv", Company: "Boeing", Format: "delimited", RowsRead: 2, RowsKept: 2}},
		Warnings: []contracts.FileWarning{{File: "x.csv", Reason: contracts.ReasonMissingColumns, Message: "missing required columns: [Price]"}},
	}
}

func TestNew_DisabledRedisUsesMemory(t *testing.T) {
	_, ok := New(redis.Disabled(), time.Hour).(*MemoryStore)
	assert.True(t, ok)

	_, ok = New(nil, time.Hour).(*MemoryStore)
	assert.True(t, ok)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess, err := store.Create(ctx, sampleAnalysis())
	require.NoError(t, err)
	assert.True(t, validID(sess.ID))
	assert.Equal(t, sess.CreatedAt.Add(time.Hour), sess.ExpiresAt)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, sess.ID), ErrNotFound)
}

func TestMemoryStore_DistinctIDs(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	a, _ := store.Create(context.Background(), sampleAnalysis())
	b, _ := store.Create(context.Background(), sampleAnalysis())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	old, err := store.Create(ctx, sampleAnalysis())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	fresh, err := store.Create(ctx, sampleAnalysis())
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
}

func TestSession_JSONRoundTrip(t *testing.T) {
	sess := newSession(sampleAnalysis(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, sess.ID, decoded.ID)
	assert.True(t, sess.ExpiresAt.Equal(decoded.ExpiresAt))
	assert.Equal(t, sess.Analysis.Dataset, decoded.Analysis.Dataset)
	assert.Equal(t, sess.Analysis.Warnings, decoded.Analysis.Warnings)
}

func TestRedisStore_InvalidID(t *testing.T) {
	store := NewRedisStore(redis.Disabled(), time.Hour)

	_, err := store.Get(context.Background(), "../../etc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "nope"), ErrNotFound)
}

func TestRedisStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}

	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Host: host, Port: "6379", Enabled: true}})
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, sampleAnalysis())
	require.NoError(t, err)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Analysis.Dataset, got.Analysis.Dataset)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
