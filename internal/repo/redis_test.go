package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/repo"
	"github.com/KarenSyu/travel/testutil"
)

func TestRedisSnapshotRepo_RoundTrip(t *testing.T) {
	client, prefix := testutil.NewRedis(t)
	r := repo.NewRedisSnapshotRepo(client)
	ctx := context.Background()

	_, err := r.Get(ctx, prefix+"trip")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, r.Put(ctx, prefix+"trip", snapshotFixture()))
	got, err := r.Get(ctx, prefix+"trip")

	require.NoError(t, err)
	assert.Equal(t, snapshotFixture(), got)

	ttl, err := client.TTL(ctx, prefix+"trip").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "snapshot must not expire")
}

func TestRedisSnapshotRepo_CorruptBody(t *testing.T) {
	client, prefix := testutil.NewRedis(t)
	r := repo.NewRedisSnapshotRepo(client)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, prefix+"bad", "not json", 0).Err())

	_, err := r.Get(ctx, prefix+"bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
