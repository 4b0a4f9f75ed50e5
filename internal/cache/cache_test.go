package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/artifact"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

type staticSource struct {
	cl redis.UniversalClient
}

func (s *staticSource) Get() redis.UniversalClient { return s.cl }

func setupCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	store, err := artifact.NewFS(t.TempDir())
	require.NoError(t, err)

	return mr, NewCache("modelhub:conversions", &staticSource{cl: rc}, store, zap.NewNop())
}

func TestKey_DeterministicOverContentAndTarget(t *testing.T) {
	a := Key([]byte("mesh-bytes"), entities.FormatGLB)
	b := Key([]byte("mesh-bytes"), entities.FormatGLB)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Key([]byte("mesh-bytes"), entities.FormatOBJ))
	assert.NotEqual(t, a, Key([]byte("other-bytes"), entities.FormatGLB))
}

func TestStoreAndLookup(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	key := Key([]byte("source"), entities.FormatGLB)
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 3600))

	data, ok := c.Lookup(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("converted"), data)
}

func TestLookup_MissForUnknownKey(t *testing.T) {
	_, c := setupCache(t)

	_, ok := c.Lookup(context.Background(), Key([]byte("never stored"), entities.FormatFBX))
	assert.False(t, ok)
}

func TestLookup_EntryExpires(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	key := Key([]byte("source"), entities.FormatVRM)
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 60))

	_, ok := c.Lookup(ctx, key)
	require.True(t, ok)

	mr.FastForward(61 * time.Second)

	_, ok = c.Lookup(ctx, key)
	assert.False(t, ok, "stale entries are skipped, not served")
}

func TestLookup_DegradesToMissWhenIndexUnreachable(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	key := Key([]byte("source"), entities.FormatOBJ)
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 3600))

	mr.Close()

	_, ok := c.Lookup(ctx, key)
	assert.False(t, ok)
}

func TestStore_IndexFailureOrphansArtifactSilently(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	mr.Close()

	key := Key([]byte("source"), entities.FormatBVH)
	// Artifact write succeeds; the index write is logged and dropped.
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 3600))
}

func TestLookup_MissWhenArtifactGone(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	key := Key([]byte("source"), entities.FormatGLTF)
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 3600))

	// Simulate an operator wiping the artifact dir but not the index.
	raw, err := mr.Get("modelhub:conversions:" + key)
	require.NoError(t, err)
	require.NoError(t, mr.Set("modelhub:conversions:"+key, raw))

	fresh, err := artifact.NewFS(t.TempDir())
	require.NoError(t, err)
	c.store = fresh

	_, ok := c.Lookup(ctx, key)
	assert.False(t, ok)
}

func TestLookup_SurvivesClientReplacement(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	key := Key([]byte("source"), entities.FormatGLB)
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 3600))

	// The reconnect loop swaps the shared client and closes the old
	// one; lookups through the new client must keep hitting.
	source := c.clients.(*staticSource)
	old := source.cl
	source.cl = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = source.cl.Close() })
	require.NoError(t, old.Close())

	data, ok := c.Lookup(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("converted"), data)
}

func TestStore_OverwriteSameKeyIsIdempotent(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	key := Key([]byte("source"), entities.FormatGLB)
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 3600))
	require.NoError(t, c.Store(ctx, key, []byte("converted"), 3600))

	data, ok := c.Lookup(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("converted"), data)
}
