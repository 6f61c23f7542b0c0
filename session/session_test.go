package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/eventagent/types"
)

func sampleSession(t *testing.T, store *Store) *Session {
	t.Helper()
	sess, err := store.Create(context.Background())
	require.NoError(t, err)
	sess.Params[types.KeyEventType] = types.String("wedding")
	sess.Params[types.KeyStylePreferences] = types.Set("rustic", "elegant")
	sess.Params[types.KeyGuestCount] = types.Int(120)
	sess.History = AppendTurns(sess.History, types.Turn{Role: types.RoleUser, Content: "a rustic wedding", Timestamp: time.Unix(100, 0).UTC()})
	require.NoError(t, store.Save(context.Background(), sess))
	return sess
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	sess := sampleSession(t, store)

	got, err := store.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, sess.Params.Equal(got.Params))
	assert.Equal(t, types.PhaseCollecting, got.Phase)
	require.Len(t, got.History, 1)

	// loaded copies are detached from the stored value
	got.Params[types.KeyGuestCount] = types.Int(5)
	again, err := store.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, again.Params[types.KeyGuestCount].Equal(types.Int(120)))
}

func TestStoreNotFound(t *testing.T) {
	store := NewMemoryStore(0)
	_, err := store.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.Delete(context.Background(), "missing"), ErrNotFound))

	sess := sampleSession(t, store)
	require.NoError(t, store.Delete(context.Background(), sess.ID))
	_, err = store.Load(context.Background(), sess.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Unix(0, 0)
	cache := NewMemoryCache[string](time.Minute)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(context.Background(), "k", "v"))
	v, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = cache.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Sweep())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStore(NewRedisCache[*Session](client, time.Hour))
	sess := sampleSession(t, store)

	assert.True(t, mr.Exists(defaultNamespace+":"+sess.ID))
	got, err := store.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, sess.Params.Equal(got.Params), "got %v", got.Params)
	assert.Equal(t, sess.History, got.History)

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(context.Background(), sess.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewStore(NewRedisCache[*Session](client, time.Hour))

	mr.SetError("LOADING")
	_, err := store.Load(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestKeepLastNTrimmer(t *testing.T) {
	var history []types.Turn
	for _, c := range []string{"a", "b", "c", "d"} {
		history = AppendTurns(history, types.Turn{Role: types.RoleUser, Content: c})
	}
	assert.Len(t, KeepLastNTrimmer{N: 0}.Trim(history), 4)
	trimmed := KeepLastNTrimmer{N: 2}.Trim(history)
	require.Len(t, trimmed, 2)
	assert.Equal(t, "c", trimmed[0].Content)
}

func TestAppendTurns(t *testing.T) {
	ts := time.Unix(1, 0)
	turn := types.Turn{Role: types.RoleUser, Content: "yes", Timestamp: ts}
	history := AppendTurns(nil, turn, turn, types.Turn{Role: types.RoleAssistant})
	assert.Len(t, history, 1)

	history = AppendTurns(history, types.Turn{Role: types.RoleUser, Content: "yes", Timestamp: ts.Add(time.Second)})
	assert.Len(t, history, 2)
}

func TestLockerSerializes(t *testing.T) {
	l := NewLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s1")
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.locks)
}
