// Package storetest holds the behavioural checks every store.KV backend
// must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/agriprice/internal/store"
)

// Run exercises kv. The store must start empty.
func Run(t *testing.T, kv store.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, "absent")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "k1", []byte(`{"a":1}`)))
		got, err := kv.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "k2", []byte("old")))
		require.NoError(t, kv.Set(ctx, "k2", []byte("new")))
		got, err := kv.Get(ctx, "k2")
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "k3", []byte("abc")))
		got, err := kv.Get(ctx, "k3")
		require.NoError(t, err)
		got[0] = 'z'
		again, err := kv.Get(ctx, "k3")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "d1", []byte("1")))
		require.NoError(t, kv.Set(ctx, "d2", []byte("2")))
		require.NoError(t, kv.Delete(ctx, "d1", "d2", "never-set"))
		_, err := kv.Get(ctx, "d1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = kv.Get(ctx, "d2")
		assert.ErrorIs(t, err, store.ErrNotFound)
		require.NoError(t, kv.Delete(ctx))
	})

	t.Run("concurrent writers never tear", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				payload := []byte(fmt.Sprintf("value-%02d-%s", i, "xxxxxxxxxxxxxxxx"))
				assert.NoError(t, kv.Set(ctx, "race", payload))
			}(i)
		}
		wg.Wait()
		got, err := kv.Get(ctx, "race")
		require.NoError(t, err)
		assert.Regexp(t, `^value-0[0-7]-x{16}$`, string(got))
	})
}
