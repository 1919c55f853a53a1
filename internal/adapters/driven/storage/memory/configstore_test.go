package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Empty(t, store.Keys())
}

func TestNewConfigStoreFrom_CopiesValues(t *testing.T) {
	seed := map[string]any{"project_id": "proj"}
	store := NewConfigStoreFrom(seed)

	seed["project_id"] = "changed"

	assert.Equal(t, "proj", store.GetString("project_id"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("topics.db_query", "TOPIC_DB_QUERY"))
	require.NoError(t, store.Set("topics.db_query", "TOPIC_OTHER"))

	val, ok := store.Get("topics.db_query")
	assert.True(t, ok)
	assert.Equal(t, "TOPIC_OTHER", val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Delete(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("launcher.user", "trellis")

	store.Delete("launcher.user")

	_, ok := store.Get("launcher.user")
	assert.False(t, ok)
}

func TestConfigStore_Keys_Sorted(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, store.Keys())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{
		"str":       "value",
		"int":       42,
		"int64":     int64(7),
		"float":     3.9,
		"bool":      true,
		"strings":   []string{"a", "b"},
		"anys":      []any{"x", 1, "y"},
		"wrongType": struct{}{},
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("str"), "value"},
		{"string wrong type", store.GetString("int"), ""},
		{"string missing", store.GetString("missing"), ""},
		{"int", store.GetInt("int"), 42},
		{"int from int64", store.GetInt("int64"), 7},
		{"int from float truncates", store.GetInt("float"), 3},
		{"int wrong type", store.GetInt("str"), 0},
		{"bool", store.GetBool("bool"), true},
		{"bool wrong type", store.GetBool("str"), false},
		{"bool missing", store.GetBool("missing"), false},
		{"string slice", store.GetStringSlice("strings"), []string{"a", "b"}},
		{"any slice keeps strings", store.GetStringSlice("anys"), []string{"x", "y"}},
		{"slice wrong type", store.GetStringSlice("wrongType"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("key", "value")

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
	assert.Equal(t, "value", store.GetString("key"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("counter")
			_ = store.Keys()
		}()
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
