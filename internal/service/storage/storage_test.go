package storage

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorages(t *testing.T) {
	stores := map[string]Storage[string, int]{
		"memory":  NewMemoryStorage[string, int](),
		"sharded": NewShardedMemoryStorage[string, int](5, nil),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			s.Set("a", 1)
			s.Set("b", 2)
			s.Set("a", 3)

			v, ok := s.Get("a")
			require.True(t, ok)
			assert.Equal(t, 3, v)
			assert.Equal(t, 2, s.Count())

			keys := s.Keys()
			sort.Strings(keys)
			assert.Equal(t, []string{"a", "b"}, keys)

			_, ok = s.Get("c")
			assert.False(t, ok)
		})
	}
}

func TestShardedConcurrentWrites(t *testing.T) {
	s := NewShardedMemoryStorage[string, int](8, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Set(fmt.Sprintf("%d-%d", w, i), i)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 800, s.Count())
}
