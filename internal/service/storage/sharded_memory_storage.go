package storage

import (
	"fmt"
	"hash/fnv"
	"sync"
)

// ShardedMemoryStorage spreads keys over independently locked shards so that
// many writers do not contend on a single mutex
type ShardedMemoryStorage[K comparable, V any] struct {
	shards     []*shard[K, V]
	shardMask  int
	keyToShard func(K) int
}

type shard[K comparable, V any] struct {
	data  map[K]V
	mutex sync.RWMutex
}

// NewShardedMemoryStorage creates a storage with shardCount rounded up to a
// power of two. keyToShard may be nil for string and integer keys.
func NewShardedMemoryStorage[K comparable, V any](shardCount int, keyToShard func(K) int) *ShardedMemoryStorage[K, V] {
	n := 1
	for n < shardCount {
		n *= 2
	}

	shards := make([]*shard[K, V], n)
	for i := range shards {
		shards[i] = &shard[K, V]{data: make(map[K]V)}
	}

	if keyToShard == nil {
		keyToShard = func(key K) int {
			switch k := any(key).(type) {
			case string:
				return int(hashString(k))
			case int:
				return k
			case int64:
				return int(k)
			default:
				return int(hashString(fmt.Sprintf("%v", key)))
			}
		}
	}

	return &ShardedMemoryStorage[K, V]{
		shards:     shards,
		shardMask:  n - 1,
		keyToShard: keyToShard,
	}
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func (s *ShardedMemoryStorage[K, V]) getShard(key K) *shard[K, V] {
	return s.shards[s.keyToShard(key)&s.shardMask]
}

// Set adds or replaces an object
func (s *ShardedMemoryStorage[K, V]) Set(key K, value V) {
	sh := s.getShard(key)

	sh.mutex.Lock()
	defer sh.mutex.Unlock()
	sh.data[key] = value
}

// Get returns an object by key
func (s *ShardedMemoryStorage[K, V]) Get(key K) (V, bool) {
	sh := s.getShard(key)

	sh.mutex.RLock()
	defer sh.mutex.RUnlock()
	value, exists := sh.data[key]
	return value, exists
}

// Keys returns all keys from all shards in no particular order
func (s *ShardedMemoryStorage[K, V]) Keys() []K {
	var keys []K
	for _, sh := range s.shards {
		sh.mutex.RLock()
		for k := range sh.data {
			keys = append(keys, k)
		}
		sh.mutex.RUnlock()
	}
	return keys
}

// Count returns the number of objects across all shards
func (s *ShardedMemoryStorage[K, V]) Count() int {
	total := 0
	for _, sh := range s.shards {
		sh.mutex.RLock()
		total += len(sh.data)
		sh.mutex.RUnlock()
	}
	return total
}
