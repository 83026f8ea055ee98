package storage

// Storage defines the interface of the per-run result stores
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Keys() []K
	Count() int
}
