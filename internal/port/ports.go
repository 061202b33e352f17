// Package port defines the interfaces between the business logic and its
// collaborators (stores, caches). Implementations live under internal/infra.
package port

// Cache is a generic TTL cache for read paths.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
