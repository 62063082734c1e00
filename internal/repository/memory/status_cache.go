package memory

import (
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
)

const statusKey = "backend_status"

// StatusCache keeps the last successful backend /status probe for a short
// TTL so repeated generation flows do not hammer the backend.
type StatusCache struct {
	cache *cache.Cache
}

func NewStatusCache(ttl time.Duration) *StatusCache {
	return &StatusCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *StatusCache) Get() (json.RawMessage, bool) {
	if x, found := r.cache.Get(statusKey); found {
		return x.(json.RawMessage), true
	}
	return nil, false
}

func (r *StatusCache) Set(status json.RawMessage) {
	r.cache.Set(statusKey, status, cache.DefaultExpiration)
}
