package throttle

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Well-known buckets. Commands may declare their own bucket name; callback
// queries are always rated against BucketCallback.
const (
	BucketDefault  = "default"
	BucketCallback = "callback"
)

// Guard rate-limits users with one TTL cache per bucket. A user gets one
// allowed event per bucket per TTL window; everything else in the window is
// denied. Eviction is capacity-bounded LRU on top of the TTL.
type Guard struct {
	buckets map[string]*ttlcache.Cache[int64, struct{}]
}

// NewGuard creates a guard with a cache for each named bucket. Unknown bucket
// names passed to Allow later are treated as BucketDefault.
func NewGuard(ttl time.Duration, capacity uint64, buckets ...string) *Guard {
	g := &Guard{buckets: make(map[string]*ttlcache.Cache[int64, struct{}], len(buckets))}
	for _, name := range buckets {
		c := ttlcache.New[int64, struct{}](
			ttlcache.WithTTL[int64, struct{}](ttl),
			ttlcache.WithCapacity[int64, struct{}](capacity),
			ttlcache.WithDisableTouchOnHit[int64, struct{}](),
		)
		go c.Start()
		g.buckets[name] = c
	}
	return g
}

// Allow reports whether the user may proceed in the given bucket and, if so,
// opens their throttle window. The check-and-mark is a single cache operation
// so concurrent updates from the same user race safely.
func (g *Guard) Allow(bucket string, userID int64) bool {
	c, ok := g.buckets[bucket]
	if !ok {
		c = g.buckets[BucketDefault]
		if c == nil {
			return true
		}
	}
	_, existed := c.GetOrSet(userID, struct{}{})
	return !existed
}

// Stop halts the background expiration loops.
func (g *Guard) Stop() {
	for _, c := range g.buckets {
		c.Stop()
	}
}
