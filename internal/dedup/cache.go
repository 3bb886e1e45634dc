// Package dedup suppresses reprocessing of messages the observer has
// already seen. Framework re-renders touch unchanged DOM subtrees, so the
// same message surfaces over and over; presence in this cache means the
// pipeline skips it.
package dedup

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// bucketSize is the timestamp granularity folded into the dedup key. Two
// identical texts in the same conversation within one bucket collide; the
// second is suppressed. Accepted trade-off: a suppression false positive
// costs a missed notification, never a wrong checkout.
const bucketSize = time.Minute

// DefaultCapacity bounds the cache when the caller passes no capacity.
const DefaultCapacity = 500

// Key is a collision-tolerant identity for one sighted message. It is used
// only to suppress duplicate work, so a fast non-cryptographic hash is
// enough.
type Key uint64

// KeyFor derives the dedup key from conversation id, normalized body and
// timestamp bucket.
func KeyFor(conversationID, body string, ts time.Time) Key {
	d := xxhash.New()
	_, _ = d.WriteString(conversationID)
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(normalize(body))
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(strconv.FormatInt(ts.Unix()/int64(bucketSize/time.Second), 10))
	return Key(d.Sum64())
}

func normalize(body string) string {
	return strings.ToLower(strings.Join(strings.Fields(body), " "))
}

// Cache is a bounded LRU of seen message keys, private to one observation
// session. The pipeline is single-threaded per session; the underlying LRU
// is nevertheless safe under the event-callback model.
type Cache struct {
	seen *lru.Cache[Key, struct{}]
}

func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[Key, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{seen: c}, nil
}

// Seen reports whether the key is present without promoting it. Duplicate
// sightings under rapid re-render would otherwise thrash recency order.
func (c *Cache) Seen(key Key) bool {
	return c.seen.Contains(key)
}

// Remember inserts the key, evicting the least-recently-used entry when
// the cache is full.
func (c *Cache) Remember(key Key) {
	c.seen.Add(key, struct{}{})
}

// Len returns the number of tracked keys.
func (c *Cache) Len() int {
	return c.seen.Len()
}

// Reset drops all tracked keys. Called on session teardown.
func (c *Cache) Reset() {
	c.seen.Purge()
}
