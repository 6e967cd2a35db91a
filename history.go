package html

import (
	"github.com/dgraph-io/ristretto"
	"github.com/zeebo/xxh3"
)

// EncodingHistory remembers which encoding a document at a given URL
// resolved to, so that a later visit can start from the same guess
// instead of the default. Entries are admitted and evicted by frequency,
// which keeps the hot set of revisited pages resident.
type EncodingHistory struct {
	cache *ristretto.Cache
}

// NewEncodingHistory returns a history that holds about capacity entries.
func NewEncodingHistory(capacity int64) (*EncodingHistory, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &EncodingHistory{cache: cache}, nil
}

// Lookup returns the encoding recorded for url, if one is present.
func (h *EncodingHistory) Lookup(url string) (Encoding, bool) {
	if h == nil || url == "" {
		return 0, false
	}
	v, ok := h.cache.Get(xxh3.HashString(url))
	if !ok {
		return 0, false
	}
	enc, ok := v.(Encoding)
	return enc, ok
}

// Remember records the encoding a document at url resolved to.
func (h *EncodingHistory) Remember(url string, enc Encoding) {
	if h == nil || url == "" {
		return
	}
	h.cache.Set(xxh3.HashString(url), enc, 1)
	h.cache.Wait()
}

// Close releases the cache's resources.
func (h *EncodingHistory) Close() {
	if h != nil {
		h.cache.Close()
	}
}
