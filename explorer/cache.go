package explorer

import (
	"fmt"
	"log/slog"

	"explorer.pub/explorer/result"
	"explorer.pub/explorer/wire"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/sha3"
)

// resultCache remembers decoded results by the request that produced them.
// Results are copied in and out, callers never share one.
// A nil *resultCache is valid and never hits.
type resultCache struct {
	entries *lru.Cache[string, *result.CompilationResult]
}

func newResultCache(size int) (*resultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[string, *result.CompilationResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &resultCache{entries: entries}, nil
}

// cacheKey hashes everything that identifies an encoded request.
func cacheKey(format wire.Format, w *wire.Wire) string {
	h := sha3.New256()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", format, w.Method, w.Path)
	h.Write(w.Body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// lookup returns the key identifying w and a copy of the result cached under it.
// A nil cache neither hashes the request nor hits.
func (c *resultCache) lookup(format wire.Format, w *wire.Wire) (string, *result.CompilationResult, bool) {
	if c == nil {
		return "", nil, false
	}
	key := cacheKey(format, w)
	res, ok := c.entries.Get(key)
	if !ok {
		return key, nil, false
	}
	slog.Debug("result cache hit", "key", key)
	return key, res.Clone(), true
}

// add stores a copy of res, later changes to res by the caller are not seen by the cache.
func (c *resultCache) add(key string, res *result.CompilationResult) {
	if c == nil {
		return
	}
	c.entries.Add(key, res.Clone())
}
