package toolcache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Scope decides how long a tool result stays valid. Global corpora change
// rarely, per-session document sets change whenever the user uploads.
const (
	ScopeLaw     = "law"
	ScopeGlobal  = "global"
	ScopeFile    = "file"
	ScopeSession = "session"
)

// ToolResultCache memoizes tool outputs keyed by scope, scope id and a
// normalized query hash.
type ToolResultCache struct {
	cache      *cache.Cache
	globalTTL  time.Duration
	sessionTTL time.Duration
}

func New(globalTTL time.Duration, sessionTTL time.Duration) *ToolResultCache {
	if globalTTL <= 0 {
		globalTTL = 1 * time.Hour
	}
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	// Purge interval follows the shortest TTL so stale session entries do not
	// linger in memory.
	c := cache.New(sessionTTL, 10*time.Minute)
	return &ToolResultCache{
		cache:      c,
		globalTTL:  globalTTL,
		sessionTTL: sessionTTL,
	}
}

// Key builds the cache key "scope:id:md5(normalized query)".
func Key(scope string, id string, query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("%s:%s:%s", scope, id, hex.EncodeToString(sum[:]))
}

func (c *ToolResultCache) Get(key string) (string, bool) {
	if x, found := c.cache.Get(key); found {
		return x.(string), true
	}
	return "", false
}

func (c *ToolResultCache) Set(scope string, key string, value string) {
	c.cache.Set(key, value, c.ttlFor(scope))
}

// InvalidateScope drops every entry belonging to the given scope and id.
// Used when a session's document set changes.
func (c *ToolResultCache) InvalidateScope(scope string, id string) {
	prefix := fmt.Sprintf("%s:%s:", scope, id)
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

func (c *ToolResultCache) ttlFor(scope string) time.Duration {
	switch scope {
	case ScopeLaw, ScopeGlobal:
		return c.globalTTL
	default:
		return c.sessionTTL
	}
}
