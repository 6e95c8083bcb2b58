package toolcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyNormalizesQuery(t *testing.T) {
	base := Key(ScopeLaw, "main", "lease termination")

	assert.Equal(t, base, Key(ScopeLaw, "main", "  Lease Termination  "))
	assert.Equal(t, base, Key(ScopeLaw, "main", "LEASE TERMINATION"))
	assert.NotEqual(t, base, Key(ScopeLaw, "main", "lease renewal"))
	assert.NotEqual(t, base, Key(ScopeFile, "main", "lease termination"))
	assert.NotEqual(t, base, Key(ScopeLaw, "other", "lease termination"))
}

func TestKeyShape(t *testing.T) {
	key := Key(ScopeFile, "session-1", "query")
	// scope:id:md5hex
	assert.Regexp(t, `^file:session-1:[0-9a-f]{32}$`, key)
}

func TestGetSetRoundTrip(t *testing.T) {
	c := New(time.Hour, 30*time.Minute)

	key := Key(ScopeLaw, "main", "tax law")
	_, found := c.Get(key)
	assert.False(t, found)

	c.Set(ScopeLaw, key, "cached result")
	got, found := c.Get(key)
	assert.True(t, found)
	assert.Equal(t, "cached result", got)
}

func TestSessionEntriesExpireFaster(t *testing.T) {
	c := New(time.Hour, 20*time.Millisecond)

	globalKey := Key(ScopeGlobal, "main", "q")
	fileKey := Key(ScopeFile, "s1", "q")
	c.Set(ScopeGlobal, globalKey, "global")
	c.Set(ScopeFile, fileKey, "file")

	time.Sleep(50 * time.Millisecond)

	_, found := c.Get(globalKey)
	assert.True(t, found, "global entries should still be alive")
	_, found = c.Get(fileKey)
	assert.False(t, found, "session scoped entries should have expired")
}

func TestInvalidateScope(t *testing.T) {
	c := New(time.Hour, 30*time.Minute)

	keep := Key(ScopeFile, "session-a", "q1")
	drop1 := Key(ScopeFile, "session-b", "q1")
	drop2 := Key(ScopeFile, "session-b", "q2")
	c.Set(ScopeFile, keep, "a")
	c.Set(ScopeFile, drop1, "b1")
	c.Set(ScopeFile, drop2, "b2")

	c.InvalidateScope(ScopeFile, "session-b")

	_, found := c.Get(keep)
	assert.True(t, found)
	_, found = c.Get(drop1)
	assert.False(t, found)
	_, found = c.Get(drop2)
	assert.False(t, found)
}

func TestZeroTTLsFallBackToDefaults(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, time.Hour, c.globalTTL)
	assert.Equal(t, 30*time.Minute, c.sessionTTL)
}
