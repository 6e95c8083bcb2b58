package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"docuchat-be/pkg/toolcache"
)

type fakeIndexer struct {
	resolvable map[string]bool
	queries    int
	queryErr   error
}

func (f *fakeIndexer) CreateOrGetStore(ctx context.Context, name string) (string, error) {
	return "ref-" + name, nil
}

func (f *fakeIndexer) Upload(ctx context.Context, indexRef string, data []byte, displayName string) error {
	return nil
}

func (f *fakeIndexer) Resolve(ctx context.Context, indexRef string) (bool, error) {
	return f.resolvable[indexRef], nil
}

func (f *fakeIndexer) Query(ctx context.Context, indexRefs []string, text string) (string, error) {
	f.queries++
	if f.queryErr != nil {
		return "", f.queryErr
	}
	return "result for " + text, nil
}

func (f *fakeIndexer) DeleteStore(ctx context.Context, indexRef string) error {
	return nil
}

type fakeStores struct {
	refs []string
	err  error
}

func (f *fakeStores) ListProcessedStores(ctx context.Context, chatSessionId uuid.UUID) ([]string, error) {
	return f.refs, f.err
}

func TestLawSearchToolCachesResults(t *testing.T) {
	indexer := &fakeIndexer{resolvable: map[string]bool{"law-store": true}}
	cache := toolcache.New(time.Hour, 30*time.Minute)
	tool := NewLawSearchTool(indexer, cache, "law-store")

	ctx := context.Background()
	first := tool.Run(ctx, "lease law")
	second := tool.Run(ctx, "  LEASE LAW ")

	assert.Equal(t, "result for lease law", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, indexer.queries, "the second call must come from the cache")
}

func TestLawSearchToolWithoutStore(t *testing.T) {
	cache := toolcache.New(time.Hour, 30*time.Minute)
	tool := NewLawSearchTool(&fakeIndexer{}, cache, "")

	assert.Equal(t, "The law corpus store is not configured.", tool.Run(context.Background(), "q"))
}

func TestLawSearchToolUnresolvableStore(t *testing.T) {
	cache := toolcache.New(time.Hour, 30*time.Minute)
	tool := NewLawSearchTool(&fakeIndexer{resolvable: map[string]bool{}}, cache, "gone")

	assert.Equal(t, "The law corpus store is currently unavailable.", tool.Run(context.Background(), "q"))
}

func TestUploadedSearchToolEmptySession(t *testing.T) {
	cache := toolcache.New(time.Hour, 30*time.Minute)
	tool := NewUploadedSearchTool(&fakeIndexer{}, cache, &fakeStores{}, uuid.New())

	assert.Equal(t, "No files have been uploaded in this session yet.", tool.Run(context.Background(), "q"))
}

func TestUploadedSearchToolDropsStaleRefs(t *testing.T) {
	indexer := &fakeIndexer{resolvable: map[string]bool{"live": true}}
	cache := toolcache.New(time.Hour, 30*time.Minute)
	stores := &fakeStores{refs: []string{"stale", "live"}}
	tool := NewUploadedSearchTool(indexer, cache, stores, uuid.New())

	out := tool.Run(context.Background(), "invoice total")
	assert.Equal(t, "result for invoice total", out)
}

func TestUploadedSearchToolAllRefsStale(t *testing.T) {
	indexer := &fakeIndexer{resolvable: map[string]bool{}}
	cache := toolcache.New(time.Hour, 30*time.Minute)
	stores := &fakeStores{refs: []string{"stale-1", "stale-2"}}
	tool := NewUploadedSearchTool(indexer, cache, stores, uuid.New())

	out := tool.Run(context.Background(), "q")
	assert.Equal(t, "The files in this session are no longer available (they may have been deleted or expired).", out)
}

func TestUploadedSearchToolListError(t *testing.T) {
	cache := toolcache.New(time.Hour, 30*time.Minute)
	tool := NewUploadedSearchTool(&fakeIndexer{}, cache, &fakeStores{err: errors.New("db down")}, uuid.New())

	assert.Contains(t, tool.Run(context.Background(), "q"), "Could not list session files")
}
