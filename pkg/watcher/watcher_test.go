package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/entity"
	"docuchat-be/pkg/feed"
)

type fakeRegistry struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*entity.Document

	markProcessedResult bool
	findPendingErr      error
}

func newFakeRegistry(docs ...*entity.Document) *fakeRegistry {
	r := &fakeRegistry{docs: map[uuid.UUID]*entity.Document{}, markProcessedResult: true}
	for _, d := range docs {
		r.docs[d.Id] = d
	}
	return r
}

func (r *fakeRegistry) FindPending(ctx context.Context) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findPendingErr != nil {
		return nil, r.findPendingErr
	}
	var pending []*entity.Document
	for _, d := range r.docs {
		if d.Status == constant.DocumentStatusUploaded {
			copied := *d
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func (r *fakeRegistry) FindById(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (r *fakeRegistry) MarkProcessed(ctx context.Context, id uuid.UUID, indexRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.markProcessedResult {
		return false, nil
	}
	d := r.docs[id]
	d.Status = constant.DocumentStatusProcessed
	d.IndexRef = &indexRef
	return true, nil
}

func (r *fakeRegistry) MarkError(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.docs[id]
	if d.Status != constant.DocumentStatusUploaded {
		return false, nil
	}
	d.Status = constant.DocumentStatusError
	d.ErrorMessage = &reason
	return true, nil
}

func (r *fakeRegistry) status(id uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id].Status
}

type fakeBlob struct {
	data map[string][]byte
}

func (b *fakeBlob) Get(ref string) ([]byte, error) {
	if d, ok := b.data[ref]; ok {
		return d, nil
	}
	return nil, errors.New("blob not found")
}

type fakeIndexer struct {
	mu       sync.Mutex
	uploads  []string
	storeErr error
}

func (i *fakeIndexer) CreateOrGetStore(ctx context.Context, name string) (string, error) {
	if i.storeErr != nil {
		return "", i.storeErr
	}
	return "ref-" + name, nil
}

func (i *fakeIndexer) Upload(ctx context.Context, indexRef string, data []byte, displayName string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.uploads = append(i.uploads, displayName)
	return nil
}

type fakeFeed struct {
	events   chan feed.Event
	watchErr error
}

func (f *fakeFeed) Watch(ctx context.Context) (<-chan feed.Event, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return f.events, nil
}

func (f *fakeFeed) Close() {}

type capturePublisher struct {
	mu       sync.Mutex
	messages []*message.Message
}

func (p *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msgs...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) statuses() []DocumentStatusMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []DocumentStatusMessage
	for _, m := range p.messages {
		var sm DocumentStatusMessage
		if err := json.Unmarshal(m.Payload, &sm); err == nil {
			out = append(out, sm)
		}
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func uploadedDoc() *entity.Document {
	return &entity.Document{
		Id:            uuid.New(),
		UserId:        uuid.New(),
		ChatSessionId: uuid.New(),
		Filename:      "contract.pdf",
		BlobRef:       "blob-1",
		Status:        constant.DocumentStatusUploaded,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestPollingFallbackOnUnsupportedTopology(t *testing.T) {
	doc := uploadedDoc()
	registry := newFakeRegistry(doc)
	blob := &fakeBlob{data: map[string][]byte{"blob-1": []byte("content")}}
	indexer := &fakeIndexer{}
	broken := &fakeFeed{watchErr: feed.ErrUnsupportedTopology}
	pub := &capturePublisher{}

	w := NewIngestionWatcher(registry, blob, indexer, broken, pub, nopLogger{}, 10*time.Millisecond, 10*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return registry.status(doc.Id) == constant.DocumentStatusProcessed })

	statuses := pub.statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, doc.Id, statuses[0].DocumentId)
	assert.Equal(t, constant.DocumentStatusProcessed, statuses[0].Status)
	assert.Empty(t, statuses[0].ErrorMessage)
}

func TestPollingFallbackOnOtherFeedError(t *testing.T) {
	doc := uploadedDoc()
	// The initial drain processes the first doc, a later upload proves the
	// poll loop is alive after an unknown subscription failure.
	registry := newFakeRegistry()
	blob := &fakeBlob{data: map[string][]byte{"blob-1": []byte("content")}}
	indexer := &fakeIndexer{}
	broken := &fakeFeed{watchErr: errors.New("connection refused")}
	pub := &capturePublisher{}

	w := NewIngestionWatcher(registry, blob, indexer, broken, pub, nopLogger{}, 10*time.Millisecond, 10*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	registry.mu.Lock()
	registry.docs[doc.Id] = doc
	registry.mu.Unlock()

	waitFor(t, func() bool { return registry.status(doc.Id) == constant.DocumentStatusProcessed })
}

func TestFeedEventsDriveProcessing(t *testing.T) {
	doc := uploadedDoc()
	registry := newFakeRegistry()
	blob := &fakeBlob{data: map[string][]byte{"blob-1": []byte("content")}}
	indexer := &fakeIndexer{}
	events := make(chan feed.Event, 1)
	pub := &capturePublisher{}

	// Long poll interval so only the feed can deliver in time.
	w := NewIngestionWatcher(registry, blob, indexer, &fakeFeed{events: events}, pub, nopLogger{}, time.Hour, time.Hour)
	w.Start(context.Background())
	defer w.Stop()

	registry.mu.Lock()
	registry.docs[doc.Id] = doc
	registry.mu.Unlock()

	events <- feed.Event{OperationType: "insert", DocumentId: doc.Id}

	waitFor(t, func() bool { return registry.status(doc.Id) == constant.DocumentStatusProcessed })
	assert.Equal(t, []string{"contract.pdf"}, indexer.uploads)
}

func TestTerminalDocumentsAreNotTouched(t *testing.T) {
	doc := uploadedDoc()
	doc.Status = constant.DocumentStatusProcessed
	registry := newFakeRegistry(doc)
	blob := &fakeBlob{data: map[string][]byte{"blob-1": []byte("content")}}
	indexer := &fakeIndexer{}
	events := make(chan feed.Event, 1)
	pub := &capturePublisher{}

	w := NewIngestionWatcher(registry, blob, indexer, &fakeFeed{events: events}, pub, nopLogger{}, time.Hour, time.Hour)
	w.Start(context.Background())
	defer w.Stop()

	events <- feed.Event{OperationType: "update", DocumentId: doc.Id}

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, indexer.uploads)
	assert.Empty(t, pub.statuses())
}

func TestLostTransitionRaceDoesNotPublish(t *testing.T) {
	doc := uploadedDoc()
	registry := newFakeRegistry(doc)
	registry.markProcessedResult = false
	blob := &fakeBlob{data: map[string][]byte{"blob-1": []byte("content")}}
	indexer := &fakeIndexer{}
	pub := &capturePublisher{}

	w := NewIngestionWatcher(registry, blob, indexer, &fakeFeed{watchErr: feed.ErrUnsupportedTopology}, pub, nopLogger{}, 10*time.Millisecond, 10*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool {
		indexer.mu.Lock()
		defer indexer.mu.Unlock()
		return len(indexer.uploads) > 0
	})

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, pub.statuses(), "a lost transition race must not announce a status")
}

func TestProcessingFailureMarksError(t *testing.T) {
	doc := uploadedDoc()
	doc.BlobRef = "missing"
	registry := newFakeRegistry(doc)
	blob := &fakeBlob{data: map[string][]byte{}}
	indexer := &fakeIndexer{}
	pub := &capturePublisher{}

	w := NewIngestionWatcher(registry, blob, indexer, &fakeFeed{watchErr: feed.ErrUnsupportedTopology}, pub, nopLogger{}, 10*time.Millisecond, 10*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return registry.status(doc.Id) == constant.DocumentStatusError })

	statuses := pub.statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, constant.DocumentStatusError, statuses[0].Status)
	assert.Contains(t, statuses[0].ErrorMessage, "read blob")
}

func TestBuildStoreNameShape(t *testing.T) {
	sid := uuid.New()
	did := uuid.New()

	name := buildStoreName(sid, did)
	assert.Regexp(t, `^session-[0-9a-f]{8}-file-[0-9a-f]{8}-[0-9a-f]{8}$`, name)

	// Unique per attempt.
	assert.NotEqual(t, name, buildStoreName(sid, did))
}
