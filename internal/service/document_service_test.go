package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/contract"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/events"
	"docuchat-be/pkg/toolcache"
)

// memDocumentRepo is an in-memory DocumentRepository that interprets the
// specification values directly instead of building SQL.
type memDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*entity.Document
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{docs: map[uuid.UUID]*entity.Document{}}
}

func (r *memDocumentRepo) matches(doc *entity.Document, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if doc.Id != s.ID {
				return false
			}
		case specification.OwnedBy:
			if doc.UserId != s.UserID {
				return false
			}
		case specification.BySession:
			if doc.ChatSessionId != s.SessionID {
				return false
			}
		case specification.ByContentHash:
			if doc.ContentHash != s.Hash {
				return false
			}
		case specification.ByStatus:
			if doc.Status != s.Status {
				return false
			}
		case specification.ByBlobRef:
			if doc.BlobRef != s.BlobRef {
				return false
			}
		}
	}
	return true
}

func (r *memDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.Id] = &copied
	return nil
}

func (r *memDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *memDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if r.matches(doc, specs) {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Document
	for _, doc := range r.docs {
		if r.matches(doc, specs) {
			copied := *doc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	docs, _ := r.FindAll(ctx, specs...)
	return int64(len(docs)), nil
}

func (r *memDocumentRepo) UpdateStatusFromUploaded(ctx context.Context, id uuid.UUID, status string, indexRef *string, errorMessage *string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.Status != constant.DocumentStatusUploaded {
		return 0, nil
	}
	doc.Status = status
	doc.IndexRef = indexRef
	doc.ErrorMessage = errorMessage
	return 1, nil
}

type fakeUow struct {
	docs *memDocumentRepo
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository               { return nil }
func (u *fakeUow) DocumentRepository() contract.DocumentRepository      { return u.docs }
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return nil }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return nil }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type memBlobStore struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func (b *memBlobStore) Put(data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts++
	ref := uuid.NewString()
	b.data[ref] = data
	return ref, nil
}

func (b *memBlobStore) Get(ref string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data[ref], nil
}

func (b *memBlobStore) Delete(ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, ref)
	return nil
}

type captureEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureEvents) Publish(ctx context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEvents) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		out = append(out, e.EventType())
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type stubIndexer struct{}

func (stubIndexer) CreateOrGetStore(ctx context.Context, name string) (string, error) {
	return "ref", nil
}
func (stubIndexer) Upload(ctx context.Context, indexRef string, data []byte, displayName string) error {
	return nil
}
func (stubIndexer) Resolve(ctx context.Context, indexRef string) (bool, error) { return true, nil }
func (stubIndexer) Query(ctx context.Context, indexRefs []string, text string) (string, error) {
	return "", nil
}
func (stubIndexer) DeleteStore(ctx context.Context, indexRef string) error { return nil }

func newTestDocumentService() (IDocumentService, *memDocumentRepo, *memBlobStore, *captureEvents) {
	repo := newMemDocumentRepo()
	blobs := &memBlobStore{data: map[string][]byte{}}
	pub := &captureEvents{}
	svc := NewDocumentService(
		&fakeUowFactory{uow: &fakeUow{docs: repo}},
		blobs,
		stubIndexer{},
		pub,
		toolcache.New(time.Hour, 30*time.Minute),
		nopLogger{},
	)
	return svc, repo, blobs, pub
}

func TestUploadRegistersDocument(t *testing.T) {
	svc, repo, blobs, pub := newTestDocumentService()
	userId, sessionId := uuid.New(), uuid.New()

	res, err := svc.Upload(context.Background(), userId, sessionId, "contract.pdf", []byte("pdf bytes"))
	require.NoError(t, err)

	assert.False(t, res.Duplicate)
	assert.Equal(t, constant.DocumentStatusUploaded, res.Status)
	assert.Len(t, repo.docs, 1)
	assert.Equal(t, 1, blobs.puts)
	assert.Equal(t, []string{"insert"}, pub.types())
}

func TestUploadWithoutEventPublisherStillSucceeds(t *testing.T) {
	repo := newMemDocumentRepo()
	blobs := &memBlobStore{data: map[string][]byte{}}
	svc := NewDocumentService(
		&fakeUowFactory{uow: &fakeUow{docs: repo}},
		blobs,
		stubIndexer{},
		nil,
		toolcache.New(time.Hour, 30*time.Minute),
		nopLogger{},
	)

	res, err := svc.Upload(context.Background(), uuid.New(), uuid.New(), "contract.pdf", []byte("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, constant.DocumentStatusUploaded, res.Status)
	assert.Len(t, repo.docs, 1)
}

func TestUploadSameContentSameSessionIsIdempotent(t *testing.T) {
	svc, repo, blobs, _ := newTestDocumentService()
	userId, sessionId := uuid.New(), uuid.New()

	first, err := svc.Upload(context.Background(), userId, sessionId, "a.pdf", []byte("same"))
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), userId, sessionId, "renamed.pdf", []byte("same"))
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.Filename, second.Filename, "the existing record is returned unchanged")
	assert.Len(t, repo.docs, 1)
	assert.Equal(t, 1, blobs.puts)
}

func TestUploadSameContentOtherSessionReusesBlob(t *testing.T) {
	svc, repo, blobs, _ := newTestDocumentService()
	userId := uuid.New()

	first, err := svc.Upload(context.Background(), userId, uuid.New(), "a.pdf", []byte("same"))
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), userId, uuid.New(), "a.pdf", []byte("same"))
	require.NoError(t, err)

	assert.False(t, second.Duplicate)
	assert.NotEqual(t, first.Id, second.Id)
	assert.Len(t, repo.docs, 2)
	assert.Equal(t, 1, blobs.puts, "identical bytes must share one blob")

	refs := map[string]bool{}
	for _, doc := range repo.docs {
		refs[doc.BlobRef] = true
	}
	assert.Len(t, refs, 1)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc, _, _, _ := newTestDocumentService()

	_, err := svc.Upload(context.Background(), uuid.New(), uuid.New(), "empty.pdf", nil)
	assert.Error(t, err)
}

func TestMarkProcessedIsGuarded(t *testing.T) {
	svc, repo, _, pub := newTestDocumentService()
	userId, sessionId := uuid.New(), uuid.New()

	res, err := svc.Upload(context.Background(), userId, sessionId, "a.pdf", []byte("x"))
	require.NoError(t, err)

	transitioned, err := svc.MarkProcessed(context.Background(), res.Id, "store-ref")
	require.NoError(t, err)
	assert.True(t, transitioned)

	// Duplicate delivery: the row is already terminal, nothing moves.
	transitioned, err = svc.MarkProcessed(context.Background(), res.Id, "other-ref")
	require.NoError(t, err)
	assert.False(t, transitioned)

	transitioned, err = svc.MarkError(context.Background(), res.Id, "late failure")
	require.NoError(t, err)
	assert.False(t, transitioned)

	doc := repo.docs[res.Id]
	assert.Equal(t, constant.DocumentStatusProcessed, doc.Status)
	require.NotNil(t, doc.IndexRef)
	assert.Equal(t, "store-ref", *doc.IndexRef)

	// One insert event from the upload, one update from the first transition.
	assert.Equal(t, []string{"insert", "update"}, pub.types())
}

func TestListProcessedStoresSkipsUnprocessed(t *testing.T) {
	svc, repo, _, _ := newTestDocumentService()
	userId, sessionId := uuid.New(), uuid.New()

	processed, err := svc.Upload(context.Background(), userId, sessionId, "done.pdf", []byte("1"))
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), userId, sessionId, "pending.pdf", []byte("2"))
	require.NoError(t, err)

	_, err = svc.MarkProcessed(context.Background(), processed.Id, "store-a")
	require.NoError(t, err)

	refs, err := svc.ListProcessedStores(context.Background(), sessionId)
	require.NoError(t, err)
	assert.Equal(t, []string{"store-a"}, refs)
	assert.Len(t, repo.docs, 2)
}

func TestDeleteRemovesOrphanedBlob(t *testing.T) {
	svc, repo, blobs, _ := newTestDocumentService()
	userId, sessionId := uuid.New(), uuid.New()

	res, err := svc.Upload(context.Background(), userId, sessionId, "a.pdf", []byte("bytes"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), userId, res.Id))
	assert.Empty(t, repo.docs)
	assert.Empty(t, blobs.data)
}

func TestDeleteKeepsSharedBlob(t *testing.T) {
	svc, repo, blobs, _ := newTestDocumentService()
	userId := uuid.New()

	first, err := svc.Upload(context.Background(), userId, uuid.New(), "a.pdf", []byte("shared"))
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), userId, uuid.New(), "a.pdf", []byte("shared"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), userId, first.Id))
	assert.Len(t, repo.docs, 1)
	assert.Len(t, blobs.data, 1, "a blob still referenced by another record must survive")
}

func TestDeleteRejectsForeignDocument(t *testing.T) {
	svc, _, _, _ := newTestDocumentService()
	owner := uuid.New()

	res, err := svc.Upload(context.Background(), owner, uuid.New(), "a.pdf", []byte("x"))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), res.Id)
	assert.Error(t, err)
}
