package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/blob"
	"docuchat-be/pkg/events"
	"docuchat-be/pkg/indexing"
	"docuchat-be/pkg/toolcache"
)

// EventPublisher pushes registry change events onto the broker so the
// ingestion watcher can react without polling. Best effort, the polling
// fallback covers lost events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, chatSessionId uuid.UUID, filename string, data []byte) (*dto.UploadDocumentResponse, error)
	GetSessionDocuments(ctx context.Context, userId uuid.UUID, chatSessionId uuid.UUID) ([]*dto.DocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error

	// Registry surface used by the ingestion watcher.
	FindPending(ctx context.Context) ([]*entity.Document, error)
	FindById(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, indexRef string) (bool, error)
	MarkError(ctx context.Context, id uuid.UUID, reason string) (bool, error)

	// ListProcessedStores lists index refs of processed documents in one
	// session, used by the uploaded-file search tool.
	ListProcessedStores(ctx context.Context, chatSessionId uuid.UUID) ([]string, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	blobStore  blob.Store
	indexer    indexing.Service
	publisher  EventPublisher
	cache      *toolcache.ToolResultCache
	log        logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	blobStore blob.Store,
	indexer indexing.Service,
	publisher EventPublisher,
	cache *toolcache.ToolResultCache,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		blobStore:  blobStore,
		indexer:    indexer,
		publisher:  publisher,
		cache:      cache,
		log:        log,
	}
}

// Upload registers one uploaded file. Re-uploading identical content into the
// same session returns the existing record unchanged. Identical content in a
// different session shares the stored blob but gets its own record.
func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, chatSessionId uuid.UUID, filename string, data []byte) (*dto.UploadDocumentResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("uploaded file %s is empty", filename)
	}

	hash := sha256.Sum256(data)
	contentHash := hex.EncodeToString(hash[:])

	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.DocumentRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userId},
		specification.BySession{SessionID: chatSessionId},
		specification.ByContentHash{Hash: contentHash},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &dto.UploadDocumentResponse{
			Id:        existing.Id,
			Filename:  existing.Filename,
			Status:    existing.Status,
			Duplicate: true,
		}, nil
	}

	// Same owner, same bytes, different session: reuse the blob.
	blobRef := ""
	sibling, err := uow.DocumentRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByContentHash{Hash: contentHash},
	)
	if err != nil {
		return nil, err
	}
	if sibling != nil {
		blobRef = sibling.BlobRef
	} else {
		blobRef, err = s.blobStore.Put(data)
		if err != nil {
			return nil, fmt.Errorf("store blob: %w", err)
		}
	}

	doc := &entity.Document{
		Id:            uuid.New(),
		UserId:        userId,
		ChatSessionId: chatSessionId,
		Filename:      filename,
		ContentHash:   contentHash,
		BlobRef:       blobRef,
		Status:        constant.DocumentStatusUploaded,
		CreatedAt:     time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewDocumentInsertedEvent(doc.Id, doc.ChatSessionId))

	// The session's document set changed, cached file-search results for it
	// are no longer trustworthy.
	s.cache.InvalidateScope(toolcache.ScopeFile, chatSessionId.String())

	return &dto.UploadDocumentResponse{
		Id:       doc.Id,
		Filename: doc.Filename,
		Status:   doc.Status,
	}, nil
}

func (s *documentService) GetSessionDocuments(ctx context.Context, userId uuid.UUID, chatSessionId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.BySession{SessionID: chatSessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, &dto.DocumentResponse{
			Id:           doc.Id,
			Filename:     doc.Filename,
			Status:       doc.Status,
			IndexRef:     doc.IndexRef,
			ErrorMessage: doc.ErrorMessage,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return res, nil
}

// Delete removes the record, its index store and, when no other record still
// references it, the stored blob.
func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document %s not found", documentId)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if doc.IndexRef != nil && *doc.IndexRef != "" {
		if err := s.indexer.DeleteStore(ctx, *doc.IndexRef); err != nil {
			s.log.Warn("document", "failed to delete index store", map[string]interface{}{
				"document_id": doc.Id.String(),
				"index_ref":   *doc.IndexRef,
				"error":       err.Error(),
			})
		}
	}

	remaining, err := uow.DocumentRepository().Count(ctx, specification.ByBlobRef{BlobRef: doc.BlobRef})
	if err == nil && remaining == 0 {
		if err := s.blobStore.Delete(doc.BlobRef); err != nil {
			s.log.Warn("document", "failed to delete blob", map[string]interface{}{
				"blob_ref": doc.BlobRef,
				"error":    err.Error(),
			})
		}
	}

	s.cache.InvalidateScope(toolcache.ScopeFile, doc.ChatSessionId.String())
	return nil
}

func (s *documentService) FindPending(ctx context.Context) ([]*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().FindAll(ctx,
		specification.ByStatus{Status: constant.DocumentStatusUploaded},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

func (s *documentService) FindById(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
}

func (s *documentService) MarkProcessed(ctx context.Context, id uuid.UUID, indexRef string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	affected, err := uow.DocumentRepository().UpdateStatusFromUploaded(ctx, id, constant.DocumentStatusProcessed, &indexRef, nil)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	s.publishEvent(ctx, events.NewDocumentUpdatedEvent(id, constant.DocumentStatusProcessed))
	return true, nil
}

func (s *documentService) MarkError(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	affected, err := uow.DocumentRepository().UpdateStatusFromUploaded(ctx, id, constant.DocumentStatusError, nil, &reason)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	s.publishEvent(ctx, events.NewDocumentUpdatedEvent(id, constant.DocumentStatusError))
	return true, nil
}

func (s *documentService) ListProcessedStores(ctx context.Context, chatSessionId uuid.UUID) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.BySession{SessionID: chatSessionId},
		specification.ByStatus{Status: constant.DocumentStatusProcessed},
	)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.IndexRef != nil && *doc.IndexRef != "" {
			refs = append(refs, *doc.IndexRef)
		}
	}
	return refs, nil
}

func (s *documentService) publishEvent(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("document", "failed to publish registry event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
