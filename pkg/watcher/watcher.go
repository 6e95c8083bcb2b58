package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/pkg/feed"
)

// StatusTopic carries DocumentStatusMessage payloads for every terminal
// transition the watcher makes.
const StatusTopic = "document.status"

// Registry is the slice of the document registry the watcher needs.
type Registry interface {
	FindPending(ctx context.Context) ([]*entity.Document, error)
	FindById(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, indexRef string) (bool, error)
	MarkError(ctx context.Context, id uuid.UUID, reason string) (bool, error)
}

// BlobReader fetches the raw bytes a document was registered with.
type BlobReader interface {
	Get(ref string) ([]byte, error)
}

// Indexer is the slice of the indexing service the watcher needs.
type Indexer interface {
	CreateOrGetStore(ctx context.Context, name string) (string, error)
	Upload(ctx context.Context, indexRef string, data []byte, displayName string) error
}

// DocumentStatusMessage is published on StatusTopic after each transition.
type DocumentStatusMessage struct {
	DocumentId    uuid.UUID `json:"document_id"`
	UserId        uuid.UUID `json:"user_id"`
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Filename      string    `json:"filename"`
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// IngestionWatcher moves uploaded documents to processed or error. It prefers
// the change feed and falls back to polling permanently when the broker
// topology cannot serve one.
type IngestionWatcher struct {
	registry     Registry
	blob         BlobReader
	indexer      Indexer
	changeFeed   feed.Feed
	publisher    message.Publisher
	log          logger.ILogger
	pollInterval time.Duration
	retryDelay   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestionWatcher(
	registry Registry,
	blob BlobReader,
	indexer Indexer,
	changeFeed feed.Feed,
	publisher message.Publisher,
	log logger.ILogger,
	pollInterval time.Duration,
	retryDelay time.Duration,
) *IngestionWatcher {
	return &IngestionWatcher{
		registry:     registry,
		blob:         blob,
		indexer:      indexer,
		changeFeed:   changeFeed,
		publisher:    publisher,
		log:          log,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
	}
}

// Start runs the watcher until ctx is cancelled or Stop is called.
func (w *IngestionWatcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Stop cancels the watcher and waits for in-flight processing to finish.
func (w *IngestionWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *IngestionWatcher) run(ctx context.Context) {
	// Drain whatever was uploaded while we were down before choosing a mode.
	w.drainPending(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		ch, err := w.watchFeed(ctx)
		if err != nil {
			if errors.Is(err, feed.ErrUnsupportedTopology) {
				w.log.Warn("watcher", "change feed unsupported, falling back to polling", map[string]interface{}{
					"poll_interval": w.pollInterval.String(),
				})
			} else {
				// Any other subscription failure also degrades to polling
				// after a short delay. The watcher never terminates on its
				// own.
				w.log.Error("watcher", "change feed subscription failed, falling back to polling", map[string]interface{}{
					"error": err.Error(),
					"delay": w.retryDelay.String(),
				})
				select {
				case <-time.After(w.retryDelay):
				case <-ctx.Done():
					return
				}
			}
			w.pollLoop(ctx)
			return
		}

		w.log.Info("watcher", "change feed active", nil)
		w.consumeFeed(ctx, ch)
		// The channel closed, likely a disconnect. Catch up on anything
		// missed, then resubscribe.
		w.drainPending(ctx)
	}
}

func (w *IngestionWatcher) watchFeed(ctx context.Context) (<-chan feed.Event, error) {
	if w.changeFeed == nil {
		return nil, feed.ErrUnsupportedTopology
	}
	return w.changeFeed.Watch(ctx)
}

func (w *IngestionWatcher) consumeFeed(ctx context.Context, ch <-chan feed.Event) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.OperationType != "insert" && event.OperationType != "update" {
				continue
			}
			w.handleDocument(ctx, event.DocumentId)
		case <-ctx.Done():
			return
		}
	}
}

func (w *IngestionWatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.drainPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *IngestionWatcher) drainPending(ctx context.Context) {
	pending, err := w.registry.FindPending(ctx)
	if err != nil {
		w.log.Error("watcher", "failed to list pending documents", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, doc := range pending {
		if ctx.Err() != nil {
			return
		}
		w.processOne(ctx, doc)
	}
}

func (w *IngestionWatcher) handleDocument(ctx context.Context, id uuid.UUID) {
	doc, err := w.registry.FindById(ctx, id)
	if err != nil {
		w.log.Error("watcher", "failed to load document from event", map[string]interface{}{
			"document_id": id.String(),
			"error":       err.Error(),
		})
		return
	}
	if doc == nil {
		return
	}
	w.processOne(ctx, doc)
}

func (w *IngestionWatcher) processOne(ctx context.Context, doc *entity.Document) {
	// Terminal documents are never touched again, events about them are noise.
	if doc.Status != constant.DocumentStatusUploaded {
		return
	}

	data, err := w.blob.Get(doc.BlobRef)
	if err != nil {
		w.fail(ctx, doc, fmt.Sprintf("read blob: %v", err))
		return
	}

	storeName := buildStoreName(doc.ChatSessionId, doc.Id)
	indexRef, err := w.indexer.CreateOrGetStore(ctx, storeName)
	if err != nil {
		w.fail(ctx, doc, fmt.Sprintf("create store: %v", err))
		return
	}

	if err := w.indexer.Upload(ctx, indexRef, data, doc.Filename); err != nil {
		w.fail(ctx, doc, fmt.Sprintf("upload to index: %v", err))
		return
	}

	transitioned, err := w.registry.MarkProcessed(ctx, doc.Id, indexRef)
	if err != nil {
		w.log.Error("watcher", "failed to mark document processed", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
		return
	}
	if !transitioned {
		// Another worker already finished this document.
		return
	}

	w.log.Info("watcher", "document processed", map[string]interface{}{
		"document_id": doc.Id.String(),
		"store":       storeName,
	})
	w.publishStatus(doc, constant.DocumentStatusProcessed, "")
}

func (w *IngestionWatcher) fail(ctx context.Context, doc *entity.Document, reason string) {
	transitioned, err := w.registry.MarkError(ctx, doc.Id, reason)
	if err != nil {
		w.log.Error("watcher", "failed to mark document errored", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
		return
	}
	if !transitioned {
		return
	}

	w.log.Warn("watcher", "document failed processing", map[string]interface{}{
		"document_id": doc.Id.String(),
		"reason":      reason,
	})
	w.publishStatus(doc, constant.DocumentStatusError, reason)
}

func (w *IngestionWatcher) publishStatus(doc *entity.Document, status string, errorMessage string) {
	if w.publisher == nil {
		return
	}

	payload, err := json.Marshal(DocumentStatusMessage{
		DocumentId:    doc.Id,
		UserId:        doc.UserId,
		ChatSessionId: doc.ChatSessionId,
		Filename:      doc.Filename,
		Status:        status,
		ErrorMessage:  errorMessage,
	})
	if err != nil {
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := w.publisher.Publish(StatusTopic, msg); err != nil {
		w.log.Error("watcher", "failed to publish status message", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}
}

// buildStoreName yields session-<sid8>-file-<did8>-<rand8>, unique per upload
// attempt so retried documents never collide with a half-written store.
func buildStoreName(chatSessionId uuid.UUID, documentId uuid.UUID) string {
	random := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf(
		"session-%s-file-%s-%s",
		shortId(chatSessionId),
		shortId(documentId),
		random,
	)
}

func shortId(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
