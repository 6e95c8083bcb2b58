package contract

import (
	"context"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateStatusFromUploaded performs the guarded terminal transition: the row
	// is only touched while its status is still "uploaded", which makes
	// MarkProcessed/MarkError idempotent under duplicate delivery. Returns the
	// number of rows changed (0 when the record was already terminal).
	UpdateStatusFromUploaded(ctx context.Context, id uuid.UUID, status string, indexRef *string, errorMessage *string) (int64, error)
}
