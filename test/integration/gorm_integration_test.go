package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/database"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.DocumentRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Guarded status transition", func(t *testing.T) {
		ctx := context.Background()

		doc := &entity.Document{
			Id:            uuid.New(),
			UserId:        uuid.New(),
			ChatSessionId: uuid.New(),
			Filename:      "integration-test.pdf",
			ContentHash:   uuid.NewString(),
			BlobRef:       "integration-blob",
			Status:        constant.DocumentStatusUploaded,
			CreatedAt:     time.Now(),
		}

		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		require.NoError(t, txUow.DocumentRepository().Create(ctx, doc))
		require.NoError(t, txUow.Commit())

		defer func() {
			cleanup := uowFactory.NewUnitOfWork(ctx)
			_ = cleanup.DocumentRepository().Delete(ctx, doc.Id)
		}()

		indexRef := "integration-store"
		affected, err := uow.DocumentRepository().UpdateStatusFromUploaded(
			ctx, doc.Id, constant.DocumentStatusProcessed, &indexRef, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)

		// A second delivery of the same transition touches nothing.
		reason := "late failure"
		affected, err = uow.DocumentRepository().UpdateStatusFromUploaded(
			ctx, doc.Id, constant.DocumentStatusError, nil, &reason)
		require.NoError(t, err)
		assert.EqualValues(t, 0, affected)

		stored, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: doc.Id})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, constant.DocumentStatusProcessed, stored.Status)
	})
}
