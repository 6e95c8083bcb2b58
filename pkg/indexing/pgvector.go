package indexing

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docuchat-be/internal/model"
	"docuchat-be/pkg/embedding"
	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/utils"
)

const (
	pgvectorChunkSize    = 1200
	pgvectorChunkOverlap = 200
	pgvectorTopK         = 6
)

// PgvectorService implements Service with local embeddings stored in
// Postgres. Index refs are plain store names.
type PgvectorService struct {
	db        *gorm.DB
	embedder  embedding.EmbeddingProvider
	generator llm.LLMProvider
}

var _ Service = &PgvectorService{}

func NewPgvectorService(db *gorm.DB, embedder embedding.EmbeddingProvider, generator llm.LLMProvider) *PgvectorService {
	return &PgvectorService{
		db:        db,
		embedder:  embedder,
		generator: generator,
	}
}

// CreateOrGetStore is a no-op locally, stores exist once a chunk is written.
func (s *PgvectorService) CreateOrGetStore(ctx context.Context, name string) (string, error) {
	return name, nil
}

func (s *PgvectorService) Upload(ctx context.Context, indexRef string, data []byte, displayName string) error {
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("document %s has no extractable text", displayName)
	}

	chunks := utils.SplitText(text, pgvectorChunkSize, pgvectorChunkOverlap)

	embeddings := make([]*model.DocumentEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := s.embedder.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}
		embeddings = append(embeddings, &model.DocumentEmbedding{
			StoreName:      indexRef,
			DisplayName:    displayName,
			ChunkIndex:     i,
			Chunk:          chunk,
			EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
		})
	}

	return s.db.WithContext(ctx).Create(&embeddings).Error
}

func (s *PgvectorService) Resolve(ctx context.Context, indexRef string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.DocumentEmbedding{}).
		Where("store_name = ?", indexRef).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PgvectorService) Query(ctx context.Context, indexRefs []string, query string) (string, error) {
	res, err := s.embedder.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	queryVector := pgvector.NewVector(res.Embedding.Values)

	var rows []*model.DocumentEmbedding
	err = s.db.WithContext(ctx).
		Where("store_name IN ?", indexRefs).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                "embedding_value <=> ?",
				Vars:               []interface{}{queryVector},
				WithoutParentheses: true,
			},
		}).
		Limit(pgvectorTopK).
		Find(&rows).Error
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No relevant passages were found in the indexed documents.", nil
	}

	var contextBuilder strings.Builder
	for _, row := range rows {
		contextBuilder.WriteString(fmt.Sprintf("[%s]\n%s\n\n", row.DisplayName, row.Chunk))
	}

	prompt := fmt.Sprintf(
		"Answer the question using only the passages below. If the passages do not contain the answer, say so.\n\nPassages:\n%s\nQuestion: %s",
		contextBuilder.String(),
		query,
	)
	return s.generator.Generate(ctx, prompt, llm.WithTemperature(0.2))
}

func (s *PgvectorService) DeleteStore(ctx context.Context, indexRef string) error {
	return s.db.WithContext(ctx).
		Where("store_name = ?", indexRef).
		Delete(&model.DocumentEmbedding{}).Error
}
