package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"docuchat-be/pkg/indexing"
	"docuchat-be/pkg/toolcache"
)

// Tool is one callable capability exposed to a ReAct responder. Run never
// returns an error, failures become observation text the model can react to.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, query string) string
}

// SessionStores lists the index refs of processed documents in a session.
type SessionStores interface {
	ListProcessedStores(ctx context.Context, chatSessionId uuid.UUID) ([]string, error)
}

// HistoryRecaller summarizes what the user asked earlier in a session.
type HistoryRecaller interface {
	RecallHistory(ctx context.Context, userId uuid.UUID, chatSessionId uuid.UUID) (string, error)
}

// NewLawSearchTool searches the shared law corpus. Results are cached with
// the long global TTL since the corpus changes rarely.
func NewLawSearchTool(indexer indexing.Service, cache *toolcache.ToolResultCache, lawStoreRef string) Tool {
	return Tool{
		Name:        "tool_search_law",
		Description: "Search statutes, regulations and policy documents in the shared law corpus. Input: {\"query\": \"...\"}",
		Run: func(ctx context.Context, query string) string {
			if lawStoreRef == "" {
				return "The law corpus store is not configured."
			}

			key := toolcache.Key(toolcache.ScopeLaw, "main", query)
			if cached, ok := cache.Get(key); ok {
				return cached
			}

			ok, err := indexer.Resolve(ctx, lawStoreRef)
			if err != nil || !ok {
				return "The law corpus store is currently unavailable."
			}

			result, err := indexer.Query(ctx, []string{lawStoreRef}, query)
			if err != nil {
				return fmt.Sprintf("Search failed: %v", err)
			}

			cache.Set(toolcache.ScopeLaw, key, result)
			return result
		},
	}
}

// NewUploadedSearchTool searches the documents processed in the current
// session. Stale index refs are dropped silently before querying.
func NewUploadedSearchTool(
	indexer indexing.Service,
	cache *toolcache.ToolResultCache,
	stores SessionStores,
	chatSessionId uuid.UUID,
) Tool {
	return Tool{
		Name:        "tool_search_uploaded_file",
		Description: "Search the files the user uploaded in this session. Input: {\"query\": \"...\"}",
		Run: func(ctx context.Context, query string) string {
			refs, err := stores.ListProcessedStores(ctx, chatSessionId)
			if err != nil {
				return fmt.Sprintf("Could not list session files: %v", err)
			}
			if len(refs) == 0 {
				return "No files have been uploaded in this session yet."
			}

			valid := make([]string, 0, len(refs))
			for _, ref := range refs {
				ok, err := indexer.Resolve(ctx, ref)
				if err != nil || !ok {
					continue
				}
				valid = append(valid, ref)
			}
			if len(valid) == 0 {
				return "The files in this session are no longer available (they may have been deleted or expired)."
			}

			key := toolcache.Key(toolcache.ScopeFile, chatSessionId.String(), query)
			if cached, ok := cache.Get(key); ok {
				return cached
			}

			result, err := indexer.Query(ctx, valid, query)
			if err != nil {
				return fmt.Sprintf("File search failed: %v", err)
			}

			cache.Set(toolcache.ScopeFile, key, result)
			return result
		},
	}
}

// NewHistoryRecallTool answers "what did I ask earlier" style questions.
func NewHistoryRecallTool(recaller HistoryRecaller, userId uuid.UUID, chatSessionId uuid.UUID) Tool {
	return Tool{
		Name:        "tool_recall_chat_history",
		Description: "Recall what the user asked earlier in this session. Input: {}",
		Run: func(ctx context.Context, query string) string {
			summary, err := recaller.RecallHistory(ctx, userId, chatSessionId)
			if err != nil {
				return fmt.Sprintf("Could not load chat history: %v", err)
			}
			return summary
		},
	}
}
