package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/agent"
	"docuchat-be/pkg/indexing"
	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/toolcache"
)

// historyWindow caps how much persisted history is replayed into a turn.
const historyWindow = 20

type IChatbotService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

type chatbotService struct {
	uowFactory      unitofwork.RepositoryFactory
	textProvider    llm.LLMProvider
	visionProvider  llm.VisionProvider
	indexer         indexing.Service
	cache           *toolcache.ToolResultCache
	documentService IDocumentService
	lawStoreRef     string
	log             logger.ILogger
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	textProvider llm.LLMProvider,
	visionProvider llm.VisionProvider,
	indexer indexing.Service,
	cache *toolcache.ToolResultCache,
	documentService IDocumentService,
	lawStoreRef string,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		uowFactory:      uowFactory,
		textProvider:    textProvider,
		visionProvider:  visionProvider,
		indexer:         indexer,
		cache:           cache,
		documentService: documentService,
		lawStoreRef:     lawStoreRef,
		log:             log,
	}
}

func (cs *chatbotService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "New Session",
		CreatedAt: time.Now(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (cs *chatbotService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return res, nil
}

func (cs *chatbotService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.ownedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.FilterBy{Field: "chat_session_id", Value: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, msg := range messages {
		res = append(res, &dto.GetChatHistoryResponse{
			Id:            msg.Id,
			Role:          msg.Role,
			Chat:          msg.Chat,
			ResponderName: msg.ResponderName,
			CreatedAt:     msg.CreatedAt,
		})
	}
	return res, nil
}

// SendChat runs one routed turn: build the working state from persisted
// history, let the graph pick and run a responder, persist both sides of the
// exchange.
func (cs *chatbotService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.ownedSession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	userContext := ""
	if user != nil {
		userContext = user.ProfileContext
	}

	state, err := cs.buildState(ctx, uow, session, userId, userContext, request)
	if err != nil {
		return nil, err
	}

	graph := cs.buildGraph(userId, session.Id)

	trace, err := graph.Run(ctx, state)
	if err != nil {
		cs.log.Error("chatbot", "routing graph failed", map[string]interface{}{
			"chat_session_id": session.Id.String(),
			"error":           err.Error(),
		})
		return nil, err
	}

	reply := ""
	responderName := ""
	if last := state.Messages[len(state.Messages)-1]; last.Role == constant.ChatMessageRoleModel && last.Name != "" {
		reply = last.Content
		responderName = last.Name
	}

	now := time.Now()
	if err := cs.persistTurn(ctx, uow, session, request.Chat, reply, responderName, trace, now); err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		ChatSessionId: session.Id,
		Reply:         reply,
		ResponderName: responderName,
		Trace:         trace,
		CreatedAt:     now,
	}, nil
}

func (cs *chatbotService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.ownedSession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	cs.cache.InvalidateScope(toolcache.ScopeFile, session.Id.String())
	return nil
}

// RecallHistory summarizes the questions asked so far in a session. It backs
// the chat-history tool exposed to the PersonalAnalyst responder.
func (cs *chatbotService) RecallHistory(ctx context.Context, userId uuid.UUID, chatSessionId uuid.UUID) (string, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.ownedSession(ctx, uow, userId, chatSessionId); err != nil {
		return "", err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.FilterBy{Field: "chat_session_id", Value: chatSessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return "", err
	}

	questions := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == constant.ChatMessageRoleUser {
			questions = append(questions, "- "+msg.Chat)
		}
	}
	if len(questions) == 0 {
		return "No questions have been asked in this session yet.", nil
	}

	return fmt.Sprintf("In this session you asked %d question(s):\n%s", len(questions), strings.Join(questions, "\n")), nil
}

func (cs *chatbotService) buildState(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	session *entity.ChatSession,
	userId uuid.UUID,
	userContext string,
	request *dto.SendChatRequest,
) (*agent.State, error) {
	history, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.FilterBy{Field: "chat_session_id", Value: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	state := &agent.State{
		UserContext:   userContext,
		ImagePath:     request.ImagePath,
		UserId:        userId,
		ChatSessionId: session.Id,
	}
	for _, msg := range history {
		state.Messages = append(state.Messages, agent.Message{
			Role:    msg.Role,
			Name:    msg.ResponderName,
			Content: msg.Chat,
		})
	}
	state.Messages = append(state.Messages, agent.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: request.Chat,
	})

	return state, nil
}

func (cs *chatbotService) buildGraph(userId uuid.UUID, chatSessionId uuid.UUID) *agent.Graph {
	lawTool := agent.NewLawSearchTool(cs.indexer, cs.cache, cs.lawStoreRef)
	uploadedTool := agent.NewUploadedSearchTool(cs.indexer, cs.cache, cs.documentService, chatSessionId)
	historyTool := agent.NewHistoryRecallTool(cs, userId, chatSessionId)

	return agent.NewGraph(
		agent.NewSupervisor(cs.textProvider),
		agent.NewReactResponder(agent.MemberLawResearcher, cs.textProvider, []agent.Tool{lawTool}),
		agent.NewReactResponder(agent.MemberPersonalAnalyst, cs.textProvider, []agent.Tool{uploadedTool, historyTool}),
		agent.NewVisionResponder(cs.visionProvider),
		agent.NewGeneralResponder(cs.textProvider),
	)
}

func (cs *chatbotService) persistTurn(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	session *entity.ChatSession,
	question string,
	reply string,
	responderName string,
	trace []string,
	at time.Time,
) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Chat:          question,
		Role:          constant.ChatMessageRoleUser,
		CreatedAt:     at,
	}); err != nil {
		return err
	}

	if reply != "" {
		if err := uow.ChatMessageRepository().Create(ctx, &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Chat:          reply,
			Role:          constant.ChatMessageRoleModel,
			ResponderName: responderName,
			Trace:         trace,
			CreatedAt:     at.Add(time.Millisecond),
		}); err != nil {
			return err
		}
	}

	// First exchange names the session.
	if session.Title == "New Session" {
		session.Title = truncateTitle(question, 60)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// truncateTitle shortens a session title to at most max runes so multi-byte
// characters are never cut in the middle of a sequence.
func truncateTitle(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func (cs *chatbotService) ownedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("chat session %s not found", sessionId)
	}
	return session, nil
}
