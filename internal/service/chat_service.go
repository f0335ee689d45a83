package service

import (
	"context"
	"fmt"
	"strings"

	"lexguard-go/internal/model"
	"lexguard-go/pkg/llm"
	"lexguard-go/pkg/log"
)

// queryState labels the stages of one query's lifecycle. Transitions are
// strictly sequential; each stage is idempotent and side effects are
// append-only, so there is no rollback path.
type queryState string

const (
	stateReceived   queryState = "Received"
	stateEmbedding  queryState = "Embedding"
	stateRetrieving queryState = "Retrieving"
	stateGenerating queryState = "Generating"
	statePersisting queryState = "Persisting"
	stateResponded  queryState = "Responded"
	stateFailed     queryState = "Failed"
)

// GenerationFallback is returned to the user when the generation service
// fails after retrieval succeeded. Availability wins over completeness at
// that point.
const GenerationFallback = "I encountered an error generating the response. Please try again."

// ChatService runs the query pipeline: retrieve, remember, synthesize,
// audit.
type ChatService interface {
	Answer(ctx context.Context, req model.ChatRequest, actorID string) (*model.ChatResponse, error)
	StreamAnswer(ctx context.Context, req model.ChatRequest, actorID string, writer llm.MessageWriter) error
}

type chatService struct {
	retriever RetrieverService
	memory    MemoryService
	llmClient llm.Client
	audit     AuditService
}

// NewChatService creates a ChatService.
func NewChatService(retriever RetrieverService, memory MemoryService, llmClient llm.Client, audit AuditService) ChatService {
	return &chatService{
		retriever: retriever,
		memory:    memory,
		llmClient: llmClient,
		audit:     audit,
	}
}

// Answer runs one query through the pipeline and returns the grounded
// answer with its cited sources.
func (s *chatService) Answer(ctx context.Context, req model.ChatRequest, actorID string) (*model.ChatResponse, error) {
	state := stateReceived
	if strings.TrimSpace(req.Query) == "" {
		s.fail(state, req.SessionID, model.ErrValidation)
		return nil, fmt.Errorf("query is required: %w", model.ErrValidation)
	}

	if _, err := s.audit.Record(actorID, model.ActionSearchQuery, "query_engine", fmt.Sprintf("Query length: %d", len(req.Query))); err != nil {
		// Audit must not take the query path down with it.
		log.Errorf("[ChatService] failed to record query audit event: %v", err)
	}

	history, err := s.memory.Load(req.SessionID)
	if err != nil {
		log.Errorf("[ChatService] failed to load history, continuing without: %v", err)
		history = []model.ConversationTurn{}
	}

	state = stateEmbedding
	s.transition(state, req.SessionID)
	state = stateRetrieving
	s.transition(state, req.SessionID)
	retrieval, err := s.retriever.Retrieve(ctx, req.Query, req.DocID)
	if err != nil {
		// Answering without context is disallowed; surface the failure.
		s.fail(state, req.SessionID, err)
		return nil, err
	}

	state = stateGenerating
	s.transition(state, req.SessionID)
	answer := s.synthesize(ctx, retrieval.Context, history, req.Query)

	state = statePersisting
	s.transition(state, req.SessionID)
	if err := s.memory.Save(req.SessionID, req.Query, answer); err != nil {
		// The answer is already produced; losing one memory write must not
		// turn a success into an error.
		log.Errorf("[ChatService] failed to save history: %v", err)
	}

	state = stateResponded
	s.transition(state, req.SessionID)
	return &model.ChatResponse{
		Answer:    answer,
		Sources:   retrieval.Hits,
		SessionID: req.SessionID,
	}, nil
}

// StreamAnswer runs the same pipeline but streams generation chunks to the
// writer, followed by the caller's completion framing.
func (s *chatService) StreamAnswer(ctx context.Context, req model.ChatRequest, actorID string, writer llm.MessageWriter) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query is required: %w", model.ErrValidation)
	}

	if _, err := s.audit.Record(actorID, model.ActionSearchQuery, "query_engine", fmt.Sprintf("Query length: %d", len(req.Query))); err != nil {
		log.Errorf("[ChatService] failed to record query audit event: %v", err)
	}

	history, err := s.memory.Load(req.SessionID)
	if err != nil {
		log.Errorf("[ChatService] failed to load history, continuing without: %v", err)
		history = []model.ConversationTurn{}
	}

	retrieval, err := s.retriever.Retrieve(ctx, req.Query, req.DocID)
	if err != nil {
		return err
	}

	prompt := BuildPrompt(retrieval.Context, history, req.Query)
	captured := &strings.Builder{}
	interceptor := &capturingWriter{inner: writer, captured: captured}

	err = s.llmClient.StreamChatMessages(ctx,
		[]llm.Message{{Role: model.RoleUser, Content: prompt}}, nil, interceptor)
	if err != nil {
		return fmt.Errorf("streaming generation: %w", model.ErrGenerationUnavailable)
	}

	if err := s.memory.Save(req.SessionID, req.Query, captured.String()); err != nil {
		log.Errorf("[ChatService] failed to save history: %v", err)
	}
	return nil
}

// synthesize builds the grounded prompt and calls the generation service.
// A failed call degrades to the fixed fallback answer.
func (s *chatService) synthesize(ctx context.Context, contextText string, history []model.ConversationTurn, query string) string {
	prompt := BuildPrompt(contextText, history, query)

	answer, err := s.llmClient.Complete(ctx,
		[]llm.Message{{Role: model.RoleUser, Content: prompt}}, nil)
	if err != nil {
		log.Errorf("[ChatService] generation failed, returning fallback: %v", err)
		return GenerationFallback
	}
	return answer
}

// BuildPrompt assembles the single generation prompt: grounding
// instruction, retrieved context, chronological history and the question.
// The answering policy lives here, stated to the model explicitly; nothing
// in code enforces it.
func BuildPrompt(contextText string, history []model.ConversationTurn, query string) string {
	var historyBuilder strings.Builder
	for _, turn := range history {
		historyBuilder.WriteString(fmt.Sprintf("%s: %s\n", strings.ToUpper(turn.Role), turn.Content))
	}

	return fmt.Sprintf(`Instruction: You are an expert legal researcher.
Your goal is to answer the user's question based on the provided Context.
1. Read the Context carefully.
2. If the context contains the answer, provide it in detail.
3. If the context contains relevant clauses but not a direct answer, INFER the answer from those clauses.
4. Do NOT refuse to answer unless the context is completely irrelevant.

Context:
%s

Previous Conversation:
%s
User's Question: %s

Answer:`, contextText, historyBuilder.String(), query)
}

func (s *chatService) transition(state queryState, sessionID string) {
	log.Infow("query state transition", "state", string(state), "sessionId", sessionID)
}

func (s *chatService) fail(from queryState, sessionID string, err error) {
	log.Infow("query state transition", "state", string(stateFailed), "from", string(from), "sessionId", sessionID, "error", err.Error())
}

// capturingWriter forwards stream chunks and keeps a copy so the full
// answer can be written to memory afterwards.
type capturingWriter struct {
	inner    llm.MessageWriter
	captured *strings.Builder
}

// WriteMessage satisfies llm.MessageWriter.
func (w *capturingWriter) WriteMessage(messageType int, data []byte) error {
	w.captured.Write(data)
	return w.inner.WriteMessage(messageType, data)
}
