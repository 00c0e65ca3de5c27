package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/llm"
	"github.com/finaccosolutions/portal/internal/plugins/templates"
	"github.com/finaccosolutions/portal/internal/sanitize"
)

// LLM is the slice of the Gemini client this plugin needs; *llm.Gemini
// satisfies it.
type LLM interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
	Classify(ctx context.Context, apiKey, prompt string) (bool, error)
	Probe(ctx context.Context, apiKey string) error
}

// Thread titles are clipped to this many characters of the first message.
const titleLimit = 100

// AssistantService defines the business logic contract for the chat.
type AssistantService interface {
	ListThreads(ctx context.Context, userID string) ([]ThreadSummary, error)
	GetThread(ctx context.Context, userID, id string) (*Thread, error)
	DeleteThread(ctx context.Context, userID, id string) error
	ClearThreads(ctx context.Context, userID string) error

	// Chat handles one user turn: template hand-off, canned answers,
	// document intent, or a general LLM answer.
	Chat(ctx context.Context, userID string, req ChatRequest) (*Reply, error)

	// GenerateDocument produces an ad-hoc document from collected fields.
	GenerateDocument(ctx context.Context, userID string, req GenerateRequest) (*Reply, error)

	KeyStatus(ctx context.Context, userID string) (*KeyStatus, error)
	SetKey(ctx context.Context, userID, key string) error
}

// assistantService implements AssistantService.
type assistantService struct {
	repo    ChatRepository
	tpls    templates.TemplateService
	llm     LLM
	limiter *ChatLimiter

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService creates a new assistant service.
func NewService(repo ChatRepository, tpls templates.TemplateService, generator LLM, limiter *ChatLimiter) AssistantService {
	return &assistantService{
		repo:     repo,
		tpls:     tpls,
		llm:      generator,
		limiter:  limiter,
		inFlight: map[string]bool{},
	}
}

func (s *assistantService) ListThreads(ctx context.Context, userID string) ([]ThreadSummary, error) {
	summaries, err := s.repo.ListThreads(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing threads: %w", err))
	}
	return summaries, nil
}

func (s *assistantService) GetThread(ctx context.Context, userID, id string) (*Thread, error) {
	t, err := s.repo.FindThread(ctx, userID, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading thread: %w", err))
	}
	return t, nil
}

func (s *assistantService) DeleteThread(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteThread(ctx, userID, id); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting thread: %w", err))
	}
	return nil
}

// ClearThreads wipes the user's whole chat history. Clearing an already
// empty history is not an error.
func (s *assistantService) ClearThreads(ctx context.Context, userID string) error {
	if err := s.repo.DeleteAllThreads(ctx, userID); err != nil {
		return apperror.NewInternal(fmt.Errorf("clearing threads: %w", err))
	}
	return nil
}

// Chat routes one user turn. Registry matches and canned company answers
// resolve without the LLM; everything else needs the user's API key and a
// slot in the rate budget.
func (s *assistantService) Chat(ctx context.Context, userID string, req ChatRequest) (*Reply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, apperror.NewBadRequest("message is required")
	}

	release, err := s.acquire(userID, req.ThreadID)
	if err != nil {
		return nil, err
	}
	defer release()

	// A registry template that matches the request wins outright: the
	// client navigates straight to its form.
	if tpl, err := s.tpls.MatchQuery(ctx, text); err == nil && tpl != nil {
		return &Reply{
			Kind:         KindOpenTemplate,
			ThreadID:     req.ThreadID,
			TemplateID:   tpl.ID,
			TemplateName: tpl.Name,
		}, nil
	}

	// Canned company answers don't need the LLM or a key.
	if canned := cannedResponse(text); canned != "" {
		reply := &Reply{Kind: KindAnswer, HTML: sanitize.HTML(formatAnswer(canned))}
		reply.ThreadID, err = s.appendTurn(ctx, userID, req.ThreadID, text, reply.HTML, false)
		if err != nil {
			return nil, err
		}
		return reply, nil
	}

	apiKey, err := s.requireKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.consumeBudget(ctx, userID); err != nil {
		return nil, err
	}

	// Classifier errors mean "not a document request": the general path
	// still produces a useful answer.
	isDocRequest, err := s.llm.Classify(ctx, apiKey, classifyPrompt(text))
	if err != nil {
		slog.Warn("document classifier failed", slog.Any("error", err))
		isDocRequest = false
	}

	if isDocRequest {
		return s.collectFields(ctx, userID, apiKey, req.ThreadID, text)
	}
	return s.generalAnswer(ctx, userID, apiKey, req.ThreadID, text)
}

// collectFields asks the LLM for a field list matching the requested
// document type and hands the form definition to the client.
func (s *assistantService) collectFields(ctx context.Context, userID, apiKey, threadID, text string) (*Reply, error) {
	docType := docTypeRe.ReplaceAllString(text, "")
	docType = strings.TrimSpace(docType)
	if docType == "" {
		docType = "document"
	}

	fields := defaultFields(docType)
	if raw, err := s.llm.Generate(ctx, apiKey, fieldListPrompt(docType)); err == nil {
		if match := jsonObjectRe.FindString(raw); match != "" {
			if payload, err := decodeFieldList([]byte(match)); err == nil && len(payload.Fields) > 0 {
				fields = payload.Fields
			}
		}
	} else {
		slog.Warn("field list generation failed", slog.Any("error", err))
	}

	note := fmt.Sprintf("Let's create a %s. Please provide the following information:", docType)
	newThreadID, err := s.appendTurn(ctx, userID, threadID, text, note, false)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Kind:     KindCollectFields,
		ThreadID: newThreadID,
		DocType:  docType,
		Fields:   fields,
	}, nil
}

// generalAnswer produces the chat answer for a non-document query.
func (s *assistantService) generalAnswer(ctx context.Context, userID, apiKey, threadID, text string) (*Reply, error) {
	raw, err := s.llm.Generate(ctx, apiKey, answerPrompt(text))
	if err != nil {
		return nil, apperror.NewExternalService("the assistant is unavailable right now, please try again", err)
	}

	html := sanitize.HTML(formatAnswer(raw))
	newThreadID, err := s.appendTurn(ctx, userID, threadID, text, html, false)
	if err != nil {
		return nil, err
	}
	return &Reply{Kind: KindAnswer, ThreadID: newThreadID, HTML: html}, nil
}

// GenerateDocument renders an ad-hoc document from the collected data.
func (s *assistantService) GenerateDocument(ctx context.Context, userID string, req GenerateRequest) (*Reply, error) {
	docType := strings.TrimSpace(req.DocType)
	if docType == "" {
		return nil, apperror.NewBadRequest("document type is required")
	}

	release, err := s.acquire(userID, req.ThreadID)
	if err != nil {
		return nil, err
	}
	defer release()

	apiKey, err := s.requireKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.consumeBudget(ctx, userID); err != nil {
		return nil, err
	}

	dataJSON, err := json.Marshal(req.Data)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("encoding document data: %w", err))
	}

	raw, err := s.llm.Generate(ctx, apiKey, documentPrompt(docType, string(dataJSON)))
	if err != nil {
		return nil, apperror.NewExternalService("document generation failed, please try again", err)
	}

	html := sanitize.HTML(stripCodeFence(raw))
	threadID, err := s.appendTurn(ctx, userID, req.ThreadID, fmt.Sprintf("Generate %s", docType), html, true)
	if err != nil {
		return nil, err
	}

	slog.Info("ad-hoc document generated",
		slog.String("user_id", userID),
		slog.String("doc_type", docType),
	)
	return &Reply{
		Kind:     KindDocument,
		ThreadID: threadID,
		DocType:  docType,
		HTML:     html,
	}, nil
}

// --- API key management ---

func (s *assistantService) KeyStatus(ctx context.Context, userID string) (*KeyStatus, error) {
	_, err := s.repo.GetAPIKey(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return &KeyStatus{Configured: false}, nil
		}
		return nil, apperror.NewInternal(fmt.Errorf("checking api key: %w", err))
	}
	return &KeyStatus{Configured: true}, nil
}

// SetKey validates the key's shape, proves it against the live API, and
// stores it. The probe retries once: key validation is the first thing a
// new user does, and a transient network blip shouldn't read as "bad key".
func (s *assistantService) SetKey(ctx context.Context, userID, key string) error {
	key = strings.TrimSpace(key)
	if msg := llm.ValidateKeyFormat(key); msg != "" {
		return apperror.NewValidation("please correct the highlighted fields",
			map[string]string{"key": msg})
	}

	var probeErr error
	for attempt := 0; attempt < 2; attempt++ {
		if probeErr = s.llm.Probe(ctx, key); probeErr == nil {
			break
		}
		select {
		case <-ctx.Done():
			return apperror.NewInternal(ctx.Err())
		case <-time.After(time.Second):
		}
	}
	if probeErr != nil {
		return apperror.NewValidation("please correct the highlighted fields",
			map[string]string{"key": "the key was rejected by the Gemini API"})
	}

	if err := s.repo.UpsertAPIKey(ctx, userID, key); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing api key: %w", err))
	}
	slog.Info("gemini api key configured", slog.String("user_id", userID))
	return nil
}

// --- Internals ---

var (
	docTypeRe    = regexp.MustCompile(`(?i)(draft|create|generate|write)\s+(a|an)?\s*`)
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
	codeFenceRe  = regexp.MustCompile("(?s)^\\s*```(?:html)?\\s*(.*?)\\s*```\\s*$")
)

// acquire serializes turns per thread: a second send while one is running is
// rejected instead of queued, matching a chat UI that disables the send
// button.
func (s *assistantService) acquire(userID, threadID string) (func(), error) {
	key := userID + "/" + threadID
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[key] {
		return nil, apperror.NewConflict("a reply is already being generated for this conversation")
	}
	s.inFlight[key] = true
	return func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}, nil
}

func (s *assistantService) requireKey(ctx context.Context, userID string) (string, error) {
	apiKey, err := s.repo.GetAPIKey(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", apperror.NewBadRequest("add your Gemini API key before using the assistant")
		}
		return "", apperror.NewInternal(fmt.Errorf("loading api key: %w", err))
	}
	return apiKey, nil
}

func (s *assistantService) consumeBudget(ctx context.Context, userID string) error {
	ok, retryAfter, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !ok {
		return apperror.NewRateLimited(retryMessage(retryAfter))
	}
	return nil
}

// appendTurn records a user/assistant exchange, creating the thread when
// needed, and returns the thread id.
func (s *assistantService) appendTurn(ctx context.Context, userID, threadID, userText, assistantHTML string, isDocument bool) (string, error) {
	now := time.Now().UTC()
	turn := []Message{
		{ID: uuid.NewString(), Role: RoleUser, Content: userText, Timestamp: now},
		{ID: uuid.NewString(), Role: RoleAssistant, Content: assistantHTML, Timestamp: now, IsDocument: isDocument},
	}

	if threadID == "" {
		thread := &Thread{
			ID:       uuid.NewString(),
			UserID:   userID,
			Title:    clipTitle(userText),
			Messages: turn,
		}
		if err := s.repo.CreateThread(ctx, thread); err != nil {
			return "", apperror.NewInternal(fmt.Errorf("creating thread: %w", err))
		}
		return thread.ID, nil
	}

	thread, err := s.repo.FindThread(ctx, userID, threadID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", err
		}
		return "", apperror.NewInternal(fmt.Errorf("loading thread: %w", err))
	}
	messages := append(thread.Messages, turn...)
	if err := s.repo.UpdateThreadMessages(ctx, userID, threadID, messages); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("updating thread: %w", err))
	}
	return threadID, nil
}

func clipTitle(text string) string {
	runes := []rune(text)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "..."
	}
	return text
}

// stripCodeFence unwraps a response the model wrapped in a markdown fence.
func stripCodeFence(raw string) string {
	if m := codeFenceRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// defaultFields is the fallback form when field generation fails.
func defaultFields(docType string) []templates.Field {
	return []templates.Field{
		{ID: "title", Label: "Document Title", Type: templates.FieldText, Required: true,
			Placeholder: fmt.Sprintf("Enter %s title", docType)},
		{ID: "parties", Label: "Parties Involved", Type: templates.FieldTextarea, Required: true,
			Placeholder: "List all parties involved"},
		{ID: "details", Label: "Document Details", Type: templates.FieldTextarea, Required: true,
			Placeholder: "Enter all relevant details"},
		{ID: "date", Label: "Effective Date", Type: templates.FieldDate, Required: true},
	}
}
