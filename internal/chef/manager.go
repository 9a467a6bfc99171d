// Package chef manages chef assistant conversations: threads, persisted
// messages and the streaming reply for each turn.
package chef

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/emilythestrangee/cheffry/backend/internal/ai"
	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/metrics"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

var (
	ErrForbidden        = errors.New("chat belongs to another user")
	ErrStreamInProgress = errors.New("a reply is already streaming for this chat")
	ErrEmptyMessage     = errors.New("message must not be empty")
)

const (
	titleMaxRunes = 50
	defaultTitle  = "New chat"
)

// ChatStreamer produces a streamed assistant reply.
type ChatStreamer interface {
	StreamChat(ctx context.Context, system string, history []ai.Message, onDelta func(string) error) (string, error)
}

type Manager struct {
	store store.Store
	llm   ChatStreamer
	now   func() time.Time
	log   zerolog.Logger

	mu        sync.Mutex
	streaming map[string]struct{}
}

func NewManager(s store.Store, llm ChatStreamer) *Manager {
	return &Manager{
		store:     s,
		llm:       llm,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logging.Component("chef"),
		streaming: make(map[string]struct{}),
	}
}

// TitleFrom derives a chat title from its first message: the first 50
// characters, with "..." appended when the message was longer.
func TitleFrom(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if message == "" {
		return defaultTitle
	}
	if utf8.RuneCountInString(message) <= titleMaxRunes {
		return message
	}
	runes := []rune(message)
	return string(runes[:titleMaxRunes]) + "..."
}

func (m *Manager) ListChats(ctx context.Context, userID string) ([]models.ChefChat, error) {
	return m.store.ListChats(ctx, userID)
}

func (m *Manager) CreateChat(ctx context.Context, userID, title string) (*models.ChefChat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	c := &models.ChefChat{UserID: userID, Title: title}
	if err := m.store.CreateChat(ctx, c); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return c, nil
}

// chat loads a chat and checks it belongs to userID.
func (m *Manager) chat(ctx context.Context, userID, chatID string) (*models.ChefChat, error) {
	c, err := m.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// Messages returns the chat's messages oldest first.
func (m *Manager) Messages(ctx context.Context, userID, chatID string) ([]models.ChefMessage, error) {
	if _, err := m.chat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return m.store.ListMessages(ctx, chatID)
}

// DeleteChat removes the chat and its messages. A reply still streaming
// for it is dropped when it completes.
func (m *Manager) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := m.chat(ctx, userID, chatID); err != nil {
		return err
	}
	return m.store.DeleteChat(ctx, chatID)
}

// Streaming reports whether a reply is in flight for the chat.
func (m *Manager) Streaming(chatID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.streaming[chatID]
	return ok
}

func (m *Manager) acquire(chatID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.streaming[chatID]; busy {
		return false
	}
	m.streaming[chatID] = struct{}{}
	metrics.ChefStreamsActive.Inc()
	return true
}

func (m *Manager) release(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.streaming[chatID]; ok {
		delete(m.streaming, chatID)
		metrics.ChefStreamsActive.Dec()
	}
}

type SendRequest struct {
	UserID  string
	ChatID  string // empty starts a new chat
	Content string
	Country string // empty uses the profile country
}

// StreamHandler receives progress of one turn. Both hooks are optional;
// an error from either aborts the turn.
type StreamHandler struct {
	OnChat  func(chat *models.ChefChat) error
	OnDelta func(chunk string) error
}

type SendResult struct {
	Chat             *models.ChefChat
	UserMessage      *models.ChefMessage
	AssistantMessage *models.ChefMessage
}

// Send runs one conversation turn: create the chat if needed, persist the
// user message, stream the reply and persist it once complete. A failed or
// cancelled stream leaves only the user message behind.
func (m *Manager) Send(ctx context.Context, req SendRequest, h StreamHandler) (*SendResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	chat, created, err := m.openChat(ctx, req.UserID, req.ChatID, content)
	if err != nil {
		return nil, err
	}
	defer m.release(chat.ID)

	res := &SendResult{Chat: chat}
	res.UserMessage = &models.ChefMessage{ChatID: chat.ID, Role: models.RoleUser, Content: content, CreatedAt: m.now()}
	if err := m.store.AddMessage(ctx, res.UserMessage); err != nil {
		if created {
			m.discard(chat.ID)
		}
		return nil, fmt.Errorf("save user message: %w", err)
	}

	if h.OnChat != nil {
		if err := h.OnChat(chat); err != nil {
			return nil, err
		}
	}

	history, err := m.store.ListMessages(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]ai.Message, 0, len(history))
	for _, msg := range history {
		turns = append(turns, ai.Message{Role: string(msg.Role), Content: msg.Content})
	}

	reply, err := m.llm.StreamChat(ctx, ai.ChefSystemPrompt(m.country(ctx, req)), turns, h.OnDelta)
	if err != nil {
		m.log.Warn().Err(err).Str("chat_id", chat.ID).Msg("chef stream failed")
		return nil, err
	}

	// the reply is complete; keep it even if the client has gone away
	persistCtx := context.WithoutCancel(ctx)
	at := m.now()
	assistant := &models.ChefMessage{ChatID: chat.ID, Role: models.RoleAssistant, Content: reply, CreatedAt: at}
	if err := m.store.AddMessage(persistCtx, assistant); errors.Is(err, store.ErrNotFound) {
		m.log.Info().Str("chat_id", chat.ID).Msg("chat deleted while streaming, reply dropped")
		return res, nil
	} else if err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	res.AssistantMessage = assistant
	if err := m.store.TouchChat(persistCtx, chat.ID, at); err != nil {
		return nil, fmt.Errorf("touch chat: %w", err)
	}
	chat.UpdatedAt = at
	return res, nil
}

// openChat returns the target chat with its streaming slot held. created
// reports whether the chat was made for this turn.
func (m *Manager) openChat(ctx context.Context, userID, chatID, content string) (*models.ChefChat, bool, error) {
	if chatID != "" {
		c, err := m.chat(ctx, userID, chatID)
		if err != nil {
			return nil, false, err
		}
		if !m.acquire(c.ID) {
			return nil, false, ErrStreamInProgress
		}
		return c, false, nil
	}

	c, err := m.CreateChat(ctx, userID, TitleFrom(content))
	if err != nil {
		return nil, false, err
	}
	m.acquire(c.ID)
	return c, true, nil
}

// discard removes a chat created for a turn that never got its first message.
func (m *Manager) discard(chatID string) {
	if err := m.store.DeleteChat(context.Background(), chatID); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.log.Warn().Err(err).Str("chat_id", chatID).Msg("failed to remove empty chat")
	}
}

func (m *Manager) country(ctx context.Context, req SendRequest) string {
	if c := strings.TrimSpace(req.Country); c != "" {
		return c
	}
	u, err := m.store.GetUser(ctx, req.UserID)
	if err != nil {
		return ""
	}
	return u.Country
}
