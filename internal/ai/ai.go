// Package ai answers free-form chat through an Ark-hosted model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/core/telegram/format"
	"github.com/m3rciful/promobot/internal/config"
)

const component = "service.ai"

// ErrDisabled reports that no model credentials are configured.
var ErrDisabled = errors.New("ai: disabled")

const defaultSystemPrompt = "You are the assistant behind a small Telegram media bot. Answer briefly and plainly."

// defaultMaxTokens bounds replies when the config leaves max_tokens unset.
const defaultMaxTokens = 1024

// Service runs one compiled prompt-template to chat-model chain and keeps a
// short rolling history per chat.
type Service struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	systemPrompt string
	historyLimit int

	mu      sync.Mutex
	history map[int64][]*schema.Message
}

// NewService compiles the chat chain. Without credentials it returns a
// disabled service whose Reply yields ErrDisabled, so callers need no
// conditional wiring.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	s := &Service{
		systemPrompt: strings.TrimSpace(cfg.SystemPrompt),
		historyLimit: cfg.HistoryLimit,
		history:      make(map[int64][]*schema.Message),
	}
	if s.systemPrompt == "" {
		s.systemPrompt = defaultSystemPrompt
	}
	if s.historyLimit <= 0 {
		s.historyLimit = 20
	}
	if !cfg.Enabled() {
		logger.Info(ctx, component, "ai.disabled")
		return s, nil
	}

	maxTokens := format.DerefInt(cfg.MaxTokens, defaultMaxTokens)
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}
	s.chain = runnable

	logger.Info(ctx, component, "ai.ready", slog.String("model", cfg.Model))
	return s, nil
}

// Enabled reports whether a model is wired.
func (s *Service) Enabled() bool {
	return s.chain != nil
}

// Reply answers one message within the chat's running conversation.
func (s *Service) Reply(ctx context.Context, chatID int64, text string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty question")
	}

	input := map[string]any{
		"system":  s.systemPrompt,
		"history": s.snapshot(chatID),
		"query":   text,
	}

	start := time.Now()
	answer, err := s.chain.Invoke(ctx, input)
	if err != nil {
		logger.Error(ctx, component, "ai.reply", slog.String("err", err.Error()))
		return "", fmt.Errorf("run chat chain: %w", err)
	}

	s.remember(chatID, schema.UserMessage(text), answer)
	logger.Debug(ctx, component, "ai.reply",
		slog.Int("chars", len(answer.Content)),
		slog.Duration("duration", logger.Took(start)),
	)
	return answer.Content, nil
}

// Reset drops the chat's history; reports whether any existed.
func (s *Service) Reset(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.history[chatID]
	delete(s.history, chatID)
	return ok
}

func (s *Service) snapshot(chatID int64) []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.history[chatID]
	out := make([]*schema.Message, len(msgs))
	copy(out, msgs)
	return out
}

// remember appends one exchange and trims to the history limit, oldest out.
func (s *Service) remember(chatID int64, user, answer *schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.history[chatID], user, answer)
	if over := len(msgs) - s.historyLimit; over > 0 {
		msgs = msgs[over:]
	}
	s.history[chatID] = msgs
}
