package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/kayson83/line-bot-chatgpt-redis/internal/models"
)

const (
	// samplingTemperature matches the fixed temperature the bot has always
	// used for chat completions.
	samplingTemperature float32 = 0.7

	// requestTimeout bounds a single completion call; the upstream default
	// is no timeout at all.
	requestTimeout = 30 * time.Second
)

// Config holds what the completion client needs at construction time.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the OpenAI endpoint, used by tests.
	BaseURL string
}

// Result is one completion outcome: the reply text and the total tokens the
// call consumed, as reported by the provider.
type Result struct {
	Reply       string
	TotalTokens int
}

// Service calls the chat completion API with a user's turn sequence.
type Service struct {
	chatModel model.BaseChatModel
	modelName string
}

// NewService builds the chat model once at startup.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model name required")
	}
	temperature := samplingTemperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: &temperature,
		Timeout:     requestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return &Service{chatModel: chatModel, modelName: cfg.Model}, nil
}

// Complete sends the full turn sequence and returns the assistant reply with
// its token cost. Any transport or API failure, including a response missing
// usage data, is returned as an error; there is no retry.
func (s *Service) Complete(ctx context.Context, turns []models.Turn) (*Result, error) {
	if len(turns) == 0 {
		return nil, errors.New("no turns to complete")
	}
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}

	msg, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chat completion (%s): %w", s.modelName, err)
	}
	if msg == nil || msg.Content == "" {
		return nil, errors.New("chat completion returned empty reply")
	}
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return nil, errors.New("chat completion returned no usage data")
	}
	return &Result{
		Reply:       msg.Content,
		TotalTokens: msg.ResponseMeta.Usage.TotalTokens,
	}, nil
}
