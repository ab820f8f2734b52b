package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kayson83/line-bot-chatgpt-redis/internal/models"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/service/ai"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/storage"
)

// Reserved command tokens.
const (
	cmdReset = "!reset"
	cmdHelp  = "!help"
	cmdStat  = "!stat"
)

// User-facing reply strings.
const (
	ReplyReset           = "✅ 已重置對話歷史"
	ReplyHelp            = "🗨️ 請直接輸入問題，我會用 ChatGPT 回覆你！\n\n!reset 重設對話\n!help 顯示幫助\n!stat 查看今日用量"
	ReplyOverLimit       = "⚠️ 今天已達使用上限，請明天再試。"
	ReplyCompletionError = "❌ 回覆時發生錯誤，請稍後再試。"
	ReplyStoreError      = "🛠️ 服務暫時無法使用，請稍後再試。"
	ReplyInvalidInput    = "請傳送文字訊息給我唷！"
)

// StatReply formats the daily usage report for the !stat command.
func StatReply(used, limit int64) string {
	return fmt.Sprintf("📊 今日已使用 %d / %d tokens", used, limit)
}

// FallbackReply is the fixed response for non-text message types, templated
// with the observed type name.
func FallbackReply(messageType string) string {
	return fmt.Sprintf("目前還看不懂「%s」訊息，請傳文字給我！", messageType)
}

// SessionStore is the slice of the storage layer the orchestrator needs.
type SessionStore interface {
	LoadHistory(ctx context.Context, userID string) ([]models.Turn, error)
	SaveHistory(ctx context.Context, userID string, turns []models.Turn) error
	ClearHistory(ctx context.Context, userID string) error
	AddTokens(ctx context.Context, userID, date string, amount int64) (int64, error)
	GetTokens(ctx context.Context, userID, date string) (int64, error)
}

// Completer produces one completion for a turn sequence.
type Completer interface {
	Complete(ctx context.Context, turns []models.Turn) (*ai.Result, error)
}

// Service runs one inbound message through command dispatch, context
// assembly, completion, quota accounting, and persistence. It keeps no state
// of its own between calls.
type Service struct {
	store           SessionStore
	completer       Completer
	dailyLimit      int64
	commandsEnabled bool
	now             func() time.Time
}

// NewService constructs the orchestrator.
func NewService(store SessionStore, completer Completer, dailyLimit int, commandsEnabled bool) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store required")
	}
	if completer == nil {
		return nil, errors.New("completer required")
	}
	if dailyLimit <= 0 {
		return nil, fmt.Errorf("daily limit must be positive, got %d", dailyLimit)
	}
	return &Service{
		store:           store,
		completer:       completer,
		dailyLimit:      int64(dailyLimit),
		commandsEnabled: commandsEnabled,
		now:             time.Now,
	}, nil
}

// HandleText processes one text message from a user and returns the reply to
// send back. Failures come back as *Error so the boundary can pick the
// matching canned string.
func (s *Service) HandleText(ctx context.Context, userID, text string) (string, error) {
	if userID == "" {
		return "", newError(CodeInvalidInput, "missing_user_id", nil)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", newError(CodeInvalidInput, "empty_message", nil)
	}

	if s.commandsEnabled {
		switch trimmed {
		case cmdReset:
			if err := s.store.ClearHistory(ctx, userID); err != nil {
				return "", newError(CodeStoreUnavailable, "reset_clear_history", err)
			}
			return ReplyReset, nil
		case cmdHelp:
			return ReplyHelp, nil
		case cmdStat:
			used, err := s.store.GetTokens(ctx, userID, s.today())
			if err != nil {
				return "", newError(CodeStoreUnavailable, "stat_get_tokens", err)
			}
			return StatReply(used, s.dailyLimit), nil
		}
	}

	history, err := s.store.LoadHistory(ctx, userID)
	if err != nil {
		return "", newError(CodeStoreUnavailable, "load_history", err)
	}
	turns := append(history, models.Turn{Role: models.RoleUser, Content: text})

	result, err := s.completer.Complete(ctx, turns)
	if err != nil {
		return "", newError(CodeCompletionAPI, "chat_completion", err)
	}

	date := s.today()
	usedBefore, err := s.store.GetTokens(ctx, userID, date)
	if err != nil {
		return "", newError(CodeStoreUnavailable, "quota_get_tokens", err)
	}
	// The quota check runs after the call because the cost is only known
	// from the response. This is approximate throttling: one request can
	// land over the limit before the next one is blocked. The over-limit
	// tokens were consumed upstream but are not recorded locally.
	if usedBefore+int64(result.TotalTokens) > s.dailyLimit {
		return ReplyOverLimit, nil
	}

	turns = append(turns, models.Turn{Role: models.RoleAssistant, Content: result.Reply})
	if len(turns) > storage.MaxHistoryTurns {
		turns = turns[len(turns)-storage.MaxHistoryTurns:]
	}
	if err := s.store.SaveHistory(ctx, userID, turns); err != nil {
		return "", newError(CodeStoreUnavailable, "save_history", err)
	}
	if _, err := s.store.AddTokens(ctx, userID, date, int64(result.TotalTokens)); err != nil {
		return "", newError(CodeStoreUnavailable, "add_tokens", err)
	}
	return result.Reply, nil
}

func (s *Service) today() string {
	return s.now().UTC().Format("2006-01-02")
}
