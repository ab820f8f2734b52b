package api

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kayson83/line-bot-chatgpt-redis/internal/line"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/service/chat"
)

// Orchestrator runs one inbound text message to a reply string.
type Orchestrator interface {
	HandleText(ctx context.Context, userID, text string) (string, error)
}

// ReplySender delivers one outbound text message for a reply token.
type ReplySender interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Handler wires HTTP routes to the orchestrator and the reply sender.
type Handler struct {
	chat          Orchestrator
	sender        ReplySender
	channelSecret string
}

// NewHandler constructs a Handler instance.
func NewHandler(orchestrator Orchestrator, sender ReplySender, channelSecret string) *Handler {
	return &Handler{
		chat:          orchestrator,
		sender:        sender,
		channelSecret: channelSecret,
	}
}

// RequestID tags every delivery with an id for log correlation, honoring a
// caller-provided X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(RequestID())
	router.GET("/", h.health)
	router.POST("/callback", h.callback)
}

func (h *Handler) health(c *gin.Context) {
	c.String(http.StatusOK, "Service is running.")
}

func (h *Handler) callback(c *gin.Context) {
	rid := c.GetString("request_id")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}
	if !line.ValidateSignature(h.channelSecret, body, c.GetHeader(line.SignatureHeader)) {
		log.Printf("[%s] webhook signature check failed", rid)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}
	hook, err := line.ParseWebhook(body)
	if err != nil {
		log.Printf("[%s] webhook parse failed: %v", rid, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	ctx := c.Request.Context()
	for _, event := range hook.Events {
		if !event.IsMessage() {
			continue
		}
		reply := h.replyFor(ctx, rid, &event)
		if err := h.sender.Reply(ctx, event.ReplyToken, reply); err != nil {
			log.Printf("[%s] reply delivery failed for %s: %v", rid, event.Source.UserID, err)
		}
	}
	c.String(http.StatusOK, "OK")
}

func (h *Handler) replyFor(ctx context.Context, rid string, event *line.Event) string {
	switch event.Message.Kind() {
	case line.KindText:
		reply, err := h.chat.HandleText(ctx, event.Source.UserID, event.Message.Text)
		if err != nil {
			log.Printf("[%s] chat failed for %s: %v", rid, event.Source.UserID, err)
			return userReplyForError(err)
		}
		return reply
	default:
		return chat.FallbackReply(event.Message.Type)
	}
}

// userReplyForError maps each orchestrator error class to its canned string.
func userReplyForError(err error) string {
	switch chat.CodeOf(err) {
	case chat.CodeStoreUnavailable:
		return chat.ReplyStoreError
	case chat.CodeInvalidInput:
		return chat.ReplyInvalidInput
	default:
		return chat.ReplyCompletionError
	}
}
