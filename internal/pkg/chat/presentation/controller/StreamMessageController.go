package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go-parley/internal/pkg/chat/application/usecase"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/middleware"
	"go-parley/internal/pkg/chat/provider"
	"go-parley/internal/pkg/chat/summarizer"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StreamMessageController handles the SSE streaming endpoint only (one controller per endpoint)
type StreamMessageController struct {
	streamUC *usecase.StreamMessageUseCase
}

func NewStreamMessageController(pool *pgxpool.Pool, providers *provider.Registry) *StreamMessageController {
	repo := repoAdapter.NewPgChatRepository(pool)
	users := repoAdapter.NewPgUserRepository(pool)
	return &StreamMessageController{
		streamUC: usecase.NewStreamMessageUseCase(repo, users, providers, summarizer.New(providers, repo)),
	}
}

// streamMessageRequest is the DTO for the HTTP request body
type streamMessageRequest struct {
	Message  string `json:"message" binding:"required"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// sseSink writes server-sent events onto the wire. Headers go out lazily on
// the first Send, so use case errors raised before the session opens can
// still be answered with a plain JSON status. Writes are serialized: the
// heartbeat goroutine and the relay loop share this sink.
type sseSink struct {
	mu      sync.Mutex
	w       gin.ResponseWriter
	started bool
}

func (s *sseSink) Send(event string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache, no-transform")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

// Handle returns a gin handler that streams one assistant completion as SSE.
func (h *StreamMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req streamMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sink := &sseSink{w: c.Writer}
		err := h.streamUC.Execute(c.Request.Context(), usecase.StreamMessageInput{
			UserID:         middleware.UserID(c),
			ConversationID: c.Param("conversationId"),
			Message:        req.Message,
			Provider:       req.Provider,
			Model:          req.Model,
		}, sink)
		if err != nil {
			respondError(c, err)
		}
	}
}
