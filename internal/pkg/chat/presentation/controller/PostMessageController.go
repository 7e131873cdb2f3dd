package controller

import (
	"net/http"

	"go-parley/internal/pkg/chat/application/usecase"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/middleware"
	"go-parley/internal/pkg/chat/provider"
	"go-parley/internal/pkg/chat/summarizer"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostMessageController handles the non-streaming chat endpoint only (one controller per endpoint)
type PostMessageController struct {
	postUC *usecase.PostMessageUseCase
}

func NewPostMessageController(pool *pgxpool.Pool, providers *provider.Registry) *PostMessageController {
	repo := repoAdapter.NewPgChatRepository(pool)
	users := repoAdapter.NewPgUserRepository(pool)
	return &PostMessageController{
		postUC: usecase.NewPostMessageUseCase(repo, users, providers, summarizer.New(providers, repo)),
	}
}

// postMessageRequest is the DTO for the HTTP request body
type postMessageRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversationId"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

// Handle returns a gin handler that runs one full exchange and responds with
// the completed assistant message.
func (h *PostMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req postMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := h.postUC.Execute(c.Request.Context(), usecase.PostMessageInput{
			UserID:         middleware.UserID(c),
			ConversationID: req.ConversationID,
			Message:        req.Message,
			Provider:       req.Provider,
			Model:          req.Model,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
