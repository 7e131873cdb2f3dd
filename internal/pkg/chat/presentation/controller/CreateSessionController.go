package controller

import (
	"net/http"

	"go-parley/internal/pkg/chat/application/usecase"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateSessionController handles the create-session endpoint only (one controller per endpoint)
type CreateSessionController struct {
	createUC *usecase.CreateSessionUseCase
}

func NewCreateSessionController(pool *pgxpool.Pool) *CreateSessionController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &CreateSessionController{createUC: usecase.NewCreateSessionUseCase(repo)}
}

// createSessionRequest is the DTO for the HTTP request body
type createSessionRequest struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemPrompt"`
}

// Handle returns a gin handler that opens a fresh conversation for the caller.
func (h *CreateSessionController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		conv, err := h.createUC.Execute(c.Request.Context(), usecase.CreateSessionInput{
			UserID:       middleware.UserID(c),
			Provider:     req.Provider,
			Model:        req.Model,
			SystemPrompt: req.SystemPrompt,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"conversationId": conv.ID,
			"provider":       string(conv.Provider),
			"model":          conv.Model,
			"expiresAt":      conv.ExpiresAt,
		})
	}
}
