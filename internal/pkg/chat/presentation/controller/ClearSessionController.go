package controller

import (
	"net/http"

	"go-parley/internal/pkg/chat/application/usecase"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClearSessionController handles the clear-session endpoint only (one controller per endpoint)
type ClearSessionController struct {
	clearUC *usecase.ClearSessionUseCase
}

func NewClearSessionController(pool *pgxpool.Pool) *ClearSessionController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &ClearSessionController{clearUC: usecase.NewClearSessionUseCase(repo)}
}

// Handle returns a gin handler that wipes a conversation's messages and
// summary while keeping the conversation itself.
func (h *ClearSessionController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		err := h.clearUC.Execute(c.Request.Context(), middleware.UserID(c), conversationID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
