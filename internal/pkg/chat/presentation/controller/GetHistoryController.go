package controller

import (
	"net/http"

	"go-parley/internal/pkg/chat/application/usecase"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GetHistoryController handles the history endpoint only (one controller per endpoint)
type GetHistoryController struct {
	historyUC *usecase.GetHistoryUseCase
}

func NewGetHistoryController(pool *pgxpool.Pool) *GetHistoryController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &GetHistoryController{historyUC: usecase.NewGetHistoryUseCase(repo)}
}

// Handle returns a gin handler that fetches a conversation and its message log.
func (h *GetHistoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		history, err := h.historyUC.Execute(c.Request.Context(), middleware.UserID(c), conversationID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, history)
	}
}
