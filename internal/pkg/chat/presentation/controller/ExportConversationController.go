package controller

import (
	"fmt"
	"net/http"

	"go-parley/internal/pkg/chat/application/usecase"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExportConversationController handles the export endpoint only (one controller per endpoint)
type ExportConversationController struct {
	exportUC *usecase.ExportConversationUseCase
}

func NewExportConversationController(pool *pgxpool.Pool) *ExportConversationController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &ExportConversationController{exportUC: usecase.NewExportConversationUseCase(repo)}
}

// Handle returns a gin handler that serves a conversation as a JSON download.
func (h *ExportConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		export, err := h.exportUC.Execute(c.Request.Context(), middleware.UserID(c), conversationID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=conversation-%s.json", conversationID))
		c.JSON(http.StatusOK, export)
	}
}
