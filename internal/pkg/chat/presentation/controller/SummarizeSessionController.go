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

// SummarizeSessionController handles the on-demand summarize endpoint only (one controller per endpoint)
type SummarizeSessionController struct {
	summarizeUC *usecase.SummarizeSessionUseCase
}

func NewSummarizeSessionController(pool *pgxpool.Pool, providers *provider.Registry) *SummarizeSessionController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &SummarizeSessionController{
		summarizeUC: usecase.NewSummarizeSessionUseCase(repo, summarizer.New(providers, repo)),
	}
}

// Handle returns a gin handler that forces a summary refresh for a conversation.
func (h *SummarizeSessionController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		summary, err := h.summarizeUC.Execute(c.Request.Context(), middleware.UserID(c), conversationID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}
