package http

import (
	cache "go-parley/internal/infrastructure/cache/port"
	identity "go-parley/internal/infrastructure/identity/port"
	"go-parley/internal/pkg/chat/application/budget"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/controller"
	"go-parley/internal/pkg/chat/presentation/middleware"
	"go-parley/internal/pkg/chat/provider"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, store cache.Cache, ident identity.Identity, providers *provider.Registry) {
	gate := budget.NewGateFromEnv(repoAdapter.NewPgChatRepository(pool)).WithCache(store)

	createCtl := controller.NewCreateSessionController(pool)
	streamCtl := controller.NewStreamMessageController(pool, providers)
	postCtl := controller.NewPostMessageController(pool, providers)
	historyCtl := controller.NewGetHistoryController(pool)
	clearCtl := controller.NewClearSessionController(pool)
	summarizeCtl := controller.NewSummarizeSessionController(pool, providers)
	exportCtl := controller.NewExportConversationController(pool)
	socketCtl := controller.NewChatSocketController(pool, providers, gate)

	auth := middleware.Protect(ident)
	limit := middleware.RateLimit(store)
	budgeted := middleware.BudgetCap(gate)
	safety := middleware.Safety()

	// POST /api/v1/chat/session -> open a fresh conversation
	g.POST("/chat/session", auth, limit, createCtl.Handle())

	// POST /api/v1/chat/stream[/:conversationId] -> SSE token stream
	g.POST("/chat/stream", auth, limit, budgeted, safety, streamCtl.Handle())
	g.POST("/chat/stream/:conversationId", auth, limit, budgeted, safety, streamCtl.Handle())

	// POST /api/v1/chat -> non-streaming exchange
	g.POST("/chat", auth, limit, budgeted, safety, postCtl.Handle())

	// GET /api/v1/chat/ws -> websocket twin of the stream endpoint; budget
	// and content checks run per frame inside the controller
	g.GET("/chat/ws", auth, limit, socketCtl.Handle())

	// GET /api/v1/chat/history/:conversationId -> conversation + message log
	g.GET("/chat/history/:conversationId", auth, historyCtl.Handle())

	// POST /api/v1/chat/clear/:conversationId -> wipe messages, keep the conversation
	g.POST("/chat/clear/:conversationId", auth, clearCtl.Handle())

	// POST /api/v1/chat/summarize/:conversationId -> force a summary refresh
	g.POST("/chat/summarize/:conversationId", auth, summarizeCtl.Handle())

	// GET /api/v1/chat/export/:conversationId -> JSON download of a conversation
	g.GET("/chat/export/:conversationId", auth, exportCtl.Handle())
}
