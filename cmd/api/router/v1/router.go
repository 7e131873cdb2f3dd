package v1

import (
	cache "go-parley/internal/infrastructure/cache/port"
	identity "go-parley/internal/infrastructure/identity/port"
	httpHandler "go-parley/internal/pkg/chat/presentation/http"
	"go-parley/internal/pkg/chat/provider"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, store cache.Cache, ident identity.Identity, providers *provider.Registry) {
	v1 := r.Group("/api/v1")
	// Pass the shared infrastructure down to the HTTP layer
	httpHandler.RegisterRoutes(v1, pool, store, ident, providers)
}
