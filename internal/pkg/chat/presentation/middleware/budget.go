package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-parley/internal/pkg/chat/application/budget"
	chat "go-parley/internal/pkg/chat/domain"
)

// BudgetCap rejects requests from users whose aggregate monthly token usage
// has reached the cap, before any provider traffic happens. Aggregation
// failures fail open and are surfaced by the gate's own logging.
func BudgetCap(gate *budget.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			c.Next()
			return
		}
		if err := gate.Allow(c.Request.Context(), userID); err != nil {
			if errors.Is(err, chat.ErrBudgetExceeded) {
				c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "monthly token budget exceeded"})
				return
			}
			log.Printf("budget gate: %v", err)
			c.Next()
			return
		}
		c.Next()
	}
}
