package controller

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-parley/internal/pkg/chat/application/usecase"
	chat "go-parley/internal/pkg/chat/domain"
)

// respondError maps the domain failure taxonomy to transport codes. Internal
// detail is logged, never sent: the caller sees a short generic message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, chat.ErrBudgetExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "monthly token budget exceeded"})
	case errors.Is(err, usecase.ErrPersistence):
		log.Printf("controller: persistence: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	default:
		log.Printf("controller: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
