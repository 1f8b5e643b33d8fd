package gateway

import (
	"errors"
	"net/http"

	"github.com/example/qrdine/pkg/ordering"
	"github.com/example/qrdine/pkg/repository"
	"github.com/example/qrdine/pkg/service"
	"github.com/example/qrdine/pkg/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInvalidBody = "Invalid request body"

// fail writes the JSON error for err. failure is the 500 message and
// notFound the 404 message for the resource the handler works on.
func (g *Gateway) fail(c *gin.Context, err error, failure, notFound string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case service.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": conflictMessage(err), "details": err.Error()})
	default:
		g.logger.Error(failure,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failure, "details": err.Error()})
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, ordering.ErrInvalidTransition):
		return "Invalid status transition"
	case errors.Is(err, ordering.ErrAlreadyResolved):
		return "Waiter call already resolved"
	case errors.Is(err, repository.ErrInFlight):
		return "Order with this idempotency key is still being processed"
	}
	return "Resource was modified concurrently"
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
