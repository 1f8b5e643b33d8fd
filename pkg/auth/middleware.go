package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

// Directory looks up staff records by id.
type Directory interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

// RequireStaff rejects requests without a valid staff token. The token comes
// from the Authorization header or, for EventSource clients that cannot set
// headers, the access_token query parameter. When dir is set the staff
// member must exist there and be active; the directory's role wins.
func RequireStaff(v Verifier, dir Directory, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		identity, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debug("Rejected staff token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		if dir != nil {
			staff, err := dir.FindByID(c.Request.Context(), identity.StaffID)
			switch {
			case errors.Is(err, repository.ErrNotFound) || (err == nil && !staff.Active):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Staff account not found or inactive"})
				return
			case err != nil:
				logger.Error("Staff directory lookup failed", zap.String("staffId", identity.StaffID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify staff", "details": err.Error()})
				return
			}
			identity.Role = staff.Role
			if identity.Name == "" {
				identity.Name = staff.Name
			}
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity RequireStaff stored on c.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("access_token")
}
