package middleware

import (
	"net/http"
	"strings"
	"time"

	"ayudasocial/internal/logger"
	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/pkg/apperror"
	"ayudasocial/pkg/jwtutil"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AccessTokenCookie = "access_token"

	ContextUserID    = "userID"
	ContextUserRole  = "userRole"
	ContextSuperuser = "superuser"
)

// SetTokenCookie stores the access token as an HttpOnly cookie. Secure cookies use SameSite=None
// so a frontend on another origin can send them.
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

func ClearTokenCookie(c *gin.Context, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
}

// Authenticate validates the JWT from the access_token cookie or the Authorization header and
// stores the caller's id, role and superuser flag in the context
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie(AccessTokenCookie)
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				abort(c, http.StatusUnauthorized, "Authorization is missing")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				abort(c, http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'")
				return
			}
			tokenString = parts[1]
		}

		claims, err := jwtutil.ValidateToken(secret, tokenString)
		if err != nil {
			logger.FromGin(c).Debug("Rejected token", zap.Error(err))
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token subject")
			return
		}

		c.Set(ContextUserID, userID.String())
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextSuperuser, claims.Superuser)

		c.Next()
	}
}

// RequireRole lets through callers whose role is in allowed; superusers always pass.
// It must run after Authenticate.
func RequireRole(allowed ...model.Rol) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(ContextSuperuser) {
			c.Next()
			return
		}

		role := model.Rol(c.GetString(ContextUserRole))
		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			response.Fail(http.StatusForbidden, string(apperror.KindForbidden), "", "Access denied: insufficient permissions"))
	}
}

// ActorFromContext rebuilds the authenticated actor set by Authenticate
func ActorFromContext(c *gin.Context) (policy.Actor, bool) {
	id, err := uuid.Parse(c.GetString(ContextUserID))
	if err != nil {
		return policy.Actor{}, false
	}
	return policy.Actor{
		ID:           id,
		Rol:          model.Rol(c.GetString(ContextUserRole)),
		Superusuario: c.GetBool(ContextSuperuser),
	}, true
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, response.Error(status, msg))
}
