package handler

import (
	"errors"
	"net/http"

	"ayudasocial/internal/logger"
	"ayudasocial/internal/middleware"
	"ayudasocial/internal/policy"
	"ayudasocial/internal/service"
	"ayudasocial/pkg/apperror"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// writeError translates a service error into the response envelope. Errors without a domain
// kind are logged and reported as 500 without their details.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		logger.FromGin(c).Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, response.Fail(http.StatusInternalServerError, string(apperror.KindInternal), "", "Internal server error"))
		return
	}

	status := apperror.HTTPStatus(appErr.Kind)
	c.JSON(status, response.Fail(status, string(appErr.Kind), appErr.Field, appErr.Message))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Fail(http.StatusBadRequest, string(apperror.KindValidation), "", "Invalid request payload: "+err.Error()))
}

// currentActor returns the authenticated actor or writes a 401
func currentActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return actor, ok
}

// pathID parses the :id parameter; a malformed id is reported as not found
func pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(c, apperror.NotFound(entity, raw))
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional uuid query parameter
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(c, apperror.Validation(name, "Identificador no válido"))
		return nil, false
	}
	return &id, true
}
