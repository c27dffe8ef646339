package handler

import (
	"net/http"
	"time"

	"ayudasocial/internal/service"
	"ayudasocial/pkg/apperror"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type EstadisticasHandler struct {
	estadisticasService service.EstadisticasService
	now                 func() time.Time
}

func NewEstadisticasHandler(estadisticasService service.EstadisticasService) *EstadisticasHandler {
	return &EstadisticasHandler{estadisticasService: estadisticasService, now: time.Now}
}

func (h *EstadisticasHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/estadisticas", h.GetEstadisticas)
}

// GetEstadisticas godoc
// @Summary      Dashboard statistics
// @Description  Requests by state, pending inspections, open deliveries and most delivered products
// @Tags         estadisticas
// @Security     BearerAuth
// @Produce      json
// @Param        desde  query     string  false  "Start (RFC3339), defaults to the first day of the month"
// @Param        hasta  query     string  false  "End (RFC3339), defaults to now"
// @Success      200    {object}  response.Response{data=model.Estadisticas}
// @Failure      400    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Router       /api/estadisticas [get]
func (h *EstadisticasHandler) GetEstadisticas(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	// Default to current month if no dates are provided
	now := h.now()
	desde := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	hasta := now
	var err error
	if raw := c.Query("desde"); raw != "" {
		if desde, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(c, apperror.Validation("desde", "Formato de fecha no válido, se espera RFC3339"))
			return
		}
	}
	if raw := c.Query("hasta"); raw != "" {
		if hasta, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(c, apperror.Validation("hasta", "Formato de fecha no válido, se espera RFC3339"))
			return
		}
	}

	stats, err := h.estadisticasService.Resumen(c.Request.Context(), actor, desde, hasta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
