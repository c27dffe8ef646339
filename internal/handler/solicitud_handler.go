package handler

import (
	"context"
	"net/http"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/internal/service"
	"ayudasocial/pkg/pagination"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SolicitudHandler struct {
	solicitudService service.SolicitudService
}

func NewSolicitudHandler(solicitudService service.SolicitudService) *SolicitudHandler {
	return &SolicitudHandler{solicitudService: solicitudService}
}

// RegisterRoutes binds the request endpoints. Permissions are checked per request state by the
// service, so no role middleware is attached here.
func (h *SolicitudHandler) RegisterRoutes(router *gin.RouterGroup) {
	solicitudes := router.Group("/solicitudes")
	{
		solicitudes.GET("", h.ListSolicitudes)
		solicitudes.POST("", h.CreateSolicitud)
		solicitudes.GET("/:id", h.GetSolicitud)
		solicitudes.POST("/:id/aprobar-representante", h.DecidirRepresentante)
		solicitudes.POST("/:id/aprobar-social", h.DecidirTrabajoSocial)
		solicitudes.POST("/:id/rechazar", h.RechazarSolicitud)
	}
}

// ListSolicitudes godoc
// @Summary      List requests
// @Description  Lists the requests visible to the caller, newest first
// @Tags         solicitudes
// @Security     BearerAuth
// @Produce      json
// @Param        estado  query     string  false  "Filter by estado"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Router       /api/solicitudes [get]
func (h *SolicitudHandler) ListSolicitudes(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.solicitudService.List(c.Request.Context(), actor, service.ListSolicitudesQuery{
		Estado: model.EstadoSolicitud(c.Query("estado")),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(items, total, p.Page, p.Limit)))
}

// CreateSolicitud godoc
// @Summary      Create a request
// @Description  Registers an aid request on behalf of a citizen. The request starts pendiente.
// @Tags         solicitudes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSolicitudRequest  true  "Request payload"
// @Success      201      {object}  response.Response{data=service.SolicitudResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/solicitudes [post]
func (h *SolicitudHandler) CreateSolicitud(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateSolicitudRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sol, err := h.solicitudService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sol))
}

// GetSolicitud godoc
// @Summary      Get a request
// @Tags         solicitudes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Solicitud ID"
// @Success      200  {object}  response.Response{data=service.SolicitudResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/solicitudes/{id} [get]
func (h *SolicitudHandler) GetSolicitud(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Solicitud")
	if !ok {
		return
	}

	sol, err := h.solicitudService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sol))
}

// DecidirRepresentante godoc
// @Summary      Representative decision
// @Description  Approves or rejects a pending request (estado aprobado_representante or rechazado_representante)
// @Tags         solicitudes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Solicitud ID"
// @Param        payload  body      service.DecisionRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=service.SolicitudResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/solicitudes/{id}/aprobar-representante [post]
func (h *SolicitudHandler) DecidirRepresentante(c *gin.Context) {
	h.decidir(c, h.solicitudService.DecidirRepresentante)
}

// DecidirTrabajoSocial godoc
// @Summary      Social-work decision
// @Description  Approves or rejects a request after the representative (estado aprobado_social or rechazado_social)
// @Tags         solicitudes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Solicitud ID"
// @Param        payload  body      service.DecisionRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=service.SolicitudResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/solicitudes/{id}/aprobar-social [post]
func (h *SolicitudHandler) DecidirTrabajoSocial(c *gin.Context) {
	h.decidir(c, h.solicitudService.DecidirTrabajoSocial)
}

type decisionFunc func(ctx context.Context, actor policy.Actor, id uuid.UUID, req service.DecisionRequest) (*service.SolicitudResponse, error)

func (h *SolicitudHandler) decidir(c *gin.Context, decide decisionFunc) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Solicitud")
	if !ok {
		return
	}
	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sol, err := decide(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sol))
}

// RechazarSolicitud godoc
// @Summary      Reject a request
// @Description  Moves any non-terminal request to rechazado and releases stock held by open deliveries
// @Tags         solicitudes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true   "Solicitud ID"
// @Param        payload  body      service.RechazoRequest  false  "Internal notes"
// @Success      200      {object}  response.Response{data=service.SolicitudResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/solicitudes/{id}/rechazar [post]
func (h *SolicitudHandler) RechazarSolicitud(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Solicitud")
	if !ok {
		return
	}
	var req service.RechazoRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	sol, err := h.solicitudService.Rechazar(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sol))
}
