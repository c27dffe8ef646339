package handler

import (
	"net/http"

	"ayudasocial/internal/model"
	"ayudasocial/internal/service"
	"ayudasocial/pkg/pagination"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type InspeccionHandler struct {
	inspeccionService service.InspeccionService
}

func NewInspeccionHandler(inspeccionService service.InspeccionService) *InspeccionHandler {
	return &InspeccionHandler{inspeccionService: inspeccionService}
}

func (h *InspeccionHandler) RegisterRoutes(router *gin.RouterGroup) {
	inspecciones := router.Group("/inspecciones")
	{
		inspecciones.GET("", h.ListInspecciones)
		inspecciones.POST("", h.CreateInspeccion)
		inspecciones.GET("/pendientes", h.ListPendientes)
		inspecciones.GET("/programadas", h.ListProgramadas)
		inspecciones.GET("/:id", h.GetInspeccion)
		inspecciones.PATCH("/:id/resultado", h.RegistrarResultado)
	}
}

// ListInspecciones godoc
// @Summary      List inspections
// @Tags         inspecciones
// @Security     BearerAuth
// @Produce      json
// @Param        solicitud_id  query     string  false  "Filter by solicitud"
// @Param        resultado     query     string  false  "pendiente, aprobado or rechazado"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Items per page (default 20)"
// @Success      200           {object}  response.Response
// @Router       /api/inspecciones [get]
func (h *InspeccionHandler) ListInspecciones(c *gin.Context) {
	h.list(c, service.ListInspeccionesQuery{Resultado: model.ResultadoInspeccion(c.Query("resultado"))})
}

// ListPendientes godoc
// @Summary      List pending inspections
// @Tags         inspecciones
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/inspecciones/pendientes [get]
func (h *InspeccionHandler) ListPendientes(c *gin.Context) {
	h.list(c, service.ListInspeccionesQuery{Resultado: model.ResultadoPendiente})
}

// ListProgramadas godoc
// @Summary      List scheduled inspections
// @Description  Inspections with a scheduled date, soonest first
// @Tags         inspecciones
// @Security     BearerAuth
// @Produce      json
// @Param        resultado  query     string  false  "pendiente, aprobado or rechazado"
// @Success      200        {object}  response.Response
// @Router       /api/inspecciones/programadas [get]
func (h *InspeccionHandler) ListProgramadas(c *gin.Context) {
	h.list(c, service.ListInspeccionesQuery{Resultado: model.ResultadoInspeccion(c.Query("resultado")), Programadas: true})
}

func (h *InspeccionHandler) list(c *gin.Context, q service.ListInspeccionesQuery) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if q.SolicitudID, ok = queryUUID(c, "solicitud_id"); !ok {
		return
	}
	p := pagination.Parse(c)
	q.Page, q.Limit = p.Page, p.Limit

	items, total, err := h.inspeccionService.List(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(items, total, p.Page, p.Limit)))
}

// CreateInspeccion godoc
// @Summary      Open an inspection
// @Description  Schedules a home visit and moves the request to en_inspeccion
// @Tags         inspecciones
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInspeccionRequest  true  "Inspection payload"
// @Success      201      {object}  response.Response{data=model.Inspeccion}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inspecciones [post]
func (h *InspeccionHandler) CreateInspeccion(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateInspeccionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	insp, err := h.inspeccionService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, insp))
}

// GetInspeccion godoc
// @Summary      Get an inspection
// @Tags         inspecciones
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Inspeccion ID"
// @Success      200  {object}  response.Response{data=model.Inspeccion}
// @Failure      404  {object}  response.Response
// @Router       /api/inspecciones/{id} [get]
func (h *InspeccionHandler) GetInspeccion(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Inspección")
	if !ok {
		return
	}

	insp, err := h.inspeccionService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, insp))
}

// RegistrarResultado godoc
// @Summary      Record an inspection result
// @Description  Records aprobado or rechazado once; the request follows to aprobado_social or rechazado_social
// @Tags         inspecciones
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Inspeccion ID"
// @Param        payload  body      service.ResultadoInspeccionRequest  true  "Result"
// @Success      200      {object}  response.Response{data=model.Inspeccion}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inspecciones/{id}/resultado [patch]
func (h *InspeccionHandler) RegistrarResultado(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Inspección")
	if !ok {
		return
	}
	var req service.ResultadoInspeccionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	insp, err := h.inspeccionService.RegistrarResultado(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, insp))
}
