package handler

import (
	"net/http"
	"strconv"

	"ayudasocial/internal/service"
	"ayudasocial/pkg/apperror"
	"ayudasocial/pkg/pagination"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type EntregaHandler struct {
	entregaService service.EntregaService
}

func NewEntregaHandler(entregaService service.EntregaService) *EntregaHandler {
	return &EntregaHandler{entregaService: entregaService}
}

func (h *EntregaHandler) RegisterRoutes(router *gin.RouterGroup) {
	entregas := router.Group("/entregas")
	{
		entregas.GET("", h.ListEntregas)
		entregas.POST("", h.CreateEntrega)
		entregas.GET("/pendientes", h.ListPendientes)
		entregas.GET("/programadas", h.ListProgramadas)
		entregas.GET("/:id", h.GetEntrega)
		entregas.PATCH("/:id/completar", h.CompletarEntrega)
	}
}

// ListEntregas godoc
// @Summary      List deliveries
// @Tags         entregas
// @Security     BearerAuth
// @Produce      json
// @Param        solicitud_id  query     string  false  "Filter by solicitud"
// @Param        completada    query     bool    false  "Filter by completion"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Items per page (default 20)"
// @Success      200           {object}  response.Response
// @Router       /api/entregas [get]
func (h *EntregaHandler) ListEntregas(c *gin.Context) {
	var q service.ListEntregasQuery
	if !parseCompletada(c, &q) {
		return
	}
	h.list(c, q)
}

func parseCompletada(c *gin.Context, q *service.ListEntregasQuery) bool {
	raw := c.Query("completada")
	if raw == "" {
		return true
	}
	completada, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(c, apperror.Validation("completada", "Debe ser true o false"))
		return false
	}
	q.Completada = &completada
	return true
}

// ListPendientes godoc
// @Summary      List open deliveries
// @Tags         entregas
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/entregas/pendientes [get]
func (h *EntregaHandler) ListPendientes(c *gin.Context) {
	abiertas := false
	h.list(c, service.ListEntregasQuery{Completada: &abiertas})
}

// ListProgramadas godoc
// @Summary      List scheduled deliveries
// @Description  Deliveries with a scheduled date, soonest first
// @Tags         entregas
// @Security     BearerAuth
// @Produce      json
// @Param        completada  query     bool  false  "Filter by completion"
// @Success      200         {object}  response.Response
// @Router       /api/entregas/programadas [get]
func (h *EntregaHandler) ListProgramadas(c *gin.Context) {
	q := service.ListEntregasQuery{Programadas: true}
	if !parseCompletada(c, &q) {
		return
	}
	h.list(c, q)
}

func (h *EntregaHandler) list(c *gin.Context, q service.ListEntregasQuery) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if q.SolicitudID, ok = queryUUID(c, "solicitud_id"); !ok {
		return
	}
	p := pagination.Parse(c)
	q.Page, q.Limit = p.Page, p.Limit

	items, total, err := h.entregaService.List(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(items, total, p.Page, p.Limit)))
}

// CreateEntrega godoc
// @Summary      Start a delivery
// @Description  Commits stock for the listed products and moves the request to en_entrega
// @Tags         entregas
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateEntregaRequest  true  "Delivery payload"
// @Success      201      {object}  response.Response{data=model.Entrega}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/entregas [post]
func (h *EntregaHandler) CreateEntrega(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateEntregaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entrega, err := h.entregaService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entrega))
}

// GetEntrega godoc
// @Summary      Get a delivery
// @Tags         entregas
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entrega ID"
// @Success      200  {object}  response.Response{data=model.Entrega}
// @Failure      404  {object}  response.Response
// @Router       /api/entregas/{id} [get]
func (h *EntregaHandler) GetEntrega(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Entrega")
	if !ok {
		return
	}

	entrega, err := h.entregaService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entrega))
}

// CompletarEntrega godoc
// @Summary      Complete a delivery
// @Description  Requires photo evidence; takes the delivered units out of stock and marks the request entregado
// @Tags         entregas
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Entrega ID"
// @Param        payload  body      service.CompletarEntregaRequest  true  "Evidence"
// @Success      200      {object}  response.Response{data=model.Entrega}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/entregas/{id}/completar [patch]
func (h *EntregaHandler) CompletarEntrega(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Entrega")
	if !ok {
		return
	}
	var req service.CompletarEntregaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entrega, err := h.entregaService.Completar(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entrega))
}
