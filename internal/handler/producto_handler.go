package handler

import (
	"net/http"

	"ayudasocial/internal/service"
	"ayudasocial/pkg/pagination"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductoHandler struct {
	productoService service.ProductoService
}

func NewProductoHandler(productoService service.ProductoService) *ProductoHandler {
	return &ProductoHandler{productoService: productoService}
}

func (h *ProductoHandler) RegisterRoutes(router *gin.RouterGroup) {
	productos := router.Group("/productos")
	{
		productos.GET("", h.ListProductos)
		productos.POST("", h.CreateProducto)
		productos.GET("/disponibles", h.ListDisponibles)
		productos.GET("/:id", h.GetProducto)
		productos.PUT("/:id", h.UpdateProducto)
		productos.DELETE("/:id", h.DeleteProducto)
		productos.POST("/:id/ajustar-stock", h.AjustarStock)
		productos.GET("/:id/movimientos", h.ListMovimientos)
	}
}

// ListProductos godoc
// @Summary      List products
// @Tags         productos
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by name or code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response
// @Router       /api/productos [get]
func (h *ProductoHandler) ListProductos(c *gin.Context) {
	h.list(c, false)
}

// ListDisponibles godoc
// @Summary      List products in stock
// @Tags         productos
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/productos/disponibles [get]
func (h *ProductoHandler) ListDisponibles(c *gin.Context) {
	h.list(c, true)
}

func (h *ProductoHandler) list(c *gin.Context, disponibles bool) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.productoService.List(c.Request.Context(), actor, service.ListProductosQuery{
		Search:      c.Query("search"),
		Disponibles: disponibles,
		Page:        p.Page,
		Limit:       p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(items, total, p.Page, p.Limit)))
}

// CreateProducto godoc
// @Summary      Create a product
// @Tags         productos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductoRequest  true  "Product payload"
// @Success      201      {object}  response.Response{data=service.ProductoResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/productos [post]
func (h *ProductoHandler) CreateProducto(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateProductoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	producto, err := h.productoService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, producto))
}

// GetProducto godoc
// @Summary      Get a product
// @Tags         productos
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Producto ID"
// @Success      200  {object}  response.Response{data=service.ProductoResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/productos/{id} [get]
func (h *ProductoHandler) GetProducto(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Producto")
	if !ok {
		return
	}

	producto, err := h.productoService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, producto))
}

// UpdateProducto godoc
// @Summary      Update a product
// @Description  Edits name, description, unit and code. Stock changes go through ajustar-stock.
// @Tags         productos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Producto ID"
// @Param        payload  body      service.UpdateProductoRequest  true  "Product payload"
// @Success      200      {object}  response.Response{data=service.ProductoResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/productos/{id} [put]
func (h *ProductoHandler) UpdateProducto(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Producto")
	if !ok {
		return
	}
	var req service.UpdateProductoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	producto, err := h.productoService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, producto))
}

// DeleteProducto godoc
// @Summary      Delete a product
// @Tags         productos
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Producto ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/productos/{id} [delete]
func (h *ProductoHandler) DeleteProducto(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Producto")
	if !ok {
		return
	}

	if err := h.productoService.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Producto eliminado"}))
}

// AjustarStock godoc
// @Summary      Adjust stock
// @Description  Adds a signed quantity to the stock on hand; the result never drops below zero
// @Tags         productos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Producto ID"
// @Param        payload  body      service.AjustarStockRequest  true  "Delta"
// @Success      200      {object}  response.Response{data=service.ProductoResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/productos/{id}/ajustar-stock [post]
func (h *ProductoHandler) AjustarStock(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Producto")
	if !ok {
		return
	}
	var req service.AjustarStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	producto, err := h.productoService.AjustarStock(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, producto))
}

// ListMovimientos godoc
// @Summary      Stock card
// @Description  Stock movements of a product, newest first
// @Tags         productos
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Producto ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response
// @Router       /api/productos/{id}/movimientos [get]
func (h *ProductoHandler) ListMovimientos(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "Producto")
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.productoService.Movimientos(c.Request.Context(), actor, id, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(items, total, p.Page, p.Limit)))
}
