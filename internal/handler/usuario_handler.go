package handler

import (
	"net/http"
	"time"

	"ayudasocial/internal/middleware"
	"ayudasocial/internal/model"
	"ayudasocial/internal/service"
	"ayudasocial/pkg/pagination"
	"ayudasocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type UsuarioHandler struct {
	usuarioService service.UsuarioService
	tokenTTL       time.Duration
	secureCookie   bool
}

// NewUsuarioHandler sets up the user and auth endpoints. secureCookie marks the token cookie
// Secure, which production deployments behind TLS need.
func NewUsuarioHandler(usuarioService service.UsuarioService, tokenTTL time.Duration, secureCookie bool) *UsuarioHandler {
	return &UsuarioHandler{usuarioService: usuarioService, tokenTTL: tokenTTL, secureCookie: secureCookie}
}

// RegisterPublicRoutes binds the endpoints that need no token
func (h *UsuarioHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
}

func (h *UsuarioHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.GetMe)

	usuarios := router.Group("/usuarios")
	{
		usuarios.GET("", h.ListUsuarios)
		usuarios.POST("", middleware.RequireRole(model.RolRecepcion), h.CreateUsuario)
	}
}

// Login godoc
// @Summary      Login
// @Description  Authenticates by username or email and returns a JWT, also set as an HttpOnly cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.LoginResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *UsuarioHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.usuarioService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetTokenCookie(c, res.Token, h.tokenTTL, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Logout godoc
// @Summary      Logout
// @Description  Clears the token cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *UsuarioHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Sesión cerrada"}))
}

// GetMe godoc
// @Summary      Current user
// @Tags         usuarios
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.Usuario}
// @Failure      401  {object}  response.Response
// @Router       /api/me [get]
func (h *UsuarioHandler) GetMe(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	usuario, err := h.usuarioService.Me(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, usuario))
}

// ListUsuarios godoc
// @Summary      List users
// @Tags         usuarios
// @Security     BearerAuth
// @Produce      json
// @Param        rol    query     string  false  "Filter by role"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Router       /api/usuarios [get]
func (h *UsuarioHandler) ListUsuarios(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.usuarioService.List(c.Request.Context(), actor, model.Rol(c.Query("rol")), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(items, total, p.Page, p.Limit)))
}

// CreateUsuario godoc
// @Summary      Create a user
// @Description  Superusers create any user; recepcion may only register citizens
// @Tags         usuarios
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateUsuarioRequest  true  "User payload"
// @Success      201      {object}  response.Response{data=model.Usuario}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/usuarios [post]
func (h *UsuarioHandler) CreateUsuario(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateUsuarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	usuario, err := h.usuarioService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, usuario))
}
