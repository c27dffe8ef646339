package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "ayudasocial/api/swagger" // swagger docs
	"ayudasocial/internal/config"
	"ayudasocial/internal/database"
	"ayudasocial/internal/handler"
	"ayudasocial/internal/logger"
	"ayudasocial/internal/metrics"
	"ayudasocial/internal/middleware"
	"ayudasocial/internal/repository"
	"ayudasocial/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title           Ayuda Social API
// @version         1.0
// @description     Social-aid requests: review, home inspections, warehouse deliveries and stock.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("invalid configuration: " + err.Error())
	}

	log := logger.Init(cfg.Log.Level, cfg.Server.Env)
	defer func() { _ = log.Sync() }()

	metrics.Register()

	db, err := database.NewConnection(cfg.DB)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	log.Info("Connected to database", zap.String("driver", cfg.DB.Driver))

	router, usuarioService := setupRouter(cfg, db)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := usuarioService.EnsureSuperuser(context.Background(), cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal("Superuser bootstrap failed", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}

// setupRouter wires repositories, services and handlers (Repository -> Service -> Handler)
func setupRouter(cfg *config.Config, db *gorm.DB) (*gin.Engine, service.UsuarioService) {
	secret := []byte(cfg.JWT.Secret)

	solicitudRepo := repository.NewSolicitudRepository(db)
	inspeccionRepo := repository.NewInspeccionRepository(db)
	entregaRepo := repository.NewEntregaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)
	estadisticasRepo := repository.NewEstadisticasRepository(db)
	txManager := repository.NewTransactionManager(db)

	usuarioService := service.NewUsuarioService(usuarioRepo, secret, cfg.JWT.Expiration)
	solicitudService := service.NewSolicitudService(solicitudRepo, usuarioRepo, inspeccionRepo, entregaRepo, productoRepo, movimientoRepo, txManager, time.Now)
	inspeccionService := service.NewInspeccionService(inspeccionRepo, entregaRepo, solicitudRepo, txManager, time.Now)
	entregaService := service.NewEntregaService(entregaRepo, inspeccionRepo, solicitudRepo, productoRepo, movimientoRepo, txManager, time.Now)
	productoService := service.NewProductoService(productoRepo, movimientoRepo, txManager)
	estadisticasService := service.NewEstadisticasService(estadisticasRepo)

	production := cfg.Server.Env == "production"
	usuarioHandler := handler.NewUsuarioHandler(usuarioService, cfg.JWT.Expiration, production)
	solicitudHandler := handler.NewSolicitudHandler(solicitudService)
	inspeccionHandler := handler.NewInspeccionHandler(inspeccionService)
	entregaHandler := handler.NewEntregaHandler(entregaService)
	productoHandler := handler.NewProductoHandler(productoService)
	estadisticasHandler := handler.NewEstadisticasHandler(estadisticasService)

	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", logger.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{logger.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RequestID(), logger.Middleware(), metrics.Middleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	usuarioHandler.RegisterPublicRoutes(router.Group(""))

	api := router.Group("/api", middleware.Authenticate(secret))
	usuarioHandler.RegisterRoutes(api)
	solicitudHandler.RegisterRoutes(api)
	inspeccionHandler.RegisterRoutes(api)
	entregaHandler.RegisterRoutes(api)
	productoHandler.RegisterRoutes(api)
	estadisticasHandler.RegisterRoutes(api)

	return router, usuarioService
}
