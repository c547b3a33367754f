package server

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"fleetpool/api/internal/config"
	"fleetpool/api/internal/handler"
	"fleetpool/api/internal/middleware"
	"fleetpool/api/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	db        *gorm.DB
	redis     *redis.Client
	nats      *nats.Conn
	wsHub     *handler.WSHub
	wsHandler *handler.WSHandler
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) *Server {
	return &Server{
		config: cfg,
		db:     db,
		redis:  redisClient,
		nats:   natsConn,
	}
}

// Setup initializes routes and handlers
func (s *Server) Setup() {
	// Initialize WebSocket hub first
	s.wsHub = handler.NewWSHub(s.nats)
	s.wsHandler = handler.NewWSHandler(s.wsHub)

	// Initialize services
	authService := service.NewAuthService(s.db, s.config.JWTSecret)
	ledger := service.NewMovementLedger(s.db)
	registry := service.NewVehicleRegistry(s.db)
	roles := service.NewRoleStore(s.db)
	events := service.NewEventPublisher(s.nats)
	fleetService := service.NewFleetService(ledger, registry, roles, events)
	reportService := service.NewReportService(s.db)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, s.db)
	fleetHandler := handler.NewFleetHandler(fleetService, s.db)
	movementHandler := handler.NewMovementHandler(fleetService, reportService, s.db)
	vehicleHandler := handler.NewVehicleHandler(s.db)
	userHandler := handler.NewUserHandler(authService, s.db)
	roleHandler := handler.NewRoleHandler(s.db)
	orgUnitHandler := handler.NewOrgUnitHandler(s.db)
	maintenanceHandler := handler.NewMaintenanceHandler(s.db)
	auditHandler := handler.NewAuditHandler(s.db)

	// Start WebSocket hub in background
	go s.wsHub.Run()
	log.Println("[Server] WebSocket hub started")

	// Setup Gin router
	s.router = gin.Default()

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Rate limiting
	if s.config.RateLimit.Enabled && s.redis != nil {
		limiter := middleware.NewRedisRateLimiter(s.redis)
		s.router.Use(func(c *gin.Context) {
			rule := s.config.GetRateLimitRuleForPath(c.Request.URL.Path)
			middleware.NewRateLimitMiddleware(limiter, rule.ToMiddlewareConfig()).Middleware()(c)
		})
		log.Println("[Server] Rate limiting enabled")
	}

	// Swagger UI
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	s.router.GET("/health", func(c *gin.Context) {
		health := gin.H{"status": "ok"}
		if s.nats != nil && s.nats.IsConnected() {
			health["nats"] = "connected"
		} else {
			health["nats"] = "disconnected"
		}
		c.JSON(200, health)
	})
	s.router.POST("/api/v1/auth/login", authHandler.Login)
	s.router.POST("/api/v1/auth/register", authHandler.Register)

	// WebSocket routes
	s.router.GET("/ws/movements", s.wsHandler.HandleMovements)
	s.router.GET("/ws/stats", s.wsHandler.GetStats)

	// Protected routes
	capability := middleware.NewCapabilityMiddleware(s.db)
	api := s.router.Group("/api/v1")
	api.Use(authHandler.AuthMiddleware())
	{
		// Auth
		api.GET("/auth/me", authHandler.GetMe)

		// Fleet core: visibility board, pickup/return, random assignment
		fleetHandler.RegisterRoutes(api)

		// Coordinate back-fill by the movement performer
		movementHandler.RegisterUserRoutes(api)

		// Maintenance records
		maintenanceHandler.RegisterRoutes(api)

		// Admin surface
		admin := api.Group("")
		admin.Use(capability.RequireViewAll())
		{
			movementHandler.RegisterRoutes(admin)
			vehicleHandler.RegisterRoutes(admin)
			userHandler.RegisterRoutes(admin)
			roleHandler.RegisterRoutes(admin)
			orgUnitHandler.RegisterRoutes(admin)
			auditHandler.RegisterRoutes(admin)
		}
	}
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	log.Printf("[Server] HTTP server listening on %s", addr)
	return s.router.Run(addr)
}

// GetWSHub returns the WebSocket hub for external use
func (s *Server) GetWSHub() *handler.WSHub {
	return s.wsHub
}

// GetRouter returns the gin router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() {
	if s.wsHub != nil {
		s.wsHub.Stop()
		log.Println("[Server] WebSocket hub stopped")
	}
}
