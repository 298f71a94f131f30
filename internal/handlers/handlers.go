package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"schoolhub/api/internal/config"
	"schoolhub/api/internal/middleware"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/rate"
	"schoolhub/api/internal/repository"
	"schoolhub/api/internal/service"
	"schoolhub/api/internal/storage"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	enrollments *service.EnrollmentService
	documents   *service.DocumentService
	db          *pgxpool.Pool
	cache       *redis.Client
	users       *repository.UserRepository
	sessions    *repository.SessionRepository
	locations   *repository.LocationRepository
	classes     *repository.ClassRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	limiter := rate.New(cache, rate.Config{
		Enabled:          cfg.RateLimit.Enabled,
		MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
		LoginCooldown:    cfg.RateLimit.LoginCooldown,
	})

	auth := service.NewAuthService(userRepo, sessionRepo, limiter, cfg, log)
	enrollments := service.NewEnrollmentService(classRepo, enrollmentRepo, feeRepo, userRepo, log)
	documents := service.NewDocumentService(documentRepo, store, userRepo, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		enrollments: enrollments,
		documents:   documents,
		db:          db,
		cache:       cache,
		users:       userRepo,
		sessions:    sessionRepo,
		locations:   locationRepo,
		classes:     classRepo,
	}
}

func (h HandlerSet) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)

	authProtected := v1.Group("/auth")
	authProtected.Use(middleware.Auth(h.cfg, h.users))
	authProtected.POST("/logout", h.Logout)
	authProtected.POST("/logout-all", h.LogoutAll)
	authProtected.GET("/me", h.Me)
	authProtected.GET("/sessions", h.Sessions)

	protected := v1.Group("")
	protected.Use(middleware.Auth(h.cfg, h.users))

	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)
	staffOnly := middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleTeacher)

	users := protected.Group("/users")
	users.GET("", adminOnly, h.ListUsers)
	users.GET("/pending", adminOnly, h.ListPendingUsers)
	users.GET("/children", h.MyChildren)
	users.POST("", adminOnly, h.AdminCreateUser)
	users.POST("/:id/approve", adminOnly, h.ApproveUser)
	users.POST("/:id/deactivate", adminOnly, h.DeactivateUser)
	users.DELETE("/:id", adminOnly, h.RejectUser)

	locations := protected.Group("/locations")
	locations.GET("", h.ListLocations)
	locations.GET("/:id", h.GetLocation)
	locations.POST("", adminOnly, h.CreateLocation)
	locations.PUT("/:id", adminOnly, h.UpdateLocation)
	locations.DELETE("/:id", adminOnly, h.DeleteLocation)

	classes := protected.Group("/classes")
	classes.GET("", staffOnly, h.ListClasses)
	classes.GET("/:id", staffOnly, h.GetClass)
	classes.POST("", adminOnly, h.CreateClass)
	classes.PUT("/:id", adminOnly, h.UpdateClass)
	classes.DELETE("/:id", adminOnly, h.DeleteClass)

	enrollments := protected.Group("/enrollments")
	enrollments.POST("", adminOnly, h.Enroll)
	enrollments.POST("/:id/withdraw", adminOnly, h.Withdraw)
	enrollments.GET("/class/:classId", staffOnly, h.ListClassEnrollments)
	enrollments.GET("/student/:studentId", h.ListStudentEnrollments)

	fees := protected.Group("/fees")
	fees.GET("/:enrollmentId", h.GetFeeBalance)
	fees.POST("/:enrollmentId/charge", adminOnly, h.ChargeFee)
	fees.POST("/:enrollmentId/payment", adminOnly, h.RecordFeePayment)

	students := protected.Group("/students")
	students.POST("/:studentId/documents", staffOnly, h.UploadDocument)
	students.GET("/:studentId/documents", h.ListStudentDocuments)

	documents := protected.Group("/documents")
	documents.GET("/:id/url", h.DocumentDownloadURL)
}
