package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/handler"
	"github.com/noah-isme/rekrut-api/internal/middleware"
	"github.com/noah-isme/rekrut-api/internal/service"
	"github.com/noah-isme/rekrut-api/pkg/config"
	"github.com/noah-isme/rekrut-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/rekrut-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rekrut-api/pkg/middleware/requestid"
)

// Dependencies carries everything the HTTP surface needs. Export is optional
// and its routes are skipped when nil.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService

	Tokens  middleware.TokenValidator
	Audit   middleware.AuditWriter
	Limiter middleware.Limiter

	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	StudyPrograms *handler.StudyProgramHandler
	Positions     *handler.PositionHandler
	Timelines     *handler.TimelineHandler
	Submissions   *handler.SubmissionHandler
	Exports       *handler.ExportHandler
	Forms         *handler.FormHandler
	Uploads       *handler.UploadHandler
	Health        *handler.MetricsHandler
}

// New builds the gin engine with every route mounted.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.Health.Health)
	r.GET("/ready", deps.Health.Ready)
	r.GET("/metrics", deps.Health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	auth := middleware.JWT(deps.Tokens)
	audited := func(resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, resource, log)
	}
	publicLimit := func(name string) gin.HandlerFunc {
		return middleware.RateLimit(deps.Limiter, middleware.RateLimitConfig{
			Name:   name,
			Limit:  cfg.Submissions.IntakeRateLimit,
			Window: cfg.Submissions.IntakeRateWindow,
		}, deps.Metrics, log)
	}

	api.POST("/register", deps.Auth.Register)
	api.POST("/login", deps.Auth.Login)

	authGroup := api.Group("/auth")
	authGroup.POST("/refresh", deps.Auth.Refresh)
	authGroup.POST("/logout", auth, deps.Auth.Logout)
	authGroup.GET("/me", auth, deps.Auth.Me)

	users := api.Group("/users", auth)
	users.GET("", deps.Users.List)
	users.GET("/:id", deps.Users.Get)
	users.PUT("/edit_status/:id", deps.Users.ToggleStatus)
	users.PUT("/:id", deps.Users.Update)
	users.DELETE("/:id", deps.Users.Delete)

	programs := api.Group("/study_programs")
	programs.GET("", deps.StudyPrograms.List)
	programs.GET("/:id", deps.StudyPrograms.Get)
	programWrites := programs.Group("", auth, audited("study_program"))
	programWrites.POST("", deps.StudyPrograms.Create)
	programWrites.PUT("/:id", deps.StudyPrograms.Update)
	programWrites.DELETE("/:id", deps.StudyPrograms.Delete)

	positions := api.Group("/positions")
	positions.GET("", deps.Positions.List)
	positions.GET("/:id", deps.Positions.Get)
	positionWrites := positions.Group("", auth, audited("position"))
	positionWrites.POST("", deps.Positions.Create)
	positionWrites.PUT("/edit_status/:id", deps.Positions.ToggleStatus)
	positionWrites.PUT("/:id", deps.Positions.Update)
	positionWrites.DELETE("/:id", deps.Positions.Delete)

	timelines := api.Group("/timelines")
	timelines.GET("", deps.Timelines.List)
	timelines.GET("/:id", deps.Timelines.Get)
	timelineWrites := timelines.Group("", auth, audited("timeline"))
	timelineWrites.POST("", deps.Timelines.Create)
	timelineWrites.PUT("/edit_status/:id", deps.Timelines.ToggleStatus)
	timelineWrites.PUT("/:id", deps.Timelines.Update)
	timelineWrites.DELETE("/:id", deps.Timelines.Delete)

	api.POST("/submissions", publicLimit("intake"), deps.Submissions.Create)
	submissions := api.Group("/submissions", auth)
	submissions.GET("", deps.Submissions.List)
	submissions.GET("/:id", deps.Submissions.Get)
	submissions.PUT("/:id/score", deps.Submissions.UpdateScore)

	// Status and decision writes are audited inside SubmissionService.
	decisions := api.Group("/submissions-update", auth)
	decisions.PUT("", deps.Submissions.UpdateStatus)
	decisions.PUT("/agreement", deps.Submissions.SetPassed)
	decisions.PUT("/determination", deps.Submissions.SetDetermination)

	if deps.Exports != nil {
		submissions.POST("/exports", deps.Exports.Create)
		submissions.GET("/exports/:id", deps.Exports.Status)
		api.GET("/exports/:token", deps.Exports.Download)
	}

	forms := api.Group("/forms")
	forms.GET("", deps.Forms.List)
	forms.GET("/settings", deps.Forms.Settings)
	forms.GET("/:id", deps.Forms.Get)
	formWrites := forms.Group("", auth, audited("form"))
	formWrites.POST("", deps.Forms.Create)
	formWrites.PUT("/settings", deps.Forms.UpdateSettings)
	formWrites.PUT("/:id", deps.Forms.Update)
	formWrites.DELETE("/:id", deps.Forms.Delete)

	api.POST("/uploads", publicLimit("uploads"), deps.Uploads.Upload)
	api.GET("/files/:token", deps.Uploads.Download)

	return r
}
