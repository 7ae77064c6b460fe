package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/config"
	"github.com/formpilot/formpilot/database"
	_ "github.com/formpilot/formpilot/docs" // Swagger docs
	adminctrl "github.com/formpilot/formpilot/internal/controller/admin"
	authctrl "github.com/formpilot/formpilot/internal/controller/auth"
	publicctrl "github.com/formpilot/formpilot/internal/controller/public"
	"github.com/formpilot/formpilot/internal/logger"
	"github.com/formpilot/formpilot/internal/middleware"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/repository"
	"github.com/formpilot/formpilot/internal/service"
)

// @title FormPilot API
// @version 1.0
// @description Form builder backend: public form display and submission, admin form management, exports and email blasts.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewFormRepository,
			repository.NewSubmissionRepository,
			repository.NewUserRepository,
			repository.NewBlastRepository,
		),

		fx.Provide(
			service.NewResponseValidator,
			service.NewMailer,
			service.NewSideEffectRunner,
			service.NewSubmissionService,
			service.NewFormService,
			service.NewPublicFormService,
			service.NewAuthService,
			service.NewExportService,
			service.NewBlastService,
		),

		fx.Provide(
			adminctrl.NewFormController,
			adminctrl.NewSubmissionController,
			adminctrl.NewBlastController,
			authctrl.NewAuthController,
			publicctrl.NewFormController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(SeedDefaultAdmin),
		fx.Invoke(StartBlastWorker),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Uploaded banners are served directly off disk.
	r.Static("/uploads", cfg.Upload.Dir)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the route tree and manages the HTTP
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authCtrl *authctrl.AuthController,
	publicFormCtrl *publicctrl.FormController,
	adminFormCtrl *adminctrl.FormController,
	adminSubCtrl *adminctrl.SubmissionController,
	adminBlastCtrl *adminctrl.BlastController,
) {
	api := router.Group("/api/v1")

	api.POST("/auth/login", authCtrl.Login)

	publicGroup := api.Group("/public")
	{
		publicGroup.GET("/forms/displayed", publicFormCtrl.GetDisplayedForm)
		publicGroup.GET("/forms/:id", publicFormCtrl.GetForm)
		publicGroup.POST("/forms/:id/submissions", publicFormCtrl.Submit)
	}

	adminGroup := api.Group("/admin", middleware.RequireAuth(cfg))
	{
		adminGroup.POST("/forms", adminFormCtrl.CreateForm)
		adminGroup.GET("/forms", adminFormCtrl.ListForms)
		adminGroup.GET("/forms/:id", adminFormCtrl.GetForm)
		adminGroup.PUT("/forms/:id", adminFormCtrl.UpdateForm)
		adminGroup.DELETE("/forms/:id", adminFormCtrl.DeleteForm)
		adminGroup.PUT("/forms/:id/display", adminFormCtrl.SetDisplayed)
		adminGroup.POST("/forms/:id/banner", adminFormCtrl.UploadBanner)

		adminGroup.GET("/forms/:id/submissions", adminSubCtrl.ListSubmissions)
		adminGroup.GET("/forms/:id/export", adminSubCtrl.ExportSubmissions)
		adminGroup.GET("/submissions/:id", adminSubCtrl.GetSubmission)
		adminGroup.PUT("/submissions/:id", adminSubCtrl.UpdateSubmission)
		adminGroup.DELETE("/submissions/:id", adminSubCtrl.DeleteSubmission)

		adminGroup.POST("/forms/:id/blast", adminBlastCtrl.CreateBlast)
		adminGroup.GET("/blasts/:id", adminBlastCtrl.GetBlast)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("FormPilot API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Form{},
		&model.Submission{},
		&model.EmailBlast{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

func SeedDefaultAdmin(authService service.AuthService) error {
	return authService.EnsureDefaultAdmin()
}

// StartBlastWorker ties the blast worker to the application lifecycle.
func StartBlastWorker(lc fx.Lifecycle, blastService service.BlastService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			blastService.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			blastService.Stop()
			return nil
		},
	})
}
