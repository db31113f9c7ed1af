package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/database"
	_ "github.com/lshigami/Skillgate/docs" // Swagger docs - auto-generated
	adminctrl "github.com/lshigami/Skillgate/internal/controller/admin"
	userctrl "github.com/lshigami/Skillgate/internal/controller/user"
	"github.com/lshigami/Skillgate/internal/logger"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/lshigami/Skillgate/internal/repository"
	"github.com/lshigami/Skillgate/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Skillgate Assessment API
// @version 1.0
// @description Staged technical assessment pipeline with AI-generated content, proctoring and final reports.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,         // Provides *gin.Engine
		),

		// Repositories Layer
		fx.Provide(
			repository.NewTestRepository,
			repository.NewAttemptRepository,
			repository.NewViolationRepository,
			repository.NewDecisionRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewAttemptLocker,
			service.NewContentGenerator,
			service.NewCodeExecutor,
			service.NewSQLSandboxService,
			service.NewReportService,
			service.NewAttemptService,
			service.NewViolationService,
			service.NewTestService,
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewAdminTestController,
			adminctrl.NewAdminProctoringController,
			userctrl.NewCandidateController,
		),

		// Invokers - Functions that are executed by Fx
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.DebugMode)

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
		return "" // Zerolog already wrote the line
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminTestCtrl *adminctrl.AdminTestController,
	adminProctoringCtrl *adminctrl.AdminProctoringController,
	candidateCtrl *userctrl.CandidateController,
) {
	// Admin Routes (prefixed with /api/v1/admin)
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		testsAdminGroup := adminAPIGroup.Group("/tests")
		testsAdminGroup.POST("", adminTestCtrl.CreateTest)
		testsAdminGroup.GET("", adminTestCtrl.ListTests)
		testsAdminGroup.GET("/:test_id", adminTestCtrl.GetTest)
		testsAdminGroup.PUT("/:test_id/active", adminTestCtrl.SetTestActive)
		testsAdminGroup.DELETE("/:test_id", adminTestCtrl.DeleteTest)
		testsAdminGroup.GET("/:test_id/attempts", adminTestCtrl.ListTestAttempts)
		testsAdminGroup.PUT("/:test_id/violation-rules", adminProctoringCtrl.ConfigureTestRules)

		adminAPIGroup.GET("/candidates/:candidate_id/attempts", adminTestCtrl.ListCandidateAttempts)

		adminAPIGroup.GET("/violation-rules", adminProctoringCtrl.ListViolationRules)
		adminAPIGroup.GET("/attempts/:attempt_id/violations", adminProctoringCtrl.GetViolationSummary)
		adminAPIGroup.GET("/attempts/:attempt_id/decision", adminProctoringCtrl.GetDecision)
		adminAPIGroup.GET("/disqualifications/pending", adminProctoringCtrl.ListPendingReviews)
		adminAPIGroup.POST("/disqualifications/:decision_id/review", adminProctoringCtrl.ReviewDecision)
	}

	// Candidate Routes (prefixed with /api/v1)
	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/tests", candidateCtrl.ListActiveTests)
		userAPIGroup.POST("/tests/:test_id/attempts", candidateCtrl.StartAttempt)

		attemptsGroup := userAPIGroup.Group("/attempts/:attempt_id")
		attemptsGroup.GET("", candidateCtrl.GetAttempt)
		attemptsGroup.POST("/stages/:stage/activate", candidateCtrl.ActivateStage)
		attemptsGroup.POST("/stages/:stage/submissions", candidateCtrl.SubmitStageWork)
		attemptsGroup.POST("/stages/:stage/finish", candidateCtrl.FinishStage)
		attemptsGroup.POST("/interview/answers", candidateCtrl.AnswerInterview)
		attemptsGroup.POST("/playground/sql", candidateCtrl.RunQuery)
		attemptsGroup.POST("/violations", candidateCtrl.RecordViolation)

		userAPIGroup.POST("/playground/code", candidateCtrl.RunCode)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Skillgate Assessment API server starting on port %s", cfg.Server.Port)
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

func AutoMigrateDB(db *gorm.DB, violationRepo repository.ViolationRepository) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Test{},
		&model.Attempt{},
		&model.ViolationRule{},
		&model.TestViolationConfig{},
		&model.ViolationEvent{},
		&model.DisqualificationDecision{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	if err := violationRepo.SeedRules(model.DefaultViolationRules()); err != nil {
		log.Error().Err(err).Msg("Seeding violation rules failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
