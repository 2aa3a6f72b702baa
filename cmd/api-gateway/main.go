package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/academix-io/academix-api/api/swagger"
	"github.com/academix-io/academix-api/internal/handler"
	"github.com/academix-io/academix-api/internal/middleware"
	"github.com/academix-io/academix-api/internal/models"
	"github.com/academix-io/academix-api/internal/repository"
	"github.com/academix-io/academix-api/internal/service"
	"github.com/academix-io/academix-api/pkg/cache"
	"github.com/academix-io/academix-api/pkg/config"
	"github.com/academix-io/academix-api/pkg/database"
	"github.com/academix-io/academix-api/pkg/jobs"
	"github.com/academix-io/academix-api/pkg/logger"
	corsmiddleware "github.com/academix-io/academix-api/pkg/middleware/cors"
	reqidmiddleware "github.com/academix-io/academix-api/pkg/middleware/requestid"
	"github.com/academix-io/academix-api/pkg/storage"
)

// @title Academix API
// @version 0.1.0
// @description Academic administration and grading engine
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	cacheEnabled := cfg.Grading.CacheEnabled
	var cacheRepo service.CacheRepository
	if cacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, grade report cache disabled", "error", err)
			cacheEnabled = false
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Grading.ReportCacheTTL, logr, cacheEnabled)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	weightRepo := repository.NewWeightRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	summaryRepo := repository.NewGradeSummaryRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academix-api",
	})
	studentService := service.NewStudentService(studentRepo, nil, logr)
	professorService := service.NewProfessorService(professorRepo, nil, logr)
	courseService := service.NewCourseService(courseRepo, professorRepo, nil, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, nil, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, enrollmentRepo, nil, logr)
	weightService := service.NewWeightService(weightRepo, courseRepo, nil, logr)
	scoreService := service.NewScoreService(scoreRepo, enrollmentRepo, weightRepo, nil, logr)
	gradeReportService := service.NewGradeReportService(summaryRepo, scoreService, cacheService, cfg.Grading.ReportCacheTTL, logr)
	resolverService := service.NewGradeResolverService(summaryRepo, weightRepo, scoreService, enrollmentRepo, gradeReportService, nil, logr)

	var reportService *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportService = service.NewReportService(reportRepo, summaryRepo, attendanceRepo, store, signer, nil, logr)
		reportQueue = jobs.NewQueue("reports", reportService.ProcessJob, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportService.AttachQueue(reportQueue)
		reportQueue.Start(ctx)
		defer reportQueue.Stop()

		if err := reportService.RecoverPending(ctx); err != nil {
			logr.Sugar().Warnw("failed to recover pending report jobs", "error", err)
		}

		go func() {
			ticker := time.NewTicker(cfg.Reports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					reportService.CleanupExpired(ctx, cfg.Reports.SignedURLTTL)
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(studentService)
	professorHandler := handler.NewProfessorHandler(professorService)
	courseHandler := handler.NewCourseHandler(courseService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	weightHandler := handler.NewWeightHandler(weightService)
	gradeHandler := handler.NewGradeHandler(scoreService, resolverService)
	gradeReportHandler := handler.NewGradeReportHandler(gradeReportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleProfessor)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleProfessor, models.RoleStudent)

	students := protected.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleProfessor), "SELF"), studentHandler.Get)
		students.POST("", admin, studentHandler.Create)
		students.PUT("/:id", admin, studentHandler.Update)
		students.DELETE("/:id", admin, studentHandler.Deactivate)
	}

	professors := protected.Group("/professors")
	{
		professors.GET("", staff, professorHandler.List)
		professors.GET("/:id", staff, professorHandler.Get)
		professors.POST("", admin, professorHandler.Create)
		professors.PUT("/:id", admin, professorHandler.Update)
		professors.DELETE("/:id", admin, professorHandler.Deactivate)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", anyRole, courseHandler.List)
		courses.GET("/:id", anyRole, courseHandler.Get)
		courses.POST("", admin, courseHandler.Create)
		courses.PUT("/:id", admin, courseHandler.Update)
		courses.DELETE("/:id", admin, courseHandler.Deactivate)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", staff, enrollmentHandler.List)
		enrollments.POST("", admin, enrollmentHandler.Enroll)
		enrollments.POST("/:id/drop", staff, enrollmentHandler.Drop)
		enrollments.POST("/:id/complete", staff, enrollmentHandler.Complete)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.GET("", staff, attendanceHandler.List)
		attendance.POST("", staff, attendanceHandler.Record)
		attendance.GET("/summary/:enrollmentId", staff, attendanceHandler.Summary)
	}

	grading := protected.Group("/grading")
	{
		grading.PUT("/weights", staff, weightHandler.SetCourseWeights)
		grading.GET("/weights/:courseId", staff, weightHandler.GetCourseWeights)
		grading.PUT("/item-weights", staff, weightHandler.SetAssessmentWeight)
		grading.GET("/item-weights/:courseId", staff, weightHandler.ListAssessmentWeights)
		grading.GET("/item-weights/:courseId/item", staff, weightHandler.GetAssessmentWeight)

		grading.POST("/scores", staff, gradeHandler.UpsertScore)
		grading.GET("/scores", staff, gradeHandler.ListScores)
		grading.GET("/averages", staff, gradeHandler.NormalizedAverages)
		grading.GET("/averages/category", staff, gradeHandler.CategoryAverage)
		grading.GET("/category-totals", staff, gradeReportHandler.CategoryTotals)

		grading.POST("/resolve/:courseId", staff, gradeHandler.ResolveCourse)
		grading.POST("/resolve/:courseId/students/:studentId", staff, gradeHandler.ResolveStudent)
		grading.GET("/grades/:courseId/students/:studentId", anyRole, gradeHandler.GetStudentGrade)
		grading.POST("/final-grades", staff, gradeHandler.UpsertFinalGrade)
		grading.GET("/final-grades/:courseId/students/:studentId", anyRole, gradeHandler.GetFinalGrade)

		grading.GET("/reports/courses/:courseId", staff, gradeReportHandler.CourseReport)
		grading.GET("/transcripts/:studentId", anyRole, gradeReportHandler.Transcript)
	}

	if reportService != nil {
		reportHandler := handler.NewReportHandler(reportService)
		reports := api.Group("/reports")
		{
			reports.POST("", middleware.JWT(authService), staff, reportHandler.Generate)
			reports.GET("/:id", middleware.JWT(authService), staff, reportHandler.Status)
			reports.GET("/download/:token", reportHandler.Download)
		}
	}

	api.GET("/metrics/snapshot", middleware.JWT(authService), admin, metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
