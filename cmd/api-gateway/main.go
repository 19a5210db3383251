package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/maplewood-sis/scheduling-api/api/swagger"
	"github.com/maplewood-sis/scheduling-api/internal/handler"
	"github.com/maplewood-sis/scheduling-api/internal/middleware"
	"github.com/maplewood-sis/scheduling-api/internal/repository"
	"github.com/maplewood-sis/scheduling-api/internal/service"
	"github.com/maplewood-sis/scheduling-api/pkg/cache"
	"github.com/maplewood-sis/scheduling-api/pkg/config"
	"github.com/maplewood-sis/scheduling-api/pkg/database"
	"github.com/maplewood-sis/scheduling-api/pkg/export"
	"github.com/maplewood-sis/scheduling-api/pkg/logger"
	corsmiddleware "github.com/maplewood-sis/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/maplewood-sis/scheduling-api/pkg/middleware/requestid"
)

// @title Maplewood Scheduling API
// @version 1.0.0
// @description Master schedule generation and student enrollment service
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ScheduleTTL, logr, cfg.Cache.Enabled)

	semesterRepo := repository.NewSemesterRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	generatorSvc := service.NewScheduleGeneratorService(
		semesterRepo, courseRepo, teacherRepo, classroomRepo, sectionRepo,
		db, cacheSvc, metricsSvc, nil, logr,
		service.GeneratorConfig{
			MaxSectionSize:  cfg.Scheduler.MaxSectionSize,
			MinSections:     cfg.Scheduler.MinSections,
			BacktrackBudget: cfg.Scheduler.BacktrackBudget,
		},
	)
	planningSvc := service.NewPlanningService(
		studentRepo, semesterRepo, sectionRepo, enrollmentRepo, courseRepo,
		service.NewProgressCalculator(), cacheSvc, metricsSvc, nil, logr,
		cfg.Enrollment.MaxSectionsPerSemester,
	)
	reportingSvc := service.NewReportingService(semesterRepo, sectionRepo, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, logr)
	exportSvc := service.NewExportService(generatorSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	scheduleHandler := handler.NewScheduleHandler(generatorSvc, exportSvc)
	planningHandler := handler.NewPlanningHandler(planningSvc)
	reportingHandler := handler.NewReportingHandler(reportingSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/semesters", semesterHandler.List)
		api.GET("/semesters/:semesterId", semesterHandler.Get)

		api.POST("/semesters/:semesterId/schedule/generate", scheduleHandler.Generate)
		api.GET("/semesters/:semesterId/schedule", scheduleHandler.Get)
		if cfg.Export.Enabled {
			api.GET("/semesters/:semesterId/schedule/export", scheduleHandler.Export)
		}

		api.GET("/semesters/:semesterId/reports/teacher-workload", reportingHandler.TeacherWorkloads)
		api.GET("/semesters/:semesterId/reports/room-usage", reportingHandler.RoomUsages)

		api.GET("/students/:studentId/plan", planningHandler.Plan)
		api.POST("/students/:studentId/enrollments", planningHandler.Enroll)
		api.GET("/students/:studentId/progress", planningHandler.Progress)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
