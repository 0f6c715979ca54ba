package routes

import (
	"learnflow/backend/cache"
	"learnflow/backend/completion"
	"learnflow/backend/config"
	"learnflow/backend/content"
	"learnflow/backend/controllers"
	"learnflow/backend/learning"
	"learnflow/backend/middleware"
	"learnflow/backend/progress"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, c cache.Cache, logger *zap.Logger) {
	contentStore := content.NewGormStore(db)
	progressStore := progress.NewGormStore(db)
	enrollments := completion.NewGormEnrollments(db)
	facts := progress.NewCachedFacts(progressStore, c, cfg.CacheTTL, logger.Named("facts"))
	quizzes := content.NewQuizService(contentStore, c, cfg.CacheTTL, logger.Named("quiz"))
	recorder := completion.NewRecorder(contentStore, progressStore, facts, enrollments, logger.Named("completion"))

	learn := learning.NewService(learning.Config{
		Content:      contentStore,
		Quizzes:      quizzes,
		Progress:     progressStore,
		Facts:        facts,
		Recorder:     recorder,
		Enrollments:  enrollments,
		WriteTimeout: cfg.ProgressWriteTimeout,
		Log:          logger.Named("learning"),
	})

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, logger)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware()

	// User routes
	userController := controllers.NewUserController(db, progressStore, logger)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)

	// Progress routes
	progressController := controllers.NewProgressController(learn, progressStore, logger)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetProgressOverview)

	// Courses and learn routes
	coursesController := controllers.NewCoursesController(learn, contentStore, enrollments, progressStore, logger)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.GetUserCourses)
	courses.Post("/:id/enroll", coursesController.Enroll)
	courses.Get("/:id/learn", coursesController.Learn)
	courses.Post("/:id/chapters/:chapterId/next", coursesController.ChapterNext)
	courses.Post("/:id/chapters/:chapterId/complete", progressController.CompleteChapter)
	courses.Get("/:id/sections/:sectionId/quiz", coursesController.GetQuiz)
	courses.Post("/:id/sections/:sectionId/quiz/attempts", progressController.SubmitQuizAttempt)
	courses.Post("/:id/finish", progressController.FinishCourse)

	// Admin routes for courses
	analyticsController := controllers.NewAnalyticsController(contentStore, progressStore, content.NewImporter(db), logger)
	adminCourses := app.Group("/api/admin/courses", authMiddleware, adminMiddleware)
	adminCourses.Post("/import", analyticsController.ImportCourse)
	adminCourses.Get("/:id/analytics", analyticsController.GetCourseAnalytics)
	adminCourses.Get("/:id/analytics/export", analyticsController.ExportCourseAnalytics)
}
