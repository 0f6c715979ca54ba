package main

import (
	"context"
	"flag"
	"os"
	"time"

	"learnflow/backend/cache"
	"learnflow/backend/config"
	"learnflow/backend/content"
	"learnflow/backend/middleware"
	"learnflow/backend/routes"
	"learnflow/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	importFile := flag.String("import", "", "import a YAML course definition and exit")
	importAuthor := flag.Uint("author", 0, "author user id for -import")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		EnableColors: cfg.LogColors,
	})
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}

	if *importFile != "" {
		if err := importCourse(db, *importFile, *importAuthor, logger); err != nil {
			logger.Fatal("Course import failed", zap.String("file", *importFile), zap.Error(err))
		}
		return
	}

	c := openCache(cfg, logger)
	if closer, ok := c.(*cache.RedisCache); ok {
		defer closer.Close()
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders: middleware.HeaderRequestID,
	}))
	app.Use(middleware.LoggingMiddleware(logger.Named("http")))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, c, logger)

	logger.Info("Starting server", zap.String("port", cfg.ServerPort), zap.String("db_driver", cfg.DBDriver))
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

// openCache falls back to no caching when Redis is not configured or
// unreachable.
func openCache(cfg *config.Config, logger *zap.Logger) cache.Cache {
	if cfg.RedisURL == "" {
		logger.Info("Redis not configured, caching disabled")
		return cache.Nop{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		return cache.Nop{}
	}
	return rc
}

func importCourse(db *gorm.DB, path string, authorID uint, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	file, problems, err := content.ParseCourseFile(data)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		for field, msg := range problems {
			logger.Error("Invalid course definition", zap.String("field", field), zap.String("problem", msg))
		}
		return content.ErrInvalidCourseFile
	}

	course, err := content.NewImporter(db).Import(context.Background(), file, authorID)
	if err != nil {
		return err
	}
	logger.Info("Course imported", zap.Uint("course_id", course.ID), zap.String("title", course.Title))
	return nil
}
