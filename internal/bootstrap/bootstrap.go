package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/cupuri/portal-backend/internal/app/controllers"
	appMigrations "github.com/cupuri/portal-backend/internal/app/migrations"
	appRepos "github.com/cupuri/portal-backend/internal/app/repositories"
	appRoutes "github.com/cupuri/portal-backend/internal/app/routes"
	appServices "github.com/cupuri/portal-backend/internal/app/services"
	"github.com/cupuri/portal-backend/internal/config"
	"github.com/cupuri/portal-backend/internal/db"
	appMiddleware "github.com/cupuri/portal-backend/internal/middleware"
	pkgAuth "github.com/cupuri/portal-backend/internal/pkg/auth"
	"github.com/cupuri/portal-backend/internal/pkg/blobstore"
	"github.com/cupuri/portal-backend/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	ExamService    appServices.ExamService
	ExamController *appControllers.ExamController
	AuthMiddleware *appMiddleware.AuthMiddleware
	ExamRepo       *appRepos.ExamRepository
	JWTService     *pkgAuth.JWTService
	LocalStore     *blobstore.LocalStore
	Cloudinary     *blobstore.CloudinaryStore // nil unless configured
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return dbPool, nil
}

// BuildDependencies initializes repositories, storage backends, services and
// controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.ExamRepo = appRepos.NewExamRepository(dbPool)

	// Local storage is always available; even with the Cloudinary driver it
	// keeps serving records uploaded before the switch.
	local, err := blobstore.NewLocalStore(cfg.Storage.LocalPath)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize local storage")
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}
	deps.LocalStore = local

	if cfg.Cloudinary.CloudName != "" {
		cloud, err := blobstore.NewCloudinaryStore(
			cfg.Cloudinary.CloudName,
			cfg.Cloudinary.APIKey,
			cfg.Cloudinary.APISecret,
			cfg.Cloudinary.Folder,
		)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize Cloudinary storage")
			return nil, fmt.Errorf("failed to initialize Cloudinary storage: %w", err)
		}
		deps.Cloudinary = cloud
	}

	var uploads blobstore.Store = local
	if cfg.Storage.Driver == config.StorageDriverCloudinary {
		if deps.Cloudinary == nil {
			return nil, fmt.Errorf("storage driver %q requires Cloudinary credentials", cfg.Storage.Driver)
		}
		uploads = deps.Cloudinary
	}
	lgr.Info().Str("driver", cfg.Storage.Driver).Msg("Storage configured")

	var signer appServices.RemoteSigner
	if deps.Cloudinary != nil {
		signer = deps.Cloudinary
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenIssuer: cfg.JWT.Issuer,
	})

	deps.ExamService = appServices.NewExamService(deps.ExamRepo, uploads, local, signer)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.ExamController = appControllers.NewExamController(deps.ExamService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.ExamController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
