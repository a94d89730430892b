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
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	appAuth "github.com/christiangarcia0311/stream-server/internal/app/auth"
	appControllers "github.com/christiangarcia0311/stream-server/internal/app/controllers"
	appMigrations "github.com/christiangarcia0311/stream-server/internal/app/migrations"
	appModels "github.com/christiangarcia0311/stream-server/internal/app/models"
	appRepos "github.com/christiangarcia0311/stream-server/internal/app/repositories"
	appRoutes "github.com/christiangarcia0311/stream-server/internal/app/routes"
	appServices "github.com/christiangarcia0311/stream-server/internal/app/services"
	"github.com/christiangarcia0311/stream-server/internal/config"
	"github.com/christiangarcia0311/stream-server/internal/db"
	appMiddleware "github.com/christiangarcia0311/stream-server/internal/middleware"
	pkgAuth "github.com/christiangarcia0311/stream-server/internal/pkg/auth"
	"github.com/christiangarcia0311/stream-server/internal/pkg/helpers"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
	"github.com/christiangarcia0311/stream-server/internal/pkg/session"
	"github.com/christiangarcia0311/stream-server/internal/pkg/telemetry"
	"github.com/christiangarcia0311/stream-server/internal/pkg/validation"
	"github.com/christiangarcia0311/stream-server/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService         appServices.AuthService
	UserService         appServices.UserService
	CommunityService    appServices.CommunityService
	ContentService      appServices.ContentService
	NotificationService appServices.NotificationService
	FeedService         appServices.FeedService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	Sessions       *session.RedisStore
	JWTService     *pkgAuth.JWTService
	Hasher         *pkgAuth.PasswordHasher
	AuthzService   *appAuth.AuthorizationService
	Logger         zerolog.Logger
}

// ConfigPath returns the config file location, overridable with CONFIG_PATH.
func ConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join("configs", "config.yaml")
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: cfg.Telemetry.ServiceName,
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Pool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	sessions, err := session.NewRedisStore(ctx, cfg.Redis.URL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to redis")
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	deps.Sessions = sessions

	deps.Repos = appRepos.NewRepositories(database)
	deps.Hasher = pkgAuth.NewPasswordHasher()

	// Create Default Data (after migrations)
	su := seed.Superuser{
		Username: cfg.Seed.SuperuserUsername,
		Email:    cfg.Seed.SuperuserEmail,
		Password: cfg.Seed.SuperuserPassword,
	}
	if err := seed.CreateDefaultData(ctx, deps.Repos.UserRepository, deps.Hasher, su, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.MembershipRepository)

	cooldowns := appModels.Cooldowns{
		Details:  helpers.ParseDuration(cfg.Profile.DetailsCooldown, appModels.DefaultCooldowns.Details),
		Password: helpers.ParseDuration(cfg.Profile.PasswordCooldown, appModels.DefaultCooldowns.Password),
	}
	contentPolicy := validation.ContentPolicy{
		PostMinTitleLen:   cfg.Content.PostMinTitleLen,
		PostMinContentLen: cfg.Content.PostMinContentLen,
		CommentMinLen:     cfg.Content.CommentMinLen,
		ReplyMinLen:       cfg.Content.ReplyMinLen,
	}
	membershipPolicy := appServices.MembershipPolicy{GuardDemotion: cfg.Membership.GuardDemotion}

	deps.NotificationService = appServices.NewNotificationService(
		deps.Repos.NotificationRepository,
		deps.Repos.FollowRepository,
		deps.Repos.UserRepository,
		lgr,
	)
	deps.AuthService = appServices.NewAuthService(
		database,
		deps.Repos.UserRepository,
		deps.Sessions,
		deps.JWTService,
		deps.Hasher,
		lgr,
	)
	deps.UserService = appServices.NewUserService(
		database,
		deps.Repos.UserRepository,
		deps.Repos.FollowRepository,
		deps.NotificationService,
		deps.Hasher,
		cooldowns,
		lgr,
	)
	deps.CommunityService = appServices.NewCommunityService(
		database,
		deps.Repos.CommunityRepository,
		deps.Repos.MembershipRepository,
		deps.AuthzService,
		membershipPolicy,
		lgr,
	)
	deps.ContentService = appServices.NewContentService(
		database,
		deps.Repos.PostRepository,
		deps.Repos.CommentRepository,
		deps.Repos.ReplyRepository,
		deps.Repos.LikeRepository,
		deps.Repos.CommunityRepository,
		deps.AuthzService,
		deps.NotificationService,
		contentPolicy,
		lgr,
	)
	deps.FeedService = appServices.NewFeedService(deps.Repos.NotificationRepository, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService)

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.AuthService, lgr),
		User:         appControllers.NewUserController(deps.UserService),
		Community:    appControllers.NewCommunityController(deps.CommunityService),
		Content:      appControllers.NewContentController(deps.ContentService),
		Notification: appControllers.NewNotificationController(deps.FeedService),
	}

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

	appMiddleware.RegisterValidators()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Telemetry.ServiceName),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(cfg.CORS.AllowedOrigins),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

// TelemetryConfig maps the telemetry section onto the tracer setup.
func TelemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	}
}
