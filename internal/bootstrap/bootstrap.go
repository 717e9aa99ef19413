package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/tutorlog/sessionlog/internal/app/controllers"
	appMigrations "github.com/tutorlog/sessionlog/internal/app/migrations"
	appRepos "github.com/tutorlog/sessionlog/internal/app/repositories"
	appRoutes "github.com/tutorlog/sessionlog/internal/app/routes"
	appServices "github.com/tutorlog/sessionlog/internal/app/services"
	"github.com/tutorlog/sessionlog/internal/config"
	"github.com/tutorlog/sessionlog/internal/db"
	appMiddleware "github.com/tutorlog/sessionlog/internal/middleware"
	pkgAuth "github.com/tutorlog/sessionlog/internal/pkg/auth"
	"github.com/tutorlog/sessionlog/internal/pkg/fastbill"
	"github.com/tutorlog/sessionlog/internal/pkg/filestorage"
	"github.com/tutorlog/sessionlog/internal/pkg/helpers"
	"github.com/tutorlog/sessionlog/internal/pkg/logger"
	"github.com/tutorlog/sessionlog/internal/pkg/metrics"
)

// ConfigPath is where the optional YAML configuration is read from
var ConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService     appServices.AuthService
	CustomerService appServices.CustomerService
	StudentService  appServices.StudentService
	SessionService  appServices.SessionService
	BillingService  appServices.BillingService

	AuthController     *appControllers.AuthController
	SessionController  *appControllers.SessionController
	CustomerController *appControllers.CustomerController
	StudentController  *appControllers.StudentController
	SystemController   *appControllers.SystemController

	AuthMiddleware *appMiddleware.AuthMiddleware
	CSRF           *appMiddleware.CSRF
	LoginLimiter   *appMiddleware.IPRateLimiter
	GeneralLimiter *appMiddleware.IPRateLimiter

	Repos      *appRepos.Repositories
	JWTService *pkgAuth.JWTService
	Store      *filestorage.Store
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}
	lgr := SetupLogger(cfg)
	return cfg, lgr, nil
}

// SetupLogger configures the process-wide logger from cfg
func SetupLogger(cfg *config.Config) zerolog.Logger {
	lgr := logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: strings.EqualFold(cfg.Logging.Format, "text"),
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return lgr
}

// ConnectDatabase opens and pings the connection pool
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
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
	return dbPool, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	dbPool, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(context.Background(), dbPool, lgr); err != nil {
		dbPool.Close()
		return nil, err
	}
	return dbPool, nil
}

// RunMigrations applies all pending embedded migrations
func RunMigrations(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	migrator, err := appMigrations.NewMigrator(dbPool, lgr)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	if err := migrator.Up(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// NewBillingSource returns the FastBill client, or nil when credentials are absent
func NewBillingSource(cfg *config.Config, lgr zerolog.Logger) (appServices.CustomerSource, error) {
	if !cfg.FastbillConfigured() {
		lgr.Warn().Msg("FastBill credentials not configured, customer sync disabled")
		return nil, nil
	}
	client, err := fastbill.NewClient(fastbill.Config{
		APIURL:  cfg.Fastbill.APIURL,
		Email:   cfg.Fastbill.Email,
		APIKey:  cfg.Fastbill.APIKey,
		Timeout: helpers.ParseDuration(cfg.Fastbill.Timeout, 30*time.Second),
	}, logger.Component("fastbill"))
	if err != nil {
		return nil, fmt.Errorf("failed to create FastBill client: %w", err)
	}
	return client, nil
}

// NewStore builds proof storage: R2 with local fallback when configured, local disk otherwise
func NewStore(cfg *config.Config, m *metrics.Metrics, lgr zerolog.Logger) (*filestorage.Store, error) {
	local, err := filestorage.NewLocalStorage(cfg.Storage.Path, logger.Component("storage.local"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	var remote filestorage.FileStorage
	r2cfg := filestorage.R2Config{
		EndpointURL:     cfg.R2.EndpointURL,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
	}
	if r2cfg.Complete() {
		r2, err := filestorage.NewR2Storage(r2cfg, logger.Component("storage.r2"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 storage: %w", err)
		}
		remote = r2
	}

	store := filestorage.NewStore(local, remote, lgr)
	store.OnFallback(func(error) { m.StorageFallback() })
	lgr.Info().Str("primary", string(store.Primary())).Str("path", cfg.Storage.Path).Msg("Proof storage configured")
	return store, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Metrics: metrics.New()}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.Store, err = NewStore(cfg, deps.Metrics, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, err
	}

	billingSource, err := NewBillingSource(cfg, lgr)
	if err != nil {
		return nil, err
	}

	sessionTTL := helpers.ParseDuration(cfg.Auth.SessionTTL, 8*time.Hour)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.Auth.SecretKey,
		SessionTTL:  sessionTTL,
		TokenIssuer: cfg.Auth.Issuer,
	})

	// Initialize services
	deps.AuthService = appServices.NewAuthService(
		appServices.AdminCredentials{Username: cfg.Auth.AdminUsername, PasswordHash: cfg.Auth.AdminPassword},
		deps.JWTService,
		deps.Metrics,
		logger.Component("auth"),
	)
	deps.CustomerService = appServices.NewCustomerService(deps.Repos.CustomerRepository, logger.Component("customers"))
	deps.StudentService = appServices.NewStudentService(deps.Repos.StudentRepository, deps.Repos.CustomerRepository, logger.Component("students"))
	deps.SessionService = appServices.NewSessionService(
		deps.Repos.SessionRepository,
		appServices.NewSessionTx(dbPool, deps.Repos.SessionRepository),
		deps.Repos.StudentRepository,
		deps.Store,
		appServices.SessionConfig{
			PresignTTL: helpers.ParseDuration(cfg.Storage.PresignTTL, time.Hour),
			ProofRoute: func(id int64) string { return "/sessions/" + strconv.FormatInt(id, 10) + "/proof" },
		},
		deps.Metrics,
		logger.Component("sessions"),
	)
	deps.BillingService = appServices.NewBillingService(billingSource, deps.Repos.CustomerRepository, deps.Metrics, logger.Component("billing"))

	// Middleware
	secure := cfg.SecureCookies()
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService)
	deps.CSRF = appMiddleware.NewCSRF(cfg.Auth.SecretKey, secure, int(sessionTTL.Seconds()))
	deps.LoginLimiter = appMiddleware.NewIPRateLimiter("login", cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, deps.Metrics)
	deps.GeneralLimiter = appMiddleware.NewIPRateLimiter("general", cfg.RateLimit.GeneralPerMinute, cfg.RateLimit.GeneralBurst, deps.Metrics)

	// Controllers
	deps.AuthController = appControllers.NewAuthController(
		deps.AuthService,
		appControllers.CookieConfig{Secure: secure, TTL: sessionTTL},
		lgr,
	)
	deps.SessionController = appControllers.NewSessionController(deps.SessionService, cfg.Server.MaxUploadBytes, lgr)
	deps.CustomerController = appControllers.NewCustomerController(deps.CustomerService, deps.BillingService, lgr)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService, lgr)
	deps.SystemController = appControllers.NewSystemController(dbPool, deps.CSRF, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	} else {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	router.Use(
		appMiddleware.RequestLogger(logger.Component("http"), deps.Metrics),
		appMiddleware.Recovery(lgr),
		appMiddleware.SecurityHeaders(cfg.SecureCookies()),
		appMiddleware.CORS(cfg.CORS.Origins),
		deps.GeneralLimiter.Middleware(),
		deps.CSRF.Protect(),
	)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.SessionController,
		deps.CustomerController,
		deps.StudentController,
		deps.SystemController,
		deps.AuthMiddleware,
		deps.LoginLimiter,
		deps.Metrics.Handler(),
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router, nil
}
