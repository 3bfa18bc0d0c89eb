package server

import (
	"context"
	"log"
	"log/slog"
	"strings"
	"time"

	_ "solarshare/docs" // swagger docs
	"solarshare/internal/bootstrap"
	"solarshare/internal/cache"
	"solarshare/internal/config"
	"solarshare/internal/events"
	"solarshare/internal/featureflags"
	"solarshare/internal/mailer"
	"solarshare/internal/middleware"
	"solarshare/internal/models"
	"solarshare/internal/notifications"
	"solarshare/internal/repository"
	"solarshare/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          *cache.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	profileRepo   repository.ProfileRepository
	communityRepo repository.CommunityRepository
	energyRepo    repository.EnergyRepository
	quoteRepo     repository.QuoteRepository
	voteRepo      repository.VoteRepository
	projectRepo   repository.ProjectRepository
	outboxRepo    repository.OutboxRepository

	mail         mailer.Mailer
	notifier     *notifications.Notifier
	votingHub    *notifications.VotingHub
	tickets      *ticketStore
	featureFlags *featureflags.Manager
	relayer      *events.Relayer
	producer     *events.KafkaProducer

	authService      *service.AuthService
	communityService *service.CommunityService
	energyService    *service.EnergyService
	quoteService     *service.QuoteService
	votingService    *service.VotingService
	reportService    *service.ReportService
	dashboardService *service.DashboardService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{
		ApplySchema: true,
		SeedDemo:    cfg.SeedDemo,
	})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. A nil redis client disables caching, pub/sub and
// Redis-backed rate limits.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store := cache.NewStore(redisClient)
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("solarshare-api"),
		profileRepo:    repository.NewProfileRepository(db, store),
		communityRepo:  repository.NewCommunityRepository(db, store),
		energyRepo:     repository.NewEnergyRepository(db),
		quoteRepo:      repository.NewQuoteRepository(db),
		voteRepo:       repository.NewVoteRepository(db),
		projectRepo:    repository.NewProjectRepository(db),
		outboxRepo:     repository.NewOutboxRepository(db),
		mail:           mailer.New(cfg),
		notifier:       notifications.NewNotifier(redisClient),
		votingHub:      notifications.NewVotingHub(),
		tickets:        newTicketStore(redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	s.authService = service.NewAuthService(s.profileRepo, store, s.mail, service.AuthConfig{
		JWTSecret:                cfg.JWTSecret,
		TokenTTL:                 cfg.JWTTTL,
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
		PublicBaseURL:            cfg.PublicBaseURL,
	})
	s.communityService = service.NewCommunityService(s.communityRepo)
	s.energyService = service.NewEnergyService(s.energyRepo, s.communityRepo)
	s.quoteService = service.NewQuoteService(s.quoteRepo, s.communityRepo, s.profileRepo)
	s.votingService = service.NewVotingService(service.VotingDeps{
		Quotes:      s.quoteRepo,
		Votes:       s.voteRepo,
		Communities: s.communityRepo,
		Store:       store,
		Publisher:   livePublisher{notifier: s.notifier, hub: s.votingHub},
		Flags:       s.featureFlags,
	})
	s.reportService = service.NewReportService(s.communityRepo, s.projectRepo, s.energyRepo)
	s.dashboardService = service.NewDashboardService(service.DashboardDeps{
		Profiles:    s.profileRepo,
		Communities: s.communityRepo,
		Quotes:      s.quoteRepo,
		Projects:    s.projectRepo,
		Energy:      s.energyRepo,
		Flags:       s.featureFlags,
	})
	s.relayer = s.newRelayer()

	return s, nil
}

// newRelayer builds the outbox relayer. Events go to Kafka when brokers are
// configured and to the log otherwise; mail handlers hang off both.
func (s *Server) newRelayer() *events.Relayer {
	sender := events.Sender(events.LogSender)
	if brokers := s.config.KafkaBrokerList(); len(brokers) > 0 {
		s.producer = events.NewKafkaProducer(events.KafkaConfig{Brokers: brokers, Topic: s.config.KafkaTopic})
		sender = events.KafkaSender(s.producer)
	}
	r := events.NewRelayer(s.outboxRepo, sender, events.RelayerOptions{
		Interval:  s.config.OutboxRelayInterval,
		BatchSize: s.config.OutboxBatchSize,
		Logger:    middleware.Logger,
	})
	events.NewMailNotifier(s.mail, s.communityRepo, s.quoteRepo, s.config.PublicBaseURL).
		Register(r, s.featureFlags.Enabled(featureflags.ProjectMail, 0))
	return r
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so 429s still carry CORS headers.
	app.Use(cors.New(corsConfig(s.config)))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// corsConfig allows the configured front-end origins to call the API with a
// bearer token, open the live-tally WebSocket and read the trace id.
func corsConfig(cfg *config.Config) cors.Config {
	return cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOriginList(), ","),
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    "X-Trace-ID, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "SolarShare Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/confirm", s.ConfirmEmail)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/session", s.AuthRequired(), s.GetSession)

	api.Get("/energy/periods", s.GetBillingPeriods)

	// Protected routes. Auth is mounted per resource prefix, never on /api
	// itself, so unknown /api paths still reach the 404 below.
	authed := s.AuthRequired()

	api.Put("/profiles/me", authed, s.UpdateMyProfile)
	api.Get("/feature-flags", authed, s.GetFeatureFlags)

	// Community routes; specific paths before /:id
	communities := api.Group("/communities", authed)
	communities.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_community"), s.CreateCommunity)
	communities.Post("/join", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "join_community"), s.JoinCommunity)
	communities.Get("/membership/me", s.GetMyMembership)
	communities.Post("/:id/energy", s.SubmitEnergyEntries)
	communities.Post("/:id/quote-requests", s.CreateQuoteRequest)
	communities.Get("/:id/quote-requests", s.GetQuoteRequests)
	communities.Get("/:id", s.GetCommunity)

	api.Get("/energy/consumption", authed, s.GetConsumptionReport)

	// Quote and voting routes
	quoteRequests := api.Group("/quote-requests", authed)
	quoteRequests.Post("/:id/quotes", s.SubmitQuote)
	quoteRequests.Get("/:id/voting", s.GetVotingState)
	quoteRequests.Post("/:id/votes", middleware.RateLimit(
		s.redis, 30, time.Minute, "vote"), s.CastVote)
	quoteRequests.Post("/:id/end", s.EndVoting)

	// Installation projects
	projects := api.Group("/projects", authed)
	projects.Get("/tracking", s.GetInstallationTracking)
	projects.Put("/:id/progress", s.UpdateProjectProgress)

	api.Get("/dashboard", authed, s.GetUserDashboard)
	api.Get("/provider/dashboard", authed, s.GetProviderDashboard)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// Websocket endpoints - protected by AuthRequired (ticket only)
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/voting/:id", s.WebSocketVotingHandler())

	// Anything else under /api is an unknown endpoint, not a page.
	api.All("/*", func(c *fiber.Ctx) error {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundMessage("Endpoint not found"))
	})

	s.SetupPages(app)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: the app degrades to no cache and single-instance live updates.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. WebSocket routes accept
// a single-use ticket; everything else needs a bearer token that has not been
// logged out.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Nested groups run this twice; a ticket must only be consumed once.
		if _, ok := middleware.CurrentUserID(c); ok {
			return c.Next()
		}

		isWSPath := strings.HasPrefix(c.Path(), "/api/ws/") && c.Path() != "/api/ws/ticket"

		if isWSPath {
			ticket := c.Query("ticket")
			if ticket == "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("WebSocket ticket required"))
			}
			uid, ok, err := s.tickets.Consume(c.Context(), ticket)
			if err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "ws ticket lookup failed", slog.String("error", err.Error()))
			}
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			middleware.SetUser(c, uid)
			return c.Next()
		}

		tokenString := middleware.BearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.JTI != "" {
			revoked, err := s.authService.IsRevoked(c.Context(), claims.JTI)
			if err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "revocation check failed", slog.String("error", err.Error()))
			} else if revoked {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		middleware.SetUser(c, claims.UserID)
		c.Locals(claimsLocalKey, claims)
		return c.Next()
	}
}

// newApp builds the fiber app with middleware and routes.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "SolarShare API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.newApp()

	// Wire the voting hub to Redis so every instance sees every vote.
	if s.notifier.Enabled() {
		go func() {
			if err := s.votingHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.votingHub.Name(), err)
			}
		}()
	}
	go s.relayer.Run(s.shutdownCtx)

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the relayer and subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.votingHub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.votingHub.Name(), err)
	}

	if err := s.producer.Close(); err != nil {
		log.Printf("error closing kafka producer: %v", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
