package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-salon/internal/appointment"
	"github.com/noah-isme/backend-salon/internal/auth"
	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/config"
	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/health"
	"github.com/noah-isme/backend-salon/internal/inventory"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/order"
	"github.com/noah-isme/backend-salon/internal/ratelimit"
	"github.com/noah-isme/backend-salon/internal/reminder"
	"github.com/noah-isme/backend-salon/internal/report"
	"github.com/noah-isme/backend-salon/internal/security"
	"github.com/noah-isme/backend-salon/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "salon")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "salon-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "salon-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	catalogStore := &catalog.Store{Pool: pool}
	catalogSvc := &catalog.Svc{
		Store:        catalogStore,
		Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		DefaultLimit: cfg.DefaultPageSize,
		MaxLimit:     cfg.MaxPageSize,
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc, Validate: validate}

	inventorySvc := &inventory.Svc{
		Store:    &inventory.Store{Pool: pool},
		OnChange: catalogSvc.Invalidate,
	}
	inventoryHandler := &inventory.Handler{
		Svc:          inventorySvc,
		Validate:     validate,
		DefaultLimit: cfg.DefaultPageSize,
		MaxLimit:     cfg.MaxPageSize,
	}

	authService, err := auth.NewService(auth.Config{
		Store:          &auth.Store{Pool: pool},
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Service:      authService,
		Validate:     validate,
		DefaultLimit: cfg.DefaultPageSize,
	}
	authMiddleware := auth.Middleware{Service: authService}

	customerHandler := &customer.Handler{
		Store:        &customer.Store{Pool: pool},
		Validate:     validate,
		DefaultLimit: cfg.DefaultPageSize,
	}

	orderStore := &order.Store{Pool: pool}
	orderSvc := &order.Service{
		Store:   orderStore,
		Catalog: catalogStore,
		Stock:   inventorySvc,
		Log:     logger,
	}
	orderHandler := &order.Handler{
		Svc:          orderSvc,
		Validate:     validate,
		DefaultLimit: cfg.DefaultPageSize,
	}

	appointmentHandler := &appointment.Handler{
		Store:        &appointment.Store{Pool: pool},
		Validate:     validate,
		DefaultLimit: cfg.DefaultPageSize,
		Location:     salonLocation(),
	}

	reminderHandler := &reminder.Handler{
		Store:        &reminder.Store{Pool: pool},
		Orders:       orderStore,
		Validate:     validate,
		DefaultLimit: cfg.DefaultPageSize,
	}

	reportSvc := &report.Svc{
		Queries: &report.Store{Pool: pool},
		Cache:   catalog.NewCache(redisClient, cfg.ReportCacheTTL),
	}
	reportHandler := &report.Handler{Svc: reportSvc}

	settingsHandler := &settings.Handler{
		Store:    &settings.Store{Pool: pool},
		Validate: validate,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	loginLimiter, err := ratelimit.New(redisClient, cfg.LoginRateLimit, "rl:login")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise login rate limiter")
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", false)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimiter).Post("/login", authHandler.Login)

			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", authHandler.Me)
				protected.Put("/profile", authHandler.UpdateProfile)
				protected.Put("/change-password", authHandler.ChangePassword)

				protected.Route("/users", func(u chi.Router) {
					u.Use(auth.RequireRole(auth.RoleAdmin))
					u.Get("/", authHandler.ListUsers)
					u.Post("/", authHandler.CreateUser)
					u.Get("/{id}", authHandler.GetUser)
					u.Put("/{id}", authHandler.UpdateUser)
					u.Put("/{id}/password", authHandler.SetUserPassword)
					u.Delete("/{id}", authHandler.DeactivateUser)
				})
			})
		})

		v.Group(func(g chi.Router) {
			g.Use(authMiddleware.RequireAuth)

			g.Route("/customers", func(c chi.Router) {
				c.Get("/", customerHandler.List)
				c.Post("/", customerHandler.Create)
				c.Get("/birthday/{month}", customerHandler.Birthdays)
				c.Get("/{id}", customerHandler.Get)
				c.Put("/{id}", customerHandler.Update)
				c.Delete("/{id}", customerHandler.Delete)
				c.Get("/{id}/history", customerHandler.History)
			})

			g.Route("/categories", func(c chi.Router) {
				c.Get("/", catalogHandler.ListCategories)
				c.Post("/", catalogHandler.CreateCategory)
				c.Get("/{id}", catalogHandler.GetCategory)
				c.Put("/{id}", catalogHandler.UpdateCategory)
				c.Delete("/{id}", catalogHandler.DeleteCategory)
			})

			g.Route("/services", func(s chi.Router) {
				s.Get("/", catalogHandler.ListServices)
				s.Post("/", catalogHandler.CreateService)
				s.Get("/{id}", catalogHandler.GetService)
				s.Put("/{id}", catalogHandler.UpdateService)
				s.Delete("/{id}", catalogHandler.DeleteService)
			})

			g.Route("/products", func(p chi.Router) {
				p.Get("/", catalogHandler.ListProducts)
				p.Post("/", catalogHandler.CreateProduct)
				p.Get("/stock-movements", inventoryHandler.ListStockMovements)
				p.Get("/{id}", catalogHandler.GetProduct)
				p.Put("/{id}", catalogHandler.UpdateProduct)
				p.Delete("/{id}", catalogHandler.DeleteProduct)
				p.Post("/{id}/stock/add", inventoryHandler.AddStock)
				p.Post("/{id}/stock/adjust", inventoryHandler.AdjustStock)
				p.Post("/{id}/stock/preview", inventoryHandler.PreviewStock)
				p.Get("/{id}/stock-history", inventoryHandler.StockHistory)
			})

			g.Route("/orders", func(o chi.Router) {
				o.With(idem.Middleware).Post("/", orderHandler.Create)
				o.Post("/preview", orderHandler.Preview)
				o.Get("/", orderHandler.List)
				o.Get("/{id}", orderHandler.Get)
				o.Put("/{id}", orderHandler.Update)
				o.Patch("/{id}/status", orderHandler.SetStatus)
				o.Delete("/{id}", orderHandler.Delete)
			})

			g.Route("/appointments", func(a chi.Router) {
				a.Get("/", appointmentHandler.List)
				a.Post("/", appointmentHandler.Create)
				a.Get("/calendar", appointmentHandler.Calendar)
				a.Get("/{id}", appointmentHandler.Get)
				a.Put("/{id}", appointmentHandler.Update)
				a.Patch("/{id}/status", appointmentHandler.SetStatus)
				a.Delete("/{id}", appointmentHandler.Delete)
			})

			g.Route("/reminders", func(rem chi.Router) {
				rem.Get("/", reminderHandler.List)
				rem.Post("/", reminderHandler.Create)
				rem.Get("/today", reminderHandler.Today)
				rem.Get("/week", reminderHandler.Week)
				rem.Post("/from-order/{orderId}", reminderHandler.FromOrder)
				rem.Get("/{id}", reminderHandler.Get)
				rem.Put("/{id}", reminderHandler.Update)
				rem.Put("/{id}/complete", reminderHandler.Complete)
				rem.Put("/{id}/skip", reminderHandler.Skip)
				rem.Delete("/{id}", reminderHandler.Delete)
			})

			g.Route("/reports", func(rep chi.Router) {
				rep.Use(auth.RequireRole(auth.RoleAdmin))
				rep.Get("/revenue", reportHandler.Revenue)
				rep.Get("/top-selling", reportHandler.TopSelling)
				rep.Get("/customers", reportHandler.TopCustomers)
				rep.Get("/inventory", reportHandler.Inventory)
				rep.Get("/dashboard", reportHandler.Dashboard)
			})

			g.Route("/settings", func(s chi.Router) {
				s.Get("/", settingsHandler.Get)
				s.With(auth.RequireRole(auth.RoleAdmin)).Put("/", settingsHandler.Update)
				s.With(auth.RequireRole(auth.RoleAdmin)).Post("/reset", settingsHandler.Reset)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// salonLocation resolves the timezone used to anchor calendar day boundaries.
func salonLocation() *time.Location {
	name := envOrDefault("SALON_TIMEZONE", "Asia/Ho_Chi_Minh")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
