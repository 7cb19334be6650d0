package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	articlehandler "sankalp/internal/article/handler"
	articleservice "sankalp/internal/article/service"
	articlestore "sankalp/internal/article/store"
	audithandler "sankalp/internal/audit/handler"
	auditservice "sankalp/internal/audit/service"
	dashboardhandler "sankalp/internal/dashboard/handler"
	dashboardservice "sankalp/internal/dashboard/service"
	educationhandler "sankalp/internal/education/handler"
	educationservice "sankalp/internal/education/service"
	educationstore "sankalp/internal/education/store"
	"sankalp/internal/fanout"
	"sankalp/internal/fanout/email"
	"sankalp/internal/fanout/sms"
	identityhandler "sankalp/internal/identity/handler"
	"sankalp/internal/identity/revocation"
	identityservice "sankalp/internal/identity/service"
	identitystore "sankalp/internal/identity/store"
	"sankalp/internal/identity/token"
	legalhandler "sankalp/internal/legal/handler"
	legalservice "sankalp/internal/legal/service"
	legalstore "sankalp/internal/legal/store"
	medicalhandler "sankalp/internal/medical/handler"
	medicalservice "sankalp/internal/medical/service"
	medicalstore "sankalp/internal/medical/store"
	notificationhandler "sankalp/internal/notification/handler"
	notificationservice "sankalp/internal/notification/service"
	notificationstore "sankalp/internal/notification/store"
	"sankalp/internal/platform/config"
	"sankalp/internal/platform/metrics"
	platformmw "sankalp/internal/platform/middleware"
	"sankalp/internal/platform/postgres"
	"sankalp/internal/platform/redis"
	"sankalp/internal/platform/templates"
	qahandler "sankalp/internal/qa/handler"
	qaservice "sankalp/internal/qa/service"
	qastore "sankalp/internal/qa/store"
	ratelimitmw "sankalp/internal/ratelimit/middleware"
	ratelimitmodels "sankalp/internal/ratelimit/models"
	ratelimitstore "sankalp/internal/ratelimit/store"
	womenhandler "sankalp/internal/womensupport/handler"
	womenservice "sankalp/internal/womensupport/service"
	womenstore "sankalp/internal/womensupport/store"
	audit "sankalp/pkg/platform/audit"
	auditpublisher "sankalp/pkg/platform/audit/publisher"
	"sankalp/pkg/platform/audit/store/kafka"
	auditmemory "sankalp/pkg/platform/audit/store/memory"
	auditpostgres "sankalp/pkg/platform/audit/store/postgres"
	authmw "sankalp/pkg/platform/middleware/auth"
	"sankalp/pkg/platform/middleware/metadata"
	request "sankalp/pkg/platform/middleware/request"
	"sankalp/pkg/platform/middleware/requesttime"
)

const (
	auditBufferSize     = 1024
	revocationPurgeTick = time.Hour
)

type app struct {
	router     http.Handler
	db         *sql.DB
	dispatcher *fanout.Dispatcher
	closers    []func(ctx context.Context)
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}

type stores struct {
	actors        identitystore.Store
	notifications notificationstore.Store
	education     educationstore.Store
	legal         legalstore.Store
	medical       medicalstore.Store
	women         womenstore.Store
	questions     qastore.Store
	articles      articlestore.Store
	audit         audit.Store
}

func memoryStores() *stores {
	return &stores{
		actors:        identitystore.NewInMemory(),
		notifications: notificationstore.NewInMemory(),
		education:     educationstore.NewInMemory(),
		legal:         legalstore.NewInMemory(),
		medical:       medicalstore.NewInMemory(),
		women:         womenstore.NewInMemory(),
		questions:     qastore.NewInMemory(),
		articles:      articlestore.NewInMemory(),
		audit:         auditmemory.NewInMemoryStore(),
	}
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		actors:        identitystore.NewPostgres(db),
		notifications: notificationstore.NewPostgres(db),
		education:     educationstore.NewPostgres(db),
		legal:         legalstore.NewPostgres(db),
		medical:       medicalstore.NewPostgres(db),
		women:         womenstore.NewPostgres(db),
		questions:     qastore.NewPostgres(db),
		articles:      articlestore.NewPostgres(db),
		audit:         auditpostgres.New(db),
	}
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close(context.Background())
		return nil, err
	}

	st := memoryStores()
	if cfg.Postgres.URL != "" {
		db, err := postgres.OpenConfigured(ctx, cfg.Postgres)
		if err != nil {
			return fail(err)
		}
		a.db = db
		a.closers = append(a.closers, func(context.Context) { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			return fail(err)
		}
		st = postgresStores(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	auditStore, err := buildAuditStore(ctx, cfg, st.audit, log, a)
	if err != nil {
		return fail(err)
	}
	publisher := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(auditBufferSize),
		auditpublisher.WithLogger(log),
	)
	a.closers = append(a.closers, func(context.Context) { publisher.Close() })

	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	if cache != nil {
		a.closers = append(a.closers, func(context.Context) { _ = cache.Close() })
	}
	revoker := buildRevocationList(cache, a, log)
	limiter := buildRateLimiter(cfg, cache, log)

	renderer, err := templates.New()
	if err != nil {
		return fail(err)
	}
	workflowMetrics := metrics.New(prometheus.DefaultRegisterer)

	a.dispatcher = fanout.NewDispatcher(cfg.Fanout.Workers, cfg.Fanout.QueueSize,
		fanout.WithLogger(log),
		fanout.WithMetrics(fanout.NewMetrics(prometheus.DefaultRegisterer)),
		fanout.WithSendTimeout(cfg.Fanout.SendTimeout),
	)
	inbox := notificationservice.New(st.notifications, notificationservice.WithLogger(log))
	notifier := fanout.NewNotifier(a.dispatcher, inbox, renderer,
		buildMailer(cfg, log), buildTexter(cfg, log), sms.NewRouter(cfg.Environment, cfg.SMS), log)

	jwt := token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)
	identity := identityservice.New(st.actors, jwt, revoker,
		identityservice.WithLogger(log),
		identityservice.WithAuditPublisher(publisher),
		identityservice.WithTokenTTL(cfg.Auth.TokenTTL),
	)
	if b := cfg.Bootstrap; b.Username != "" {
		if _, err := identity.SeedAdmin(ctx, b.Username, b.Email, b.Password); err != nil {
			return fail(fmt.Errorf("seed admin: %w", err))
		}
	}

	education := educationservice.New(st.education, st.actors, notifier,
		educationservice.WithLogger(log),
		educationservice.WithAuditPublisher(publisher),
		educationservice.WithMetrics(workflowMetrics),
	)
	legal := legalservice.New(st.legal, st.actors, notifier,
		legalservice.WithLogger(log),
		legalservice.WithAuditPublisher(publisher),
		legalservice.WithMetrics(workflowMetrics),
		legalservice.WithPublicBaseURL(cfg.Server.PublicBaseURL),
	)
	medical := medicalservice.New(st.medical, st.actors, notifier,
		medicalservice.WithLogger(log),
		medicalservice.WithAuditPublisher(publisher),
		medicalservice.WithMetrics(workflowMetrics),
		medicalservice.WithPublicBaseURL(cfg.Server.PublicBaseURL),
	)
	women := womenservice.New(st.women, st.actors, notifier,
		womenservice.WithLogger(log),
		womenservice.WithAuditPublisher(publisher),
		womenservice.WithMetrics(workflowMetrics),
		womenservice.WithPublicBaseURL(cfg.Server.PublicBaseURL),
	)
	questions := qaservice.New(st.questions, st.actors, notifier,
		qaservice.WithLogger(log),
		qaservice.WithAuditPublisher(publisher),
		qaservice.WithMetrics(workflowMetrics),
	)
	articles := articleservice.New(st.articles, articleservice.WithLogger(log))
	dashboard := dashboardservice.New(dashboardservice.Sources{
		Education:    education,
		Legal:        legal,
		Medical:      medical,
		WomenSupport: women,
		Questions:    questions,
		Inbox:        inbox,
	}, dashboardservice.WithLogger(log), dashboardservice.WithMetrics(workflowMetrics))

	identityHTTP := identityhandler.New(identity, log)
	legalHTTP := legalhandler.New(legal, renderer, log)
	medicalHTTP := medicalhandler.New(medical, renderer, log)
	womenHTTP := womenhandler.New(women, renderer, log)
	protected := []interface{ Register(chi.Router) }{
		identityHTTP,
		educationhandler.New(education, log),
		legalHTTP,
		medicalHTTP,
		womenHTTP,
		qahandler.New(questions, log),
		articlehandler.New(articles, log),
		dashboardhandler.New(dashboard, log),
		notificationhandler.New(inbox, log),
		audithandler.New(auditservice.New(auditStore), log),
	}

	validator := token.NewAdapter(jwt)
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(platformmw.RequestLatency(workflowMetrics))
	r.Use(request.Timeout(cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readiness(a.db, cache, log))
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(limiter.RateLimit(ratelimitmodels.ClassAuth))
		identityHTTP.RegisterPublic(r)
	})

	// Email-link endpoints work anonymously; a token, when sent, attributes
	// the decision to its actor.
	r.Group(func(r chi.Router) {
		r.Use(limiter.RateLimit(ratelimitmodels.ClassLink))
		r.Use(authmw.OptionalAuth(validator, revoker, log))
		r.Use(identityHTTP.OptionalActor)
		legalHTTP.RegisterPublic(r)
		medicalHTTP.RegisterPublic(r)
		womenHTTP.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, revoker, log))
		r.Use(identityHTTP.RequireActor)
		for _, h := range protected {
			h.Register(r)
		}
	})

	a.router = r
	return a, nil
}

// buildAuditStore decorates the durable store with a Kafka stream when
// brokers are configured.
func buildAuditStore(ctx context.Context, cfg *config.Config, durable audit.Store, log *slog.Logger, a *app) (audit.Store, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return durable, nil
	}
	stream, err := kafka.New(durable, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, kafka.WithLogger(log))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(ctx context.Context) { _ = stream.Close(ctx) })
	if err := stream.EnsureTopic(ctx, 3, 1); err != nil {
		log.Warn("failed to ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
	}
	return stream, nil
}

type revocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// buildRevocationList prefers Redis, then Postgres, then process memory.
func buildRevocationList(cache *redis.Client, a *app, log *slog.Logger) revocationList {
	if cache != nil {
		return revocation.NewRedisTRL(cache.Client)
	}
	if a.db != nil {
		trl := revocation.NewPostgresTRL(a.db, time.Now)
		purgeCtx, cancel := context.WithCancel(context.Background())
		a.closers = append(a.closers, func(context.Context) { cancel() })
		go purgeRevocations(purgeCtx, trl, log)
		return trl
	}
	return revocation.NewInMemoryTRL(time.Now)
}

func buildRateLimiter(cfg *config.Config, cache *redis.Client, log *slog.Logger) *ratelimitmw.Middleware {
	var counters ratelimitstore.Store = ratelimitstore.NewInMemory(time.Now)
	if cache != nil {
		counters = ratelimitstore.NewRedis(cache.Client, time.Now)
	}
	rl := cfg.RateLimit
	return ratelimitmw.New(counters, map[ratelimitmodels.Class]ratelimitmodels.Limit{
		ratelimitmodels.ClassAuth: {Requests: rl.AuthRequests, Window: rl.AuthWindow},
		ratelimitmodels.ClassLink: {Requests: rl.LinkRequests, Window: rl.LinkWindow},
	}, log)
}

func purgeRevocations(ctx context.Context, trl *revocation.PostgresTRL, log *slog.Logger) {
	ticker := time.NewTicker(revocationPurgeTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := trl.PurgeExpired(ctx)
			if err != nil {
				log.Warn("failed to purge expired revocations", "error", err)
				continue
			}
			log.Debug("purged expired revocations", "count", n)
		}
	}
}

func buildMailer(cfg *config.Config, log *slog.Logger) email.Sender {
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST not set, emails will be logged")
		return email.NewLogSender(log)
	}
	return email.NewSMTPSender(cfg.SMTP)
}

func buildTexter(cfg *config.Config, log *slog.Logger) sms.Sender {
	if cfg.SMS.TwilioAccountSID == "" || cfg.SMS.TwilioAuthToken == "" {
		log.Warn("Twilio credentials not set, SMS will be logged")
		return sms.NewLogSender(log)
	}
	return sms.NewTwilioSender(cfg.SMS, &http.Client{Timeout: cfg.Fanout.SendTimeout})
}

// readiness pings each configured backing store.
func readiness(db *sql.DB, cache *redis.Client, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				log.WarnContext(ctx, "readiness: postgres unreachable", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		if cache != nil {
			if err := cache.Health(ctx); err != nil {
				log.WarnContext(ctx, "readiness: redis unreachable", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
