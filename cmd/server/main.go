package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"seal/internal/access"
	atthandler "seal/internal/attestation/handler"
	attmetrics "seal/internal/attestation/metrics"
	attservice "seal/internal/attestation/service"
	"seal/internal/attestation/store/dedupe"
	authhandler "seal/internal/auth/handler"
	authmetrics "seal/internal/auth/metrics"
	authservice "seal/internal/auth/service"
	"seal/internal/auth/store/challenge"
	certifyhandler "seal/internal/certify/handler"
	certifymetrics "seal/internal/certify/metrics"
	certifyservice "seal/internal/certify/service"
	"seal/internal/events"
	eventshandler "seal/internal/events/handler"
	eventsmetrics "seal/internal/events/metrics"
	jwttoken "seal/internal/jwt_token"
	"seal/internal/platform/config"
	"seal/internal/platform/httpserver"
	"seal/internal/platform/kafka"
	"seal/internal/platform/kafka/consumer"
	"seal/internal/platform/logger"
	"seal/internal/platform/metrics"
	"seal/internal/platform/postgres"
	platformredis "seal/internal/platform/redis"
	reghandler "seal/internal/registry/handler"
	regmetrics "seal/internal/registry/metrics"
	regservice "seal/internal/registry/service"
	sealhandler "seal/internal/seal/handler"
	sealmetrics "seal/internal/seal/metrics"
	sealmodels "seal/internal/seal/models"
	sealservice "seal/internal/seal/service"
	"seal/internal/strategy"
	"seal/internal/strategy/adapters"
	httptransport "seal/internal/transport/http"
	"seal/pkg/platform/circuit"
	"seal/pkg/requestcontext"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "seal:", err)
		os.Exit(1)
	}
}

// run wires the services and serves until ctx is cancelled.
func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, nil)
	slog.SetDefault(log)

	addrs, err := cfg.Chain.Parse()
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	sealDefaults := sealmodels.Settings{Registry: addrs.Registry, Strategy: addrs.ActivityTemplate}
	var (
		st     *stores
		health []httptransport.HealthCheck
	)
	if db != nil {
		defer db.Close()
		st = postgresStores(db, addrs.Provider, sealDefaults)
		health = append(health, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
		log.InfoContext(ctx, "using postgres stores")
	} else {
		st = memoryStores(addrs.Provider, sealDefaults)
		log.WarnContext(ctx, "no postgres DSN configured, state is kept in memory")
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var (
		deduper    attservice.Deduper        = dedupe.NewMemory(cfg.Redis.DedupeTTL)
		challenges authservice.ChallengeStore = challenge.NewInMemoryStore()
	)
	if rc != nil {
		defer rc.Close()
		deduper = dedupe.NewRedis(rc.Client, cfg.Redis.DedupeTTL)
		challenges = challenge.NewRedis(rc.Client)
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: rc.Health})
	}

	evMetrics := eventsmetrics.New()
	outbox := events.NewOutbox(st.outbox, events.WithLogger(log), events.WithMetrics(evMetrics))

	// Registry.
	roles := access.NewRoles()
	regservice.SeedRoles(roles, addrs.Owner, addrs.Seal, addrs.Certify)
	registry := regservice.New(st.profiles, st.accounts, st.registry, roles, st.runner,
		regservice.WithLogger(log),
		regservice.WithMetrics(regmetrics.New()),
		regservice.WithEmitter(outbox),
	)

	// Strategy hosts.
	certifyOwner, err := access.NewOwnable(addrs.Owner)
	if err != nil {
		return err
	}
	catalog := strategy.NewCatalog(strategy.KindCourse, st.templates)
	if err := seedCatalog(ctx, catalog, addrs); err != nil {
		return err
	}
	certify, err := certifyservice.New(certifyservice.Config{
		Address:            addrs.Certify,
		Provider:           addrs.Provider,
		CourseCreationCost: cfg.Credits.CourseCreationCost,
		MintCost:           cfg.Credits.MintCost,
	}, certifyOwner, catalog, adapters.NewRegistryAdapter(registry, addrs.Certify), st.courses, st.runner,
		certifyservice.WithLogger(log),
		certifyservice.WithMetrics(certifymetrics.New()),
		certifyservice.WithEmitter(outbox),
	)
	if err != nil {
		return err
	}

	sealOwner, err := access.NewOwnable(addrs.Owner)
	if err != nil {
		return err
	}
	sealHost, err := sealservice.New(sealservice.Config{
		Address:  addrs.Seal,
		Provider: addrs.Provider,
	}, sealOwner, adapters.NewRegistryAdapter(registry, addrs.Seal), st.activities, st.seal, st.runner,
		sealservice.WithLogger(log),
		sealservice.WithMetrics(sealmetrics.New()),
		sealservice.WithEmitter(outbox),
	)
	if err != nil {
		return err
	}

	// Attestations.
	hooks := attservice.NewHooks()
	hooks.Bind(addrs.Registry, registry)
	hooks.Bind(addrs.Certify, certify)
	hooks.Bind(addrs.Seal, sealHost)

	attMetrics := attmetrics.New()
	provider := attservice.NewProvider(addrs.Provider, st.attestations, hooks, st.runner,
		attservice.WithProviderLogger(log),
		attservice.WithProviderMetrics(attMetrics),
		attservice.WithProviderEmitter(outbox),
	)
	dispatcher := attservice.NewDispatcher(hooks, deduper, st.runner,
		attservice.WithDispatcherLogger(log),
		attservice.WithDispatcherMetrics(attMetrics),
		attservice.WithTracer(otel.Tracer("seal/attestation")),
	)

	// Auth.
	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	auth, err := authservice.New(authservice.Config{
		Domain:       cfg.Auth.Issuer,
		TokenTTL:     cfg.Auth.TokenTTL,
		ChallengeTTL: cfg.Auth.ChallengeTTL,
	}, challenges, jwt,
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := startKafka(ctx, g, cfg.Kafka, st.outbox, dispatcher, attMetrics, evMetrics, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		health = append(health, httptransport.HealthCheck{Name: "kafka", Check: producer.Health})
	}

	atth := atthandler.New(provider, dispatcher, log)
	router := httptransport.NewRouter(httptransport.Config{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		AdminTokenHash: cfg.Auth.AdminTokenHash,
	}, httptransport.Deps{
		Logger:  log,
		Metrics: metrics.New(),
		Tokens:  jwttoken.NewMiddlewareValidator(jwt),
		Health:  health,
		Modules: []httptransport.Registrar{
			authhandler.New(auth, log),
			atth,
			reghandler.New(registry, log),
			certifyhandler.New(certify, log),
			sealhandler.New(sealHost, log),
			eventshandler.New(outbox, log),
		},
		Admin:     []httptransport.AdminRegistrar{atth},
		ScrapeAPI: metrics.Handler(),
	})
	srv := httpserver.New(cfg.Server, router)

	g.Go(func() error {
		log.InfoContext(ctx, "starting seal", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedCatalog makes the configured course template cloneable on first start.
func seedCatalog(ctx context.Context, catalog *strategy.Catalog, addrs config.Addresses) error {
	ok, err := catalog.IsCloneable(ctx, addrs.CourseTemplate)
	if err != nil || ok {
		return err
	}
	_, err = catalog.Add(requestcontext.WithCaller(ctx, addrs.Owner), strategy.Template{
		Address: addrs.CourseTemplate,
		Kind:    strategy.KindCourse,
		Name:    "Course",
	})
	return err
}

// startKafka provisions topics and starts the attestation ingest and the
// outbox relay in g.
func startKafka(ctx context.Context, g *errgroup.Group, cfg config.KafkaConfig, outbox events.Store, dispatcher *attservice.Dispatcher, attMetrics *attmetrics.Metrics, evMetrics *eventsmetrics.Metrics, log *slog.Logger) (*kafka.Producer, error) {
	if err := kafka.EnsureTopics(ctx, cfg.Brokers, 1, 1, cfg.AttestationTopic, cfg.EventsTopic); err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(cfg.Brokers)
	if err != nil {
		return nil, err
	}

	topics := consumer.NewRouter(log, nil)
	topics.Register(cfg.AttestationTopic, attservice.NewIngest(dispatcher, log, attMetrics))
	ingest, err := consumer.New(cfg.Brokers, cfg.ConsumerGroup, topics.Topics(), topics, log)
	if err != nil {
		producer.Close()
		return nil, err
	}

	relay := events.NewRelay(outbox, producer, cfg.EventsTopic, log,
		events.WithInterval(cfg.RelayInterval),
		events.WithBatchSize(cfg.RelayBatch),
		events.WithBreaker(circuit.New("outbox-relay")),
		events.WithRelayMetrics(evMetrics),
	)

	g.Go(func() error { return ingest.Run(ctx) })
	g.Go(func() error { return relay.Run(ctx) })
	return producer, nil
}
