// Package app builds the marketplace's application context: every
// long-lived collaborator is constructed once from a *config.Config and
// handed explicitly to whatever needs it. Nothing here is global.
//
//	a, err := app.New(ctx, cfg)
//	if err != nil { ... }
//	defer a.Close(context.Background())
//	err = a.Serve(ctx)
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/app/jobs"
	"github.com/kwanzatukule/marketplace/app/listeners"
	"github.com/kwanzatukule/marketplace/app/repositories"
	"github.com/kwanzatukule/marketplace/app/services"
	"github.com/kwanzatukule/marketplace/config"
	"github.com/kwanzatukule/marketplace/database/migrations"
	"github.com/kwanzatukule/marketplace/internal/server"
	"github.com/kwanzatukule/marketplace/pkg/auth"
	"github.com/kwanzatukule/marketplace/pkg/broker"
	"github.com/kwanzatukule/marketplace/pkg/cache"
	"github.com/kwanzatukule/marketplace/pkg/database"
	"github.com/kwanzatukule/marketplace/pkg/event"
	grpcserver "github.com/kwanzatukule/marketplace/pkg/grpc"
	"github.com/kwanzatukule/marketplace/pkg/logger"
	"github.com/kwanzatukule/marketplace/pkg/mail"
	"github.com/kwanzatukule/marketplace/pkg/migration"
	"github.com/kwanzatukule/marketplace/pkg/queue"
	"github.com/kwanzatukule/marketplace/pkg/schedule"
	"github.com/kwanzatukule/marketplace/pkg/tracing"
	"github.com/kwanzatukule/marketplace/pkg/ws"
)

const (
	eventWorkers     = 4
	pruneFailedEvery = time.Hour
)

// Application is the marketplace's dependency graph.
type Application struct {
	Config *config.Config
	Log    *slog.Logger
	DB     *gorm.DB
	Cache  cache.Store
	Events *event.Dispatcher
	Queue  *queue.Manager
	Hub    *ws.Hub
	Tokens *auth.Issuer
	Broker broker.Publisher
	Tracer *sdktrace.TracerProvider
	GRPC   *grpcserver.Server
	Tasks  *schedule.Scheduler

	Auth    *services.AuthService
	Produce *services.ProduceService
	Orders  *services.OrderService

	redis       *redis.Client
	redisDriver *queue.RedisDriver
	closers     []func(context.Context) error

	kernel *kernel

	stopBackground context.CancelFunc
	tasksDone      chan struct{}
}

// Option adjusts how New builds an Application.
type Option func(*options)

type options struct {
	db         *gorm.DB
	log        *slog.Logger
	processors []tracing.SpanProcessor
}

// WithDB uses db instead of opening the configured database. The caller
// keeps ownership of db.
func WithDB(db *gorm.DB) Option { return func(o *options) { o.db = db } }

// WithLogger replaces the logger built from config.
func WithLogger(log *slog.Logger) Option { return func(o *options) { o.log = log } }

// WithSpanProcessor adds a span processor to the tracer provider.
func WithSpanProcessor(p tracing.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, p) }
}

// New wires every collaborator from cfg. On error, whatever was already
// opened is closed again.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &Application{Config: cfg}
	if err := a.boot(ctx, o); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *Application) boot(ctx context.Context, o options) error {
	cfg := a.Config
	a.bootLogger(o.log)

	tp, shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		ServiceName: cfg.ServiceName(),
		Endpoint:    cfg.OTLPEndpoint(),
		Processors:  o.processors,
	})
	if tp == nil {
		return err
	}
	if err != nil {
		a.Log.Warn("tracing export disabled", "error", err)
	}
	a.Tracer = tp
	a.closers = append(a.closers, shutdownTracing)

	if o.db != nil {
		a.DB = o.db
	} else {
		if a.DB, err = database.Open(cfg); err != nil {
			return err
		}
		db := a.DB
		a.closers = append(a.closers, func(context.Context) error { return database.Close(db) })
	}

	a.bootRedis(ctx)
	a.bootCache()
	a.bootQueue()

	a.Events = event.NewDispatcher(eventWorkers, a.Log)
	a.Hub = ws.NewHub(a.Log)
	a.Tokens = auth.NewIssuer(cfg.JWTSecret(), cfg.JWTTTL(), cfg.ServiceName())
	a.GRPC = grpcserver.New(a.Log)

	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		a.Broker = broker.NewKafkaPublisher(brokers, cfg.KafkaTopic())
		a.Log.Info("kafka publishing enabled", "topic", cfg.KafkaTopic())
	} else {
		a.Broker = broker.Nop{}
	}

	a.bootServices()

	k, err := a.buildKernel()
	if err != nil {
		return err
	}
	a.kernel = k
	return nil
}

func (a *Application) bootLogger(log *slog.Logger) {
	if log != nil {
		a.Log = log
		return
	}
	log, closeLog, err := logger.Setup(a.Config)
	a.Log = log
	a.closers = append(a.closers, func(context.Context) error { closeLog(); return nil })
	if err != nil {
		log.Warn("log sink unavailable", "error", err)
	}
}

// bootRedis dials Redis when the cache or the queue asks for it. An
// unreachable server degrades both to their in-memory drivers.
func (a *Application) bootRedis(ctx context.Context) {
	if a.Config.CacheDriver() != "redis" && a.Config.QueueDriver() != "redis" {
		return
	}
	rdb, err := cache.Dial(ctx, a.Config.RedisAddr(), a.Config.RedisPassword())
	if err != nil {
		a.Log.Warn("redis unavailable, using in-memory cache and queue", "addr", a.Config.RedisAddr(), "error", err)
		return
	}
	a.redis = rdb
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
}

func (a *Application) bootCache() {
	if a.redis != nil && a.Config.CacheDriver() == "redis" {
		a.Cache = cache.NewRedisStore(a.redis, "marketplace:cache:")
	} else {
		a.Cache = cache.NewMemoryStore()
	}
	store := a.Cache
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })
}

func (a *Application) bootQueue() {
	var driver queue.Driver = queue.NewMemoryDriver()
	if a.redis != nil && a.Config.QueueDriver() == "redis" {
		a.redisDriver = queue.NewRedisDriver(a.redis)
		driver = a.redisDriver
		rd := a.redisDriver
		a.closers = append(a.closers, func(context.Context) error { rd.Close(); return nil })
	}
	a.Queue = queue.New(driver, queue.WithFailedJobStore(a.DB), queue.WithLogger(a.Log))
}

func (a *Application) bootServices() {
	repos := repositories.New(a.DB)

	a.Auth = services.NewAuthService(repos.Users, a.Tokens)
	a.Produce = services.NewProduceService(repos.Produce, a.Cache, a.Events)
	a.Orders = services.NewOrderService(repositories.NewUnitOfWork(a.DB), repos.Orders,
		services.WithTracer(a.Tracer.Tracer("marketplace/orders")),
		services.WithConflictRetries(a.Config.OrderConflictRetries()),
		services.WithOrderCache(a.Cache),
		services.WithEventBus(a.Events),
	)

	jobs.Register(a.Queue, jobs.Deps{Repos: repos, Notifier: a.notifier()})
	listeners.Register(a.Events, listeners.Deps{Stock: a.Hub, Broker: a.Broker, Jobs: a.Queue})

	a.Tasks = schedule.New(a.Log)
	a.Tasks.Every(pruneFailedEvery, "prune_failed_jobs", a.pruneFailedJobs)
}

// notifier mails farmers when SMTP is configured and logs otherwise.
func (a *Application) notifier() jobs.Notifier {
	host := a.Config.MailHost()
	if host == "" {
		return jobs.LogNotifier{Log: a.Log}
	}
	a.Log.Info("farmer notifications by mail", "host", host)
	return jobs.MailNotifier{Mail: mail.New(mail.SMTP{
		Host:     host,
		Port:     a.Config.MailPort(),
		Username: a.Config.MailUsername(),
		Password: a.Config.MailPassword(),
		From:     a.Config.MailFrom(),
		FromName: a.Config.ServiceName(),
	})}
}

func (a *Application) pruneFailedJobs(ctx context.Context) error {
	n, err := a.Queue.PruneFailed(ctx, time.Now().Add(-a.Config.FailedJobRetention()))
	if err != nil {
		return fmt.Errorf("prune failed jobs: %w", err)
	}
	if n > 0 {
		a.Log.Info("pruned failed jobs", "count", n)
	}
	return nil
}

// Migrate applies pending migrations, writing progress to out.
func (a *Application) Migrate(out io.Writer) error {
	return a.Migrator(out).Run()
}

// Migrator returns the migration runner over the marketplace schema.
func (a *Application) Migrator(out io.Writer) *migration.Runner {
	return migration.New(a.DB, migrations.Registry()...).SetOutput(out)
}

// Start launches the background loops: the stock feed hub, the in-process
// job workers and the maintenance scheduler. They stop on ctx cancellation
// or Close.
func (a *Application) Start(ctx context.Context) {
	if a.stopBackground != nil {
		return
	}
	bg, cancel := context.WithCancel(ctx)
	a.stopBackground = cancel

	go a.Hub.Run(bg)
	a.Queue.Start(bg, a.Config.QueueWorkers())
	a.tasksDone = make(chan struct{})
	go func() {
		defer close(a.tasksDone)
		a.Tasks.Run(bg)
	}()
}

// Serve runs the HTTP and gRPC servers until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	a.Start(ctx)
	return server.Run(ctx, server.Config{
		HTTPAddr: net.JoinHostPort("", a.Config.AppPort()),
		Handler:  a.Handler(),
		GRPCAddr: net.JoinHostPort("", a.Config.GRPCPort()),
		GRPC:     a.GRPC,
	}, a.Log)
}

// Close stops background work, drains queued listeners and releases every
// resource New opened, newest first.
func (a *Application) Close(ctx context.Context) error {
	if a.stopBackground != nil {
		a.stopBackground()
		a.Queue.Wait()
		<-a.tasksDone
	}
	if a.Events != nil {
		a.Events.Close()
	}

	var errs []error
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("broker: %w", err))
		}
	}
	if a.kernel != nil {
		a.kernel.close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
