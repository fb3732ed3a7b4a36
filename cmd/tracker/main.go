package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"slices"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/course-tracker/internal/config"
	httpapi "github.com/aliskhannn/course-tracker/internal/delivery/http"
	"github.com/aliskhannn/course-tracker/internal/delivery/telegram"
	"github.com/aliskhannn/course-tracker/internal/infra/email"
	"github.com/aliskhannn/course-tracker/internal/infra/objects"
	"github.com/aliskhannn/course-tracker/internal/infra/postgres"
	"github.com/aliskhannn/course-tracker/internal/infra/postgres/repository"
	"github.com/aliskhannn/course-tracker/internal/logger"
	"github.com/aliskhannn/course-tracker/internal/realtime"
	"github.com/aliskhannn/course-tracker/internal/render"
	"github.com/aliskhannn/course-tracker/internal/scheduler"
	"github.com/aliskhannn/course-tracker/internal/service"
	"github.com/aliskhannn/course-tracker/internal/storage"
)

// userStore is what both the services and the Telegram notifier need from users.
type userStore interface {
	service.UserRepository
	telegram.UserLookup
}

// repositories is one storage backend's set of repositories.
type repositories struct {
	tx            service.Transactor
	users         userStore
	courses       service.CourseRepository
	enrollments   service.EnrollmentRepository
	progressions  service.ProgressionRepository
	certificates  service.CertificateRepository
	notifications service.NotificationRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal("course tracker stopped with error", zap.Error(err))
	}

	l.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, l *zap.Logger) error {
	// Initialize repositories.
	repos, closeStore, err := openStorage(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeStore()

	// Outbound transports.
	mailer := newMailer(cfg, l)

	objectStore, closeObjects, err := openObjects(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeObjects()

	renderer, err := render.NewCertificateRenderer(
		objectStore,
		objects.Category(cfg.Certification.ArtifactCategory),
		cfg.Certification.FontPath,
		cfg.Certification.FontSize,
		l,
	)
	if err != nil {
		return fmt.Errorf("certificate renderer: %w", err)
	}

	var bot *tgbotapi.BotAPI
	if cfg.TelegramAPIToken != "" {
		bot, err = newBot(cfg.TelegramAPIToken, l)
		if err != nil {
			return err
		}
	}

	hub := realtime.NewHub(l)
	live, closeLive, err := openLive(ctx, cfg, hub, bot, repos.users, l)
	if err != nil {
		return err
	}
	defer closeLive()

	// Initialize services.
	notifications := service.NewNotificationService(repos.notifications, repos.users, live, mailer, cfg.Notifications, l)
	certificates := service.NewCertificateService(
		repos.tx,
		repos.certificates,
		repos.users,
		repos.courses,
		renderer,
		notifications,
		cfg.Certification.MinLevel,
		l,
	)
	users := service.NewUserService(repos.users)

	// Direct path: progress update, enrollment close, certificate issue.
	enrollments := service.NewEnrollmentService(repos.enrollments, repos.users, repos.courses, l)
	tracker := service.NewProgressService(repos.progressions, repos.enrollments, l)
	courseProgress := service.NewCourseProgressService(tracker, enrollments, certificates, l)

	managed := make([]objects.Category, 0, len(cfg.Objects.ManagedCategories))
	for _, c := range cfg.Objects.ManagedCategories {
		managed = append(managed, objects.Category(c))
	}
	reconciliation := service.NewReconciliationService(
		repos.progressions,
		certificates,
		notifications,
		objectStore,
		managed,
		cfg.Scheduler,
		l,
	)

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return fmt.Errorf("scheduler timezone: %w", err)
	}
	sched, err := scheduler.New(loc, l, reconciliation.Jobs()...)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Run blocks until ctx is done and running sweeps have returned.
	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})

	if cfg.HTTPAddr != "" {
		router := httpapi.NewRouter(httpapi.RouterConfig{
			Logger:              l,
			HealthHandler:       httpapi.NewHealthHandler(),
			RealtimeHandler:     httpapi.NewRealtimeHandler(hub, l),
			ProgressHandler:     httpapi.NewProgressHandler(courseProgress, l),
			EnrollmentHandler:   httpapi.NewEnrollmentHandler(enrollments, l),
			NotificationHandler: httpapi.NewNotificationHandler(notifications, l),
		})
		server := httpapi.NewServer(cfg.HTTPAddr, router)
		l.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		g.Go(func() error { return server.Run(ctx) })
	}

	if bot != nil {
		handler := telegram.NewHandler(bot, l, users, notifications, certificates)
		g.Go(func() error { return handler.Run(ctx) })
	}

	l.Info("course tracker started",
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.Strings("live", cfg.Live.Drivers),
	)

	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config, l *zap.Logger) (*repositories, func(), error) {
	if cfg.Storage.Driver == "memory" {
		l.Warn("using in-memory storage, data is lost on restart")
		s := storage.NewStore()
		return &repositories{
			tx:            storage.NewTransactor(s),
			users:         storage.NewUserRepository(s),
			courses:       storage.NewCourseRepository(s),
		enrollments:   storage.NewEnrollmentRepository(s),
			progressions:  storage.NewProgressionRepository(s),
			certificates:  storage.NewCertificateRepository(s),
			notifications: storage.NewNotificationRepository(s),
		}, func() {}, nil
	}

	dsn, err := cfg.DB.DSN()
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &repositories{
		tx:            postgres.NewTransactor(pool),
		users:         repository.NewUserRepository(pool),
		courses:       repository.NewCourseRepository(pool),
		enrollments:   repository.NewEnrollmentRepository(pool),
		progressions:  repository.NewProgressionRepository(pool),
		certificates:  repository.NewCertificateRepository(pool),
		notifications: repository.NewNotificationRepository(pool),
	}, pool.Close, nil
}

func newMailer(cfg *config.Config, l *zap.Logger) email.Sender {
	if cfg.Email.Provider == "sendgrid" {
		return email.NewSendGrid(cfg.Email.SendGridAPIKey, cfg.Email.FromName, cfg.Email.FromEmail, cfg.Email.SubjectPrefix)
	}
	return email.NewConsole(l, cfg.Email.SubjectPrefix)
}

func openObjects(ctx context.Context, cfg *config.Config, l *zap.Logger) (objects.Store, func(), error) {
	if cfg.Objects.Driver == "gcs" {
		gcs, err := objects.NewGCS(ctx, cfg.Objects.Buckets, cfg.Objects.PublicBaseURL, l)
		if err != nil {
			return nil, nil, err
		}
		return gcs, func() { _ = gcs.Close() }, nil
	}

	local, err := objects.NewLocal(cfg.Objects.LocalRoot, cfg.Objects.PublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	return local, func() {}, nil
}

// openLive assembles the live channel from the configured drivers. With redis
// enabled the hub is fed from the shared channel instead of directly, so every
// instance's SSE clients see every event exactly once.
func openLive(
	ctx context.Context,
	cfg *config.Config,
	hub *realtime.Hub,
	bot *tgbotapi.BotAPI,
	users telegram.UserLookup,
	l *zap.Logger,
) (realtime.Emitter, func(), error) {
	var (
		emitters realtime.Multi
		closers  []func()
	)

	drivers := cfg.Live.Drivers
	switch {
	case slices.Contains(drivers, "redis"):
		bus, err := realtime.NewRedisBus(ctx, cfg.Live.RedisAddr, cfg.Live.RedisChannel, l)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = bus.Close() })

		if err := bus.Forward(ctx, func(msg realtime.Message) { hub.Broadcast(msg) }); err != nil {
			_ = bus.Close()
			return nil, nil, err
		}
		emitters = append(emitters, bus)
	case slices.Contains(drivers, "hub"):
		emitters = append(emitters, hub)
	}

	if slices.Contains(drivers, "telegram") {
		if bot == nil {
			return nil, nil, errors.New("telegram live driver requires TELEGRAM_API_TOKEN")
		}
		emitters = append(emitters, telegram.NewNotifier(bot, users, l))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if len(emitters) == 0 {
		l.Warn("no live driver configured, live notifications are dropped")
		return realtime.Noop{}, closeAll, nil
	}
	return emitters, closeAll, nil
}

func newBot(token string, l *zap.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Link this chat to your learner ID (/start ID)",
		},
		{
			Command:     "inbox",
			Description: "Show your notifications",
		},
		{
			Command:     "read",
			Description: "Mark a notification as read (/read N)",
		},
		{
			Command:     "certificates",
			Description: "List your certificates",
		},
	}

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		l.Warn("failed to set bot commands", zap.Error(err))
	}

	l.Info("telegram bot authorized", zap.String("account", bot.Self.UserName))
	return bot, nil
}
