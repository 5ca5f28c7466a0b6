package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"ponyfiction/internal/app"
	"ponyfiction/internal/cache"
	"ponyfiction/internal/config"
	"ponyfiction/internal/graph"
	"ponyfiction/internal/platform/database"
	"ponyfiction/internal/platform/logger"
	rabbitmqClient "ponyfiction/internal/platform/rabbitmq"
	redisClient "ponyfiction/internal/platform/redis"
	"ponyfiction/internal/repository"
	"ponyfiction/internal/storage"
	"ponyfiction/internal/worker"
)

type App struct {
	Config        *config.Config
	Logger        zerolog.Logger
	DB            *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Storage       storage.Storage
	CleanupWorker *worker.FileCleanupWorker
	Services      graph.Services
	Registry      *prometheus.Registry

	StartedAt time.Time
}

// New connects every dependency. Handles opened before a failing step are
// closed before the error is returned.
func New(ctx context.Context) (_ *App, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.Log, cfg.App.Name)

	a := &App{
		Config:    cfg,
		Logger:    log,
		Registry:  prometheus.NewRegistry(),
		StartedAt: time.Now(),
	}
	defer func() {
		if err == nil {
			return
		}
		if closeErr := a.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("release partially opened resources failed")
		}
	}()

	a.DB, err = database.New(ctx, cfg, &log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(a.DB); err != nil {
		return nil, err
	}

	a.Redis, err = redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	a.Storage, err = storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Without a broker stale files are deleted inline.
	var publisher app.CleanupPublisher
	if cfg.RabbitMQ.URL != "" {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		a.CleanupWorker = worker.NewFileCleanupWorker(a.MQConn, a.Storage, cfg.RabbitMQ.FileCleanupQueue, log)
		if err := a.CleanupWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start file cleanup worker failed: %w", err)
		}
		publisher = rabbitmqClient.NewFileCleanupPublisher(a.MQConn, cfg.RabbitMQ.FileCleanupQueue)
	} else {
		log.Warn().Msg("rabbitmq url is empty, stale files are removed inline")
	}

	a.Services = NewServices(cfg, a.DB, a.Redis, a.Storage, publisher, log)
	return a, nil
}

// NewServices wires repositories, caches and storage into the app services.
// redisCli and publisher may be nil.
func NewServices(
	cfg *config.Config,
	db *gorm.DB,
	redisCli *redis.Client,
	store storage.Storage,
	publisher app.CleanupPublisher,
	log zerolog.Logger,
) graph.Services {
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	tagRepo := repository.NewTagRepository(db)

	accessTTL := time.Duration(cfg.Auth.AccessExpireMinute) * time.Minute

	var storyCache app.StoryCacher
	var revoker app.SessionRevoker
	if redisCli != nil {
		storyCache = cache.NewStoryCache(redisCli, time.Duration(cfg.Redis.StoryTTLSeconds)*time.Second)
		revoker = cache.NewSessionRevocations(redisCli, accessTTL)
	}

	files := app.NewFileService(repository.NewFileRepository(db), store, int64(cfg.Upload.MaxSizeMB)<<20)
	remover := app.NewFileRemover(publisher, store, log)

	return graph.Services{
		Auth: app.NewAuthService(tx, userRepo, repository.NewSessionRepository(db), revoker, files, app.AuthConfig{
			JWTSecret:  cfg.Auth.JWTSecret,
			AccessTTL:  accessTTL,
			RefreshTTL: time.Duration(cfg.Auth.RefreshExpireMinute) * time.Minute,
		}),
		Users: app.NewUserService(userRepo),
		Stories: app.NewStoryService(tx, app.StoryRepos{
			Stories:       storyRepo,
			Chapters:      chapterRepo,
			Tags:          tagRepo,
			Collaborators: repository.NewCollaboratorRepository(db),
			Users:         userRepo,
		}, files, remover, storyCache, log),
		Chapters: app.NewChapterService(tx, storyRepo, chapterRepo, storyCache, log),
		Tags:     app.NewTagService(tagRepo),
		Files:    files,
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.CleanupWorker != nil {
		a.CleanupWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
