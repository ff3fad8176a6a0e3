package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"careerqa/internal/ai"
	"careerqa/internal/app"
	"careerqa/internal/cache"
	"careerqa/internal/classifier"
	"careerqa/internal/config"
	"careerqa/internal/index"
	"careerqa/internal/ingest"
	"careerqa/internal/logging"
	"careerqa/internal/metrics"
	"careerqa/internal/model"
	mysqlClient "careerqa/internal/platform/mysql"
	rabbitmqClient "careerqa/internal/platform/rabbitmq"
	redisClient "careerqa/internal/platform/redis"
	"careerqa/internal/repository"
	"careerqa/internal/session"
	"careerqa/internal/vision"
	"careerqa/internal/vision/tesseract"
	"careerqa/internal/worker"
)

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	RAG     *app.RAGService
	History *app.HistoryService

	// Journal dependencies; nil unless history is enabled.
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ExchangeWorker *worker.ExchangePersistWorker

	ocrEngine *tesseract.Engine
	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.App.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger failed: %w", err)
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics.New(),
		StartedAt: time.Now(),
	}
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	a.ocrEngine = tesseract.New(cfg.OCR.Language)
	pipeline, err := ingest.NewPipeline(ctx, ingest.Config{
		TempDir: cfg.Upload.TempDir,
		Image:   vision.NewOCR(a.ocrEngine),
	}, a.Logger.Named("ingest"))
	if err != nil {
		return fmt.Errorf("create ingest pipeline failed: %w", err)
	}

	source, err := embedderSource(cfg)
	if err != nil {
		return err
	}

	llm, err := ai.NewChatModel(ctx, chatConfig(cfg, cfg.LLM.Model))
	if err != nil {
		return fmt.Errorf("create chat model failed: %w", err)
	}
	classifierLLM := llm
	if cfg.LLM.ClassifierModel != cfg.LLM.Model {
		classifierLLM, err = ai.NewChatModel(ctx, chatConfig(cfg, cfg.LLM.ClassifierModel))
		if err != nil {
			return fmt.Errorf("create classifier model failed: %w", err)
		}
	}

	policy, err := classifier.ParsePolicy(cfg.Classifier.OnError)
	if err != nil {
		return err
	}
	gate := classifier.NewGate(classifierLLM, policy, a.Logger.Named("classifier"), a.Metrics)

	var journal app.Journal
	if cfg.History.Enabled {
		if err := a.openJournal(ctx); err != nil {
			return err
		}
		journal = a.History
	}

	a.RAG, err = app.NewRAGService(app.RAGDeps{
		Pipeline: pipeline,
		Builder:  index.NewBuilder(source, a.Logger.Named("index")),
		Store:    session.NewStore(),
		Gate:     gate,
		LLM:      llm,
		Journal:  journal,
		Metrics:  a.Metrics,
		Logger:   a.Logger.Named("rag"),
	}, app.RAGOptions{
		Debug:          cfg.App.Debug,
		SessionTimeout: time.Duration(cfg.Session.TimeoutSeconds) * time.Second,
		TopK:           cfg.Session.TopK,
	})
	if err != nil {
		return err
	}

	a.Logger.Info("application ready",
		zap.String("mode", cfg.Mode()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("embedding", cfg.Embedding.Type),
		zap.String("classifier_policy", policy.String()),
		zap.Bool("history", cfg.History.Enabled),
	)
	return nil
}

func (a *App) openJournal(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, mysqlClient.Options{DSN: cfg.MySQLDSN()}, a.Logger)
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB
	if err := mysqlDB.AutoMigrate(&model.Exchange{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.Redis = redisCli

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	a.MQConn = mqConn

	exchangeRepo := repository.NewExchangeRepository(mysqlDB)
	a.ExchangeWorker = worker.NewExchangePersistWorker(mqConn, exchangeRepo, cfg.RabbitMQ.ExchangePersistQueue, a.Logger)
	if err := a.ExchangeWorker.Start(ctx); err != nil {
		return fmt.Errorf("start exchange worker failed: %w", err)
	}

	historyCache := cache.NewHistoryCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	a.History = app.NewHistoryService(
		rabbitmqClient.NewExchangePublisher(mqConn, cfg.RabbitMQ.ExchangePersistQueue),
		historyCache,
		exchangeRepo,
		a.Metrics,
		cfg.History.Limit,
		a.Logger.Named("history"),
	)
	return nil
}

func embedderSource(cfg *config.Config) (index.EmbedderSource, error) {
	switch cfg.Embedding.Type {
	case "tfidf":
		return index.EmbedderSourceFunc(func(_ context.Context, corpus []string) (index.Embedder, error) {
			embedder, err := ai.NewTFIDFEmbedder(corpus)
			if err != nil {
				return nil, err
			}
			return embedder, nil
		}), nil
	case "openai":
		client := ai.NewOpenAICompatibleClient(
			cfg.Embedding.BaseURL,
			cfg.Embedding.APIKey,
			time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second,
		)
		return index.Static(ai.NewOpenAIEmbedder(client, ai.EmbeddingConfig{
			Model:     cfg.Embedding.Model,
			BatchSize: cfg.Embedding.BatchSize,
			Attempts:  cfg.Embedding.RetryAttempts,
			Delay:     time.Duration(cfg.Embedding.RetryDelayMS) * time.Millisecond,
		})), nil
	default:
		return nil, fmt.Errorf("unknown embedding type %q", cfg.Embedding.Type)
	}
}

func chatConfig(cfg *config.Config, modelName string) ai.ChatConfig {
	return ai.ChatConfig{
		Provider:  cfg.LLM.Provider,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     modelName,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}
}

func (a *App) Close() error {
	var errs []error
	if a.RAG != nil {
		a.RAG.Close()
	}
	if a.ExchangeWorker != nil {
		a.ExchangeWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if a.ocrEngine != nil {
		if err := a.ocrEngine.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
