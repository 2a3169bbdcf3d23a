package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"OpenLens-Chain/internal/cache"
	"OpenLens-Chain/internal/config"
	"OpenLens-Chain/internal/content"
	"OpenLens-Chain/internal/events"
	"OpenLens-Chain/internal/lens"
	"OpenLens-Chain/internal/llm/openai"
	"OpenLens-Chain/internal/memory"
	"OpenLens-Chain/internal/observability/alerting"
	"OpenLens-Chain/internal/persona"
	"OpenLens-Chain/internal/publish"
	"OpenLens-Chain/internal/scheduler"
	"OpenLens-Chain/internal/signer"
	"OpenLens-Chain/internal/thread"
	"OpenLens-Chain/pkg/logger"
)

// main 是社交发布智能体守护进程的入口。
func main() {
	// .env 是可选的，不存在时静默跳过。
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("lensagentd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("LENSAGENT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "lensagent.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		AuditPath:   cfg.Logging.AuditPath,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	account, err := signer.NewAccount(os.Getenv(cfg.Lens.PrivateKeyEnv))
	if err != nil {
		return fmt.Errorf("加载签名账户失败 (环境变量 %s): %w", cfg.Lens.PrivateKeyEnv, err)
	}

	// 远端对象缓存。
	var store cache.Store
	switch cfg.Cache.Driver {
	case "", "memory":
		store = cache.NewMemoryStore()
	case "redis":
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{
			Address:  cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return err
		}
		store = redisStore
	default:
		return fmt.Errorf("未知的缓存驱动: %s", cfg.Cache.Driver)
	}
	defer store.Close()

	// 长期记忆存储。
	var repo memory.Repository
	switch cfg.Memory.Driver {
	case "", "memory":
		repo = memory.NewMemoryRepository()
	case "mysql":
		sqlRepo, err := memory.NewSQLRepository(ctx, memory.SQLConfig{DSN: cfg.Memory.DSN})
		if err != nil {
			return err
		}
		repo = sqlRepo
	default:
		return fmt.Errorf("未知的记忆存储驱动: %s", cfg.Memory.Driver)
	}
	defer repo.Close()

	// 发布事件总线。
	var bus events.Bus
	switch cfg.Events.Driver {
	case "", "memory":
		bus = events.NewMemoryBus(256)
	case "rabbitmq":
		mqBus, err := events.NewRabbitMQBus(events.RabbitMQConfig{
			URL:     cfg.Events.RabbitMQ.URL,
			Queue:   cfg.Events.RabbitMQ.Queue,
			Durable: cfg.Events.RabbitMQ.Durable,
		})
		if err != nil {
			return err
		}
		bus = mqBus
	default:
		return fmt.Errorf("未知的事件总线驱动: %s", cfg.Events.Driver)
	}
	defer bus.Close()

	client, err := lens.NewClient(lens.Config{
		BaseURL:   cfg.Lens.APIURL,
		ProfileID: cfg.Lens.ProfileID,
		Timeout:   time.Duration(cfg.Lens.RequestTimeoutMS) * time.Millisecond,
	}, account, store)
	if err != nil {
		return err
	}

	pinner, err := content.NewStorjProvider(content.StorjConfig{
		APIURL:   cfg.Content.APIURL,
		Username: os.Getenv(cfg.Content.UsernameEnv),
		Password: os.Getenv(cfg.Content.PasswordEnv),
	})
	if err != nil {
		return err
	}

	apiKey := strings.TrimSpace(os.Getenv(cfg.LLM.APIKeyEnv))
	generator, err := openai.NewClient(openai.Config{
		APIKey:     apiKey,
		BaseURL:    cfg.LLM.BaseURL,
		SmallModel: cfg.LLM.SmallModel,
		LargeModel: cfg.LLM.LargeModel,
		Timeout:    time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})
	if err != nil {
		return err
	}

	agentPersona, err := persona.Load(cfg.Persona.Path)
	if err != nil {
		return err
	}

	pipeline, err := publish.NewPipeline(client, account, pinner, bus)
	if err != nil {
		return err
	}

	builder := thread.NewBuilder(client, repo, cfg.Lens.ProfileID)
	alerts := alerting.NewFanout(&alerting.LogNotifier{})
	settings := cfg.Lookup()

	postLoop, err := scheduler.NewPostScheduler(client, pipeline, generator, agentPersona, repo, alerts, settings)
	if err != nil {
		return err
	}
	interactionLoop, err := scheduler.NewInteractionScheduler(client, pipeline, builder, generator, agentPersona, repo, alerts, settings)
	if err != nil {
		return err
	}

	// 后续动作处理：目前把发布事件落到审计日志，
	// 外部消费者可以换用 RabbitMQ 驱动接走同一份事件流。
	go func() {
		_ = bus.Consume(ctx, func(_ context.Context, event events.Event) error {
			logger.Audit().Info("发布事件",
				"kind", string(event.Kind),
				"publication_id", event.PublicationID,
				"room_id", event.RoomID,
			)
			return nil
		})
	}()

	postLoop.Start(ctx)
	interactionLoop.Start(ctx)

	logger.L().Info("lensagentd 已启动",
		"profile_id", cfg.Lens.ProfileID,
		"address", account.Address(),
	)

	<-ctx.Done()

	postLoop.Stop()
	interactionLoop.Stop()
	logger.L().Info("lensagentd 已退出")
	return nil
}
