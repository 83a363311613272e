package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/Xushengqwer/autopost_service/docs"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/constant"
	"github.com/Xushengqwer/autopost_service/controller"
	"github.com/Xushengqwer/autopost_service/dependencies"
	"github.com/Xushengqwer/autopost_service/mq/consumer"
	"github.com/Xushengqwer/autopost_service/mq/producer"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
	redisrepo "github.com/Xushengqwer/autopost_service/repo/redis"
	"github.com/Xushengqwer/autopost_service/router"
	"github.com/Xushengqwer/autopost_service/service"
	"github.com/Xushengqwer/autopost_service/tasks"

	sharedCore "github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"

	"go.uber.org/zap"
)

// @title           Autopost Service API
// @version         1.0
// @description     自适应内容生成与排期决策服务：UCB 调度、计划抽取、多后端生成、结构校验与发布生命周期管理。
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8085

// @schemes http https
func main() {
	// --- 配置和基础设置 ---
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "Path to configuration file")
	flag.Parse()

	// 1. 加载配置
	var cfg appConfig.AutopostConfig
	if err := sharedCore.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("FATAL: 加载配置失败 (%s): %v", configFile, err)
	}

	configBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatalf("无法序列化配置以进行打印: %v", err)
	}
	log.Printf("✅ 配置加载成功！最终生效的配置如下:\n%s\n", string(configBytes))

	// 2. 初始化 Logger
	logger, loggerErr := sharedCore.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("FATAL: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		logger.Info("正在同步日志...")
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("WARN: ZapLogger Sync 失败: %v\n", err)
		}
	}()
	logger.Info("Logger 初始化成功")

	// 3. 初始化 TracerProvider
	// AI 后端与社交平台的出站 HTTP 客户端都挂了 otelhttp Transport，
	// 追踪开启后生成与发布链路可以端到端串起来。
	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := sharedTracing.InitTracerProvider(
			constant.ServiceName,
			constant.ServiceVersion,
			cfg.TracerConfig,
		)
		if err != nil {
			logger.Fatal("初始化 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info("正在关闭 TracerProvider...")
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭 TracerProvider 失败", zap.Error(err))
			} else {
				logger.Info("TracerProvider 已成功关闭")
			}
		}()
		logger.Info("分布式追踪已初始化")
	} else {
		logger.Info("分布式追踪已禁用")
	}

	// --- 4. 初始化核心依赖 ---
	// 4.1 数据库 (MySQL)
	db, dbErr := dependencies.InitMySQL(&cfg, logger)
	if dbErr != nil {
		logger.Fatal("初始化 MySQL 数据库失败", zap.Error(dbErr))
	}
	logger.Info("MySQL 数据库连接成功")

	// 4.2 Redis
	rdb, redisErr := dependencies.InitRedis(&cfg.RedisConfig, logger)
	if redisErr != nil {
		logger.Fatal("初始化 Redis 失败", zap.Error(redisErr))
	}
	logger.Info("Redis 连接成功")

	// 4.3 AI 后端注册表
	aiRegistry, aiErr := dependencies.InitAIRegistry(&cfg.AIConfig, logger)
	if aiErr != nil {
		logger.Fatal("初始化 AI 后端注册表失败", zap.Error(aiErr))
	}

	// 4.4 社交平台发布客户端
	socialClient, socialErr := dependencies.InitSocialClient(&cfg.SocialConfig, logger)
	if socialErr != nil {
		logger.Fatal("初始化社媒发布客户端失败", zap.Error(socialErr))
	}

	// 4.5 Kafka 生产者
	var kafkaProducer *producer.KafkaProducer
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer = producer.NewKafkaProducer(cfg.KafkaConfig, logger)
		logger.Info("Kafka 生产者已初始化")
	} else {
		logger.Warn("未配置 Kafka brokers，Kafka 生产者将为 nil")
	}

	// --- 5. 初始化数据仓库层 (Repositories) ---
	postRepo := mysql.NewPostRepository(db, logger)
	revisionRepo := mysql.NewPostRevisionRepository(db, logger)
	optionRepo := mysql.NewDimensionOptionRepository(db, logger)
	templateRepo := mysql.NewContentTemplateRepository(db, logger)
	decisionRepo := mysql.NewBanditDecisionRepository(db, logger)
	embeddingRepo := mysql.NewPostEmbeddingRepository(db, logger)
	logger.Debug("MySQL Repositories 初始化完成")

	recentTextRepo := redisrepo.NewRecentTextRepository(rdb, logger)
	usageCacheRepo := redisrepo.NewUsageCacheRepository(rdb, logger)
	logger.Debug("Redis Repositories 初始化完成")

	// --- 6. 初始化服务层 (Services) ---
	planSvc := service.NewPlanService(optionRepo, postRepo, usageCacheRepo, cfg.GenerationConfig, logger)
	similaritySvc := service.NewSimilarityService(embeddingRepo, aiRegistry, cfg.GenerationConfig.RecentWindow, logger)
	checker := service.NewPostChecker(cfg.CheckerConfig)
	reviewSvc := service.NewReviewService(db, postRepo, revisionRepo, decisionRepo, kafkaProducer, cfg.ReviewConfig, logger)
	generationSvc := service.NewGenerationService(
		db, postRepo, revisionRepo, embeddingRepo, templateRepo, optionRepo,
		recentTextRepo, planSvc, similaritySvc, checker, reviewSvc, aiRegistry,
		cfg.GenerationConfig, logger,
	)
	publishSvc := service.NewPublishService(db, postRepo, revisionRepo, decisionRepo, recentTextRepo, socialClient, cfg.SocialConfig, logger)
	scheduler := service.NewBanditScheduler(db, templateRepo, decisionRepo, postRepo, planSvc, kafkaProducer, cfg.SchedulerConfig, logger)
	adminSvc := service.NewAdminService(postRepo, revisionRepo, decisionRepo, optionRepo, templateRepo, reviewSvc, kafkaProducer, logger)
	logger.Debug("Services 初始化完成")

	// --- 7. 初始化控制器层 (Controllers) ---
	postAdminController := controller.NewPostAdminController(adminSvc)
	scheduleController := controller.NewScheduleController(scheduler, adminSvc)
	logger.Debug("Controllers 初始化完成")

	// --- 8. 初始化 Kafka 消费者 ---
	var consumers []*consumer.Consumer
	var consumerWg sync.WaitGroup
	consumerCtx, consumerCancel := context.WithCancel(context.Background())

	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.ConsumerGroupID
		if groupID == "" {
			logger.Warn("Kafka ConsumerGroupID 未在配置中设置，将使用默认值 'autopost_service_group'")
			groupID = "autopost_service_group"
		}

		// topic 名称 → handler 的映射，逐个创建消费者
		handlers := map[string]consumer.MessageHandler{
			cfg.KafkaConfig.Topics.GenerateJobs:    consumer.NewGenerateJobHandler(logger, generationSvc),
			cfg.KafkaConfig.Topics.PublishJobs:     consumer.NewPublishJobHandler(logger, publishSvc),
			cfg.KafkaConfig.Topics.ReviewApproved:  consumer.NewReviewApprovedHandler(logger, reviewSvc),
			cfg.KafkaConfig.Topics.ReviewSkipped:   consumer.NewReviewSkippedHandler(logger, reviewSvc),
			cfg.KafkaConfig.Topics.EngagementStats: consumer.NewEngagementStatsHandler(logger, templateRepo),
		}
		for topic, handler := range handlers {
			if topic == "" {
				logger.Warn("存在未配置的 Kafka topic，跳过对应消费者创建")
				continue
			}
			c, err := consumer.NewConsumer(&cfg.KafkaConfig, groupID, topic, handler, logger)
			if err != nil {
				logger.Fatal("初始化 Kafka 消费者失败", zap.String("topic", topic), zap.Error(err))
			}
			consumers = append(consumers, c)
			logger.Info("Kafka 消费者已准备就绪", zap.String("topic", topic))
		}

		if len(consumers) > 0 {
			logger.Info(fmt.Sprintf("准备启动 %d 个 Kafka 消费者...", len(consumers)))
			for _, c := range consumers {
				consumerWg.Add(1)
				go func(cons *consumer.Consumer) {
					defer consumerWg.Done()
					cons.Start(consumerCtx)
				}(c)
			}
		} else {
			logger.Warn("没有配置任何有效的 Kafka 消费者。")
		}
	} else {
		logger.Warn("Kafka Brokers 未配置，跳过所有 Kafka 消费者初始化。")
	}

	// --- 9. 初始化定时任务 ---
	scheduleTask := tasks.NewDailyScheduleTask(scheduler, logger)
	recoveryTask := tasks.NewStaleRecoveryTask(postRepo, kafkaProducer, cfg.GenerationConfig, logger)
	logger.Info("后台定时任务已初始化并启动")

	// --- 10. 设置 Gin 路由器 ---
	ginRouter := router.SetupRouter(logger, &cfg, postAdminController, scheduleController)
	logger.Info("Gin 路由器已设置")

	// --- 11. 启动 HTTP 服务器 ---
	serverAddr := fmt.Sprintf(":%s", cfg.ServerConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: ginRouter,
	}

	go func() {
		logger.Info("HTTP 服务器开始监听", zap.String("address", serverAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
		logger.Info("HTTP 服务器已停止监听")
	}()

	// --- 12. 实现优雅关停 ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	logger.Info("收到关停信号，开始优雅退出...", zap.String("signal", receivedSignal.String()))

	shutdownCtx, shutdownCancelFunc := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancelFunc()

	// a. 停止 HTTP 服务器 (允许处理完当前请求)
	logger.Info("正在关闭 HTTP 服务器...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭 HTTP 服务器失败", zap.Error(err))
	} else {
		logger.Info("HTTP 服务器已成功关闭")
	}

	// b. 关闭 Kafka 消费者
	logger.Info("正在发送停止信号给 Kafka 消费者...")
	consumerCancel()
	logger.Info("等待 Kafka 消费者停止...")
	consumerWg.Wait()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Error("关闭某个 Kafka 消费者时出错", zap.Error(err))
		}
	}
	logger.Info("所有 Kafka 消费者已停止。")

	// c. 关闭 Kafka 生产者
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("关闭 Kafka 生产者失败", zap.Error(err))
		}
	}

	// d. 停止定时任务调度器 (等待存量任务结束)
	logger.Info("正在停止定时任务...")
	stopCtxs := []context.Context{scheduleTask.Stop(), recoveryTask.Stop()}
	for _, stopCtx := range stopCtxs {
		select {
		case <-stopCtx.Done():
		case <-shutdownCtx.Done():
			logger.Error("等待定时任务停止超时", zap.Error(shutdownCtx.Err()))
		}
	}
	logger.Info("所有定时任务已停止")

	logger.Info("服务已成功关闭")
}
