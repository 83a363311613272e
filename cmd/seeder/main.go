package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/dependencies"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

func main() {
	// --- 0. 解析命令行参数 ---
	var configFile string
	var numTemplates int
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "配置文件路径")
	flag.IntVar(&numTemplates, "templates", 5, "要生成的随机内容模板数量 (默认: 5)")
	flag.Parse()

	absConfigFile, err := filepath.Abs(configFile)
	if err != nil {
		fmt.Printf("无法获取配置文件的绝对路径 '%s': %v\n", configFile, err)
		absConfigFile = configFile
	}
	fmt.Printf("准备使用配置文件 '%s' 填充维度目录与内容模板...\n", absConfigFile)

	if numTemplates < 0 {
		fmt.Println("错误: 模板数量不能为负")
		os.Exit(1)
	}

	// --- 1. 加载配置 ---
	var cfg appConfig.AutopostConfig
	if err := core.LoadConfig(absConfigFile, &cfg); err != nil {
		fmt.Printf("加载配置失败 (%s): %v\n", absConfigFile, err)
		os.Exit(1)
	}
	fmt.Println("配置加载成功。")

	// --- 2. 初始化日志记录器 ---
	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		fmt.Printf("初始化 ZapLogger 失败: %v\n", loggerErr)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Logger().Sync()
	}()
	logger.Info("Logger 初始化成功 (Seeder)")

	// --- 3. 初始化 MySQL 数据库连接 ---
	db, dbErr := dependencies.InitMySQL(&cfg, logger)
	if dbErr != nil {
		logger.Fatal("初始化 MySQL 失败 (Seeder)", zap.Error(dbErr))
	}
	logger.Info("MySQL 连接成功 (Seeder)")

	// --- 4. 初始化 Repositories ---
	optionRepo := mysql.NewDimensionOptionRepository(db, logger)
	templateRepo := mysql.NewContentTemplateRepository(db, logger)

	// --- 5. 执行数据填充 ---
	ctx := context.Background()
	startTime := time.Now()

	Seed(ctx, optionRepo, templateRepo, logger, numTemplates)

	logger.Info("数据填充完成", zap.Duration("耗时", time.Since(startTime)))
	fmt.Printf("数据填充完成！耗时: %v\n", time.Since(startTime))
}
