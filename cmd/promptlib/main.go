package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"promptlib/internal/auth"
	"promptlib/internal/config"
	"promptlib/internal/contribution"
	"promptlib/internal/infra"
	"promptlib/internal/logger"
	"promptlib/internal/prefs"
	"promptlib/internal/prompt"
	"promptlib/internal/search"
	"promptlib/internal/store"
	"promptlib/internal/voting"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 0. 统一加载 .env，便于集中管理 APP_* 环境变量
	loadEnvFile()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 1. 加载配置
	cfg, err := config.Load(env, "")
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("提示词库启动中...",
		zap.String("env", env),
		zap.String("db_path", cfg.Store.DBPath))

	// 3. 初始化本地数据库
	db, err := infra.InitDatabase(&cfg.Store)
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		if err := infra.CloseDatabase(); err != nil {
			logger.Error("关闭数据库失败", zap.Error(err))
		}
	}()

	kv := store.NewKV(db)
	if cfg.Store.AutoMigrate {
		if err := kv.AutoMigrate(); err != nil {
			logger.Fatal("迁移存储表失败", zap.Error(err))
		}
	}

	ctx := context.Background()

	// 4. 装配服务
	repo := prompt.NewRepository(kv)
	authSvc := auth.NewService(ctx, kv)
	voteSvc := voting.NewService(ctx, kv, repo, authSvc.ActiveIdentity(ctx))
	authSvc.SetRekeyer(voteSvc)

	prefSvc := prefs.NewService(kv, &cfg.Search)
	contribSvc := contribution.NewService(kv, repo, authSvc)
	_ = search.NewService(&cfg.Search)

	// 5. 首次启动时导入种子数据
	if cfg.Library.SeedPath != "" {
		count, err := repo.SeedFromFile(ctx, cfg.Library.SeedPath)
		if err != nil {
			logger.Warn("导入种子数据失败",
				zap.String("path", cfg.Library.SeedPath),
				zap.Error(err))
		} else if count > 0 {
			logger.Info("种子数据已导入", zap.Int("count", count))
		}
	}

	// 6. 输出库概况
	prompts, err := repo.Load(ctx)
	if err != nil {
		logger.Fatal("加载提示词集合失败", zap.Error(err))
	}
	summary := voting.Summarize(prompts)
	trending := voting.Trending(prompts, cfg.Library.TrendingDays)
	contribStats := contribSvc.ContributionStats(ctx)

	logger.Info("提示词库就绪",
		zap.String("identity", authSvc.ActiveIdentity(ctx)),
		zap.String("user", authSvc.DisplayName()),
		zap.Int("prompts", len(prompts)),
		zap.Int("total_votes", summary.TotalVotes),
		zap.Int("trending", len(trending)),
		zap.Int("favorites", len(prefSvc.Favorites(ctx))),
		zap.Int("pending_contributions", contribStats.Pending),
		zap.Strings("popular_terms", search.PopularTerms(prompts)))
}

// loadEnvFile 统一加载 .env 文件
func loadEnvFile() {
	if path := resolveEnvPath(); path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("加载环境变量文件 %s 失败: %v\n", path, err)
		} else {
			fmt.Printf("已加载环境变量文件: %s\n", path)
		}
	} else {
		fmt.Println("未找到 .env 文件，将仅使用系统环境变量和 config/* 配置")
	}
}

// resolveEnvPath 尝试从当前工作目录、可执行文件目录向上查找根目录 .env
func resolveEnvPath() string {
	for _, path := range collectEnvCandidates() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func collectEnvCandidates() []string {
	seen := make(map[string]struct{})
	var candidates []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		candidates = append(candidates, path)
	}

	traverse := func(start string) {
		dir := filepath.Clean(start)
		for i := 0; i < 8; i++ {
			if dir == "" || dir == string(filepath.Separator) || dir == "." {
				break
			}
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if wd, err := os.Getwd(); err == nil {
		traverse(wd)
	}
	if exe, err := os.Executable(); err == nil {
		traverse(filepath.Dir(exe))
	}

	return candidates
}
