package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Library LibraryConfig `mapstructure:"library"`
	Search  SearchConfig  `mapstructure:"search"`
}

// StoreConfig 本地存储配置
type StoreConfig struct {
	DBPath      string `mapstructure:"db_path"`      // sqlite 文件路径，默认 ./promptlib.db
	AutoMigrate bool   `mapstructure:"auto_migrate"` // 是否自动迁移表结构
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, /path/to/log
}

// LibraryConfig 提示词库配置
type LibraryConfig struct {
	SeedPath         string `mapstructure:"seed_path"`          // 初始数据 JSON 文件
	TrendingDays     int    `mapstructure:"trending_days"`      // 热门榜统计窗口（天）
	TopCategoryLimit int    `mapstructure:"top_category_limit"` // 分类榜单条数上限
}

// SearchConfig 搜索配置
type SearchConfig struct {
	SuggestionLimit int `mapstructure:"suggestion_limit"` // 搜索建议条数上限
	HistoryLimit    int `mapstructure:"history_limit"`    // 搜索历史保留条数
}

var globalConfig *Config

// Load 加载配置
// env: 环境名称（dev, prod, test）
// configPath: 配置文件路径（可选）
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		v.SetConfigName(env) // dev.yaml, prod.yaml
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	} else {
		v.SetConfigFile(configPath)
	}

	v.SetConfigType("yaml")

	// 默认值
	v.SetDefault("store.db_path", "./promptlib.db")
	v.SetDefault("store.auto_migrate", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "stdout")
	v.SetDefault("library.trending_days", 7)
	v.SetDefault("library.top_category_limit", 10)
	v.SetDefault("search.suggestion_limit", 8)
	v.SetDefault("search.history_limit", 20)

	// 读取环境变量（优先级高于配置文件）
	v.SetEnvPrefix("APP") // 环境变量前缀：APP_
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 支持嵌套配置：APP_STORE_DB_PATH

	// 配置文件缺失时使用默认值，不视为错误
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("配置未初始化，请先调用 Load()")
	}
	return globalConfig
}
