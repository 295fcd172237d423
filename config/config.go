// =============================================================================
// finassist 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/finassist/finassist/types"
)

// Config 是 finassist 的完整配置结构
type Config struct {
	// Embedding 嵌入服务配置
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Chat 生成模型配置
	Chat ChatConfig `yaml:"chat"`

	// Market 行情数据配置
	Market MarketConfig `yaml:"market"`

	// Index 检索索引配置
	Index IndexConfig `yaml:"index"`

	// Redis 缓存配置（可选）
	Redis RedisConfig `yaml:"redis"`

	// Goals 目标存储配置
	Goals GoalsConfig `yaml:"goals"`

	// Log 日志配置
	Log LogConfig `yaml:"log"`

	// Telemetry 链路追踪配置
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EmbeddingConfig 嵌入服务配置
type EmbeddingConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions"`
	BatchSize  int           `yaml:"batch_size"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ChatConfig 生成模型配置
type ChatConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// MarketConfig 行情数据配置
type MarketConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	RatePerMinute int           `yaml:"rate_per_minute"`
	Timeout       time.Duration `yaml:"timeout"`
}

// IndexConfig 检索索引配置
type IndexConfig struct {
	Dir              string `yaml:"dir"`
	KnowledgeBaseDir string `yaml:"knowledge_base_dir"`
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     int    `yaml:"chunk_overlap"`
	TopK             int    `yaml:"top_k"`
	ContextTokenMax  int    `yaml:"context_token_max"`
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GoalsConfig 目标存储配置
type GoalsConfig struct {
	DBPath string `yaml:"db_path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// TelemetryConfig 链路追踪配置
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			BaseURL:    "https://api.openai.com",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			BatchSize:  64,
			Timeout:    30 * time.Second,
		},
		Chat: ChatConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Market: MarketConfig{
			BaseURL:       "https://www.alphavantage.co",
			CacheTTL:      10 * time.Minute,
			RatePerMinute: 5,
			Timeout:       20 * time.Second,
		},
		Index: IndexConfig{
			Dir:              "data/index",
			KnowledgeBaseDir: "data/knowledge_base",
			ChunkSize:        900,
			ChunkOverlap:     150,
			TopK:             3,
			ContextTokenMax:  3000,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Goals: GoalsConfig{
			DBPath: "data/goals.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "finassist",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Load 加载配置: 默认值 → YAML 文件（可选）→ 环境变量覆盖
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 应用 FINASSIST_* 环境变量覆盖
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
		if c.Chat.APIKey == "" {
			c.Chat.APIKey = v
		}
	}
	if v := os.Getenv("FINASSIST_EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("FINASSIST_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("FINASSIST_CHAT_API_KEY"); v != "" {
		c.Chat.APIKey = v
	}
	if v := os.Getenv("FINASSIST_CHAT_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" && c.Market.APIKey == "" {
		c.Market.APIKey = v
	}
	if v := os.Getenv("FINASSIST_MARKET_API_KEY"); v != "" {
		c.Market.APIKey = v
	}
	if v := os.Getenv("FINASSIST_INDEX_DIR"); v != "" {
		c.Index.Dir = v
	}
	if v := os.Getenv("FINASSIST_REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}
	if v := os.Getenv("FINASSIST_GOALS_DB"); v != "" {
		c.Goals.DBPath = v
	}
	if v := os.Getenv("FINASSIST_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FINASSIST_TELEMETRY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = b
		}
	}
}

// Validate 校验配置内部一致性。
// 凭证校验推迟到对应组件构造时（缺失凭证属 CONFIGURATION 错误）。
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return types.NewError(types.ErrConfigChunking,
			fmt.Sprintf("chunk_size must be positive, got %d", c.Index.ChunkSize))
	}
	if c.Index.ChunkOverlap < 0 {
		return types.NewError(types.ErrConfigChunking,
			fmt.Sprintf("chunk_overlap must be non-negative, got %d", c.Index.ChunkOverlap))
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return types.NewError(types.ErrConfigChunking,
			fmt.Sprintf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
				c.Index.ChunkOverlap, c.Index.ChunkSize))
	}
	if c.Index.TopK <= 0 {
		c.Index.TopK = 3
	}
	return nil
}
