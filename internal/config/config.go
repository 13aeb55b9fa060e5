package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jobhunt-ai/internal/constants"
	"jobhunt-ai/internal/logger"
	"jobhunt-ai/internal/tracing"
)

// 支持的 AI 提供方
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config 应用程序配置
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	AI      AIConfig       `yaml:"ai"`
	Logger  logger.Config  `yaml:"logger"`
	Tracing tracing.Config `yaml:"tracing"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address     string `yaml:"address"`       // 例如 ":8080" or "127.0.0.1:8080"
	MaxUploadMB int    `yaml:"max_upload_mb"` // 简历上传大小上限(MB)
}

// AIConfig 模型访问配置
type AIConfig struct {
	Provider       string         `yaml:"provider"` // gemini | openai
	APIKey         string         `yaml:"api_key"`
	Model          string         `yaml:"model"`
	APIURL         string         `yaml:"api_url"` // 仅 openai 兼容接口使用
	Timeout        string         `yaml:"timeout"` // 例如 "60s"
	Temperature    float32        `yaml:"temperature"`
	QPM            int            `yaml:"qpm"`              // 每分钟请求数限制
	ModelQPMLimits map[string]int `yaml:"model_qpm_limits"` // 按模型的 QPM 限额
}

// MetricsConfig prometheus 指标暴露配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TimeoutDuration 解析单次 AI 调用超时，非法或为空时使用默认值
func (c AIConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return constants.DefaultAITimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return constants.DefaultAITimeout
	}
	return d
}

// MaxUploadBytes 上传大小上限(字节)
func (c ServerConfig) MaxUploadBytes() int {
	return c.MaxUploadMB << 20
}

// Default 返回所有字段都填好默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig 从文件加载配置，文件不存在时使用默认配置，然后应用环境变量覆盖
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 没有配置文件时完全依赖默认值和环境变量
	case err != nil:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 从环境变量覆盖配置（如果存在）
// API_KEY 为通用密钥，提供方专用的密钥优先
func (c *Config) applyEnv() {
	if v := os.Getenv("JOBHUNT_AI_PROVIDER"); v != "" {
		c.AI.Provider = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	provider := strings.ToLower(c.AI.Provider)
	if provider == "" || provider == ProviderGemini {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.AI.APIKey = v
		}
	}
	if provider == ProviderOpenAI {
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.AI.APIKey = v
		}
	}
	if v := os.Getenv("JOBHUNT_AI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("JOBHUNT_AI_API_URL"); v != "" {
		c.AI.APIURL = v
	}
	if v := os.Getenv("JOBHUNT_SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}
}

// applyDefaults 设置默认值
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "127.0.0.1:8080"
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = constants.DefaultMaxUploadMB
	}

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderGemini
	}
	if c.AI.Model == "" {
		if c.AI.Provider == ProviderOpenAI {
			c.AI.Model = constants.DefaultOpenAICompatModel
		} else {
			c.AI.Model = constants.DefaultGeminiModel
		}
	}
	if c.AI.QPM <= 0 {
		c.AI.QPM = constants.DefaultQPM
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "pretty"
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "jobhunt-ai"
	}
	if c.Tracing.SampleRatio <= 0 {
		c.Tracing.SampleRatio = 1
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate 检查无法用默认值修正的配置
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderGemini:
	case ProviderOpenAI:
		if c.AI.APIURL == "" {
			return fmt.Errorf("openai 兼容接口必须配置 ai.api_url")
		}
	default:
		return fmt.Errorf("不支持的 AI 提供方: %s", c.AI.Provider)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("启用链路追踪时必须配置 tracing.endpoint")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path 必须以 / 开头: %s", c.Metrics.Path)
	}
	return nil
}
