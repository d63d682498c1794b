package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 全局配置
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	LLM       LLMConfig      `yaml:"llm"`
	NLU       NLUConfig      `yaml:"nlu"`
	Training  TrainingConfig `yaml:"training"`
	Paths     PathsConfig    `yaml:"paths"`
	Directors []string       `yaml:"directors"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LLMConfig 生成服务配置（AI 角色的台词来源）
type LLMConfig struct {
	Provider  string            `yaml:"provider"` // "openai" or "anthropic"
	OpenAI    LLMProviderConfig `yaml:"openai"`
	Anthropic LLMProviderConfig `yaml:"anthropic"`
	// AttemptTimeout 单次生成调用的超时，超时按一次失败尝试计。
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// LLMProviderConfig LLM 提供商配置
type LLMProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	APIURL      string  `yaml:"api_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// NLUConfig 意图识别与文本相似度服务配置
type NLUConfig struct {
	// RasaURL 意图识别服务地址，如 http://localhost:5005
	RasaURL string `yaml:"rasa_url"`
	// EmbedURL OpenAI 兼容 embeddings 服务的 base url
	EmbedURL    string `yaml:"embed_url"`
	EmbedAPIKey string `yaml:"embed_api_key"`
	EmbedModel  string `yaml:"embed_model"`
}

// TrainingConfig 训练引擎的各项阈值
type TrainingConfig struct {
	// ContextBudget 对话窗口的字符预算
	ContextBudget int `yaml:"context_budget"`
	// MaxAttempts 单轮生成的最大尝试次数
	MaxAttempts int `yaml:"max_attempts"`
	// MinReplyChars 短于此长度的生成结果视为废话重试
	MinReplyChars int `yaml:"min_reply_chars"`
	// SimilarityThreshold 与近期 AI 轮次相似度达到该值即判定复读
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// RepeatWindow 复读检查回溯的 AI 轮次数量
	RepeatWindow int `yaml:"repeat_window"`
	// FailThreshold AI 情绪激动次数超过该值则挑战失败
	FailThreshold int `yaml:"fail_threshold"`
	// ReplaceActive 训练中再次收到开始指令时是否废弃旧会话重建。
	// false 时拒绝并提示先结束当前训练。
	ReplaceActive bool `yaml:"replace_active"`
}

type PathsConfig struct {
	Courses   string `yaml:"courses"`
	Keywords  string `yaml:"keywords"`
	RecordsDB string `yaml:"records_db"`
}

// Load 从文件加载配置，并用环境变量覆盖敏感信息。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	// 敏感信息优先取环境变量，避免写进配置文件。
	if llmKey := os.Getenv("LLM_API_KEY"); llmKey != "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.OpenAI.APIKey = llmKey
		case "anthropic":
			cfg.LLM.Anthropic.APIKey = llmKey
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAI.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.Anthropic.APIKey = key
	}
	if key := os.Getenv("EMBED_API_KEY"); key != "" {
		cfg.NLU.EmbedAPIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.LLM.AttemptTimeout == 0 {
		c.LLM.AttemptTimeout = 30 * time.Second
	}
	if c.Training.ContextBudget == 0 {
		c.Training.ContextBudget = 300
	}
	if c.Training.MaxAttempts == 0 {
		c.Training.MaxAttempts = 7
	}
	if c.Training.MinReplyChars == 0 {
		c.Training.MinReplyChars = 5
	}
	if c.Training.SimilarityThreshold == 0 {
		c.Training.SimilarityThreshold = 0.88
	}
	if c.Training.RepeatWindow == 0 {
		c.Training.RepeatWindow = 12
	}
	if c.Training.FailThreshold == 0 {
		c.Training.FailThreshold = 3
	}
}

// Validate 验证配置。配置性错误在启动期就应当失败，而不是留到会话中途。
func (c *Config) Validate() error {
	if c.Paths.Courses == "" {
		return fmt.Errorf("courses path is required")
	}
	if c.Paths.Keywords == "" {
		return fmt.Errorf("keywords path is required")
	}
	if c.Paths.RecordsDB == "" {
		return fmt.Errorf("records_db path is required")
	}
	if len(c.Directors) == 0 {
		return fmt.Errorf("there must be at least one director")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}
	return nil
}
