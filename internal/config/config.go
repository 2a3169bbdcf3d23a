package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config 描述了 lensagentd 在启动阶段需要加载的核心配置。
type Config struct {
	Logging  LoggingConfig     `json:"logging"`
	Lens     LensConfig        `json:"lens"`
	Cache    CacheConfig       `json:"cache"`
	Memory   MemoryConfig      `json:"memory"`
	Events   EventsConfig      `json:"events"`
	Content  ContentConfig     `json:"content"`
	LLM      LLMConfig         `json:"llm"`
	Persona  PersonaConfig     `json:"persona"`
	Settings map[string]string `json:"settings,omitempty"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths,omitempty"`
	AuditPath   string   `json:"audit_path,omitempty"`
}

// LensConfig 描述访问发布网络所需的参数。
type LensConfig struct {
	APIURL           string `json:"api_url"`
	ProfileID        string `json:"profile_id"`
	PrivateKeyEnv    string `json:"private_key_env"`
	RequestTimeoutMS int    `json:"request_timeout_ms"`
}

// CacheConfig 描述远端对象缓存的后端。
type CacheConfig struct {
	Driver string      `json:"driver"`
	Redis  RedisConfig `json:"redis"`
}

// RedisConfig 描述 Redis 连接参数。
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// MemoryConfig 描述长期记忆存储的后端。
type MemoryConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// EventsConfig 描述发布事件总线的后端。
type EventsConfig struct {
	Driver   string         `json:"driver"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RabbitMQConfig 描述 RabbitMQ 连接参数。
type RabbitMQConfig struct {
	URL     string `json:"url"`
	Queue   string `json:"queue"`
	Durable bool   `json:"durable"`
}

// ContentConfig 描述内容固定服务的接入信息。
type ContentConfig struct {
	APIURL      string `json:"api_url"`
	UsernameEnv string `json:"username_env"`
	PasswordEnv string `json:"password_env"`
}

// LLMConfig 用于配置大模型推理的调用方式。
type LLMConfig struct {
	APIKeyEnv  string `json:"api_key_env"`
	BaseURL    string `json:"base_url"`
	SmallModel string `json:"small_model"`
	LargeModel string `json:"large_model"`
	TimeoutSec int    `json:"timeout_seconds"`
}

// PersonaConfig 指向描述智能体人格的 YAML 文件。
type PersonaConfig struct {
	Path string `json:"path"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Lens.PrivateKeyEnv == "" {
		c.Lens.PrivateKeyEnv = "EVM_PRIVATE_KEY"
	}
	if c.Lens.RequestTimeoutMS <= 0 {
		c.Lens.RequestTimeoutMS = 30000
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Memory.Driver == "" {
		c.Memory.Driver = "memory"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "memory"
	}

	if c.Content.UsernameEnv == "" {
		c.Content.UsernameEnv = "STORJ_API_USERNAME"
	}
	if c.Content.PasswordEnv == "" {
		c.Content.PasswordEnv = "STORJ_API_PASSWORD"
	}

	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.LLM.SmallModel == "" {
		c.LLM.SmallModel = "gpt-4o-mini"
	}
	if c.LLM.LargeModel == "" {
		c.LLM.LargeModel = "gpt-4o"
	}

	if c.Persona.Path == "" {
		c.Persona.Path = filepath.Join(baseDir, "persona.yaml")
	} else if !filepath.IsAbs(c.Persona.Path) {
		c.Persona.Path = filepath.Join(baseDir, c.Persona.Path)
	}
}

// Setting 按名称读取运行时开关。配置文件中的取值优先，
// 缺失时回退到同名环境变量。
func (c *Config) Setting(name string) (string, bool) {
	if c != nil {
		if value, ok := c.Settings[name]; ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value, true
	}
	return "", false
}

// SettingLookup 是组件读取运行时开关的统一形态。
type SettingLookup func(name string) (string, bool)

// Lookup 返回绑定到当前配置的 SettingLookup。
func (c *Config) Lookup() SettingLookup {
	return c.Setting
}
