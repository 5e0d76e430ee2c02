package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix 是覆盖配置项的环境变量前缀。
	EnvPrefix = "CYBERGUARD_"
	// PathEnv 指定配置文件路径的环境变量。
	PathEnv = "CYBERGUARD_CONFIG"
	// DefaultPath 是未指定路径时使用的配置文件。
	DefaultPath = "configs/cyberguard.yaml"
)

// Config 描述了 CyberGuard 在启动阶段需要加载的核心配置。
type Config struct {
	Persona      string          `koanf:"persona"`
	PersonasFile string          `koanf:"personas_file"`
	LLM          LLMConfig       `koanf:"llm"`
	Ledger       LedgerConfig    `koanf:"ledger"`
	Incidents    IncidentsConfig `koanf:"incidents"`
	Alerts       AlertsConfig    `koanf:"alerts"`
	Social       SocialConfig    `koanf:"social"`
	Logging      LoggingConfig   `koanf:"logging"`
}

// LLMConfig 用于配置大模型推理的调用方式。
type LLMConfig struct {
	Provider  string        `koanf:"provider"`
	APIKey    string        `koanf:"api_key"`
	APIKeyEnv string        `koanf:"api_key_env"`
	BaseURL   string        `koanf:"base_url"`
	Model     string        `koanf:"model"`
	Timeout   time.Duration `koanf:"timeout"`
}

// LedgerConfig 描述钱包交易次数的查询后端。
type LedgerConfig struct {
	Provider  string        `koanf:"provider"`
	APIKey    string        `koanf:"api_key"`
	APIKeyEnv string        `koanf:"api_key_env"`
	BaseURL   string        `koanf:"base_url"`
	RPCURL    string        `koanf:"rpc_url"`
	Timeout   time.Duration `koanf:"timeout"`
	Cache     CacheConfig   `koanf:"cache"`
}

// CacheConfig 控制交易次数缓存。
type CacheConfig struct {
	Driver string        `koanf:"driver"`
	TTL    time.Duration `koanf:"ttl"`
	Redis  RedisConfig   `koanf:"redis"`
}

// RedisConfig 描述 Redis 连接。
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// IncidentsConfig 描述诈骗线索的存储后端。
type IncidentsConfig struct {
	Driver   string `koanf:"driver"`
	DSN      string `koanf:"dsn"`
	Capacity int    `koanf:"capacity"`
}

// AlertsConfig 描述告警投递方式。
type AlertsConfig struct {
	Driver   string         `koanf:"driver"`
	RabbitMQ RabbitMQConfig `koanf:"rabbitmq"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Webhook  WebhookConfig  `koanf:"webhook"`
}

// RabbitMQConfig 描述 RabbitMQ 告警队列。
type RabbitMQConfig struct {
	URL     string `koanf:"url"`
	Queue   string `koanf:"queue"`
	Durable bool   `koanf:"durable"`
}

// KafkaConfig 描述 Kafka 告警主题。
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// WebhookConfig 描述接收告警的 HTTP 地址。
type WebhookConfig struct {
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

// SocialConfig 控制社交帖子检测。
type SocialConfig struct {
	Persona string        `koanf:"persona"`
	FeedURL string        `koanf:"feed_url"`
	Limit   int           `koanf:"limit"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level       string      `koanf:"level"`
	Format      string      `koanf:"format"`
	OutputPaths []string    `koanf:"output_paths"`
	Audit       AuditConfig `koanf:"audit"`
}

// AuditConfig 控制审计日志及其滚动策略。
type AuditConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// Load 解析 YAML 配置文件并叠加 CYBERGUARD_ 前缀的环境变量。
//
// path 为空时依次使用 CYBERGUARD_CONFIG 与 DefaultPath；默认文件不存在时仅使用默认值。
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		path = DefaultPath
		explicit = false
	}

	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("解析配置失败: %w", err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("读取环境变量失败: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey 将 CYBERGUARD_LLM__API_KEY 映射为 llm.api_key。
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "config" {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.PersonasFile != "" && !filepath.IsAbs(c.PersonasFile) {
		c.PersonasFile = filepath.Join(baseDir, c.PersonasFile)
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 60 * time.Second
	}

	if c.Ledger.Provider == "" {
		c.Ledger.Provider = "etherscan"
	}
	if c.Ledger.APIKeyEnv == "" {
		c.Ledger.APIKeyEnv = "ETHERSCAN_API_KEY"
	}
	if c.Ledger.Timeout <= 0 {
		c.Ledger.Timeout = 15 * time.Second
	}
	if c.Ledger.Cache.Driver == "" {
		c.Ledger.Cache.Driver = "none"
	}
	if c.Ledger.Cache.TTL <= 0 {
		c.Ledger.Cache.TTL = 10 * time.Minute
	}

	if c.Incidents.Driver == "" {
		c.Incidents.Driver = "memory"
	}

	if c.Alerts.Driver == "" {
		c.Alerts.Driver = "log"
	}
	if c.Alerts.RabbitMQ.Queue == "" {
		c.Alerts.RabbitMQ.Queue = "cyberguard.alerts"
	}
	if c.Alerts.Kafka.Topic == "" {
		c.Alerts.Kafka.Topic = "cyberguard.alerts"
	}

	if c.Social.Persona == "" {
		c.Social.Persona = "cyberguard_social"
	}
	if c.Social.Limit <= 0 {
		c.Social.Limit = 10
	}
	if c.Social.Timeout <= 0 {
		c.Social.Timeout = 15 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stderr"}
	}
	if c.Logging.Audit.Path == "" {
		c.Logging.Audit.Path = "logs/audit.log"
	}
}

// Validate 校验枚举类配置项。
func (c *Config) Validate() error {
	if err := oneOf("llm.provider", c.LLM.Provider, "openai"); err != nil {
		return err
	}
	if err := oneOf("ledger.provider", c.Ledger.Provider, "etherscan", "rpc", "none"); err != nil {
		return err
	}
	if err := oneOf("ledger.cache.driver", c.Ledger.Cache.Driver, "none", "redis"); err != nil {
		return err
	}
	if err := oneOf("incidents.driver", c.Incidents.Driver, "none", "memory", "mysql"); err != nil {
		return err
	}
	if err := oneOf("alerts.driver", c.Alerts.Driver, "none", "log", "rabbitmq", "kafka", "webhook"); err != nil {
		return err
	}
	if c.Ledger.Provider == "rpc" && c.Ledger.RPCURL == "" {
		return errors.New("ledger.provider 为 rpc 时必须配置 ledger.rpc_url")
	}
	return nil
}

// LLMAPIKey 返回大模型的 API Key，未直接配置时读取 api_key_env 指定的环境变量。
func (c *Config) LLMAPIKey() string {
	return resolveKey(c.LLM.APIKey, c.LLM.APIKeyEnv)
}

// LedgerAPIKey 返回区块浏览器的 API Key。
func (c *Config) LedgerAPIKey() string {
	return resolveKey(c.Ledger.APIKey, c.Ledger.APIKeyEnv)
}

func resolveKey(value, envName string) string {
	if value != "" {
		return value
	}
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s 不支持取值 %q (可选: %s)", field, value, strings.Join(allowed, ", "))
}
