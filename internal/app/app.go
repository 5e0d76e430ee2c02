// Package app 根据配置装配分析流水线的各个组件。
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"CyberGuard/internal/alert"
	"CyberGuard/internal/analyzer"
	"CyberGuard/internal/classify"
	"CyberGuard/internal/config"
	"CyberGuard/internal/enrich"
	xerrors "CyberGuard/internal/errors"
	"CyberGuard/internal/incident"
	"CyberGuard/internal/ledger"
	"CyberGuard/internal/ledger/etherscan"
	"CyberGuard/internal/ledger/ethrpc"
	"CyberGuard/internal/ledger/rediscache"
	"CyberGuard/internal/llm"
	"CyberGuard/internal/llm/openai"
	"CyberGuard/internal/persona"
	"CyberGuard/pkg/logger"
)

// App 持有装配好的分析器以及需要在退出时释放的资源。
type App struct {
	Config   *config.Config
	Persona  persona.Persona
	Analyzer *analyzer.Analyzer
	// Incidents 为空表示未启用线索存储。
	Incidents incident.Store

	closers []func() error
}

// New 初始化日志并按配置创建全部组件。personaName 为空时使用 cfg.Persona。
func New(ctx context.Context, cfg *config.Config, personaName string) (_ *App, err error) {
	if cfg == nil {
		return nil, xerrors.New(xerrors.CodeConfigFailure, "配置为空")
	}
	if err = logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "初始化日志失败")
	}

	a := &App{Config: cfg, closers: []func() error{logger.Sync}}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	registry, err := persona.LoadFile(cfg.PersonasFile)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigFailure, err, "加载人设失败")
	}
	if personaName == "" {
		personaName = cfg.Persona
	}
	p, err := registry.Lookup(personaName)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigFailure, err, "")
	}
	a.Persona = p

	llmClient, err := createLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	var counter ledger.Counter
	if p.Allows(classify.WalletAddress) {
		counter, err = a.createCounter(ctx, cfg.Ledger)
		if err != nil {
			return nil, err
		}
	}

	store, err := a.createIncidentStore(ctx, cfg.Incidents)
	if err != nil {
		return nil, err
	}
	a.Incidents = store

	publisher, err := a.createPublisher(cfg.Alerts)
	if err != nil {
		return nil, err
	}

	a.Analyzer = analyzer.New(
		llmClient,
		enrich.Default(counter, logger.Named("enrich")),
		p,
		analyzer.WithIncidentStore(store),
		analyzer.WithAlertPublisher(publisher),
		analyzer.WithLogger(logger.Named("analyzer")),
		analyzer.WithAuditLogger(logger.Audit()),
		analyzer.WithLLMTimeout(cfg.LLM.Timeout),
	)

	logger.Named("app").Info("cyberguard ready",
		slog.String("persona", p.Name),
		slog.String("ledger", cfg.Ledger.Provider),
		slog.String("incidents", cfg.Incidents.Driver),
		slog.String("alerts", cfg.Alerts.Driver),
	)
	return a, nil
}

// RecentIncidents 返回最近记录的 limit 条线索，未启用存储时返回空。
func (a *App) RecentIncidents(ctx context.Context, limit int) ([]incident.Incident, error) {
	if a == nil || a.Incidents == nil || limit <= 0 {
		return nil, nil
	}
	list, err := a.Incidents.ListLatest(ctx, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取诈骗线索失败")
	}
	return list, nil
}

// Close 按创建的逆序释放资源。
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, a.closers[i]())
	}
	a.closers = nil
	return err
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func createLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "", "openai":
		apiKey := cfg.LLMAPIKey()
		if apiKey == "" {
			return nil, xerrors.New(xerrors.CodeConfigFailure,
				fmt.Sprintf("OpenAI provider 需要配置 llm.api_key 或环境变量 %s", cfg.LLM.APIKeyEnv))
		}
		client, err := openai.NewClient(openai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "创建大模型客户端失败")
		}
		return client, nil
	default:
		return nil, xerrors.New(xerrors.CodeConfigFailure, fmt.Sprintf("未知的大模型 provider: %s", cfg.LLM.Provider))
	}
}

func (a *App) createCounter(ctx context.Context, cfg config.LedgerConfig) (ledger.Counter, error) {
	var counter ledger.Counter
	switch cfg.Provider {
	case "", "etherscan":
		client, err := etherscan.NewClient(etherscan.Config{
			APIKey:  a.Config.LedgerAPIKey(),
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "创建区块浏览器客户端失败")
		}
		counter = client
	case "rpc":
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		client, err := ethrpc.Dial(dialCtx, cfg.RPCURL)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "连接以太坊节点失败")
		}
		a.onClose(func() error {
			client.Close()
			return nil
		})
		counter = client
	case "none":
		return nil, nil
	default:
		return nil, xerrors.New(xerrors.CodeConfigFailure, fmt.Sprintf("未知的账本 provider: %s", cfg.Provider))
	}

	if cfg.Cache.Driver != "redis" {
		return counter, nil
	}
	cache, err := rediscache.New(ctx, rediscache.Config{
		Address:  cfg.Cache.Redis.Address,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "连接 Redis 缓存失败")
	}
	a.onClose(cache.Close)
	return ledger.NewCachedCounter(counter, cache, cfg.Cache.TTL, logger.Named("ledger")), nil
}

func (a *App) createIncidentStore(ctx context.Context, cfg config.IncidentsConfig) (incident.Store, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "", "memory":
		return incident.NewMemoryStore(cfg.Capacity), nil
	case "mysql":
		store, err := incident.NewMySQLStore(ctx, incident.MySQLConfig{DSN: cfg.DSN})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化线索存储失败")
		}
		a.onClose(store.Close)
		return store, nil
	default:
		return nil, xerrors.Wrap(xerrors.CodeConfigFailure, incident.ErrUnsupportedDriver, cfg.Driver)
	}
}

func (a *App) createPublisher(cfg config.AlertsConfig) (alert.Publisher, error) {
	var (
		broker alert.Publisher
		err    error
	)
	logPublisher := alert.NewLogPublisher(logger.Named("alert"))
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "", "log":
		return logPublisher, nil
	case "rabbitmq":
		broker, err = alert.NewRabbitMQPublisher(alert.RabbitMQConfig{
			URL:     cfg.RabbitMQ.URL,
			Queue:   cfg.RabbitMQ.Queue,
			Durable: cfg.RabbitMQ.Durable,
		})
	case "kafka":
		broker, err = alert.NewKafkaPublisher(alert.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
	case "webhook":
		broker, err = alert.NewWebhookPublisher(alert.WebhookConfig{
			URL:     cfg.Webhook.URL,
			Token:   cfg.Webhook.Token,
			Timeout: cfg.Webhook.Timeout,
		})
	default:
		return nil, xerrors.New(xerrors.CodeConfigFailure, fmt.Sprintf("未知的告警驱动: %s", cfg.Driver))
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeAlertFailure, err, "初始化告警投递失败")
	}

	// 外部投递之外始终保留一份日志告警。
	publisher := alert.NewFanout(logPublisher, broker)
	a.onClose(publisher.Close)
	return publisher, nil
}
