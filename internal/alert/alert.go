// Package alert 在发现诈骗特征时向外部系统投递告警。
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Alert 描述一次告警。
type Alert struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Indicator string `json:"indicator"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
	CreatedAt int64  `json:"created_at"`
}

// Publisher 定义告警投递接口。
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
	Close() error
}

func prepare(a *Alert) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
}

func encode(a Alert) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("序列化告警失败: %w", err)
	}
	return body, nil
}

// LogPublisher 将告警写入结构化日志。
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher 创建日志告警器。
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish 实现 Publisher。
func (p *LogPublisher) Publish(ctx context.Context, a Alert) error {
	prepare(&a)
	p.logger.LogAttrs(ctx, slog.LevelWarn, "scam alert",
		slog.String("alert_id", a.ID),
		slog.String("kind", a.Kind),
		slog.String("indicator", a.Indicator),
		slog.String("source", a.Source),
		slog.String("summary", a.Summary),
	)
	return nil
}

// Close 实现 Publisher。
func (p *LogPublisher) Close() error { return nil }

// NopPublisher 丢弃所有告警。
type NopPublisher struct{}

// Publish 实现 Publisher。
func (NopPublisher) Publish(context.Context, Alert) error { return nil }

// Close 实现 Publisher。
func (NopPublisher) Close() error { return nil }

var (
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = NopPublisher{}
)
