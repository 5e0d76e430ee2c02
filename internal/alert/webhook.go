package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookConfig 描述接收告警的 HTTP 地址。
type WebhookConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// WebhookPublisher 以 JSON 形式 POST 告警到外部系统。
type WebhookPublisher struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewWebhookPublisher 创建 Webhook 告警器。
func NewWebhookPublisher(cfg WebhookConfig) (*WebhookPublisher, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("Webhook URL 不能为空")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookPublisher{
		url:        url,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Publish 实现 Publisher。
func (p *WebhookPublisher) Publish(ctx context.Context, a Alert) error {
	prepare(&a)
	body, err := encode(a)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造 Webhook 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用 Webhook 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Webhook 返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// Close 实现 Publisher。
func (p *WebhookPublisher) Close() error { return nil }

var _ Publisher = (*WebhookPublisher)(nil)
