// Package etherscan counts wallet transactions through the Etherscan account
// txlist API. Any status other than "1" maps to ledger.ErrNoData.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CyberGuard/internal/ledger"
)

const (
	defaultBaseURL = "https://api.etherscan.io/api"
	defaultTimeout = 15 * time.Second
)

// Config 描述访问 Etherscan 账户接口所需的信息。
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client 通过 txlist 接口统计地址的交易数量。
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient 根据配置创建 Etherscan 客户端。API Key 允许为空，由服务端决定是否拒绝。
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("解析 Etherscan 地址失败: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// TransactionCount 查询地址的完整交易列表并返回其长度。
func (c *Client) TransactionCount(ctx context.Context, address string) (int, error) {
	endpoint, err := c.buildURL(address)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("构建 Etherscan 请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("请求 Etherscan 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("Etherscan 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Status  *string         `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("解析 Etherscan 响应失败: %w", err)
	}
	if decoded.Status == nil {
		return 0, errors.New("Etherscan 响应缺少 status 字段")
	}
	if *decoded.Status != "1" {
		return 0, fmt.Errorf("%w: status=%s message=%s", ledger.ErrNoData, *decoded.Status, decoded.Message)
	}
	if len(decoded.Result) == 0 {
		return 0, errors.New("Etherscan 响应缺少 result 字段")
	}

	var txs []json.RawMessage
	if err := json.Unmarshal(decoded.Result, &txs); err != nil {
		return 0, fmt.Errorf("Etherscan result 不是数组: %w", err)
	}
	if txs == nil {
		return 0, errors.New("Etherscan result 为 null")
	}
	return len(txs), nil
}

func (c *Client) buildURL(address string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("解析 Etherscan 地址失败: %w", err)
	}
	query := base.Query()
	query.Set("module", "account")
	query.Set("action", "txlist")
	query.Set("address", address)
	query.Set("startblock", "0")
	query.Set("endblock", "99999999")
	query.Set("sort", "asc")
	query.Set("apikey", c.apiKey)
	base.RawQuery = query.Encode()
	return base.String(), nil
}

var _ ledger.Counter = (*Client)(nil)
