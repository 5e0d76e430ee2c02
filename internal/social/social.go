// Package social 提供待检测的社交平台帖子来源。
package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	xerrors "CyberGuard/internal/errors"

	"github.com/mmcdole/gofeed"
)

// CodeFeedFailure 表示订阅源不可用，检测任务无法继续。
const CodeFeedFailure xerrors.Code = "FEED_FAILURE"

func init() {
	xerrors.Register(CodeFeedFailure, xerrors.Attributes{
		Message:  "social feed unavailable",
		Severity: xerrors.SeverityCritical,
		Fatal:    true,
	})
}

// Post 是一条社交平台帖子。
type Post struct {
	Author string
	Text   string
	URL    string
}

// Source 返回一批待检测的帖子。
type Source interface {
	Posts(ctx context.Context) ([]Post, error)
}

// DemoPost 是内置的示例帖子。
var DemoPost = Post{
	Author: "QuickRich123",
	Text:   "Invest $50 with me and get $500 in a week—DM me!",
}

// StaticSource 返回固定的帖子列表。
type StaticSource []Post

// Posts 实现 Source。
func (s StaticSource) Posts(context.Context) ([]Post, error) {
	out := make([]Post, len(s))
	copy(out, s)
	return out, nil
}

// FeedConfig 描述 RSS/Atom 订阅源。
type FeedConfig struct {
	URL     string
	Limit   int
	Timeout time.Duration
}

// FeedSource 从 RSS/Atom 订阅中读取帖子。
type FeedSource struct {
	url    string
	limit  int
	client *http.Client
	parser *gofeed.Parser
}

// NewFeedSource 创建订阅源。
func NewFeedSource(cfg FeedConfig) (*FeedSource, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("订阅地址不能为空")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	return &FeedSource{
		url:    cfg.URL,
		limit:  limit,
		client: &http.Client{Timeout: timeout},
		parser: gofeed.NewParser(),
	}, nil
}

// Posts 实现 Source，最多返回 limit 条。
func (s *FeedSource) Posts(ctx context.Context) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造订阅请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "cyberguard/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(CodeFeedFailure, err, "拉取订阅失败", xerrors.WithMetadata("url", s.url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.New(CodeFeedFailure, fmt.Sprintf("订阅返回状态码 %d", resp.StatusCode),
			xerrors.WithMetadata("url", s.url))
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, xerrors.Wrap(CodeFeedFailure, err, "解析订阅失败", xerrors.WithMetadata("url", s.url))
	}

	posts := make([]Post, 0, min(len(feed.Items), s.limit))
	for _, item := range feed.Items {
		if len(posts) == s.limit {
			break
		}
		text := strings.TrimSpace(item.Title)
		if text == "" {
			text = strings.TrimSpace(item.Description)
		}
		if text == "" {
			continue
		}
		posts = append(posts, Post{
			Author: author(feed, item),
			Text:   text,
			URL:    item.Link,
		})
	}
	return posts, nil
}

func author(feed *gofeed.Feed, item *gofeed.Item) string {
	name := ""
	switch {
	case item.Author != nil && item.Author.Name != "":
		name = item.Author.Name
	case len(item.Authors) > 0 && item.Authors[0] != nil:
		name = item.Authors[0].Name
	default:
		name = feed.Title
	}
	return strings.TrimPrefix(strings.TrimSpace(name), "@")
}

var (
	_ Source = StaticSource(nil)
	_ Source = (*FeedSource)(nil)
)
