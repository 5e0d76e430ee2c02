package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"CyberGuard/internal/app"
	"CyberGuard/internal/config"
	"CyberGuard/internal/console"
	"CyberGuard/internal/social"
)

// main 对社交帖子逐条执行诈骗检测。
func main() {
	configPath := flag.String("config", "", "配置文件路径，默认读取 CYBERGUARD_CONFIG 或 configs/cyberguard.yaml")
	feedURL := flag.String("feed", "", "RSS/Atom 订阅地址，覆盖 social.feed_url；为空时检测内置示例帖子")
	incidents := flag.Int("incidents", 10, "检测结束后输出最近 N 条诈骗线索，0 表示不输出")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *feedURL, *incidents); err != nil {
		log.Fatalf("socialcheck 运行失败: %v", err)
	}
}

func run(ctx context.Context, configPath, feedURL string, incidents int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if feedURL != "" {
		cfg.Social.FeedURL = feedURL
	}

	application, err := app.New(ctx, cfg, cfg.Social.Persona)
	if err != nil {
		return err
	}
	defer application.Close()

	var source social.Source = social.StaticSource{social.DemoPost}
	if cfg.Social.FeedURL != "" {
		source, err = social.NewFeedSource(social.FeedConfig{
			URL:     cfg.Social.FeedURL,
			Limit:   cfg.Social.Limit,
			Timeout: cfg.Social.Timeout,
		})
		if err != nil {
			return err
		}
	}

	posts, err := source.Posts(ctx)
	if err != nil {
		return err
	}
	for _, post := range posts {
		report, err := application.Analyzer.AnalyzePost(ctx, post.Author, post.Text)
		if err != nil {
			return err
		}
		console.PrintReport(os.Stdout, application.Persona, report)
	}

	if incidents <= 0 {
		return nil
	}
	list, err := application.RecentIncidents(ctx, incidents)
	if err != nil {
		return err
	}
	console.PrintIncidents(os.Stdout, list)
	return nil
}
