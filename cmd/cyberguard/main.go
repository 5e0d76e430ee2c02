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
)

// main 是 CyberGuard 交互式控制台的入口。
func main() {
	configPath := flag.String("config", "", "配置文件路径，默认读取 CYBERGUARD_CONFIG 或 configs/cyberguard.yaml")
	personaName := flag.String("persona", "", "使用的人设名称，覆盖配置文件中的 persona")
	incidents := flag.Int("incidents", 0, "退出前输出最近 N 条诈骗线索，0 表示不输出")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *personaName, *incidents); err != nil {
		log.Fatalf("cyberguard 运行失败: %v", err)
	}
}

func run(ctx context.Context, configPath, personaName string, incidents int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg, personaName)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := console.Run(ctx, application.Analyzer, application.Persona, os.Stdin, os.Stdout); err != nil {
		return err
	}
	if incidents <= 0 {
		return nil
	}
	list, err := application.RecentIncidents(context.WithoutCancel(ctx), incidents)
	if err != nil {
		return err
	}
	console.PrintIncidents(os.Stdout, list)
	return nil
}
