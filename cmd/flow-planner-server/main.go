package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LENAX/flow-planner/internal/bootstrap"
	"github.com/LENAX/flow-planner/pkg/config"
)

var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/flow-planner.yaml", "配置文件路径")
	host := flag.String("host", "0.0.0.0", "监听地址")
	port := flag.Int("port", 0, "监听端口（覆盖配置文件）")
	flag.Parse()

	log.Printf("Flow Planner Server v%s (commit %s, built %s)", Version, GitCommit, BuildTime)
	log.Printf("配置文件: %s", *configPath)

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *port > 0 {
		cfg.HTTPPort = *port
	}

	// 2. 组装服务（存储、事件总线、引擎、调度器、API）
	app, err := bootstrap.New(cfg, bootstrap.Options{
		Host:    *host,
		Version: Version,
	})
	if err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	defer app.Close()

	// 3. 在goroutine中启动API服务器
	go func() {
		if err := app.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	log.Printf("✅ Flow Planner Server started on %s", app.Addr())

	// 4. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 5. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭服务失败: %v", err)
	}

	log.Println("✅ 服务已停止")
}
