package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/flow-planner/internal/bootstrap"
	"github.com/LENAX/flow-planner/pkg/cli/output"
	"github.com/LENAX/flow-planner/pkg/config"
)

var (
	serverPort int
	serverHost string
	configPath string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理Flow Planner HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动Flow Planner HTTP API服务。

示例：
  # 使用默认配置启动
  flow-planner server start

  # 指定端口启动
  flow-planner server start --port 8080

  # 指定配置文件启动
  flow-planner server start --config ./configs/flow-planner.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if serverPort > 0 {
			cfg.HTTPPort = serverPort
		}

		app, err := bootstrap.New(cfg, bootstrap.Options{
			Host:    serverHost,
			Version: Version,
		})
		if err != nil {
			output.Error("初始化服务失败: %v", err)
			return err
		}
		defer app.Close()

		// 后台启动HTTP服务
		errCh := make(chan error, 1)
		go func() {
			errCh <- app.Start()
		}()
		output.Info("服务已启动: %s", app.Addr())

		// 等待退出信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				output.Error("服务异常退出: %v", err)
				return err
			}
		case sig := <-quit:
			log.Printf("收到退出信号: %v", sig)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭服务失败: %v", err)
			return err
		}

		output.Success("服务已退出")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "HTTP服务端口（覆盖配置文件）")
	serverStartCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "HTTP监听地址")
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "./configs/flow-planner.yaml", "配置文件路径")

	serverCmd.AddCommand(serverStartCmd)
}
