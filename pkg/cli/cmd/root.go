package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "flow-planner",
	Short: "Flow Planner CLI - 策略图校验与任务流程命令行工具",
	Long: `Flow Planner CLI 是量化策略图校验与任务流程编排的命令行工具。

支持的功能：
  - 校验策略图JSON并查看执行计划
  - 管理任务流程（保存、列出、查看、删除、触发、调度）
  - 查询运行历史
  - 启动HTTP API服务

使用示例：
  # 校验策略图
  flow-planner strategy validate ./strategy.json

  # 列出所有流程
  flow-planner flow list

  # 手动触发流程
  flow-planner flow run daily_update --date 20250102

  # 启动HTTP服务
  flow-planner server start --port 8080`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Flow Planner服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(strategyCmd)
	rootCmd.AddCommand(flowCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
