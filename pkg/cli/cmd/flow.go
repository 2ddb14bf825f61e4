package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LENAX/flow-planner/pkg/api/dto"
	"github.com/LENAX/flow-planner/pkg/cli/flowplanner"
	"github.com/LENAX/flow-planner/pkg/cli/output"
	"github.com/LENAX/flow-planner/pkg/core/flow"
)

var (
	runTargetDate string
	runsLimit     int
	scheduleCron  string
	scheduleOff   bool
)

// flowCmd flow子命令
var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "任务流程管理命令",
	Long:  `管理任务流程，包括保存、列出、查看、删除、触发和调度。`,
}

// flowListCmd 列出流程
var flowListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有流程",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := flowplanner.New(serverURL)
		result, err := client.ListFlows()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无流程")
			return nil
		}

		table := output.NewTable([]string{"NAME", "TASKS", "CRON", "ENABLED", "CREATED"})
		for _, f := range result.Items {
			cronStr := "-"
			if f.Cron != "" {
				cronStr = f.Cron
			}
			enabled := "no"
			if f.Enabled {
				enabled = "yes"
			}
			table.AddRow([]string{
				f.Name,
				fmt.Sprintf("%d", f.TaskCount),
				cronStr,
				enabled,
				f.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

// flowShowCmd 查看流程详情
var flowShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "查看流程详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := flowplanner.New(serverURL)
		result, err := client.GetFlow(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		fmt.Printf("流程:   %s\n", result.Name)
		fmt.Printf("描述:   %s\n", result.Description)
		if result.Cron != "" {
			fmt.Printf("定时:   %s (enabled=%v)\n", result.Cron, result.Enabled)
		}
		fmt.Printf("任务数: %d\n", result.TaskCount)
		fmt.Println("\nTasks:")
		for _, t := range result.Tasks {
			deps := ""
			if len(t.DependsOn) > 0 {
				deps = fmt.Sprintf(" (依赖: %v)", t.DependsOn)
			}
			fmt.Printf("  - %s [%s]%s\n", t.ID, t.Type, deps)
		}
		return nil
	},
}

// flowApplyCmd 保存流程定义
var flowApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "保存流程定义文件（YAML）",
	Long: `保存YAML流程定义到服务器，已存在的同名流程会被覆盖。

定义文件示例：
  name: daily_update
  description: 日线数据同步与因子计算
  cron: "0 0 18 * * 1-5"
  enabled: true
  tasks:
    - id: sync_daily
      type: sync
    - id: factor_momentum
      type: factor
      depends_on: [sync_daily]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			output.Error("读取文件失败: %v", err)
			return err
		}

		var f flow.Flow
		if err := yaml.Unmarshal(content, &f); err != nil {
			output.Error("解析流程定义失败: %v", err)
			return err
		}

		client := flowplanner.New(serverURL)
		result, err := client.SaveFlow(dto.SaveFlowRequest{
			Name:        f.Name,
			Description: f.Description,
			Cron:        f.Cron,
			Tags:        f.Tags,
			Enabled:     f.Enabled,
			Tasks:       f.Tasks,
		})
		if err != nil {
			output.Error("保存失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Success("流程保存成功: %s (%d个任务)", result.Name, result.TaskCount)
		return nil
	},
}

// flowDeleteCmd 删除流程
var flowDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "删除流程",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := flowplanner.New(serverURL)
		if err := client.DeleteFlow(args[0]); err != nil {
			output.Error("删除失败: %v", err)
			return err
		}
		output.Success("流程已删除: %s", args[0])
		return nil
	},
}

// flowRunCmd 手动触发流程
var flowRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "手动触发流程执行",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := flowplanner.New(serverURL)
		result, err := client.RunFlow(args[0], runTargetDate)
		if err != nil {
			output.Error("执行失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Success("流程执行完成: RunID=%s, Status=%s", result.RunID, result.Status)
		return nil
	},
}

// flowScheduleCmd 变更流程调度状态
var flowScheduleCmd = &cobra.Command{
	Use:   "schedule <name>",
	Short: "启用或停用流程定时调度",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("需要指定流程名")
		}

		client := flowplanner.New(serverURL)
		result, err := client.ScheduleFlow(args[0], !scheduleOff, scheduleCron)
		if err != nil {
			output.Error("调度变更失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if result.Enabled {
			output.Success("定时调度已启用: %s (%s)", result.Name, result.Cron)
		} else {
			output.Success("定时调度已停用: %s", result.Name)
		}
		return nil
	},
}

// flowRunsCmd 查询运行历史
var flowRunsCmd = &cobra.Command{
	Use:   "runs <name>",
	Short: "查询流程运行历史",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := flowplanner.New(serverURL)
		result, err := client.ListRuns(args[0], runsLimit)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无运行记录")
			return nil
		}

		table := output.NewTable([]string{"RUN-ID", "STATUS", "TRIGGER", "DATE", "STARTED", "DURATION"})
		for _, r := range result.Items {
			date := r.TargetDate
			if date == "" {
				date = "-"
			}
			duration := r.Duration
			if duration == "" {
				duration = "-"
			}
			table.AddRow([]string{
				r.RunID,
				r.Status,
				r.TriggerType,
				date,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				duration,
			})
		}
		table.Render()
		return nil
	},
}

// flowRunShowCmd 查看运行记录详情
var flowRunShowCmd = &cobra.Command{
	Use:   "run-show <run-id>",
	Short: "查看运行记录详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := flowplanner.New(serverURL)
		result, err := client.GetRun(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		fmt.Printf("RunID:  %s\n", result.RunID)
		fmt.Printf("流程:   %s\n", result.FlowName)
		fmt.Printf("状态:   %s\n", result.Status)
		fmt.Printf("触发:   %s\n", result.TriggerType)
		if result.Error != "" {
			fmt.Printf("错误:   %s\n", result.Error)
		}
		fmt.Println("\nTasks:")
		for id, t := range result.Tasks {
			line := fmt.Sprintf("  - %s: %s", id, t.Status)
			if t.Error != "" {
				line += " (" + t.Error + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	flowRunCmd.Flags().StringVar(&runTargetDate, "date", "", "目标交易日（YYYYMMDD），为空表示最新")
	flowRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "返回条数上限")
	flowScheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "更新Cron表达式（秒级精度，6字段）")
	flowScheduleCmd.Flags().BoolVar(&scheduleOff, "off", false, "停用定时调度")

	flowCmd.AddCommand(flowListCmd)
	flowCmd.AddCommand(flowShowCmd)
	flowCmd.AddCommand(flowApplyCmd)
	flowCmd.AddCommand(flowDeleteCmd)
	flowCmd.AddCommand(flowRunCmd)
	flowCmd.AddCommand(flowScheduleCmd)
	flowCmd.AddCommand(flowRunsCmd)
	flowCmd.AddCommand(flowRunShowCmd)
}
