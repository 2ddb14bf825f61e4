package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LENAX/flow-planner/pkg/cli/flowplanner"
	"github.com/LENAX/flow-planner/pkg/cli/output"
)

// strategyCmd strategy子命令
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "策略图管理命令",
	Long:  `校验策略图、查询可用算子。`,
}

// strategyValidateCmd 校验策略图
var strategyValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "校验策略图JSON文件",
	Long: `校验画布导出的策略图JSON文件。

校验通过时输出拓扑执行顺序与并行层级；
校验失败时逐条列出错误（错误码、涉及节点、说明）。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			output.Error("读取文件失败: %v", err)
			return err
		}

		client := flowplanner.New(serverURL)
		result, err := client.ValidateStrategy(content)
		if err != nil {
			output.Error("校验请求失败: %v", err)
			return err
		}

		if outputJSON {
			if result.Plan != nil {
				return output.PrintJSON(result.Plan)
			}
			return output.PrintJSON(map[string]interface{}{"errors": result.Errors})
		}

		if result.Plan != nil {
			output.Success("校验通过")
			fmt.Printf("执行顺序: %s\n", strings.Join(result.Plan.Order, " -> "))
			fmt.Println("并行层级:")
			for i, level := range result.Plan.Levels {
				fmt.Printf("  L%d: %s\n", i, strings.Join(level, ", "))
			}
			return nil
		}

		output.Error("校验失败，共%d个错误", len(result.Errors))
		table := output.NewTable([]string{"CODE", "NODES", "MESSAGE"})
		for _, e := range result.Errors {
			table.AddRow([]string{e.Code, strings.Join(e.NodeIDs, ","), e.Message})
		}
		table.Render()
		return fmt.Errorf("校验失败")
	},
}

// strategyOperatorsCmd 查询可用算子
var strategyOperatorsCmd = &cobra.Command{
	Use:   "operators",
	Short: "列出可用算子定义",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := flowplanner.New(serverURL)
		result, err := client.Operators()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		table := output.NewTable([]string{"NAME", "PARAMS", "INPUT", "CROSS-SECTIONAL"})
		for _, op := range result.Operators {
			cross := "-"
			if op.CrossSectional {
				cross = "yes"
			}
			table.AddRow([]string{
				op.Name,
				strings.Join(op.Params, ","),
				strings.Join(op.Input, ","),
				cross,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	strategyCmd.AddCommand(strategyValidateCmd)
	strategyCmd.AddCommand(strategyOperatorsCmd)
}
