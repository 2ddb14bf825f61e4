package main

import (
	"github.com/LENAX/flow-planner/pkg/cli/cmd"
)

// CLI工具入口
func main() {
	cmd.Execute()
}
