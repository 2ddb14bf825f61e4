package dag

import "sort"

// CycleResult 循环检测结果（对外导出）
// Cycle为首尾相同的节点ID序列，相邻元素之间均有真实的边，
// 供编辑器高亮构成环的节点
type CycleResult struct {
	HasCycle bool
	Cycle    []string
}

// DetectCycle 检测有向图中是否存在环（对外导出）
// nodes: 节点ID列表；succ: 邻接表（节点ID -> 下游节点ID列表）
//
// 使用三色标记法：白色=未访问，灰色=在当前DFS路径上，黑色=已访问完毕。
// 遇到指向灰色节点的边即存在后向边，检测到环。
// 节点与子节点均按ID升序遍历，保证同一输入的输出可复现；
// 存在多个环时只报告确定性遍历找到的第一个
func DetectCycle(nodes []string, succ map[string][]string) CycleResult {
	const (
		white = 0 // 未访问
		gray  = 1 // 正在访问（当前路径上）
		black = 2 // 已访问完毕
	)

	order := append([]string(nil), nodes...)
	sort.Strings(order)

	color := make(map[string]int, len(order))
	parent := make(map[string]string, len(order))
	var cycle []string

	var dfs func(nodeID string) bool
	dfs = func(nodeID string) bool {
		color[nodeID] = gray

		children := append([]string(nil), succ[nodeID]...)
		sort.Strings(children)

		for _, childID := range children {
			switch color[childID] {
			case white:
				parent[childID] = nodeID
				if dfs(childID) {
					return true
				}
			case gray:
				// 后向边 nodeID -> childID，沿parent链重建环路径
				cycle = buildCycle(parent, childID, nodeID)
				return true
			}
			// 黑色节点跳过
		}

		color[nodeID] = black
		return false
	}

	for _, nodeID := range order {
		if color[nodeID] == white {
			if dfs(nodeID) {
				return CycleResult{HasCycle: true, Cycle: cycle}
			}
		}
	}

	return CycleResult{HasCycle: false, Cycle: []string{}}
}

// buildCycle 重建环路径
// parent链记录的是DFS树边（父->子），从后向边的起点回溯到环入口，
// 反转后得到沿边方向的路径：entry -> ... -> from -> entry
func buildCycle(parent map[string]string, entry, from string) []string {
	chain := make([]string, 0)
	cur := from
	for cur != entry && cur != "" {
		chain = append(chain, cur)
		cur = parent[cur]
	}

	cycle := make([]string, 0, len(chain)+2)
	cycle = append(cycle, entry)
	for i := len(chain) - 1; i >= 0; i-- {
		cycle = append(cycle, chain[i])
	}
	cycle = append(cycle, entry)
	return cycle
}
