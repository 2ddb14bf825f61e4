package dag

import (
	"errors"
	"sort"
)

// ErrNotDAG 图中存在环，无法生成执行顺序（对外导出）
// 规划器假定调用前已通过循环检测；收到有环图属于调用方错误，
// 显式失败而不是死循环或截断结果
var ErrNotDAG = errors.New("图中存在环，无法进行拓扑排序")

// Plan 执行计划（对外导出）
// Order为拓扑顺序的节点ID序列；Levels按轮次分组，
// 同一层的节点互不依赖，可并行执行。每次规划新建，生成后不再修改
type Plan struct {
	Order  []string
	Levels [][]string
}

// TopologicalSort 对无环图执行拓扑排序（对外导出）
// nodes为去重后的节点ID列表。
// 使用Kahn算法：计算节点入度，反复移除入度为0的节点并递减其下游入度，
// 每一轮移除的节点构成一个Level，各Level按轮次拼接即为Order。
// 同一轮内按节点ID升序排列，保证结果确定
func TopologicalSort(nodes []string, succ map[string][]string) (*Plan, error) {
	inDegree := make(map[string]int, len(nodes))
	for _, id := range nodes {
		inDegree[id] = 0
	}
	for _, children := range succ {
		for _, child := range children {
			if _, ok := inDegree[child]; ok {
				inDegree[child]++
			}
		}
	}

	queue := make([]string, 0)
	for _, id := range nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	plan := &Plan{
		Order:  make([]string, 0, len(nodes)),
		Levels: make([][]string, 0),
	}

	processed := 0
	for len(queue) > 0 {
		level := append([]string(nil), queue...)
		sort.Strings(level)

		nextQueue := make([]string, 0)
		for _, nodeID := range level {
			plan.Order = append(plan.Order, nodeID)
			processed++

			for _, childID := range succ[nodeID] {
				if _, ok := inDegree[childID]; !ok {
					continue
				}
				inDegree[childID]--
				if inDegree[childID] == 0 {
					nextQueue = append(nextQueue, childID)
				}
			}
		}

		plan.Levels = append(plan.Levels, level)
		queue = nextQueue
	}

	// 有节点未被处理说明存在环
	if processed != len(inDegree) {
		return nil, ErrNotDAG
	}

	return plan, nil
}
