package dag

import (
	"errors"
	"reflect"
	"testing"
)

func TestTopologicalSort_Chain(t *testing.T) {
	nodes := []string{"A", "B", "C", "D"}
	succ := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"D"},
	}

	plan, err := TopologicalSort(nodes, succ)
	if err != nil {
		t.Fatalf("拓扑排序失败: %v", err)
	}

	expectedOrder := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(plan.Order, expectedOrder) {
		t.Errorf("执行顺序错误，期望: %v, 实际: %v", expectedOrder, plan.Order)
	}

	expectedLevels := [][]string{{"A"}, {"B"}, {"C"}, {"D"}}
	if !reflect.DeepEqual(plan.Levels, expectedLevels) {
		t.Errorf("执行层错误，期望: %v, 实际: %v", expectedLevels, plan.Levels)
	}
}

func TestTopologicalSort_ParallelLevels(t *testing.T) {
	// A -> B, A -> C, B -> D, C -> D（菱形）
	nodes := []string{"A", "B", "C", "D"}
	succ := map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
	}

	plan, err := TopologicalSort(nodes, succ)
	if err != nil {
		t.Fatalf("拓扑排序失败: %v", err)
	}

	expectedLevels := [][]string{{"A"}, {"B", "C"}, {"D"}}
	if !reflect.DeepEqual(plan.Levels, expectedLevels) {
		t.Errorf("执行层错误，期望: %v, 实际: %v", expectedLevels, plan.Levels)
	}
}

func TestTopologicalSort_IndependentNodes(t *testing.T) {
	// 无依赖的独立任务全部落在第一层，同层按ID升序
	nodes := []string{"task2", "task1"}
	succ := map[string][]string{}

	plan, err := TopologicalSort(nodes, succ)
	if err != nil {
		t.Fatalf("拓扑排序失败: %v", err)
	}

	expectedLevels := [][]string{{"task1", "task2"}}
	if !reflect.DeepEqual(plan.Levels, expectedLevels) {
		t.Errorf("执行层错误，期望: %v, 实际: %v", expectedLevels, plan.Levels)
	}
	if !reflect.DeepEqual(plan.Order, []string{"task1", "task2"}) {
		t.Errorf("执行顺序错误，期望: [task1 task2], 实际: %v", plan.Order)
	}
}

func TestTopologicalSort_OrderRespectsEdges(t *testing.T) {
	nodes := []string{"a", "b", "c", "d", "e", "f"}
	succ := map[string][]string{
		"f": {"a", "b"},
		"a": {"c"},
		"b": {"c"},
		"c": {"d", "e"},
	}

	plan, err := TopologicalSort(nodes, succ)
	if err != nil {
		t.Fatalf("拓扑排序失败: %v", err)
	}

	// Order是所有节点的一个排列
	if len(plan.Order) != len(nodes) {
		t.Fatalf("节点数量错误，期望: %d, 实际: %d", len(nodes), len(plan.Order))
	}
	index := make(map[string]int, len(plan.Order))
	for i, id := range plan.Order {
		if _, dup := index[id]; dup {
			t.Fatalf("节点 %s 在Order中重复出现", id)
		}
		index[id] = i
	}

	// 每条边的源都排在目标之前
	for from, children := range succ {
		for _, to := range children {
			if index[from] >= index[to] {
				t.Errorf("边 %s -> %s 的顺序被违反: index(%s)=%d, index(%s)=%d",
					from, to, from, index[from], to, index[to])
			}
		}
	}

	// Levels恰好划分Order
	total := 0
	flat := make([]string, 0, len(nodes))
	for _, level := range plan.Levels {
		total += len(level)
		flat = append(flat, level...)
	}
	if total != len(nodes) {
		t.Errorf("Levels节点总数错误，期望: %d, 实际: %d", len(nodes), total)
	}
	if !reflect.DeepEqual(flat, plan.Order) {
		t.Errorf("Levels拼接应等于Order，期望: %v, 实际: %v", plan.Order, flat)
	}
}

func TestTopologicalSort_CyclicGraph(t *testing.T) {
	nodes := []string{"A", "B"}
	succ := map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}

	_, err := TopologicalSort(nodes, succ)
	if err == nil {
		t.Fatal("有环图应返回错误")
	}
	if !errors.Is(err, ErrNotDAG) {
		t.Errorf("错误类型错误，期望: ErrNotDAG, 实际: %v", err)
	}
}

func TestTopologicalSort_Empty(t *testing.T) {
	plan, err := TopologicalSort(nil, nil)
	if err != nil {
		t.Fatalf("空图排序失败: %v", err)
	}
	if len(plan.Order) != 0 || len(plan.Levels) != 0 {
		t.Errorf("空图应产出空计划，实际: Order=%v, Levels=%v", plan.Order, plan.Levels)
	}
}
