package dag

import (
	"reflect"
	"testing"
)

func TestDetectCycle_NoCycle(t *testing.T) {
	nodes := []string{"A", "B", "C", "D"}
	succ := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"D"},
	}

	result := DetectCycle(nodes, succ)
	if result.HasCycle {
		t.Fatalf("无环图不应检测出环，实际环路径: %v", result.Cycle)
	}
	if len(result.Cycle) != 0 {
		t.Errorf("无环时环路径应为空，实际: %v", result.Cycle)
	}
}

func TestDetectCycle_SimpleCycle(t *testing.T) {
	nodes := []string{"A", "B", "C", "D"}
	succ := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"D"},
		"D": {"A"},
	}

	result := DetectCycle(nodes, succ)
	if !result.HasCycle {
		t.Fatal("有环图应检测出环")
	}

	expected := []string{"A", "B", "C", "D", "A"}
	if !reflect.DeepEqual(result.Cycle, expected) {
		t.Errorf("环路径错误，期望: %v, 实际: %v", expected, result.Cycle)
	}
}

func TestDetectCycle_TwoNodeCycle(t *testing.T) {
	nodes := []string{"x", "y"}
	succ := map[string][]string{
		"x": {"y"},
		"y": {"x"},
	}

	result := DetectCycle(nodes, succ)
	if !result.HasCycle {
		t.Fatal("有环图应检测出环")
	}
	verifyCycle(t, result.Cycle, succ)
}

func TestDetectCycle_CycleInBranch(t *testing.T) {
	// A -> B -> C -> B，环不从根节点开始
	nodes := []string{"A", "B", "C"}
	succ := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"B"},
	}

	result := DetectCycle(nodes, succ)
	if !result.HasCycle {
		t.Fatal("有环图应检测出环")
	}

	expected := []string{"B", "C", "B"}
	if !reflect.DeepEqual(result.Cycle, expected) {
		t.Errorf("环路径错误，期望: %v, 实际: %v", expected, result.Cycle)
	}
}

func TestDetectCycle_Deterministic(t *testing.T) {
	// 两个独立的环，确定性遍历应稳定报告同一个
	nodes := []string{"n1", "n2", "n3", "n4"}
	succ := map[string][]string{
		"n1": {"n2"},
		"n2": {"n1"},
		"n3": {"n4"},
		"n4": {"n3"},
	}

	first := DetectCycle(nodes, succ)
	if !first.HasCycle {
		t.Fatal("有环图应检测出环")
	}
	verifyCycle(t, first.Cycle, succ)

	for i := 0; i < 10; i++ {
		again := DetectCycle(nodes, succ)
		if !reflect.DeepEqual(first.Cycle, again.Cycle) {
			t.Fatalf("重复检测结果不一致，首次: %v, 第%d次: %v", first.Cycle, i+2, again.Cycle)
		}
	}
}

func TestDetectCycle_DisconnectedNoCycle(t *testing.T) {
	nodes := []string{"t1", "t2", "t3"}
	succ := map[string][]string{}

	result := DetectCycle(nodes, succ)
	if result.HasCycle {
		t.Fatalf("孤立节点不构成环，实际: %v", result.Cycle)
	}
}

// verifyCycle 校验报告的环真实存在：首尾相同且相邻元素之间有边
func verifyCycle(t *testing.T, cycle []string, succ map[string][]string) {
	t.Helper()

	if len(cycle) < 2 {
		t.Fatalf("环路径过短: %v", cycle)
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Fatalf("环路径首尾不同: %v", cycle)
	}

	for i := 0; i < len(cycle)-1; i++ {
		found := false
		for _, child := range succ[cycle[i]] {
			if child == cycle[i+1] {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("环路径中 %s -> %s 不存在对应的边", cycle[i], cycle[i+1])
		}
	}
}
