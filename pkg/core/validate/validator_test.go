package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/flow-planner/pkg/core/contract"
	"github.com/LENAX/flow-planner/pkg/core/graph"
)

// strategyGraph 构建标准策略图: A:data_input -> B:operator -> C:signal -> D:backtest_output
func strategyGraph(extraNodes []graph.Node, extraEdges []graph.Edge) *graph.Graph {
	nodes := []graph.Node{
		{ID: "A", Kind: graph.KindDataInput, Params: graph.DataInputParams{TSCode: "000001.SZ"}},
		{ID: "B", Kind: graph.KindOperator, Params: graph.OperatorParams{Op: "sma", Window: 20, OutputCol: "sma20"}},
		{ID: "C", Kind: graph.KindSignal, Params: graph.SignalParams{Condition: "close > sma20", SignalCol: "signal"}},
		{ID: "D", Kind: graph.KindBacktestOutput, Params: graph.BacktestOutputParams{}},
	}
	edges := []graph.Edge{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
		{Source: "C", Target: "D"},
	}
	return graph.New(append(nodes, extraNodes...), append(edges, extraEdges...))
}

func TestValidate_CleanStrategyPipeline(t *testing.T) {
	plan, errs := Validate(strategyGraph(nil, nil), contract.StrategyRegistry())

	require.Empty(t, errs)
	require.NotNil(t, plan)
	assert.Equal(t, []string{"A", "B", "C", "D"}, plan.Order)
	assert.Equal(t, [][]string{{"A"}, {"B"}, {"C"}, {"D"}}, plan.Levels)
}

func TestValidate_CycleDetected(t *testing.T) {
	g := strategyGraph(nil, []graph.Edge{{Source: "D", Target: "A"}})

	plan, errs := Validate(g, contract.StrategyRegistry())

	assert.Nil(t, plan)
	// 回边D->A同时违反端口契约（backtest_output是汇点，不产出任何标签）
	require.Len(t, errs, 2)
	assert.Equal(t, CodeTypeMismatch, errs[0].Code)
	assert.Equal(t, []string{"D", "A"}, errs[0].NodeIDs)
	assert.Equal(t, CodeCycleDetected, errs[1].Code)
	assert.Equal(t, []string{"A", "B", "C", "D", "A"}, errs[1].NodeIDs)
}

func TestValidate_IsolatedOperatorNode(t *testing.T) {
	// 孤立的operator节点E既是非法根又是非法汇点
	g := strategyGraph([]graph.Node{
		{ID: "E", Kind: graph.KindOperator, Params: graph.OperatorParams{Op: "ema"}},
	}, nil)

	plan, errs := Validate(g, contract.StrategyRegistry())

	assert.Nil(t, plan)
	require.Len(t, errs, 2)
	assert.Equal(t, CodeOrphanedRoot, errs[0].Code)
	assert.Equal(t, []string{"E"}, errs[0].NodeIDs)
	assert.Equal(t, CodeDeadEndNode, errs[1].Code)
	assert.Equal(t, []string{"E"}, errs[1].NodeIDs)
}

func TestValidate_IndependentTasksParallelLevel(t *testing.T) {
	// 任务依赖图：两个独立sync任务无角色检查，同层可并行
	g := graph.New([]graph.Node{
		{ID: "task1", Kind: graph.KindSyncTask, Params: graph.TaskParams{Kind: graph.KindSyncTask}},
		{ID: "task2", Kind: graph.KindSyncTask, Params: graph.TaskParams{Kind: graph.KindSyncTask}},
	}, nil)

	plan, errs := Validate(g, contract.TaskRegistry())

	require.Empty(t, errs)
	require.NotNil(t, plan)
	assert.Equal(t, [][]string{{"task1", "task2"}}, plan.Levels)
	assert.Equal(t, []string{"task1", "task2"}, plan.Order)
}

func TestValidate_TypeMismatch(t *testing.T) {
	// data_input直接连backtest_output: price-series与scalar-signal无交集
	g := graph.New([]graph.Node{
		{ID: "in", Kind: graph.KindDataInput, Params: graph.DataInputParams{}},
		{ID: "out", Kind: graph.KindBacktestOutput, Params: graph.BacktestOutputParams{}},
	}, []graph.Edge{
		{Source: "in", Target: "out"},
	})

	plan, errs := Validate(g, contract.StrategyRegistry())

	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeTypeMismatch, errs[0].Code)
	assert.Equal(t, []string{"in", "out"}, errs[0].NodeIDs)
	assert.Equal(t, []contract.DataTag{contract.TagPriceSeries}, errs[0].SourceTags)
	assert.Equal(t, []contract.DataTag{contract.TagScalarSignal}, errs[0].TargetTags)
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	g := strategyGraph([]graph.Node{
		{ID: "B", Kind: graph.KindOperator, Params: graph.OperatorParams{Op: "rsi"}},
	}, nil)

	plan, errs := Validate(g, contract.StrategyRegistry())

	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeDuplicateNodeID, errs[0].Code)
	assert.Equal(t, []string{"B"}, errs[0].NodeIDs)
}

func TestValidate_DanglingEdge(t *testing.T) {
	g := strategyGraph(nil, []graph.Edge{{Source: "ghost", Target: "B"}})

	plan, errs := Validate(g, contract.StrategyRegistry())

	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeDanglingEdge, errs[0].Code)
	assert.Equal(t, []string{"ghost", "B"}, errs[0].NodeIDs)
	assert.Contains(t, errs[0].Message, "ghost")
}

func TestValidate_SelfLoop(t *testing.T) {
	g := strategyGraph(nil, []graph.Edge{{Source: "B", Target: "B"}})

	plan, errs := Validate(g, contract.StrategyRegistry())

	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeSelfLoop, errs[0].Code)
	assert.Equal(t, []string{"B"}, errs[0].NodeIDs)
}

func TestValidate_UnknownNodeKind(t *testing.T) {
	g := graph.New([]graph.Node{
		{ID: "A", Kind: graph.KindDataInput, Params: graph.DataInputParams{}},
		{ID: "X", Kind: graph.NodeKind("mystery")},
	}, []graph.Edge{
		{Source: "A", Target: "X"},
	})

	_, errs := Validate(g, contract.StrategyRegistry())

	require.NotEmpty(t, errs)
	var found bool
	for _, e := range errs {
		if e.Code == CodeUnknownNodeKind {
			found = true
			assert.Equal(t, []string{"X"}, e.NodeIDs)
		}
		// 未知类型的边不应重复报告类型不兼容
		assert.NotEqual(t, CodeTypeMismatch, e.Code)
	}
	assert.True(t, found, "应报告unknown_node_kind")
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	// 同时包含自环、悬空边和孤立节点，所有错误一次性报告
	g := strategyGraph([]graph.Node{
		{ID: "E", Kind: graph.KindOperator, Params: graph.OperatorParams{Op: "ema"}},
	}, []graph.Edge{
		{Source: "C", Target: "C"},
		{Source: "A", Target: "void"},
	})

	plan, errs := Validate(g, contract.StrategyRegistry())

	assert.Nil(t, plan)
	codes := make(map[ErrorCode]int)
	for _, e := range errs {
		codes[e.Code]++
	}
	assert.Equal(t, 1, codes[CodeSelfLoop])
	assert.Equal(t, 1, codes[CodeDanglingEdge])
	assert.Equal(t, 1, codes[CodeOrphanedRoot])
	assert.Equal(t, 1, codes[CodeDeadEndNode])
}

func TestValidate_Deterministic(t *testing.T) {
	g := strategyGraph([]graph.Node{
		{ID: "E", Kind: graph.KindOperator, Params: graph.OperatorParams{Op: "ema"}},
	}, []graph.Edge{
		{Source: "D", Target: "A"},
	})

	_, first := Validate(g, contract.StrategyRegistry())
	for i := 0; i < 5; i++ {
		_, again := Validate(g, contract.StrategyRegistry())
		assert.Equal(t, first, again, "重复校验的错误列表应完全一致")
	}

	// 合法图的执行计划同样确定
	clean := strategyGraph(nil, nil)
	planFirst, errs := Validate(clean, contract.StrategyRegistry())
	require.Empty(t, errs)
	for i := 0; i < 5; i++ {
		planAgain, _ := Validate(clean, contract.StrategyRegistry())
		assert.Equal(t, planFirst, planAgain)
	}
}

func TestValidate_MultipleCompatibleIncomingEdges(t *testing.T) {
	// operator接受多条兼容入边（data_input与另一个operator），逐边校验均通过
	g := strategyGraph([]graph.Node{
		{ID: "B2", Kind: graph.KindOperator, Params: graph.OperatorParams{Op: "rsi", Window: 14, OutputCol: "rsi14"}},
	}, []graph.Edge{
		{Source: "A", Target: "B2"},
		{Source: "B2", Target: "C"},
	})

	plan, errs := Validate(g, contract.StrategyRegistry())

	require.Empty(t, errs)
	require.NotNil(t, plan)
	assert.Equal(t, [][]string{{"A"}, {"B", "B2"}, {"C"}, {"D"}}, plan.Levels)
}

func TestValidatePayload_WireFormat(t *testing.T) {
	payload := graph.Payload{
		Nodes: []graph.PayloadNode{
			{ID: "1", Type: "data_input", Data: map[string]interface{}{"ts_code": "000001.SZ", "start": "20230101", "end": "20241231"}},
			{ID: "2", Type: "operator", Data: map[string]interface{}{"op": "sma", "window": float64(20), "output_col": "sma20"}},
			{ID: "3", Type: "signal", Data: map[string]interface{}{"condition": "close > sma20", "signal_col": "signal"}},
			{ID: "4", Type: "backtest_output", Data: map[string]interface{}{"config": map[string]interface{}{}}},
		},
		Edges: []graph.PayloadEdge{
			{Source: "1", Target: "2"},
			{Source: "2", Target: "3"},
			{Source: "3", Target: "4"},
		},
	}

	plan, errs := ValidatePayload(payload, contract.FlavorStrategy)

	require.Empty(t, errs)
	require.NotNil(t, plan)
	assert.Equal(t, []string{"1", "2", "3", "4"}, plan.Order)
}

func TestValidatePayload_UnconfiguredFlavor(t *testing.T) {
	plan, errs := ValidatePayload(graph.Payload{}, contract.Flavor("nonsense"))

	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeInternal, errs[0].Code)
}
