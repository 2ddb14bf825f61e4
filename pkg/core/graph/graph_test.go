package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Accessors(t *testing.T) {
	g := New([]Node{
		{ID: "a", Kind: KindDataInput},
		{ID: "b", Kind: KindOperator},
		{ID: "c", Kind: KindSignal},
	}, []Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
	})

	n, ok := g.NodeByID("b")
	require.True(t, ok)
	assert.Equal(t, KindOperator, n.Kind)

	_, ok = g.NodeByID("missing")
	assert.False(t, ok)

	assert.Len(t, g.EdgesFrom("a"), 1)
	assert.Equal(t, "b", g.EdgesFrom("a")[0].Target)
	assert.Len(t, g.EdgesTo("c"), 1)
	assert.Empty(t, g.EdgesTo("a"))

	assert.Equal(t, []string{"a", "b", "c"}, g.NodeIDs())
}

func TestGraph_DuplicateIDs(t *testing.T) {
	g := New([]Node{
		{ID: "x", Kind: KindSyncTask},
		{ID: "y", Kind: KindSyncTask},
		{ID: "x", Kind: KindFactorTask},
	}, nil)

	assert.Equal(t, []string{"x"}, g.DuplicateIDs())

	// 重复ID时NodeByID返回首个出现的节点
	n, ok := g.NodeByID("x")
	require.True(t, ok)
	assert.Equal(t, KindSyncTask, n.Kind)
}

func TestGraph_SuccessorsSkipsInvalidEdges(t *testing.T) {
	g := New([]Node{
		{ID: "a", Kind: KindSyncTask},
		{ID: "b", Kind: KindSyncTask},
	}, []Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "a"},     // 自环
		{Source: "a", Target: "ghost"}, // 悬空
		{Source: "ghost", Target: "b"}, // 悬空
	})

	succ := g.Successors()
	assert.Equal(t, []string{"b"}, succ["a"])
	assert.Empty(t, succ["b"])
	_, exists := succ["ghost"]
	assert.False(t, exists)
}

func TestFromPayload_TypedParams(t *testing.T) {
	p := Payload{
		Nodes: []PayloadNode{
			{ID: "1", Type: "data_input", Data: map[string]interface{}{"ts_code": "600519.SH"}},
			{ID: "2", Type: "operator", Data: map[string]interface{}{"op": "rsi", "output_col": "rsi14"}},
			{ID: "3", Type: "operator", Data: map[string]interface{}{"op": "sma", "window": float64(60)}},
			{ID: "4", Type: "signal", Data: map[string]interface{}{"condition": "rsi14 < 30"}},
			{ID: "5", Type: "backtest_output", Data: map[string]interface{}{
				"config": map[string]interface{}{"initial_capital": float64(500000)},
			}},
			{ID: "6", Type: "teleport", Data: nil},
		},
		Edges: []PayloadEdge{{Source: "1", Target: "2"}},
	}

	g := FromPayload(p)
	require.Len(t, g.Nodes(), 6)

	in, _ := g.NodeByID("1")
	assert.Equal(t, DataInputParams{TSCode: "600519.SH", Start: "20200101", End: "20241231"}, in.Params)

	// rsi默认窗口14，output_col显式指定
	op, _ := g.NodeByID("2")
	assert.Equal(t, OperatorParams{Op: "rsi", Window: 14, OutputCol: "rsi14"}, op.Params)

	// window为JSON数字（float64），output_col缺省时回落到算子名
	op2, _ := g.NodeByID("3")
	assert.Equal(t, OperatorParams{Op: "sma", Window: 60, OutputCol: "sma"}, op2.Params)

	sig, _ := g.NodeByID("4")
	assert.Equal(t, SignalParams{Condition: "rsi14 < 30", SignalCol: "signal"}, sig.Params)

	bt, _ := g.NodeByID("5")
	assert.Equal(t, BacktestOutputParams{
		InitialCapital: 500000,
		CommissionRate: 0.0003,
		SlippageRate:   0.0001,
	}, bt.Params)

	// 未知类型保留Kind，Params为nil，由校验器报告
	unknown, _ := g.NodeByID("6")
	assert.Equal(t, NodeKind("teleport"), unknown.Kind)
	assert.Nil(t, unknown.Params)

	require.Len(t, g.Edges(), 1)
	assert.Equal(t, Edge{Source: "1", Target: "2"}, g.Edges()[0])
}
