package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/flow-planner/pkg/core/graph"
)

func TestStrategyRegistry_Contracts(t *testing.T) {
	reg := StrategyRegistry()
	assert.Equal(t, FlavorStrategy, reg.Flavor())
	assert.True(t, reg.HasRoleRules())

	in, ok := reg.ContractFor(graph.KindDataInput)
	require.True(t, ok)
	assert.Empty(t, in.Accepts)
	assert.True(t, in.Produces[TagPriceSeries])

	op, ok := reg.ContractFor(graph.KindOperator)
	require.True(t, ok)
	assert.True(t, op.Accepts[TagPriceSeries])
	assert.True(t, op.Accepts[TagIndicatorSeries])
	assert.True(t, op.Produces[TagIndicatorSeries])

	out, ok := reg.ContractFor(graph.KindBacktestOutput)
	require.True(t, ok)
	assert.True(t, out.Accepts[TagScalarSignal])
	assert.Empty(t, out.Produces)

	_, ok = reg.ContractFor(graph.KindSyncTask)
	assert.False(t, ok, "策略注册表不应包含任务类型")

	assert.True(t, reg.IsRootKind(graph.KindDataInput))
	assert.False(t, reg.IsRootKind(graph.KindOperator))
	assert.True(t, reg.IsSinkKind(graph.KindBacktestOutput))
	assert.False(t, reg.IsSinkKind(graph.KindSignal))
}

func TestTaskRegistry_Contracts(t *testing.T) {
	reg := TaskRegistry()
	assert.Equal(t, FlavorTask, reg.Flavor())
	assert.False(t, reg.HasRoleRules(), "任务依赖图不做角色检查")

	for _, kind := range []graph.NodeKind{graph.KindSyncTask, graph.KindFactorTask} {
		c, ok := reg.ContractFor(kind)
		require.True(t, ok, "类型 %s 应已注册", kind)
		assert.True(t, c.Accepts[TagCompletion])
		assert.True(t, c.Produces[TagCompletion])
	}
}

func TestTagSet_Intersects(t *testing.T) {
	a := NewTagSet(TagPriceSeries, TagIndicatorSeries)
	b := NewTagSet(TagIndicatorSeries)
	c := NewTagSet(TagScalarSignal)

	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
	assert.False(t, a.Intersects(c))
	assert.False(t, NewTagSet().Intersects(a))
}

func TestTagSet_Sorted(t *testing.T) {
	s := NewTagSet(TagScalarSignal, TagIndicatorSeries, TagPriceSeries)
	assert.Equal(t, []DataTag{TagIndicatorSeries, TagPriceSeries, TagScalarSignal}, s.Sorted())
}

func TestForFlavor(t *testing.T) {
	reg, err := ForFlavor(FlavorStrategy)
	require.NoError(t, err)
	assert.Equal(t, FlavorStrategy, reg.Flavor())

	reg, err = ForFlavor(FlavorTask)
	require.NoError(t, err)
	assert.Equal(t, FlavorTask, reg.Flavor())

	_, err = ForFlavor(Flavor("unknown"))
	assert.Error(t, err)
}
