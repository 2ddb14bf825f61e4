package contract

import (
	"fmt"
	"sort"

	"github.com/LENAX/flow-planner/pkg/core/graph"
)

// DataTag 逻辑数据形态标签（对外导出）
// 用于边的端口兼容性检查
type DataTag string

const (
	TagPriceSeries     DataTag = "price-series"     // 原始行情序列
	TagIndicatorSeries DataTag = "indicator-series" // 指标序列
	TagScalarSignal    DataTag = "scalar-signal"    // 标量信号
	TagCompletion      DataTag = "completion"       // 任务完成标记（任务依赖图通用标签）
)

// TagSet 标签集合（对外导出）
type TagSet map[DataTag]bool

// NewTagSet 创建标签集合
func NewTagSet(tags ...DataTag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = true
	}
	return s
}

// Intersects 判断两个标签集合是否有交集
func (s TagSet) Intersects(other TagSet) bool {
	for t := range s {
		if other[t] {
			return true
		}
	}
	return false
}

// Sorted 返回升序标签列表（保证错误信息可复现）
func (s TagSet) Sorted() []DataTag {
	tags := make([]DataTag, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// PortContract 节点端口契约（对外导出）
// Accepts为空表示图的根（无输入），Produces为空表示图的汇点（无输出）
type PortContract struct {
	Accepts  TagSet
	Produces TagSet
}

// Flavor 图语义类型（对外导出）
type Flavor string

const (
	FlavorStrategy Flavor = "strategy" // 策略流水线（数据源→算子→信号→回测输出）
	FlavorTask     Flavor = "task"     // 任务依赖图（sync/factor定时任务）
)

// Registry 端口契约注册表（对外导出）
// 按图语义类型静态配置，构造后不可变，可被多个校验调用并发只读
type Registry struct {
	flavor    Flavor
	contracts map[graph.NodeKind]PortContract
	rootKinds map[graph.NodeKind]bool // 允许零入边的节点类型；为空表示不做角色检查
	sinkKinds map[graph.NodeKind]bool // 允许零出边的节点类型；为空表示不做角色检查
}

// Flavor 返回注册表对应的图语义类型
func (r *Registry) Flavor() Flavor {
	return r.flavor
}

// ContractFor 查询节点类型的端口契约
// 类型不在注册表中时ok为false（对应unknown_node_kind错误）
func (r *Registry) ContractFor(kind graph.NodeKind) (PortContract, bool) {
	c, ok := r.contracts[kind]
	return c, ok
}

// HasRoleRules 是否启用根/汇点角色检查
// 策略图要求根必须是data_input、汇点必须是backtest_output；
// 任务依赖图任意任务都可以作为根或汇点，不做角色检查
func (r *Registry) HasRoleRules() bool {
	return len(r.rootKinds) > 0 || len(r.sinkKinds) > 0
}

// IsRootKind 判断节点类型是否允许零入边
func (r *Registry) IsRootKind(kind graph.NodeKind) bool {
	return r.rootKinds[kind]
}

// IsSinkKind 判断节点类型是否允许零出边
func (r *Registry) IsSinkKind(kind graph.NodeKind) bool {
	return r.sinkKinds[kind]
}

// StrategyRegistry 创建策略图契约注册表（对外导出）
//
//	data_input:      接受无，产出price-series（根）
//	operator:        接受price-series/indicator-series，产出indicator-series
//	signal:          接受price-series/indicator-series，产出scalar-signal
//	backtest_output: 接受scalar-signal，产出无（汇点）
func StrategyRegistry() *Registry {
	return &Registry{
		flavor: FlavorStrategy,
		contracts: map[graph.NodeKind]PortContract{
			graph.KindDataInput: {
				Produces: NewTagSet(TagPriceSeries),
			},
			graph.KindOperator: {
				Accepts:  NewTagSet(TagPriceSeries, TagIndicatorSeries),
				Produces: NewTagSet(TagIndicatorSeries),
			},
			graph.KindSignal: {
				Accepts:  NewTagSet(TagPriceSeries, TagIndicatorSeries),
				Produces: NewTagSet(TagScalarSignal),
			},
			graph.KindBacktestOutput: {
				Accepts: NewTagSet(TagScalarSignal),
			},
		},
		rootKinds: map[graph.NodeKind]bool{graph.KindDataInput: true},
		sinkKinds: map[graph.NodeKind]bool{graph.KindBacktestOutput: true},
	}
}

// TaskRegistry 创建任务依赖图契约注册表（对外导出）
// sync/factor任务统一使用completion标签，任意任务可依赖任意任务，
// 只校验结构合法性（无环、无悬空引用）
func TaskRegistry() *Registry {
	taskContract := PortContract{
		Accepts:  NewTagSet(TagCompletion),
		Produces: NewTagSet(TagCompletion),
	}
	return &Registry{
		flavor: FlavorTask,
		contracts: map[graph.NodeKind]PortContract{
			graph.KindSyncTask:   taskContract,
			graph.KindFactorTask: taskContract,
		},
	}
}

// ForFlavor 按图语义类型获取注册表（对外导出）
// 未知类型属于编程契约违规，作为内部错误显式返回
func ForFlavor(flavor Flavor) (*Registry, error) {
	switch flavor {
	case FlavorStrategy:
		return StrategyRegistry(), nil
	case FlavorTask:
		return TaskRegistry(), nil
	default:
		return nil, fmt.Errorf("未配置的图语义类型: %s", flavor)
	}
}
