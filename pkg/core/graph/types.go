package graph

// NodeKind 节点类型（对外导出）
// 决定节点的端口契约（接受/产出的数据形态）
type NodeKind string

const (
	// 策略图节点类型
	KindDataInput      NodeKind = "data_input"      // 数据输入（图的根节点）
	KindOperator       NodeKind = "operator"        // 指标算子（SMA/EMA/RSI等）
	KindSignal         NodeKind = "signal"          // 信号生成
	KindBacktestOutput NodeKind = "backtest_output" // 回测输出（图的汇点）

	// 任务依赖图节点类型
	KindSyncTask   NodeKind = "sync"   // 数据同步任务
	KindFactorTask NodeKind = "factor" // 因子计算任务
)

// Node 图节点（对外导出）
// ID在图内唯一；Params按Kind携带类型化参数
type Node struct {
	ID     string
	Kind   NodeKind
	Params NodeParams
}

// Edge 有向边（对外导出）
// Source的输出馈送给Target；不允许自环
type Edge struct {
	Source string
	Target string
}

// NodeParams 类型化节点参数接口（对外导出）
// 编辑器侧的开放data对象在进入核心前收敛为按Kind区分的变体，
// 避免未类型化map在引擎内部传播
type NodeParams interface {
	// ParamsKind 返回参数所属的节点类型
	ParamsKind() NodeKind
}

// DataInputParams 数据输入节点参数
type DataInputParams struct {
	TSCode string // 证券代码
	Start  string // 起始日期 YYYYMMDD
	End    string // 结束日期 YYYYMMDD
}

// ParamsKind 实现NodeParams接口
func (DataInputParams) ParamsKind() NodeKind { return KindDataInput }

// OperatorParams 算子节点参数
// Op声明算子名称，Window为窗口参数，OutputCol为写入的输出列
type OperatorParams struct {
	Op        string
	Window    int
	OutputCol string
}

// ParamsKind 实现NodeParams接口
func (OperatorParams) ParamsKind() NodeKind { return KindOperator }

// SignalParams 信号节点参数
type SignalParams struct {
	Condition string // 条件表达式，如 "close > sma20"
	SignalCol string // 信号列名
}

// ParamsKind 实现NodeParams接口
func (SignalParams) ParamsKind() NodeKind { return KindSignal }

// BacktestOutputParams 回测输出节点参数
type BacktestOutputParams struct {
	InitialCapital float64
	CommissionRate float64
	SlippageRate   float64
}

// ParamsKind 实现NodeParams接口
func (BacktestOutputParams) ParamsKind() NodeKind { return KindBacktestOutput }

// TaskParams 任务节点参数（sync/factor）
// 任务依赖图只关心结构合法性，规划器不读取任务参数
type TaskParams struct {
	Kind NodeKind
}

// ParamsKind 实现NodeParams接口
func (p TaskParams) ParamsKind() NodeKind { return p.Kind }
