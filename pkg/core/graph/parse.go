package graph

// 编辑器序列化的原始payload解析
// 格式与编辑画布提交的结构一致：
//
//	{
//	  "nodes": [ { "id": "1", "type": "operator", "data": { "op": "sma", "window": 20, "output_col": "sma20" } } ],
//	  "edges": [ { "source": "1", "target": "2" } ]
//	}

// PayloadNode 原始节点（对外导出）
type PayloadNode struct {
	ID   string                 `json:"id"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// PayloadEdge 原始边（对外导出）
type PayloadEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Payload 编辑器提交的原始图（对外导出）
type Payload struct {
	Nodes []PayloadNode `json:"nodes"`
	Edges []PayloadEdge `json:"edges"`
}

// FromPayload 将原始payload收敛为类型化Graph（对外导出）
// data中的开放字段按节点类型收敛为对应的Params变体；
// 未知节点类型保留Kind原样（由Validator报告unknown_node_kind），Params为nil
func FromPayload(p Payload) *Graph {
	nodes := make([]Node, 0, len(p.Nodes))
	for _, pn := range p.Nodes {
		kind := NodeKind(pn.Type)
		nodes = append(nodes, Node{
			ID:     pn.ID,
			Kind:   kind,
			Params: parseParams(kind, pn.Data),
		})
	}

	edges := make([]Edge, 0, len(p.Edges))
	for _, pe := range p.Edges {
		edges = append(edges, Edge{Source: pe.Source, Target: pe.Target})
	}

	return New(nodes, edges)
}

// parseParams 按节点类型解析data字段
func parseParams(kind NodeKind, data map[string]interface{}) NodeParams {
	switch kind {
	case KindDataInput:
		return DataInputParams{
			TSCode: getString(data, "ts_code", ""),
			Start:  getString(data, "start", "20200101"),
			End:    getString(data, "end", "20241231"),
		}
	case KindOperator:
		op := getString(data, "op", "")
		return OperatorParams{
			Op:        op,
			Window:    getInt(data, "window", defaultWindow(op)),
			OutputCol: getString(data, "output_col", op),
		}
	case KindSignal:
		return SignalParams{
			Condition: getString(data, "condition", ""),
			SignalCol: getString(data, "signal_col", "signal"),
		}
	case KindBacktestOutput:
		cfg, _ := data["config"].(map[string]interface{})
		return BacktestOutputParams{
			InitialCapital: getFloat(cfg, "initial_capital", 1_000_000),
			CommissionRate: getFloat(cfg, "commission_rate", 0.0003),
			SlippageRate:   getFloat(cfg, "slippage_rate", 0.0001),
		}
	case KindSyncTask, KindFactorTask:
		return TaskParams{Kind: kind}
	default:
		return nil
	}
}

// defaultWindow 算子默认窗口
func defaultWindow(op string) int {
	if op == "rsi" {
		return 14
	}
	return 20
}

func getString(data map[string]interface{}, key, def string) string {
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return def
}

// getInt 解析整型参数
// JSON反序列化后数字为float64，这里做统一转换
func getInt(data map[string]interface{}, key string, def int) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func getFloat(data map[string]interface{}, key string, def float64) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}
