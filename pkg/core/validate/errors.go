package validate

import "github.com/LENAX/flow-planner/pkg/core/contract"

// ErrorCode 校验错误码（对外导出）
type ErrorCode string

const (
	// 结构错误
	CodeDuplicateNodeID ErrorCode = "duplicate_node_id" // 节点ID重复
	CodeDanglingEdge    ErrorCode = "dangling_edge"     // 边引用了不存在的节点
	CodeSelfLoop        ErrorCode = "self_loop"         // 自环

	// 角色/可达性错误
	CodeOrphanedRoot ErrorCode = "orphaned_root" // 零入边但不是合法根节点
	CodeDeadEndNode  ErrorCode = "dead_end_node" // 零出边但不是合法汇点

	// 类型错误
	CodeTypeMismatch    ErrorCode = "type_mismatch"     // 端口标签不兼容
	CodeUnknownNodeKind ErrorCode = "unknown_node_kind" // 节点类型不在注册表中

	// 循环错误
	CodeCycleDetected ErrorCode = "cycle_detected" // 检测到环，NodeIDs携带环路径

	// 内部错误（编程契约违规，不属于用户可修复的图错误）
	CodeInternal ErrorCode = "internal_error"
)

// ValidationError 单条校验错误（对外导出）
// 所有错误均为数据返回，校验器不panic不抛错；
// 编辑器根据NodeIDs高亮涉及的节点/边
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	NodeIDs []string  `json:"nodes"`
	Message string    `json:"message"`

	// type_mismatch专用：源节点产出与目标节点接受的标签集合（升序）
	SourceTags []contract.DataTag `json:"source_tags,omitempty"`
	TargetTags []contract.DataTag `json:"target_tags,omitempty"`
}
