package dto

import (
	"time"

	"github.com/LENAX/flow-planner/pkg/core/validate"
)

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// PlanResponse 校验通过时的执行计划响应
// 前端画布依赖该结构渲染执行顺序与并行层级
type PlanResponse struct {
	Order  []string   `json:"order"`
	Levels [][]string `json:"levels"`
}

// ValidationFailureResponse 校验失败响应
type ValidationFailureResponse struct {
	Errors []validate.ValidationError `json:"errors"`
}

// BacktestResponse 回测提交响应
type BacktestResponse struct {
	Plan   PlanResponse           `json:"plan"`
	Result map[string]interface{} `json:"result,omitempty"`
}

// OperatorInfo 算子定义（前端节点面板用）
type OperatorInfo struct {
	Name           string   `json:"name"`
	Params         []string `json:"params"`
	Input          []string `json:"input"`
	CrossSectional bool     `json:"cross_sectional,omitempty"`
}

// OperatorsResponse 算子列表响应
type OperatorsResponse struct {
	Operators []OperatorInfo `json:"operators"`
}

// FlowSummary 流程摘要信息
type FlowSummary struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TaskCount   int       `json:"task_count"`
	Cron        string    `json:"cron,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// FlowDetail 流程详细信息
type FlowDetail struct {
	FlowSummary
	Tasks        []TaskSummary       `json:"tasks"`
	Dependencies map[string][]string `json:"dependencies"`
}

// TaskSummary 任务摘要信息
type TaskSummary struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// RunSummary 运行记录摘要信息
type RunSummary struct {
	RunID       string     `json:"run_id"`
	FlowName    string     `json:"flow_name"`
	Status      string     `json:"status"`
	TriggerType string     `json:"trigger_type"`
	TargetDate  string     `json:"target_date,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// RunDetail 运行记录详细信息
type RunDetail struct {
	RunSummary
	Tasks map[string]TaskRunDetail `json:"tasks"`
}

// TaskRunDetail 任务运行详细信息
type TaskRunDetail struct {
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ExecuteResponse 执行响应
type ExecuteResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total   int  `json:"total"`
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}
