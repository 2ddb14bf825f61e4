package dto

import (
	"github.com/LENAX/flow-planner/pkg/core/flow"
)

// SaveFlowRequest 保存流程请求
type SaveFlowRequest struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	Cron        string      `json:"cron"`
	Tags        []string    `json:"tags"`
	Enabled     bool        `json:"enabled"`
	Tasks       []flow.Task `json:"tasks" binding:"required,min=1"`
}

// ToFlow 转换为流程模型
func (r *SaveFlowRequest) ToFlow() *flow.Flow {
	return &flow.Flow{
		Name:        r.Name,
		Description: r.Description,
		Cron:        r.Cron,
		Tags:        r.Tags,
		Enabled:     r.Enabled,
		Tasks:       r.Tasks,
	}
}

// RunFlowRequest 手动触发流程请求
type RunFlowRequest struct {
	TargetDate string `json:"target_date" binding:"omitempty,len=8"` // 交易日，格式YYYYMMDD
}

// ScheduleFlowRequest 变更流程调度状态请求
type ScheduleFlowRequest struct {
	Enabled bool   `json:"enabled"`
	Cron    string `json:"cron" binding:"omitempty"`
}

// RunsQueryRequest 运行历史查询请求
type RunsQueryRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetDefaultLimit 获取默认limit
func (r *RunsQueryRequest) GetDefaultLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}
