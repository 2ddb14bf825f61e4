package flow

import "time"

// RunStatus 流程运行状态（对外导出）
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// TaskStatus 任务执行状态（对外导出）
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskRunning TaskStatus = "running"
	TaskSuccess TaskStatus = "success"
	TaskFailed  TaskStatus = "failed"
	TaskSkipped TaskStatus = "skipped" // 前置任务失败导致跳过
)

// TaskResult 单个任务的执行结果（对外导出）
type TaskResult struct {
	Status     TaskStatus `json:"status"`
	StartedAt  time.Time  `json:"started_at,omitempty"`
	FinishedAt time.Time  `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// RunRecord 一次流程执行的记录（对外导出）
// 引擎执行时产生，持久化到运行历史表
type RunRecord struct {
	RunID       string                `json:"run_id"`
	FlowName    string                `json:"flow_name"`
	Status      RunStatus             `json:"status"`
	TriggerType string                `json:"trigger_type"` // manual/cron
	TargetDate  string                `json:"target_date,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at,omitempty"`
	Tasks       map[string]TaskResult `json:"tasks"`
	Error       string                `json:"error,omitempty"`
}
