package dao

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/LENAX/flow-planner/pkg/core/flow"
)

// FlowDAO 流程定义表的数据访问对象（内部使用）
type FlowDAO struct {
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Cron        string    `db:"cron_expr"`
	Tags        string    `db:"tags"`  // JSON格式存储
	Enabled     bool      `db:"enabled"`
	Tasks       string    `db:"tasks"` // JSON格式存储
	CreateTime  time.Time `db:"create_time"`
	UpdateTime  time.Time `db:"update_time"`
}

// FromFlow 从领域对象构建DAO
func FromFlow(f *flow.Flow) (*FlowDAO, error) {
	tags, err := json.Marshal(f.Tags)
	if err != nil {
		return nil, fmt.Errorf("序列化tags失败: %w", err)
	}
	tasks, err := json.Marshal(f.Tasks)
	if err != nil {
		return nil, fmt.Errorf("序列化tasks失败: %w", err)
	}

	return &FlowDAO{
		Name:        f.Name,
		Description: f.Description,
		Cron:        f.Cron,
		Tags:        string(tags),
		Enabled:     f.Enabled,
		Tasks:       string(tasks),
		CreateTime:  f.CreateTime,
		UpdateTime:  f.UpdateTime,
	}, nil
}

// ToFlow 还原为领域对象
func (d *FlowDAO) ToFlow() (*flow.Flow, error) {
	f := &flow.Flow{
		Name:        d.Name,
		Description: d.Description,
		Cron:        d.Cron,
		Enabled:     d.Enabled,
		CreateTime:  d.CreateTime,
		UpdateTime:  d.UpdateTime,
	}

	if d.Tags != "" {
		if err := json.Unmarshal([]byte(d.Tags), &f.Tags); err != nil {
			return nil, fmt.Errorf("解析tags失败: %w", err)
		}
	}
	if d.Tasks != "" {
		if err := json.Unmarshal([]byte(d.Tasks), &f.Tasks); err != nil {
			return nil, fmt.Errorf("解析tasks失败: %w", err)
		}
	}

	return f, nil
}

// RunDAO 流程运行历史表的数据访问对象（内部使用）
type RunDAO struct {
	RunID        string    `db:"run_id"`
	FlowName     string    `db:"flow_name"`
	Status       string    `db:"status"`
	TriggerType  string    `db:"trigger_type"`
	TargetDate   string    `db:"target_date"`
	StartTime    time.Time `db:"start_time"`
	EndTime      time.Time `db:"end_time"`
	Tasks        string    `db:"tasks"` // 任务结果JSON
	ErrorMessage string    `db:"error_message"`
}

// FromRunRecord 从领域对象构建DAO
func FromRunRecord(r *flow.RunRecord) (*RunDAO, error) {
	tasks, err := json.Marshal(r.Tasks)
	if err != nil {
		return nil, fmt.Errorf("序列化任务结果失败: %w", err)
	}

	return &RunDAO{
		RunID:        r.RunID,
		FlowName:     r.FlowName,
		Status:       string(r.Status),
		TriggerType:  r.TriggerType,
		TargetDate:   r.TargetDate,
		StartTime:    r.StartedAt,
		EndTime:      r.FinishedAt,
		Tasks:        string(tasks),
		ErrorMessage: r.Error,
	}, nil
}

// ToRunRecord 还原为领域对象
func (d *RunDAO) ToRunRecord() (*flow.RunRecord, error) {
	r := &flow.RunRecord{
		RunID:       d.RunID,
		FlowName:    d.FlowName,
		Status:      flow.RunStatus(d.Status),
		TriggerType: d.TriggerType,
		TargetDate:  d.TargetDate,
		StartedAt:   d.StartTime,
		FinishedAt:  d.EndTime,
		Error:       d.ErrorMessage,
	}

	if d.Tasks != "" {
		if err := json.Unmarshal([]byte(d.Tasks), &r.Tasks); err != nil {
			return nil, fmt.Errorf("解析任务结果失败: %w", err)
		}
	}

	return r, nil
}
