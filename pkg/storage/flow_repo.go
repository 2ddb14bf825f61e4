package storage

import (
	"context"

	"github.com/LENAX/flow-planner/pkg/core/flow"
)

// FlowRepository 流程定义与运行历史的存储接口（对外导出）
// 引擎对存储只依赖此接口，具体数据库由工厂按配置选择
type FlowRepository interface {
	// SaveFlow 保存流程定义（存在则更新）
	SaveFlow(ctx context.Context, f *flow.Flow) error
	// GetFlow 按名称查询流程定义（不存在时返回nil, nil）
	GetFlow(ctx context.Context, name string) (*flow.Flow, error)
	// ListFlows 列出所有流程定义
	ListFlows(ctx context.Context) ([]*flow.Flow, error)
	// DeleteFlow 删除流程定义
	DeleteFlow(ctx context.Context, name string) error

	// SaveRun 保存运行记录（存在则更新，运行结束时回写终态）
	SaveRun(ctx context.Context, r *flow.RunRecord) error
	// GetRun 按RunID查询运行记录（不存在时返回nil, nil）
	GetRun(ctx context.Context, runID string) (*flow.RunRecord, error)
	// ListRuns 查询指定流程的运行历史（按开始时间倒序，limit<=0时不限制）
	ListRuns(ctx context.Context, flowName string, limit int) ([]*flow.RunRecord, error)

	// Close 关闭底层连接
	Close() error
}
