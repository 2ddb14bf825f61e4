package flow

import (
	"time"

	"github.com/LENAX/flow-planner/pkg/core/graph"
)

// TaskType 任务类型（对外导出）
type TaskType string

const (
	TaskSync   TaskType = "sync"   // 数据同步任务
	TaskFactor TaskType = "factor" // 因子计算任务
)

// Task 流程中的单个任务（对外导出）
// DependsOn列出前置任务ID，前置任务全部完成后本任务才可执行
type Task struct {
	ID        string   `json:"id" yaml:"id"`
	Type      TaskType `json:"type" yaml:"type"`
	DependsOn []string `json:"depends_on" yaml:"depends_on"`
}

// Flow 定时调度的任务流程定义（对外导出）
// 对应编辑器保存的调度流配置：cron表达式触发，任务按依赖关系执行
type Flow struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Cron        string    `json:"cron" yaml:"cron"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Enabled     bool      `json:"enabled" yaml:"enabled"`
	Tasks       []Task    `json:"tasks" yaml:"tasks"`
	CreateTime  time.Time `json:"create_time,omitempty" yaml:"-"`
	UpdateTime  time.Time `json:"update_time,omitempty" yaml:"-"`
}

// Graph 将任务依赖转换为通用图（对外导出）
// 节点类型取任务类型（sync/factor），依赖dep→task转为有向边dep->task，
// 供校验器做结构检查和生成执行计划
func (f *Flow) Graph() *graph.Graph {
	nodes := make([]graph.Node, 0, len(f.Tasks))
	edges := make([]graph.Edge, 0)

	for _, t := range f.Tasks {
		kind := graph.NodeKind(t.Type)
		nodes = append(nodes, graph.Node{
			ID:     t.ID,
			Kind:   kind,
			Params: graph.TaskParams{Kind: kind},
		})
		for _, dep := range t.DependsOn {
			edges = append(edges, graph.Edge{Source: dep, Target: t.ID})
		}
	}

	return graph.New(nodes, edges)
}

// TaskByID 按ID查找任务
func (f *Flow) TaskByID(id string) (Task, bool) {
	for _, t := range f.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Dependencies 获取依赖映射（任务ID -> 前置任务ID列表）
func (f *Flow) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(f.Tasks))
	for _, t := range f.Tasks {
		if len(t.DependsOn) > 0 {
			deps[t.ID] = append([]string(nil), t.DependsOn...)
		}
	}
	return deps
}
