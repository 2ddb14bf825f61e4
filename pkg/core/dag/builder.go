package dag

import (
	"fmt"

	godag "github.com/begmaroman/go-dag"

	"github.com/LENAX/flow-planner/pkg/core/flow"
)

// TaskVertex go-dag节点包装（对外导出）
// go-dag要求节点实现Identifiable接口，这里包装flow.Task
type TaskVertex struct {
	TaskID string
	Task   flow.Task
}

// ID 实现go-dag的Identifiable接口
func (v *TaskVertex) ID() string {
	return v.TaskID
}

// BuildTaskDAG 从流程任务构建go-dag实例（对外导出）
// 执行器通过go-dag的GetRoots/GetChildren/GetParents遍历依赖结构。
// 调用前应已通过校验器的循环检测；go-dag库在AddEdge时仍会自行检查，
// 这里将其错误视为调用方契约违规原样上抛
func BuildTaskDAG(tasks []flow.Task) (*godag.DAG[*TaskVertex], error) {
	d := godag.NewDAG[*TaskVertex]()

	for _, t := range tasks {
		if _, err := d.AddVertex(&TaskVertex{TaskID: t.ID, Task: t}); err != nil {
			return nil, fmt.Errorf("添加节点失败: TaskID=%s, Error=%w", t.ID, err)
		}
	}

	// 边方向：前置任务 -> 后置任务
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if err := d.AddEdge(dep, t.ID); err != nil {
				return nil, fmt.Errorf("添加边失败: %s -> %s, Error=%w", dep, t.ID, err)
			}
		}
	}

	return d, nil
}
