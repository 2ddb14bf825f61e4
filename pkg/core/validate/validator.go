package validate

import (
	"fmt"

	"github.com/LENAX/flow-planner/pkg/core/contract"
	"github.com/LENAX/flow-planner/pkg/core/dag"
	"github.com/LENAX/flow-planner/pkg/core/graph"
)

// Validate 校验图并生成执行计划（对外导出）
// 按固定顺序执行检查并累积所有错误（不在首个错误处停止，
// 编辑器可以一次性展示全部问题）：
//
//	1. 结构检查：重复节点ID、悬空边、自环
//	2. 角色检查（按注册表配置）：非法根节点、非法汇点
//	3. 类型检查：未知节点类型、边的端口标签兼容性
//	4. 循环检测：报告环路径
//	5. 以上无错误时生成拓扑执行计划
//
// 纯函数：只读图和注册表，无I/O无共享状态，可并发调用。
// 错误与计划互斥：有任何错误时不产出计划
func Validate(g *graph.Graph, reg *contract.Registry) (*dag.Plan, []ValidationError) {
	errs := make([]ValidationError, 0)

	errs = append(errs, checkStructure(g)...)
	errs = append(errs, checkRoles(g, reg)...)
	errs = append(errs, checkPorts(g, reg)...)

	// 循环检测只考虑两端都存在的非自环边（悬空边和自环已单独报告）
	if result := dag.DetectCycle(g.NodeIDs(), g.Successors()); result.HasCycle {
		errs = append(errs, ValidationError{
			Code:    CodeCycleDetected,
			NodeIDs: result.Cycle,
			Message: fmt.Sprintf("检测到循环依赖: %v", result.Cycle),
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	plan, err := dag.TopologicalSort(g.NodeIDs(), g.Successors())
	if err != nil {
		// 循环检测已通过，这里失败属于内部矛盾
		return nil, []ValidationError{{
			Code:    CodeInternal,
			NodeIDs: []string{},
			Message: fmt.Sprintf("拓扑排序失败: %v", err),
		}}
	}

	return plan, nil
}

// ValidatePayload 校验编辑器原始payload（对外导出）
// flavor未配置属于编程契约违规，作为internal_error返回
func ValidatePayload(p graph.Payload, flavor contract.Flavor) (*dag.Plan, []ValidationError) {
	reg, err := contract.ForFlavor(flavor)
	if err != nil {
		return nil, []ValidationError{{
			Code:    CodeInternal,
			NodeIDs: []string{},
			Message: err.Error(),
		}}
	}
	return Validate(graph.FromPayload(p), reg)
}

// checkStructure 结构检查：重复节点ID、悬空边、自环
func checkStructure(g *graph.Graph) []ValidationError {
	errs := make([]ValidationError, 0)

	for _, id := range g.DuplicateIDs() {
		errs = append(errs, ValidationError{
			Code:    CodeDuplicateNodeID,
			NodeIDs: []string{id},
			Message: fmt.Sprintf("节点ID重复: %s", id),
		})
	}

	for _, e := range g.Edges() {
		if e.Source == e.Target {
			errs = append(errs, ValidationError{
				Code:    CodeSelfLoop,
				NodeIDs: []string{e.Source},
				Message: fmt.Sprintf("节点 %s 存在自环", e.Source),
			})
			continue
		}

		_, srcOK := g.NodeByID(e.Source)
		_, tgtOK := g.NodeByID(e.Target)
		if srcOK && tgtOK {
			continue
		}

		missing := e.Source
		if srcOK {
			missing = e.Target
		}
		errs = append(errs, ValidationError{
			Code:    CodeDanglingEdge,
			NodeIDs: []string{e.Source, e.Target},
			Message: fmt.Sprintf("边 %s -> %s 引用了不存在的节点: %s", e.Source, e.Target, missing),
		})
	}

	return errs
}

// checkRoles 角色/可达性检查
// 零入边的节点必须是注册表声明的根类型，零出边的节点必须是汇点类型；
// 注册表未配置角色规则时（任务依赖图）跳过
func checkRoles(g *graph.Graph, reg *contract.Registry) []ValidationError {
	if !reg.HasRoleRules() {
		return nil
	}

	errs := make([]ValidationError, 0)
	for _, id := range g.NodeIDs() {
		node, _ := g.NodeByID(id)

		if len(g.EdgesTo(id)) == 0 && !reg.IsRootKind(node.Kind) {
			errs = append(errs, ValidationError{
				Code:    CodeOrphanedRoot,
				NodeIDs: []string{id},
				Message: fmt.Sprintf("节点 %s (%s) 没有入边，但不是合法的根节点类型", id, node.Kind),
			})
		}

		if len(g.EdgesFrom(id)) == 0 && !reg.IsSinkKind(node.Kind) {
			errs = append(errs, ValidationError{
				Code:    CodeDeadEndNode,
				NodeIDs: []string{id},
				Message: fmt.Sprintf("节点 %s (%s) 没有出边，但不是合法的汇点类型", id, node.Kind),
			})
		}
	}

	return errs
}

// checkPorts 类型检查：未知节点类型、边的端口兼容性
// 目标节点的accepts集合与源节点的produces集合必须有交集；
// 涉及悬空边或未知类型节点的边跳过（已由前序检查报告）
func checkPorts(g *graph.Graph, reg *contract.Registry) []ValidationError {
	errs := make([]ValidationError, 0)

	unknown := make(map[string]bool)
	for _, id := range g.NodeIDs() {
		node, _ := g.NodeByID(id)
		if _, ok := reg.ContractFor(node.Kind); !ok {
			unknown[id] = true
			errs = append(errs, ValidationError{
				Code:    CodeUnknownNodeKind,
				NodeIDs: []string{id},
				Message: fmt.Sprintf("节点 %s 的类型未注册: %s", id, node.Kind),
			})
		}
	}

	for _, e := range g.Edges() {
		if e.Source == e.Target {
			continue
		}
		src, srcOK := g.NodeByID(e.Source)
		tgt, tgtOK := g.NodeByID(e.Target)
		if !srcOK || !tgtOK || unknown[e.Source] || unknown[e.Target] {
			continue
		}

		srcContract, _ := reg.ContractFor(src.Kind)
		tgtContract, _ := reg.ContractFor(tgt.Kind)
		if srcContract.Produces.Intersects(tgtContract.Accepts) {
			continue
		}

		errs = append(errs, ValidationError{
			Code:       CodeTypeMismatch,
			NodeIDs:    []string{e.Source, e.Target},
			Message:    fmt.Sprintf("边 %s -> %s 端口类型不兼容: 源产出%v，目标接受%v", e.Source, e.Target, srcContract.Produces.Sorted(), tgtContract.Accepts.Sorted()),
			SourceTags: srcContract.Produces.Sorted(),
			TargetTags: tgtContract.Accepts.Sorted(),
		})
	}

	return errs
}
