package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	godag "github.com/begmaroman/go-dag"
	"github.com/google/uuid"

	"github.com/LENAX/flow-planner/pkg/core/contract"
	"github.com/LENAX/flow-planner/pkg/core/dag"
	"github.com/LENAX/flow-planner/pkg/core/events"
	"github.com/LENAX/flow-planner/pkg/core/flow"
	"github.com/LENAX/flow-planner/pkg/core/graph"
	"github.com/LENAX/flow-planner/pkg/core/validate"
	"github.com/LENAX/flow-planner/pkg/storage"
)

// TaskRunner 任务执行器接口（对外导出）
// 每种任务类型注册一个Runner，Engine按类型分发
type TaskRunner interface {
	Run(ctx context.Context, task flow.Task, targetDate string) error
}

// TaskRunnerFunc 函数式TaskRunner适配器（对外导出）
type TaskRunnerFunc func(ctx context.Context, task flow.Task, targetDate string) error

// Run 实现TaskRunner接口
func (f TaskRunnerFunc) Run(ctx context.Context, task flow.Task, targetDate string) error {
	return f(ctx, task, targetDate)
}

// BacktestRunner 回测执行器接口（对外导出）
// 接收已通过校验的策略图和执行计划，返回回测结果
type BacktestRunner interface {
	RunBacktest(ctx context.Context, g *graph.Graph, plan *dag.Plan) (map[string]interface{}, error)
}

// ValidationFailedError 校验失败错误（对外导出）
// 携带全部校验错误，调用方可逐条展示
type ValidationFailedError struct {
	Errors []validate.ValidationError
}

// Error 实现error接口
func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("流程校验失败: 共%d个错误", len(e.Errors))
}

// BacktestSubmission 回测提交结果（对外导出）
type BacktestSubmission struct {
	Plan   *dag.Plan
	Result map[string]interface{}
}

// activeRun 运行记录及其写锁
// worker并发更新任务状态与外部查询共用同一把锁
type activeRun struct {
	mu  sync.Mutex
	rec *flow.RunRecord
}

// snapshot 在锁内深拷贝运行记录，副本与后续写入互不干扰
func (ar *activeRun) snapshot() *flow.RunRecord {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	cp := *ar.rec
	cp.Tasks = make(map[string]flow.TaskResult, len(ar.rec.Tasks))
	for id, r := range ar.rec.Tasks {
		cp.Tasks[id] = r
	}
	return &cp
}

// Engine 流程执行引擎（对外导出）
// 负责流程校验、按层级并发执行任务、发布运行事件、持久化运行记录
type Engine struct {
	runners        map[flow.TaskType]TaskRunner
	backtestRunner BacktestRunner
	repo           storage.FlowRepository
	bus            *events.Bus
	maxConcurrency int

	runs map[string]*activeRun // runID -> 运行记录
	mu   sync.RWMutex
}

// NewEngine 创建流程执行引擎（对外导出）
// repo和bus允许为nil（如单元测试），maxConcurrency小于1时按1处理
func NewEngine(repo storage.FlowRepository, bus *events.Bus, maxConcurrency int) *Engine {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Engine{
		runners:        make(map[flow.TaskType]TaskRunner),
		repo:           repo,
		bus:            bus,
		maxConcurrency: maxConcurrency,
		runs:           make(map[string]*activeRun),
	}
}

// RegisterRunner 注册任务类型对应的执行器（对外导出）
func (e *Engine) RegisterRunner(taskType flow.TaskType, runner TaskRunner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runners[taskType] = runner
}

// SetBacktestRunner 设置回测执行器（对外导出）
func (e *Engine) SetBacktestRunner(runner BacktestRunner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backtestRunner = runner
}

// ValidateFlow 校验流程图并生成执行计划（对外导出）
// 校验失败时Plan为nil，错误列表包含全部问题
func (e *Engine) ValidateFlow(f *flow.Flow) (*dag.Plan, []validate.ValidationError) {
	reg, err := contract.ForFlavor(contract.FlavorTask)
	if err != nil {
		return nil, []validate.ValidationError{{
			Code:    validate.CodeInternal,
			Message: fmt.Sprintf("校验器初始化失败: %v", err),
		}}
	}
	return validate.Validate(f.Graph(), reg)
}

// SubmitBacktest 提交策略回测（对外导出）
// 先校验策略图，校验失败时返回错误列表；未配置回测执行器时只返回执行计划
func (e *Engine) SubmitBacktest(ctx context.Context, p graph.Payload) (*BacktestSubmission, []validate.ValidationError) {
	plan, verrs := validate.ValidatePayload(p, contract.FlavorStrategy)
	if len(verrs) > 0 {
		return nil, verrs
	}

	sub := &BacktestSubmission{Plan: plan}

	e.mu.RLock()
	runner := e.backtestRunner
	e.mu.RUnlock()
	if runner == nil {
		return sub, nil
	}

	result, err := runner.RunBacktest(ctx, graph.FromPayload(p), plan)
	if err != nil {
		return nil, []validate.ValidationError{{
			Code:    validate.CodeInternal,
			Message: fmt.Sprintf("回测执行失败: %v", err),
		}}
	}
	sub.Result = result
	return sub, nil
}

// ExecuteFlow 执行流程（对外导出）
// 同步执行：校验 -> 构建DAG -> 按层级并发执行 -> 持久化运行记录
// 任一上游任务失败或跳过时，下游任务标记为skipped
func (e *Engine) ExecuteFlow(ctx context.Context, f *flow.Flow, targetDate, triggerType string) (*flow.RunRecord, error) {
	plan, verrs := e.ValidateFlow(f)
	if len(verrs) > 0 {
		return nil, &ValidationFailedError{Errors: verrs}
	}

	d, err := dag.BuildTaskDAG(f.Tasks)
	if err != nil {
		return nil, fmt.Errorf("构建任务DAG失败: %w", err)
	}

	rec := &flow.RunRecord{
		RunID:       uuid.New().String(),
		FlowName:    f.Name,
		Status:      flow.RunRunning,
		TriggerType: triggerType,
		TargetDate:  targetDate,
		StartedAt:   time.Now(),
		Tasks:       make(map[string]flow.TaskResult, len(f.Tasks)),
	}
	for _, t := range f.Tasks {
		rec.Tasks[t.ID] = flow.TaskResult{Status: flow.TaskPending}
	}

	// 运行记录的任务状态由多个worker并发更新；外部通过GetRun
	// 查询时取同一把锁拿快照，避免并发读写map
	run := &activeRun{rec: rec}
	e.mu.Lock()
	e.runs[rec.RunID] = run
	e.mu.Unlock()

	e.persistRun(ctx, rec)
	e.publish(events.NewRunEvent(events.EventRunStarted, rec.RunID, f.Name).
		WithMessage(fmt.Sprintf("流程开始执行: trigger=%s, targetDate=%s", triggerType, targetDate)))

	log.Printf("🚀 [引擎] 流程开始执行: Flow=%s, RunID=%s, Trigger=%s", f.Name, rec.RunID, triggerType)

	recMu := &run.mu

	for _, level := range plan.Levels {
		runnable := make([]string, 0, len(level))
		for _, taskID := range level {
			if reason, skip := e.skipReason(d, rec, recMu, taskID); skip {
				recMu.Lock()
				rec.Tasks[taskID] = flow.TaskResult{Status: flow.TaskSkipped, Error: reason}
				recMu.Unlock()
				e.publish(events.NewRunEvent(events.EventTaskSkipped, rec.RunID, f.Name).
					WithTask(taskID, string(flow.TaskSkipped)).WithMessage(reason))
				log.Printf("⏭️ [引擎] 任务已跳过: Flow=%s, Task=%s, 原因=%s", f.Name, taskID, reason)
				continue
			}
			runnable = append(runnable, taskID)
		}

		e.runLevel(ctx, f, rec, recMu, runnable, targetDate)
	}

	recMu.Lock()
	rec.FinishedAt = time.Now()
	rec.Status = finalStatus(rec)
	if rec.Status == flow.RunFailed {
		rec.Error = failureSummary(rec)
	}
	recMu.Unlock()

	e.persistRun(ctx, rec)
	e.publish(events.NewRunEvent(events.EventRunFinished, rec.RunID, f.Name).
		WithMessage(string(rec.Status)))

	log.Printf("🏁 [引擎] 流程执行结束: Flow=%s, RunID=%s, Status=%s, 耗时=%v",
		f.Name, rec.RunID, rec.Status, rec.FinishedAt.Sub(rec.StartedAt))
	return rec, nil
}

// GetRun 获取内存中运行记录的快照（对外导出）
// 返回深拷贝：执行中的worker仍在更新原始记录，副本可安全遍历
func (e *Engine) GetRun(runID string) (*flow.RunRecord, bool) {
	e.mu.RLock()
	run, ok := e.runs[runID]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return run.snapshot(), true
}

// skipReason 判断任务是否应跳过：任一上游任务失败或跳过时跳过
func (e *Engine) skipReason(d *godag.DAG[*dag.TaskVertex], rec *flow.RunRecord, recMu *sync.Mutex, taskID string) (string, bool) {
	parents, err := d.GetParents(taskID)
	if err != nil {
		return "", false
	}
	// 按ID升序检查，保证跳过原因稳定
	parentIDs := make([]string, 0, len(parents))
	for pid := range parents {
		parentIDs = append(parentIDs, pid)
	}
	sort.Strings(parentIDs)

	recMu.Lock()
	defer recMu.Unlock()
	for _, pid := range parentIDs {
		switch rec.Tasks[pid].Status {
		case flow.TaskFailed:
			return fmt.Sprintf("上游任务 %s 执行失败", pid), true
		case flow.TaskSkipped:
			return fmt.Sprintf("上游任务 %s 已跳过", pid), true
		}
	}
	return "", false
}

// runLevel 并发执行同一层级的任务，并发度受maxConcurrency限制
func (e *Engine) runLevel(ctx context.Context, f *flow.Flow, rec *flow.RunRecord, recMu *sync.Mutex, taskIDs []string, targetDate string) {
	if len(taskIDs) == 0 {
		return
	}

	sem := make(chan struct{}, e.maxConcurrency)
	var wg sync.WaitGroup

	for _, taskID := range taskIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(taskID string) {
			defer wg.Done()
			defer func() { <-sem }()
			e.runTask(ctx, f, rec, recMu, taskID, targetDate)
		}(taskID)
	}
	wg.Wait()
}

// runTask 执行单个任务并更新运行记录
func (e *Engine) runTask(ctx context.Context, f *flow.Flow, rec *flow.RunRecord, recMu *sync.Mutex, taskID, targetDate string) {
	task, ok := f.TaskByID(taskID)
	if !ok {
		return
	}

	started := time.Now()
	recMu.Lock()
	rec.Tasks[taskID] = flow.TaskResult{Status: flow.TaskRunning, StartedAt: started}
	recMu.Unlock()
	e.publish(events.NewRunEvent(events.EventTaskStarted, rec.RunID, f.Name).
		WithTask(taskID, string(flow.TaskRunning)))
	log.Printf("▶️ [引擎] 任务开始执行: Flow=%s, Task=%s, Type=%s", f.Name, taskID, task.Type)

	err := e.dispatch(ctx, task, targetDate)

	finished := time.Now()
	result := flow.TaskResult{StartedAt: started, FinishedAt: finished}
	if err != nil {
		result.Status = flow.TaskFailed
		result.Error = err.Error()
		log.Printf("❌ [引擎] 任务执行失败: Flow=%s, Task=%s, Error=%v", f.Name, taskID, err)
	} else {
		result.Status = flow.TaskSuccess
		log.Printf("✅ [引擎] 任务执行成功: Flow=%s, Task=%s, 耗时=%v", f.Name, taskID, finished.Sub(started))
	}

	recMu.Lock()
	rec.Tasks[taskID] = result
	recMu.Unlock()
	e.publish(events.NewRunEvent(events.EventTaskFinished, rec.RunID, f.Name).
		WithTask(taskID, string(result.Status)).WithMessage(result.Error))
}

// dispatch 按任务类型分发到已注册的Runner
func (e *Engine) dispatch(ctx context.Context, task flow.Task, targetDate string) error {
	e.mu.RLock()
	runner, ok := e.runners[task.Type]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("任务类型 %s 未注册执行器", task.Type)
	}
	return runner.Run(ctx, task, targetDate)
}

// persistRun 持久化运行记录，失败仅记录日志不中断执行
func (e *Engine) persistRun(ctx context.Context, rec *flow.RunRecord) {
	if e.repo == nil {
		return
	}
	if err := e.repo.SaveRun(ctx, rec); err != nil {
		log.Printf("⚠️ [引擎] 保存运行记录失败: RunID=%s, Error=%v", rec.RunID, err)
	}
}

// publish 发布运行事件，失败仅记录日志
func (e *Engine) publish(ev *events.RunEvent) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ev); err != nil {
		log.Printf("⚠️ [引擎] 发布运行事件失败: Type=%s, RunID=%s, Error=%v", ev.Type, ev.RunID, err)
	}
}

// finalStatus 汇总运行记录的最终状态
func finalStatus(rec *flow.RunRecord) flow.RunStatus {
	for _, r := range rec.Tasks {
		if r.Status == flow.TaskFailed {
			return flow.RunFailed
		}
	}
	return flow.RunSuccess
}

// failureSummary 汇总失败任务信息
func failureSummary(rec *flow.RunRecord) string {
	failed := make([]string, 0)
	for id, r := range rec.Tasks {
		if r.Status == flow.TaskFailed {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	return fmt.Sprintf("失败任务: %v", failed)
}
