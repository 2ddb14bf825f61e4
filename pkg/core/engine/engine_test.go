package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/flow-planner/pkg/core/events"
	"github.com/LENAX/flow-planner/pkg/core/flow"
	"github.com/LENAX/flow-planner/pkg/core/graph"
	"github.com/LENAX/flow-planner/pkg/core/validate"
)

// chainFlow 构造 sync -> factor1 -> factor2 的链式流程
func chainFlow() *flow.Flow {
	return &flow.Flow{
		Name: "daily_update",
		Tasks: []flow.Task{
			{ID: "sync_daily", Type: flow.TaskSync},
			{ID: "factor_momentum", Type: flow.TaskFactor, DependsOn: []string{"sync_daily"}},
			{ID: "factor_value", Type: flow.TaskFactor, DependsOn: []string{"factor_momentum"}},
		},
	}
}

// recordingRunner 记录执行顺序的Runner
type recordingRunner struct {
	mu    sync.Mutex
	order []string
	fail  map[string]error
}

func (r *recordingRunner) Run(ctx context.Context, task flow.Task, targetDate string) error {
	r.mu.Lock()
	r.order = append(r.order, task.ID)
	r.mu.Unlock()
	if err, ok := r.fail[task.ID]; ok {
		return err
	}
	return nil
}

func TestExecuteFlowSuccess(t *testing.T) {
	runner := &recordingRunner{}
	eng := NewEngine(nil, nil, 4)
	eng.RegisterRunner(flow.TaskSync, runner)
	eng.RegisterRunner(flow.TaskFactor, runner)

	rec, err := eng.ExecuteFlow(context.Background(), chainFlow(), "20250101", "manual")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, flow.RunSuccess, rec.Status, "全部任务成功时运行状态应为success")
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, "manual", rec.TriggerType)
	assert.Equal(t, "20250101", rec.TargetDate)

	// 链式依赖下执行顺序必须与依赖顺序一致
	assert.Equal(t, []string{"sync_daily", "factor_momentum", "factor_value"}, runner.order)

	for _, taskID := range []string{"sync_daily", "factor_momentum", "factor_value"} {
		assert.Equal(t, flow.TaskSuccess, rec.Tasks[taskID].Status, "任务 %s 应为success", taskID)
	}
}

func TestExecuteFlowSkipsDownstreamOnFailure(t *testing.T) {
	runner := &recordingRunner{fail: map[string]error{
		"sync_daily": errors.New("数据源连接超时"),
	}}
	eng := NewEngine(nil, nil, 4)
	eng.RegisterRunner(flow.TaskSync, runner)
	eng.RegisterRunner(flow.TaskFactor, runner)

	rec, err := eng.ExecuteFlow(context.Background(), chainFlow(), "", "manual")
	require.NoError(t, err)

	assert.Equal(t, flow.RunFailed, rec.Status)
	assert.Equal(t, flow.TaskFailed, rec.Tasks["sync_daily"].Status)
	assert.Equal(t, flow.TaskSkipped, rec.Tasks["factor_momentum"].Status, "直接下游任务应跳过")
	assert.Equal(t, flow.TaskSkipped, rec.Tasks["factor_value"].Status, "间接下游任务应跳过")

	// 被跳过的任务不应进入Runner
	assert.Equal(t, []string{"sync_daily"}, runner.order)
}

func TestExecuteFlowValidationFailure(t *testing.T) {
	f := &flow.Flow{
		Name: "cyclic",
		Tasks: []flow.Task{
			{ID: "a", Type: flow.TaskSync, DependsOn: []string{"b"}},
			{ID: "b", Type: flow.TaskFactor, DependsOn: []string{"a"}},
		},
	}

	eng := NewEngine(nil, nil, 1)
	rec, err := eng.ExecuteFlow(context.Background(), f, "", "manual")
	assert.Nil(t, rec)

	var vfe *ValidationFailedError
	require.ErrorAs(t, err, &vfe, "校验失败时应返回ValidationFailedError")
	require.Len(t, vfe.Errors, 1)
	assert.Equal(t, validate.CodeCycleDetected, vfe.Errors[0].Code)
}

func TestExecuteFlowUnregisteredRunner(t *testing.T) {
	eng := NewEngine(nil, nil, 1)
	// 只注册sync，factor类型缺少Runner

	eng.RegisterRunner(flow.TaskSync, TaskRunnerFunc(func(ctx context.Context, task flow.Task, targetDate string) error {
		return nil
	}))

	rec, err := eng.ExecuteFlow(context.Background(), chainFlow(), "", "manual")
	require.NoError(t, err)

	assert.Equal(t, flow.RunFailed, rec.Status)
	assert.Equal(t, flow.TaskSuccess, rec.Tasks["sync_daily"].Status)
	assert.Equal(t, flow.TaskFailed, rec.Tasks["factor_momentum"].Status)
	assert.Contains(t, rec.Tasks["factor_momentum"].Error, "未注册执行器")
	assert.Equal(t, flow.TaskSkipped, rec.Tasks["factor_value"].Status)
}

func TestExecuteFlowConcurrencyLimit(t *testing.T) {
	const maxConcurrency = 2

	var mu sync.Mutex
	running, peak := 0, 0
	barrier := make(chan struct{})

	runner := TaskRunnerFunc(func(ctx context.Context, task flow.Task, targetDate string) error {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		<-barrier

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})

	tasks := make([]flow.Task, 0, 6)
	for i := 0; i < 6; i++ {
		tasks = append(tasks, flow.Task{ID: fmt.Sprintf("sync_%d", i), Type: flow.TaskSync})
	}
	f := &flow.Flow{Name: "parallel_sync", Tasks: tasks}

	eng := NewEngine(nil, nil, maxConcurrency)
	eng.RegisterRunner(flow.TaskSync, runner)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = eng.ExecuteFlow(context.Background(), f, "", "manual")
	}()
	// 释放全部任务
	for i := 0; i < 6; i++ {
		barrier <- struct{}{}
	}
	<-done

	assert.LessOrEqual(t, peak, maxConcurrency, "同时执行的任务数不应超过并发上限")
}

func TestGetRun(t *testing.T) {
	eng := NewEngine(nil, nil, 1)
	eng.RegisterRunner(flow.TaskSync, TaskRunnerFunc(func(ctx context.Context, task flow.Task, targetDate string) error {
		return nil
	}))

	f := &flow.Flow{Name: "single", Tasks: []flow.Task{{ID: "sync_daily", Type: flow.TaskSync}}}
	rec, err := eng.ExecuteFlow(context.Background(), f, "", "manual")
	require.NoError(t, err)

	got, ok := eng.GetRun(rec.RunID)
	require.True(t, ok)
	assert.Equal(t, rec.RunID, got.RunID)

	_, ok = eng.GetRun("不存在的runID")
	assert.False(t, ok)
}

// 执行过程中并发查询运行记录：GetRun返回深拷贝快照，
// worker更新任务状态时遍历快照的Tasks不应触发并发读写
func TestGetRunSnapshotDuringExecution(t *testing.T) {
	bus := events.NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	// 持续消费事件，从run_started事件拿RunID
	runIDCh := make(chan string, 1)
	go func() {
		for msg := range msgs {
			ev, err := events.DecodeRunEvent(msg)
			if err == nil && ev.Type == events.EventRunStarted {
				select {
				case runIDCh <- ev.RunID:
				default:
				}
			}
			msg.Ack()
		}
	}()

	release := make(chan struct{})
	runner := TaskRunnerFunc(func(ctx context.Context, task flow.Task, targetDate string) error {
		<-release
		return nil
	})

	eng := NewEngine(nil, bus, 4)
	eng.RegisterRunner(flow.TaskSync, runner)
	eng.RegisterRunner(flow.TaskFactor, runner)

	done := make(chan error, 1)
	go func() {
		_, err := eng.ExecuteFlow(context.Background(), chainFlow(), "", "manual")
		done <- err
	}()

	var runID string
	select {
	case runID = <-runIDCh:
	case <-time.After(2 * time.Second):
		t.Fatal("等待run_started事件超时")
	}

	// 轮询快照并遍历任务状态，与worker的写入并发
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if rec, ok := eng.GetRun(runID); ok {
				for _, r := range rec.Tasks {
					_ = r.Status
				}
			}
		}
	}()

	for i := 0; i < 3; i++ {
		release <- struct{}{}
	}
	require.NoError(t, <-done)
	close(stop)
	wg.Wait()

	// 快照是深拷贝：改动副本不影响引擎内的记录
	snap, ok := eng.GetRun(runID)
	require.True(t, ok)
	assert.Equal(t, flow.RunSuccess, snap.Status)
	snap.Tasks["sync_daily"] = flow.TaskResult{Status: flow.TaskFailed}

	again, ok := eng.GetRun(runID)
	require.True(t, ok)
	assert.Equal(t, flow.TaskSuccess, again.Tasks["sync_daily"].Status)
}

func TestSubmitBacktestValidatesStrategy(t *testing.T) {
	eng := NewEngine(nil, nil, 1)

	p := graph.Payload{
		Nodes: []graph.PayloadNode{
			{ID: "in", Type: "data_input", Data: map[string]interface{}{"ts_code": "000001.SZ"}},
			{ID: "sma", Type: "operator", Data: map[string]interface{}{"op": "sma"}},
			{ID: "sig", Type: "signal", Data: map[string]interface{}{"condition": "sma > close"}},
			{ID: "out", Type: "backtest_output", Data: map[string]interface{}{}},
		},
		Edges: []graph.PayloadEdge{
			{Source: "in", Target: "sma"},
			{Source: "sma", Target: "sig"},
			{Source: "sig", Target: "out"},
		},
	}

	sub, verrs := eng.SubmitBacktest(context.Background(), p)
	require.Empty(t, verrs)
	require.NotNil(t, sub)
	assert.Equal(t, []string{"in", "sma", "sig", "out"}, sub.Plan.Order)
	assert.Nil(t, sub.Result, "未配置回测执行器时不应有结果")

	// 缺少输出节点时应返回校验错误
	bad := graph.Payload{
		Nodes: p.Nodes[:3],
		Edges: p.Edges[:2],
	}
	sub, verrs = eng.SubmitBacktest(context.Background(), bad)
	assert.Nil(t, sub)
	assert.NotEmpty(t, verrs)
}
