package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/flow-planner/pkg/core/flow"
)

func scheduledFlow(name string) *flow.Flow {
	return &flow.Flow{
		Name:    name,
		Cron:    "0 0 18 * * 1-5", // 工作日18:00
		Enabled: true,
		Tasks: []flow.Task{
			{ID: "sync_daily", Type: flow.TaskSync},
		},
	}
}

func TestCronSchedulerRegisterFlow(t *testing.T) {
	cs := NewCronScheduler(NewEngine(nil, nil, 1))
	defer cs.Stop()

	require.NoError(t, cs.RegisterFlow(scheduledFlow("daily_update")))
	assert.Equal(t, []string{"daily_update"}, cs.RegisteredFlows())

	// 重复注册应报错
	err := cs.RegisterFlow(scheduledFlow("daily_update"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已注册")
}

func TestCronSchedulerRegisterDisabledFlow(t *testing.T) {
	cs := NewCronScheduler(NewEngine(nil, nil, 1))
	defer cs.Stop()

	f := scheduledFlow("daily_update")
	f.Enabled = false

	err := cs.RegisterFlow(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未启用")
	assert.Empty(t, cs.RegisteredFlows())
}

func TestCronSchedulerRegisterInvalidCron(t *testing.T) {
	cs := NewCronScheduler(NewEngine(nil, nil, 1))
	defer cs.Stop()

	empty := scheduledFlow("no_cron")
	empty.Cron = ""
	err := cs.RegisterFlow(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未设置Cron表达式")

	bad := scheduledFlow("bad_cron")
	bad.Cron = "每天十八点"
	err = cs.RegisterFlow(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cron表达式无效")

	assert.Empty(t, cs.RegisteredFlows())
}

func TestCronSchedulerUnregisterFlow(t *testing.T) {
	cs := NewCronScheduler(NewEngine(nil, nil, 1))
	defer cs.Stop()

	require.NoError(t, cs.RegisterFlow(scheduledFlow("daily_update")))
	require.NoError(t, cs.UnregisterFlow("daily_update"))
	assert.Empty(t, cs.RegisteredFlows())

	// 取消注册后可以重新注册
	require.NoError(t, cs.RegisterFlow(scheduledFlow("daily_update")))
}

func TestCronSchedulerUnregisterUnknownFlow(t *testing.T) {
	cs := NewCronScheduler(NewEngine(nil, nil, 1))
	defer cs.Stop()

	err := cs.UnregisterFlow("没有注册过")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未注册")
}
