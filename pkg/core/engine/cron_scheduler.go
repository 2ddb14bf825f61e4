package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/flow-planner/pkg/core/flow"
)

// CronScheduler 定时调度器（对外导出）
type CronScheduler struct {
	cron    *cron.Cron
	engine  *Engine
	flows   map[string]*flow.Flow   // flowName -> Flow映射
	entries map[string]cron.EntryID // flowName -> cron.EntryID映射
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCronScheduler 创建定时调度器（对外导出）
func NewCronScheduler(eng *Engine) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:    cron.New(cron.WithSeconds()), // 支持秒级精度
		engine:  eng,
		flows:   make(map[string]*flow.Flow),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterFlow 注册流程到定时调度器（对外导出）
func (cs *CronScheduler) RegisterFlow(f *flow.Flow) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// 检查是否已注册
	if _, exists := cs.flows[f.Name]; exists {
		return fmt.Errorf("流程 %s 已注册到定时调度器", f.Name)
	}

	// 检查是否启用定时调度
	if !f.Enabled {
		return fmt.Errorf("流程 %s 未启用定时调度", f.Name)
	}

	// 检查Cron表达式
	if f.Cron == "" {
		return fmt.Errorf("流程 %s 未设置Cron表达式", f.Name)
	}

	// 验证Cron表达式（使用Parser支持秒级精度）
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(f.Cron); err != nil {
		return fmt.Errorf("流程 %s 的Cron表达式无效: %w", f.Name, err)
	}

	// 添加Cron任务
	entryID, err := cs.cron.AddFunc(f.Cron, func() {
		cs.triggerFlow(f)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	// 保存映射
	cs.flows[f.Name] = f
	cs.entries[f.Name] = entryID

	log.Printf("✅ [Cron调度器] 已注册流程: Name=%s, CronExpr=%s", f.Name, f.Cron)
	return nil
}

// UnregisterFlow 取消注册流程（对外导出）
func (cs *CronScheduler) UnregisterFlow(flowName string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// 检查是否已注册
	entryID, exists := cs.entries[flowName]
	if !exists {
		return fmt.Errorf("流程 %s 未注册到定时调度器", flowName)
	}

	// 移除Cron任务
	cs.cron.Remove(entryID)

	// 删除映射
	delete(cs.flows, flowName)
	delete(cs.entries, flowName)

	log.Printf("✅ [Cron调度器] 已取消注册流程: Name=%s", flowName)
	return nil
}

// triggerFlow 触发流程执行（内部方法）
func (cs *CronScheduler) triggerFlow(f *flow.Flow) {
	log.Printf("🕐 [Cron调度器] 触发流程执行: Name=%s", f.Name)

	rec, err := cs.engine.ExecuteFlow(cs.ctx, f, "", "cron")
	if err != nil {
		log.Printf("❌ [Cron调度器] 流程执行失败: Name=%s, Error=%v", f.Name, err)
		return
	}
	log.Printf("✅ [Cron调度器] 流程执行完成: Name=%s, RunID=%s, Status=%s", f.Name, rec.RunID, rec.Status)
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器（对外导出）
func (cs *CronScheduler) Stop() {
	cs.cron.Stop()
	cs.cancel()
	log.Println("✅ [Cron调度器] 已停止")
}

// RegisteredFlows 获取已注册的流程名列表（对外导出）
func (cs *CronScheduler) RegisteredFlows() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	names := make([]string, 0, len(cs.flows))
	for name := range cs.flows {
		names = append(names, name)
	}
	return names
}
