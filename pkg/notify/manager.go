// Package notify 把运行事件分发给外部通知渠道（邮件等）
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/LENAX/flow-planner/pkg/core/events"
)

// Notifier 通知渠道接口（对外导出）
type Notifier interface {
	// Name 渠道名称
	Name() string
	// Init 按参数初始化渠道
	Init(params map[string]string) error
	// Notify 发送一条运行事件通知
	Notify(ev *events.RunEvent) error
}

// Binding 通知绑定规则（对外导出）
// 同一事件类型可以绑定多个渠道；Condition为可选过滤条件
type Binding struct {
	NotifierName string
	Event        events.EventType
	Condition    func(ev *events.RunEvent) bool
}

// Manager 通知管理器（对外导出）
// 订阅事件总线并按绑定规则分发给各通知渠道
type Manager struct {
	notifiers map[string]Notifier
	bindings  map[events.EventType][]Binding
	mu        sync.RWMutex
}

// NewManager 创建通知管理器（对外导出）
func NewManager() *Manager {
	return &Manager{
		notifiers: make(map[string]Notifier),
		bindings:  make(map[events.EventType][]Binding),
	}
}

// Register 注册通知渠道
func (m *Manager) Register(n Notifier) error {
	if n == nil {
		return fmt.Errorf("通知渠道不能为空")
	}
	name := n.Name()
	if name == "" {
		return fmt.Errorf("通知渠道名称不能为空")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.notifiers[name]; exists {
		return fmt.Errorf("通知渠道 %s 已注册", name)
	}
	m.notifiers[name] = n
	return nil
}

// RegisterWithInit 注册并初始化通知渠道
func (m *Manager) RegisterWithInit(n Notifier, params map[string]string) error {
	if err := m.Register(n); err != nil {
		return err
	}

	if err := n.Init(params); err != nil {
		// 初始化失败，移除已注册的渠道
		m.mu.Lock()
		delete(m.notifiers, n.Name())
		m.mu.Unlock()
		return fmt.Errorf("通知渠道 %s 初始化失败: %w", n.Name(), err)
	}
	return nil
}

// Bind 绑定通知渠道到事件类型
func (m *Manager) Bind(binding Binding) error {
	if binding.NotifierName == "" {
		return fmt.Errorf("通知渠道名称不能为空")
	}
	if binding.Event == "" {
		return fmt.Errorf("事件类型不能为空")
	}

	m.mu.RLock()
	_, exists := m.notifiers[binding.NotifierName]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("通知渠道 %s 未注册", binding.NotifierName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[binding.Event] = append(m.bindings[binding.Event], binding)
	return nil
}

// Dispatch 按绑定规则分发单条事件
func (m *Manager) Dispatch(ev *events.RunEvent) error {
	m.mu.RLock()
	bindings := m.bindings[ev.Type]
	m.mu.RUnlock()

	if len(bindings) == 0 {
		return nil
	}

	var errs []error
	for _, binding := range bindings {
		if binding.Condition != nil && !binding.Condition(ev) {
			continue
		}

		m.mu.RLock()
		n, exists := m.notifiers[binding.NotifierName]
		m.mu.RUnlock()
		if !exists {
			continue
		}

		if err := n.Notify(ev); err != nil {
			errs = append(errs, fmt.Errorf("通知渠道 %s 发送失败: %w", binding.NotifierName, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("事件分发失败: %v", errs)
	}
	return nil
}

// Run 订阅事件总线并持续分发，ctx取消时退出
func (m *Manager) Run(ctx context.Context, bus *events.Bus) error {
	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("订阅事件总线失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			ev, err := events.DecodeRunEvent(msg)
			if err != nil {
				log.Printf("⚠️ [通知] 解析运行事件失败: %v", err)
				msg.Ack()
				continue
			}
			if err := m.Dispatch(ev); err != nil {
				log.Printf("⚠️ [通知] %v", err)
			}
			msg.Ack()
		}
	}
}

// Notifiers 列出所有已注册的渠道名
func (m *Manager) Notifiers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.notifiers))
	for name := range m.notifiers {
		names = append(names, name)
	}
	return names
}

// Unregister 取消注册通知渠道并移除其绑定
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.notifiers[name]; !exists {
		return fmt.Errorf("通知渠道 %s 未注册", name)
	}
	delete(m.notifiers, name)

	for event := range m.bindings {
		filtered := make([]Binding, 0, len(m.bindings[event]))
		for _, b := range m.bindings[event] {
			if b.NotifierName != name {
				filtered = append(filtered, b)
			}
		}
		m.bindings[event] = filtered
	}
	return nil
}
