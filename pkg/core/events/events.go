package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// TopicRunEvents 流程运行事件主题
const TopicRunEvents = "flow.run.events"

// EventType 事件类型（对外导出）
type EventType string

const (
	EventRunStarted   EventType = "run_started"   // 流程开始执行
	EventRunFinished  EventType = "run_finished"  // 流程执行结束
	EventTaskStarted  EventType = "task_started"  // 任务开始
	EventTaskFinished EventType = "task_finished" // 任务结束
	EventTaskSkipped  EventType = "task_skipped"  // 任务因前置失败被跳过
)

// RunEvent 流程运行事件（对外导出）
// 通过事件总线广播，WebSocket端点订阅后推送给编辑器
type RunEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	FlowName  string    `json:"flow_name"`
	TaskID    string    `json:"task_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRunEvent 创建运行事件
func NewRunEvent(eventType EventType, runID, flowName string) *RunEvent {
	return &RunEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		RunID:     runID,
		FlowName:  flowName,
		Timestamp: time.Now(),
	}
}

// WithTask 附加任务信息
func (e *RunEvent) WithTask(taskID, status string) *RunEvent {
	e.TaskID = taskID
	e.Status = status
	return e
}

// WithMessage 附加说明信息
func (e *RunEvent) WithMessage(msg string) *RunEvent {
	e.Message = msg
	return e
}

// Bus 进程内事件总线（对外导出）
// 基于watermill的gochannel Pub/Sub，非持久化
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus 创建事件总线
func NewBus(debug bool) *Bus {
	logger := watermill.NewStdLogger(debug, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	return &Bus{
		pubsub: pubsub,
		logger: logger,
	}
}

// Publish 发布运行事件
func (b *Bus) Publish(event *RunEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	if err := b.pubsub.Publish(TopicRunEvents, msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅运行事件
// 返回的通道在ctx取消或总线关闭时关闭
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicRunEvents)
	if err != nil {
		return nil, fmt.Errorf("订阅事件失败: %w", err)
	}
	return messages, nil
}

// DecodeRunEvent 解码事件消息
func DecodeRunEvent(msg *message.Message) (*RunEvent, error) {
	var event RunEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("解码事件失败: %w", err)
	}
	return &event, nil
}

// Close 关闭事件总线
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
