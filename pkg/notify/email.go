package notify

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/LENAX/flow-planner/pkg/core/events"
)

// EmailNotifier 邮件通知渠道（对外导出）
type EmailNotifier struct {
	name     string
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
	to       []string
	enabled  bool
}

// NewEmailNotifier 创建邮件通知渠道（对外导出）
func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{
		name:    "email",
		enabled: false,
	}
}

// Name 渠道名称（实现Notifier接口）
func (e *EmailNotifier) Name() string {
	return e.name
}

// Init 初始化渠道（实现Notifier接口）
func (e *EmailNotifier) Init(params map[string]string) error {
	// 读取SMTP配置
	e.smtpHost = params["smtp_host"]
	if e.smtpHost == "" {
		return fmt.Errorf("smtp_host参数不能为空")
	}

	// SMTP端口（默认25）
	e.smtpPort = 25
	if portStr := params["smtp_port"]; portStr != "" {
		if _, err := fmt.Sscanf(portStr, "%d", &e.smtpPort); err != nil {
			return fmt.Errorf("smtp_port参数格式错误: %w", err)
		}
	}

	// 用户名和密码（可选，用于认证）
	e.username = params["username"]
	e.password = params["password"]

	// 发件人地址
	e.from = params["from"]
	if e.from == "" {
		return fmt.Errorf("from参数不能为空")
	}

	// 收件人地址（多个用逗号分隔）
	toStr := params["to"]
	if toStr == "" {
		return fmt.Errorf("to参数不能为空")
	}
	e.to = strings.Split(toStr, ",")
	for i := range e.to {
		e.to[i] = strings.TrimSpace(e.to[i])
	}

	e.enabled = true
	log.Printf("✅ [邮件通知] 初始化完成: SMTP=%s:%d, From=%s, To=%v", e.smtpHost, e.smtpPort, e.from, e.to)
	return nil
}

// Notify 发送运行事件通知（实现Notifier接口）
func (e *EmailNotifier) Notify(ev *events.RunEvent) error {
	if !e.enabled {
		return fmt.Errorf("邮件通知渠道未初始化")
	}

	subject := e.buildSubject(ev)
	body := e.buildBody(ev)

	if err := e.sendEmail(subject, body); err != nil {
		log.Printf("❌ [邮件通知] 发送失败: %v", err)
		return err
	}

	log.Printf("✅ [邮件通知] 发送成功: Event=%s, Subject=%s", ev.Type, subject)
	return nil
}

// buildSubject 构建邮件主题
func (e *EmailNotifier) buildSubject(ev *events.RunEvent) string {
	switch ev.Type {
	case events.EventRunStarted:
		return fmt.Sprintf("[流程启动] %s - %s", ev.FlowName, ev.RunID)
	case events.EventRunFinished:
		return fmt.Sprintf("[流程结束:%s] %s - %s", ev.Message, ev.FlowName, ev.RunID)
	case events.EventTaskStarted:
		return fmt.Sprintf("[任务开始] %s / %s", ev.FlowName, ev.TaskID)
	case events.EventTaskFinished:
		return fmt.Sprintf("[任务结束:%s] %s / %s", ev.Status, ev.FlowName, ev.TaskID)
	case events.EventTaskSkipped:
		return fmt.Sprintf("[任务跳过] %s / %s", ev.FlowName, ev.TaskID)
	default:
		return fmt.Sprintf("[系统通知] %s", ev.Type)
	}
}

// buildBody 构建邮件正文
func (e *EmailNotifier) buildBody(ev *events.RunEvent) string {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("事件类型: %s\n", ev.Type))
	body.WriteString(fmt.Sprintf("流程: %s\n", ev.FlowName))
	body.WriteString(fmt.Sprintf("RunID: %s\n", ev.RunID))
	if ev.TaskID != "" {
		body.WriteString(fmt.Sprintf("任务: %s\n", ev.TaskID))
	}
	if ev.Status != "" {
		body.WriteString(fmt.Sprintf("状态: %s\n", ev.Status))
	}
	if ev.Message != "" {
		body.WriteString(fmt.Sprintf("说明: %s\n", ev.Message))
	}
	body.WriteString(fmt.Sprintf("时间: %s\n", ev.Timestamp.Format("2006-01-02 15:04:05")))
	return body.String()
}

// sendEmail 发送邮件
func (e *EmailNotifier) sendEmail(subject, body string) error {
	message := e.buildMessage(subject, body)
	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)

	// 如果配置了用户名和密码，使用认证
	if e.username != "" && e.password != "" {
		auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)

		// 465端口需要先建立TLS连接
		if e.smtpPort == 465 {
			return e.sendEmailTLS(addr, auth, message)
		}

		return smtp.SendMail(addr, auth, e.from, e.to, []byte(message))
	}

	// 无认证发送（仅用于内网测试）
	return smtp.SendMail(addr, nil, e.from, e.to, []byte(message))
}

// sendEmailTLS 通过TLS发送邮件（用于465端口）
func (e *EmailNotifier) sendEmailTLS(addr string, auth smtp.Auth, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: e.smtpHost,
	})
	if err != nil {
		return fmt.Errorf("TLS连接失败: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP认证失败: %w", err)
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	for _, to := range e.to {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("设置收件人失败: %w", err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("获取数据写入器失败: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("关闭数据写入器失败: %w", err)
	}

	return client.Quit()
}

// buildMessage 构建邮件消息
func (e *EmailNotifier) buildMessage(subject, body string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.to, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}
