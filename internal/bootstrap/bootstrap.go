// Package bootstrap 组装服务的全部组件（存储、事件总线、引擎、调度器、API服务器）
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/flow-planner/internal/storage"
	"github.com/LENAX/flow-planner/pkg/api"
	"github.com/LENAX/flow-planner/pkg/config"
	"github.com/LENAX/flow-planner/pkg/core/engine"
	"github.com/LENAX/flow-planner/pkg/core/events"
	"github.com/LENAX/flow-planner/pkg/core/flow"
	"github.com/LENAX/flow-planner/pkg/notify"
	pkgstorage "github.com/LENAX/flow-planner/pkg/storage"
)

// Options 组装选项
type Options struct {
	Host    string
	Version string
}

// App 组装完成的服务
type App struct {
	repo         pkgstorage.FlowRepository
	bus          *events.Bus
	engine       *engine.Engine
	scheduler    *engine.CronScheduler
	server       *api.APIServer
	notifyCancel context.CancelFunc
}

// New 按配置组装服务
func New(cfg *config.Config, opts Options) (*App, error) {
	repo, err := storage.NewFlowRepository(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}

	if sqlRepo, ok := repo.(interface{ GetDB() *sqlx.DB }); ok {
		db := sqlRepo.GetDB()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	bus := events.NewBus(cfg.Mode == "dev")

	eng := engine.NewEngine(repo, bus, cfg.GetMaxConcurrency())
	registerDefaultRunners(eng, cfg.GetTaskTimeout())

	scheduler := engine.NewCronScheduler(eng)
	scheduler.Start()

	// 恢复已启用的定时流程
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	flows, err := repo.ListFlows(ctx)
	if err != nil {
		log.Printf("⚠️ [启动] 加载流程列表失败: %v", err)
	} else {
		for _, f := range flows {
			if !f.Enabled || f.Cron == "" {
				continue
			}
			if err := scheduler.RegisterFlow(f); err != nil {
				log.Printf("⚠️ [启动] 注册定时流程失败: Name=%s, Error=%v", f.Name, err)
			}
		}
	}

	serverCfg := api.DefaultServerConfig()
	if opts.Host != "" {
		serverCfg.Host = opts.Host
	}
	serverCfg.Port = cfg.HTTPPort

	server := api.NewAPIServer(eng, repo, scheduler, bus, serverCfg, opts.Version)

	app := &App{
		repo:      repo,
		bus:       bus,
		engine:    eng,
		scheduler: scheduler,
		server:    server,
	}

	if err := app.setupNotify(cfg); err != nil {
		log.Printf("⚠️ [启动] 初始化通知渠道失败: %v", err)
	}

	return app, nil
}

// setupNotify 按配置初始化通知渠道并订阅事件总线
func (a *App) setupNotify(cfg *config.Config) error {
	email := cfg.Notify.Email
	if !email.Enabled {
		return nil
	}

	manager := notify.NewManager()
	params := map[string]string{
		"smtp_host": email.SMTPHost,
		"smtp_port": fmt.Sprintf("%d", email.SMTPPort),
		"username":  email.Username,
		"password":  email.Password,
		"from":      email.From,
		"to":        email.To,
	}
	if err := manager.RegisterWithInit(notify.NewEmailNotifier(), params); err != nil {
		return err
	}

	binding := notify.Binding{NotifierName: "email", Event: events.EventRunFinished}
	if email.OnFailureOnly {
		binding.Condition = func(ev *events.RunEvent) bool {
			return ev.Message == string(flow.RunFailed)
		}
	}
	if err := manager.Bind(binding); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.notifyCancel = cancel
	go func() {
		if err := manager.Run(ctx, a.bus); err != nil {
			log.Printf("⚠️ [通知] 事件订阅退出: %v", err)
		}
	}()
	return nil
}

// Engine 返回流程执行引擎
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Start 启动HTTP服务（阻塞直到服务退出）
func (a *App) Start() error {
	return a.server.Start()
}

// Addr 返回HTTP监听地址
func (a *App) Addr() string {
	return a.server.Addr()
}

// Shutdown 优雅关闭HTTP服务和调度器
func (a *App) Shutdown(ctx context.Context) error {
	a.scheduler.Stop()
	return a.server.Shutdown(ctx)
}

// Close 释放存储与事件总线资源
func (a *App) Close() {
	if a.notifyCancel != nil {
		a.notifyCancel()
	}
	if err := a.bus.Close(); err != nil {
		log.Printf("⚠️ [关闭] 关闭事件总线失败: %v", err)
	}
	if err := a.repo.Close(); err != nil {
		log.Printf("⚠️ [关闭] 关闭存储失败: %v", err)
	}
}

// registerDefaultRunners 注册内置任务执行器
// 实际的数据同步与因子计算由部署方通过Engine.RegisterRunner
// 替换；内置执行器只做超时控制和执行日志
func registerDefaultRunners(eng *engine.Engine, timeout time.Duration) {
	logRunner := func(label string) engine.TaskRunnerFunc {
		return func(ctx context.Context, task flow.Task, targetDate string) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Printf("⚙️ [%s] 执行任务: ID=%s, TargetDate=%s", label, task.ID, targetDate)
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		}
	}
	eng.RegisterRunner(flow.TaskSync, logRunner("数据同步"))
	eng.RegisterRunner(flow.TaskFactor, logRunner("因子计算"))
}
