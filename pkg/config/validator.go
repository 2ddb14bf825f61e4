package config

import (
	"fmt"
)

// Validate 校验配置合法性
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}

	validModes := map[string]bool{
		"dev":  true,
		"prod": true,
	}
	if !validModes[cfg.Mode] {
		return fmt.Errorf("mode必须是dev/prod之一")
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port必须在1-65535之间")
	}

	// 校验Database
	validDBTypes := map[string]bool{
		"sqlite":     true,
		"postgres":   true,
		"postgresql": true,
		"mysql":      true,
	}
	if !validDBTypes[cfg.Database.Type] {
		return fmt.Errorf("database.type必须是sqlite/postgres/mysql之一")
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn不能为空")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns必须大于0")
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns不能为负数")
	}

	// 校验Engine
	if cfg.Engine.MaxConcurrency <= 0 {
		return fmt.Errorf("engine.max_concurrency必须大于0")
	}
	if cfg.Engine.TaskTimeout <= 0 {
		return fmt.Errorf("engine.task_timeout必须大于0")
	}

	// 校验Notify（仅在启用时）
	if cfg.Notify.Email.Enabled {
		if cfg.Notify.Email.SMTPHost == "" {
			return fmt.Errorf("notify.email.smtp_host不能为空")
		}
		if cfg.Notify.Email.From == "" {
			return fmt.Errorf("notify.email.from不能为空")
		}
		if cfg.Notify.Email.To == "" {
			return fmt.Errorf("notify.email.to不能为空")
		}
	}

	return nil
}
