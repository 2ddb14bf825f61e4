package config

import (
	"time"
)

// Config 服务配置（对外导出）
type Config struct {
	Mode     string `yaml:"mode"`      // dev/prod
	HTTPPort int    `yaml:"http_port"` // HTTP服务端口

	Database struct {
		Type            string        `yaml:"type"` // sqlite/mysql/postgres
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"database"`

	Engine struct {
		MaxConcurrency int           `yaml:"max_concurrency"` // 同层任务并发上限
		TaskTimeout    time.Duration `yaml:"task_timeout"`    // 单任务超时
	} `yaml:"engine"`

	Notify struct {
		Email struct {
			Enabled       bool   `yaml:"enabled"`
			SMTPHost      string `yaml:"smtp_host"`
			SMTPPort      int    `yaml:"smtp_port"`
			Username      string `yaml:"username"`
			Password      string `yaml:"password"`
			From          string `yaml:"from"`
			To            string `yaml:"to"` // 多个收件人用逗号分隔
			OnFailureOnly bool   `yaml:"on_failure_only"`
		} `yaml:"email"`
	} `yaml:"notify"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.HTTPPort <= 0 {
		c.HTTPPort = 8080
	}

	// Database默认值：本地SQLite单文件库
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "flow-planner.db"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = 2 * time.Hour
	}

	// Engine默认值
	if c.Engine.MaxConcurrency <= 0 {
		c.Engine.MaxConcurrency = 10
	}
	if c.Engine.TaskTimeout <= 0 {
		c.Engine.TaskTimeout = 30 * time.Second
	}
}

// GetMaxConcurrency 获取任务并发上限
func (c *Config) GetMaxConcurrency() int {
	if c.Engine.MaxConcurrency <= 0 {
		return 10 // 默认值
	}
	return c.Engine.MaxConcurrency
}

// GetTaskTimeout 获取单任务超时时间
func (c *Config) GetTaskTimeout() time.Duration {
	if c.Engine.TaskTimeout <= 0 {
		return 30 * time.Second // 默认值
	}
	return c.Engine.TaskTimeout
}
