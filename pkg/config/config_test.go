package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "有效配置",
			cfg: func() *Config {
				cfg := &Config{}
				cfg.ApplyDefaults()
				return cfg
			}(),
			wantErr: false,
		},
		{
			name:    "空配置",
			cfg:     nil,
			wantErr: true,
		},
		{
			name: "无效的数据库类型",
			cfg: func() *Config {
				cfg := &Config{}
				cfg.ApplyDefaults()
				cfg.Database.Type = "oracle"
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "端口超出范围",
			cfg: func() *Config {
				cfg := &Config{}
				cfg.ApplyDefaults()
				cfg.HTTPPort = 70000
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "并发上限非法",
			cfg: func() *Config {
				cfg := &Config{}
				cfg.ApplyDefaults()
				cfg.Engine.MaxConcurrency = -1
				return cfg
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "不存在.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "dev" {
		t.Errorf("默认Mode = %s, 期望 dev", cfg.Mode)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("默认HTTPPort = %d, 期望 8080", cfg.HTTPPort)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("默认Database.Type = %s, 期望 sqlite", cfg.Database.Type)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	content := `mode: prod
http_port: 9090
database:
  type: postgres
  dsn: "host=localhost user=quant dbname=flow sslmode=disable"
engine:
  max_concurrency: 4
  task_timeout: 1m
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "prod" {
		t.Errorf("Mode = %s, 期望 prod", cfg.Mode)
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, 期望 9090", cfg.HTTPPort)
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("Database.Type = %s, 期望 postgres", cfg.Database.Type)
	}
	if cfg.Engine.MaxConcurrency != 4 {
		t.Errorf("Engine.MaxConcurrency = %d, 期望 4", cfg.Engine.MaxConcurrency)
	}
	if cfg.Engine.TaskTimeout != time.Minute {
		t.Errorf("Engine.TaskTimeout = %v, 期望 1m", cfg.Engine.TaskTimeout)
	}
	// 未写的字段应回填默认值
	if cfg.Database.MaxOpenConns != 10 {
		t.Errorf("Database.MaxOpenConns = %d, 期望默认值 10", cfg.Database.MaxOpenConns)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("mode: [不闭合"), 0644); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("非法YAML应返回错误")
	}
}
