package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/flow-planner/pkg/core/flow"
	"github.com/LENAX/flow-planner/pkg/storage/dao"
)

var (
	flowColumns = []string{"name", "description", "cron_expr", "tags", "enabled", "tasks", "create_time", "update_time"}
	runColumns  = []string{"run_id", "flow_name", "status", "trigger_type", "target_date", "start_time", "end_time", "tasks", "error_message"}
)

// SQLFlowRepo FlowRepository的sqlx实现（对外导出）
// 通过Dialect适配sqlite/mysql/postgres的语法差异
type SQLFlowRepo struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLFlowRepo 创建Repository实例（对外导出）
// 执行方言配置SQL并初始化表结构
func NewSQLFlowRepo(db *sqlx.DB, dialect Dialect) (*SQLFlowRepo, error) {
	repo := &SQLFlowRepo{db: db, dialect: dialect}

	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("配置数据库失败: %w", err)
		}
	}

	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

// OpenFlowRepo 通过DSN创建Repository实例（对外导出）
func OpenFlowRepo(dialect Dialect, dsn string) (*SQLFlowRepo, error) {
	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	repo, err := NewSQLFlowRepo(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// initSchema 初始化数据库表结构
func (r *SQLFlowRepo) initSchema() error {
	text := r.dialect.TextType()
	boolean := r.dialect.BooleanType()
	timestamp := r.dialect.TimestampType()

	createFlowSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS flow_definition (
		name VARCHAR(128) PRIMARY KEY,
		description %s,
		cron_expr VARCHAR(64),
		tags %s,
		enabled %s NOT NULL,
		tasks %s,
		create_time %s NOT NULL,
		update_time %s NOT NULL
	);`, text, text, boolean, text, timestamp, timestamp)

	createRunSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS flow_run (
		run_id VARCHAR(64) PRIMARY KEY,
		flow_name VARCHAR(128) NOT NULL,
		status VARCHAR(16) NOT NULL,
		trigger_type VARCHAR(16),
		target_date VARCHAR(16),
		start_time %s,
		end_time %s,
		tasks %s,
		error_message %s
	);`, timestamp, timestamp, text, text)

	for _, stmt := range []string{createFlowSQL, createRunSQL} {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}

	if idx := r.dialect.CreateIndexSQL("idx_flow_run_flow_name", "flow_run", "flow_name"); idx != "" {
		if _, err := r.db.Exec(idx); err != nil {
			return err
		}
	}
	return nil
}

// SaveFlow 保存流程定义（存在则更新）
func (r *SQLFlowRepo) SaveFlow(ctx context.Context, f *flow.Flow) error {
	d, err := dao.FromFlow(f)
	if err != nil {
		return err
	}

	query := r.dialect.UpsertSQL("flow_definition", flowColumns, "name",
		[]string{"description", "cron_expr", "tags", "enabled", "tasks", "update_time"})
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("保存流程定义失败: %w", err)
	}
	return nil
}

// GetFlow 按名称查询流程定义
func (r *SQLFlowRepo) GetFlow(ctx context.Context, name string) (*flow.Flow, error) {
	query := r.db.Rebind("SELECT * FROM flow_definition WHERE name = ?")

	var d dao.FlowDAO
	if err := r.db.GetContext(ctx, &d, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询流程定义失败: %w", err)
	}
	return d.ToFlow()
}

// ListFlows 列出所有流程定义
func (r *SQLFlowRepo) ListFlows(ctx context.Context) ([]*flow.Flow, error) {
	var rows []dao.FlowDAO
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM flow_definition ORDER BY name"); err != nil {
		return nil, fmt.Errorf("查询流程列表失败: %w", err)
	}

	flows := make([]*flow.Flow, 0, len(rows))
	for i := range rows {
		f, err := rows[i].ToFlow()
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, nil
}

// DeleteFlow 删除流程定义
func (r *SQLFlowRepo) DeleteFlow(ctx context.Context, name string) error {
	query := r.db.Rebind("DELETE FROM flow_definition WHERE name = ?")
	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("删除流程定义失败: %w", err)
	}
	return nil
}

// SaveRun 保存运行记录（存在则更新）
func (r *SQLFlowRepo) SaveRun(ctx context.Context, rec *flow.RunRecord) error {
	d, err := dao.FromRunRecord(rec)
	if err != nil {
		return err
	}

	query := r.dialect.UpsertSQL("flow_run", runColumns, "run_id",
		[]string{"status", "end_time", "tasks", "error_message"})
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("保存运行记录失败: %w", err)
	}
	return nil
}

// GetRun 按RunID查询运行记录
func (r *SQLFlowRepo) GetRun(ctx context.Context, runID string) (*flow.RunRecord, error) {
	query := r.db.Rebind("SELECT * FROM flow_run WHERE run_id = ?")

	var d dao.RunDAO
	if err := r.db.GetContext(ctx, &d, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return d.ToRunRecord()
}

// ListRuns 查询指定流程的运行历史（按开始时间倒序）
func (r *SQLFlowRepo) ListRuns(ctx context.Context, flowName string, limit int) ([]*flow.RunRecord, error) {
	query := "SELECT * FROM flow_run WHERE flow_name = ? ORDER BY start_time DESC"
	args := []interface{}{flowName}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []dao.RunDAO
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("查询运行历史失败: %w", err)
	}

	records := make([]*flow.RunRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRunRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetDB 获取底层数据库连接（对外导出）
func (r *SQLFlowRepo) GetDB() *sqlx.DB {
	return r.db
}

// Close 关闭数据库连接
func (r *SQLFlowRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// 确保实现接口
var _ FlowRepository = (*SQLFlowRepo)(nil)
