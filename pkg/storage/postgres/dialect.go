package postgres

import (
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/LENAX/flow-planner/pkg/storage"
)

// PostgresDialect PostgreSQL方言实现（对外导出）
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// DriverName 返回驱动名
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// UpsertSQL 返回PostgreSQL的UPSERT语句（ON CONFLICT DO UPDATE）
func (d *PostgresDialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	namedPlaceholders := make([]string, len(columns))
	for i, col := range columns {
		namedPlaceholders[i] = ":" + col
	}

	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(namedPlaceholders, ", "),
		conflictColumn,
		strings.Join(updates, ", "),
	)
}

// ConfigureDB PostgreSQL无需额外配置SQL
func (d *PostgresDialect) ConfigureDB() []string {
	return nil
}

// CreateIndexSQL 返回建索引语句
func (d *PostgresDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);", indexName, tableName, column)
}

// BooleanType 返回PostgreSQL布尔类型
func (d *PostgresDialect) BooleanType() string {
	return "BOOLEAN"
}

// TextType 返回PostgreSQL文本类型
func (d *PostgresDialect) TextType() string {
	return "TEXT"
}

// TimestampType 返回PostgreSQL时间戳类型
func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMP"
}

// NewFlowRepoFromDSN 通过DSN创建PostgreSQL存储（对外导出）
func NewFlowRepoFromDSN(dsn string) (*storage.SQLFlowRepo, error) {
	return storage.OpenFlowRepo(NewPostgresDialect(), dsn)
}

// 确保实现接口
var _ storage.Dialect = (*PostgresDialect)(nil)
