package mysql

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/LENAX/flow-planner/pkg/storage"
)

// MySQLDialect MySQL方言实现（对外导出）
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// DriverName 返回驱动名
func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// UpsertSQL 返回MySQL的UPSERT语句（ON DUPLICATE KEY UPDATE）
func (d *MySQLDialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	namedPlaceholders := make([]string, len(columns))
	for i, col := range columns {
		namedPlaceholders[i] = ":" + col
	}

	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(namedPlaceholders, ", "),
		strings.Join(updates, ", "),
	)
}

// ConfigureDB MySQL无需额外配置SQL
func (d *MySQLDialect) ConfigureDB() []string {
	return nil
}

// CreateIndexSQL MySQL不支持 CREATE INDEX IF NOT EXISTS，跳过
func (d *MySQLDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return ""
}

// BooleanType 返回MySQL布尔类型
func (d *MySQLDialect) BooleanType() string {
	return "TINYINT(1)"
}

// TextType 返回MySQL文本类型
func (d *MySQLDialect) TextType() string {
	return "TEXT"
}

// TimestampType 返回MySQL时间戳类型
func (d *MySQLDialect) TimestampType() string {
	return "DATETIME"
}

// NewFlowRepoFromDSN 通过DSN创建MySQL存储（对外导出）
// DSN需携带 parseTime=true 以便时间列正确扫描
func NewFlowRepoFromDSN(dsn string) (*storage.SQLFlowRepo, error) {
	return storage.OpenFlowRepo(NewMySQLDialect(), dsn)
}

// 确保实现接口
var _ storage.Dialect = (*MySQLDialect)(nil)
