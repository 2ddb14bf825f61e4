package sqlite

import (
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/flow-planner/pkg/storage"
)

// SQLiteDialect SQLite方言实现（对外导出）
type SQLiteDialect struct{}

// NewSQLiteDialect 创建SQLite方言实例
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

// Name 返回方言名称
func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

// DriverName 返回驱动名
func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// UpsertSQL 返回SQLite的UPSERT语句
// 为兼容性使用 INSERT OR REPLACE
func (d *SQLiteDialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	namedPlaceholders := make([]string, len(columns))
	for i, col := range columns {
		namedPlaceholders[i] = ":" + col
	}

	return fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(namedPlaceholders, ", "),
	)
}

// ConfigureDB 返回SQLite配置SQL
func (d *SQLiteDialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA synchronous=NORMAL;",
	}
}

// CreateIndexSQL 返回建索引语句
func (d *SQLiteDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);", indexName, tableName, column)
}

// BooleanType 返回SQLite布尔类型
func (d *SQLiteDialect) BooleanType() string {
	return "INTEGER"
}

// TextType 返回SQLite文本类型
func (d *SQLiteDialect) TextType() string {
	return "TEXT"
}

// TimestampType 返回SQLite时间戳类型
func (d *SQLiteDialect) TimestampType() string {
	return "DATETIME"
}

// NewFlowRepoFromDSN 通过DSN创建SQLite存储（对外导出）
func NewFlowRepoFromDSN(dsn string) (*storage.SQLFlowRepo, error) {
	return storage.OpenFlowRepo(NewSQLiteDialect(), dsn)
}

// 确保实现接口
var _ storage.Dialect = (*SQLiteDialect)(nil)
