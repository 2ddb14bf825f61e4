package storage

// Dialect SQL方言接口（对外导出）
// 封装不同数据库的SQL语法差异
type Dialect interface {
	// Name 返回方言名称（如 "sqlite", "mysql", "postgres"）
	Name() string

	// DriverName 返回sqlx.Open使用的驱动名
	DriverName() string

	// UpsertSQL 返回INSERT或UPDATE的SQL语句（命名参数形式，sqlx负责绑定转换）
	// tableName: 表名
	// columns: 列名列表
	// conflictColumn: 冲突判断列（主键）
	// updateColumns: 需要更新的列（不含主键）
	UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string

	// ConfigureDB 返回建连后需要执行的配置SQL（如SQLite的PRAGMA）
	ConfigureDB() []string

	// CreateIndexSQL 返回建索引语句，返回空串表示该方言跳过
	// （MySQL不支持 CREATE INDEX IF NOT EXISTS）
	CreateIndexSQL(indexName, tableName, column string) string

	// BooleanType 返回布尔类型
	BooleanType() string

	// TextType 返回文本类型
	TextType() string

	// TimestampType 返回时间戳类型
	TimestampType() string
}
