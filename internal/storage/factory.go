package storage

import (
	"fmt"

	pkgstorage "github.com/LENAX/flow-planner/pkg/storage"
	"github.com/LENAX/flow-planner/pkg/storage/mysql"
	"github.com/LENAX/flow-planner/pkg/storage/postgres"
	"github.com/LENAX/flow-planner/pkg/storage/sqlite"
)

// NewFlowRepository 按数据库类型创建存储实例（内部方法）
// dbType: 数据库类型（sqlite/mysql/postgres）
// dsn: 数据库连接字符串
func NewFlowRepository(dbType, dsn string) (pkgstorage.FlowRepository, error) {
	switch dbType {
	case "sqlite":
		return sqlite.NewFlowRepoFromDSN(dsn)
	case "mysql":
		return mysql.NewFlowRepoFromDSN(dsn)
	case "postgres", "postgresql":
		return postgres.NewFlowRepoFromDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
