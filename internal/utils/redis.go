// 包 utils：外部连接工具（PostgreSQL、Redis），统一由配置构建
package utils

import (
	"coord2country/internal/config"
	"coord2country/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：按配置打开 Redis 客户端
// 约束：未启用时返回 nil，调用方据此跳过缓存与去重；DB 小于 0 时回退到 0
func OpenRedis(c config.RedisConfig) *redis.Client {
	if !c.Enabled {
		return nil
	}
	db := c.DB
	if db < 0 {
		db = 0
	}
	addr := c.Host + ":" + c.Port
	logger.L().Debug("redis_config", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: c.Pass, DB: db})
}
