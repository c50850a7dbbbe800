package migrate

import (
	"context"
	"database/sql"

	"coord2country/internal/logger"

	"github.com/rotisserie/eris"
)

// 背景：首次运行自动创建灰度表与统计表，保障目录导入与查询统计
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _c2c_countries (
        grayshade INT PRIMARY KEY CHECK (grayshade BETWEEN 0 AND 255),
        code TEXT NOT NULL,
        qid TEXT NOT NULL DEFAULT '',
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_c2c_countries_code ON _c2c_countries(code)`,
	`CREATE TABLE IF NOT EXISTS _c2c_stats_total (
        id INT PRIMARY KEY,
        total_queries BIGINT NOT NULL DEFAULT 0,
        total_visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS _c2c_stats_daily (
        day DATE PRIMARY KEY,
        queries BIGINT NOT NULL DEFAULT 0,
        visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`INSERT INTO _c2c_stats_total(id, total_queries, total_visitors)
     VALUES(1, 0, 0)
     ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS _c2c_country_hits (
        code TEXT PRIMARY KEY,
        hits BIGINT NOT NULL DEFAULT 0,
        last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return eris.Wrapf(err, "schema statement %d", i)
		}
	}
	logger.L().Debug("schema_done", "statements", len(stmts))
	return nil
}
