// 灰度表导入工具：将 countries.csv 整表写入 PostgreSQL，供 DATA_SOURCE=db 的服务与命令行使用
package main

import (
	"context"
	"os"
	"path/filepath"

	"coord2country/internal/config"
	"coord2country/internal/logger"
	"coord2country/internal/migrate"
	"coord2country/internal/revgeo"
	"coord2country/internal/store"
	"coord2country/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：读取灰度表 CSV 并整表替换 _c2c_countries
// 背景：CSV 路径取第一个命令行参数，缺省为 DATA_CSV（或 DATA_DIR/countries.csv）；导入前校验灰度值唯一，
// 与服务启动时的校验一致，避免写入无法加载的数据。
// 约束：忽略 PG_ENABLED，总是连接 PG_* 指向的数据库。
func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	cfg, err := config.Load(nil)
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	path := cfg.Data.CSV
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	recs, err := revgeo.LoadDirectoryCSV(path)
	if err != nil {
		l.Error("csv_load_error", "path", path, "err", err)
		os.Exit(1)
	}
	if _, err := revgeo.NewDirectory(recs); err != nil {
		l.Error("csv_invalid", "path", path, "err", err)
		os.Exit(1)
	}
	db, err := utils.OpenPostgres(cfg.PG)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx := context.Background()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	if err := store.AttachDB(db).ReplaceCountries(ctx, recs); err != nil {
		l.Error("directory_import_error", "err", err)
		os.Exit(1)
	}
	l.Info("directory_import_done", "path", path, "rows", len(recs))
}
