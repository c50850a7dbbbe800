// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"coord2country/internal/api"
	"coord2country/internal/config"
	"coord2country/internal/geoip"
	"coord2country/internal/logger"
	"coord2country/internal/metrics"
	"coord2country/internal/middleware"
	"coord2country/internal/migrate"
	"coord2country/internal/names"
	"coord2country/internal/revgeo"
	"coord2country/internal/store"
	"coord2country/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg, err := config.Load(nil)
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l.Debug("config_api_base", "base", cfg.APIBase)
	ctx := context.Background()

	var st *store.Store
	if cfg.PG.Enabled {
		db, err := utils.OpenPostgres(cfg.PG)
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		l.Info("db_open_ok")
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
	} else {
		l.Info("db_disabled")
	}

	rc := utils.OpenRedis(cfg.Redis)
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	// 背景：栅格与灰度表是查询的唯一依据，任一缺失时拒绝启动
	src := revgeo.Source{RasterPath: cfg.Data.Raster, CSVPath: cfg.Data.CSV}
	if cfg.Data.Source == "db" {
		src.Rows = st
	}
	l.Debug("config_data", "raster", src.RasterPath, "csv", src.CSVPath, "source", cfg.Data.Source)
	snap, err := revgeo.LoadSnapshot(ctx, src)
	if err != nil {
		l.Error("snapshot_load_error", "err", err)
		os.Exit(1)
	}
	metrics.DirectoryCountries.Set(float64(snap.Directory.Len()))

	nm := names.New()
	// 每个快照配独立的像素缓存，重载后旧结果随旧 Locator 一起丢弃
	newLocator := func(snap *revgeo.Snapshot) *revgeo.Locator {
		opts := []revgeo.Option{revgeo.WithMaxRadius(cfg.Search.MaxRadius), revgeo.WithNamer(nm)}
		if cfg.Search.CacheSize > 0 {
			opts = append(opts, revgeo.WithCache(revgeo.NewLRU(cfg.Search.CacheSize, cfg.Search.CacheTTLS)))
		}
		return revgeo.NewLocator(snap, opts...)
	}
	loc := newLocator(snap)
	l.Info("locator_ready", "countries", snap.Directory.Len(), "max_radius", loc.MaxRadius(), "cache", cfg.Search.CacheSize)

	svc := &api.Service{Loc: loc, Names: nm, Redis: rc, CacheTTL: time.Duration(cfg.Redis.TTLS) * time.Second, AdminToken: cfg.AdminToken}
	svc.Reload = func(ctx context.Context) (*revgeo.Locator, error) {
		snap, err := revgeo.LoadSnapshot(ctx, src)
		if err != nil {
			return nil, err
		}
		return newLocator(snap), nil
	}
	// 接口字段仅在依赖就绪时赋值，避免包装 nil 指针
	if st != nil {
		svc.Store = st
	}
	if cfg.GeoIP.Path != "" {
		if gr, err := geoip.Open(cfg.GeoIP.Path); err == nil {
			defer gr.Close()
			svc.GeoIP = gr
			l.Info("geoip_ready", "path", cfg.GeoIP.Path)
		} else {
			l.Error("geoip_open_error", "err", err)
		}
	} else {
		l.Info("geoip_disabled")
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(svc)
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.RateLimit(cfg.RateLimit, cfg.APIBase+"/health", cfg.APIBase+"/metrics")(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	l.Info("listening", "addr", cfg.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
}
