package api

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"coord2country/internal/geoip"
	"coord2country/internal/logger"
	"coord2country/internal/metrics"
	"coord2country/internal/revgeo"
	"coord2country/internal/store"

	"github.com/redis/go-redis/v9"
)

// CountryResult：对外返回结构；越界时 Code 为空
type CountryResult struct {
	IP     string  `json:"ip,omitempty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Code   string  `json:"code"`
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Radius int     `json:"radius"`
	Approx bool    `json:"approx"`
}

// StatsStore：统计存储（*store.Store 实现）
type StatsStore interface {
	IncrStats(ctx context.Context, code string, newVisitor bool) error
	GetTotals(ctx context.Context) (*store.Totals, error)
	TopCountries(ctx context.Context, n int) ([]store.CountryHits, error)
}

// GeoIP：IP 到坐标（*geoip.Reader 实现）
type GeoIP interface {
	Lookup(ip string) (geoip.Point, error)
}

// 文档注释：国家查询服务（HTTP 层与栅格判定之间的胶水）
// 背景：在 Locator 之外叠加 Redis 响应缓存、名称解析、统计与 GeoIP 桥接；各外部依赖均可为空。
// 约束：Redis 键以快照代数、像素与语言为粒度，同一像素的所有坐标共享缓存，重载后旧键自然失效。
type Service struct {
	Loc      *revgeo.Locator
	Names    revgeo.Namer
	Store    StatsStore
	Redis    *redis.Client
	GeoIP    GeoIP
	CacheTTL time.Duration
	// Reload 重新加载快照并构建新的 Locator；为空时重载端点不可用
	Reload     func(ctx context.Context) (*revgeo.Locator, error)
	AdminToken string

	live atomic.Pointer[liveSnapshot]
}

// liveSnapshot 将 Locator 与其 Redis 代数绑定，一次读取即得到一致的一对
type liveSnapshot struct {
	loc *revgeo.Locator
	gen int64
}

// current 返回当前生效的快照：重载过则取最新，否则为代数 0 的 Loc
func (s *Service) current() *liveSnapshot {
	if c := s.live.Load(); c != nil {
		return c
	}
	return &liveSnapshot{loc: s.Loc}
}

func (s *Service) locator() *revgeo.Locator { return s.current().loc }

// 文档注释：切换当前 Locator（写路径）
// 背景：原子替换，进行中的查询继续使用旧快照及旧代数；代数递增使 Redis 中的旧结果不再命中。
// 约束：l 不得为 nil；并发重载时代数严格递增。
func (s *Service) SetLocator(l *revgeo.Locator) {
	for {
		old := s.live.Load()
		next := &liveSnapshot{loc: l, gen: 1}
		if old != nil {
			next.gen = old.gen + 1
		}
		if s.live.CompareAndSwap(old, next) {
			return
		}
	}
}

type cachedCountry struct {
	Code   string `json:"code"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Radius int    `json:"radius"`
}

func cacheKey(gen int64, px revgeo.Pixel, lang string) string {
	return "c2c:px:" + strconv.FormatInt(gen, 10) + ":" + strconv.Itoa(px.X) + ":" + strconv.Itoa(px.Y) + ":" + lang
}

// 文档注释：按坐标查询国家
// 返回：越界时返回 Code 为空的结果且无错误；revgeo.ErrNotFound 表示搜索耗尽；名称服务的语言错误原样返回。
func (s *Service) Country(ctx context.Context, lat, lon float64, lang string) (*CountryResult, error) {
	out := &CountryResult{Lat: lat, Lon: lon}
	cur := s.current()
	loc := cur.loc
	px, err := loc.Projection().Project(lat, lon)
	if errors.Is(err, revgeo.ErrOutOfRange) {
		metrics.ResultsTotal.WithLabelValues("out_of_range").Inc()
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.X, out.Y = px.X, px.Y
	key := cacheKey(cur.gen, px, lang)
	if s.Redis != nil {
		if b, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
			var c cachedCountry
			if json.Unmarshal(b, &c) == nil {
				metrics.RedisHitsTotal.Inc()
				out.Code, out.ID, out.Name, out.Radius, out.Approx = c.Code, c.ID, c.Name, c.Radius, c.Radius > 0
				return out, nil
			}
		}
		metrics.RedisMissesTotal.Inc()
	}
	res, err := loc.Locate(lat, lon)
	if err != nil {
		if errors.Is(err, revgeo.ErrNotFound) {
			metrics.ResultsTotal.WithLabelValues("not_found").Inc()
			logger.L().Warn("country_search_exhausted", "lat", lat, "lon", lon, "x", px.X, "y", px.Y, "max_radius", loc.MaxRadius())
		}
		return nil, err
	}
	if res.Cached {
		metrics.PixelCacheHitsTotal.Inc()
	}
	if res.Approx {
		metrics.ResultsTotal.WithLabelValues("ring").Inc()
		metrics.SearchRadius.Observe(float64(res.Radius))
	} else {
		metrics.ResultsTotal.WithLabelValues("exact").Inc()
	}
	out.Code = res.Record.Code
	out.ID = res.Record.ID
	out.Radius = res.Radius
	out.Approx = res.Approx
	if s.Names != nil {
		name, err := s.Names.Name(out.Code, lang)
		if err != nil {
			return nil, err
		}
		out.Name = name
	}
	logger.L().Debug("country_query", "lat", lat, "lon", lon, "code", out.Code, "radius", out.Radius)
	if s.Redis != nil {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		b, _ := json.Marshal(cachedCountry{Code: out.Code, ID: out.ID, Name: out.Name, Radius: out.Radius})
		_ = s.Redis.Set(ctx, key, b, ttl).Err()
	}
	return out, nil
}

// 文档注释：按 IP 查询国家
// 背景：GeoIP 库给出近似坐标，再走栅格判定，保证与坐标查询同源同口径。
func (s *Service) CountryByIP(ctx context.Context, ip, lang string) (*CountryResult, error) {
	pt, err := s.GeoIP.Lookup(ip)
	if err != nil {
		metrics.GeoIPLookupsTotal.WithLabelValues("fail").Inc()
		return nil, err
	}
	metrics.GeoIPLookupsTotal.WithLabelValues("ok").Inc()
	out, err := s.Country(ctx, pt.Lat, pt.Lon, lang)
	if err != nil {
		return nil, err
	}
	out.IP = ip
	if pt.CountryCode != "" && out.Code != "" && pt.CountryCode != out.Code {
		logger.L().Debug("geoip_country_mismatch", "ip", ip, "geoip", pt.CountryCode, "raster", out.Code)
	}
	return out, nil
}

// recordStats 统计查询与当日独立访客；失败只记录日志
func (s *Service) recordStats(ctx context.Context, code, visitor string) {
	if s.Store == nil {
		return
	}
	newVisitor := false
	if visitor != "" {
		first, err := bloomCheckAndSet(ctx, s.Redis, visitorKey(time.Now()), bloomPositions([]byte(visitor), bloomBits, bloomHashes), 48*time.Hour)
		if err != nil {
			logger.L().Debug("visitor_bloom_error", "err", err)
		}
		newVisitor = first
	}
	if err := s.Store.IncrStats(ctx, code, newVisitor); err != nil {
		logger.L().Debug("stats_incr_error", "err", err)
	}
}
