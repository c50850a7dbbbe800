package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coord2country/internal/geoip"
	"coord2country/internal/logger"
	"coord2country/internal/metrics"
	"coord2country/internal/names"
	"coord2country/internal/revgeo"
	"coord2country/internal/store"
)

type countryEntry struct {
	Grayshade uint8  `json:"grayshade"`
	Code      string `json:"code"`
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
}

type statsResult struct {
	Total    int64               `json:"total"`
	Today    int64               `json:"today"`
	Visitors int64               `json:"visitors"`
	Top      []store.CountryHits `json:"top"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// observe 记录端点请求数与耗时
func observe(endpoint string, start time.Time) {
	metrics.RequestsTotal.WithLabelValues(endpoint).Inc()
	metrics.RequestDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

func parseCoord(q string, min, max float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(q), 64)
	if err != nil || v != v || v < min || v > max {
		return 0, false
	}
	return v, true
}

// writeQueryErr 将查询错误映射为状态码
func writeQueryErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, revgeo.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	case errors.Is(err, names.ErrBadLanguage):
		metrics.ResultsTotal.WithLabelValues("bad_request").Inc()
		writeErr(w, http.StatusBadRequest, "bad_lang")
	case errors.Is(err, geoip.ErrBadIP):
		metrics.ResultsTotal.WithLabelValues("bad_request").Inc()
		writeErr(w, http.StatusBadRequest, "bad_ip")
	case errors.Is(err, geoip.ErrUnknown):
		writeErr(w, http.StatusNotFound, "ip_unknown")
	default:
		logger.L().Error("country_query_error", "err", err)
		writeErr(w, http.StatusInternalServerError, "internal")
	}
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(s *Service) *http.ServeMux {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/country", func(w http.ResponseWriter, r *http.Request) {
		defer observe("country", time.Now())
		q := r.URL.Query()
		lat, ok1 := parseCoord(q.Get("lat"), -90, 90)
		lon, ok2 := parseCoord(q.Get("lon"), -180, 180)
		if !ok1 || !ok2 {
			metrics.ResultsTotal.WithLabelValues("bad_request").Inc()
			writeErr(w, http.StatusBadRequest, "bad_coordinates")
			return
		}
		res, err := s.Country(r.Context(), lat, lon, q.Get("lang"))
		if err != nil {
			writeQueryErr(w, err)
			return
		}
		s.recordStats(r.Context(), res.Code, getVisitorIP(r))
		writeJSON(w, http.StatusOK, res)
	})

	apiMux.HandleFunc("/country/ip", func(w http.ResponseWriter, r *http.Request) {
		defer observe("country_ip", time.Now())
		if s.GeoIP == nil {
			writeErr(w, http.StatusServiceUnavailable, "geoip_disabled")
			return
		}
		q := r.URL.Query()
		visitor := getVisitorIP(r)
		ip := q.Get("ip")
		if ip == "" {
			ip = visitor
		}
		res, err := s.CountryByIP(r.Context(), ip, q.Get("lang"))
		if err != nil {
			writeQueryErr(w, err)
			return
		}
		s.recordStats(r.Context(), res.Code, visitor)
		writeJSON(w, http.StatusOK, res)
	})

	apiMux.HandleFunc("/countries", func(w http.ResponseWriter, r *http.Request) {
		defer observe("countries", time.Now())
		lang := r.URL.Query().Get("lang")
		recs := s.locator().Directory().Records()
		out := make([]countryEntry, 0, len(recs))
		for _, rec := range recs {
			e := countryEntry{Grayshade: rec.Grayshade, Code: rec.Code, ID: rec.ID}
			if s.Names != nil && lang != "" {
				n, err := s.Names.Name(rec.Code, lang)
				if err != nil {
					writeQueryErr(w, err)
					return
				}
				e.Name = n
			}
			out = append(out, e)
		}
		writeJSON(w, http.StatusOK, out)
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		defer observe("stats", time.Now())
		if s.Store == nil {
			writeJSON(w, http.StatusOK, statsResult{Top: []store.CountryHits{}})
			return
		}
		t, err := s.Store.GetTotals(r.Context())
		if err != nil {
			logger.L().Error("stats_totals_error", "err", err)
			writeErr(w, http.StatusInternalServerError, "internal")
			return
		}
		n := 10
		if v, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && v > 0 && v <= 250 {
			n = v
		}
		top, err := s.Store.TopCountries(r.Context(), n)
		if err != nil {
			logger.L().Error("stats_top_error", "err", err)
			writeErr(w, http.StatusInternalServerError, "internal")
			return
		}
		if top == nil {
			top = []store.CountryHits{}
		}
		writeJSON(w, http.StatusOK, statsResult{Total: t.Total, Today: t.Today, Visitors: t.Visitors, Top: top})
	})

	apiMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		loc := s.locator()
		p := loc.Projection()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"countries":  loc.Directory().Len(),
			"width":      p.Width,
			"height":     p.Height,
			"max_radius": loc.MaxRadius(),
		})
	})

	// 文档注释：重新加载栅格与灰度表
	// 背景：数据文件或数据库灰度表更新后无需重启；加载失败时保留旧快照继续服务。
	// 约束：需携带 x-admin-token 且与 ADMIN_TOKEN 一致；未配置令牌时一律拒绝。
	apiMux.HandleFunc("/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		t := r.Header.Get("x-admin-token")
		if t == "" || s.AdminToken == "" || t != s.AdminToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if s.Reload == nil {
			writeErr(w, http.StatusServiceUnavailable, "reload_disabled")
			return
		}
		loc, err := s.Reload(r.Context())
		if err != nil {
			logger.L().Error("snapshot_reload_error", "err", err)
			writeErr(w, http.StatusInternalServerError, "reload_failed")
			return
		}
		s.SetLocator(loc)
		metrics.DirectoryCountries.Set(float64(loc.Directory().Len()))
		logger.L().Info("snapshot_reloaded", "countries", loc.Directory().Len())
		w.WriteHeader(http.StatusNoContent)
	})

	return apiMux
}
