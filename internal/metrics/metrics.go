package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "c2c_requests_total",
		Help: "Total number of country lookups by endpoint",
	}, []string{"endpoint"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "c2c_request_duration_ms",
		Help:    "Country lookup duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100, 200},
	}, []string{"endpoint"})
	ResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "c2c_results_total",
		Help: "Lookup outcomes: exact, ring, out_of_range, not_found, bad_request",
	}, []string{"outcome"})
	SearchRadius = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "c2c_search_radius_pixels",
		Help:    "Ring search radius needed to classify unclassified pixels",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144},
	})
	PixelCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "c2c_pixel_cache_hits_total",
		Help: "Total in-process pixel cache hits",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "c2c_redis_hits_total",
		Help: "Total redis response cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "c2c_redis_misses_total",
		Help: "Total redis response cache misses",
	})
	GeoIPLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "c2c_geoip_lookups_total",
		Help: "GeoIP coordinate lookups by status",
	}, []string{"status"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "c2c_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
	DirectoryCountries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "c2c_directory_countries",
		Help: "Number of grayshade entries in the loaded country directory",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(ResultsTotal)
	prometheus.MustRegister(SearchRadius)
	prometheus.MustRegister(PixelCacheHitsTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(GeoIPLookupsTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(DirectoryCountries)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
