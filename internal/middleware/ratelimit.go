package middleware

import (
	"net/http"

	"coord2country/internal/config"
	"coord2country/internal/logger"
	"coord2country/internal/metrics"

	"golang.org/x/time/rate"
)

// 文档注释：令牌桶限流中间件
// 背景：环搜索在海上像素可能扫描较大半径，峰值时对入口限速，保护缓存与数据库；按配置开关与速率。
// 约束：全局单桶，不做队列排队，超限直接返回 429；/health 与 /metrics 不受限。
func RateLimit(c config.RateLimitConfig, exempt ...string) func(http.Handler) http.Handler {
	if !c.Enabled || c.QPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := c.Burst
	if burst <= 0 {
		burst = int(c.QPS)
		if burst < 1 {
			burst = 1
		}
	}
	lim := rate.NewLimiter(rate.Limit(c.QPS), burst)
	skip := map[string]bool{}
	for _, p := range exempt {
		skip[p] = true
	}
	logger.L().Info("rate_limit_enabled", "qps", c.QPS, "burst", burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !skip[r.URL.Path] && !lim.Allow() {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("retry-after", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
