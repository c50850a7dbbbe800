package api

import (
	"net/http"
	"strings"
)

// 文档注释：获取访问者 IP（用于去重统计与 /country/ip 的缺省目标）
// 背景：多层代理环境下，优先常见反向代理头，最后回退远端地址。
// 约束：当头部存在伪造风险时需结合可信代理白名单处理；此处仅用于统计与缺省查询目标，不做鉴权。
func getVisitorIP(r *http.Request) string {
	h := r.Header
	for _, k := range []string{"x-forwarded-for", "cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(strings.Split(x, ",")[0])
		}
	}
	if x := h.Get("forwarded"); x != "" {
		i := strings.Index(strings.ToLower(x), "for=")
		if i >= 0 {
			y := x[i+4:]
			if p := strings.IndexByte(y, ';'); p >= 0 {
				y = y[:p]
			}
			if p := strings.IndexByte(y, ','); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\" ")
		}
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		return strings.Trim(host[:i], "[]")
	}
	return host
}
