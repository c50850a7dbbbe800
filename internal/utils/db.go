package utils

import (
	"database/sql"
	"net/url"

	"coord2country/internal/config"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
)

// BuildPostgresDSN 由配置拼装 postgres:// 连接串，用户名与密码做 URL 转义
func BuildPostgresDSN(c config.PGConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DB,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// OpenPostgres 打开连接池并按配置设置连接数上限；不主动 Ping，由调用方决定健康检查时机
func OpenPostgres(c config.PGConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSN(c))
	if err != nil {
		return nil, eris.Wrap(err, "open postgres")
	}
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	return db, nil
}
