// 包 config：集中读取服务与命令行工具的配置；.env 由入口通过 godotenv 预先加载到进程环境
package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Addr       string          `mapstructure:"addr"`
	APIBase    string          `mapstructure:"api_base"`
	AdminToken string          `mapstructure:"admin_token"`
	Data       DataConfig      `mapstructure:"data"`
	Search     SearchConfig    `mapstructure:"search"`
	GeoIP      GeoIPConfig     `mapstructure:"geoip"`
	Redis      RedisConfig     `mapstructure:"redis"`
	PG         PGConfig        `mapstructure:"pg"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

// DataConfig：栅格与灰度表位置；Source 为 csv 或 db
type DataConfig struct {
	Dir    string `mapstructure:"dir"`
	Raster string `mapstructure:"raster"`
	CSV    string `mapstructure:"csv"`
	Source string `mapstructure:"source"`
}

// SearchConfig：环搜索半径上限（0 表示栅格对角线）与像素缓存
type SearchConfig struct {
	MaxRadius int `mapstructure:"max_radius"`
	CacheSize int `mapstructure:"cache_size"`
	CacheTTLS int `mapstructure:"cache_ttl_s"`
}

type GeoIPConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	Pass    string `mapstructure:"pass"`
	DB      int    `mapstructure:"db"`
	TTLS    int    `mapstructure:"ttl_s"`
}

type PGConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DB           string `mapstructure:"db"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	QPS     float64 `mapstructure:"qps"`
	Burst   int     `mapstructure:"burst"`
}

var defaults = map[string]any{
	"addr":               ":8080",
	"api_base":           "/api",
	"admin_token":        "",
	"data.dir":           filepath.Join("data", "c2c"),
	"data.raster":        "",
	"data.csv":           "",
	"data.source":        "csv",
	"search.max_radius":  0,
	"search.cache_size":  4096,
	"search.cache_ttl_s": 0,
	"geoip.path":         "",
	"redis.enabled":      false,
	"redis.host":         "127.0.0.1",
	"redis.port":         "6379",
	"redis.pass":         "",
	"redis.db":           0,
	"redis.ttl_s":        3600,
	"pg.enabled":         false,
	"pg.host":            "localhost",
	"pg.port":            "5432",
	"pg.user":            "postgres",
	"pg.password":        "",
	"pg.db":              "c2c",
	"pg.sslmode":         "disable",
	"pg.max_open_conns":  20,
	"pg.max_idle_conns":  10,
	"rate_limit.enabled": false,
	"rate_limit.qps":     200,
	"rate_limit.burst":   400,
}

// 文档注释：加载配置
// 背景：键名以点分层，环境变量为大写下划线形式（data.dir → DATA_DIR，rate_limit.qps → RATE_LIMIT_QPS）；
// 命令行工具可传入 flags，--data-dir 与 --max-radius 优先于环境变量。
// 约束：data.source 仅接受 csv/db；未设置 raster/csv 路径时按约定文件名落在 data.dir 下。
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if f := flags.Lookup("data-dir"); f != nil {
			if err := v.BindPFlag("data.dir", f); err != nil {
				return nil, eris.Wrap(err, "bind data-dir")
			}
		}
		if f := flags.Lookup("max-radius"); f != nil {
			if err := v.BindPFlag("search.max_radius", f); err != nil {
				return nil, eris.Wrap(err, "bind max-radius")
			}
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "unmarshal config")
	}
	c.Data.Source = strings.ToLower(strings.TrimSpace(c.Data.Source))
	if c.Data.Source != "csv" && c.Data.Source != "db" {
		return nil, eris.Errorf("config: DATA_SOURCE must be csv or db, got %q", c.Data.Source)
	}
	if c.Data.Source == "db" && !c.PG.Enabled {
		return nil, eris.New("config: DATA_SOURCE=db requires PG_ENABLED=true")
	}
	if c.Data.Raster == "" {
		c.Data.Raster = filepath.Join(c.Data.Dir, "countries-8bitgray.png")
	}
	if c.Data.CSV == "" {
		c.Data.CSV = filepath.Join(c.Data.Dir, "countries.csv")
	}
	if c.Search.MaxRadius < 0 {
		return nil, eris.Errorf("config: SEARCH_MAX_RADIUS must be >= 0, got %d", c.Search.MaxRadius)
	}
	return &c, nil
}
