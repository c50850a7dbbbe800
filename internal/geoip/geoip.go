// 包 geoip：IP 到经纬度的桥接（MaxMind City 库），供 /country/ip 复用栅格判定
package geoip

import (
	"errors"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/rotisserie/eris"
)

var (
	ErrBadIP   = errors.New("geoip: invalid ip")
	ErrUnknown = errors.New("geoip: no coordinates for ip")
)

// Point：GeoIP 库给出的位置；CountryCode 为 MaxMind 自带的注册国家，仅用于日志对照
type Point struct {
	Lat         float64
	Lon         float64
	CountryCode string
}

// 文档注释：MaxMind City 库读取器
// 背景：库文件以 mmap 方式只读打开，可被多个请求并发查询。
// 约束：仅使用 Location 经纬度；精度半径不参与判定。
type Reader struct {
	db *geoip2.Reader
}

func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open geoip db %s", path)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

func (r *Reader) Lookup(ip string) (Point, error) {
	p := net.ParseIP(strings.TrimSpace(ip))
	if p == nil {
		return Point{}, ErrBadIP
	}
	rec, err := r.db.City(p)
	if err != nil {
		return Point{}, eris.Wrapf(err, "geoip lookup %s", ip)
	}
	// 未收录的地址返回零值坐标
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return Point{}, ErrUnknown
	}
	return Point{Lat: rec.Location.Latitude, Lon: rec.Location.Longitude, CountryCode: rec.Country.IsoCode}, nil
}
