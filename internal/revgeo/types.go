package revgeo

import (
	"errors"
	"time"
)

// 文档注释：国家栅格反查的最小数据结构
// 背景：栅格中每个像素的灰度值对应一个国家；灰度表在启动时加载一次，之后只读共享。
// 约束：灰度取值 0..255；Code 为 ISO 3166-1 alpha-2；ID 为外部知识库标识（如 Wikidata QID）。
type CountryRecord struct {
	Grayshade uint8
	Code      string
	ID        string
}

// 像素坐标（栅格左上角为原点）
type Pixel struct {
	X int
	Y int
}

// Match：一次像素归属判定的结果；Radius 为 0 表示中心像素直接命中
type Match struct {
	Record CountryRecord
	Pixel  Pixel
	Radius int
}

// 加载结果快照：只读引用，供查询期共享
type Snapshot struct {
	Raster     *Raster
	Directory  *Directory
	Projection Projection
	BuiltAt    time.Time
}

var (
	// 坐标超出栅格覆盖范围（如南极洲），属于正常空结果
	ErrOutOfRange = errors.New("revgeo: coordinate out of range")
	// 邻域搜索达到半径上限仍未命中，通常意味着栅格或灰度表缺陷
	ErrNotFound = errors.New("revgeo: no country found within search radius")

	ErrDuplicateShade = errors.New("revgeo: duplicate grayshade")
	ErrRasterSize     = errors.New("revgeo: raster size mismatch")
	ErrNoNamer        = errors.New("revgeo: no country name service configured")
)
