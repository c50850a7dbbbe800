package revgeo

import (
	"fmt"
	"math"
)

// 文档注释：经纬度到栅格像素的投影参数
// 背景：世界栅格并非完整等距圆柱投影，仅覆盖 MinLatitude..MaxLatitude 的纬度带（不含南极洲）；
// 纵向按纬度带线性缩放，横向以格林尼治经线所在列为基准。
// 约束：参数与栅格文件绑定，更换栅格时需同步更新。
type Projection struct {
	Width       int
	Height      int
	GreenwichX  int
	EquatorY    int
	MinLatitude float64
	MaxLatitude float64
}

// 随 countries-8bitgray.png 发布的默认参数
var DefaultProjection = Projection{
	Width:       2400,
	Height:      949,
	GreenwichX:  939,
	EquatorY:    555,
	MinLatitude: -58.55,
	MaxLatitude: 83.64,
}

func (p Projection) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("revgeo: invalid projection size %dx%d", p.Width, p.Height)
	}
	if !(p.MaxLatitude > p.MinLatitude) {
		return fmt.Errorf("revgeo: invalid latitude band [%v, %v]", p.MinLatitude, p.MaxLatitude)
	}
	return nil
}

// InRange 判断坐标是否落在栅格覆盖范围内；NaN 视为越界
func (p Projection) InRange(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	if lon < -180 || lon > 180 {
		return false
	}
	return lat >= p.MinLatitude && lat <= p.MaxLatitude
}

// 文档注释：投影经纬度为像素坐标
// 背景：横向取模实现经度 ±180 的首尾相接，179.999 与 -179.999 映射到相邻列。
// 返回：越界时返回 ErrOutOfRange；极端纬度下 y 可能落在栅格外，由分类层按未命中处理。
func (p Projection) Project(lat, lon float64) (Pixel, error) {
	if !p.InRange(lat, lon) {
		return Pixel{}, ErrOutOfRange
	}
	col := int(math.Floor(float64(p.GreenwichX) + lon*float64(p.Width)/360))
	x := ((p.Width+col)%p.Width + p.Width) % p.Width
	y := int(math.Floor(float64(p.EquatorY) - lat*float64(p.Height)/(p.MaxLatitude-p.MinLatitude)))
	return Pixel{X: x, Y: y}, nil
}
