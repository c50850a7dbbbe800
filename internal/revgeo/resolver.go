package revgeo

import (
	"math"
)

// 文档注释：最近国家判定（同心方环多数投票）
// 背景：海岸线、抗锯齿边界与海上像素不在灰度表中；以中心像素为起点按切比雪夫距离 r=1,2,... 逐环扩展，
// 取首个出现已分类像素的环上出现次数最多的国家。
// 约束：搜索半径有上限（默认栅格对角线长度），超过后返回 ErrNotFound；票数相同时取字典序最小的代码。
type Resolver struct {
	cls       *Classifier
	w, h      int
	maxRadius int
}

// DefaultMaxRadius 返回栅格对角线长度（向上取整），任何栅格内像素在该半径内都可被覆盖
func DefaultMaxRadius(r *Raster) int {
	return int(math.Ceil(math.Hypot(float64(r.Width()), float64(r.Height()))))
}

// maxRadius <= 0 时使用 DefaultMaxRadius
func NewResolver(r *Raster, d *Directory, maxRadius int) *Resolver {
	if maxRadius <= 0 {
		maxRadius = DefaultMaxRadius(r)
	}
	return &Resolver{cls: NewClassifier(r, d), w: r.Width(), h: r.Height(), maxRadius: maxRadius}
}

func (s *Resolver) MaxRadius() int { return s.maxRadius }

func (s *Resolver) Resolve(x, y int) (Match, error) {
	center := Pixel{X: x, Y: y}
	if rec, ok := s.cls.ClassifyPixel(x, y); ok {
		return Match{Record: rec, Pixel: center, Radius: 0}, nil
	}
	for r := 1; r <= s.maxRadius; r++ {
		// 整环落在栅格之外时，后续更大的环同样全部越界
		if x-r < 0 && y-r < 0 && x+r >= s.w && y+r >= s.h {
			break
		}
		if rec, ok := s.vote(x, y, r); ok {
			return Match{Record: rec, Pixel: center, Radius: r}, nil
		}
	}
	return Match{}, ErrNotFound
}

// vote 统计半径 r 环上各国家出现次数并返回票数最高者
func (s *Resolver) vote(x, y, r int) (CountryRecord, bool) {
	tally := map[string]int{}
	recs := map[string]CountryRecord{}
	add := func(px, py int) {
		if rec, ok := s.cls.ClassifyPixel(px, py); ok {
			tally[rec.Code]++
			if _, seen := recs[rec.Code]; !seen {
				recs[rec.Code] = rec
			}
		}
	}
	// 上下两行（含四角）
	for px := x - r; px <= x+r; px++ {
		add(px, y-r)
		add(px, y+r)
	}
	// 左右两列（不含四角）
	for py := y - r + 1; py <= y+r-1; py++ {
		add(x-r, py)
		add(x+r, py)
	}
	if len(tally) == 0 {
		return CountryRecord{}, false
	}
	best := ""
	bestN := 0
	for code, n := range tally {
		if n > bestN || (n == bestN && code < best) {
			best = code
			bestN = n
		}
	}
	return recs[best], true
}
