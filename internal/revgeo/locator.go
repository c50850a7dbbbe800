package revgeo

import "errors"

// Namer 将国家代码解析为本地化名称
type Namer interface {
	Name(code, lang string) (string, error)
}

// 文档注释：查询编排器（投影 → 像素分类 → 环搜索兜底）
// 背景：以显式传递的只读快照替代进程级全局状态；可选像素缓存与名称服务。
// 约束：除缓存外无可变状态，可被多个请求并发调用。
type Locator struct {
	proj      Projection
	dir       *Directory
	res       *Resolver
	cache     *LRU
	namer     Namer
	maxRadius int
}

type Option func(*Locator)

func WithMaxRadius(r int) Option { return func(l *Locator) { l.maxRadius = r } }
func WithCache(c *LRU) Option    { return func(l *Locator) { l.cache = c } }
func WithNamer(n Namer) Option   { return func(l *Locator) { l.namer = n } }

func NewLocator(snap *Snapshot, opts ...Option) *Locator {
	l := &Locator{proj: snap.Projection, dir: snap.Directory}
	for _, o := range opts {
		o(l)
	}
	l.res = NewResolver(snap.Raster, snap.Directory, l.maxRadius)
	return l
}

// Result：Locate 的完整返回，Approx 表示结果来自环搜索而非中心像素
type Result struct {
	Record CountryRecord
	Pixel  Pixel
	Radius int
	Approx bool
	Cached bool
}

func (l *Locator) Projection() Projection { return l.proj }
func (l *Locator) Directory() *Directory   { return l.dir }
func (l *Locator) MaxRadius() int          { return l.res.MaxRadius() }

// 文档注释：按坐标查询国家
// 返回：ErrOutOfRange 表示超出栅格覆盖范围；ErrNotFound 表示半径上限内无任何已分类像素。
func (l *Locator) Locate(lat, lon float64) (Result, error) {
	px, err := l.proj.Project(lat, lon)
	if err != nil {
		return Result{}, err
	}
	if l.cache != nil {
		if m, ok := l.cache.Get(px); ok {
			return Result{Record: m.Record, Pixel: m.Pixel, Radius: m.Radius, Approx: m.Radius > 0, Cached: true}, nil
		}
	}
	m, err := l.res.Resolve(px.X, px.Y)
	if err != nil {
		return Result{Pixel: px}, err
	}
	if l.cache != nil {
		l.cache.Set(px, m)
	}
	return Result{Record: m.Record, Pixel: m.Pixel, Radius: m.Radius, Approx: m.Radius > 0}, nil
}

// CountryCode 返回 ISO 3166-1 alpha-2 代码；越界返回空串且无错误
func (l *Locator) CountryCode(lat, lon float64) (string, error) {
	res, err := l.Locate(lat, lon)
	if errors.Is(err, ErrOutOfRange) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return res.Record.Code, nil
}

// CountryID 返回国家的外部标识（经由代码反查目录）
func (l *Locator) CountryID(lat, lon float64) (string, error) {
	code, err := l.CountryCode(lat, lon)
	if err != nil || code == "" {
		return "", err
	}
	id, _ := l.dir.IDForCode(code)
	return id, nil
}

func (l *Locator) CountryName(lat, lon float64, lang string) (string, error) {
	if l.namer == nil {
		return "", ErrNoNamer
	}
	code, err := l.CountryCode(lat, lon)
	if err != nil || code == "" {
		return "", err
	}
	return l.namer.Name(code, lang)
}
