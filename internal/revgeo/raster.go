package revgeo

import (
	"fmt"
	"image"
	"image/color"
)

// 文档注释：只读灰度栅格
// 背景：按行主序保存每个像素的 8 位灰度；加载后不再修改，可被任意并发读取。
type Raster struct {
	w   int
	h   int
	pix []uint8
}

func NewRaster(width, height int, pix []uint8) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrRasterSize, width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrRasterSize, len(pix), width, height)
	}
	return &Raster{w: width, h: height, pix: pix}, nil
}

// 文档注释：由解码后的图像构建栅格
// 背景：8 位灰度 PNG 解码为 *image.Gray 时直接按行拷贝；调色板或彩色图像逐像素转换为灰度。
// 约束：图像原点可能不为 (0,0)，统一平移到左上角。
func RasterFromImage(img image.Image) (*Raster, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h)
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w:(y+1)*w], g.Pix[off:off+w])
		}
		return NewRaster(w, h, pix)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			pix[y*w+x] = c.Y
		}
	}
	return NewRaster(w, h, pix)
}

func (r *Raster) Width() int  { return r.w }
func (r *Raster) Height() int { return r.h }

// Shade 读取像素灰度，越界返回 false
func (r *Raster) Shade(x, y int) (uint8, bool) {
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return 0, false
	}
	return r.pix[y*r.w+x], true
}

// 文档注释：单像素分类器（栅格 + 灰度表）
// 背景：越界像素与灰度表中不存在的灰度（海洋、抗锯齿边界）均视为未分类，不作为错误上抛，
// 由 Resolver 触发邻域搜索。
type Classifier struct {
	raster *Raster
	dir    *Directory
}

func NewClassifier(r *Raster, d *Directory) *Classifier {
	return &Classifier{raster: r, dir: d}
}

func (c *Classifier) ClassifyPixel(x, y int) (CountryRecord, bool) {
	s, ok := c.raster.Shade(x, y)
	if !ok {
		return CountryRecord{}, false
	}
	return c.dir.Lookup(s)
}
