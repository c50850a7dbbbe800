package revgeo

import (
	"context"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"coord2country/internal/logger"

	"github.com/rotisserie/eris"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRasterFile = "countries-8bitgray.png"
	DefaultCSVFile    = "countries.csv"
)

// RowSource 提供灰度表行（如数据库表），替代 CSV 文件
type RowSource interface {
	CountryRows(ctx context.Context) ([]CountryRecord, error)
}

// 文档注释：快照数据来源
// 背景：栅格固定来自图像文件；灰度表优先使用 Rows（数据库），否则读取 CSVPath。
// 约束：Projection 为零值时使用 DefaultProjection；栅格尺寸必须与投影参数一致。
type Source struct {
	RasterPath string
	CSVPath    string
	Rows       RowSource
	Projection Projection
}

// DirSource 按约定文件名从数据目录构造来源
func DirSource(dir string) Source {
	return Source{
		RasterPath: filepath.Join(dir, DefaultRasterFile),
		CSVPath:    filepath.Join(dir, DefaultCSVFile),
	}
}

// 文档注释：加载栅格与灰度表快照
// 背景：两类资源互不依赖，使用 errgroup 并发读取；任一失败即整体失败，服务不得以残缺数据启动。
// 返回：只读快照；错误均已附带资源路径上下文。
func LoadSnapshot(ctx context.Context, src Source) (*Snapshot, error) {
	proj := src.Projection
	if proj == (Projection{}) {
		proj = DefaultProjection
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}
	var raster *Raster
	var records []CountryRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := LoadRaster(src.RasterPath)
		if err != nil {
			return err
		}
		raster = r
		return nil
	})
	g.Go(func() error {
		var err error
		if src.Rows != nil {
			records, err = src.Rows.CountryRows(gctx)
			return eris.Wrap(err, "load country rows")
		}
		records, err = LoadDirectoryCSV(src.CSVPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if raster.Width() != proj.Width || raster.Height() != proj.Height {
		return nil, eris.Wrapf(ErrRasterSize, "raster %dx%d, projection %dx%d", raster.Width(), raster.Height(), proj.Width, proj.Height)
	}
	dir, err := NewDirectory(records)
	if err != nil {
		return nil, eris.Wrap(err, "build directory")
	}
	logger.L().Debug("snapshot_loaded", "width", raster.Width(), "height", raster.Height(), "countries", dir.Len())
	return &Snapshot{Raster: raster, Directory: dir, Projection: proj, BuiltAt: time.Now()}, nil
}

// LoadRaster 解码 PNG/BMP/TIFF 图像为灰度栅格
func LoadRaster(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open raster %s", path)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "decode raster %s", path)
	}
	r, err := RasterFromImage(img)
	if err != nil {
		return nil, eris.Wrapf(err, "raster %s", path)
	}
	logger.L().Debug("raster_decoded", "path", path, "format", format, "width", r.Width(), "height", r.Height())
	return r, nil
}

func LoadDirectoryCSV(path string) ([]CountryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open countries csv %s", path)
	}
	defer f.Close()
	recs, err := ParseDirectoryCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return recs, nil
}
