package revgeo

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var smallProjection = Projection{Width: 8, Height: 4, GreenwichX: 4, EquatorY: 2, MinLatitude: -60, MaxLatitude: 60}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeFixtures(t *testing.T, w, h int, csv string) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(4, 2, color.Gray{Y: shadeFR})
	img.SetGray(1, 1, color.Gray{Y: shadeDE})
	writePNG(t, filepath.Join(dir, DefaultRasterFile), img)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultCSVFile), []byte(csv), 0o644))
	return dir
}

const fixtureCSV = "grayshade,code,qid\n10,FR,Q142\n20,DE,Q183\n"

type staticRows []CountryRecord

func (s staticRows) CountryRows(ctx context.Context) ([]CountryRecord, error) { return s, nil }

type failingRows struct{}

func (failingRows) CountryRows(ctx context.Context) ([]CountryRecord, error) {
	return nil, errors.New("db down")
}

func TestLoadSnapshotFromDir(t *testing.T) {
	dir := writeFixtures(t, 8, 4, fixtureCSV)
	src := DirSource(dir)
	src.Projection = smallProjection
	snap, err := LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Directory.Len())
	assert.Equal(t, 8, snap.Raster.Width())
	assert.False(t, snap.BuiltAt.IsZero())

	s, ok := snap.Raster.Shade(4, 2)
	require.True(t, ok)
	assert.Equal(t, uint8(shadeFR), s)

	code, err := NewLocator(snap).CountryCode(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "FR", code)
}

func TestLoadSnapshotRowsOverrideCSV(t *testing.T) {
	dir := writeFixtures(t, 8, 4, "not,a,valid\nrow,x,y\n")
	src := DirSource(dir)
	src.Projection = smallProjection
	src.Rows = staticRows{{Grayshade: shadeFR, Code: "FR", ID: "Q142"}}
	snap, err := LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Directory.Len())

	src.Rows = failingRows{}
	_, err = LoadSnapshot(context.Background(), src)
	assert.Error(t, err)
}

func TestLoadSnapshotFailures(t *testing.T) {
	ctx := context.Background()

	// 栅格尺寸与投影不一致
	dir := writeFixtures(t, 8, 4, fixtureCSV)
	_, err := LoadSnapshot(ctx, DirSource(dir))
	assert.Error(t, err)

	// 灰度重复
	dir = writeFixtures(t, 8, 4, "grayshade,code,qid\n10,FR,Q142\n10,DE,Q183\n")
	src := DirSource(dir)
	src.Projection = smallProjection
	_, err = LoadSnapshot(ctx, src)
	assert.Error(t, err)

	// 文件缺失
	src = DirSource(t.TempDir())
	src.Projection = smallProjection
	_, err = LoadSnapshot(ctx, src)
	assert.Error(t, err)

	// 非图像文件
	dir = writeFixtures(t, 8, 4, fixtureCSV)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultRasterFile), []byte("plain text"), 0o644))
	src = DirSource(dir)
	src.Projection = smallProjection
	_, err = LoadSnapshot(ctx, src)
	assert.Error(t, err)
}

func TestRasterFromPalettedImage(t *testing.T) {
	pal := color.Palette{color.Gray{Y: 0}, color.Gray{Y: shadeFR}, color.Gray{Y: shadeDE}}
	img := image.NewPaletted(image.Rect(10, 10, 13, 12), pal)
	img.SetColorIndex(11, 10, 1)
	img.SetColorIndex(12, 11, 2)
	r, err := RasterFromImage(img)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 2, r.Height())
	s, _ := r.Shade(1, 0)
	assert.Equal(t, uint8(shadeFR), s)
	s, _ = r.Shade(2, 1)
	assert.Equal(t, uint8(shadeDE), s)
	s, _ = r.Shade(0, 0)
	assert.Equal(t, uint8(0), s)
}

func TestRasterFromGraySubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 6, 6))
	img.SetGray(3, 4, color.Gray{Y: 42})
	sub := img.SubImage(image.Rect(2, 2, 5, 5)).(*image.Gray)
	r, err := RasterFromImage(sub)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Width())
	s, ok := r.Shade(1, 2)
	require.True(t, ok)
	assert.Equal(t, uint8(42), s)
}
