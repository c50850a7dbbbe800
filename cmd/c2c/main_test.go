package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"coord2country/internal/revgeo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeArgs(t *testing.T) {
	cases := []struct {
		in, want []string
	}{
		{[]string{"code", "48.85", "2.35"}, []string{"code", "48.85", "2.35"}},
		{[]string{"code", "-33.9", "18.4"}, []string{"code", "--", "-33.9", "18.4"}},
		{[]string{"name", "-33.9", "-70.6", "--lang", "es"}, []string{"name", "--lang", "es", "--", "-33.9", "-70.6"}},
		{[]string{"--data-dir", "/tmp/x", "id", "10", "-20"}, []string{"id", "--data-dir", "/tmp/x", "--", "10", "-20"}},
		{[]string{"code", "--", "-1", "-2"}, []string{"code", "--", "-1", "-2"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizeArgs(c.in), "%v", c.in)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(normalizeArgs(args))
	err := rootCmd.Execute()
	return out.String(), err
}

// writeDataDir 写出默认尺寸栅格：巴黎像素 (954,228) 为法国，开普敦像素 (1061,781) 为南非
func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := revgeo.DefaultProjection
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	img.SetGray(954, 228, color.Gray{Y: 10})
	img.SetGray(1061, 781, color.Gray{Y: 30})
	f, err := os.Create(filepath.Join(dir, revgeo.DefaultRasterFile))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	csv := "grayshade,code,qid\n10,FR,Q142\n30,ZA,Q258\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, revgeo.DefaultCSVFile), []byte(csv), 0o644))
	return dir
}

func TestProjectCommand(t *testing.T) {
	out, err := run(t, "project", "48.85", "2.35")
	require.NoError(t, err)
	assert.Equal(t, "954 228\n", out)

	out, err = run(t, "project", "-80", "0")
	require.NoError(t, err)
	assert.Equal(t, "out of range\n", out)
}

func TestLookupCommands(t *testing.T) {
	dir := writeDataDir(t)

	out, err := run(t, "code", "48.85", "2.35", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "FR\n", out)

	out, err = run(t, "id", "-33.9", "18.4", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Q258\n", out)

	out, err = run(t, "name", "48.85", "2.35", "--data-dir", dir, "--lang", "de")
	require.NoError(t, err)
	assert.Equal(t, "Frankreich\n", out)

	out, err = run(t, "code", "-80", "0", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "\n", out)

	out, err = run(t, "countries", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "10\tFR\tQ142\n30\tZA\tQ258\n", out)
}

func TestLookupMissingData(t *testing.T) {
	_, err := run(t, "code", "48.85", "2.35", "--data-dir", t.TempDir())
	assert.Error(t, err)
}
