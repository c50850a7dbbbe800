package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, "csv", c.Data.Source)
	assert.Equal(t, filepath.Join("data", "c2c", "countries-8bitgray.png"), c.Data.Raster)
	assert.Equal(t, filepath.Join("data", "c2c", "countries.csv"), c.Data.CSV)
	assert.Equal(t, 0, c.Search.MaxRadius)
	assert.Equal(t, 4096, c.Search.CacheSize)
	assert.False(t, c.Redis.Enabled)
	assert.Equal(t, 3600, c.Redis.TTLS)
	assert.Equal(t, float64(200), c.RateLimit.QPS)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DATA_DIR", "/srv/c2c")
	t.Setenv("SEARCH_MAX_RADIUS", "64")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PG_ENABLED", "true")
	t.Setenv("DATA_SOURCE", "DB")
	t.Setenv("RATE_LIMIT_QPS", "12.5")
	t.Setenv("ADMIN_TOKEN", "s3cret")

	c, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Addr)
	assert.Equal(t, filepath.Join("/srv/c2c", "countries.csv"), c.Data.CSV)
	assert.Equal(t, 64, c.Search.MaxRadius)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, 3, c.Redis.DB)
	assert.Equal(t, "db", c.Data.Source)
	assert.Equal(t, 12.5, c.RateLimit.QPS)
	assert.Equal(t, "s3cret", c.AdminToken)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/from/env")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("data-dir", "", "")
	fs.Int("max-radius", 0, "")
	require.NoError(t, fs.Parse([]string{"--data-dir", "/from/flag", "--max-radius", "9"}))

	c, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", c.Data.Dir)
	assert.Equal(t, 9, c.Search.MaxRadius)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DATA_SOURCE", "s3")
	_, err := Load(nil)
	assert.Error(t, err)

	t.Setenv("DATA_SOURCE", "db")
	_, err = Load(nil)
	assert.Error(t, err, "db source without postgres")

	t.Setenv("DATA_SOURCE", "csv")
	t.Setenv("SEARCH_MAX_RADIUS", "-1")
	_, err = Load(nil)
	assert.Error(t, err)
}
