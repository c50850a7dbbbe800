package geoip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
}

func TestOpenCorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.mmdb")
	require.NoError(t, os.WriteFile(p, []byte("not a maxmind database"), 0o644))
	_, err := Open(p)
	assert.Error(t, err)
}

// 设置 C2C_TEST_GEOIP_DB 指向 GeoLite2-City.mmdb 时运行
func TestLookupWithDatabase(t *testing.T) {
	p := os.Getenv("C2C_TEST_GEOIP_DB")
	if p == "" {
		t.Skip("C2C_TEST_GEOIP_DB not set")
	}
	r, err := Open(p)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Lookup("not-an-ip")
	assert.ErrorIs(t, err, ErrBadIP)

	_, err = r.Lookup("127.0.0.1")
	assert.ErrorIs(t, err, ErrUnknown)

	pt, err := r.Lookup("81.2.69.142")
	require.NoError(t, err)
	assert.NotZero(t, pt.Lat)
}
