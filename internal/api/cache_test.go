package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coord2country/internal/revgeo"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

// lat=0 lon=-90 投影到像素 (2,2)
func TestCountryRedisCacheByGeneration(t *testing.T) {
	mr, rc := newRedis(t)
	s := &Service{Loc: newLocator(t, true), Redis: rc, CacheTTL: time.Minute}
	ctx := context.Background()

	res, err := s.Country(ctx, 0, -90, "")
	require.NoError(t, err)
	assert.Equal(t, "FR", res.Code)
	key0 := cacheKey(0, revgeo.Pixel{X: 2, Y: 2}, "")
	assert.True(t, mr.Exists(key0))
	assert.Equal(t, time.Minute, mr.TTL(key0))

	// 命中时直接返回缓存内容
	b, _ := json.Marshal(cachedCountry{Code: "ES", ID: "Q29"})
	require.NoError(t, mr.Set(key0, string(b)))
	res, err = s.Country(ctx, 0, -90, "")
	require.NoError(t, err)
	assert.Equal(t, "ES", res.Code)

	// 重载后旧代数的键不再命中
	s.SetLocator(newLocator(t, true))
	res, err = s.Country(ctx, 0, -90, "")
	require.NoError(t, err)
	assert.Equal(t, "FR", res.Code)
	assert.True(t, mr.Exists(cacheKey(1, revgeo.Pixel{X: 2, Y: 2}, "")))
}

func TestSetLocatorPairsLocatorWithGeneration(t *testing.T) {
	s := &Service{Loc: newLocator(t, false)}
	cur := s.current()
	assert.Same(t, s.Loc, cur.loc)
	assert.Equal(t, int64(0), cur.gen)

	next := newLocator(t, true)
	s.SetLocator(next)
	s.SetLocator(next)
	cur = s.current()
	assert.Same(t, next, cur.loc)
	assert.Equal(t, int64(2), cur.gen)
	// 请求开始时取到的快照在重载后保持不变
	held := s.current()
	s.SetLocator(newLocator(t, false))
	assert.Same(t, next, held.loc)
	assert.Equal(t, int64(2), held.gen)
}

func TestVisitorsDedupedWithRedis(t *testing.T) {
	_, rc := newRedis(t)
	st := &fakeStats{}
	h := BuildRoutes(&Service{Loc: newLocator(t, true), Store: st, Redis: rc})

	for _, ip := range []string{"203.0.113.5", "203.0.113.5", "198.51.100.9"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/country?lat=0&lon=-90", nil)
		req.Header.Set("x-forwarded-for", ip)
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, st.incr["FR"])
	assert.Equal(t, 2, st.visitors)
}
