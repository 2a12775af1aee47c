package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/nft-bank-marketplace/internal/config"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
)

const secret = "mw-secret"

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func whoami(c echo.Context) error {
	id, ok := UserID(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": c.Get("role"), "username": c.Get("username")})
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	good := sign(t, secret, jwt.MapClaims{
		"sub": 42, "role": "USER", "username": "alice",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	expired := sign(t, secret, jwt.MapClaims{"sub": 42, "exp": time.Now().Add(-time.Minute).Unix()})
	forged := sign(t, "other", jwt.MapClaims{"sub": 42, "exp": time.Now().Add(time.Minute).Unix()})

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + forged, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusOK {
				assert.JSONEq(t, `{"id":42,"role":"USER","username":"alice"}`, rec.Body.String())
			}
		})
	}
}

func TestParseAccessTokenRejectsNoneAlg(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken(secret, tok)
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("REGULATOR")(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	for role, code := range map[any]int{
		"REGULATOR": http.StatusNoContent,
		"USER":      http.StatusForbidden,
		nil:         http.StatusForbidden,
	} {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		if role != nil {
			c.Set("role", role)
		}
		require.NoError(t, h(c))
		assert.Equal(t, code, c.Response().Status, "role %v", role)
	}
}

func TestUserID(t *testing.T) {
	for _, v := range []any{uint64(9), 9, int64(9), float64(9), "9"} {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("user_id", v)
		id, ok := UserID(c)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, uint64(9), id)
	}
	for _, v := range []any{nil, 0, float64(-1), "abc", true} {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("user_id", v)
		_, ok := UserID(c)
		assert.False(t, ok, "%v", v)
		assert.Equal(t, "anon", userKey(c))
	}
}

func TestBuildRateKey(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/api/nft/buy", nil), httptest.NewRecorder())
	c.SetPath("/api/nft/buy")
	c.Request().RemoteAddr = "10.0.0.1:5555"
	c.Set("user_id", float64(3))

	cfg := config.RateLimitConfig{Prefix: "rl"}
	for strategy, want := range map[string]string{
		"ip":         "rl:ip:10.0.0.1",
		"user":       "rl:user:3",
		"route":      "rl:route:POST /api/nft/buy",
		"ip_route":   "rl:ip:10.0.0.1:route:POST /api/nft/buy",
		"user_route": "rl:user:3:route:POST /api/nft/buy",
		"":           "rl:ip:10.0.0.1:user:3:route:POST /api/nft/buy",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]interface{}{int64(0), int64(0), int64(750)})
	require.True(t, ok)
	assert.False(t, res.allowed)
	assert.Equal(t, int64(750), res.retryMs)

	res, ok = parseBucketResult([]interface{}{int64(1), "4", int64(0)})
	require.True(t, ok)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(4), res.remaining)

	_, ok = parseBucketResult("nope")
	assert.False(t, ok)
	_, ok = parseBucketResult([]interface{}{int64(1)})
	assert.False(t, ok)
}

func TestMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestCacheKeyStrategies(t *testing.T) {
	ctx := func(target string) echo.Context {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/nft/marketplace/v2")
		return c
	}
	cfg := config.CacheConfig{Prefix: "nftcache", KeyStrategy: "route_query"}
	a := cacheKey(cfg, ctx("/api/nft/marketplace/v2?page=1"))
	b := cacheKey(cfg, ctx("/api/nft/marketplace/v2?page=2"))
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^nftcache:[0-9a-f]{40}$`, a)

	cfg.KeyStrategy = "route"
	assert.Equal(t, cacheKey(cfg, ctx("/api/nft/marketplace/v2?page=1")), cacheKey(cfg, ctx("/api/nft/marketplace/v2?page=2")))
}

func TestDecodeEntryRejectsTruncated(t *testing.T) {
	entry, err := encodeEntry(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"items":[]}`))
	require.NoError(t, err)

	status, hdr, body, ok := decodeEntry(entry)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, `{"items":[]}`, string(body))

	_, _, _, ok = decodeEntry(entry[:10])
	assert.False(t, ok)
	_, _, _, ok = decodeEntry([]byte{1, 2})
	assert.False(t, ok)
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })

	for _, p := range []string{"/ok", "/missing", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/missing", entries[1].ContextMap()["path"])
}
