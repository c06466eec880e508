package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/hertz/pkg/app"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"BloodConnect/config"
	"BloodConnect/pkg/token"
	"BloodConnect/storage/redis"
)

func newEngine() *route.Engine {
	return route.NewEngine(hzconfig.NewOptions([]hzconfig.Option{}))
}

func ok(ctx context.Context, c *app.RequestContext) {
	c.String(http.StatusOK, "ok")
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redis.SetClient(client)
	return mr
}

func TestAuthMiddleware(t *testing.T) {
	config.Cfg.JWTSecret = "test-secret"
	config.Cfg.JWTExpireMinutes = 60
	config.Cfg.JWTRefreshDays = 7
	require.NoError(t, token.Init())
	require.NoError(t, Init())

	e := newEngine()
	e.GET("/admin", AuthMiddleware(), func(ctx context.Context, c *app.RequestContext) {
		sub, _ := GetAdminSubject(ctx, c)
		c.String(http.StatusOK, sub)
	})

	pair, err := token.GenerateTokenPair("admin")
	require.NoError(t, err)

	w := ut.PerformRequest(e, http.MethodGet, "/admin", nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + pair.AccessToken})
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, "admin", string(w.Result().Body()))

	w = ut.PerformRequest(e, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), `"code":"UNAUTHORIZED"`)

	w = ut.PerformRequest(e, http.MethodGet, "/admin", nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + pair.RefreshToken})
	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), `"code":"FORBIDDEN"`)
}

func TestRateLimitMiddleware(t *testing.T) {
	setupRedis(t)
	config.Cfg.RateLimitEnabled = true

	e := newEngine()
	e.POST("/emergency", RateLimitMiddleware(RateLimitConfig{
		Window:        60,
		MaxRequests:   2,
		KeyPrefix:     "rate:test",
		BlockDuration: 60,
		ErrorMessage:  "slow down",
	}), ok)

	for i := 0; i < 2; i++ {
		w := ut.PerformRequest(e, http.MethodPost, "/emergency", nil)
		require.Equal(t, http.StatusOK, w.Result().StatusCode())
	}

	w := ut.PerformRequest(e, http.MethodPost, "/emergency", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "slow down")
	assert.Equal(t, "0", string(w.Result().Header.Peek("X-RateLimit-Remaining")))

	// 封禁期间直接拒绝
	w = ut.PerformRequest(e, http.MethodPost, "/emergency", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Result().StatusCode())
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	mr := setupRedis(t)
	config.Cfg.RateLimitEnabled = true
	mr.Close()

	e := newEngine()
	e.POST("/emergency", EmergencyRateLimitMiddleware(), ok)

	w := ut.PerformRequest(e, http.MethodPost, "/emergency", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
}

func TestRecoverMiddleware(t *testing.T) {
	e := newEngine()
	e.Use(RecoverMiddlewareWithConfig(RecoverConfig{StackTraceLevel: "none", IsProduction: true}))
	e.GET("/panic", func(ctx context.Context, c *app.RequestContext) {
		panic("nil session")
	})

	w := ut.PerformRequest(e, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode())
	body := string(w.Result().Body())
	assert.Contains(t, body, `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, body, "nil session")
}

func TestCORSPreflight(t *testing.T) {
	e := newEngine()
	e.Use(CORSMiddleware())
	e.OPTIONS("/v1/donors", ok)

	w := ut.PerformRequest(e, http.MethodOptions, "/v1/donors", nil,
		ut.Header{Key: "Origin", Value: "https://nss.example"})
	assert.Equal(t, http.StatusNoContent, w.Result().StatusCode())
	assert.Equal(t, "https://nss.example", string(w.Result().Header.Peek("Access-Control-Allow-Origin")))
}

func TestIsSeverePanic(t *testing.T) {
	assert.True(t, isSeverePanic("runtime error: index out of range [3] with length 2"))
	assert.False(t, isSeverePanic("whatsapp gateway timeout"))
	assert.False(t, isSeverePanic(nil))
}

func TestOpenTelemetryMiddleware_RecordsRouteTemplate(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	require.NoError(t, InitMetrics(provider.Meter("test")))
	t.Cleanup(func() { serverMetrics = nil })

	e := newEngine()
	e.Use(OpenTelemetryMiddleware())
	e.GET("/v1/emergency-requests/:id/dispatch", ok)

	ut.PerformRequest(e, http.MethodGet, "/v1/emergency-requests/101/dispatch", nil)
	ut.PerformRequest(e, http.MethodGet, "/v1/emergency-requests/102/dispatch", nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	routes := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "http.server.requests.total" {
				continue
			}
			sum, isSum := md.Data.(metricdata.Sum[int64])
			require.True(t, isSum)
			for _, dp := range sum.DataPoints {
				total += dp.Value
				if v, found := dp.Attributes.Value("http.route"); found {
					routes[v.AsString()] = true
				}
			}
		}
	}
	assert.Equal(t, int64(2), total)
	assert.Equal(t, map[string]bool{"/v1/emergency-requests/:id/dispatch": true}, routes)
}
