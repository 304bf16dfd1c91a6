package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/config"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-at-least-16",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 168 * time.Hour,
	})
}

type stubChecker struct {
	revoked bool
	err     error
}

func (s *stubChecker) IsBlacklisted(_ context.Context, _ string) (bool, error) {
	return s.revoked, s.err
}

// run 执行中间件链，最后一个处理器回写 user_id
func run(mw []gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	r.GET("/test", handlers...)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth / OptionalAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	access, _ := mgr.GenerateAccessToken("user-1", "student")
	refresh, _ := mgr.GenerateRefreshToken("user-1", "student", false)

	tests := []struct {
		name    string
		header  string
		checker TokenChecker
		status  int
	}{
		{"缺少认证头", "", nil, http.StatusUnauthorized},
		{"格式错误", "Token " + access, nil, http.StatusUnauthorized},
		{"签名无效", "Bearer not-a-token", nil, http.StatusUnauthorized},
		{"refresh token 不可用于访问", "Bearer " + refresh, nil, http.StatusUnauthorized},
		{"已拉黑", "Bearer " + access, &stubChecker{revoked: true}, http.StatusUnauthorized},
		{"黑名单查询失败时放行", "Bearer " + access, &stubChecker{err: errors.New("redis down")}, http.StatusOK},
		{"有效", "Bearer " + access, nil, http.StatusOK},
	}
	for _, tt := range tests {
		w := run([]gin.HandlerFunc{JWTAuth(mgr, tt.checker)}, tt.header)
		if w.Code != tt.status {
			t.Errorf("%s: 期望 %d，实际 %d", tt.name, tt.status, w.Code)
		}
		if tt.status == http.StatusOK && w.Body.String() != "user-1" {
			t.Errorf("%s: user_id 应注入上下文，实际 %q", tt.name, w.Body.String())
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	mgr := newTestJWT()
	access, _ := mgr.GenerateAccessToken("user-1", "student")

	if w := run([]gin.HandlerFunc{OptionalAuth(mgr, nil)}, ""); w.Code != http.StatusOK || w.Body.String() != "" {
		t.Errorf("匿名请求应放行且无 user_id，实际 %d %q", w.Code, w.Body.String())
	}
	if w := run([]gin.HandlerFunc{OptionalAuth(mgr, nil)}, "Bearer " + access); w.Body.String() != "user-1" {
		t.Errorf("携带有效 token 时应识别用户，实际 %q", w.Body.String())
	}
	if w := run([]gin.HandlerFunc{OptionalAuth(mgr, nil)}, "Bearer broken"); w.Code != http.StatusUnauthorized {
		t.Errorf("携带无效 token 时应拒绝，实际 %d", w.Code)
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	admin, _ := mgr.GenerateAccessToken("admin-1", "admin")
	student, _ := mgr.GenerateAccessToken("user-1", "student")
	chain := []gin.HandlerFunc{JWTAuth(mgr, nil), RoleAuth("admin")}

	if w := run(chain, "Bearer "+admin); w.Code != http.StatusOK {
		t.Errorf("管理员应放行，实际 %d", w.Code)
	}
	if w := run(chain, "Bearer "+student); w.Code != http.StatusForbidden {
		t.Errorf("普通用户应返回 403，实际 %d", w.Code)
	}
	if w := run([]gin.HandlerFunc{RoleAuth("admin")}, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("未认证应返回 401，实际 %d", w.Code)
	}
}

// ── RateLimit ──

type failingLimiter struct{}

func (failingLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return false, errors.New("redis down")
}

func TestLocalLimiter_Burst(t *testing.T) {
	l := NewLocalLimiter(3, time.Minute)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "a"); !ok {
			t.Fatalf("第 %d 次请求应放行", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Error("超过突发上限应被拒绝")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Error("不同 key 应独立计数")
	}
}

func TestLocalLimiter_EvictsIdleKeys(t *testing.T) {
	now := time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
	l := newLocalLimiter(2, time.Minute, func() time.Time { return now })
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if ok, _ := l.Allow(ctx, "rate_limit:login:"+ip); !ok {
			t.Fatalf("%s 首次请求应放行", ip)
		}
	}
	if len(l.limiters) != 3 {
		t.Fatalf("期望 3 个 key，实际 %d", len(l.limiters))
	}

	// 30s 后只有 .1 再次出现
	now = now.Add(30 * time.Second)
	l.Allow(ctx, "rate_limit:login:10.0.0.1")

	// 满一个窗口后触发清理：.2 .3 闲置已满一个窗口，.1 仍保留
	now = now.Add(40 * time.Second)
	l.Allow(ctx, "rate_limit:login:10.0.0.4")
	if len(l.limiters) != 2 {
		t.Errorf("闲置 key 应被清理，剩余 %d 个", len(l.limiters))
	}
	if _, ok := l.limiters["rate_limit:login:10.0.0.2"]; ok {
		t.Error("10.0.0.2 闲置超过窗口，应被清理")
	}
	if _, ok := l.limiters["rate_limit:login:10.0.0.1"]; !ok {
		t.Error("10.0.0.1 窗口内有访问，不应被清理")
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	mw := []gin.HandlerFunc{RateLimit(NewLocalLimiter(1, time.Minute), "login", zap.NewNop())}
	if w := run(mw, ""); w.Code != http.StatusOK {
		t.Fatalf("首个请求应放行，实际 %d", w.Code)
	}
	w := run(mw, "")
	if w.Code != http.StatusTooManyRequests || !strings.Contains(w.Body.String(), "10029") {
		t.Errorf("超限应返回 429/10029，实际 %d %s", w.Code, w.Body.String())
	}

	if w := run([]gin.HandlerFunc{RateLimit(failingLimiter{}, "login", zap.NewNop())}, ""); w.Code != http.StatusOK {
		t.Errorf("限流器出错时应放行，实际 %d", w.Code)
	}
	if w := run([]gin.HandlerFunc{RateLimit(nil, "login", zap.NewNop())}, ""); w.Code != http.StatusOK {
		t.Errorf("未配置限流器时应放行，实际 %d", w.Code)
	}
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"沿用外部 ID", "gw-123", true},
		{"为空时生成", "", false},
		{"控制字符", "bad\nid", false},
		{"过长", strings.Repeat("x", requestIDMaxLen+1), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if tt.incoming != "" {
			req.Header.Set(requestIDHeader, tt.incoming)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get(requestIDHeader)
		if got != w.Body.String() {
			t.Errorf("%s: 响应头与上下文不一致 %q vs %q", tt.name, got, w.Body.String())
		}
		if tt.keep && got != tt.incoming {
			t.Errorf("%s: 应沿用 %q，实际 %q", tt.name, tt.incoming, got)
		}
		if !tt.keep && (got == tt.incoming || len(got) != 36) {
			t.Errorf("%s: 应生成新 UUID，实际 %q", tt.name, got)
		}
	}
}

// ── CORS / SecurityHeaders / BodyLimit ──

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("白名单来源的预检应通过，实际 %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("非白名单来源不应返回 CORS 头")
	}
}

func TestSecurityHeaders_NoStoreWhenAuthenticated(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Cache-Control") != "" || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("匿名响应不应禁止缓存，实际 %v", w.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer x")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("带认证头的响应应 no-store，实际 %q", w.Header().Get("Cache-Control"))
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/test", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})

	small := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"b"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, small)
	if w.Code != http.StatusOK {
		t.Errorf("小请求体应放行，实际 %d", w.Code)
	}

	big := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, big)
	if w.Code != http.StatusRequestEntityTooLarge || !strings.Contains(w.Body.String(), "10005") {
		t.Errorf("超限请求体应返回 413/10005，实际 %d %s", w.Code, w.Body.String())
	}
}
