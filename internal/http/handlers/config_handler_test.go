package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/xiaohuihuib/Rin/internal/ai"
	"github.com/xiaohuihuib/Rin/internal/domain"
	"github.com/xiaohuihuib/Rin/internal/services"
	"github.com/xiaohuihuib/Rin/internal/settings"
)

// stubCfgSvc implements ConfigService with overridable behaviors.
type stubCfgSvc struct {
	getFn        func(ctx context.Context, typ string) (map[string]string, error)
	updateFn     func(ctx context.Context, typ string, values map[string]string) error
	clearCacheFn func(ctx context.Context) error
	testAIFn     func(ctx context.Context, req ai.ProbeRequest) (*ai.ProbeResult, error)
}

func (s *stubCfgSvc) Get(ctx context.Context, typ string) (map[string]string, error) {
	if s.getFn != nil {
		return s.getFn(ctx, typ)
	}
	return map[string]string{}, nil
}

func (s *stubCfgSvc) Update(ctx context.Context, typ string, values map[string]string) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, typ, values)
	}
	return nil
}

func (s *stubCfgSvc) ClearCache(ctx context.Context) error {
	if s.clearCacheFn != nil {
		return s.clearCacheFn(ctx)
	}
	return nil
}

func (s *stubCfgSvc) TestAI(ctx context.Context, req ai.ProbeRequest) (*ai.ProbeResult, error) {
	if s.testAIFn != nil {
		return s.testAIFn(ctx, req)
	}
	return &ai.ProbeResult{Reply: "ok"}, nil
}

// asUser returns a middleware that attaches a pre-authenticated identity,
// standing in for the auth middleware in handler-level tests.
func asUser(u *domain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u != nil {
			c.Set("user", u)
		}
		c.Next()
	}
}

func adminUser() *domain.User  { return &domain.User{ID: 1, Username: "admin", Permission: 1} }
func readerUser() *domain.User { return &domain.User{ID: 2, Username: "reader", Permission: 0} }

// newConfigRouter mounts the config routes with the given identity attached
// to every request (nil means anonymous).
func newConfigRouter(svc ConfigService, u *domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc, &stubMomentSvc{})
	r.Use(asUser(u))
	r.GET("/config/:type", h.GetConfig)
	r.POST("/config/test-ai", h.TestAI)
	r.POST("/config/:type", h.UpdateConfig)
	r.DELETE("/config/cache", h.ClearCache)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetConfigUnknownType(t *testing.T) {
	r := newConfigRouter(&stubCfgSvc{}, nil)
	// The type check runs before the auth gate: even anonymous callers get
	// a 400 for a namespace that does not exist.
	w := doJSON(t, r, http.MethodGet, "/config/bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetClientConfigIsPublic(t *testing.T) {
	svc := &stubCfgSvc{getFn: func(_ context.Context, typ string) (map[string]string, error) {
		if typ != services.ConfigTypeClient {
			t.Errorf("typ = %q", typ)
		}
		return map[string]string{"site.title": "Rin"}, nil
	}}
	r := newConfigRouter(svc, nil)

	w := doJSON(t, r, http.MethodGet, "/config/client", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["site.title"] != "Rin" {
		t.Fatalf("body = %v", out)
	}
}

func TestGetServerConfigGating(t *testing.T) {
	svc := &stubCfgSvc{getFn: func(context.Context, string) (map[string]string, error) {
		return map[string]string{"ai_summary.api_key": settings.MaskToken}, nil
	}}

	// Anonymous: 401.
	w := doJSON(t, newConfigRouter(svc, nil), http.MethodGet, "/config/server", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", w.Code)
	}

	// Authenticated non-admin: 403.
	w = doJSON(t, newConfigRouter(svc, readerUser()), http.MethodGet, "/config/server", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status = %d, want 403", w.Code)
	}

	// Admin: 200 with the (already masked) mapping.
	w = doJSON(t, newConfigRouter(svc, adminUser()), http.MethodGet, "/config/server", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), settings.MaskToken) {
		t.Fatalf("masked value missing from body: %s", w.Body.String())
	}
}

func TestUpdateConfig(t *testing.T) {
	var gotTyp string
	var gotValues map[string]string
	svc := &stubCfgSvc{updateFn: func(_ context.Context, typ string, values map[string]string) error {
		gotTyp, gotValues = typ, values
		return nil
	}}
	r := newConfigRouter(svc, adminUser())

	w := doJSON(t, r, http.MethodPost, "/config/server", map[string]string{"k": "v"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 (%s)", w.Code, w.Body.String())
	}
	if gotTyp != "server" || gotValues["k"] != "v" {
		t.Fatalf("service got %q %v", gotTyp, gotValues)
	}
}

func TestUpdateConfigBadBody(t *testing.T) {
	r := newConfigRouter(&stubCfgSvc{}, adminUser())
	req := httptest.NewRequest(http.MethodPost, "/config/server", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUpdateConfigUnknownType(t *testing.T) {
	svc := &stubCfgSvc{updateFn: func(context.Context, string, map[string]string) error {
		return services.ErrInvalidConfigType
	}}
	r := newConfigRouter(svc, adminUser())
	w := doJSON(t, r, http.MethodPost, "/config/bogus", map[string]string{"k": "v"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestClearCache(t *testing.T) {
	called := false
	svc := &stubCfgSvc{clearCacheFn: func(context.Context) error {
		called = true
		return nil
	}}
	r := newConfigRouter(svc, adminUser())

	w := doJSON(t, r, http.MethodDelete, "/config/cache", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if !called {
		t.Fatal("service not called")
	}
}

func TestTestAISuccess(t *testing.T) {
	var gotReq ai.ProbeRequest
	svc := &stubCfgSvc{testAIFn: func(_ context.Context, req ai.ProbeRequest) (*ai.ProbeResult, error) {
		gotReq = req
		return &ai.ProbeResult{Reply: "ok", LatencyMS: 12}, nil
	}}
	r := newConfigRouter(svc, adminUser())

	w := doJSON(t, r, http.MethodPost, "/config/test-ai", TestAIRequest{
		Provider: "openai",
		Model:    "gpt-4o-mini",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	var out TestAIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.Result == nil || out.Result.Reply != "ok" {
		t.Fatalf("body = %+v", out)
	}
	if gotReq.Provider != "openai" || gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("service got %+v", gotReq)
	}
}

func TestTestAIMissingFields(t *testing.T) {
	r := newConfigRouter(&stubCfgSvc{}, adminUser())
	w := doJSON(t, r, http.MethodPost, "/config/test-ai", map[string]string{"provider": "openai"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// An upstream auth failure must surface as 502 with the provider's message,
// never as this API's own 401.
func TestTestAIUpstreamFailure(t *testing.T) {
	svc := &stubCfgSvc{testAIFn: func(context.Context, ai.ProbeRequest) (*ai.ProbeResult, error) {
		return nil, errors.New("provider returned 401: Incorrect API key provided")
	}}
	r := newConfigRouter(svc, adminUser())

	w := doJSON(t, r, http.MethodPost, "/config/test-ai", TestAIRequest{Provider: "openai", Model: "m"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	var out ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Code != ErrCodeUpstreamFailed {
		t.Fatalf("code = %q, want %q", out.Code, ErrCodeUpstreamFailed)
	}
	if !strings.Contains(out.Message, "Incorrect API key") {
		t.Fatalf("upstream message dropped: %q", out.Message)
	}
}
