package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	rid := w.Header().Get("X-Request-ID")
	if rid == "" {
		t.Fatal("no request id generated")
	}
	uuidRe := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	if !uuidRe.MatchString(rid) {
		t.Fatalf("request id not a uuid: %q", rid)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Fatalf("request id = %q, want the client-supplied one", got)
	}
}

func TestScrubQuery(t *testing.T) {
	cases := []struct {
		in        string
		wantMask  []string
		wantClear []string
	}{
		{"api_key=sk-secret&page=2", []string{"api_key=%5Bmasked%5D"}, []string{"page=2"}},
		{"token=abc&limit=10", []string{"token=%5Bmasked%5D"}, []string{"limit=10"}},
		{"SECRET=x", []string{"SECRET=%5Bmasked%5D"}, nil},
		{"page=1", nil, []string{"page=1"}},
		{"", nil, nil},
	}
	for _, tc := range cases {
		got := scrubQuery(tc.in)
		for _, m := range tc.wantMask {
			if !strings.Contains(got, m) {
				t.Errorf("scrubQuery(%q) = %q, missing %q", tc.in, got, m)
			}
		}
		for _, cl := range tc.wantClear {
			if !strings.Contains(got, cl) {
				t.Errorf("scrubQuery(%q) = %q, lost %q", tc.in, got, cl)
			}
		}
		if strings.Contains(got, "sk-secret") || strings.Contains(got, "abc") {
			t.Errorf("scrubQuery(%q) leaked a credential: %q", tc.in, got)
		}
	}
}

func TestRecoveryReturnsJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), w.Header().Get("X-Request-ID")) {
		t.Fatalf("request id missing from envelope: %s", w.Body.String())
	}
}

func TestLoggerFromFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatal("LoggerFrom returned nil")
	}
}
