package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
	"github.com/MrSnakeDoc/qrlink/internal/store/memory"
)

type stubRenderer struct{ content string }

func (s *stubRenderer) Render(content string, _ qr.Options) ([]byte, error) {
	s.content = content
	return []byte("png"), nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	handler  http.Handler
	store    *memory.Store
	renderer *stubRenderer
}

func newTestEnv(t *testing.T, mutate func(*deps.Deps)) *testEnv {
	t.Helper()

	st := memory.NewStore()
	r := &stubRenderer{}
	svc := links.NewService(st, domain.NewNanoIDAllocator(0), logger.NewNop(),
		links.WithRenderer(r),
		links.WithClock(func() time.Time { return testNow }),
	)

	d := deps.Deps{
		Logger:        logger.NewNop(),
		StartTime:     testNow,
		Version:       "test",
		Links:         svc,
		Checks:        map[string]deps.Pinger{"store": st},
		DefaultRender: qr.Options{}.WithDefaults(),
		MaxBodyBytes:  1 << 10,
	}
	if mutate != nil {
		mutate(&d)
	}

	return &testEnv{handler: NewRouter(d), store: st, renderer: r}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type generateBody struct {
	QRCode   string `json:"qrCode"`
	ShortURL string `json:"shortUrl"`
	Message  string `json:"message"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) generateBody {
	t.Helper()
	var out generateBody
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("response is not json: %v", err)
	}
	return out
}

func TestGenerateEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantContent string
		wantShort   bool
		wantMessage string
	}{
		{
			name:        "text",
			body:        `{"type":"text","data":{"text":"hello"}}`,
			wantStatus:  http.StatusOK,
			wantContent: "hello",
		},
		{
			name:        "legacy field names",
			body:        `{"qrDataType":"wifi","data":{"ssid":"My;Net\"work","encryption":"WPA"},"colors":{"dark":"#111111","light":"#eeeeee"}}`,
			wantStatus:  http.StatusOK,
			wantContent: `WIFI:T:WPA;S:My\;Net\"work;P:;;`,
		},
		{
			name:        "email",
			body:        `{"type":"email","data":{"to":"a@example.com","body":"hello world"}}`,
			wantStatus:  http.StatusOK,
			wantContent: "mailto:a@example.com?body=hello%20world",
		},
		{
			name:       "url",
			body:       `{"type":"url","data":{"url":"https://example.com/page","expiresAt":"2026-12-31T23:59:59Z"}}`,
			wantStatus: http.StatusOK,
			wantShort:  true,
		},
		{
			name:        "missing url",
			body:        `{"type":"url","data":{}}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrURLRequired.Error(),
		},
		{
			name:        "past expiration",
			body:        `{"type":"url","data":{"url":"https://example.com","expiresAt":"2020-01-01T00:00:00Z"}}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrExpirationInPast.Error(),
		},
		{
			name:        "unsupported type",
			body:        `{"type":"vcard","data":{}}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrUnsupportedType.Error(),
		},
		{
			name:        "empty text",
			body:        `{"type":"text","data":{"text":""}}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrEmptyPayload.Error(),
		},
		{
			name:        "bad colour",
			body:        `{"type":"text","data":{"text":"x"},"renderOptions":{"dark":"blue"}}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrInvalidRenderOptions.Error(),
		},
		{
			name:        "missing data",
			body:        `{"type":"text"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrInvalidRequest.Error(),
		},
		{
			name:        "not json",
			body:        `type=text`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: domain.ErrInvalidRequest.Error(),
		},
		{
			name:       "body too large",
			body:       `{"type":"text","data":{"text":"` + strings.Repeat("x", 2048) + `"}}`,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "http://qr.local/api/generate", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decode(t, rec)

			if tt.wantStatus != http.StatusOK {
				if tt.wantMessage != "" && !strings.HasPrefix(body.Message, tt.wantMessage) {
					t.Errorf("message = %q, want prefix %q", body.Message, tt.wantMessage)
				}
				if env.store.Count() != 0 {
					t.Errorf("failed request wrote %d rows", env.store.Count())
				}
				return
			}

			if body.QRCode != qr.DataURL([]byte("png")) {
				t.Errorf("qrCode = %q", body.QRCode)
			}
			if !tt.wantShort {
				if env.renderer.content != tt.wantContent {
					t.Errorf("encoded %q, want %q", env.renderer.content, tt.wantContent)
				}
				if body.ShortURL != "" {
					t.Errorf("shortUrl = %q, want none", body.ShortURL)
				}
				return
			}

			if !strings.HasPrefix(body.ShortURL, "http://qr.local/r/") {
				t.Errorf("shortUrl = %q", body.ShortURL)
			}
			if env.renderer.content != body.ShortURL {
				t.Errorf("encoded %q, want the short link", env.renderer.content)
			}
		})
	}
}

func TestGenerateUsesPublicBaseURL(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) { d.PublicBaseURL = "https://qr.example.com/" })

	rec := env.do(http.MethodPost, "http://10.0.0.5:8080/api/generate", `{"type":"url","data":{"url":"https://example.com"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); !strings.HasPrefix(body.ShortURL, "https://qr.example.com/r/") {
		t.Errorf("shortUrl = %q", body.ShortURL)
	}
}

func TestGenerateEnforcesHost(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) { d.AllowedHosts = []string{"qr.example.com"} })

	rec := env.do(http.MethodPost, "http://evil.example.net/api/generate", `{"type":"text","data":{"text":"x"}}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	rec = env.do(http.MethodPost, "http://qr.example.com/api/generate", `{"type":"text","data":{"text":"x"}}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRedirectEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	past := "2026-10-18T11:00:00.000Z"
	future := "2026-10-19T11:00:00.000Z"
	garbage := "someday"

	for _, seed := range []struct {
		id  string
		exp *string
	}{
		{"live0001", nil},
		{"future01", &future},
		{"past0001", &past},
		{"garbage1", &garbage},
	} {
		if _, err := env.store.Create(ctx, seed.id, "https://example.com/"+seed.id, seed.exp); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{name: "live", path: "/r/live0001", wantStatus: http.StatusFound, wantLocation: "https://example.com/live0001"},
		{name: "future expiry", path: "/r/future01", wantStatus: http.StatusFound, wantLocation: "https://example.com/future01"},
		{name: "expired", path: "/r/past0001", wantStatus: http.StatusGone, wantBody: "This link has expired. (Expired at: 18 October 2026, 11:00:00 UTC)"},
		{name: "unparseable expiry", path: "/r/garbage1", wantStatus: http.StatusGone, wantBody: "(Expired at: unknown date)"},
		{name: "unknown", path: "/r/nothere1", wantStatus: http.StatusNotFound, wantBody: "Link not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("Cache-Control = %q, want no-store", got)
			}
			if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantLocation)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body does not contain %q:\n%s", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(http.MethodGet, "/healthz", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("ready", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(http.MethodGet, "/readyz", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ready":true`) {
			t.Errorf("readyz = %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("not ready", func(t *testing.T) {
		env := newTestEnv(t, func(d *deps.Deps) {
			d.Checks["redis"] = pingFunc(func(context.Context) error { return errors.New("connection refused") })
		})
		rec := env.do(http.MethodGet, "/readyz", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("readyz status = %d, want 503", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "connection refused") {
			t.Errorf("readyz body = %s", rec.Body.String())
		}
	})

	t.Run("cidr restricted", func(t *testing.T) {
		env := newTestEnv(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })
		rec := env.do(http.MethodGet, "/healthz", "") // httptest uses 192.0.2.1
		if rec.Code != http.StatusForbidden {
			t.Errorf("healthz from outside = %d, want 403", rec.Code)
		}
	})
}
