package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saasify/saasify-api/internal/store"
	"github.com/saasify/saasify-api/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func issue(t *testing.T, codec *token.Codec, role store.Role, ttl time.Duration) string {
	t.Helper()
	tok, err := codec.Issue("user-1", string(role), ttl)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

// tamper flips the last character of the signature segment.
func tamper(tok string) string {
	last := tok[len(tok)-1]
	if last == 'A' {
		return tok[:len(tok)-1] + "B"
	}
	return tok[:len(tok)-1] + "A"
}

func okHandler(t *testing.T, sawClaims *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFrom(r.Context()) != nil {
			*sawClaims = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	codec := newCodec(t)
	valid := issue(t, codec, store.RoleUser, time.Hour)
	expired := issue(t, codec, store.RoleUser, -time.Hour)

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
	}{
		{"valid token", valid, http.StatusOK},
		{"no cookie", "", http.StatusUnauthorized},
		{"expired token", expired, http.StatusUnauthorized},
		{"malformed token", "not-a-jwt", http.StatusUnauthorized},
		{"tampered token", tamper(valid), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sawClaims bool
			handler := RequireAuth(codec, nil)(okHandler(t, &sawClaims))

			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && !sawClaims {
				t.Fatal("handler ran without claims in context")
			}
			if tt.wantStatus != http.StatusOK {
				if sawClaims {
					t.Fatal("handler ran for a rejected request")
				}
				if !strings.Contains(w.Body.String(), "Unauthorized") {
					t.Fatalf("body = %q, want Unauthorized envelope", w.Body.String())
				}
			}
		})
	}
}

func TestRequireAuth_RejectionsAreIndistinguishable(t *testing.T) {
	codec := newCodec(t)
	handler := RequireAuth(codec, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	bodies := map[string]string{}
	for name, cookie := range map[string]string{
		"absent":    "",
		"expired":   issue(t, codec, store.RoleUser, -time.Hour),
		"malformed": "garbage",
	} {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		if cookie != "" {
			r.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, w.Code)
		}
		bodies[name] = w.Body.String()
	}

	if bodies["absent"] != bodies["expired"] || bodies["expired"] != bodies["malformed"] {
		t.Fatalf("rejection bodies differ: %v", bodies)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       store.Role
		allowed    []store.Role
		wantStatus int
	}{
		{"exact match", store.RoleAdmin, []store.Role{store.RoleAdmin}, http.StatusOK},
		{"one of several", store.RoleManager, []store.Role{store.RoleAdmin, store.RoleManager}, http.StatusOK},
		{"wrong role", store.RoleUser, []store.Role{store.RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			claims := &token.Claims{Subject: "user-1", Role: string(tt.role)}
			r = r.WithContext(WithClaims(r.Context(), claims))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireRole_NoClaimsIsForbidden(t *testing.T) {
	// RequireRole never authenticates; an unauthenticated request reaching
	// it is a wiring bug and gets 403, not 401.
	handler := RequireRole(store.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestChainExtractors(t *testing.T) {
	extract := Chain(
		FromHeader("Authorization", "Bearer"),
		FromCookie(SessionCookie),
	)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	if got := extract(r); got != "from-cookie" {
		t.Fatalf("extract = %q, want from-cookie", got)
	}

	r.Header.Set("Authorization", "Bearer from-header")
	if got := extract(r); got != "from-header" {
		t.Fatalf("extract = %q, want from-header", got)
	}

	if got := extract(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("extract on empty request = %q, want empty", got)
	}
}
